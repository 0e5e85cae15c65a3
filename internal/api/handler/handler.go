package handler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tunegrab/tunegrab/internal/store"
)

// Publisher enqueues job messages for worker consumption.
type Publisher interface {
	Publish(ctx context.Context, body []byte, contentType string) error
}

// Dependencies holds everything handlers need.
type Dependencies struct {
	Logger    *slog.Logger
	Store     store.Store
	Publisher Publisher
	// ArtifactDir is the base directory artifacts are served from.
	ArtifactDir string
	// Retention mirrors the store TTL; status responses use it to report
	// artifact expiry.
	Retention time.Duration
}

// ConversionHandler handles conversion-related HTTP requests.
type ConversionHandler struct {
	logger      *slog.Logger
	store       store.Store
	publisher   Publisher
	artifactDir string
	retention   time.Duration

	// downloadCount is process-wide and resets on restart; nothing depends
	// on its exact value across restarts.
	downloadCount atomic.Int64
}

// NewConversionHandler creates a ConversionHandler instance.
func NewConversionHandler(deps *Dependencies) *ConversionHandler {
	return &ConversionHandler{
		logger:      deps.Logger,
		store:       deps.Store,
		publisher:   deps.Publisher,
		artifactDir: deps.ArtifactDir,
		retention:   deps.Retention,
	}
}
