package store

import (
	"context"
	"time"

	"github.com/tunegrab/tunegrab/internal/job"
)

// Store persists job records and the URL result cache. Every record carries a
// TTL equal to the retention window, so expiry and "never existed" look the
// same to readers: both surface job.ErrNotFound.
type Store interface {
	// CreateJob writes a new pending job record.
	CreateJob(ctx context.Context, j *job.Job) error

	// GetJob returns the job record for id, or job.ErrNotFound.
	GetJob(ctx context.Context, id string) (*job.Job, error)

	// MarkProcessing transitions a pending job to processing. Returns
	// job.ErrTerminal if the job already reached a terminal state.
	MarkProcessing(ctx context.Context, id string) error

	// CompleteJob records the single terminal completed transition with the
	// artifact filename. Returns job.ErrTerminal if already terminal.
	CompleteJob(ctx context.Context, id, artifact string) error

	// FailJob records the single terminal failed transition with a short,
	// client-safe error description. Returns job.ErrTerminal if already
	// terminal.
	FailJob(ctx context.Context, id, errMsg string) error

	// CacheResult maps a normalized URL to the ID of its completed job.
	CacheResult(ctx context.Context, normalizedURL, jobID string) error

	// CachedResult returns the completed job previously recorded for the
	// normalized URL, or job.ErrNotFound if absent, expired, or no longer
	// resolvable.
	CachedResult(ctx context.Context, normalizedURL string) (*job.Job, error)

	// Ping verifies the backing service is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// Retention bounds how long job records and cache entries live. It should
// match the janitor's artifact retention so a status read never outlives its
// file by much.
const DefaultRetention = time.Hour
