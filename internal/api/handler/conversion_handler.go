package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tunegrab/tunegrab/internal/api/dto"
	"github.com/tunegrab/tunegrab/internal/extractor"
	"github.com/tunegrab/tunegrab/internal/job"
)

// Submit handles POST /api/download. It validates the URL before touching any
// resource, serves a cached result for a previously completed identical URL,
// and otherwise records a pending job and enqueues it.
func (h *ConversionHandler) Submit(c *gin.Context) {
	var req dto.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	normalized, err := job.NormalizeURL(req.URL)
	if err != nil {
		h.logger.Info("Rejected submission",
			slog.String("reason", err.Error()),
		)
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid URL"})
		return
	}

	ctx := c.Request.Context()

	// Cache lookup happens before job creation so an identical URL inside the
	// retention window short-circuits without a second extraction. Concurrent
	// submissions of the same URL can still both miss; that race is accepted.
	if cached, err := h.store.CachedResult(ctx, normalized); err == nil {
		h.logger.Info("Serving cached result",
			slog.String("job_id", cached.ID),
		)
		c.JSON(http.StatusOK, dto.SubmitResponse{
			JobID:  cached.ID,
			Status: string(cached.Status),
			File:   cached.Artifact,
			Cached: true,
		})
		return
	} else if !errors.Is(err, job.ErrNotFound) {
		h.logger.Error("Cache lookup failed", slog.Any("error", err))
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Service temporarily unavailable"})
		return
	}

	j := &job.Job{
		ID:        uuid.New().String(),
		URL:       normalized,
		Status:    job.StatusPending,
		CreatedAt: time.Now(),
	}

	if err := h.store.CreateJob(ctx, j); err != nil {
		h.logger.Error("Failed to create job", slog.Any("error", err))
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Service temporarily unavailable"})
		return
	}

	body, err := json.Marshal(job.Message{JobID: j.ID, URL: normalized})
	if err != nil {
		h.logger.Error("Failed to encode job message", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
		return
	}

	if err := h.publisher.Publish(ctx, body, "application/json"); err != nil {
		// Fail fast rather than leave a client polling a job no worker will
		// ever pick up.
		h.logger.Error("Failed to enqueue job",
			slog.String("job_id", j.ID),
			slog.Any("error", err),
		)
		if failErr := h.store.FailJob(ctx, j.ID, "could not be queued"); failErr != nil {
			h.logger.Error("Failed to mark unqueued job as failed",
				slog.String("job_id", j.ID),
				slog.Any("error", failErr),
			)
		}
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Service temporarily unavailable"})
		return
	}

	h.logger.Info("Job submitted",
		slog.String("job_id", j.ID),
		slog.String("url", normalized),
	)

	c.JSON(http.StatusAccepted, dto.SubmitResponse{
		JobID:  j.ID,
		Status: string(job.StatusProcessing),
	})
}

// Status handles GET /api/status/:jobId. Expired and never-created jobs are
// indistinguishable: both return 404.
func (h *ConversionHandler) Status(c *gin.Context) {
	jobID := c.Param("jobId")
	if _, err := uuid.Parse(jobID); err != nil {
		// A malformed id can never name a stored job, so it reads the same
		// as an unknown one without a store round trip.
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Job not found"})
		return
	}

	j, err := h.store.GetJob(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Job not found"})
			return
		}
		h.logger.Error("Failed to read job",
			slog.String("job_id", jobID),
			slog.Any("error", err),
		)
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Service temporarily unavailable"})
		return
	}

	resp := dto.StatusResponse{
		JobID:     j.ID,
		Status:    string(j.Status),
		File:      j.Artifact,
		Error:     j.Error,
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
	}
	if !j.CompletedAt.IsZero() {
		resp.CompletedAt = j.CompletedAt.Format(time.RFC3339)
	}
	if j.Status == job.StatusCompleted {
		resp.ExpiresAt = j.CompletedAt.Add(h.retention).Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, resp)
}

// Retrieve handles GET /api/download/:filename, streaming an artifact from
// disk. The sanitized name both guards the Content-Disposition header and
// pins the lookup under the artifact directory.
func (h *ConversionHandler) Retrieve(c *gin.Context) {
	name := extractor.SanitizeFilename(c.Param("filename"))

	path, err := h.findArtifact(name)
	if err != nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "File not found"})
		return
	}

	h.downloadCount.Add(1)
	h.logger.Info("Artifact download",
		slog.String("file", name),
	)

	c.Header("Content-Type", "audio/mpeg")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.File(path)
}

// findArtifact resolves a sanitized filename to a path under the artifact
// base directory. Artifacts live one level down in job-scoped directories.
// Only MP3s are servable; the metadata sidecar next to each artifact is not.
func (h *ConversionHandler) findArtifact(name string) (string, error) {
	if !strings.EqualFold(filepath.Ext(name), ".mp3") {
		return "", os.ErrNotExist
	}

	entries, err := os.ReadDir(h.artifactDir)
	if err != nil {
		return "", err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(h.artifactDir, entry.Name(), name)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
	}

	return "", os.ErrNotExist
}

// Stats handles GET /api/stats.
func (h *ConversionHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, dto.StatsResponse{
		TotalDownloads: h.downloadCount.Load(),
		Status:         "ok",
	})
}

// Health handles GET /health, reporting reachability of the collaborators.
func (h *ConversionHandler) Health(c *gin.Context) {
	resp := dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().Format(time.RFC3339),
		Store:     "up",
		Queue:     "up",
	}

	if err := h.store.Ping(c.Request.Context()); err != nil {
		resp.Status = "degraded"
		resp.Store = "down"
	}
	if hc, ok := h.publisher.(interface{ IsConnected() bool }); ok && !hc.IsConnected() {
		resp.Status = "degraded"
		resp.Queue = "down"
	}

	c.JSON(http.StatusOK, resp)
}
