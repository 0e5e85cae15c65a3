package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tunegrab/tunegrab/internal/janitor"
	"github.com/tunegrab/tunegrab/internal/job"
)

// processJob runs one conversion end to end: claim the job, run the extractor
// into the job's own directory, and record the outcome. The returned error
// decides the NACK requeue: only wrapped job.RetryableError goes back on the
// queue, everything else is final.
func (w *Worker) processJob(ctx context.Context, msg job.Message) error {
	w.logger.Info("Processing job",
		slog.String("job_id", msg.JobID),
		slog.String("worker_id", w.workerID),
	)

	if err := w.store.MarkProcessing(ctx, msg.JobID); err != nil {
		switch {
		case errors.Is(err, job.ErrTerminal):
			// Redelivery of an already finished job; nothing left to do.
			w.logger.Warn("Job already finished, skipping",
				slog.String("job_id", msg.JobID),
			)
			return nil
		case errors.Is(err, job.ErrNotFound):
			// The record expired before the message was picked up.
			w.logger.Warn("Job expired before pickup, skipping",
				slog.String("job_id", msg.JobID),
			)
			return nil
		default:
			return job.NewRetryableError(fmt.Errorf("failed to mark job processing: %w", err))
		}
	}

	dir := filepath.Join(w.outputDir, msg.JobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return job.NewRetryableError(fmt.Errorf("failed to create job directory: %w", err))
	}

	// The sidecar lets the janitor age this directory without the store.
	if err := janitor.WriteMeta(dir, &janitor.Meta{
		JobID:     msg.JobID,
		URL:       msg.URL,
		CreatedAt: time.Now(),
	}); err != nil {
		w.logger.Warn("Failed to write job metadata",
			slog.String("job_id", msg.JobID),
			slog.String("error", err.Error()),
		)
	}

	result, err := w.runner.Extract(ctx, msg.URL, dir)
	if err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			w.logger.Warn("Failed to remove directory of failed job",
				slog.String("dir", dir),
				slog.String("error", rmErr.Error()),
			)
		}

		if failErr := w.store.FailJob(ctx, msg.JobID, failMessage(err)); failErr != nil {
			w.logger.Error("Failed to record job failure",
				slog.String("job_id", msg.JobID),
				slog.String("error", failErr.Error()),
			)
		}

		return fmt.Errorf("extraction failed: %w", err)
	}

	if err := w.store.CompleteJob(ctx, msg.JobID, result.Filename); err != nil {
		// The artifact exists and is downloadable; redoing the whole
		// conversion to retry a status write is not worth it.
		w.logger.Error("Failed to record job completion",
			slog.String("job_id", msg.JobID),
			slog.String("error", err.Error()),
		)
		return nil
	}

	if err := w.store.CacheResult(ctx, msg.URL, msg.JobID); err != nil {
		w.logger.Warn("Failed to cache result for URL",
			slog.String("job_id", msg.JobID),
			slog.String("error", err.Error()),
		)
	}

	w.logger.Info("Job completed",
		slog.String("job_id", msg.JobID),
		slog.String("file", result.Filename),
		slog.Duration("extraction", result.Elapsed),
	)

	return nil
}

// failMessage turns an extraction error into the short description stored on
// the job. Extractor stderr never reaches here, so the text is safe to show.
func failMessage(err error) string {
	switch {
	case errors.Is(err, job.ErrNoArtifact), errors.Is(err, job.ErrAmbiguousArtifact):
		return "conversion produced no usable audio file"
	default:
		return "conversion failed: " + err.Error()
	}
}
