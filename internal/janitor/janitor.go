package janitor

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// MetaFilename is the per-job metadata file the worker drops into each
// artifact directory. Its recorded creation time is what sweeps age against,
// instead of parsing directory names.
const MetaFilename = "job.json"

// Meta is the sidecar written next to a job's artifact.
type Meta struct {
	JobID     string    `json:"job_id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// WriteMeta records job metadata into dir.
func WriteMeta(dir string, meta *Meta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, MetaFilename), data, 0o644)
}

// Config holds janitor settings.
type Config struct {
	// BaseDir is the directory holding one subdirectory per job.
	BaseDir string
	// Retention is how old an artifact directory must be before deletion.
	Retention time.Duration
	// Interval is the sweep period.
	Interval time.Duration
}

// Janitor periodically reclaims artifact directories older than the retention
// window. It shares no state with request handling beyond the file system.
type Janitor struct {
	config *Config
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Janitor with defaults filled in.
func New(cfg *Config, logger *slog.Logger) *Janitor {
	if cfg.Retention <= 0 {
		cfg.Retention = time.Hour
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Minute
	}
	return &Janitor{config: cfg, logger: logger, now: time.Now}
}

// Start sweeps once immediately, then on every tick until ctx is canceled.
func (j *Janitor) Start(ctx context.Context) {
	j.logger.Info("Janitor started",
		slog.String("base_dir", j.config.BaseDir),
		slog.Duration("retention", j.config.Retention),
		slog.Duration("interval", j.config.Interval),
	)

	j.Sweep()

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.Sweep()
		case <-ctx.Done():
			j.logger.Info("Janitor stopped")
			return
		}
	}
}

// Sweep deletes every entry under BaseDir older than the retention window.
// Deletion is best-effort: one failed removal never aborts the rest of the
// sweep. Returns the number of entries removed.
func (j *Janitor) Sweep() int {
	entries, err := os.ReadDir(j.config.BaseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			j.logger.Error("Failed to list artifact directory",
				slog.String("base_dir", j.config.BaseDir),
				slog.Any("error", err),
			)
		}
		return 0
	}

	cutoff := j.now().Add(-j.config.Retention)
	removed := 0

	for _, entry := range entries {
		path := filepath.Join(j.config.BaseDir, entry.Name())

		created, ok := j.entryCreatedAt(path, entry)
		if !ok {
			continue
		}
		if created.After(cutoff) {
			continue
		}

		if err := os.RemoveAll(path); err != nil {
			j.logger.Error("Failed to remove expired artifact",
				slog.String("path", path),
				slog.Any("error", err),
			)
			continue
		}

		removed++
		j.logger.Info("Removed expired artifact",
			slog.String("path", path),
			slog.Time("created_at", created),
		)
	}

	return removed
}

// entryCreatedAt resolves an entry's creation time from its metadata sidecar,
// falling back to file modification time when the sidecar is absent or
// unreadable.
func (j *Janitor) entryCreatedAt(path string, entry os.DirEntry) (time.Time, bool) {
	if entry.IsDir() {
		data, err := os.ReadFile(filepath.Join(path, MetaFilename))
		if err == nil {
			var meta Meta
			if err := json.Unmarshal(data, &meta); err == nil && !meta.CreatedAt.IsZero() {
				return meta.CreatedAt, true
			}
		}
	}

	info, err := entry.Info()
	if err != nil {
		j.logger.Warn("Failed to stat artifact entry",
			slog.String("path", path),
			slog.Any("error", err),
		)
		return time.Time{}, false
	}
	return info.ModTime(), true
}
