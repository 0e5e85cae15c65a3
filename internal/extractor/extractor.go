package extractor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/tunegrab/tunegrab/internal/job"
)

// Config holds settings for the external extraction tool.
type Config struct {
	// BinaryPath is the yt-dlp executable, resolved via PATH when relative.
	BinaryPath string
	// Timeout bounds a single invocation end to end.
	Timeout time.Duration
	// ExtraArgs are appended before the URL, for deployment-specific flags.
	ExtraArgs []string
}

// Result describes a successful extraction.
type Result struct {
	// ArtifactPath is the absolute path of the produced MP3.
	ArtifactPath string
	// Filename is the base name of the artifact.
	Filename string
	// Elapsed is how long the invocation took.
	Elapsed time.Duration
}

// Runner invokes the external extraction binary. It is safe for concurrent
// use; each call runs an independent process writing into its own directory.
type Runner struct {
	config *Config
	logger *slog.Logger
}

// NewRunner creates a Runner with defaults filled in.
func NewRunner(cfg *Config, logger *slog.Logger) *Runner {
	if cfg.BinaryPath == "" {
		cfg.BinaryPath = "yt-dlp"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Minute
	}
	return &Runner{config: cfg, logger: logger}
}

// Extract runs the tool against url, writing into outDir. The command is built
// as an argument list, never a shell string, so the URL cannot inject into the
// invocation. On success exactly one MP3 must exist in outDir; zero yields
// job.ErrNoArtifact and more than one job.ErrAmbiguousArtifact.
func (r *Runner) Extract(ctx context.Context, url, outDir string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	args := []string{
		"-x",
		"--audio-format", "mp3",
		"--no-playlist",
		"--no-warnings",
		"-o", filepath.Join(outDir, "%(title)s.%(ext)s"),
	}
	args = append(args, r.config.ExtraArgs...)
	args = append(args, url)

	cmd := exec.CommandContext(ctx, r.config.BinaryPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	// Stderr can carry credentials-bearing URLs and full command context;
	// it stays in internal logs only.
	if err != nil {
		r.logger.Error("Extractor invocation failed",
			slog.String("binary", r.config.BinaryPath),
			slog.Duration("elapsed", elapsed),
			slog.String("stderr", tail(stderr.String(), 2048)),
			slog.Any("error", err),
		)
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("extractor timed out after %s", r.config.Timeout)
		}
		return nil, fmt.Errorf("extractor exited with error: %w", err)
	}

	artifact, err := findArtifact(outDir)
	if err != nil {
		r.logger.Error("Extractor produced unusable output",
			slog.String("dir", outDir),
			slog.String("stdout", tail(stdout.String(), 2048)),
			slog.Any("error", err),
		)
		return nil, err
	}

	r.logger.Info("Extraction completed",
		slog.String("artifact", filepath.Base(artifact)),
		slog.Duration("elapsed", elapsed),
	)

	return &Result{
		ArtifactPath: artifact,
		Filename:     filepath.Base(artifact),
		Elapsed:      elapsed,
	}, nil
}

// findArtifact locates the single MP3 the tool wrote into dir.
func findArtifact(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.mp3"))
	if err != nil {
		return "", fmt.Errorf("failed to scan output directory: %w", err)
	}

	switch len(matches) {
	case 0:
		return "", job.ErrNoArtifact
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %d files produced", job.ErrAmbiguousArtifact, len(matches))
	}
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
