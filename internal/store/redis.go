package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/tunegrab/tunegrab/internal/job"
)

const (
	jobKeyPrefix = "job:"
	urlKeyPrefix = "url:"
)

// RedisStore keeps job records and the URL cache in redis with the retention
// window as TTL on every key.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
	logger    *slog.Logger
}

// RedisConfig holds connection settings for the job store.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	Retention time.Duration
}

// NewRedisStore connects to redis and verifies the connection before
// returning. Submission must fail fast when the store is down, so an
// unreachable server is an error here rather than a degraded mode.
func NewRedisStore(cfg *RedisConfig, logger *slog.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	retention := cfg.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}

	logger.Info("Connected to redis",
		slog.String("addr", cfg.Addr),
		slog.Int("db", cfg.DB),
		slog.Duration("retention", retention),
	)

	return &RedisStore{
		client:    client,
		retention: retention,
		logger:    logger,
	}, nil
}

func (s *RedisStore) CreateJob(ctx context.Context, j *job.Job) error {
	return s.writeJob(ctx, j)
}

func (s *RedisStore) GetJob(ctx context.Context, id string) (*job.Job, error) {
	val, err := s.client.Get(ctx, jobKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, job.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read job %s: %w", id, err)
	}

	var j job.Job
	if err := json.Unmarshal([]byte(val), &j); err != nil {
		return nil, fmt.Errorf("failed to decode job %s: %w", id, err)
	}
	return &j, nil
}

func (s *RedisStore) MarkProcessing(ctx context.Context, id string) error {
	return s.transition(ctx, id, func(j *job.Job) {
		j.Status = job.StatusProcessing
		j.StartedAt = time.Now()
	})
}

func (s *RedisStore) CompleteJob(ctx context.Context, id, artifact string) error {
	return s.transition(ctx, id, func(j *job.Job) {
		j.Status = job.StatusCompleted
		j.Artifact = artifact
		j.Error = ""
		j.CompletedAt = time.Now()
	})
}

func (s *RedisStore) FailJob(ctx context.Context, id, errMsg string) error {
	return s.transition(ctx, id, func(j *job.Job) {
		j.Status = job.StatusFailed
		j.Error = errMsg
		j.CompletedAt = time.Now()
	})
}

func (s *RedisStore) CacheResult(ctx context.Context, normalizedURL, jobID string) error {
	key := urlKeyPrefix + job.URLDigest(normalizedURL)
	if err := s.client.Set(ctx, key, jobID, s.retention).Err(); err != nil {
		return fmt.Errorf("failed to cache result for url: %w", err)
	}
	return nil
}

func (s *RedisStore) CachedResult(ctx context.Context, normalizedURL string) (*job.Job, error) {
	key := urlKeyPrefix + job.URLDigest(normalizedURL)
	jobID, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, job.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read url cache: %w", err)
	}

	j, err := s.GetJob(ctx, jobID)
	if err != nil {
		// The job record can expire slightly before the cache entry; treat a
		// dangling mapping as a miss.
		if errors.Is(err, job.ErrNotFound) {
			return nil, job.ErrNotFound
		}
		return nil, err
	}
	if j.Status != job.StatusCompleted {
		return nil, job.ErrNotFound
	}
	return j, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// transition applies a read-modify-write under the terminal-once rule. The
// read-check is not linearizable across processes, but only the single worker
// that consumed a job's message writes its terminal state, so the guard
// protects against redeliveries, not races.
func (s *RedisStore) transition(ctx context.Context, id string, mutate func(*job.Job)) error {
	j, err := s.GetJob(ctx, id)
	if err != nil {
		return err
	}
	if j.Status.Terminal() {
		return job.ErrTerminal
	}

	mutate(j)
	return s.writeJob(ctx, j)
}

func (s *RedisStore) writeJob(ctx context.Context, j *job.Job) error {
	data, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("failed to encode job %s: %w", j.ID, err)
	}
	if err := s.client.Set(ctx, jobKeyPrefix+j.ID, data, s.retention).Err(); err != nil {
		return fmt.Errorf("failed to write job %s: %w", j.ID, err)
	}
	return nil
}
