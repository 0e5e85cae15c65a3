package store

import (
	"context"
	"sync"
	"time"

	"github.com/tunegrab/tunegrab/internal/job"
)

// MemoryStore is a mutex-guarded in-process Store. It backs tests and keeps
// the same expiry semantics as the redis implementation: records past the
// retention window are invisible.
type MemoryStore struct {
	mu        sync.RWMutex
	jobs      map[string]entry
	urls      map[string]entry
	retention time.Duration
	now       func() time.Time
}

type entry struct {
	job       *job.Job
	jobID     string
	expiresAt time.Time
}

// NewMemoryStore creates an in-memory store with the given retention window.
func NewMemoryStore(retention time.Duration) *MemoryStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &MemoryStore{
		jobs:      make(map[string]entry),
		urls:      make(map[string]entry),
		retention: retention,
		now:       time.Now,
	}
}

func (s *MemoryStore) CreateJob(_ context.Context, j *job.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *j
	s.jobs[j.ID] = entry{job: &cp, expiresAt: s.now().Add(s.retention)}
	return nil
}

func (s *MemoryStore) GetJob(_ context.Context, id string) (*job.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.jobs[id]
	if !ok || s.now().After(e.expiresAt) {
		return nil, job.ErrNotFound
	}
	cp := *e.job
	return &cp, nil
}

func (s *MemoryStore) MarkProcessing(ctx context.Context, id string) error {
	return s.transition(id, func(j *job.Job) {
		j.Status = job.StatusProcessing
		j.StartedAt = s.now()
	})
}

func (s *MemoryStore) CompleteJob(ctx context.Context, id, artifact string) error {
	return s.transition(id, func(j *job.Job) {
		j.Status = job.StatusCompleted
		j.Artifact = artifact
		j.Error = ""
		j.CompletedAt = s.now()
	})
}

func (s *MemoryStore) FailJob(ctx context.Context, id, errMsg string) error {
	return s.transition(id, func(j *job.Job) {
		j.Status = job.StatusFailed
		j.Error = errMsg
		j.CompletedAt = s.now()
	})
}

func (s *MemoryStore) CacheResult(_ context.Context, normalizedURL, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.urls[job.URLDigest(normalizedURL)] = entry{jobID: jobID, expiresAt: s.now().Add(s.retention)}
	return nil
}

func (s *MemoryStore) CachedResult(ctx context.Context, normalizedURL string) (*job.Job, error) {
	s.mu.RLock()
	e, ok := s.urls[job.URLDigest(normalizedURL)]
	s.mu.RUnlock()

	if !ok || s.now().After(e.expiresAt) {
		return nil, job.ErrNotFound
	}

	j, err := s.GetJob(ctx, e.jobID)
	if err != nil {
		return nil, err
	}
	if j.Status != job.StatusCompleted {
		return nil, job.ErrNotFound
	}
	return j, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// SetClock overrides the time source. Tests use it to step past the
// retention window without sleeping.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) transition(id string, mutate func(*job.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.jobs[id]
	if !ok || s.now().After(e.expiresAt) {
		return job.ErrNotFound
	}
	if e.job.Status.Terminal() {
		return job.ErrTerminal
	}

	mutate(e.job)
	e.expiresAt = s.now().Add(s.retention)
	s.jobs[id] = e
	return nil
}
