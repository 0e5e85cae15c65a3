package job

import "time"

// Status represents the lifecycle state of a conversion job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status is a final state. A job in a terminal
// state is never written again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one request to convert a URL into a downloadable MP3 artifact.
type Job struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Status      Status    `json:"status"`
	Artifact    string    `json:"artifact,omitempty"` // filename within the job's directory
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	StartedAt   time.Time `json:"started_at,omitempty"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// Message is the queue envelope published on submission and consumed by workers.
type Message struct {
	JobID string `json:"job_id"`
	URL   string `json:"url"`
}
