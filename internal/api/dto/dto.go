package dto

// SubmitRequest is the body of POST /api/download.
type SubmitRequest struct {
	URL string `json:"url" binding:"required"`
}

// SubmitResponse is returned on submission. Cached is true when the result
// was served from the URL cache without creating a new job.
type SubmitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	File   string `json:"file,omitempty"`
	Cached bool   `json:"cached,omitempty"`
}

// StatusResponse is returned by GET /api/status/:jobId.
type StatusResponse struct {
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
	File        string `json:"file,omitempty"`
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"created_at"`
	CompletedAt string `json:"completed_at,omitempty"`
	// ExpiresAt is when the artifact stops being retrievable, set once the
	// job completed.
	ExpiresAt string `json:"expires_at,omitempty"`
}

// StatsResponse is returned by GET /api/stats.
type StatsResponse struct {
	TotalDownloads int64  `json:"total_downloads"`
	Status         string `json:"status"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Store     string `json:"store"`
	Queue     string `json:"queue"`
}

// ErrorResponse carries a short, client-safe message.
type ErrorResponse struct {
	Error string `json:"error"`
}
