package domain

import "time"

// Status is the lifecycle state of a fetch job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job tracks a single fetch request from submission to terminal state.
// Mutation happens only through JobStore transition methods.
type Job struct {
	ID           string
	Status       Status
	Progress     int
	ArtifactPath string
	Token        string
	Error        string
	CreatedAt    time.Time
}
