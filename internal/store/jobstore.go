package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"vidvault/internal/domain"
)

// JobStore is the synchronized in-memory registry of fetch jobs.
//
// Jobs move through pending -> processing -> completed|failed and the
// transition methods enforce that ordering: a call that does not match the
// job's current state is a no-op. Unknown ids are also no-ops, because the
// orchestrator can race the reclaimer and must not crash when it loses.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job
	now  func() time.Time
}

// NewJobStore creates an empty job store.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]*domain.Job),
		now:  time.Now,
	}
}

// Create allocates a fresh job in pending state and returns its id.
func (s *JobStore) Create() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	s.jobs[id] = &domain.Job{
		ID:        id,
		Status:    domain.StatusPending,
		Progress:  0,
		CreatedAt: s.now(),
	}
	return id
}

// Get returns a snapshot of the job. Concurrent writers never leak a
// partially applied transition because the copy is taken under the lock.
func (s *JobStore) Get(id string) (domain.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.Job{}, false
	}
	return *job, true
}

// MarkProcessing moves a pending job to processing with the given progress.
func (s *JobStore) MarkProcessing(id string, progress int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status != domain.StatusPending {
		return
	}
	job.Status = domain.StatusProcessing
	if progress > job.Progress {
		job.Progress = progress
	}
}

// SetProgress raises the progress of a processing job. Progress is monotone:
// a lower value than the current one is discarded.
func (s *JobStore) SetProgress(id string, progress int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status != domain.StatusProcessing {
		return
	}
	if progress > job.Progress {
		job.Progress = progress
	}
}

// Complete moves a processing job to its completed terminal state, attaching
// the produced artifact and its download token.
func (s *JobStore) Complete(id, artifactPath, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status != domain.StatusProcessing {
		return
	}
	job.Status = domain.StatusCompleted
	job.Progress = 100
	job.ArtifactPath = artifactPath
	job.Token = token
}

// Fail moves a pending or processing job to its failed terminal state.
// Progress keeps its last value.
func (s *JobStore) Fail(id, cause string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status.Terminal() {
		return
	}
	job.Status = domain.StatusFailed
	job.Error = cause
}

// DeleteOlderThan removes every job created before cutoff, regardless of
// status, and returns the removed ids. Used by the reclaimer.
func (s *JobStore) DeleteOlderThan(cutoff time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for id, job := range s.jobs {
		if job.CreatedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// Len returns the number of live job records.
func (s *JobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
