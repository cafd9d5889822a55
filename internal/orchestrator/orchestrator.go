// Package orchestrator drives fetch jobs from submission to a terminal state.
// Each job runs in its own goroutine; the blocking backend calls inside it
// are gated by a bounded semaphore so only a few downloads hit the network at
// once while any number of jobs can be in flight.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vidvault/internal/domain"
	"vidvault/internal/fetch"
	"vidvault/internal/store"
)

// ErrShuttingDown is returned by Submit once Shutdown has begun.
var ErrShuttingDown = errors.New("orchestrator is shutting down")

// progress checkpoints reported while a job is processing
const (
	progressLookup   = 10
	progressRetrieve = 25
)

// Config holds orchestrator dependencies.
type Config struct {
	Logger      *slog.Logger
	Jobs        *store.JobStore
	Tokens      *store.TokenStore
	Backend     fetch.Backend
	DownloadDir string
	Concurrency int
}

// Orchestrator creates jobs and drives them through the fetch pipeline
// without ever blocking its caller.
type Orchestrator struct {
	logger      *slog.Logger
	jobs        *store.JobStore
	tokens      *store.TokenStore
	backend     fetch.Backend
	downloadDir string

	sem    chan struct{}
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	// mu guards closed and orders wg.Add against the wg.Wait in Shutdown.
	mu     sync.Mutex
	closed bool
}

// New creates an orchestrator with a worker pool of cfg.Concurrency slots.
func New(cfg *Config) *Orchestrator {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		logger:      cfg.Logger,
		jobs:        cfg.Jobs,
		tokens:      cfg.Tokens,
		backend:     cfg.Backend,
		downloadDir: cfg.DownloadDir,
		sem:         make(chan struct{}, concurrency),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Submit creates a new job for url and starts processing it in the
// background. It returns the job id immediately, or ErrShuttingDown once
// Shutdown has begun: no new work is accepted or started during the drain.
func (o *Orchestrator) Submit(url, quality string) (string, error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return "", ErrShuttingDown
	}
	id := o.jobs.Create()
	o.wg.Add(1)
	o.mu.Unlock()

	o.logger.Info("Job submitted",
		slog.String("job_id", id),
		slog.String("quality", quality),
	)

	go o.process(id, url, quality)

	return id, nil
}

// Lookup fetches metadata for url through the worker pool, so interactive
// metadata requests compete for the same bounded slots as downloads.
func (o *Orchestrator) Lookup(ctx context.Context, url string) (*fetch.Metadata, error) {
	if err := o.acquire(ctx); err != nil {
		return nil, err
	}
	defer o.release()

	return o.backend.Lookup(ctx, url)
}

// process is the single driving routine for one job. Every failure inside it
// ends as a failed job record; nothing escapes to crash the process.
func (o *Orchestrator) process(id, url, quality string) {
	defer o.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Job panicked",
				slog.String("job_id", id),
				slog.Any("panic", r),
			)
			o.jobs.Fail(id, fmt.Sprintf("internal error: %v", r))
		}
	}()

	o.jobs.MarkProcessing(id, progressLookup)

	meta, err := o.runLookup(url)
	if err != nil {
		o.logger.Warn("Metadata lookup failed",
			slog.String("job_id", id),
			slog.String("error", err.Error()),
		)
		o.jobs.Fail(id, err.Error())
		return
	}

	o.jobs.SetProgress(id, progressRetrieve)

	path, err := o.runRetrieve(url, quality, id)
	if err != nil {
		o.logger.Warn("Retrieval failed",
			slog.String("job_id", id),
			slog.String("error", err.Error()),
		)
		o.jobs.Fail(id, err.Error())
		return
	}

	token := o.tokens.Issue(path, meta.Title)
	o.jobs.Complete(id, path, token)

	o.logger.Info("Job completed",
		slog.String("job_id", id),
		slog.String("title", meta.Title),
		slog.String("path", path),
	)
}

// runLookup executes the blocking metadata call on a worker slot.
func (o *Orchestrator) runLookup(url string) (*fetch.Metadata, error) {
	if err := o.acquire(o.ctx); err != nil {
		return nil, err
	}
	defer o.release()

	return o.backend.Lookup(o.ctx, url)
}

// runRetrieve executes the blocking download call on a worker slot. The job
// id doubles as the unique output name, so concurrent jobs never collide on
// filenames.
func (o *Orchestrator) runRetrieve(url, quality, id string) (string, error) {
	if err := o.acquire(o.ctx); err != nil {
		return "", err
	}
	defer o.release()

	return o.backend.Retrieve(o.ctx, url, o.downloadDir, quality, id)
}

func (o *Orchestrator) acquire(ctx context.Context) error {
	select {
	case o.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-o.ctx.Done():
		return o.ctx.Err()
	}
}

func (o *Orchestrator) release() {
	<-o.sem
}

// Shutdown stops accepting new jobs and waits for in-flight ones to finish.
// When ctx expires first, the remaining backend calls are cancelled and their
// jobs fail with a context error; those records stay queryable until the
// reclaimer removes them.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		o.cancel()
		return nil
	case <-ctx.Done():
		o.cancel()
		// Give the cancelled jobs a moment to record their failure.
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
		return ctx.Err()
	}
}

// Get returns a snapshot of the job, or ErrJobNotFound.
func (o *Orchestrator) Get(id string) (domain.Job, error) {
	job, ok := o.jobs.Get(id)
	if !ok {
		return domain.Job{}, domain.ErrJobNotFound
	}
	return job, nil
}
