// Package reclaim implements the periodic sweep that purges expired tokens,
// stale jobs, and orphaned artifacts from the download directory.
package reclaim

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"vidvault/internal/store"
)

// Config holds reclaimer dependencies and horizons.
type Config struct {
	Logger      *slog.Logger
	Jobs        *store.JobStore
	Tokens      *store.TokenStore
	DownloadDir string

	// Interval between sweeps. Should be well below TokenTTL so expired
	// artifacts do not linger on disk.
	Interval time.Duration

	// TokenTTL is the token expiry horizon.
	TokenTTL time.Duration

	// JobTTL is the job retention horizon. It is deliberately longer than
	// TokenTTL so a job's final status stays queryable after its token has
	// expired.
	JobTTL time.Duration
}

// Reclaimer runs the periodic cleanup cycle.
type Reclaimer struct {
	logger      *slog.Logger
	jobs        *store.JobStore
	tokens      *store.TokenStore
	downloadDir string
	interval    time.Duration
	tokenTTL    time.Duration
	jobTTL      time.Duration
	now         func() time.Time
}

// New creates a reclaimer. Horizons and interval fall back to the defaults
// used by the service (1h tokens, 24h jobs, 15m sweeps) when unset.
func New(cfg *Config) *Reclaimer {
	r := &Reclaimer{
		logger:      cfg.Logger,
		jobs:        cfg.Jobs,
		tokens:      cfg.Tokens,
		downloadDir: cfg.DownloadDir,
		interval:    cfg.Interval,
		tokenTTL:    cfg.TokenTTL,
		jobTTL:      cfg.JobTTL,
		now:         time.Now,
	}
	if r.interval <= 0 {
		r.interval = 15 * time.Minute
	}
	if r.tokenTTL <= 0 {
		r.tokenTTL = time.Hour
	}
	if r.jobTTL <= 0 {
		r.jobTTL = 24 * time.Hour
	}
	return r
}

// Run sweeps on a fixed interval until ctx is cancelled. It never returns an
// error: a failing cycle is logged and the next tick proceeds.
func (r *Reclaimer) Run(ctx context.Context) {
	r.logger.Info("Reclaimer started",
		slog.Duration("interval", r.interval),
		slog.Duration("token_ttl", r.tokenTTL),
		slog.Duration("job_ttl", r.jobTTL),
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Reclaimer stopped")
			return
		case <-ticker.C:
			r.safeSweep()
		}
	}
}

// safeSweep runs one cycle and converts any panic into a log line, so a bad
// cycle can never take down the host process.
func (r *Reclaimer) safeSweep() {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Reclaim cycle panicked", slog.Any("panic", rec))
		}
	}()
	r.sweep()
}

// sweep runs a single reclaim cycle: expired tokens and their artifacts,
// stale jobs, then orphaned files. Deletion failures are logged and never
// abort the rest of the cycle.
func (r *Reclaimer) sweep() {
	now := r.now()

	expired := r.tokens.ExpireBefore(now.Add(-r.tokenTTL))
	for _, tok := range expired {
		if err := os.Remove(tok.ArtifactPath); err != nil && !os.IsNotExist(err) {
			r.logger.Warn("Failed to delete expired artifact",
				slog.String("token", tok.ID),
				slog.String("path", tok.ArtifactPath),
				slog.String("error", err.Error()),
			)
		}
	}

	removedJobs := r.jobs.DeleteOlderThan(now.Add(-r.jobTTL))

	orphans := r.removeOrphans(now)

	r.logger.Info("Reclaim cycle complete",
		slog.Int("expired_tokens", len(expired)),
		slog.Int("removed_jobs", len(removedJobs)),
		slog.Int("removed_orphans", orphans),
	)
}

// removeOrphans deletes files in the download directory that are older than
// the token horizon and not referenced by any live token. This catches
// artifacts left behind by jobs that crashed before token issuance.
func (r *Reclaimer) removeOrphans(now time.Time) int {
	entries, err := os.ReadDir(r.downloadDir)
	if err != nil {
		r.logger.Warn("Failed to scan download directory",
			slog.String("dir", r.downloadDir),
			slog.String("error", err.Error()),
		)
		return 0
	}

	live := r.tokens.LiveArtifacts()
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(r.downloadDir, entry.Name())
		if _, ok := live[path]; ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= r.tokenTTL {
			continue
		}

		if err := os.Remove(path); err != nil {
			r.logger.Warn("Failed to delete orphaned file",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			continue
		}
		removed++
	}

	return removed
}
