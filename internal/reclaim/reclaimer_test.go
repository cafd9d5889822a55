package reclaim

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidvault/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newReclaimer(t *testing.T, jobs *store.JobStore, tokens *store.TokenStore, dir string) *Reclaimer {
	t.Helper()
	return New(&Config{
		Logger:      testLogger(),
		Jobs:        jobs,
		Tokens:      tokens,
		DownloadDir: dir,
		Interval:    15 * time.Minute,
		TokenTTL:    time.Hour,
		JobTTL:      24 * time.Hour,
	})
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("media"), 0o644))
}

func TestReclaimer_ExpiredTokenRemoved(t *testing.T) {
	dir := t.TempDir()
	jobs := store.NewJobStore()
	tokens := store.NewTokenStore(time.Hour)

	path := filepath.Join(dir, "job1.mp4")
	writeFile(t, path)

	issued := time.Now()
	tokens.Issue(path, "Sample")

	r := newReclaimer(t, jobs, tokens, dir)

	// At T+H+eps the token and its artifact are gone
	r.now = func() time.Time { return issued.Add(time.Hour + time.Minute) }
	r.sweep()

	assert.Equal(t, 0, tokens.Len())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestReclaimer_FreshTokenLeftIntact(t *testing.T) {
	dir := t.TempDir()
	jobs := store.NewJobStore()
	tokens := store.NewTokenStore(time.Hour)

	path := filepath.Join(dir, "job1.mp4")
	writeFile(t, path)

	issued := time.Now()
	tokens.Issue(path, "Sample")

	r := newReclaimer(t, jobs, tokens, dir)

	// At T+H-eps nothing happens
	r.now = func() time.Time { return issued.Add(time.Hour - time.Minute) }
	r.sweep()

	assert.Equal(t, 1, tokens.Len())
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestReclaimer_StaleJobsRemovedAnyStatus(t *testing.T) {
	dir := t.TempDir()
	jobs := store.NewJobStore()
	tokens := store.NewTokenStore(time.Hour)

	created := time.Now()
	completed := jobs.Create()
	jobs.MarkProcessing(completed, 10)
	jobs.Complete(completed, filepath.Join(dir, "a.mp4"), "tok-a")

	stuck := jobs.Create()
	jobs.MarkProcessing(stuck, 10) // never finishes

	r := newReclaimer(t, jobs, tokens, dir)
	r.now = func() time.Time { return created.Add(25 * time.Hour) }
	r.sweep()

	_, ok := jobs.Get(completed)
	assert.False(t, ok)
	_, ok = jobs.Get(stuck)
	assert.False(t, ok)
}

func TestReclaimer_JobOutlivesToken(t *testing.T) {
	dir := t.TempDir()
	jobs := store.NewJobStore()
	tokens := store.NewTokenStore(time.Hour)

	path := filepath.Join(dir, "job1.mp4")
	writeFile(t, path)

	created := time.Now()
	id := jobs.Create()
	jobs.MarkProcessing(id, 10)
	tok := tokens.Issue(path, "Sample")
	jobs.Complete(id, path, tok)

	r := newReclaimer(t, jobs, tokens, dir)

	// Two hours in: the token horizon has passed, the job horizon has not.
	// Final status must stay queryable.
	r.now = func() time.Time { return created.Add(2 * time.Hour) }
	r.sweep()

	assert.Equal(t, 0, tokens.Len())
	job, ok := jobs.Get(id)
	require.True(t, ok)
	assert.Equal(t, tok, job.Token)
}

func TestReclaimer_OrphanedFilesRemoved(t *testing.T) {
	dir := t.TempDir()
	jobs := store.NewJobStore()
	tokens := store.NewTokenStore(time.Hour)

	// An artifact from a job that crashed before token issuance
	orphan := filepath.Join(dir, "crashed.mp4")
	writeFile(t, orphan)

	// A referenced artifact of the same age must be spared
	referenced := filepath.Join(dir, "live.mp4")
	writeFile(t, referenced)
	tokens.Issue(referenced, "Live")

	r := newReclaimer(t, jobs, tokens, dir)
	r.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	r.sweep()

	_, err := os.Stat(orphan)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(referenced)
	assert.NoError(t, err)
}

func TestReclaimer_FreshOrphanSpared(t *testing.T) {
	dir := t.TempDir()
	jobs := store.NewJobStore()
	tokens := store.NewTokenStore(time.Hour)

	orphan := filepath.Join(dir, "inflight.mp4")
	writeFile(t, orphan)

	r := newReclaimer(t, jobs, tokens, dir)
	r.now = func() time.Time { return time.Now().Add(30 * time.Minute) }
	r.sweep()

	// Younger than the horizon: could belong to a job still processing
	_, err := os.Stat(orphan)
	assert.NoError(t, err)
}

func TestReclaimer_MissingDirectoryDoesNotAbort(t *testing.T) {
	jobs := store.NewJobStore()
	tokens := store.NewTokenStore(time.Hour)

	r := newReclaimer(t, jobs, tokens, filepath.Join(t.TempDir(), "nope"))

	assert.NotPanics(t, func() { r.sweep() })
}

func TestReclaimer_PanickingCycleIsContained(t *testing.T) {
	dir := t.TempDir()
	r := newReclaimer(t, store.NewJobStore(), store.NewTokenStore(time.Hour), dir)
	r.now = func() time.Time { panic("clock skew") }

	assert.NotPanics(t, func() { r.safeSweep() })

	// The next cycle proceeds normally once the fault clears
	r.now = time.Now
	assert.NotPanics(t, func() { r.safeSweep() })
}

func TestReclaimer_RunStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	r := New(&Config{
		Logger:      testLogger(),
		Jobs:        store.NewJobStore(),
		Tokens:      store.NewTokenStore(time.Hour),
		DownloadDir: dir,
		Interval:    10 * time.Millisecond,
		TokenTTL:    time.Hour,
		JobTTL:      24 * time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reclaimer did not stop after cancellation")
	}
}
