package store

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidvault/internal/domain"
)

// writeArtifact creates a dummy artifact file and returns its path.
func writeArtifact(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("media"), 0o644))
	return path
}

func TestTokenStore_IssueUniqueIDs(t *testing.T) {
	s := NewTokenStore(time.Hour)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := s.Issue("/data/a.mp4", "Sample")
		assert.False(t, seen[id], "duplicate token id: %s", id)
		seen[id] = true
	}
	assert.Equal(t, 100, s.Len())
}

func TestTokenStore_RedeemOnce(t *testing.T) {
	s := NewTokenStore(time.Hour)
	path := writeArtifact(t, "a.mp4")
	id := s.Issue(path, "Sample")

	tok, err := s.Redeem(id)
	require.NoError(t, err)
	assert.Equal(t, path, tok.ArtifactPath)
	assert.Equal(t, "Sample", tok.DisplayName)
	assert.True(t, tok.Consumed)

	// Second redemption always fails
	_, err = s.Redeem(id)
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestTokenStore_RedeemConcurrentExactlyOnce(t *testing.T) {
	s := NewTokenStore(time.Hour)
	path := writeArtifact(t, "a.mp4")
	id := s.Issue(path, "Sample")

	const callers = 32
	var successes atomic.Int64

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := s.Redeem(id); err == nil {
				successes.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), successes.Load())
}

func TestTokenStore_RedeemUnknown(t *testing.T) {
	s := NewTokenStore(time.Hour)

	_, err := s.Redeem("no-such-token")
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestTokenStore_RedeemExpired(t *testing.T) {
	s := NewTokenStore(time.Hour)
	path := writeArtifact(t, "a.mp4")

	issued := time.Now()
	s.now = func() time.Time { return issued }
	id := s.Issue(path, "Sample")

	// Just past the horizon
	s.now = func() time.Time { return issued.Add(time.Hour + time.Second) }

	_, err := s.Redeem(id)
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)

	// Expired tokens are dropped as a side effect
	assert.Equal(t, 0, s.Len())
}

func TestTokenStore_RedeemJustBeforeExpiry(t *testing.T) {
	s := NewTokenStore(time.Hour)
	path := writeArtifact(t, "a.mp4")

	issued := time.Now()
	s.now = func() time.Time { return issued }
	id := s.Issue(path, "Sample")

	s.now = func() time.Time { return issued.Add(time.Hour - time.Second) }

	_, err := s.Redeem(id)
	assert.NoError(t, err)
}

func TestTokenStore_RedeemMissingFile(t *testing.T) {
	s := NewTokenStore(time.Hour)
	path := writeArtifact(t, "a.mp4")
	id := s.Issue(path, "Sample")

	// The reclaimer can delete the artifact between issuance and redemption
	require.NoError(t, os.Remove(path))

	_, err := s.Redeem(id)
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestTokenStore_InvalidateKeepsArtifact(t *testing.T) {
	s := NewTokenStore(time.Hour)
	path := writeArtifact(t, "a.mp4")
	id := s.Issue(path, "Sample")

	s.Invalidate(id)

	_, err := s.Redeem(id)
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)

	// Invalidate never deletes the file
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestTokenStore_ExpireBefore(t *testing.T) {
	s := NewTokenStore(time.Hour)

	base := time.Now()
	s.now = func() time.Time { return base.Add(-2 * time.Hour) }
	oldID := s.Issue("/data/old.mp4", "Old")

	s.now = func() time.Time { return base }
	freshID := s.Issue("/data/fresh.mp4", "Fresh")

	expired := s.ExpireBefore(base.Add(-time.Hour))

	require.Len(t, expired, 1)
	assert.Equal(t, oldID, expired[0].ID)
	assert.Equal(t, "/data/old.mp4", expired[0].ArtifactPath)

	live := s.LiveArtifacts()
	assert.Contains(t, live, "/data/fresh.mp4")
	assert.NotContains(t, live, "/data/old.mp4")
	assert.Equal(t, 1, s.Len(), "fresh token %s should survive", freshID)
}
