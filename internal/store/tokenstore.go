package store

import (
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"vidvault/internal/domain"
)

// TokenStore issues and redeems single-use download tokens.
//
// Redeem is the one operation in the service that needs a true atomic
// check-and-set: two concurrent redemptions of the same token must resolve to
// exactly one success, and the store serializes that itself.
type TokenStore struct {
	mu     sync.Mutex
	tokens map[string]*domain.Token
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenStore creates a token store whose tokens expire ttl after issuance.
func NewTokenStore(ttl time.Duration) *TokenStore {
	return &TokenStore{
		tokens: make(map[string]*domain.Token),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue records a new token for the given artifact and returns its id.
// Token ids are random UUIDs, not derivable from job ids or issue order.
func (s *TokenStore) Issue(artifactPath, displayName string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	s.tokens[id] = &domain.Token{
		ID:           id,
		ArtifactPath: artifactPath,
		DisplayName:  displayName,
		CreatedAt:    s.now(),
	}
	return id
}

// Redeem consumes a token and returns its artifact record. It fails with
// ErrTokenNotFound when the token is unknown, expired, already consumed, or
// its backing file is gone; expired and fileless tokens are dropped from the
// store as a side effect. The consumed flag is set under the lock, so a
// second redemption, concurrent or later, always fails.
func (s *TokenStore) Redeem(id string) (domain.Token, error) {
	s.mu.Lock()
	tok, ok := s.tokens[id]
	if !ok {
		s.mu.Unlock()
		return domain.Token{}, domain.ErrTokenNotFound
	}
	if s.now().Sub(tok.CreatedAt) > s.ttl {
		delete(s.tokens, id)
		s.mu.Unlock()
		return domain.Token{}, domain.ErrTokenNotFound
	}
	if tok.Consumed {
		s.mu.Unlock()
		return domain.Token{}, domain.ErrTokenNotFound
	}
	tok.Consumed = true
	snapshot := *tok
	s.mu.Unlock()

	// The reclaimer may delete the artifact concurrently, so the record
	// alone cannot be trusted. The stat happens outside the lock; the token
	// is already consumed, so no second caller can slip through meanwhile.
	if _, err := os.Stat(snapshot.ArtifactPath); err != nil {
		s.Invalidate(id)
		return domain.Token{}, domain.ErrTokenNotFound
	}

	return snapshot, nil
}

// Invalidate drops the token record without touching the backing artifact.
// Artifact deletion is the reclaimer's job; the file may still be referenced
// by a job record.
func (s *TokenStore) Invalidate(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, id)
}

// ExpireBefore removes every token created before cutoff and returns the
// removed records so the caller can delete their artifacts outside the lock.
func (s *TokenStore) ExpireBefore(cutoff time.Time) []domain.Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []domain.Token
	for id, tok := range s.tokens {
		if tok.CreatedAt.Before(cutoff) {
			expired = append(expired, *tok)
			delete(s.tokens, id)
		}
	}
	return expired
}

// LiveArtifacts returns the set of artifact paths still referenced by a
// token. The reclaimer uses it to spare referenced files during orphan scans.
func (s *TokenStore) LiveArtifacts() map[string]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make(map[string]struct{}, len(s.tokens))
	for _, tok := range s.tokens {
		paths[tok.ArtifactPath] = struct{}{}
	}
	return paths
}

// Len returns the number of live token records.
func (s *TokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}
