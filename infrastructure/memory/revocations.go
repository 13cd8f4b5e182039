package memory

import (
	"context"
	"sync"
	"time"

	"faceauth/domain/repositories"
)

// Revocations is an in-process revocation list used when redis is off.
// Entries are dropped lazily once their ttl has passed.
type Revocations struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewRevocations() *Revocations {
	return &Revocations{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

var _ repositories.RevocationRepository = (*Revocations)(nil)

func (r *Revocations) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, until := range r.entries {
		if !now.Before(until) {
			delete(r.entries, id)
		}
	}
	r.entries[tokenID] = now.Add(ttl)
	return nil
}

func (r *Revocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	until, ok := r.entries[tokenID]
	if !ok {
		return false, nil
	}
	if !r.now().Before(until) {
		delete(r.entries, tokenID)
		return false, nil
	}
	return true, nil
}
