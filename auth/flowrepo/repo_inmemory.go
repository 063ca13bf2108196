package flowrepo

import (
	"errors"
	"sync"

	errs "github.com/acheron-labs/voidmarket/internal/errors"
)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu      sync.Mutex
	pending map[string]*PendingLogin
}

// NewInMemoryRepo creates a new in-memory pending-login repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		pending: make(map[string]*PendingLogin),
	}
}

// Upsert stores or replaces the pending login for a session
func (r *InMemoryRepo) Upsert(sessionID string, pending *PendingLogin) error {
	if sessionID == "" {
		return errors.New("sessionID cannot be empty")
	}
	if pending == nil {
		return errors.New("pending cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Copy to prevent external modifications
	r.pending[sessionID] = &PendingLogin{
		Verifier:  pending.Verifier,
		State:     pending.State,
		CreatedAt: pending.CreatedAt,
	}

	return nil
}

// Consume returns and removes the pending login in one step
func (r *InMemoryRepo) Consume(sessionID string) (*PendingLogin, error) {
	if sessionID == "" {
		return nil, errors.New("sessionID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	pending, exists := r.pending[sessionID]
	if !exists {
		return nil, errs.ErrNoPendingLogin
	}
	delete(r.pending, sessionID)

	return pending, nil
}

// Delete removes the pending login for a session
func (r *InMemoryRepo) Delete(sessionID string) error {
	if sessionID == "" {
		return errors.New("sessionID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.pending, sessionID)
	return nil
}
