package sessionrepo

import (
	"errors"
	"sync"

	errs "github.com/acheron-labs/voidmarket/internal/errors"
)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewInMemoryRepo creates a new in-memory session-token repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		tokens: make(map[string]string),
	}
}

func (r *InMemoryRepo) Set(sessionID, accessToken string) error {
	if sessionID == "" {
		return errors.New("sessionID cannot be empty")
	}
	if accessToken == "" {
		return errors.New("accessToken cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens[sessionID] = accessToken
	return nil
}

func (r *InMemoryRepo) Get(sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("sessionID cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	token, exists := r.tokens[sessionID]
	if !exists {
		return "", errs.ErrNoSession
	}
	return token, nil
}

func (r *InMemoryRepo) Clear(sessionID string) error {
	if sessionID == "" {
		return errors.New("sessionID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, sessionID)
	return nil
}
