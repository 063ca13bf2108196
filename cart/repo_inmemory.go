package cart

import (
	"errors"
	"fmt"
	"sync"
)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu    sync.RWMutex
	carts map[string]Items
}

// NewInMemoryRepo creates a new in-memory cart repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		carts: make(map[string]Items),
	}
}

func (r *InMemoryRepo) Get(cartID string) (Items, error) {
	if cartID == "" {
		return nil, errors.New("cartID cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.carts[cartID].Clone().Normalize(), nil
}

func (r *InMemoryRepo) Put(cartID string, items Items) error {
	if cartID == "" {
		return errors.New("cartID cannot be empty")
	}
	for position, item := range items {
		if item.Quantity <= 0 {
			return fmt.Errorf("cart line %d has quantity %d", position, item.Quantity)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.carts[cartID] = items.Clone()
	return nil
}

func (r *InMemoryRepo) Delete(cartID string) error {
	if cartID == "" {
		return errors.New("cartID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, cartID)
	return nil
}
