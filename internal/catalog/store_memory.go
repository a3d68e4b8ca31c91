package catalog

import (
	"context"
	"sync"
)

type MemStore struct {
	mu       sync.RWMutex
	products []Product
	saves    int
}

func NewMemStore(seed ...Product) *MemStore {
	return &MemStore{products: clone(seed)}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Load(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.products), nil
}

func (s *MemStore) Save(ctx context.Context, products []Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = clone(products)
	s.saves++
	return nil
}

// Saves reports how many times Save has been called.
func (s *MemStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func clone(in []Product) []Product {
	out := make([]Product, len(in))
	copy(out, in)
	return out
}
