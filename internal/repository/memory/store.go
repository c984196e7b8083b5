package memory

import (
	"context"
	"sort"
	"sync"

	ierr "github.com/flexprice/payschedule/internal/errors"
)

// FilterFunc is a generic filter function type
type FilterFunc[T any] func(ctx context.Context, item T, filter interface{}) bool

// SortFunc is a generic sort function type
type SortFunc[T any] func(i, j T) bool

// Store is a generic map backed store guarded by a RWMutex
type Store[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

// NewStore creates a new Store
func NewStore[T any]() *Store[T] {
	return &Store[T]{
		items: make(map[string]T),
	}
}

// Create adds a new item to the store
func (s *Store[T]) Create(_ context.Context, id string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; exists {
		return ierr.NewErrorf("item %s already exists", id).
			WithHint("Item already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	s.items[id] = item
	return nil
}

// Get retrieves an item by ID
func (s *Store[T]) Get(_ context.Context, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if item, exists := s.items[id]; exists {
		return item, nil
	}

	var zero T
	return zero, notFound(id)
}

// Find returns the first item matching fn
func (s *Store[T]) Find(_ context.Context, fn func(T) bool) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if fn(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// List retrieves the items matching filter, sorted by sortFn and paginated
// with limit and offset when limit is positive
func (s *Store[T]) List(ctx context.Context, filter interface{}, filterFn FilterFunc[T], sortFn SortFunc[T], limit, offset int) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]T, 0, len(s.items))
	for _, item := range s.items {
		if filterFn == nil || filterFn(ctx, item, filter) {
			result = append(result, item)
		}
	}

	if sortFn != nil {
		sort.Slice(result, func(i, j int) bool {
			return sortFn(result[i], result[j])
		})
	}

	if offset >= len(result) {
		return []T{}
	}
	result = result[offset:]
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result
}

// Count returns the total number of items matching the filter
func (s *Store[T]) Count(ctx context.Context, filter interface{}, filterFn FilterFunc[T]) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, item := range s.items {
		if filterFn == nil || filterFn(ctx, item, filter) {
			count++
		}
	}
	return count
}

// Update replaces an existing item
func (s *Store[T]) Update(_ context.Context, id string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; !exists {
		return notFound(id)
	}

	s.items[id] = item
	return nil
}

// Delete removes an item from the store
func (s *Store[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; !exists {
		return notFound(id)
	}

	delete(s.items, id)
	return nil
}

// Clear removes all items from the store
func (s *Store[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]T)
}

func notFound(id string) error {
	return ierr.NewErrorf("item %s not found", id).
		WithHintf("%s not found", id).
		Mark(ierr.ErrNotFound)
}
