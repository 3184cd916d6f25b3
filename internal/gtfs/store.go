package gtfs

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

// Store is the owning keyed collection for one entity type. Entities are
// held by pointer, so references handed out by Get stay valid for the
// lifetime of the store.
type Store[T any] interface {
	// Add inserts v under id. It returns false, leaving the store
	// unchanged, when id is already present.
	Add(id string, v *T) bool
	// Get returns the entity stored under id, or nil.
	Get(id string) *T
	Len() int
	// All iterates over the entities in the store's order.
	All() iter.Seq[*T]
	// Finalize compacts any pending state. Adding after Finalize is allowed.
	Finalize()
}

// StoreStrategy selects the Store implementation.
type StoreStrategy string

const (
	// HashStore indexes by hash map and iterates in insertion order.
	HashStore StoreStrategy = "hash"
	// SortedStore keeps entities in a slice sorted by id and iterates in
	// id order.
	SortedStore StoreStrategy = "sorted"
)

// ParseStoreStrategy validates a strategy name.
func ParseStoreStrategy(s string) (StoreStrategy, error) {
	switch StoreStrategy(strings.ToLower(s)) {
	case HashStore, "":
		return HashStore, nil
	case SortedStore:
		return SortedStore, nil
	}
	return "", fmt.Errorf("unknown store strategy %q", s)
}

// NewStore returns an empty store of the given strategy.
func NewStore[T any](strategy StoreStrategy) Store[T] {
	if strategy == SortedStore {
		return &sortedStore[T]{}
	}
	return &hashStore[T]{index: make(map[string]*T)}
}

type hashStore[T any] struct {
	index map[string]*T
	order []*T
}

func (s *hashStore[T]) Add(id string, v *T) bool {
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = v
	s.order = append(s.order, v)
	return true
}

func (s *hashStore[T]) Get(id string) *T { return s.index[id] }

func (s *hashStore[T]) Len() int { return len(s.order) }

func (s *hashStore[T]) All() iter.Seq[*T] { return slices.Values(s.order) }

func (s *hashStore[T]) Finalize() {}

type keyed[T any] struct {
	id string
	v  *T
}

// sortedStore keeps a sorted slice searched with binary search. Adds that
// arrive in id order are appended directly; others wait in a pending map
// until the next merge.
type sortedStore[T any] struct {
	sorted  []keyed[T]
	pending map[string]*T
}

func (s *sortedStore[T]) search(id string) (int, bool) {
	return slices.BinarySearchFunc(s.sorted, id, func(e keyed[T], id string) int {
		return strings.Compare(e.id, id)
	})
}

func (s *sortedStore[T]) Add(id string, v *T) bool {
	if s.Get(id) != nil {
		return false
	}
	if len(s.pending) == 0 && (len(s.sorted) == 0 || s.sorted[len(s.sorted)-1].id < id) {
		s.sorted = append(s.sorted, keyed[T]{id, v})
		return true
	}
	if s.pending == nil {
		s.pending = make(map[string]*T)
	}
	s.pending[id] = v
	if len(s.pending) > len(s.sorted) {
		s.Finalize()
	}
	return true
}

func (s *sortedStore[T]) Get(id string) *T {
	if i, ok := s.search(id); ok {
		return s.sorted[i].v
	}
	return s.pending[id]
}

func (s *sortedStore[T]) Len() int { return len(s.sorted) + len(s.pending) }

func (s *sortedStore[T]) All() iter.Seq[*T] {
	s.Finalize()
	return func(yield func(*T) bool) {
		for _, e := range s.sorted {
			if !yield(e.v) {
				return
			}
		}
	}
}

func (s *sortedStore[T]) Finalize() {
	if len(s.pending) == 0 {
		return
	}
	for id, v := range s.pending {
		s.sorted = append(s.sorted, keyed[T]{id, v})
	}
	slices.SortFunc(s.sorted, func(a, b keyed[T]) int { return strings.Compare(a.id, b.id) })
	s.pending = nil
}
