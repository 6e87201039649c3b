package ecs

import "sort"

// Store is a typed entity store that iterates in ascending id order, so
// anything built from a walk over it (appear lists, authority batches) is
// deterministic. Lookups go through a map; the ordered key slice is kept in
// step on insert and remove.
type Store[T any] struct {
	data map[EntityID]*T
	ids  []EntityID
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		data: make(map[EntityID]*T, 64),
	}
}

// Set stores c under id, replacing any previous value.
func (s *Store[T]) Set(id EntityID, c *T) {
	if _, ok := s.data[id]; !ok {
		i := s.search(id)
		s.ids = append(s.ids, 0)
		copy(s.ids[i+1:], s.ids[i:])
		s.ids[i] = id
	}
	s.data[id] = c
}

func (s *Store[T]) Get(id EntityID) (*T, bool) {
	c, ok := s.data[id]
	return c, ok
}

func (s *Store[T]) Remove(id EntityID) {
	if _, ok := s.data[id]; !ok {
		return
	}
	delete(s.data, id)
	i := s.search(id)
	s.ids = append(s.ids[:i], s.ids[i+1:]...)
}

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.data[id]
	return ok
}

func (s *Store[T]) Len() int {
	return len(s.ids)
}

// Each visits entries in ascending id order. fn must not add or remove
// entries.
func (s *Store[T]) Each(fn func(EntityID, *T)) {
	for _, id := range s.ids {
		fn(id, s.data[id])
	}
}

func (s *Store[T]) search(id EntityID) int {
	return sort.Search(len(s.ids), func(i int) bool { return s.ids[i] >= id })
}
