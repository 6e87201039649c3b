package net

import "sort"

// SessionStore holds the sessions admitted to the game loop, which is its
// only user. Iteration is in session id order, i.e. connection order, so
// every tick serves sessions in the same sequence.
type SessionStore struct {
	byID  map[uint64]*Session
	order []*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{byID: make(map[uint64]*Session)}
}

func (ss *SessionStore) Add(s *Session) {
	if _, ok := ss.byID[s.ID()]; ok {
		return
	}
	ss.byID[s.ID()] = s
	i := ss.search(s.ID())
	ss.order = append(ss.order, nil)
	copy(ss.order[i+1:], ss.order[i:])
	ss.order[i] = s
}

func (ss *SessionStore) Remove(id uint64) {
	if _, ok := ss.byID[id]; !ok {
		return
	}
	delete(ss.byID, id)
	i := ss.search(id)
	ss.order = append(ss.order[:i], ss.order[i+1:]...)
}

func (ss *SessionStore) Get(id uint64) *Session { return ss.byID[id] }
func (ss *SessionStore) Len() int               { return len(ss.order) }

// ForEach visits sessions in id order. fn may close sessions but must not
// add or remove them.
func (ss *SessionStore) ForEach(fn func(*Session)) {
	for _, s := range ss.order {
		fn(s)
	}
}

func (ss *SessionStore) search(id uint64) int {
	return sort.Search(len(ss.order), func(i int) bool { return ss.order[i].ID() >= id })
}
