package frontier

import "sync"

// Set is a mutex-guarded string set. Every compound operation
// (TryAdd, Pop) runs under a single lock acquisition.
type Set struct {
	set map[string]struct{}
	mu  sync.Mutex
}

func NewSet() *Set {
	return &Set{
		set: make(map[string]struct{}),
	}
}

// TryAdd inserts u and reports whether it was absent. Exactly one of any
// number of concurrent callers with the same u gets true.
func (s *Set) TryAdd(u string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.set[u]; ok {
		return false
	}
	s.set[u] = struct{}{}
	return true
}

func (s *Set) Has(u string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.set[u]
	return ok
}

// Pop removes and returns an arbitrary member.
func (s *Set) Pop() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for u := range s.set {
		delete(s.set, u)
		return u, true
	}
	return "", false
}

func (s *Set) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.set)
}
