package lexicon

import "sync/atomic"

// Store is the handle through which a compiled Set is shared between the loader that writes it
// and the matchers that read it. It is not ready until the first Publish and never becomes
// unready again. Publish replaces the whole Set; readers see either the old or the new one.
type Store struct {
	set atomic.Pointer[Set]
}

func NewStore() *Store {
	return &Store{}
}

// Publish installs set, marking the store ready. A nil set is stored as an empty one.
func (s *Store) Publish(set *Set) {
	if set == nil {
		set = &Set{}
	}
	s.set.Store(set)
}

func (s *Store) Ready() bool {
	return s.set.Load() != nil
}

// Current returns the published Set, or nil and false when the store is not ready.
func (s *Store) Current() (*Set, bool) {
	set := s.set.Load()
	return set, set != nil
}
