// Package session keeps each visitor's grid in memory and serializes the
// work done on it.
package session

import (
	"sync"
	"time"

	"github.com/youruser/mydozlesha/internal/grid"
)

// State is one session's editable data. It is a value; callers get copies.
type State struct {
	Grid   grid.Grid `json:"-"`
	Author string    `json:"author"`
}

type entry struct {
	state State
	seen  time.Time
}

// Store holds State per session id. Nothing is persisted; Sweep drops
// sessions nobody has touched for a while.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{entries: make(map[string]*entry), now: time.Now}
}

// Get returns a snapshot of the session, an empty grid if it is unknown.
// Reading a known session keeps it alive.
func (s *Store) Get(id string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return State{Grid: grid.New()}
	}
	e.seen = s.now()
	return e.state
}

func (s *Store) SetCell(id string, i int, sel grid.Selection) (State, error) {
	return s.update(id, func(st State) (State, error) {
		g, err := st.Grid.With(i, sel)
		if err != nil {
			return st, err
		}
		st.Grid = g
		return st, nil
	})
}

func (s *Store) ClearCell(id string, i int) (State, error) {
	return s.update(id, func(st State) (State, error) {
		g, err := st.Grid.Without(i)
		if err != nil {
			return st, err
		}
		st.Grid = g
		return st, nil
	})
}

// SetAuthor stores the normalized name; an empty name restores the default
// header.
func (s *Store) SetAuthor(id, name string) (State, error) {
	return s.update(id, func(st State) (State, error) {
		n, err := grid.NormalizeAuthor(name)
		if err != nil {
			return st, err
		}
		st.Author = n
		return st, nil
	})
}

// Delete forgets a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// Sweep deletes sessions not touched for maxIdle and returns how many it
// dropped.
func (s *Store) Sweep(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-maxIdle)
	n := 0
	for id, e := range s.entries {
		if e.seen.Before(cutoff) {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) update(id string, fn func(State) (State, error)) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		e = &entry{state: State{Grid: grid.New()}}
	}
	next, err := fn(e.state)
	if err != nil {
		return e.state, err
	}
	e.state = next
	e.seen = s.now()
	s.entries[id] = e
	return next, nil
}
