package session

import (
	"errors"
	"sync"
)

// ErrBusy is returned while a render for the same session is in flight.
var ErrBusy = errors.New("generating")

// Guard allows at most one in-flight render per session.
type Guard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewGuard() *Guard {
	return &Guard{active: make(map[string]struct{})}
}

// Acquire marks id as busy. The returned release must be called once the
// work is done; calling it more than once is harmless.
func (g *Guard) Acquire(id string) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.active[id]; ok {
		return nil, ErrBusy
	}
	g.active[id] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, id)
			g.mu.Unlock()
		})
	}, nil
}

// Busy reports whether id has a render in flight.
func (g *Guard) Busy(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.active[id]
	return ok
}
