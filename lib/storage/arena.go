package storage

import (
	"fmt"
	"sync"
)

// Arena guards the single flash page buffer. The streaming node writer
// and the media importer both stage partial writes through that buffer,
// so only one of them may hold it at a time. Acquire by a second owner
// while held is a programming error surfaced as an error return, never
// a silent overwrite.
type Arena struct {
	mu    sync.Mutex
	owner string
}

// Acquire claims the page buffer for the named owner.
func (a *Arena) Acquire(owner string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.owner != "" && a.owner != owner {
		return fmt.Errorf("page buffer held by %s, wanted by %s", a.owner, owner)
	}
	a.owner = owner
	return nil
}

// Release gives the page buffer back. Releasing a buffer the caller
// does not hold is a no-op.
func (a *Arena) Release(owner string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.owner == owner {
		a.owner = ""
	}
}

// Holder returns the current owner name, empty when free.
func (a *Arena) Holder() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.owner
}
