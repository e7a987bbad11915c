package workflow

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrBusy indicates another bulk operation holds the gate.
var ErrBusy = errors.New("another bulk operation is already running")

// Gate enforces single-flight bulk operations across processes with a file
// lock. Scans, download runs, and retry passes all contend for the same gate.
type Gate struct {
	path string
	lock *flock.Flock
}

// NewGate creates a gate on the given lock file path.
func NewGate(path string) *Gate {
	return &Gate{path: path, lock: flock.New(path)}
}

// Acquire takes the gate without blocking. Returns ErrBusy when it is held
// elsewhere.
func (g *Gate) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(g.path), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := g.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire bulk lock: %w", err)
	}
	if !ok {
		return ErrBusy
	}
	return nil
}

// Release lets go of the gate.
func (g *Gate) Release() error {
	return g.lock.Unlock()
}

// Path returns the lock file location.
func (g *Gate) Path() string {
	return g.path
}
