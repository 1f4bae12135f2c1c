package download

import (
	"fmt"
	"strings"
	"sync"
)

// State is the lifecycle state of a chapter task.
type State int

const (
	StatePending State = iota
	StateDownloading
	StatePaused
	StateCancelled
	StateCompleted
	StateFailed
)

var stateNames = [...]string{"pending", "downloading", "paused", "cancelled", "completed", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	name := strings.ToLower(string(text))
	for i, n := range stateNames {
		if n == name {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown task state %q", text)
}

// IsActive reports whether a task in this state still owns its chapter.
func (s State) IsActive() bool {
	return s == StatePending || s == StateDownloading || s == StatePaused
}

// IsTerminal reports whether the task's driver has stopped or is stopping.
func (s State) IsTerminal() bool {
	return !s.IsActive()
}

// stateCell holds the latest state and wakes every watcher on each write.
//
// Watchers call watch to get the current value together with a channel that
// is closed by the next set, so no change between the read and the wait is
// ever missed.
type stateCell struct {
	mu      sync.Mutex
	state   State
	changed chan struct{}
}

func newStateCell(s State) *stateCell {
	return &stateCell{state: s, changed: make(chan struct{})}
}

func (c *stateCell) load() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *stateCell) watch() (State, <-chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.changed
}

// must be called with mu held
func (c *stateCell) store(s State) {
	c.state = s
	close(c.changed)
	c.changed = make(chan struct{})
}

func (c *stateCell) set(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(s)
}

// compareAndSet stores to only if the current state is from.
func (c *stateCell) compareAndSet(from, to State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != from {
		return false
	}
	c.store(to)
	return true
}

// transition stores s unless the task already reached a terminal state.
func (c *stateCell) transition(s State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.IsTerminal() {
		return false
	}
	c.store(s)
	return true
}
