// Package run holds the per-run observer state: the append-only log
// buffer, the progress scalar, and the run lifecycle state machine.
package run

import (
	"sync"
	"time"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Entry is one append-only log record. Timestamp is wall-clock time at
// recording, not the replayed event's date.
type Entry struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Severity  Severity  `json:"severity" yaml:"severity"`
	Message   string    `json:"message" yaml:"message"`
}

// Observer receives live notifications while a run is in flight.
// Callbacks must not block; slow consumers should buffer on their side.
type Observer interface {
	OnEntry(Entry)
	OnProgress(float64)
}

// Context owns the observable state of exactly one run. It is created
// by the executor at run start and never shared across runs. Past
// entries are immutable; only the executor appends.
type Context struct {
	RunID     string
	StartedAt time.Time

	mu        sync.RWMutex
	entries   []Entry
	progress  float64
	observers []Observer
}

func NewContext(runID string) *Context {
	return &Context{
		RunID:     runID,
		StartedAt: time.Now(),
	}
}

// Subscribe registers an observer for subsequent entries and progress
// updates. Registration does not replay past entries; use Snapshot.
func (c *Context) Subscribe(obs Observer) {
	c.mu.Lock()
	c.observers = append(c.observers, obs)
	c.mu.Unlock()
}

// Append records a log entry and notifies observers.
func (c *Context) Append(severity Severity, message string) Entry {
	entry := Entry{
		Timestamp: time.Now(),
		Severity:  severity,
		Message:   message,
	}

	c.mu.Lock()
	c.entries = append(c.entries, entry)
	observers := make([]Observer, len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()

	for _, obs := range observers {
		obs.OnEntry(entry)
	}
	return entry
}

// SetProgress raises the progress scalar. Progress is monotonically
// non-decreasing and clamped to [0,100]; attempts to lower it are ignored.
func (c *Context) SetProgress(pct float64) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	c.mu.Lock()
	if pct <= c.progress {
		c.mu.Unlock()
		return
	}
	c.progress = pct
	observers := make([]Observer, len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()

	for _, obs := range observers {
		obs.OnProgress(pct)
	}
}

func (c *Context) Progress() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.progress
}

// Snapshot returns a copy of the log so far. Mutating the returned
// slice has no effect on the run's own buffer.
func (c *Context) Snapshot() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}
