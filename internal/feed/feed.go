// Package feed keeps the bounded market event log. Entries are derived
// narration of engine activity and are never authoritative state.
package feed

import (
	"sync"
	"time"
)

// Kind classifies an event entry.
type Kind string

const (
	KindTrend     Kind = "TREND"
	KindShock     Kind = "SHOCK"
	KindFill      Kind = "FILL"
	KindCancel    Kind = "CANCEL"
	KindChallenge Kind = "CHALLENGE"
)

// Item is one event log entry.
type Item struct {
	Tick    int64     `json:"tick"`
	Kind    Kind      `json:"kind"`
	Symbol  string    `json:"symbol,omitempty"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Log is a fixed-capacity ring of event items. Oldest entries are
// evicted on overflow. Safe for concurrent readers.
type Log struct {
	mu    sync.RWMutex
	items []Item
	next  int
	count int
}

// NewLog creates a Log holding at most capacity items.
func NewLog(capacity int) *Log {
	if capacity < 1 {
		capacity = 1
	}
	return &Log{items: make([]Item, capacity)}
}

// Append records an item, evicting the oldest when full.
func (l *Log) Append(it Item) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items[l.next] = it
	l.next = (l.next + 1) % len(l.items)
	if l.count < len(l.items) {
		l.count++
	}
}

// Len reports the number of stored items.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}

// Latest returns up to n items, newest first.
func (l *Log) Latest(n int) []Item {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n > l.count {
		n = l.count
	}
	if n <= 0 {
		return nil
	}
	out := make([]Item, n)
	for i := 0; i < n; i++ {
		idx := (l.next - 1 - i + len(l.items)) % len(l.items)
		out[i] = l.items[idx]
	}
	return out
}
