package steppy

import "sync"

// Caveat identifies a recoverable divergence, typically a remote resource that
// already existed and was reused instead of created.
type Caveat string

// Caveats is the handle steps use to record and query caveats.
type Caveats interface {
	Add(c Caveat)
	Exists(c Caveat) bool
}

// Ledger accumulates caveats across every job run with it. Entries are kept in
// recording order and are never deduplicated or removed.
type Ledger struct {
	mu      sync.Mutex
	entries []Caveat
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Add appends c unconditionally.
func (l *Ledger) Add(c Caveat) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, c)
}

// Exists reports whether c was ever recorded.
func (l *Ledger) Exists(c Caveat) bool {
	return l.Count(c) > 0
}

// Count returns how many times c was recorded.
func (l *Ledger) Count(c Caveat) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e == c {
			n++
		}
	}
	return n
}

// List returns a copy of every recorded caveat in recording order.
func (l *Ledger) List() []Caveat {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Caveat, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

var _ Caveats = (*Ledger)(nil)
