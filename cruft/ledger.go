package cruft

import "sync"

// Key identifies a reported cruft location.
type Key struct {
	Layer    string
	Detector string
	BasePath string
}

// Ledger remembers which keys were reported. It lives for a whole run and is
// safe for concurrent use.
type Ledger struct {
	mu   sync.Mutex
	seen map[Key]struct{}
}

// NewLedger returns an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{seen: map[Key]struct{}{}}
}

// Mark records k. It returns false if k was recorded before.
func (l *Ledger) Mark(k Key) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[k]; ok {
		return false
	}
	l.seen[k] = struct{}{}
	return true
}

// Len returns the number of recorded keys.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}
