package calendar

import (
	"context"
	"sync"
)

// Ledger remembers which event id was booked at which civil start within a
// conversation, so later cancel/reschedule requests resolve by id first.
type Ledger struct {
	mu  sync.Mutex
	ids map[string]string
}

func NewLedger() *Ledger {
	return &Ledger{ids: make(map[string]string)}
}

func (l *Ledger) Record(civilStart, eventID string) {
	l.mu.Lock()
	l.ids[civilStart] = eventID
	l.mu.Unlock()
}

func (l *Ledger) Lookup(civilStart string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id, ok := l.ids[civilStart]
	return id, ok
}

func (l *Ledger) Forget(civilStart string) {
	l.mu.Lock()
	delete(l.ids, civilStart)
	l.mu.Unlock()
}

// Len reports how many bookings are tracked.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ids)
}

type ledgerKey struct{}

// WithLedger attaches a session ledger to ctx.
func WithLedger(ctx context.Context, l *Ledger) context.Context {
	if l == nil {
		return ctx
	}
	return context.WithValue(ctx, ledgerKey{}, l)
}

// LedgerFrom returns the ledger attached to ctx, or nil.
func LedgerFrom(ctx context.Context) *Ledger {
	l, _ := ctx.Value(ledgerKey{}).(*Ledger)
	return l
}
