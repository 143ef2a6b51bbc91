package calendar

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	model "github.com/MokshankSoni-SDP/SamaySetu-AI/internal/model/calendar"
)

// MemoryProvider keeps events in process memory. It backs local runs and tests.
type MemoryProvider struct {
	mu     sync.RWMutex
	events map[string]model.Event
}

// NewMemoryProvider returns an empty calendar.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{events: make(map[string]model.Event)}
}

// FreeBusy reports every event overlapping [from, to) as a busy interval.
func (p *MemoryProvider) FreeBusy(ctx context.Context, from, to time.Time) ([]model.Interval, error) {
	events, err := p.ListEvents(ctx, from, to)
	if err != nil {
		return nil, err
	}

	busy := make([]model.Interval, 0, len(events))
	for _, ev := range events {
		busy = append(busy, ev.Span())
	}
	return busy, nil
}

// ListEvents returns events overlapping [from, to) ordered by start, then id.
func (p *MemoryProvider) ListEvents(_ context.Context, from, to time.Time) ([]model.Event, error) {
	window := model.Slot{Start: from, End: to}

	p.mu.RLock()
	matches := make([]model.Event, 0)
	for _, ev := range p.events {
		if ev.Span().Overlaps(window) {
			matches = append(matches, ev)
		}
	}
	p.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Start.Equal(matches[j].Start) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Start.Before(matches[j].Start)
	})
	return matches, nil
}

// GetEvent looks up an event by id.
func (p *MemoryProvider) GetEvent(_ context.Context, id string) (model.Event, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ev, ok := p.events[id]
	if !ok {
		return model.Event{}, ErrEventNotFound
	}
	return ev, nil
}

// InsertEvent stores ev under a fresh id.
func (p *MemoryProvider) InsertEvent(_ context.Context, ev model.Event) (model.Event, error) {
	ev.ID = uuid.NewString()
	ev.Start = ev.Start.In(model.IST)
	ev.End = ev.End.In(model.IST)

	p.mu.Lock()
	p.events[ev.ID] = ev
	p.mu.Unlock()

	return ev, nil
}

// UpdateEvent replaces an existing event.
func (p *MemoryProvider) UpdateEvent(_ context.Context, ev model.Event) (model.Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.events[ev.ID]; !ok {
		return model.Event{}, ErrEventNotFound
	}
	ev.Start = ev.Start.In(model.IST)
	ev.End = ev.End.In(model.IST)
	p.events[ev.ID] = ev
	return ev, nil
}

// DeleteEvent removes an event by id.
func (p *MemoryProvider) DeleteEvent(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.events[id]; !ok {
		return ErrEventNotFound
	}
	delete(p.events, id)
	return nil
}

// Len returns the number of stored events.
func (p *MemoryProvider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.events)
}
