package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	model "github.com/MokshankSoni-SDP/SamaySetu-AI/internal/model/calendar"
)

// lookupWindow is the tolerance used when locating an event by start time.
const lookupWindow = time.Minute

// Scheduler implements the four fixed-slot scheduling operations. Every
// operation takes civil IST strings and returns a status sentence; provider
// failures come back as errors. Book and Reschedule are best-effort: the
// availability check and the write are not atomic.
type Scheduler struct {
	provider Provider
}

// NewScheduler wraps a calendar provider.
func NewScheduler(provider Provider) *Scheduler {
	return &Scheduler{provider: provider}
}

// CheckAvailability reports whether [start, start+30m) is free.
func (s *Scheduler) CheckAvailability(ctx context.Context, start string) (string, error) {
	label, slot, err := parseSlot(start)
	if err != nil {
		return "", err
	}

	busy, err := s.provider.FreeBusy(ctx, slot.Start, slot.End)
	if err != nil {
		return "", err
	}

	slog.Debug("availability checked", "start", slot.Civil(), "busy", len(busy))
	if len(busy) > 0 {
		return fmt.Sprintf("Slot %s is BUSY.", label), nil
	}
	return fmt.Sprintf("Slot %s is FREE.", label), nil
}

// Book inserts a 30-minute event at start without checking availability.
func (s *Scheduler) Book(ctx context.Context, start, summary string) (string, error) {
	_, slot, err := parseSlot(start)
	if err != nil {
		return "", err
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		summary = model.DefaultSummary
	}

	created, err := s.provider.InsertEvent(ctx, model.Event{
		Summary:     summary,
		Description: model.DefaultDescription,
		Start:       slot.Start,
		End:         slot.End,
	})
	if err != nil {
		return "", err
	}

	if ledger := LedgerFrom(ctx); ledger != nil {
		ledger.Record(slot.Civil(), created.ID)
	}

	slog.Info("appointment booked", "start", slot.Civil(), "event", created.ID)
	return "SUCCESS: Appointment booked.", nil
}

// Cancel deletes the appointment starting at start.
func (s *Scheduler) Cancel(ctx context.Context, start string) (string, error) {
	label, slot, err := parseSlot(start)
	if err != nil {
		return "", err
	}

	ev, found, err := s.resolve(ctx, slot)
	if err != nil {
		return "", err
	}
	if !found {
		return fmt.Sprintf("ERROR: No appointment found at %s.", label), nil
	}

	if err := s.provider.DeleteEvent(ctx, ev.ID); err != nil {
		return "", err
	}

	if ledger := LedgerFrom(ctx); ledger != nil {
		ledger.Forget(slot.Civil())
	}

	slog.Info("appointment cancelled", "start", slot.Civil(), "event", ev.ID)
	return fmt.Sprintf("SUCCESS: Appointment at %s cancelled.", label), nil
}

// Reschedule moves the appointment at oldStart to newStart when the new
// slot is free, keeping its summary and description.
func (s *Scheduler) Reschedule(ctx context.Context, oldStart, newStart string) (string, error) {
	oldLabel, oldSlot, err := parseSlot(oldStart)
	if err != nil {
		return "", err
	}
	newLabel, newSlot, err := parseSlot(newStart)
	if err != nil {
		return "", err
	}

	ev, found, err := s.resolve(ctx, oldSlot)
	if err != nil {
		return "", err
	}
	if !found {
		return fmt.Sprintf("ERROR: No appointment found at %s.", oldLabel), nil
	}

	free, err := s.slotFree(ctx, newSlot, ev)
	if err != nil {
		return "", err
	}
	if !free {
		return fmt.Sprintf("ERROR: Slot %s is BUSY. Appointment not rescheduled.", newLabel), nil
	}

	current, err := s.provider.GetEvent(ctx, ev.ID)
	if err != nil {
		return "", err
	}
	current.Start = newSlot.Start
	current.End = newSlot.End

	if _, err := s.provider.UpdateEvent(ctx, current); err != nil {
		return "", err
	}

	if ledger := LedgerFrom(ctx); ledger != nil {
		ledger.Forget(oldSlot.Civil())
		ledger.Record(newSlot.Civil(), current.ID)
	}

	slog.Info("appointment rescheduled", "from", oldSlot.Civil(), "to", newSlot.Civil(), "event", current.ID)
	return fmt.Sprintf("SUCCESS: Appointment moved from %s to %s.", oldLabel, newLabel), nil
}

// resolve finds the event starting at slot.Start. The session ledger is
// consulted first; otherwise the first event in provider order whose start
// lies within one minute of the target wins.
func (s *Scheduler) resolve(ctx context.Context, slot model.Slot) (model.Event, bool, error) {
	if ledger := LedgerFrom(ctx); ledger != nil {
		if id, ok := ledger.Lookup(slot.Civil()); ok {
			ev, err := s.provider.GetEvent(ctx, id)
			switch {
			case err == nil && ev.Start.Equal(slot.Start):
				return ev, true, nil
			case err == nil || errors.Is(err, ErrEventNotFound):
				ledger.Forget(slot.Civil())
			default:
				return model.Event{}, false, err
			}
		}
	}

	from := slot.Start.Add(-lookupWindow)
	to := slot.Start.Add(lookupWindow)
	events, err := s.provider.ListEvents(ctx, from, to)
	if err != nil {
		return model.Event{}, false, err
	}

	for _, ev := range events {
		if !ev.Start.Before(from) && !ev.Start.After(to) {
			return ev, true, nil
		}
	}
	return model.Event{}, false, nil
}

// slotFree reports whether slot is free apart from the event being moved.
// Busy time is attributed to events by id, so another event sharing the
// moving event's time still counts as a conflict.
func (s *Scheduler) slotFree(ctx context.Context, slot model.Slot, moving model.Event) (bool, error) {
	busy, err := s.provider.FreeBusy(ctx, slot.Start, slot.End)
	if err != nil {
		return false, err
	}
	if len(busy) == 0 {
		return true, nil
	}

	events, err := s.provider.ListEvents(ctx, slot.Start, slot.End)
	if err != nil {
		return false, err
	}

	others := 0
	for _, ev := range events {
		if ev.ID != moving.ID {
			others++
		}
	}
	if others > 0 {
		return false, nil
	}

	// Busy time not explained by the moving event alone is a conflict.
	span := moving.Span()
	for _, interval := range busy {
		if !span.Contains(interval) {
			return false, nil
		}
	}
	return true, nil
}

func parseSlot(raw string) (string, model.Slot, error) {
	start, err := model.ParseCivil(raw)
	if err != nil {
		return "", model.Slot{}, err
	}
	return strings.TrimSpace(raw), model.NewSlot(start), nil
}
