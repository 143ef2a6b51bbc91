package calendar_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/MokshankSoni-SDP/SamaySetu-AI/internal/model/calendar"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/service/calendar"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 2, 24, hour, minute, 0, 0, model.IST)
}

func seed(t *testing.T, p *calendar.MemoryProvider, summary string, start time.Time) model.Event {
	t.Helper()
	slot := model.NewSlot(start)
	ev, err := p.InsertEvent(context.Background(), model.Event{Summary: summary, Start: slot.Start, End: slot.End})
	require.NoError(t, err)
	return ev
}

func TestCheckAvailabilityFreeAndBusy(t *testing.T) {
	ctx := context.Background()
	p := calendar.NewMemoryProvider()
	s := calendar.NewScheduler(p)

	status, err := s.CheckAvailability(ctx, "2026-02-24T11:00:00")
	require.NoError(t, err)
	assert.Equal(t, "Slot 2026-02-24T11:00:00 is FREE.", status)

	seed(t, p, "dentist", at(11, 15))

	status, err = s.CheckAvailability(ctx, "2026-02-24T11:00:00")
	require.NoError(t, err)
	assert.Equal(t, "Slot 2026-02-24T11:00:00 is BUSY.", status)

	status, err = s.CheckAvailability(ctx, "2026-02-24T11:45:00")
	require.NoError(t, err)
	assert.Equal(t, "Slot 2026-02-24T11:45:00 is FREE.", status, "slot starting at the event end is free")
}

func TestBookThenCheckIsBusy(t *testing.T) {
	ctx := context.Background()
	p := calendar.NewMemoryProvider()
	s := calendar.NewScheduler(p)

	status, err := s.Book(ctx, "2026-02-24T11:00:00", "")
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS: Appointment booked.", status)

	status, err = s.CheckAvailability(ctx, "2026-02-24T11:00:00")
	require.NoError(t, err)
	assert.Equal(t, "Slot 2026-02-24T11:00:00 is BUSY.", status)

	events, err := p.ListEvents(ctx, at(0, 0), at(23, 0))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.DefaultSummary, events[0].Summary)
	assert.Equal(t, model.DefaultDescription, events[0].Description)
	assert.Equal(t, 30*time.Minute, events[0].End.Sub(events[0].Start))
}

func TestBookDoesNotPrecheck(t *testing.T) {
	ctx := context.Background()
	p := calendar.NewMemoryProvider()
	s := calendar.NewScheduler(p)

	_, err := s.Book(ctx, "2026-02-24T11:00:00", "first")
	require.NoError(t, err)
	_, err = s.Book(ctx, "2026-02-24T11:00:00", "second")
	require.NoError(t, err)

	assert.Equal(t, 2, p.Len())
}

func TestCancelNotFound(t *testing.T) {
	ctx := context.Background()
	p := calendar.NewMemoryProvider()
	other := seed(t, p, "keep me", at(12, 0))
	s := calendar.NewScheduler(p)

	status, err := s.Cancel(ctx, "2026-02-24T11:00:00")
	require.NoError(t, err)
	assert.Equal(t, "ERROR: No appointment found at 2026-02-24T11:00:00.", status)

	_, err = p.GetEvent(ctx, other.ID)
	assert.NoError(t, err, "no deletion expected")
}

func TestCancelIgnoresOverlappingEventWithDifferentStart(t *testing.T) {
	ctx := context.Background()
	p := calendar.NewMemoryProvider()
	seed(t, p, "earlier", at(10, 45))
	s := calendar.NewScheduler(p)

	status, err := s.Cancel(ctx, "2026-02-24T11:00:00")
	require.NoError(t, err)
	assert.Contains(t, status, "No appointment found")
	assert.Equal(t, 1, p.Len())
}

func TestCancelDeletes(t *testing.T) {
	ctx := context.Background()
	p := calendar.NewMemoryProvider()
	seed(t, p, "checkup", at(11, 0))
	s := calendar.NewScheduler(p)

	status, err := s.Cancel(ctx, "2026-02-24 11:00")
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS: Appointment at 2026-02-24 11:00 cancelled.", status)
	assert.Equal(t, 0, p.Len())
}

func TestCancelPicksFirstMatchInListOrder(t *testing.T) {
	ctx := context.Background()
	p := calendar.NewMemoryProvider()
	a := seed(t, p, "a", at(11, 0))
	b := seed(t, p, "b", at(11, 0))
	first, second := a, b
	if b.ID < a.ID {
		first, second = b, a
	}
	s := calendar.NewScheduler(p)

	_, err := s.Cancel(ctx, "2026-02-24T11:00:00")
	require.NoError(t, err)

	_, err = p.GetEvent(ctx, first.ID)
	assert.ErrorIs(t, err, calendar.ErrEventNotFound)
	_, err = p.GetEvent(ctx, second.ID)
	assert.NoError(t, err)
}

func TestRescheduleToBusySlotDoesNothing(t *testing.T) {
	ctx := context.Background()
	p := calendar.NewMemoryProvider()
	moving := seed(t, p, "consultation", at(11, 0))
	seed(t, p, "blocker", at(15, 0))
	s := calendar.NewScheduler(p)

	status, err := s.Reschedule(ctx, "2026-02-24T11:00:00", "2026-02-24T15:00:00")
	require.NoError(t, err)
	assert.Equal(t, "ERROR: Slot 2026-02-24T15:00:00 is BUSY. Appointment not rescheduled.", status)

	got, err := p.GetEvent(ctx, moving.ID)
	require.NoError(t, err)
	assert.True(t, got.Start.Equal(at(11, 0)))
}

func TestRescheduleMovesAndPreservesSummary(t *testing.T) {
	ctx := context.Background()
	p := calendar.NewMemoryProvider()
	moving := seed(t, p, "consultation", at(11, 0))
	s := calendar.NewScheduler(p)

	status, err := s.Reschedule(ctx, "2026-02-24T11:00:00", "2026-02-24T16:30:00")
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS: Appointment moved from 2026-02-24T11:00:00 to 2026-02-24T16:30:00.", status)

	status, err = s.Cancel(ctx, "2026-02-24T11:00:00")
	require.NoError(t, err)
	assert.Contains(t, status, "No appointment found", "old slot must be empty")

	got, err := p.GetEvent(ctx, moving.ID)
	require.NoError(t, err)
	assert.Equal(t, "consultation", got.Summary)
	assert.True(t, got.Start.Equal(at(16, 30)))
	assert.True(t, got.End.Equal(at(17, 0)))
}

func TestRescheduleOntoOverlappingSelf(t *testing.T) {
	ctx := context.Background()
	p := calendar.NewMemoryProvider()
	moving := seed(t, p, "consultation", at(11, 0))
	s := calendar.NewScheduler(p)

	status, err := s.Reschedule(ctx, "2026-02-24T11:00:00", "2026-02-24T11:15:00")
	require.NoError(t, err)
	assert.Contains(t, status, "SUCCESS")

	got, err := p.GetEvent(ctx, moving.ID)
	require.NoError(t, err)
	assert.True(t, got.Start.Equal(at(11, 15)))
}

func TestRescheduleOntoSharedStartConflicts(t *testing.T) {
	ctx := context.Background()
	p := calendar.NewMemoryProvider()
	a := seed(t, p, "a", at(11, 0))
	b := seed(t, p, "b", at(11, 0))
	s := calendar.NewScheduler(p)

	check, err := s.CheckAvailability(ctx, "2026-02-24T11:15:00")
	require.NoError(t, err)
	require.Equal(t, "Slot 2026-02-24T11:15:00 is BUSY.", check)

	status, err := s.Reschedule(ctx, "2026-02-24T11:00:00", "2026-02-24T11:15:00")
	require.NoError(t, err)
	assert.Equal(t, "ERROR: Slot 2026-02-24T11:15:00 is BUSY. Appointment not rescheduled.", status)

	status, err = s.Reschedule(ctx, "2026-02-24T11:00:00", "2026-02-24T11:00:00")
	require.NoError(t, err)
	assert.Equal(t, "ERROR: Slot 2026-02-24T11:00:00 is BUSY. Appointment not rescheduled.", status)

	for _, ev := range []model.Event{a, b} {
		got, err := p.GetEvent(ctx, ev.ID)
		require.NoError(t, err)
		assert.True(t, got.Start.Equal(at(11, 0)), "event %s must not move", ev.Summary)
	}
}

func TestRescheduleMissingOld(t *testing.T) {
	s := calendar.NewScheduler(calendar.NewMemoryProvider())

	status, err := s.Reschedule(context.Background(), "2026-02-24T11:00:00", "2026-02-24T12:00:00")
	require.NoError(t, err)
	assert.Equal(t, "ERROR: No appointment found at 2026-02-24T11:00:00.", status)
}

func TestLedgerResolvesBookedEventFirst(t *testing.T) {
	p := calendar.NewMemoryProvider()
	s := calendar.NewScheduler(p)
	ledger := calendar.NewLedger()
	ctx := calendar.WithLedger(context.Background(), ledger)

	// another event shares the start time
	foreign := seed(t, p, "foreign", at(11, 0))
	_, err := s.Book(ctx, "2026-02-24T11:00:00", "mine")
	require.NoError(t, err)
	require.Equal(t, 1, ledger.Len())

	mineID, ok := ledger.Lookup("2026-02-24T11:00:00")
	require.True(t, ok)

	_, err = s.Cancel(ctx, "2026-02-24T11:00:00")
	require.NoError(t, err)

	_, err = p.GetEvent(ctx, mineID)
	assert.ErrorIs(t, err, calendar.ErrEventNotFound)
	_, err = p.GetEvent(ctx, foreign.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, ledger.Len())
}

func TestLedgerStaleEntryFallsBackToWindow(t *testing.T) {
	p := calendar.NewMemoryProvider()
	s := calendar.NewScheduler(p)
	ledger := calendar.NewLedger()
	ledger.Record("2026-02-24T11:00:00", "gone")
	ctx := calendar.WithLedger(context.Background(), ledger)
	seed(t, p, "walk-in", at(11, 0))

	status, err := s.Cancel(ctx, "2026-02-24T11:00:00")
	require.NoError(t, err)
	assert.Contains(t, status, "SUCCESS")
	assert.Equal(t, 0, p.Len())
}

func TestInvalidTimeIsAnError(t *testing.T) {
	s := calendar.NewScheduler(calendar.NewMemoryProvider())

	_, err := s.CheckAvailability(context.Background(), "2026-02-24T11:00:00+05:30")
	assert.ErrorIs(t, err, model.ErrNotCivil)
}

type failingProvider struct {
	calendar.MemoryProvider
	err error
}

func (f *failingProvider) FreeBusy(context.Context, time.Time, time.Time) ([]model.Interval, error) {
	return nil, f.err
}

func TestProviderErrorsPropagate(t *testing.T) {
	boom := errors.New("quota exceeded")
	s := calendar.NewScheduler(&failingProvider{err: boom})

	_, err := s.CheckAvailability(context.Background(), "2026-02-24T11:00:00")
	assert.ErrorIs(t, err, boom)
}
