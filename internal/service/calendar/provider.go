package calendar

import (
	"context"
	"errors"
	"time"

	model "github.com/MokshankSoni-SDP/SamaySetu-AI/internal/model/calendar"
)

// ErrEventNotFound is returned by providers when an event id does not resolve.
var ErrEventNotFound = errors.New("event not found")

// Provider is the calendar backend the scheduling operations run against.
// ListEvents returns events overlapping [from, to) ordered by start time.
type Provider interface {
	FreeBusy(ctx context.Context, from, to time.Time) ([]model.Interval, error)
	ListEvents(ctx context.Context, from, to time.Time) ([]model.Event, error)
	GetEvent(ctx context.Context, id string) (model.Event, error)
	InsertEvent(ctx context.Context, ev model.Event) (model.Event, error)
	UpdateEvent(ctx context.Context, ev model.Event) (model.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}
