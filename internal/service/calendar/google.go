package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	model "github.com/MokshankSoni-SDP/SamaySetu-AI/internal/model/calendar"
)

// GoogleProvider talks to a single Google Calendar with service-account credentials.
type GoogleProvider struct {
	svc        *gcal.Service
	calendarID string
}

// NewGoogleProvider builds a provider from a service-account key file. Extra
// client options are appended, which lets tests point at a fake endpoint.
func NewGoogleProvider(ctx context.Context, calendarID, credentialsFile string, opts ...option.ClientOption) (*GoogleProvider, error) {
	if calendarID == "" {
		return nil, errors.New("calendar id is required")
	}

	clientOpts := make([]option.ClientOption, 0, len(opts)+2)
	if credentialsFile != "" {
		clientOpts = append(clientOpts,
			option.WithCredentialsFile(credentialsFile),
			option.WithScopes(gcal.CalendarScope),
		)
	}
	clientOpts = append(clientOpts, opts...)

	svc, err := gcal.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	return &GoogleProvider{svc: svc, calendarID: calendarID}, nil
}

func (p *GoogleProvider) FreeBusy(ctx context.Context, from, to time.Time) ([]model.Interval, error) {
	req := &gcal.FreeBusyRequest{
		TimeMin:  from.In(model.IST).Format(time.RFC3339),
		TimeMax:  to.In(model.IST).Format(time.RFC3339),
		TimeZone: model.TimeZoneName,
		Items:    []*gcal.FreeBusyRequestItem{{Id: p.calendarID}},
	}

	resp, err := p.svc.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("freebusy query: %w", err)
	}

	cal, ok := resp.Calendars[p.calendarID]
	if !ok {
		return nil, fmt.Errorf("freebusy response missing calendar %s", p.calendarID)
	}
	if len(cal.Errors) > 0 {
		return nil, fmt.Errorf("freebusy query: %s", cal.Errors[0].Reason)
	}

	busy := make([]model.Interval, 0, len(cal.Busy))
	for _, period := range cal.Busy {
		start, err := parseRFC3339(period.Start)
		if err != nil {
			return nil, err
		}
		end, err := parseRFC3339(period.End)
		if err != nil {
			return nil, err
		}
		busy = append(busy, model.Interval{Start: start, End: end})
	}
	return busy, nil
}

func (p *GoogleProvider) ListEvents(ctx context.Context, from, to time.Time) ([]model.Event, error) {
	resp, err := p.svc.Events.List(p.calendarID).
		TimeMin(from.In(model.IST).Format(time.RFC3339)).
		TimeMax(to.In(model.IST).Format(time.RFC3339)).
		TimeZone(model.TimeZoneName).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]model.Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		ev, err := fromGoogleEvent(item)
		if err != nil {
			// 全天事件没有 dateTime，跳过
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func (p *GoogleProvider) GetEvent(ctx context.Context, id string) (model.Event, error) {
	item, err := p.svc.Events.Get(p.calendarID, id).Context(ctx).Do()
	if err != nil {
		return model.Event{}, wrapGoogleError("get event", err)
	}
	return fromGoogleEvent(item)
}

func (p *GoogleProvider) InsertEvent(ctx context.Context, ev model.Event) (model.Event, error) {
	created, err := p.svc.Events.Insert(p.calendarID, toGoogleEvent(ev)).Context(ctx).Do()
	if err != nil {
		return model.Event{}, fmt.Errorf("insert event: %w", err)
	}
	return fromGoogleEvent(created)
}

func (p *GoogleProvider) UpdateEvent(ctx context.Context, ev model.Event) (model.Event, error) {
	updated, err := p.svc.Events.Update(p.calendarID, ev.ID, toGoogleEvent(ev)).Context(ctx).Do()
	if err != nil {
		return model.Event{}, wrapGoogleError("update event", err)
	}
	return fromGoogleEvent(updated)
}

func (p *GoogleProvider) DeleteEvent(ctx context.Context, id string) error {
	if err := p.svc.Events.Delete(p.calendarID, id).Context(ctx).Do(); err != nil {
		return wrapGoogleError("delete event", err)
	}
	return nil
}

// toGoogleEvent writes civil times tagged with the IANA zone.
func toGoogleEvent(ev model.Event) *gcal.Event {
	return &gcal.Event{
		Id:          ev.ID,
		Summary:     ev.Summary,
		Description: ev.Description,
		Start: &gcal.EventDateTime{
			DateTime: model.FormatCivil(ev.Start),
			TimeZone: model.TimeZoneName,
		},
		End: &gcal.EventDateTime{
			DateTime: model.FormatCivil(ev.End),
			TimeZone: model.TimeZoneName,
		},
	}
}

func fromGoogleEvent(item *gcal.Event) (model.Event, error) {
	if item == nil || item.Start == nil || item.End == nil {
		return model.Event{}, errors.New("event has no time range")
	}

	start, err := parseRFC3339(item.Start.DateTime)
	if err != nil {
		return model.Event{}, err
	}
	end, err := parseRFC3339(item.End.DateTime)
	if err != nil {
		return model.Event{}, err
	}

	return model.Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Start:       start,
		End:         end,
	}, nil
}

func parseRFC3339(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse provider time %q: %w", raw, err)
	}
	return t.In(model.IST), nil
}

func wrapGoogleError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
		return fmt.Errorf("%s: %w", op, ErrEventNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
