package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/synclaro/website-api/internal/models"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const maxListedEvents = 250

// EventRequest describes a calendar event to create for a booking.
type EventRequest struct {
	Summary              string
	Description          string
	Start                time.Time
	Duration             time.Duration
	TimeZone             string
	AttendeeEmail        string
	AttendeeName         string
	EmailReminderMinutes int64
	PopupReminderMinutes int64
}

// CalendarService reads and writes events of the owner's calendar using a
// caller-supplied access token.
type CalendarService struct {
	calendarID string
	location   string
	endpoint   string
	httpClient *http.Client
}

// NewCalendarService creates a calendar client. endpoint overrides the API
// base URL and is empty in production.
func NewCalendarService(calendarID, location, endpoint string, httpClient *http.Client) *CalendarService {
	if calendarID == "" {
		calendarID = defaultCalendarID
	}
	return &CalendarService{
		calendarID: calendarID,
		location:   location,
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

func (s *CalendarService) service(ctx context.Context, accessToken string) (*calendar.Service, error) {
	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, ts))}
	if s.endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.endpoint))
	}
	return calendar.NewService(ctx, opts...)
}

// ListBusyIntervals returns the timed events overlapping [start, end).
// Recurring events are expanded; all-day events do not block time.
func (s *CalendarService) ListBusyIntervals(ctx context.Context, accessToken string, start, end time.Time) ([]models.BusyInterval, error) {
	srv, err := s.service(ctx, accessToken)
	if err != nil {
		return nil, calendarError("create calendar client", err)
	}

	events, err := srv.Events.List(s.calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxListedEvents).
		TimeMin(start.UTC().Format(time.RFC3339)).
		TimeMax(end.UTC().Format(time.RFC3339)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, calendarError("list calendar events", err)
	}

	busy := make([]models.BusyInterval, 0, len(events.Items))
	for _, ev := range events.Items {
		if ev.Start == nil || ev.End == nil || ev.Start.DateTime == "" || ev.End.DateTime == "" {
			continue
		}
		evStart, err := time.Parse(time.RFC3339, ev.Start.DateTime)
		if err != nil {
			continue
		}
		evEnd, err := time.Parse(time.RFC3339, ev.End.DateTime)
		if err != nil {
			continue
		}
		busy = append(busy, models.BusyInterval{Start: evStart, End: evEnd})
	}
	return busy, nil
}

// CreateEvent inserts the event and notifies attendees. It returns the event id.
func (s *CalendarService) CreateEvent(ctx context.Context, accessToken string, req EventRequest) (string, error) {
	srv, err := s.service(ctx, accessToken)
	if err != nil {
		return "", calendarError("create calendar client", err)
	}

	ev := &calendar.Event{
		Summary:     req.Summary,
		Description: req.Description,
		Location:    s.location,
		Start: &calendar.EventDateTime{
			DateTime: req.Start.UTC().Format(time.RFC3339),
			TimeZone: req.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: req.Start.Add(req.Duration).UTC().Format(time.RFC3339),
			TimeZone: req.TimeZone,
		},
		Attendees: []*calendar.EventAttendee{
			{Email: req.AttendeeEmail, DisplayName: req.AttendeeName},
		},
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: "email", Minutes: req.EmailReminderMinutes},
				{Method: "popup", Minutes: req.PopupReminderMinutes},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}

	created, err := srv.Events.Insert(s.calendarID, ev).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		return "", calendarError("create calendar event", err)
	}
	return created.Id, nil
}

func calendarError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &models.UpstreamCalendarError{Op: op, Status: apiErr.Code, Body: apiErr.Body, Err: err}
	}
	return &models.UpstreamCalendarError{Op: op, Err: err}
}
