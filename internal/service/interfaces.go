package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/synclaro/website-api/internal/models"
)

// CredentialProvider hands out a currently valid calendar access token.
type CredentialProvider interface {
	GetValidCredentials(ctx context.Context) (*models.CalendarCredentials, error)
}

// CalendarClient abstracts Google Calendar operations for testability.
type CalendarClient interface {
	ListBusyIntervals(ctx context.Context, accessToken string, start, end time.Time) ([]models.BusyInterval, error)
	CreateEvent(ctx context.Context, accessToken string, req EventRequest) (string, error)
}

// EmailSender abstracts email sending operations for testability.
type EmailSender interface {
	SendBookingConfirmation(to, name, program string, appt models.Appointment) error
	SendOwnerNotification(to string, app *models.Application, appt models.Appointment, notes string) error
}

// Notifier delivers events to the workflow automation.
type Notifier interface {
	Notify(ctx context.Context, eventType string, fields map[string]any) error
	Forward(ctx context.Context, body json.RawMessage) error
}
