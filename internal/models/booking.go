package models

import "time"

// BookingRequest is the payload of a booking submission.
type BookingRequest struct {
	ApplicationID string `json:"applicationId"`
	Datetime      string `json:"datetime"`
	Notes         string `json:"notes,omitempty"`
}

// Appointment describes a created calendar appointment.
type Appointment struct {
	Datetime        time.Time `json:"datetime"`
	FormattedDate   string    `json:"formattedDate"`
	FormattedTime   string    `json:"formattedTime"`
	CalendarEventID string    `json:"calendarEventId"`
}

// BookingResult is returned by a successful booking.
type BookingResult struct {
	Appointment Appointment  `json:"appointment"`
	Application *Application `json:"application"`
}

// Reconciliation records a calendar event whose application row could not be
// updated. Operators resolve these by hand.
type Reconciliation struct {
	ID            string     `json:"id"`
	ApplicationID string     `json:"application_id"`
	EventID       string     `json:"event_id"`
	AppointmentAt time.Time  `json:"appointment_at"`
	Notes         string     `json:"notes,omitempty"`
	Reason        string     `json:"reason"`
	CreatedAt     time.Time  `json:"created_at"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
}
