package models

import "strings"

// Program identifiers accepted by the coaching application form.
const (
	ProgramGroupCoaching = "gruppen_coaching"
	ProgramMastermind    = "mastermind"
	ProgramBoth          = "beide"
)

// Application statuses used by the CRM.
const (
	StatusPending   = "pending"
	StatusContacted = "contacted"
)

// Application is a row of lp_coaching_applications. It is created by the
// intake form and later carries the booked appointment.
type Application struct {
	ID                    string            `json:"id"`
	FirstName             string            `json:"first_name"`
	LastName              string            `json:"last_name"`
	Email                 string            `json:"email"`
	Phone                 string            `json:"phone,omitempty"`
	Company               *string           `json:"company"`
	Position              *string           `json:"position"`
	ProgramInterest       string            `json:"program_interest"`
	QuestionnaireAnswers  map[string]string `json:"questionnaire_answers,omitempty"`
	Motivation            *string           `json:"motivation"`
	Status                string            `json:"status"`
	AppointmentBooked     bool              `json:"appointment_booked"`
	AppointmentDatetime   *string           `json:"appointment_datetime"`
	AppointmentNotes      *string           `json:"appointment_notes"`
	GoogleCalendarEventID *string           `json:"google_calendar_event_id"`
	CreatedAt             string            `json:"created_at,omitempty"`
	UpdatedAt             string            `json:"updated_at,omitempty"`
}

// FullName joins first and last name.
func (a *Application) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// ProgramLabel returns the display name of the program the applicant chose.
// Unknown identifiers are returned unchanged.
func (a *Application) ProgramLabel() string {
	return ProgramLabel(a.ProgramInterest)
}

func ProgramLabel(program string) string {
	switch program {
	case ProgramGroupCoaching:
		return "Gruppen-Coaching"
	case ProgramMastermind:
		return "Mastermind"
	case ProgramBoth:
		return "Gruppen-Coaching & Mastermind"
	default:
		return program
	}
}

// ExistingAppointment returns the stored appointment instant, or "" if none.
func (a *Application) ExistingAppointment() string {
	if a.AppointmentDatetime == nil {
		return ""
	}
	return *a.AppointmentDatetime
}
