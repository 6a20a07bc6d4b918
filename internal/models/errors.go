package models

import "fmt"

// ConfigurationError reports a missing required secret or setting.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration missing: %s", e.Setting)
}

// CredentialsNotFoundError means the calendar has never been connected.
type CredentialsNotFoundError struct{}

func (e *CredentialsNotFoundError) Error() string {
	return "no calendar credentials found, run the calendar setup first"
}

// UpstreamAuthError wraps a failed token refresh at the identity provider.
type UpstreamAuthError struct {
	Err error
}

func (e *UpstreamAuthError) Error() string {
	return fmt.Sprintf("failed to refresh access token: %v", e.Err)
}

func (e *UpstreamAuthError) Unwrap() error { return e.Err }

// UpstreamCalendarError wraps a failed calendar API call. Body holds the
// upstream response body when one was returned.
type UpstreamCalendarError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *UpstreamCalendarError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("failed to %s: status %d: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *UpstreamCalendarError) Unwrap() error { return e.Err }

// ValidationError carries a message meant for the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError reports an unknown entity id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError is returned when the application is already booked or the
// slot was taken after the availability listing. ExistingDatetime is set in
// the first case.
type ConflictError struct {
	Message          string
	ExistingDatetime string
}

func (e *ConflictError) Error() string { return e.Message }

// PartialFailureError means the calendar event exists but the application
// record was not updated.
type PartialFailureError struct {
	ApplicationID string
	EventID       string
	Err           error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("calendar event %s created but application %s not updated: %v", e.EventID, e.ApplicationID, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }
