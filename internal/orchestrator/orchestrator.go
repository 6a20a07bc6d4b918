package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/synclaro/website-api/internal/logger"
	"github.com/synclaro/website-api/internal/metrics"
	"github.com/synclaro/website-api/internal/models"
	"github.com/synclaro/website-api/internal/scheduling"
	"github.com/synclaro/website-api/internal/service"
	"github.com/synclaro/website-api/internal/store"
)

const (
	applicationsTable = "lp_coaching_applications"
	maxNotesRunes     = 1000

	// isoMillis matches the instant format the CRM already stores.
	isoMillis = "2006-01-02T15:04:05.000Z"

	// Once the calendar event exists the booking is finished on a context
	// detached from the caller, bounded by these timeouts.
	commitTimeout = 15 * time.Second
	notifyTimeout = 30 * time.Second
)

// User-facing booking messages.
const (
	MsgMissingFields   = "applicationId und datetime sind erforderlich"
	MsgInvalidDatetime = "datetime ist kein gültiger Zeitpunkt"
	MsgPastDatetime    = "Termin muss in der Zukunft liegen"
	MsgAlreadyBooked   = "Du hast bereits einen Termin gebucht"
	MsgSlotTaken       = "Dieser Termin ist leider nicht mehr verfügbar. Bitte wähle einen anderen."
)

// Orchestrator answers availability queries and books appointments against
// the owner's calendar and the CRM record store.
type Orchestrator struct {
	Logger      *logger.Logger
	Credentials service.CredentialProvider
	Calendar    service.CalendarClient
	Records     store.Records
	Slots       *scheduling.Generator
	Email       service.EmailSender
	Notifier    service.Notifier
	Ledger      store.Ledger
	Metrics     metrics.Recorder
	FeatureCfg  *service.FeatureConfig
	Sanitizer   *service.TextSanitizer

	notifications sync.WaitGroup
}

type applicationPatch struct {
	AppointmentBooked     bool    `json:"appointment_booked"`
	AppointmentDatetime   string  `json:"appointment_datetime"`
	AppointmentNotes      *string `json:"appointment_notes"`
	GoogleCalendarEventID string  `json:"google_calendar_event_id"`
	Status                string  `json:"status"`
	UpdatedAt             string  `json:"updated_at"`
}

// Availability lists the open slots of today and the next days. days is
// clamped to the configured maximum; a negative value selects the default
// window and 0 means today only.
func (o *Orchestrator) Availability(ctx context.Context, days int) (*models.Availability, error) {
	started := time.Now()
	days = o.FeatureCfg.Booking.ClampDays(days)
	windowStart, windowEnd := o.Slots.Window(days)

	creds, err := o.Credentials.GetValidCredentials(ctx)
	if err != nil {
		o.upstreamFailed(err)
		o.Logger.Error("Failed to get calendar credentials", logger.Action("availability"), logger.Error(err))
		return nil, err
	}

	busy, err := o.Calendar.ListBusyIntervals(ctx, creds.AccessToken, windowStart, windowEnd)
	if err != nil {
		o.upstreamFailed(err)
		o.Logger.Error("Failed to fetch calendar events", logger.Action("availability"), logger.Error(err))
		return nil, err
	}

	slots := o.Slots.GenerateSlots(windowStart, windowEnd, busy)
	availability := scheduling.Resolve(slots)
	availability.RangeStart = windowStart
	availability.RangeEnd = windowEnd

	o.recorder().RecordAvailability(availability.AvailableSlots, time.Since(started))
	o.Logger.Info("Availability computed",
		logger.Action("availability"),
		logger.F("BUSY", len(busy)),
		logger.F("TOTAL", availability.TotalSlots),
		logger.Count(availability.AvailableSlots),
	)

	return &availability, nil
}

// Book reserves the requested slot for an application. On a
// *models.PartialFailureError the returned result is still populated: the
// calendar event exists and only the application row is stale.
func (o *Orchestrator) Book(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error) {
	result, err := o.book(ctx, req)
	o.recorder().RecordBooking(bookingOutcome(err))
	return result, err
}

func (o *Orchestrator) book(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error) {
	applicationID := strings.TrimSpace(req.ApplicationID)
	if applicationID == "" || strings.TrimSpace(req.Datetime) == "" {
		return nil, &models.ValidationError{Message: MsgMissingFields}
	}

	start, err := time.Parse(time.RFC3339, strings.TrimSpace(req.Datetime))
	if err != nil {
		return nil, &models.ValidationError{Message: MsgInvalidDatetime}
	}
	if !start.After(o.now()) {
		return nil, &models.ValidationError{Message: MsgPastDatetime}
	}

	log := o.Logger.With(logger.Application(applicationID), logger.Slot(start))

	app, err := o.loadApplication(ctx, applicationID)
	if err != nil {
		o.upstreamFailed(err)
		log.Error("Failed to load application", logger.Action("book"), logger.Error(err))
		return nil, err
	}
	if app == nil {
		return nil, &models.NotFoundError{Resource: "application", ID: applicationID}
	}
	if app.AppointmentBooked {
		log.Info("Application already has an appointment", logger.Action("book"), logger.Status("already_booked"))
		return nil, &models.ConflictError{Message: MsgAlreadyBooked, ExistingDatetime: app.ExistingAppointment()}
	}

	creds, err := o.Credentials.GetValidCredentials(ctx)
	if err != nil {
		o.upstreamFailed(err)
		log.Error("Failed to get calendar credentials", logger.Action("book"), logger.Error(err))
		return nil, err
	}

	end := start.Add(scheduling.SlotDuration)
	busy, err := o.Calendar.ListBusyIntervals(ctx, creds.AccessToken, start, end)
	if err != nil {
		o.upstreamFailed(err)
		log.Error("Failed to re-check slot", logger.Action("book"), logger.Error(err))
		return nil, err
	}
	if len(busy) > 0 {
		log.Info("Slot no longer available", logger.Action("book"), logger.Status("slot_taken"))
		return nil, &models.ConflictError{Message: MsgSlotTaken}
	}

	notes := o.cleanNotes(req.Notes)

	eventID, err := o.Calendar.CreateEvent(ctx, creds.AccessToken, o.eventRequest(app, start, notes))
	if err != nil {
		o.upstreamFailed(err)
		log.Error("Failed to create calendar event", logger.Action("book"), logger.Error(err))
		return nil, err
	}
	log = log.With(logger.EventID(eventID))
	log.Info("Calendar event created", logger.Action("book"), logger.Status("event_created"))

	appointment := models.Appointment{
		Datetime:        start.UTC(),
		FormattedDate:   scheduling.FormatGermanDate(start, o.Slots.Location),
		FormattedTime:   scheduling.FormatGermanTime(start, o.Slots.Location),
		CalendarEventID: eventID,
	}

	// The event is irreversible; a client hanging up must not leave the
	// application row stale.
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()

	updated, patchErr := o.markBooked(commitCtx, applicationID, start, notes, eventID)
	if patchErr != nil {
		o.upstreamFailed(patchErr)
		log.Error("Calendar event created but application not updated", logger.Action("book"), logger.Error(patchErr))
		o.recordReconciliation(commitCtx, log, applicationID, eventID, start, notes, patchErr)
		updated = bookedCopy(app, start, notes, eventID)
	}

	o.notifyInBackground(ctx, log, updated, appointment, notes)

	result := &models.BookingResult{Appointment: appointment, Application: updated}
	if patchErr != nil {
		return result, &models.PartialFailureError{ApplicationID: applicationID, EventID: eventID, Err: patchErr}
	}

	log.Info("Appointment booked", logger.Action("book"), logger.Status("booked"))
	return result, nil
}

func (o *Orchestrator) loadApplication(ctx context.Context, id string) (*models.Application, error) {
	var rows []models.Application
	if err := o.Records.Select(ctx, applicationsTable, store.Eq("id", id), 1, &rows); err != nil {
		return nil, fmt.Errorf("failed to load application: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (o *Orchestrator) markBooked(ctx context.Context, id string, start time.Time, notes, eventID string) (*models.Application, error) {
	patch := applicationPatch{
		AppointmentBooked:     true,
		AppointmentDatetime:   start.UTC().Format(isoMillis),
		GoogleCalendarEventID: eventID,
		Status:                models.StatusContacted,
		UpdatedAt:             o.now().UTC().Format(isoMillis),
	}
	if notes != "" {
		patch.AppointmentNotes = &notes
	}

	var rows []models.Application
	err := o.Records.Patch(ctx, applicationsTable, store.Eq("id", id), patch, store.WriteOptions{ReturnRepresentation: true}, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to update application: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("failed to update application: no row returned")
	}
	return &rows[0], nil
}

func (o *Orchestrator) eventRequest(app *models.Application, start time.Time, notes string) service.EventRequest {
	name := app.FullName()

	var desc strings.Builder
	fmt.Fprintf(&desc, "Bewerbungsgespräch für %s\n\n", app.ProgramLabel())
	fmt.Fprintf(&desc, "Bewerber: %s\n", name)
	fmt.Fprintf(&desc, "E-Mail: %s", app.Email)
	if app.Phone != "" {
		fmt.Fprintf(&desc, "\nTelefon: %s", app.Phone)
	}
	if notes != "" {
		fmt.Fprintf(&desc, "\n\nNotizen:\n%s", notes)
	}

	return service.EventRequest{
		Summary:              "Kennenlerngespräch: " + name,
		Description:          desc.String(),
		Start:                start,
		Duration:             scheduling.SlotDuration,
		TimeZone:             scheduling.BusinessTimeZone,
		AttendeeEmail:        app.Email,
		AttendeeName:         name,
		EmailReminderMinutes: int64(o.FeatureCfg.Booking.EmailReminderMinutes),
		PopupReminderMinutes: int64(o.FeatureCfg.Booking.PopupReminderMinutes),
	}
}

func (o *Orchestrator) recordReconciliation(ctx context.Context, log *logger.Logger, applicationID, eventID string, start time.Time, notes string, cause error) {
	if o.Ledger == nil {
		return
	}
	entry := &models.Reconciliation{
		ID:            uuid.NewString(),
		ApplicationID: applicationID,
		EventID:       eventID,
		AppointmentAt: start.UTC(),
		Notes:         notes,
		Reason:        cause.Error(),
		CreatedAt:     o.now().UTC(),
	}
	if err := o.Ledger.SaveReconciliation(ctx, entry); err != nil {
		log.Error("Failed to record reconciliation", logger.Action("ledger"), logger.Error(err))
		return
	}
	log.Warn("Reconciliation recorded", logger.Action("ledger"), logger.F("RECONCILIATION", entry.ID))
}

// Wait blocks until notifications of finished bookings are sent or ctx ends.
func (o *Orchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.notifications.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("pending booking notifications: %w", ctx.Err())
	}
}

// notifyInBackground sends notifications after the response is written so a
// slow mail server or webhook cannot delay the answer to a committed booking.
func (o *Orchestrator) notifyInBackground(ctx context.Context, log *logger.Logger, app *models.Application, appt models.Appointment, notes string) {
	detached := context.WithoutCancel(ctx)
	o.notifications.Go(func() {
		notifyCtx, cancel := context.WithTimeout(detached, notifyTimeout)
		defer cancel()
		o.notify(notifyCtx, log, app, appt, notes)
	})
}

// notify sends the confirmation, owner and webhook messages. Failures are
// logged only.
func (o *Orchestrator) notify(ctx context.Context, log *logger.Logger, app *models.Application, appt models.Appointment, notes string) {
	if o.Email != nil {
		if err := o.Email.SendBookingConfirmation(app.Email, app.FullName(), app.ProgramInterest, appt); err != nil {
			log.Warn("Failed to send booking confirmation", logger.Action("email"), logger.Error(err))
		}
		if owner := o.FeatureCfg.Calendar.OwnerEmail; owner != "" {
			if err := o.Email.SendOwnerNotification(owner, app, appt, notes); err != nil {
				log.Warn("Failed to send owner notification", logger.Action("email"), logger.Error(err))
			}
		}
	}

	if o.Notifier != nil {
		err := o.Notifier.Notify(ctx, service.EventAppointmentBooked, map[string]any{
			"application_id":       app.ID,
			"email":                app.Email,
			"first_name":           app.FirstName,
			"last_name":            app.LastName,
			"program":              app.ProgramInterest,
			"appointment_datetime": appt.Datetime.Format(isoMillis),
			"calendar_event_id":    appt.CalendarEventID,
		})
		if err != nil {
			log.Warn("Failed to send booking webhook", logger.Action("webhook"), logger.Error(err))
		}
	}
}

func (o *Orchestrator) cleanNotes(notes string) string {
	if o.Sanitizer == nil {
		return strings.TrimSpace(notes)
	}
	return o.Sanitizer.Clean(notes, maxNotesRunes)
}

func (o *Orchestrator) upstreamFailed(err error) {
	var (
		authErr  *models.UpstreamAuthError
		calErr   *models.UpstreamCalendarError
		storeErr *store.RequestError
	)
	switch {
	case errors.As(err, &authErr):
		o.recorder().RecordUpstreamError("oauth")
	case errors.As(err, &calErr):
		o.recorder().RecordUpstreamError("calendar")
	case errors.As(err, &storeErr):
		o.recorder().RecordUpstreamError("record_store")
	}
}

func (o *Orchestrator) recorder() metrics.Recorder {
	if o.Metrics == nil {
		return metrics.Nop{}
	}
	return o.Metrics
}

func (o *Orchestrator) now() time.Time {
	if o.Slots != nil && o.Slots.Now != nil {
		return o.Slots.Now()
	}
	return time.Now()
}

func bookedCopy(app *models.Application, start time.Time, notes, eventID string) *models.Application {
	cp := *app
	at := start.UTC().Format(isoMillis)
	cp.AppointmentBooked = true
	cp.AppointmentDatetime = &at
	cp.GoogleCalendarEventID = &eventID
	cp.Status = models.StatusContacted
	if notes != "" {
		cp.AppointmentNotes = &notes
	}
	return &cp
}

func bookingOutcome(err error) string {
	var (
		validationErr *models.ValidationError
		notFoundErr   *models.NotFoundError
		conflictErr   *models.ConflictError
		partialErr    *models.PartialFailureError
	)
	switch {
	case err == nil:
		return metrics.OutcomeBooked
	case errors.As(err, &validationErr):
		return metrics.OutcomeInvalid
	case errors.As(err, &notFoundErr):
		return metrics.OutcomeNotFound
	case errors.As(err, &conflictErr):
		if conflictErr.Message == MsgAlreadyBooked {
			return metrics.OutcomeAlreadyBooked
		}
		return metrics.OutcomeSlotTaken
	case errors.As(err, &partialErr):
		return metrics.OutcomePartialFailure
	default:
		return metrics.OutcomeError
	}
}
