package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/synclaro/website-api/internal/logger"
	"github.com/synclaro/website-api/internal/models"
)

const (
	msgBooked          = "Termin erfolgreich gebucht!"
	msgBookingFailed   = "Fehler beim Buchen des Termins"
	msgSlotsFailed     = "Failed to fetch available slots"
	msgInvalidRequest  = "Invalid request"
	msgPartialBooked   = "Termin wurde erstellt, aber Bewerbung konnte nicht aktualisiert werden"
	rangeTimestampForm = "2006-01-02T15:04:05.000Z"

	// useDefaultDays asks the service for its configured window. Missing or
	// unparsable ?days= values use it.
	useDefaultDays = -1
)

// BookingService is what the booking endpoints need from the orchestrator.
type BookingService interface {
	Availability(ctx context.Context, days int) (*models.Availability, error)
	Book(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error)
}

type BookingHandler struct {
	service BookingService
	logger  *logger.Logger
}

func NewBookingHandler(service BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{service: service, logger: log}
}

type rangeResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type availableSlotsResponse struct {
	Success        bool                         `json:"success"`
	Range          rangeResponse                `json:"range"`
	TotalSlots     int                          `json:"totalSlots"`
	AvailableSlots int                          `json:"availableSlots"`
	SlotsByDate    map[string][]models.TimeSlot `json:"slotsByDate"`
}

type bookingResponse struct {
	Success     bool                `json:"success"`
	Message     string              `json:"message"`
	Warning     string              `json:"warning,omitempty"`
	Appointment appointmentResponse `json:"appointment"`
	Application *models.Application `json:"application"`
}

type appointmentResponse struct {
	Datetime        string `json:"datetime"`
	FormattedDate   string `json:"formattedDate"`
	FormattedTime   string `json:"formattedTime"`
	CalendarEventID string `json:"calendarEventId"`
}

// AvailableSlots handles GET /api/available-slots?days=N
func (h *BookingHandler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	days := useDefaultDays
	if n, err := strconv.Atoi(r.URL.Query().Get("days")); err == nil {
		days = max(n, 0)
	}

	av, err := h.service.Availability(r.Context(), days)
	if err != nil {
		writeDomainError(w, h.logger, err, msgSlotsFailed)
		return
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	writeJSON(w, h.logger, http.StatusOK, availableSlotsResponse{
		Success: true,
		Range: rangeResponse{
			Start: av.RangeStart.UTC().Format(rangeTimestampForm),
			End:   av.RangeEnd.UTC().Format(rangeTimestampForm),
		},
		TotalSlots:     av.TotalSlots,
		AvailableSlots: av.AvailableSlots,
		SlotsByDate:    av.SlotsByDate,
	})
}

// BookAppointment handles POST /api/book-appointment
func (h *BookingHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	result, err := h.service.Book(r.Context(), req)

	var partial *models.PartialFailureError
	switch {
	case err == nil:
		writeJSON(w, h.logger, http.StatusOK, newBookingResponse(result, ""))
	case errors.As(err, &partial) && result != nil:
		writeJSON(w, h.logger, http.StatusOK, newBookingResponse(result, msgPartialBooked))
	default:
		writeDomainError(w, h.logger, err, msgBookingFailed)
	}
}

func newBookingResponse(result *models.BookingResult, warning string) bookingResponse {
	appt := result.Appointment
	return bookingResponse{
		Success: true,
		Message: msgBooked,
		Warning: warning,
		Appointment: appointmentResponse{
			Datetime:        appt.Datetime.UTC().Format(rangeTimestampForm),
			FormattedDate:   appt.FormattedDate,
			FormattedTime:   appt.FormattedTime,
			CalendarEventID: appt.CalendarEventID,
		},
		Application: result.Application,
	}
}
