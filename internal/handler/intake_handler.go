package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/synclaro/website-api/internal/logger"
	"github.com/synclaro/website-api/internal/models"
)

const (
	msgSaveLeadFailed        = "Fehler beim Speichern der Anfrage"
	msgSaveApplicationFailed = "Fehler beim Speichern der Bewerbung"
	msgMissingPixelFields    = "Missing required fields"
	msgPixelStoreFailed      = "Database insert failed but event was received"
	msgPixelAPIRunning       = "Meta Pixel Event API is running"
)

// IntakeService stores the site's form submissions.
type IntakeService interface {
	CreateLead(ctx context.Context, lead models.Lead) (string, error)
	SubmitMastermind(ctx context.Context, app models.MastermindApplication) (string, error)
	SubmitSeminarApplication(ctx context.Context, app models.SeminarApplication) (string, error)
	SubmitApplication(ctx context.Context, in models.ApplicationIntake, attr models.Attribution) (string, error)
	RecordPixelEvent(ctx context.Context, ev models.PixelEvent) error
}

// WebhookForwarder relays tracking payloads to the workflow automation.
type WebhookForwarder interface {
	Forward(ctx context.Context, body json.RawMessage) error
}

type IntakeHandler struct {
	service   IntakeService
	forwarder WebhookForwarder
	validate  *validator.Validate
	logger    *logger.Logger
}

func NewIntakeHandler(service IntakeService, forwarder WebhookForwarder, log *logger.Logger) *IntakeHandler {
	return &IntakeHandler{
		service:   service,
		forwarder: forwarder,
		validate:  newValidator(),
		logger:    log,
	}
}

type createdResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
}

type trackingResponse struct {
	Success bool   `json:"success"`
	Warning string `json:"warning,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CreateLead handles POST /api/leads
func (h *IntakeHandler) CreateLead(w http.ResponseWriter, r *http.Request) {
	var lead models.Lead
	if !h.bind(w, r, &lead) {
		return
	}

	id, err := h.service.CreateLead(r.Context(), lead)
	if err != nil {
		writeDomainError(w, h.logger, err, msgSaveLeadFailed)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, createdResponse{Success: true, ID: id})
}

// SubmitMastermind handles POST /api/mastermind
func (h *IntakeHandler) SubmitMastermind(w http.ResponseWriter, r *http.Request) {
	var app models.MastermindApplication
	if !h.bind(w, r, &app) {
		return
	}

	id, err := h.service.SubmitMastermind(r.Context(), app)
	if err != nil {
		writeDomainError(w, h.logger, err, msgSaveApplicationFailed)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, createdResponse{Success: true, ID: id})
}

// SubmitSeminarApplication handles POST /api/mastermind-application
func (h *IntakeHandler) SubmitSeminarApplication(w http.ResponseWriter, r *http.Request) {
	var app models.SeminarApplication
	if !h.bind(w, r, &app) {
		return
	}

	id, err := h.service.SubmitSeminarApplication(r.Context(), app)
	if err != nil {
		writeDomainError(w, h.logger, err, msgSaveApplicationFailed)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, createdResponse{Success: true, ID: id})
}

// SubmitApplication handles POST /api/lp-application. Session and campaign
// attribution arrive as headers set by the landing page script.
func (h *IntakeHandler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	var in models.ApplicationIntake
	if !h.bind(w, r, &in) {
		return
	}

	attr := models.Attribution{
		SessionID:   r.Header.Get("X-Session-Id"),
		UTMSource:   r.Header.Get("X-Utm-Source"),
		UTMMedium:   r.Header.Get("X-Utm-Medium"),
		UTMCampaign: r.Header.Get("X-Utm-Campaign"),
	}

	id, err := h.service.SubmitApplication(r.Context(), in, attr)
	if err != nil {
		writeDomainError(w, h.logger, err, msgSaveApplicationFailed)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, createdResponse{Success: true, ID: id})
}

// ForwardWebhook handles POST /api/lp-webhook. Delivery problems are logged
// and never reported to the page.
func (h *IntakeHandler) ForwardWebhook(w http.ResponseWriter, r *http.Request) {
	var body json.RawMessage
	if err := decodeJSON(w, r, &body); err != nil {
		writeJSON(w, h.logger, http.StatusBadRequest, trackingResponse{Error: msgInvalidRequest})
		return
	}

	if err := h.forwarder.Forward(r.Context(), body); err != nil {
		h.logger.Warn("Webhook forward failed", logger.Action("webhook"), logger.Error(err))
	}
	writeJSON(w, h.logger, http.StatusOK, trackingResponse{Success: true})
}

// RecordPixelEvent handles POST /api/meta-pixel-event
func (h *IntakeHandler) RecordPixelEvent(w http.ResponseWriter, r *http.Request) {
	var ev models.PixelEvent
	if err := decodeJSON(w, r, &ev); err != nil {
		writeJSON(w, h.logger, http.StatusBadRequest, trackingResponse{Error: msgInvalidRequest})
		return
	}
	if err := h.validate.Struct(ev); err != nil {
		writeJSON(w, h.logger, http.StatusBadRequest, trackingResponse{Error: msgMissingPixelFields})
		return
	}

	if err := h.service.RecordPixelEvent(r.Context(), ev); err != nil {
		h.logger.Error("Failed to store pixel event",
			logger.Action("pixel"),
			logger.F("PIXEL_EVENT", ev.EventName),
			logger.Error(err),
		)
		writeJSON(w, h.logger, http.StatusOK, trackingResponse{Success: true, Warning: msgPixelStoreFailed})
		return
	}
	writeJSON(w, h.logger, http.StatusOK, trackingResponse{Success: true})
}

// PixelStatus handles GET /api/meta-pixel-event
func (h *IntakeHandler) PixelStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok", "message": msgPixelAPIRunning})
}

// bind decodes and validates the request body. It writes the 400 response
// itself and reports whether the handler may continue.
func (h *IntakeHandler) bind(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := decodeJSON(w, r, v); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, msgInvalidRequest)
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}
