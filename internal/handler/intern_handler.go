package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/synclaro/website-api/internal/logger"
	"github.com/synclaro/website-api/internal/models"
	"github.com/synclaro/website-api/internal/store"
)

const (
	msgInvalidPassword = "Invalid password"
	internLandingPath  = "/intern"
)

// Sessions checks the intern password and mints session tokens.
type Sessions interface {
	CheckPassword(password string) bool
	Issue() (string, time.Time, error)
	Validate(token string) error
}

// ReconciliationLedger exposes the partial-failure ledger to operators.
type ReconciliationLedger interface {
	ListOpenReconciliations(ctx context.Context) ([]*models.Reconciliation, error)
	ResolveReconciliation(ctx context.Context, id string) error
}

// CookieConfig controls the intern session cookie.
type CookieConfig struct {
	Name     string
	Insecure bool // drops the Secure flag for plain-HTTP local development
}

type InternHandler struct {
	sessions Sessions
	ledger   ReconciliationLedger
	cookie   CookieConfig
	logger   *logger.Logger
}

func NewInternHandler(sessions Sessions, ledger ReconciliationLedger, cookie CookieConfig, log *logger.Logger) *InternHandler {
	return &InternHandler{sessions: sessions, ledger: ledger, cookie: cookie, logger: log}
}

type loginRequest struct {
	Password string `json:"password"`
}

// Login handles POST /api/intern/login
func (h *InternHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	if !h.sessions.CheckPassword(req.Password) {
		h.logger.Warn("Intern login rejected", logger.Action("intern_login"))
		writeError(w, h.logger, http.StatusUnauthorized, msgInvalidPassword)
		return
	}

	token, expires, err := h.sessions.Issue()
	if err != nil {
		h.logger.Error("Failed to issue intern session", logger.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, msgConfiguration)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   !h.cookie.Insecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, h.logger, http.StatusOK, map[string]bool{"success": true})
}

// Logout handles GET and POST /api/intern/logout
func (h *InternHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !h.cookie.Insecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, internLandingPath, http.StatusFound)
}

// ListReconciliations handles GET /api/intern/reconciliations
func (h *InternHandler) ListReconciliations(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledger.ListOpenReconciliations(r.Context())
	if err != nil {
		h.logger.Error("Failed to list reconciliations", logger.Action("ledger"), logger.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list reconciliations")
		return
	}
	if entries == nil {
		entries = []*models.Reconciliation{}
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"reconciliations": entries})
}

// ResolveReconciliation handles POST /api/intern/reconciliations/{id}/resolve
func (h *InternHandler) ResolveReconciliation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.ledger.ResolveReconciliation(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrReconciliationNotFound):
		writeError(w, h.logger, http.StatusNotFound, "reconciliation not found")
	case err != nil:
		h.logger.Error("Failed to resolve reconciliation", logger.Action("ledger"), logger.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to resolve reconciliation")
	default:
		h.logger.Info("Reconciliation resolved", logger.Action("ledger"), logger.F("RECONCILIATION", id))
		writeJSON(w, h.logger, http.StatusOK, map[string]bool{"success": true})
	}
}
