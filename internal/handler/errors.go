package handler

import (
	"errors"
	"net/http"

	"github.com/synclaro/website-api/internal/logger"
	"github.com/synclaro/website-api/internal/models"
)

const (
	msgConfiguration   = "Server configuration error"
	msgNotFound        = "Bewerbung nicht gefunden"
	msgCalendarMissing = "Kalender ist nicht verbunden"

	maxDetailRunes = 500
)

// writeDomainError maps the domain error taxonomy to a status code and a
// message safe to show on the site. Calendar API failures also carry the
// upstream status and a shortened upstream body. Other unclassified errors
// answer 500 with fallback; details only go to the log.
func writeDomainError(w http.ResponseWriter, log *logger.Logger, err error, fallback string) {
	var (
		validationErr *models.ValidationError
		notFoundErr   *models.NotFoundError
		conflictErr   *models.ConflictError
		configErr     *models.ConfigurationError
		credsErr      *models.CredentialsNotFoundError
		calendarErr   *models.UpstreamCalendarError
	)

	switch {
	case errors.As(err, &validationErr):
		writeError(w, log, http.StatusBadRequest, validationErr.Message)
	case errors.As(err, &notFoundErr):
		writeError(w, log, http.StatusNotFound, msgNotFound)
	case errors.As(err, &conflictErr):
		body := map[string]any{"error": conflictErr.Message}
		if conflictErr.ExistingDatetime != "" {
			body["existingDatetime"] = conflictErr.ExistingDatetime
		}
		writeJSON(w, log, http.StatusConflict, body)
	case errors.As(err, &configErr):
		log.Error("Configuration error", logger.Error(err))
		writeError(w, log, http.StatusInternalServerError, msgConfiguration)
	case errors.As(err, &credsErr):
		log.Error("Calendar not connected", logger.Error(err))
		writeError(w, log, http.StatusInternalServerError, msgCalendarMissing)
	case errors.As(err, &calendarErr):
		log.Error("Calendar request failed", logger.Error(err))
		body := map[string]any{"error": fallback}
		if calendarErr.Status != 0 {
			body["upstreamStatus"] = calendarErr.Status
		}
		if calendarErr.Body != "" {
			body["details"] = truncateRunes(calendarErr.Body, maxDetailRunes)
		}
		writeJSON(w, log, http.StatusInternalServerError, body)
	default:
		log.Error("Request failed", logger.Error(err))
		writeError(w, log, http.StatusInternalServerError, fallback)
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
