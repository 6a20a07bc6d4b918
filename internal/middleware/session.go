package middleware

import (
	"net/http"

	"github.com/synclaro/website-api/internal/logger"
)

// SessionValidator verifies an intern session token.
type SessionValidator interface {
	Validate(token string) error
}

// NewInternSessionMiddleware rejects requests without a valid session cookie.
func NewInternSessionMiddleware(cookieName string, sessions SessionValidator, log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if err := sessions.Validate(cookie.Value); err != nil {
				log.Warn("rejected intern session", logger.Path(r.URL.Path), logger.Error(err))
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
