package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/synclaro/website-api/internal/logger"
)

func NewRecoveryMiddleware(log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Error("panic recovered",
						logger.F("PANIC", rec),
						logger.Method(r.Method),
						logger.Path(r.URL.Path),
						logger.F("STACK", string(debug.Stack())),
					)
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
