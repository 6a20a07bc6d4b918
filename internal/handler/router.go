package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/synclaro/website-api/internal/logger"
	"github.com/synclaro/website-api/internal/metrics"
	"github.com/synclaro/website-api/internal/middleware"
)

// RouterDeps collects what NewRouter wires into the handlers.
type RouterDeps struct {
	Logger            *logger.Logger
	Metrics           metrics.Recorder
	MetricsHandler    http.Handler
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	Booking BookingService
	Intake  IntakeService
	Webhook WebhookForwarder
	Blog    BlogService

	Sessions Sessions
	Ledger   ReconciliationLedger
	Cookie   CookieConfig
}

// NewRouter builds the API routes and the middleware chain:
//
//	RealIP → RequestID → Logging → Recovery → SecurityHeaders → CORS
//
// Form and booking writes are additionally rate limited per client IP, and
// the reconciliation view requires an intern session.
func NewRouter(deps *RouterDeps) http.Handler {
	rec := deps.Metrics
	if rec == nil {
		rec = metrics.Nop{}
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, rec))
	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	booking := NewBookingHandler(deps.Booking, deps.Logger)
	intake := NewIntakeHandler(deps.Intake, deps.Webhook, deps.Logger)
	intern := NewInternHandler(deps.Sessions, deps.Ledger, deps.Cookie, deps.Logger)
	blog := NewBlogHandler(deps.Blog, deps.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, deps.Logger, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/available-slots", booking.AvailableSlots)
		r.Get("/meta-pixel-event", intake.PixelStatus)
		r.Post("/meta-pixel-event", intake.RecordPixelEvent)
		r.Post("/lp-webhook", intake.ForwardWebhook)
		r.Get("/blog/articles", blog.ListArticles)

		r.Group(func(r chi.Router) {
			if deps.RateLimiter != nil {
				r.Use(deps.RateLimiter.Middleware())
			}
			r.Post("/book-appointment", booking.BookAppointment)
			r.Post("/leads", intake.CreateLead)
			r.Post("/lp-application", intake.SubmitApplication)
			r.Post("/mastermind", intake.SubmitMastermind)
			r.Post("/mastermind-application", intake.SubmitSeminarApplication)
			r.Post("/intern/login", intern.Login)
		})

		r.Get("/intern/logout", intern.Logout)
		r.Post("/intern/logout", intern.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.NewInternSessionMiddleware(deps.Cookie.Name, deps.Sessions, deps.Logger))
			r.Get("/intern/reconciliations", intern.ListReconciliations)
			r.Post("/intern/reconciliations/{id}/resolve", intern.ResolveReconciliation)
		})
	})

	return r
}
