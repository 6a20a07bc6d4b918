// Package app wires configuration, services and the HTTP router together.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/synclaro/website-api/internal/config"
	"github.com/synclaro/website-api/internal/handler"
	"github.com/synclaro/website-api/internal/logger"
	"github.com/synclaro/website-api/internal/metrics"
	"github.com/synclaro/website-api/internal/middleware"
	"github.com/synclaro/website-api/internal/orchestrator"
	"github.com/synclaro/website-api/internal/scheduling"
	"github.com/synclaro/website-api/internal/service"
	"github.com/synclaro/website-api/internal/store"
)

type App struct {
	config     *config.Config
	featureCfg *service.FeatureConfig
	logger     *logger.Logger

	ledger       *store.SQLiteStore
	limiter      *middleware.RateLimiter
	orchestrator *orchestrator.Orchestrator
	handler      http.Handler
}

func New(cfg *config.Config, featureCfg *service.FeatureConfig, log *logger.Logger) *App {
	if featureCfg == nil {
		featureCfg = service.DefaultFeatureConfig()
	}
	if log == nil {
		log = logger.New()
	}
	return &App{
		config:     cfg,
		featureCfg: featureCfg,
		logger:     log,
	}
}

// Initialize builds every service and the router. It opens the local ledger,
// so Close must be called afterwards.
func (a *App) Initialize(ctx context.Context) error {
	loc, err := scheduling.LoadBusinessLocation()
	if err != nil {
		return err
	}

	ledger, err := store.NewSQLiteStore(a.config.LedgerPath)
	if err != nil {
		return fmt.Errorf("failed to open reconciliation ledger: %w", err)
	}
	a.ledger = ledger

	records := store.NewPostgRESTClient(a.config.RecordStoreURL, a.config.RecordStoreKey, nil)
	crm := store.NewPostgRESTClient(a.config.CRMStoreURL, a.config.CRMStoreKey, nil)

	if !a.config.CalendarConfigured() {
		a.logger.Warn("Google OAuth client not configured, availability and booking will fail",
			logger.Action("startup"), logger.Status("calendar_unconfigured"))
	}
	credentials := service.NewCredentialManager(a.logger, crm, a.config.GoogleClientID, a.config.GoogleClientSecret, a.config.GoogleTokenURL, nil)
	calendarSvc := service.NewCalendarService(a.featureCfg.Calendar.CalendarID, a.featureCfg.Calendar.EventLocation, a.config.CalendarEndpoint, nil)

	notifier := service.NewWebhookNotifier(a.logger, a.featureCfg.Webhook.URL, service.NewSafeHTTPClient(a.featureCfg.Webhook.Timeout()))
	if !notifier.Enabled() {
		a.logger.Info("Workflow webhook not configured", logger.Action("startup"))
	}
	sanitizer := service.NewTextSanitizer()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(registry)

	orch := &orchestrator.Orchestrator{
		Logger:      a.logger,
		Credentials: credentials,
		Calendar:    calendarSvc,
		Records:     crm,
		Slots:       scheduling.NewGenerator(loc),
		Notifier:    notifier,
		Ledger:      ledger,
		Metrics:     recorder,
		FeatureCfg:  a.featureCfg,
		Sanitizer:   sanitizer,
	}
	if emailSvc := a.newEmailService(); emailSvc != nil {
		orch.Email = emailSvc
	}
	a.orchestrator = orch

	sessions, err := a.newSessionManager()
	if err != nil {
		return err
	}

	a.limiter = middleware.NewRateLimiter(
		middleware.PerMinute(a.featureCfg.RateLimit.RequestsPerMinute, a.featureCfg.RateLimit.Burst),
		a.logger,
	)

	a.handler = handler.NewRouter(&handler.RouterDeps{
		Logger:            a.logger,
		Metrics:           recorder,
		MetricsHandler:    metrics.Handler(registry),
		CORSAllowedOrigin: a.featureCfg.Server.AllowedOrigin,
		RateLimiter:       a.limiter,
		Booking:           orch,
		Intake:            service.NewIntakeService(a.logger, records, crm, notifier, sanitizer),
		Webhook:           notifier,
		Blog:              service.NewBlogService(a.logger, records),
		Sessions:          sessions,
		Ledger:            ledger,
		Cookie: handler.CookieConfig{
			Name:     service.SessionCookieName,
			Insecure: a.config.CookieInsecure,
		},
	})

	a.logger.Info("Application initialized", logger.Action("startup"), logger.Status("ready"))
	return nil
}

// Handler returns the HTTP handler. It is nil before Initialize.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Close waits for pending booking notifications until ctx ends, then
// releases the rate limiter and the ledger.
func (a *App) Close(ctx context.Context) error {
	if a.orchestrator != nil {
		if err := a.orchestrator.Wait(ctx); err != nil {
			a.logger.Warn("Shutting down with unsent booking notifications", logger.Action("shutdown"), logger.Error(err))
		}
	}
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.ledger == nil {
		return nil
	}
	if err := a.ledger.Close(); err != nil {
		return fmt.Errorf("failed to close reconciliation ledger: %w", err)
	}
	a.ledger = nil
	return nil
}

func (a *App) newEmailService() *service.EmailService {
	smtp := a.config.SMTP
	if !smtp.Enabled() {
		a.logger.Info("Email service not configured (SMTP_USERNAME/SMTP_PASSWORD missing)")
		return nil
	}

	emailSvc, err := service.NewEmailService(smtp.Host, smtp.Port, smtp.Username, smtp.Password, smtp.From, smtp.TestEmailOnly)
	if err != nil {
		a.logger.Warn("Email service not available, emails will not be sent", logger.Error(err))
		return nil
	}
	if smtp.TestEmailOnly != "" {
		a.logger.Info("Email service initialized (TEST MODE)", logger.Status("ready"), logger.F("TEST_EMAIL", smtp.TestEmailOnly))
	} else {
		a.logger.Info("Email service initialized", logger.Status("ready"))
	}
	return emailSvc
}

// newSessionManager falls back to a random signing secret when none is
// configured; intern sessions then end with the process.
func (a *App) newSessionManager() (*service.SessionManager, error) {
	if a.config.InternPasswordHash == "" {
		a.logger.Warn("INTERN_PASSWORD_HASH not set, intern login is disabled", logger.Action("startup"))
	}

	secret := a.config.SessionSecret
	if secret == "" {
		generated, err := service.GenerateSecret(0)
		if err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		secret = generated
		a.logger.Warn("SESSION_SECRET not set, using an ephemeral secret", logger.Action("startup"))
	}
	return service.NewSessionManager(a.config.InternPasswordHash, secret), nil
}
