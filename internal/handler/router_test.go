package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synclaro/website-api/internal/logger"
	"github.com/synclaro/website-api/internal/middleware"
	"github.com/synclaro/website-api/internal/models"
	"github.com/synclaro/website-api/internal/service"
	"github.com/synclaro/website-api/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// --- fakes ---

type fakeBooking struct {
	availabilityFn func(days int) (*models.Availability, error)
	bookFn         func(req models.BookingRequest) (*models.BookingResult, error)
	days           []int
}

func (f *fakeBooking) Availability(_ context.Context, days int) (*models.Availability, error) {
	f.days = append(f.days, days)
	if f.availabilityFn != nil {
		return f.availabilityFn(days)
	}
	return &models.Availability{SlotsByDate: map[string][]models.TimeSlot{}}, nil
}

func (f *fakeBooking) Book(_ context.Context, req models.BookingRequest) (*models.BookingResult, error) {
	if f.bookFn != nil {
		return f.bookFn(req)
	}
	return nil, errors.New("not configured")
}

type fakeIntake struct {
	err         error
	leads       []models.Lead
	masterminds []models.MastermindApplication
	seminars    []models.SeminarApplication
	apps        []models.ApplicationIntake
	attrs       []models.Attribution
	pixels      []models.PixelEvent
}

func (f *fakeIntake) CreateLead(_ context.Context, lead models.Lead) (string, error) {
	f.leads = append(f.leads, lead)
	return "lead-1", f.err
}

func (f *fakeIntake) SubmitMastermind(_ context.Context, app models.MastermindApplication) (string, error) {
	f.masterminds = append(f.masterminds, app)
	return "lead-2", f.err
}

func (f *fakeIntake) SubmitSeminarApplication(_ context.Context, app models.SeminarApplication) (string, error) {
	f.seminars = append(f.seminars, app)
	return "sem-1", f.err
}

func (f *fakeIntake) SubmitApplication(_ context.Context, in models.ApplicationIntake, attr models.Attribution) (string, error) {
	f.apps = append(f.apps, in)
	f.attrs = append(f.attrs, attr)
	return "app-1", f.err
}

func (f *fakeIntake) RecordPixelEvent(_ context.Context, ev models.PixelEvent) error {
	f.pixels = append(f.pixels, ev)
	return f.err
}

type fakeBlog struct {
	queries []models.ArticleQuery
	page    *models.ArticlePage
	err     error
}

func (f *fakeBlog) ListArticles(_ context.Context, q models.ArticleQuery) (*models.ArticlePage, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	if f.page != nil {
		return f.page, nil
	}
	return &models.ArticlePage{Articles: []json.RawMessage{}, Page: 1, Limit: 10}, nil
}

type fakeForwarder struct {
	bodies []string
	err    error
}

func (f *fakeForwarder) Forward(_ context.Context, body json.RawMessage) error {
	f.bodies = append(f.bodies, string(body))
	return f.err
}

// --- helpers ---

const internPassword = "geheim"

type testEnv struct {
	router    http.Handler
	booking   *fakeBooking
	intake    *fakeIntake
	forwarder *fakeForwarder
	blog      *fakeBlog
	sessions  *service.SessionManager
	ledger    *store.SQLiteStore
	log       *bytes.Buffer
}

func newTestEnv(t *testing.T, limiter *middleware.RateLimiter) *testEnv {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(internPassword), bcrypt.MinCost)
	require.NoError(t, err)

	ledger, err := store.NewSQLiteStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ledger.Close() })

	env := &testEnv{
		booking:   &fakeBooking{},
		intake:    &fakeIntake{},
		forwarder: &fakeForwarder{},
		blog:      &fakeBlog{},
		sessions:  service.NewSessionManager(string(hash), "test-secret-with-enough-entropy"),
		ledger:    ledger,
		log:       &bytes.Buffer{},
	}
	env.router = NewRouter(&RouterDeps{
		Logger:            logger.NewWithWriter(env.log),
		MetricsHandler:    http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("# metrics\n")) }),
		CORSAllowedOrigin: "https://synclaro.de",
		RateLimiter:       limiter,
		Booking:           env.booking,
		Intake:            env.intake,
		Webhook:           env.forwarder,
		Blog:              env.blog,
		Sessions:          env.sessions,
		Ledger:            ledger,
		Cookie:            CookieConfig{Name: service.SessionCookieName},
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, m := range mutate {
		m(req)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

// --- ops ---

func TestHealthzAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	rec = env.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# metrics")
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodOptions, "/api/book-appointment", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://synclaro.de", rec.Header().Get("Access-Control-Allow-Origin"))
}

// --- availability ---

func TestAvailableSlots(t *testing.T) {
	env := newTestEnv(t, nil)
	start := time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)
	slot := models.TimeSlot{
		Date:            "2025-06-03",
		StartTime:       "10:00",
		StartInstant:    time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC),
		DurationMinutes: 15,
		Available:       true,
	}
	env.booking.availabilityFn = func(int) (*models.Availability, error) {
		return &models.Availability{
			RangeStart:     start,
			RangeEnd:       start.Add(48*time.Hour - time.Millisecond),
			TotalSlots:     40,
			AvailableSlots: 1,
			SlotsByDate:    map[string][]models.TimeSlot{"2025-06-03": {slot}},
		}, nil
	}

	rec := env.do(t, http.MethodGet, "/api/available-slots?days=14", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
	assert.Equal(t, []int{14}, env.booking.days)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(40), body["totalSlots"])
	assert.Equal(t, float64(1), body["availableSlots"])
	assert.Equal(t, map[string]any{
		"start": "2025-06-01T22:00:00.000Z",
		"end":   "2025-06-03T21:59:59.999Z",
	}, body["range"])

	byDate := body["slotsByDate"].(map[string]any)
	first := byDate["2025-06-03"].([]any)[0].(map[string]any)
	assert.Equal(t, "10:00", first["time"])
	assert.Equal(t, "2025-06-03", first["date"])
	assert.Equal(t, true, first["available"])
}

func TestAvailableSlots_DaysParameter(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", -1},
		{"?days=0", 0},
		{"?days=3", 3},
		{"?days=abc", -1},
		{"?days=-5", 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			env := newTestEnv(t, nil)
			rec := env.do(t, http.MethodGet, "/api/available-slots"+tt.query, "")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, []int{tt.want}, env.booking.days)
		})
	}
}

func TestAvailableSlots_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"not connected", &models.CredentialsNotFoundError{}, msgCalendarMissing},
		{"not configured", &models.ConfigurationError{Setting: "GOOGLE_CLIENT_ID"}, msgConfiguration},
		{"unclassified", errors.New("dial tcp: secret detail"), msgSlotsFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.booking.availabilityFn = func(int) (*models.Availability, error) { return nil, tt.err }

			rec := env.do(t, http.MethodGet, "/api/available-slots", "")
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tt.wantMsg, decodeBody(t, rec)["error"])
			assert.NotContains(t, rec.Body.String(), "secret detail")
		})
	}
}

func TestAvailableSlots_CalendarErrorCarriesUpstreamDetails(t *testing.T) {
	env := newTestEnv(t, nil)
	env.booking.availabilityFn = func(int) (*models.Availability, error) {
		return nil, &models.UpstreamCalendarError{Op: "list calendar events", Status: 403, Body: `{"error":"rateLimitExceeded"}`}
	}

	rec := env.do(t, http.MethodGet, "/api/available-slots", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, msgSlotsFailed, body["error"])
	assert.Equal(t, float64(403), body["upstreamStatus"])
	assert.Equal(t, `{"error":"rateLimitExceeded"}`, body["details"])
}

func TestAvailableSlots_CalendarErrorWithoutBody(t *testing.T) {
	env := newTestEnv(t, nil)
	env.booking.availabilityFn = func(int) (*models.Availability, error) {
		return nil, &models.UpstreamCalendarError{Op: "list calendar events", Err: errors.New("timeout")}
	}

	rec := env.do(t, http.MethodGet, "/api/available-slots", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.NotContains(t, body, "upstreamStatus")
	assert.NotContains(t, body, "details")
}

// --- booking ---

func bookedResult() *models.BookingResult {
	at := "2025-06-03T08:00:00.000Z"
	return &models.BookingResult{
		Appointment: models.Appointment{
			Datetime:        time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC),
			FormattedDate:   "Dienstag, 3. Juni 2025",
			FormattedTime:   "10:00",
			CalendarEventID: "evt-123",
		},
		Application: &models.Application{ID: "app-1", AppointmentBooked: true, AppointmentDatetime: &at},
	}
}

func TestBookAppointment_Success(t *testing.T) {
	env := newTestEnv(t, nil)
	var got models.BookingRequest
	env.booking.bookFn = func(req models.BookingRequest) (*models.BookingResult, error) {
		got = req
		return bookedResult(), nil
	}

	rec := env.do(t, http.MethodPost, "/api/book-appointment",
		`{"applicationId":"app-1","datetime":"2025-06-03T08:00:00.000Z","notes":"Hallo"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.BookingRequest{ApplicationID: "app-1", Datetime: "2025-06-03T08:00:00.000Z", Notes: "Hallo"}, got)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, msgBooked, body["message"])
	assert.NotContains(t, body, "warning")
	appt := body["appointment"].(map[string]any)
	assert.Equal(t, "2025-06-03T08:00:00.000Z", appt["datetime"])
	assert.Equal(t, "Dienstag, 3. Juni 2025", appt["formattedDate"])
	assert.Equal(t, "10:00", appt["formattedTime"])
	assert.Equal(t, "evt-123", appt["calendarEventId"])
	assert.Equal(t, "app-1", body["application"].(map[string]any)["id"])
}

func TestBookAppointment_ErrorMapping(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantStatus   int
		wantMsg      string
		wantExisting any
	}{
		{"validation", &models.ValidationError{Message: "Termin muss in der Zukunft liegen"}, http.StatusBadRequest, "Termin muss in der Zukunft liegen", nil},
		{"not found", &models.NotFoundError{Resource: "application", ID: "x"}, http.StatusNotFound, msgNotFound, nil},
		{"already booked", &models.ConflictError{Message: "Du hast bereits einen Termin gebucht", ExistingDatetime: "2025-06-04T12:30:00.000Z"}, http.StatusConflict, "Du hast bereits einen Termin gebucht", "2025-06-04T12:30:00.000Z"},
		{"slot taken", &models.ConflictError{Message: "Dieser Termin ist leider nicht mehr verfügbar. Bitte wähle einen anderen."}, http.StatusConflict, "Dieser Termin ist leider nicht mehr verfügbar. Bitte wähle einen anderen.", nil},
		{"upstream auth", &models.UpstreamAuthError{Err: errors.New("invalid_grant")}, http.StatusInternalServerError, msgBookingFailed, nil},
		{"partial without result", &models.PartialFailureError{EventID: "evt"}, http.StatusInternalServerError, msgBookingFailed, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.booking.bookFn = func(models.BookingRequest) (*models.BookingResult, error) { return nil, tt.err }

			rec := env.do(t, http.MethodPost, "/api/book-appointment", `{"applicationId":"app-1","datetime":"2025-06-03T08:00:00Z"}`)
			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tt.wantMsg, body["error"])
			assert.Equal(t, tt.wantExisting, body["existingDatetime"])
		})
	}
}

func TestBookAppointment_PartialFailureAnswersWithWarning(t *testing.T) {
	env := newTestEnv(t, nil)
	env.booking.bookFn = func(models.BookingRequest) (*models.BookingResult, error) {
		return bookedResult(), &models.PartialFailureError{ApplicationID: "app-1", EventID: "evt-123", Err: errors.New("patch failed")}
	}

	rec := env.do(t, http.MethodPost, "/api/book-appointment", `{"applicationId":"app-1","datetime":"2025-06-03T08:00:00Z"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, msgPartialBooked, body["warning"])
	assert.Equal(t, "evt-123", body["appointment"].(map[string]any)["calendarEventId"])
}

func TestBookAppointment_InvalidJSON(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/book-appointment", `{"applicationId":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgInvalidRequest, decodeBody(t, rec)["error"])
}

// --- intake ---

func TestCreateLead(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"valid", `{"name":"Anna","email":"anna@example.com"}`, http.StatusCreated, ""},
		{"missing email", `{"name":"Anna"}`, http.StatusBadRequest, "Email ist erforderlich"},
		{"invalid email", `{"name":"Anna","email":"anna"}`, http.StatusBadRequest, "Bitte gib eine gültige Email-Adresse ein"},
		{"missing name", `{"email":"anna@example.com"}`, http.StatusBadRequest, "Name ist erforderlich"},
		{"not json", `name=Anna`, http.StatusBadRequest, msgInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			rec := env.do(t, http.MethodPost, "/api/leads", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
				assert.Empty(t, env.intake.leads)
				return
			}
			assert.Equal(t, true, body["success"])
			assert.Equal(t, "lead-1", body["id"])
		})
	}
}

func TestCreateLead_StoreFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.intake.err = &store.RequestError{Method: "POST", Table: "lp_leads", Status: 500, Body: "db down"}

	rec := env.do(t, http.MethodPost, "/api/leads", `{"name":"Anna","email":"anna@example.com"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, msgSaveLeadFailed, decodeBody(t, rec)["error"])
	assert.Contains(t, env.log.String(), "db down")
}

func TestSubmitMastermind_RequiresGoals(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/mastermind",
		`{"name":"Anna","email":"anna@example.com","company":"ACME","revenue":"1-5 Mio"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Ziele sind erforderlich", decodeBody(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/api/mastermind",
		`{"name":"Anna","email":"anna@example.com","company":"ACME","revenue":"1-5 Mio","goals":"Wachstum"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, env.intake.masterminds, 1)
	assert.Equal(t, "Wachstum", env.intake.masterminds[0].Goals)
}

func TestSubmitSeminarApplication(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"valid", `{"email":"anna@example.com","firstName":"Anna","lastName":"Muster","company":"ACME","currentChallenges":"Skalierung","seminarDate":"2025-09-12"}`, http.StatusCreated, ""},
		{"missing email first", `{"firstName":"Anna"}`, http.StatusBadRequest, "Email ist erforderlich"},
		{"missing name", `{"email":"anna@example.com","lastName":"Muster","company":"ACME"}`, http.StatusBadRequest, "Name ist erforderlich"},
		{"missing company", `{"email":"anna@example.com","firstName":"Anna","lastName":"Muster"}`, http.StatusBadRequest, "Unternehmen ist erforderlich"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			rec := env.do(t, http.MethodPost, "/api/mastermind-application", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
				assert.Empty(t, env.intake.seminars)
				return
			}
			assert.Equal(t, "sem-1", body["id"])
			require.Len(t, env.intake.seminars, 1)
			assert.Equal(t, "Skalierung", env.intake.seminars[0].CurrentChallenges)
			assert.Equal(t, "2025-09-12", env.intake.seminars[0].SeminarDate)
		})
	}
}

func TestSubmitSeminarApplication_StoreFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.intake.err = errors.New("db down")

	rec := env.do(t, http.MethodPost, "/api/mastermind-application",
		`{"email":"anna@example.com","firstName":"Anna","lastName":"Muster","company":"ACME"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, msgSaveApplicationFailed, decodeBody(t, rec)["error"])
}

// --- blog ---

func TestListArticles(t *testing.T) {
	env := newTestEnv(t, nil)
	env.blog.page = &models.ArticlePage{
		Articles:   []json.RawMessage{json.RawMessage(`{"id":"p1","title":"Hallo"}`)},
		Page:       2,
		Limit:      5,
		Total:      6,
		TotalPages: 2,
	}

	rec := env.do(t, http.MethodGet, "/api/blog/articles?status=all&page=2&limit=5&search=go", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []models.ArticleQuery{{Status: "all", Search: "go", Page: 2, Limit: 5}}, env.blog.queries)
	assert.JSONEq(t, `{
		"articles": [{"id":"p1","title":"Hallo"}],
		"pagination": {"page":2,"limit":5,"total":6,"totalPages":2}
	}`, rec.Body.String())
}

func TestListArticles_Defaults(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/blog/articles?page=abc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []models.ArticleQuery{{}}, env.blog.queries)
	assert.Equal(t, []any{}, decodeBody(t, rec)["articles"])
}

func TestListArticles_RejectsBadInput(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/blog/articles?status=pub%27lished", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Ungültiger Status", decodeBody(t, rec)["error"])

	rec = env.do(t, http.MethodGet, "/api/blog/articles?search="+strings.Repeat("a", 201), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Suchbegriff ist zu lang", decodeBody(t, rec)["error"])
	assert.Empty(t, env.blog.queries)
}

func TestListArticles_StoreFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.blog.err = &store.RequestError{Method: "GET", Table: "blog_posts", Status: 500, Body: "relation missing"}

	rec := env.do(t, http.MethodGet, "/api/blog/articles", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, msgArticlesFailed, decodeBody(t, rec)["error"])
	assert.NotContains(t, rec.Body.String(), "relation missing")
}

func TestSubmitApplication(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/lp-application",
		`{"firstName":"Anna","lastName":"Muster","email":"anna@example.com","program":"workshop"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Ungültige Programm-Auswahl", decodeBody(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/api/lp-application",
		`{"firstName":"Anna","lastName":"Muster","email":"anna@example.com","program":"beide","questionnaireAnswers":{"q1":"a"}}`,
		func(r *http.Request) {
			r.Header.Set("X-Session-Id", "sess-1")
			r.Header.Set("X-Utm-Source", "facebook")
			r.Header.Set("X-Utm-Medium", "cpc")
			r.Header.Set("X-Utm-Campaign", "sommer")
		})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "app-1", decodeBody(t, rec)["id"])

	require.Len(t, env.intake.attrs, 1)
	assert.Equal(t, models.Attribution{SessionID: "sess-1", UTMSource: "facebook", UTMMedium: "cpc", UTMCampaign: "sommer"}, env.intake.attrs[0])
	assert.Equal(t, map[string]string{"q1": "a"}, env.intake.apps[0].QuestionnaireAnswers)
}

func TestForwardWebhook(t *testing.T) {
	env := newTestEnv(t, nil)
	env.forwarder.err = errors.New("webhook inactive")

	rec := env.do(t, http.MethodPost, "/api/lp-webhook", `{"event":"scroll","depth":75}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["success"])
	assert.Equal(t, []string{`{"event":"scroll","depth":75}`}, env.forwarder.bodies)
	assert.Contains(t, env.log.String(), "MESSAGE=Webhook forward failed")

	rec = env.do(t, http.MethodPost, "/api/lp-webhook", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, msgInvalidRequest, body["error"])
}

func TestRecordPixelEvent(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/meta-pixel-event", `{"event_name":"Lead","event_id":"e1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgMissingPixelFields, decodeBody(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/api/meta-pixel-event", `{"event_name":"Lead","event_id":"e1","session_id":"s1","scroll_depth":50}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, decodeBody(t, rec), "warning")
	require.Len(t, env.intake.pixels, 1)
	require.NotNil(t, env.intake.pixels[0].ScrollDepth)
	assert.Equal(t, 50.0, *env.intake.pixels[0].ScrollDepth)

	env.intake.err = errors.New("insert failed")
	rec = env.do(t, http.MethodPost, "/api/meta-pixel-event", `{"event_name":"Lead","event_id":"e2","session_id":"s1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, msgPixelStoreFailed, body["warning"])

	rec = env.do(t, http.MethodGet, "/api/meta-pixel-event", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

// --- intern ---

func login(t *testing.T, env *testEnv) *http.Cookie {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/intern/login", `{"password":"`+internPassword+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == service.SessionCookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestInternLogin(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/intern/login", `{"password":"falsch"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, msgInvalidPassword, decodeBody(t, rec)["error"])
	assert.Empty(t, rec.Result().Cookies())

	rec = env.do(t, http.MethodPost, "/api/intern/login", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	cookie := login(t, env)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.NoError(t, env.sessions.Validate(cookie.Value))
}

func TestInternLogout(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rec := env.do(t, method, "/api/intern/logout", "")
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, internLandingPath, rec.Header().Get("Location"))
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, service.SessionCookieName, cookies[0].Name)
		assert.Negative(t, cookies[0].MaxAge)
	}
}

func TestReconciliations(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, env.ledger.SaveReconciliation(ctx, &models.Reconciliation{
		ID:            "rec-1",
		ApplicationID: "app-1",
		EventID:       "evt-1",
		AppointmentAt: time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC),
		Reason:        "record store PATCH returned status 500",
	}))

	rec := env.do(t, http.MethodGet, "/api/intern/reconciliations", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cookie := login(t, env)
	withCookie := func(r *http.Request) { r.AddCookie(cookie) }

	rec = env.do(t, http.MethodGet, "/api/intern/reconciliations", "", withCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decodeBody(t, rec)["reconciliations"].([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, "evt-1", entries[0].(map[string]any)["event_id"])

	rec = env.do(t, http.MethodPost, "/api/intern/reconciliations/unknown/resolve", "", withCookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/intern/reconciliations/rec-1/resolve", "", withCookie)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/intern/reconciliations", "", withCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody(t, rec)["reconciliations"])
}

// --- rate limiting ---

func TestWriteEndpointsAreRateLimited(t *testing.T) {
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{Rate: 0.5, Burst: 1, CleanupInterval: time.Minute}, logger.NewWithWriter(&bytes.Buffer{}))
	defer limiter.Stop()
	env := newTestEnv(t, limiter)

	lead := `{"name":"Anna","email":"anna@example.com"}`
	assert.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/leads", lead).Code)
	assert.Equal(t, http.StatusTooManyRequests, env.do(t, http.MethodPost, "/api/leads", lead).Code)

	// Reads are not limited.
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/available-slots", "").Code)
}
