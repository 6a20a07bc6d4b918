package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synclaro/website-api/internal/logger"
)

func newTestNotifier(t *testing.T, handler http.HandlerFunc) *WebhookNotifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	n := NewWebhookNotifier(logger.NewWithWriter(&bytes.Buffer{}), srv.URL+"/hook", srv.Client())
	n.now = func() time.Time { return time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC) }
	return n
}

func TestWebhookNotifier_Notify(t *testing.T) {
	var got map[string]any
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/hook", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	})

	err := n.Notify(context.Background(), EventApplicationSubmitted, map[string]any{
		"application_id": "app-1",
		"email":          "anna@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "application_submitted", got["event_type"])
	assert.Equal(t, "2025-06-02T08:00:00Z", got["timestamp"])
	assert.Equal(t, "app-1", got["application_id"])
	assert.Equal(t, "anna@example.com", got["email"])
}

func TestWebhookNotifier_Forward(t *testing.T) {
	var raw []byte
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ = io.ReadAll(r.Body)
	})

	body := json.RawMessage(`{"step":3,"answers":{"a":"b"}}`)
	require.NoError(t, n.Forward(context.Background(), body))
	assert.JSONEq(t, string(body), string(raw))
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := n.Notify(context.Background(), EventAppointmentBooked, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook returned status 404")
}

func TestWebhookNotifier_DisabledIsNoop(t *testing.T) {
	n := NewWebhookNotifier(logger.NewWithWriter(&bytes.Buffer{}), "", nil)
	assert.False(t, n.Enabled())
	assert.NoError(t, n.Notify(context.Background(), EventAppointmentBooked, map[string]any{"x": 1}))

	var nilNotifier *WebhookNotifier
	assert.False(t, nilNotifier.Enabled())
}

func TestNewSafeHTTPClient_BlocksLoopback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach a loopback address")
	}))
	defer srv.Close()

	n := NewWebhookNotifier(logger.NewWithWriter(&bytes.Buffer{}), srv.URL, NewSafeHTTPClient(2*time.Second))
	err := n.Notify(context.Background(), EventAppointmentBooked, nil)
	assert.Error(t, err)
}
