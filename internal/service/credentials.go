package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/synclaro/website-api/internal/logger"
	"github.com/synclaro/website-api/internal/models"
	"github.com/synclaro/website-api/internal/store"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	credentialsTable      = "calendar_credentials"
	defaultCredentialUser = "default"
	refreshMargin         = 5 * time.Minute
	fallbackTokenLifetime = time.Hour
)

type credentialRow struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiryDate   int64  `json:"expiry_date"`
}

type credentialPatch struct {
	AccessToken string `json:"access_token"`
	ExpiryDate  int64  `json:"expiry_date"`
	UpdatedAt   string `json:"updated_at"`
}

// CredentialManager hands out a usable access token for the calendar owner,
// refreshing and persisting it when it is about to expire.
type CredentialManager struct {
	logger       *logger.Logger
	records      store.Records
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client
	now          func() time.Time
}

// NewCredentialManager creates a manager reading credentials from records.
// An empty tokenURL uses Google's token endpoint; a nil httpClient uses the
// default client.
func NewCredentialManager(log *logger.Logger, records store.Records, clientID, clientSecret, tokenURL string, httpClient *http.Client) *CredentialManager {
	if tokenURL == "" {
		tokenURL = google.Endpoint.TokenURL
	}
	return &CredentialManager{
		logger:       log,
		records:      records,
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     tokenURL,
		httpClient:   httpClient,
		now:          time.Now,
	}
}

// GetValidCredentials loads the stored credential and refreshes it when it
// expires within five minutes. Concurrent refreshes are last-write-wins.
func (m *CredentialManager) GetValidCredentials(ctx context.Context) (*models.CalendarCredentials, error) {
	if m.clientID == "" {
		return nil, &models.ConfigurationError{Setting: "GOOGLE_CLIENT_ID"}
	}
	if m.clientSecret == "" {
		return nil, &models.ConfigurationError{Setting: "GOOGLE_CLIENT_SECRET"}
	}

	var rows []credentialRow
	if err := m.records.Select(ctx, credentialsTable, store.Eq("user_id", defaultCredentialUser), 1, &rows); err != nil {
		return nil, fmt.Errorf("failed to load calendar credentials: %w", err)
	}
	if len(rows) == 0 {
		return nil, &models.CredentialsNotFoundError{}
	}

	creds := &models.CalendarCredentials{
		AccessToken:  rows[0].AccessToken,
		RefreshToken: rows[0].RefreshToken,
		Expiry:       time.UnixMilli(rows[0].ExpiryDate),
	}

	if creds.Expiry.After(m.now().Add(refreshMargin)) {
		return creds, nil
	}
	return m.refresh(ctx, creds)
}

func (m *CredentialManager) refresh(ctx context.Context, creds *models.CalendarCredentials) (*models.CalendarCredentials, error) {
	m.logger.Info("Refreshing calendar access token", logger.Action("token_refresh"))

	conf := &oauth2.Config{
		ClientID:     m.clientID,
		ClientSecret: m.clientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  m.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	if m.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	}

	tok, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken}).Token()
	if err != nil {
		return nil, &models.UpstreamAuthError{Err: err}
	}

	now := m.now()
	expiry := now.Add(fallbackTokenLifetime)
	switch {
	case tok.ExpiresIn > 0:
		expiry = now.Add(time.Duration(tok.ExpiresIn) * time.Second)
	case !tok.Expiry.IsZero():
		expiry = tok.Expiry
	}

	refreshed := &models.CalendarCredentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: creds.RefreshToken,
		Expiry:       expiry,
	}

	patch := credentialPatch{
		AccessToken: refreshed.AccessToken,
		ExpiryDate:  expiry.UnixMilli(),
		UpdatedAt:   now.UTC().Format(time.RFC3339),
	}
	if err := m.records.Patch(ctx, credentialsTable, store.Eq("user_id", defaultCredentialUser), patch, store.WriteOptions{}, nil); err != nil {
		m.logger.Warn("Failed to persist refreshed access token",
			logger.Action("token_refresh"),
			logger.Table(credentialsTable),
			logger.Error(err),
		)
	}

	return refreshed, nil
}
