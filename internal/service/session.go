package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	SessionCookieName = "intern_session"
	SessionTTL        = 24 * time.Hour
	sessionSubject    = "intern"
)

// ErrInvalidSession is returned for missing, forged or expired session tokens.
var ErrInvalidSession = errors.New("invalid intern session")

// SessionManager checks the shared intern password and issues signed
// session tokens for the intern area.
type SessionManager struct {
	passwordHash []byte
	secret       []byte
	now          func() time.Time
}

func NewSessionManager(passwordHash, secret string) *SessionManager {
	return &SessionManager{
		passwordHash: []byte(passwordHash),
		secret:       []byte(secret),
		now:          time.Now,
	}
}

// CheckPassword compares password against the configured bcrypt hash. It
// always fails when no hash is configured.
func (m *SessionManager) CheckPassword(password string) bool {
	if len(m.passwordHash) == 0 || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(m.passwordHash, []byte(password)) == nil
}

// Issue creates a signed token valid for SessionTTL.
func (m *SessionManager) Issue() (string, time.Time, error) {
	now := m.now()
	expires := now.Add(SessionTTL)
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   sessionSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, expires, nil
}

// Validate verifies signature, algorithm, subject and expiry of token.
func (m *SessionManager) Validate(token string) error {
	if token == "" {
		return ErrInvalidSession
	}
	_, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(sessionSubject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	return nil
}
