package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/synclaro/website-api/internal/models"
	_ "modernc.org/sqlite"
)

// ErrReconciliationNotFound is returned when resolving an unknown entry.
var ErrReconciliationNotFound = errors.New("reconciliation not found")

// SQLiteStore is the local reconciliation ledger.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dbPath, err := resolveDBPath(path)
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, errors.Join(err, cerr)
		}
		return nil, err
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func resolveDBPath(path string) (string, error) {
	abs := filepath.Clean(path)
	if strings.HasSuffix(abs, ".db") {
		if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
			return "", err
		}
		return abs, nil
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return "", err
	}
	return filepath.Join(abs, "ledger.db"), nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS reconciliations (
			id TEXT PRIMARY KEY,
			application_id TEXT NOT NULL,
			event_id TEXT NOT NULL,
			created_at TEXT NOT NULL,
			resolved_at TEXT,
			data BLOB NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_reconciliations_open ON reconciliations(resolved_at, created_at);",
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveReconciliation inserts or replaces an entry.
func (s *SQLiteStore) SaveReconciliation(ctx context.Context, r *models.Reconciliation) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	var resolved any
	if r.ResolvedAt != nil {
		resolved = r.ResolvedAt.UTC().Format(time.RFC3339Nano)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO reconciliations (id, application_id, event_id, created_at, resolved_at, data)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET application_id=excluded.application_id, event_id=excluded.event_id, resolved_at=excluded.resolved_at, data=excluded.data`,
		r.ID, r.ApplicationID, r.EventID, r.CreatedAt.UTC().Format(time.RFC3339Nano), resolved, data)
	return err
}

// ListOpenReconciliations returns unresolved entries, oldest first.
func (s *SQLiteStore) ListOpenReconciliations(ctx context.Context) ([]*models.Reconciliation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM reconciliations WHERE resolved_at IS NULL ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []*models.Reconciliation
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var r models.Reconciliation
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		entries = append(entries, &r)
	}
	return entries, rows.Err()
}

// ResolveReconciliation marks an entry as handled.
func (s *SQLiteStore) ResolveReconciliation(ctx context.Context, id string) error {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM reconciliations WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrReconciliationNotFound
	}
	if err != nil {
		return err
	}
	var r models.Reconciliation
	if err := json.Unmarshal(raw, &r); err != nil {
		return err
	}
	resolved := s.now().UTC()
	r.ResolvedAt = &resolved
	return s.SaveReconciliation(ctx, &r)
}
