package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"replybot/internal/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	// entropy is not safe for concurrent use; idMu guards it since
	// interactions are recorded from concurrent requests.
	idMu    sync.Mutex
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite allows one writer at a time; a single pooled connection avoids
	// SQLITE_BUSY errors under concurrent webhook requests.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Debug().Str("path", dbPath).Msg("user store ready")
	return s, nil
}

func (s *SQLiteStore) newID() string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		identity    TEXT PRIMARY KEY,
		memory      TEXT NOT NULL DEFAULT '{}',
		crm_fields  TEXT NOT NULL DEFAULT '{}',
		reply_rules TEXT NOT NULL DEFAULT '{}',
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS interactions (
		id         TEXT PRIMARY KEY,
		identity   TEXT NOT NULL,
		inbound    TEXT NOT NULL,
		response   TEXT NOT NULL,
		handler    TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_interactions_identity ON interactions(identity, id DESC);
	CREATE INDEX IF NOT EXISTS idx_interactions_handler ON interactions(handler);
	`
	_, err := s.db.Exec(schema)
	return err
}

const selectUser = `SELECT identity, memory, crm_fields, reply_rules, created_at, updated_at FROM users`

// GetOrCreate returns the record for identity, inserting an empty one when
// none exists. Insert and read happen in one transaction so two concurrent
// first contacts resolve to a single row.
func (s *SQLiteStore) GetOrCreate(ctx context.Context, identity string) (*model.UserRecord, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (identity, memory, crm_fields, reply_rules, created_at, updated_at)
		 VALUES (?, '{}', '{}', '{}', ?, ?)`, identity, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	rec, err := scanUser(tx.QueryRowContext(ctx, selectUser+` WHERE identity = ?`, identity))
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return rec, nil
}

// Get returns the record for identity, or nil when the identity is unknown.
func (s *SQLiteStore) Get(ctx context.Context, identity string) (*model.UserRecord, error) {
	rec, err := scanUser(s.db.QueryRowContext(ctx, selectUser+` WHERE identity = ?`, identity))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return rec, nil
}

// Save persists the record's three maps and refreshes UpdatedAt. A single
// row UPDATE keeps the write atomic per record.
func (s *SQLiteStore) Save(ctx context.Context, rec *model.UserRecord) error {
	memoryJSON, err := mapJSON(rec.Memory)
	if err != nil {
		return fmt.Errorf("encode memory: %w", err)
	}
	crmJSON, err := mapJSON(rec.CRMFields)
	if err != nil {
		return fmt.Errorf("encode crm fields: %w", err)
	}
	rulesJSON, err := mapJSON(rec.ReplyRules)
	if err != nil {
		return fmt.Errorf("encode reply rules: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET memory = ?, crm_fields = ?, reply_rules = ?, updated_at = ? WHERE identity = ?`,
		memoryJSON, crmJSON, rulesJSON, now.Format(time.RFC3339Nano), rec.Identity)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %q not found", rec.Identity)
	}
	rec.UpdatedAt = now
	return nil
}

// Close closes the store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*model.UserRecord, error) {
	var rec model.UserRecord
	var memoryJSON, crmJSON, rulesJSON, createdAt, updatedAt string
	if err := row.Scan(&rec.Identity, &memoryJSON, &crmJSON, &rulesJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(memoryJSON), &rec.Memory); err != nil {
		return nil, fmt.Errorf("decode memory: %w", err)
	}
	if err := json.Unmarshal([]byte(crmJSON), &rec.CRMFields); err != nil {
		return nil, fmt.Errorf("decode crm fields: %w", err)
	}
	if err := json.Unmarshal([]byte(rulesJSON), &rec.ReplyRules); err != nil {
		return nil, fmt.Errorf("decode reply rules: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &rec, nil
}

// mapJSON marshals a map, encoding nil as the empty object so the NOT NULL
// columns never see "null".
func mapJSON(v interface{}) (string, error) {
	switch m := v.(type) {
	case map[string]string:
		if m == nil {
			return "{}", nil
		}
	case map[string]model.ReplyRule:
		if m == nil {
			return "{}", nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
