package kvstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite for persistence.
type SQLiteStore struct {
	db       *sql.DB
	basePath string
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (and if needed creates) the config database under
// basePath. Pass ":memory:" for an ephemeral store in tests.
func NewSQLiteStore(basePath string) (*SQLiteStore, error) {
	var dbPath string
	if basePath == ":memory:" {
		dbPath = ":memory:"
	} else {
		dbPath = filepath.Join(basePath, "config.db")

		if err := os.MkdirAll(basePath, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each pool connection gets its own in-memory database, so the
		// schema only exists on the connection that ran initSchema.
		db.SetMaxOpenConns(1)
	}

	store := &SQLiteStore{db: db, basePath: basePath}

	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		key TEXT NOT NULL UNIQUE,
		value TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_key ON entries(key);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AllKeys returns every key in lexicographic order.
func (s *SQLiteStore) AllKeys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM entries ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// EntriesFor returns the entries for one (version, implementation) pair.
// The LIKE pattern over-matches keys with nested segments, so each candidate
// is re-checked against the three-segment decode before inclusion.
func (s *SQLiteStore) EntriesFor(ctx context.Context, version, implementation string) ([]Entry, error) {
	pattern := version + ".%." + implementation
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, key, value, created_at, updated_at FROM entries WHERE key LIKE ? ORDER BY key`,
		pattern)
	if err != nil {
		return nil, fmt.Errorf("query entries for %s/%s: %w", version, implementation, err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		pk, ok := DecodeKey(e.Key)
		if !ok || pk.Version != version || pk.Implementation != implementation {
			continue
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Text returns value.text for the given key, ok=false when the key is absent
// or its value has no text field.
func (s *SQLiteStore) Text(ctx context.Context, fullKey string) (string, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM entries WHERE key = ?`, fullKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get text for %s: %w", fullKey, err)
	}

	var value struct {
		Text *string `json:"text"`
	}
	if err := json.Unmarshal([]byte(raw), &value); err != nil || value.Text == nil {
		// Value is bare JSON (a list, a number) rather than a text entry.
		return "", false, nil
	}
	return *value.Text, true, nil
}

// EntryByKey returns the entry stored under a key.
func (s *SQLiteStore) EntryByKey(ctx context.Context, key string) (Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, key, value, created_at, updated_at FROM entries WHERE key = ?`, key)
	if err != nil {
		return Entry{}, fmt.Errorf("get entry %s: %w", key, err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Entry{}, fmt.Errorf("get entry %s: %w", key, err)
		}
		return Entry{}, fmt.Errorf("get entry %s: %w", key, ErrNotFound)
	}
	return scanEntry(rows)
}

// CreateEntry inserts a new entry with a generated id.
func (s *SQLiteStore) CreateEntry(ctx context.Context, key string, value json.RawMessage) (Entry, error) {
	e := Entry{
		ID:        uuid.New().String(),
		Key:       key,
		Value:     value,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (id, key, value, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Key, string(e.Value), e.CreatedAt.Format(time.RFC3339Nano), e.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		if isUniqueViolation(err) {
			return Entry{}, fmt.Errorf("create %s: %w", key, ErrDuplicateKey)
		}
		return Entry{}, fmt.Errorf("create %s: %w", key, err)
	}
	return e, nil
}

// UpdateValue replaces an entry's value and bumps updated_at.
func (s *SQLiteStore) UpdateValue(ctx context.Context, id string, value json.RawMessage) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE entries SET value = ?, updated_at = ? WHERE id = ?`,
		string(value), time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("update value: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update value: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update value %s: %w", id, ErrNotFound)
	}
	return nil
}

// RenameKey updates the key on the existing row. The id and created_at are
// preserved, so there is no window where the entry does not exist.
func (s *SQLiteStore) RenameKey(ctx context.Context, id string, newKey string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE entries SET key = ?, updated_at = ? WHERE id = ?`,
		newKey, time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("rename to %s: %w", newKey, ErrDuplicateKey)
		}
		return fmt.Errorf("rename key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rename key: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("rename key %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteEntry removes an entry by id.
func (s *SQLiteStore) DeleteEntry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete entry %s: %w", id, ErrNotFound)
	}
	return nil
}

// CreateImplementation bulk-copies one implementation's entries under a new
// implementation name inside a single transaction, so a duplicate target key
// leaves no partial copy behind.
func (s *SQLiteStore) CreateImplementation(ctx context.Context, version, sourceImpl, newImpl string) (int, error) {
	source, err := s.EntriesFor(ctx, version, sourceImpl)
	if err != nil {
		return 0, err
	}
	if len(source) == 0 {
		return 0, fmt.Errorf("copy %s/%s: %w", version, sourceImpl, ErrNoSourceEntries)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin copy: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, e := range source {
		pk, ok := DecodeKey(e.Key)
		if !ok {
			continue
		}
		newKey := EncodeKey(pk.Version, pk.KeyName, newImpl)
		_, err := tx.ExecContext(ctx,
			`INSERT INTO entries (id, key, value, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			uuid.New().String(), newKey, string(e.Value), now, now)
		if err != nil {
			if isUniqueViolation(err) {
				return 0, fmt.Errorf("copy to %s: %w", newKey, ErrDuplicateKey)
			}
			return 0, fmt.Errorf("copy to %s: %w", newKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit copy: %w", err)
	}
	return len(source), nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var e Entry
	var value, createdAt, updatedAt string
	if err := rows.Scan(&e.ID, &e.Key, &value, &createdAt, &updatedAt); err != nil {
		return Entry{}, fmt.Errorf("scan entry: %w", err)
	}
	e.Value = json.RawMessage(value)
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return e, nil
}

// isUniqueViolation detects sqlite UNIQUE constraint failures. The modernc
// driver surfaces them as plain errors, so match on the message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
