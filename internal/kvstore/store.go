// Package kvstore persists the versioned prompt/model configuration that
// every experiment reads from. Keys are flat strings of the form
// version.keyName.implementation; values are arbitrary JSON, conventionally
// {"text": "..."} for template entries.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when an entry id does not exist.
	ErrNotFound = errors.New("entry not found")
	// ErrDuplicateKey is returned when a create or rename would violate key
	// uniqueness.
	ErrDuplicateKey = errors.New("key already exists")
	// ErrNoSourceEntries is returned by CreateImplementation when the source
	// implementation has no entries to copy.
	ErrNoSourceEntries = errors.New("no entries found for source implementation")
)

// Entry is one stored configuration row.
type Entry struct {
	ID        string          `json:"id"`
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Store defines the configuration store contract. Orchestrators and handlers
// take it as a dependency so tests can substitute doubles.
type Store interface {
	// AllKeys returns every key, lexicographically sorted. The store holds
	// configuration, not user data, so a full scan stays cheap.
	AllKeys(ctx context.Context) ([]string, error)

	// EntriesFor returns the entries whose key has exactly three segments
	// with segment[0] == version and segment[2] == implementation. Keys with
	// more segments never match, even when they share prefix and suffix.
	EntriesFor(ctx context.Context, version, implementation string) ([]Entry, error)

	// Text returns value.text for the given key. ok is false when the key is
	// absent or its value carries no text field; absence is a normal outcome
	// and callers fall back to hardcoded defaults.
	Text(ctx context.Context, fullKey string) (text string, ok bool, err error)

	// EntryByKey returns the entry stored under a key. Fails with
	// ErrNotFound.
	EntryByKey(ctx context.Context, key string) (Entry, error)

	// CreateEntry inserts a new entry. Fails with ErrDuplicateKey when the
	// key is taken.
	CreateEntry(ctx context.Context, key string, value json.RawMessage) (Entry, error)

	// UpdateValue replaces an entry's value and bumps updated_at. Fails with
	// ErrNotFound when the id does not exist.
	UpdateValue(ctx context.Context, id string, value json.RawMessage) error

	// RenameKey changes an entry's key in place, preserving id and
	// created_at. Fails with ErrNotFound or ErrDuplicateKey.
	RenameKey(ctx context.Context, id string, newKey string) error

	// DeleteEntry removes an entry. Fails with ErrNotFound.
	DeleteEntry(ctx context.Context, id string) error

	// CreateImplementation copies every version.<keyName>.<sourceImpl> entry
	// to version.<keyName>.<newImpl> in one transaction. The copies are
	// independent rows; later edits to either side never affect the other.
	// Returns the number of entries copied.
	CreateImplementation(ctx context.Context, version, sourceImpl, newImpl string) (int, error)

	// Close releases the underlying database handle.
	Close() error
}

// TextValue builds the conventional {"text": ...} value for template and
// scalar entries.
func TextValue(text string) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"text": text})
	return b
}
