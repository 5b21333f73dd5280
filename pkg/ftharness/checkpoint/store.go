// Package checkpoint provides durable single-slot progress storage for crash
// recovery and replica takeover.
//
// A store holds exactly one Record: the most recent one. There is no history
// and no versioning. Stores are shared between cooperating processes (a
// primary and a replica of the same job) and provide no mutual exclusion
// between them; at most one process may write at a time.
package checkpoint

import (
	"errors"
	"fmt"
	"strings"
)

// Store persists the progress record of a job.
type Store interface {
	// Load returns the stored record.
	// Returns ErrNotFound if nothing has been saved yet, and an error
	// wrapping ErrCorruptRecord if the stored form cannot be parsed.
	Load() (Record, error)

	// Save overwrites the stored record. A concurrent or subsequent Load
	// never observes a partially written record.
	Save(rec Record) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for checkpoint operations.
var (
	// ErrNotFound indicates no record has been saved.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrCorruptRecord indicates the stored record cannot be parsed.
	ErrCorruptRecord = errors.New("corrupt checkpoint record")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("checkpoint store closed")

	// ErrUnknownBackend indicates Open was given an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown checkpoint backend")
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// DefaultKey is the key used by keyed backends when none is given.
const DefaultKey = "checkpoint"

// Open creates a store for the named backend.
//
// location is a file path for "file" and "sqlite", a directory for "badger",
// and ignored for "memory". key selects the slot inside keyed backends
// (sqlite, badger) so several jobs can share one database.
func Open(backend, location, key string) (Store, error) {
	if key == "" {
		key = DefaultKey
	}
	switch strings.ToLower(backend) {
	case BackendFile, "":
		return NewFileStore(location), nil
	case BackendSQLite:
		return NewSQLiteStore(location, key)
	case BackendBadger:
		return NewBadgerStore(BadgerConfig{Path: location, SyncWrites: true}, key)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
