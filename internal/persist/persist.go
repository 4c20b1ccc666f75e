// Package persist mirrors the in-memory container collection to durable
// storage using full-replace writes.
package persist

import (
	"context"
	"fmt"

	"containerboard/api/internal/tracker"
)

// Store is a durable home for one collection of records per scope.
// ReplaceAll leaves the store holding exactly records for that scope.
type Store interface {
	Name() string
	Load(ctx context.Context, scope Scope) ([]tracker.Record, error)
	ReplaceAll(ctx context.Context, scope Scope, records []tracker.Record) error
}

// Pinger is implemented by stores that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Scope names the collection a session reads and writes. With PerUser unset
// every identity shares the global collection.
type Scope struct {
	UserID  string
	PerUser bool
}

// NewScope returns the scope of userID under the configured namespacing.
func NewScope(userID string, perUser bool) Scope {
	return Scope{UserID: userID, PerUser: perUser}
}

// CollectionPath is the remote document collection of the scope.
func (s Scope) CollectionPath() string {
	if s.PerUser && s.UserID != "" {
		return fmt.Sprintf("users/%s/containers", s.UserID)
	}
	return "containers"
}

// BlobKey is the key of the serialized collection in a key-value store.
func (s Scope) BlobKey() string {
	if s.PerUser && s.UserID != "" {
		return "containers_" + s.UserID
	}
	return "containers"
}

// PersistenceError wraps a failed write or read against one store.
type PersistenceError struct {
	Store string
	Op    string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Store, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// LoadError reports that no store could supply a snapshot. The session
// continues with an empty collection.
type LoadError struct {
	Errs []error
}

func (e *LoadError) Error() string {
	if len(e.Errs) == 1 {
		return fmt.Sprintf("load containers: %v", e.Errs[0])
	}
	return fmt.Sprintf("load containers: %d stores failed: %v", len(e.Errs), e.Errs)
}

func (e *LoadError) Unwrap() []error {
	return e.Errs
}
