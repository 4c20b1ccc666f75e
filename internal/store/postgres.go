// Package store is the remote document collection for container records,
// kept in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"containerboard/api/internal/persist"
	"containerboard/api/internal/tracker"
	"containerboard/api/internal/util"
)

// KeyMode picks how documents in a collection are keyed.
type KeyMode string

const (
	// KeyByContainer uses the container number as document id. Records
	// sharing a number overwrite each other, last write wins.
	KeyByContainer KeyMode = "container"
	// KeyGenerated assigns a fresh opaque id to every document written.
	KeyGenerated KeyMode = "generated"
)

// ParseKeyMode validates a configured key mode. Empty means KeyByContainer.
func ParseKeyMode(value string) (KeyMode, error) {
	switch KeyMode(value) {
	case "", KeyByContainer:
		return KeyByContainer, nil
	case KeyGenerated:
		return KeyGenerated, nil
	default:
		return "", fmt.Errorf("unknown key mode %q", value)
	}
}

// PostgresStore holds one row per document in container_documents, grouped
// by collection path.
type PostgresStore struct {
	db      *sql.DB
	keyMode KeyMode
}

var _ persist.Store = (*PostgresStore)(nil)

func NewPostgresStore(db *sql.DB, keyMode KeyMode) *PostgresStore {
	if keyMode == "" {
		keyMode = KeyByContainer
	}
	return &PostgresStore{db: db, keyMode: keyMode}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Name() string {
	return "postgres"
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Load returns the collection's documents in the order they were written.
func (s *PostgresStore) Load(ctx context.Context, scope persist.Scope) ([]tracker.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload
		FROM container_documents
		WHERE collection = $1
		ORDER BY position, doc_id
	`, scope.CollectionPath())
	if err != nil {
		return nil, fmt.Errorf("list container documents: %w", err)
	}
	defer rows.Close()

	items := make([]tracker.Record, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan container document: %w", err)
		}
		var item tracker.Record
		if err := json.Unmarshal(payload, &item); err != nil {
			return nil, fmt.Errorf("decode container document: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate container documents: %w", err)
	}
	return items, nil
}

// ReplaceAll reads the ids currently in the collection, then deletes them
// and writes records in a single transaction. The read happens outside the
// transaction, so a concurrent writer's documents inserted in between
// survive the delete.
func (s *PostgresStore) ReplaceAll(ctx context.Context, scope persist.Scope, records []tracker.Record) error {
	collection := scope.CollectionPath()
	existing, err := s.documentIDs(ctx, collection)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range existing {
		if _, err := tx.ExecContext(ctx, `DELETE FROM container_documents WHERE collection=$1 AND doc_id=$2`, collection, id); err != nil {
			return fmt.Errorf("delete container document %s: %w", id, err)
		}
	}

	for position, record := range records {
		payload, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode container document: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO container_documents (collection, doc_id, position, payload)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (collection, doc_id) DO UPDATE
			SET position=EXCLUDED.position, payload=EXCLUDED.payload, updated_at=NOW()
		`, collection, s.documentID(record), position, string(payload)); err != nil {
			return fmt.Errorf("insert container document: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) documentIDs(ctx context.Context, collection string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc_id FROM container_documents WHERE collection=$1`, collection)
	if err != nil {
		return nil, fmt.Errorf("list container document ids: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan container document id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate container document ids: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) documentID(record tracker.Record) string {
	if s.keyMode == KeyGenerated {
		return util.NewID("ctr")
	}
	return record.ContainerNumber
}
