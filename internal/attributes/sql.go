package attributes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const attributesSchema = `
CREATE TABLE IF NOT EXISTS generic_attributes (
	entity_kind TEXT NOT NULL,
	entity_id   BIGINT NOT NULL,
	attr_key    TEXT NOT NULL,
	store_id    INTEGER NOT NULL DEFAULT 0,
	value       TEXT NOT NULL,
	PRIMARY KEY (entity_kind, entity_id, attr_key, store_id)
)`

// SQLStore persists attributes through database/sql. The statements run
// unchanged on postgres (lib/pq) and sqlite3.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, attributesSchema); err != nil {
		return fmt.Errorf("creating generic_attributes: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, entity Entity, key string, storeID int) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM generic_attributes
		 WHERE entity_kind = $1 AND entity_id = $2 AND attr_key = $3 AND store_id = $4`,
		entity.Kind, entity.ID, key, storeID).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading attribute %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, entity Entity, key, value string, storeID int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generic_attributes (entity_kind, entity_id, attr_key, store_id, value)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (entity_kind, entity_id, attr_key, store_id) DO UPDATE SET value = excluded.value`,
		entity.Kind, entity.ID, key, storeID, value)
	if err != nil {
		return fmt.Errorf("writing attribute %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) ListByKey(ctx context.Context, key, entityKind string) ([]Attribute, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_id, store_id, value FROM generic_attributes
		 WHERE attr_key = $1 AND entity_kind = $2
		 ORDER BY entity_id, store_id`,
		key, entityKind)
	if err != nil {
		return nil, fmt.Errorf("listing attribute %s: %w", key, err)
	}
	defer rows.Close()

	var out []Attribute
	for rows.Next() {
		var a Attribute
		if err := rows.Scan(&a.EntityID, &a.StoreID, &a.Value); err != nil {
			return nil, fmt.Errorf("scanning attribute %s: %w", key, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
