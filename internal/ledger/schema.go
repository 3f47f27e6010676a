package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

// schemaVersion is bumped whenever schema.sql changes shape. The store
// refuses to open databases written by a newer build.
const schemaVersion = 1

//go:embed schema.sql
var schemaSQL string

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	var current sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT version FROM schema_version LIMIT 1`).Scan(&current)
	switch {
	case err == sql.ErrNoRows:
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	}

	if current.Int64 > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", current.Int64, schemaVersion)
	}
	if current.Int64 < schemaVersion {
		if _, err := s.db.ExecContext(ctx, `UPDATE schema_version SET version = ?`, schemaVersion); err != nil {
			return fmt.Errorf("update schema version: %w", err)
		}
	}
	return nil
}
