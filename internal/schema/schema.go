// Package schema bootstraps the Postgres tables used by the API.
package schema

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"speakai-platform/pkg/utils"
)

//go:embed schema.sql
var ddl string

// lockKey serializes bootstrap across replicas starting together.
const lockKey = 7_340_211

// DDL returns the bootstrap script.
func DDL() string { return ddl }

// EnsureSchema creates missing tables, indexes and triggers. It is safe to run on every start.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	return utils.WithTx(ctx, db, nil, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, lockKey); err != nil {
			return fmt.Errorf("schema lock: %w", err)
		}
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("schema bootstrap: %w", err)
		}
		return nil
	})
}
