package audit

import (
	"context"
	"database/sql"
)

// SQLRepo appends events to the audit_events table. It has no update or delete path.
type SQLRepo struct {
	db *sql.DB
}

func NewSQLRepo(db *sql.DB) *SQLRepo { return &SQLRepo{db: db} }

func (r *SQLRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (
	id, owner_user_id, type, actor_user_id, actor_email, actor_role,
	agent_row_id, agent_id, batch_job_id, message, metadata, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		e.OwnerUserID,
		string(e.Type),
		nullInt(e.ActorUserID),
		e.ActorEmail,
		e.ActorRole,
		nullInt(e.AgentRowID),
		e.AgentID,
		e.BatchJobID,
		e.Message,
		nullJSON(e.Metadata),
		e.CreatedAt,
	)
	return err
}

func nullInt(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func nullJSON(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
