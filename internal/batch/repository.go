package batch

import (
	"context"
	"database/sql"
	"errors"
)

var ErrNotFound = errors.New("batch: not found")

// Repository is the persistence contract for batch job rows.
type Repository interface {
	Create(ctx context.Context, j Job) (Job, error)
	// LatestByCallName returns the most recently created job with callName owned by userID.
	LatestByCallName(ctx context.Context, userID int64, callName string) (Job, error)
	// LatestByCallNameAnyOwner ignores ownership.
	LatestByCallNameAnyOwner(ctx context.Context, callName string) (Job, error)
	UpdateStatus(ctx context.Context, id int64, status Status) (Job, error)
	ListByUser(ctx context.Context, userID int64) ([]Job, error)
	ListAll(ctx context.Context) ([]Job, error)
}

type SQLRepo struct {
	db *sql.DB
}

func NewSQLRepo(db *sql.DB) *SQLRepo { return &SQLRepo{db: db} }

const jobColumns = `id, user_id, agent_id, batch_job_id, call_name, total_numbers, scheduled_time, status, created_at, updated_at`

func (r *SQLRepo) Create(ctx context.Context, j Job) (Job, error) {
	const q = `
INSERT INTO batch_calls (user_id, agent_id, batch_job_id, call_name, total_numbers, scheduled_time, status)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + jobColumns
	return scanJob(r.db.QueryRowContext(ctx, q,
		j.UserID, j.AgentID, j.BatchJobID, j.CallName, j.TotalNumbers, j.ScheduledTime, string(j.Status),
	))
}

func (r *SQLRepo) LatestByCallName(ctx context.Context, userID int64, callName string) (Job, error) {
	const q = `SELECT ` + jobColumns + ` FROM batch_calls
WHERE user_id = $1 AND call_name = $2
ORDER BY created_at DESC, id DESC LIMIT 1`
	return scanJob(r.db.QueryRowContext(ctx, q, userID, callName))
}

func (r *SQLRepo) LatestByCallNameAnyOwner(ctx context.Context, callName string) (Job, error) {
	const q = `SELECT ` + jobColumns + ` FROM batch_calls
WHERE call_name = $1
ORDER BY created_at DESC, id DESC LIMIT 1`
	return scanJob(r.db.QueryRowContext(ctx, q, callName))
}

func (r *SQLRepo) UpdateStatus(ctx context.Context, id int64, status Status) (Job, error) {
	const q = `UPDATE batch_calls SET status = $2 WHERE id = $1 RETURNING ` + jobColumns
	return scanJob(r.db.QueryRowContext(ctx, q, id, string(status)))
}

func (r *SQLRepo) ListByUser(ctx context.Context, userID int64) ([]Job, error) {
	const q = `SELECT ` + jobColumns + ` FROM batch_calls WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, q, userID)
}

func (r *SQLRepo) ListAll(ctx context.Context) ([]Job, error) {
	const q = `SELECT ` + jobColumns + ` FROM batch_calls ORDER BY created_at DESC, id DESC`
	return r.list(ctx, q)
}

func (r *SQLRepo) list(ctx context.Context, q string, args ...any) ([]Job, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var (
		j      Job
		status string
		sched  sql.NullTime
	)
	if err := row.Scan(
		&j.ID,
		&j.UserID,
		&j.AgentID,
		&j.BatchJobID,
		&j.CallName,
		&j.TotalNumbers,
		&sched,
		&status,
		&j.CreatedAt,
		&j.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, ErrNotFound
		}
		return Job{}, err
	}
	j.Status = Status(status)
	if sched.Valid {
		t := sched.Time
		j.ScheduledTime = &t
	}
	return j, nil
}
