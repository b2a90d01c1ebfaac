package agents

import (
	"context"
	"database/sql"
	"errors"

	"speakai-platform/pkg/utils"
)

var (
	ErrNotFound      = errors.New("agents: not found")
	ErrDuplicateName = errors.New("agents: agent name already used by this owner")
)

// Repository is the persistence contract for agent rows.
type Repository interface {
	Create(ctx context.Context, a Agent) (Agent, error)
	Update(ctx context.Context, a Agent) (Agent, error)
	Get(ctx context.Context, id int64) (Agent, error)
	GetByName(ctx context.Context, userID int64, name string) (Agent, error)
	// FindLatestByName searches every owner and returns the most recently created match.
	FindLatestByName(ctx context.Context, name string) (Agent, error)
	ListByUser(ctx context.Context, userID int64) ([]Agent, error)
	ListAll(ctx context.Context) ([]Agent, error)
	Delete(ctx context.Context, id int64) error
}

type SQLRepo struct {
	db *sql.DB
}

func NewSQLRepo(db *sql.DB) *SQLRepo { return &SQLRepo{db: db} }

const agentColumns = `id, user_id, agent_id, agent_name, first_message, prompt, llm,
documentation_id, file_name, file_url, voice_id, voice_url, twilio_number, phone_number_id,
business_name, agent_type, speaking_style, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLRepo) Create(ctx context.Context, a Agent) (Agent, error) {
	const q = `
INSERT INTO agents (
	user_id, agent_id, agent_name, first_message, prompt, llm,
	documentation_id, file_name, file_url, voice_id, voice_url, twilio_number, phone_number_id,
	business_name, agent_type, speaking_style
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
RETURNING ` + agentColumns
	out, err := scanAgent(r.db.QueryRowContext(ctx, q,
		a.UserID, a.AgentID, a.AgentName, a.FirstMessage, a.Prompt, a.LLM,
		a.DocumentationID, a.FileName, a.FileURL, a.VoiceID, a.VoiceURL, a.TwilioNumber, a.PhoneNumberID,
		a.BusinessName, a.AgentType, a.SpeakingStyle,
	))
	if err != nil {
		if utils.IsUniqueViolation(err, "agents_user_name_key") {
			return Agent{}, ErrDuplicateName
		}
		return Agent{}, err
	}
	return out, nil
}

// Update rewrites the mutable columns. agent_name, phone_number_id and twilio_number are never touched.
func (r *SQLRepo) Update(ctx context.Context, a Agent) (Agent, error) {
	const q = `
UPDATE agents SET
	first_message = $2, prompt = $3, llm = $4,
	documentation_id = $5, file_name = $6, file_url = $7,
	voice_id = $8, voice_url = $9,
	business_name = $10, agent_type = $11, speaking_style = $12
WHERE id = $1
RETURNING ` + agentColumns
	return scanAgent(r.db.QueryRowContext(ctx, q,
		a.ID, a.FirstMessage, a.Prompt, a.LLM,
		a.DocumentationID, a.FileName, a.FileURL,
		a.VoiceID, a.VoiceURL,
		a.BusinessName, a.AgentType, a.SpeakingStyle,
	))
}

func (r *SQLRepo) Get(ctx context.Context, id int64) (Agent, error) {
	const q = `SELECT ` + agentColumns + ` FROM agents WHERE id = $1`
	return scanAgent(r.db.QueryRowContext(ctx, q, id))
}

func (r *SQLRepo) GetByName(ctx context.Context, userID int64, name string) (Agent, error) {
	const q = `SELECT ` + agentColumns + ` FROM agents WHERE user_id = $1 AND agent_name = $2`
	return scanAgent(r.db.QueryRowContext(ctx, q, userID, name))
}

func (r *SQLRepo) FindLatestByName(ctx context.Context, name string) (Agent, error) {
	const q = `SELECT ` + agentColumns + ` FROM agents WHERE agent_name = $1 ORDER BY created_at DESC, id DESC LIMIT 1`
	return scanAgent(r.db.QueryRowContext(ctx, q, name))
}

func (r *SQLRepo) ListByUser(ctx context.Context, userID int64) ([]Agent, error) {
	const q = `SELECT ` + agentColumns + ` FROM agents WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, q, userID)
}

func (r *SQLRepo) ListAll(ctx context.Context) ([]Agent, error) {
	const q = `SELECT ` + agentColumns + ` FROM agents ORDER BY created_at DESC, id DESC`
	return r.list(ctx, q)
}

func (r *SQLRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM agents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLRepo) list(ctx context.Context, q string, args ...any) ([]Agent, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAgent(row rowScanner) (Agent, error) {
	var a Agent
	if err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.AgentID,
		&a.AgentName,
		&a.FirstMessage,
		&a.Prompt,
		&a.LLM,
		&a.DocumentationID,
		&a.FileName,
		&a.FileURL,
		&a.VoiceID,
		&a.VoiceURL,
		&a.TwilioNumber,
		&a.PhoneNumberID,
		&a.BusinessName,
		&a.AgentType,
		&a.SpeakingStyle,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Agent{}, ErrNotFound
		}
		return Agent{}, err
	}
	return a, nil
}
