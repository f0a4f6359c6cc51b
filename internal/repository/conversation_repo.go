package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/natteepao-collab/jwherbal-roots-and-remedies-sub000/internal/models"
)

type ConversationRepo struct {
	pool *pgxpool.Pool
}

func NewConversationRepo(pool *pgxpool.Pool) *ConversationRepo {
	return &ConversationRepo{pool: pool}
}

// Resolve returns the conversation bound to sessionID, creating it if absent.
// An empty sessionID gets a freshly generated one. The insert relies on the
// unique constraint on session_id: under concurrent first requests exactly one
// row wins and both callers read it back, so resolution is idempotent.
func (r *ConversationRepo) Resolve(ctx context.Context, sessionID string, lang models.Language) (*models.Conversation, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO conversations (id, session_id, language)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (session_id) DO NOTHING`,
		uuid.New(), sessionID, lang,
	)
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}

	c := &models.Conversation{}
	err = r.pool.QueryRow(ctx,
		`SELECT id, session_id, language, created_at FROM conversations WHERE session_id = $1`,
		sessionID,
	).Scan(&c.ID, &c.SessionID, &c.Language, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("select conversation: %w", err)
	}
	return c, nil
}

// GetBySessionID returns the conversation for sessionID without creating one.
func (r *ConversationRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.Conversation, error) {
	c := &models.Conversation{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, session_id, language, created_at FROM conversations WHERE session_id = $1`,
		sessionID,
	).Scan(&c.ID, &c.SessionID, &c.Language, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}
