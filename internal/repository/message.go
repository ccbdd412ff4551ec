package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/vetchat/chatbot-server-go/internal/database"
	"github.com/vetchat/chatbot-server-go/internal/model"
)

type MessageRepository interface {
	Create(ctx context.Context, params model.CreateMessageParams) (*model.Message, error)
	// FindRecent returns the newest limit messages in chronological order.
	FindRecent(ctx context.Context, sessionID string, limit int) ([]model.Message, error)
	// FindBySession returns the oldest limit messages in chronological order.
	FindBySession(ctx context.Context, sessionID string, limit int) ([]model.Message, error)
	// FindPage pages from the newest end; the page itself is chronological.
	FindPage(ctx context.Context, sessionID string, limit, offset int) ([]model.Message, error)
	CountBySession(ctx context.Context, sessionID string) (int, error)
	WithTx(tx *sqlx.Tx) MessageRepository
}

type messageRepo struct {
	db database.DBTX
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) WithTx(tx *sqlx.Tx) MessageRepository {
	return &messageRepo{db: tx}
}

func (r *messageRepo) Create(ctx context.Context, params model.CreateMessageParams) (*model.Message, error) {
	var msg model.Message
	err := r.db.GetContext(ctx, &msg, `
		INSERT INTO messages (session_id, role, content)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.SessionID, params.Role, params.Content)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepo) FindRecent(ctx context.Context, sessionID string, limit int) ([]model.Message, error) {
	return r.FindPage(ctx, sessionID, limit, 0)
}

func (r *messageRepo) FindBySession(ctx context.Context, sessionID string, limit int) ([]model.Message, error) {
	msgs := []model.Message{}
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT * FROM messages
		WHERE session_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2
	`, sessionID, limit)
	return msgs, err
}

func (r *messageRepo) FindPage(ctx context.Context, sessionID string, limit, offset int) ([]model.Message, error) {
	msgs := []model.Message{}
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT * FROM messages
		WHERE session_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, sessionID, limit, offset)
	if err != nil {
		return nil, err
	}
	reverse(msgs)
	return msgs, nil
}

func (r *messageRepo) CountBySession(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM messages WHERE session_id = $1
	`, sessionID)
	return count, err
}
