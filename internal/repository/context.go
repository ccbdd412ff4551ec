package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/vetchat/chatbot-server-go/internal/database"
	"github.com/vetchat/chatbot-server-go/internal/model"
)

type ContextRepository interface {
	FindBySessionID(ctx context.Context, sessionID string) (*model.Context, error)
	// CreateIfAbsent stores the context once per session and returns the stored row.
	CreateIfAbsent(ctx context.Context, sessionID string, data model.ContextData) (*model.Context, error)
	WithTx(tx *sqlx.Tx) ContextRepository
}

type contextRepo struct {
	db database.DBTX
}

func NewContextRepository(db *sqlx.DB) ContextRepository {
	return &contextRepo{db: db}
}

func (r *contextRepo) WithTx(tx *sqlx.Tx) ContextRepository {
	return &contextRepo{db: tx}
}

func (r *contextRepo) FindBySessionID(ctx context.Context, sessionID string) (*model.Context, error) {
	var c model.Context
	err := r.db.GetContext(ctx, &c, `SELECT * FROM contexts WHERE session_id = $1`, sessionID)
	return HandleNotFound(&c, err)
}

func (r *contextRepo) CreateIfAbsent(ctx context.Context, sessionID string, data model.ContextData) (*model.Context, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contexts (session_id, user_id, user_name, pet_name, source)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id) DO NOTHING
	`, sessionID, model.StringPtr(data.UserID), model.StringPtr(data.UserName),
		model.StringPtr(data.PetName), model.StringPtr(data.Source))
	if err != nil {
		return nil, err
	}
	return r.FindBySessionID(ctx, sessionID)
}
