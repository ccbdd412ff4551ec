package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vetchat/chatbot-server-go/internal/database"
	"github.com/vetchat/chatbot-server-go/internal/model"
)

type SessionRepository interface {
	FindByID(ctx context.Context, sessionID string) (*model.Session, error)
	// Create inserts the session unless one with the same id already exists.
	Create(ctx context.Context, session *model.Session) error
	Save(ctx context.Context, params model.SaveSessionParams) (*model.Session, error)
	// MarkAppointmentCompleted also counts the confirmation message appended with it.
	MarkAppointmentCompleted(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]model.Session, error)
	CloseIdle(ctx context.Context, before time.Time) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) SessionRepository
}

type sessionRepo struct {
	db database.DBTX
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) WithTx(tx *sqlx.Tx) SessionRepository {
	return &sessionRepo{db: tx}
}

func (r *sessionRepo) FindByID(ctx context.Context, sessionID string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `SELECT * FROM sessions WHERE session_id = $1`, sessionID)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, status, current_intent, booking_data, message_count, last_activity_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (session_id) DO NOTHING
	`, session.SessionID, session.Status, session.CurrentIntent, session.BookingData,
		session.MessageCount, session.LastActivityAt, session.CreatedAt)
	return err
}

func (r *sessionRepo) Save(ctx context.Context, params model.SaveSessionParams) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		UPDATE sessions SET
			status = $2,
			current_intent = $3,
			booking_data = $4,
			message_count = message_count + $5,
			last_activity_at = $6,
			updated_at = NOW()
		WHERE session_id = $1
		RETURNING *
	`, params.SessionID, params.Status, params.CurrentIntent, params.BookingData,
		params.MessageDelta, params.LastActivityAt)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) MarkAppointmentCompleted(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET
			status = 'appointment_completed',
			message_count = message_count + 1,
			last_activity_at = NOW(),
			updated_at = NOW()
		WHERE session_id = $1
	`, sessionID)
	return err
}

func (r *sessionRepo) List(ctx context.Context) ([]model.Session, error) {
	sessions := []model.Session{}
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT * FROM sessions ORDER BY last_activity_at DESC
	`)
	return sessions, err
}

func (r *sessionRepo) CloseIdle(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET status = 'closed', updated_at = NOW()
		WHERE status = 'active' AND last_activity_at < $1
	`, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
