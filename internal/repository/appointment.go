package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/vetchat/chatbot-server-go/internal/database"
	"github.com/vetchat/chatbot-server-go/internal/model"
)

type AppointmentRepository interface {
	Create(ctx context.Context, params model.CreateAppointmentParams) (*model.Appointment, error)
	FindLatestBySession(ctx context.Context, sessionID string) (*model.Appointment, error)
	List(ctx context.Context, filter model.AppointmentFilter) ([]model.Appointment, error)
	// UpdateStatus returns nil when no appointment has the given id.
	UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) (*model.Appointment, error)
	WithTx(tx *sqlx.Tx) AppointmentRepository
}

type appointmentRepo struct {
	db database.DBTX
}

func NewAppointmentRepository(db *sqlx.DB) AppointmentRepository {
	return &appointmentRepo{db: db}
}

func (r *appointmentRepo) WithTx(tx *sqlx.Tx) AppointmentRepository {
	return &appointmentRepo{db: tx}
}

func (r *appointmentRepo) Create(ctx context.Context, params model.CreateAppointmentParams) (*model.Appointment, error) {
	var appt model.Appointment
	d := params.Details
	err := r.db.GetContext(ctx, &appt, `
		INSERT INTO appointments (session_id, context_id, owner_name, pet_name, phone_number, preferred_date, preferred_time, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *
	`, params.SessionID, params.ContextID, d.OwnerName, d.PetName, d.PhoneNumber,
		d.PreferredDate, d.PreferredTime, d.Notes)
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func (r *appointmentRepo) FindLatestBySession(ctx context.Context, sessionID string) (*model.Appointment, error) {
	var appt model.Appointment
	err := r.db.GetContext(ctx, &appt, `
		SELECT * FROM appointments
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, sessionID)
	return HandleNotFound(&appt, err)
}

func (r *appointmentRepo) List(ctx context.Context, filter model.AppointmentFilter) ([]model.Appointment, error) {
	query, args := buildAppointmentQuery(filter)
	appts := []model.Appointment{}
	err := r.db.SelectContext(ctx, &appts, query, args...)
	return appts, err
}

func buildAppointmentQuery(filter model.AppointmentFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.PhoneNumber != "" {
		add("phone_number = $%d", filter.PhoneNumber)
	}
	if filter.DateFrom != "" {
		add("preferred_date >= $%d", filter.DateFrom)
	}
	if filter.DateTo != "" {
		add("preferred_date <= $%d", filter.DateTo)
	}

	query := "SELECT * FROM appointments"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	return query, args
}

func (r *appointmentRepo) UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) (*model.Appointment, error) {
	var appt model.Appointment
	err := r.db.GetContext(ctx, &appt, `
		UPDATE appointments SET
			status = $2::text,
			confirmed_at = CASE WHEN $2::text = 'confirmed' THEN NOW() ELSE confirmed_at END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, id, status)
	return HandleNotFound(&appt, err)
}
