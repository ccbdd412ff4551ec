package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/vetchat/chatbot-server-go/internal/audit"
	apperrors "github.com/vetchat/chatbot-server-go/internal/errors"
	"github.com/vetchat/chatbot-server-go/internal/events"
	"github.com/vetchat/chatbot-server-go/internal/model"
	"github.com/vetchat/chatbot-server-go/internal/repository"
	"github.com/vetchat/chatbot-server-go/internal/util"
)

const minPhoneLength = 10

type AppointmentService struct {
	tx           Transactor
	appointments repository.AppointmentRepository
	sessions     repository.SessionRepository
	messages     repository.MessageRepository
	contexts     repository.ContextRepository
	publisher    EventPublisher
}

func NewAppointmentService(
	tx Transactor,
	appointments repository.AppointmentRepository,
	sessions repository.SessionRepository,
	messages repository.MessageRepository,
	contexts repository.ContextRepository,
	publisher EventPublisher,
) *AppointmentService {
	return &AppointmentService{
		tx:           tx,
		appointments: appointments,
		sessions:     sessions,
		messages:     messages,
		contexts:     contexts,
		publisher:    publisher,
	}
}

// ValidateDetails collects every problem with the details, joined by ", ".
func ValidateDetails(d model.AppointmentDetails) error {
	var errs []string
	if !util.MinTrimmedLen(d.OwnerName, 2) {
		errs = append(errs, "Owner name is required (min 2 characters)")
	}
	if !util.MinTrimmedLen(d.PetName, 2) {
		errs = append(errs, "Pet name is required (min 2 characters)")
	}
	if !util.MinTrimmedLen(d.PhoneNumber, minPhoneLength) {
		errs = append(errs, "Valid phone number is required")
	}
	if !util.IsISODate(d.PreferredDate) {
		errs = append(errs, "Preferred date is required (format: YYYY-MM-DD)")
	}
	if util.IsBlank(d.PreferredTime) {
		errs = append(errs, "Preferred time is required")
	}
	if len(errs) > 0 {
		return apperrors.ValidationError(strings.Join(errs, ", ")).WithDetails(errs)
	}
	return nil
}

func ConfirmationMessage(phone string) string {
	return fmt.Sprintf("🎉 Your appointment has been successfully booked!\n\n"+
		"We'll contact you at %s to confirm. Thank you for choosing our veterinary service!", phone)
}

// Create books an appointment for the session and closes its booking flow.
func (s *AppointmentService) Create(ctx context.Context, sessionID string, details model.AppointmentDetails) (*model.Appointment, error) {
	if util.IsBlank(sessionID) {
		return nil, apperrors.ValidationError("Session ID is required")
	}
	if err := ValidateDetails(details); err != nil {
		return nil, err
	}
	if details.Notes != nil && util.IsBlank(*details.Notes) {
		details.Notes = nil
	}

	var appt *model.Appointment
	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		var contextID *string
		c, err := s.contexts.WithTx(tx).FindBySessionID(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("find context: %w", err)
		}
		if c != nil {
			contextID = &c.ID
		}

		appt, err = s.appointments.WithTx(tx).Create(ctx, model.CreateAppointmentParams{
			SessionID: sessionID,
			ContextID: contextID,
			Details:   details,
		})
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		if _, err := s.messages.WithTx(tx).Create(ctx, model.CreateMessageParams{
			SessionID: sessionID,
			Role:      model.RoleAssistant,
			Content:   ConfirmationMessage(details.PhoneNumber),
		}); err != nil {
			return fmt.Errorf("save confirmation message: %w", err)
		}

		if err := s.sessions.WithTx(tx).MarkAppointmentCompleted(ctx, sessionID); err != nil {
			return fmt.Errorf("complete session: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("failed to create appointment")
		return nil, apperrors.Database(err)
	}

	audit.Log(ctx, audit.Event{
		Type:          audit.EventAppointmentCreate,
		SessionID:     sessionID,
		AppointmentID: appt.ID,
		Details:       map[string]interface{}{"preferredDate": appt.PreferredDate},
	})
	s.publish(events.SubjectAppointmentCreated, appt)

	return appt, nil
}

func (s *AppointmentService) FindLatestBySession(ctx context.Context, sessionID string) (*model.Appointment, error) {
	appt, err := s.appointments.FindLatestBySession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if appt == nil {
		return nil, apperrors.NotFound("Appointment")
	}
	return appt, nil
}

func (s *AppointmentService) List(ctx context.Context, filter model.AppointmentFilter) ([]model.Appointment, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.InvalidInput("status", "must be one of pending, confirmed, cancelled, completed")
	}
	appts, err := s.appointments.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return appts, nil
}

func (s *AppointmentService) UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) (*model.Appointment, error) {
	if status == "" {
		return nil, apperrors.MissingRequired("status")
	}
	if !status.Valid() {
		return nil, apperrors.InvalidInput("status", "must be one of pending, confirmed, cancelled, completed")
	}
	if !util.IsValidUUID(id) {
		return nil, apperrors.NotFound("Appointment")
	}

	appt, err := s.appointments.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if appt == nil {
		return nil, apperrors.NotFound("Appointment")
	}

	audit.Log(ctx, audit.Event{
		Type:          audit.EventAppointmentStatusChange,
		SessionID:     appt.SessionID,
		AppointmentID: appt.ID,
		Details:       map[string]interface{}{"status": string(status)},
	})
	s.publish(events.SubjectAppointmentStatusChanged, appt)

	return appt, nil
}

// publish is best effort; the appointment is already stored.
func (s *AppointmentService) publish(subject string, appt *model.Appointment) {
	if err := s.publisher.Publish(subject, events.NewAppointmentEvent(appt)); err != nil {
		log.Warn().Err(err).Str("subject", subject).Str("appointmentId", appt.ID).Msg("failed to publish event")
	}
}
