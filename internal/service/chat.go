package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/vetchat/chatbot-server-go/internal/config"
	"github.com/vetchat/chatbot-server-go/internal/dialogue"
	apperrors "github.com/vetchat/chatbot-server-go/internal/errors"
	"github.com/vetchat/chatbot-server-go/internal/llm"
	"github.com/vetchat/chatbot-server-go/internal/model"
	redisclient "github.com/vetchat/chatbot-server-go/internal/redis"
	"github.com/vetchat/chatbot-server-go/internal/repository"
	"github.com/vetchat/chatbot-server-go/internal/util"
)

type ChatParams struct {
	Message   string
	SessionID string
	Context   *model.ContextData
}

type ChatResult struct {
	Message     string             `json:"message"`
	SessionID   string             `json:"sessionId"`
	Intent      model.Intent       `json:"intent"`
	BookingData *model.BookingData `json:"bookingData"`
}

type ChatService struct {
	tx          Transactor
	sessions    repository.SessionRepository
	messages    repository.MessageRepository
	provisioner *SessionService
	engine      TurnEngine
	locker      TurnLocker
}

func NewChatService(
	tx Transactor,
	sessions repository.SessionRepository,
	messages repository.MessageRepository,
	provisioner *SessionService,
	engine TurnEngine,
	locker TurnLocker,
) *ChatService {
	return &ChatService{
		tx:          tx,
		sessions:    sessions,
		messages:    messages,
		provisioner: provisioner,
		engine:      engine,
		locker:      locker,
	}
}

// ValidateMessage rejects blank messages and messages over the character limit.
func ValidateMessage(message string) error {
	if util.IsBlank(message) {
		return apperrors.ValidationError("Message is required and must be a non-empty string")
	}
	if util.CharCount(message) > config.MaxMessageLength {
		return apperrors.ValidationError(fmt.Sprintf("Message is too long (max %d characters)", config.MaxMessageLength))
	}
	return nil
}

// HandleMessage runs one turn. Either the session update and both messages
// are stored, or nothing is.
func (s *ChatService) HandleMessage(ctx context.Context, params ChatParams) (*ChatResult, error) {
	if err := ValidateMessage(params.Message); err != nil {
		return nil, err
	}

	sessionID := strings.TrimSpace(params.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	logger := log.With().Str("sessionId", sessionID).Logger()

	release, err := s.locker.Acquire(ctx, redisclient.TurnLockKey(sessionID))
	if errors.Is(err, redisclient.ErrLockTimeout) {
		logger.Warn().Msg("turn lock busy")
		return nil, apperrors.SessionBusy()
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to process message").WithCause(err)
	}
	defer release()

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	isNew := session == nil
	history := []model.Message{}
	if isNew {
		session = model.NewSession(sessionID)
	} else {
		history, err = s.messages.FindRecent(ctx, sessionID, config.ChatHistoryWindow)
		if err != nil {
			return nil, apperrors.Database(err)
		}
	}

	result, err := s.engine.Turn(ctx, session, params.Message, history)
	if errors.Is(err, dialogue.ErrSessionClosed) {
		return nil, apperrors.SessionClosed()
	}
	if err != nil {
		if llm.IsUnavailable(err) {
			logger.Error().Msg("no llm provider answered")
		} else {
			logger.Error().Err(err).Msg("turn failed")
		}
		return nil, apperrors.AIUnavailable(err)
	}

	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, _, err := s.provisioner.WithTx(tx).GetOrCreate(ctx, sessionID, params.Context); err != nil {
			return fmt.Errorf("provision session: %w", err)
		}

		messages := s.messages.WithTx(tx)
		if _, err := messages.Create(ctx, model.CreateMessageParams{
			SessionID: sessionID,
			Role:      model.RoleUser,
			Content:   params.Message,
		}); err != nil {
			return fmt.Errorf("save user message: %w", err)
		}
		if _, err := messages.Create(ctx, model.CreateMessageParams{
			SessionID: sessionID,
			Role:      model.RoleAssistant,
			Content:   result.Reply,
		}); err != nil {
			return fmt.Errorf("save assistant message: %w", err)
		}

		_, err := s.sessions.WithTx(tx).Save(ctx, model.SaveSessionParams{
			SessionID:      sessionID,
			Status:         result.Status,
			CurrentIntent:  result.Intent,
			BookingData:    result.BookingData,
			MessageDelta:   2,
			LastActivityAt: time.Now(),
		})
		if err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to persist turn")
		return nil, apperrors.Database(err)
	}

	logger.Info().
		Str("intent", string(result.Intent)).
		Str("status", string(result.Status)).
		Bool("newSession", isNew).
		Msg("turn completed")

	return &ChatResult{
		Message:     result.Reply,
		SessionID:   sessionID,
		Intent:      result.Intent,
		BookingData: result.BookingData,
	}, nil
}
