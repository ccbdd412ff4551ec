package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/vetchat/chatbot-server-go/internal/audit"
	apperrors "github.com/vetchat/chatbot-server-go/internal/errors"
	"github.com/vetchat/chatbot-server-go/internal/model"
	"github.com/vetchat/chatbot-server-go/internal/repository"
)

const (
	DefaultConversationLimit = 50
	DefaultPageSize          = 20
	MaxPageSize              = 100
)

type Conversation struct {
	Session  *model.Session  `json:"session"`
	Context  *model.Context  `json:"context"`
	Messages []model.Message `json:"messages"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalCount int `json:"totalCount"`
	TotalPages int `json:"totalPages"`
}

type MessagePage struct {
	Messages   []model.Message `json:"messages"`
	Pagination Pagination      `json:"pagination"`
}

type SessionService struct {
	sessions repository.SessionRepository
	messages repository.MessageRepository
	contexts repository.ContextRepository
}

func NewSessionService(
	sessions repository.SessionRepository,
	messages repository.MessageRepository,
	contexts repository.ContextRepository,
) *SessionService {
	return &SessionService{
		sessions: sessions,
		messages: messages,
		contexts: contexts,
	}
}

// WithTx returns a SessionService whose repositories run inside tx.
func (s *SessionService) WithTx(tx *sqlx.Tx) *SessionService {
	return &SessionService{
		sessions: s.sessions.WithTx(tx),
		messages: s.messages.WithTx(tx),
		contexts: s.contexts.WithTx(tx),
	}
}

// GetOrCreate returns the stored session, creating it and its context record when needed.
// Chat turns call it through WithTx so the session exists only if the turn commits.
func (s *SessionService) GetOrCreate(ctx context.Context, sessionID string, contextData *model.ContextData) (*model.Session, *model.Context, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, nil, apperrors.Database(err)
	}
	if session == nil {
		session = model.NewSession(sessionID)
		if err := s.sessions.Create(ctx, session); err != nil {
			return nil, nil, apperrors.Database(err)
		}
	}

	if contextData.IsEmpty() {
		return session, nil, nil
	}
	c, err := s.contexts.CreateIfAbsent(ctx, sessionID, *contextData)
	if err != nil {
		return nil, nil, apperrors.Database(err)
	}
	return session, c, nil
}

func (s *SessionService) ListSessions(ctx context.Context) ([]model.Session, error) {
	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return sessions, nil
}

func (s *SessionService) GetConversation(ctx context.Context, sessionID string, limit int) (*Conversation, error) {
	if limit <= 0 {
		limit = DefaultConversationLimit
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}

	c, err := s.contexts.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	msgs, err := s.messages.FindBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &Conversation{Session: session, Context: c, Messages: msgs}, nil
}

// ListMessages pages backwards from the newest message; each page reads oldest first.
func (s *SessionService) ListMessages(ctx context.Context, sessionID string, page, limit int) (*MessagePage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	total, err := s.messages.CountBySession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	msgs, err := s.messages.FindPage(ctx, sessionID, limit, (page-1)*limit)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &MessagePage{
		Messages: msgs,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			TotalCount: total,
			TotalPages: (total + limit - 1) / limit,
		},
	}, nil
}

// CloseIdle closes active sessions with no activity for olderThan.
func (s *SessionService) CloseIdle(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := s.sessions.CloseIdle(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		audit.Log(ctx, audit.Event{
			Type:    audit.EventSessionsClosed,
			Details: map[string]interface{}{"count": n, "idleFor": olderThan.String()},
		})
	}
	log.Debug().Int64("closed", n).Dur("olderThan", olderThan).Msg("idle session sweep")
	return n, nil
}
