package service

import (
	"context"

	"github.com/vetchat/chatbot-server-go/internal/database"
	"github.com/vetchat/chatbot-server-go/internal/dialogue"
	"github.com/vetchat/chatbot-server-go/internal/model"
)

// Transactor runs fn inside one database transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}

// TurnLocker serializes turns for the same session.
type TurnLocker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

type EventPublisher interface {
	Publish(subject string, data any) error
}

// TurnEngine runs one dialogue turn without persisting anything.
type TurnEngine interface {
	Turn(ctx context.Context, session *model.Session, userMessage string, history []model.Message) (*dialogue.TurnResult, error)
}
