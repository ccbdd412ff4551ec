package model

import (
	"time"
)

type Message struct {
	ID        int64       `db:"id" json:"id"`
	SessionID string      `db:"session_id" json:"sessionId"`
	Role      MessageRole `db:"role" json:"role"`
	Content   string      `db:"content" json:"content"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
}

type CreateMessageParams struct {
	SessionID string
	Role      MessageRole
	Content   string
}
