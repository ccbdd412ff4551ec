package model

import (
	"time"
)

type Session struct {
	SessionID      string        `db:"session_id" json:"sessionId"`
	Status         SessionStatus `db:"status" json:"status"`
	CurrentIntent  Intent        `db:"current_intent" json:"currentIntent"`
	BookingData    *BookingData  `db:"booking_data" json:"bookingData"`
	MessageCount   int           `db:"message_count" json:"messageCount"`
	LastActivityAt time.Time     `db:"last_activity_at" json:"lastActivityAt"`
	CreatedAt      time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updatedAt"`
}

// NewSession returns an unsaved active session.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		SessionID:      id,
		Status:         SessionStatusActive,
		CurrentIntent:  IntentGeneralQA,
		LastActivityAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

type SaveSessionParams struct {
	SessionID      string
	Status         SessionStatus
	CurrentIntent  Intent
	BookingData    *BookingData
	MessageDelta   int
	LastActivityAt time.Time
}

type Context struct {
	ID        string    `db:"id" json:"id"`
	SessionID string    `db:"session_id" json:"sessionId"`
	UserID    *string   `db:"user_id" json:"userId,omitempty"`
	UserName  *string   `db:"user_name" json:"userName,omitempty"`
	PetName   *string   `db:"pet_name" json:"petName,omitempty"`
	Source    *string   `db:"source" json:"source,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// ContextData is the optional caller identity sent with a chat message.
type ContextData struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	PetName  string `json:"petName"`
	Source   string `json:"source"`
}

func (c *ContextData) IsEmpty() bool {
	return c == nil || (c.UserID == "" && c.UserName == "" && c.PetName == "" && c.Source == "")
}
