package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/vetchat/chatbot-server-go/internal/llm"
	"github.com/vetchat/chatbot-server-go/internal/model"
)

// ErrSessionClosed is returned for turns against a closed session.
var ErrSessionClosed = errors.New("session is closed")

// Gateway is the subset of the LLM gateway the engine needs.
type Gateway interface {
	GenerateResponse(ctx context.Context, userMessage string, history []model.Message) (string, error)
	DetectIntent(ctx context.Context, userMessage string) llm.IntentResult
	ExtractAppointmentInfo(ctx context.Context, userMessage string, current *model.BookingData) model.BookingData
}

// TurnResult is the session state after a turn plus the reply to send.
type TurnResult struct {
	Reply       string
	Status      model.SessionStatus
	Intent      model.Intent
	BookingData *model.BookingData
}

// Engine decides how each user message is answered based on the session status.
// It never touches storage.
type Engine struct {
	gateway Gateway
}

func NewEngine(gateway Gateway) *Engine {
	return &Engine{gateway: gateway}
}

func (e *Engine) Turn(ctx context.Context, session *model.Session, userMessage string, history []model.Message) (*TurnResult, error) {
	logger := log.With().Str("sessionId", session.SessionID).Str("status", string(session.Status)).Logger()

	switch session.Status {
	case model.SessionStatusClosed:
		return nil, ErrSessionClosed
	case model.SessionStatusBookingInProgress:
		return e.bookingTurn(ctx, session, userMessage), nil
	}

	intent := e.gateway.DetectIntent(ctx, userMessage)
	logger.Debug().
		Str("intent", string(intent.Intent)).
		Str("confidence", string(intent.Confidence)).
		Msg("intent detected")

	if intent.Intent == model.IntentAppointmentBooking {
		data := &model.BookingData{}
		prompt, _ := llm.BookingPrompt(data)
		return &TurnResult{
			Reply:       prompt,
			Status:      model.SessionStatusBookingInProgress,
			Intent:      model.IntentAppointmentBooking,
			BookingData: data,
		}, nil
	}

	reply, err := e.gateway.GenerateResponse(ctx, userMessage, history)
	if err != nil {
		return nil, fmt.Errorf("generate response: %w", err)
	}
	return &TurnResult{
		Reply:       reply,
		Status:      session.Status,
		Intent:      model.IntentGeneralQA,
		BookingData: session.BookingData,
	}, nil
}

func (e *Engine) bookingTurn(ctx context.Context, session *model.Session, userMessage string) *TurnResult {
	data := e.gateway.ExtractAppointmentInfo(ctx, userMessage, session.BookingData)

	var reply string
	if data.IsComplete() {
		reply = ConfirmationSummary(&data)
	} else {
		reply, _ = llm.BookingPrompt(&data)
	}
	return &TurnResult{
		Reply:       reply,
		Status:      model.SessionStatusBookingInProgress,
		Intent:      model.IntentAppointmentBooking,
		BookingData: &data,
	}
}

// ConfirmationSummary lists the collected booking details and asks the user to confirm.
func ConfirmationSummary(data *model.BookingData) string {
	var b strings.Builder
	b.WriteString("Perfect! Let me confirm your appointment details:\n\n")
	fmt.Fprintf(&b, "- Pet Owner: %s\n", model.Deref(data.OwnerName))
	fmt.Fprintf(&b, "- Pet Name: %s\n", model.Deref(data.PetName))
	fmt.Fprintf(&b, "- Phone: %s\n", model.Deref(data.PhoneNumber))
	fmt.Fprintf(&b, "- Date: %s\n", model.Deref(data.PreferredDate))
	fmt.Fprintf(&b, "- Time: %s\n", model.Deref(data.PreferredTime))
	if notes := model.Deref(data.Notes); notes != "" {
		fmt.Fprintf(&b, "- Notes: %s\n", notes)
	}
	b.WriteString("\nPlease reply with \"confirm\" to book this appointment, or \"cancel\" to start over.")
	return b.String()
}
