package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventAppointmentCreate       EventType = "appointment_create"
	EventAppointmentStatusChange EventType = "appointment_status_change"
	EventSessionsClosed          EventType = "sessions_closed"
	EventRateLimitExceed         EventType = "rate_limit_exceeded"
)

type Event struct {
	Type          EventType
	SessionID     string
	AppointmentID string
	IP            string
	UserAgent     string
	Details       map[string]interface{}
}

func Log(ctx context.Context, event Event) {
	logger := log.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		logger = &log.Logger
	}

	sub := logger.With().
		Str("audit", "domain").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now())
	if event.SessionID != "" {
		sub = sub.Str("sessionId", event.SessionID)
	}
	if event.AppointmentID != "" {
		sub = sub.Str("appointmentId", event.AppointmentID)
	}
	if event.IP != "" {
		sub = sub.Str("ip", event.IP)
	}
	if event.UserAgent != "" {
		sub = sub.Str("user_agent", event.UserAgent)
	}
	l := sub.Logger()

	logEvent := l.Info()
	for k, v := range event.Details {
		logEvent = addField(logEvent, k, v)
	}
	logEvent.Msg("audit event")
}

func addField(e *zerolog.Event, key string, value interface{}) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return e.Str(key, v)
	case int:
		return e.Int(key, v)
	case int64:
		return e.Int64(key, v)
	case bool:
		return e.Bool(key, v)
	default:
		return e.Interface(key, v)
	}
}

func LogFromRequest(r *http.Request, event Event) {
	event.IP = ClientIP(r)
	event.UserAgent = r.UserAgent()
	Log(r.Context(), event)
}

// ClientIP prefers proxy headers over the socket address.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
