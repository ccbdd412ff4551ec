package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/vetchat/chatbot-server-go/internal/model"
)

const (
	SubjectAppointmentCreated       = "appointments.created"
	SubjectAppointmentStatusChanged = "appointments.status_changed"
)

// AppointmentEvent is the payload published for appointment lifecycle changes.
type AppointmentEvent struct {
	AppointmentID string                  `json:"appointmentId"`
	SessionID     string                  `json:"sessionId"`
	Status        model.AppointmentStatus `json:"status"`
	PreferredDate string                  `json:"preferredDate"`
	PreferredTime string                  `json:"preferredTime"`
	OccurredAt    time.Time               `json:"occurredAt"`
}

func NewAppointmentEvent(appt *model.Appointment) AppointmentEvent {
	return AppointmentEvent{
		AppointmentID: appt.ID,
		SessionID:     appt.SessionID,
		Status:        appt.Status,
		PreferredDate: appt.PreferredDate,
		PreferredTime: appt.PreferredTime,
		OccurredAt:    time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(subject string, data any) error
	Close()
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("vetchat-server"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info().Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSPublisher{conn: nc}, nil
}

func (p *NATSPublisher) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return p.conn.Publish(subject, payload)
}

func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

// NopPublisher drops every event. Used when NATS_URL is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(string, any) error { return nil }
func (NopPublisher) Close()                    {}
