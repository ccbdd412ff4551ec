package model

type SessionStatus string

const (
	SessionStatusActive               SessionStatus = "active"
	SessionStatusBookingInProgress    SessionStatus = "booking_in_progress"
	SessionStatusAppointmentCompleted SessionStatus = "appointment_completed"
	SessionStatusClosed               SessionStatus = "closed"
)

type Intent string

const (
	IntentGeneralQA          Intent = "general_qa"
	IntentAppointmentBooking Intent = "appointment_booking"
	IntentUnknown            Intent = "unknown"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

// Valid reports whether s is one of the known appointment statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed,
		AppointmentStatusCancelled, AppointmentStatusCompleted:
		return true
	}
	return false
}
