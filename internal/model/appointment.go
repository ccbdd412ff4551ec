package model

import (
	"time"
)

type AppointmentDetails struct {
	OwnerName     string  `db:"owner_name" json:"ownerName"`
	PetName       string  `db:"pet_name" json:"petName"`
	PhoneNumber   string  `db:"phone_number" json:"phoneNumber"`
	PreferredDate string  `db:"preferred_date" json:"preferredDate"`
	PreferredTime string  `db:"preferred_time" json:"preferredTime"`
	Notes         *string `db:"notes" json:"notes,omitempty"`
}

type Appointment struct {
	ID                 string  `db:"id" json:"id"`
	SessionID          string  `db:"session_id" json:"sessionId"`
	ContextID          *string `db:"context_id" json:"contextId,omitempty"`
	AppointmentDetails `json:"appointmentDetails"`
	Status             AppointmentStatus `db:"status" json:"status"`
	ConfirmedAt        *time.Time        `db:"confirmed_at" json:"confirmedAt,omitempty"`
	CreatedAt          time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time         `db:"updated_at" json:"updatedAt"`
}

type CreateAppointmentParams struct {
	SessionID string
	ContextID *string
	Details   AppointmentDetails
}

type AppointmentFilter struct {
	Status      AppointmentStatus
	DateFrom    string
	DateTo      string
	PhoneNumber string
}
