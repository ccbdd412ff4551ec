package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// BookingData holds the appointment fields collected across booking turns.
// A nil field has not been provided yet.
type BookingData struct {
	OwnerName     *string `json:"ownerName"`
	PetName       *string `json:"petName"`
	PhoneNumber   *string `json:"phoneNumber"`
	PreferredDate *string `json:"preferredDate"`
	PreferredTime *string `json:"preferredTime"`
	Notes         *string `json:"notes"`
}

// BookingField names a required booking field, in prompting order.
type BookingField string

const (
	FieldOwnerName     BookingField = "ownerName"
	FieldPetName       BookingField = "petName"
	FieldPhoneNumber   BookingField = "phoneNumber"
	FieldPreferredDate BookingField = "preferredDate"
	FieldPreferredTime BookingField = "preferredTime"
)

// RequiredBookingFields is the order in which missing fields are asked for.
var RequiredBookingFields = []BookingField{
	FieldOwnerName,
	FieldPetName,
	FieldPhoneNumber,
	FieldPreferredDate,
	FieldPreferredTime,
}

func present(v *string) bool {
	return v != nil && strings.TrimSpace(*v) != ""
}

func (b *BookingData) field(f BookingField) *string {
	switch f {
	case FieldOwnerName:
		return b.OwnerName
	case FieldPetName:
		return b.PetName
	case FieldPhoneNumber:
		return b.PhoneNumber
	case FieldPreferredDate:
		return b.PreferredDate
	case FieldPreferredTime:
		return b.PreferredTime
	}
	return nil
}

// MissingFields returns the required fields not yet provided, in prompting order.
func (b *BookingData) MissingFields() []BookingField {
	var missing []BookingField
	for _, f := range RequiredBookingFields {
		if b == nil || !present(b.field(f)) {
			missing = append(missing, f)
		}
	}
	return missing
}

func (b *BookingData) IsComplete() bool {
	return len(b.MissingFields()) == 0
}

// Merge returns a copy of b where every non-empty field of next replaces
// the current value. Fields are never cleared.
func (b *BookingData) Merge(next BookingData) BookingData {
	var merged BookingData
	if b != nil {
		merged = *b
	}
	pick := func(cur **string, v *string) {
		if present(v) {
			s := strings.TrimSpace(*v)
			*cur = &s
		}
	}
	pick(&merged.OwnerName, next.OwnerName)
	pick(&merged.PetName, next.PetName)
	pick(&merged.PhoneNumber, next.PhoneNumber)
	pick(&merged.PreferredDate, next.PreferredDate)
	pick(&merged.PreferredTime, next.PreferredTime)
	pick(&merged.Notes, next.Notes)
	return merged
}

// Value stores BookingData as JSONB.
func (b BookingData) Value() (driver.Value, error) {
	return json.Marshal(b)
}

// Scan reads BookingData from a JSONB column.
func (b *BookingData) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, b)
	case string:
		return json.Unmarshal([]byte(v), b)
	case nil:
		*b = BookingData{}
		return nil
	}
	return fmt.Errorf("booking data: unsupported type %T", src)
}

// StringPtr returns nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
