package appointment

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/moutazmahmoud/clinic-pwa/internal/domain/availability"
)

var (
	ErrNotFound   = errors.New("appointment not found")
	ErrValidation = errors.New("invalid appointment")
	ErrForbidden  = errors.New("appointment belongs to another account")

	// errDuplicateRequest reports an insert rejected because the
	// idempotency key was already used for the clinic.
	errDuplicateRequest = errors.New("idempotency key already used")
)

// Reference codes avoid characters that are easy to misread.
const (
	referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	referenceLength   = 8
)

type Appointment struct {
	ID             uuid.UUID              `json:"id"`
	ClinicID       uuid.UUID              `json:"clinic_id"`
	ClinicName     string                 `json:"clinic_name,omitempty"`
	PatientID      *uuid.UUID             `json:"patient_id,omitempty"`
	PatientName    string                 `json:"patient_name"`
	PatientPhone   string                 `json:"patient_phone"`
	Date           availability.Date      `json:"date"`
	Time           availability.TimeOfDay `json:"time"`
	Status         availability.Status    `json:"status"`
	Reference      string                 `json:"reference"`
	IdempotencyKey *string                `json:"-"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// BookingRequest is what a patient submits. Time must be a slot start.
type BookingRequest struct {
	Date         availability.Date      `json:"date"`
	Time         availability.TimeOfDay `json:"time"`
	PatientName  string                 `json:"patient_name"`
	PatientPhone string                 `json:"patient_phone"`
}

// Booking is the result of Book. Created is false when the request
// replayed an idempotency key and Appointment is the one stored earlier.
type Booking struct {
	Appointment  *Appointment `json:"appointment"`
	WhatsAppLink string       `json:"whatsapp_link,omitempty"`
	Created      bool         `json:"created"`
}

// ListFilter narrows a clinic's appointment list. Zero values match all.
type ListFilter struct {
	From   availability.Date
	To     availability.Date
	Status availability.Status
}
