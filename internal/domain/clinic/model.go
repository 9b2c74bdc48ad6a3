package clinic

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/moutazmahmoud/clinic-pwa/internal/domain/availability"
)

var (
	ErrNotFound   = errors.New("clinic not found")
	ErrValidation = errors.New("invalid clinic")
	ErrSlugTaken  = errors.New("clinic slug already in use")
	ErrOwnerTaken = errors.New("owner email already linked to a clinic")
)

type Clinic struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	Slug                string    `json:"slug"`
	Specialty           string    `json:"specialty"`
	Area                string    `json:"area"`
	Phone               string    `json:"phone"`
	Email               string    `json:"email"`
	OwnerEmail          *string   `json:"owner_email,omitempty"`
	Bio                 string    `json:"bio"`
	ImageURL            string    `json:"image_url"`
	Address             string    `json:"address"`
	WorkingHours        string    `json:"working_hours"`
	SlotDurationMinutes int       `json:"slot_duration_minutes"`
	IsActive            bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// OwnedBy reports whether email is the clinic's owner login.
func (c *Clinic) OwnedBy(email string) bool {
	return c.OwnerEmail != nil && email != "" && *c.OwnerEmail == email
}

// Profile is the owner-editable part of a clinic.
type Profile struct {
	Name         string `json:"name"`
	Specialty    string `json:"specialty"`
	Area         string `json:"area"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Bio          string `json:"bio"`
	ImageURL     string `json:"image_url"`
	Address      string `json:"address"`
	WorkingHours string `json:"working_hours"`
}

type SearchFilter struct {
	Area      string
	Specialty string
}

type Filters struct {
	Areas       []string `json:"areas"`
	Specialties []string `json:"specialties"`
}

// ValidateSlotDuration accepts whole multiples of five minutes from five
// minutes up to a full day.
func ValidateSlotDuration(minutes int) error {
	if err := availability.ValidateSlotDuration(minutes); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if minutes%availability.MinSlotDuration != 0 {
		return fmt.Errorf("%w: slot duration must be a multiple of %d minutes", ErrValidation, availability.MinSlotDuration)
	}
	return nil
}
