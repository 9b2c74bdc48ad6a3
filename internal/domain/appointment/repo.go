package appointment

import (
	"context"

	"github.com/google/uuid"

	"github.com/moutazmahmoud/clinic-pwa/internal/domain/availability"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/notify"
)

type Repository interface {
	// Insert stores a pending appointment. It returns
	// availability.ErrSlotTaken when an active appointment already holds
	// the slot.
	Insert(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetByIdempotencyKey(ctx context.Context, clinicID uuid.UUID, key string) (*Appointment, error)
	// GetForUpdate reads and row-locks the appointment inside a transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status availability.Status) (*Appointment, error)
	ListByClinic(ctx context.Context, clinicID uuid.UUID, f ListFilter, limit, offset int) ([]*Appointment, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	LoadForNotification(ctx context.Context, id uuid.UUID) (notify.Appointment, error)
}
