package scheduling

import (
	"context"

	"github.com/google/uuid"

	"github.com/moutazmahmoud/clinic-pwa/internal/domain/availability"
	"github.com/moutazmahmoud/clinic-pwa/internal/domain/clinic"
)

type Repository interface {
	ClinicState(ctx context.Context, clinicID uuid.UUID) (ClinicState, error)
	ListWeek(ctx context.Context, clinicID uuid.UUID) ([]availability.ScheduleEntry, error)
	DayEntry(ctx context.Context, clinicID uuid.UUID, day availability.Weekday) (*availability.ScheduleEntry, error)
	UpsertDay(ctx context.Context, clinicID uuid.UUID, e availability.ScheduleEntry) error

	AddUnavailable(ctx context.Context, u *UnavailableSlot) error
	ListUnavailable(ctx context.Context, clinicID uuid.UUID, from availability.Date) ([]*UnavailableSlot, error)
	// DeleteUnavailable returns the date the removed range was on.
	DeleteUnavailable(ctx context.Context, clinicID, id uuid.UUID) (availability.Date, error)
	Exceptions(ctx context.Context, clinicID uuid.UUID, date availability.Date) ([]availability.Interval, error)

	// Bookings returns the appointments on date whose status occupies a slot.
	Bookings(ctx context.Context, clinicID uuid.UUID, date availability.Date) ([]availability.Booking, error)
}

// SlotDurationStore updates the clinic's slot length inside a schedule save.
type SlotDurationStore interface {
	UpdateSlotDuration(ctx context.Context, id uuid.UUID, minutes int) (*clinic.Clinic, error)
}
