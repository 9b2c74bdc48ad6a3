package availability

import "errors"

// Booking outcomes. Callers branch on these with errors.Is to pick a
// user-facing message; none of them indicates a broken process.
var (
	ErrInvalidConfiguration    = errors.New("invalid schedule configuration")
	ErrClinicClosed            = errors.New("clinic is closed on that day")
	ErrOutsideWorkingHours     = errors.New("time is outside working hours")
	ErrSlotBlocked             = errors.New("slot is blocked by the clinic")
	ErrSlotTaken               = errors.New("slot is already booked")
	ErrMisalignedTime          = errors.New("time does not fall on a slot boundary")
	ErrInvalidStatusTransition = errors.New("invalid appointment status transition")
)

// Code returns a stable machine-readable code for one of the package
// errors, or "" when err is not one of them.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidConfiguration):
		return "invalid_configuration"
	case errors.Is(err, ErrClinicClosed):
		return "clinic_closed"
	case errors.Is(err, ErrOutsideWorkingHours):
		return "outside_working_hours"
	case errors.Is(err, ErrSlotBlocked):
		return "slot_blocked"
	case errors.Is(err, ErrSlotTaken):
		return "slot_taken"
	case errors.Is(err, ErrMisalignedTime):
		return "misaligned_time"
	case errors.Is(err, ErrInvalidStatusTransition):
		return "invalid_status_transition"
	}
	return ""
}
