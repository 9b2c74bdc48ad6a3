package scheduling

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/moutazmahmoud/clinic-pwa/internal/domain/availability"
)

var (
	ErrValidation  = errors.New("invalid schedule")
	ErrSlotMissing = errors.New("unavailable slot not found")
)

// MaxCalendarDays bounds a calendar query.
const MaxCalendarDays = 31

var (
	placeholderStart = availability.MustTimeOfDay(9, 0)
	placeholderEnd   = availability.MustTimeOfDay(17, 0)
)

// Week is a clinic's recurring schedule, always seven rows Sunday first.
// Persisted is false when nothing has been saved yet and Days is the
// default proposal.
type Week struct {
	ClinicID            uuid.UUID                    `json:"clinic_id"`
	SlotDurationMinutes int                          `json:"slot_duration_minutes"`
	Days                []availability.ScheduleEntry `json:"days"`
	Persisted           bool                         `json:"persisted"`
}

// completeWeek fills the days missing from stored. With nothing stored it
// proposes Monday to Friday 09:00-17:00.
func completeWeek(stored []availability.ScheduleEntry) ([]availability.ScheduleEntry, bool) {
	byDay := make(map[availability.Weekday]availability.ScheduleEntry, len(stored))
	for _, e := range stored {
		byDay[e.Day] = e
	}
	persisted := len(stored) > 0

	days := make([]availability.ScheduleEntry, 0, 7)
	for d := availability.Sunday; d <= availability.Saturday; d++ {
		if e, ok := byDay[d]; ok {
			days = append(days, e)
			continue
		}
		weekday := d != availability.Sunday && d != availability.Saturday
		days = append(days, availability.ScheduleEntry{
			Day:      d,
			Start:    placeholderStart,
			End:      placeholderEnd,
			IsActive: !persisted && weekday,
		})
	}
	return days, persisted
}

// UnavailableSlot blocks part of one date.
type UnavailableSlot struct {
	ID        uuid.UUID              `json:"id"`
	ClinicID  uuid.UUID              `json:"clinic_id"`
	Date      availability.Date      `json:"date"`
	StartTime availability.TimeOfDay `json:"start_time"`
	EndTime   availability.TimeOfDay `json:"end_time"`
	Reason    *string                `json:"reason,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

func (u UnavailableSlot) Interval() availability.Interval {
	return availability.Interval{Start: u.StartTime, End: u.EndTime}
}

// Day is one entry of a calendar.
type Day struct {
	Date  availability.Date        `json:"date"`
	Open  bool                     `json:"open"`
	Slots []availability.TimeOfDay `json:"slots"`
}

// ClinicState is the clinic-level part of the availability context.
type ClinicState struct {
	SlotDurationMinutes int
	IsActive            bool
}
