// Package availability computes bookable appointment slots for a clinic from
// its weekly hours, its blocked ranges and its existing bookings.
//
// Everything here is a pure function of its arguments. Callers fetch the
// inputs (usually inside the booking transaction) and pass them in; the
// package keeps no state between calls.
package availability

import (
	"fmt"
	"iter"
	"slices"
)

const (
	MinSlotDuration     = 5
	DefaultSlotDuration = 30
)

// ScheduleEntry is the recurring opening window for one day of the week.
type ScheduleEntry struct {
	Day      Weekday   `json:"day_of_week"`
	Start    TimeOfDay `json:"start_time"`
	End      TimeOfDay `json:"end_time"`
	IsActive bool      `json:"is_active"`
}

// Booking is an existing appointment start on the queried date.
type Booking struct {
	Time   TimeOfDay
	Status Status
}

// Input is everything needed to answer availability for one clinic on one
// date: the weekly schedule, the slot length, the blocked ranges for that
// date and the appointments already booked on that date.
type Input struct {
	Schedule     []ScheduleEntry
	SlotDuration int
	Exceptions   []Interval
	Bookings     []Booking
}

// ValidateSlotDuration checks a clinic's slot length.
func ValidateSlotDuration(minutes int) error {
	if minutes < MinSlotDuration {
		return fmt.Errorf("%w: slot duration %d is below %d minutes", ErrInvalidConfiguration, minutes, MinSlotDuration)
	}
	if minutes > MinutesPerDay {
		return fmt.Errorf("%w: slot duration %d exceeds one day", ErrInvalidConfiguration, minutes)
	}
	return nil
}

// entryFor returns the open window for day. ok is false when the clinic is
// closed: no entry, or an inactive one.
func (in Input) entryFor(day Weekday) (entry ScheduleEntry, ok bool, err error) {
	found := false
	for _, e := range in.Schedule {
		if !e.Day.Valid() {
			return ScheduleEntry{}, false, fmt.Errorf("%w: %s", ErrInvalidConfiguration, e.Day)
		}
		if e.Day != day {
			continue
		}
		if found {
			return ScheduleEntry{}, false, fmt.Errorf("%w: duplicate schedule entry for %s", ErrInvalidConfiguration, day)
		}
		entry, found = e, true
	}
	if !found || !entry.IsActive {
		return ScheduleEntry{}, false, nil
	}
	if !entry.Start.Valid() || !entry.End.Valid() || entry.Start >= entry.End {
		return ScheduleEntry{}, false, fmt.Errorf("%w: %s opens %s and closes %s", ErrInvalidConfiguration, day, entry.Start, entry.End)
	}
	if err := ValidateSlotDuration(in.SlotDuration); err != nil {
		return ScheduleEntry{}, false, err
	}
	return entry, true, nil
}

func (in Input) takenStarts() map[TimeOfDay]struct{} {
	taken := make(map[TimeOfDay]struct{}, len(in.Bookings))
	for _, b := range in.Bookings {
		if b.Status.Active() {
			taken[b.Time] = struct{}{}
		}
	}
	return taken
}

// Slots returns the available slot starts on date in ascending order. The
// sequence is finite and may be ranged over any number of times with the same
// result. A closed day yields an empty sequence and no error.
func Slots(in Input, date Date) (iter.Seq[TimeOfDay], error) {
	entry, open, err := in.entryFor(date.Weekday())
	if err != nil {
		return nil, err
	}
	if !open {
		return func(func(TimeOfDay) bool) {}, nil
	}

	blocked := MergeIntervals(in.Exceptions)
	taken := in.takenStarts()
	dur := in.SlotDuration

	return func(yield func(TimeOfDay) bool) {
		next := 0
		for start := entry.Start; start.Add(dur) <= entry.End; start = start.Add(dur) {
			slot := Interval{Start: start, End: start.Add(dur)}
			// blocked is sorted and disjoint, so ranges ending before this
			// slot can never matter again.
			for next < len(blocked) && blocked[next].End <= slot.Start {
				next++
			}
			if next < len(blocked) && blocked[next].Overlaps(slot) {
				continue
			}
			if _, ok := taken[start]; ok {
				continue
			}
			if !yield(start) {
				return
			}
		}
	}, nil
}

// ListAvailableSlots is Slots collected into a slice.
func ListAvailableSlots(in Input, date Date) ([]TimeOfDay, error) {
	seq, err := Slots(in, date)
	if err != nil {
		return nil, err
	}
	return slices.Collect(seq), nil
}

// ValidateBooking reports whether t on date is currently bookable. The
// checks run in order: closed day, configuration, working hours, slot
// alignment, blocked ranges, existing bookings. A nil result means t would
// be returned by Slots for the same input.
func ValidateBooking(in Input, date Date, t TimeOfDay) error {
	entry, open, err := in.entryFor(date.Weekday())
	if err != nil {
		return err
	}
	if !open {
		return fmt.Errorf("%w: %s (%s)", ErrClinicClosed, date, date.Weekday())
	}

	dur := in.SlotDuration
	if t < entry.Start || t.Add(dur) > entry.End {
		return fmt.Errorf("%w: %s is not within %s-%s", ErrOutsideWorkingHours, t, entry.Start, entry.End)
	}
	if (t-entry.Start).Minutes()%dur != 0 {
		return fmt.Errorf("%w: %s with %d minute slots from %s", ErrMisalignedTime, t, dur, entry.Start)
	}

	slot := Interval{Start: t, End: t.Add(dur)}
	for _, b := range MergeIntervals(in.Exceptions) {
		if b.Overlaps(slot) {
			return fmt.Errorf("%w: %s overlaps %s", ErrSlotBlocked, slot, b)
		}
	}
	if _, ok := in.takenStarts()[t]; ok {
		return fmt.Errorf("%w: %s on %s", ErrSlotTaken, t, date)
	}
	return nil
}
