package scheduling

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/moutazmahmoud/clinic-pwa/internal/domain/availability"
	"github.com/moutazmahmoud/clinic-pwa/internal/domain/clinic"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/cache"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/db"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/telemetry"
)

const (
	sourceCache = "cache"
	sourceStore = "store"
)

type Service struct {
	repo      Repository
	durations SlotDurationStore
	tx        db.Transactor
	cache     cache.Availability
	metrics   *telemetry.BookingMetrics
	loc       *time.Location
	now       func() time.Time
	tracer    trace.Tracer
	logger    zerolog.Logger
}

type Deps struct {
	Repo      Repository
	Durations SlotDurationStore
	Tx        db.Transactor
	Cache     cache.Availability
	Metrics   *telemetry.BookingMetrics
	Location  *time.Location
	Logger    zerolog.Logger
}

func NewService(d Deps) *Service {
	if d.Cache == nil {
		d.Cache = cache.Noop{}
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	return &Service{
		repo:      d.Repo,
		durations: d.Durations,
		tx:        d.Tx,
		cache:     d.Cache,
		metrics:   d.Metrics,
		loc:       d.Location,
		now:       time.Now,
		tracer:    otel.Tracer("github.com/moutazmahmoud/clinic-pwa/internal/domain/scheduling"),
		logger:    d.Logger,
	}
}

// Today is the current civil date in the clinic time zone.
func (s *Service) Today() availability.Date {
	return availability.DateOf(s.now().In(s.loc))
}

// -- Weekly schedule --

func (s *Service) GetWeek(ctx context.Context, clinicID uuid.UUID) (*Week, error) {
	st, err := s.repo.ClinicState(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	stored, err := s.repo.ListWeek(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	days, persisted := completeWeek(stored)
	return &Week{ClinicID: clinicID, SlotDurationMinutes: st.SlotDurationMinutes, Days: days, Persisted: persisted}, nil
}

func validateWeek(entries []availability.ScheduleEntry) error {
	if len(entries) == 0 || len(entries) > 7 {
		return fmt.Errorf("%w: expected between 1 and 7 days, got %d", ErrValidation, len(entries))
	}
	seen := make(map[availability.Weekday]bool, len(entries))
	for _, e := range entries {
		if !e.Day.Valid() {
			return fmt.Errorf("%w: day_of_week %d out of range", ErrValidation, int(e.Day))
		}
		if seen[e.Day] {
			return fmt.Errorf("%w: %s listed twice", ErrValidation, e.Day)
		}
		seen[e.Day] = true
		if !e.Start.Valid() || !e.End.Valid() {
			return fmt.Errorf("%w: %s has an invalid time", ErrValidation, e.Day)
		}
		if e.IsActive && e.Start >= e.End {
			return fmt.Errorf("%w: %s opens at %s but closes at %s", ErrValidation, e.Day, e.Start, e.End)
		}
	}
	return nil
}

// SaveWeek stores the given days and, when slotDuration is set, the clinic
// slot length, all in one transaction.
func (s *Service) SaveWeek(ctx context.Context, clinicID uuid.UUID, entries []availability.ScheduleEntry, slotDuration *int) (*Week, error) {
	if err := validateWeek(entries); err != nil {
		return nil, err
	}
	if slotDuration != nil {
		if err := clinic.ValidateSlotDuration(*slotDuration); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		for _, e := range entries {
			if err := s.repo.UpsertDay(ctx, clinicID, e); err != nil {
				return err
			}
		}
		if slotDuration != nil {
			if _, err := s.durations.UpdateSlotDuration(ctx, clinicID, *slotDuration); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, clinicID)
	s.logger.Info().Str("clinic_id", clinicID.String()).Int("days", len(entries)).Msg("weekly schedule saved")
	return s.GetWeek(ctx, clinicID)
}

// -- Unavailable slots --

type UnavailableInput struct {
	Date      availability.Date      `json:"date"`
	StartTime availability.TimeOfDay `json:"start_time"`
	EndTime   availability.TimeOfDay `json:"end_time"`
	Reason    string                 `json:"reason"`
}

func (s *Service) AddUnavailable(ctx context.Context, clinicID uuid.UUID, in UnavailableInput) (*UnavailableSlot, error) {
	if in.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrValidation)
	}
	if in.Date.Before(s.Today()) {
		return nil, fmt.Errorf("%w: %s is in the past", ErrValidation, in.Date)
	}
	if !in.StartTime.Valid() || !in.EndTime.Valid() || in.StartTime >= in.EndTime {
		return nil, fmt.Errorf("%w: start_time must be before end_time", ErrValidation)
	}
	u := &UnavailableSlot{ClinicID: clinicID, Date: in.Date, StartTime: in.StartTime, EndTime: in.EndTime}
	if r := strings.TrimSpace(in.Reason); r != "" {
		u.Reason = &r
	}
	if err := s.repo.AddUnavailable(ctx, u); err != nil {
		return nil, err
	}
	s.invalidate(ctx, clinicID, u.Date)
	return u, nil
}

// ListUnavailable returns blocks from from onwards; a zero from means today.
func (s *Service) ListUnavailable(ctx context.Context, clinicID uuid.UUID, from availability.Date) ([]*UnavailableSlot, error) {
	if from.IsZero() {
		from = s.Today()
	}
	return s.repo.ListUnavailable(ctx, clinicID, from)
}

func (s *Service) DeleteUnavailable(ctx context.Context, clinicID, id uuid.UUID) error {
	date, err := s.repo.DeleteUnavailable(ctx, clinicID, id)
	if err != nil {
		return err
	}
	s.invalidate(ctx, clinicID, date)
	return nil
}

// -- Availability --

// LoadInput gathers everything the engine needs for one clinic and date.
// Inside a transaction it reads through that transaction. An inactive
// clinic gets an empty schedule, which the engine treats as closed.
func (s *Service) LoadInput(ctx context.Context, clinicID uuid.UUID, date availability.Date) (availability.Input, error) {
	st, err := s.repo.ClinicState(ctx, clinicID)
	if err != nil {
		return availability.Input{}, err
	}
	in := availability.Input{SlotDuration: st.SlotDurationMinutes}
	if !st.IsActive {
		return in, nil
	}

	entry, err := s.repo.DayEntry(ctx, clinicID, date.Weekday())
	if err != nil {
		return in, err
	}
	if entry != nil {
		in.Schedule = []availability.ScheduleEntry{*entry}
	}
	if in.Exceptions, err = s.repo.Exceptions(ctx, clinicID, date); err != nil {
		return in, err
	}
	if in.Bookings, err = s.repo.Bookings(ctx, clinicID, date); err != nil {
		return in, err
	}
	return in, nil
}

// Availability lists the free slot starts of a clinic on date. Past dates
// are empty and on the current date slots that already started are dropped.
func (s *Service) Availability(ctx context.Context, clinicID uuid.UUID, date availability.Date) ([]availability.TimeOfDay, error) {
	ctx, span := s.tracer.Start(ctx, "scheduling.Availability", trace.WithAttributes(
		attribute.String("clinic.id", clinicID.String()),
		attribute.String("date", date.String()),
	))
	defer span.End()

	now := s.now().In(s.loc)
	today := availability.DateOf(now)
	if date.Before(today) {
		// Still reject unknown clinics.
		if _, err := s.repo.ClinicState(ctx, clinicID); err != nil {
			return nil, err
		}
		return []availability.TimeOfDay{}, nil
	}

	slots, source, err := s.slots(ctx, clinicID, date)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("source", source), attribute.Int("slots", len(slots)))

	if date == today {
		cutoff := availability.TimeOfDay(now.Hour()*60 + now.Minute())
		slots = slices.DeleteFunc(slices.Clone(slots), func(t availability.TimeOfDay) bool { return t < cutoff })
	}
	return slots, nil
}

func (s *Service) slots(ctx context.Context, clinicID uuid.UUID, date availability.Date) ([]availability.TimeOfDay, string, error) {
	if cached, ok, err := s.cache.Get(ctx, clinicID, date); err != nil {
		s.logger.Warn().Err(err).Msg("availability cache read failed")
	} else if ok {
		s.metrics.ObserveLookup(sourceCache, len(cached))
		return cached, sourceCache, nil
	}

	version, verr := s.cache.Version(ctx, clinicID)
	if verr != nil {
		s.logger.Warn().Err(verr).Msg("availability cache version read failed")
	}
	in, err := s.LoadInput(ctx, clinicID, date)
	if err != nil {
		return nil, "", err
	}
	slots, err := availability.ListAvailableSlots(in, date)
	if err != nil {
		return nil, "", err
	}
	if slots == nil {
		slots = []availability.TimeOfDay{}
	}
	if verr == nil {
		if err := s.cache.Set(ctx, clinicID, date, version, slots); err != nil {
			s.logger.Warn().Err(err).Msg("availability cache write failed")
		}
	}
	s.metrics.ObserveLookup(sourceStore, len(slots))
	return slots, sourceStore, nil
}

// Calendar returns availability for every date in [from, to].
func (s *Service) Calendar(ctx context.Context, clinicID uuid.UUID, from, to availability.Date) ([]Day, error) {
	if from.IsZero() {
		from = s.Today()
	}
	if to.IsZero() {
		to = from.AddDays(6)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: to is before from", ErrValidation)
	}
	if n := from.DaysUntil(to) + 1; n > MaxCalendarDays {
		return nil, fmt.Errorf("%w: at most %d days per calendar, asked for %d", ErrValidation, MaxCalendarDays, n)
	}

	st, err := s.repo.ClinicState(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	stored, err := s.repo.ListWeek(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	openDays := make(map[availability.Weekday]bool, len(stored))
	for _, e := range stored {
		openDays[e.Day] = st.IsActive && e.IsActive
	}

	days := make([]Day, 0, from.DaysUntil(to)+1)
	for d := from; !d.After(to); d = d.AddDays(1) {
		slots, err := s.Availability(ctx, clinicID, d)
		if err != nil {
			return nil, err
		}
		days = append(days, Day{Date: d, Open: openDays[d.Weekday()], Slots: slots})
	}
	return days, nil
}

// Invalidate drops cached availability for the clinic, for the given dates
// or all of them.
func (s *Service) Invalidate(ctx context.Context, clinicID uuid.UUID, dates ...availability.Date) {
	s.invalidate(ctx, clinicID, dates...)
}

func (s *Service) invalidate(ctx context.Context, clinicID uuid.UUID, dates ...availability.Date) {
	if err := s.cache.Invalidate(ctx, clinicID, dates...); err != nil {
		s.logger.Warn().Err(err).Str("clinic_id", clinicID.String()).Msg("availability cache invalidation failed")
	}
}
