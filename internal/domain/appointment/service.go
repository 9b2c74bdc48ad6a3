package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/moutazmahmoud/clinic-pwa/internal/domain/availability"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/db"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/notify"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/phone"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/telemetry"
)

// Availability is what booking needs from the scheduling service.
type Availability interface {
	// LoadInput reads through the transaction carried by ctx, if any.
	LoadInput(ctx context.Context, clinicID uuid.UUID, date availability.Date) (availability.Input, error)
	Invalidate(ctx context.Context, clinicID uuid.UUID, dates ...availability.Date)
}

type Service struct {
	repo     Repository
	avail    Availability
	tx       db.Transactor
	enqueuer notify.Enqueuer
	metrics  *telemetry.BookingMetrics
	region   string
	loc      *time.Location
	now      func() time.Time
	tracer   trace.Tracer
	logger   zerolog.Logger
}

type Deps struct {
	Repo         Repository
	Availability Availability
	Tx           db.Transactor
	Enqueuer     notify.Enqueuer
	Metrics      *telemetry.BookingMetrics
	PhoneRegion  string
	Location     *time.Location
	Logger       zerolog.Logger
}

func NewService(d Deps) *Service {
	if d.Enqueuer == nil {
		d.Enqueuer = notify.NoopEnqueuer{}
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	return &Service{
		repo:     d.Repo,
		avail:    d.Availability,
		tx:       d.Tx,
		enqueuer: d.Enqueuer,
		metrics:  d.Metrics,
		region:   d.PhoneRegion,
		loc:      d.Location,
		now:      time.Now,
		tracer:   otel.Tracer("github.com/moutazmahmoud/clinic-pwa/internal/domain/appointment"),
		logger:   d.Logger,
	}
}

func newReference() (string, error) {
	return gonanoid.Generate(referenceAlphabet, referenceLength)
}

// checkNotPast rejects dates before today and, on today, slots that have
// already started.
func (s *Service) checkNotPast(date availability.Date, t availability.TimeOfDay) error {
	now := s.now().In(s.loc)
	today := availability.DateOf(now)
	cutoff := availability.TimeOfDay(now.Hour()*60 + now.Minute())
	if date.Before(today) || (date == today && t < cutoff) {
		return fmt.Errorf("%w: %s %s is in the past", ErrValidation, date, t)
	}
	return nil
}

func (s *Service) normalize(req BookingRequest) (BookingRequest, error) {
	req.PatientName = strings.TrimSpace(req.PatientName)
	if req.PatientName == "" {
		return req, fmt.Errorf("%w: patient_name is required", ErrValidation)
	}
	p, err := phone.Normalize(req.PatientPhone, s.region)
	if err != nil {
		return req, fmt.Errorf("%w: patient_phone: %v", ErrValidation, err)
	}
	req.PatientPhone = p
	if req.Date.IsZero() {
		return req, fmt.Errorf("%w: date is required", ErrValidation)
	}
	if !req.Time.Valid() {
		return req, fmt.Errorf("%w: time is out of range", ErrValidation)
	}
	return req, s.checkNotPast(req.Date, req.Time)
}

func outcome(err error) string {
	if code := availability.Code(err); code != "" {
		return code
	}
	if errors.Is(err, ErrValidation) {
		return "invalid"
	}
	return "error"
}

// Book creates a pending appointment for req when the slot is free. A
// non-empty idempotencyKey that was already used for the clinic returns the
// stored appointment with Created false.
func (s *Service) Book(ctx context.Context, clinicID uuid.UUID, req BookingRequest, patientID *uuid.UUID, idempotencyKey string) (*Booking, error) {
	ctx, span := s.tracer.Start(ctx, "appointment.Book", trace.WithAttributes(
		attribute.String("clinic.id", clinicID.String()),
		attribute.String("date", req.Date.String()),
	))
	defer span.End()

	b, err := s.book(ctx, clinicID, req, patientID, strings.TrimSpace(idempotencyKey))
	if err != nil {
		s.metrics.ObserveBooking(outcome(err))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if b.Created {
		s.metrics.ObserveBooking("created")
	} else {
		s.metrics.ObserveBooking("replayed")
	}
	span.SetAttributes(attribute.String("appointment.id", b.Appointment.ID.String()), attribute.Bool("created", b.Created))
	return b, nil
}

func (s *Service) book(ctx context.Context, clinicID uuid.UUID, req BookingRequest, patientID *uuid.UUID, key string) (*Booking, error) {
	req, err := s.normalize(req)
	if err != nil {
		return nil, err
	}

	if key != "" {
		if b, err := s.replay(ctx, clinicID, key); err == nil || !errors.Is(err, ErrNotFound) {
			return b, err
		}
	}

	ref, err := newReference()
	if err != nil {
		return nil, fmt.Errorf("generate reference: %w", err)
	}
	a := &Appointment{
		ClinicID:     clinicID,
		PatientID:    patientID,
		PatientName:  req.PatientName,
		PatientPhone: req.PatientPhone,
		Date:         req.Date,
		Time:         req.Time,
		Status:       availability.StatusPending,
		Reference:    ref,
	}
	if key != "" {
		a.IdempotencyKey = &key
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		in, err := s.avail.LoadInput(ctx, clinicID, req.Date)
		if err != nil {
			return err
		}
		if err := availability.ValidateBooking(in, req.Date, req.Time); err != nil {
			return err
		}
		return s.repo.Insert(ctx, a)
	})
	if errors.Is(err, errDuplicateRequest) {
		// A concurrent request with the same key won the insert.
		return s.replay(ctx, clinicID, key)
	}
	if key != "" && errors.Is(err, availability.ErrSlotTaken) {
		// The slot may be held by the request this one retries. The
		// active-slot index fires before the idempotency index does.
		if b, rerr := s.replay(ctx, clinicID, key); rerr == nil {
			return b, nil
		}
	}
	if err != nil {
		return nil, err
	}

	s.avail.Invalidate(ctx, clinicID, a.Date)
	log := s.logger.With().Str("appointment_id", a.ID.String()).Str("clinic_id", clinicID.String()).Logger()
	if err := s.enqueuer.Booked(ctx, a.ID); err != nil {
		log.Warn().Err(err).Msg("enqueue booking notification failed")
	}
	if err := s.enqueuer.ScheduleReminder(ctx, a.ID, a.Date.At(a.Time, s.loc)); err != nil {
		log.Warn().Err(err).Msg("schedule reminder failed")
	}
	log.Info().Str("reference", a.Reference).Str("date", a.Date.String()).Str("time", a.Time.String()).Msg("appointment booked")

	return &Booking{Appointment: a, WhatsAppLink: s.confirmationLink(ctx, a), Created: true}, nil
}

func (s *Service) replay(ctx context.Context, clinicID uuid.UUID, key string) (*Booking, error) {
	a, err := s.repo.GetByIdempotencyKey(ctx, clinicID, key)
	if err != nil {
		return nil, err
	}
	return &Booking{Appointment: a, WhatsAppLink: s.confirmationLink(ctx, a), Created: false}, nil
}

func (s *Service) confirmationLink(ctx context.Context, a *Appointment) string {
	n, err := s.repo.LoadForNotification(ctx, a.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("appointment_id", a.ID.String()).Msg("load confirmation details failed")
		return ""
	}
	a.ClinicName = n.ClinicName
	return notify.ConfirmationLink(n)
}

// Validate reports whether req could be booked right now without writing
// anything. Patient details are not checked.
func (s *Service) Validate(ctx context.Context, clinicID uuid.UUID, date availability.Date, t availability.TimeOfDay) error {
	if date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	if err := s.checkNotPast(date, t); err != nil {
		return err
	}
	in, err := s.avail.LoadInput(ctx, clinicID, date)
	if err != nil {
		return err
	}
	return availability.ValidateBooking(in, date, t)
}

// -- Status workflow --

// UpdateStatus moves an appointment of clinicID to status to.
func (s *Service) UpdateStatus(ctx context.Context, clinicID, id uuid.UUID, to availability.Status) (*Appointment, error) {
	return s.transition(ctx, id, to, func(a *Appointment) error {
		if a.ClinicID != clinicID {
			return ErrForbidden
		}
		return nil
	})
}

// Cancel cancels one of the patient's own appointments.
func (s *Service) Cancel(ctx context.Context, patientID, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, availability.StatusCancelled, func(a *Appointment) error {
		if a.PatientID == nil || *a.PatientID != patientID {
			return ErrForbidden
		}
		return nil
	})
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, to availability.Status, authorize func(*Appointment) error) (*Appointment, error) {
	if _, err := availability.ParseStatus(string(to)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var (
		from    availability.Status
		updated *Appointment
	)
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := authorize(a); err != nil {
			return err
		}
		if _, err := a.Status.Transition(to); err != nil {
			return err
		}
		from = a.Status
		updated, err = s.repo.UpdateStatus(ctx, id, to)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveTransition(string(from), string(to))
	if from.Active() != to.Active() {
		s.avail.Invalidate(ctx, updated.ClinicID, updated.Date)
	}
	if err := s.enqueuer.StatusChanged(ctx, id, from, to); err != nil {
		s.logger.Warn().Err(err).Str("appointment_id", id.String()).Msg("enqueue status notification failed")
	}
	s.logger.Info().Str("appointment_id", id.String()).Str("from", string(from)).Str("to", string(to)).Msg("appointment status changed")
	return updated, nil
}

// -- Listings --

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByClinic(ctx context.Context, clinicID uuid.UUID, f ListFilter, limit, offset int) ([]*Appointment, int, error) {
	if f.Status != "" {
		if _, err := availability.ParseStatus(string(f.Status)); err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return nil, 0, fmt.Errorf("%w: to is before from", ErrValidation)
	}
	return s.repo.ListByClinic(ctx, clinicID, f, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}
