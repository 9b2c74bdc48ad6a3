package appointment

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/moutazmahmoud/clinic-pwa/internal/domain/availability"
	"github.com/moutazmahmoud/clinic-pwa/internal/domain/clinic"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/notify"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/telemetry"
)

// -- Mock Repository --

type mockRepo struct {
	appointments map[uuid.UUID]*Appointment
	insertErr    error
	// hideKeys makes GetByIdempotencyKey miss once, as if a concurrent
	// request inserted the row after the lookup.
	hideKeys int
}

func newMockRepo() *mockRepo {
	return &mockRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Insert(_ context.Context, a *Appointment) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	for _, o := range m.appointments {
		if o.ClinicID != a.ClinicID {
			continue
		}
		if o.Status.Active() && o.Date == a.Date && o.Time == a.Time {
			return fmt.Errorf("%w: %s on %s", availability.ErrSlotTaken, a.Time, a.Date)
		}
		if a.IdempotencyKey != nil && o.IdempotencyKey != nil && *o.IdempotencyKey == *a.IdempotencyKey {
			return errDuplicateRequest
		}
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.appointments[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) GetByIdempotencyKey(_ context.Context, clinicID uuid.UUID, key string) (*Appointment, error) {
	if m.hideKeys > 0 {
		m.hideKeys--
		return nil, ErrNotFound
	}
	for _, a := range m.appointments {
		if a.ClinicID == clinicID && a.IdempotencyKey != nil && *a.IdempotencyKey == key {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return m.GetByID(ctx, id)
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, status availability.Status) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (m *mockRepo) filter(keep func(*Appointment) bool, limit, offset int) ([]*Appointment, int) {
	var out []*Appointment
	for _, a := range m.appointments {
		if keep(a) {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b *Appointment) int {
		if a.Date != b.Date {
			return b.Date.DaysUntil(a.Date)
		}
		return int(a.Time - b.Time)
	})
	total := len(out)
	if offset >= total {
		return nil, total
	}
	return out[offset:min(offset+limit, total)], total
}

func (m *mockRepo) ListByClinic(_ context.Context, clinicID uuid.UUID, f ListFilter, limit, offset int) ([]*Appointment, int, error) {
	items, total := m.filter(func(a *Appointment) bool {
		return a.ClinicID == clinicID &&
			(f.From.IsZero() || !a.Date.Before(f.From)) &&
			(f.To.IsZero() || !a.Date.After(f.To)) &&
			(f.Status == "" || a.Status == f.Status)
	}, limit, offset)
	return items, total, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	items, total := m.filter(func(a *Appointment) bool {
		return a.PatientID != nil && *a.PatientID == patientID
	}, limit, offset)
	return items, total, nil
}

func (m *mockRepo) LoadForNotification(_ context.Context, id uuid.UUID) (notify.Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return notify.Appointment{}, notify.ErrAppointmentGone
	}
	return notify.Appointment{
		ID: a.ID, Reference: a.Reference, ClinicName: "Nile Dental", ClinicPhone: "+20 2 2345 6789",
		PatientName: a.PatientName, PatientPhone: a.PatientPhone, Date: a.Date, Time: a.Time, Status: a.Status,
	}, nil
}

// fakeAvailability serves a fixed weekly schedule and takes bookings from
// the mock repository, like the scheduling service reading the same store.
type fakeAvailability struct {
	repo        *mockRepo
	clinics     map[uuid.UUID]availability.Input
	invalidated []availability.Date
}

func (f *fakeAvailability) LoadInput(_ context.Context, clinicID uuid.UUID, date availability.Date) (availability.Input, error) {
	in, ok := f.clinics[clinicID]
	if !ok {
		return availability.Input{}, clinic.ErrNotFound
	}
	for _, a := range f.repo.appointments {
		if a.ClinicID == clinicID && a.Date == date {
			in.Bookings = append(in.Bookings, availability.Booking{Time: a.Time, Status: a.Status})
		}
	}
	return in, nil
}

func (f *fakeAvailability) Invalidate(_ context.Context, _ uuid.UUID, dates ...availability.Date) {
	f.invalidated = append(f.invalidated, dates...)
}

type passthroughTx struct{}

func (passthroughTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type statusChange struct {
	id       uuid.UUID
	from, to availability.Status
}

type recordingEnqueuer struct {
	booked    []uuid.UUID
	changes   []statusChange
	reminders map[uuid.UUID]time.Time
}

func (r *recordingEnqueuer) Booked(_ context.Context, id uuid.UUID) error {
	r.booked = append(r.booked, id)
	return nil
}

func (r *recordingEnqueuer) StatusChanged(_ context.Context, id uuid.UUID, from, to availability.Status) error {
	r.changes = append(r.changes, statusChange{id, from, to})
	return nil
}

func (r *recordingEnqueuer) ScheduleReminder(_ context.Context, id uuid.UUID, visit time.Time) error {
	r.reminders[id] = visit
	return nil
}

// Monday 2024-01-01 08:00 UTC.
var fixedNow = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

var (
	monday  = availability.Date{Year: 2024, Month: time.January, Day: 1}
	tuesday = monday.AddDays(1)
	sunday  = monday.AddDays(6)
)

func at(h, m int) availability.TimeOfDay { return availability.MustTimeOfDay(h, m) }

type fixture struct {
	svc      *Service
	repo     *mockRepo
	avail    *fakeAvailability
	enqueuer *recordingEnqueuer
	registry *prometheus.Registry
	clinicID uuid.UUID
}

func newFixture() fixture {
	repo := newMockRepo()
	clinicID := uuid.New()
	var week []availability.ScheduleEntry
	for d := availability.Monday; d <= availability.Friday; d++ {
		week = append(week, availability.ScheduleEntry{Day: d, Start: at(9, 0), End: at(12, 0), IsActive: true})
	}
	avail := &fakeAvailability{repo: repo, clinics: map[uuid.UUID]availability.Input{
		clinicID: {
			Schedule:     week,
			SlotDuration: 30,
			Exceptions:   []availability.Interval{{Start: at(11, 0), End: at(11, 15)}},
		},
	}}
	enq := &recordingEnqueuer{reminders: make(map[uuid.UUID]time.Time)}
	reg := prometheus.NewRegistry()
	svc := NewService(Deps{
		Repo:         repo,
		Availability: avail,
		Tx:           passthroughTx{},
		Enqueuer:     enq,
		Metrics:      telemetry.NewBookingMetrics(reg),
		PhoneRegion:  "EG",
		Logger:       zerolog.Nop(),
	})
	svc.now = func() time.Time { return fixedNow }
	return fixture{svc: svc, repo: repo, avail: avail, enqueuer: enq, registry: reg, clinicID: clinicID}
}

func request(date availability.Date, t availability.TimeOfDay) BookingRequest {
	return BookingRequest{Date: date, Time: t, PatientName: " Sara Ali ", PatientPhone: "0100 123 4567"}
}

// attempts reads clinic_booking_attempts_total for outcome.
func attempts(t *testing.T, reg *prometheus.Registry, outcome string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range families {
		if mf.GetName() != "clinic_booking_attempts_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "outcome" && l.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

// -- Tests --

func TestBook(t *testing.T) {
	f := newFixture()
	patientID := uuid.New()

	b, err := f.svc.Book(context.Background(), f.clinicID, request(tuesday, at(9, 30)), &patientID, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := b.Appointment
	if !b.Created || a.Status != availability.StatusPending {
		t.Errorf("unexpected booking %+v", b)
	}
	if a.PatientName != "Sara Ali" || a.PatientPhone != "+201001234567" {
		t.Errorf("patient details not normalised: %q %q", a.PatientName, a.PatientPhone)
	}
	if len(a.Reference) != referenceLength || strings.Trim(a.Reference, referenceAlphabet) != "" {
		t.Errorf("bad reference %q", a.Reference)
	}
	if a.PatientID == nil || *a.PatientID != patientID {
		t.Error("patient id not attached")
	}
	if a.ClinicName != "Nile Dental" {
		t.Errorf("expected clinic name on the result, got %q", a.ClinicName)
	}
	if !strings.HasPrefix(b.WhatsAppLink, "https://wa.me/20223456789?text=") || !strings.Contains(b.WhatsAppLink, a.Reference) {
		t.Errorf("unexpected link %q", b.WhatsAppLink)
	}

	if !slices.Equal(f.enqueuer.booked, []uuid.UUID{a.ID}) {
		t.Errorf("expected one booked notification, got %v", f.enqueuer.booked)
	}
	if want := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC); !f.enqueuer.reminders[a.ID].Equal(want) {
		t.Errorf("reminder visit = %v, want %v", f.enqueuer.reminders[a.ID], want)
	}
	if !slices.Equal(f.avail.invalidated, []availability.Date{tuesday}) {
		t.Errorf("expected Tuesday invalidated, got %v", f.avail.invalidated)
	}
	if got := attempts(t, f.registry, "created"); got != 1 {
		t.Errorf("created counter = %v", got)
	}
}

func TestBook_Validation(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name string
		req  BookingRequest
	}{
		{"no name", BookingRequest{Date: tuesday, Time: at(9, 0), PatientName: "  ", PatientPhone: "01001234567"}},
		{"bad phone", BookingRequest{Date: tuesday, Time: at(9, 0), PatientName: "Sara", PatientPhone: "123"}},
		{"no date", BookingRequest{Time: at(9, 0), PatientName: "Sara", PatientPhone: "01001234567"}},
		{"past date", request(monday.AddDays(-7), at(9, 0))},
		{"time out of range", request(tuesday, availability.TimeOfDay(-5))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Book(context.Background(), f.clinicID, tt.req, nil, ""); !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
	if len(f.repo.appointments) != 0 {
		t.Error("nothing should be stored")
	}
	if got := attempts(t, f.registry, "invalid"); got != float64(len(tests)) {
		t.Errorf("invalid counter = %v", got)
	}
}

func TestBook_StartedSlotToday(t *testing.T) {
	f := newFixture()
	f.svc.now = func() time.Time { return time.Date(2024, 1, 1, 9, 40, 0, 0, time.UTC) }

	if _, err := f.svc.Book(context.Background(), f.clinicID, request(monday, at(9, 30)), nil, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for a started slot, got %v", err)
	}
	if _, err := f.svc.Book(context.Background(), f.clinicID, request(monday, at(10, 0)), nil, ""); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBook_EngineOutcomes(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.Book(context.Background(), f.clinicID, request(tuesday, at(10, 0)), nil, ""); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		req  BookingRequest
		want error
	}{
		{"closed day", request(sunday, at(10, 0)), availability.ErrClinicClosed},
		{"outside hours", request(tuesday, at(12, 0)), availability.ErrOutsideWorkingHours},
		{"misaligned", request(tuesday, at(9, 10)), availability.ErrMisalignedTime},
		{"blocked", request(tuesday, at(11, 0)), availability.ErrSlotBlocked},
		{"taken", request(tuesday, at(10, 0)), availability.ErrSlotTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Book(context.Background(), f.clinicID, tt.req, nil, ""); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if len(f.repo.appointments) != 1 {
		t.Errorf("expected only the first booking stored, got %d", len(f.repo.appointments))
	}
	if got := attempts(t, f.registry, "slot_taken"); got != 1 {
		t.Errorf("slot_taken counter = %v", got)
	}
}

func TestBook_UnknownClinic(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.Book(context.Background(), uuid.New(), request(tuesday, at(9, 0)), nil, ""); !errors.Is(err, clinic.ErrNotFound) {
		t.Errorf("expected clinic.ErrNotFound, got %v", err)
	}
}

func TestBook_SlotTakenByUniqueIndex(t *testing.T) {
	f := newFixture()
	f.repo.insertErr = fmt.Errorf("%w: 09:00 on 2024-01-02", availability.ErrSlotTaken)

	if _, err := f.svc.Book(context.Background(), f.clinicID, request(tuesday, at(9, 0)), nil, ""); !errors.Is(err, availability.ErrSlotTaken) {
		t.Errorf("expected ErrSlotTaken, got %v", err)
	}
	if len(f.enqueuer.booked) != 0 || len(f.avail.invalidated) != 0 {
		t.Error("a failed booking must not notify or invalidate")
	}
}

func TestBook_CancelledSlotCanBeRebooked(t *testing.T) {
	f := newFixture()
	b, err := f.svc.Book(context.Background(), f.clinicID, request(tuesday, at(9, 0)), nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.UpdateStatus(context.Background(), f.clinicID, b.Appointment.ID, availability.StatusCancelled); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Book(context.Background(), f.clinicID, request(tuesday, at(9, 0)), nil, ""); err != nil {
		t.Errorf("cancelled slot should be free again: %v", err)
	}
}

func TestBook_Idempotent(t *testing.T) {
	f := newFixture()
	first, err := f.svc.Book(context.Background(), f.clinicID, request(tuesday, at(9, 0)), nil, "key-1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.svc.Book(context.Background(), f.clinicID, request(tuesday, at(9, 0)), nil, "key-1")
	if err != nil {
		t.Fatalf("replay must not fail: %v", err)
	}
	if second.Created || second.Appointment.ID != first.Appointment.ID {
		t.Errorf("expected replay of %s, got %+v", first.Appointment.ID, second)
	}
	if second.WhatsAppLink != first.WhatsAppLink {
		t.Error("replay should return the same confirmation link")
	}
	if len(f.enqueuer.booked) != 1 {
		t.Errorf("replay must not notify again, got %d", len(f.enqueuer.booked))
	}
	if got := attempts(t, f.registry, "replayed"); got != 1 {
		t.Errorf("replayed counter = %v", got)
	}
}

func TestBook_IdempotencyRace(t *testing.T) {
	f := newFixture()
	first, err := f.svc.Book(context.Background(), f.clinicID, request(tuesday, at(9, 0)), nil, "key-1")
	if err != nil {
		t.Fatal(err)
	}
	// The lookup misses and the insert hits the key index instead.
	f.repo.hideKeys = 1
	second, err := f.svc.Book(context.Background(), f.clinicID, request(tuesday, at(9, 30)), nil, "key-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Created || second.Appointment.ID != first.Appointment.ID {
		t.Errorf("expected the stored appointment, got %+v", second.Appointment)
	}
}

func TestBook_IdempotencyRace_SameSlot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	first, err := f.svc.Book(ctx, f.clinicID, request(tuesday, at(9, 0)), nil, "key-1")
	if err != nil {
		t.Fatal(err)
	}
	// The retry misses the lookup and then finds its own slot taken.
	f.repo.hideKeys = 1
	second, err := f.svc.Book(ctx, f.clinicID, request(tuesday, at(9, 0)), nil, "key-1")
	if err != nil {
		t.Fatalf("retry with the same key failed: %v", err)
	}
	if second.Created || second.Appointment.ID != first.Appointment.ID {
		t.Errorf("expected the stored appointment, got %+v", second.Appointment)
	}
	if len(f.repo.appointments) != 1 {
		t.Errorf("expected 1 stored appointment, got %d", len(f.repo.appointments))
	}

	// A different key on the same slot is still a conflict.
	_, err = f.svc.Book(ctx, f.clinicID, request(tuesday, at(9, 0)), nil, "key-2")
	if !errors.Is(err, availability.ErrSlotTaken) {
		t.Errorf("expected ErrSlotTaken, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if err := f.svc.Validate(ctx, f.clinicID, tuesday, at(9, 0)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := f.svc.Validate(ctx, f.clinicID, tuesday, at(11, 0)); !errors.Is(err, availability.ErrSlotBlocked) {
		t.Errorf("expected ErrSlotBlocked, got %v", err)
	}
	if err := f.svc.Validate(ctx, f.clinicID, monday.AddDays(-1), at(9, 0)); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if len(f.repo.appointments) != 0 {
		t.Error("validation must not write")
	}
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b, err := f.svc.Book(ctx, f.clinicID, request(tuesday, at(9, 0)), nil, "")
	if err != nil {
		t.Fatal(err)
	}
	id := b.Appointment.ID
	f.avail.invalidated = nil

	a, err := f.svc.UpdateStatus(ctx, f.clinicID, id, availability.StatusConfirmed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != availability.StatusConfirmed {
		t.Errorf("expected confirmed, got %s", a.Status)
	}
	if len(f.avail.invalidated) != 0 {
		t.Error("confirming keeps the slot occupied; no invalidation expected")
	}
	want := []statusChange{{id, availability.StatusPending, availability.StatusConfirmed}}
	if !slices.Equal(f.enqueuer.changes, want) {
		t.Errorf("unexpected notifications %v", f.enqueuer.changes)
	}

	if _, err := f.svc.UpdateStatus(ctx, f.clinicID, id, availability.StatusNoShow); !errors.Is(err, availability.ErrInvalidStatusTransition) {
		t.Errorf("expected ErrInvalidStatusTransition, got %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, uuid.New(), id, availability.StatusCompleted); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for another clinic, got %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, f.clinicID, id, "archived"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for unknown status, got %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, f.clinicID, uuid.New(), availability.StatusCompleted); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if _, err := f.svc.UpdateStatus(ctx, f.clinicID, id, availability.StatusCompleted); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, f.clinicID, id, availability.StatusCancelled); !errors.Is(err, availability.ErrInvalidStatusTransition) {
		t.Errorf("completed is terminal, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := uuid.New()

	mine, _ := f.svc.Book(ctx, f.clinicID, request(tuesday, at(9, 0)), &owner, "")
	anonymous, _ := f.svc.Book(ctx, f.clinicID, request(tuesday, at(9, 30)), nil, "")

	if _, err := f.svc.Cancel(ctx, uuid.New(), mine.Appointment.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for another patient, got %v", err)
	}
	if _, err := f.svc.Cancel(ctx, owner, anonymous.Appointment.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for an anonymous booking, got %v", err)
	}

	f.avail.invalidated = nil
	a, err := f.svc.Cancel(ctx, owner, mine.Appointment.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != availability.StatusCancelled {
		t.Errorf("expected cancelled, got %s", a.Status)
	}
	if !slices.Equal(f.avail.invalidated, []availability.Date{tuesday}) {
		t.Errorf("cancelling frees the slot and must invalidate, got %v", f.avail.invalidated)
	}
	if _, err := f.svc.Cancel(ctx, owner, mine.Appointment.ID); !errors.Is(err, availability.ErrInvalidStatusTransition) {
		t.Errorf("expected ErrInvalidStatusTransition, got %v", err)
	}
}

func TestListByClinic(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for _, slot := range []struct {
		d availability.Date
		t availability.TimeOfDay
	}{{tuesday.AddDays(1), at(9, 0)}, {tuesday, at(10, 0)}, {tuesday, at(9, 0)}} {
		if _, err := f.svc.Book(ctx, f.clinicID, request(slot.d, slot.t), nil, ""); err != nil {
			t.Fatal(err)
		}
	}

	items, total, err := f.svc.ListByClinic(ctx, f.clinicID, ListFilter{}, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || items[0].Time != at(9, 0) || items[1].Time != at(10, 0) || items[2].Date != tuesday.AddDays(1) {
		t.Errorf("expected date, time order, got %v", items)
	}

	items, total, _ = f.svc.ListByClinic(ctx, f.clinicID, ListFilter{From: tuesday, To: tuesday}, 10, 0)
	if total != 2 || len(items) != 2 {
		t.Errorf("expected 2 on Tuesday, got %d", total)
	}

	if _, _, err := f.svc.ListByClinic(ctx, f.clinicID, ListFilter{Status: "archived"}, 10, 0); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if _, _, err := f.svc.ListByClinic(ctx, f.clinicID, ListFilter{From: tuesday, To: monday}, 10, 0); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}
