package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/moutazmahmoud/clinic-pwa/internal/domain/availability"
	"github.com/moutazmahmoud/clinic-pwa/internal/domain/clinic"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/db"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/notify"
)

const (
	activeSlotIndex  = "appointments_active_slot_key"
	idempotencyIndex = "appointments_idempotency_key"
)

type repoPG struct{ db db.DBTX }

func NewRepoPG(conn db.DBTX) Repository { return &repoPG{db: conn} }

const appointmentCols = `a.id, a.clinic_id, c.name, a.patient_id, a.patient_name, a.patient_phone,
	a.date, a.time, a.status, a.reference, a.idempotency_key, a.created_at, a.updated_at`

const fromJoined = ` FROM appointments a JOIN clinics c ON c.id = a.clinic_id`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		a      Appointment
		date   time.Time
		t      pgtype.Time
		status string
	)
	err := row.Scan(&a.ID, &a.ClinicID, &a.ClinicName, &a.PatientID, &a.PatientName, &a.PatientPhone,
		&date, &t, &status, &a.Reference, &a.IdempotencyKey, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.Date = availability.DateOf(date)
	a.Time = availability.TimeOfDay(db.TimeMinutes(t))
	a.Status = availability.Status(status)
	return &a, nil
}

func (r *repoPG) Insert(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	err := db.Conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO appointments (id, clinic_id, patient_id, patient_name, patient_phone,
			date, time, status, reference, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		a.ID, a.ClinicID, a.PatientID, a.PatientName, a.PatientPhone,
		a.Date.Time(), db.TimeParam(a.Time.Minutes()), string(a.Status), a.Reference, a.IdempotencyKey,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	switch {
	case err == nil:
		return nil
	case db.ConstraintViolation(err, db.CodeUniqueViolation, activeSlotIndex):
		return fmt.Errorf("%w: %s on %s", availability.ErrSlotTaken, a.Time, a.Date)
	case db.ConstraintViolation(err, db.CodeUniqueViolation, idempotencyIndex):
		return errDuplicateRequest
	case db.ConstraintViolation(err, db.CodeForeignKeyViolation, "appointments_clinic_id_fkey"):
		return clinic.ErrNotFound
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(db.Conn(ctx, r.db).QueryRow(ctx,
		`SELECT `+appointmentCols+fromJoined+` WHERE a.id = $1`, id))
}

func (r *repoPG) GetByIdempotencyKey(ctx context.Context, clinicID uuid.UUID, key string) (*Appointment, error) {
	return scanAppointment(db.Conn(ctx, r.db).QueryRow(ctx,
		`SELECT `+appointmentCols+fromJoined+` WHERE a.clinic_id = $1 AND a.idempotency_key = $2`, clinicID, key))
}

func (r *repoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(db.Conn(ctx, r.db).QueryRow(ctx,
		`SELECT `+appointmentCols+fromJoined+` WHERE a.id = $1 FOR UPDATE OF a`, id))
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status availability.Status) (*Appointment, error) {
	return scanAppointment(db.Conn(ctx, r.db).QueryRow(ctx, `
		WITH a AS (
			UPDATE appointments SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING *
		)
		SELECT `+appointmentCols+` FROM a JOIN clinics c ON c.id = a.clinic_id`,
		id, string(status)))
}

func (r *repoPG) list(ctx context.Context, query string, args ...any) ([]*Appointment, error) {
	rows, err := db.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repoPG) page(ctx context.Context, where string, args []any, order string, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := db.Conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM appointments a`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	n := len(args)
	query := `SELECT ` + appointmentCols + fromJoined + where +
		fmt.Sprintf(` ORDER BY %s LIMIT $%d OFFSET $%d`, order, n+1, n+2)
	items, err := r.list(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) ListByClinic(ctx context.Context, clinicID uuid.UUID, f ListFilter, limit, offset int) ([]*Appointment, int, error) {
	where := ` WHERE a.clinic_id = $1`
	args := []any{clinicID}
	if !f.From.IsZero() {
		args = append(args, f.From.Time())
		where += fmt.Sprintf(` AND a.date >= $%d`, len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To.Time())
		where += fmt.Sprintf(` AND a.date <= $%d`, len(args))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where += fmt.Sprintf(` AND a.status = $%d`, len(args))
	}
	return r.page(ctx, where, args, `a.date, a.time, a.id`, limit, offset)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.page(ctx, ` WHERE a.patient_id = $1`, []any{patientID}, `a.date DESC, a.time DESC, a.id`, limit, offset)
}

func (r *repoPG) LoadForNotification(ctx context.Context, id uuid.UUID) (notify.Appointment, error) {
	var (
		n      notify.Appointment
		date   time.Time
		t      pgtype.Time
		status string
	)
	err := db.Conn(ctx, r.db).QueryRow(ctx, `
		SELECT a.id, a.reference, c.name, c.phone, a.patient_name, a.patient_phone, a.date, a.time, a.status`+
		fromJoined+` WHERE a.id = $1`, id,
	).Scan(&n.ID, &n.Reference, &n.ClinicName, &n.ClinicPhone, &n.PatientName, &n.PatientPhone, &date, &t, &status)
	if db.IsNoRows(err) {
		return n, notify.ErrAppointmentGone
	}
	if err != nil {
		return n, err
	}
	n.Date = availability.DateOf(date)
	n.Time = availability.TimeOfDay(db.TimeMinutes(t))
	n.Status = availability.Status(status)
	return n, nil
}
