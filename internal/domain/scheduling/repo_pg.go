package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/moutazmahmoud/clinic-pwa/internal/domain/availability"
	"github.com/moutazmahmoud/clinic-pwa/internal/domain/clinic"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/db"
)

type repoPG struct{ db db.DBTX }

func NewRepoPG(conn db.DBTX) Repository { return &repoPG{db: conn} }

func tod(t pgtype.Time) availability.TimeOfDay {
	return availability.TimeOfDay(db.TimeMinutes(t))
}

// blockEnd reads the end of an unavailable range.
func blockEnd(t pgtype.Time) availability.TimeOfDay {
	return availability.TimeOfDay(db.TimeMinutesCeil(t))
}

func timeParam(t availability.TimeOfDay) pgtype.Time {
	return db.TimeParam(t.Minutes())
}

func (r *repoPG) ClinicState(ctx context.Context, clinicID uuid.UUID) (ClinicState, error) {
	var s ClinicState
	err := db.Conn(ctx, r.db).QueryRow(ctx,
		`SELECT slot_duration_minutes, is_active FROM clinics WHERE id = $1`, clinicID,
	).Scan(&s.SlotDurationMinutes, &s.IsActive)
	if db.IsNoRows(err) {
		return s, clinic.ErrNotFound
	}
	return s, err
}

const scheduleCols = `day_of_week, start_time, end_time, is_active`

func scanEntry(row pgx.Row) (availability.ScheduleEntry, error) {
	var (
		e          availability.ScheduleEntry
		day        int16
		start, end pgtype.Time
	)
	if err := row.Scan(&day, &start, &end, &e.IsActive); err != nil {
		return e, err
	}
	e.Day = availability.Weekday(day)
	e.Start, e.End = tod(start), tod(end)
	return e, nil
}

func (r *repoPG) ListWeek(ctx context.Context, clinicID uuid.UUID) ([]availability.ScheduleEntry, error) {
	rows, err := db.Conn(ctx, r.db).Query(ctx,
		`SELECT `+scheduleCols+` FROM clinic_schedules WHERE clinic_id = $1 ORDER BY day_of_week`, clinicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []availability.ScheduleEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *repoPG) DayEntry(ctx context.Context, clinicID uuid.UUID, day availability.Weekday) (*availability.ScheduleEntry, error) {
	e, err := scanEntry(db.Conn(ctx, r.db).QueryRow(ctx,
		`SELECT `+scheduleCols+` FROM clinic_schedules WHERE clinic_id = $1 AND day_of_week = $2`,
		clinicID, int16(day)))
	if db.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repoPG) UpsertDay(ctx context.Context, clinicID uuid.UUID, e availability.ScheduleEntry) error {
	_, err := db.Conn(ctx, r.db).Exec(ctx, `
		INSERT INTO clinic_schedules (clinic_id, day_of_week, start_time, end_time, is_active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ON CONSTRAINT clinic_schedules_clinic_day_key
		DO UPDATE SET start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time,
			is_active = EXCLUDED.is_active, updated_at = NOW()`,
		clinicID, int16(e.Day), timeParam(e.Start), timeParam(e.End), e.IsActive)
	if db.ConstraintViolation(err, db.CodeForeignKeyViolation, "") {
		return clinic.ErrNotFound
	}
	return err
}

const unavailableCols = `id, clinic_id, date, start_time, end_time, reason, created_at`

func scanUnavailable(row pgx.Row) (*UnavailableSlot, error) {
	var (
		u          UnavailableSlot
		date       time.Time
		start, end pgtype.Time
	)
	if err := row.Scan(&u.ID, &u.ClinicID, &date, &start, &end, &u.Reason, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Date = availability.DateOf(date)
	u.StartTime, u.EndTime = tod(start), blockEnd(end)
	return &u, nil
}

func (r *repoPG) AddUnavailable(ctx context.Context, u *UnavailableSlot) error {
	u.ID = uuid.New()
	err := db.Conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO unavailable_slots (id, clinic_id, date, start_time, end_time, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		u.ID, u.ClinicID, u.Date.Time(), timeParam(u.StartTime), timeParam(u.EndTime), u.Reason,
	).Scan(&u.CreatedAt)
	if db.ConstraintViolation(err, db.CodeForeignKeyViolation, "") {
		return clinic.ErrNotFound
	}
	return err
}

func (r *repoPG) ListUnavailable(ctx context.Context, clinicID uuid.UUID, from availability.Date) ([]*UnavailableSlot, error) {
	rows, err := db.Conn(ctx, r.db).Query(ctx,
		`SELECT `+unavailableCols+` FROM unavailable_slots
		WHERE clinic_id = $1 AND date >= $2
		ORDER BY date, start_time`, clinicID, from.Time())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*UnavailableSlot
	for rows.Next() {
		u, err := scanUnavailable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *repoPG) DeleteUnavailable(ctx context.Context, clinicID, id uuid.UUID) (availability.Date, error) {
	var date time.Time
	err := db.Conn(ctx, r.db).QueryRow(ctx,
		`DELETE FROM unavailable_slots WHERE id = $1 AND clinic_id = $2 RETURNING date`, id, clinicID,
	).Scan(&date)
	if db.IsNoRows(err) {
		return availability.Date{}, ErrSlotMissing
	}
	if err != nil {
		return availability.Date{}, err
	}
	return availability.DateOf(date), nil
}

func (r *repoPG) Exceptions(ctx context.Context, clinicID uuid.UUID, date availability.Date) ([]availability.Interval, error) {
	rows, err := db.Conn(ctx, r.db).Query(ctx,
		`SELECT start_time, end_time FROM unavailable_slots WHERE clinic_id = $1 AND date = $2`,
		clinicID, date.Time())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []availability.Interval
	for rows.Next() {
		var start, end pgtype.Time
		if err := rows.Scan(&start, &end); err != nil {
			return nil, err
		}
		out = append(out, availability.Interval{Start: tod(start), End: blockEnd(end)})
	}
	return out, rows.Err()
}

func (r *repoPG) Bookings(ctx context.Context, clinicID uuid.UUID, date availability.Date) ([]availability.Booking, error) {
	rows, err := db.Conn(ctx, r.db).Query(ctx,
		`SELECT time, status FROM appointments
		WHERE clinic_id = $1 AND date = $2 AND status = ANY($3)`,
		clinicID, date.Time(), availability.ActiveStatusStrings())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []availability.Booking
	for rows.Next() {
		var (
			t      pgtype.Time
			status string
		)
		if err := rows.Scan(&t, &status); err != nil {
			return nil, err
		}
		out = append(out, availability.Booking{Time: tod(t), Status: availability.Status(status)})
	}
	return out, rows.Err()
}
