package clinic

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/moutazmahmoud/clinic-pwa/internal/platform/db"
)

type repoPG struct{ db db.DBTX }

func NewRepoPG(conn db.DBTX) Repository { return &repoPG{db: conn} }

const clinicCols = `id, name, slug, specialty, area, phone, email, owner_email,
	bio, image_url, address, working_hours, slot_duration_minutes, is_active,
	created_at, updated_at`

func scanClinic(row pgx.Row) (*Clinic, error) {
	var c Clinic
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Specialty, &c.Area, &c.Phone, &c.Email, &c.OwnerEmail,
		&c.Bio, &c.ImageURL, &c.Address, &c.WorkingHours, &c.SlotDurationMinutes, &c.IsActive,
		&c.CreatedAt, &c.UpdatedAt)
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repoPG) one(ctx context.Context, where string, arg any) (*Clinic, error) {
	return scanClinic(db.Conn(ctx, r.db).QueryRow(ctx, `SELECT `+clinicCols+` FROM clinics WHERE `+where, arg))
}

func (r *repoPG) list(ctx context.Context, query string, args ...any) ([]*Clinic, error) {
	rows, err := db.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Clinic
	for rows.Next() {
		c, err := scanClinic(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *repoPG) Create(ctx context.Context, c *Clinic) error {
	c.ID = uuid.New()
	err := db.Conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO clinics (id, name, slug, specialty, area, phone, email, owner_email,
			bio, image_url, address, working_hours, slot_duration_minutes, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Slug, c.Specialty, c.Area, c.Phone, c.Email, c.OwnerEmail,
		c.Bio, c.ImageURL, c.Address, c.WorkingHours, c.SlotDurationMinutes, c.IsActive,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	switch {
	case db.ConstraintViolation(err, db.CodeUniqueViolation, "clinics_slug_key"):
		return ErrSlugTaken
	case db.ConstraintViolation(err, db.CodeUniqueViolation, "clinics_owner_email_key"):
		return ErrOwnerTaken
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	return r.one(ctx, `id = $1`, id)
}

func (r *repoPG) GetBySlug(ctx context.Context, slug string) (*Clinic, error) {
	return r.one(ctx, `slug = $1`, slug)
}

func (r *repoPG) GetByOwnerEmail(ctx context.Context, email string) (*Clinic, error) {
	return r.one(ctx, `lower(owner_email) = lower($1)`, email)
}

func (r *repoPG) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := db.Conn(ctx, r.db).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM clinics WHERE slug = $1)`, slug).Scan(&exists)
	return exists, err
}

func (r *repoPG) Search(ctx context.Context, f SearchFilter, limit, offset int) ([]*Clinic, int, error) {
	where := ` WHERE is_active`
	var args []any
	idx := 1

	if f.Area != "" {
		where += fmt.Sprintf(` AND area = $%d`, idx)
		args = append(args, f.Area)
		idx++
	}
	if f.Specialty != "" {
		where += fmt.Sprintf(` AND specialty = $%d`, idx)
		args = append(args, f.Specialty)
		idx++
	}

	var total int
	if err := db.Conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM clinics`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + clinicCols + ` FROM clinics` + where +
		fmt.Sprintf(` ORDER BY name, id LIMIT $%d OFFSET $%d`, idx, idx+1)
	items, err := r.list(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) distinct(ctx context.Context, col string) ([]string, error) {
	rows, err := db.Conn(ctx, r.db).Query(ctx,
		`SELECT DISTINCT `+col+` FROM clinics WHERE is_active AND `+col+` <> '' ORDER BY `+col)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *repoPG) Filters(ctx context.Context) (*Filters, error) {
	areas, err := r.distinct(ctx, "area")
	if err != nil {
		return nil, err
	}
	specialties, err := r.distinct(ctx, "specialty")
	if err != nil {
		return nil, err
	}
	return &Filters{Areas: areas, Specialties: specialties}, nil
}

func (r *repoPG) ListAll(ctx context.Context, limit, offset int) ([]*Clinic, int, error) {
	var total int
	if err := db.Conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM clinics`).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.list(ctx, `SELECT `+clinicCols+` FROM clinics ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) (*Clinic, error) {
	return scanClinic(db.Conn(ctx, r.db).QueryRow(ctx,
		`UPDATE clinics SET is_active = $2, updated_at = NOW() WHERE id = $1 RETURNING `+clinicCols, id, active))
}

func (r *repoPG) UpdateProfile(ctx context.Context, id uuid.UUID, p Profile) (*Clinic, error) {
	return scanClinic(db.Conn(ctx, r.db).QueryRow(ctx, `
		UPDATE clinics SET name=$2, specialty=$3, area=$4, phone=$5, email=$6, bio=$7,
			image_url=$8, address=$9, working_hours=$10, updated_at=NOW()
		WHERE id = $1
		RETURNING `+clinicCols,
		id, p.Name, p.Specialty, p.Area, p.Phone, p.Email, p.Bio, p.ImageURL, p.Address, p.WorkingHours))
}

func (r *repoPG) UpdateSlotDuration(ctx context.Context, id uuid.UUID, minutes int) (*Clinic, error) {
	return scanClinic(db.Conn(ctx, r.db).QueryRow(ctx,
		`UPDATE clinics SET slot_duration_minutes = $2, updated_at = NOW() WHERE id = $1 RETURNING `+clinicCols, id, minutes))
}
