package patient

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/moutazmahmoud/clinic-pwa/internal/platform/db"
)

type repoPG struct{ db db.DBTX }

func NewRepoPG(conn db.DBTX) Repository { return &repoPG{db: conn} }

const patientCols = `id, user_id, full_name, email, phone, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.UserID, &p.FullName, &p.Email, &p.Phone, &p.CreatedAt, &p.UpdatedAt)
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	err := db.Conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO patients (id, user_id, full_name, email, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		p.ID, p.UserID, p.FullName, p.Email, p.Phone,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if db.ConstraintViolation(err, db.CodeUniqueViolation, "patients_user_id_key") {
		return ErrAlreadyRegistered
	}
	return err
}

func (r *repoPG) GetByUserID(ctx context.Context, userID string) (*Patient, error) {
	return scanPatient(db.Conn(ctx, r.db).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE user_id = $1`, userID))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	err := db.Conn(ctx, r.db).QueryRow(ctx, `
		UPDATE patients SET full_name = $2, email = $3, phone = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.FullName, p.Email, p.Phone,
	).Scan(&p.UpdatedAt)
	if db.IsNoRows(err) {
		return ErrNotFound
	}
	return err
}
