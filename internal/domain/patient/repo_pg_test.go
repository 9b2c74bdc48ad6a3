package patient

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestRepoPG_Create(t *testing.T) {
	mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO patients`).
		WithArgs(pgxmock.AnyArg(), "u1", "Sara", "s@x.test", "+201001234567").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	p := &Patient{UserID: "u1", FullName: "Sara", Email: "s@x.test", Phone: "+201001234567"}
	require.NoError(t, NewRepoPG(mock).Create(context.Background(), p))
	assert.NotEqual(t, uuid.Nil, p.ID)
}

func TestRepoPG_Create_Duplicate(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO patients`).
		WithArgs(pgxmock.AnyArg(), "u1", "", "", "").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "patients_user_id_key"})

	err := NewRepoPG(mock).Create(context.Background(), &Patient{UserID: "u1"})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRepoPG_GetByUserID(t *testing.T) {
	mock := newMock(t)
	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`FROM patients WHERE user_id = \$1`).WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "full_name", "email", "phone", "created_at", "updated_at"}).
			AddRow(id, "u1", "Sara", "", "+201001234567", now, now))

	p, err := NewRepoPG(mock).GetByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)
}

func TestRepoPG_Update_Missing(t *testing.T) {
	mock := newMock(t)
	id := uuid.New()
	mock.ExpectQuery(`UPDATE patients SET`).WithArgs(id, "Sara", "", "+201001234567").
		WillReturnError(pgx.ErrNoRows)

	err := NewRepoPG(mock).Update(context.Background(), &Patient{ID: id, FullName: "Sara", Phone: "+201001234567"})
	assert.ErrorIs(t, err, ErrNotFound)
}
