package clinic

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Clinic) error
	GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error)
	GetBySlug(ctx context.Context, slug string) (*Clinic, error)
	GetByOwnerEmail(ctx context.Context, email string) (*Clinic, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Search(ctx context.Context, f SearchFilter, limit, offset int) ([]*Clinic, int, error)
	Filters(ctx context.Context) (*Filters, error)
	ListAll(ctx context.Context, limit, offset int) ([]*Clinic, int, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*Clinic, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, p Profile) (*Clinic, error)
	UpdateSlotDuration(ctx context.Context, id uuid.UUID, minutes int) (*Clinic, error)
}
