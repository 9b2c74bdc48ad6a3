package clinic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog"

	"github.com/moutazmahmoud/clinic-pwa/internal/domain/availability"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/auth"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/cache"
)

const maxSlugAttempts = 20

type Service struct {
	repo   Repository
	cache  cache.Availability
	logger zerolog.Logger
}

func NewService(repo Repository, c cache.Availability, logger zerolog.Logger) *Service {
	return &Service{repo: repo, cache: c, logger: logger}
}

type CreateInput struct {
	Name                string `json:"name"`
	Specialty           string `json:"specialty"`
	Area                string `json:"area"`
	Phone               string `json:"phone"`
	Email               string `json:"email"`
	OwnerEmail          string `json:"owner_email"`
	Bio                 string `json:"bio"`
	ImageURL            string `json:"image_url"`
	Address             string `json:"address"`
	WorkingHours        string `json:"working_hours"`
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
}

// Create registers a clinic. New clinics are hidden from search until an
// admin activates them.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Clinic, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if in.SlotDurationMinutes == 0 {
		in.SlotDurationMinutes = availability.DefaultSlotDuration
	}
	if err := ValidateSlotDuration(in.SlotDurationMinutes); err != nil {
		return nil, err
	}

	sl, err := s.uniqueSlug(ctx, in.Name)
	if err != nil {
		return nil, err
	}

	c := &Clinic{
		Name:                in.Name,
		Slug:                sl,
		Specialty:           strings.TrimSpace(in.Specialty),
		Area:                strings.TrimSpace(in.Area),
		Phone:               strings.TrimSpace(in.Phone),
		Email:               strings.TrimSpace(in.Email),
		Bio:                 in.Bio,
		ImageURL:            in.ImageURL,
		Address:             in.Address,
		WorkingHours:        in.WorkingHours,
		SlotDurationMinutes: in.SlotDurationMinutes,
	}
	if owner := strings.ToLower(strings.TrimSpace(in.OwnerEmail)); owner != "" {
		c.OwnerEmail = &owner
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info().Str("clinic_id", c.ID.String()).Str("slug", c.Slug).Msg("clinic created")
	return c, nil
}

// uniqueSlug derives a slug from name, adding -2, -3, ... on collision.
func (s *Service) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "clinic"
	}
	candidate := base
	for i := 2; i <= maxSlugAttempts+1; i++ {
		exists, err := s.repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return base + "-" + uuid.NewString()[:8], nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetBySlug(ctx context.Context, sl string) (*Clinic, error) {
	return s.repo.GetBySlug(ctx, sl)
}

func (s *Service) GetByOwnerEmail(ctx context.Context, email string) (*Clinic, error) {
	if email == "" {
		return nil, ErrNotFound
	}
	return s.repo.GetByOwnerEmail(ctx, strings.ToLower(email))
}

// Visible hides inactive clinics from everyone but admins and the owner.
func Visible(c *Clinic, p auth.Principal, ok bool) bool {
	if c.IsActive {
		return true
	}
	return ok && (p.Role == auth.RoleAdmin || c.OwnedBy(p.Email))
}

// Owned resolves the clinic the caller manages. Admins may name any clinic
// with clinicID; everyone else gets the clinic linked to their email.
func (s *Service) Owned(ctx context.Context, p auth.Principal, clinicID string) (*Clinic, error) {
	if p.Role == auth.RoleAdmin && clinicID != "" {
		id, err := uuid.Parse(clinicID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid clinic_id", ErrValidation)
		}
		return s.repo.GetByID(ctx, id)
	}
	return s.GetByOwnerEmail(ctx, p.Email)
}

func (s *Service) Search(ctx context.Context, f SearchFilter, limit, offset int) ([]*Clinic, int, error) {
	f.Area = strings.TrimSpace(f.Area)
	f.Specialty = strings.TrimSpace(f.Specialty)
	return s.repo.Search(ctx, f, limit, offset)
}

func (s *Service) Filters(ctx context.Context) (*Filters, error) {
	return s.repo.Filters(ctx)
}

func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]*Clinic, int, error) {
	return s.repo.ListAll(ctx, limit, offset)
}

func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*Clinic, error) {
	c, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	s.logger.Info().Str("clinic_id", id.String()).Bool("active", active).Msg("clinic activation changed")
	return c, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, p Profile) (*Clinic, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	return s.repo.UpdateProfile(ctx, id, p)
}

func (s *Service) UpdateSlotDuration(ctx context.Context, id uuid.UUID, minutes int) (*Clinic, error) {
	if err := ValidateSlotDuration(minutes); err != nil {
		return nil, err
	}
	c, err := s.repo.UpdateSlotDuration(ctx, id, minutes)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return c, nil
}

// invalidate drops cached availability. A failure only delays freshness
// until the TTL, so it is logged rather than returned.
func (s *Service) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("clinic_id", id.String()).Msg("availability cache invalidation failed")
	}
}

// IsNotFound lets other packages branch on a missing clinic.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
