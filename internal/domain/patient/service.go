package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/moutazmahmoud/clinic-pwa/internal/platform/phone"
)

type Service struct {
	repo          Repository
	defaultRegion string
	logger        zerolog.Logger
}

func NewService(repo Repository, defaultRegion string, logger zerolog.Logger) *Service {
	return &Service{repo: repo, defaultRegion: defaultRegion, logger: logger}
}

func (s *Service) normalize(in ProfileInput, fallbackEmail string) (ProfileInput, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	if in.FullName == "" {
		return in, fmt.Errorf("%w: full_name is required", ErrValidation)
	}
	e164, err := phone.Normalize(in.Phone, s.defaultRegion)
	if err != nil {
		return in, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	in.Phone = e164
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" {
		in.Email = strings.ToLower(fallbackEmail)
	}
	return in, nil
}

// Register creates the profile for userID. A user has at most one profile.
func (s *Service) Register(ctx context.Context, userID, accountEmail string, in ProfileInput) (*Patient, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	in, err := s.normalize(in, accountEmail)
	if err != nil {
		return nil, err
	}
	p := &Patient{UserID: userID, FullName: in.FullName, Email: in.Email, Phone: in.Phone}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info().Str("patient_id", p.ID.String()).Msg("patient registered")
	return p, nil
}

func (s *Service) GetByUserID(ctx context.Context, userID string) (*Patient, error) {
	if userID == "" {
		return nil, ErrNotFound
	}
	return s.repo.GetByUserID(ctx, userID)
}

func (s *Service) UpdateMe(ctx context.Context, userID string, in ProfileInput) (*Patient, error) {
	p, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	in, err = s.normalize(in, p.Email)
	if err != nil {
		return nil, err
	}
	p.FullName, p.Email, p.Phone = in.FullName, in.Email, in.Phone
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
