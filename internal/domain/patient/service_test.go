package patient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type mockRepo struct {
	byUser map[string]*Patient
}

func newMockRepo() *mockRepo {
	return &mockRepo{byUser: make(map[string]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	if _, ok := m.byUser[p.UserID]; ok {
		return ErrAlreadyRegistered
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.byUser[p.UserID] = p
	return nil
}

func (m *mockRepo) GetByUserID(_ context.Context, userID string) (*Patient, error) {
	p, ok := m.byUser[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.byUser[p.UserID]; !ok {
		return ErrNotFound
	}
	m.byUser[p.UserID] = p
	return nil
}

func newTestService() *Service {
	return NewService(newMockRepo(), "EG", zerolog.Nop())
}

func TestRegister(t *testing.T) {
	svc := newTestService()
	p, err := svc.Register(context.Background(), "user-1", "Sara@Mail.test", ProfileInput{FullName: " Sara Ali ", Phone: "0100 123 4567"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.FullName != "Sara Ali" || p.Phone != "+201001234567" || p.Email != "sara@mail.test" {
		t.Errorf("unexpected patient %+v", p)
	}

	_, err = svc.Register(context.Background(), "user-1", "", ProfileInput{FullName: "Again", Phone: "01001234567"})
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService()
	tests := []struct {
		name   string
		userID string
		in     ProfileInput
	}{
		{"no user", "", ProfileInput{FullName: "A", Phone: "01001234567"}},
		{"no name", "u", ProfileInput{FullName: "  ", Phone: "01001234567"}},
		{"bad phone", "u", ProfileInput{FullName: "A", Phone: "123"}},
		{"missing phone", "u", ProfileInput{FullName: "A"}},
	}
	for _, tt := range tests {
		if _, err := svc.Register(context.Background(), tt.userID, "", tt.in); !errors.Is(err, ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", tt.name, err)
		}
	}
}

func TestUpdateMe(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	if _, err := svc.UpdateMe(ctx, "ghost", ProfileInput{FullName: "X", Phone: "01001234567"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	orig, _ := svc.Register(ctx, "u", "u@mail.test", ProfileInput{FullName: "A", Phone: "01001234567"})
	p, err := svc.UpdateMe(ctx, "u", ProfileInput{FullName: "B", Phone: "+20 111 222 3333"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != orig.ID || p.FullName != "B" || p.Phone != "+201112223333" || p.Email != "u@mail.test" {
		t.Errorf("unexpected patient %+v", p)
	}
}
