package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrInvalidRole   = errors.New("invalid role")
	ErrRoleImmutable = errors.New("role cannot be changed")
)

var validRoles = map[string]bool{
	RolePatient: true, RoleDoctor: true, RolePharma: true,
}

type Service struct {
	users UserRepository
}

func NewService(users UserRepository) *Service {
	return &Service{users: users}
}

func (s *Service) CreateUser(ctx context.Context, u *User) error {
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(u.Mobile) == "" {
		return fmt.Errorf("mobile is required")
	}
	if !validRoles[u.Role] {
		return fmt.Errorf("%w: %s", ErrInvalidRole, u.Role)
	}
	if u.Role == RoleDoctor && u.HospitalID == nil {
		return fmt.Errorf("doctors must belong to a hospital")
	}
	return s.users.Create(ctx, u)
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// UpdateUser updates profile fields. Role changes are rejected.
func (s *Service) UpdateUser(ctx context.Context, u *User) error {
	existing, err := s.users.GetByID(ctx, u.ID)
	if err != nil {
		return ErrUserNotFound
	}
	if u.Role != "" && u.Role != existing.Role {
		return ErrRoleImmutable
	}
	u.Role = existing.Role
	return s.users.Update(ctx, u)
}

func (s *Service) ListDoctors(ctx context.Context, hospitalID *uuid.UUID, limit, offset int) ([]*User, int, error) {
	return s.users.ListDoctors(ctx, hospitalID, limit, offset)
}

func (s *Service) ListByHospital(ctx context.Context, hospitalID uuid.UUID, role string, limit, offset int) ([]*User, int, error) {
	if role != "" && !validRoles[role] {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}
	return s.users.ListByHospital(ctx, hospitalID, role, limit, offset)
}
