package identity

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repository --

type mockUserRepo struct {
	users map[uuid.UUID]*User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = time.Now()
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockUserRepo) Update(_ context.Context, u *User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) ListDoctors(_ context.Context, hospitalID *uuid.UUID, limit, offset int) ([]*User, int, error) {
	var result []*User
	for _, u := range m.users {
		if u.Role != RoleDoctor {
			continue
		}
		if hospitalID != nil && (u.HospitalID == nil || *u.HospitalID != *hospitalID) {
			continue
		}
		result = append(result, u)
	}
	return result, len(result), nil
}

func (m *mockUserRepo) ListByHospital(_ context.Context, hospitalID uuid.UUID, role string, limit, offset int) ([]*User, int, error) {
	var result []*User
	for _, u := range m.users {
		if u.HospitalID == nil || *u.HospitalID != hospitalID {
			continue
		}
		if role != "" && u.Role != role {
			continue
		}
		result = append(result, u)
	}
	return result, len(result), nil
}

// -- Tests --

func TestCreateUser(t *testing.T) {
	hospID := uuid.New()

	tests := []struct {
		name    string
		user    User
		wantErr bool
	}{
		{"valid patient", User{Name: "Asha", Mobile: "+911234567890", Role: RolePatient}, false},
		{"valid doctor", User{Name: "Dr. Rao", Mobile: "+919999999999", Role: RoleDoctor, HospitalID: &hospID}, false},
		{"valid pharma", User{Name: "MediCo", Mobile: "+918888888888", Role: RolePharma}, false},
		{"missing name", User{Mobile: "+911234567890", Role: RolePatient}, true},
		{"missing mobile", User{Name: "Asha", Role: RolePatient}, true},
		{"bad role", User{Name: "Asha", Mobile: "+911234567890", Role: "superuser"}, true},
		{"doctor without hospital", User{Name: "Dr. Rao", Mobile: "+919999999999", Role: RoleDoctor}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(newMockUserRepo())
			err := svc.CreateUser(context.Background(), &tt.user)
			if (err != nil) != tt.wantErr {
				t.Errorf("CreateUser() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateUserRoleImmutable(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewService(repo)

	u := &User{Name: "Asha", Mobile: "+911234567890", Role: RolePatient}
	if err := svc.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create: %v", err)
	}

	upd := &User{ID: u.ID, Name: "Asha K", Mobile: u.Mobile, Role: RoleDoctor}
	err := svc.UpdateUser(context.Background(), upd)
	if !errors.Is(err, ErrRoleImmutable) {
		t.Errorf("expected ErrRoleImmutable, got %v", err)
	}

	// Same role or empty role is fine.
	upd.Role = ""
	if err := svc.UpdateUser(context.Background(), upd); err != nil {
		t.Errorf("update without role change: %v", err)
	}
	if repo.users[u.ID].Role != RolePatient {
		t.Errorf("role changed to %q", repo.users[u.ID].Role)
	}
	if repo.users[u.ID].Name != "Asha K" {
		t.Errorf("name not updated")
	}
}

func TestGetUserNotFound(t *testing.T) {
	svc := NewService(newMockUserRepo())
	_, err := svc.GetUser(context.Background(), uuid.New())
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestListDoctorsFiltersByHospital(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewService(repo)

	h1, h2 := uuid.New(), uuid.New()
	svc.CreateUser(context.Background(), &User{Name: "Dr. A", Mobile: "1", Role: RoleDoctor, HospitalID: &h1})
	svc.CreateUser(context.Background(), &User{Name: "Dr. B", Mobile: "2", Role: RoleDoctor, HospitalID: &h2})
	svc.CreateUser(context.Background(), &User{Name: "Pat", Mobile: "3", Role: RolePatient})

	all, total, err := svc.ListDoctors(context.Background(), nil, 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Errorf("got %d doctors, want 2", total)
	}

	only1, total, err := svc.ListDoctors(context.Background(), &h1, 20, 0)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if total != 1 || only1[0].Name != "Dr. A" {
		t.Errorf("hospital filter returned %d doctors", total)
	}
}

func TestListByHospitalRejectsBadRole(t *testing.T) {
	svc := NewService(newMockUserRepo())
	_, _, err := svc.ListByHospital(context.Background(), uuid.New(), "wizard", 20, 0)
	if !errors.Is(err, ErrInvalidRole) {
		t.Errorf("expected ErrInvalidRole, got %v", err)
	}
}
