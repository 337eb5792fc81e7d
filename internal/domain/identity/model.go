package identity

import (
	"time"

	"github.com/google/uuid"
)

// Roles a user account can hold. Role is fixed at creation; the admin role
// exists only in tokens issued by the auth collaborator, never in this table.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RolePharma  = "pharma"
)

// User maps to the app_user table.
type User struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	Email      string     `db:"email" json:"email"`
	Mobile     string     `db:"mobile" json:"mobile"`
	Role       string     `db:"role" json:"role"`
	HospitalID *uuid.UUID `db:"hospital_id" json:"hospital_id,omitempty"`
	Specialty  *string    `db:"specialty" json:"specialty,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// IsDoctor reports whether the user can hold appointments.
func (u *User) IsDoctor() bool { return u.Role == RoleDoctor }
