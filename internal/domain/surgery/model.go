package surgery

import (
	"time"

	"github.com/google/uuid"
)

// Operation lifecycle states. Operations have no visit tracking; they end
// either confirmed-and-done or cancelled.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Operation is a scheduled surgical procedure. Unlike appointments,
// operations are date-granular and do not contend for time slots.
type Operation struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	PatientID  uuid.UUID  `json:"patient_id" db:"patient_id"`
	DoctorID   uuid.UUID  `json:"doctor_id" db:"doctor_id"`
	HospitalID *uuid.UUID `json:"hospital_id,omitempty" db:"hospital_id"`
	Specialty  string     `json:"specialty" db:"specialty"`
	Date       time.Time  `json:"date" db:"date"`
	Status     string     `json:"status" db:"status"`
	Notes      *string    `json:"notes,omitempty" db:"notes"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`

	PatientName string `json:"patient_name,omitempty" db:"-"`
	DoctorName  string `json:"doctor_name,omitempty" db:"-"`
}

func (o *Operation) IsTerminal() bool { return o.Status == StatusCancelled }
