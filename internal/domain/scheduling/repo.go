package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AppointmentRepository persists appointments and answers the slot and
// notification sweep queries.
type AppointmentRepository interface {
	Create(ctx context.Context, appt *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, appt *Appointment) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Appointment, error)
	// BookedSlots returns the time slots of non-cancelled appointments for
	// the doctor on the given day.
	BookedSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error)
	// DueReminders returns non-cancelled appointments scheduled on day.
	DueReminders(ctx context.Context, day time.Time) ([]*ReminderItem, error)
	// DueFollowUps returns visited appointments whose follow-up falls on day.
	DueFollowUps(ctx context.Context, day time.Time) ([]*ReminderItem, error)
}
