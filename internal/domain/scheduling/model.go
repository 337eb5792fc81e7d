package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Appointment lifecycle states.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusVisited   = "visited"
	StatusCancelled = "cancelled"
)

// Appointment is a booked consultation slot with a doctor.
type Appointment struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	PatientID    uuid.UUID  `json:"patient_id" db:"patient_id"`
	DoctorID     uuid.UUID  `json:"doctor_id" db:"doctor_id"`
	HospitalID   *uuid.UUID `json:"hospital_id,omitempty" db:"hospital_id"`
	Date         time.Time  `json:"date" db:"date"`
	TimeSlot     string     `json:"time_slot" db:"time_slot"`
	Status       string     `json:"status" db:"status"`
	VisitDate    *time.Time `json:"visit_date,omitempty" db:"visit_date"`
	FollowUpDate *time.Time `json:"followup_date,omitempty" db:"followup_date"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`

	// Joined for list responses, not persisted on the appointment row.
	PatientName string `json:"patient_name,omitempty" db:"-"`
	DoctorName  string `json:"doctor_name,omitempty" db:"-"`
}

// IsTerminal reports whether the appointment can no longer change state.
func (a *Appointment) IsTerminal() bool {
	return a.Status == StatusVisited || a.Status == StatusCancelled
}

// SlotAvailability is the booked/available partition of a doctor's day.
type SlotAvailability struct {
	DoctorID       uuid.UUID `json:"doctor_id"`
	DoctorName     string    `json:"doctor_name"`
	Date           time.Time `json:"date"`
	BookedSlots    []string  `json:"booked_slots"`
	AvailableSlots []string  `json:"available_slots"`
}

// ReminderItem is one row of the notification sweep: the appointment joined
// with the patient, doctor and hospital fields the message templates need.
type ReminderItem struct {
	AppointmentID    uuid.UUID
	PatientName      string
	Mobile           string
	DoctorName       string
	Date             time.Time
	TimeSlot         string
	FollowUpDate     *time.Time
	HospitalID       uuid.UUID
	HospitalName     string
	WhatsAppEnabled  bool
	ReminderTemplate *string
	FollowUpTemplate *string
}
