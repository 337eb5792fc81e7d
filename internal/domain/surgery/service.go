package surgery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carebook/carebook/internal/domain/identity"
)

var (
	ErrPastDate          = errors.New("cannot book operations for past dates")
	ErrMissingSpecialty  = errors.New("specialty is required")
	ErrDoctorNotFound    = errors.New("doctor not found")
	ErrOperationNotFound = errors.New("operation not found")
	ErrForbidden         = errors.New("not authorized to modify this operation")
	ErrInvalidTransition = errors.New("operation cannot change to that status")
)

// Directory resolves users across the identity domain.
type Directory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

// BookingRequest is the payload for scheduling a new operation.
type BookingRequest struct {
	DoctorID  uuid.UUID
	Specialty string
	Date      time.Time
	Notes     *string
}

type Service struct {
	ops   OperationRepository
	users Directory
	now   func() time.Time
}

func NewService(ops OperationRepository, users Directory) *Service {
	return &Service{ops: ops, users: users, now: time.Now}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Book schedules a pending operation with the doctor on the given date.
// Operations are date-granular, so there is no slot contention check.
func (s *Service) Book(ctx context.Context, patientID uuid.UUID, req BookingRequest) (*Operation, error) {
	if strings.TrimSpace(req.Specialty) == "" {
		return nil, ErrMissingSpecialty
	}
	if dateOnly(req.Date).Before(dateOnly(s.now())) {
		return nil, ErrPastDate
	}

	doctor, err := s.users.GetUser(ctx, req.DoctorID)
	if err != nil || !doctor.IsDoctor() {
		return nil, ErrDoctorNotFound
	}
	patient, err := s.users.GetUser(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("loading patient: %w", err)
	}

	hospitalID := patient.HospitalID
	if hospitalID == nil {
		hospitalID = doctor.HospitalID
	}

	op := &Operation{
		PatientID:  patientID,
		DoctorID:   req.DoctorID,
		HospitalID: hospitalID,
		Specialty:  req.Specialty,
		Date:       dateOnly(req.Date),
		Status:     StatusPending,
		Notes:      req.Notes,
	}
	if err := s.ops.Create(ctx, op); err != nil {
		return nil, err
	}
	op.PatientName = patient.Name
	op.DoctorName = doctor.Name
	return op, nil
}

// Confirm moves a pending operation to confirmed, doctor-scoped.
func (s *Service) Confirm(ctx context.Context, id, doctorID uuid.UUID) (*Operation, error) {
	op, err := s.ops.GetByID(ctx, id)
	if err != nil || op.DoctorID != doctorID {
		return nil, ErrOperationNotFound
	}
	if op.Status != StatusPending {
		return nil, ErrInvalidTransition
	}
	op.Status = StatusConfirmed
	if err := s.ops.Update(ctx, op); err != nil {
		return nil, err
	}
	return op, nil
}

// Cancel may be called by the booking patient or the assigned doctor.
func (s *Service) Cancel(ctx context.Context, id, userID uuid.UUID) (*Operation, error) {
	op, err := s.ops.GetByID(ctx, id)
	if err != nil {
		return nil, ErrOperationNotFound
	}
	if op.PatientID != userID && op.DoctorID != userID {
		return nil, ErrForbidden
	}
	if op.IsTerminal() {
		return nil, ErrInvalidTransition
	}
	op.Status = StatusCancelled
	if err := s.ops.Update(ctx, op); err != nil {
		return nil, err
	}
	return op, nil
}

func (s *Service) MyOperations(ctx context.Context, patientID uuid.UUID) ([]*Operation, error) {
	return s.ops.ListByPatient(ctx, patientID)
}

func (s *Service) DoctorOperations(ctx context.Context, doctorID uuid.UUID) ([]*Operation, error) {
	return s.ops.ListByDoctor(ctx, doctorID)
}

// BySpecialty lists the caller's operations in a specialty: a doctor sees
// operations assigned to them, other roles see their own bookings.
func (s *Service) BySpecialty(ctx context.Context, specialty string, userID uuid.UUID, role string) ([]*Operation, error) {
	if strings.TrimSpace(specialty) == "" {
		return nil, ErrMissingSpecialty
	}
	return s.ops.ListBySpecialty(ctx, specialty, userID, role == identity.RoleDoctor)
}
