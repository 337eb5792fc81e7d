package surgery

import (
	"context"

	"github.com/google/uuid"
)

// OperationRepository persists operations.
type OperationRepository interface {
	Create(ctx context.Context, op *Operation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Operation, error)
	Update(ctx context.Context, op *Operation) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Operation, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Operation, error)
	// ListBySpecialty scopes to the caller's side of the operation: doctors
	// see their own operations in the specialty, everyone else their
	// bookings.
	ListBySpecialty(ctx context.Context, specialty string, userID uuid.UUID, asDoctor bool) ([]*Operation, error)
}
