package hospital

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists hospitals.
type Repository interface {
	Create(ctx context.Context, h *Hospital) error
	GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error)
	GetByEmail(ctx context.Context, email string) (*Hospital, error)
	Update(ctx context.Context, h *Hospital) error
	List(ctx context.Context, status string, limit, offset int) ([]*Hospital, int, error)
	FirstApproved(ctx context.Context) (*Hospital, error)
}
