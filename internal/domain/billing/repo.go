package billing

import (
	"context"

	"github.com/google/uuid"
)

// PaymentRepository persists payment requests.
type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	Update(ctx context.Context, p *Payment) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Payment, error)
}
