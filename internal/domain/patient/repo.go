package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns newest patients first. q filters on name or phone.
	List(ctx context.Context, q string, limit, offset int) ([]*Patient, int, error)
	ListAll(ctx context.Context) ([]*Patient, error)
}
