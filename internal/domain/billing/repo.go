package billing

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	// HasSuccessful reports whether the patient has at least one Success
	// transaction.
	HasSuccessful(ctx context.Context, patientID uuid.UUID) (bool, error)
	ListRecent(ctx context.Context, limit int) ([]*Transaction, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Transaction, error)
	ListAll(ctx context.Context) ([]*Transaction, error)
}
