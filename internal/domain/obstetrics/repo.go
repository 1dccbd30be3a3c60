package obstetrics

import (
	"context"

	"github.com/google/uuid"
)

type DeliveryRepository interface {
	Create(ctx context.Context, d *Delivery) error
	GetByID(ctx context.Context, id uuid.UUID) (*Delivery, error)
	Update(ctx context.Context, d *Delivery) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q string, limit, offset int) ([]*Delivery, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Delivery, error)
	ListAll(ctx context.Context) ([]*Delivery, error)
}

type DischargeRepository interface {
	Create(ctx context.Context, d *Discharge) error
	GetByID(ctx context.Context, id uuid.UUID) (*Discharge, error)
	Update(ctx context.Context, d *Discharge) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q string, limit, offset int) ([]*Discharge, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Discharge, error)
	ListAll(ctx context.Context) ([]*Discharge, error)
}
