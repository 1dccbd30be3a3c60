package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending Status = "Pending"
	StatusSuccess Status = "Success"
	StatusFailed  Status = "Failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusFailed:
		return true
	}
	return false
}

// Transaction maps to the payment_transaction table.
type Transaction struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	PatientID     uuid.UUID       `db:"patient_id" json:"patient_id"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	TransactionID *string         `db:"transaction_id" json:"transaction_id,omitempty"`
	Status        Status          `db:"status" json:"status"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`

	// Populated by listings that join the patient table.
	PatientName string `db:"-" json:"patient_name,omitempty"`
}

// PaymentRequest is the body of a simulated mobile-money push.
type PaymentRequest struct {
	PatientID uuid.UUID        `json:"patient_id"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
}

// Clearance reports whether a patient may be discharged.
type Clearance struct {
	PatientID uuid.UUID `json:"patient_id"`
	Cleared   bool      `json:"cleared"`
}
