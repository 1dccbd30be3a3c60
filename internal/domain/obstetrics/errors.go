package obstetrics

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrDeliveryNotFound  = errors.New("delivery not found")
	ErrDischargeNotFound = errors.New("discharge not found")
	ErrInvalid           = errors.New("invalid obstetric record")
	ErrDischargeBlocked  = errors.New("discharge blocked")
)

// DischargeBlockedError is returned when a discharge is refused because the
// patient has no successful payment. Discharge carries the rejected input so
// the caller can show it again.
type DischargeBlockedError struct {
	PatientID   uuid.UUID
	PatientName string
	Discharge   *Discharge
}

func (e *DischargeBlockedError) Error() string {
	return fmt.Sprintf("discharge blocked: patient %s has outstanding bills, payment required", e.PatientName)
}

func (e *DischargeBlockedError) Is(target error) bool {
	return target == ErrDischargeBlocked
}
