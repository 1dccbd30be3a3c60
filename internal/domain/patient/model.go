package patient

import (
	"time"

	"github.com/google/uuid"

	"github.com/mamacare/clinic/internal/domain/gestation"
)

type RiskLevel string

const (
	RiskNormal RiskLevel = "Normal"
	RiskHigh   RiskLevel = "High"
	RiskLow    RiskLevel = "Low"
)

func (r RiskLevel) Valid() bool {
	switch r {
	case RiskNormal, RiskHigh, RiskLow:
		return true
	}
	return false
}

// Patient maps to the patient table.
type Patient struct {
	ID                       uuid.UUID  `db:"id" json:"id"`
	FullName                 string     `db:"full_name" json:"full_name"`
	Phone                    string     `db:"phone" json:"phone"`
	Email                    *string    `db:"email" json:"email,omitempty"`
	Age                      int        `db:"age" json:"age"`
	County                   *string    `db:"county" json:"county,omitempty"`
	Ward                     *string    `db:"ward" json:"ward,omitempty"`
	LMP                      time.Time  `db:"lmp" json:"lmp"`
	ExpectedDueDate          *time.Time `db:"expected_due_date" json:"expected_due_date,omitempty"`
	BloodType                *string    `db:"blood_type" json:"blood_type,omitempty"`
	Gravida                  int        `db:"gravida" json:"gravida"`
	Parity                   int        `db:"parity" json:"parity"`
	PrimaryReason            *string    `db:"primary_reason" json:"primary_reason,omitempty"`
	MedicalHistory           *string    `db:"medical_history" json:"medical_history,omitempty"`
	RiskLevel                RiskLevel  `db:"risk_level" json:"risk_level"`
	EmergencyContactName     *string    `db:"emergency_contact_name" json:"emergency_contact_name,omitempty"`
	EmergencyContactRelation *string    `db:"emergency_contact_relation" json:"emergency_contact_relation,omitempty"`
	EmergencyContactPhone    *string    `db:"emergency_contact_phone" json:"emergency_contact_phone,omitempty"`
	CreatedAt                time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt                time.Time  `db:"updated_at" json:"updated_at"`
}

// EnsureDueDate fills ExpectedDueDate from LMP when it is unset. A due date
// that is already present is never recomputed.
func (p *Patient) EnsureDueDate() {
	if p.ExpectedDueDate != nil || p.LMP.IsZero() {
		return
	}
	due := gestation.ComputeDueDate(p.LMP)
	p.ExpectedDueDate = &due
}

func (p *Patient) HasDueDate() bool {
	return p.ExpectedDueDate != nil
}
