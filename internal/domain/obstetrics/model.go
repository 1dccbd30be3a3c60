package obstetrics

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BloodGroup string

const (
	BloodAPos  BloodGroup = "A+"
	BloodANeg  BloodGroup = "A-"
	BloodBPos  BloodGroup = "B+"
	BloodBNeg  BloodGroup = "B-"
	BloodABPos BloodGroup = "AB+"
	BloodABNeg BloodGroup = "AB-"
	BloodOPos  BloodGroup = "O+"
	BloodONeg  BloodGroup = "O-"
)

func (b BloodGroup) Valid() bool {
	switch b {
	case BloodAPos, BloodANeg, BloodBPos, BloodBNeg, BloodABPos, BloodABNeg, BloodOPos, BloodONeg:
		return true
	}
	return false
}

type BabyGender string

const (
	BabyMale   BabyGender = "Male"
	BabyFemale BabyGender = "Female"
)

type DeliveryType string

const (
	DeliveryNormal   DeliveryType = "Normal Delivery"
	DeliveryCSection DeliveryType = "C-Section"
	DeliveryAssisted DeliveryType = "Assisted Delivery"
)

func (d DeliveryType) Valid() bool {
	switch d {
	case DeliveryNormal, DeliveryCSection, DeliveryAssisted:
		return true
	}
	return false
}

// MaxBabyWeight bounds baby_weight (kg) to what NUMERIC(4,2) can store.
var MaxBabyWeight = decimal.NewFromInt(100)

// Delivery maps to the delivery table.
type Delivery struct {
	ID                 uuid.UUID        `db:"id" json:"id"`
	PatientID          uuid.UUID        `db:"patient_id" json:"patient_id"`
	BloodGroup         *BloodGroup      `db:"blood_group" json:"blood_group,omitempty"`
	EmergencyContact   *string          `db:"emergency_contact" json:"emergency_contact,omitempty"`
	EDD                *time.Time       `db:"edd" json:"edd,omitempty"`
	DeliveryDate       time.Time        `db:"delivery_date" json:"delivery_date"`
	DeliveryTime       *string          `db:"delivery_time" json:"delivery_time,omitempty"`
	BabyGender         *BabyGender      `db:"baby_gender" json:"baby_gender,omitempty"`
	BabyWeight         *decimal.Decimal `db:"baby_weight" json:"baby_weight,omitempty"`
	AttendingPhysician *string          `db:"attending_physician" json:"attending_physician,omitempty"`
	DeliveryType       DeliveryType     `db:"delivery_type" json:"delivery_type"`
	Notes              *string          `db:"notes" json:"notes,omitempty"`
	CreatedAt          time.Time        `db:"created_at" json:"created_at"`

	// Emergency contact parts. When a name is given they are composed into
	// EmergencyContact on save.
	EmergencyName         string `db:"-" json:"emergency_name,omitempty"`
	EmergencyRelationship string `db:"-" json:"emergency_relationship,omitempty"`
	EmergencyPhone        string `db:"-" json:"emergency_phone,omitempty"`

	PatientName string `db:"-" json:"patient_name,omitempty"`
}

// composeEmergencyContact folds the separate contact parts into the single
// free-text column as "Name (Relationship) - Phone".
func (d *Delivery) composeEmergencyContact() {
	name := strings.TrimSpace(d.EmergencyName)
	if name == "" {
		return
	}
	s := fmt.Sprintf("%s (%s) - %s", name, strings.TrimSpace(d.EmergencyRelationship), strings.TrimSpace(d.EmergencyPhone))
	d.EmergencyContact = &s
}

// InheritDeliveryEDD resolves a delivery's expected date of delivery. An
// explicit edd wins; otherwise the patient's due date is copied. Both absent
// yields nil.
func InheritDeliveryEDD(edd, patientDue *time.Time) *time.Time {
	if edd != nil {
		return edd
	}
	if patientDue == nil {
		return nil
	}
	v := *patientDue
	return &v
}

type Condition string

const (
	ConditionGood     Condition = "Good"
	ConditionFair     Condition = "Fair"
	ConditionCritical Condition = "Critical"
	ConditionDeceased Condition = "Deceased"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionGood, ConditionFair, ConditionCritical, ConditionDeceased:
		return true
	}
	return false
}

type BillingStatus string

const (
	BillingPendingClearance BillingStatus = "Pending Clearance"
	BillingCleared          BillingStatus = "Cleared"
	BillingInsurancePending BillingStatus = "Insurance Pending"
)

func (b BillingStatus) Valid() bool {
	switch b {
	case BillingPendingClearance, BillingCleared, BillingInsurancePending:
		return true
	}
	return false
}

// Discharge maps to the discharge table.
type Discharge struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	PatientID     uuid.UUID     `db:"patient_id" json:"patient_id"`
	AdmissionDate *time.Time    `db:"admission_date" json:"admission_date,omitempty"`
	DischargeDate time.Time     `db:"discharge_date" json:"discharge_date"`
	DischargedBy  *string       `db:"discharged_by" json:"discharged_by,omitempty"`
	Condition     Condition     `db:"condition" json:"condition"`
	BillingStatus BillingStatus `db:"billing_status" json:"billing_status"`
	Medications   *string       `db:"medications" json:"medications,omitempty"`
	Notes         *string       `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`

	PatientName  string `db:"-" json:"patient_name,omitempty"`
	PatientPhone string `db:"-" json:"patient_phone,omitempty"`
}
