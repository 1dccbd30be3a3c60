package obstetrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mamacare/clinic/internal/domain/gestation"
	"github.com/mamacare/clinic/internal/domain/patient"
)

type PatientLookup interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

// BillingChecker answers whether a patient has paid.
type BillingChecker interface {
	CheckBillingCleared(ctx context.Context, patientID uuid.UUID) (bool, error)
}

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type GateObserver interface {
	ObserveDischargeGate(cleared bool)
}

type Service struct {
	deliveries DeliveryRepository
	discharges DischargeRepository
	patients   PatientLookup
	billing    BillingChecker
	tx         Transactor
	gate       GateObserver
	logger     zerolog.Logger
}

func NewService(
	deliveries DeliveryRepository,
	discharges DischargeRepository,
	patients PatientLookup,
	billing BillingChecker,
	tx Transactor,
	gate GateObserver,
	logger zerolog.Logger,
) *Service {
	return &Service{
		deliveries: deliveries,
		discharges: discharges,
		patients:   patients,
		billing:    billing,
		tx:         tx,
		gate:       gate,
		logger:     logger.With().Str("component", "obstetrics").Logger(),
	}
}

// -- Delivery --

func (s *Service) CreateDelivery(ctx context.Context, d *Delivery) error {
	if err := s.prepareDelivery(ctx, d); err != nil {
		return err
	}
	return s.deliveries.Create(ctx, d)
}

func (s *Service) GetDelivery(ctx context.Context, id uuid.UUID) (*Delivery, error) {
	return s.deliveries.GetByID(ctx, id)
}

// UpdateDelivery re-applies EDD inheritance, so clearing edd on edit copies
// the patient's current due date again.
func (s *Service) UpdateDelivery(ctx context.Context, d *Delivery) error {
	if _, err := s.deliveries.GetByID(ctx, d.ID); err != nil {
		return err
	}
	if err := s.prepareDelivery(ctx, d); err != nil {
		return err
	}
	return s.deliveries.Update(ctx, d)
}

func (s *Service) DeleteDelivery(ctx context.Context, id uuid.UUID) error {
	return s.deliveries.Delete(ctx, id)
}

func (s *Service) ListDeliveries(ctx context.Context, q string, limit, offset int) ([]*Delivery, int, error) {
	return s.deliveries.List(ctx, strings.TrimSpace(q), limit, offset)
}

func (s *Service) ListAllDeliveries(ctx context.Context) ([]*Delivery, error) {
	return s.deliveries.ListAll(ctx)
}

func (s *Service) prepareDelivery(ctx context.Context, d *Delivery) error {
	if d.PatientID == uuid.Nil {
		return fmt.Errorf("%w: patient_id is required", ErrInvalid)
	}
	if d.DeliveryDate.IsZero() {
		return fmt.Errorf("%w: delivery_date is required", ErrInvalid)
	}
	d.DeliveryDate = gestation.DateOf(d.DeliveryDate)
	if !d.DeliveryType.Valid() {
		return fmt.Errorf("%w: delivery_type must be Normal Delivery, C-Section or Assisted Delivery, got %q", ErrInvalid, d.DeliveryType)
	}
	if d.BloodGroup != nil && !d.BloodGroup.Valid() {
		return fmt.Errorf("%w: unknown blood_group %q", ErrInvalid, *d.BloodGroup)
	}
	if d.BabyGender != nil && *d.BabyGender != BabyMale && *d.BabyGender != BabyFemale {
		return fmt.Errorf("%w: baby_gender must be Male or Female", ErrInvalid)
	}
	if d.BabyWeight != nil {
		if !d.BabyWeight.IsPositive() || !d.BabyWeight.LessThan(MaxBabyWeight) {
			return fmt.Errorf("%w: baby_weight must be between 0 and 100 kg", ErrInvalid)
		}
		w := d.BabyWeight.Round(2)
		d.BabyWeight = &w
	}
	if d.DeliveryTime != nil {
		raw := strings.TrimSpace(*d.DeliveryTime)
		t, err := time.Parse("15:04", raw)
		if err != nil || len(raw) != len("15:04") {
			return fmt.Errorf("%w: delivery_time must be HH:MM", ErrInvalid)
		}
		clock := t.Format("15:04")
		d.DeliveryTime = &clock
	}
	if d.EDD != nil {
		edd := gestation.DateOf(*d.EDD)
		d.EDD = &edd
	}
	d.composeEmergencyContact()

	p, err := s.patients.GetPatient(ctx, d.PatientID)
	if err != nil {
		return err
	}
	d.EDD = InheritDeliveryEDD(d.EDD, p.ExpectedDueDate)
	return nil
}

// -- Discharge --

// CreateDischarge persists a discharge only when the patient has at least one
// successful payment. The clearance check and the insert share a transaction.
// A refusal returns *DischargeBlockedError and writes nothing.
func (s *Service) CreateDischarge(ctx context.Context, d *Discharge) error {
	if err := prepareDischarge(d); err != nil {
		return err
	}

	var blocked *DischargeBlockedError
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.patients.GetPatient(ctx, d.PatientID)
		if err != nil {
			return err
		}
		cleared, err := s.billing.CheckBillingCleared(ctx, d.PatientID)
		if err != nil {
			return fmt.Errorf("check billing: %w", err)
		}
		if !cleared {
			blocked = &DischargeBlockedError{PatientID: p.ID, PatientName: p.FullName, Discharge: d}
			return blocked
		}
		return s.discharges.Create(ctx, d)
	})

	if blocked != nil {
		s.observeGate(false)
		s.logger.Info().
			Str("patient_id", blocked.PatientID.String()).
			Msg("discharge blocked: outstanding bills")
		return blocked
	}
	if err != nil {
		return err
	}
	s.observeGate(true)
	return nil
}

func (s *Service) observeGate(cleared bool) {
	if s.gate != nil {
		s.gate.ObserveDischargeGate(cleared)
	}
}

func (s *Service) GetDischarge(ctx context.Context, id uuid.UUID) (*Discharge, error) {
	return s.discharges.GetByID(ctx, id)
}

func (s *Service) UpdateDischarge(ctx context.Context, d *Discharge) error {
	existing, err := s.discharges.GetByID(ctx, d.ID)
	if err != nil {
		return err
	}
	if d.BillingStatus == "" {
		d.BillingStatus = existing.BillingStatus
	}
	if err := prepareDischarge(d); err != nil {
		return err
	}
	return s.discharges.Update(ctx, d)
}

func (s *Service) DeleteDischarge(ctx context.Context, id uuid.UUID) error {
	return s.discharges.Delete(ctx, id)
}

func (s *Service) ListDischarges(ctx context.Context, q string, limit, offset int) ([]*Discharge, int, error) {
	return s.discharges.List(ctx, strings.TrimSpace(q), limit, offset)
}

func (s *Service) ListAllDischarges(ctx context.Context) ([]*Discharge, error) {
	return s.discharges.ListAll(ctx)
}

func prepareDischarge(d *Discharge) error {
	if d.PatientID == uuid.Nil {
		return fmt.Errorf("%w: patient_id is required", ErrInvalid)
	}
	if d.DischargeDate.IsZero() {
		return fmt.Errorf("%w: discharge_date is required", ErrInvalid)
	}
	d.DischargeDate = gestation.DateOf(d.DischargeDate)
	if d.AdmissionDate != nil {
		adm := gestation.DateOf(*d.AdmissionDate)
		if adm.After(d.DischargeDate) {
			return fmt.Errorf("%w: admission_date is after discharge_date", ErrInvalid)
		}
		d.AdmissionDate = &adm
	}
	if !d.Condition.Valid() {
		return fmt.Errorf("%w: condition must be Good, Fair, Critical or Deceased, got %q", ErrInvalid, d.Condition)
	}
	if d.BillingStatus == "" {
		d.BillingStatus = BillingPendingClearance
	}
	if !d.BillingStatus.Valid() {
		return fmt.Errorf("%w: unknown billing_status %q", ErrInvalid, d.BillingStatus)
	}
	return nil
}
