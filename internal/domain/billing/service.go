package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mamacare/clinic/internal/domain/patient"
)

// DefaultRecentLimit is the number of transactions shown on the billing page.
const DefaultRecentLimit = 15

type PatientLookup interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

type PaymentObserver interface {
	ObservePayment(status string, amount decimal.Decimal)
}

type Service struct {
	repo          Repository
	patients      PatientLookup
	defaultCharge decimal.Decimal
	observer      PaymentObserver
}

func NewService(repo Repository, patients PatientLookup, defaultCharge decimal.Decimal, observer PaymentObserver) *Service {
	return &Service{
		repo:          repo,
		patients:      patients,
		defaultCharge: defaultCharge,
		observer:      observer,
	}
}

// CheckBillingCleared reports whether the patient has at least one Success
// transaction. Amount and age of the transaction are not considered.
func (s *Service) CheckBillingCleared(ctx context.Context, patientID uuid.UUID) (bool, error) {
	return s.repo.HasSuccessful(ctx, patientID)
}

// Clearance resolves the patient first so unknown IDs surface as not found.
func (s *Service) Clearance(ctx context.Context, patientID uuid.UUID) (*Clearance, error) {
	if _, err := s.patients.GetPatient(ctx, patientID); err != nil {
		return nil, err
	}
	cleared, err := s.CheckBillingCleared(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return &Clearance{PatientID: patientID, Cleared: cleared}, nil
}

// InitiatePayment simulates a mobile-money push. There is no gateway: the
// transaction is recorded as Success immediately. A nil amount charges the
// configured default.
func (s *Service) InitiatePayment(ctx context.Context, req PaymentRequest) (*Transaction, error) {
	amount := s.defaultCharge
	if req.Amount != nil {
		amount = *req.Amount
	}

	ref := NewReference()
	t := &Transaction{
		PatientID:     req.PatientID,
		Amount:        amount,
		TransactionID: &ref,
		Status:        StatusSuccess,
	}
	if err := s.RecordTransaction(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// RecordTransaction stores a transaction with an explicit status.
func (s *Service) RecordTransaction(ctx context.Context, t *Transaction) error {
	if t.PatientID == uuid.Nil {
		return fmt.Errorf("%w: patient_id is required", ErrInvalid)
	}
	if !t.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalid)
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: status must be Pending, Success or Failed, got %q", ErrInvalid, t.Status)
	}
	t.Amount = t.Amount.Round(2)

	if _, err := s.patients.GetPatient(ctx, t.PatientID); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return err
	}
	if s.observer != nil {
		s.observer.ObservePayment(string(t.Status), t.Amount)
	}
	return nil
}

func (s *Service) ListRecent(ctx context.Context, limit int) ([]*Transaction, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return s.repo.ListRecent(ctx, limit)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Transaction, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) ListAllTransactions(ctx context.Context) ([]*Transaction, error) {
	return s.repo.ListAll(ctx)
}

// NewReference returns an opaque transaction reference: "WS" followed by 12
// upper-case hex characters.
func NewReference() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "WS" + strings.ToUpper(raw[:12])
}
