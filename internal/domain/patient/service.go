package patient

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/mamacare/clinic/internal/domain/gestation"
	"github.com/mamacare/clinic/internal/platform/phone"
)

type Service struct {
	repo        Repository
	phoneRegion string
}

// NewService returns a patient service. phoneRegion is the region assumed for
// phone numbers written without a country code.
func NewService(repo Repository, phoneRegion string) *Service {
	return &Service{repo: repo, phoneRegion: phoneRegion}
}

// CreatePatient registers a patient. The expected due date is always derived
// from LMP; any value supplied by the caller is discarded.
func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	p.ExpectedDueDate = nil
	if err := s.prepare(p); err != nil {
		return err
	}
	p.EnsureDueDate()
	return s.repo.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdatePatient replaces the editable fields of an existing patient. The
// stored expected due date is kept; it is only computed when the record has
// none.
func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	existing, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	p.ExpectedDueDate = existing.ExpectedDueDate
	if err := s.prepare(p); err != nil {
		return err
	}
	p.EnsureDueDate()
	return s.repo.Update(ctx, p)
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, q string, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, strings.TrimSpace(q), limit, offset)
}

func (s *Service) ListAllPatients(ctx context.Context) ([]*Patient, error) {
	return s.repo.ListAll(ctx)
}

// prepare applies defaults, normalises fields and validates.
func (s *Service) prepare(p *Patient) error {
	p.FullName = strings.TrimSpace(p.FullName)
	if p.FullName == "" {
		return fmt.Errorf("%w: full_name is required", ErrInvalid)
	}
	if p.Age <= 0 {
		return fmt.Errorf("%w: age must be positive", ErrInvalid)
	}
	if p.LMP.IsZero() {
		return fmt.Errorf("%w: lmp is required", ErrInvalid)
	}
	p.LMP = gestation.DateOf(p.LMP)

	normalized, err := phone.Normalize(p.Phone, s.phoneRegion)
	if err != nil {
		return fmt.Errorf("%w: phone: %v", ErrInvalid, err)
	}
	p.Phone = normalized

	if p.EmergencyContactPhone != nil && strings.TrimSpace(*p.EmergencyContactPhone) != "" {
		ec, err := phone.Normalize(*p.EmergencyContactPhone, s.phoneRegion)
		if err != nil {
			return fmt.Errorf("%w: emergency_contact_phone: %v", ErrInvalid, err)
		}
		p.EmergencyContactPhone = &ec
	}

	if p.Email != nil && *p.Email != "" {
		if _, err := mail.ParseAddress(*p.Email); err != nil {
			return fmt.Errorf("%w: email: %v", ErrInvalid, err)
		}
	}

	if p.RiskLevel == "" {
		p.RiskLevel = RiskNormal
	}
	if !p.RiskLevel.Valid() {
		return fmt.Errorf("%w: risk_level must be Normal, High or Low, got %q", ErrInvalid, p.RiskLevel)
	}

	if p.Gravida == 0 {
		p.Gravida = 1
	}
	if p.Gravida < 0 || p.Parity < 0 {
		return fmt.Errorf("%w: gravida and parity must not be negative", ErrInvalid)
	}
	return nil
}
