package scheduling

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mamacare/clinic/internal/domain/gestation"
	"github.com/mamacare/clinic/internal/domain/patient"
)

type PatientLookup interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

type Service struct {
	repo     Repository
	patients PatientLookup
}

func NewService(repo Repository, patients PatientLookup) *Service {
	return &Service{repo: repo, patients: patients}
}

// CreateAppointment books a visit. New appointments always start Scheduled
// regardless of the submitted status.
func (s *Service) CreateAppointment(ctx context.Context, a *Appointment) error {
	a.Status = StatusScheduled
	if err := s.prepare(ctx, a); err != nil {
		return err
	}
	return s.repo.Create(ctx, a)
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateAppointment(ctx context.Context, a *Appointment) error {
	existing, err := s.repo.GetByID(ctx, a.ID)
	if err != nil {
		return err
	}
	if a.Status == "" {
		a.Status = existing.Status
	}
	if err := s.prepare(ctx, a); err != nil {
		return err
	}
	return s.repo.Update(ctx, a)
}

func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListAppointments(ctx context.Context, q string, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.List(ctx, strings.TrimSpace(q), limit, offset)
}

func (s *Service) ListPatientAppointments(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	if _, err := s.patients.GetPatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) ListAllAppointments(ctx context.Context) ([]*Appointment, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) prepare(ctx context.Context, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("%w: patient_id is required", ErrInvalid)
	}
	if a.Date.IsZero() {
		return fmt.Errorf("%w: appointment_date is required", ErrInvalid)
	}
	a.Date = gestation.DateOf(a.Date)

	clock, ok := parseClock(strings.TrimSpace(a.Time))
	if !ok {
		return fmt.Errorf("%w: appointment_time must be HH:MM, got %q", ErrInvalid, a.Time)
	}
	a.Time = clock

	a.Purpose = strings.TrimSpace(a.Purpose)
	if a.Purpose == "" {
		return fmt.Errorf("%w: purpose is required", ErrInvalid)
	}
	if !a.Status.Valid() {
		return fmt.Errorf("%w: status must be Scheduled, Completed or Cancelled, got %q", ErrInvalid, a.Status)
	}

	if _, err := s.patients.GetPatient(ctx, a.PatientID); err != nil {
		return err
	}
	return nil
}
