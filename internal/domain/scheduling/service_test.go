package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mamacare/clinic/internal/domain/patient"
)

type mockRepo struct {
	store map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	m.store[a.ID] = a
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *mockRepo) Update(_ context.Context, a *Appointment) error {
	if _, ok := m.store[a.ID]; !ok {
		return ErrNotFound
	}
	m.store[a.ID] = a
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, _ string, _, _ int) ([]*Appointment, int, error) {
	var r []*Appointment
	for _, a := range m.store {
		r = append(r, a)
	}
	return r, len(r), nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	var r []*Appointment
	for _, a := range m.store {
		if a.PatientID == patientID {
			r = append(r, a)
		}
	}
	return r, nil
}

func (m *mockRepo) ListAll(_ context.Context) ([]*Appointment, error) {
	var r []*Appointment
	for _, a := range m.store {
		r = append(r, a)
	}
	return r, nil
}

type mockPatients struct {
	known map[uuid.UUID]bool
}

func (m *mockPatients) GetPatient(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	if !m.known[id] {
		return nil, patient.ErrNotFound
	}
	return &patient.Patient{ID: id}, nil
}

func newTestService() (*Service, *mockRepo, uuid.UUID) {
	pid := uuid.New()
	repo := newMockRepo()
	return NewService(repo, &mockPatients{known: map[uuid.UUID]bool{pid: true}}), repo, pid
}

func validAppointment(patientID uuid.UUID) *Appointment {
	return &Appointment{
		PatientID: patientID,
		Date:      time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC),
		Time:      "09:30",
		Purpose:   "Antenatal check",
	}
}

func TestCreateAppointment_ForcesScheduled(t *testing.T) {
	svc, _, pid := newTestService()
	a := validAppointment(pid)
	a.Status = StatusCompleted

	if err := svc.CreateAppointment(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusScheduled {
		t.Errorf("expected Scheduled, got %s", a.Status)
	}
	if a.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
	if !a.Date.Equal(date(2025, 3, 12)) {
		t.Errorf("expected date truncated, got %v", a.Date)
	}
}

func TestCreateAppointment_UnknownPatient(t *testing.T) {
	svc, repo, _ := newTestService()
	err := svc.CreateAppointment(context.Background(), validAppointment(uuid.New()))
	if !errors.Is(err, patient.ErrNotFound) {
		t.Errorf("expected patient.ErrNotFound, got %v", err)
	}
	if len(repo.store) != 0 {
		t.Error("expected nothing stored")
	}
}

func TestCreateAppointment_Validation(t *testing.T) {
	svc, _, pid := newTestService()
	tests := map[string]func(a *Appointment){
		"missing patient": func(a *Appointment) { a.PatientID = uuid.Nil },
		"missing date":    func(a *Appointment) { a.Date = time.Time{} },
		"bad time":        func(a *Appointment) { a.Time = "half past nine" },
		"missing purpose": func(a *Appointment) { a.Purpose = "   " },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			a := validAppointment(pid)
			mutate(a)
			if err := svc.CreateAppointment(context.Background(), a); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestUpdateAppointment_StatusTransitions(t *testing.T) {
	svc, _, pid := newTestService()
	a := validAppointment(pid)
	if err := svc.CreateAppointment(context.Background(), a); err != nil {
		t.Fatalf("create: %v", err)
	}

	upd := validAppointment(pid)
	upd.ID = a.ID
	upd.Status = StatusCompleted
	if err := svc.UpdateAppointment(context.Background(), upd); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := svc.GetAppointment(context.Background(), a.ID)
	if got.Status != StatusCompleted {
		t.Errorf("expected Completed, got %s", got.Status)
	}

	bad := validAppointment(pid)
	bad.ID = a.ID
	bad.Status = "Missed"
	if err := svc.UpdateAppointment(context.Background(), bad); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestUpdateAppointment_KeepsStatusWhenOmitted(t *testing.T) {
	svc, _, pid := newTestService()
	a := validAppointment(pid)
	svc.CreateAppointment(context.Background(), a)

	upd := validAppointment(pid)
	upd.ID = a.ID
	upd.Purpose = "Ultrasound"
	if err := svc.UpdateAppointment(context.Background(), upd); err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.Status != StatusScheduled {
		t.Errorf("expected status kept as Scheduled, got %s", upd.Status)
	}
}

func TestUpdateAppointment_NotFound(t *testing.T) {
	svc, _, pid := newTestService()
	a := validAppointment(pid)
	a.ID = uuid.New()
	if err := svc.UpdateAppointment(context.Background(), a); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAppointment(t *testing.T) {
	svc, repo, pid := newTestService()
	a := validAppointment(pid)
	svc.CreateAppointment(context.Background(), a)

	if err := svc.DeleteAppointment(context.Background(), a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(repo.store) != 0 {
		t.Error("expected appointment removed")
	}
	if err := svc.DeleteAppointment(context.Background(), a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListPatientAppointments_UnknownPatient(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.ListPatientAppointments(context.Background(), uuid.New()); !errors.Is(err, patient.ErrNotFound) {
		t.Errorf("expected patient.ErrNotFound, got %v", err)
	}
}
