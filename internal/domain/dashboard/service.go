package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/mamacare/clinic/internal/domain/billing"
	"github.com/mamacare/clinic/internal/domain/gestation"
	"github.com/mamacare/clinic/internal/domain/obstetrics"
	"github.com/mamacare/clinic/internal/domain/patient"
	"github.com/mamacare/clinic/internal/domain/scheduling"
)

type PatientSource interface {
	ListAllPatients(ctx context.Context) ([]*patient.Patient, error)
}

type AppointmentSource interface {
	ListAllAppointments(ctx context.Context) ([]*scheduling.Appointment, error)
}

type ObstetricsSource interface {
	ListAllDeliveries(ctx context.Context) ([]*obstetrics.Delivery, error)
	ListAllDischarges(ctx context.Context) ([]*obstetrics.Discharge, error)
}

type TransactionSource interface {
	ListAllTransactions(ctx context.Context) ([]*billing.Transaction, error)
}

// Snapshotter runs fn against one consistent view of the database.
type Snapshotter interface {
	WithinSnapshot(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	patients     PatientSource
	appointments AppointmentSource
	obstetrics   ObstetricsSource
	transactions TransactionSource
	snapshots    Snapshotter
	loc          *time.Location
	now          func() time.Time
}

func NewService(
	patients PatientSource,
	appointments AppointmentSource,
	obs ObstetricsSource,
	transactions TransactionSource,
	snapshots Snapshotter,
	loc *time.Location,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		patients:     patients,
		appointments: appointments,
		obstetrics:   obs,
		transactions: transactions,
		snapshots:    snapshots,
		loc:          loc,
		now:          time.Now,
	}
}

// Today is the current calendar date in the clinic's zone.
func (s *Service) Today() time.Time {
	return gestation.Today(s.now(), s.loc)
}

// Report loads every record in one snapshot and builds the dashboard for
// today.
func (s *Service) Report(ctx context.Context, today time.Time, scope RevenueScope) (*Report, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	r := Build(today, *snap, Options{RevenueScope: scope, Location: s.loc})
	r.GeneratedAt = s.now().UTC()
	return r, nil
}

func (s *Service) load(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	err := s.snapshots.WithinSnapshot(ctx, func(ctx context.Context) error {
		var err error
		if snap.Patients, err = s.patients.ListAllPatients(ctx); err != nil {
			return fmt.Errorf("load patients: %w", err)
		}
		if snap.Appointments, err = s.appointments.ListAllAppointments(ctx); err != nil {
			return fmt.Errorf("load appointments: %w", err)
		}
		if snap.Deliveries, err = s.obstetrics.ListAllDeliveries(ctx); err != nil {
			return fmt.Errorf("load deliveries: %w", err)
		}
		if snap.Discharges, err = s.obstetrics.ListAllDischarges(ctx); err != nil {
			return fmt.Errorf("load discharges: %w", err)
		}
		if snap.Transactions, err = s.transactions.ListAllTransactions(ctx); err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
