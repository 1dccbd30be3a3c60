// Package dashboard builds the clinic's summary report from a snapshot of
// every record. Build is pure; Service loads the snapshot.
package dashboard

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mamacare/clinic/internal/domain/billing"
	"github.com/mamacare/clinic/internal/domain/gestation"
	"github.com/mamacare/clinic/internal/domain/obstetrics"
	"github.com/mamacare/clinic/internal/domain/patient"
	"github.com/mamacare/clinic/internal/domain/scheduling"
)

// RevenueScope selects which successful transactions count toward revenue.
type RevenueScope string

const (
	// RevenueMonth matches on calendar month alone, so the same month of any
	// year is included.
	RevenueMonth RevenueScope = "month"
	// RevenueYearMonth matches on both year and month.
	RevenueYearMonth RevenueScope = "year_month"
)

// ParseRevenueScope reads a query value. Empty means RevenueMonth.
func ParseRevenueScope(s string) (RevenueScope, error) {
	switch RevenueScope(s) {
	case "", RevenueMonth:
		return RevenueMonth, nil
	case RevenueYearMonth:
		return RevenueYearMonth, nil
	}
	return "", fmt.Errorf("unknown revenue scope %q", s)
}

// Options tunes how Build reads the snapshot.
type Options struct {
	RevenueScope RevenueScope
	// Location is the clinic's zone, used to read the month of a
	// transaction timestamp. Nil means UTC.
	Location *time.Location
}

// Snapshot is the full data set a report is computed over.
type Snapshot struct {
	Patients     []*patient.Patient
	Appointments []*scheduling.Appointment
	Deliveries   []*obstetrics.Delivery
	Discharges   []*obstetrics.Discharge
	Transactions []*billing.Transaction
}

// UrgentPatient is the high-risk patient due soonest.
type UrgentPatient struct {
	ID              uuid.UUID `json:"id"`
	FullName        string    `json:"full_name"`
	Phone           string    `json:"phone"`
	ExpectedDueDate time.Time `json:"expected_due_date"`
	DaysRemaining   int       `json:"days_remaining"`
}

// Report is the dashboard payload.
type Report struct {
	Today                time.Time           `json:"today"`
	TotalPatients        int                 `json:"total_patients"`
	HighRiskPatients     int                 `json:"high_risk_patients"`
	UpcomingAppointments int                 `json:"upcoming_appointments"`
	MissedAppointments   int                 `json:"missed_appointments"`
	TotalDeliveries      int                 `json:"total_deliveries"`
	TotalDischarges      int                 `json:"total_discharges"`
	MonthlyRevenue       decimal.Decimal     `json:"monthly_revenue"`
	RevenueScope         RevenueScope        `json:"revenue_scope"`
	UrgentPatient        *UrgentPatient      `json:"urgent_patient"`
	Trimesters           gestation.Breakdown `json:"trimesters"`
	GeneratedAt          time.Time           `json:"generated_at,omitempty"`
}

// Build computes the dashboard for today over snap. today is a calendar date.
func Build(today time.Time, snap Snapshot, opts Options) *Report {
	today = gestation.DateOf(today)
	if opts.RevenueScope == "" {
		opts.RevenueScope = RevenueMonth
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	r := &Report{
		Today:           today,
		TotalPatients:   len(snap.Patients),
		TotalDeliveries: len(snap.Deliveries),
		TotalDischarges: len(snap.Discharges),
		RevenueScope:    opts.RevenueScope,
	}

	highRisk := lo.Filter(snap.Patients, func(p *patient.Patient, _ int) bool {
		return p.RiskLevel == patient.RiskHigh
	})
	r.HighRiskPatients = len(highRisk)

	r.UpcomingAppointments = lo.CountBy(snap.Appointments, func(a *scheduling.Appointment) bool {
		return a.IsUpcoming(today)
	})
	r.MissedAppointments = lo.CountBy(snap.Appointments, func(a *scheduling.Appointment) bool {
		return a.IsMissed(today)
	})

	r.MonthlyRevenue = lo.Reduce(snap.Transactions, func(sum decimal.Decimal, t *billing.Transaction, _ int) decimal.Decimal {
		if t.Status != billing.StatusSuccess || !inRevenuePeriod(t.CreatedAt.In(loc), today, opts.RevenueScope) {
			return sum
		}
		return sum.Add(t.Amount)
	}, decimal.Zero)

	r.UrgentPatient = urgentPatient(highRisk, today)

	dues := lo.FilterMap(snap.Patients, func(p *patient.Patient, _ int) (time.Time, bool) {
		if p.ExpectedDueDate == nil {
			return time.Time{}, false
		}
		return *p.ExpectedDueDate, true
	})
	r.Trimesters = gestation.AggregateTrimesters(dues, today)

	return r
}

func inRevenuePeriod(at, today time.Time, scope RevenueScope) bool {
	if at.Month() != today.Month() {
		return false
	}
	return scope != RevenueYearMonth || at.Year() == today.Year()
}

// urgentPatient picks the earliest due date among high-risk patients that
// have one. Ties go to the patient registered first.
func urgentPatient(highRisk []*patient.Patient, today time.Time) *UrgentPatient {
	candidates := lo.Filter(highRisk, func(p *patient.Patient, _ int) bool {
		return p.ExpectedDueDate != nil
	})
	if len(candidates) == 0 {
		return nil
	}
	p := lo.MinBy(candidates, func(a, b *patient.Patient) bool {
		da, db := gestation.DateOf(*a.ExpectedDueDate), gestation.DateOf(*b.ExpectedDueDate)
		if !da.Equal(db) {
			return da.Before(db)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	due := gestation.DateOf(*p.ExpectedDueDate)
	return &UrgentPatient{
		ID:              p.ID,
		FullName:        p.FullName,
		Phone:           p.Phone,
		ExpectedDueDate: due,
		DaysRemaining:   gestation.DaysRemaining(due, today),
	}
}
