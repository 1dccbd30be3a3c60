package scheduling

import (
	"time"

	"github.com/google/uuid"

	"github.com/mamacare/clinic/internal/domain/gestation"
)

type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Appointment maps to the appointment table. Time is wall-clock "HH:MM" in
// the clinic's zone.
type Appointment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Date      time.Time `db:"appointment_date" json:"appointment_date"`
	Time      string    `db:"appointment_time" json:"appointment_time"`
	Purpose   string    `db:"purpose" json:"purpose"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	Doctor    *string   `db:"doctor" json:"doctor,omitempty"`
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	PatientName string `db:"-" json:"patient_name,omitempty"`
}

// IsUpcoming reports whether the appointment is still scheduled for today or
// later. Dates are compared as calendar dates.
func (a *Appointment) IsUpcoming(today time.Time) bool {
	return a.Status == StatusScheduled && !gestation.DateOf(a.Date).Before(gestation.DateOf(today))
}

// IsMissed reports whether the appointment is still scheduled for a date
// before today.
func (a *Appointment) IsMissed(today time.Time) bool {
	return a.Status == StatusScheduled && gestation.DateOf(a.Date).Before(gestation.DateOf(today))
}

// parseClock accepts "HH:MM" or "HH:MM:SS" with two-digit hours and returns
// the "HH:MM" form.
func parseClock(s string) (string, bool) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if len(s) != len(layout) {
			continue
		}
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), true
		}
	}
	return "", false
}
