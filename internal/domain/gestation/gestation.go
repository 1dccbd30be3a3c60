// Package gestation holds the pregnancy-dating rules shared by the patient
// registry and the dashboard: due-date derivation from the last menstrual
// period and trimester bucketing relative to a caller-supplied "today".
//
// Every function takes "today" explicitly; nothing in this package reads the
// wall clock.
package gestation

import (
	"math"
	"time"
)

// GestationDays is the length of a full-term pregnancy counted from LMP.
const GestationDays = 280

const (
	fullTermWeeks      = 40.0
	firstTrimesterEnd  = 12.0
	secondTrimesterEnd = 27.0
)

// Trimester identifies one of the three gestational periods.
type Trimester int

const (
	FirstTrimester Trimester = iota + 1
	SecondTrimester
	ThirdTrimester
)

func (t Trimester) String() string {
	switch t {
	case FirstTrimester:
		return "first"
	case SecondTrimester:
		return "second"
	case ThirdTrimester:
		return "third"
	default:
		return "unknown"
	}
}

// DateOf truncates t to its calendar date, expressed as midnight UTC.
// The calendar date is read in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date in loc as midnight UTC.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(now.In(loc))
}

// ComputeDueDate returns the expected due date for a last-menstrual-period
// date: LMP + 280 days.
func ComputeDueDate(lmp time.Time) time.Time {
	return DateOf(lmp).AddDate(0, 0, GestationDays)
}

// DaysRemaining returns the whole number of days from today until due.
// Overdue pregnancies yield a negative count.
func DaysRemaining(due, today time.Time) int {
	return int(DateOf(due).Sub(DateOf(today)).Hours() / 24)
}

// WeeksPregnant returns 40 - daysRemaining/7 using real division.
func WeeksPregnant(due, today time.Time) float64 {
	return fullTermWeeks - float64(DaysRemaining(due, today))/7
}

// ClassifyTrimester buckets a due date relative to today. Upper bounds are
// inclusive: 12 weeks is first trimester, 27 weeks is second. There is no
// upper limit on the third trimester.
func ClassifyTrimester(due, today time.Time) Trimester {
	return trimesterForWeeks(WeeksPregnant(due, today))
}

func trimesterForWeeks(weeks float64) Trimester {
	switch {
	case weeks <= firstTrimesterEnd:
		return FirstTrimester
	case weeks <= secondTrimesterEnd:
		return SecondTrimester
	default:
		return ThirdTrimester
	}
}

// Breakdown is the population split across trimesters.
type Breakdown struct {
	First         int `json:"first_trimester"`
	Second        int `json:"second_trimester"`
	Third         int `json:"third_trimester"`
	FirstPercent  int `json:"first_trimester_percent"`
	SecondPercent int `json:"second_trimester_percent"`
	ThirdPercent  int `json:"third_trimester_percent"`
}

// Total returns the number of classified due dates.
func (b Breakdown) Total() int {
	return b.First + b.Second + b.Third
}

// AggregateTrimesters classifies every due date and reports per-bucket counts
// and percentages. Percentages are rounded independently, half to even, so
// they need not sum to 100. An empty population yields all zeros.
func AggregateTrimesters(dues []time.Time, today time.Time) Breakdown {
	var b Breakdown
	for _, due := range dues {
		switch ClassifyTrimester(due, today) {
		case FirstTrimester:
			b.First++
		case SecondTrimester:
			b.Second++
		case ThirdTrimester:
			b.Third++
		}
	}

	total := b.Total()
	if total == 0 {
		return b
	}
	b.FirstPercent = percent(b.First, total)
	b.SecondPercent = percent(b.Second, total)
	b.ThirdPercent = percent(b.Third, total)
	return b
}

func percent(count, total int) int {
	return int(math.RoundToEven(float64(count) / float64(total) * 100))
}
