package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the day-granularity layout used for storage and forms.
const DateLayout = "2006-01-02"

const (
	// MinYear is the earliest accepted year. Year 1 would collide with the
	// zero value that marks a missing date.
	MinYear = 1900
	// MaxDurationMinutes caps a single job at one day of footage.
	MaxDurationMinutes = 24 * 60
)

type (
	// Date is a calendar date without time component. The zero value marks a
	// missing or unparsable date.
	Date struct {
		time.Time
	}

	// Money is an amount in whole pesos.
	Money struct {
		Pesos int64
	}

	// JobRecord is one edited video job.
	JobRecord struct {
		Date            Date
		VideoType       string
		DurationMinutes int
		Price           Money // computed at insertion, never recomputed
	}

	// JobLog is the insertion-ordered collection of recorded jobs.
	JobLog []JobRecord
)

var (
	ErrMissingDate      = errors.New("missing date")
	ErrInvalidDuration  = errors.New("duration must be between 1 and 1440 minutes")
	ErrInvalidPrice     = errors.New("invalid price")
	ErrEmptyVideoType   = errors.New("empty video type")
	ErrUnknownVideoType = errors.New("unknown video type")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date, keeping t's own year/month/day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string. Years before MinYear are rejected.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	if t.Year() < MinYear {
		return Date{}, fmt.Errorf("date %s before %d: %w", t.Format(DateLayout), MinYear, ErrMissingDate)
	}
	return Date{Time: t}, nil
}

// IsEmpty returns true for the missing-date marker.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String returns YYYY-MM-DD, or an empty string for a missing date.
func (d Date) String() string {
	if d.IsEmpty() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthKey returns the "YYYY-MM" grouping key. Missing dates have no key.
func (d Date) MonthKey() string {
	if d.IsEmpty() {
		return ""
	}
	return d.Format("2006-01")
}

func (m Money) Validate() error {
	if m.Pesos < 0 {
		return ErrInvalidPrice
	}
	return nil
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Pesos: m.Pesos + o.Pesos}
}

func (r JobRecord) Validate() error {
	if r.Date.IsEmpty() {
		return ErrMissingDate
	}
	if strings.TrimSpace(r.VideoType) == "" {
		return ErrEmptyVideoType
	}
	if r.DurationMinutes < 1 || r.DurationMinutes > MaxDurationMinutes {
		return ErrInvalidDuration
	}
	return r.Price.Validate()
}

// Append returns a new log with rec at the end; l itself is left untouched.
func (l JobLog) Append(rec JobRecord) JobLog {
	out := make(JobLog, len(l), len(l)+1)
	copy(out, l)
	return append(out, rec)
}

// Total sums the stored prices.
func (l JobLog) Total() Money {
	var total Money
	for _, r := range l {
		total = total.Add(r.Price)
	}
	return total
}
