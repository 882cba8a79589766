// Package clock pins every scheduling decision to the single business
// timezone, regardless of where the process runs.
package clock

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

var (
	ErrInvalidTimeFormat = errors.New("invalid date/time format")

	// ErrNaiveComparison is returned when a due check is attempted against an
	// unset instant. It marks a programming error, not an operational one.
	ErrNaiveComparison = errors.New("comparison against unset datetime")
)

// Clock yields the current instant in the business timezone. Jobs take it as
// a dependency so tests can pin time.
type Clock interface {
	Now() time.Time
}

// BusinessClock is the production Clock, fixed to one IANA timezone
// (Asia/Damascus for this deployment).
type BusinessClock struct {
	loc *time.Location
}

func NewBusinessClock(tzName string) (*BusinessClock, error) {
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("load business timezone %q: %w", tzName, err)
	}
	return &BusinessClock{loc: loc}, nil
}

func (c *BusinessClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *BusinessClock) Location() *time.Location {
	return c.loc
}

// Parse combines a YYYY-MM-DD date and a 24-hour HH:MM time into an instant
// in the business timezone. Any other shape is rejected.
func (c *BusinessClock) Parse(dateStr, timeStr string) (time.Time, error) {
	combined := strings.TrimSpace(dateStr) + " " + strings.TrimSpace(timeStr)
	t, err := time.ParseInLocation(dateLayout+" "+timeLayout, combined, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q %q", ErrInvalidTimeFormat, dateStr, timeStr)
	}
	return t, nil
}

// Due reports whether scheduled has passed (or equals) now, at minute
// resolution. Zero instants are refused rather than silently misread.
func Due(scheduled, now time.Time) (bool, error) {
	if scheduled.IsZero() || now.IsZero() {
		return false, ErrNaiveComparison
	}
	return !scheduled.Truncate(time.Minute).After(now.Truncate(time.Minute)), nil
}

// Fixed is a Clock frozen at one instant, for tests and dry runs.
type Fixed struct {
	Instant time.Time
}

func (f Fixed) Now() time.Time { return f.Instant }
