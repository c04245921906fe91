package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TIME POINT - Day-granularity date (shift dates, period boundaries)
// =============================================================================

// TimePoint is a calendar date in UTC. Shift start/end clock times live on
// WorkShift; everything membership-related (period windows, bonus dates,
// holidays) compares at day granularity.
type TimePoint struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateOf(t time.Time) TimePoint {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() TimePoint {
	return DateOf(time.Now().UTC())
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool  { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool  { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool {
	return tp.Before(other) || tp.Equal(other)
}
func (tp TimePoint) AfterOrEqual(other TimePoint) bool {
	return tp.After(other) || tp.Equal(other)
}

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint { return TimePoint{Time: tp.Time.AddDate(0, 0, n)} }

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month     { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.Time.Weekday() }
func (tp TimePoint) IsZero() bool          { return tp.Time.IsZero() }

// WeekStart returns the Monday of the ISO week containing tp.
// Weekly-cumulative overtime attribution buckets shifts by this anchor.
func (tp TimePoint) WeekStart() TimePoint {
	offset := (int(tp.Weekday()) + 6) % 7
	return tp.AddDays(-offset)
}

func (tp TimePoint) String() string {
	return tp.Time.Format("2006-01-02")
}

func DaysBetween(from, to TimePoint) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

// =============================================================================
// PERIOD - Half-open [Start, End) date window
// =============================================================================

// Period is a half-open date window. A date is a member when
// Start <= date < End. Pay-period membership and analytics windows both use
// this convention so a shift on a boundary day belongs to exactly one window.
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Contains reports date membership in [Start, End).
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.Before(p.End)
}

// Intersects reports whether two half-open windows overlap.
func (p Period) Intersects(other Period) bool {
	return p.Start.Before(other.End) && other.Start.Before(p.End)
}

// Days returns the window length in days.
func (p Period) Days() int {
	return DaysBetween(p.Start, p.End)
}

// Weeks returns the window length in weeks as an exact decimal.
func (p Period) Weeks() decimal.Decimal {
	return decimal.NewFromInt(int64(p.Days())).Div(decimal.NewFromInt(7))
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + ")"
}

// =============================================================================
// HOLIDAY CALENDAR - Recognized holidays drive the holiday pay multiplier
// =============================================================================

// Holiday is a recognized holiday date. Recurring holidays match on
// month/day every year.
type Holiday struct {
	ID        string
	Date      TimePoint
	Name      string
	Recurring bool
}

// Matches reports whether the holiday falls on the given date.
func (h Holiday) Matches(date TimePoint) bool {
	if h.Recurring {
		return h.Date.Month() == date.Month() && h.Date.Day() == date.Day()
	}
	return h.Date.Equal(date)
}

// HolidayCalendar answers whether a shift date earns the holiday multiplier.
type HolidayCalendar interface {
	IsHoliday(date TimePoint) bool
}

// NoHolidays is the no-op calendar for when holiday pay is disabled.
type NoHolidays struct{}

func (NoHolidays) IsHoliday(TimePoint) bool { return false }

// ListCalendar is a fixed-list HolidayCalendar, used by tests and as the
// in-memory backing for store-loaded holidays.
type ListCalendar struct {
	Holidays []Holiday
}

func (c ListCalendar) IsHoliday(date TimePoint) bool {
	for _, h := range c.Holidays {
		if h.Matches(date) {
			return true
		}
	}
	return false
}
