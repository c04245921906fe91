/*
Package payroll provides the contractor payment and placement-tracking engine.

PURPOSE:
  This package contains the domain types and algorithms that turn raw worked
  shifts and earned bonuses into payable amounts, drive pay periods through a
  settlement lifecycle, and track a contractor's progress toward
  permanent-placement eligibility.

KEY CONCEPTS IN THIS FILE (types.go):
  - RoleCategory: Closed enumeration of staffable roles, each with a minimum rate
  - PayRate: Hourly rate plus overtime/holiday multipliers for a role
  - WorkShift: A scheduled unit of work with a status lifecycle
  - Bonus: A one-off earned amount with a settlement status
  - PayPeriod: A bounded window that aggregates shifts and bonuses into one total
  - PlacementProgress: Accumulating counters behind placement eligibility

DESIGN PRINCIPLES:
  1. Precision: All monetary amounts and hour counts use decimal.Decimal.
     Binary floating point never appears in a computation path.
  2. Lifecycle safety: Status fields only move along defined edges; terminal
     states are immutable.
  3. Ownership: A PayPeriod references shifts and bonuses, it does not copy
     them. Membership is determined by date, not explicit assignment.
  4. Type safety: Strong ID types prevent mixing contractor/shift/period ids.

USAGE:
  shift := payroll.WorkShift{
      ID:           "shift-1",
      ContractorID: "con-42",
      Role:         payroll.RoleParaprofessional,
      Date:         payroll.NewDate(2026, time.March, 10),
      Start:        start,
      End:          end,
      Status:       payroll.ShiftScheduled,
  }

SEE ALSO:
  - rates.go: RateTable lookup and minimum-rate fallback
  - shift.go: ShiftLedger, hours and gross-pay computation
  - period.go: PayPeriodEngine settlement state machine
  - placement.go: PlacementTracker eligibility state machine
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ContractorID string
type ShiftID string
type BonusID string
type PeriodID string

// =============================================================================
// MONEY HELPERS
// =============================================================================

// MustDecimal parses a decimal literal, returning zero on malformed input.
// Intended for constants and tests, not for untrusted input.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// RoundCurrency rounds to the currency's minor unit (2 decimal places) using
// round-half-up. Applied only at presentation boundaries; internal totals are
// carried unrounded.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// =============================================================================
// ROLE CATEGORY - Closed enumeration with immutable minimum rates
// =============================================================================

type RoleCategory string

const (
	RoleBusAide             RoleCategory = "bus_aide"
	RoleParaprofessional    RoleCategory = "paraprofessional"
	RoleCafeteriaStaff      RoleCategory = "cafeteria_staff"
	RoleSubstituteTeacher   RoleCategory = "substitute_teacher"
	RoleClinicalStaff       RoleCategory = "clinical_staff"
	RoleAdministrativeStaff RoleCategory = "administrative_staff"
)

// AllRoles lists every member of the closed enumeration.
func AllRoles() []RoleCategory {
	return []RoleCategory{
		RoleBusAide,
		RoleParaprofessional,
		RoleCafeteriaStaff,
		RoleSubstituteTeacher,
		RoleClinicalStaff,
		RoleAdministrativeStaff,
	}
}

// PayRate is the hourly compensation contract for a role category.
// Invariant: BaseHourlyRate >= the category's minimum hourly rate.
type PayRate struct {
	Role               RoleCategory
	BaseHourlyRate     decimal.Decimal
	OvertimeMultiplier decimal.Decimal
	HolidayMultiplier  decimal.Decimal
}

// =============================================================================
// WORK SHIFT - Status lifecycle: scheduled -> inProgress -> completed,
// with cancelled/noShow branches. Terminal states are immutable.
// =============================================================================

type ShiftStatus string

const (
	ShiftScheduled  ShiftStatus = "scheduled"
	ShiftInProgress ShiftStatus = "in_progress"
	ShiftCompleted  ShiftStatus = "completed"
	ShiftCancelled  ShiftStatus = "cancelled"
	ShiftNoShow     ShiftStatus = "no_show"
)

// Terminal reports whether the status accepts no further transitions.
func (s ShiftStatus) Terminal() bool {
	return s == ShiftCompleted || s == ShiftCancelled || s == ShiftNoShow
}

// WorkShift is a single unit of scheduled work. Only completed shifts
// contribute to pay. PaidPeriodID is the settlement stamp: set once when the
// pay period covering this shift is paid, never cleared.
type WorkShift struct {
	ID           ShiftID
	ContractorID ContractorID
	Role         RoleCategory
	Date         TimePoint
	Start        time.Time
	End          time.Time
	Status       ShiftStatus
	Notes        string

	PaidPeriodID PeriodID
}

// DurationHours returns the shift length in hours as an exact decimal.
func (s WorkShift) DurationHours() decimal.Decimal {
	minutes := int64(s.End.Sub(s.Start) / time.Minute)
	return decimal.NewFromInt(minutes).Div(decimal.NewFromInt(60))
}

// =============================================================================
// BONUS - Settlement lifecycle: earned -> processing -> paid. Monotonic,
// never reversible.
// =============================================================================

type BonusStatus string

const (
	BonusEarned     BonusStatus = "earned"
	BonusProcessing BonusStatus = "processing"
	BonusPaid       BonusStatus = "paid"
)

// next returns the following settlement step, or "" from the final state.
func (s BonusStatus) next() BonusStatus {
	switch s {
	case BonusEarned:
		return BonusProcessing
	case BonusProcessing:
		return BonusPaid
	default:
		return ""
	}
}

type BonusType string

const (
	BonusReferral    BonusType = "referral"
	BonusRetention   BonusType = "retention"
	BonusPerformance BonusType = "performance"
	BonusSignOn      BonusType = "sign_on"
)

type Bonus struct {
	ID           BonusID
	ContractorID ContractorID
	Type         BonusType
	Amount       decimal.Decimal
	DateEarned   TimePoint
	Status       BonusStatus

	PaidPeriodID PeriodID
}

// =============================================================================
// PAY PERIOD - Settlement lifecycle: pending -> processing -> paid, with a
// recoverable failed branch.
// =============================================================================

type PayPeriodStatus string

const (
	PeriodPending    PayPeriodStatus = "pending"
	PeriodProcessing PayPeriodStatus = "processing"
	PeriodPaid       PayPeriodStatus = "paid"
	PeriodFailed     PayPeriodStatus = "failed"
)

// PayPeriod aggregates shifts and bonuses in [Start, End) into one payable
// total. ShiftIDs/BonusIDs are references captured by the last recompute;
// Total is authoritative only once Status != pending.
type PayPeriod struct {
	ID           PeriodID
	ContractorID ContractorID
	Start        TimePoint
	End          TimePoint
	Status       PayPeriodStatus
	ShiftIDs     []ShiftID
	BonusIDs     []BonusID
	Total        decimal.Decimal
	FailureReason string
}

// Window returns the half-open [Start, End) membership window.
func (p PayPeriod) Window() Period {
	return Period{Start: p.Start, End: p.End}
}

// Overlaps reports whether two half-open windows intersect.
func (p PayPeriod) Overlaps(start, end TimePoint) bool {
	return p.Start.Before(end) && start.Before(p.End)
}

// =============================================================================
// PLACEMENT PROGRESS - Eligibility lifecycle: active -> inConsideration ->
// interviewing -> offered -> placed; declined terminal from any non-placed state.
// =============================================================================

type PlacementStatus string

const (
	PlacementActive          PlacementStatus = "active"
	PlacementInConsideration PlacementStatus = "in_consideration"
	PlacementInterviewing    PlacementStatus = "interviewing"
	PlacementOffered         PlacementStatus = "offered"
	PlacementPlaced          PlacementStatus = "placed"
	PlacementDeclined        PlacementStatus = "declined"
)

// next returns the forward step in the placement ladder, or "" from a
// terminal state.
func (s PlacementStatus) next() PlacementStatus {
	switch s {
	case PlacementActive:
		return PlacementInConsideration
	case PlacementInConsideration:
		return PlacementInterviewing
	case PlacementInterviewing:
		return PlacementOffered
	case PlacementOffered:
		return PlacementPlaced
	default:
		return ""
	}
}

// Terminal reports whether the status accepts no further transitions.
func (s PlacementStatus) Terminal() bool {
	return s == PlacementPlaced || s == PlacementDeclined
}

// PlacementProgress accumulates the counters behind placement eligibility.
// Schools carries distinct school identifiers (equality on identifier, not
// display name).
type PlacementProgress struct {
	ID               string
	ContractorID     ContractorID
	StartDate        TimePoint
	TotalAssignments int
	Schools          map[string]struct{}
	PositiveFeedback int
	Status           PlacementStatus
}

// CloneSchools returns a copy of the school set for safe external reads.
func (p PlacementProgress) CloneSchools() map[string]struct{} {
	out := make(map[string]struct{}, len(p.Schools))
	for k := range p.Schools {
		out[k] = struct{}{}
	}
	return out
}

// =============================================================================
// PAYMENT ANALYTICS - Derived view, recomputed on demand, never persisted
// =============================================================================

type PaymentAnalytics struct {
	ContractorID ContractorID
	Period       Period

	TotalEarnings        decimal.Decimal
	RegularHours         decimal.Decimal
	OvertimeHours        decimal.Decimal
	BonusEarnings        decimal.Decimal
	AverageHourlyRate    decimal.Decimal
	AssignmentsCompleted int

	// ProjectedAnnual extrapolates the window's earnings to a 52-week year.
	ProjectedAnnual decimal.Decimal

	// LowConfidence is set when the window is too short (< 1 week) to
	// support a projection; all projected figures are zero in that case.
	LowConfidence bool
}
