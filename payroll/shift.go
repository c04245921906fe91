/*
shift.go - Worked-shift ledger: status lifecycle, hours, gross pay

PURPOSE:
  Holds the set of worked shifts for a contractor and computes regular and
  overtime hours and gross pay per shift. Only `completed` shifts are payable.

STATUS MACHINE:
  scheduled -> inProgress -> completed
  scheduled/inProgress -> cancelled | noShow
  completed, cancelled, noShow are terminal and immutable.

OVERTIME ATTRIBUTION:
  Two strategies, selected at construction:

  OvertimePerShift (baseline):
    Hours beyond 8 within a single shift are overtime.

  OvertimeWeeklyCumulative:
    Additionally, hours beyond 40 cumulative for the contractor within the
    shift's Mon-Sun week are overtime. Attribution is computed against the
    weekly cumulative total of completed shifts ordered before this one.

GROSS PAY:
  regular x base + overtime x base x overtimeMultiplier, with the holiday
  multiplier substituted on the regular component when the shift date is a
  recognized holiday. Gross pay on a non-completed shift is zero with no
  error - the shift may later resolve to noShow.

SEE ALSO:
  - rates.go: PayRate resolution
  - period.go: Aggregation of gross pay into pay-period totals
*/
package payroll

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// OVERTIME STRATEGY
// =============================================================================

type OvertimeStrategy string

const (
	OvertimePerShift         OvertimeStrategy = "per_shift"
	OvertimeWeeklyCumulative OvertimeStrategy = "weekly_cumulative"
)

// perShiftOvertimeThreshold is the per-shift regular-hours cap.
var perShiftOvertimeThreshold = decimal.NewFromInt(8)

// weeklyOvertimeThreshold is the weekly cumulative regular-hours cap.
var weeklyOvertimeThreshold = decimal.NewFromInt(40)

// =============================================================================
// SHIFT LEDGER
// =============================================================================

// ShiftLedger owns WorkShift state. All mutations go through it; it holds the
// contractor's exclusive lock for the duration of each mutation.
type ShiftLedger struct {
	store    ShiftStore
	locks    *ContractorLocks
	strategy OvertimeStrategy
	calendar HolidayCalendar
}

func NewShiftLedger(store ShiftStore, locks *ContractorLocks, strategy OvertimeStrategy, calendar HolidayCalendar) *ShiftLedger {
	if calendar == nil {
		calendar = NoHolidays{}
	}
	if strategy == "" {
		strategy = OvertimePerShift
	}
	return &ShiftLedger{store: store, locks: locks, strategy: strategy, calendar: calendar}
}

// AddShift records a newly scheduled shift. Rejected before any mutation when
// the time range is malformed or the id already exists.
func (l *ShiftLedger) AddShift(ctx context.Context, shift WorkShift) error {
	if !shift.End.After(shift.Start) {
		return &ValidationError{Field: "end", Reason: "end time must be after start time"}
	}
	if shift.ID == "" {
		return &ValidationError{Field: "id", Reason: "required"}
	}
	if shift.ContractorID == "" {
		return &ValidationError{Field: "contractor_id", Reason: "required"}
	}
	if shift.Status == "" {
		shift.Status = ShiftScheduled
	}
	if shift.Status != ShiftScheduled {
		return &ValidationError{Field: "status", Reason: "shifts are created as scheduled"}
	}

	unlock := l.locks.Lock(shift.ContractorID)
	defer unlock()

	if _, err := l.store.GetShift(ctx, shift.ID); err == nil {
		return fmt.Errorf("shift %s: %w", shift.ID, ErrDuplicateID)
	} else if !IsNotFound(err) {
		return err
	}

	return l.store.SaveShift(ctx, shift)
}

// Transition moves a shift along the status machine. Illegal edges leave
// state unchanged.
func (l *ShiftLedger) Transition(ctx context.Context, id ShiftID, newStatus ShiftStatus) (WorkShift, error) {
	shift, err := l.store.GetShift(ctx, id)
	if err != nil {
		return WorkShift{}, err
	}

	unlock := l.locks.Lock(shift.ContractorID)
	defer unlock()

	// Re-read under the lock: another writer may have advanced it.
	shift, err = l.store.GetShift(ctx, id)
	if err != nil {
		return WorkShift{}, err
	}

	if !shiftEdgeAllowed(shift.Status, newStatus) {
		return WorkShift{}, &InvalidTransitionError{
			Entity: "shift",
			From:   string(shift.Status),
			To:     string(newStatus),
		}
	}

	shift.Status = newStatus
	if err := l.store.SaveShift(ctx, shift); err != nil {
		return WorkShift{}, err
	}
	return shift, nil
}

func shiftEdgeAllowed(from, to ShiftStatus) bool {
	switch from {
	case ShiftScheduled:
		return to == ShiftInProgress || to == ShiftCancelled || to == ShiftNoShow
	case ShiftInProgress:
		return to == ShiftCompleted || to == ShiftCancelled || to == ShiftNoShow
	default: // terminal
		return false
	}
}

// Shifts returns the contractor's shifts with date in the window, under the
// contractor's shared lock for a consistent snapshot.
func (l *ShiftLedger) Shifts(ctx context.Context, contractorID ContractorID, window Period) ([]WorkShift, error) {
	unlock := l.locks.RLock(contractorID)
	defer unlock()
	return l.store.ShiftsByContractor(ctx, contractorID, window.Start, window.End)
}

// =============================================================================
// HOURS AND GROSS PAY
// =============================================================================

// HoursWorked splits a shift's duration into regular and overtime hours
// according to the configured strategy.
func (l *ShiftLedger) HoursWorked(ctx context.Context, shift WorkShift) (regular, overtime decimal.Decimal, err error) {
	total := shift.DurationHours()

	regular = decimal.Min(total, perShiftOvertimeThreshold)

	if l.strategy == OvertimeWeeklyCumulative {
		prior, perr := l.weeklyHoursBefore(ctx, shift)
		if perr != nil {
			return decimal.Zero, decimal.Zero, perr
		}
		weeklyRoom := decimal.Max(decimal.Zero, weeklyOvertimeThreshold.Sub(prior))
		regular = decimal.Min(regular, weeklyRoom)
	}

	return regular, total.Sub(regular), nil
}

// weeklyHoursBefore sums completed hours for the contractor within the
// shift's Mon-Sun week, counting only shifts ordered before this one.
func (l *ShiftLedger) weeklyHoursBefore(ctx context.Context, shift WorkShift) (decimal.Decimal, error) {
	weekStart := shift.Date.WeekStart()
	weekEnd := weekStart.AddDays(7)

	shifts, err := l.store.ShiftsByContractor(ctx, shift.ContractorID, weekStart, weekEnd)
	if err != nil {
		return decimal.Zero, err
	}

	prior := decimal.Zero
	for _, s := range shifts {
		if s.ID == shift.ID || s.Status != ShiftCompleted {
			continue
		}
		if s.Date.Before(shift.Date) || (s.Date.Equal(shift.Date) && s.Start.Before(shift.Start)) {
			prior = prior.Add(s.DurationHours())
		}
	}
	return prior, nil
}

// GrossPay computes the pre-tax pay for a single shift at the given rate.
// Non-completed shifts pay zero and emit no error. The result is exact; any
// rounding happens at presentation.
func (l *ShiftLedger) GrossPay(ctx context.Context, shift WorkShift, rate PayRate) (decimal.Decimal, error) {
	if shift.Status != ShiftCompleted {
		return decimal.Zero, nil
	}

	regular, overtime, err := l.HoursWorked(ctx, shift)
	if err != nil {
		return decimal.Zero, err
	}

	regularRate := rate.BaseHourlyRate
	if l.calendar.IsHoliday(shift.Date) {
		regularRate = rate.BaseHourlyRate.Mul(rate.HolidayMultiplier)
	}

	pay := regular.Mul(regularRate)
	pay = pay.Add(overtime.Mul(rate.BaseHourlyRate).Mul(rate.OvertimeMultiplier))
	return pay, nil
}
