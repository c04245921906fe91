/*
period.go - Pay-period settlement engine

PURPOSE:
  Aggregates completed shifts and unpaid bonuses within a date window into a
  single payable total and drives the settlement lifecycle:

      pending -> processing -> paid
         |           |
         +--------> failed <--+   (recoverable: failed -> processing)

  The processing -> paid edge is driven only by the external payment
  provider, through OnPaymentConfirmed / OnPaymentFailed. The engine never
  blocks on the provider and never retries internally; re-driving a failed
  period is an explicit caller decision via Advance.

MEMBERSHIP:
  A shift or bonus belongs to a period by date membership in [Start, End),
  not by explicit assignment. Open rejects windows overlapping an existing
  non-failed period for the same contractor, so a record can be counted in
  at most one non-failed total at a time. When a period is paid, its member
  records are stamped with the paying period id; a re-driven failed period
  excludes records already settled elsewhere.

ARITHMETIC:
  Totals are exact decimal sums with no intermediate rounding. Rounding to
  the currency minor unit happens only at presentation (see RoundCurrency).

SEE ALSO:
  - shift.go: GrossPay per shift
  - bonus.go: Bonus settlement steps
  - analytics.go: Read-only consumer of paid periods
*/
package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PAY PERIOD ENGINE
// =============================================================================

type PayPeriodEngine struct {
	store  Store
	shifts *ShiftLedger
	rates  *RateTable
	locks  *ContractorLocks
}

func NewPayPeriodEngine(store Store, shifts *ShiftLedger, rates *RateTable, locks *ContractorLocks) *PayPeriodEngine {
	return &PayPeriodEngine{store: store, shifts: shifts, rates: rates, locks: locks}
}

// Open creates a pending pay period over [start, end). The window must not
// overlap any existing non-failed period for the contractor.
func (e *PayPeriodEngine) Open(ctx context.Context, contractorID ContractorID, start, end TimePoint) (PayPeriod, error) {
	if contractorID == "" {
		return PayPeriod{}, &ValidationError{Field: "contractor_id", Reason: "required"}
	}
	if !end.After(start) {
		return PayPeriod{}, &ValidationError{Field: "end_date", Reason: "must be after start date"}
	}

	unlock := e.locks.Lock(contractorID)
	defer unlock()

	if err := e.windowFree(ctx, contractorID, start, end, ""); err != nil {
		return PayPeriod{}, err
	}

	period := PayPeriod{
		ID:           PeriodID(fmt.Sprintf("pp-%d", time.Now().UnixNano())),
		ContractorID: contractorID,
		Start:        start,
		End:          end,
		Status:       PeriodPending,
		Total:        decimal.Zero,
	}
	if err := e.store.SavePeriod(ctx, period); err != nil {
		return PayPeriod{}, err
	}
	return period, nil
}

// windowFree returns a ValidationError when [start, end) overlaps any
// non-failed period for the contractor, excluding the period identified by
// exclude. The caller must hold the contractor lock.
func (e *PayPeriodEngine) windowFree(ctx context.Context, contractorID ContractorID, start, end TimePoint, exclude PeriodID) error {
	existing, err := e.store.PeriodsByContractor(ctx, contractorID)
	if err != nil {
		return err
	}
	for _, p := range existing {
		if p.ID == exclude {
			continue
		}
		if p.Status != PeriodFailed && p.Overlaps(start, end) {
			return &ValidationError{
				Field:  "window",
				Reason: fmt.Sprintf("overlaps non-failed period %s %s", p.ID, p.Window()),
			}
		}
	}
	return nil
}

// RecomputeTotal recalculates the period's membership and total from current
// shift and bonus state. Idempotent: without membership changes, two calls
// yield identical totals. The caller must hold the contractor lock; Advance
// does this for its dependent recomputation.
func (e *PayPeriodEngine) RecomputeTotal(ctx context.Context, period *PayPeriod) error {
	window := period.Window()
	total := decimal.Zero
	period.ShiftIDs = period.ShiftIDs[:0]
	period.BonusIDs = period.BonusIDs[:0]

	shifts, err := e.store.ShiftsByContractor(ctx, period.ContractorID, window.Start, window.End)
	if err != nil {
		return err
	}
	for _, shift := range shifts {
		if shift.Status != ShiftCompleted {
			continue
		}
		// Already settled by a different period (e.g. before this failed
		// period was re-driven): never count it again.
		if shift.PaidPeriodID != "" && shift.PaidPeriodID != period.ID {
			continue
		}
		rate, err := e.rates.RateFor(shift.Role)
		if err != nil {
			return err
		}
		gross, err := e.shifts.GrossPay(ctx, shift, rate)
		if err != nil {
			return err
		}
		total = total.Add(gross)
		period.ShiftIDs = append(period.ShiftIDs, shift.ID)
	}

	bonuses, err := e.store.BonusesByContractor(ctx, period.ContractorID, window.Start, window.End)
	if err != nil {
		return err
	}
	for _, bonus := range bonuses {
		if bonus.Status == BonusPaid {
			continue
		}
		total = total.Add(bonus.Amount)
		period.BonusIDs = append(period.BonusIDs, bonus.ID)
	}

	period.Total = total
	return nil
}

// Advance moves a pending or failed period into processing. The dependent
// recomputation runs under the same contractor lock; a negative total is a
// ValidationError and the period state is unchanged.
func (e *PayPeriodEngine) Advance(ctx context.Context, id PeriodID) (PayPeriod, error) {
	period, err := e.store.GetPeriod(ctx, id)
	if err != nil {
		return PayPeriod{}, err
	}

	unlock := e.locks.Lock(period.ContractorID)
	defer unlock()

	period, err = e.store.GetPeriod(ctx, id)
	if err != nil {
		return PayPeriod{}, err
	}

	switch period.Status {
	case PeriodPending, PeriodFailed:
		// legal
	default:
		return PayPeriod{}, &InvalidTransitionError{
			Entity: "pay_period",
			From:   string(period.Status),
			To:     string(PeriodProcessing),
		}
	}

	// A failed period may have been replaced by one opened over the same
	// window. Re-driving it while that replacement is live would put the
	// same records in two payable totals at once, so the re-drive must wait
	// until the replacement is itself failed.
	if period.Status == PeriodFailed {
		if err := e.windowFree(ctx, period.ContractorID, period.Start, period.End, period.ID); err != nil {
			return PayPeriod{}, err
		}
	}

	recomputed := period
	if err := e.RecomputeTotal(ctx, &recomputed); err != nil {
		return PayPeriod{}, err
	}
	if recomputed.Total.IsNegative() {
		return PayPeriod{}, &ValidationError{
			Field:  "total",
			Reason: "recomputed total is negative: " + recomputed.Total.String(),
		}
	}

	recomputed.Status = PeriodProcessing
	recomputed.FailureReason = ""
	if err := e.store.SavePeriod(ctx, recomputed); err != nil {
		return PayPeriod{}, err
	}

	// Member bonuses enter settlement alongside the period.
	for _, bonusID := range recomputed.BonusIDs {
		bonus, err := e.store.GetBonus(ctx, bonusID)
		if err != nil {
			return PayPeriod{}, err
		}
		if bonus.Status == BonusEarned {
			bonus.Status = BonusProcessing
			if err := e.store.SaveBonus(ctx, bonus); err != nil {
				return PayPeriod{}, err
			}
		}
	}

	return recomputed, nil
}

// OnPaymentConfirmed is the payment provider's resumption entrypoint for the
// processing -> paid edge. Member shifts and bonuses are stamped as settled
// by this period.
func (e *PayPeriodEngine) OnPaymentConfirmed(ctx context.Context, id PeriodID) (PayPeriod, error) {
	period, err := e.store.GetPeriod(ctx, id)
	if err != nil {
		return PayPeriod{}, err
	}

	unlock := e.locks.Lock(period.ContractorID)
	defer unlock()

	period, err = e.store.GetPeriod(ctx, id)
	if err != nil {
		return PayPeriod{}, err
	}

	if period.Status != PeriodProcessing {
		return PayPeriod{}, &InvalidTransitionError{
			Entity: "pay_period",
			From:   string(period.Status),
			To:     string(PeriodPaid),
		}
	}

	period.Status = PeriodPaid
	if err := e.store.SavePeriod(ctx, period); err != nil {
		return PayPeriod{}, err
	}

	for _, shiftID := range period.ShiftIDs {
		shift, err := e.store.GetShift(ctx, shiftID)
		if err != nil {
			return PayPeriod{}, err
		}
		shift.PaidPeriodID = period.ID
		if err := e.store.SaveShift(ctx, shift); err != nil {
			return PayPeriod{}, err
		}
	}
	for _, bonusID := range period.BonusIDs {
		bonus, err := e.store.GetBonus(ctx, bonusID)
		if err != nil {
			return PayPeriod{}, err
		}
		if bonus.Status != BonusPaid {
			bonus.Status = BonusPaid
			bonus.PaidPeriodID = period.ID
			if err := e.store.SaveBonus(ctx, bonus); err != nil {
				return PayPeriod{}, err
			}
		}
	}

	return period, nil
}

// OnPaymentFailed is the payment provider's resumption entrypoint for the
// failed branch. The failure is recorded as period status, not returned as a
// domain error; remediation and re-drive are the operator's decision.
func (e *PayPeriodEngine) OnPaymentFailed(ctx context.Context, id PeriodID, reason string) (PayPeriod, error) {
	period, err := e.store.GetPeriod(ctx, id)
	if err != nil {
		return PayPeriod{}, err
	}

	unlock := e.locks.Lock(period.ContractorID)
	defer unlock()

	period, err = e.store.GetPeriod(ctx, id)
	if err != nil {
		return PayPeriod{}, err
	}

	switch period.Status {
	case PeriodPending, PeriodProcessing:
		// legal
	default:
		return PayPeriod{}, &InvalidTransitionError{
			Entity: "pay_period",
			From:   string(period.Status),
			To:     string(PeriodFailed),
		}
	}

	period.Status = PeriodFailed
	period.FailureReason = reason
	if err := e.store.SavePeriod(ctx, period); err != nil {
		return PayPeriod{}, err
	}
	return period, nil
}

// Abort cancels a period that has not entered settlement. Once processing,
// abort must go through the failed branch and correction, never a silent
// rollback.
func (e *PayPeriodEngine) Abort(ctx context.Context, id PeriodID) (PayPeriod, error) {
	period, err := e.store.GetPeriod(ctx, id)
	if err != nil {
		return PayPeriod{}, err
	}

	unlock := e.locks.Lock(period.ContractorID)
	defer unlock()

	period, err = e.store.GetPeriod(ctx, id)
	if err != nil {
		return PayPeriod{}, err
	}

	if period.Status != PeriodPending {
		return PayPeriod{}, &InvalidTransitionError{
			Entity: "pay_period",
			From:   string(period.Status),
			To:     string(PeriodFailed),
		}
	}

	period.Status = PeriodFailed
	period.FailureReason = "aborted by operator"
	if err := e.store.SavePeriod(ctx, period); err != nil {
		return PayPeriod{}, err
	}
	return period, nil
}

// Get returns a period under the contractor's shared lock.
func (e *PayPeriodEngine) Get(ctx context.Context, id PeriodID) (PayPeriod, error) {
	period, err := e.store.GetPeriod(ctx, id)
	if err != nil {
		return PayPeriod{}, err
	}
	unlock := e.locks.RLock(period.ContractorID)
	defer unlock()
	return e.store.GetPeriod(ctx, id)
}

// Periods lists a contractor's periods under the shared lock.
func (e *PayPeriodEngine) Periods(ctx context.Context, contractorID ContractorID) ([]PayPeriod, error) {
	unlock := e.locks.RLock(contractorID)
	defer unlock()
	return e.store.PeriodsByContractor(ctx, contractorID)
}
