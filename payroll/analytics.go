/*
analytics.go - Trailing and projected earnings

PURPOSE:
  Derives PaymentAnalytics from settled pay periods: trailing totals over a
  window and a 52-week annualized projection. Strictly a read-only consumer
  of ShiftLedger/BonusLedger/PayPeriodEngine output: only paid periods
  contribute, and nothing here mutates state.

PROJECTION:
  projectedAnnual = (totalEarnings / weeksInWindow) x 52

  Windows shorter than one week cannot support the division: the projector
  returns a zero projection with LowConfidence set rather than a hard error,
  so a dashboard can still render the trailing figures. Callers that need a
  hard check can treat LowConfidence as ErrInsufficientData.
*/
package payroll

import (
	"context"

	"github.com/shopspring/decimal"
)

var weeksPerYear = decimal.NewFromInt(52)

// AnalyticsProjector computes derived earnings views. Reads take the
// contractor's shared lock so they observe a consistent snapshot while
// proceeding concurrently with other reads.
type AnalyticsProjector struct {
	store  Store
	shifts *ShiftLedger
	rates  *RateTable
	locks  *ContractorLocks
}

func NewAnalyticsProjector(store Store, shifts *ShiftLedger, rates *RateTable, locks *ContractorLocks) *AnalyticsProjector {
	return &AnalyticsProjector{store: store, shifts: shifts, rates: rates, locks: locks}
}

// Project sums earnings, hours, and assignments over paid periods
// intersecting the window and annualizes them. Amounts are exact; rounding
// is left to presentation.
func (a *AnalyticsProjector) Project(ctx context.Context, contractorID ContractorID, window Period) (PaymentAnalytics, error) {
	if !window.End.After(window.Start) {
		return PaymentAnalytics{}, &ValidationError{Field: "period", Reason: "end must be after start"}
	}

	unlock := a.locks.RLock(contractorID)
	defer unlock()

	periods, err := a.store.PeriodsByContractor(ctx, contractorID)
	if err != nil {
		return PaymentAnalytics{}, err
	}

	out := PaymentAnalytics{
		ContractorID:      contractorID,
		Period:            window,
		TotalEarnings:     decimal.Zero,
		RegularHours:      decimal.Zero,
		OvertimeHours:     decimal.Zero,
		BonusEarnings:     decimal.Zero,
		AverageHourlyRate: decimal.Zero,
		ProjectedAnnual:   decimal.Zero,
	}

	shiftEarnings := decimal.Zero

	for _, p := range periods {
		if p.Status != PeriodPaid || !window.Intersects(p.Window()) {
			continue
		}

		out.TotalEarnings = out.TotalEarnings.Add(p.Total)

		for _, shiftID := range p.ShiftIDs {
			shift, err := a.store.GetShift(ctx, shiftID)
			if err != nil {
				return PaymentAnalytics{}, err
			}
			regular, overtime, err := a.shifts.HoursWorked(ctx, shift)
			if err != nil {
				return PaymentAnalytics{}, err
			}
			rate, err := a.rates.RateFor(shift.Role)
			if err != nil {
				return PaymentAnalytics{}, err
			}
			gross, err := a.shifts.GrossPay(ctx, shift, rate)
			if err != nil {
				return PaymentAnalytics{}, err
			}

			out.RegularHours = out.RegularHours.Add(regular)
			out.OvertimeHours = out.OvertimeHours.Add(overtime)
			out.AssignmentsCompleted++
			shiftEarnings = shiftEarnings.Add(gross)
		}

		for _, bonusID := range p.BonusIDs {
			bonus, err := a.store.GetBonus(ctx, bonusID)
			if err != nil {
				return PaymentAnalytics{}, err
			}
			out.BonusEarnings = out.BonusEarnings.Add(bonus.Amount)
		}
	}

	totalHours := out.RegularHours.Add(out.OvertimeHours)
	if totalHours.IsPositive() {
		out.AverageHourlyRate = shiftEarnings.Div(totalHours)
	}

	// A window under a week would blow up the weekly division; flag instead
	// of failing so trailing figures stay usable.
	if window.Days() < 7 {
		out.LowConfidence = true
		return out, nil
	}

	out.ProjectedAnnual = out.TotalEarnings.Div(window.Weeks()).Mul(weeksPerYear)
	return out, nil
}
