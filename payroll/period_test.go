package payroll_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staffly/payroll-engine/payroll"
	"github.com/staffly/payroll-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type periodFixture struct {
	store   *sqlite.Store
	rates   *payroll.RateTable
	shifts  *payroll.ShiftLedger
	bonuses *payroll.BonusLedger
	engine  *payroll.PayPeriodEngine
}

func newPeriodFixture(t *testing.T) *periodFixture {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	locks := payroll.NewContractorLocks()
	rates := payroll.NewRateTable()
	shifts := payroll.NewShiftLedger(store, locks, payroll.OvertimePerShift, nil)
	return &periodFixture{
		store:   store,
		rates:   rates,
		shifts:  shifts,
		bonuses: payroll.NewBonusLedger(store, locks),
		engine:  payroll.NewPayPeriodEngine(store, shifts, rates, locks),
	}
}

// addCompletedShift drives a shift through scheduled -> inProgress -> completed.
func (f *periodFixture) addCompletedShift(t *testing.T, id, contractor string, date payroll.TimePoint, hours int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.shifts.AddShift(ctx, shiftOn(id, contractor, date, hours)))
	_, err := f.shifts.Transition(ctx, payroll.ShiftID(id), payroll.ShiftInProgress)
	require.NoError(t, err)
	_, err = f.shifts.Transition(ctx, payroll.ShiftID(id), payroll.ShiftCompleted)
	require.NoError(t, err)
}

func (f *periodFixture) addBonus(t *testing.T, id, contractor, amount string, earned payroll.TimePoint) {
	t.Helper()
	require.NoError(t, f.bonuses.AddBonus(context.Background(), payroll.Bonus{
		ID:           payroll.BonusID(id),
		ContractorID: payroll.ContractorID(contractor),
		Type:         payroll.BonusReferral,
		Amount:       payroll.MustDecimal(amount),
		DateEarned:   earned,
		Status:       payroll.BonusEarned,
	}))
}

// =============================================================================
// OPEN TESTS
// =============================================================================

func TestPayPeriodEngine_Open_InvalidWindow_Rejected(t *testing.T) {
	// GIVEN: A window whose end does not come after its start
	// WHEN: Opening a period
	// THEN: ValidationError

	f := newPeriodFixture(t)
	ctx := context.Background()

	start := payroll.NewDate(2026, time.March, 1)
	_, err := f.engine.Open(ctx, "con-1", start, start)
	assert.ErrorIs(t, err, payroll.ErrValidation)
}

func TestPayPeriodEngine_Open_OverlappingNonFailed_Rejected(t *testing.T) {
	// GIVEN: An existing pending period Mar 1-15
	// WHEN: Opening a period Mar 10-20 for the same contractor
	// THEN: ValidationError; a shift date can belong to at most one live period

	f := newPeriodFixture(t)
	ctx := context.Background()

	_, err := f.engine.Open(ctx, "con-1", payroll.NewDate(2026, time.March, 1), payroll.NewDate(2026, time.March, 15))
	require.NoError(t, err)

	_, err = f.engine.Open(ctx, "con-1", payroll.NewDate(2026, time.March, 10), payroll.NewDate(2026, time.March, 20))
	assert.ErrorIs(t, err, payroll.ErrValidation)
}

func TestPayPeriodEngine_Open_OverlappingFailed_Allowed(t *testing.T) {
	// GIVEN: A failed period Mar 1-15
	// WHEN: Opening a replacement period over the same window
	// THEN: Allowed; failed periods do not hold the window

	f := newPeriodFixture(t)
	ctx := context.Background()

	period, err := f.engine.Open(ctx, "con-1", payroll.NewDate(2026, time.March, 1), payroll.NewDate(2026, time.March, 15))
	require.NoError(t, err)
	_, err = f.engine.Abort(ctx, period.ID)
	require.NoError(t, err)

	_, err = f.engine.Open(ctx, "con-1", payroll.NewDate(2026, time.March, 1), payroll.NewDate(2026, time.March, 15))
	assert.NoError(t, err)
}

func TestPayPeriodEngine_Open_AdjacentWindows_Allowed(t *testing.T) {
	// GIVEN: A period over [Mar 1, Mar 15)
	// WHEN: Opening [Mar 15, Mar 31) for the same contractor
	// THEN: Allowed; half-open windows make the boundary day unambiguous

	f := newPeriodFixture(t)
	ctx := context.Background()

	_, err := f.engine.Open(ctx, "con-1", payroll.NewDate(2026, time.March, 1), payroll.NewDate(2026, time.March, 15))
	require.NoError(t, err)

	_, err = f.engine.Open(ctx, "con-1", payroll.NewDate(2026, time.March, 15), payroll.NewDate(2026, time.March, 31))
	assert.NoError(t, err)
}

// =============================================================================
// SETTLEMENT LIFECYCLE TESTS
// =============================================================================

func TestPayPeriodEngine_Advance_ComputesTotal(t *testing.T) {
	// GIVEN: A 10h completed substitute-teacher shift and a $100 bonus in the window
	// WHEN: Advancing the pending period
	// THEN: processing with total 242.00 + 100 = 342.00; member bonus enters processing

	f := newPeriodFixture(t)
	ctx := context.Background()

	f.addCompletedShift(t, "shift-1", "con-1", payroll.NewDate(2026, time.March, 10), 10)
	f.addBonus(t, "bonus-1", "con-1", "100", payroll.NewDate(2026, time.March, 12))

	period, err := f.engine.Open(ctx, "con-1", payroll.NewDate(2026, time.March, 1), payroll.NewDate(2026, time.March, 15))
	require.NoError(t, err)

	advanced, err := f.engine.Advance(ctx, period.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.PeriodProcessing, advanced.Status)
	assert.True(t, advanced.Total.Equal(payroll.MustDecimal("342.00")), "total: %s", advanced.Total)
	assert.Equal(t, []payroll.ShiftID{"shift-1"}, advanced.ShiftIDs)
	assert.Equal(t, []payroll.BonusID{"bonus-1"}, advanced.BonusIDs)

	bonus, err := f.store.GetBonus(ctx, "bonus-1")
	require.NoError(t, err)
	assert.Equal(t, payroll.BonusProcessing, bonus.Status)
}

func TestPayPeriodEngine_Advance_ExcludesNonCompletedShifts(t *testing.T) {
	// GIVEN: One completed and one cancelled shift in the window
	// WHEN: Advancing the period
	// THEN: Only the completed shift contributes

	f := newPeriodFixture(t)
	ctx := context.Background()

	f.addCompletedShift(t, "shift-1", "con-1", payroll.NewDate(2026, time.March, 10), 8)
	require.NoError(t, f.shifts.AddShift(ctx, shiftOn("shift-2", "con-1", payroll.NewDate(2026, time.March, 11), 8)))
	_, err := f.shifts.Transition(ctx, "shift-2", payroll.ShiftCancelled)
	require.NoError(t, err)

	period, err := f.engine.Open(ctx, "con-1", payroll.NewDate(2026, time.March, 1), payroll.NewDate(2026, time.March, 15))
	require.NoError(t, err)

	advanced, err := f.engine.Advance(ctx, period.ID)
	require.NoError(t, err)
	// 8h at the 22.00 substitute minimum
	assert.True(t, advanced.Total.Equal(payroll.MustDecimal("176.00")), "total: %s", advanced.Total)
	assert.Equal(t, []payroll.ShiftID{"shift-1"}, advanced.ShiftIDs)
}

func TestPayPeriodEngine_Advance_FromPaid_Rejected(t *testing.T) {
	// GIVEN: A paid period
	// WHEN: Advancing it again
	// THEN: InvalidTransitionError; paid is terminal

	f := newPeriodFixture(t)
	ctx := context.Background()

	period, err := f.engine.Open(ctx, "con-1", payroll.NewDate(2026, time.March, 1), payroll.NewDate(2026, time.March, 15))
	require.NoError(t, err)
	_, err = f.engine.Advance(ctx, period.ID)
	require.NoError(t, err)
	_, err = f.engine.OnPaymentConfirmed(ctx, period.ID)
	require.NoError(t, err)

	_, err = f.engine.Advance(ctx, period.ID)
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)
}

func TestPayPeriodEngine_Advance_NegativeTotal_Rejected(t *testing.T) {
	// GIVEN: A pending period whose window contains a negative-amount bonus
	//        written directly to the store (the ledger never accepts one)
	// WHEN: Advancing the period
	// THEN: ValidationError; the period remains pending

	f := newPeriodFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.SaveBonus(ctx, payroll.Bonus{
		ID:           "bonus-corrupt",
		ContractorID: "con-1",
		Type:         payroll.BonusReferral,
		Amount:       payroll.MustDecimal("-50.00"),
		DateEarned:   payroll.NewDate(2026, time.March, 5),
		Status:       payroll.BonusEarned,
	}))

	period, err := f.engine.Open(ctx, "con-1", payroll.NewDate(2026, time.March, 1), payroll.NewDate(2026, time.March, 15))
	require.NoError(t, err)

	_, err = f.engine.Advance(ctx, period.ID)
	assert.ErrorIs(t, err, payroll.ErrValidation)

	reloaded, err := f.engine.Get(ctx, period.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.PeriodPending, reloaded.Status)
}

func TestPayPeriodEngine_OnPaymentConfirmed_StampsMembers(t *testing.T) {
	// GIVEN: A processing period with one shift and one bonus
	// WHEN: The provider confirms payment
	// THEN: Period is paid; members carry the paying period id

	f := newPeriodFixture(t)
	ctx := context.Background()

	f.addCompletedShift(t, "shift-1", "con-1", payroll.NewDate(2026, time.March, 10), 8)
	f.addBonus(t, "bonus-1", "con-1", "50", payroll.NewDate(2026, time.March, 12))

	period, err := f.engine.Open(ctx, "con-1", payroll.NewDate(2026, time.March, 1), payroll.NewDate(2026, time.March, 15))
	require.NoError(t, err)
	_, err = f.engine.Advance(ctx, period.ID)
	require.NoError(t, err)

	paid, err := f.engine.OnPaymentConfirmed(ctx, period.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.PeriodPaid, paid.Status)

	shift, err := f.store.GetShift(ctx, "shift-1")
	require.NoError(t, err)
	assert.Equal(t, period.ID, shift.PaidPeriodID)

	bonus, err := f.store.GetBonus(ctx, "bonus-1")
	require.NoError(t, err)
	assert.Equal(t, payroll.BonusPaid, bonus.Status)
	assert.Equal(t, period.ID, bonus.PaidPeriodID)
}

func TestPayPeriodEngine_OnPaymentConfirmed_FromPending_Rejected(t *testing.T) {
	// GIVEN: A pending period that never entered processing
	// WHEN: The provider reports confirmation
	// THEN: InvalidTransitionError; the edge is processing -> paid only

	f := newPeriodFixture(t)
	ctx := context.Background()

	period, err := f.engine.Open(ctx, "con-1", payroll.NewDate(2026, time.March, 1), payroll.NewDate(2026, time.March, 15))
	require.NoError(t, err)

	_, err = f.engine.OnPaymentConfirmed(ctx, period.ID)
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)
}

func TestPayPeriodEngine_OnPaymentFailed_RecordsReason(t *testing.T) {
	// GIVEN: A processing period
	// WHEN: The provider reports failure
	// THEN: Status failed with the reason recorded; not a domain error

	f := newPeriodFixture(t)
	ctx := context.Background()

	period, err := f.engine.Open(ctx, "con-1", payroll.NewDate(2026, time.March, 1), payroll.NewDate(2026, time.March, 15))
	require.NoError(t, err)
	_, err = f.engine.Advance(ctx, period.ID)
	require.NoError(t, err)

	failed, err := f.engine.OnPaymentFailed(ctx, period.ID, "insufficient funds")
	require.NoError(t, err)
	assert.Equal(t, payroll.PeriodFailed, failed.Status)
	assert.Equal(t, "insufficient funds", failed.FailureReason)
}

func TestPayPeriodEngine_FailedPeriod_Redrive(t *testing.T) {
	// GIVEN: A failed period whose contractor gained another completed shift since
	// WHEN: Advancing it again
	// THEN: Re-enters processing with a freshly recomputed total and a cleared reason

	f := newPeriodFixture(t)
	ctx := context.Background()

	f.addCompletedShift(t, "shift-1", "con-1", payroll.NewDate(2026, time.March, 10), 8)

	period, err := f.engine.Open(ctx, "con-1", payroll.NewDate(2026, time.March, 1), payroll.NewDate(2026, time.March, 15))
	require.NoError(t, err)
	_, err = f.engine.Advance(ctx, period.ID)
	require.NoError(t, err)
	_, err = f.engine.OnPaymentFailed(ctx, period.ID, "provider timeout")
	require.NoError(t, err)

	// A correction lands while the period sits failed.
	f.addCompletedShift(t, "shift-2", "con-1", payroll.NewDate(2026, time.March, 11), 8)

	redriven, err := f.engine.Advance(ctx, period.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.PeriodProcessing, redriven.Status)
	assert.Empty(t, redriven.FailureReason)
	assert.True(t, redriven.Total.Equal(payroll.MustDecimal("352.00")), "total: %s", redriven.Total)
	assert.Len(t, redriven.ShiftIDs, 2)
}

func TestPayPeriodEngine_Redrive_ExcludesSettledElsewhere(t *testing.T) {
	// GIVEN: A shift settled by a paid replacement period
	// WHEN: Re-driving the original failed period over the same window
	// THEN: The already-paid shift is excluded; no double payment

	f := newPeriodFixture(t)
	ctx := context.Background()

	f.addCompletedShift(t, "shift-1", "con-1", payroll.NewDate(2026, time.March, 10), 8)

	original, err := f.engine.Open(ctx, "con-1", payroll.NewDate(2026, time.March, 1), payroll.NewDate(2026, time.March, 15))
	require.NoError(t, err)
	_, err = f.engine.Advance(ctx, original.ID)
	require.NoError(t, err)
	_, err = f.engine.OnPaymentFailed(ctx, original.ID, "provider outage")
	require.NoError(t, err)

	// Replacement period over the same window settles the shift.
	replacement, err := f.engine.Open(ctx, "con-1", payroll.NewDate(2026, time.March, 1), payroll.NewDate(2026, time.March, 15))
	require.NoError(t, err)
	_, err = f.engine.Advance(ctx, replacement.ID)
	require.NoError(t, err)
	_, err = f.engine.OnPaymentConfirmed(ctx, replacement.ID)
	require.NoError(t, err)

	// Re-driving the original must find nothing left to pay.
	redriven, err := f.engine.Advance(ctx, original.ID)
	require.NoError(t, err)
	assert.True(t, redriven.Total.IsZero(), "total: %s", redriven.Total)
	assert.Empty(t, redriven.ShiftIDs)
}

func TestPayPeriodEngine_Redrive_RejectedWhileReplacementLive(t *testing.T) {
	// GIVEN: A failed period and an unconfirmed processing replacement over
	//        the same window
	// WHEN: Re-driving the original
	// THEN: ValidationError; the shift never sits in two payable totals, and
	//       the re-drive succeeds once the replacement itself fails

	f := newPeriodFixture(t)
	ctx := context.Background()

	f.addCompletedShift(t, "shift-1", "con-1", payroll.NewDate(2026, time.March, 10), 8)

	original, err := f.engine.Open(ctx, "con-1", payroll.NewDate(2026, time.March, 1), payroll.NewDate(2026, time.March, 15))
	require.NoError(t, err)
	_, err = f.engine.Advance(ctx, original.ID)
	require.NoError(t, err)
	_, err = f.engine.OnPaymentFailed(ctx, original.ID, "provider outage")
	require.NoError(t, err)

	// Replacement enters processing but its payment has not confirmed yet.
	replacement, err := f.engine.Open(ctx, "con-1", payroll.NewDate(2026, time.March, 1), payroll.NewDate(2026, time.March, 15))
	require.NoError(t, err)
	advanced, err := f.engine.Advance(ctx, replacement.ID)
	require.NoError(t, err)
	assert.Equal(t, []payroll.ShiftID{"shift-1"}, advanced.ShiftIDs)

	_, err = f.engine.Advance(ctx, original.ID)
	assert.ErrorIs(t, err, payroll.ErrValidation)

	reloaded, err := f.engine.Get(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.PeriodFailed, reloaded.Status)

	// Once the replacement fails too, the original may take over again.
	_, err = f.engine.OnPaymentFailed(ctx, replacement.ID, "declined")
	require.NoError(t, err)
	redriven, err := f.engine.Advance(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.PeriodProcessing, redriven.Status)
	assert.Equal(t, []payroll.ShiftID{"shift-1"}, redriven.ShiftIDs)
}

func TestPayPeriodEngine_SingleNonFailedMembership_RandomWindows(t *testing.T) {
	// GIVEN: Completed shifts and bonuses scattered across March 2026
	// WHEN: Randomly opening, advancing, failing, and confirming periods over
	//       random (frequently overlapping) windows
	// THEN: No shift or bonus is ever a member of two non-failed periods

	f := newPeriodFixture(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 6; i++ {
		f.addCompletedShift(t, fmt.Sprintf("shift-%d", i), "con-1", payroll.NewDate(2026, time.March, 2+4*i), 8)
	}
	for i := 0; i < 3; i++ {
		f.addBonus(t, fmt.Sprintf("bonus-%d", i), "con-1", "50", payroll.NewDate(2026, time.March, 3+8*i))
	}

	assertSingleMembership := func(step int) {
		periods, err := f.engine.Periods(ctx, "con-1")
		require.NoError(t, err)
		shiftOwner := make(map[payroll.ShiftID]payroll.PeriodID)
		bonusOwner := make(map[payroll.BonusID]payroll.PeriodID)
		for _, p := range periods {
			if p.Status == payroll.PeriodFailed {
				continue
			}
			for _, id := range p.ShiftIDs {
				if other, dup := shiftOwner[id]; dup {
					t.Fatalf("step %d: shift %s in non-failed periods %s and %s", step, id, other, p.ID)
				}
				shiftOwner[id] = p.ID
			}
			for _, id := range p.BonusIDs {
				if other, dup := bonusOwner[id]; dup {
					t.Fatalf("step %d: bonus %s in non-failed periods %s and %s", step, id, other, p.ID)
				}
				bonusOwner[id] = p.ID
			}
		}
	}

	var opened []payroll.PeriodID
	for step := 0; step < 60; step++ {
		switch rng.Intn(4) {
		case 0:
			start := payroll.NewDate(2026, time.March, 1+rng.Intn(25))
			p, err := f.engine.Open(ctx, "con-1", start, start.AddDays(1+rng.Intn(10)))
			if err != nil {
				require.ErrorIs(t, err, payroll.ErrValidation)
			} else {
				opened = append(opened, p.ID)
			}
		case 1:
			if len(opened) > 0 {
				if _, err := f.engine.Advance(ctx, opened[rng.Intn(len(opened))]); err != nil {
					require.Truef(t,
						errors.Is(err, payroll.ErrValidation) || errors.Is(err, payroll.ErrInvalidTransition),
						"unexpected advance error: %v", err)
				}
			}
		case 2:
			if len(opened) > 0 {
				if _, err := f.engine.OnPaymentFailed(ctx, opened[rng.Intn(len(opened))], "synthetic failure"); err != nil {
					require.ErrorIs(t, err, payroll.ErrInvalidTransition)
				}
			}
		case 3:
			if len(opened) > 0 {
				if _, err := f.engine.OnPaymentConfirmed(ctx, opened[rng.Intn(len(opened))]); err != nil {
					require.ErrorIs(t, err, payroll.ErrInvalidTransition)
				}
			}
		}
		assertSingleMembership(step)
	}
}

func TestPayPeriodEngine_RecomputeIdempotent(t *testing.T) {
	// GIVEN: A pending period with fixed shift and bonus membership
	// WHEN: Advancing after a failure, with no membership changes in between
	// THEN: The recomputed total is identical

	f := newPeriodFixture(t)
	ctx := context.Background()

	f.addCompletedShift(t, "shift-1", "con-1", payroll.NewDate(2026, time.March, 10), 10)
	f.addBonus(t, "bonus-1", "con-1", "75.50", payroll.NewDate(2026, time.March, 11))

	period, err := f.engine.Open(ctx, "con-1", payroll.NewDate(2026, time.March, 1), payroll.NewDate(2026, time.March, 15))
	require.NoError(t, err)

	first, err := f.engine.Advance(ctx, period.ID)
	require.NoError(t, err)
	_, err = f.engine.OnPaymentFailed(ctx, period.ID, "retryable")
	require.NoError(t, err)

	second, err := f.engine.Advance(ctx, period.ID)
	require.NoError(t, err)
	assert.True(t, first.Total.Equal(second.Total), "totals diverged: %s vs %s", first.Total, second.Total)
}

func TestPayPeriodEngine_Abort_PendingOnly(t *testing.T) {
	// GIVEN: A pending period and a processing period
	// WHEN: Aborting each
	// THEN: Pending aborts to failed; processing rejects the abort

	f := newPeriodFixture(t)
	ctx := context.Background()

	pending, err := f.engine.Open(ctx, "con-1", payroll.NewDate(2026, time.March, 1), payroll.NewDate(2026, time.March, 15))
	require.NoError(t, err)

	aborted, err := f.engine.Abort(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.PeriodFailed, aborted.Status)
	assert.Equal(t, "aborted by operator", aborted.FailureReason)

	processing, err := f.engine.Open(ctx, "con-2", payroll.NewDate(2026, time.March, 1), payroll.NewDate(2026, time.March, 15))
	require.NoError(t, err)
	_, err = f.engine.Advance(ctx, processing.ID)
	require.NoError(t, err)

	_, err = f.engine.Abort(ctx, processing.ID)
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)
}

func TestPayPeriodEngine_BonusNeverReversed(t *testing.T) {
	// GIVEN: A bonus pulled into processing by a period advance
	// WHEN: The period's payment fails
	// THEN: The bonus stays at processing; settlement is monotonic

	f := newPeriodFixture(t)
	ctx := context.Background()

	f.addBonus(t, "bonus-1", "con-1", "200", payroll.NewDate(2026, time.March, 5))

	period, err := f.engine.Open(ctx, "con-1", payroll.NewDate(2026, time.March, 1), payroll.NewDate(2026, time.March, 15))
	require.NoError(t, err)
	_, err = f.engine.Advance(ctx, period.ID)
	require.NoError(t, err)
	_, err = f.engine.OnPaymentFailed(ctx, period.ID, "declined")
	require.NoError(t, err)

	bonus, err := f.store.GetBonus(ctx, "bonus-1")
	require.NoError(t, err)
	assert.Equal(t, payroll.BonusProcessing, bonus.Status)

	// The re-driven period still carries it to paid.
	_, err = f.engine.Advance(ctx, period.ID)
	require.NoError(t, err)
	_, err = f.engine.OnPaymentConfirmed(ctx, period.ID)
	require.NoError(t, err)

	bonus, err = f.store.GetBonus(ctx, "bonus-1")
	require.NoError(t, err)
	assert.Equal(t, payroll.BonusPaid, bonus.Status)
}
