package payroll_test

import (
	"context"
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

type analyticsFixture struct {
	*periodFixture
	projector *payroll.AnalyticsProjector
}

func newAnalyticsFixture(t *testing.T) *analyticsFixture {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	locks := payroll.NewContractorLocks()
	rates := payroll.NewRateTable()
	shifts := payroll.NewShiftLedger(store, locks, payroll.OvertimePerShift, nil)
	f := &periodFixture{
		store:   store,
		rates:   rates,
		shifts:  shifts,
		bonuses: payroll.NewBonusLedger(store, locks),
		engine:  payroll.NewPayPeriodEngine(store, shifts, rates, locks),
	}
	return &analyticsFixture{
		periodFixture: f,
		projector:     payroll.NewAnalyticsProjector(store, shifts, rates, locks),
	}
}

// settlePaidPeriod opens, advances, and confirms a period over the window.
func (f *analyticsFixture) settlePaidPeriod(t *testing.T, contractor string, start, end payroll.TimePoint) payroll.PayPeriod {
	t.Helper()
	ctx := context.Background()
	period, err := f.engine.Open(ctx, payroll.ContractorID(contractor), start, end)
	require.NoError(t, err)
	_, err = f.engine.Advance(ctx, period.ID)
	require.NoError(t, err)
	paid, err := f.engine.OnPaymentConfirmed(ctx, period.ID)
	require.NoError(t, err)
	return paid
}

// =============================================================================
// PROJECTION TESTS
// =============================================================================

func TestAnalyticsProjector_TwoWeekWindow(t *testing.T) {
	// GIVEN: A paid two-week period with a 10h shift (242.00) and a $100 bonus
	// WHEN: Projecting over the same window
	// THEN: Trailing figures are exact and the annualization is 342/2 x 52 = 8892

	f := newAnalyticsFixture(t)
	ctx := context.Background()

	f.addCompletedShift(t, "shift-1", "con-1", payroll.NewDate(2026, time.March, 10), 10)
	f.addBonus(t, "bonus-1", "con-1", "100", payroll.NewDate(2026, time.March, 12))
	f.settlePaidPeriod(t, "con-1", payroll.NewDate(2026, time.March, 1), payroll.NewDate(2026, time.March, 15))

	window := payroll.Period{
		Start: payroll.NewDate(2026, time.March, 1),
		End:   payroll.NewDate(2026, time.March, 15),
	}
	analytics, err := f.projector.Project(ctx, "con-1", window)
	require.NoError(t, err)

	assert.True(t, analytics.TotalEarnings.Equal(payroll.MustDecimal("342.00")), "total: %s", analytics.TotalEarnings)
	assert.True(t, analytics.RegularHours.Equal(payroll.MustDecimal("8")), "regular: %s", analytics.RegularHours)
	assert.True(t, analytics.OvertimeHours.Equal(payroll.MustDecimal("2")), "overtime: %s", analytics.OvertimeHours)
	assert.True(t, analytics.BonusEarnings.Equal(payroll.MustDecimal("100")), "bonus: %s", analytics.BonusEarnings)
	assert.Equal(t, 1, analytics.AssignmentsCompleted)
	// 242.00 of shift earnings over 10 hours
	assert.True(t, analytics.AverageHourlyRate.Equal(payroll.MustDecimal("24.2")), "avg: %s", analytics.AverageHourlyRate)
	assert.True(t, analytics.ProjectedAnnual.Equal(payroll.MustDecimal("8892")), "annual: %s", analytics.ProjectedAnnual)
	assert.False(t, analytics.LowConfidence)
}

func TestAnalyticsProjector_ShortWindow_LowConfidence(t *testing.T) {
	// GIVEN: A window of five days
	// WHEN: Projecting
	// THEN: LowConfidence with a zero projection and no error

	f := newAnalyticsFixture(t)
	ctx := context.Background()

	window := payroll.Period{
		Start: payroll.NewDate(2026, time.March, 1),
		End:   payroll.NewDate(2026, time.March, 6),
	}
	analytics, err := f.projector.Project(ctx, "con-1", window)
	require.NoError(t, err)

	assert.True(t, analytics.LowConfidence)
	assert.True(t, analytics.ProjectedAnnual.IsZero())
}

func TestAnalyticsProjector_UnpaidPeriodsExcluded(t *testing.T) {
	// GIVEN: A processing (not yet paid) period with earnings
	// WHEN: Projecting over its window
	// THEN: Nothing contributes; only paid periods count

	f := newAnalyticsFixture(t)
	ctx := context.Background()

	f.addCompletedShift(t, "shift-1", "con-1", payroll.NewDate(2026, time.March, 10), 8)
	period, err := f.engine.Open(ctx, "con-1", payroll.NewDate(2026, time.March, 1), payroll.NewDate(2026, time.March, 15))
	require.NoError(t, err)
	_, err = f.engine.Advance(ctx, period.ID)
	require.NoError(t, err)

	window := payroll.Period{
		Start: payroll.NewDate(2026, time.March, 1),
		End:   payroll.NewDate(2026, time.March, 15),
	}
	analytics, err := f.projector.Project(ctx, "con-1", window)
	require.NoError(t, err)

	assert.True(t, analytics.TotalEarnings.IsZero())
	assert.Equal(t, 0, analytics.AssignmentsCompleted)
}

func TestAnalyticsProjector_EmptyHistory_ZeroAnalytics(t *testing.T) {
	// GIVEN: A contractor with no history at all
	// WHEN: Projecting over a valid window
	// THEN: All-zero analytics with no error

	f := newAnalyticsFixture(t)
	ctx := context.Background()

	window := payroll.Period{
		Start: payroll.NewDate(2026, time.March, 1),
		End:   payroll.NewDate(2026, time.March, 15),
	}
	analytics, err := f.projector.Project(ctx, "unknown-contractor", window)
	require.NoError(t, err)

	assert.True(t, analytics.TotalEarnings.IsZero())
	assert.True(t, analytics.AverageHourlyRate.IsZero())
	assert.True(t, analytics.ProjectedAnnual.IsZero())
}

func TestAnalyticsProjector_InvalidWindow_Rejected(t *testing.T) {
	// GIVEN: A window whose end precedes its start
	// WHEN: Projecting
	// THEN: ValidationError

	f := newAnalyticsFixture(t)

	window := payroll.Period{
		Start: payroll.NewDate(2026, time.March, 15),
		End:   payroll.NewDate(2026, time.March, 1),
	}
	_, err := f.projector.Project(context.Background(), "con-1", window)
	assert.ErrorIs(t, err, payroll.ErrValidation)
}
