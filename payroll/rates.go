/*
rates.go - Role category rate table

PURPOSE:
  Maps a role category to its minimum hourly rate and pay multipliers.
  Pure lookup, no mutable state beyond operator-configured rate overrides.

FALLBACK RULE:
  RateFor resolves the configured rate when one exists. When none is
  configured, the documented minimum-rate fallback applies: the category's
  minimum hourly rate with the default overtime and holiday multipliers.
  Nothing else is ever silently substituted; an unknown category is a
  ConfigurationError.
*/
package payroll

import (
	"sync"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MINIMUM RATES - Immutable per role category
// =============================================================================

// minimumHourlyRates carries the immutable minimum for each member of the
// closed RoleCategory enumeration.
var minimumHourlyRates = map[RoleCategory]decimal.Decimal{
	RoleBusAide:             MustDecimal("18.00"),
	RoleParaprofessional:    MustDecimal("20.00"),
	RoleCafeteriaStaff:      MustDecimal("16.50"),
	RoleSubstituteTeacher:   MustDecimal("22.00"),
	RoleClinicalStaff:       MustDecimal("28.00"),
	RoleAdministrativeStaff: MustDecimal("24.00"),
}

// Default multipliers used by the minimum-rate fallback.
var (
	DefaultOvertimeMultiplier = MustDecimal("1.5")
	DefaultHolidayMultiplier  = MustDecimal("2.0")
)

// =============================================================================
// RATE TABLE
// =============================================================================

// RateTable resolves pay rates per role category. Safe for concurrent use.
type RateTable struct {
	mu    sync.RWMutex
	rates map[RoleCategory]PayRate
}

func NewRateTable() *RateTable {
	return &RateTable{rates: make(map[RoleCategory]PayRate)}
}

// MinimumFor returns the immutable minimum hourly rate for a category.
// Total over the closed enumeration; unknown categories are a
// ConfigurationError.
func (rt *RateTable) MinimumFor(role RoleCategory) (decimal.Decimal, error) {
	min, ok := minimumHourlyRates[role]
	if !ok {
		return decimal.Zero, &ConfigurationError{Category: role}
	}
	return min, nil
}

// RateFor resolves the configured rate for a category, falling back to the
// category minimum with default multipliers when none is configured.
func (rt *RateTable) RateFor(role RoleCategory) (PayRate, error) {
	rt.mu.RLock()
	rate, ok := rt.rates[role]
	rt.mu.RUnlock()
	if ok {
		return rate, nil
	}

	min, err := rt.MinimumFor(role)
	if err != nil {
		return PayRate{}, err
	}
	return PayRate{
		Role:               role,
		BaseHourlyRate:     min,
		OvertimeMultiplier: DefaultOvertimeMultiplier,
		HolidayMultiplier:  DefaultHolidayMultiplier,
	}, nil
}

// SetRate configures a rate for a category. The base hourly rate must not
// undercut the category minimum.
func (rt *RateTable) SetRate(rate PayRate) error {
	min, err := rt.MinimumFor(rate.Role)
	if err != nil {
		return err
	}
	if rate.BaseHourlyRate.LessThan(min) {
		return &ValidationError{
			Field:  "base_hourly_rate",
			Reason: "below category minimum of " + min.StringFixed(2),
		}
	}
	if !rate.OvertimeMultiplier.IsPositive() || !rate.HolidayMultiplier.IsPositive() {
		return &ValidationError{Field: "multiplier", Reason: "must be positive"}
	}

	rt.mu.Lock()
	rt.rates[rate.Role] = rate
	rt.mu.Unlock()
	return nil
}
