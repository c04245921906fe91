/*
Package config provides JSON to Go payroll configuration conversion.

PURPOSE:
  Converts a JSON configuration document into configured rates, the
  overtime strategy, and the holiday calendar. This enables payroll
  configuration without code changes - operations can define rates and
  holidays in JSON, and the loader applies them at startup.

WHY JSON?
  - Non-developers can adjust rates and holidays
  - Easy integration with an admin UI
  - Version control for compensation configs
  - Database storage of configuration documents

JSON SCHEMA:
  {
    "overtime_strategy": "weekly_cumulative",
    "rates": [
      {
        "role": "substitute_teacher",
        "base_hourly_rate": "24.00",
        "overtime_multiplier": "1.5",
        "holiday_multiplier": "2.0"
      }
    ],
    "holidays": [
      {"id": "hol-july4", "date": "2026-07-04", "name": "Independence Day", "recurring": true}
    ]
  }

KEY FEATURES:
  - Validates structure and decimal amounts before anything is applied
  - Rate minimums are enforced by the rate table, not re-checked here
  - Missing multipliers fall back to the defaults
  - Holidays are upserted into the holiday store

USAGE:
  cfg, err := config.ParseFile("payroll.json")
  ...
  err = cfg.Apply(ctx, rates, store)

SEE ALSO:
  - payroll/rates.go: RateTable and minimum-rate enforcement
  - payroll/time.go: Holiday matching
  - cmd/server/main.go: Startup wiring via the -config flag
*/
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/staffly/payroll-engine/payroll"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// Document is the JSON representation of a payroll configuration.
type Document struct {
	OvertimeStrategy string        `json:"overtime_strategy,omitempty"`
	Rates            []RateJSON    `json:"rates,omitempty"`
	Holidays         []HolidayJSON `json:"holidays,omitempty"`
}

// RateJSON represents one role's rate configuration. Amounts are decimal
// strings; floats are deliberately not accepted.
type RateJSON struct {
	Role               string `json:"role"`
	BaseHourlyRate     string `json:"base_hourly_rate"`
	OvertimeMultiplier string `json:"overtime_multiplier,omitempty"`
	HolidayMultiplier  string `json:"holiday_multiplier,omitempty"`
}

// HolidayJSON represents one recognized holiday.
type HolidayJSON struct {
	ID        string `json:"id"`
	Date      string `json:"date"` // YYYY-MM-DD
	Name      string `json:"name"`
	Recurring bool   `json:"recurring,omitempty"`
}

// =============================================================================
// PARSED CONFIGURATION
// =============================================================================

// Config is a validated configuration ready to apply.
type Config struct {
	Strategy payroll.OvertimeStrategy
	Rates    []payroll.PayRate
	Holidays []payroll.Holiday
}

// Parse validates a JSON document and converts it into domain values.
// Nothing is applied; a malformed document fails as a whole.
func Parse(raw []byte) (*Config, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{Strategy: payroll.OvertimePerShift}

	switch doc.OvertimeStrategy {
	case "", string(payroll.OvertimePerShift):
		// default
	case string(payroll.OvertimeWeeklyCumulative):
		cfg.Strategy = payroll.OvertimeWeeklyCumulative
	default:
		return nil, fmt.Errorf("parse config: unknown overtime_strategy %q", doc.OvertimeStrategy)
	}

	for _, r := range doc.Rates {
		rate, err := parseRate(r)
		if err != nil {
			return nil, err
		}
		cfg.Rates = append(cfg.Rates, rate)
	}

	for _, h := range doc.Holidays {
		if h.ID == "" {
			return nil, fmt.Errorf("parse config: holiday %q: id required", h.Name)
		}
		date, err := time.Parse("2006-01-02", h.Date)
		if err != nil {
			return nil, fmt.Errorf("parse config: holiday %s: %w", h.ID, err)
		}
		cfg.Holidays = append(cfg.Holidays, payroll.Holiday{
			ID:        h.ID,
			Date:      payroll.DateOf(date),
			Name:      h.Name,
			Recurring: h.Recurring,
		})
	}

	return cfg, nil
}

// ParseFile reads and parses a configuration file.
func ParseFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

func parseRate(r RateJSON) (payroll.PayRate, error) {
	base, err := decimal.NewFromString(r.BaseHourlyRate)
	if err != nil {
		return payroll.PayRate{}, fmt.Errorf("parse config: rate %s: base_hourly_rate: %w", r.Role, err)
	}

	rate := payroll.PayRate{
		Role:               payroll.RoleCategory(r.Role),
		BaseHourlyRate:     base,
		OvertimeMultiplier: payroll.DefaultOvertimeMultiplier,
		HolidayMultiplier:  payroll.DefaultHolidayMultiplier,
	}
	if r.OvertimeMultiplier != "" {
		if rate.OvertimeMultiplier, err = decimal.NewFromString(r.OvertimeMultiplier); err != nil {
			return payroll.PayRate{}, fmt.Errorf("parse config: rate %s: overtime_multiplier: %w", r.Role, err)
		}
	}
	if r.HolidayMultiplier != "" {
		if rate.HolidayMultiplier, err = decimal.NewFromString(r.HolidayMultiplier); err != nil {
			return payroll.PayRate{}, fmt.Errorf("parse config: rate %s: holiday_multiplier: %w", r.Role, err)
		}
	}
	return rate, nil
}

// =============================================================================
// APPLICATION
// =============================================================================

// Apply pushes the configuration into the rate table and holiday store.
// Rate minimums are enforced by SetRate; the first violation aborts.
func (c *Config) Apply(ctx context.Context, rates *payroll.RateTable, holidays payroll.HolidayStore) error {
	for _, rate := range c.Rates {
		if err := rates.SetRate(rate); err != nil {
			return fmt.Errorf("apply config: rate %s: %w", rate.Role, err)
		}
	}
	for _, holiday := range c.Holidays {
		if err := holidays.SaveHoliday(ctx, holiday); err != nil {
			return fmt.Errorf("apply config: holiday %s: %w", holiday.ID, err)
		}
	}
	return nil
}
