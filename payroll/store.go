/*
store.go - Persistence interfaces consumed by the engine

PURPOSE:
  Defines the contract between the engine and its external persistence
  collaborator. The engine never owns a database; it operates on records the
  store supplies and writes them back through these interfaces. The core
  assumption is strong read-after-write consistency within one contractor's
  aggregate. The per-contractor lock in locks.go serializes writers, so a
  store only has to be consistent, not clever.

KEY INTERFACES:
  ShiftStore:     WorkShift records, keyed by id and contractor+date range
  BonusStore:     Bonus records, keyed by id and contractor+date range
  PeriodStore:    PayPeriod records, keyed by id and contractor
  PlacementStore: PlacementProgress, keyed by contractor
  HolidayStore:   Recognized holiday dates
  Store:          All of the above (what implementations provide)

IMPLEMENTATIONS:
  - store/memory: In-memory for tests/dev
  - store/sqlite: Production SQLite

SEE ALSO:
  - locks.go: Per-contractor serialization
  - store/memory/memory.go, store/sqlite/sqlite.go
*/
package payroll

import "context"

// =============================================================================
// STORE INTERFACES
// =============================================================================

// ShiftStore persists WorkShift records.
type ShiftStore interface {
	// SaveShift inserts or replaces a shift record.
	SaveShift(ctx context.Context, shift WorkShift) error

	// GetShift returns a shift by id, or ErrNotFound.
	GetShift(ctx context.Context, id ShiftID) (WorkShift, error)

	// ShiftsByContractor returns a contractor's shifts with date in the
	// half-open window [from, to), ordered by date then start time.
	ShiftsByContractor(ctx context.Context, contractorID ContractorID, from, to TimePoint) ([]WorkShift, error)
}

// BonusStore persists Bonus records.
type BonusStore interface {
	SaveBonus(ctx context.Context, bonus Bonus) error
	GetBonus(ctx context.Context, id BonusID) (Bonus, error)

	// BonusesByContractor returns bonuses with DateEarned in [from, to),
	// ordered by date earned.
	BonusesByContractor(ctx context.Context, contractorID ContractorID, from, to TimePoint) ([]Bonus, error)
}

// PeriodStore persists PayPeriod records.
type PeriodStore interface {
	SavePeriod(ctx context.Context, period PayPeriod) error
	GetPeriod(ctx context.Context, id PeriodID) (PayPeriod, error)
	PeriodsByContractor(ctx context.Context, contractorID ContractorID) ([]PayPeriod, error)
}

// PlacementStore persists PlacementProgress aggregates.
type PlacementStore interface {
	SaveProgress(ctx context.Context, progress PlacementProgress) error

	// GetProgress returns the contractor's progress, or ErrNotFound when
	// nothing has been recorded yet.
	GetProgress(ctx context.Context, contractorID ContractorID) (PlacementProgress, error)
}

// HolidayStore persists recognized holidays.
type HolidayStore interface {
	SaveHoliday(ctx context.Context, holiday Holiday) error
	Holidays(ctx context.Context) ([]Holiday, error)
	DeleteHoliday(ctx context.Context, id string) error
}

// Store is the full persistence surface the engine is wired with.
type Store interface {
	ShiftStore
	BonusStore
	PeriodStore
	PlacementStore
	HolidayStore
}

// =============================================================================
// STORE-BACKED HOLIDAY CALENDAR
// =============================================================================

// StoreCalendar reads holidays from a HolidayStore on every lookup.
// Holiday sets are tiny; correctness beats caching here.
type StoreCalendar struct {
	Store HolidayStore
}

func (c StoreCalendar) IsHoliday(date TimePoint) bool {
	holidays, err := c.Store.Holidays(context.Background())
	if err != nil {
		return false
	}
	return ListCalendar{Holidays: holidays}.IsHoliday(date)
}
