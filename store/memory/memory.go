// Package memory provides an in-memory Store implementation (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/staffly/payroll-engine/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation of payroll.Store
// =============================================================================

type Store struct {
	mu        sync.RWMutex
	shifts    map[payroll.ShiftID]payroll.WorkShift
	bonuses   map[payroll.BonusID]payroll.Bonus
	periods   map[payroll.PeriodID]payroll.PayPeriod
	placement map[payroll.ContractorID]payroll.PlacementProgress
	holidays  map[string]payroll.Holiday
}

func New() *Store {
	return &Store{
		shifts:    make(map[payroll.ShiftID]payroll.WorkShift),
		bonuses:   make(map[payroll.BonusID]payroll.Bonus),
		periods:   make(map[payroll.PeriodID]payroll.PayPeriod),
		placement: make(map[payroll.ContractorID]payroll.PlacementProgress),
		holidays:  make(map[string]payroll.Holiday),
	}
}

var _ payroll.Store = (*Store)(nil)

// =============================================================================
// SHIFTS
// =============================================================================

func (s *Store) SaveShift(_ context.Context, shift payroll.WorkShift) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shifts[shift.ID] = shift
	return nil
}

func (s *Store) GetShift(_ context.Context, id payroll.ShiftID) (payroll.WorkShift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	shift, ok := s.shifts[id]
	if !ok {
		return payroll.WorkShift{}, payroll.ErrNotFound
	}
	return shift, nil
}

func (s *Store) ShiftsByContractor(_ context.Context, contractorID payroll.ContractorID, from, to payroll.TimePoint) ([]payroll.WorkShift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []payroll.WorkShift
	for _, shift := range s.shifts {
		if shift.ContractorID != contractorID {
			continue
		}
		if shift.Date.AfterOrEqual(from) && shift.Date.Before(to) {
			result = append(result, shift)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].Start.Before(result[j].Start)
	})
	return result, nil
}

// =============================================================================
// BONUSES
// =============================================================================

func (s *Store) SaveBonus(_ context.Context, bonus payroll.Bonus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bonuses[bonus.ID] = bonus
	return nil
}

func (s *Store) GetBonus(_ context.Context, id payroll.BonusID) (payroll.Bonus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bonus, ok := s.bonuses[id]
	if !ok {
		return payroll.Bonus{}, payroll.ErrNotFound
	}
	return bonus, nil
}

func (s *Store) BonusesByContractor(_ context.Context, contractorID payroll.ContractorID, from, to payroll.TimePoint) ([]payroll.Bonus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []payroll.Bonus
	for _, bonus := range s.bonuses {
		if bonus.ContractorID != contractorID {
			continue
		}
		if bonus.DateEarned.AfterOrEqual(from) && bonus.DateEarned.Before(to) {
			result = append(result, bonus)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DateEarned.Before(result[j].DateEarned)
	})
	return result, nil
}

// =============================================================================
// PAY PERIODS
// =============================================================================

func (s *Store) SavePeriod(_ context.Context, period payroll.PayPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Copy reference slices so callers can't mutate stored state.
	period.ShiftIDs = append([]payroll.ShiftID(nil), period.ShiftIDs...)
	period.BonusIDs = append([]payroll.BonusID(nil), period.BonusIDs...)
	s.periods[period.ID] = period
	return nil
}

func (s *Store) GetPeriod(_ context.Context, id payroll.PeriodID) (payroll.PayPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	period, ok := s.periods[id]
	if !ok {
		return payroll.PayPeriod{}, payroll.ErrNotFound
	}
	period.ShiftIDs = append([]payroll.ShiftID(nil), period.ShiftIDs...)
	period.BonusIDs = append([]payroll.BonusID(nil), period.BonusIDs...)
	return period, nil
}

func (s *Store) PeriodsByContractor(_ context.Context, contractorID payroll.ContractorID) ([]payroll.PayPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []payroll.PayPeriod
	for _, period := range s.periods {
		if period.ContractorID == contractorID {
			period.ShiftIDs = append([]payroll.ShiftID(nil), period.ShiftIDs...)
			period.BonusIDs = append([]payroll.BonusID(nil), period.BonusIDs...)
			result = append(result, period)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Start.Before(result[j].Start)
	})
	return result, nil
}

// =============================================================================
// PLACEMENT PROGRESS
// =============================================================================

func (s *Store) SaveProgress(_ context.Context, progress payroll.PlacementProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	progress.Schools = progress.CloneSchools()
	s.placement[progress.ContractorID] = progress
	return nil
}

func (s *Store) GetProgress(_ context.Context, contractorID payroll.ContractorID) (payroll.PlacementProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	progress, ok := s.placement[contractorID]
	if !ok {
		return payroll.PlacementProgress{}, payroll.ErrNotFound
	}
	progress.Schools = progress.CloneSchools()
	return progress, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (s *Store) SaveHoliday(_ context.Context, holiday payroll.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holidays[holiday.ID] = holiday
	return nil
}

func (s *Store) Holidays(_ context.Context) ([]payroll.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]payroll.Holiday, 0, len(s.holidays))
	for _, h := range s.holidays {
		result = append(result, h)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

func (s *Store) DeleteHoliday(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.holidays[id]; !ok {
		return payroll.ErrNotFound
	}
	delete(s.holidays, id)
	return nil
}
