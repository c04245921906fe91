/*
bonus.go - Earned-bonus ledger

PURPOSE:
  Holds earned bonuses and their settlement status. Settlement is monotonic:
  earned -> processing -> paid, never reversible. A bonus joins a pay period's
  total by date membership while its status is not yet paid; the period
  engine drives the final earned->paid steps during settlement.
*/
package payroll

import (
	"context"
	"fmt"
)

// BonusLedger owns Bonus state. All mutations go through it under the
// contractor's exclusive lock.
type BonusLedger struct {
	store BonusStore
	locks *ContractorLocks
}

func NewBonusLedger(store BonusStore, locks *ContractorLocks) *BonusLedger {
	return &BonusLedger{store: store, locks: locks}
}

// AddBonus records a newly earned bonus. The amount must be strictly
// positive; rejected before any mutation otherwise.
func (l *BonusLedger) AddBonus(ctx context.Context, bonus Bonus) error {
	if !bonus.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if bonus.ID == "" {
		return &ValidationError{Field: "id", Reason: "required"}
	}
	if bonus.ContractorID == "" {
		return &ValidationError{Field: "contractor_id", Reason: "required"}
	}
	if bonus.Status == "" {
		bonus.Status = BonusEarned
	}
	if bonus.Status != BonusEarned {
		return &ValidationError{Field: "status", Reason: "bonuses are created as earned"}
	}

	unlock := l.locks.Lock(bonus.ContractorID)
	defer unlock()

	if _, err := l.store.GetBonus(ctx, bonus.ID); err == nil {
		return fmt.Errorf("bonus %s: %w", bonus.ID, ErrDuplicateID)
	} else if !IsNotFound(err) {
		return err
	}

	return l.store.SaveBonus(ctx, bonus)
}

// Settle advances the bonus one settlement step forward. A paid bonus
// accepts no further transitions.
func (l *BonusLedger) Settle(ctx context.Context, id BonusID) (Bonus, error) {
	bonus, err := l.store.GetBonus(ctx, id)
	if err != nil {
		return Bonus{}, err
	}

	unlock := l.locks.Lock(bonus.ContractorID)
	defer unlock()

	bonus, err = l.store.GetBonus(ctx, id)
	if err != nil {
		return Bonus{}, err
	}

	next := bonus.Status.next()
	if next == "" {
		return Bonus{}, &InvalidTransitionError{
			Entity: "bonus",
			From:   string(bonus.Status),
			To:     "settled",
		}
	}

	bonus.Status = next
	if err := l.store.SaveBonus(ctx, bonus); err != nil {
		return Bonus{}, err
	}
	return bonus, nil
}

// Bonuses returns the contractor's bonuses earned in the window, under the
// contractor's shared lock.
func (l *BonusLedger) Bonuses(ctx context.Context, contractorID ContractorID, window Period) ([]Bonus, error) {
	unlock := l.locks.RLock(contractorID)
	defer unlock()
	return l.store.BonusesByContractor(ctx, contractorID, window.Start, window.End)
}
