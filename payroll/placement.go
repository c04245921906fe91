/*
placement.go - Permanent-placement eligibility tracker

PURPOSE:
  Accumulates assignment and feedback counters per contractor, computes a
  derived eligibility score, and advances the placement-status ladder:

      active -> inConsideration -> interviewing -> offered -> placed
                          declined (terminal, from any non-placed state)

  Eligibility never auto-advances status. Advancement beyond inConsideration
  is an explicit external decision (human review); the tracker only validates
  the eligibility precondition and rejects with IneligibleError when it does
  not hold.

SCORE AND ELIGIBILITY:
  score      = 2 x assignments + 5 x unique schools + 3 x positive feedback
  isEligible = assignments >= 30  AND  schools >= 3  AND  feedback >= 10

  Both are pure functions recomputed on read, never persisted as
  authoritative. Eligibility is monotonic in its three inputs.
*/
package payroll

import "context"

// =============================================================================
// SCORE AND ELIGIBILITY - Pure functions
// =============================================================================

// Score weights and eligibility thresholds.
const (
	scoreWeightAssignments = 2
	scoreWeightSchools     = 5
	scoreWeightFeedback    = 3

	EligibleMinAssignments = 30
	EligibleMinSchools     = 3
	EligibleMinFeedback    = 10
)

// Score computes the derived eligibility score.
func Score(p PlacementProgress) int {
	return scoreWeightAssignments*p.TotalAssignments +
		scoreWeightSchools*len(p.Schools) +
		scoreWeightFeedback*p.PositiveFeedback
}

// IsEligible reports whether the contractor meets all three placement
// thresholds. Increasing any counter never flips true to false.
func IsEligible(p PlacementProgress) bool {
	return p.TotalAssignments >= EligibleMinAssignments &&
		len(p.Schools) >= EligibleMinSchools &&
		p.PositiveFeedback >= EligibleMinFeedback
}

// =============================================================================
// PLACEMENT TRACKER
// =============================================================================

type PlacementTracker struct {
	store PlacementStore
	locks *ContractorLocks
}

func NewPlacementTracker(store PlacementStore, locks *ContractorLocks) *PlacementTracker {
	return &PlacementTracker{store: store, locks: locks}
}

// progressLocked loads the contractor's progress, creating a fresh active
// record on first use. Caller holds the contractor lock.
func (t *PlacementTracker) progressLocked(ctx context.Context, contractorID ContractorID) (PlacementProgress, error) {
	progress, err := t.store.GetProgress(ctx, contractorID)
	if IsNotFound(err) {
		return PlacementProgress{
			ID:           "placement-" + string(contractorID),
			ContractorID: contractorID,
			StartDate:    Today(),
			Schools:      make(map[string]struct{}),
			Status:       PlacementActive,
		}, nil
	}
	if err != nil {
		return PlacementProgress{}, err
	}
	if progress.Schools == nil {
		progress.Schools = make(map[string]struct{})
	}
	return progress, nil
}

// RecordAssignment increments the assignment counter and adds the school to
// the distinct-school set. Idempotent on a repeat school.
func (t *PlacementTracker) RecordAssignment(ctx context.Context, contractorID ContractorID, schoolID string) (PlacementProgress, error) {
	if schoolID == "" {
		return PlacementProgress{}, &ValidationError{Field: "school_id", Reason: "required"}
	}

	unlock := t.locks.Lock(contractorID)
	defer unlock()

	progress, err := t.progressLocked(ctx, contractorID)
	if err != nil {
		return PlacementProgress{}, err
	}

	progress.TotalAssignments++
	progress.Schools[schoolID] = struct{}{}

	if err := t.store.SaveProgress(ctx, progress); err != nil {
		return PlacementProgress{}, err
	}
	return progress, nil
}

// RecordFeedback increments the positive-feedback count only when the
// feedback is positive. Negative feedback is accepted and counted nowhere.
func (t *PlacementTracker) RecordFeedback(ctx context.Context, contractorID ContractorID, positive bool) (PlacementProgress, error) {
	unlock := t.locks.Lock(contractorID)
	defer unlock()

	progress, err := t.progressLocked(ctx, contractorID)
	if err != nil {
		return PlacementProgress{}, err
	}

	if positive {
		progress.PositiveFeedback++
	}

	if err := t.store.SaveProgress(ctx, progress); err != nil {
		return PlacementProgress{}, err
	}
	return progress, nil
}

// Advance moves the placement status exactly one step up the ladder.
// active -> inConsideration is always allowed; every step beyond requires
// the eligibility precondition.
func (t *PlacementTracker) Advance(ctx context.Context, contractorID ContractorID) (PlacementProgress, error) {
	unlock := t.locks.Lock(contractorID)
	defer unlock()

	progress, err := t.progressLocked(ctx, contractorID)
	if err != nil {
		return PlacementProgress{}, err
	}

	target := progress.Status.next()
	if target == "" {
		return PlacementProgress{}, &InvalidTransitionError{
			Entity: "placement",
			From:   string(progress.Status),
			To:     "advanced",
		}
	}

	if target != PlacementInConsideration && !IsEligible(progress) {
		return PlacementProgress{}, &IneligibleError{
			ContractorID:     contractorID,
			Target:           target,
			TotalAssignments: progress.TotalAssignments,
			UniqueSchools:    len(progress.Schools),
			PositiveFeedback: progress.PositiveFeedback,
		}
	}

	progress.Status = target
	if err := t.store.SaveProgress(ctx, progress); err != nil {
		return PlacementProgress{}, err
	}
	return progress, nil
}

// Decline marks the contractor as declined. Reachable from any non-placed,
// non-declined state; placed is terminal and cannot be declined.
func (t *PlacementTracker) Decline(ctx context.Context, contractorID ContractorID) (PlacementProgress, error) {
	unlock := t.locks.Lock(contractorID)
	defer unlock()

	progress, err := t.progressLocked(ctx, contractorID)
	if err != nil {
		return PlacementProgress{}, err
	}

	if progress.Status.Terminal() {
		return PlacementProgress{}, &InvalidTransitionError{
			Entity: "placement",
			From:   string(progress.Status),
			To:     string(PlacementDeclined),
		}
	}

	progress.Status = PlacementDeclined
	if err := t.store.SaveProgress(ctx, progress); err != nil {
		return PlacementProgress{}, err
	}
	return progress, nil
}

// Progress returns a consistent snapshot of the contractor's progress under
// the shared lock. The school set is cloned so callers cannot mutate owned
// state.
func (t *PlacementTracker) Progress(ctx context.Context, contractorID ContractorID) (PlacementProgress, error) {
	unlock := t.locks.RLock(contractorID)
	defer unlock()

	progress, err := t.store.GetProgress(ctx, contractorID)
	if err != nil {
		return PlacementProgress{}, err
	}
	progress.Schools = progress.CloneSchools()
	return progress, nil
}
