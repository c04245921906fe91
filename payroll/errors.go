/*
errors.go - Centralized error types for the payment engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match on sentinels with errors.Is() and extract context from the
  structured types with errors.As().

ERROR CATEGORIES:
  1. Validation errors  - Malformed input, rejected before any mutation
  2. Transition errors  - Illegal state-machine edge, state unchanged
  3. Configuration errors - Missing rate/category mapping
  4. Eligibility errors - Placement precondition not met

  External payment failures are NOT errors: they become a recorded `failed`
  period status so an operator can remediate, never an auto-retry.

USAGE:
  if errors.Is(err, payroll.ErrInvalidTransition) {
      // 409 for the API layer
  }
  var verr *payroll.ValidationError
  if errors.As(err, &verr) {
      fmt.Println(verr.Field, verr.Reason)
  }
*/
package payroll

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for malformed input: bad dates, non-positive
	// amounts, duplicate ids, overlapping windows. Rejected before any
	// mutation; no partial state change.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition is returned for an illegal state-machine edge.
	// State is unchanged.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrConfiguration is returned when no rate is configured and no minimum
	// is defined for a category.
	ErrConfiguration = errors.New("configuration missing")

	// ErrIneligible is returned when a placement advance is requested while
	// the eligibility precondition does not hold.
	ErrIneligible = errors.New("placement eligibility not met")

	// ErrInsufficientData is the hard-check companion to the analytics
	// low-confidence flag: projection windows shorter than one week cannot
	// support an annualized figure.
	ErrInsufficientData = errors.New("insufficient data for projection")

	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateID is returned when creating a record whose id exists.
	ErrDuplicateID = errors.New("duplicate id")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes a rejected input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InvalidTransitionError describes a rejected state-machine edge.
type InvalidTransitionError struct {
	Entity string // "shift", "bonus", "pay_period", "placement"
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition: %s -> %s", e.Entity, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// ConfigurationError describes a missing rate/category mapping.
type ConfigurationError struct {
	Category RoleCategory
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("no rate configured and no minimum defined for category %q", e.Category)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// IneligibleError describes a failed placement precondition.
type IneligibleError struct {
	ContractorID     ContractorID
	Target           PlacementStatus
	TotalAssignments int
	UniqueSchools    int
	PositiveFeedback int
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("contractor %s not eligible for %s: assignments=%d schools=%d feedback=%d",
		e.ContractorID, e.Target, e.TotalAssignments, e.UniqueSchools, e.PositiveFeedback)
}

func (e *IneligibleError) Unwrap() error { return ErrIneligible }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrIneligible) ||
		errors.Is(err, ErrDuplicateID)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
