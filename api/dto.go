/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Shifts:
    ShiftDTO, CreateShiftRequest, TransitionShiftRequest

  Bonuses:
    BonusDTO, CreateBonusRequest

  Pay periods:
    PayPeriodDTO, OpenPeriodRequest, PaymentFailureRequest

  Placement:
    PlacementDTO, AssignmentRequest, FeedbackRequest

  Rates:
    RateDTO, SetRateRequest

  Holidays:
    HolidayDTO, CreateHolidayRequest

  Analytics:
    AnalyticsDTO

MONEY ENCODING:
  Monetary amounts and hour counts cross the wire as decimal strings
  ("242.00"), never as floats. Clients parse them with their own decimal
  library. Amounts in responses are rounded to the currency minor unit.

VALIDATION:
  Validation is done in the domain layer, not in DTOs. DTOs are pure data
  carriers; handlers only parse formats (dates, decimals).

SEE ALSO:
  - handlers.go: Uses these types
  - payroll/types.go: Domain types these mirror
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/staffly/payroll-engine/payroll"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ShiftDTO represents a work shift in API responses.
type ShiftDTO struct {
	ID           string `json:"id"`
	ContractorID string `json:"contractor_id"`
	Role         string `json:"role"`
	Date         string `json:"date"`
	Start        string `json:"start"`
	End          string `json:"end"`
	Status       string `json:"status"`
	Notes        string `json:"notes,omitempty"`
	PaidPeriodID string `json:"paid_period_id,omitempty"`
}

// CreateShiftRequest is the request to schedule a shift.
type CreateShiftRequest struct {
	ID           string `json:"id"`
	ContractorID string `json:"contractor_id"`
	Role         string `json:"role"`
	Date         string `json:"date"`  // YYYY-MM-DD
	Start        string `json:"start"` // RFC3339
	End          string `json:"end"`   // RFC3339
	Notes        string `json:"notes,omitempty"`
}

// TransitionShiftRequest moves a shift along its lifecycle.
type TransitionShiftRequest struct {
	Status string `json:"status"`
}

// BonusDTO represents a bonus in API responses.
type BonusDTO struct {
	ID           string `json:"id"`
	ContractorID string `json:"contractor_id"`
	Type         string `json:"type"`
	Amount       string `json:"amount"`
	DateEarned   string `json:"date_earned"`
	Status       string `json:"status"`
	PaidPeriodID string `json:"paid_period_id,omitempty"`
}

// CreateBonusRequest is the request to record an earned bonus.
type CreateBonusRequest struct {
	ID           string `json:"id"`
	ContractorID string `json:"contractor_id"`
	Type         string `json:"type"`
	Amount       string `json:"amount"`
	DateEarned   string `json:"date_earned"` // YYYY-MM-DD
}

// PayPeriodDTO represents a pay period in API responses.
type PayPeriodDTO struct {
	ID            string   `json:"id"`
	ContractorID  string   `json:"contractor_id"`
	Start         string   `json:"start"`
	End           string   `json:"end"`
	Status        string   `json:"status"`
	ShiftIDs      []string `json:"shift_ids"`
	BonusIDs      []string `json:"bonus_ids"`
	Total         string   `json:"total"`
	FailureReason string   `json:"failure_reason,omitempty"`
}

// OpenPeriodRequest is the request to open a pay period.
type OpenPeriodRequest struct {
	ContractorID string `json:"contractor_id"`
	Start        string `json:"start"` // YYYY-MM-DD, inclusive
	End          string `json:"end"`   // YYYY-MM-DD, exclusive
}

// PaymentFailureRequest carries the provider's failure reason.
type PaymentFailureRequest struct {
	Reason string `json:"reason"`
}

// PlacementDTO represents placement progress in API responses.
type PlacementDTO struct {
	ID               string   `json:"id"`
	ContractorID     string   `json:"contractor_id"`
	StartDate        string   `json:"start_date"`
	TotalAssignments int      `json:"total_assignments"`
	Schools          []string `json:"schools"`
	PositiveFeedback int      `json:"positive_feedback"`
	Status           string   `json:"status"`
	Score            int      `json:"score"`
	Eligible         bool     `json:"eligible"`
}

// AssignmentRequest records a completed assignment at a school.
type AssignmentRequest struct {
	SchoolID string `json:"school_id"`
}

// FeedbackRequest records supervisor feedback.
type FeedbackRequest struct {
	Positive bool `json:"positive"`
}

// RateDTO represents a configured pay rate.
type RateDTO struct {
	Role               string `json:"role"`
	BaseHourlyRate     string `json:"base_hourly_rate"`
	OvertimeMultiplier string `json:"overtime_multiplier"`
	HolidayMultiplier  string `json:"holiday_multiplier"`
	MinimumHourlyRate  string `json:"minimum_hourly_rate"`
}

// SetRateRequest configures the rate for a role category.
type SetRateRequest struct {
	Role               string `json:"role"`
	BaseHourlyRate     string `json:"base_hourly_rate"`
	OvertimeMultiplier string `json:"overtime_multiplier,omitempty"`
	HolidayMultiplier  string `json:"holiday_multiplier,omitempty"`
}

// HolidayDTO represents a recognized holiday.
type HolidayDTO struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	Recurring bool   `json:"recurring"`
}

// CreateHolidayRequest is the request to add a holiday.
type CreateHolidayRequest struct {
	ID        string `json:"id"`
	Date      string `json:"date"` // YYYY-MM-DD
	Name      string `json:"name"`
	Recurring bool   `json:"recurring"`
}

// AnalyticsDTO is the payment analytics projection for a window.
type AnalyticsDTO struct {
	ContractorID         string `json:"contractor_id"`
	From                 string `json:"from"`
	To                   string `json:"to"`
	TotalEarnings        string `json:"total_earnings"`
	RegularHours         string `json:"regular_hours"`
	OvertimeHours        string `json:"overtime_hours"`
	BonusEarnings        string `json:"bonus_earnings"`
	AverageHourlyRate    string `json:"average_hourly_rate"`
	AssignmentsCompleted int    `json:"assignments_completed"`
	ProjectedAnnual      string `json:"projected_annual"`
	LowConfidence        bool   `json:"low_confidence"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func money(d decimal.Decimal) string {
	return payroll.RoundCurrency(d).StringFixed(2)
}

func toShiftDTO(s payroll.WorkShift) ShiftDTO {
	return ShiftDTO{
		ID:           string(s.ID),
		ContractorID: string(s.ContractorID),
		Role:         string(s.Role),
		Date:         s.Date.String(),
		Start:        s.Start.Format(time.RFC3339),
		End:          s.End.Format(time.RFC3339),
		Status:       string(s.Status),
		Notes:        s.Notes,
		PaidPeriodID: string(s.PaidPeriodID),
	}
}

func toShiftDTOs(shifts []payroll.WorkShift) []ShiftDTO {
	dtos := make([]ShiftDTO, len(shifts))
	for i, s := range shifts {
		dtos[i] = toShiftDTO(s)
	}
	return dtos
}

func toBonusDTO(b payroll.Bonus) BonusDTO {
	return BonusDTO{
		ID:           string(b.ID),
		ContractorID: string(b.ContractorID),
		Type:         string(b.Type),
		Amount:       money(b.Amount),
		DateEarned:   b.DateEarned.String(),
		Status:       string(b.Status),
		PaidPeriodID: string(b.PaidPeriodID),
	}
}

func toBonusDTOs(bonuses []payroll.Bonus) []BonusDTO {
	dtos := make([]BonusDTO, len(bonuses))
	for i, b := range bonuses {
		dtos[i] = toBonusDTO(b)
	}
	return dtos
}

func toPeriodDTO(p payroll.PayPeriod) PayPeriodDTO {
	shiftIDs := make([]string, len(p.ShiftIDs))
	for i, id := range p.ShiftIDs {
		shiftIDs[i] = string(id)
	}
	bonusIDs := make([]string, len(p.BonusIDs))
	for i, id := range p.BonusIDs {
		bonusIDs[i] = string(id)
	}
	return PayPeriodDTO{
		ID:            string(p.ID),
		ContractorID:  string(p.ContractorID),
		Start:         p.Start.String(),
		End:           p.End.String(),
		Status:        string(p.Status),
		ShiftIDs:      shiftIDs,
		BonusIDs:      bonusIDs,
		Total:         money(p.Total),
		FailureReason: p.FailureReason,
	}
}

func toPlacementDTO(p payroll.PlacementProgress) PlacementDTO {
	schools := make([]string, 0, len(p.Schools))
	for s := range p.Schools {
		schools = append(schools, s)
	}
	return PlacementDTO{
		ID:               p.ID,
		ContractorID:     string(p.ContractorID),
		StartDate:        p.StartDate.String(),
		TotalAssignments: p.TotalAssignments,
		Schools:          schools,
		PositiveFeedback: p.PositiveFeedback,
		Status:           string(p.Status),
		Score:            payroll.Score(p),
		Eligible:         payroll.IsEligible(p),
	}
}

func toAnalyticsDTO(a payroll.PaymentAnalytics) AnalyticsDTO {
	return AnalyticsDTO{
		ContractorID:         string(a.ContractorID),
		From:                 a.Period.Start.String(),
		To:                   a.Period.End.String(),
		TotalEarnings:        money(a.TotalEarnings),
		RegularHours:         a.RegularHours.String(),
		OvertimeHours:        a.OvertimeHours.String(),
		BonusEarnings:        money(a.BonusEarnings),
		AverageHourlyRate:    money(a.AverageHourlyRate),
		AssignmentsCompleted: a.AssignmentsCompleted,
		ProjectedAnnual:      money(a.ProjectedAnnual),
		LowConfidence:        a.LowConfidence,
	}
}

func toHolidayDTO(h payroll.Holiday) HolidayDTO {
	return HolidayDTO{
		ID:        h.ID,
		Date:      h.Date.String(),
		Name:      h.Name,
		Recurring: h.Recurring,
	}
}
