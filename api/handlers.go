/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes the payroll and placement engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Shifts:
    POST   /api/shifts                          Schedule a shift
    POST   /api/shifts/{id}/transition          Move a shift along its lifecycle
    GET    /api/contractors/{id}/shifts         List shifts in a window

  Bonuses:
    POST   /api/bonuses                         Record an earned bonus
    POST   /api/bonuses/{id}/settle             Advance bonus settlement one step
    GET    /api/contractors/{id}/bonuses        List bonuses in a window

  Pay periods:
    POST   /api/periods                         Open a pay period
    GET    /api/periods/{id}                    Get a pay period
    POST   /api/periods/{id}/advance            pending/failed -> processing
    POST   /api/periods/{id}/abort              Abort a pending period
    GET    /api/contractors/{id}/periods        List a contractor's periods

  Payment provider callbacks:
    POST   /api/payments/{id}/confirmed         processing -> paid
    POST   /api/payments/{id}/failed            pending/processing -> failed

  Placement:
    GET    /api/contractors/{id}/placement            Progress + score
    POST   /api/contractors/{id}/placement/assignments Record assignment
    POST   /api/contractors/{id}/placement/feedback    Record feedback
    POST   /api/contractors/{id}/placement/advance     Advance one step
    POST   /api/contractors/{id}/placement/decline     Decline (terminal)

  Analytics:
    GET    /api/contractors/{id}/analytics      Earnings projection for a window

  Rates:
    GET    /api/rates                           Effective rate per role
    PUT    /api/rates/{role}                    Configure a role's rate

  Holidays:
    GET    /api/holidays                        List recognized holidays
    POST   /api/holidays                        Add a holiday
    DELETE /api/holidays/{id}                   Remove a holiday

REQUEST FLOW:
  1. Parse HTTP request
  2. Parse formats (dates, decimals)
  3. Call domain logic (ledgers, engines, tracker)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Domain errors map to HTTP status by sentinel:
  - 400: validation, configuration errors, malformed input
  - 404: not found
  - 409: invalid transition, ineligible, duplicate id
  - 500: everything else

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.
  Payment callbacks must sit behind provider signature verification before
  production use.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/staffly/payroll-engine/payroll"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      payroll.Store
	Rates      *payroll.RateTable
	Shifts     *payroll.ShiftLedger
	Bonuses    *payroll.BonusLedger
	Periods    *payroll.PayPeriodEngine
	Placements *payroll.PlacementTracker
	Analytics  *payroll.AnalyticsProjector
}

// NewHandler wires the full engine stack on top of the given store with the
// per-shift overtime baseline.
func NewHandler(store payroll.Store) *Handler {
	return NewHandlerWithStrategy(store, payroll.OvertimePerShift)
}

// NewHandlerWithStrategy wires the engine stack with an explicit overtime
// attribution strategy.
func NewHandlerWithStrategy(store payroll.Store, strategy payroll.OvertimeStrategy) *Handler {
	locks := payroll.NewContractorLocks()
	rates := payroll.NewRateTable()
	calendar := payroll.StoreCalendar{Store: store}
	shifts := payroll.NewShiftLedger(store, locks, strategy, calendar)
	return &Handler{
		Store:      store,
		Rates:      rates,
		Shifts:     shifts,
		Bonuses:    payroll.NewBonusLedger(store, locks),
		Periods:    payroll.NewPayPeriodEngine(store, shifts, rates, locks),
		Placements: payroll.NewPlacementTracker(store, locks),
		Analytics:  payroll.NewAnalyticsProjector(store, shifts, rates, locks),
	}
}

// =============================================================================
// SHIFT HANDLERS
// =============================================================================

// CreateShift schedules a new shift.
func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req CreateShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	start, err := parseClock(req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start format (use RFC3339)", err)
		return
	}
	end, err := parseClock(req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end format (use RFC3339)", err)
		return
	}

	shift := payroll.WorkShift{
		ID:           payroll.ShiftID(req.ID),
		ContractorID: payroll.ContractorID(req.ContractorID),
		Role:         payroll.RoleCategory(req.Role),
		Date:         date,
		Start:        start,
		End:          end,
		Status:       payroll.ShiftScheduled,
		Notes:        req.Notes,
	}

	if err := h.Shifts.AddShift(r.Context(), shift); err != nil {
		writeDomainError(w, "Failed to create shift", err)
		return
	}

	writeJSON(w, http.StatusCreated, toShiftDTO(shift))
}

// TransitionShift moves a shift to a new lifecycle status.
func (h *Handler) TransitionShift(w http.ResponseWriter, r *http.Request) {
	id := payroll.ShiftID(chi.URLParam(r, "id"))

	var req TransitionShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	shift, err := h.Shifts.Transition(r.Context(), id, payroll.ShiftStatus(req.Status))
	if err != nil {
		writeDomainError(w, "Failed to transition shift", err)
		return
	}

	writeJSON(w, http.StatusOK, toShiftDTO(shift))
}

// ListShifts returns a contractor's shifts in the [from, to) window.
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	contractorID := payroll.ContractorID(chi.URLParam(r, "id"))

	window, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid window (use from/to as YYYY-MM-DD)", err)
		return
	}

	shifts, err := h.Shifts.Shifts(r.Context(), contractorID, window)
	if err != nil {
		writeDomainError(w, "Failed to list shifts", err)
		return
	}

	writeJSON(w, http.StatusOK, toShiftDTOs(shifts))
}

// =============================================================================
// BONUS HANDLERS
// =============================================================================

// CreateBonus records an earned bonus.
func (h *Handler) CreateBonus(w http.ResponseWriter, r *http.Request) {
	var req CreateBonusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount (use a decimal string)", err)
		return
	}
	earned, err := parseDate(req.DateEarned)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date_earned format (use YYYY-MM-DD)", err)
		return
	}

	bonus := payroll.Bonus{
		ID:           payroll.BonusID(req.ID),
		ContractorID: payroll.ContractorID(req.ContractorID),
		Type:         payroll.BonusType(req.Type),
		Amount:       amount,
		DateEarned:   earned,
		Status:       payroll.BonusEarned,
	}

	if err := h.Bonuses.AddBonus(r.Context(), bonus); err != nil {
		writeDomainError(w, "Failed to create bonus", err)
		return
	}

	writeJSON(w, http.StatusCreated, toBonusDTO(bonus))
}

// SettleBonus advances a bonus one settlement step.
func (h *Handler) SettleBonus(w http.ResponseWriter, r *http.Request) {
	id := payroll.BonusID(chi.URLParam(r, "id"))

	bonus, err := h.Bonuses.Settle(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to settle bonus", err)
		return
	}

	writeJSON(w, http.StatusOK, toBonusDTO(bonus))
}

// ListBonuses returns a contractor's bonuses in the [from, to) window.
func (h *Handler) ListBonuses(w http.ResponseWriter, r *http.Request) {
	contractorID := payroll.ContractorID(chi.URLParam(r, "id"))

	window, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid window (use from/to as YYYY-MM-DD)", err)
		return
	}

	bonuses, err := h.Bonuses.Bonuses(r.Context(), contractorID, window)
	if err != nil {
		writeDomainError(w, "Failed to list bonuses", err)
		return
	}

	writeJSON(w, http.StatusOK, toBonusDTOs(bonuses))
}

// =============================================================================
// PAY PERIOD HANDLERS
// =============================================================================

// OpenPeriod opens a new pending pay period.
func (h *Handler) OpenPeriod(w http.ResponseWriter, r *http.Request) {
	var req OpenPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := parseDate(req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start format (use YYYY-MM-DD)", err)
		return
	}
	end, err := parseDate(req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end format (use YYYY-MM-DD)", err)
		return
	}

	period, err := h.Periods.Open(r.Context(), payroll.ContractorID(req.ContractorID), start, end)
	if err != nil {
		writeDomainError(w, "Failed to open pay period", err)
		return
	}

	writeJSON(w, http.StatusCreated, toPeriodDTO(period))
}

// GetPeriod returns a single pay period.
func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	id := payroll.PeriodID(chi.URLParam(r, "id"))

	period, err := h.Periods.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get pay period", err)
		return
	}

	writeJSON(w, http.StatusOK, toPeriodDTO(period))
}

// AdvancePeriod moves a pending or failed period into processing.
func (h *Handler) AdvancePeriod(w http.ResponseWriter, r *http.Request) {
	id := payroll.PeriodID(chi.URLParam(r, "id"))

	period, err := h.Periods.Advance(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to advance pay period", err)
		return
	}

	writeJSON(w, http.StatusOK, toPeriodDTO(period))
}

// AbortPeriod aborts a pending period.
func (h *Handler) AbortPeriod(w http.ResponseWriter, r *http.Request) {
	id := payroll.PeriodID(chi.URLParam(r, "id"))

	period, err := h.Periods.Abort(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to abort pay period", err)
		return
	}

	writeJSON(w, http.StatusOK, toPeriodDTO(period))
}

// ListPeriods returns all of a contractor's pay periods.
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	contractorID := payroll.ContractorID(chi.URLParam(r, "id"))

	periods, err := h.Periods.Periods(r.Context(), contractorID)
	if err != nil {
		writeDomainError(w, "Failed to list pay periods", err)
		return
	}

	dtos := make([]PayPeriodDTO, len(periods))
	for i, p := range periods {
		dtos[i] = toPeriodDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// PAYMENT PROVIDER CALLBACKS
// =============================================================================

// PaymentConfirmed is the provider callback for a successful payment.
func (h *Handler) PaymentConfirmed(w http.ResponseWriter, r *http.Request) {
	id := payroll.PeriodID(chi.URLParam(r, "id"))

	period, err := h.Periods.OnPaymentConfirmed(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to confirm payment", err)
		return
	}

	writeJSON(w, http.StatusOK, toPeriodDTO(period))
}

// PaymentFailed is the provider callback for a failed payment.
func (h *Handler) PaymentFailed(w http.ResponseWriter, r *http.Request) {
	id := payroll.PeriodID(chi.URLParam(r, "id"))

	var req PaymentFailureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	period, err := h.Periods.OnPaymentFailed(r.Context(), id, req.Reason)
	if err != nil {
		writeDomainError(w, "Failed to record payment failure", err)
		return
	}

	writeJSON(w, http.StatusOK, toPeriodDTO(period))
}

// =============================================================================
// PLACEMENT HANDLERS
// =============================================================================

// GetPlacement returns a contractor's placement progress with derived
// score and eligibility.
func (h *Handler) GetPlacement(w http.ResponseWriter, r *http.Request) {
	contractorID := payroll.ContractorID(chi.URLParam(r, "id"))

	progress, err := h.Placements.Progress(r.Context(), contractorID)
	if err != nil {
		writeDomainError(w, "Failed to get placement progress", err)
		return
	}

	writeJSON(w, http.StatusOK, toPlacementDTO(progress))
}

// RecordAssignment records a completed assignment at a school.
func (h *Handler) RecordAssignment(w http.ResponseWriter, r *http.Request) {
	contractorID := payroll.ContractorID(chi.URLParam(r, "id"))

	var req AssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	progress, err := h.Placements.RecordAssignment(r.Context(), contractorID, req.SchoolID)
	if err != nil {
		writeDomainError(w, "Failed to record assignment", err)
		return
	}

	writeJSON(w, http.StatusOK, toPlacementDTO(progress))
}

// RecordFeedback records supervisor feedback.
func (h *Handler) RecordFeedback(w http.ResponseWriter, r *http.Request) {
	contractorID := payroll.ContractorID(chi.URLParam(r, "id"))

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	progress, err := h.Placements.RecordFeedback(r.Context(), contractorID, req.Positive)
	if err != nil {
		writeDomainError(w, "Failed to record feedback", err)
		return
	}

	writeJSON(w, http.StatusOK, toPlacementDTO(progress))
}

// AdvancePlacement moves placement one step along the ladder.
func (h *Handler) AdvancePlacement(w http.ResponseWriter, r *http.Request) {
	contractorID := payroll.ContractorID(chi.URLParam(r, "id"))

	progress, err := h.Placements.Advance(r.Context(), contractorID)
	if err != nil {
		writeDomainError(w, "Failed to advance placement", err)
		return
	}

	writeJSON(w, http.StatusOK, toPlacementDTO(progress))
}

// DeclinePlacement records a permanent decline.
func (h *Handler) DeclinePlacement(w http.ResponseWriter, r *http.Request) {
	contractorID := payroll.ContractorID(chi.URLParam(r, "id"))

	progress, err := h.Placements.Decline(r.Context(), contractorID)
	if err != nil {
		writeDomainError(w, "Failed to decline placement", err)
		return
	}

	writeJSON(w, http.StatusOK, toPlacementDTO(progress))
}

// =============================================================================
// ANALYTICS HANDLERS
// =============================================================================

// GetAnalytics returns the earnings projection for a window.
func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	contractorID := payroll.ContractorID(chi.URLParam(r, "id"))

	window, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid window (use from/to as YYYY-MM-DD)", err)
		return
	}

	analytics, err := h.Analytics.Project(r.Context(), contractorID, window)
	if err != nil {
		writeDomainError(w, "Failed to project analytics", err)
		return
	}

	writeJSON(w, http.StatusOK, toAnalyticsDTO(analytics))
}

// =============================================================================
// RATE HANDLERS
// =============================================================================

// ListRates returns the effective rate for every role category.
func (h *Handler) ListRates(w http.ResponseWriter, r *http.Request) {
	roles := payroll.AllRoles()
	dtos := make([]RateDTO, 0, len(roles))
	for _, role := range roles {
		rate, err := h.Rates.RateFor(role)
		if err != nil {
			writeDomainError(w, "Failed to resolve rate", err)
			return
		}
		minimum, err := h.Rates.MinimumFor(role)
		if err != nil {
			writeDomainError(w, "Failed to resolve minimum rate", err)
			return
		}
		dtos = append(dtos, RateDTO{
			Role:               string(role),
			BaseHourlyRate:     money(rate.BaseHourlyRate),
			OvertimeMultiplier: rate.OvertimeMultiplier.String(),
			HolidayMultiplier:  rate.HolidayMultiplier.String(),
			MinimumHourlyRate:  money(minimum),
		})
	}
	sort.Slice(dtos, func(i, j int) bool { return dtos[i].Role < dtos[j].Role })
	writeJSON(w, http.StatusOK, dtos)
}

// SetRate configures the rate for a role category.
func (h *Handler) SetRate(w http.ResponseWriter, r *http.Request) {
	role := payroll.RoleCategory(chi.URLParam(r, "role"))

	var req SetRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	base, err := decimal.NewFromString(req.BaseHourlyRate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid base_hourly_rate (use a decimal string)", err)
		return
	}

	rate := payroll.PayRate{
		Role:               role,
		BaseHourlyRate:     base,
		OvertimeMultiplier: payroll.DefaultOvertimeMultiplier,
		HolidayMultiplier:  payroll.DefaultHolidayMultiplier,
	}
	if req.OvertimeMultiplier != "" {
		if rate.OvertimeMultiplier, err = decimal.NewFromString(req.OvertimeMultiplier); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid overtime_multiplier", err)
			return
		}
	}
	if req.HolidayMultiplier != "" {
		if rate.HolidayMultiplier, err = decimal.NewFromString(req.HolidayMultiplier); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid holiday_multiplier", err)
			return
		}
	}

	if err := h.Rates.SetRate(rate); err != nil {
		writeDomainError(w, "Failed to set rate", err)
		return
	}

	minimum, err := h.Rates.MinimumFor(role)
	if err != nil {
		writeDomainError(w, "Failed to resolve minimum rate", err)
		return
	}

	writeJSON(w, http.StatusOK, RateDTO{
		Role:               string(role),
		BaseHourlyRate:     money(rate.BaseHourlyRate),
		OvertimeMultiplier: rate.OvertimeMultiplier.String(),
		HolidayMultiplier:  rate.HolidayMultiplier.String(),
		MinimumHourlyRate:  money(minimum),
	})
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns all recognized holidays.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.Holidays(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}

	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = toHolidayDTO(hol)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday adds a recognized holiday.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	holiday := payroll.Holiday{
		ID:        req.ID,
		Date:      date,
		Name:      req.Name,
		Recurring: req.Recurring,
	}

	if err := h.Store.SaveHoliday(r.Context(), holiday); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create holiday", err)
		return
	}

	writeJSON(w, http.StatusCreated, toHolidayDTO(holiday))
}

// DeleteHoliday removes a recognized holiday.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeleteHoliday(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete holiday", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// =============================================================================
// HELPERS
// =============================================================================

func parseDate(s string) (payroll.TimePoint, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return payroll.TimePoint{}, err
	}
	return payroll.DateOf(t), nil
}

func parseClock(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func parseWindow(r *http.Request) (payroll.Period, error) {
	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		return payroll.Period{}, err
	}
	to, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		return payroll.Period{}, err
	}
	return payroll.Period{Start: from, End: to}, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps sentinel errors from the domain layer onto HTTP
// status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	code := ""
	switch {
	case payroll.IsNotFound(err):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, payroll.ErrInvalidTransition):
		status, code = http.StatusConflict, "invalid_transition"
	case errors.Is(err, payroll.ErrIneligible):
		status, code = http.StatusConflict, "ineligible"
	case errors.Is(err, payroll.ErrDuplicateID):
		status, code = http.StatusConflict, "duplicate_id"
	case errors.Is(err, payroll.ErrValidation):
		status, code = http.StatusBadRequest, "validation"
	case errors.Is(err, payroll.ErrConfiguration):
		status, code = http.StatusBadRequest, "configuration"
	}
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
