/*
handlers_test.go - HTTP-level tests for the payroll API

Tests for:
- Shift scheduling and lifecycle over HTTP
- Pay period settlement driven end to end through the router
- Domain-error to status-code mapping
- Rate and holiday configuration endpoints
*/
package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staffly/payroll-engine/api"
	"github.com/staffly/payroll-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	handler := api.NewHandler(memory.New())
	server := httptest.NewServer(api.NewRouter(handler))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func createShift(t *testing.T, base, id, contractor, date string) {
	t.Helper()
	resp, _ := doJSON(t, http.MethodPost, base+"/api/shifts", map[string]any{
		"id":            id,
		"contractor_id": contractor,
		"role":          "substitute_teacher",
		"date":          date,
		"start":         date + "T08:00:00Z",
		"end":           date + "T18:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func transitionShift(t *testing.T, base, id, status string) {
	t.Helper()
	resp, _ := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/shifts/%s/transition", base, id), map[string]any{
		"status": status,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

// =============================================================================
// SHIFT ENDPOINT TESTS
// =============================================================================

func TestAPI_CreateShift_InvalidDate_400(t *testing.T) {
	// GIVEN: A create request with a malformed date
	// WHEN: Posting it
	// THEN: 400 with an error body

	server := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/shifts", map[string]any{
		"id":            "shift-1",
		"contractor_id": "con-1",
		"role":          "bus_aide",
		"date":          "March 10th",
		"start":         "2026-03-10T08:00:00Z",
		"end":           "2026-03-10T16:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body["error"])
}

func TestAPI_TransitionShift_IllegalEdge_409(t *testing.T) {
	// GIVEN: A scheduled shift
	// WHEN: Jumping straight to completed
	// THEN: 409 with the invalid_transition code

	server := newTestServer(t)
	createShift(t, server.URL, "shift-1", "con-1", "2026-03-10")

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/shifts/shift-1/transition", map[string]any{
		"status": "completed",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "invalid_transition", body["code"])
}

func TestAPI_TransitionShift_Unknown_404(t *testing.T) {
	// GIVEN: No such shift
	// WHEN: Transitioning it
	// THEN: 404

	server := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/shifts/ghost/transition", map[string]any{
		"status": "in_progress",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body["code"])
}

// =============================================================================
// SETTLEMENT FLOW TESTS
// =============================================================================

func TestAPI_SettlementFlow_EndToEnd(t *testing.T) {
	// GIVEN: A completed 10h substitute shift at the 22.00 minimum
	// WHEN: Opening, advancing, and confirming a period through the API
	// THEN: The period pays 242.00 and lands in paid

	server := newTestServer(t)

	createShift(t, server.URL, "shift-1", "con-1", "2026-03-10")
	transitionShift(t, server.URL, "shift-1", "in_progress")
	transitionShift(t, server.URL, "shift-1", "completed")

	resp, period := doJSON(t, http.MethodPost, server.URL+"/api/periods", map[string]any{
		"contractor_id": "con-1",
		"start":         "2026-03-01",
		"end":           "2026-03-15",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	periodID := period["id"].(string)
	assert.Equal(t, "pending", period["status"])

	resp, advanced := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/periods/%s/advance", server.URL, periodID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "processing", advanced["status"])
	assert.Equal(t, "242.00", advanced["total"])

	resp, paid := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/payments/%s/confirmed", server.URL, periodID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "paid", paid["status"])

	// The settled shift now carries the paying period id.
	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/contractors/con-1/shifts?from=2026-03-01&to=2026-03-15", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_PaymentFailed_RecordsReason(t *testing.T) {
	// GIVEN: A processing period
	// WHEN: The provider posts a failure callback
	// THEN: 200 with status failed and the reason echoed

	server := newTestServer(t)

	resp, period := doJSON(t, http.MethodPost, server.URL+"/api/periods", map[string]any{
		"contractor_id": "con-1",
		"start":         "2026-03-01",
		"end":           "2026-03-15",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	periodID := period["id"].(string)

	resp, _ = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/periods/%s/advance", server.URL, periodID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, failed := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/payments/%s/failed", server.URL, periodID), map[string]any{
		"reason": "insufficient funds",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "failed", failed["status"])
	assert.Equal(t, "insufficient funds", failed["failure_reason"])
}

func TestAPI_OpenPeriod_Overlap_400(t *testing.T) {
	// GIVEN: An existing period Mar 1-15
	// WHEN: Opening an overlapping period for the same contractor
	// THEN: 400 with the validation code

	server := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/periods", map[string]any{
		"contractor_id": "con-1",
		"start":         "2026-03-01",
		"end":           "2026-03-15",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/periods", map[string]any{
		"contractor_id": "con-1",
		"start":         "2026-03-10",
		"end":           "2026-03-20",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", body["code"])
}

// =============================================================================
// PLACEMENT ENDPOINT TESTS
// =============================================================================

func TestAPI_Placement_AdvanceIneligible_409(t *testing.T) {
	// GIVEN: A contractor moved into consideration with empty counters
	// WHEN: Advancing again
	// THEN: 409 with the ineligible code

	server := newTestServer(t)

	resp, progress := doJSON(t, http.MethodPost, server.URL+"/api/contractors/con-1/placement/advance", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "in_consideration", progress["status"])

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/contractors/con-1/placement/advance", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ineligible", body["code"])
}

func TestAPI_Placement_ScoreExposed(t *testing.T) {
	// GIVEN: Two assignments at distinct schools and one positive feedback
	// WHEN: Reading placement progress
	// THEN: score = 2x2 + 5x2 + 3x1 = 17, not eligible

	server := newTestServer(t)

	for _, school := range []string{"school-1", "school-2"} {
		resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/contractors/con-1/placement/assignments", map[string]any{
			"school_id": school,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/contractors/con-1/placement/feedback", map[string]any{
		"positive": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, progress := doJSON(t, http.MethodGet, server.URL+"/api/contractors/con-1/placement", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(17), progress["score"])
	assert.Equal(t, false, progress["eligible"])
}

// =============================================================================
// RATE AND HOLIDAY ENDPOINT TESTS
// =============================================================================

func TestAPI_SetRate_BelowMinimum_400(t *testing.T) {
	// GIVEN: A rate below the clinical-staff minimum of 28.00
	// WHEN: Configuring it
	// THEN: 400 with the validation code

	server := newTestServer(t)

	resp, body := doJSON(t, http.MethodPut, server.URL+"/api/rates/clinical_staff", map[string]any{
		"role":             "clinical_staff",
		"base_hourly_rate": "25.00",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", body["code"])
}

func TestAPI_ListRates_CoversAllRoles(t *testing.T) {
	// GIVEN: A fresh server with no configured rates
	// WHEN: Listing rates
	// THEN: Six entries, each carrying its category minimum

	server := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/rates", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rates []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rates))
	assert.Len(t, rates, 6)
}

func TestAPI_Holidays_CreateAndDelete(t *testing.T) {
	// GIVEN: A created holiday
	// WHEN: Deleting it
	// THEN: Both calls succeed

	server := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/holidays", map[string]any{
		"id":        "hol-1",
		"date":      "2026-07-04",
		"name":      "Independence Day",
		"recurring": true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, server.URL+"/api/holidays/hol-1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// =============================================================================
// ANALYTICS ENDPOINT TESTS
// =============================================================================

func TestAPI_Analytics_ShortWindow_LowConfidence(t *testing.T) {
	// GIVEN: A five-day window
	// WHEN: Requesting analytics
	// THEN: 200 with low_confidence set and a zero projection

	server := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/contractors/con-1/analytics?from=2026-03-01&to=2026-03-06", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["low_confidence"])
	assert.Equal(t, "0.00", body["projected_annual"])
}
