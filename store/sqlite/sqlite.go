/*
Package sqlite provides a SQLite-backed implementation of payroll.Store.

PURPOSE:
  Implements the full persistence surface (shifts, bonuses, pay periods,
  placement progress, holidays) using SQLite. In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

MONETARY VALUES:
  Stored as TEXT in decimal string form, never as REAL. Exactness survives
  the round trip; arithmetic only ever happens in the engine on
  decimal.Decimal values.

KEY TABLES:
  shifts:             WorkShift records with settlement stamp
  bonuses:            Bonus records with settlement status
  pay_periods:        Periods with JSON member-reference lists
  placement_progress: Per-contractor counters, schools as a JSON set
  holidays:           Recognized holiday dates

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block, single writer at a time.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - payroll/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/staffly/payroll-engine/payroll"
)

// Store implements payroll.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ payroll.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Worked shifts
	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		contractor_id TEXT NOT NULL,
		role TEXT NOT NULL,
		shift_date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		status TEXT NOT NULL,
		notes TEXT,
		paid_period_id TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Hot path: pay-period membership scans by contractor and date
	CREATE INDEX IF NOT EXISTS idx_shifts_contractor_date
		ON shifts(contractor_id, shift_date);
	CREATE INDEX IF NOT EXISTS idx_shifts_status
		ON shifts(status);

	-- Earned bonuses
	CREATE TABLE IF NOT EXISTS bonuses (
		id TEXT PRIMARY KEY,
		contractor_id TEXT NOT NULL,
		bonus_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		date_earned TEXT NOT NULL,
		status TEXT NOT NULL,
		paid_period_id TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bonuses_contractor_date
		ON bonuses(contractor_id, date_earned);

	-- Pay periods with JSON member-reference lists
	CREATE TABLE IF NOT EXISTS pay_periods (
		id TEXT PRIMARY KEY,
		contractor_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL,
		shift_ids_json TEXT NOT NULL DEFAULT '[]',
		bonus_ids_json TEXT NOT NULL DEFAULT '[]',
		total TEXT NOT NULL DEFAULT '0',
		failure_reason TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pay_periods_contractor
		ON pay_periods(contractor_id);
	CREATE INDEX IF NOT EXISTS idx_pay_periods_status
		ON pay_periods(status);

	-- Placement progress, one row per contractor
	CREATE TABLE IF NOT EXISTS placement_progress (
		id TEXT PRIMARY KEY,
		contractor_id TEXT NOT NULL UNIQUE,
		start_date TEXT NOT NULL,
		total_assignments INTEGER NOT NULL DEFAULT 0,
		schools_json TEXT NOT NULL DEFAULT '[]',
		positive_feedback INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Recognized holidays
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		holiday_date TEXT NOT NULL,
		name TEXT NOT NULL,
		recurring BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_holidays_unique
		ON holidays(holiday_date, name);
	`

	_, err := s.db.Exec(schema)
	return err
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func formatDate(tp payroll.TimePoint) string {
	return tp.String() // 2006-01-02
}

func parseDate(s string) payroll.TimePoint {
	t, _ := time.Parse("2006-01-02", s)
	return payroll.DateOf(t)
}

// =============================================================================
// SHIFTS (payroll.ShiftStore interface)
// =============================================================================

func (s *Store) SaveShift(ctx context.Context, shift payroll.WorkShift) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO shifts
		(id, contractor_id, role, shift_date, start_time, end_time, status, notes, paid_period_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			notes = excluded.notes,
			paid_period_id = excluded.paid_period_id,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		shift.ID,
		shift.ContractorID,
		shift.Role,
		formatDate(shift.Date),
		shift.Start.UTC().Format(time.RFC3339),
		shift.End.UTC().Format(time.RFC3339),
		shift.Status,
		shift.Notes,
		shift.PaidPeriodID,
		nowRFC3339(),
		nowRFC3339(),
	)
	if err != nil {
		return fmt.Errorf("failed to save shift: %w", err)
	}
	return nil
}

func (s *Store) GetShift(ctx context.Context, id payroll.ShiftID) (payroll.WorkShift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, contractor_id, role, shift_date, start_time, end_time, status, notes, paid_period_id
		FROM shifts WHERE id = ?
	`, id)
	return scanShift(row)
}

func (s *Store) ShiftsByContractor(ctx context.Context, contractorID payroll.ContractorID, from, to payroll.TimePoint) ([]payroll.WorkShift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, contractor_id, role, shift_date, start_time, end_time, status, notes, paid_period_id
		FROM shifts
		WHERE contractor_id = ? AND shift_date >= ? AND shift_date < ?
		ORDER BY shift_date ASC, start_time ASC
	`, contractorID, formatDate(from), formatDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	var shifts []payroll.WorkShift
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}
	return shifts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShift(row rowScanner) (payroll.WorkShift, error) {
	var (
		shift     payroll.WorkShift
		shiftDate string
		startTime string
		endTime   string
		notes     sql.NullString
	)
	err := row.Scan(
		&shift.ID, &shift.ContractorID, &shift.Role, &shiftDate,
		&startTime, &endTime, &shift.Status, &notes, &shift.PaidPeriodID,
	)
	if err == sql.ErrNoRows {
		return payroll.WorkShift{}, payroll.ErrNotFound
	}
	if err != nil {
		return payroll.WorkShift{}, fmt.Errorf("failed to scan shift: %w", err)
	}

	shift.Date = parseDate(shiftDate)
	shift.Start, _ = time.Parse(time.RFC3339, startTime)
	shift.End, _ = time.Parse(time.RFC3339, endTime)
	shift.Notes = notes.String
	return shift, nil
}

// =============================================================================
// BONUSES (payroll.BonusStore interface)
// =============================================================================

func (s *Store) SaveBonus(ctx context.Context, bonus payroll.Bonus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO bonuses
		(id, contractor_id, bonus_type, amount, date_earned, status, paid_period_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			paid_period_id = excluded.paid_period_id,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		bonus.ID,
		bonus.ContractorID,
		bonus.Type,
		bonus.Amount.String(),
		formatDate(bonus.DateEarned),
		bonus.Status,
		bonus.PaidPeriodID,
		nowRFC3339(),
		nowRFC3339(),
	)
	if err != nil {
		return fmt.Errorf("failed to save bonus: %w", err)
	}
	return nil
}

func (s *Store) GetBonus(ctx context.Context, id payroll.BonusID) (payroll.Bonus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, contractor_id, bonus_type, amount, date_earned, status, paid_period_id
		FROM bonuses WHERE id = ?
	`, id)
	return scanBonus(row)
}

func (s *Store) BonusesByContractor(ctx context.Context, contractorID payroll.ContractorID, from, to payroll.TimePoint) ([]payroll.Bonus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, contractor_id, bonus_type, amount, date_earned, status, paid_period_id
		FROM bonuses
		WHERE contractor_id = ? AND date_earned >= ? AND date_earned < ?
		ORDER BY date_earned ASC
	`, contractorID, formatDate(from), formatDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query bonuses: %w", err)
	}
	defer rows.Close()

	var bonuses []payroll.Bonus
	for rows.Next() {
		bonus, err := scanBonus(rows)
		if err != nil {
			return nil, err
		}
		bonuses = append(bonuses, bonus)
	}
	return bonuses, rows.Err()
}

func scanBonus(row rowScanner) (payroll.Bonus, error) {
	var (
		bonus      payroll.Bonus
		amount     string
		dateEarned string
	)
	err := row.Scan(
		&bonus.ID, &bonus.ContractorID, &bonus.Type, &amount,
		&dateEarned, &bonus.Status, &bonus.PaidPeriodID,
	)
	if err == sql.ErrNoRows {
		return payroll.Bonus{}, payroll.ErrNotFound
	}
	if err != nil {
		return payroll.Bonus{}, fmt.Errorf("failed to scan bonus: %w", err)
	}

	bonus.Amount, _ = decimal.NewFromString(amount)
	bonus.DateEarned = parseDate(dateEarned)
	return bonus, nil
}

// =============================================================================
// PAY PERIODS (payroll.PeriodStore interface)
// =============================================================================

func (s *Store) SavePeriod(ctx context.Context, period payroll.PayPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	shiftIDs, _ := json.Marshal(period.ShiftIDs)
	bonusIDs, _ := json.Marshal(period.BonusIDs)

	query := `
		INSERT INTO pay_periods
		(id, contractor_id, start_date, end_date, status, shift_ids_json, bonus_ids_json, total, failure_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			shift_ids_json = excluded.shift_ids_json,
			bonus_ids_json = excluded.bonus_ids_json,
			total = excluded.total,
			failure_reason = excluded.failure_reason,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		period.ID,
		period.ContractorID,
		formatDate(period.Start),
		formatDate(period.End),
		period.Status,
		string(shiftIDs),
		string(bonusIDs),
		period.Total.String(),
		period.FailureReason,
		nowRFC3339(),
		nowRFC3339(),
	)
	if err != nil {
		return fmt.Errorf("failed to save pay period: %w", err)
	}
	return nil
}

func (s *Store) GetPeriod(ctx context.Context, id payroll.PeriodID) (payroll.PayPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, contractor_id, start_date, end_date, status, shift_ids_json, bonus_ids_json, total, failure_reason
		FROM pay_periods WHERE id = ?
	`, id)
	return scanPeriod(row)
}

func (s *Store) PeriodsByContractor(ctx context.Context, contractorID payroll.ContractorID) ([]payroll.PayPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, contractor_id, start_date, end_date, status, shift_ids_json, bonus_ids_json, total, failure_reason
		FROM pay_periods
		WHERE contractor_id = ?
		ORDER BY start_date ASC
	`, contractorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pay periods: %w", err)
	}
	defer rows.Close()

	var periods []payroll.PayPeriod
	for rows.Next() {
		period, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, period)
	}
	return periods, rows.Err()
}

func scanPeriod(row rowScanner) (payroll.PayPeriod, error) {
	var (
		period        payroll.PayPeriod
		startDate     string
		endDate       string
		shiftIDsJSON  string
		bonusIDsJSON  string
		total         string
		failureReason sql.NullString
	)
	err := row.Scan(
		&period.ID, &period.ContractorID, &startDate, &endDate, &period.Status,
		&shiftIDsJSON, &bonusIDsJSON, &total, &failureReason,
	)
	if err == sql.ErrNoRows {
		return payroll.PayPeriod{}, payroll.ErrNotFound
	}
	if err != nil {
		return payroll.PayPeriod{}, fmt.Errorf("failed to scan pay period: %w", err)
	}

	period.Start = parseDate(startDate)
	period.End = parseDate(endDate)
	json.Unmarshal([]byte(shiftIDsJSON), &period.ShiftIDs)
	json.Unmarshal([]byte(bonusIDsJSON), &period.BonusIDs)
	period.Total, _ = decimal.NewFromString(total)
	period.FailureReason = failureReason.String
	return period, nil
}

// =============================================================================
// PLACEMENT PROGRESS (payroll.PlacementStore interface)
// =============================================================================

func (s *Store) SaveProgress(ctx context.Context, progress payroll.PlacementProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schools := make([]string, 0, len(progress.Schools))
	for school := range progress.Schools {
		schools = append(schools, school)
	}
	schoolsJSON, _ := json.Marshal(schools)

	query := `
		INSERT INTO placement_progress
		(id, contractor_id, start_date, total_assignments, schools_json, positive_feedback, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(contractor_id) DO UPDATE SET
			total_assignments = excluded.total_assignments,
			schools_json = excluded.schools_json,
			positive_feedback = excluded.positive_feedback,
			status = excluded.status,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		progress.ID,
		progress.ContractorID,
		formatDate(progress.StartDate),
		progress.TotalAssignments,
		string(schoolsJSON),
		progress.PositiveFeedback,
		progress.Status,
		nowRFC3339(),
		nowRFC3339(),
	)
	if err != nil {
		return fmt.Errorf("failed to save placement progress: %w", err)
	}
	return nil
}

func (s *Store) GetProgress(ctx context.Context, contractorID payroll.ContractorID) (payroll.PlacementProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		progress    payroll.PlacementProgress
		startDate   string
		schoolsJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, contractor_id, start_date, total_assignments, schools_json, positive_feedback, status
		FROM placement_progress WHERE contractor_id = ?
	`, contractorID).Scan(
		&progress.ID, &progress.ContractorID, &startDate,
		&progress.TotalAssignments, &schoolsJSON, &progress.PositiveFeedback, &progress.Status,
	)
	if err == sql.ErrNoRows {
		return payroll.PlacementProgress{}, payroll.ErrNotFound
	}
	if err != nil {
		return payroll.PlacementProgress{}, fmt.Errorf("failed to scan placement progress: %w", err)
	}

	progress.StartDate = parseDate(startDate)
	var schools []string
	json.Unmarshal([]byte(schoolsJSON), &schools)
	progress.Schools = make(map[string]struct{}, len(schools))
	for _, school := range schools {
		progress.Schools[school] = struct{}{}
	}
	return progress, nil
}

// =============================================================================
// HOLIDAYS (payroll.HolidayStore interface)
// =============================================================================

func (s *Store) SaveHoliday(ctx context.Context, holiday payroll.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO holidays (id, holiday_date, name, recurring, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			holiday_date = excluded.holiday_date,
			name = excluded.name,
			recurring = excluded.recurring
	`
	_, err := s.db.ExecContext(ctx, query,
		holiday.ID,
		formatDate(holiday.Date),
		holiday.Name,
		holiday.Recurring,
		nowRFC3339(),
	)
	if err != nil {
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

func (s *Store) Holidays(ctx context.Context) ([]payroll.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, holiday_date, name, recurring FROM holidays ORDER BY holiday_date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var holidays []payroll.Holiday
	for rows.Next() {
		var (
			h    payroll.Holiday
			date string
		)
		if err := rows.Scan(&h.ID, &date, &h.Name, &h.Recurring); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		h.Date = parseDate(date)
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return payroll.ErrNotFound
	}
	return nil
}
