package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/smart-attendance/internal/models"
)

// queryTimer receives per-query latency observations. A nil value disables
// timing.
type queryTimer interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// CodeRepository handles persistence for attendance codes.
type CodeRepository struct {
	db      *sqlx.DB
	metrics queryTimer
}

// NewCodeRepository constructs the repository.
func NewCodeRepository(db *sqlx.DB, metrics queryTimer) *CodeRepository {
	return &CodeRepository{db: db, metrics: metrics}
}

func (r *CodeRepository) observe(label string, start time.Time) {
	if r.metrics != nil {
		r.metrics.ObserveDBQuery(label, time.Since(start))
	}
}

// Insert stores a freshly generated code.
func (r *CodeRepository) Insert(ctx context.Context, code *models.Code) error {
	if code.ID == "" {
		code.ID = uuid.NewString()
	}
	query := `INSERT INTO attendance_codes (id, session_date, code, created_at, valid_until)
VALUES ($1, $2, $3, $4, $5)`
	defer r.observe("insert_code", time.Now())
	if _, err := r.db.ExecContext(ctx, query, code.ID, code.SessionDate, code.Code, code.CreatedAt, code.ValidUntil); err != nil {
		return fmt.Errorf("insert code: %w", err)
	}
	return nil
}

// ListActive returns codes that are still valid at the given instant,
// ascending by expiry.
func (r *CodeRepository) ListActive(ctx context.Context, now time.Time, filter models.CodeFilter) ([]models.Code, int, error) {
	return r.list(ctx, now, filter, true)
}

// ListPast returns expired codes, descending by expiry.
func (r *CodeRepository) ListPast(ctx context.Context, now time.Time, filter models.CodeFilter) ([]models.Code, int, error) {
	return r.list(ctx, now, filter, false)
}

func (r *CodeRepository) list(ctx context.Context, now time.Time, filter models.CodeFilter, active bool) ([]models.Code, int, error) {
	comparison := "valid_until > $1"
	order := "ASC"
	if !active {
		comparison = "valid_until <= $1"
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, session_date, code, created_at, valid_until
FROM attendance_codes
WHERE %s
ORDER BY valid_until %s
LIMIT %d OFFSET %d`, comparison, order, size, offset)

	defer r.observe("list_codes", time.Now())
	var rows []models.Code
	if err := r.db.SelectContext(ctx, &rows, query, now); err != nil {
		return nil, 0, fmt.Errorf("list codes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM attendance_codes WHERE %s", comparison)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, now); err != nil {
		return nil, 0, fmt.Errorf("count codes: %w", err)
	}
	return rows, total, nil
}

// FindByID fetches a single code. Callers translate sql.ErrNoRows.
func (r *CodeRepository) FindByID(ctx context.Context, id string) (*models.Code, error) {
	query := `SELECT id, session_date, code, created_at, valid_until
FROM attendance_codes
WHERE id = $1`
	defer r.observe("find_code", time.Now())
	var code models.Code
	if err := r.db.GetContext(ctx, &code, query, id); err != nil {
		return nil, err
	}
	return &code, nil
}

// FindActiveMatch resolves a (session_date, code) pair against the still
// valid rows. Duplicate codes for one session are legal; any active match
// resolves the submission.
func (r *CodeRepository) FindActiveMatch(ctx context.Context, sessionDate, code string, now time.Time) (*models.Code, error) {
	query := `SELECT id, session_date, code, created_at, valid_until
FROM attendance_codes
WHERE session_date = $1 AND code = $2 AND valid_until > $3
ORDER BY valid_until ASC
LIMIT 1`
	defer r.observe("find_active_match", time.Now())
	var match models.Code
	if err := r.db.GetContext(ctx, &match, query, sessionDate, code, now); err != nil {
		return nil, err
	}
	return &match, nil
}

// ActiveSessions lists sessions that have at least one valid code,
// deduplicated by session_date. The earliest expiry represents each
// session, matching the order the picker shows them in.
func (r *CodeRepository) ActiveSessions(ctx context.Context, now time.Time) ([]models.ActiveSession, error) {
	query := `SELECT session_date, MIN(valid_until) AS valid_until
FROM attendance_codes
WHERE valid_until > $1
GROUP BY session_date
ORDER BY valid_until ASC`
	defer r.observe("active_sessions", time.Now())
	var rows []models.ActiveSession
	if err := r.db.SelectContext(ctx, &rows, query, now); err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	return rows, nil
}
