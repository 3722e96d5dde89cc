package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/smart-attendance/internal/models"
)

// AttendanceRepository handles persistence for attendance submissions.
type AttendanceRepository struct {
	db      *sqlx.DB
	metrics queryTimer
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB, metrics queryTimer) *AttendanceRepository {
	return &AttendanceRepository{db: db, metrics: metrics}
}

func (r *AttendanceRepository) observe(label string, start time.Time) {
	if r.metrics != nil {
		r.metrics.ObserveDBQuery(label, time.Since(start))
	}
}

// Insert writes a submission. The table carries a uniqueness constraint on
// (student_name, session_date, code); a conflicting insert is reported as
// inserted=false rather than an error, so concurrent duplicate submissions
// cannot produce two rows.
func (r *AttendanceRepository) Insert(ctx context.Context, record *models.AttendanceRecord) (bool, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	query := `INSERT INTO attendance_records (id, student_name, session_date, code, ip, ip_status, ip_status_message, submitted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (student_name, session_date, code) DO NOTHING
RETURNING id`
	defer r.observe("insert_attendance", time.Now())
	var insertedID string
	err := r.db.QueryRowxContext(ctx, query,
		record.ID, record.StudentName, record.SessionDate, record.Code,
		record.IP, record.IPStatus, record.IPStatusMessage, record.SubmittedAt,
	).Scan(&insertedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("insert attendance: %w", err)
	}
	return true, nil
}

// Exists probes for a prior submission by the same student for the same
// session and code.
func (r *AttendanceRepository) Exists(ctx context.Context, studentName, sessionDate, code string) (bool, error) {
	query := `SELECT EXISTS (
SELECT 1 FROM attendance_records
WHERE student_name = $1 AND session_date = $2 AND code = $3)`
	defer r.observe("attendance_exists", time.Now())
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentName, sessionDate, code); err != nil {
		return false, fmt.Errorf("check attendance exists: %w", err)
	}
	return exists, nil
}

// ListByCode returns submissions for one (session_date, code) pair,
// newest first, optionally excluding trust statuses.
func (r *AttendanceRepository) ListByCode(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	where := []string{"session_date = $1", "code = $2"}
	args := []interface{}{filter.SessionDate, filter.Code}
	if len(filter.ExcludeStatuses) > 0 {
		placeholders := make([]string, 0, len(filter.ExcludeStatuses))
		for _, status := range filter.ExcludeStatuses {
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)+1))
			args = append(args, status)
		}
		where = append(where, fmt.Sprintf("ip_status NOT IN (%s)", strings.Join(placeholders, ", ")))
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 200
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, student_name, session_date, code, ip, ip_status, ip_status_message, submitted_at
FROM attendance_records
WHERE %s
ORDER BY submitted_at DESC
LIMIT %d OFFSET %d`, whereClause, size, offset)

	defer r.observe("list_attendance", time.Now())
	var rows []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM attendance_records WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}
	return rows, total, nil
}
