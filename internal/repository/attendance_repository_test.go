package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-attendance/internal/models"
)

func sampleRecord(now time.Time) *models.AttendanceRecord {
	return &models.AttendanceRecord{
		StudentName:     "Alice",
		SessionDate:     "2026-03-01",
		Code:            "482913",
		IP:              "210.108.18.50",
		IPStatus:        models.IPStatusNormal,
		IPStatusMessage: "trusted in-campus network",
		SubmittedAt:     now,
	}
}

func TestAttendanceRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db, nil)
	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO attendance_records").
		WithArgs(sqlmock.AnyArg(), "Alice", "2026-03-01", "482913", "210.108.18.50", models.IPStatusNormal, "trusted in-campus network", now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("new-id"))

	inserted, err := repo.Insert(context.Background(), sampleRecord(now))
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestAttendanceRepositoryInsertConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db, nil)
	now := time.Now().UTC()
	// ON CONFLICT DO NOTHING returns no row for the losing insert.
	mock.ExpectQuery("INSERT INTO attendance_records").
		WithArgs(sqlmock.AnyArg(), "Alice", "2026-03-01", "482913", "210.108.18.50", models.IPStatusNormal, "trusted in-campus network", now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	inserted, err := repo.Insert(context.Background(), sampleRecord(now))
	require.NoError(t, err)
	assert.False(t, inserted)
}

func TestAttendanceRepositoryExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db, nil)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("Alice", "2026-03-01", "482913").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Exists(context.Background(), "Alice", "2026-03-01", "482913")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAttendanceRepositoryListByCode(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db, nil)
	now := time.Now().UTC()
	columns := []string{"id", "student_name", "session_date", "code", "ip", "ip_status", "ip_status_message", "submitted_at"}
	rows := sqlmock.NewRows(columns).
		AddRow("r2", "Bob", "2026-03-01", "482913", "8.8.8.8", "SUSPICIOUS", "external network, suspected off-campus", now).
		AddRow("r1", "Alice", "2026-03-01", "482913", "210.108.18.50", "NORMAL", "trusted in-campus network", now.Add(-time.Minute))
	mock.ExpectQuery("SELECT id, student_name").
		WithArgs("2026-03-01", "482913").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("2026-03-01", "482913").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	records, total, err := repo.ListByCode(context.Background(), models.AttendanceFilter{
		SessionDate: "2026-03-01",
		Code:        "482913",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, records, 2)
	assert.Equal(t, "Bob", records[0].StudentName)
}

func TestAttendanceRepositoryListByCodeExcludesStatuses(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db, nil)
	now := time.Now().UTC()
	columns := []string{"id", "student_name", "session_date", "code", "ip", "ip_status", "ip_status_message", "submitted_at"}
	mock.ExpectQuery("SELECT id, student_name").
		WithArgs("2026-03-01", "482913", models.IPStatusNormal).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("r1", "Carol", "2026-03-01", "482913", "127.0.0.1", "DEV", "local development, trust judgment skipped", now))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("2026-03-01", "482913", models.IPStatusNormal).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	records, total, err := repo.ListByCode(context.Background(), models.AttendanceFilter{
		SessionDate:     "2026-03-01",
		Code:            "482913",
		ExcludeStatuses: []models.IPStatus{models.IPStatusNormal},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, records, 1)
	// DEV rows stay in the flagged listing; only NORMAL is excluded.
	assert.Equal(t, models.IPStatusDev, records[0].IPStatus)
}
