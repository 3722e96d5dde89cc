package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-attendance/internal/dto"
	"github.com/noah-isme/smart-attendance/internal/models"
	"github.com/noah-isme/smart-attendance/pkg/config"
	appErrors "github.com/noah-isme/smart-attendance/pkg/errors"
)

type codeRepoStub struct {
	inserted []models.Code
	active   []models.Code
	past     []models.Code
	byID     map[string]models.Code
	sessions []models.ActiveSession
	err      error
}

func (s *codeRepoStub) Insert(ctx context.Context, code *models.Code) error {
	if s.err != nil {
		return s.err
	}
	if code.ID == "" {
		code.ID = uuid.NewString()
	}
	s.inserted = append(s.inserted, *code)
	return nil
}

func (s *codeRepoStub) ListActive(ctx context.Context, now time.Time, filter models.CodeFilter) ([]models.Code, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	return s.active, len(s.active), nil
}

func (s *codeRepoStub) ListPast(ctx context.Context, now time.Time, filter models.CodeFilter) ([]models.Code, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	return s.past, len(s.past), nil
}

func (s *codeRepoStub) FindByID(ctx context.Context, id string) (*models.Code, error) {
	if s.err != nil {
		return nil, s.err
	}
	if code, ok := s.byID[id]; ok {
		return &code, nil
	}
	return nil, sql.ErrNoRows
}

func (s *codeRepoStub) ActiveSessions(ctx context.Context, now time.Time) ([]models.ActiveSession, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.sessions, nil
}

type attendanceListerStub struct {
	all     []models.AttendanceRecord
	flagged []models.AttendanceRecord
	err     error
}

func (s *attendanceListerStub) ListByCode(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	if len(filter.ExcludeStatuses) > 0 {
		return s.flagged, len(s.flagged), nil
	}
	return s.all, len(s.all), nil
}

func testAttendanceConfig() config.AttendanceConfig {
	return config.AttendanceConfig{
		CodeLength:          6,
		DefaultMinutesValid: 10,
		ActiveCodesPageSize: 100,
		PastCodesPageSize:   30,
		RecordsPageSize:     200,
	}
}

func newCodeService(repo *codeRepoStub, lister *attendanceListerStub) *CodeService {
	return NewCodeService(repo, lister, nil, validator.New(), nil, nil, testAttendanceConfig())
}

func TestCodeServiceCreateGeneratesSixDigits(t *testing.T) {
	repo := &codeRepoStub{}
	svc := newCodeService(repo, &attendanceListerStub{})
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	code, err := svc.Create(context.Background(), dto.CreateCodeRequest{SessionDate: "2026-03-01"}, now)
	require.NoError(t, err)

	require.Len(t, code.Code, 6)
	for _, r := range code.Code {
		assert.GreaterOrEqual(t, r, '0')
		assert.LessOrEqual(t, r, '9')
	}
	assert.Equal(t, now, code.CreatedAt)
	assert.Equal(t, now.Add(10*time.Minute), code.ValidUntil)
	require.Len(t, repo.inserted, 1)
}

func TestCodeServiceCreateHonorsMinutesValid(t *testing.T) {
	svc := newCodeService(&codeRepoStub{}, &attendanceListerStub{})
	now := time.Now().UTC()

	code, err := svc.Create(context.Background(), dto.CreateCodeRequest{SessionDate: "lecture-5", MinutesValid: 45}, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(45*time.Minute), code.ValidUntil)
}

func TestCodeServiceCreateRequiresSessionDate(t *testing.T) {
	repo := &codeRepoStub{}
	svc := newCodeService(repo, &attendanceListerStub{})

	_, err := svc.Create(context.Background(), dto.CreateCodeRequest{}, time.Now().UTC())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.inserted)
}

func TestCodeServiceCreateRejectsExcessiveMinutes(t *testing.T) {
	svc := newCodeService(&codeRepoStub{}, &attendanceListerStub{})

	_, err := svc.Create(context.Background(), dto.CreateCodeRequest{SessionDate: "x", MinutesValid: 481}, time.Now().UTC())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCodeServiceDetailMalformedID(t *testing.T) {
	svc := newCodeService(&codeRepoStub{}, &attendanceListerStub{})

	_, err := svc.Detail(context.Background(), "not-a-uuid")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCodeServiceDetailUnknownID(t *testing.T) {
	svc := newCodeService(&codeRepoStub{byID: map[string]models.Code{}}, &attendanceListerStub{})

	_, err := svc.Detail(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCodeServiceActiveSessionsSkipsJustExpired(t *testing.T) {
	now := time.Now().UTC()
	repo := &codeRepoStub{sessions: []models.ActiveSession{
		{SessionDate: "fresh", ValidUntil: now.Add(5 * time.Minute)},
		{SessionDate: "stale", ValidUntil: now.Add(-time.Second)},
	}}
	svc := newCodeService(repo, &attendanceListerStub{})

	views, err := svc.ActiveSessions(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "fresh", views[0].SessionDate)
	assert.NotEmpty(t, views[0].EndLabel)
}

func TestCodeServiceReviewAggregates(t *testing.T) {
	now := time.Now().UTC()
	id := uuid.NewString()
	repo := &codeRepoStub{byID: map[string]models.Code{
		id: {ID: id, SessionDate: "2026-03-01", Code: "123456", ValidUntil: now.Add(time.Minute)},
	}}
	lister := &attendanceListerStub{
		all: []models.AttendanceRecord{
			{StudentName: "Alice", IPStatus: models.IPStatusNormal},
			{StudentName: "Bob", IPStatus: models.IPStatusSuspicious},
			{StudentName: "Carol", IPStatus: models.IPStatusDev},
		},
		flagged: []models.AttendanceRecord{
			{StudentName: "Bob", IPStatus: models.IPStatusSuspicious},
			{StudentName: "Carol", IPStatus: models.IPStatusDev},
		},
	}
	svc := newCodeService(repo, lister)

	review, err := svc.Review(context.Background(), id, now)
	require.NoError(t, err)
	assert.True(t, review.IsActive)
	assert.Len(t, review.Attendance, 3)
	assert.Len(t, review.Flagged, 2)
	assert.Equal(t, 3, review.Total)
	assert.Equal(t, 2, review.FlaggedNum)
}

func TestCodeServiceReviewExpiredCode(t *testing.T) {
	now := time.Now().UTC()
	id := uuid.NewString()
	repo := &codeRepoStub{byID: map[string]models.Code{
		id: {ID: id, SessionDate: "old", Code: "000000", ValidUntil: now.Add(-time.Hour)},
	}}
	svc := newCodeService(repo, &attendanceListerStub{})

	review, err := svc.Review(context.Background(), id, now)
	require.NoError(t, err)
	assert.False(t, review.IsActive)
}

func TestCodeServiceReviewExcludesDefaultToNormal(t *testing.T) {
	svc := newCodeService(&codeRepoStub{}, &attendanceListerStub{})
	excludes := svc.reviewExcludes()
	require.Len(t, excludes, 1)
	assert.Equal(t, models.IPStatusNormal, excludes[0])
}

func TestCodeServiceReviewExcludesDropInvalidEntries(t *testing.T) {
	cfg := testAttendanceConfig()
	cfg.ReviewFlagExclude = []string{"NORMAL", "DEV", "bogus"}
	svc := NewCodeService(&codeRepoStub{}, &attendanceListerStub{}, nil, validator.New(), nil, nil, cfg)

	excludes := svc.reviewExcludes()
	assert.Equal(t, []models.IPStatus{models.IPStatusNormal, models.IPStatusDev}, excludes)
}
