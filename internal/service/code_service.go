package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-attendance/internal/dto"
	"github.com/noah-isme/smart-attendance/internal/models"
	"github.com/noah-isme/smart-attendance/pkg/config"
	appErrors "github.com/noah-isme/smart-attendance/pkg/errors"
)

type codeRepository interface {
	Insert(ctx context.Context, code *models.Code) error
	ListActive(ctx context.Context, now time.Time, filter models.CodeFilter) ([]models.Code, int, error)
	ListPast(ctx context.Context, now time.Time, filter models.CodeFilter) ([]models.Code, int, error)
	FindByID(ctx context.Context, id string) (*models.Code, error)
	ActiveSessions(ctx context.Context, now time.Time) ([]models.ActiveSession, error)
}

type attendanceLister interface {
	ListByCode(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error)
}

// CodeService owns the attendance-code lifecycle: issuing, listing,
// detail lookup, the session picker and the review aggregation.
type CodeService struct {
	repo       codeRepository
	attendance attendanceLister
	cache      *SessionCache
	validator  *validator.Validate
	logger     *zap.Logger
	metrics    *MetricsService
	cfg        config.AttendanceConfig
}

// NewCodeService constructs the service.
func NewCodeService(repo codeRepository, attendance attendanceLister, cache *SessionCache, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService, cfg config.AttendanceConfig) *CodeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = 6
	}
	if cfg.DefaultMinutesValid <= 0 {
		cfg.DefaultMinutesValid = 10
	}
	return &CodeService{repo: repo, attendance: attendance, cache: cache, validator: validate, logger: logger, metrics: metrics, cfg: cfg}
}

// Create issues a fresh code for the given session. Digits are drawn
// independently, so leading zeros and collisions with still-active codes
// are possible and permitted; duplicates simply both resolve submissions.
func (s *CodeService) Create(ctx context.Context, req dto.CreateCodeRequest, now time.Time) (*models.Code, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "session_date is required and minutes_valid must be between 1 and 480")
	}
	minutes := req.MinutesValid
	if minutes == 0 {
		minutes = s.cfg.DefaultMinutesValid
	}

	code := &models.Code{
		SessionDate: req.SessionDate,
		Code:        s.generateCode(),
		CreatedAt:   now,
		ValidUntil:  now.Add(time.Duration(minutes) * time.Minute),
	}
	if err := s.repo.Insert(ctx, code); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx)
	s.metrics.RecordCodeIssued()
	s.logger.Info("attendance code issued",
		zap.String("session_date", code.SessionDate),
		zap.Time("valid_until", code.ValidUntil),
	)
	return code, nil
}

func (s *CodeService) generateCode() string {
	digits := make([]byte, s.cfg.CodeLength)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken;
			// fall back to the timestamp digit rather than abort issuing.
			digits[i] = byte('0' + time.Now().UnixNano()%10)
			continue
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits)
}

// ListActive returns still-valid codes ascending by expiry.
func (s *CodeService) ListActive(ctx context.Context, now time.Time, page int) (*dto.CodeList, error) {
	filter := models.CodeFilter{Page: page, PageSize: s.cfg.ActiveCodesPageSize}
	codes, total, err := s.repo.ListActive(ctx, now, filter)
	if err != nil {
		return nil, err
	}
	return &dto.CodeList{
		Codes:      codes,
		Pagination: models.Pagination{Page: normalizePage(page), PageSize: filter.PageSize, TotalCount: total},
	}, nil
}

// ListPast returns expired codes descending by expiry.
func (s *CodeService) ListPast(ctx context.Context, now time.Time, page int) (*dto.CodeList, error) {
	filter := models.CodeFilter{Page: page, PageSize: s.cfg.PastCodesPageSize}
	codes, total, err := s.repo.ListPast(ctx, now, filter)
	if err != nil {
		return nil, err
	}
	return &dto.CodeList{
		Codes:      codes,
		Pagination: models.Pagination{Page: normalizePage(page), PageSize: filter.PageSize, TotalCount: total},
	}, nil
}

// Detail resolves one code by id. Malformed and unknown ids are both
// reported as not found.
func (s *CodeService) Detail(ctx context.Context, id string) (*models.Code, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "invalid code id")
	}
	code, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance code not found")
		}
		return nil, err
	}
	return code, nil
}

// ActiveSessions lists sessions with at least one valid code for the
// student picker, served through the cache when possible.
func (s *CodeService) ActiveSessions(ctx context.Context, now time.Time) ([]dto.SessionView, error) {
	sessions, ok := s.cache.Get(ctx)
	if !ok {
		var err error
		sessions, err = s.repo.ActiveSessions(ctx, now)
		if err != nil {
			return nil, err
		}
		s.cache.Set(ctx, sessions)
	}

	views := make([]dto.SessionView, 0, len(sessions))
	for _, session := range sessions {
		// The cache may serve entries that expired moments ago.
		if !session.ValidUntil.After(now) {
			continue
		}
		views = append(views, dto.SessionView{
			SessionDate: session.SessionDate,
			ValidUntil:  session.ValidUntil,
			EndLabel:    session.ValidUntil.Local().Format("01/02 15:04"),
		})
	}
	return views, nil
}

// Review aggregates the teacher-facing detail for one code: the full
// roster and the needs-review subset, both newest first. The exclusion
// set defaults to NORMAL only, which keeps DEV submissions flagged.
func (s *CodeService) Review(ctx context.Context, id string, now time.Time) (*dto.CodeReview, error) {
	code, err := s.Detail(ctx, id)
	if err != nil {
		return nil, err
	}

	all, total, err := s.attendance.ListByCode(ctx, models.AttendanceFilter{
		SessionDate: code.SessionDate,
		Code:        code.Code,
		PageSize:    s.cfg.RecordsPageSize,
	})
	if err != nil {
		return nil, err
	}

	flagged, flaggedTotal, err := s.attendance.ListByCode(ctx, models.AttendanceFilter{
		SessionDate:     code.SessionDate,
		Code:            code.Code,
		ExcludeStatuses: s.reviewExcludes(),
		PageSize:        s.cfg.RecordsPageSize,
	})
	if err != nil {
		return nil, err
	}

	return &dto.CodeReview{
		Code:       *code,
		IsActive:   code.Active(now),
		Attendance: all,
		Flagged:    flagged,
		Total:      total,
		FlaggedNum: flaggedTotal,
	}, nil
}

func (s *CodeService) reviewExcludes() []models.IPStatus {
	if len(s.cfg.ReviewFlagExclude) == 0 {
		return []models.IPStatus{models.IPStatusNormal}
	}
	excludes := make([]models.IPStatus, 0, len(s.cfg.ReviewFlagExclude))
	for _, raw := range s.cfg.ReviewFlagExclude {
		status := models.IPStatus(raw)
		if status.Valid() {
			excludes = append(excludes, status)
		}
	}
	if len(excludes) == 0 {
		excludes = append(excludes, models.IPStatusNormal)
	}
	return excludes
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
