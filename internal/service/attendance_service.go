package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-attendance/internal/dto"
	"github.com/noah-isme/smart-attendance/internal/models"
	appErrors "github.com/noah-isme/smart-attendance/pkg/errors"
)

type activeCodeFinder interface {
	FindActiveMatch(ctx context.Context, sessionDate, code string, now time.Time) (*models.Code, error)
}

type attendanceRepository interface {
	Insert(ctx context.Context, record *models.AttendanceRecord) (bool, error)
	Exists(ctx context.Context, studentName, sessionDate, code string) (bool, error)
}

type trustClassifier interface {
	Classify(ip string) (models.IPStatus, string)
}

// AttendanceService runs the submission pipeline: resolve an active code,
// classify the client IP, then record the attendance.
type AttendanceService struct {
	codes     activeCodeFinder
	records   attendanceRepository
	trust     trustClassifier
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewAttendanceService constructs the service.
func NewAttendanceService(codes activeCodeFinder, records attendanceRepository, trust trustClassifier, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{codes: codes, records: records, trust: trust, validator: validate, logger: logger, metrics: metrics}
}

// Submit processes one student submission. The trust classification is
// always returned so callers can surface it, whichever outcome applies.
// Exactly one row is written on the Recorded path and none otherwise.
func (s *AttendanceService) Submit(ctx context.Context, req dto.SubmitAttendanceRequest, clientIP string, now time.Time) (*dto.SubmitResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "student_name, session_date and attendance_code are required")
	}

	ipStatus, ipMessage := s.trust.Classify(clientIP)
	result := &dto.SubmitResult{IPStatus: ipStatus, IPStatusMessage: ipMessage}

	_, err := s.codes.FindActiveMatch(ctx, req.SessionDate, req.AttendanceCode, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			result.Outcome = dto.OutcomeCodeInvalid
			result.Message = "The attendance code is invalid or has expired."
			s.metrics.RecordSubmission(string(result.Outcome), string(ipStatus))
			return result, nil
		}
		return nil, err
	}

	// Cheap short-circuit; the uniqueness constraint below is what actually
	// guarantees at most one record under concurrent duplicates.
	exists, err := s.records.Exists(ctx, req.StudentName, req.SessionDate, req.AttendanceCode)
	if err != nil {
		return nil, err
	}
	if exists {
		result.Outcome = dto.OutcomeAlreadyRecorded
		result.Message = "Attendance has already been recorded."
		s.metrics.RecordSubmission(string(result.Outcome), string(ipStatus))
		return result, nil
	}

	record := &models.AttendanceRecord{
		StudentName:     req.StudentName,
		SessionDate:     req.SessionDate,
		Code:            req.AttendanceCode,
		IP:              clientIP,
		IPStatus:        ipStatus,
		IPStatusMessage: ipMessage,
		SubmittedAt:     now,
	}
	inserted, err := s.records.Insert(ctx, record)
	if err != nil {
		return nil, err
	}
	if !inserted {
		// Lost the race against a concurrent duplicate submission.
		result.Outcome = dto.OutcomeAlreadyRecorded
		result.Message = "Attendance has already been recorded."
		s.metrics.RecordSubmission(string(result.Outcome), string(ipStatus))
		return result, nil
	}

	result.Outcome = dto.OutcomeRecorded
	result.Message = "Attendance recorded successfully."
	s.metrics.RecordSubmission(string(result.Outcome), string(ipStatus))
	s.logger.Info("attendance recorded",
		zap.String("session_date", req.SessionDate),
		zap.String("ip_status", string(ipStatus)),
	)
	return result, nil
}
