package dto

import (
	"time"

	"github.com/noah-isme/smart-attendance/internal/models"
)

// CreateCodeRequest is the payload for issuing a new attendance code.
type CreateCodeRequest struct {
	SessionDate  string `json:"session_date" form:"session_date" validate:"required"`
	MinutesValid int    `json:"minutes_valid" form:"minutes_valid" validate:"omitempty,min=1,max=480"`
}

// CodeList wraps a paginated code listing.
type CodeList struct {
	Codes      []models.Code     `json:"codes"`
	Pagination models.Pagination `json:"pagination"`
}

// CodeReview aggregates the teacher-facing view of one code.
type CodeReview struct {
	Code       models.Code               `json:"code"`
	IsActive   bool                      `json:"is_active"`
	Attendance []models.AttendanceRecord `json:"attendance"`
	Flagged    []models.AttendanceRecord `json:"flagged"`
	Total      int                       `json:"total"`
	FlaggedNum int                       `json:"flagged_total"`
}

// SessionView is the student-facing picker entry.
type SessionView struct {
	SessionDate string    `json:"session_date"`
	ValidUntil  time.Time `json:"valid_until"`
	EndLabel    string    `json:"end_label"`
}
