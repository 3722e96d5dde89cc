package dto

import "github.com/noah-isme/smart-attendance/internal/models"

// SubmitOutcome enumerates the possible results of a submission.
type SubmitOutcome string

const (
	OutcomeRecorded        SubmitOutcome = "RECORDED"
	OutcomeAlreadyRecorded SubmitOutcome = "ALREADY_RECORDED"
	OutcomeCodeInvalid     SubmitOutcome = "CODE_INVALID_OR_EXPIRED"
)

// SubmitAttendanceRequest is the payload of a student submission.
type SubmitAttendanceRequest struct {
	StudentName    string `json:"student_name" form:"student_name" validate:"required"`
	SessionDate    string `json:"session_date" form:"session_date" validate:"required"`
	AttendanceCode string `json:"attendance_code" form:"attendance_code" validate:"required"`
}

// SubmitResult carries the outcome plus the trust classification, which is
// surfaced to the student regardless of whether a record was written.
type SubmitResult struct {
	Outcome         SubmitOutcome   `json:"outcome"`
	Message         string          `json:"message"`
	IPStatus        models.IPStatus `json:"ip_status"`
	IPStatusMessage string          `json:"ip_status_message"`
}
