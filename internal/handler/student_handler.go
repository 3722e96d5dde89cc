package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-attendance/internal/dto"
	appErrors "github.com/noah-isme/smart-attendance/pkg/errors"
)

type sessionLister interface {
	ActiveSessions(ctx context.Context, now time.Time) ([]dto.SessionView, error)
}

type attendanceSubmitter interface {
	Submit(ctx context.Context, req dto.SubmitAttendanceRequest, clientIP string, now time.Time) (*dto.SubmitResult, error)
}

// StudentHandler serves the student-facing pages: the submission form and
// the attend action.
type StudentHandler struct {
	sessions   sessionLister
	attendance attendanceSubmitter
	logger     *zap.Logger
}

// NewStudentHandler builds the handler.
func NewStudentHandler(sessions sessionLister, attendance attendanceSubmitter, logger *zap.Logger) *StudentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentHandler{sessions: sessions, attendance: attendance, logger: logger}
}

// Page renders the submission form plus the active session picker.
func (h *StudentHandler) Page(c *gin.Context) {
	sessions, err := h.sessions.ActiveSessions(c.Request.Context(), time.Now().UTC())
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.HTML(http.StatusOK, "student.html", gin.H{
		"Result":   nil,
		"Sessions": sessions,
	})
}

// Attend handles the form submission and re-renders the page with the
// outcome message. Invalid or duplicate submissions are informational
// messages, never HTTP errors.
func (h *StudentHandler) Attend(c *gin.Context) {
	now := time.Now().UTC()

	var req dto.SubmitAttendanceRequest
	if err := c.ShouldBind(&req); err != nil {
		req = dto.SubmitAttendanceRequest{
			StudentName:    c.PostForm("student_name"),
			SessionDate:    c.PostForm("session_date"),
			AttendanceCode: c.PostForm("attendance_code"),
		}
	}

	result, err := h.attendance.Submit(c.Request.Context(), req, c.ClientIP(), now)
	if err != nil && appErrors.FromError(err).Status != http.StatusBadRequest {
		h.renderError(c, err)
		return
	}

	sessions, sessErr := h.sessions.ActiveSessions(c.Request.Context(), now)
	if sessErr != nil {
		h.renderError(c, sessErr)
		return
	}

	if err != nil {
		// Validation failures surface as a plain message on the form.
		c.HTML(http.StatusOK, "student.html", gin.H{
			"Result":   &dto.SubmitResult{Message: "Please fill in your name, the session and the attendance code."},
			"Sessions": sessions,
		})
		return
	}

	c.HTML(http.StatusOK, "student.html", gin.H{
		"Result":   result,
		"Sessions": sessions,
	})
}

func (h *StudentHandler) renderError(c *gin.Context, err error) {
	h.logger.Error("student page failed", zap.Error(err))
	c.HTML(http.StatusInternalServerError, "error.html", gin.H{
		"Status":  http.StatusInternalServerError,
		"Message": "Something went wrong. Please try again.",
	})
}
