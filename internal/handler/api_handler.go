package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/smart-attendance/internal/dto"
	appErrors "github.com/noah-isme/smart-attendance/pkg/errors"
	"github.com/noah-isme/smart-attendance/pkg/response"
)

// APIHandler mirrors the lifecycle and submission operations as a JSON API
// for programmatic clients (kiosk apps, scripts).
type APIHandler struct {
	codes      codeLifecycle
	sessions   sessionLister
	attendance attendanceSubmitter
}

// NewAPIHandler builds the handler.
func NewAPIHandler(codes codeLifecycle, sessions sessionLister, attendance attendanceSubmitter) *APIHandler {
	return &APIHandler{codes: codes, sessions: sessions, attendance: attendance}
}

// ActiveSessions lists sessions with a valid code.
func (h *APIHandler) ActiveSessions(c *gin.Context) {
	sessions, err := h.sessions.ActiveSessions(c.Request.Context(), time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}

// ListCodes lists active (default) or past codes.
func (h *APIHandler) ListCodes(c *gin.Context) {
	now := time.Now().UTC()
	page := queryPage(c, "page")

	var list *dto.CodeList
	var err error
	switch c.DefaultQuery("state", "active") {
	case "active":
		list, err = h.codes.ListActive(c.Request.Context(), now, page)
	case "past":
		list, err = h.codes.ListPast(c.Request.Context(), now, page)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "state must be active or past"))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list.Codes, &list.Pagination)
}

// CreateCode issues a new attendance code.
func (h *APIHandler) CreateCode(c *gin.Context) {
	var req dto.CreateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid code payload"))
		return
	}
	code, err := h.codes.Create(c.Request.Context(), req, time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, code)
}

// CodeDetail returns one code by id.
func (h *APIHandler) CodeDetail(c *gin.Context) {
	code, err := h.codes.Detail(c.Request.Context(), c.Param("code_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, code, nil)
}

// CodeReview returns the aggregated review for one code.
func (h *APIHandler) CodeReview(c *gin.Context) {
	review, err := h.codes.Review(c.Request.Context(), c.Param("code_id"), time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, review, nil)
}

// Submit records one attendance submission.
func (h *APIHandler) Submit(c *gin.Context) {
	var req dto.SubmitAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}
	result, err := h.attendance.Submit(c.Request.Context(), req, c.ClientIP(), time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if result.Outcome == dto.OutcomeRecorded {
		status = http.StatusCreated
	}
	response.JSON(c, status, result, nil)
}
