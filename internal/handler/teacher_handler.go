package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-attendance/internal/dto"
	"github.com/noah-isme/smart-attendance/internal/models"
	appErrors "github.com/noah-isme/smart-attendance/pkg/errors"
	"github.com/noah-isme/smart-attendance/pkg/export"
)

type codeLifecycle interface {
	Create(ctx context.Context, req dto.CreateCodeRequest, now time.Time) (*models.Code, error)
	ListActive(ctx context.Context, now time.Time, page int) (*dto.CodeList, error)
	ListPast(ctx context.Context, now time.Time, page int) (*dto.CodeList, error)
	Detail(ctx context.Context, id string) (*models.Code, error)
	Review(ctx context.Context, id string, now time.Time) (*dto.CodeReview, error)
}

// TeacherHandler serves the teacher-facing pages: code listing, issuing,
// per-code review and roster downloads.
type TeacherHandler struct {
	codes  codeLifecycle
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewTeacherHandler builds the handler.
func NewTeacherHandler(codes codeLifecycle, csv *export.CSVExporter, pdf *export.PDFExporter, logger *zap.Logger) *TeacherHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherHandler{codes: codes, csv: csv, pdf: pdf, logger: logger}
}

// Page renders active and past codes.
func (h *TeacherHandler) Page(c *gin.Context) {
	now := time.Now().UTC()
	activePage := queryPage(c, "active_page")
	pastPage := queryPage(c, "past_page")

	active, err := h.codes.ListActive(c.Request.Context(), now, activePage)
	if err != nil {
		h.renderError(c, err)
		return
	}
	past, err := h.codes.ListPast(c.Request.Context(), now, pastPage)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, "teacher.html", gin.H{
		"Active": active,
		"Past":   past,
	})
}

// CreateCode issues a new code from the form and redirects back to the
// teacher page with a 303.
func (h *TeacherHandler) CreateCode(c *gin.Context) {
	req := dto.CreateCodeRequest{SessionDate: c.PostForm("session_date")}
	if raw := c.PostForm("minutes_valid"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil {
			h.renderStatus(c, http.StatusBadRequest, "minutes_valid must be a number")
			return
		}
		req.MinutesValid = minutes
	}

	if _, err := h.codes.Create(c.Request.Context(), req, time.Now().UTC()); err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Status == http.StatusBadRequest {
			h.renderStatus(c, http.StatusBadRequest, appErr.Message)
			return
		}
		h.renderError(c, err)
		return
	}

	c.Redirect(http.StatusSeeOther, "/teacher")
}

// CodeDetail renders the review page for one code.
func (h *TeacherHandler) CodeDetail(c *gin.Context) {
	review, err := h.codes.Review(c.Request.Context(), c.Param("code_id"), time.Now().UTC())
	if err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Status == http.StatusNotFound {
			h.renderStatus(c, http.StatusNotFound, appErr.Message)
			return
		}
		h.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, "teacher_detail.html", gin.H{
		"Review": review,
	})
}

// ExportRoster downloads the roster for one code as CSV (default) or PDF.
func (h *TeacherHandler) ExportRoster(c *gin.Context) {
	review, err := h.codes.Review(c.Request.Context(), c.Param("code_id"), time.Now().UTC())
	if err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Status == http.StatusNotFound {
			h.renderStatus(c, http.StatusNotFound, appErr.Message)
			return
		}
		h.renderError(c, err)
		return
	}

	data := rosterDataset(review)
	filename := fmt.Sprintf("attendance_%s_%s", review.Code.SessionDate, review.Code.Code)

	switch c.DefaultQuery("format", "csv") {
	case "pdf":
		payload, err := h.pdf.Render(data, fmt.Sprintf("Attendance %s", review.Code.SessionDate))
		if err != nil {
			h.renderError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".pdf"))
		c.Data(http.StatusOK, "application/pdf", payload)
	case "csv":
		payload, err := h.csv.Render(data)
		if err != nil {
			h.renderError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".csv"))
		c.Data(http.StatusOK, "text/csv", payload)
	default:
		h.renderStatus(c, http.StatusBadRequest, "format must be csv or pdf")
	}
}

func rosterDataset(review *dto.CodeReview) export.Dataset {
	headers := []string{"student_name", "submitted_at", "ip", "ip_status", "ip_status_message"}
	rows := make([]map[string]string, 0, len(review.Attendance))
	for _, record := range review.Attendance {
		rows = append(rows, map[string]string{
			"student_name":      record.StudentName,
			"submitted_at":      record.SubmittedAt.Local().Format("2006-01-02 15:04:05"),
			"ip":                record.IP,
			"ip_status":         string(record.IPStatus),
			"ip_status_message": record.IPStatusMessage,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func queryPage(c *gin.Context, key string) int {
	page, err := strconv.Atoi(c.DefaultQuery(key, "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func (h *TeacherHandler) renderStatus(c *gin.Context, status int, message string) {
	c.HTML(status, "error.html", gin.H{
		"Status":  status,
		"Message": message,
	})
}

func (h *TeacherHandler) renderError(c *gin.Context, err error) {
	h.logger.Error("teacher page failed", zap.Error(err))
	h.renderStatus(c, http.StatusInternalServerError, "Something went wrong. Please try again.")
}
