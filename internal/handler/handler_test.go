package handler

import (
	"context"
	"html/template"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/smart-attendance/internal/dto"
	"github.com/noah-isme/smart-attendance/internal/models"
)

// Shared stubs and a template-backed test engine for the HTML handlers.

type codeServiceMock struct {
	created    *models.Code
	createErr  error
	active     *dto.CodeList
	past       *dto.CodeList
	detail     *models.Code
	detailErr  error
	review     *dto.CodeReview
	reviewErr  error
	listErr    error
	lastCreate dto.CreateCodeRequest
}

func (m *codeServiceMock) Create(ctx context.Context, req dto.CreateCodeRequest, now time.Time) (*models.Code, error) {
	m.lastCreate = req
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.created, nil
}

func (m *codeServiceMock) ListActive(ctx context.Context, now time.Time, page int) (*dto.CodeList, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.active, nil
}

func (m *codeServiceMock) ListPast(ctx context.Context, now time.Time, page int) (*dto.CodeList, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.past, nil
}

func (m *codeServiceMock) Detail(ctx context.Context, id string) (*models.Code, error) {
	if m.detailErr != nil {
		return nil, m.detailErr
	}
	return m.detail, nil
}

func (m *codeServiceMock) Review(ctx context.Context, id string, now time.Time) (*dto.CodeReview, error) {
	if m.reviewErr != nil {
		return nil, m.reviewErr
	}
	return m.review, nil
}

type sessionListerMock struct {
	sessions []dto.SessionView
	err      error
}

func (m *sessionListerMock) ActiveSessions(ctx context.Context, now time.Time) ([]dto.SessionView, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.sessions, nil
}

type submitterMock struct {
	result *dto.SubmitResult
	err    error
	lastIP string
}

func (m *submitterMock) Submit(ctx context.Context, req dto.SubmitAttendanceRequest, clientIP string, now time.Time) (*dto.SubmitResult, error) {
	m.lastIP = clientIP
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// newTestEngine returns a gin engine with string templates so the HTML
// handlers render without touching the filesystem.
func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	root := template.New("")
	template.Must(root.New("student.html").Parse(
		`{{if .Result}}{{.Result.Message}}|{{.Result.IPStatusMessage}}{{end}}#sessions={{len .Sessions}}`))
	template.Must(root.New("teacher.html").Parse(
		`active={{len .Active.Codes}};past={{len .Past.Codes}}`))
	template.Must(root.New("teacher_detail.html").Parse(
		`code={{.Review.Code.Code}};active={{.Review.IsActive}};all={{len .Review.Attendance}};flagged={{len .Review.Flagged}}`))
	template.Must(root.New("error.html").Parse(`{{.Status}}:{{.Message}}`))
	engine.SetHTMLTemplate(root)

	return engine
}
