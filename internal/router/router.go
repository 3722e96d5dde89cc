package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-attendance/internal/handler"
	"github.com/noah-isme/smart-attendance/internal/middleware"
	"github.com/noah-isme/smart-attendance/internal/service"
	"github.com/noah-isme/smart-attendance/pkg/config"
	"github.com/noah-isme/smart-attendance/pkg/logger"
	corsmiddleware "github.com/noah-isme/smart-attendance/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/smart-attendance/pkg/middleware/requestid"
)

// Handlers groups the constructed handlers mounted by New.
type Handlers struct {
	Student *handler.StudentHandler
	Teacher *handler.TeacherHandler
	API     *handler.APIHandler
}

// New configures the gin engine: middlewares, templates, static files and
// every route of the HTML and JSON surfaces.
func New(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, metrics *service.MetricsService, h Handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.LoadHTMLGlob("web/templates/*.html")
	r.Static("/static", "./web/static")

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/student")
	})

	r.GET("/student", h.Student.Page)
	r.POST("/student/attend", h.Student.Attend)

	r.GET("/teacher", h.Teacher.Page)
	r.POST("/teacher/create-code", h.Teacher.CreateCode)
	r.GET("/teacher/code/:code_id", h.Teacher.CodeDetail)
	r.GET("/teacher/code/:code_id/export", h.Teacher.ExportRoster)

	api := r.Group("/api/v1")
	{
		api.GET("/sessions/active", h.API.ActiveSessions)
		api.GET("/codes", h.API.ListCodes)
		api.POST("/codes", h.API.CreateCode)
		api.GET("/codes/:code_id", h.API.CodeDetail)
		api.GET("/codes/:code_id/review", h.API.CodeReview)
		api.POST("/attendance", h.API.Submit)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	return r
}
