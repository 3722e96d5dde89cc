package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/smart-attendance/internal/handler"
	"github.com/noah-isme/smart-attendance/internal/repository"
	"github.com/noah-isme/smart-attendance/internal/router"
	"github.com/noah-isme/smart-attendance/internal/service"
	"github.com/noah-isme/smart-attendance/pkg/cache"
	"github.com/noah-isme/smart-attendance/pkg/config"
	"github.com/noah-isme/smart-attendance/pkg/database"
	"github.com/noah-isme/smart-attendance/pkg/export"
	"github.com/noah-isme/smart-attendance/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metrics := service.NewMetricsService()

	sessionCache := service.NewSessionCache(nil, cfg.Attendance.SessionCacheTTL, logr, metrics)
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			// The picker falls back to direct database reads.
			logr.Sugar().Warnw("redis unavailable, session cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			sessionCache = service.NewSessionCache(redisClient, cfg.Attendance.SessionCacheTTL, logr, metrics)
		}
	}

	validate := validator.New()

	codeRepo := repository.NewCodeRepository(db, metrics)
	attendanceRepo := repository.NewAttendanceRepository(db, metrics)

	trustSvc := service.NewTrustService(cfg.Campus.Prefixes)
	codeSvc := service.NewCodeService(codeRepo, attendanceRepo, sessionCache, validate, logr, metrics, cfg.Attendance)
	attendanceSvc := service.NewAttendanceService(codeRepo, attendanceRepo, trustSvc, validate, logr, metrics)

	handlers := router.Handlers{
		Student: handler.NewStudentHandler(codeSvc, attendanceSvc, logr),
		Teacher: handler.NewTeacherHandler(codeSvc, export.NewCSVExporter(), export.NewPDFExporter(), logr),
		API:     handler.NewAPIHandler(codeSvc, codeSvc, attendanceSvc),
	}

	engine := router.New(cfg, logr, db, metrics, handlers)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
