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

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/acadsuite/timetable-api/api/swagger"
	"github.com/acadsuite/timetable-api/internal/handler"
	internalmiddleware "github.com/acadsuite/timetable-api/internal/middleware"
	"github.com/acadsuite/timetable-api/internal/models"
	"github.com/acadsuite/timetable-api/internal/repository"
	"github.com/acadsuite/timetable-api/internal/service"
	"github.com/acadsuite/timetable-api/pkg/cache"
	"github.com/acadsuite/timetable-api/pkg/config"
	"github.com/acadsuite/timetable-api/pkg/database"
	"github.com/acadsuite/timetable-api/pkg/logger"
	corsmiddleware "github.com/acadsuite/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/acadsuite/timetable-api/pkg/middleware/requestid"
	"github.com/acadsuite/timetable-api/pkg/storage"
)

// @title Timetable API
// @version 1.0.0
// @description Automatic timetable generation for academic programs
// @BasePath /
// @schemes http

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	// Redis is optional: without it generation responses are simply not cached.
	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, response caching disabled", "error", err)
	} else {
		defer redisClient.Close() //nolint:errcheck
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Timetable.CacheTTL, logr, true)
	}

	validate := validator.New()

	courseRepo := repository.NewCourseRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)

	timetableSvc := service.NewTimetableService(
		courseRepo,
		facultyRepo,
		roomRepo,
		timetableRepo,
		nil,
		db,
		cacheSvc,
		metricsSvc,
		validate,
		logr,
		service.TimetableServiceConfig{
			CacheTTL:     cfg.Timetable.CacheTTL,
			AsyncWorkers: cfg.Timetable.AsyncWorkers,
			JobTTL:       cfg.Timetable.JobTTL,
		},
	)

	exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(timetableRepo, exportStorage, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, nil, nil)

	timetableHandler := handler.NewTimetableHandler(timetableSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	timetableSvc.Start(ctx)
	defer timetableSvc.Stop()

	go exportCleanupLoop(ctx, exportSvc, cfg.Exports, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r, cfg, timetableHandler, metricsHandler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}

func registerRoutes(r *gin.Engine, cfg *config.Config, timetables *handler.TimetableHandler, metrics *handler.MetricsHandler) {
	api := r.Group(cfg.APIPrefix)

	// Signed download links carry their own authentication.
	api.GET("/timetables/export/:token", timetables.Download)

	authed := api.Group("")
	authed.Use(internalmiddleware.JWT(cfg.JWT.Secret))

	mutate := internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleScheduler)
	read := internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleScheduler, models.RoleViewer)

	// Stored versions live under /versions/:id; gin cannot mix a wildcard
	// with static siblings like /generate at the same level.
	tt := authed.Group("/timetables")
	{
		tt.POST("/generate", mutate, timetables.Generate)
		tt.POST("/generate/async", mutate, timetables.GenerateAsync)
		tt.GET("/jobs/:id", read, timetables.JobStatus)
		tt.POST("/validate", mutate, timetables.Validate)
		tt.GET("", read, timetables.List)
		tt.GET("/versions/:id", read, timetables.Get)
		tt.DELETE("/versions/:id", mutate, timetables.Delete)
		tt.POST("/versions/:id/export", read, timetables.Export)
	}

	authed.GET("/system/metrics", internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), metrics.System)
}

func exportCleanupLoop(ctx context.Context, exports *service.ExportService, cfg config.ExportsConfig, logr *zap.Logger) {
	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := exports.Cleanup(cfg.SignedURLTTL)
			if err != nil {
				logr.Sugar().Warnw("export cleanup failed", "error", err)
				continue
			}
			if len(removed) > 0 {
				logr.Sugar().Infow("expired exports removed", "count", len(removed))
			}
		}
	}
}
