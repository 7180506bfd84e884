package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/academy-retake-api/api/swagger"
	"github.com/noah-isme/academy-retake-api/internal/handler"
	"github.com/noah-isme/academy-retake-api/internal/middleware"
	"github.com/noah-isme/academy-retake-api/internal/models"
	"github.com/noah-isme/academy-retake-api/internal/repository"
	"github.com/noah-isme/academy-retake-api/internal/service"
	"github.com/noah-isme/academy-retake-api/pkg/cache"
	"github.com/noah-isme/academy-retake-api/pkg/config"
	"github.com/noah-isme/academy-retake-api/pkg/database"
	"github.com/noah-isme/academy-retake-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academy-retake-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academy-retake-api/pkg/middleware/requestid"
)

// @title Academy Retake API
// @version 1.0.0
// @description Exam retake assignment lifecycle service
// @BasePath /api/v1
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Catalog.CacheTTL, logr, redisClient != nil)

	userRepo := repository.NewUserRepository(db)
	retakeRepo := repository.NewRetakeRepository(db)
	historyRepo := repository.NewRetakeHistoryRepository(db)
	labelRepo := repository.NewStatusLabelRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "academy-retake-api",
	})

	labelSvc := service.NewStatusLabelService(labelRepo, cacheSvc, userRepo, validate, logr, cfg.Catalog.CacheTTL)

	retakeSvc := service.NewRetakeService(service.RetakeServiceParams{
		Repo:      retakeRepo,
		History:   historyRepo,
		Catalog:   labelSvc,
		Audit:     userRepo,
		Metrics:   metricsSvc,
		Validator: validate,
		Logger:    logr,
	})

	calendarSvc := service.NewCalendarService(retakeRepo, cacheSvc, logr, cfg.Calendar.CacheTTL)
	exportSvc := service.NewExportService(retakeRepo, nil, nil, logr)

	if cfg.Reminders.Enabled {
		reminderSvc := service.NewReminderService(retakeRepo, nil, logr, cfg.Reminders.Lookahead, cfg.Reminders.BatchSize)
		reminderSvc.Start(context.Background(), time.Hour)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	retakeHandler := handler.NewRetakeHandler(retakeSvc)
	labelHandler := handler.NewStatusLabelHandler(labelSvc)
	calendarHandler := handler.NewCalendarHandler(calendarSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleTeacher)
	adminStaff := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)

	retakes := api.Group("/retakes", middleware.JWT(authSvc))
	{
		retakes.GET("", retakeHandler.List)
		retakes.GET("/activity", retakeHandler.Activity)
		retakes.POST("/assign", staff, retakeHandler.Assign)
		retakes.GET("/:id", retakeHandler.Get)
		retakes.GET("/:id/history", retakeHandler.History)
		retakes.POST("/:id/postpone", staff, retakeHandler.Postpone)
		retakes.POST("/:id/absent", staff, retakeHandler.MarkAbsent)
		retakes.POST("/:id/complete", staff, retakeHandler.Complete)
		retakes.POST("/:id/undo", staff, retakeHandler.Undo)
		retakes.PATCH("/:id/date", staff, retakeHandler.EditDate)
		retakes.PATCH("/:id/status", staff, retakeHandler.ChangeStatus)
		retakes.PATCH("/:id/management-status", staff, retakeHandler.ChangeManagementStatus)
		retakes.DELETE("/:id", adminStaff, retakeHandler.Delete)
	}

	labels := api.Group("/status-labels", middleware.JWT(authSvc))
	{
		labels.GET("", labelHandler.List)
		labels.POST("", adminStaff, labelHandler.Create)
		labels.PATCH("/:id", adminStaff, labelHandler.Update)
		labels.DELETE("/:id", adminStaff, labelHandler.Delete)
	}

	api.GET("/system/metrics", middleware.JWT(authSvc), adminStaff, metricsHandler.Snapshot)

	if cfg.Calendar.Enabled {
		api.GET("/calendar/retakes", middleware.JWT(authSvc), calendarHandler.Retakes)
	}

	if cfg.Exports.Enabled {
		api.GET("/exports/retakes", middleware.JWT(authSvc), staff, exportHandler.Retakes)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
