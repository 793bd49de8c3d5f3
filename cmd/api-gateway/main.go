package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/novacademy/marketing-api/api/swagger"
	"github.com/novacademy/marketing-api/internal/handler"
	"github.com/novacademy/marketing-api/internal/middleware"
	"github.com/novacademy/marketing-api/internal/models"
	"github.com/novacademy/marketing-api/internal/repository"
	"github.com/novacademy/marketing-api/internal/service"
	"github.com/novacademy/marketing-api/pkg/cache"
	"github.com/novacademy/marketing-api/pkg/config"
	"github.com/novacademy/marketing-api/pkg/database"
	"github.com/novacademy/marketing-api/pkg/export"
	"github.com/novacademy/marketing-api/pkg/logger"
	corsmiddleware "github.com/novacademy/marketing-api/pkg/middleware/cors"
	reqidmiddleware "github.com/novacademy/marketing-api/pkg/middleware/requestid"
	"github.com/novacademy/marketing-api/pkg/whatsapp"
)

// @title Nova Academy Marketing API
// @version 0.1.0
// @description Retention and upsell marketing automation
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
	defer db.Close() //nolint:errcheck

	var cacheRepo service.CacheRepository
	if cfg.Stats.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, stats cache disabled", "error", err)
		} else {
			repo := repository.NewCacheRepository(redisClient, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
		}
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	evaluationRepo := repository.NewEvaluationRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	actionRepo := repository.NewActionRepository(db)

	sender := whatsapp.NewClient(cfg.WhatsApp, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Stats.CacheTTL, logr, cfg.Stats.CacheEnabled && cacheRepo != nil)
	attendanceSvc := service.NewAttendanceService(sessionRepo, metricsSvc, logr)
	scoringSvc := service.NewScoringService()
	offerSvc := service.NewOfferService(courseRepo, cfg.Automation.UpsellDeadlineDays, cfg.Automation.ReEnrollDeadlineDays, logr)
	actionSvc := service.NewActionService(actionRepo, metricsSvc, logr)
	campaignSvc := service.NewCampaignService(
		evaluationRepo, studentRepo, courseRepo, actionSvc, offerSvc, sender, metricsSvc, validate,
		cfg.Automation.UpsellDeadlineDays, cfg.Automation.ReEnrollDeadlineDays, cfg.Automation.CampaignMaxCandidates,
		logr,
	)
	automationSvc := service.NewAutomationService(
		evaluationRepo, studentRepo, courseRepo, attendanceSvc, scoringSvc, offerSvc, actionSvc, campaignSvc,
		cfg.Automation.HighAttendanceMinPct, logr,
	)
	statsSvc := service.NewStatsService(evaluationRepo, studentRepo, attendanceSvc, scoringSvc, cacheSvc, logr)

	automationHandler := handler.NewAutomationHandler(automationSvc)
	campaignHandler := handler.NewCampaignHandler(campaignSvc)
	actionHandler := handler.NewActionHandler(actionSvc, export.NewPDFExporter())
	statsHandler := handler.NewStatsHandler(statsSvc)
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
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))

	marketing := middleware.RequireRoles(models.RoleMarketing, models.RoleAdmin, models.RoleSuperAdmin)

	automation := api.Group("/automation")
	automation.POST("/trigger", marketing, automationHandler.Trigger)

	campaigns := api.Group("/campaigns")
	campaigns.POST("/upsell", marketing, campaignHandler.RunUpsell)
	campaigns.POST("/re-enrollment", marketing, campaignHandler.RunReEnrollment)

	actions := api.Group("/actions")
	actions.GET("", marketing, actionHandler.List)
	actions.GET("/export", marketing, actionHandler.Export)
	actions.GET("/:id", marketing, actionHandler.Get)
	actions.PATCH("/:id/status", marketing, actionHandler.UpdateStatus)
	actions.PATCH("/:id/results", marketing, actionHandler.UpdateResults)

	stats := api.Group("/stats")
	stats.GET("/groups/:groupId/retention", marketing, statsHandler.GroupRetention)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
