package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campushare/campushare-api/api/swagger"
	"github.com/campushare/campushare-api/internal/handler"
	"github.com/campushare/campushare-api/internal/middleware"
	"github.com/campushare/campushare-api/internal/models"
	"github.com/campushare/campushare-api/internal/repository"
	"github.com/campushare/campushare-api/internal/service"
	"github.com/campushare/campushare-api/pkg/cache"
	"github.com/campushare/campushare-api/pkg/config"
	"github.com/campushare/campushare-api/pkg/database"
	"github.com/campushare/campushare-api/pkg/logger"
	corsmiddleware "github.com/campushare/campushare-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campushare/campushare-api/pkg/middleware/requestid"
	"github.com/campushare/campushare-api/pkg/storage"
)

// @title CampusShare API
// @version 1.0.0
// @description University resource sharing portal
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	uploadStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	resourceRepo := repository.NewResourceRepository(db)

	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	accountSvc := service.NewAccountService(userRepo, validate, logr)
	categorySvc := service.NewCategoryService(categoryRepo, userRepo, validate, logr)
	resourceSvc := service.NewResourceService(resourceRepo, categoryRepo, userRepo, uploadStore, userRepo, metricsSvc, validate, logr, service.ResourceServiceConfig{
		MaxFileSize:       cfg.Uploads.MaxFileSizeBytes,
		AllowedExtensions: cfg.Uploads.AllowedExtensions,
	})

	var dashboardSvc *service.DashboardService
	if cfg.Dashboard.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, dashboard cache disabled", "error", err)
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
		dashboardSvc = service.NewDashboardService(resourceRepo, redisClient, cfg.Dashboard.CacheTTL, metricsSvc, logr)
	}

	var exportSvc *service.ExportService
	if cfg.Reports.Enabled {
		reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportSvc = service.NewExportService(resourceRepo, reportStore, signer, logr)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	accountHandler := handler.NewAccountHandler(accountSvc)
	categoryHandler := handler.NewCategoryHandler(categorySvc)
	resourceHandler := handler.NewResourceHandler(resourceSvc)
	moderationHandler := handler.NewModerationHandler(resourceSvc, dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.MaxMultipartMemory = cfg.Uploads.MaxFileSizeBytes

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	registerAudit := middleware.Audit(userRepo, models.AuditActionRegister, "accounts")
	api.POST("/accounts/students", registerAudit, accountHandler.RegisterStudent)
	api.POST("/accounts/lecturers", registerAudit, accountHandler.RegisterLecturer)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.GET("/auth/me", authHandler.Me)

	authed.GET("/categories", categoryHandler.List)
	authed.GET("/resources", resourceHandler.List)
	authed.GET("/resources/mine", resourceHandler.ListMine)
	authed.GET("/resources/:id", resourceHandler.Get)
	authed.GET("/resources/:id/download", resourceHandler.Download)
	authed.POST("/resources", resourceHandler.Upload)

	lecturers := authed.Group("")
	lecturers.Use(middleware.RequireRoles(models.RoleLecturer))

	lecturers.POST("/categories", categoryHandler.Create)
	lecturers.PUT("/categories/:id", categoryHandler.Update)
	lecturers.DELETE("/categories/:id", categoryHandler.Delete)
	lecturers.PUT("/accounts/students/:id/upload-permission", accountHandler.SetUploadPermission)
	lecturers.GET("/moderation/pending", moderationHandler.Pending)
	lecturers.GET("/moderation/reviewed", moderationHandler.Reviewed)
	lecturers.PUT("/moderation/resources/:id", moderationHandler.Review)

	if dashboardSvc != nil {
		dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
		lecturers.GET("/dashboard/stats", dashboardHandler.Stats)
	}

	if exportSvc != nil {
		reportHandler := handler.NewReportHandler(exportSvc)
		lecturers.POST("/reports/moderation", middleware.Audit(userRepo, models.AuditActionExport, "reports"), reportHandler.Generate)
		api.GET("/reports/files", reportHandler.Fetch)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
