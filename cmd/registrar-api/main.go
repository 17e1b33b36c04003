package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campusworks/registrar-api/api/swagger"
	"github.com/campusworks/registrar-api/internal/handler"
	"github.com/campusworks/registrar-api/internal/middleware"
	"github.com/campusworks/registrar-api/internal/repository"
	"github.com/campusworks/registrar-api/internal/service"
	"github.com/campusworks/registrar-api/pkg/cache"
	"github.com/campusworks/registrar-api/pkg/config"
	"github.com/campusworks/registrar-api/pkg/database"
	"github.com/campusworks/registrar-api/pkg/logger"
	corsmiddleware "github.com/campusworks/registrar-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campusworks/registrar-api/pkg/middleware/requestid"
)

// @title Registrar API
// @version 1.0.0
// @description Academic records service: enrollment lifecycle, grade ledger, GPA, prerequisites and degree audits
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
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	cacheEnabled := cfg.Academic.CacheEnabled
	if cacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
			cacheEnabled = false
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}

	validate := validator.New()

	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	degreeRepo := repository.NewDegreeRepository(db)
	honorRepo := repository.NewHonorRepository(db)
	userRepo := repository.NewUserRepository(db)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Academic.TranscriptCacheTTL, logr, cacheEnabled)
	authSvc := service.NewAuthService(userRepo, validate, logr, cfg.JWT)
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, courseRepo, metricsSvc, validate, logr)
	gpaSvc := service.NewGPAService(enrollmentRepo, studentRepo, cacheSvc, logr)
	recalcWorker := service.NewRecalcWorker(gpaSvc, service.RecalcWorkerConfig{}, logr)
	recalcWorker.Start(context.Background())
	defer recalcWorker.Stop()
	gradeSvc := service.NewGradeService(gradeRepo, enrollmentRepo, cacheSvc, metricsSvc, recalcWorker, validate, logr)
	prereqSvc := service.NewPrerequisiteService(courseRepo, enrollmentRepo, logr)
	degreeSvc := service.NewDegreeService(degreeRepo, studentRepo, enrollmentRepo, metricsSvc, cfg.Academic, logr)
	transcriptSvc := service.NewTranscriptService(studentRepo, enrollmentRepo, cacheSvc, logr)
	honorSvc := service.NewHonorService(honorRepo, studentRepo, validate, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

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

	if cfg.Metrics.Enabled {
		r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Students:    handler.NewStudentHandler(studentSvc),
		Courses:     handler.NewCourseHandler(courseSvc, prereqSvc),
		Enrollments: handler.NewEnrollmentHandler(enrollmentSvc, gradeSvc),
		Grades:      handler.NewGradeHandler(gradeSvc),
		GPA:         handler.NewGPAHandler(gpaSvc),
		Degrees:     handler.NewDegreeHandler(degreeSvc),
		Transcripts: handler.NewTranscriptHandler(transcriptSvc),
		Honors:      handler.NewHonorHandler(honorSvc),
	}, authSvc)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
