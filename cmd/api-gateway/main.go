package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sma-booking-api/api/swagger"
	"github.com/noah-isme/sma-booking-api/internal/handler"
	"github.com/noah-isme/sma-booking-api/internal/middleware"
	"github.com/noah-isme/sma-booking-api/internal/repository"
	"github.com/noah-isme/sma-booking-api/internal/service"
	"github.com/noah-isme/sma-booking-api/pkg/cache"
	"github.com/noah-isme/sma-booking-api/pkg/config"
	"github.com/noah-isme/sma-booking-api/pkg/database"
	"github.com/noah-isme/sma-booking-api/pkg/jobs"
	"github.com/noah-isme/sma-booking-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-booking-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-booking-api/pkg/middleware/requestid"
)

// @title SMA Booking API
// @version 0.1.0
// @description Interactive slot booking and scheduling sessions for school activities
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
		logr.Sugar().Fatalw("postgres connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Redis only backs the seed cache; the API works without it.
		logr.Sugar().Warnw("redis unavailable, seed cache disabled", "error", err)
		redisClient = nil
	}

	courseRepo := repository.NewCourseRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	bookingSvc := service.NewBookingService(
		courseRepo,
		studentRepo,
		teacherRepo,
		slotRepo,
		scheduleRepo,
		cacheRepo,
		metricsSvc,
		validate,
		logr,
		service.BookingConfig{
			SessionTTL:   cfg.Booking.SessionTTL,
			SeedCacheTTL: cfg.Booking.SeedCacheTTL,
			DefaultQuota: cfg.Booking.DefaultQuota,
		},
	)

	persistQueue := jobs.NewQueue("schedule-persist", bookingSvc.HandlePersistJob, jobs.QueueConfig{
		Workers:    cfg.Booking.WorkerConcurrency,
		MaxRetries: cfg.Booking.WorkerRetries,
		Logger:     logr,
	})
	bookingSvc.AttachQueue(persistQueue)

	queueCtx, stopQueue := context.WithCancel(context.Background())
	persistQueue.Start(queueCtx)
	defer stopQueue()

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
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	bookingHandler := handler.NewBookingHandler(bookingSvc)
	api := r.Group(cfg.APIPrefix)
	api.GET("/booking/courses", bookingHandler.ListCourses)
	sessions := api.Group("/booking/sessions")
	{
		sessions.POST("", bookingHandler.CreateSession)
		sessions.GET("/:id", bookingHandler.GetSession)
		sessions.DELETE("/:id", bookingHandler.CloseSession)
		sessions.GET("/:id/slots", bookingHandler.ListSlots)
		sessions.POST("/:id/bookings", bookingHandler.Book)
		sessions.DELETE("/:id/students/:studentId/bookings/:slotId", bookingHandler.Unbook)
		sessions.POST("/:id/bookings/move", bookingHandler.Move)
		sessions.PUT("/:id/active-student", bookingHandler.SelectStudent)
		sessions.PUT("/:id/view", bookingHandler.SetView)
		sessions.POST("/:id/bulk-selection", bookingHandler.ToggleBulk)
		sessions.POST("/:id/selection", bookingHandler.BeginSelection)
		sessions.PUT("/:id/selection", bookingHandler.ChooseTime)
		sessions.DELETE("/:id/selection", bookingHandler.AbandonSelection)
		sessions.POST("/:id/placement", bookingHandler.ConfirmPlacement)
		sessions.GET("/:id/students/:studentId/bookings", bookingHandler.StudentBookings)
		sessions.GET("/:id/completion", bookingHandler.Completion)
		sessions.POST("/:id/confirm", bookingHandler.ConfirmSchedule)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
	persistQueue.Stop()
}
