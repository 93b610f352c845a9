// File: reservely/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reservely/config"
	"reservely/cron"
	"reservely/database"
	availabilityRepo "reservely/database/repository/availability"
	bookingRepo "reservely/database/repository/booking"
	"reservely/handlers"
	"reservely/middleware"
	"reservely/routes"
	"reservely/services/booking"
	"reservely/services/directory"
	"reservely/services/notification"
	"reservely/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// Repositories.
	bookings := bookingRepo.NewMongoBookingRepo()
	slots := availabilityRepo.NewMongoAvailabilityRepo(time.Duration(config.AppConfig.SlotLockSeconds) * time.Second)

	if err := bookings.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure booking indexes: %v", err)
	}
	if err := slots.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure availability indexes: %v", err)
	}

	// Services.
	notifier := notification.NewDefaultNotificationService()
	providerDir := directory.NewDefaultProviderDirectory()
	jobScheduler := cron.NewAsynqJobScheduler()
	defer jobScheduler.Close()

	bookingService := &booking.DefaultBookingService{
		Repo:      bookings,
		Slots:     slots,
		Directory: providerDir,
		Notifier:  notifier,
		Jobs:      jobScheduler,
		Uow:       booking.NewUnitOfWork(database.MongoClient, database.SupportsTransactions()),
		Idempotency: booking.NewRedisIdempotencyCache(
			utils.GetCacheClient(),
			time.Duration(config.AppConfig.IdempotencyTTLHours)*time.Hour,
		),
		Codes: booking.NewRedisCancellationCodeStore(
			utils.GetVerifyCacheClient(),
			time.Duration(config.AppConfig.CancellationCodeTTLMinutes)*time.Minute,
		),
		Validator: &booking.ConflictValidator{Repo: bookings},
	}

	// Background job worker and periodic maintenance jobs.
	cron.InitWorker(bookingService, slots)
	periodicScheduler := cron.InitPeriodicScheduler()
	defer periodicScheduler.Shutdown()

	utils.StartHealthMonitor(
		[]*redis.Client{utils.GetCacheClient(), utils.GetVerifyCacheClient()},
		database.MongoClient,
	)

	bookingHandler := handlers.NewBookingHandler(bookingService, slots, logger)
	routes.RegisterRoutes(router, bookingHandler)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
