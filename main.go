package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vridhi-nahata/ServeGo-Backend/config"
	"github.com/vridhi-nahata/ServeGo-Backend/cron"
	"github.com/vridhi-nahata/ServeGo-Backend/database"
	bookingRepo "github.com/vridhi-nahata/ServeGo-Backend/database/repository/booking"
	"github.com/vridhi-nahata/ServeGo-Backend/handlers"
	"github.com/vridhi-nahata/ServeGo-Backend/middleware"
	"github.com/vridhi-nahata/ServeGo-Backend/routes"
	"github.com/vridhi-nahata/ServeGo-Backend/services/booking"
	"github.com/vridhi-nahata/ServeGo-Backend/services/notification"
	"github.com/vridhi-nahata/ServeGo-Backend/services/payment"
	"github.com/vridhi-nahata/ServeGo-Backend/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()
	utils.StartHealthMonitor(utils.GetCacheClient(), database.MongoClient)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	repo := bookingRepo.NewMongoBookingRepo()
	if err := repo.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure booking indexes: %v", err)
	}

	loc, err := time.LoadLocation(config.AppConfig.BookingTimezone)
	if err != nil {
		logger.Sugar().Fatalf("main: invalid booking timezone %q: %v", config.AppConfig.BookingTimezone, err)
	}

	// services.
	notificationService := &notification.DefaultNotificationService{
		Logger: logger,
	}

	reminderLead := time.Duration(config.AppConfig.ReminderLeadMinutes) * time.Minute
	reminderScheduler := cron.NewScheduler(reminderLead, loc, logger)
	cron.InitReminderWorker(repo, notificationService, logger)

	bookingService := &booking.DefaultBookingService{
		Repo:         repo,
		Notification: notificationService,
		Reminders:    reminderScheduler,
		Logger:       logger,
		CancelCutoff: time.Duration(config.AppConfig.CancelCutoffMinutes) * time.Minute,
		Location:     loc,
	}

	paymentService := &payment.DefaultPaymentService{
		Repo:          repo,
		Gateway:       payment.NewRazorpayGateway(config.AppConfig.RazorpayKeyID, config.AppConfig.RazorpayKeySecret),
		Notification:  notificationService,
		Logger:        logger,
		KeySecret:     config.AppConfig.RazorpayKeySecret,
		WebhookSecret: config.AppConfig.RazorpayWebhookSecret,
	}
	if cache := utils.GetCacheClient(); cache != nil {
		paymentService.Cache = cache
	}

	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	paymentHandler := handlers.NewPaymentHandler(paymentService, logger)

	routes.RegisterRoutes(router, bookingHandler, paymentHandler)

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
