// File: app/app.go
package app

import (
	"context"
	"go-finance-api/config"
	"go-finance-api/db"
	"go-finance-api/handler"
	"go-finance-api/logger"
	"go-finance-api/repository"
	"go-finance-api/router"
	"go-finance-api/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func Run() {
	config.LoadConfig(".")
	logger.Init()
	logger.Log.Info("Logger initialized")
	logger.Log.Info("Configuration loaded successfully")

	database, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database); err != nil {
		logger.Log.Fatalf("Error running database migrations: %v", err)
	}

	redisClient, err := db.ConnectRedis()
	if err != nil {
		logger.Log.Fatalf("Error connecting to Redis: %v", err)
	}
	defer redisClient.Close()

	// --- Wiring All Layers Together ---

	accountRepo := repository.NewAccountRepository(database)
	transactionRepo := repository.NewTransactionRepository(database)
	paymentRepo := repository.NewPaymentRepository(database)

	accountService := service.NewAccountService(accountRepo, redisClient)
	transactionService := service.NewTransactionService(database, accountRepo, transactionRepo)
	paymentService := service.NewPaymentService(database, paymentRepo, accountRepo)
	schedulerService := service.NewSchedulerService(paymentService, paymentRepo)

	accountHandler := handler.NewAccountHandler(accountService)
	transactionHandler := handler.NewTransactionHandler(transactionService)
	paymentHandler := handler.NewPaymentHandler(paymentService, schedulerService)

	r := router.NewRouter(accountHandler, transactionHandler, paymentHandler)

	// --- Scheduled Payment Runner ---
	// A periodic sweep over due payments. Overlapping sweeps are safe, so a
	// second instance of the service running the same loop is harmless.
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()

	if interval := config.AppConfig.Scheduler.Interval; interval > 0 {
		go runScheduler(schedulerCtx, schedulerService, interval)
	} else {
		logger.Log.Warn("Scheduler interval not configured, background payment runner disabled")
	}

	// --- Start the Server with Graceful Shutdown ---
	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")
	stopScheduler()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}

func runScheduler(ctx context.Context, scheduler *service.SchedulerService, interval time.Duration) {
	logger.Log.WithField("interval", interval).Info("Scheduled payment runner started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("Scheduled payment runner stopped")
			return
		case <-ticker.C:
			results, err := scheduler.RunDue(ctx, time.Now().UTC())
			if err != nil {
				logger.Log.WithError(err).Error("Scheduled payment sweep failed")
				continue
			}
			if len(results) > 0 {
				logger.Log.WithField("processed", len(results)).Info("Scheduled payment sweep finished")
			}
		}
	}
}
