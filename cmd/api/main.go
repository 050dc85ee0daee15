package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "github.com/sjperalta/debt-ledger/docs" // Swagger docs
	"github.com/sjperalta/debt-ledger/internal/amqp"
	"github.com/sjperalta/debt-ledger/internal/config"
	"github.com/sjperalta/debt-ledger/internal/database"
	"github.com/sjperalta/debt-ledger/internal/handlers"
	"github.com/sjperalta/debt-ledger/internal/jobs"
	"github.com/sjperalta/debt-ledger/internal/middleware"
	"github.com/sjperalta/debt-ledger/internal/repository"
	"github.com/sjperalta/debt-ledger/internal/repository/memory"
	"github.com/sjperalta/debt-ledger/internal/services"
	"github.com/sjperalta/debt-ledger/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Debt Ledger API
// @version 1.0
// @description Debt tracking, payment ledger and payoff projection
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment, cfg.LogLevel)

	// Initialize Sentry (GlitchTip) when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Open the ledger store
	repos, ping, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Error("Failed to open store", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// Ledger events go to the broker when one is configured; otherwise the
	// expense sync runs in-process
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP broker", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("Publishing ledger events to AMQP", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, publisher, cfg)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs, cfg)

	// Initialize handlers
	h := handlers.NewHandlers(svcs, ping)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

// openStore connects the configured backend. The memory backend keeps
// nothing across restarts and is meant for local runs.
func openStore(cfg *config.Config) (*repository.Repositories, handlers.Pinger, func(), error) {
	if cfg.StorageBackend == config.BackendMemory {
		logger.Warn("Using in-memory store; data is lost on restart")
		return memory.New().Repositories(), nil, func() {}, nil
	}

	if cfg.RunMigrations {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, nil, nil, err
		}
	}

	db, err := database.Connect(cfg.DatabaseURL, cfg.IsProduction())
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info("Connected to database")

	closeFn := func() {
		if err := database.Close(db); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}
	return repository.NewRepositories(db), pingDB(db), closeFn, nil
}

func pingDB(db *gorm.DB) handlers.Pinger {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// Redirect root to swagger
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	{
		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Plan-scoped routes
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			debts := protected.Group("/debts")
			{
				debts.GET("", h.Debt.Index)
				debts.POST("", h.Debt.Create)
				// Static route first so "summary" is not matched as :debt_id
				debts.GET("/summary", h.Debt.Summary)
				debts.GET("/:debt_id", h.Debt.Show)
				debts.PATCH("/:debt_id", h.Debt.Update)
				debts.DELETE("/:debt_id", h.Debt.Delete)

				debts.GET("/:debt_id/payments", h.Payment.Index)
				debts.POST("/:debt_id/payments", h.Payment.Create)
				debts.POST("/:debt_id/payments/:payment_id/undo", h.Payment.Undo)
			}

			protected.GET("/payments", h.Payment.ForPeriod)
			protected.GET("/projection", h.Projection.Show)
			protected.GET("/exports/ledger", h.Export.Ledger)
			protected.POST("/expense-debts", h.ExpenseDebt.Upsert)
			protected.GET("/jobs/status", h.Job.Status)
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services, cfg *config.Config) {
	// Flush ledger events left behind by a crash before serving traffic
	worker.ScheduleEveryImmediate("outbox", cfg.OutboxInterval, func(ctx context.Context) error {
		return svcs.Outbox.DispatchPending(ctx)
	})

	// Close missed billing cycles
	worker.ScheduleEvery("accrual", cfg.AccrualInterval, func(ctx context.Context) error {
		logger.Info("[Job] Accruing missed payments...")
		res, err := svcs.Accrual.AccrueMissedPayments(ctx, time.Now())
		if err != nil {
			return err
		}
		if res.DebtsAccrued > 0 {
			logger.Info("[Job] Accrued missed payments", "debts", res.DebtsAccrued, "cycles", res.CyclesClosed, "total", res.TotalAccrued.StringFixed(2))
		}
		return nil
	})

	// Carry unpaid expenses of past months into debts
	worker.ScheduleEvery("carryover", time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Carrying over unpaid expenses...")
		n, err := svcs.ExpenseSync.CarryOverUnpaidExpenses(ctx, time.Now())
		if n > 0 {
			logger.Info("[Job] Carried over unpaid expenses", "count", n)
		}
		return err
	})

	logger.Info("Scheduled recurring jobs")
}
