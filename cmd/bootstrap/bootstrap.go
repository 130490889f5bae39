package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinic-management-api/config"
	deliveryHttp "clinic-management-api/internal/delivery/http"
	"clinic-management-api/internal/delivery/http/handler"
	"clinic-management-api/internal/delivery/http/middleware"
	"clinic-management-api/internal/infrastructure/cache"
	"clinic-management-api/internal/infrastructure/database"
	"clinic-management-api/internal/repository"
	"clinic-management-api/internal/service"
	"clinic-management-api/internal/usecase"
	"clinic-management-api/pkg/jwt"
	"clinic-management-api/pkg/metrics"
	"clinic-management-api/pkg/validator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	Locker      *service.RedisBookingLocker
	Server      *http.Server
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	// Setup logger
	log := NewLogger(cfg.App.LogLevel)
	app.Log = log
	log.Info("Configuration loaded successfully")

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB, cfg.App, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient

	app.Locker = service.NewRedisBookingLocker(redisClient, log, cfg.Booking.LockTTL)

	// Initialize all layers
	app.Server = initializeServer(cfg, log, db, redisClient, app.Locker)

	return app, nil
}

// NewLogger builds the JSON logrus logger; an unknown level falls back to info.
func NewLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
	return log
}

// initializeServer creates and configures the HTTP server
func initializeServer(cfg *config.Config, log *logrus.Logger, db *gorm.DB, redisClient *redis.Client, locker service.BookingLocker) *http.Server {
	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(cfg.App.MetricsNamespace, registry)

	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize validator
	customValidator := validator.NewValidator()

	transactor := database.NewTransactor(db)

	// Initialize repositories
	userRepo := repository.NewUserRepository()
	doctorProfileRepo := repository.NewDoctorProfileRepository()
	patientProfileRepo := repository.NewPatientProfileRepository()
	appointmentRepo := repository.NewAppointmentRepository()
	requestRepo := repository.NewFamilyDoctorRequestRepository()
	historyRepo := repository.NewFamilyDoctorHistoryRepository()
	allergyRepo := repository.NewAllergyRepository()
	medicationRepo := repository.NewMedicationRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	// Initialize services
	auditService := service.NewAuditService(log, auditLogRepo)
	ledger := service.NewFamilyDoctorLedgerService(log, historyRepo, appMetrics)
	tokenStore := service.NewRedisTokenStore(redisClient, log)

	// Initialize usecases
	patientUsecase := usecase.NewPatientProfileUsecase(log, transactor, userRepo, patientProfileRepo, doctorProfileRepo, historyRepo, auditService, ledger)
	doctorUsecase := usecase.NewDoctorProfileUsecase(log, transactor, userRepo, doctorProfileRepo, patientProfileRepo, appointmentRepo, auditService, ledger)
	requestUsecase := usecase.NewFamilyDoctorRequestUsecase(log, transactor, requestRepo, patientProfileRepo, doctorProfileRepo, auditService, ledger)
	appointmentUsecase := usecase.NewAppointmentUsecase(log, transactor, appointmentRepo, doctorProfileRepo, patientProfileRepo, auditService, locker, appMetrics, cfg.App.Timezone)
	medicalRecordUsecase := usecase.NewMedicalRecordUsecase(log, transactor, patientProfileRepo, allergyRepo, medicationRepo, auditService)
	auditLogUsecase := usecase.NewAuditLogUsecase(log, transactor, auditLogRepo)
	authUsecase := usecase.NewAuthUsecase(log, transactor, userRepo, doctorProfileRepo, patientProfileRepo, patientUsecase, auditService, jwtService, tokenStore)

	// Initialize handlers
	handlers := deliveryHttp.Handlers{
		Auth:                handler.NewAuthHandler(authUsecase, customValidator),
		Doctor:              handler.NewDoctorHandler(doctorUsecase, customValidator),
		Patient:             handler.NewPatientHandler(patientUsecase, customValidator),
		MedicalRecord:       handler.NewMedicalRecordHandler(medicalRecordUsecase, customValidator),
		FamilyDoctorRequest: handler.NewFamilyDoctorRequestHandler(requestUsecase, customValidator),
		Appointment:         handler.NewAppointmentHandler(appointmentUsecase, customValidator),
		AuditLog:            handler.NewAuditLogHandler(auditLogUsecase),
		Health: handler.NewHealthHandler(map[string]handler.HealthCheck{
			"postgres": func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		}),
		Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(authUsecase)
	corsMiddleware := middleware.NewCORSMiddleware()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	metricsMiddleware := middleware.NewMetricsMiddleware(appMetrics, log)

	// Initialize router
	router := deliveryHttp.NewRouter(handlers, authMiddleware, corsMiddleware, rateLimitMiddleware, metricsMiddleware)

	// Create server
	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	return &http.Server{
		Addr:              serverAddr,
		Handler:           middleware.Recovery(log)(router.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	// Start server in goroutine
	go func() {
		app.Log.WithFields(logrus.Fields{
			"port": app.Config.App.Port,
			"env":  app.Config.App.Env,
		}).Info("Server starting")
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Log.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	app.Log.Info("Server shutdown complete")
}

// Close stops the booking locker and closes the database and redis connections.
func (app *App) Close() {
	if app.Locker != nil {
		app.Locker.Stop()
	}

	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
