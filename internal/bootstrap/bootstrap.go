package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/curricula/internal/app/auth"
	appControllers "github.com/yigit/curricula/internal/app/controllers"
	appMigrations "github.com/yigit/curricula/internal/app/migrations"
	appRepos "github.com/yigit/curricula/internal/app/repositories"
	appRoutes "github.com/yigit/curricula/internal/app/routes"
	appServices "github.com/yigit/curricula/internal/app/services"
	"github.com/yigit/curricula/internal/config"
	"github.com/yigit/curricula/internal/cron"
	"github.com/yigit/curricula/internal/db"
	appMiddleware "github.com/yigit/curricula/internal/middleware"
	pkgAuth "github.com/yigit/curricula/internal/pkg/auth"
	"github.com/yigit/curricula/internal/pkg/helpers"
	"github.com/yigit/curricula/internal/pkg/logger"
	"github.com/yigit/curricula/internal/pkg/webhook"
	"github.com/yigit/curricula/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos        *appRepos.Repositories
	JWTService   *pkgAuth.JWTService
	AuthzService *appAuth.AuthorizationService

	ProfileService    appServices.ProfileService
	ProgramService    appServices.ProgramService
	AssignmentService appServices.AssignmentService
	ProgressService   appServices.ProgressService
	LearningService   appServices.LearningService
	AnalysisService   appServices.AnalysisService

	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	Scheduler      *cron.Scheduler
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = filepath.Join("configs", "config.yaml")
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and loads starter data.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool
	lgr.Info().Msg("Database connection successfully established.")

	migrationsDir := cfg.Server.MigrationsDir
	if _, err := os.Stat(migrationsDir); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Str("dir", migrationsDir).Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool, logger.Component("migrator"))
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	if err := seed.CreateDefaultData(ctx, appRepos.NewProgramRepository(dbPool), lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// BuildDependencies wires repositories, services, controllers and background jobs.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}
	deps.Repos = appRepos.NewRepositories(dbPool)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:   cfg.JWT.Secret,
		TokenIssuer: cfg.JWT.Issuer,
	})
	deps.AuthzService = appAuth.NewAuthorizationService()

	analysisClient := webhook.NewClient(webhook.Config{
		URL:     cfg.Analysis.WebhookURL,
		Token:   cfg.Analysis.WebhookToken,
		Timeout: helpers.ParseDuration(cfg.Analysis.WebhookTimeout, 10*time.Minute),
	}, nil)
	if !analysisClient.Configured() {
		lgr.Warn().Msg("ANALYSIS_WEBHOOK_URL not set, profile analysis jobs will fail")
	}

	deps.ProfileService = appServices.NewProfileService(
		deps.Repos.UserRepository,
		deps.Repos.ProfileRepository,
		deps.AuthzService,
		logger.Component("profiles"),
	)
	deps.ProgramService = appServices.NewProgramService(
		deps.Repos.ProgramRepository,
		deps.AuthzService,
		logger.Component("programs"),
	)
	deps.AssignmentService = appServices.NewAssignmentService(
		deps.Repos.AssignmentRepository,
		deps.Repos.ProgramRepository,
		deps.ProfileService,
		deps.AuthzService,
		cfg.Assignment.BatchConcurrency,
		logger.Component("assignments"),
	)
	deps.ProgressService = appServices.NewProgressService(
		deps.Repos.ProgressRepository,
		deps.ProfileService,
		deps.AuthzService,
		logger.Component("progress"),
	)
	deps.LearningService = appServices.NewLearningService(
		deps.Repos.LearningRecordRepository,
		deps.Repos.AssignmentRepository,
		deps.ProfileService,
		deps.AuthzService,
		logger.Component("learning"),
	)
	deps.AnalysisService = appServices.NewAnalysisService(
		deps.Repos.AnalysisJobRepository,
		deps.LearningService,
		deps.ProfileService,
		deps.AuthzService,
		analysisClient,
		appServices.AnalysisOptions{
			Workers:      cfg.Analysis.Workers,
			PollInterval: helpers.ParseDuration(cfg.Analysis.PollInterval, 5*time.Second),
			StaleAfter:   helpers.ParseDuration(cfg.Analysis.StaleAfter, 2*time.Hour),
		},
		logger.Component("analysis"),
	)

	deps.Scheduler = cron.NewScheduler(logger.Component("cron"), time.Minute)
	err := deps.Scheduler.AddJob("sweep-stale-analysis-jobs", cfg.Analysis.SweepSchedule, func(ctx context.Context) error {
		_, err := deps.AnalysisService.SweepStale(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)
	deps.Controllers = appRoutes.Controllers{
		Program:    appControllers.NewProgramController(deps.ProgramService),
		Assignment: appControllers.NewAssignmentController(deps.AssignmentService),
		Student:    appControllers.NewStudentController(deps.ProfileService, deps.ProgressService),
		Learning:   appControllers.NewLearningController(deps.LearningService),
		Analysis:   appControllers.NewAnalysisController(deps.AnalysisService),
		Health:     appControllers.NewHealthController(dbPool),
	}

	if cfg.Server.SeedDemoData {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := seed.CreateDemoUsers(ctx, deps.Repos.UserRepository, deps.Repos.ProfileRepository, deps.JWTService, lgr); err != nil {
			lgr.Error().Err(err).Msg("Failed to create demo users, proceeding anyway...")
		}
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(
		appMiddleware.RequestID(),
		appMiddleware.RequestLogger(logger.Component("http")),
		appMiddleware.RecoveryHandler(),
	)

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "route not found"})
	})

	return router
}
