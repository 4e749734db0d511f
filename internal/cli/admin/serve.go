package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cloo-solutions/geotrack/internal/api/handlers"
	"github.com/cloo-solutions/geotrack/internal/config"
	"github.com/cloo-solutions/geotrack/internal/database"
	"github.com/cloo-solutions/geotrack/internal/jobs"
	"github.com/cloo-solutions/geotrack/internal/logging"
	"github.com/cloo-solutions/geotrack/internal/nlp"
	"github.com/cloo-solutions/geotrack/internal/openai"
	"github.com/cloo-solutions/geotrack/internal/provider"
	"github.com/cloo-solutions/geotrack/internal/repository"
	"github.com/cloo-solutions/geotrack/internal/server"
	"github.com/cloo-solutions/geotrack/internal/service"
	"github.com/cloo-solutions/geotrack/internal/storage"
	"github.com/cloo-solutions/geotrack/internal/telemetry"
)

const shutdownTimeout = 30 * time.Second

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the geotrack API server, the batch job controller and the topics worker",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().String("migrations", database.DefaultMigrationsSource, "Migrations source URL")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetString("port")
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	shutdownTelemetry, err := telemetry.Init(telemetry.Config{
		DSN:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate(),
		Debug:            cfg.Debug,
	}, logger)
	if err != nil {
		logger.Warn("telemetry init failed, continuing without tracing", zap.Error(err))
	} else {
		defer shutdownTelemetry()
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("connected to database")

	if noMigrate, _ := cmd.Flags().GetBool("no-migrate"); !noMigrate {
		source, _ := cmd.Flags().GetString("migrations")
		if err := database.Migrate(cfg.DatabaseURL, source, logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	app, err := buildApp(ctx, cfg, pool, logger)
	if err != nil {
		return err
	}

	worker := jobs.NewWorker(app.topicsWorker, cfg.TopicsPollInterval, logger.Named("topics"))
	go worker.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down...")

	worker.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if err := app.controller.Wait(shutdownCtx); err != nil {
		logger.Warn("batch jobs still running at shutdown", zap.Error(err))
	}
	if app.closeStore != nil {
		app.closeStore()
	}

	logger.Info("server exited")
	return nil
}

type app struct {
	router       http.Handler
	controller   *jobs.Controller
	topicsWorker *jobs.TopicsWorker
	closeStore   func()
}

// buildApp wires repositories, providers, services and handlers.
func buildApp(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *zap.Logger) (*app, error) {
	projectRepo := repository.NewProjectRepository(pool)
	promptRepo := repository.NewPromptRepository(pool)
	analysisRepo := repository.NewAnalysisRepository(pool)

	gateway, err := provider.New(ctx, providerSettings(cfg), logger.Named("provider"))
	if err != nil {
		return nil, fmt.Errorf("failed to create provider gateway: %w", err)
	}

	executionSvc := service.NewExecutionService(promptRepo, repository.NewTxRunner(pool), gateway, logger.Named("execution"))

	var archive handlers.DownloadURLGenerator
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		logger.Info("raw payload archive ready", zap.String("bucket", cfg.S3Bucket))
		executionSvc.WithArchive(s3Client)
		archive = s3Client
	}

	dict := nlp.DefaultDictionaries()
	if err := dict.SetDefaultSector(cfg.DefaultSector); err != nil {
		return nil, fmt.Errorf("invalid default sector: %w", err)
	}
	topicsSvc := service.NewTopicsService(analysisRepo, projectRepo, nlp.NewClassifier(dict, logger.Named("nlp")), logger.Named("topics"))

	var store jobs.Store
	var closeStore func()
	if cfg.HasRedis() {
		client, err := jobs.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		store = jobs.NewRedisStore(client, cfg.JobTTL)
		closeStore = func() { _ = client.Close() }
		logger.Info("job store: redis", zap.Duration("ttl", cfg.JobTTL))
	} else {
		store = jobs.NewMemoryStore(cfg.JobRetention)
		logger.Info("job store: memory", zap.Int("retention", cfg.JobRetention))
	}
	controller := jobs.NewController(executionSvc, promptRepo, store, cfg.JobConcurrency, logger.Named("jobs"))

	router := server.NewRouter(server.RouterConfig{
		APIToken:         cfg.APIToken,
		Logger:           logger.Named("http"),
		ExecutionHandler: handlers.NewExecutionHandler(executionSvc),
		JobHandler:       handlers.NewJobHandler(controller, projectRepo),
		AnalyzeHandler:   handlers.NewAnalyzeHandler(topicsSvc),
		AnalysisHandler:  handlers.NewAnalysisHandler(analysisRepo, archive, logger.Named("http")),
	})
	if cfg.APIToken == "" {
		logger.Warn("API_TOKEN not set, the API is unauthenticated")
	}

	return &app{
		router:       router,
		controller:   controller,
		topicsWorker: jobs.NewTopicsWorker(topicsSvc, cfg.TopicsBatchSize, logger.Named("topics")),
		closeStore:   closeStore,
	}, nil
}

func providerSettings(cfg *config.Config) provider.Settings {
	return provider.Settings{
		OpenAI: openai.Config{
			APIKey:        cfg.OpenAIAPIKey,
			BaseURL:       cfg.OpenAIBaseURL,
			WebSearch:     cfg.OpenAIWebSearch,
			FallbackModel: cfg.OpenAIFallbackModel,
		},
		Anthropic: provider.AnthropicConfig{
			APIKey:  cfg.AnthropicAPIKey,
			BaseURL: cfg.AnthropicBaseURL,
			Version: cfg.AnthropicVersion,
		},
		Google: provider.GoogleConfig{
			APIKey:  cfg.GoogleAPIKey,
			BaseURL: cfg.GoogleBaseURL,
		},
		Timeout: cfg.RequestTimeout,
	}
}
