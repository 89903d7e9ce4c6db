package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	pgRepo "infospace/internal/infra/adapter/persistence/postgres"
	"infospace/internal/infra/db"
	"infospace/internal/infra/fetcher"
	llmProvider "infospace/internal/infra/provider/llm"
	"infospace/internal/infra/scraper"
	"infospace/internal/infra/storage"
	workerPkg "infospace/internal/infra/worker"
	hhttp "infospace/internal/handler/http/respond"
	"infospace/internal/domain/entity"
	"infospace/internal/registry"
	"infospace/internal/repository"
	annotationUC "infospace/internal/usecase/annotation"
	"infospace/internal/usecase/ingest"
	"infospace/internal/usecase/processor"
	"infospace/pkg/config"
)

func waitForMigrations(logger *slog.Logger, db *sql.DB) {
	const probe = "SELECT 1 FROM sources LIMIT 1"
	for i := 0; i < 10; i++ {
		if _, err := db.Exec(probe); err == nil {
			return
		}
		logger.Info("waiting for migrations, retrying in 3s", slog.Int("attempt", i+1))
		time.Sleep(3 * time.Second)
	}
	logger.Error("migrations did not complete in time")
	os.Exit(1)
}

func main() {
	logger := initLogger()
	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workerMetrics := workerPkg.NewWorkerMetrics()
	workerMetrics.MustRegister()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Int("run_exec_max_concurrent", workerConfig.RunExecMaxConcurrent),
		slog.Duration("crawl_timeout", workerConfig.CrawlTimeout),
		slog.Int("health_port", workerConfig.HealthPort))

	startMetricsServer(ctx, logger)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", healthAddr))

	stack := setupWorkerStack(logger, database)

	startCronWorker(logger, stack, workerConfig, workerMetrics, healthServer)
}

// initLogger initializes and returns a structured logger based on environment configuration.
func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// initDatabase opens the database connection and waits for migrations to complete.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	waitForMigrations(logger, database)
	return database
}

// workerStack bundles the repositories and use cases the cron ticks drive:
// RSS polling via the ingestion router, and annotation run execution.
type workerStack struct {
	SourceRepo    repository.SourceRepository
	Router        *ingest.Router
	AnnotationSvc *annotationUC.Service
	RunRepo       repository.RunRepository
}

// setupWorkerStack wires the same ingestion router and annotation service
// cmd/api uses, trimmed to what a background worker drives: no HTTP-layer
// export/import, no search/geocoding providers, since the worker never
// serves a request directly.
func setupWorkerStack(logger *slog.Logger, database *sql.DB) *workerStack {
	assetRepo := pgRepo.NewAssetRepo(database)
	sourceRepo := pgRepo.NewSourceRepo(database)
	bundleRepo := pgRepo.NewBundleRepo(database)
	schemaRepo := pgRepo.NewSchemaRepo(database)
	runRepo := pgRepo.NewRunRepo(database)
	annotationRepo := pgRepo.NewAnnotationRepo(database)

	storageRoot := config.GetEnvString("STORAGE_ROOT", "./data/blobs")
	provider, err := storage.NewLocalProvider(storageRoot)
	if err != nil {
		logger.Error("failed to initialize storage provider", slog.Any("error", err))
		os.Exit(1)
	}

	fetchCfg, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		logger.Error("failed to load content fetch configuration", slog.Any("error", err))
		os.Exit(1)
	}
	binaryFetcher := fetcher.NewBinaryFetcher(fetchCfg)
	readabilityFetcher := fetcher.NewReadabilityFetcher(fetchCfg)
	scrapingProvider := ingest.NewScrapingProvider(readabilityFetcher)

	httpClient := createHTTPClient()
	rssFetcher := scraper.NewRSSFetcher(httpClient)
	structuredScrapers := scraper.NewScraperFactory(httpClient).CreateScrapers()

	maxImages := config.GetEnvInt("MAX_IMAGES_PER_ASSET", 20)
	processorRegistry := processor.NewDefaultRegistry(scrapingProvider, maxImages)
	strategy := processor.NewStrategy(config.GetEnvBool("PROCESS_IMMEDIATELY_DEFAULT", false))

	router := ingest.NewRouter(ingest.Dependencies{
		AssetRepo:          assetRepo,
		SourceRepo:         sourceRepo,
		BundleRepo:         bundleRepo,
		Storage:            provider,
		Registry:           processorRegistry,
		Strategy:           strategy,
		BinaryFetcher:      binaryFetcher,
		FeedFetcher:        rssFetcher,
		StructuredScrapers: structuredScrapers,
	})

	var modelProviders []llmProvider.Provider
	defaultModelName := config.GetEnvString("DEFAULT_MODEL_NAME", "")
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		modelProviders = append(modelProviders, llmProvider.NewAnthropicProvider(key))
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		modelProviders = append(modelProviders, llmProvider.NewOpenAIProvider(key))
	}
	modelRegistry := registry.NewModelRegistryService(modelProviders...)

	annotationSvc := annotationUC.NewService(annotationUC.Dependencies{
		RunRepo:          runRepo,
		SchemaRepo:       schemaRepo,
		AssetRepo:        assetRepo,
		AnnotationRepo:   annotationRepo,
		ModelRegistry:    modelRegistry,
		DefaultModelName: defaultModelName,
	})

	return &workerStack{
		SourceRepo:    sourceRepo,
		Router:        router,
		AnnotationSvc: annotationSvc,
		RunRepo:       runRepo,
	}
}

// createHTTPClient creates an HTTP client with timeouts and connection pooling.
// TLS 1.2+ is enforced for security.
func createHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12, // Enforce TLS 1.2+
			},
		},
	}
}

// startCronWorker starts the cron scheduler and runs the poll+execute tick periodically.
func startCronWorker(logger *slog.Logger, stack *workerStack, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics, healthServer *workerPkg.HealthServer) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	_, err = c.AddFunc(cfg.CronSchedule, func() {
		runTick(logger, stack, cfg, metrics)
	})
	if err != nil {
		logger.Error("failed to add cron job", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()

	healthServer.SetReady(true)
	logger.Info("worker marked as ready")

	logger.Info("worker started", slog.String("schedule", cfg.CronSchedule), slog.String("timezone", cfg.Timezone))
	select {}
}

// runTick executes a single poll+execute cycle with timeout and error handling:
// poll every RSS_FEED source for new entries, then drive every pending or
// in-flight annotation run forward.
func runTick(logger *slog.Logger, stack *workerStack, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics) {
	startTime := time.Now()
	metrics.RecordJobRun("started")
	logger.Info("worker tick started")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.CrawlTimeout)
	defer cancel()

	polled, pollErr := pollRSSSources(ctx, logger, stack, cfg.RunExecMaxConcurrent)
	if pollErr != nil {
		logger.Error("RSS polling failed", slog.Any("error", hhttp.SanitizeError(pollErr)))
	}

	executed, execErr := executeAnnotationRuns(ctx, logger, stack, cfg.RunExecMaxConcurrent)
	if execErr != nil {
		logger.Error("annotation run execution failed", slog.Any("error", hhttp.SanitizeError(execErr)))
	}

	if pollErr != nil || execErr != nil {
		metrics.RecordJobRun("failure")
		metrics.RecordJobDuration(time.Since(startTime).Seconds())
		return
	}

	metrics.RecordJobRun("success")
	metrics.RecordJobDuration(time.Since(startTime).Seconds())
	metrics.RecordFeedsProcessed(polled)
	metrics.RecordLastSuccess()

	logger.Info("worker tick completed",
		slog.Int("sources_polled", polled),
		slog.Int("runs_executed", executed),
		slog.Duration("duration", time.Since(startTime)))
}

// pollRSSSources fetches every RSS_FEED source's feed, appending any new
// entries as child assets. Per-source failures are logged and counted but
// don't abort the tick; only context cancellation does.
func pollRSSSources(ctx context.Context, logger *slog.Logger, stack *workerStack, maxConcurrent int) (int, error) {
	sources, err := stack.SourceRepo.ListByKind(ctx, entity.SourceKindRSSFeed)
	if err != nil {
		return 0, fmt.Errorf("list RSS sources: %w", err)
	}

	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	sem := make(chan struct{}, maxConcurrent)
	eg, egCtx := errgroup.WithContext(ctx)
	var polled int64

	for _, source := range sources {
		src := source
		feedURL, _ := src.Details["feed_url"].(string)
		if feedURL == "" {
			logger.Warn("RSS source has no feed_url, skipping", slog.Int64("source_id", src.ID))
			continue
		}

		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			_, err := stack.Router.RSS.Handle(egCtx, src.InfospaceID, src.UserID, src.Name, feedURL, ingest.DefaultOptions())
			if err != nil {
				if ctxErr := egCtx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Warn("RSS poll failed", slog.Int64("source_id", src.ID), slog.Any("error", err))
				msg := err.Error()
				if updErr := stack.SourceRepo.SetErrorMessage(egCtx, src.ID, &msg); updErr != nil {
					logger.Error("failed to record source error", slog.Int64("source_id", src.ID), slog.Any("error", updErr))
				}
				return nil
			}
			atomic.AddInt64(&polled, 1)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return int(atomic.LoadInt64(&polled)), err
	}
	return int(atomic.LoadInt64(&polled)), nil
}

// executeAnnotationRuns drives every PENDING or RUNNING annotation run
// forward via Service.Execute, which is itself idempotent on resume.
func executeAnnotationRuns(ctx context.Context, logger *slog.Logger, stack *workerStack, maxConcurrent int) (int, error) {
	pending, err := stack.RunRepo.ListByStatus(ctx, entity.RunStatusPending)
	if err != nil {
		return 0, fmt.Errorf("list pending runs: %w", err)
	}
	running, err := stack.RunRepo.ListByStatus(ctx, entity.RunStatusRunning)
	if err != nil {
		return 0, fmt.Errorf("list running runs: %w", err)
	}
	runs := append(pending, running...)

	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	sem := make(chan struct{}, maxConcurrent)
	eg, egCtx := errgroup.WithContext(ctx)
	var executed int64

	for _, run := range runs {
		r := run
		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := stack.AnnotationSvc.Execute(egCtx, r.ID); err != nil {
				if ctxErr := egCtx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Warn("annotation run execution failed", slog.Int64("run_id", r.ID), slog.Any("error", err))
				return nil
			}
			atomic.AddInt64(&executed, 1)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return int(atomic.LoadInt64(&executed)), err
	}
	return int(atomic.LoadInt64(&executed)), nil
}
