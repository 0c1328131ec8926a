package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/nyaya-labs/sahayak/internal/api/handlers"
	"github.com/nyaya-labs/sahayak/internal/config"
	"github.com/nyaya-labs/sahayak/internal/corpus"
	"github.com/nyaya-labs/sahayak/internal/database"
	"github.com/nyaya-labs/sahayak/internal/domain"
	"github.com/nyaya-labs/sahayak/internal/index"
	"github.com/nyaya-labs/sahayak/internal/jobs"
	"github.com/nyaya-labs/sahayak/internal/openai"
	"github.com/nyaya-labs/sahayak/internal/repository"
	"github.com/nyaya-labs/sahayak/internal/server"
	"github.com/nyaya-labs/sahayak/internal/service"
	"github.com/nyaya-labs/sahayak/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the sahayak API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	var llm *openai.Client
	if cfg.HasLLM() {
		llm = openai.NewClientWithConfig(openai.Config{
			APIKey:              cfg.LLMAPIKey,
			BaseURL:             cfg.LLMBaseURL,
			EmbeddingModel:      goopenai.EmbeddingModel(cfg.EmbeddingModel),
			GenerationModel:     cfg.GenerationModel,
			EmbeddingDimensions: cfg.EmbeddingDimensions,
		})
	} else {
		log.Println("no LLM API key configured; query and index endpoints will refuse requests")
	}

	var (
		vecIndex   service.VectorIndex
		caseWriter service.CaseWriter
		caseReader handlers.CaseReader
		titles     service.TitleSource
		jobStore   handlers.IndexJobStore
		jobWorker  *jobs.Worker
	)

	if cfg.HasDatabase() {
		pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()
		log.Println("connected to database")

		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			if err := runMigrations(cfg.DatabaseURL); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		caseRepo := repository.NewCaseRepository(pool)
		segmentRepo := repository.NewSegmentRepository(pool, cfg.EmbeddingDimensions)
		jobRepo := repository.NewIndexJobRepository(pool)

		vecIndex = segmentRepo
		caseWriter = caseRepo
		caseReader = caseRepo
		titles = caseRepo
		jobStore = jobRepo

		if llm != nil {
			indexerSvc, err := newIndexer(llm, vecIndex, caseWriter, cfg)
			if err != nil {
				return err
			}
			indexWorker := jobs.NewIndexWorker(jobRepo, caseRepo, indexerSvc)
			jobWorker = jobs.NewWorker(indexWorker, 10*time.Second)
			go jobWorker.Start(ctx)
			log.Println("index worker started")
		}
	} else {
		log.Println("no DATABASE_URL configured; running on the in-memory index")
		memStore := index.NewStore(cfg.EmbeddingDimensions)
		caseStore := index.NewCaseStore()

		vecIndex = memStore
		caseWriter = caseStore
		caseReader = caseStore
		titles = caseStore
	}

	corpusSource := corpus.FileSource{Path: cfg.CorpusPath}

	// The in-memory index starts empty, so fill it from the corpus file.
	if llm != nil && !cfg.HasDatabase() {
		indexerSvc, err := newIndexer(llm, vecIndex, caseWriter, cfg)
		if err != nil {
			return err
		}
		go func() {
			records, skipped, err := corpusSource.LoadCorpus(ctx)
			if err != nil {
				log.Printf("startup indexing: failed to load corpus: %v", err)
				return
			}
			for _, msg := range skipped {
				log.Printf("startup indexing: skipped %s", msg)
			}
			report, err := indexerSvc.IndexCorpus(ctx, records)
			if err != nil {
				log.Printf("startup indexing failed: %v", err)
				return
			}
			log.Printf("startup indexing: %d cases, %d segments, %d rejected",
				report.CasesIndexed, report.SegmentsIndexed, len(report.Errors))
		}()
	}

	statusIndexer, err := newIndexer(llm, vecIndex, caseWriter, cfg)
	if err != nil {
		return err
	}

	var querySvc handlers.LegalQueryService = noOpQueryService{}
	var corpusIndexer handlers.CorpusIndexer = noOpIndexer{}
	if llm != nil {
		retrievalSvc := service.NewRetrievalService(llm, vecIndex, service.RetrievalConfig{
			TopKCases:     cfg.TopKCases,
			SegmentFanout: cfg.SegmentFanout,
		})
		querySvc = service.NewWorkflowService(llm, retrievalSvc, service.WorkflowConfig{
			TopKCases:        cfg.TopKCases,
			CasesAnalyzed:    cfg.CasesAnalyzed,
			AnalysisTimeout:  cfg.AnalysisTimeout,
			RetrievalTimeout: cfg.EmbeddingTimeout,
			SummaryTimeout:   cfg.SummaryTimeout,
			SynthesisTimeout: cfg.SynthesisTimeout,
		})
		corpusIndexer = statusIndexer
	}

	routerCfg := server.RouterConfig{
		QueryHandler:      handlers.NewQueryHandler(querySvc),
		IndexHandler:      handlers.NewIndexHandler(corpusIndexer, corpusSource, jobStore),
		CaseHandler:       handlers.NewCaseHandler(caseReader),
		SuggestionHandler: handlers.NewSuggestionHandler(service.NewSuggestionService(titles)),
		StatusHandler:     handlers.NewStatusHandler(statusIndexer, llm != nil),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if jobWorker != nil {
		jobWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func newIndexer(llm *openai.Client, vecIndex service.VectorIndex, caseWriter service.CaseWriter, cfg *config.Config) (*service.IndexerService, error) {
	var embedding service.EmbeddingClient
	if llm != nil {
		embedding = llm
	}
	svc, err := service.NewIndexerService(embedding, vecIndex, caseWriter, service.IndexerConfig{
		ChunkSize: cfg.ChunkSize,
		Overlap:   cfg.ChunkOverlap,
		BatchSize: cfg.IndexBatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build indexer: %w", err)
	}
	return svc, nil
}

type noOpQueryService struct{}

func (noOpQueryService) AnswerQuery(ctx context.Context, query string, opts service.QueryOptions) (*domain.StructuredAnswer, error) {
	return nil, domain.ErrMissingAPIKey
}

type noOpIndexer struct{}

func (noOpIndexer) IndexCorpus(ctx context.Context, records []domain.CaseRecord) (*domain.IndexingReport, error) {
	return nil, domain.ErrMissingAPIKey
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	// Create postgres driver instance
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Create migrate instance with file source
	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	// Run migrations
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Get migration version and status
	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
