package cli

import (
	"context"
	"fmt"
	"log"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/nyaya-labs/sahayak/internal/config"
	"github.com/nyaya-labs/sahayak/internal/corpus"
	"github.com/nyaya-labs/sahayak/internal/database"
	"github.com/nyaya-labs/sahayak/internal/openai"
	"github.com/nyaya-labs/sahayak/internal/repository"
	"github.com/nyaya-labs/sahayak/internal/service"
)

// IndexCmd returns the index command
func IndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index the case corpus into the database",
		Long:  "Load the JSONL corpus file, segment and embed every case, and upsert the segments into the vector index",
		RunE:  runIndex,
	}

	cmd.Flags().String("corpus", "", "Path to the corpus file (overrides SAHAYAK_CORPUS_PATH)")

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.HasLLM() {
		return fmt.Errorf("indexing requires an embedding provider: set SAHAYAK_LLM_API_KEY")
	}
	if !cfg.HasDatabase() {
		return fmt.Errorf("indexing into a persistent store requires SAHAYAK_DATABASE_URL")
	}

	if corpusFlag, _ := cmd.Flags().GetString("corpus"); corpusFlag != "" {
		cfg.CorpusPath = corpusFlag
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := runMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	llm := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.LLMAPIKey,
		BaseURL:             cfg.LLMBaseURL,
		EmbeddingModel:      goopenai.EmbeddingModel(cfg.EmbeddingModel),
		GenerationModel:     cfg.GenerationModel,
		EmbeddingDimensions: cfg.EmbeddingDimensions,
	})

	caseRepo := repository.NewCaseRepository(pool)
	segmentRepo := repository.NewSegmentRepository(pool, cfg.EmbeddingDimensions)

	indexer, err := service.NewIndexerService(llm, segmentRepo, caseRepo, service.IndexerConfig{
		ChunkSize: cfg.ChunkSize,
		Overlap:   cfg.ChunkOverlap,
		BatchSize: cfg.IndexBatchSize,
	})
	if err != nil {
		return fmt.Errorf("failed to build indexer: %w", err)
	}

	records, skipped, err := corpus.LoadFile(cfg.CorpusPath)
	if err != nil {
		return fmt.Errorf("failed to load corpus: %w", err)
	}
	for _, msg := range skipped {
		log.Printf("skipped %s", msg)
	}
	log.Printf("loaded %d case records from %s", len(records), cfg.CorpusPath)

	report, err := indexer.IndexCorpus(ctx, records)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	for _, msg := range report.Errors {
		log.Printf("rejected %s", msg)
	}
	log.Printf("indexed %d cases (%d segments, %d rejected)",
		report.CasesIndexed, report.SegmentsIndexed, len(report.Errors))
	return nil
}
