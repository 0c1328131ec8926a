package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/nyaya-labs/sahayak/internal/domain"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	// Optional: without a database the server runs on the in-memory index.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Path to the JSONL corpus file served to the indexing pipeline.
	CorpusPath string `envconfig:"CORPUS_PATH" default:"data/cases.jsonl"`

	LLMAPIKey  string `envconfig:"LLM_API_KEY"`
	LLMBaseURL string `envconfig:"LLM_BASE_URL" default:"https://openrouter.ai/api/v1"`

	GenerationModel     string `envconfig:"GENERATION_MODEL" default:"openai/gpt-4o-mini"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`

	ChunkSize      int `envconfig:"CHUNK_SIZE" default:"1024"`
	ChunkOverlap   int `envconfig:"CHUNK_OVERLAP" default:"128"`
	IndexBatchSize int `envconfig:"INDEX_BATCH_SIZE" default:"100"`

	TopKCases     int `envconfig:"TOP_K_CASES" default:"5"`
	SegmentFanout int `envconfig:"SEGMENT_FANOUT" default:"7"`
	CasesAnalyzed int `envconfig:"CASES_ANALYZED" default:"5"`

	// Per-stage budgets for generation/embedding calls. The embedding
	// timeout bounds the whole retrieval stage, embed plus index search.
	AnalysisTimeout  time.Duration `envconfig:"ANALYSIS_TIMEOUT" default:"20s"`
	EmbeddingTimeout time.Duration `envconfig:"EMBEDDING_TIMEOUT" default:"30s"`
	SummaryTimeout   time.Duration `envconfig:"SUMMARY_TIMEOUT" default:"30s"`
	SynthesisTimeout time.Duration `envconfig:"SYNTHESIS_TIMEOUT" default:"60s"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("SAHAYAK", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// Validate rejects settings that would corrupt indexing or retrieval.
// Segmentation bounds are checked here, at startup, never at call time.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return domain.NewDomainError(domain.ErrCodeConfiguration, "chunk size must be positive")
	}
	if c.ChunkOverlap < 0 {
		return domain.NewDomainError(domain.ErrCodeConfiguration, "chunk overlap cannot be negative")
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return domain.ErrInvalidChunkConfig
	}
	if c.IndexBatchSize <= 0 {
		return domain.NewDomainError(domain.ErrCodeConfiguration, "index batch size must be positive")
	}
	if c.EmbeddingDimensions <= 0 {
		return domain.NewDomainError(domain.ErrCodeConfiguration, "embedding dimensions must be positive")
	}
	if c.SegmentFanout < c.TopKCases {
		return domain.NewDomainError(domain.ErrCodeConfiguration, "segment fanout must be at least top-k cases")
	}
	return nil
}

func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

func (c *Config) HasLLM() bool {
	return c.LLMAPIKey != ""
}
