package service

import (
	"context"
	"fmt"

	"github.com/nyaya-labs/sahayak/internal/domain"
	"github.com/nyaya-labs/sahayak/internal/telemetry"
)

// CaseWriter persists case records alongside their index entries.
type CaseWriter interface {
	PutCase(ctx context.Context, record *domain.CaseRecord) error
}

// IndexerConfig bounds segmentation and batch size for one indexing run.
type IndexerConfig struct {
	ChunkSize int
	Overlap   int
	BatchSize int
}

// DefaultIndexerConfig provides the standard indexing bounds.
func DefaultIndexerConfig() IndexerConfig {
	return IndexerConfig{
		ChunkSize: 1024,
		Overlap:   128,
		BatchSize: 100,
	}
}

// IndexerService runs the offline indexing path: segment each case, embed
// segments in fixed-size batches, and upsert the entries. Re-running over
// an unchanged corpus is a no-op thanks to deterministic segment ids.
type IndexerService struct {
	embedding EmbeddingClient
	index     VectorIndex
	cases     CaseWriter
	cfg       IndexerConfig
}

// NewIndexerService creates a new IndexerService instance. cases may be
// nil when no case store is configured.
func NewIndexerService(embedding EmbeddingClient, index VectorIndex, cases CaseWriter, cfg IndexerConfig) (*IndexerService, error) {
	if cfg.ChunkSize <= 0 || cfg.Overlap < 0 || cfg.Overlap >= cfg.ChunkSize {
		return nil, domain.ErrInvalidChunkConfig
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultIndexerConfig().BatchSize
	}
	return &IndexerService{
		embedding: embedding,
		index:     index,
		cases:     cases,
		cfg:       cfg,
	}, nil
}

// IndexCorpus indexes the given records. Malformed records are skipped and
// reported, not fatal. Each batch's upserts commit before the next batch
// starts, so an interrupted run can simply be re-run from the beginning.
func (s *IndexerService) IndexCorpus(ctx context.Context, records []domain.CaseRecord) (*domain.IndexingReport, error) {
	ctx, span := telemetry.StartSpan(ctx, "IndexerService.IndexCorpus", telemetry.SpanAttributes{
		Operation: "index_corpus",
	})
	defer span.End()

	report := &domain.IndexingReport{Errors: []string{}}
	segmentCfg := SegmentConfig{ChunkSize: s.cfg.ChunkSize, Overlap: s.cfg.Overlap}

	pending := make([]domain.Segment, 0, s.cfg.BatchSize)
	pendingMeta := make([]domain.CaseMeta, 0, s.cfg.BatchSize)

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if err := s.flushBatch(ctx, pending, pendingMeta); err != nil {
			return err
		}
		report.SegmentsIndexed += len(pending)
		pending = pending[:0]
		pendingMeta = pendingMeta[:0]
		return nil
	}

	for i := range records {
		record := records[i]
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if err := domain.ValidateCaseRecord(&record); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("case %q: %v", record.CaseID, err))
			continue
		}
		domain.NormalizeCaseRecord(&record)

		if s.cases != nil {
			if err := s.cases.PutCase(ctx, &record); err != nil {
				return report, fmt.Errorf("failed to store case %q: %w", record.CaseID, err)
			}
		}

		segments, err := SegmentCase(record.CaseID, record.FullText, segmentCfg)
		if err != nil {
			return report, err
		}

		meta := domain.MetaFromRecord(&record)
		for _, seg := range segments {
			pending = append(pending, seg)
			pendingMeta = append(pendingMeta, meta)
			if len(pending) >= s.cfg.BatchSize {
				if err := flush(); err != nil {
					return report, err
				}
			}
		}
		report.CasesIndexed++
	}

	if err := flush(); err != nil {
		return report, err
	}
	return report, nil
}

// flushBatch embeds one batch of segments and upserts the resulting
// entries. The batch either lands in full or the run stops.
func (s *IndexerService) flushBatch(ctx context.Context, segments []domain.Segment, meta []domain.CaseMeta) error {
	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}

	vectors, err := s.embedding.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed batch: %w", err)
	}

	entries := make([]domain.IndexEntry, len(segments))
	for i, seg := range segments {
		entries[i] = domain.IndexEntry{
			SegmentID:     seg.SegmentID,
			CaseID:        seg.CaseID,
			Text:          seg.Text,
			SequenceIndex: seg.SequenceIndex,
			StartOffset:   seg.StartOffset,
			EndOffset:     seg.EndOffset,
			Embedding:     vectors[i],
			Meta:          meta[i],
		}
	}

	if err := s.index.Upsert(ctx, entries); err != nil {
		return fmt.Errorf("failed to upsert batch: %w", err)
	}
	return nil
}

// Status reports index readiness for the health surface.
type Status struct {
	IndexedSegments int
	Ready           bool
}

// GetStatus reports the indexed segment count. Ready means at least one
// segment is indexed and a model provider is configured.
func (s *IndexerService) GetStatus(ctx context.Context, providerConfigured bool) (Status, error) {
	count, err := s.index.Count(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("failed to count segments: %w", err)
	}
	return Status{
		IndexedSegments: count,
		Ready:           count > 0 && providerConfigured,
	}, nil
}
