package pipeline

import (
	"context"
	"time"

	"github.com/aruiz/feinscan/internal/config"
	"github.com/aruiz/feinscan/internal/domain/docModel"
	"github.com/aruiz/feinscan/internal/fusion"
	"github.com/aruiz/feinscan/internal/metrics"
	"github.com/aruiz/feinscan/internal/recognition"
	"github.com/aruiz/feinscan/pkg/logger_i"
)

// Service runs the full extraction pipeline over one document:
// segment -> recognize (batched) -> aggregate -> fuse.
type Service struct {
	recognizer recognition.Recognizer
	logger     *logger_i.Logger
}

func NewService(rec recognition.Recognizer) *Service {
	return &Service{
		recognizer: rec,
		logger:     logger_i.NewLogger("Pipeline"),
	}
}

// RunStats is the progress metadata attached to jobs.
type RunStats struct {
	TotalPages int
	ChunkCount int
	Elapsed    time.Duration
}

// Run executes the pipeline over an already-validated document. onSegmented,
// when non-nil, is called once the chunk set is known so the async path can
// publish progress. The document's content is owned by the run; callers must
// not mutate it afterwards.
func (s *Service) Run(ctx context.Context, doc docModel.Document, onSegmented func(totalPages, chunkCount int)) (*docModel.ExtractionResult, RunStats, error) {
	start := time.Now()
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "documentId", doc.Id)
	stats := RunStats{TotalPages: doc.PageCount}

	chunks, err := Segment(doc, config.ChunkSizePages)
	if err != nil {
		log.Error("Segmentation failed", "error", err)
		return nil, stats, err
	}
	stats.ChunkCount = len(chunks)
	if onSegmented != nil {
		onSegmented(doc.PageCount, len(chunks))
	}
	log.Debug("Document segmented", "pages", doc.PageCount, "chunks", len(chunks))

	results := RunChunks(ctx, chunks, s.recognizer, config.MaxConcurrentChunks, doc.MediaType)

	agg, err := Aggregate(results, config.ChunkSizePages)
	if err != nil {
		log.Error("Aggregation failed", "error", err)
		return nil, stats, err
	}
	log.Debug("Chunks aggregated", "entities", len(agg.Entities), "textBytes", len(agg.Text))

	result := fusion.Normalize(agg, doc.Id, config.ProviderTag)
	stats.Elapsed = time.Since(start)
	metrics.CaptureExecutionMetrics("pipeline", stats.Elapsed)
	log.Info("Extraction finished",
		"fields", len(result.Fields),
		"globalConfidence", result.GlobalConfidence,
		"pending", len(result.PendingFields),
		"elapsed", stats.Elapsed)
	return result, stats, nil
}
