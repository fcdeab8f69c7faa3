package pipeline

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aruiz/feinscan/internal/domain/docModel"
	"github.com/aruiz/feinscan/internal/metrics"
	"github.com/aruiz/feinscan/internal/recognition"
)

// RunChunks drives the recognition backend over all chunks with at most
// batchSize calls in flight. Chunks are processed in sequential batches and
// every batch is awaited as a unit, which bounds backend load
// deterministically. Output order always matches chunk index order, and a
// failed chunk never short-circuits the run - the aggregator decides what a
// failure means.
func RunChunks(ctx context.Context, chunks []docModel.Chunk, rec recognition.Recognizer, batchSize int, mediaType string) []docModel.RecognitionResult {
	if batchSize < 1 {
		batchSize = 1
	}
	results := make([]docModel.RecognitionResult, len(chunks))

	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		eg, gctx := errgroup.WithContext(ctx)
		for _, chunk := range chunks[start:end] {
			eg.Go(func() error {
				results[chunk.Index] = recognizeOne(gctx, chunk, rec, mediaType)
				return nil
			})
		}
		_ = eg.Wait() //workers never return errors, only recorded failures
	}
	return results
}

func recognizeOne(ctx context.Context, chunk docModel.Chunk, rec recognition.Recognizer, mediaType string) docModel.RecognitionResult {
	start := time.Now()
	resp, err := rec.Recognize(ctx, chunk.Content, mediaType)
	metrics.CaptureExecutionMetrics("recognition", time.Since(start))

	result := docModel.RecognitionResult{ChunkIndex: chunk.Index}
	switch {
	case err != nil:
		result.Err = err
	case !resp.Success:
		result.Err = errors.New(backendErrorMessage(resp.Error))
	default:
		result.Success = true
		result.Entities = resp.Entities
		result.Text = resp.Text
	}
	return result
}

func backendErrorMessage(msg string) string {
	if msg == "" {
		return "backend reported failure"
	}
	return msg
}
