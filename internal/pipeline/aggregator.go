package pipeline

import (
	"strings"

	"github.com/aruiz/feinscan/internal/domain/docModel"
)

// Aggregate merges ordered chunk results into one document-level view. Page
// references inside entities are chunk-local; for chunk i (0-indexed) they
// are rewritten to ref + i*chunkSize. The first failed chunk aborts the
// whole document - page correction assumes a complete chunk set - and its
// 1-based index is surfaced for user messages. Pure function.
func Aggregate(results []docModel.RecognitionResult, chunkSize int) (docModel.AggregatedDocument, error) {
	for i, r := range results {
		if !r.Success {
			return docModel.AggregatedDocument{}, &docModel.ChunkRecognitionError{Index: i + 1, Err: r.Err}
		}
	}

	var agg docModel.AggregatedDocument
	texts := make([]string, 0, len(results))
	for i, r := range results {
		offset := i * chunkSize
		for _, e := range r.Entities {
			if len(e.PageRefs) > 0 {
				corrected := make([]int, len(e.PageRefs))
				for j, ref := range e.PageRefs {
					corrected[j] = ref + offset
				}
				e.PageRefs = corrected
			}
			agg.Entities = append(agg.Entities, e)
		}
		if r.Text != "" {
			texts = append(texts, r.Text)
		}
	}
	agg.Text = strings.TrimSpace(strings.Join(texts, "\n"))
	return agg, nil
}
