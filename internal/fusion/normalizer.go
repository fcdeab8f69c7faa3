// Package fusion turns aggregated recognition output into the normalized,
// confidence-scored loan record. Two evidence passes feed each field:
// structured entities first, then deterministic text patterns for whatever
// is still missing. Coherence rules adjust confidence afterwards; nothing
// after the two passes ever adds or removes a value.
package fusion

import (
	"github.com/aruiz/feinscan/internal/domain/docModel"
)

func Normalize(agg docModel.AggregatedDocument, documentId, provider string) *docModel.ExtractionResult {
	fields := make(map[string]docModel.FieldValue)

	applyEntities(fields, agg.Entities)
	applyPatterns(fields, agg.Text)

	warnings, rateType := validateCoherence(fields, agg.Text)

	return &docModel.ExtractionResult{
		DocumentId:       documentId,
		Provider:         provider,
		Fields:           fields,
		GlobalConfidence: globalConfidence(fields),
		PendingFields:    pendingFields(fields),
		Warnings:         warnings,
		RateType:         rateType,
	}
}
