package fusion

import (
	"strings"

	"github.com/aruiz/feinscan/internal/config"
	"github.com/aruiz/feinscan/internal/domain/docModel"
)

// The critical fields drive the record-level confidence. Weights sum to 1
// over the full set; when a field is missing it drops out of both numerator
// and denominator.
var criticalFields = []struct {
	field  string
	weight float64
}{
	{docModel.FieldPrincipal, 0.30},
	{docModel.FieldNominalRate, 0.25},
	{docModel.FieldTermMonths, 0.15},
	{docModel.FieldAPR, 0.15},
	{docModel.FieldMonthlyPayment, 0.15},
}

// globalConfidence is the weighted average over present critical fields.
// When every contributor is pattern-sourced the result is clamped into the
// pattern band: a record with no structured evidence at all cannot claim
// more certainty than its weakest kind of source allows.
func globalConfidence(fields map[string]docModel.FieldValue) float64 {
	var num, den float64
	entityEvidence := false
	present := 0

	for _, cf := range criticalFields {
		fv, ok := fields[cf.field]
		if !ok {
			continue
		}
		present++
		num += fv.Confidence * cf.weight
		den += cf.weight
		if strings.HasPrefix(fv.Source, "entity:") {
			entityEvidence = true
		}
	}
	if present == 0 {
		return 0
	}

	avg := num / den
	if !entityEvidence {
		if avg < config.PatternConfidenceFloor {
			avg = config.PatternConfidenceFloor
		}
		if avg > config.PatternConfidenceCeil {
			avg = config.PatternConfidenceCeil
		}
	}
	return clamp01(avg)
}

// pendingFields lists critical fields a reviewer should look at: missing
// entirely or below the review threshold. Capped so the reviewer is not
// flooded.
func pendingFields(fields map[string]docModel.FieldValue) []string {
	var pending []string
	for _, cf := range criticalFields {
		fv, ok := fields[cf.field]
		if !ok || fv.Confidence < config.ReviewThreshold {
			pending = append(pending, cf.field)
		}
		if len(pending) == config.MaxPendingFields {
			break
		}
	}
	return pending
}
