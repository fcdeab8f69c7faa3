package fusion

import (
	"strings"

	"github.com/aruiz/feinscan/internal/config"
	"github.com/aruiz/feinscan/internal/domain/docModel"
)

// Cross-field sanity rules. A violation never deletes a field; it only
// shaves the confidence of the weaker side and records a reviewer warning.

const (
	RateTypeFixed    = "fijo"
	RateTypeVariable = "variable"
	RateTypeMixed    = "mixto"
)

func validateCoherence(fields map[string]docModel.FieldValue, text string) ([]string, string) {
	var warnings []string

	warnings = append(warnings, checkAPRAboveNominal(fields)...)

	rateType := inferRateType(fields, text)
	warnings = append(warnings, demoteVariableFieldsForFixedRate(fields, rateType)...)

	return warnings, rateType
}

// checkAPRAboveNominal enforces APR >= nominal rate: the APR folds fees on
// top of the nominal rate, so the inversion means at least one of the two
// was misread. The less-confident one takes the hit.
func checkAPRAboveNominal(fields map[string]docModel.FieldValue) []string {
	nominal, okN := numericField(fields, docModel.FieldNominalRate)
	apr, okA := numericField(fields, docModel.FieldAPR)
	if !okN || !okA || apr >= nominal {
		return nil
	}

	target := docModel.FieldAPR
	if fields[docModel.FieldNominalRate].Confidence < fields[docModel.FieldAPR].Confidence {
		target = docModel.FieldNominalRate
	}
	penalize(fields, target)
	return []string{"La TAE es inferior al TIN; revise ambos tipos de interés."}
}

// inferRateType reads the declared rate type from the text, falling back to
// the presence of variable-rate evidence.
func inferRateType(fields map[string]docModel.FieldValue, text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "tipo mixto") || strings.Contains(lower, "interés mixto"):
		return RateTypeMixed
	case strings.Contains(lower, "tipo fijo") || strings.Contains(lower, "interés fijo"):
		return RateTypeFixed
	case strings.Contains(lower, "tipo variable") || strings.Contains(lower, "interés variable"):
		return RateTypeVariable
	}
	_, hasIndex := fields[docModel.FieldReferenceIndex]
	_, hasSpread := fields[docModel.FieldSpread]
	if hasIndex || hasSpread {
		return RateTypeVariable
	}
	return RateTypeFixed
}

// demoteVariableFieldsForFixedRate lowers index/spread confidence when the
// document declares a fixed rate: a matched "diferencial" in a fixed-rate
// offer is usually boilerplate from an unused section.
func demoteVariableFieldsForFixedRate(fields map[string]docModel.FieldValue, rateType string) []string {
	if rateType != RateTypeFixed {
		return nil
	}
	var warnings []string
	for _, f := range []string{docModel.FieldReferenceIndex, docModel.FieldSpread} {
		if _, present := fields[f]; present {
			penalize(fields, f)
			if warnings == nil {
				warnings = append(warnings, "El préstamo parece de tipo fijo pero se detectó índice o diferencial; revise esos campos.")
			}
		}
	}
	return warnings
}

func penalize(fields map[string]docModel.FieldValue, field string) {
	fv := fields[field]
	fv.Confidence = clamp01(fv.Confidence * config.CoherencePenalty)
	fields[field] = fv
}

func numericField(fields map[string]docModel.FieldValue, field string) (float64, bool) {
	fv, present := fields[field]
	if !present {
		return 0, false
	}
	v, err := ParseNumber(fv.Value)
	if err != nil {
		return 0, false
	}
	return v, true
}
