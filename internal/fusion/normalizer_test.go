package fusion

import (
	"strings"
	"testing"

	"github.com/aruiz/feinscan/internal/config"
	"github.com/aruiz/feinscan/internal/domain/docModel"
)

const offerText = `OFERTA VINCULANTE DE PRÉSTAMO HIPOTECARIO
Capital solicitado: 250.000,00 €. Valor de tasación: 500.000,00 €.
Plazo de amortización: 25 años.
TIN: 2,95 %. TAE: 3,25 %.
Cuota mensual estimada: 1.180,50 €.`

func TestNormalize_PatternOnly(t *testing.T) {
	agg := docModel.AggregatedDocument{Text: offerText}
	result := Normalize(agg, "doc-1", "docai")

	want := map[string]string{
		docModel.FieldPrincipal:      "250.000,00 €",
		docModel.FieldTermMonths:     "300 meses",
		docModel.FieldNominalRate:    "2,95 %",
		docModel.FieldAPR:            "3,25 %",
		docModel.FieldMonthlyPayment: "1.180,50 €",
	}
	for field, value := range want {
		fv, ok := result.Fields[field]
		if !ok {
			t.Fatalf("field %s missing, got %v", field, result.Fields)
		}
		if fv.Value != value {
			t.Errorf("field %s = %q, want %q", field, fv.Value, value)
		}
		if !strings.HasPrefix(fv.Source, "pattern:") {
			t.Errorf("field %s source = %q, want a pattern source", field, fv.Source)
		}
		if fv.Confidence < config.PatternConfidenceFloor || fv.Confidence > config.PatternConfidenceCeil {
			t.Errorf("field %s confidence %v outside pattern band", field, fv.Confidence)
		}
	}

	// no structured evidence: record confidence stays inside the pattern band
	if result.GlobalConfidence < config.PatternConfidenceFloor || result.GlobalConfidence > config.PatternConfidenceCeil {
		t.Errorf("global confidence %v outside pattern band", result.GlobalConfidence)
	}
	if len(result.PendingFields) != 0 {
		t.Errorf("unexpected pending fields: %v", result.PendingFields)
	}
}

// an appraisal figure must never win the principal field, whatever the order
func TestNormalize_AppraisalExcluded(t *testing.T) {
	agg := docModel.AggregatedDocument{
		Text: "Valor de tasación: 500.000,00 €. Capital solicitado: 250.000,00 €.",
	}
	result := Normalize(agg, "doc-2", "docai")

	fv, ok := result.Fields[docModel.FieldPrincipal]
	if !ok {
		t.Fatal("principal missing")
	}
	if fv.Value != "250.000,00 €" {
		t.Errorf("principal = %q, appraisal value leaked in", fv.Value)
	}
}

func TestNormalize_EntityBeatsPattern(t *testing.T) {
	agg := docModel.AggregatedDocument{
		Text: "Capital solicitado: 250.000,00 €.",
		Entities: []docModel.Entity{
			{
				Type:       "loan_amount",
				Confidence: 0.92,
				NormalizedValue: &docModel.NormalizedValue{
					Money: &docModel.MoneyValue{Units: 180000, CurrencyCode: "EUR"},
				},
			},
		},
	}
	result := Normalize(agg, "doc-3", "docai")

	fv := result.Fields[docModel.FieldPrincipal]
	if fv.Source != "entity:loan_amount" {
		t.Errorf("source = %q, pattern overrode the entity", fv.Source)
	}
	if fv.Value != "180.000,00 €" {
		t.Errorf("value = %q, want the entity amount", fv.Value)
	}
	if fv.Confidence != 0.92 {
		t.Errorf("confidence = %v, want native entity confidence", fv.Confidence)
	}
	// structured evidence present: no clamping into the pattern band
	if result.GlobalConfidence != 0.92 {
		t.Errorf("global confidence = %v, want 0.92", result.GlobalConfidence)
	}
}

func TestNormalize_HigherConfidenceEntityWins(t *testing.T) {
	agg := docModel.AggregatedDocument{
		Entities: []docModel.Entity{
			{Type: "tin", MentionText: "3,10 %", Confidence: 0.60},
			{Type: "nominal_rate", MentionText: "2,95 %", Confidence: 0.85},
			{Type: "tin", MentionText: "9,99 %", Confidence: 0.40},
		},
	}
	result := Normalize(agg, "doc-4", "docai")

	fv := result.Fields[docModel.FieldNominalRate]
	if fv.Value != "2,95 %" || fv.Confidence != 0.85 {
		t.Errorf("nominal rate = %+v, want the most confident mention", fv)
	}
}

func TestNormalize_TermYearsToMonths(t *testing.T) {
	agg := docModel.AggregatedDocument{
		Entities: []docModel.Entity{
			{Type: "term", MentionText: "25 años", Confidence: 0.9},
		},
	}
	result := Normalize(agg, "doc-5", "docai")
	if fv := result.Fields[docModel.FieldTermMonths]; fv.Value != "300 meses" {
		t.Errorf("term = %q, want 300 meses", fv.Value)
	}
}

func TestNormalize_UnknownEntityTypeIgnored(t *testing.T) {
	agg := docModel.AggregatedDocument{
		Entities: []docModel.Entity{
			{Type: "notary_name", MentionText: "D. José García", Confidence: 0.99},
		},
	}
	result := Normalize(agg, "doc-6", "docai")
	if len(result.Fields) != 0 {
		t.Errorf("unknown entity produced fields: %v", result.Fields)
	}
	if result.GlobalConfidence != 0 {
		t.Errorf("global confidence = %v for an empty record", result.GlobalConfidence)
	}
}

func TestNormalize_APRBelowNominalPenalized(t *testing.T) {
	agg := docModel.AggregatedDocument{
		Entities: []docModel.Entity{
			{Type: "nominal_rate", MentionText: "4,50 %", Confidence: 0.90},
			{Type: "tae", MentionText: "3,20 %", Confidence: 0.80},
		},
	}
	result := Normalize(agg, "doc-7", "docai")

	if len(result.Warnings) == 0 {
		t.Fatal("expected a coherence warning")
	}
	apr := result.Fields[docModel.FieldAPR]
	wantConf := 0.80 * config.CoherencePenalty
	if apr.Confidence < wantConf-1e-9 || apr.Confidence > wantConf+1e-9 {
		t.Errorf("APR confidence = %v, want penalized %v", apr.Confidence, wantConf)
	}
	// the nominal rate was more confident; it keeps its score
	if result.Fields[docModel.FieldNominalRate].Confidence != 0.90 {
		t.Error("nominal rate was penalized instead of the APR")
	}

	found := false
	for _, f := range result.PendingFields {
		if f == docModel.FieldAPR {
			found = true
		}
	}
	if !found {
		t.Errorf("penalized APR missing from pending fields: %v", result.PendingFields)
	}
}

func TestNormalize_RateType(t *testing.T) {
	t.Run("declared fixed demotes variable fields", func(t *testing.T) {
		agg := docModel.AggregatedDocument{
			Text: "Préstamo a tipo fijo. Diferencial: 0,99 %.",
			Entities: []docModel.Entity{
				{Type: "spread", MentionText: "0,99 %", Confidence: 0.80},
				{Type: "reference_index", MentionText: "Euríbor 12 meses", Confidence: 0.80},
			},
		}
		result := Normalize(agg, "doc-8", "docai")
		if result.RateType != RateTypeFixed {
			t.Fatalf("rate type = %q, want fijo", result.RateType)
		}
		wantConf := 0.80 * config.CoherencePenalty
		for _, f := range []string{docModel.FieldSpread, docModel.FieldReferenceIndex} {
			got := result.Fields[f].Confidence
			if got < wantConf-1e-9 || got > wantConf+1e-9 {
				t.Errorf("%s confidence = %v, want demoted %v", f, got, wantConf)
			}
		}
		if len(result.Warnings) != 1 {
			t.Errorf("want a single demotion warning, got %v", result.Warnings)
		}
	})

	t.Run("index presence implies variable", func(t *testing.T) {
		agg := docModel.AggregatedDocument{
			Entities: []docModel.Entity{
				{Type: "reference_index", MentionText: "Euríbor 12 meses", Confidence: 0.9},
			},
		}
		result := Normalize(agg, "doc-9", "docai")
		if result.RateType != RateTypeVariable {
			t.Errorf("rate type = %q, want variable", result.RateType)
		}
	})

	t.Run("no evidence defaults to fixed", func(t *testing.T) {
		result := Normalize(docModel.AggregatedDocument{Text: "Plazo: 20 años."}, "doc-10", "docai")
		if result.RateType != RateTypeFixed {
			t.Errorf("rate type = %q, want fijo", result.RateType)
		}
	})
}

func TestNormalize_PendingFieldsForMissingCriticals(t *testing.T) {
	agg := docModel.AggregatedDocument{
		Entities: []docModel.Entity{
			{Type: "loan_amount", MentionText: "250.000,00 €", Confidence: 0.9},
		},
	}
	result := Normalize(agg, "doc-11", "docai")

	// four critical fields are missing
	if len(result.PendingFields) != 4 {
		t.Errorf("pending = %v, want the four missing critical fields", result.PendingFields)
	}
	for _, f := range result.PendingFields {
		if f == docModel.FieldPrincipal {
			t.Error("well-extracted principal flagged for review")
		}
	}
}
