package fusion

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aruiz/feinscan/internal/domain/docModel"
)

type fieldKind int

const (
	kindMoney fieldKind = iota
	kindPercent
	kindMonths
	kindDate
	kindAccount
	kindText
)

var fieldKinds = map[string]fieldKind{
	docModel.FieldPrincipal:      kindMoney,
	docModel.FieldTermMonths:     kindMonths,
	docModel.FieldNominalRate:    kindPercent,
	docModel.FieldAPR:            kindPercent,
	docModel.FieldMonthlyPayment: kindMoney,
	docModel.FieldReferenceIndex: kindText,
	docModel.FieldSpread:         kindPercent,
	docModel.FieldAmortization:   kindText,
	docModel.FieldBonifications:  kindPercent,
	docModel.FieldOpeningFee:     kindMoney,
	docModel.FieldExpenses:       kindMoney,
	docModel.FieldOfferDate:      kindDate,
	docModel.FieldValidityDate:   kindDate,
	docModel.FieldDebitAccount:   kindAccount,
}

// entityAliases maps backend entity types onto record fields. Types outside
// this table are ignored; the backend is free to invent new ones.
var entityAliases = map[string]string{
	"loan_amount":         docModel.FieldPrincipal,
	"principal":           docModel.FieldPrincipal,
	"capital":             docModel.FieldPrincipal,
	"term":                docModel.FieldTermMonths,
	"loan_term":           docModel.FieldTermMonths,
	"term_months":         docModel.FieldTermMonths,
	"nominal_rate":        docModel.FieldNominalRate,
	"interest_rate":       docModel.FieldNominalRate,
	"tin":                 docModel.FieldNominalRate,
	"apr":                 docModel.FieldAPR,
	"tae":                 docModel.FieldAPR,
	"monthly_payment":     docModel.FieldMonthlyPayment,
	"installment":         docModel.FieldMonthlyPayment,
	"payment":             docModel.FieldMonthlyPayment,
	"reference_index":     docModel.FieldReferenceIndex,
	"index":               docModel.FieldReferenceIndex,
	"spread":              docModel.FieldSpread,
	"differential":        docModel.FieldSpread,
	"amortization_type":   docModel.FieldAmortization,
	"amortization_system": docModel.FieldAmortization,
	"bonification":        docModel.FieldBonifications,
	"linked_products":     docModel.FieldBonifications,
	"opening_fee":         docModel.FieldOpeningFee,
	"opening_commission":  docModel.FieldOpeningFee,
	"expenses":            docModel.FieldExpenses,
	"costs":               docModel.FieldExpenses,
	"offer_date":          docModel.FieldOfferDate,
	"issue_date":          docModel.FieldOfferDate,
	"validity_date":       docModel.FieldValidityDate,
	"expiry_date":         docModel.FieldValidityDate,
	"debit_account":       docModel.FieldDebitAccount,
	"iban":                docModel.FieldDebitAccount,
	"account_number":      docModel.FieldDebitAccount,
}

// applyEntities is the primary evidence pass: structured entities fill
// fields at their native confidence. When the backend reports the same field
// twice, the higher-confidence mention wins.
func applyEntities(fields map[string]docModel.FieldValue, entities []docModel.Entity) {
	for _, e := range entities {
		field, known := entityAliases[strings.ToLower(e.Type)]
		if !known {
			continue
		}
		value, ok := renderEntityValue(field, e)
		if !ok {
			continue
		}
		if existing, present := fields[field]; present && existing.Confidence >= e.Confidence {
			continue
		}
		fields[field] = docModel.FieldValue{
			Value:      value,
			Confidence: clamp01(e.Confidence),
			Source:     "entity:" + strings.ToLower(e.Type),
		}
	}
}

var termYearsRe = regexp.MustCompile(`(?i)(\d{1,3})\s*años?`)
var termMonthsRe = regexp.MustCompile(`(?i)(\d{1,4})\s*mes`)

// renderEntityValue turns an entity into the field's display form, preferring
// the backend's normalized value over a locale parse of the mention text.
func renderEntityValue(field string, e docModel.Entity) (string, bool) {
	nv := e.NormalizedValue
	switch fieldKinds[field] {
	case kindMoney:
		if nv != nil && nv.Money != nil {
			return FormatMoney(nv.Money.Amount()), true
		}
		if v, err := ParseNumber(e.MentionText); err == nil {
			return FormatMoney(v), true
		}
	case kindPercent:
		if nv != nil && nv.Text != "" {
			if v, err := ParseNumber(nv.Text); err == nil {
				return FormatPercent(v), true
			}
		}
		if v, err := ParseNumber(e.MentionText); err == nil {
			return FormatPercent(v), true
		}
	case kindMonths:
		if months, ok := monthsFromText(e.MentionText); ok {
			return FormatMonths(months), true
		}
		if nv != nil && nv.Text != "" {
			if months, ok := monthsFromText(nv.Text); ok {
				return FormatMonths(months), true
			}
		}
	case kindDate:
		if nv != nil && nv.Date != nil {
			return fmt.Sprintf("%02d/%02d/%04d", nv.Date.Day, nv.Date.Month, nv.Date.Year), true
		}
		if display, ok := dateFromText(e.MentionText); ok {
			return display, true
		}
	case kindAccount:
		if formatted := FormatAccount(e.MentionText); formatted != "" {
			return formatted, true
		}
	case kindText:
		if nv != nil && nv.Text != "" {
			return strings.TrimSpace(nv.Text), true
		}
		if t := strings.TrimSpace(e.MentionText); t != "" {
			return t, true
		}
	}
	return "", false
}

// monthsFromText normalizes a term mention to whole months. Years found in
// text are multiplied by 12.
func monthsFromText(s string) (int, bool) {
	if m := termYearsRe.FindStringSubmatch(s); m != nil {
		if v, err := ParseNumber(m[1]); err == nil {
			return int(v) * 12, true
		}
	}
	if m := termMonthsRe.FindStringSubmatch(s); m != nil {
		if v, err := ParseNumber(m[1]); err == nil {
			return int(v), true
		}
	}
	if v, err := ParseNumber(s); err == nil && v > 0 {
		return int(v), true
	}
	return 0, false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
