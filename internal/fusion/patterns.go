package fusion

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aruiz/feinscan/internal/config"
	"github.com/aruiz/feinscan/internal/domain/docModel"
)

// Precision hardening: deterministic pattern extraction for fields the
// entity pass missed. Each detector proposes candidates scored by nearby
// anchor phrases (positive evidence) and exclusion phrases (a monetary
// figure next to "valor de tasación" must never win the principal field),
// then the best survivor fills the field at a deliberately capped
// confidence.
const (
	baseScore        = 1.0
	anchorBonus      = 2.0
	exclusionPenalty = 3.0
	windowRadius     = 120 //bytes of context considered on each side of a match
)

type candidate struct {
	display string
	value   float64
	offset  int
	score   float64
	rule    string
}

type detector struct {
	field      string
	rule       string
	re         *regexp.Regexp
	anchors    []string
	exclusions []string
	min, max   float64
	ranged     bool
	extract    func(groups []string) (display string, value float64, ok bool)
}

var (
	moneyRe    = regexp.MustCompile(`(?i)(\d{1,3}(?:\.\d{3})+(?:,\d{1,2})?|\d+(?:,\d{1,2})?)\s*(?:€|euros?)`)
	percentRe  = regexp.MustCompile(`(\d{1,2}(?:[,.]\d{1,3})?)\s*%`)
	termRe     = regexp.MustCompile(`(?i)(\d{1,3})\s*(años?|meses)`)
	dateNumRe  = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	dateTextRe = regexp.MustCompile(`(?i)\b(\d{1,2})\s+de\s+([a-záéíóúñ]+)\s+de\s+(\d{4})\b`)
	accountRe  = regexp.MustCompile(`(?i)\b(?:ES\d{2}|\*{4}|\d{4})(?:[ .\-]?(?:\d{4}|\*{4})){3,6}\b`)
	indexRe    = regexp.MustCompile(`(?i)\b(eur[ií]bor(?:\s+(?:a\s+)?\d{1,2}\s*meses)?|irph)\b`)
	amortRe    = regexp.MustCompile(`(?i)\b(franc[ée]s|alem[áa]n|americano)\b`)
)

func extractMoney(groups []string) (string, float64, bool) {
	v, err := ParseNumber(groups[1])
	if err != nil {
		return "", 0, false
	}
	return FormatMoney(v), v, true
}

func extractPercent(groups []string) (string, float64, bool) {
	v, err := ParseNumber(groups[1])
	if err != nil {
		return "", 0, false
	}
	return FormatPercent(v), v, true
}

func extractTerm(groups []string) (string, float64, bool) {
	v, err := ParseNumber(groups[1])
	if err != nil {
		return "", 0, false
	}
	months := int(v)
	if strings.HasPrefix(strings.ToLower(groups[2]), "año") {
		months *= 12
	}
	return FormatMonths(months), float64(months), true
}

var spanishMonths = map[string]int{
	"enero": 1, "febrero": 2, "marzo": 3, "abril": 4, "mayo": 5, "junio": 6,
	"julio": 7, "agosto": 8, "septiembre": 9, "octubre": 10, "noviembre": 11, "diciembre": 12,
}

func extractNumericDate(groups []string) (string, float64, bool) {
	day, _ := ParseNumber(groups[1])
	month, _ := ParseNumber(groups[2])
	year, _ := ParseNumber(groups[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", 0, false
	}
	return fmt.Sprintf("%02d/%02d/%04d", int(day), int(month), int(year)), 0, true
}

func extractTextualDate(groups []string) (string, float64, bool) {
	month, known := spanishMonths[strings.ToLower(groups[2])]
	if !known {
		return "", 0, false
	}
	day, _ := ParseNumber(groups[1])
	year, _ := ParseNumber(groups[3])
	if day < 1 || day > 31 {
		return "", 0, false
	}
	return fmt.Sprintf("%02d/%02d/%04d", int(day), month, int(year)), 0, true
}

func extractAccount(groups []string) (string, float64, bool) {
	formatted := FormatAccount(groups[0])
	if len(formatted) < 9 {
		return "", 0, false
	}
	return formatted, 0, true
}

func extractVerbatim(groups []string) (string, float64, bool) {
	t := strings.TrimSpace(groups[0])
	if t == "" {
		return "", 0, false
	}
	return strings.ToUpper(t[:1]) + t[1:], 0, true
}

// dateFromText is shared with the entity pass for date mentions.
func dateFromText(s string) (string, bool) {
	if m := dateNumRe.FindStringSubmatch(s); m != nil {
		if display, _, ok := extractNumericDate(m); ok {
			return display, true
		}
	}
	if m := dateTextRe.FindStringSubmatch(s); m != nil {
		if display, _, ok := extractTextualDate(m); ok {
			return display, true
		}
	}
	return "", false
}

// detectors run in this order; it is also the final tie-break, so keep it
// stable.
var detectors = []detector{
	{
		field: docModel.FieldPrincipal, rule: "capital_solicitado", re: moneyRe,
		anchors:    []string{"capital solicitado", "importe del préstamo", "capital del préstamo", "importe solicitado", "capital prestado"},
		exclusions: []string{"valor de tasación", "tasación", "valor del inmueble", "precio de compraventa"},
		min:        1_000, max: 10_000_000, ranged: true,
		extract: extractMoney,
	},
	{
		field: docModel.FieldTermMonths, rule: "plazo", re: termRe,
		anchors: []string{"plazo", "duración", "plazo de amortización"},
		min:     6, max: 600, ranged: true,
		extract: extractTerm,
	},
	{
		field: docModel.FieldNominalRate, rule: "tin", re: percentRe,
		anchors:    []string{"tipo de interés nominal", "interés nominal", "tin:", "(tin", "tin "},
		exclusions: []string{"tae", "demora", "diferencial"},
		min:        0, max: 20, ranged: true,
		extract: extractPercent,
	},
	{
		field: docModel.FieldAPR, rule: "tae", re: percentRe,
		anchors:    []string{"tae", "tasa anual equivalente"},
		exclusions: []string{"tin:", "(tin", "tin ", "nominal", "demora"},
		min:        0, max: 20, ranged: true,
		extract: extractPercent,
	},
	{
		field: docModel.FieldMonthlyPayment, rule: "cuota", re: moneyRe,
		anchors:    []string{"cuota mensual", "importe de la cuota", "cuota estimada", "mensualidad"},
		exclusions: []string{"comisión", "gastos", "seguro"},
		min:        10, max: 50_000, ranged: true,
		extract: extractMoney,
	},
	{
		field: docModel.FieldReferenceIndex, rule: "indice", re: indexRe,
		anchors: []string{"índice de referencia", "referenciado", "revisión"},
		extract: extractVerbatim,
	},
	{
		field: docModel.FieldSpread, rule: "diferencial", re: percentRe,
		anchors:    []string{"diferencial"},
		exclusions: []string{"tae", "tin:", "(tin", "bonifica"},
		min:        0.01, max: 10, ranged: true,
		extract: extractPercent,
	},
	{
		field: docModel.FieldAmortization, rule: "amortizacion", re: amortRe,
		anchors: []string{"amortización", "sistema"},
		extract: extractVerbatim,
	},
	{
		field: docModel.FieldBonifications, rule: "bonificacion", re: percentRe,
		anchors:    []string{"bonificación", "bonificaciones", "productos vinculados", "vinculación"},
		exclusions: []string{"tae", "diferencial"},
		min:        0.01, max: 5, ranged: true,
		extract: extractPercent,
	},
	{
		field: docModel.FieldOpeningFee, rule: "comision_apertura", re: moneyRe,
		anchors:    []string{"comisión de apertura"},
		exclusions: []string{"cuota", "gastos", "tasación"},
		min:        0, max: 50_000, ranged: true,
		extract:    extractMoney,
	},
	{
		field: docModel.FieldExpenses, rule: "gastos", re: moneyRe,
		anchors:    []string{"gastos de gestoría", "gastos de notaría", "provisión de fondos", "gastos"},
		exclusions: []string{"cuota"},
		min:        0, max: 100_000, ranged: true,
		extract: extractMoney,
	},
	{
		field: docModel.FieldOfferDate, rule: "fecha_oferta", re: dateNumRe,
		anchors:    []string{"fecha de emisión", "fecha de la oferta", "fecha de elaboración"},
		exclusions: []string{"validez", "válida"},
		extract:    extractNumericDate,
	},
	{
		field: docModel.FieldOfferDate, rule: "fecha_oferta_texto", re: dateTextRe,
		anchors:    []string{"fecha de emisión", "fecha de la oferta", "fecha de elaboración"},
		exclusions: []string{"validez", "válida"},
		extract:    extractTextualDate,
	},
	{
		field: docModel.FieldValidityDate, rule: "fecha_validez", re: dateNumRe,
		anchors:    []string{"validez", "válida hasta", "vigencia"},
		exclusions: []string{"emisión", "elaboración"},
		extract:    extractNumericDate,
	},
	{
		field: docModel.FieldValidityDate, rule: "fecha_validez_texto", re: dateTextRe,
		anchors:    []string{"validez", "válida hasta", "vigencia"},
		exclusions: []string{"emisión", "elaboración"},
		extract:    extractTextualDate,
	},
	{
		field: docModel.FieldDebitAccount, rule: "cuenta_cargo", re: accountRe,
		anchors: []string{"cuenta de cargo", "cuenta asociada", "domiciliación", "cuenta corriente"},
		extract: extractAccount,
	},
}

// applyPatterns is the secondary evidence pass. It only considers fields the
// entity pass left unset: an entity-sourced value is never replaced by a
// pattern candidate.
func applyPatterns(fields map[string]docModel.FieldValue, text string) {
	if text == "" {
		return
	}
	lower := strings.ToLower(text)

	byField := make(map[string][]candidate)
	for _, d := range detectors {
		if _, set := fields[d.field]; set {
			continue
		}
		for _, loc := range d.re.FindAllStringSubmatchIndex(text, -1) {
			groups := submatches(text, loc)
			display, value, ok := d.extract(groups)
			if !ok {
				continue
			}
			if d.ranged && (value < d.min || value > d.max) {
				continue
			}
			score := scoreWindow(lower, loc[0], loc[1], d.anchors, d.exclusions)
			if score <= 0 {
				continue
			}
			byField[d.field] = append(byField[d.field], candidate{
				display: display,
				value:   value,
				offset:  loc[0],
				score:   score,
				rule:    d.rule,
			})
		}
	}

	for _, d := range detectors {
		if _, set := fields[d.field]; set {
			continue
		}
		if best := pickBest(byField[d.field]); best != nil {
			fields[d.field] = docModel.FieldValue{
				Value:      best.display,
				Confidence: patternConfidence(best.score),
				Source:     "pattern:" + best.rule,
			}
		}
	}
}

func submatches(text string, loc []int) []string {
	groups := make([]string, len(loc)/2)
	for i := range groups {
		if loc[2*i] >= 0 {
			groups[i] = text[loc[2*i]:loc[2*i+1]]
		}
	}
	return groups
}

// scoreWindow rates one match by the phrases around it. When both an anchor
// and an exclusion sit in the window, the phrase nearest to the match
// decides: disclosure documents put the label right next to its figure, so
// "Valor de tasación: 500.000 €" keeps its exclusion even when "capital
// solicitado" appears a line above.
func scoreWindow(lower string, start, end int, anchors, exclusions []string) float64 {
	wFrom := start - windowRadius
	if wFrom < 0 {
		wFrom = 0
	}
	wTo := end + windowRadius
	if wTo > len(lower) {
		wTo = len(lower)
	}
	window := lower[wFrom:wTo]

	anchorDist, hasAnchor := nearestPhrase(window, start-wFrom, end-wFrom, anchors)
	exclDist, hasExcl := nearestPhrase(window, start-wFrom, end-wFrom, exclusions)

	score := baseScore
	switch {
	case hasAnchor && (!hasExcl || anchorDist <= exclDist):
		score += anchorBonus
	case hasExcl:
		score -= exclusionPenalty
	}
	return score
}

// nearestPhrase returns the smallest distance between the match span
// [start,end) and any occurrence of any phrase inside the window.
func nearestPhrase(window string, start, end int, phrases []string) (int, bool) {
	best := -1
	for _, p := range phrases {
		from := 0
		for {
			i := strings.Index(window[from:], p)
			if i < 0 {
				break
			}
			pos := from + i
			d := 0
			if pos+len(p) <= start {
				d = start - (pos + len(p))
			} else if pos >= end {
				d = pos - end
			}
			if best < 0 || d < best {
				best = d
			}
			from = pos + 1
		}
	}
	return best, best >= 0
}

// pickBest selects under a total order: score desc, then first occurrence in
// the text, then candidate insertion order (i.e. detector registration).
// Strictly-greater comparisons make the sort stable without any reliance on
// map iteration order.
func pickBest(cands []candidate) *candidate {
	var best *candidate
	for i := range cands {
		c := &cands[i]
		if best == nil || c.score > best.score || (c.score == best.score && c.offset < best.offset) {
			best = c
		}
	}
	return best
}

// patternConfidence maps a score into the capped band for pattern evidence:
// an unanchored survivor sits at the floor, a fully anchored one at the cap.
func patternConfidence(score float64) float64 {
	frac := (score - baseScore) / anchorBonus
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return config.PatternConfidenceFloor + frac*(config.PatternConfidenceCeil-config.PatternConfidenceFloor)
}
