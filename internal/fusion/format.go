package fusion

import (
	"errors"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Values are stored as plain float64 and rendered for es-ES readers:
// thousands dot, decimal comma, trailing currency or percent sign.
var esPrinter = message.NewPrinter(language.Spanish)

func FormatMoney(v float64) string {
	return esPrinter.Sprintf("%.2f", v) + " €"
}

func FormatPercent(v float64) string {
	return esPrinter.Sprintf("%.2f", v) + " %"
}

func FormatMonths(months int) string {
	return strconv.Itoa(months) + " meses"
}

// FormatAccount regroups an account or IBAN fragment into 4-character blocks
// for display. Masked digits (asterisks) are kept as-is.
func FormatAccount(raw string) string {
	var compact []rune
	for _, r := range raw {
		if (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || r == '*' {
			compact = append(compact, r)
		}
	}
	var b strings.Builder
	for i, r := range compact {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var errNotANumber = errors.New("not a numeric value")

// ParseNumber reads a Spanish-formatted figure ("250.000,00", "3,50 %",
// "1.200 €") into a float64. A lone dot followed by at most two digits is
// accepted as an imported decimal point ("3.50").
func ParseNumber(s string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '€', '%', ' ', '\u00a0', '+':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	cleaned = strings.TrimSuffix(strings.TrimSuffix(cleaned, "euros"), "eur")
	if cleaned == "" {
		return 0, errNotANumber
	}

	if strings.Contains(cleaned, ",") {
		// dots are thousands separators
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	} else if dots := strings.Count(cleaned, "."); dots == 1 {
		if frac := cleaned[strings.Index(cleaned, ".")+1:]; len(frac) == 3 {
			// "250.000" reads as a thousands group, not 250.0
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		}
	} else if dots > 1 {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, errNotANumber
	}
	return v, nil
}
