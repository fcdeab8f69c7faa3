package fusion

import "testing"

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"250.000,00", 250000, false},
		{"250.000", 250000, false},
		{"1.234.567", 1234567, false},
		{"3,50 %", 3.5, false},
		{"3.50", 3.5, false},
		{"1.200 €", 1200, false},
		{"1.200,75 euros", 1200.75, false},
		{"+0,55", 0.55, false},
		{"25", 25, false},
		{"", 0, true},
		{"veinticinco", 0, true},
	}

	for _, c := range cases {
		got, err := ParseNumber(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseNumber(%q): expected error, got %v", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseNumber(%q): unexpected error %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseNumber(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestFormatMoney_SpanishLocale(t *testing.T) {
	if got := FormatMoney(250000); got != "250.000,00 €" {
		t.Errorf("FormatMoney(250000) = %q", got)
	}
	if got := FormatMoney(1180.5); got != "1.180,50 €" {
		t.Errorf("FormatMoney(1180.5) = %q", got)
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(2.95); got != "2,95 %" {
		t.Errorf("FormatPercent(2.95) = %q", got)
	}
}

func TestFormatMonths(t *testing.T) {
	if got := FormatMonths(300); got != "300 meses" {
		t.Errorf("FormatMonths(300) = %q", got)
	}
}

func TestFormatAccount(t *testing.T) {
	cases := []struct{ in, want string }{
		{"ES9121000418450200051332", "ES91 2100 0418 4502 0005 1332"},
		{"ES91 2100 0418 4502 0005 1332", "ES91 2100 0418 4502 0005 1332"},
		{"****  ****  ****1332", "**** **** **** 1332"},
	}
	for _, c := range cases {
		if got := FormatAccount(c.in); got != c.want {
			t.Errorf("FormatAccount(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

// the money formatter and the locale parser must agree on the round trip
func TestMoneyRoundTrip(t *testing.T) {
	for _, v := range []float64{0.5, 999, 1180.5, 250000, 1234567.89} {
		parsed, err := ParseNumber(FormatMoney(v))
		if err != nil {
			t.Fatalf("round trip of %v failed: %v", v, err)
		}
		if parsed != v {
			t.Errorf("round trip of %v gave %v", v, parsed)
		}
	}
}
