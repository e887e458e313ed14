// Package amount parses printed monetary values and renders them for
// human-readable output columns.
package amount

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Locale selects which separator marks decimals in printed amounts.
type Locale int

const (
	// Auto guesses the locale from the separators present.
	Auto Locale = iota
	// PeriodDecimal is "1,234.56".
	PeriodDecimal
	// CommaDecimal is "1.234,56".
	CommaDecimal
)

var (
	commaThousands  = regexp.MustCompile(`^-?\d{1,3}(,\d{3})*(\.\d+)?$`)
	periodThousands = regexp.MustCompile(`^-?\d{1,3}(\.\d{3})*(,\d+)?$`)

	// Output separators are swapped relative to Go's defaults: period for
	// thousands, comma for decimals.
	outputFormatter = money.NewFormatter(2, ",", ".", "", "1")
)

// Parse reads an amount printed in either locale.
func Parse(text string) (decimal.Decimal, error) {
	return ParseLocale(text, Auto)
}

// ParseLocale reads an amount printed with the given decimal separator.
func ParseLocale(text string, locale Locale) (decimal.Decimal, error) {
	s := clean(text)
	if s == "" {
		return decimal.Zero, fmt.Errorf("parse amount %q: empty", text)
	}

	if locale == Auto {
		locale = detect(s)
	}

	switch locale {
	case CommaDecimal:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	default:
		s = strings.ReplaceAll(s, ",", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", text, err)
	}
	return d, nil
}

func clean(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	return s
}

func detect(s string) Locale {
	switch {
	case commaThousands.MatchString(s):
		return PeriodDecimal
	case periodThousands.MatchString(s):
		return CommaDecimal
	case strings.Contains(s, ",") && !strings.Contains(s, "."):
		return CommaDecimal
	default:
		return PeriodDecimal
	}
}

// Format renders d rounded to two decimals as "1.234,56".
func Format(d decimal.Decimal) string {
	return outputFormatter.Format(d.Round(2).Shift(2).IntPart())
}

// FormatNull renders a nullable amount, using na for null values.
func FormatNull(d decimal.NullDecimal, na string) string {
	if !d.Valid {
		return na
	}
	return Format(d.Decimal)
}

// FormatPercent renders a percentage as "15.00%".
func FormatPercent(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}

// FormatRatio renders a signed one-decimal ratio such as "+0.3".
func FormatRatio(d decimal.Decimal) string {
	s := d.StringFixed(1)
	if d.Round(1).IsPositive() {
		return "+" + s
	}
	return s
}
