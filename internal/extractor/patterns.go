package extractor

import (
	"regexp"
	"strings"
)

const (
	dayFirstLayout = "02/01/2006"
	compactLayout  = "2 Jan 06"

	// automaticDebitMarker identifies repayment lines, which are statement
	// housekeeping rather than spend.
	automaticDebitMarker = "ABONO DEBITO AUTOMATICO"
)

var (
	// FormatA headers.
	nameHeaderRe     = regexp.MustCompile(`(?i)SE[ÑN]OR\s*(?:\(A\))?\s*:\s*(.+)`)
	cardHeaderRe     = regexp.MustCompile(`(?i)TARJETA:\s*\*{12}\s*(\d{4})`)
	currencyMarkerRe = regexp.MustCompile(`(?i)ESTADO DE CUENTA EN:\s+(DOLARES|PESOS)`)
	combinedHeaderRe = regexp.MustCompile(`(?i)Tarjeta\s+\*\s*(\d{4})\s+·\s+(Virtual|F[ií]sica)\s+(.*?)\s+·\s+ID\s+(\d{8})`)

	// authorization, date, description, original amount, contractual rate,
	// effective annual rate, charges, deferred balance, installments
	formatATransactionRe = regexp.MustCompile(
		`(\w{5,})\s+(\d{2}/\d{2}/\d{4})\s+(.*?)\s+([\d,.]+)\s+([\d,.]+)\s+([\d,.]+)\s+([\d,.]+)\s+([\d,.]+)\s+(\d+/\d+)`)

	// date, description, authorization, primary amount, optional secondary
	// amount, optional currency
	compactTransactionRe = regexp.MustCompile(
		`(?i)^(\d{1,2} (?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec) \d{2})\s+(.*?)\s+(\d{6})\s+([\d.,]+)(?:\s+([\d.,]+))?(?:\s+(USD|EUR|PEN|COP))?\s*$`)

	// Same columns as FormatA; rates print without thousands separators and
	// a zero installment plan prints as 0.00.
	formatBTransactionRe = regexp.MustCompile(
		`(\d{6})\s+(\d{2}/\d{2}/\d{4})\s+(.+?)\s+([\d,.]+)\s+([\d,]+)\s+([\d,]+)\s+([\d,.]+)\s+([\d,.]+)\s+(\d+/\d+|0\.00)`)

	transactionLikeRe = regexp.MustCompile(
		`(?i)^(?:\w{5,}\s+\d{2}/\d{2}/\d{4}|\d{1,2} (?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec) \d{2}\s)`)

	namePrefixRe = regexp.MustCompile(`(?i)^\s*SE[ÑN]OR\s*(?:\(A\))?\s*:\s*`)
)

func excluded(description string) bool {
	return strings.Contains(strings.ToUpper(description), automaticDebitMarker)
}

func looksLikeTransaction(line string) bool {
	return transactionLikeRe.MatchString(line)
}

// collapseSpaces normalizes runs of whitespace to single spaces.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
