package currency

import (
	"strings"
	"unicode"
)

// knownCodes are the currencies that appear in declaration extracts.
var knownCodes = map[string]struct{}{
	"USD": {}, "COP": {}, "EUR": {}, "GBP": {}, "AUD": {}, "CAD": {},
	"HNL": {}, "AWG": {}, "DOP": {}, "PAB": {}, "CLP": {}, "CRC": {},
	"ARS": {}, "ANG": {}, "BBD": {}, "MXN": {}, "BOB": {}, "BSD": {},
	"GYD": {}, "UYU": {}, "DKK": {}, "KYD": {}, "BMD": {}, "VEB": {},
	"VES": {}, "BRL": {}, "NIO": {}, "PEN": {},
}

// CodeFromText extracts the ISO code from descriptive currency text such
// as "EUR - Euro" or "PAB -Balboa panameña". A bare code is accepted too.
func CodeFromText(text string) (string, bool) {
	s := strings.TrimSpace(text)
	end := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if end == -1 {
		end = len(s)
	}

	code := strings.ToUpper(s[:end])
	if _, ok := knownCodes[code]; !ok {
		return "", false
	}
	return code, true
}
