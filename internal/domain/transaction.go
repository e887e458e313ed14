package domain

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// PlaceholderAuthorization marks the single record emitted for a cardholder
// block that had no transaction lines.
const PlaceholderAuthorization = "no transactions"

// RawTransaction is one line item as printed on a statement. It is created
// by an extractor and never mutated afterwards.
type RawTransaction struct {
	Format        IssuerFormat
	Authorization string

	// Date is nil when DateText could not be parsed.
	Date     *civil.Date
	DateText string

	Description string

	// Amount is the original-currency amount. AmountText keeps the printed
	// value for audit when it could not be parsed.
	Amount     decimal.NullDecimal
	AmountText string

	Currency         string
	CurrencyInferred bool

	// StatementAmount is the issuer's own reference-currency amount, present
	// only on lines that print both a primary and a secondary value.
	StatementAmount decimal.NullDecimal

	ContractualRate     string
	EffectiveAnnualRate string
	Charges             decimal.NullDecimal
	DeferredBalance     decimal.NullDecimal
	Installments        string

	CardSuffix string
	// CardKind is the printed card kind ("Física" or "Virtual") on layouts
	// that name it next to the card number.
	CardKind   string
	Cardholder string
	Document   string
	Page       int

	Placeholder bool
}

// CardType is the card label printed in output rows: the kind-specific
// label when the statement names one, the issuer brand otherwise.
func (t RawTransaction) CardType() string {
	if t.CardKind != "" {
		return "Clara " + t.CardKind
	}
	return t.Format.CardType()
}

// RateBucket identifies the rate table entry used for a conversion.
// Month is zero for yearly tables.
type RateBucket struct {
	Year  int
	Month time.Month
}

// IsZero reports whether no rate entry was used.
func (b RateBucket) IsZero() bool {
	return b.Year == 0
}

func (b RateBucket) String() string {
	switch {
	case b.Year == 0:
		return ""
	case b.Month == 0:
		return fmt.Sprintf("%d", b.Year)
	default:
		return fmt.Sprintf("%d-%02d", b.Year, int(b.Month))
	}
}

// NormalizedTransaction is a RawTransaction with its reference-currency value.
type NormalizedTransaction struct {
	RawTransaction

	// ReferenceAmount is null when conversion failed; ConversionFailure
	// then says why.
	ReferenceAmount decimal.NullDecimal
	// Rate is the effective multiplier from original to reference currency.
	Rate          decimal.NullDecimal
	USDFactor     decimal.NullDecimal
	ReferenceRate decimal.NullDecimal
	Bucket        RateBucket

	ConversionFailure string
}
