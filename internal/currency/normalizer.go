// Package currency converts amounts to the reference currency using
// historical rate tables.
package currency

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-audit/internal/domain"
	"github.com/dvloznov/finance-audit/internal/logger"
)

const USD = "USD"

// Conversion is the outcome of converting one amount. ReferenceAmount is
// null exactly when Failure is set.
type Conversion struct {
	ReferenceAmount decimal.NullDecimal
	Rate            decimal.NullDecimal
	USDFactor       decimal.NullDecimal
	ReferenceRate   decimal.NullDecimal
	Bucket          domain.RateBucket
	Failure         string
}

// OK reports whether the conversion produced a reference amount.
func (c Conversion) OK() bool {
	return c.Failure == ""
}

// Normalizer converts (amount, currency, date) to the reference currency.
// It holds no mutable state.
type Normalizer struct {
	reference string
	tables    *Tables
}

// NewNormalizer returns a Normalizer for the given reference currency.
func NewNormalizer(reference string, tables *Tables) *Normalizer {
	if tables == nil {
		tables = DefaultTables()
	}
	return &Normalizer{reference: strings.ToUpper(strings.TrimSpace(reference)), tables: tables}
}

// Reference returns the reference currency code.
func (n *Normalizer) Reference() string {
	return n.reference
}

// ConvertYear converts a yearly figure such as a declared balance.
func (n *Normalizer) ConvertYear(amount decimal.Decimal, code string, year int) Conversion {
	return n.convert(amount, code, year, 0)
}

// ConvertOn converts a dated statement amount. USD uses the monthly
// reference rate of the date's month; other currencies use the yearly
// tables of the date's year.
func (n *Normalizer) ConvertOn(amount decimal.Decimal, code string, date civil.Date) Conversion {
	return n.convert(amount, code, date.Year, date.Month)
}

func (n *Normalizer) convert(amount decimal.Decimal, code string, year int, month time.Month) Conversion {
	code = strings.ToUpper(strings.TrimSpace(code))

	if code == n.reference {
		one := decimal.NewNullDecimal(decimal.NewFromInt(1))
		return Conversion{
			ReferenceAmount: decimal.NewNullDecimal(amount),
			Rate:            one,
			ReferenceRate:   one,
		}
	}
	if code == "" {
		return Conversion{Failure: "unknown currency"}
	}

	if code == USD && month != 0 {
		rate, ok := n.tables.MonthlyReferenceRate(year, month)
		if !ok {
			return Conversion{Failure: fmt.Sprintf("no monthly %s rate for %d-%02d", n.reference, year, int(month))}
		}
		return Conversion{
			ReferenceAmount: decimal.NewNullDecimal(amount.Mul(rate)),
			Rate:            decimal.NewNullDecimal(rate),
			USDFactor:       decimal.NewNullDecimal(decimal.NewFromInt(1)),
			ReferenceRate:   decimal.NewNullDecimal(rate),
			Bucket:          domain.RateBucket{Year: year, Month: month},
		}
	}

	rate, ok := n.tables.ReferenceRate(year)
	if !ok {
		return Conversion{Failure: fmt.Sprintf("no %s per USD rate for %d", n.reference, year)}
	}

	factor := decimal.NewFromInt(1)
	if code != USD {
		factor, ok = n.tables.USDFactor(code, year)
		if !ok {
			return Conversion{Failure: fmt.Sprintf("no %s to USD factor for %d", code, year)}
		}
	}

	effective := factor.Mul(rate)
	return Conversion{
		ReferenceAmount: decimal.NewNullDecimal(amount.Mul(factor).Mul(rate)),
		Rate:            decimal.NewNullDecimal(effective),
		USDFactor:       decimal.NewNullDecimal(factor),
		ReferenceRate:   decimal.NewNullDecimal(rate),
		Bucket:          domain.RateBucket{Year: year},
	}
}

// NormalizeTransactions converts statement records. Records that cannot be
// converted are kept with a null reference amount and a rate-lookup issue.
func (n *Normalizer) NormalizeTransactions(ctx context.Context, txs []domain.RawTransaction) ([]domain.NormalizedTransaction, []domain.Issue) {
	log := logger.FromContext(ctx)
	out := make([]domain.NormalizedTransaction, 0, len(txs))
	var issues []domain.Issue

	for _, tx := range txs {
		nt := domain.NormalizedTransaction{RawTransaction: tx}

		switch {
		case tx.Placeholder:
			nt.Rate = decimal.NewNullDecimal(decimal.NewFromInt(1))
		case !tx.Amount.Valid:
			// Already reported as a numeric parse failure by the extractor.
			nt.ConversionFailure = "original amount unavailable"
		case strings.EqualFold(tx.Currency, n.reference):
			n.apply(&nt, n.ConvertYear(tx.Amount.Decimal, tx.Currency, 0))
		case tx.Date == nil:
			nt.ConversionFailure = "transaction date unavailable for rate lookup"
		default:
			n.apply(&nt, n.ConvertOn(tx.Amount.Decimal, tx.Currency, *tx.Date))
		}

		if nt.ConversionFailure != "" && tx.Amount.Valid {
			issues = append(issues, domain.Issue{
				Kind:     domain.FailureRateLookup,
				Document: tx.Document,
				Page:     tx.Page,
				Detail:   fmt.Sprintf("authorization %s: %s", tx.Authorization, nt.ConversionFailure),
			})
			log.Debug().
				Str("document", tx.Document).
				Str("currency", tx.Currency).
				Str("reason", nt.ConversionFailure).
				Msg("conversion failed")
		}
		out = append(out, nt)
	}
	return out, issues
}

func (n *Normalizer) apply(nt *domain.NormalizedTransaction, c Conversion) {
	nt.ReferenceAmount = c.ReferenceAmount
	nt.Rate = c.Rate
	nt.USDFactor = c.USDFactor
	nt.ReferenceRate = c.ReferenceRate
	nt.Bucket = c.Bucket
	nt.ConversionFailure = c.Failure
}
