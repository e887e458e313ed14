// Package trends computes year-over-year variation of periodic figures and
// the composite indicators used to flag compliance risk.
package trends

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-audit/internal/domain"
)

var (
	hundred = decimal.NewFromInt(100)

	// IncreaseThreshold and DecreaseThreshold bound the "stable" band, in
	// percentage points of relative change.
	IncreaseThreshold = decimal.NewFromInt(10)
	DecreaseThreshold = decimal.NewFromInt(-10)
)

// Classify maps a relative change in percent to a trend symbol.
func Classify(relative decimal.NullDecimal) domain.TrendSymbol {
	switch {
	case !relative.Valid:
		return domain.TrendNotApplicable
	case relative.Decimal.GreaterThan(IncreaseThreshold):
		return domain.TrendIncrease
	case relative.Decimal.LessThan(DecreaseThreshold):
		return domain.TrendDecrease
	default:
		return domain.TrendStable
	}
}

// Compare annotates current against the immediately preceding value.
func Compare(previous, current decimal.NullDecimal) domain.TrendAnnotation {
	if !previous.Valid || !current.Valid {
		return domain.NotApplicable
	}
	a := domain.TrendAnnotation{
		Absolute: decimal.NewNullDecimal(current.Decimal.Sub(previous.Decimal)),
	}
	if previous.Decimal.IsZero() {
		a.Symbol = domain.TrendNotApplicable
		return a
	}
	a.Relative = decimal.NewNullDecimal(a.Absolute.Decimal.Div(previous.Decimal).Mul(hundred))
	a.Symbol = Classify(a.Relative)
	return a
}

type seriesKey struct {
	person string
	metric domain.Metric
}

// Annotate returns one annotation per figure, index-aligned with figs. Each
// (person, metric) series is walked in declared-year order; the first
// period of a series has no history and is NotApplicable.
func Annotate(figs []domain.PeriodicFigure) []domain.TrendAnnotation {
	series := make(map[seriesKey][]int)
	for i, f := range figs {
		k := seriesKey{person: f.Person.Identity(), metric: f.Metric}
		series[k] = append(series[k], i)
	}

	out := make([]domain.TrendAnnotation, len(figs))
	for _, idx := range series {
		sort.SliceStable(idx, func(a, b int) bool {
			return figs[idx[a]].Year < figs[idx[b]].Year
		})

		var (
			previous   decimal.NullDecimal
			hasHistory bool
		)
		for _, i := range idx {
			if hasHistory {
				out[i] = Compare(previous, figs[i].Value)
			} else {
				out[i] = domain.NotApplicable
			}
			previous = figs[i].Value
			hasHistory = true
		}
	}
	return out
}

// Composite derives leverage (net worth / assets) and debt level
// (liabilities / assets), both in percent, for every person-year that has
// an assets figure. A zero or undefined asset total leaves both undefined.
// The derived figures are appended after figs.
func Composite(figs []domain.PeriodicFigure) []domain.PeriodicFigure {
	type personYear struct {
		person string
		year   int
	}
	values := make(map[personYear]map[domain.Metric]decimal.NullDecimal)
	people := make(map[personYear]domain.PeriodicFigure)
	var order []personYear

	for _, f := range figs {
		k := personYear{person: f.Person.Identity(), year: f.Year}
		if _, ok := values[k]; !ok {
			values[k] = make(map[domain.Metric]decimal.NullDecimal)
			people[k] = f
			order = append(order, k)
		}
		values[k][f.Metric] = f.Value
	}

	out := append([]domain.PeriodicFigure(nil), figs...)
	for _, k := range order {
		v := values[k]
		assets, ok := v[domain.MetricAssets]
		if !ok {
			continue
		}
		base := people[k]
		for _, c := range []struct {
			metric    domain.Metric
			numerator domain.Metric
		}{
			{domain.MetricLeverage, domain.MetricNetWorth},
			{domain.MetricDebtLevel, domain.MetricLiabilities},
		} {
			out = append(out, domain.PeriodicFigure{
				Person:  base.Person,
				Matched: base.Matched,
				Metric:  c.metric,
				Year:    k.year,
				Value:   percentOf(v[c.numerator], assets),
			})
		}
	}
	return out
}

func percentOf(numerator, denominator decimal.NullDecimal) decimal.NullDecimal {
	if !numerator.Valid || !denominator.Valid || denominator.Decimal.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(numerator.Decimal.Div(denominator.Decimal).Mul(hundred))
}
