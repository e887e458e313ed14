package trends

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-audit/internal/domain"
)

// SuddenIncrease is the period-over-period change of a person's capital
// (assets + net worth). Ratio is a plain ratio, not a percentage: 0.3 means
// the capital grew by 30%.
type SuddenIncrease struct {
	Person  domain.Person
	Year    int
	Capital decimal.NullDecimal
	Ratio   decimal.NullDecimal
	Symbol  domain.TrendSymbol
}

// Flagged reports whether the ratio exceeds threshold.
func (s SuddenIncrease) Flagged(threshold decimal.Decimal) bool {
	return s.Ratio.Valid && s.Ratio.Decimal.GreaterThan(threshold)
}

// SuddenIncreases computes one indicator per person-year with an assets or
// net worth figure, ordered by person then year. Capital is undefined
// unless both are declared.
func SuddenIncreases(figs []domain.PeriodicFigure) []SuddenIncrease {
	type partial struct {
		person domain.Person
		year   int
		assets decimal.NullDecimal
		net    decimal.NullDecimal
	}
	byPerson := make(map[string]map[int]*partial)

	for _, f := range figs {
		if f.Metric != domain.MetricAssets && f.Metric != domain.MetricNetWorth {
			continue
		}
		id := f.Person.Identity()
		if byPerson[id] == nil {
			byPerson[id] = make(map[int]*partial)
		}
		p := byPerson[id][f.Year]
		if p == nil {
			p = &partial{person: f.Person, year: f.Year}
			byPerson[id][f.Year] = p
		}
		if f.Metric == domain.MetricAssets {
			p.assets = f.Value
		} else {
			p.net = f.Value
		}
	}

	ids := make([]string, 0, len(byPerson))
	for id := range byPerson {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []SuddenIncrease
	for _, id := range ids {
		years := make([]int, 0, len(byPerson[id]))
		for y := range byPerson[id] {
			years = append(years, y)
		}
		sort.Ints(years)

		var previous decimal.NullDecimal
		for i, y := range years {
			p := byPerson[id][y]
			s := SuddenIncrease{Person: p.person, Year: y}
			if p.assets.Valid && p.net.Valid {
				s.Capital = decimal.NewNullDecimal(p.assets.Decimal.Add(p.net.Decimal))
			}
			if i > 0 {
				a := Compare(previous, s.Capital)
				if a.Relative.Valid {
					s.Ratio = decimal.NewNullDecimal(a.Relative.Decimal.Div(hundred))
					s.Symbol = a.Symbol
				}
			}
			previous = s.Capital
			out = append(out, s)
		}
	}
	return out
}
