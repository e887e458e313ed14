package declarations

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-audit/internal/domain"
)

// metricOf maps a declaration category to the figure it sums into.
var metricOf = map[Category]domain.Metric{
	CategoryBank:       domain.MetricBankBalance,
	CategoryDebt:       domain.MetricLiabilities,
	CategoryGoods:      domain.MetricGoods,
	CategoryIncome:     domain.MetricIncome,
	CategoryInvestment: domain.MetricInvestments,
}

type personYear struct {
	id   string
	year int
}

type sums struct {
	person domain.Person
	values map[domain.Metric]decimal.Decimal
}

// Aggregate sums entries into one PeriodicFigure per (person, metric, year).
// Every person-year gets the full set of base metrics, zero when nothing was
// declared, plus assets = bank + goods + investments and net worth =
// assets - liabilities. Output is ordered by person, year, then metric.
func Aggregate(entries []Entry) []domain.PeriodicFigure {
	groups := make(map[personYear]*sums)
	var order []personYear

	for _, e := range entries {
		key := personYear{id: e.Person.Identity(), year: e.Year}
		g, ok := groups[key]
		if !ok {
			g = &sums{person: e.Person, values: make(map[domain.Metric]decimal.Decimal)}
			groups[key] = g
			order = append(order, key)
		}
		m := metricOf[e.Category]
		g.values[m] = g.values[m].Add(e.Value)
		if e.Category == CategoryIncome {
			g.values[domain.MetricIncomeCount] = g.values[domain.MetricIncomeCount].Add(decimal.NewFromInt(1))
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].id != order[j].id {
			return order[i].id < order[j].id
		}
		return order[i].year < order[j].year
	})

	var out []domain.PeriodicFigure
	for _, key := range order {
		g := groups[key]
		v := g.values
		assets := v[domain.MetricBankBalance].Add(v[domain.MetricGoods]).Add(v[domain.MetricInvestments])
		v[domain.MetricAssets] = assets
		v[domain.MetricNetWorth] = assets.Sub(v[domain.MetricLiabilities])

		for _, m := range baseMetrics {
			out = append(out, domain.PeriodicFigure{
				Person: g.person,
				Metric: m,
				Year:   key.year,
				Value:  decimal.NewNullDecimal(v[m]),
			})
		}
	}
	return out
}

// baseMetrics are the metrics Aggregate emits; composite ratios are added
// later by the trend engine.
var baseMetrics = []domain.Metric{
	domain.MetricAssets,
	domain.MetricLiabilities,
	domain.MetricNetWorth,
	domain.MetricBankBalance,
	domain.MetricGoods,
	domain.MetricInvestments,
	domain.MetricIncome,
	domain.MetricIncomeCount,
}
