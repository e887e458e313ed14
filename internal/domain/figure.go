package domain

import (
	"github.com/shopspring/decimal"
)

// Metric names one aggregated financial figure.
type Metric string

const (
	MetricAssets      Metric = "assets"
	MetricLiabilities Metric = "liabilities"
	MetricNetWorth    Metric = "net_worth"
	MetricLeverage    Metric = "leverage"
	MetricDebtLevel   Metric = "debt_level"
	MetricBankBalance Metric = "bank_balance"
	MetricGoods       Metric = "goods"
	MetricInvestments Metric = "investments"
	MetricIncome      Metric = "income"
	MetricIncomeCount Metric = "income_count"
)

// TrendMetrics is the output order of trended metrics.
var TrendMetrics = []Metric{
	MetricAssets,
	MetricLiabilities,
	MetricNetWorth,
	MetricLeverage,
	MetricDebtLevel,
	MetricBankBalance,
	MetricGoods,
	MetricInvestments,
	MetricIncome,
	MetricIncomeCount,
}

// PeriodicFigure is one person's value for one metric in one declared year.
// Value is null when the metric is undefined (e.g. leverage with no assets).
type PeriodicFigure struct {
	Person  Person
	Matched bool
	Metric  Metric
	Year    int
	Value   decimal.NullDecimal
}

// FigureKey identifies a PeriodicFigure.
type FigureKey struct {
	PersonID string
	Metric   Metric
	Year     int
}

// Key returns the (person, metric, period) identity of the figure.
func (f PeriodicFigure) Key() FigureKey {
	return FigureKey{PersonID: f.Person.ID, Metric: f.Metric, Year: f.Year}
}

// TrendSymbol classifies a relative change.
type TrendSymbol int

const (
	TrendNotApplicable TrendSymbol = iota
	TrendIncrease
	TrendDecrease
	TrendStable
)

func (s TrendSymbol) String() string {
	switch s {
	case TrendIncrease:
		return "increase"
	case TrendDecrease:
		return "decrease"
	case TrendStable:
		return "stable"
	default:
		return "not applicable"
	}
}

// Glyph is the compact marker written next to deltas in reports.
func (s TrendSymbol) Glyph() string {
	switch s {
	case TrendIncrease:
		return "📈"
	case TrendDecrease:
		return "📉"
	case TrendStable:
		return "➡️"
	default:
		return "N/A"
	}
}

// TrendAnnotation is the change of a figure against the immediately
// preceding period of the same person and metric.
type TrendAnnotation struct {
	Absolute decimal.NullDecimal
	Relative decimal.NullDecimal
	Symbol   TrendSymbol
}

// NotApplicable is the annotation for figures without usable history.
var NotApplicable = TrendAnnotation{Symbol: TrendNotApplicable}
