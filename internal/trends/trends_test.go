package trends

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-audit/internal/domain"
)

func val(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func fig(id string, m domain.Metric, year int, v string) domain.PeriodicFigure {
	f := domain.PeriodicFigure{Person: domain.Person{ID: id}, Metric: m, Year: year}
	if v != "" {
		f.Value = val(v)
	}
	return f
}

func TestCompareThresholds(t *testing.T) {
	cases := []struct {
		name string
		prev string
		cur  string
		want domain.TrendSymbol
	}{
		{"15 percent is an increase", "100", "115", domain.TrendIncrease},
		{"-12 percent is a decrease", "100", "88", domain.TrendDecrease},
		{"4 percent is stable", "100", "104", domain.TrendStable},
		{"exactly 10 percent is stable", "100", "110", domain.TrendStable},
		{"exactly -10 percent is stable", "100", "90", domain.TrendStable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := Compare(val(tc.prev), val(tc.cur))
			assert.Equal(t, tc.want, a.Symbol)
			require.True(t, a.Relative.Valid)
			require.True(t, a.Absolute.Valid)
		})
	}

	a := Compare(val("100"), val("115"))
	assert.True(t, decimal.NewFromInt(15).Equal(a.Absolute.Decimal))
	assert.True(t, decimal.NewFromInt(15).Equal(a.Relative.Decimal))
}

func TestComparePreviousZero(t *testing.T) {
	a := Compare(val("0"), val("500"))
	assert.False(t, a.Relative.Valid, "relative change from zero is not applicable")
	assert.Equal(t, domain.TrendNotApplicable, a.Symbol)
	assert.True(t, a.Absolute.Valid)
	assert.Equal(t, "N/A", a.Symbol.Glyph())
}

func TestCompareUndefinedValues(t *testing.T) {
	assert.Equal(t, domain.NotApplicable, Compare(decimal.NullDecimal{}, val("1")))
	assert.Equal(t, domain.NotApplicable, Compare(val("1"), decimal.NullDecimal{}))
}

func TestAnnotateSingleFigure(t *testing.T) {
	out := Annotate([]domain.PeriodicFigure{fig("1", domain.MetricAssets, 2023, "100")})
	require.Len(t, out, 1)
	assert.Equal(t, domain.NotApplicable, out[0])
	assert.False(t, out[0].Absolute.Valid, "first period has undefined deltas, never zero")
	assert.False(t, out[0].Relative.Valid)
}

func TestAnnotateSeries(t *testing.T) {
	figs := []domain.PeriodicFigure{
		fig("1", domain.MetricAssets, 2023, "115"),
		fig("2", domain.MetricAssets, 2021, "50"),
		fig("1", domain.MetricAssets, 2021, "0"),
		fig("1", domain.MetricAssets, 2022, "100"),
		fig("1", domain.MetricLiabilities, 2022, "10"),
		fig("1", domain.MetricAssets, 2024, "101.2"),
	}

	out := Annotate(figs)
	require.Len(t, out, len(figs))

	assert.Equal(t, domain.TrendIncrease, out[0].Symbol, "2023 vs 2022")
	assert.Equal(t, domain.NotApplicable, out[1], "other person starts its own series")
	assert.Equal(t, domain.NotApplicable, out[2], "first year ordered by declared year")
	assert.Equal(t, domain.TrendNotApplicable, out[3].Symbol, "previous is zero")
	assert.True(t, out[3].Absolute.Valid)
	assert.Equal(t, domain.NotApplicable, out[4], "other metric starts its own series")
	assert.Equal(t, domain.TrendDecrease, out[5].Symbol, "2024 vs 2023 is -12%")
}

func TestComposite(t *testing.T) {
	figs := []domain.PeriodicFigure{
		fig("1", domain.MetricAssets, 2023, "1000"),
		fig("1", domain.MetricLiabilities, 2023, "250"),
		fig("1", domain.MetricNetWorth, 2023, "750"),
		fig("2", domain.MetricAssets, 2023, "0"),
		fig("2", domain.MetricLiabilities, 2023, "10"),
		fig("2", domain.MetricNetWorth, 2023, "-10"),
		fig("3", domain.MetricIncome, 2023, "5"),
	}

	out := Composite(figs)
	require.Len(t, out, len(figs)+4)

	derived := map[string]decimal.NullDecimal{}
	for _, f := range out[len(figs):] {
		derived[f.Person.ID+"/"+string(f.Metric)] = f.Value
	}
	assert.True(t, decimal.NewFromInt(75).Equal(derived["1/leverage"].Decimal))
	assert.True(t, decimal.NewFromInt(25).Equal(derived["1/debt_level"].Decimal))
	assert.False(t, derived["2/leverage"].Valid, "zero assets leave leverage undefined")
	assert.False(t, derived["2/debt_level"].Valid)
}

func TestSuddenIncreases(t *testing.T) {
	figs := []domain.PeriodicFigure{
		fig("1", domain.MetricAssets, 2022, "100"),
		fig("1", domain.MetricNetWorth, 2022, "100"),
		fig("1", domain.MetricAssets, 2023, "130"),
		fig("1", domain.MetricNetWorth, 2023, "130"),
		fig("1", domain.MetricAssets, 2024, "500"),
		fig("1", domain.MetricNetWorth, 2024, "500"),
	}

	out := SuddenIncreases(figs)
	require.Len(t, out, 3)

	assert.False(t, out[0].Ratio.Valid)
	assert.Equal(t, domain.TrendNotApplicable, out[0].Symbol)
	assert.True(t, decimal.NewFromInt(200).Equal(out[0].Capital.Decimal))

	assert.True(t, decimal.RequireFromString("0.3").Equal(out[1].Ratio.Decimal))
	assert.Equal(t, domain.TrendIncrease, out[1].Symbol)

	threshold := decimal.RequireFromString("2.0")
	assert.False(t, out[1].Flagged(threshold))
	require.True(t, out[2].Ratio.Valid)
	assert.True(t, out[2].Flagged(threshold), "ratio %s", out[2].Ratio.Decimal)
}

func TestSummaries(t *testing.T) {
	figs := []domain.PeriodicFigure{
		fig("2", domain.MetricAssets, 2023, "10"),
		fig("1", domain.MetricAssets, 2024, "115"),
		fig("1", domain.MetricAssets, 2023, "100"),
		fig("1", domain.MetricNetWorth, 2023, "100"),
	}
	ann := Annotate(figs)
	rows := Summaries(figs, ann, SuddenIncreases(figs))

	require.Len(t, rows, 3)
	assert.Equal(t, "1", rows[0].Person.ID)
	assert.Equal(t, 2023, rows[0].Year)
	assert.Equal(t, 2024, rows[1].Year)
	assert.Equal(t, "2", rows[2].Person.ID)

	assert.Equal(t, domain.TrendIncrease, rows[1].Trend(domain.MetricAssets).Symbol)
	assert.Equal(t, domain.NotApplicable, rows[1].Trend(domain.MetricLeverage))
	assert.False(t, rows[1].Value(domain.MetricNetWorth).Valid)
	assert.True(t, decimal.NewFromInt(200).Equal(rows[0].Sudden.Capital.Decimal))
}
