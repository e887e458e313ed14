package output

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-audit/internal/amount"
	"github.com/dvloznov/finance-audit/internal/domain"
	"github.com/dvloznov/finance-audit/internal/reconcile"
	"github.com/dvloznov/finance-audit/internal/spreadsheet"
	"github.com/dvloznov/finance-audit/internal/trends"
)

const trendSheet = "Tendencias"

var metricLabels = map[domain.Metric]string{
	domain.MetricAssets:      "Activos",
	domain.MetricLiabilities: "Pasivos",
	domain.MetricNetWorth:    "Patrimonio",
	domain.MetricLeverage:    "Apalancamiento",
	domain.MetricDebtLevel:   "Endeudamiento",
	domain.MetricBankBalance: "Banco Saldo",
	domain.MetricGoods:       "Bienes",
	domain.MetricInvestments: "Inversiones",
	domain.MetricIncome:      "Ingresos",
	domain.MetricIncomeCount: "Cant. Ingresos",
}

// TrendHeader returns the fixed column order of the trend output.
func TrendHeader() []string {
	header := []string{"Cedula", "Nombre", "compania", "CARGO", "Año"}
	for _, m := range domain.TrendMetrics {
		label := metricLabels[m]
		header = append(header,
			label,
			label+" Var. Abs.",
			label+" Var. Rel.",
			label+" Tendencia",
		)
	}
	return append(header, "Capital", "Aumento Súbito", "Aumento Súbito Tendencia", "Alerta")
}

// TrendRecord renders one summary in TrendHeader order. threshold is the
// sudden-increase ratio above which the row is flagged.
func TrendRecord(s trends.Summary, threshold decimal.Decimal) []string {
	record := []string{
		s.Person.ID,
		reconcile.DisplayName(s.Person.FullName),
		s.Person.Company,
		s.Person.Role,
		strconv.Itoa(s.Year),
	}

	for _, m := range domain.TrendMetrics {
		a := s.Trend(m)
		record = append(record,
			metricValue(m, s.Value(m)),
			metricValue(m, a.Absolute),
			percent(a.Relative),
			a.Symbol.Glyph(),
		)
	}

	ratio := NotAvailable
	if s.Sudden.Ratio.Valid {
		ratio = amount.FormatRatio(s.Sudden.Ratio.Decimal)
	}
	flag := ""
	if s.Sudden.Flagged(threshold) {
		flag = "ALERTA"
	}
	return append(record,
		amount.FormatNull(s.Sudden.Capital, NotAvailable),
		ratio,
		s.Sudden.Symbol.Glyph(),
		flag,
	)
}

// WriteTrends writes one row per person-year to path (.xlsx or .csv).
func WriteTrends(path string, summaries []trends.Summary, threshold decimal.Decimal) error {
	records := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		records = append(records, TrendRecord(s, threshold))
	}
	return spreadsheet.Write(path, trendSheet, TrendHeader(), records)
}

// metricValue renders percentages for composite metrics, plain counts for
// income_count and money for everything else.
func metricValue(m domain.Metric, d decimal.NullDecimal) string {
	if !d.Valid {
		return NotAvailable
	}
	switch m {
	case domain.MetricLeverage, domain.MetricDebtLevel:
		return amount.FormatPercent(d.Decimal)
	case domain.MetricIncomeCount:
		return d.Decimal.String()
	default:
		return amount.Format(d.Decimal)
	}
}

func percent(d decimal.NullDecimal) string {
	if !d.Valid {
		return NotAvailable
	}
	return amount.FormatPercent(d.Decimal)
}
