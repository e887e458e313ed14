package bigquery

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-audit/internal/domain"
)

// CardTransactionRow is one reconciled statement line in
// finance_audit.card_transactions. NUMERIC and DATE columns travel as
// strings; an empty string is NULL.
type CardTransactionRow struct {
	NaturalKey string `bigquery:"natural_key"` // REQUIRED
	RunID      string `bigquery:"run_id"`      // REQUIRED

	PersonID   string `bigquery:"person_id"`
	Cardholder string `bigquery:"cardholder"`
	Company    string `bigquery:"company"`
	Role       string `bigquery:"role"`
	Unit       string `bigquery:"unit"`
	Matched    bool   `bigquery:"matched"`

	CardType   string `bigquery:"card_type"`
	CardSuffix string `bigquery:"card_suffix"`

	Authorization   string `bigquery:"authorization_code"`
	TransactionDate string `bigquery:"transaction_date"` // DATE
	Description     string `bigquery:"description"`

	Currency        string `bigquery:"currency"`
	OriginalAmount  string `bigquery:"original_amount"`  // NUMERIC
	ReferenceAmount string `bigquery:"reference_amount"` // NUMERIC
	Rate            string `bigquery:"rate"`             // NUMERIC

	CategoryName    string `bigquery:"category_name"`
	SubcategoryName string `bigquery:"subcategory_name"`
	Zone            string `bigquery:"zone"`

	Installments string `bigquery:"installments"`
	Placeholder  bool   `bigquery:"placeholder"`

	Document    string `bigquery:"document"`
	Page        int64  `bigquery:"page"`
	Diagnostics string `bigquery:"diagnostics"`
}

var cardTransactionColumns = []string{
	"natural_key", "run_id",
	"person_id", "cardholder", "company", "role", "unit", "matched",
	"card_type", "card_suffix",
	"authorization_code", "transaction_date", "description",
	"currency", "original_amount", "reference_amount", "rate",
	"category_name", "subcategory_name", "zone",
	"installments", "placeholder",
	"document", "page", "diagnostics",
}

// columnTypes casts string-encoded parameters in MERGE statements.
var columnTypes = map[string]string{
	"transaction_date": "DATE",
	"original_amount":  "NUMERIC",
	"reference_amount": "NUMERIC",
	"rate":             "NUMERIC",
	"value":            "NUMERIC",
	"absolute_change":  "NUMERIC",
	"relative_change":  "NUMERIC",
}

// NewCardTransactionRows maps statement rows to table rows. Rows sharing a
// natural key collapse to the last one, since a MERGE source may match
// each target row at most once.
func NewCardTransactionRows(runID string, rows []domain.StatementRow) []*CardTransactionRow {
	out := make([]*CardTransactionRow, 0, len(rows))
	at := make(map[string]int, len(rows))

	for _, r := range rows {
		row := &CardTransactionRow{
			NaturalKey:      r.NaturalKey(),
			RunID:           runID,
			Cardholder:      r.Cardholder,
			Matched:         r.Matched,
			CardType:        r.CardType(),
			CardSuffix:      r.CardSuffix,
			Authorization:   r.Authorization,
			Description:     r.Description,
			Currency:        r.Currency,
			OriginalAmount:  numeric(r.Amount),
			ReferenceAmount: numeric(r.ReferenceAmount),
			Rate:            numeric(r.Rate),
			CategoryName:    r.Category.Name,
			SubcategoryName: r.Category.Subcategory,
			Zone:            r.Category.Zone,
			Installments:    r.Installments,
			Placeholder:     r.Placeholder,
			Document:        r.Document,
			Page:            int64(r.Page),
			Diagnostics:     r.ConversionFailure,
		}
		if r.Matched {
			row.PersonID = r.Person.ID
			row.Company = r.Person.Company
			row.Role = r.Person.Role
			row.Unit = r.Person.Unit
		}
		if r.Date != nil {
			row.TransactionDate = r.Date.String()
		}

		if i, dup := at[row.NaturalKey]; dup {
			out[i] = row
			continue
		}
		at[row.NaturalKey] = len(out)
		out = append(out, row)
	}
	return out
}

// FinancialFigureRow is one periodic figure with its trend in
// finance_audit.financial_figures.
type FinancialFigureRow struct {
	NaturalKey string `bigquery:"natural_key"` // REQUIRED
	RunID      string `bigquery:"run_id"`      // REQUIRED

	PersonID string `bigquery:"person_id"`
	FullName string `bigquery:"full_name"`
	Company  string `bigquery:"company"`
	Matched  bool   `bigquery:"matched"`

	Metric string `bigquery:"metric"`
	Year   int64  `bigquery:"year"`

	Value          string `bigquery:"value"`           // NUMERIC
	AbsoluteChange string `bigquery:"absolute_change"` // NUMERIC
	RelativeChange string `bigquery:"relative_change"` // NUMERIC
	Trend          string `bigquery:"trend"`
}

var financialFigureColumns = []string{
	"natural_key", "run_id",
	"person_id", "full_name", "company", "matched",
	"metric", "year",
	"value", "absolute_change", "relative_change", "trend",
}

// NewFinancialFigureRows maps figures and their index-aligned annotations to
// table rows keyed by person, metric and year.
func NewFinancialFigureRows(runID string, figs []domain.PeriodicFigure, annotations []domain.TrendAnnotation) []*FinancialFigureRow {
	out := make([]*FinancialFigureRow, 0, len(figs))
	at := make(map[string]int, len(figs))

	for i, f := range figs {
		a := domain.NotApplicable
		if i < len(annotations) {
			a = annotations[i]
		}
		row := &FinancialFigureRow{
			NaturalKey:     figureKey(f),
			RunID:          runID,
			PersonID:       f.Person.ID,
			FullName:       f.Person.FullName,
			Company:        f.Person.Company,
			Matched:        f.Matched,
			Metric:         string(f.Metric),
			Year:           int64(f.Year),
			Value:          numeric(f.Value),
			AbsoluteChange: numeric(a.Absolute),
			RelativeChange: numeric(a.Relative),
			Trend:          a.Symbol.String(),
		}

		if j, dup := at[row.NaturalKey]; dup {
			out[j] = row
			continue
		}
		at[row.NaturalKey] = len(out)
		out = append(out, row)
	}
	return out
}

func figureKey(f domain.PeriodicFigure) string {
	return strings.Join([]string{f.Person.Identity(), string(f.Metric), strconv.Itoa(f.Year)}, "|")
}

func numeric(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}
