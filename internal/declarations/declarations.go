// Package declarations turns the raw wealth and income extract into
// per-person yearly figures in the reference currency.
package declarations

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-audit/internal/amount"
	"github.com/dvloznov/finance-audit/internal/currency"
	"github.com/dvloznov/finance-audit/internal/domain"
	"github.com/dvloznov/finance-audit/internal/logger"
	"github.com/dvloznov/finance-audit/internal/spreadsheet"
)

// Category is the "RUBRO DE DECLARACIÓN" of an extract row.
type Category string

const (
	CategoryBank       Category = "Banco"
	CategoryDebt       Category = "Pasivo"
	CategoryGoods      Category = "Patrimonio"
	CategoryIncome     Category = "Ingreso"
	CategoryInvestment Category = "Inversión"
)

// ErrMissingColumn is returned when a required extract column is absent.
var ErrMissingColumn = errors.New("declaration extract is missing a required column")

// DefaultPeriodYears maps fkIdPeriodo to the declared year.
var DefaultPeriodYears = map[int]int{
	2: 2021,
	6: 2022,
	7: 2023,
	8: 2024,
}

// draftState is the fkIdEstado of declarations that were never submitted.
const draftState = 1

// Entry is one declared item converted to the reference currency.
type Entry struct {
	Person   domain.Person
	Category Category
	Year     int
	Currency string
	Original decimal.Decimal
	Value    decimal.Decimal
	Row      int
}

// valueColumns names the amount column per category.
var valueColumns = map[Category]string{
	CategoryBank:       "Banco - Saldo",
	CategoryDebt:       "Pasivos - Valor",
	CategoryGoods:      "Patrimonio - Valor Comercial",
	CategoryIncome:     "Ingresos - Valor",
	CategoryInvestment: "Inversiones - Valor",
}

const ownershipColumn = "Patrimonio - % Propiedad"

// Parser reads extract rows.
type Parser struct {
	normalizer  *currency.Normalizer
	periodYears map[int]int
}

// NewParser returns a Parser. A nil periodYears uses DefaultPeriodYears.
func NewParser(normalizer *currency.Normalizer, periodYears map[int]int) *Parser {
	if periodYears == nil {
		periodYears = DefaultPeriodYears
	}
	return &Parser{normalizer: normalizer, periodYears: periodYears}
}

type columns struct {
	user, name, company, role int
	category, period, state   int
	currency, ownership       int

	values map[Category]int
}

func resolveColumns(t *spreadsheet.Table) (columns, error) {
	c := columns{
		user:      t.Column("Usuario"),
		name:      t.Column("Nombre"),
		company:   t.Column("Compañía", "Compania"),
		role:      t.Column("Cargo"),
		category:  t.Column("RUBRO DE DECLARACIÓN", "RUBRO DE DECLARACION"),
		period:    t.Column("fkIdPeriodo"),
		state:     t.Column("fkIdEstado"),
		currency:  t.Column("Texto Moneda"),
		ownership: t.Column(ownershipColumn),
		values:    make(map[Category]int, len(valueColumns)),
	}
	for cat, name := range valueColumns {
		c.values[cat] = t.Column(name)
	}

	var missing []string
	for name, idx := range map[string]int{
		"Usuario":              c.user,
		"RUBRO DE DECLARACIÓN": c.category,
		"fkIdPeriodo":          c.period,
		"Texto Moneda":         c.currency,
	} {
		if idx == -1 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return c, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return c, nil
}

// Parse converts every submitted row of the extract. Rows that cannot be
// placed in a year or converted are skipped with an issue.
func (p *Parser) Parse(ctx context.Context, t *spreadsheet.Table, source string) ([]Entry, []domain.Issue, error) {
	log := logger.FromContext(ctx)

	cols, err := resolveColumns(t)
	if err != nil {
		return nil, nil, fmt.Errorf("Parse %s: %w", source, err)
	}

	var (
		entries []Entry
		issues  []domain.Issue
		drafts  int
	)
	issue := func(kind domain.FailureKind, row int, format string, args ...interface{}) {
		issues = append(issues, domain.Issue{
			Kind:     kind,
			Document: source,
			Line:     row,
			Detail:   fmt.Sprintf(format, args...),
		})
	}

	for i, row := range t.Rows {
		rowNo := i + 2 // header is row 1

		if state, ok := intCell(t.Cell(row, cols.state)); ok && state == draftState {
			drafts++
			continue
		}

		cat := Category(t.Cell(row, cols.category))
		valueCol, known := cols.values[cat]
		if !known {
			continue
		}
		if valueCol == -1 {
			issue(domain.FailureStructural, rowNo, "no value column %q for %s", valueColumns[cat], cat)
			continue
		}

		period, ok := intCell(t.Cell(row, cols.period))
		if !ok {
			issue(domain.FailureStructural, rowNo, "missing fkIdPeriodo")
			continue
		}
		year, ok := p.periodYears[period]
		if !ok {
			issue(domain.FailureStructural, rowNo, "unknown period %d", period)
			continue
		}

		raw := t.Cell(row, valueCol)
		value, err := amount.Parse(raw)
		if err != nil {
			issue(domain.FailureNumericParse, rowNo, "%s value %q: %v", cat, raw, err)
			continue
		}
		if cat == CategoryGoods {
			share, err := amount.Parse(t.Cell(row, cols.ownership))
			if err != nil {
				issue(domain.FailureNumericParse, rowNo, "ownership %q: %v", t.Cell(row, cols.ownership), err)
				continue
			}
			value = value.Mul(share).Div(decimal.NewFromInt(100))
		}

		moneyText := t.Cell(row, cols.currency)
		code, ok := currency.CodeFromText(moneyText)
		if !ok {
			issue(domain.FailureRateLookup, rowNo, "unknown currency %q", moneyText)
			continue
		}
		conv := p.normalizer.ConvertYear(value, code, year)
		if !conv.OK() {
			issue(domain.FailureRateLookup, rowNo, "%s: %s", code, conv.Failure)
			continue
		}

		entries = append(entries, Entry{
			Person: domain.Person{
				ID:       domain.CleanIdentifier(t.Cell(row, cols.user)),
				FullName: t.Cell(row, cols.name),
				Company:  t.Cell(row, cols.company),
				Role:     t.Cell(row, cols.role),
			},
			Category: cat,
			Year:     year,
			Currency: code,
			Original: value,
			Value:    conv.ReferenceAmount.Decimal,
			Row:      rowNo,
		})
	}

	log.Info().
		Str("source", source).
		Int("entries", len(entries)).
		Int("drafts_skipped", drafts).
		Int("issues", len(issues)).
		Msg("declarations parsed")
	return entries, issues, nil
}

func intCell(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() {
		return 0, false
	}
	return int(d.IntPart()), true
}
