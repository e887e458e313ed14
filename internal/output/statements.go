// Package output renders pipeline results as fixed-column spreadsheets.
package output

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-audit/internal/amount"
	"github.com/dvloznov/finance-audit/internal/domain"
	"github.com/dvloznov/finance-audit/internal/spreadsheet"
)

// NotAvailable renders undefined values.
const NotAvailable = "N/A"

const (
	statementSheet = "Extractos"
	suggestedNote  = "categoría sugerida"
)

// StatementHeader is the fixed column order of the statement output.
var StatementHeader = []string{
	"Cedula", "compania", "CARGO", "AREA",
	"Tarjetahabiente", "Tipo de Tarjeta", "Número de Tarjeta", "Tar. x Per.",
	"Moneda", "TRM Cierre", "Valor Original", "Valor COP",
	"Número de Autorización", "Fecha de Transacción", "Día", "Descripción",
	"Categoría", "Subcategoría", "Zona",
	"Tasa Pactada", "Tasa EA Facturada", "Cargos y Abonos", "Saldo a Diferir", "Cuotas",
	"Página", "Archivo",
	"Diagnóstico",
}

// StatementRecord renders one row in StatementHeader order. A failed
// conversion leaves rate and reference amount empty and explains itself in
// the diagnostics column.
func StatementRecord(row domain.StatementRow) []string {
	var id, company, role, unit string
	if row.Matched {
		id, company, role, unit = row.Person.ID, row.Person.Company, row.Person.Role, row.Person.Unit
	}

	rate, reference := "", ""
	if row.ConversionFailure == "" {
		rate = amount.FormatNull(row.Rate, NotAvailable)
		reference = amount.FormatNull(row.ReferenceAmount, NotAvailable)
	}

	original := row.AmountText
	if row.Amount.Valid {
		original = amount.Format(row.Amount.Decimal)
	}

	date := row.DateText
	if row.Date != nil {
		date = row.Date.String()
	}

	return []string{
		id, company, role, unit,
		row.DisplayName, row.CardType(), row.CardSuffix, strconv.Itoa(row.CardsPerPerson),
		row.Currency, rate, original, reference,
		row.Authorization, date, row.Weekday, row.Description,
		row.Category.Name, row.Category.Subcategory, row.Category.Zone,
		row.ContractualRate, row.EffectiveAnnualRate, optional(row.Charges), optional(row.DeferredBalance), row.Installments,
		strconv.Itoa(row.Page), row.Document,
		diagnostics(row),
	}
}

// WriteStatements writes the statement rows to path (.xlsx or .csv).
func WriteStatements(path string, rows []domain.StatementRow) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, StatementRecord(row))
	}
	return spreadsheet.Write(path, statementSheet, StatementHeader, records)
}

func optional(d decimal.NullDecimal) string {
	return amount.FormatNull(d, "")
}

func diagnostics(row domain.StatementRow) string {
	var notes []string
	if row.ConversionFailure != "" {
		notes = append(notes, row.ConversionFailure)
	}
	if row.Category.Suggested {
		notes = append(notes, suggestedNote)
	}
	return strings.Join(notes, "; ")
}
