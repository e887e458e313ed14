package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-audit/internal/categories"
	"github.com/dvloznov/finance-audit/internal/currency"
	"github.com/dvloznov/finance-audit/internal/declarations"
	"github.com/dvloznov/finance-audit/internal/domain"
	"github.com/dvloznov/finance-audit/internal/logger"
	"github.com/dvloznov/finance-audit/internal/reconcile"
	"github.com/dvloznov/finance-audit/internal/spreadsheet"
	"github.com/dvloznov/finance-audit/internal/storage"
)

func testContext() context.Context {
	return logger.WithContext(context.Background(), logger.Nop())
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func statementConfig(dir string) StatementConfig {
	registry := reconcile.NewRegistry([]domain.Person{
		{ID: "79123456", FullName: "JUAN CARLOS PEREZ", Company: "Acme", Role: "Analista"},
	})
	taxonomy := categories.NewTaxonomy(map[string]domain.Category{
		"RESTAURANTE EL CIELO": {Name: "Alimentación", Subcategory: "Restaurantes"},
	})
	return StatementConfig{
		Source:            storage.NewDirSource(dir),
		ReferenceCurrency: "COP",
		Workers:           2,
		Normalizer:        currency.NewNormalizer("COP", currency.DefaultTables()),
		Reconciler:        reconcile.NewReconciler(registry),
		Categorizer:       categories.NewCategorizer(taxonomy, nil),
	}
}

func TestRunStatements(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "MC_ENERO.txt", strings.Join([]string{
		"SEÑOR (A): JUAN CARLOS PEREZ",
		"TARJETA: ************1234",
		"AUT01 05/01/2024 RESTAURANTE EL CIELO 150.000,00 1,89 25,34 150.000,00 0,00 1/1",
		"TARJETA: ************5678",
		"AUT02 06/01/2024 LIBRERIA CENTRAL 20.000,00 1,89 25,34 20.000,00 0,00 1/1",
	}, "\n"))
	writeFile(t, dir, "VISA_MARZO.pdf", "not a pdf")
	writeFile(t, dir, "notes.txt", "nothing to see")

	state, err := RunStatements(testContext(), statementConfig(dir))
	if err != nil {
		t.Fatalf("RunStatements failed: %v", err)
	}

	r := state.Report
	if r.RunID == "" || r.RunID != state.RunID {
		t.Errorf("report run ID %q does not match state %q", r.RunID, state.RunID)
	}
	if r.Documents != 3 || r.DocumentsSkipped != 1 || r.DocumentsFailed != 1 {
		t.Errorf("unexpected document counts: %+v", r)
	}
	if r.Records != 2 {
		t.Errorf("Records = %d, want 2", r.Records)
	}
	if got := r.Count(domain.FailureIO); got != 1 {
		t.Errorf("io issues = %d, want 1", got)
	}
	if got := r.Count(domain.FailureReconciliationMiss); got != 0 {
		t.Errorf("unexpected reconciliation misses: %v", r.Issues)
	}

	if len(state.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(state.Rows))
	}
	first := state.Rows[0]
	if !first.Matched || first.Person.ID != "79123456" {
		t.Errorf("first row not reconciled: %+v", first.Person)
	}
	if first.CardsPerPerson != 2 {
		t.Errorf("CardsPerPerson = %d, want 2", first.CardsPerPerson)
	}
	if first.Weekday != "Viernes" {
		t.Errorf("Weekday = %q, want Viernes", first.Weekday)
	}
	if first.DisplayName != "Juan Carlos Perez" {
		t.Errorf("DisplayName = %q", first.DisplayName)
	}
	if first.Category.Name != "Alimentación" {
		t.Errorf("Category = %+v", first.Category)
	}
	if !first.ReferenceAmount.Valid || !first.ReferenceAmount.Decimal.Equal(decimal.NewFromInt(150000)) {
		t.Errorf("ReferenceAmount = %v", first.ReferenceAmount)
	}
	if state.Rows[1].Category.Name != "" || state.Rows[1].Weekday != "Sábado" {
		t.Errorf("unexpected second row: %+v", state.Rows[1])
	}
}

func TestRunStatementsWithoutRegistry(t *testing.T) {
	cfg := statementConfig(t.TempDir())
	cfg.Reconciler = nil

	state, err := RunStatements(testContext(), cfg)
	if !errors.Is(err, ErrNoReconciler) {
		t.Fatalf("err = %v, want ErrNoReconciler", err)
	}
	if state.Report == nil {
		t.Fatal("expected a report even when the run stops")
	}
}

func TestRunStatementsListFailure(t *testing.T) {
	cfg := statementConfig(filepath.Join(t.TempDir(), "missing"))
	if _, err := RunStatements(testContext(), cfg); err == nil {
		t.Fatal("expected error for missing source directory")
	}
}

func TestCardsPerPerson(t *testing.T) {
	rec := func(holder, suffix string) domain.ReconciledTransaction {
		var r domain.ReconciledTransaction
		r.Cardholder = holder
		r.CardSuffix = suffix
		return r
	}
	counts := CardsPerPerson([]domain.ReconciledTransaction{
		rec("ANA", "1111"),
		rec("ana", "1111"),
		rec("ANA", "2222"),
		rec("LUIS", "3333"),
		rec("LUIS", ""),
	})
	if counts["name:ANA"] != 2 || counts["name:LUIS"] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
}

func TestWeekday(t *testing.T) {
	tests := []struct {
		day  time.Weekday
		want string
	}{
		{time.Monday, "Lunes"},
		{time.Wednesday, "Miércoles"},
		{time.Saturday, "Sábado"},
		{time.Sunday, "Domingo"},
	}
	for _, tt := range tests {
		if got := Weekday(tt.day); got != tt.want {
			t.Errorf("Weekday(%v) = %q, want %q", tt.day, got, tt.want)
		}
	}
}

func TestRunTrends(t *testing.T) {
	dir := t.TempDir()
	header := []string{"fkIdPeriodo", "fkIdEstado", "Usuario", "Nombre", "RUBRO DE DECLARACIÓN", "Texto Moneda", "Banco - Saldo"}
	good := filepath.Join(dir, "extract.csv")
	err := spreadsheet.Write(good, "", header, [][]string{
		{"7", "2", "1001", "ANA PEREZ", "Banco", "COP - Peso colombiano", "1000"},
		{"8", "2", "1001", "ANA PEREZ", "Banco", "COP - Peso colombiano", "2000"},
	})
	if err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(dir, "broken.csv")
	if err := spreadsheet.Write(bad, "", []string{"Usuario"}, [][]string{{"1001"}}); err != nil {
		t.Fatal(err)
	}

	cfg := TrendConfig{
		Paths:  []string{good, bad, filepath.Join(dir, "missing.xlsx")},
		Parser: declarations.NewParser(currency.NewNormalizer("COP", nil), nil),
		Reconciler: reconcile.NewReconciler(reconcile.NewRegistry([]domain.Person{
			{ID: "1001", FullName: "ANA PEREZ", Company: "Acme"},
		})),
	}
	state, err := RunTrends(testContext(), cfg)
	if err != nil {
		t.Fatalf("RunTrends failed: %v", err)
	}

	r := state.Report
	if r.Documents != 3 || r.DocumentsFailed != 2 {
		t.Errorf("unexpected document counts: %+v", r)
	}
	if r.Count(domain.FailureStructural) != 1 || r.Count(domain.FailureIO) != 1 {
		t.Errorf("unexpected issues: %v", r.Issues)
	}

	if len(state.Summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(state.Summaries))
	}
	last := state.Summaries[1]
	if last.Year != 2024 || !last.Matched || last.Person.Company != "Acme" {
		t.Errorf("unexpected summary: %+v", last)
	}
	if got := last.Trend(domain.MetricAssets).Symbol; got != domain.TrendIncrease {
		t.Errorf("assets trend = %v, want increase", got)
	}
	if got := state.Summaries[0].Trend(domain.MetricAssets).Symbol; got != domain.TrendNotApplicable {
		t.Errorf("first year trend = %v, want not applicable", got)
	}
}

func TestRunTrendsNothingLoaded(t *testing.T) {
	cfg := TrendConfig{
		Paths:  []string{filepath.Join(t.TempDir(), "missing.csv")},
		Parser: declarations.NewParser(currency.NewNormalizer("COP", nil), nil),
	}
	state, err := RunTrends(testContext(), cfg)
	if err == nil {
		t.Fatal("expected error when no extract loads")
	}
	if state.Report.DocumentsFailed != 1 {
		t.Errorf("DocumentsFailed = %d, want 1", state.Report.DocumentsFailed)
	}
}
