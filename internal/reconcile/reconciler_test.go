package reconcile

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-audit/internal/domain"
	"github.com/dvloznov/finance-audit/internal/spreadsheet"
)

func registryTable() *spreadsheet.Table {
	return spreadsheet.NewTable(
		[]string{"Cédula", "Nombre Completo", "Cargo", "Compañía", "Área"},
		[][]string{
			{"1.0123E9", "ANA MARÍA PÉREZ", "Analista", "Acme", "Finanzas"},
			{"2002", "luis gómez ", "Gerente", "Acme", "Compras"},
			{"3003", "ANA MARÍA PÉREZ", "Directora", "Beta", "Riesgos"},
			{"", "", "", "", ""},
		},
	)
}

func TestLoadRegistry(t *testing.T) {
	reg, err := LoadRegistry(registryTable())
	if err != nil {
		t.Fatalf("LoadRegistry failed: %v", err)
	}
	if reg.Len() != 3 {
		t.Errorf("Len = %d, want 3", reg.Len())
	}

	p, ok := reg.ByID("1012300000")
	if !ok {
		t.Fatal("scientific-notation identifier not cleaned")
	}
	if p.Unit != "Finanzas" || p.Company != "Acme" {
		t.Errorf("unexpected person %+v", p)
	}

	want := []string{"name:ANA MARÍA PÉREZ"}
	if got := reg.Duplicates(); !reflect.DeepEqual(got, want) {
		t.Errorf("Duplicates = %v, want %v", got, want)
	}
}

func TestLoadRegistryMissingOptionalColumns(t *testing.T) {
	tbl := spreadsheet.NewTable([]string{"nombre"}, [][]string{{"CARLOS RUIZ"}})
	reg, err := LoadRegistry(tbl)
	if err != nil {
		t.Fatalf("LoadRegistry failed: %v", err)
	}
	p, ok := NewReconciler(reg).Match(domain.NewPersonKey("", "carlos ruiz"))
	if !ok {
		t.Fatal("expected match by name")
	}
	if p.Role != "" || p.Company != "" || p.Unit != "" || p.ID != "" {
		t.Errorf("missing columns must be empty, got %+v", p)
	}
}

func TestLoadRegistryWithoutKeyColumns(t *testing.T) {
	tbl := spreadsheet.NewTable([]string{"cargo", "area"}, [][]string{{"x", "y"}})
	if _, err := LoadRegistry(tbl); !errors.Is(err, ErrNoKeyColumn) {
		t.Errorf("err = %v, want ErrNoKeyColumn", err)
	}
}

func TestMatch(t *testing.T) {
	reg, err := LoadRegistry(registryTable())
	if err != nil {
		t.Fatal(err)
	}
	r := NewReconciler(reg)

	tests := []struct {
		name      string
		key       domain.PersonKey
		wantID    string
		wantMatch bool
	}{
		{"identifier wins over name", domain.NewPersonKey("2002", "ANA MARÍA PÉREZ"), "2002", true},
		{"conflicting identifier does not fall back to name", domain.NewPersonKey("9999", "Luis Gómez"), "", false},
		{"duplicate name takes first loaded row", domain.NewPersonKey("", "  ana maría pérez"), "1012300000", true},
		{"diacritics are significant", domain.NewPersonKey("", "ANA MARIA PEREZ"), "", false},
		{"empty key", domain.PersonKey{}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := r.Match(tt.key)
			if ok != tt.wantMatch {
				t.Fatalf("matched = %v, want %v", ok, tt.wantMatch)
			}
			if p.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", p.ID, tt.wantID)
			}
			if !ok && p != (domain.Person{}) {
				t.Errorf("unmatched person must be zero, got %+v", p)
			}
		})
	}
}

func TestReconcileTransactions(t *testing.T) {
	reg, err := LoadRegistry(registryTable())
	if err != nil {
		t.Fatal(err)
	}
	r := NewReconciler(reg)

	txs := []domain.NormalizedTransaction{
		{RawTransaction: domain.RawTransaction{Authorization: "1", Cardholder: "ANA MARÍA PÉREZ", Document: "a.pdf"}},
		{RawTransaction: domain.RawTransaction{Authorization: "2", Cardholder: "PEDRO NADIE", Document: "a.pdf", Page: 2}},
		{RawTransaction: domain.RawTransaction{Authorization: "3", Cardholder: "PEDRO NADIE", Document: "a.pdf", Page: 3}},
		{RawTransaction: domain.RawTransaction{Authorization: "4", Cardholder: "Luis Gómez", Amount: decimal.NewNullDecimal(decimal.NewFromInt(5))}},
	}

	out, issues := r.ReconcileTransactions(context.Background(), txs)

	if len(out) != len(txs) {
		t.Fatalf("got %d records, want %d", len(out), len(txs))
	}
	if !out[0].Matched || out[0].Person.Role != "Analista" {
		t.Errorf("record 0 = %+v", out[0].Person)
	}
	if out[1].Matched || out[1].Person != (domain.Person{}) {
		t.Errorf("record 1 should be unmatched with empty metadata, got %+v", out[1].Person)
	}
	if out[3].Person.ID != "2002" {
		t.Errorf("record 3 ID = %q", out[3].Person.ID)
	}
	if len(issues) != 1 || issues[0].Kind != domain.FailureReconciliationMiss {
		t.Errorf("expected one reconciliation miss per cardholder, got %v", issues)
	}
}

func TestReconcileTransactionsIdempotent(t *testing.T) {
	reg, err := LoadRegistry(registryTable())
	if err != nil {
		t.Fatal(err)
	}
	r := NewReconciler(reg)
	txs := []domain.NormalizedTransaction{
		{RawTransaction: domain.RawTransaction{Authorization: "1", Cardholder: "ANA MARÍA PÉREZ"}},
		{RawTransaction: domain.RawTransaction{Cardholder: "OTRA PERSONA", Description: "CUOTA"}},
	}

	first, firstIssues := r.ReconcileTransactions(context.Background(), txs)
	second, secondIssues := r.ReconcileTransactions(context.Background(), txs)

	if !reflect.DeepEqual(first, second) {
		t.Error("reconciliation is not idempotent")
	}
	if !reflect.DeepEqual(firstIssues, secondIssues) {
		t.Error("issues differ between passes")
	}
	for i := range first {
		if first[i].NaturalKey() != second[i].NaturalKey() {
			t.Errorf("natural key drifted for record %d", i)
		}
	}
}

func TestReconcileFigures(t *testing.T) {
	reg, err := LoadRegistry(registryTable())
	if err != nil {
		t.Fatal(err)
	}
	r := NewReconciler(reg)

	figs := []domain.PeriodicFigure{
		{Person: domain.Person{ID: "2002", FullName: "L GOMEZ"}, Metric: domain.MetricAssets, Year: 2023},
		{Person: domain.Person{ID: "777", FullName: "Nadie"}, Metric: domain.MetricAssets, Year: 2023},
		{Person: domain.Person{ID: "777", FullName: "Nadie"}, Metric: domain.MetricAssets, Year: 2024},
	}

	out, issues := r.ReconcileFigures(context.Background(), figs)
	if !out[0].Matched || out[0].Person.Role != "Gerente" {
		t.Errorf("figure 0 = %+v", out[0])
	}
	if out[1].Matched || out[1].Person.ID != "777" {
		t.Errorf("unmatched figure must keep its declared identity, got %+v", out[1].Person)
	}
	if len(issues) != 1 {
		t.Errorf("got %d issues, want 1", len(issues))
	}
}

func TestMatchNameFallbackForRowWithoutIdentifier(t *testing.T) {
	reg, err := LoadRegistry(spreadsheet.NewTable(
		[]string{"Cédula", "Nombre Completo", "Cargo"},
		[][]string{{"", "MARTA ROJAS", "Auditora"}},
	))
	if err != nil {
		t.Fatal(err)
	}

	p, ok := NewReconciler(reg).Match(domain.NewPersonKey("4004", "Marta Rojas"))
	if !ok || p.Role != "Auditora" {
		t.Errorf("Match = %+v, %v; want the row without identifier", p, ok)
	}
}

func TestReconcileFiguresKeepsDistinctDeclarants(t *testing.T) {
	reg, err := LoadRegistry(spreadsheet.NewTable(
		[]string{"Cédula", "Nombre Completo"},
		[][]string{{"1001", "ANA PEREZ"}},
	))
	if err != nil {
		t.Fatal(err)
	}
	r := NewReconciler(reg)

	figs := []domain.PeriodicFigure{
		{Person: domain.Person{ID: "1001", FullName: "ANA PEREZ"}, Metric: domain.MetricAssets, Year: 2023},
		{Person: domain.Person{ID: "5555", FullName: "ANA PEREZ"}, Metric: domain.MetricAssets, Year: 2023},
	}

	out, issues := r.ReconcileFigures(context.Background(), figs)
	if !out[0].Matched || out[0].Person.ID != "1001" {
		t.Errorf("figure 0 = %+v", out[0].Person)
	}
	if out[1].Matched || out[1].Person.ID != "5555" {
		t.Errorf("declarant 5555 reconciled to %+v, matched=%v", out[1].Person, out[1].Matched)
	}
	if len(issues) != 1 {
		t.Errorf("got %d issues, want 1", len(issues))
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"JOSÉ  PÉREZ":     "José Pérez",
		"maría del pilar": "María Del Pilar",
		"":                "",
	}
	for in, want := range tests {
		if got := DisplayName(in); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}
