package spreadsheet

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Nombre Completo", "nombre_completo"},
		{"  CEDULA ", "cedula"},
		{"Compañía", "compañía"},
		{"RUBRO DE DECLARACIÓN", "rubro_de_declaración"},
		{"Banco - Saldo", "banco_saldo"},
		{"full_name", "full_name"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeHeader(tt.in); got != tt.want {
				t.Errorf("NormalizeHeader(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTableColumnAndCell(t *testing.T) {
	tbl := NewTable(
		[]string{"Cedula", "Nombre Completo", "Cargo", "cedula"},
		[][]string{
			{"123", " ANA PEREZ ", "Analista"},
			{"", "", ""},
			{"456"},
		},
	)

	if len(tbl.Rows) != 2 {
		t.Fatalf("expected blank rows to be dropped, got %d rows", len(tbl.Rows))
	}
	if got := tbl.Column("identifier", "cedula"); got != 0 {
		t.Errorf("Column(cedula) = %d, want first occurrence 0", got)
	}
	if got := tbl.Column("nombre_completo"); got != 1 {
		t.Errorf("Column(nombre_completo) = %d, want 1", got)
	}
	if got := tbl.Column("area"); got != -1 {
		t.Errorf("Column(area) = %d, want -1", got)
	}
	if got := tbl.Cell(tbl.Rows[0], 1); got != "ANA PEREZ" {
		t.Errorf("Cell trimmed = %q", got)
	}
	if got := tbl.Cell(tbl.Rows[1], 2); got != "" {
		t.Errorf("short row cell = %q, want empty", got)
	}
	if got := tbl.Cell(tbl.Rows[1], -1); got != "" {
		t.Errorf("negative column cell = %q, want empty", got)
	}
}

func TestWriteReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	header := []string{"Descripción", "Categoría"}
	rows := [][]string{
		{"EXITO CALLE 80", "Mercado"},
		{"UBER TRIP", "Transporte"},
	}

	if err := Write(path, "Movimientos", header, rows); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	tbl, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(tbl.Header) != 2 || tbl.Header[1] != "Categoría" {
		t.Errorf("unexpected header %v", tbl.Header)
	}
	if len(tbl.Rows) != 2 || tbl.Rows[1][0] != "UBER TRIP" {
		t.Errorf("unexpected rows %v", tbl.Rows)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	defer f.Close()
	if name := f.GetSheetName(0); name != "Movimientos" {
		t.Errorf("sheet name = %q, want Movimientos", name)
	}
}

func TestReadXLSXFirstSheetOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.xlsx")

	f := excelize.NewFile()
	if err := f.SetSheetRow("Sheet1", "A1", &[]interface{}{"cedula", "nombre"}); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Sheet1", "A2", &[]interface{}{1012300000, "LUIS GOMEZ"}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.NewSheet("Otra"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Otra", "A1", &[]interface{}{"ignored"}); err != nil {
		t.Fatal(err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	tbl, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if tbl.Column("cedula") != 0 || len(tbl.Rows) != 1 {
		t.Fatalf("unexpected table %+v", tbl)
	}
	if got := tbl.Cell(tbl.Rows[0], 1); got != "LUIS GOMEZ" {
		t.Errorf("name cell = %q", got)
	}
}

func TestWriteReadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := Write(path, "", []string{"a", "b"}, [][]string{{"1", "x,y"}, {"2", ""}}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	tbl, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(tbl.Rows) != 2 || tbl.Rows[0][1] != "x,y" {
		t.Errorf("unexpected rows %v", tbl.Rows)
	}
}

func TestReadCSVStripsBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bom.csv")
	if err := os.WriteFile(path, []byte("\ufeffcedula,nombre\n1,ANA\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tbl, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if tbl.Column("cedula") != 0 {
		t.Errorf("BOM not stripped from header %q", tbl.Header[0])
	}
}

func TestUnsupportedExtension(t *testing.T) {
	if _, err := Read("registry.ods"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Read error = %v, want ErrUnsupported", err)
	}
	if err := Write(filepath.Join(t.TempDir(), "x.txt"), "", nil, nil); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Write error = %v, want ErrUnsupported", err)
	}
	if _, err := Read(filepath.Join(t.TempDir(), "missing.xlsx")); err == nil {
		t.Error("expected error for missing file")
	}
}
