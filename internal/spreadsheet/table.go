// Package spreadsheet reads and writes the tabular files exchanged with the
// pipeline: registries, taxonomies, declaration extracts and reports.
package spreadsheet

import (
	"strings"
	"unicode"
)

// Table is the first sheet of a file: a header row and data rows. Rows may
// be shorter than the header; missing cells read as "".
type Table struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

// NewTable builds a Table, dropping fully blank rows.
func NewTable(header []string, rows [][]string) *Table {
	t := &Table{Header: header, index: make(map[string]int, len(header))}
	for i, h := range header {
		key := NormalizeHeader(h)
		if _, dup := t.index[key]; !dup {
			t.index[key] = i
		}
	}
	for _, r := range rows {
		if !blank(r) {
			t.Rows = append(t.Rows, r)
		}
	}
	return t
}

// Column returns the index of the first header matching any of names,
// compared after normalization, or -1.
func (t *Table) Column(names ...string) int {
	for _, n := range names {
		if i, ok := t.index[NormalizeHeader(n)]; ok {
			return i
		}
	}
	return -1
}

// Cell returns the trimmed value at (row, col), or "" when out of range.
func (t *Table) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// NormalizeHeader lowercases a header and joins its words with "_".
// Accents are kept: "Compañía" becomes "compañía".
func NormalizeHeader(h string) string {
	fields := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(h)), func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_'
	})
	return strings.Join(fields, "_")
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
