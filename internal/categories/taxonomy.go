// Package categories classifies transaction descriptions using the category
// taxonomy sheet, optionally asking a model for descriptions it lacks.
package categories

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dvloznov/finance-audit/internal/domain"
	"github.com/dvloznov/finance-audit/internal/spreadsheet"
)

// ErrNoDescriptionColumn is returned when the taxonomy lacks its key column.
var ErrNoDescriptionColumn = errors.New("taxonomy has no description column")

// Taxonomy maps exact trimmed descriptions to categories.
type Taxonomy struct {
	entries map[string]domain.Category
}

// NewTaxonomy builds a taxonomy from description/category pairs.
func NewTaxonomy(entries map[string]domain.Category) *Taxonomy {
	t := &Taxonomy{entries: make(map[string]domain.Category, len(entries))}
	for desc, c := range entries {
		t.entries[strings.TrimSpace(desc)] = c
	}
	return t
}

// LoadTaxonomy reads the Descripción, Categoría, Subcategoría and Zona
// columns of a taxonomy table.
func LoadTaxonomy(tbl *spreadsheet.Table) (*Taxonomy, error) {
	descCol := tbl.Column("descripción", "descripcion", "description")
	if descCol == -1 {
		return nil, fmt.Errorf("LoadTaxonomy: %w", ErrNoDescriptionColumn)
	}
	catCol := tbl.Column("categoría", "categoria", "category")
	subCol := tbl.Column("subcategoría", "subcategoria", "subcategory")
	zoneCol := tbl.Column("zona", "zone")

	t := &Taxonomy{entries: make(map[string]domain.Category, len(tbl.Rows))}
	for _, row := range tbl.Rows {
		desc := tbl.Cell(row, descCol)
		if desc == "" {
			continue
		}
		if _, seen := t.entries[desc]; seen {
			continue
		}
		t.entries[desc] = domain.Category{
			Name:        tbl.Cell(row, catCol),
			Subcategory: tbl.Cell(row, subCol),
			Zone:        tbl.Cell(row, zoneCol),
		}
	}
	return t, nil
}

// Lookup returns the category of an exact trimmed description.
func (t *Taxonomy) Lookup(description string) (domain.Category, bool) {
	if t == nil {
		return domain.Category{}, false
	}
	c, ok := t.entries[strings.TrimSpace(description)]
	return c, ok
}

// Len returns the number of described entries.
func (t *Taxonomy) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Names returns the distinct category names with their subcategories, both
// sorted.
func (t *Taxonomy) Names() map[string][]string {
	out := make(map[string][]string)
	seen := make(map[string]bool)
	if t == nil {
		return out
	}
	for _, c := range t.entries {
		if c.Name == "" {
			continue
		}
		if _, ok := out[c.Name]; !ok {
			out[c.Name] = nil
		}
		key := c.Name + "\x00" + c.Subcategory
		if c.Subcategory != "" && !seen[key] {
			seen[key] = true
			out[c.Name] = append(out[c.Name], c.Subcategory)
		}
	}
	for name := range out {
		sort.Strings(out[name])
	}
	return out
}
