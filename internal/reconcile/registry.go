// Package reconcile attaches person registry metadata to statement records
// and periodic figures.
package reconcile

import (
	"errors"
	"fmt"

	"github.com/dvloznov/finance-audit/internal/domain"
	"github.com/dvloznov/finance-audit/internal/spreadsheet"
)

// ErrNoKeyColumn is returned when a registry has neither an identifier nor
// a name column.
var ErrNoKeyColumn = errors.New("registry has no identifier or name column")

var (
	idColumns      = []string{"cedula", "cédula", "identifier", "id", "usuario"}
	nameColumns    = []string{"nombre_completo", "full_name", "nombre", "name"}
	roleColumns    = []string{"cargo", "role"}
	companyColumns = []string{"compania", "compañía", "company"}
	unitColumns    = []string{"area", "área", "unit"}
)

// Registry is the read-only person master list. Lookups return the first
// row loaded for a key; later rows with the same key are shadowed.
type Registry struct {
	people []domain.Person
	byID   map[string]int
	byName map[string]int

	duplicates []string
}

// NewRegistry indexes people in the given order.
func NewRegistry(people []domain.Person) *Registry {
	r := &Registry{
		people: make([]domain.Person, 0, len(people)),
		byID:   make(map[string]int, len(people)),
		byName: make(map[string]int, len(people)),
	}
	for _, p := range people {
		r.add(p)
	}
	return r
}

func (r *Registry) add(p domain.Person) {
	idx := len(r.people)
	r.people = append(r.people, p)

	if id := domain.CleanIdentifier(p.ID); id != "" {
		if _, dup := r.byID[id]; dup {
			r.duplicates = append(r.duplicates, "id:"+id)
		} else {
			r.byID[id] = idx
		}
	}
	if name := domain.NameKey(p.FullName); name != "" {
		if _, dup := r.byName[name]; dup {
			r.duplicates = append(r.duplicates, "name:"+name)
		} else {
			r.byName[name] = idx
		}
	}
}

// LoadRegistry reads a registry table. Missing optional columns become
// empty values.
func LoadRegistry(t *spreadsheet.Table) (*Registry, error) {
	idCol := t.Column(idColumns...)
	nameCol := t.Column(nameColumns...)
	if idCol == -1 && nameCol == -1 {
		return nil, fmt.Errorf("LoadRegistry: %w", ErrNoKeyColumn)
	}
	roleCol := t.Column(roleColumns...)
	companyCol := t.Column(companyColumns...)
	unitCol := t.Column(unitColumns...)

	people := make([]domain.Person, 0, len(t.Rows))
	for _, row := range t.Rows {
		p := domain.Person{
			ID:       domain.CleanIdentifier(t.Cell(row, idCol)),
			FullName: t.Cell(row, nameCol),
			Role:     t.Cell(row, roleCol),
			Company:  t.Cell(row, companyCol),
			Unit:     t.Cell(row, unitCol),
		}
		if p.ID == "" && domain.NameKey(p.FullName) == "" {
			continue
		}
		people = append(people, p)
	}
	return NewRegistry(people), nil
}

// Len returns the number of loaded rows, shadowed ones included.
func (r *Registry) Len() int {
	return len(r.people)
}

// Duplicates lists the keys that appeared more than once, in load order.
func (r *Registry) Duplicates() []string {
	return append([]string(nil), r.duplicates...)
}

// ByID returns the first person loaded with the given cleaned identifier.
func (r *Registry) ByID(id string) (domain.Person, bool) {
	idx, ok := r.byID[id]
	if !ok {
		return domain.Person{}, false
	}
	return r.people[idx], true
}

// ByName returns the first person loaded with the given name key.
func (r *Registry) ByName(name string) (domain.Person, bool) {
	idx, ok := r.byName[name]
	if !ok {
		return domain.Person{}, false
	}
	return r.people[idx], true
}
