package domain

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Person is the registry metadata attached to reconciled records. The zero
// value is the "unmatched" sentinel: every field is an empty string.
type Person struct {
	ID       string
	FullName string
	Role     string
	Unit     string
	Company  string
}

// PersonKey is the normalized join key for a person. ID takes precedence
// over Name when both are set.
type PersonKey struct {
	ID   string
	Name string
}

// NewPersonKey normalizes a raw identifier and name into a join key.
func NewPersonKey(id, name string) PersonKey {
	return PersonKey{ID: CleanIdentifier(id), Name: NameKey(name)}
}

// IsEmpty reports whether the key cannot match anything.
func (k PersonKey) IsEmpty() bool {
	return k.ID == "" && k.Name == ""
}

// String renders the key as used in natural identities.
func (k PersonKey) String() string {
	if k.ID != "" {
		return "id:" + k.ID
	}
	return "name:" + k.Name
}

// NameKey uppercases and trims a name. Diacritics and inner spacing are kept.
func NameKey(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// CleanIdentifier reduces a personal identifier to its digits. Values that
// went through a spreadsheet as numbers ("123.0", "1.0123E9") are read back
// as integers first.
func CleanIdentifier(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if d, err := decimal.NewFromString(s); err == nil && d.IsInteger() && !d.IsNegative() {
		return d.String()
	}
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Identity is the grouping key for a person: the identifier when known,
// the name key otherwise.
func (p Person) Identity() string {
	return NewPersonKey(p.ID, p.FullName).String()
}
