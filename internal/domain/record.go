package domain

import (
	"strings"
)

// Category is the taxonomy classification of a transaction description.
type Category struct {
	Name        string
	Subcategory string
	Zone        string
	// Suggested is set when the category came from the model rather than
	// from the taxonomy sheet.
	Suggested bool
}

// ReconciledTransaction is a normalized transaction tagged with registry
// metadata. Unmatched records carry a zero Person.
type ReconciledTransaction struct {
	NormalizedTransaction

	Person   Person
	Matched  bool
	Category Category
}

// PersonIdentity is the person part of the natural identity: the registry
// identifier when matched, the printed cardholder key otherwise.
func (r ReconciledTransaction) PersonIdentity() string {
	if r.Matched && r.Person.ID != "" {
		return "id:" + r.Person.ID
	}
	return "name:" + NameKey(r.Cardholder)
}

// NaturalKey identifies the record across reconciliation passes so that
// downstream storage can upsert instead of duplicating. It is person + date
// + amount + authorization, or person + description without authorization.
func (r ReconciledTransaction) NaturalKey() string {
	person := r.PersonIdentity()
	if strings.TrimSpace(r.Authorization) == "" {
		return strings.Join([]string{person, strings.TrimSpace(r.Description)}, "|")
	}

	date := r.DateText
	if r.Date != nil {
		date = r.Date.String()
	}
	amount := r.AmountText
	if r.Amount.Valid {
		amount = r.Amount.Decimal.String()
	}
	return strings.Join([]string{person, date, amount, r.Authorization}, "|")
}

// StatementRow is a reconciled transaction ready for output.
type StatementRow struct {
	ReconciledTransaction

	// DisplayName is the title-cased cardholder name.
	DisplayName string
	// CardsPerPerson counts the distinct cards of the same cardholder.
	CardsPerPerson int
	// Weekday is the Spanish day name of the transaction date, or "".
	Weekday string
}
