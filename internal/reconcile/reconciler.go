package reconcile

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dvloznov/finance-audit/internal/domain"
	"github.com/dvloznov/finance-audit/internal/logger"
)

// Reconciler matches records against a Registry. It is safe for concurrent
// use because the registry is never modified after loading.
type Reconciler struct {
	registry *Registry
}

// NewReconciler returns a Reconciler over registry. A nil registry matches
// nothing.
func NewReconciler(registry *Registry) *Reconciler {
	if registry == nil {
		registry = NewRegistry(nil)
	}
	return &Reconciler{registry: registry}
}

// Match resolves a key: identifier first, then exact name key. When both
// the key and the row found by name carry identifiers, they must be equal.
// Unmatched keys return the zero Person.
func (r *Reconciler) Match(key domain.PersonKey) (domain.Person, bool) {
	if key.ID != "" {
		if p, ok := r.registry.ByID(key.ID); ok {
			return p, true
		}
	}
	if key.Name != "" {
		if p, ok := r.registry.ByName(key.Name); ok && (key.ID == "" || p.ID == "") {
			return p, true
		}
	}
	return domain.Person{}, false
}

// ReconcileTransactions tags every transaction with registry metadata. The
// output has the same length and order as txs. Each distinct unmatched
// cardholder produces one reconciliation miss issue.
func (r *Reconciler) ReconcileTransactions(ctx context.Context, txs []domain.NormalizedTransaction) ([]domain.ReconciledTransaction, []domain.Issue) {
	log := logger.FromContext(ctx)
	out := make([]domain.ReconciledTransaction, 0, len(txs))
	var issues []domain.Issue
	missed := make(map[string]bool)

	for _, tx := range txs {
		key := domain.NewPersonKey("", tx.Cardholder)
		p, ok := r.Match(key)
		out = append(out, domain.ReconciledTransaction{
			NormalizedTransaction: tx,
			Person:                p,
			Matched:               ok,
		})
		if ok || missed[key.String()] {
			continue
		}
		missed[key.String()] = true
		issues = append(issues, domain.Issue{
			Kind:     domain.FailureReconciliationMiss,
			Document: tx.Document,
			Page:     tx.Page,
			Detail:   fmt.Sprintf("cardholder %q not in registry", tx.Cardholder),
		})
	}

	if len(missed) > 0 {
		log.Info().Int("unmatched_cardholders", len(missed)).Msg("reconciliation finished with misses")
	}
	return out, issues
}

// ReconcileFigures fills registry metadata on periodic figures. The figure's
// own Person fields act as the key: identifier first, name as fallback.
// Matched figures keep the declared name when the registry has none.
func (r *Reconciler) ReconcileFigures(ctx context.Context, figs []domain.PeriodicFigure) ([]domain.PeriodicFigure, []domain.Issue) {
	out := make([]domain.PeriodicFigure, 0, len(figs))
	var issues []domain.Issue
	missed := make(map[domain.PersonKey]bool)

	for _, f := range figs {
		key := domain.NewPersonKey(f.Person.ID, f.Person.FullName)
		p, ok := r.Match(key)
		if ok {
			if p.ID == "" {
				p.ID = f.Person.ID
			}
			if p.FullName == "" {
				p.FullName = f.Person.FullName
			}
			f.Person = p
		} else if !missed[key] {
			missed[key] = true
			issues = append(issues, domain.Issue{
				Kind:   domain.FailureReconciliationMiss,
				Detail: fmt.Sprintf("declarant %s not in registry", key),
			})
		}
		f.Matched = ok
		out = append(out, f)
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Int("figures", len(figs)).
		Int("unmatched", len(missed)).
		Msg("figures reconciled")
	return out, issues
}

// DisplayName title-cases a name for output, e.g. "JOSÉ PÉREZ" becomes
// "José Pérez". Keys are never built from display names.
func DisplayName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	return cases.Title(language.Spanish).String(strings.ToLower(name))
}
