package categories

import (
	"context"
	"strings"
	"sync"

	"github.com/dvloznov/finance-audit/internal/domain"
	"github.com/dvloznov/finance-audit/internal/logger"
)

// Suggester proposes a category for a description the taxonomy lacks.
type Suggester interface {
	Suggest(ctx context.Context, description string) (domain.Category, error)
}

// Categorizer resolves categories from the taxonomy first and falls back to
// an optional Suggester. Suggestions are cached per description.
type Categorizer struct {
	taxonomy  *Taxonomy
	suggester Suggester

	mu    sync.Mutex
	cache map[string]domain.Category
}

// NewCategorizer returns a Categorizer. A nil suggester disables suggestions.
func NewCategorizer(taxonomy *Taxonomy, suggester Suggester) *Categorizer {
	return &Categorizer{
		taxonomy:  taxonomy,
		suggester: suggester,
		cache:     make(map[string]domain.Category),
	}
}

// Categorize returns the category for description. Misses without a working
// suggester yield an empty category.
func (c *Categorizer) Categorize(ctx context.Context, description string) domain.Category {
	desc := strings.TrimSpace(description)
	if desc == "" {
		return domain.Category{}
	}
	if cat, ok := c.taxonomy.Lookup(desc); ok {
		return cat
	}
	if c.suggester == nil {
		return domain.Category{}
	}

	c.mu.Lock()
	cat, ok := c.cache[desc]
	c.mu.Unlock()
	if ok {
		return cat
	}

	cat, err := c.suggester.Suggest(ctx, desc)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().
			Err(err).
			Str("description", desc).
			Msg("category suggestion failed")
		cat = domain.Category{}
	} else {
		cat.Suggested = cat.Name != ""
	}

	c.mu.Lock()
	c.cache[desc] = cat
	c.mu.Unlock()
	return cat
}

// Apply categorizes every record in place and returns how many were
// resolved from the taxonomy and how many were suggested.
func (c *Categorizer) Apply(ctx context.Context, recs []domain.ReconciledTransaction) (found, suggested int) {
	for i := range recs {
		if recs[i].Placeholder {
			continue
		}
		cat := c.Categorize(ctx, recs[i].Description)
		recs[i].Category = cat
		switch {
		case cat.Suggested:
			suggested++
		case cat.Name != "":
			found++
		}
	}
	return found, suggested
}
