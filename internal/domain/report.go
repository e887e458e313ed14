package domain

import (
	"fmt"
	"sort"
	"strings"
)

// FailureKind classifies a degraded record or document.
type FailureKind string

const (
	FailureStructural         FailureKind = "structural"
	FailureIO                 FailureKind = "io"
	FailureRateLookup         FailureKind = "rate_lookup"
	FailureReconciliationMiss FailureKind = "reconciliation_miss"
	FailureNumericParse       FailureKind = "numeric_parse"
)

// Issue is a typed, non-fatal failure attached to a unit of work.
type Issue struct {
	Kind     FailureKind
	Document string
	Page     int
	Line     int
	Detail   string
}

func (i Issue) String() string {
	var loc []string
	if i.Document != "" {
		loc = append(loc, i.Document)
	}
	if i.Page > 0 {
		loc = append(loc, fmt.Sprintf("page %d", i.Page))
	}
	if i.Line > 0 {
		loc = append(loc, fmt.Sprintf("line %d", i.Line))
	}
	if len(loc) == 0 {
		return fmt.Sprintf("%s: %s", i.Kind, i.Detail)
	}
	return fmt.Sprintf("%s (%s): %s", i.Kind, strings.Join(loc, ", "), i.Detail)
}

// Report summarizes a batch run. It is filled from a single goroutine.
type Report struct {
	RunID string

	Documents        int
	DocumentsSkipped int
	DocumentsFailed  int
	Records          int
	Placeholders     int

	Issues []Issue
}

// Add appends issues to the report.
func (r *Report) Add(issues ...Issue) {
	r.Issues = append(r.Issues, issues...)
}

// Count returns the number of issues of the given kind.
func (r *Report) Count(kind FailureKind) int {
	n := 0
	for _, is := range r.Issues {
		if is.Kind == kind {
			n++
		}
	}
	return n
}

// Counts returns issue counts per kind.
func (r *Report) Counts() map[FailureKind]int {
	counts := make(map[FailureKind]int)
	for _, is := range r.Issues {
		counts[is.Kind]++
	}
	return counts
}

// Summary renders a short human-readable digest of the run.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s: %d documents (%d skipped, %d failed), %d records (%d placeholders)\n",
		r.RunID, r.Documents, r.DocumentsSkipped, r.DocumentsFailed, r.Records, r.Placeholders)

	counts := r.Counts()
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(&b, "  %-20s %d\n", k, counts[FailureKind(k)])
	}
	return b.String()
}
