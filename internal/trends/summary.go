package trends

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-audit/internal/domain"
)

// Summary is one output row: every metric of one person in one year with
// its trend annotation.
type Summary struct {
	Person  domain.Person
	Matched bool
	Year    int

	Values map[domain.Metric]decimal.NullDecimal
	Trends map[domain.Metric]domain.TrendAnnotation
	Sudden SuddenIncrease
}

// Value returns the metric value, null when the metric is absent.
func (s Summary) Value(m domain.Metric) decimal.NullDecimal {
	return s.Values[m]
}

// Trend returns the metric annotation, NotApplicable when absent.
func (s Summary) Trend(m domain.Metric) domain.TrendAnnotation {
	if a, ok := s.Trends[m]; ok {
		return a
	}
	return domain.NotApplicable
}

// Summaries pivots figures and their index-aligned annotations into one row
// per (person, year), ordered by person identity then year.
func Summaries(figs []domain.PeriodicFigure, annotations []domain.TrendAnnotation, sudden []SuddenIncrease) []Summary {
	type personYear struct {
		person string
		year   int
	}
	rows := make(map[personYear]*Summary)
	var keys []personYear

	for i, f := range figs {
		k := personYear{person: f.Person.Identity(), year: f.Year}
		s, ok := rows[k]
		if !ok {
			s = &Summary{
				Person:  f.Person,
				Matched: f.Matched,
				Year:    f.Year,
				Values:  make(map[domain.Metric]decimal.NullDecimal),
				Trends:  make(map[domain.Metric]domain.TrendAnnotation),
				Sudden:  SuddenIncrease{Person: f.Person, Year: f.Year},
			}
			rows[k] = s
			keys = append(keys, k)
		}
		s.Values[f.Metric] = f.Value
		if i < len(annotations) {
			s.Trends[f.Metric] = annotations[i]
		}
	}

	for _, si := range sudden {
		if s, ok := rows[personYear{person: si.Person.Identity(), year: si.Year}]; ok {
			s.Sudden = si
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].person != keys[j].person {
			return keys[i].person < keys[j].person
		}
		return keys[i].year < keys[j].year
	})

	out := make([]Summary, 0, len(keys))
	for _, k := range keys {
		out = append(out, *rows[k])
	}
	return out
}
