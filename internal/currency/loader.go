package currency

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ratesFile is the on-disk shape of a rate override:
//
//	reference_per_usd:
//	  2025: 4100.25
//	usd_factors:
//	  2025:
//	    EUR: 1.08
//	monthly_reference_per_usd:
//	  "2025-08": 4000.12
type ratesFile struct {
	ReferencePerUSD        map[int]string            `yaml:"reference_per_usd"`
	USDFactors             map[int]map[string]string `yaml:"usd_factors"`
	MonthlyReferencePerUSD map[string]string         `yaml:"monthly_reference_per_usd"`
}

// LoadTables returns the default tables overlaid with the entries of the
// YAML file at path. An empty path returns the defaults.
func LoadTables(path string) (*Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadTables: read %s: %w", path, err)
	}
	if err := tables.Overlay(data); err != nil {
		return nil, fmt.Errorf("LoadTables: %s: %w", path, err)
	}
	return tables, nil
}

// Overlay merges YAML rate entries into t, replacing existing entries.
func (t *Tables) Overlay(data []byte) error {
	var f ratesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse rates: %w", err)
	}

	for year, raw := range f.ReferencePerUSD {
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("reference_per_usd %d: %w", year, err)
		}
		t.ReferencePerUSD[year] = d
	}

	for year, factors := range f.USDFactors {
		if t.USDFactors[year] == nil {
			t.USDFactors[year] = make(map[string]decimal.Decimal, len(factors))
		}
		for code, raw := range factors {
			d, err := decimal.NewFromString(strings.TrimSpace(raw))
			if err != nil {
				return fmt.Errorf("usd_factors %d %s: %w", year, code, err)
			}
			t.USDFactors[year][strings.ToUpper(code)] = d
		}
	}

	for month, raw := range f.MonthlyReferencePerUSD {
		ts, err := time.Parse("2006-01", strings.TrimSpace(month))
		if err != nil {
			return fmt.Errorf("monthly_reference_per_usd key %q: %w", month, err)
		}
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("monthly_reference_per_usd %s: %w", month, err)
		}
		t.MonthlyReferencePerUSD[MonthKey{Year: ts.Year(), Month: ts.Month()}] = d
	}
	return nil
}
