package currency

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-audit/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestConvert_ReferenceCurrencyIsIdentity(t *testing.T) {
	n := NewNormalizer("COP", nil)

	for _, amount := range []string{"0", "1234.5678", "-99.999", "123456789012.34"} {
		for _, year := range []int{1999, 2023, 2099} {
			c := n.ConvertYear(dec(amount), "cop", year)

			require.True(t, c.OK(), "conversion of reference currency must not fail")
			assert.True(t, c.ReferenceAmount.Decimal.Equal(dec(amount)))
			assert.Equal(t, dec(amount).String(), c.ReferenceAmount.Decimal.String(), "no rounding drift")
			assert.True(t, c.Rate.Decimal.Equal(decimal.NewFromInt(1)))
			assert.True(t, c.Bucket.IsZero(), "no lookup is performed")
		}
	}
}

func TestConvert_EURScenario(t *testing.T) {
	n := NewNormalizer("COP", nil)

	c := n.ConvertYear(dec("1234.56"), "EUR", 2023)

	require.True(t, c.OK())
	want := dec("1234.56").Mul(dec("1.096")).Mul(dec("4780.38"))
	assert.True(t, want.Equal(c.ReferenceAmount.Decimal), "got %s want %s", c.ReferenceAmount.Decimal, want)
	assert.True(t, dec("1.096").Equal(c.USDFactor.Decimal))
	assert.True(t, dec("4780.38").Equal(c.ReferenceRate.Decimal))
	assert.Equal(t, "2023", c.Bucket.String())
}

func TestConvert_USD(t *testing.T) {
	n := NewNormalizer("COP", nil)

	t.Run("yearly", func(t *testing.T) {
		c := n.ConvertYear(dec("100"), "USD", 2021)
		require.True(t, c.OK())
		assert.True(t, dec("398116").Equal(c.ReferenceAmount.Decimal))
	})

	t.Run("monthly", func(t *testing.T) {
		c := n.ConvertOn(dec("10"), "USD", civil.Date{Year: 2025, Month: time.March, Day: 17})
		require.True(t, c.OK())
		assert.True(t, dec("41362.1").Equal(c.ReferenceAmount.Decimal), "got %s", c.ReferenceAmount.Decimal)
		assert.Equal(t, "2025-03", c.Bucket.String())
	})

	t.Run("monthly table has no fallback to yearly", func(t *testing.T) {
		c := n.ConvertOn(dec("10"), "USD", civil.Date{Year: 2023, Month: time.December, Day: 1})
		assert.False(t, c.OK())
		assert.False(t, c.ReferenceAmount.Valid)
	})
}

func TestConvert_MissingRatesNeverZero(t *testing.T) {
	n := NewNormalizer("COP", nil)

	cases := []struct {
		code string
		year int
	}{
		{code: "EUR", year: 2019},
		{code: "JPY", year: 2023},
		{code: "VEB", year: 2023}, // zero factor in the source data
		{code: "USD", year: 2030},
		{code: "", year: 2023},
	}

	for _, tc := range cases {
		c := n.ConvertYear(dec("500"), tc.code, tc.year)
		assert.False(t, c.OK(), "%s/%d should fail", tc.code, tc.year)
		assert.False(t, c.ReferenceAmount.Valid, "%s/%d must be null, not zero", tc.code, tc.year)
		assert.NotEmpty(t, c.Failure)
	}
}

func TestNormalizeTransactions(t *testing.T) {
	n := NewNormalizer("COP", nil)
	jan := civil.Date{Year: 2024, Month: time.January, Day: 10}

	txs := []domain.RawTransaction{
		{Authorization: "A1", Currency: "COP", Amount: decimal.NewNullDecimal(dec("150000"))},
		{Authorization: "A2", Currency: "USD", Date: &jan, Amount: decimal.NewNullDecimal(dec("45.5"))},
		{Authorization: "A3", Currency: "USD", Amount: decimal.NewNullDecimal(dec("1"))},
		{Authorization: "A4", Currency: "COP", AmountText: "1.2.3,4"},
		{Authorization: domain.PlaceholderAuthorization, Placeholder: true},
		{Authorization: "A6", Currency: "EUR", Date: &jan, Amount: decimal.NewNullDecimal(dec("20"))},
	}

	out, issues := n.NormalizeTransactions(context.Background(), txs)

	require.Len(t, out, len(txs), "records are never dropped")
	assert.True(t, dec("150000").Equal(out[0].ReferenceAmount.Decimal))
	assert.True(t, dec("45.5").Mul(dec("3907.86")).Equal(out[1].ReferenceAmount.Decimal))
	assert.Equal(t, "2024-01", out[1].Bucket.String())

	assert.False(t, out[2].ReferenceAmount.Valid)
	assert.Contains(t, out[2].ConversionFailure, "date")

	assert.False(t, out[3].ReferenceAmount.Valid)
	assert.Equal(t, "1.2.3,4", out[3].AmountText)

	assert.True(t, out[4].Rate.Decimal.Equal(decimal.NewFromInt(1)))
	assert.Empty(t, out[4].ConversionFailure)

	assert.True(t, dec("20").Mul(dec("1.093")).Mul(dec("4409.00")).Equal(out[5].ReferenceAmount.Decimal))

	require.Len(t, issues, 1)
	assert.Equal(t, domain.FailureRateLookup, issues[0].Kind)
}

func TestCodeFromText(t *testing.T) {
	cases := map[string]string{
		"EUR - Euro":                 "EUR",
		"PAB -Balboa panameña":       "PAB",
		"USD - Dolar estadounidense": "USD",
		"cop":                        "COP",
		"  GBP - Libra esterlina ":   "GBP",
	}
	for text, want := range cases {
		got, ok := CodeFromText(text)
		assert.True(t, ok, text)
		assert.Equal(t, want, got, text)
	}

	_, ok := CodeFromText("Moneda desconocida")
	assert.False(t, ok)
	_, ok = CodeFromText("")
	assert.False(t, ok)
}

func TestDefaultTablesMonthly(t *testing.T) {
	tables := DefaultTables()

	assert.Len(t, tables.MonthlyReferencePerUSD, 19)
	r, ok := tables.MonthlyReferenceRate(2025, time.July)
	require.True(t, ok)
	assert.True(t, dec("4037.03").Equal(r))
	_, ok = tables.MonthlyReferenceRate(2025, time.August)
	assert.False(t, ok)
}

func TestLoadTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.yaml")
	content := `
reference_per_usd:
  2025: 4100.25
usd_factors:
  2025:
    eur: "1.08"
monthly_reference_per_usd:
  "2025-08": 4000.12
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tables, err := LoadTables(path)
	require.NoError(t, err)

	n := NewNormalizer("COP", tables)
	c := n.ConvertYear(dec("10"), "EUR", 2025)
	require.True(t, c.OK(), c.Failure)
	assert.True(t, dec("10").Mul(dec("1.08")).Mul(dec("4100.25")).Equal(c.ReferenceAmount.Decimal))

	m := n.ConvertOn(dec("1"), "USD", civil.Date{Year: 2025, Month: time.August, Day: 3})
	require.True(t, m.OK())
	assert.True(t, dec("4000.12").Equal(m.ReferenceAmount.Decimal))

	// defaults survive the overlay
	assert.True(t, n.ConvertYear(dec("1"), "EUR", 2023).OK())

	_, err = LoadTables(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("reference_per_usd:\n  2025: abc\n"), 0o644))
	_, err = LoadTables(bad)
	assert.Error(t, err)
}
