package bigquery

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/finance-audit/internal/logger"
)

const (
	cardTransactionsTable = "card_transactions"
	financialFiguresTable = "financial_figures"

	// mergeBatchSize bounds the rows passed in one ARRAY<STRUCT> parameter.
	mergeBatchSize = 500
)

// UpsertCardTransactionsWithClient merges rows into card_transactions keyed
// by natural_key. Re-running a batch updates rows in place.
func UpsertCardTransactionsWithClient(ctx context.Context, client *bigquery.Client, dataset string, rows []*CardTransactionRow) error {
	for start := 0; start < len(rows); start += mergeBatchSize {
		end := start + mergeBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := make([]CardTransactionRow, 0, end-start)
		for _, r := range rows[start:end] {
			batch = append(batch, *r)
		}
		query := mergeQuery(client.Project(), dataset, cardTransactionsTable, cardTransactionColumns)
		if err := runQuery(ctx, client, query, bigquery.QueryParameter{Name: "rows", Value: batch}); err != nil {
			return fmt.Errorf("UpsertCardTransactions: rows %d-%d: %w", start, end, err)
		}
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("table", cardTransactionsTable).
		Int("rows", len(rows)).
		Msg("card transactions upserted")
	return nil
}

// UpsertFinancialFiguresWithClient merges rows into financial_figures keyed
// by natural_key.
func UpsertFinancialFiguresWithClient(ctx context.Context, client *bigquery.Client, dataset string, rows []*FinancialFigureRow) error {
	for start := 0; start < len(rows); start += mergeBatchSize {
		end := start + mergeBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := make([]FinancialFigureRow, 0, end-start)
		for _, r := range rows[start:end] {
			batch = append(batch, *r)
		}
		query := mergeQuery(client.Project(), dataset, financialFiguresTable, financialFigureColumns)
		if err := runQuery(ctx, client, query, bigquery.QueryParameter{Name: "rows", Value: batch}); err != nil {
			return fmt.Errorf("UpsertFinancialFigures: rows %d-%d: %w", start, end, err)
		}
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("table", financialFiguresTable).
		Int("rows", len(rows)).
		Msg("financial figures upserted")
	return nil
}

// mergeQuery builds a MERGE of UNNEST(@rows) into project.dataset.table on
// natural_key. String-encoded columns are cast with SAFE_CAST so that empty
// strings become NULL.
func mergeQuery(project, dataset, table string, columns []string) string {
	source := make([]string, len(columns))
	updates := make([]string, 0, len(columns))
	for i, c := range columns {
		source[i] = sourceExpr(c)
		if c != "natural_key" {
			updates = append(updates, fmt.Sprintf("%s = %s", c, source[i]))
		}
	}
	updates = append(updates, "updated_ts = CURRENT_TIMESTAMP()")

	return fmt.Sprintf(`
		MERGE `+"`%s`"+` T
		USING UNNEST(@rows) S
		ON T.natural_key = S.natural_key
		WHEN MATCHED THEN
		  UPDATE SET %s
		WHEN NOT MATCHED THEN
		  INSERT (%s, created_ts, updated_ts)
		  VALUES (%s, CURRENT_TIMESTAMP(), CURRENT_TIMESTAMP())
	`,
		qualified(project, dataset, table),
		strings.Join(updates, ", "),
		strings.Join(columns, ", "),
		strings.Join(source, ", "),
	)
}

func sourceExpr(column string) string {
	if typ, ok := columnTypes[column]; ok {
		return fmt.Sprintf("SAFE_CAST(NULLIF(S.%s, '') AS %s)", column, typ)
	}
	return "S." + column
}
