package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// tableDDL holds the CREATE statements of the audit tables, keyed by table
// name. %s is the fully qualified table.
var tableDDL = map[string]string{
	cardTransactionsTable: `
		CREATE TABLE IF NOT EXISTS ` + "`%s`" + ` (
			natural_key        STRING NOT NULL,
			run_id             STRING NOT NULL,
			person_id          STRING,
			cardholder         STRING,
			company            STRING,
			role               STRING,
			unit               STRING,
			matched            BOOL,
			card_type          STRING,
			card_suffix        STRING,
			authorization_code STRING,
			transaction_date   DATE,
			description        STRING,
			currency           STRING,
			original_amount    NUMERIC,
			reference_amount   NUMERIC,
			rate               NUMERIC,
			category_name      STRING,
			subcategory_name   STRING,
			zone               STRING,
			installments       STRING,
			placeholder        BOOL,
			document           STRING,
			page               INT64,
			diagnostics        STRING,
			created_ts         TIMESTAMP NOT NULL,
			updated_ts         TIMESTAMP
		)
		CLUSTER BY natural_key
	`,
	financialFiguresTable: `
		CREATE TABLE IF NOT EXISTS ` + "`%s`" + ` (
			natural_key     STRING NOT NULL,
			run_id          STRING NOT NULL,
			person_id       STRING,
			full_name       STRING,
			company         STRING,
			matched         BOOL,
			metric          STRING NOT NULL,
			year            INT64 NOT NULL,
			value           NUMERIC,
			absolute_change NUMERIC,
			relative_change NUMERIC,
			trend           STRING,
			created_ts      TIMESTAMP NOT NULL,
			updated_ts      TIMESTAMP
		)
		CLUSTER BY natural_key
	`,
}

// EnsureTablesWithClient creates the audit tables in dataset when missing.
func EnsureTablesWithClient(ctx context.Context, client *bigquery.Client, dataset string) error {
	for _, table := range []string{cardTransactionsTable, financialFiguresTable} {
		ddl := fmt.Sprintf(tableDDL[table], qualified(client.Project(), dataset, table))
		if err := runQuery(ctx, client, ddl); err != nil {
			return fmt.Errorf("EnsureTables: %s: %w", table, err)
		}
	}
	return nil
}

// runQuery executes one statement and waits for its job.
func runQuery(ctx context.Context, client *bigquery.Client, sql string, params ...bigquery.QueryParameter) error {
	q := client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}

	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}

	return nil
}

func qualified(project, dataset, table string) string {
	return fmt.Sprintf("%s.%s.%s", project, dataset, table)
}
