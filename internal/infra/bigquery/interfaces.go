package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// DefaultDataset is the dataset holding the audit tables.
const DefaultDataset = "finance_audit"

// AuditRepository publishes pipeline output. Implementations must be
// idempotent per natural key.
type AuditRepository interface {
	// EnsureTables creates the audit tables when missing.
	EnsureTables(ctx context.Context) error

	// UpsertCardTransactions merges reconciled statement rows.
	UpsertCardTransactions(ctx context.Context, rows []*CardTransactionRow) error

	// UpsertFinancialFigures merges periodic figures and their trends.
	UpsertFinancialFigures(ctx context.Context, rows []*FinancialFigureRow) error

	// Close releases the underlying client.
	Close() error
}

// BigQueryAuditRepository is the concrete implementation of AuditRepository
// that interacts with BigQuery. It holds a shared client to avoid creating a
// new connection for each operation.
type BigQueryAuditRepository struct {
	client  *bigquery.Client
	dataset string
}

// NewBigQueryAuditRepository creates a repository with its own client.
func NewBigQueryAuditRepository(ctx context.Context, projectID, dataset string) (*BigQueryAuditRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryAuditRepository: creating client: %w", err)
	}
	return NewBigQueryAuditRepositoryWithClient(client, dataset), nil
}

// NewBigQueryAuditRepositoryWithClient wraps an existing client. An empty
// dataset uses DefaultDataset.
func NewBigQueryAuditRepositoryWithClient(client *bigquery.Client, dataset string) *BigQueryAuditRepository {
	if dataset == "" {
		dataset = DefaultDataset
	}
	return &BigQueryAuditRepository{client: client, dataset: dataset}
}

// Close closes the BigQuery client connection.
func (r *BigQueryAuditRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// EnsureTables delegates to EnsureTablesWithClient.
func (r *BigQueryAuditRepository) EnsureTables(ctx context.Context) error {
	return EnsureTablesWithClient(ctx, r.client, r.dataset)
}

// UpsertCardTransactions delegates to UpsertCardTransactionsWithClient.
func (r *BigQueryAuditRepository) UpsertCardTransactions(ctx context.Context, rows []*CardTransactionRow) error {
	return UpsertCardTransactionsWithClient(ctx, r.client, r.dataset, rows)
}

// UpsertFinancialFigures delegates to UpsertFinancialFiguresWithClient.
func (r *BigQueryAuditRepository) UpsertFinancialFigures(ctx context.Context, rows []*FinancialFigureRow) error {
	return UpsertFinancialFiguresWithClient(ctx, r.client, r.dataset, rows)
}

// Ensure BigQueryAuditRepository implements AuditRepository.
var _ AuditRepository = (*BigQueryAuditRepository)(nil)
