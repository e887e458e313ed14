package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/finance-audit/internal/categories"
	"github.com/dvloznov/finance-audit/internal/currency"
	"github.com/dvloznov/finance-audit/internal/domain"
	"github.com/dvloznov/finance-audit/internal/extractor"
	"github.com/dvloznov/finance-audit/internal/jobs"
	"github.com/dvloznov/finance-audit/internal/jobs/inmemory"
	"github.com/dvloznov/finance-audit/internal/logger"
	"github.com/dvloznov/finance-audit/internal/pdftext"
	"github.com/dvloznov/finance-audit/internal/reconcile"
	"github.com/dvloznov/finance-audit/internal/storage"
)

// ErrNoReconciler is returned when a statement run has no person registry.
var ErrNoReconciler = errors.New("reconcile step requires a registry")

// pageBreak separates pages in plain-text statement documents.
const pageBreak = "\f"

// StatementConfig wires the collaborators of a statement run.
type StatementConfig struct {
	Source            storage.Source
	Password          string
	ReferenceCurrency string
	Workers           int
	Normalizer        *currency.Normalizer
	Reconciler        *reconcile.Reconciler
	Categorizer       *categories.Categorizer
}

// NewStatementPipeline builds the statement run:
// list -> extract -> normalize -> reconcile -> categorize -> assemble.
func NewStatementPipeline(cfg StatementConfig) *Pipeline {
	return NewPipeline(
		&ListDocumentsStep{Source: cfg.Source},
		&ExtractDocumentsStep{
			Source:            cfg.Source,
			Password:          cfg.Password,
			ReferenceCurrency: cfg.ReferenceCurrency,
			Workers:           cfg.Workers,
		},
		&NormalizeStep{Normalizer: cfg.Normalizer},
		&ReconcileStep{Reconciler: cfg.Reconciler},
		&CategorizeStep{Categorizer: cfg.Categorizer},
		&AssembleRowsStep{},
	)
}

// RunStatements executes a statement run. The returned state always
// carries a report, including when the run stops early.
func RunStatements(ctx context.Context, cfg StatementConfig) (*PipelineState, error) {
	state := NewPipelineState()
	err := NewStatementPipeline(cfg).Execute(ctx, state)
	return state, err
}

// Step 1: ListDocumentsStep lists the statement documents of the source.
type ListDocumentsStep struct {
	Source storage.Source
}

func (s *ListDocumentsStep) Execute(ctx context.Context, state *PipelineState) error {
	docs, err := s.Source.List(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	state.Documents = docs
	state.Report.Documents = len(docs)
	return nil
}

// Step 2: ExtractDocumentsStep extracts raw records from every document on a
// bounded worker pool. Each worker owns one result slot; slots are merged in
// listing order once the pool has drained.
type ExtractDocumentsStep struct {
	Source            storage.Source
	Password          string
	ReferenceCurrency string
	Workers           int
}

func (s *ExtractDocumentsStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	var queued []int
	for i, doc := range state.Documents {
		if extractor.DetectFormat(doc.Name) == domain.FormatUnknown {
			state.Report.DocumentsSkipped++
			log.Debug().Str("document", doc.Name).Msg("unknown statement format, skipping")
			continue
		}
		queued = append(queued, i)
	}

	results := make([]extractor.Result, len(state.Documents))
	store := inmemory.NewStore()
	queue := inmemory.NewQueue(len(queued), s.Workers, store)

	err := queue.Start(ctx, func(ctx context.Context, job *jobs.ExtractDocumentJob) error {
		res, err := s.extract(ctx, state.Documents[job.Index])
		if err != nil {
			return err
		}
		results[job.Index] = res
		return nil
	})
	if err != nil {
		return fmt.Errorf("start extraction pool: %w", err)
	}

	for _, i := range queued {
		doc := state.Documents[i]
		job := &jobs.ExtractDocumentJob{
			RunID:    state.RunID,
			Document: doc.Name,
			URI:      doc.URI,
			Index:    i,
		}
		if err := queue.PublishExtractDocument(ctx, job); err != nil {
			_ = queue.Drain(ctx)
			return fmt.Errorf("queue %s: %w", doc.Name, err)
		}
	}
	if err := queue.Drain(ctx); err != nil {
		return fmt.Errorf("drain extraction pool: %w", err)
	}

	failed, err := store.ListJobs(ctx, jobs.JobFilter{RunID: state.RunID, Status: jobs.JobStatusFailed})
	if err != nil {
		return fmt.Errorf("list failed jobs: %w", err)
	}
	failedAt := make(map[int]bool, len(failed))
	for _, job := range failed {
		failedAt[job.Index] = true
		state.Report.DocumentsFailed++
		state.Report.Add(domain.Issue{
			Kind:     domain.FailureIO,
			Document: job.Document,
			Detail:   job.Error,
		})
	}

	for _, i := range queued {
		if failedAt[i] {
			continue
		}
		res := results[i]
		state.Raw = append(state.Raw, res.Records...)
		state.Report.Add(res.Issues...)
		state.Report.Placeholders += res.Placeholders()
	}
	state.Report.Records = len(state.Raw)

	stats, err := store.RunStats(ctx, state.RunID)
	if err != nil {
		return fmt.Errorf("job stats: %w", err)
	}
	log.Info().
		Int("documents", len(state.Documents)).
		Int("jobs", stats.Total()).
		Dur("busy", stats.Busy).
		Int("skipped", state.Report.DocumentsSkipped).
		Int("failed", state.Report.DocumentsFailed).
		Int("records", len(state.Raw)).
		Msg("extraction finished")
	return nil
}

// extract reads one document and runs the extractor for its format.
// Plain-text documents use form feeds as page breaks.
func (s *ExtractDocumentsStep) extract(ctx context.Context, ref storage.DocumentRef) (extractor.Result, error) {
	ex, err := extractor.New(extractor.DetectFormat(ref.Name), s.ReferenceCurrency)
	if err != nil {
		return extractor.Result{}, err
	}

	data, err := s.Source.Read(ctx, ref)
	if err != nil {
		return extractor.Result{}, err
	}

	var doc pdftext.Document
	if storage.IsText(ref) {
		doc = pdftext.FromText(strings.Split(string(data), pageBreak)...)
	} else {
		doc, err = pdftext.Read(data, s.Password)
		if err != nil {
			return extractor.Result{}, err
		}
	}
	return ex.Extract(ctx, doc, ref.Name), nil
}

// Step 3: NormalizeStep converts original amounts into the reference currency.
type NormalizeStep struct {
	Normalizer *currency.Normalizer
}

func (s *NormalizeStep) Execute(ctx context.Context, state *PipelineState) error {
	normalized, issues := s.Normalizer.NormalizeTransactions(ctx, state.Raw)
	state.Normalized = normalized
	state.Report.Add(issues...)
	return nil
}

// Step 4: ReconcileStep attaches registry metadata to every record.
type ReconcileStep struct {
	Reconciler *reconcile.Reconciler
}

func (s *ReconcileStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Reconciler == nil {
		return ErrNoReconciler
	}
	reconciled, issues := s.Reconciler.ReconcileTransactions(ctx, state.Normalized)
	state.Reconciled = reconciled
	state.Report.Add(issues...)
	return nil
}

// Step 5: CategorizeStep fills categories from the taxonomy. Runs without a
// taxonomy leave records uncategorized.
type CategorizeStep struct {
	Categorizer *categories.Categorizer
}

func (s *CategorizeStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Categorizer == nil {
		return nil
	}
	found, suggested := s.Categorizer.Apply(ctx, state.Reconciled)
	log := logger.FromContext(ctx)
	log.Info().
		Int("found", found).
		Int("suggested", suggested).
		Msg("records categorized")
	return nil
}

// Step 6: AssembleRowsStep derives the per-row output fields.
type AssembleRowsStep struct{}

func (s *AssembleRowsStep) Execute(ctx context.Context, state *PipelineState) error {
	cards := CardsPerPerson(state.Reconciled)

	rows := make([]domain.StatementRow, 0, len(state.Reconciled))
	for _, rec := range state.Reconciled {
		name := rec.Cardholder
		if rec.Matched && rec.Person.FullName != "" {
			name = rec.Person.FullName
		}
		row := domain.StatementRow{
			ReconciledTransaction: rec,
			DisplayName:           reconcile.DisplayName(name),
			CardsPerPerson:        cards[rec.PersonIdentity()],
		}
		if rec.Date != nil {
			row.Weekday = Weekday(rec.Date.In(time.UTC).Weekday())
		}
		rows = append(rows, row)
	}
	state.Rows = rows
	return nil
}

// CardsPerPerson counts the distinct card suffixes held by each person.
func CardsPerPerson(recs []domain.ReconciledTransaction) map[string]int {
	seen := make(map[string]map[string]bool)
	for _, rec := range recs {
		if rec.CardSuffix == "" {
			continue
		}
		id := rec.PersonIdentity()
		if seen[id] == nil {
			seen[id] = make(map[string]bool)
		}
		seen[id][rec.CardSuffix] = true
	}

	counts := make(map[string]int, len(seen))
	for id, suffixes := range seen {
		counts[id] = len(suffixes)
	}
	return counts
}

var weekdays = [...]string{
	time.Sunday:    "Domingo",
	time.Monday:    "Lunes",
	time.Tuesday:   "Martes",
	time.Wednesday: "Miércoles",
	time.Thursday:  "Jueves",
	time.Friday:    "Viernes",
	time.Saturday:  "Sábado",
}

// Weekday returns the Spanish name of d.
func Weekday(d time.Weekday) string {
	return weekdays[d]
}
