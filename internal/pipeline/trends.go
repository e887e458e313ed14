package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dvloznov/finance-audit/internal/declarations"
	"github.com/dvloznov/finance-audit/internal/domain"
	"github.com/dvloznov/finance-audit/internal/logger"
	"github.com/dvloznov/finance-audit/internal/reconcile"
	"github.com/dvloznov/finance-audit/internal/spreadsheet"
	"github.com/dvloznov/finance-audit/internal/trends"
)

// TrendConfig wires the collaborators of a trend run. Reconciler is
// optional; without it figures keep the declared identity.
type TrendConfig struct {
	Paths      []string
	Parser     *declarations.Parser
	Reconciler *reconcile.Reconciler
}

// NewTrendPipeline builds the trend run:
// load -> aggregate -> reconcile -> composite -> annotate.
func NewTrendPipeline(cfg TrendConfig) *Pipeline {
	return NewPipeline(
		&LoadDeclarationsStep{Paths: cfg.Paths, Parser: cfg.Parser},
		&AggregateStep{},
		&ReconcileFiguresStep{Reconciler: cfg.Reconciler},
		&CompositeStep{},
		&AnnotateStep{},
	)
}

// RunTrends executes a trend run. The returned state always carries a
// report, including when the run stops early.
func RunTrends(ctx context.Context, cfg TrendConfig) (*PipelineState, error) {
	state := NewPipelineState()
	err := NewTrendPipeline(cfg).Execute(ctx, state)
	return state, err
}

// Step 1: LoadDeclarationsStep reads and parses every declaration extract.
// An extract that cannot be read or lacks required columns fails alone.
type LoadDeclarationsStep struct {
	Paths  []string
	Parser *declarations.Parser
}

func (s *LoadDeclarationsStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)
	state.Report.Documents = len(s.Paths)

	for _, path := range s.Paths {
		name := filepath.Base(path)

		tbl, err := spreadsheet.Read(path)
		if err != nil {
			state.Report.DocumentsFailed++
			state.Report.Add(domain.Issue{Kind: domain.FailureIO, Document: name, Detail: err.Error()})
			log.Warn().Err(err).Str("document", name).Msg("declaration extract unreadable")
			continue
		}

		entries, issues, err := s.Parser.Parse(ctx, tbl, name)
		if err != nil {
			kind := domain.FailureIO
			if errors.Is(err, declarations.ErrMissingColumn) {
				kind = domain.FailureStructural
			}
			state.Report.DocumentsFailed++
			state.Report.Add(domain.Issue{Kind: kind, Document: name, Detail: err.Error()})
			log.Warn().Err(err).Str("document", name).Msg("declaration extract rejected")
			continue
		}

		state.Entries = append(state.Entries, entries...)
		state.Report.Add(issues...)
	}
	state.Report.Records = len(state.Entries)

	if state.Report.DocumentsFailed == len(s.Paths) && len(s.Paths) > 0 {
		return fmt.Errorf("no declaration extract could be loaded")
	}
	return nil
}

// Step 2: AggregateStep folds entries into per-person yearly figures.
type AggregateStep struct{}

func (s *AggregateStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Figures = declarations.Aggregate(state.Entries)
	return nil
}

// Step 3: ReconcileFiguresStep attaches registry metadata to the figures.
type ReconcileFiguresStep struct {
	Reconciler *reconcile.Reconciler
}

func (s *ReconcileFiguresStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Reconciler == nil {
		return nil
	}
	figs, issues := s.Reconciler.ReconcileFigures(ctx, state.Figures)
	state.Figures = figs
	state.Report.Add(issues...)
	return nil
}

// Step 4: CompositeStep derives leverage and debt level.
type CompositeStep struct{}

func (s *CompositeStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Figures = trends.Composite(state.Figures)
	return nil
}

// Step 5: AnnotateStep computes year-over-year trends, the sudden-increase
// indicator and the per person-year summaries.
type AnnotateStep struct{}

func (s *AnnotateStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Annotations = trends.Annotate(state.Figures)
	state.Sudden = trends.SuddenIncreases(state.Figures)
	state.Summaries = trends.Summaries(state.Figures, state.Annotations, state.Sudden)

	log := logger.FromContext(ctx)
	log.Info().
		Int("figures", len(state.Figures)).
		Int("summaries", len(state.Summaries)).
		Msg("trends annotated")
	return nil
}
