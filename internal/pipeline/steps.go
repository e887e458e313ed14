package pipeline

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/finance-audit/internal/declarations"
	"github.com/dvloznov/finance-audit/internal/domain"
	"github.com/dvloznov/finance-audit/internal/logger"
	"github.com/dvloznov/finance-audit/internal/storage"
	"github.com/dvloznov/finance-audit/internal/trends"
)

// PipelineStep represents a single step of a batch run.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps. Each
// stage writes its own typed slice; nothing is mutated after the stage
// that produced it.
type PipelineState struct {
	RunID  string
	Report *domain.Report

	// Statement run.
	Documents  []storage.DocumentRef
	Raw        []domain.RawTransaction
	Normalized []domain.NormalizedTransaction
	Reconciled []domain.ReconciledTransaction
	Rows       []domain.StatementRow

	// Trend run.
	Entries     []declarations.Entry
	Figures     []domain.PeriodicFigure
	Annotations []domain.TrendAnnotation
	Sudden      []trends.SuddenIncrease
	Summaries   []trends.Summary
}

// NewPipelineState returns an empty state with a fresh run ID.
func NewPipelineState() *PipelineState {
	runID := uuid.New().String()
	return &PipelineState{
		RunID:  runID,
		Report: &domain.Report{RunID: runID},
	}
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially. Steps degrade individual records
// into report issues; an error here means the run itself could not go on.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	ctx, log := logger.WithRun(ctx, state.RunID)

	for i, step := range p.steps {
		name := stepName(step)
		start := time.Now()
		log.Debug().Str("step", name).Msg("step started")

		if err := step.Execute(ctx, state); err != nil {
			log.Error().Err(err).Str("step", name).Msg("step failed")
			return fmt.Errorf("pipeline step %d (%s) failed: %w", i+1, name, err)
		}

		log.Info().
			Str("step", name).
			Dur("took", time.Since(start)).
			Msg("step completed")
	}
	return nil
}

func stepName(step PipelineStep) string {
	t := reflect.TypeOf(step)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
