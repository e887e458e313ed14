package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-audit/internal/config"
	"github.com/dvloznov/finance-audit/internal/declarations"
	infraBQ "github.com/dvloznov/finance-audit/internal/infra/bigquery"
	"github.com/dvloznov/finance-audit/internal/logger"
	"github.com/dvloznov/finance-audit/internal/output"
	"github.com/dvloznov/finance-audit/internal/pipeline"
	"github.com/dvloznov/finance-audit/internal/reconcile"
)

func runTrends(log zerolog.Logger, cfg *config.Config) {
	fs := flag.NewFlagSet("trends", flag.ExitOnError)
	in := fs.String("in", "", "Comma-separated declaration extracts (.xlsx, .xls or .csv)")
	registry := fs.String("registry", cfg.RegistryFile, "Person registry spreadsheet (optional)")
	rates := fs.String("rates", cfg.RatesFile, "YAML rate-table override (optional)")
	out := fs.String("out", "tendencias.xlsx", "Output file (.xlsx or .csv)")
	issues := fs.String("issues", "", "Issue listing file (optional)")
	threshold := fs.String("threshold", cfg.SuddenIncreaseThreshold.String(), "Sudden-increase ratio that raises an alert")
	publish := fs.Bool("publish", false, "Upsert figures into BigQuery after the run")
	upload := fs.String("upload", "", "Upload output files to gs://bucket/prefix/")
	fs.Parse(os.Args[2:])

	paths := splitList(*in)
	if len(paths) == 0 {
		log.Fatal().Msg("Usage: cli trends -in FILE[,FILE...] [options]")
	}
	limit, err := decimal.NewFromString(*threshold)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -threshold")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	normalizer, err := loadNormalizer(cfg.ReferenceCurrency, *rates)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load rate tables")
	}
	var reconciler *reconcile.Reconciler
	if *registry != "" {
		if reconciler, err = loadReconciler(log, *registry); err != nil {
			log.Fatal().Err(err).Msg("Failed to load registry")
		}
	}

	log.Info().Strs("in", paths).Msg("Starting trend run")

	state, runErr := pipeline.RunTrends(ctx, pipeline.TrendConfig{
		Paths:      paths,
		Parser:     declarations.NewParser(normalizer, nil),
		Reconciler: reconciler,
	})
	printReport(state.Report)
	if runErr != nil {
		log.Fatal().Err(runErr).Msg("Trend run failed")
	}

	if err := output.WriteTrends(*out, state.Summaries, limit); err != nil {
		log.Fatal().Err(err).Msg("Failed to write trends")
	}
	files := []string{*out}
	if *issues != "" {
		if err := output.WriteIssues(*issues, state.Report); err != nil {
			log.Fatal().Err(err).Msg("Failed to write issues")
		}
		files = append(files, *issues)
	}
	log.Info().Str("out", *out).Int("rows", len(state.Summaries)).Msg("Trends written")

	if *publish {
		repo, err := infraBQ.NewBigQueryAuditRepository(ctx, cfg.GCP.Project, cfg.GCP.Dataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
		}
		defer repo.Close()

		if err := repo.EnsureTables(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to prepare BigQuery tables")
		}
		rows := infraBQ.NewFinancialFigureRows(state.RunID, state.Figures, state.Annotations)
		if err := repo.UpsertFinancialFigures(ctx, rows); err != nil {
			log.Fatal().Err(err).Msg("Publish failed")
		}
	}

	uploadOutputs(ctx, log, *upload, files)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
