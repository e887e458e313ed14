package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-audit/internal/categories"
	"github.com/dvloznov/finance-audit/internal/config"
	infraBQ "github.com/dvloznov/finance-audit/internal/infra/bigquery"
	"github.com/dvloznov/finance-audit/internal/logger"
	"github.com/dvloznov/finance-audit/internal/output"
	"github.com/dvloznov/finance-audit/internal/pipeline"
	"github.com/dvloznov/finance-audit/internal/spreadsheet"
)

func runStatements(log zerolog.Logger, cfg *config.Config) {
	fs := flag.NewFlagSet("statements", flag.ExitOnError)
	src := fs.String("src", "", "Statement directory or gs://bucket/prefix")
	registry := fs.String("registry", cfg.RegistryFile, "Person registry spreadsheet")
	taxonomy := fs.String("categories", cfg.CategoriesFile, "Category taxonomy spreadsheet (optional)")
	rates := fs.String("rates", cfg.RatesFile, "YAML rate-table override (optional)")
	out := fs.String("out", "extractos.xlsx", "Output file (.xlsx or .csv)")
	issues := fs.String("issues", "", "Issue listing file (optional)")
	workers := fs.Int("workers", cfg.Workers, "Extraction worker count")
	password := fs.String("password", cfg.PDFPassword, "Password for protected statements")
	suggest := fs.Bool("suggest", false, "Ask Gemini for categories missing from the taxonomy")
	publish := fs.Bool("publish", false, "Upsert rows into BigQuery after the run")
	upload := fs.String("upload", "", "Upload output files to gs://bucket/prefix/")
	fs.Parse(os.Args[2:])

	if *src == "" || *registry == "" {
		log.Fatal().Msg("Usage: cli statements -src DIR|gs://BUCKET/PREFIX -registry FILE [options]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	source, closeSource, err := openSource(ctx, *src)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open statement source")
	}
	defer closeSource()

	reconciler, err := loadReconciler(log, *registry)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load registry")
	}
	normalizer, err := loadNormalizer(cfg.ReferenceCurrency, *rates)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load rate tables")
	}
	categorizer, err := loadCategorizer(ctx, *taxonomy, *suggest, cfg.GCP.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load categories")
	}

	log.Info().Str("src", *src).Int("workers", *workers).Msg("Starting statement run")

	state, runErr := pipeline.RunStatements(ctx, pipeline.StatementConfig{
		Source:            source,
		Password:          *password,
		ReferenceCurrency: cfg.ReferenceCurrency,
		Workers:           *workers,
		Normalizer:        normalizer,
		Reconciler:        reconciler,
		Categorizer:       categorizer,
	})
	printReport(state.Report)
	if runErr != nil {
		log.Fatal().Err(runErr).Msg("Statement run failed")
	}

	if err := output.WriteStatements(*out, state.Rows); err != nil {
		log.Fatal().Err(err).Msg("Failed to write statements")
	}
	files := []string{*out}
	if *issues != "" {
		if err := output.WriteIssues(*issues, state.Report); err != nil {
			log.Fatal().Err(err).Msg("Failed to write issues")
		}
		files = append(files, *issues)
	}
	log.Info().Str("out", *out).Int("rows", len(state.Rows)).Msg("Statements written")

	if *publish {
		repo, err := infraBQ.NewBigQueryAuditRepository(ctx, cfg.GCP.Project, cfg.GCP.Dataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
		}
		defer repo.Close()

		if err := repo.EnsureTables(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to prepare BigQuery tables")
		}
		rows := infraBQ.NewCardTransactionRows(state.RunID, state.Rows)
		if err := repo.UpsertCardTransactions(ctx, rows); err != nil {
			log.Fatal().Err(err).Msg("Publish failed")
		}
	}

	uploadOutputs(ctx, log, *upload, files)
}

// loadCategorizer returns nil when no taxonomy is configured.
func loadCategorizer(ctx context.Context, path string, suggest bool, model string) (*categories.Categorizer, error) {
	if path == "" {
		return nil, nil
	}
	tbl, err := spreadsheet.Read(path)
	if err != nil {
		return nil, err
	}
	taxonomy, err := categories.LoadTaxonomy(tbl)
	if err != nil {
		return nil, err
	}

	var suggester categories.Suggester
	if suggest {
		s, err := categories.NewGeminiSuggester(ctx, model, taxonomy)
		if err != nil {
			return nil, err
		}
		suggester = s
	}
	return categories.NewCategorizer(taxonomy, suggester), nil
}

func uploadOutputs(ctx context.Context, log zerolog.Logger, dest string, files []string) {
	if dest == "" {
		return
	}
	for _, f := range files {
		uri, err := uploadFile(ctx, f, dest)
		if err != nil {
			log.Fatal().Err(err).Str("file", f).Msg("Upload failed")
		}
		log.Info().Str("uri", uri).Msg("Output uploaded")
	}
}
