package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-audit/internal/config"
	"github.com/dvloznov/finance-audit/internal/currency"
	"github.com/dvloznov/finance-audit/internal/domain"
	"github.com/dvloznov/finance-audit/internal/logger"
	"github.com/dvloznov/finance-audit/internal/reconcile"
	"github.com/dvloznov/finance-audit/internal/spreadsheet"
	"github.com/dvloznov/finance-audit/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		boot := logger.New()
		boot.Fatal().Err(err).Msg("Invalid configuration")
	}
	log := logger.NewFromConfig(cfg.LogLevel, cfg.LogFormat)

	switch os.Args[1] {
	case "statements":
		runStatements(log, cfg)
	case "trends":
		runTrends(log, cfg)
	case "upload":
		runUpload(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Audit CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  statements  Extract, convert and reconcile card statements")
	fmt.Println("  trends      Compute year-over-year trends from declaration extracts")
	fmt.Println("  upload      Upload a file to GCS")
	fmt.Println("  help        Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
	fmt.Println("\nSettings are read from AUDIT_* environment variables and .env; flags override them.")
}

func runUpload(log zerolog.Logger) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to local file")
	dest := fs.String("dest", "", "Destination gs://bucket/prefix/")
	fs.Parse(os.Args[2:])

	if *filePath == "" || *dest == "" {
		log.Fatal().Msg("Usage: cli upload -file PATH -dest gs://BUCKET/PREFIX/")
	}

	ctx := logger.WithContext(context.Background(), log)
	uri, err := uploadFile(ctx, *filePath, *dest)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}
	fmt.Printf("Uploaded %s to %s\n", *filePath, uri)
}

// uploadFile copies one local file to dest with a short-lived client.
func uploadFile(ctx context.Context, path, dest string) (string, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("storage client: %w", err)
	}
	defer client.Close()

	return storage.NewUploader(client).UploadFile(ctx, path, dest)
}

// openSource returns a gs:// source or a local directory source. The
// returned close func is never nil.
func openSource(ctx context.Context, src string) (storage.Source, func() error, error) {
	if !strings.HasPrefix(src, "gs://") {
		return storage.NewDirSource(src), func() error { return nil }, nil
	}

	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("storage client: %w", err)
	}
	source, err := storage.NewGCSSource(client, src)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return source, client.Close, nil
}

// loadReconciler reads the registry. Shadowed keys are logged; the first
// row per key wins.
func loadReconciler(log zerolog.Logger, path string) (*reconcile.Reconciler, error) {
	tbl, err := spreadsheet.Read(path)
	if err != nil {
		return nil, err
	}
	reg, err := reconcile.LoadRegistry(tbl)
	if err != nil {
		return nil, fmt.Errorf("registry %s: %w", path, err)
	}
	if dups := reg.Duplicates(); len(dups) > 0 {
		log.Warn().Strs("keys", dups).Str("registry", path).Msg("Duplicate registry keys ignored")
	}
	return reconcile.NewReconciler(reg), nil
}

func loadNormalizer(reference, ratesFile string) (*currency.Normalizer, error) {
	tables, err := currency.LoadTables(ratesFile)
	if err != nil {
		return nil, err
	}
	return currency.NewNormalizer(reference, tables), nil
}

// printReport writes the run digest to stdout.
func printReport(report *domain.Report) {
	fmt.Print(report.Summary())
}
