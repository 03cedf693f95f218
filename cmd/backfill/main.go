// Command backfill sweeps all existing posts and populates hashtag
// associations for content that predates the hashtag schema. Safe to re-run;
// already-stored associations are reported as skipped.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/hashmind/hashmind/internal/backfill"
	"github.com/hashmind/hashmind/internal/db"
	"github.com/hashmind/hashmind/internal/schema"
	"github.com/hashmind/hashmind/pkg/config"
	"github.com/hashmind/hashmind/pkg/logging"
)

const (
	exitOK             = 0
	exitFatal          = 1
	exitSchemaMismatch = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	databaseURL := pflag.String("database-url", "", "database connection URL (overrides config)")
	dryRun := pflag.Bool("dry-run", false, "report what would be stored without writing")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return exitFatal
	}
	if *databaseURL != "" {
		cfg.Database.URL = *databaseURL
	}

	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return exitFatal
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting hashtag backfill", zap.Bool("dry_run", *dryRun))

	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		return exitFatal
	}
	defer database.Close()

	repo := db.NewRepository(database.DB)
	migrator := backfill.NewMigrator(
		schema.NewGuard(database.DB),
		db.NewPostRepository(repo),
		db.NewHashtagRepository(repo),
		&cfg.Backfill,
	)

	report, err := migrator.Run(context.Background(), *dryRun)
	if err != nil {
		var mismatch *backfill.SchemaMismatchError
		if errors.As(err, &mismatch) {
			fmt.Fprintf(os.Stderr, "%v\n", mismatch)
			fmt.Fprintln(os.Stderr, "The hashtag schema is not initialized. Start the server once, or apply the schema, then re-run the backfill.")
			return exitSchemaMismatch
		}
		logger.Error("Backfill failed", zap.Error(err))
		return exitFatal
	}

	fmt.Println(report.Summary())
	for _, failure := range report.Failures {
		fmt.Printf("  failed post %d: %s\n", failure.PostID, failure.Reason)
	}

	// Per-post failures are surfaced but do not fail the run; the report is
	// the operator's source of truth.
	return exitOK
}
