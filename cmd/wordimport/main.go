// Command wordimport loads words from an xlsx or csv file into the catalog.
//
//	wordimport -file words.xlsx [-sheet Words] [-dry-run]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"word-garden/internal/config"
	"word-garden/internal/importer"
	"word-garden/internal/pkg/db"
	"word-garden/internal/repository"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		file      = flag.String("file", "", "xlsx or csv file to import")
		sheet     = flag.String("sheet", "", "sheet name for xlsx files (default: first sheet)")
		configDir = flag.String("config", "config", "directory containing config.yaml")
		dryRun    = flag.Bool("dry-run", false, "parse and report without writing")
	)
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	if *dryRun {
		words, skipped, err := importer.ReadFile(*file, *sheet)
		if err != nil {
			log.Fatal().Err(err).Str("file", *file).Msg("Failed to read word file")
		}
		logSkipped(skipped)
		fmt.Printf("%d words parsed, %d rows skipped\n", len(words), len(skipped))
		return
	}

	cfg, err := config.Load(*configDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := context.Background()

	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	if err := db.Migrate(ctx, dbPool.Pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	store := repository.NewStore(dbPool.Pool)
	res, err := importer.New(store.Words).ImportFile(ctx, *file, *sheet)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Word import failed")
	}
	logSkipped(res.Skipped)

	fmt.Printf("%d created, %d updated, %d rows skipped\n", res.Created, res.Updated, len(res.Skipped))
}

func logSkipped(skipped []importer.RowError) {
	for _, s := range skipped {
		log.Warn().Int("row", s.Row).Msg(s.Reason)
	}
}
