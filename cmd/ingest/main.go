// Command ingest runs one ingestion from the command line and exits non-zero
// when the run fails.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"CaseSync/internal/adapter"
	_ "CaseSync/internal/adapter/mock"
	_ "CaseSync/internal/adapter/pje"
	"CaseSync/internal/config"
	"CaseSync/internal/model"
	"CaseSync/internal/repository"
	"CaseSync/internal/service"
	"CaseSync/internal/utils/logging"

	"github.com/spf13/pflag"
)

func main() {
	ok, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		os.Exit(1)
	}
}

func run() (bool, error) {
	var (
		count       int
		useReal     bool
		maxAttempts int
		daily       bool
	)
	flagSet := pflag.NewFlagSet("ingest", pflag.ContinueOnError)
	flagSet.IntVarP(&count, "count", "n", 0, "number of cases to fetch (default from ingestion.default_count)")
	flagSet.BoolVar(&useReal, "use-real", false, "scrape the live PJe portal instead of the mock source")
	flagSet.IntVar(&maxAttempts, "max-attempts", 0, "attempts before giving up (default from ingestion.max_attempts)")
	flagSet.BoolVar(&daily, "daily", false, "run with the scheduled defaults, as the cron job does")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return true, nil
		}
		return false, err
	}
	if args := flagSet.Args(); len(args) > 0 {
		return false, fmt.Errorf("unexpected argument: %s", args[0])
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return false, err
	}
	logger := logging.New(cfg.Log)

	db, err := repository.OpenPostgres(&cfg.Database, logger)
	if err != nil {
		return false, err
	}
	if err := repository.Migrate(db); err != nil {
		return false, err
	}

	ingest := service.NewIngestionService(
		adapter.NewSourceRegistry(cfg, logger),
		repository.NewCaseRepository(db),
		repository.NewIngestionLogRepository(db),
		&cfg.Ingestion,
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var res *service.RunResult
	if daily {
		res, err = ingest.RunDaily(ctx)
	} else {
		res, err = ingest.Run(ctx, service.RunRequest{
			Count:         count,
			UseReal:       useReal,
			ExecutionType: model.ExecutionManual,
			MaxAttempts:   maxAttempts,
		})
	}
	if err != nil {
		return false, err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return false, err
	}
	return res.Success, nil
}
