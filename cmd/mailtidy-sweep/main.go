package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joshsymonds/mailtidy/internal/rate"
	"github.com/joshsymonds/mailtidy/internal/runtime"
	"github.com/joshsymonds/mailtidy/internal/sweep"
)

type sweepConfig struct {
	common *runtime.CommonFlags
	label  string
	batch  bool
	dryRun bool
}

func main() {
	cfg := parseSweepFlags()
	if err := run(cfg); err != nil {
		runtime.DefaultLogger().Error("mailtidy-sweep failed", "error", err)
		os.Exit(1)
	}
}

func parseSweepFlags() sweepConfig {
	common := runtime.RegisterCommonFlags(flag.CommandLine)
	label := flag.String("label", "", "limit sweep to this label")
	batch := flag.Bool("batch", false, "mark read with batchModify (up to 1000 ids per call)")
	dryRun := flag.Bool("dry-run", false, "count only; skip modifications")
	flag.Parse()

	return sweepConfig{
		common: common,
		label:  *label,
		batch:  *batch,
		dryRun: *dryRun,
	}
}

func run(cfg sweepConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := runtime.NewLogger(cfg.common.Verbose)
	settings, err := cfg.common.Resolve(flag.CommandLine)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	client, err := runtime.NewGmailClient(ctx, settings, logger)
	if err != nil {
		return fmt.Errorf("create gmail client: %w", err)
	}

	svc := sweep.NewService(client, rate.New(settings.RPS), logger)
	spec := sweep.Spec{
		Label:    cfg.label,
		Batch:    cfg.batch,
		DryRun:   cfg.dryRun,
		PageSize: settings.PageSize,
	}
	res, runErr := svc.Run(ctx, spec)
	if runErr != nil {
		return fmt.Errorf("run sweep (marked %d before failing): %w", res.Marked, runErr)
	}
	if printErr := sweep.PrintHuman(res, os.Stdout); printErr != nil {
		return fmt.Errorf("print report: %w", printErr)
	}
	return nil
}
