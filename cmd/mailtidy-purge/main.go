package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joshsymonds/mailtidy/internal/purge"
	"github.com/joshsymonds/mailtidy/internal/rate"
	"github.com/joshsymonds/mailtidy/internal/runtime"
)

type purgeConfig struct {
	common   *runtime.CommonFlags
	days     int
	pastYear bool
	allPages bool
	trash    bool
	dryRun   bool
}

func main() {
	cfg := parsePurgeFlags()
	if err := run(cfg); err != nil {
		runtime.DefaultLogger().Error("mailtidy-purge failed", "error", err)
		os.Exit(1)
	}
}

func parsePurgeFlags() purgeConfig {
	common := runtime.RegisterCommonFlags(flag.CommandLine)
	days := flag.Int("days", purge.DefaultDays, "delete messages older than this many days")
	pastYear := flag.Bool("past-year", false, "shorthand for -days 365")
	allPages := flag.Bool("all-pages", false, "follow every result page instead of only the first")
	trash := flag.Bool("trash", false, "move messages to trash instead of deleting permanently")
	dryRun := flag.Bool("dry-run", false, "list matches only; skip deletions")
	flag.Parse()

	return purgeConfig{
		common:   common,
		days:     *days,
		pastYear: *pastYear,
		allPages: *allPages,
		trash:    *trash,
		dryRun:   *dryRun,
	}
}

func (c purgeConfig) spec(pageSize int) (purge.Spec, error) {
	spec := purge.Spec{Days: c.days, AllPages: c.allPages, PageSize: pageSize}
	if c.pastYear {
		spec.Days = purge.PastYear().Days
	}
	switch {
	case c.dryRun:
		spec.Mode = purge.ModeDryRun
	case c.trash:
		spec.Mode = purge.ModeTrash
	}
	if spec.Days <= 0 {
		return purge.Spec{}, errors.New("-days must be positive")
	}
	return spec, nil
}

func run(cfg purgeConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := runtime.NewLogger(cfg.common.Verbose)
	settings, err := cfg.common.Resolve(flag.CommandLine)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	spec, err := cfg.spec(settings.PageSize)
	if err != nil {
		return err
	}

	client, err := runtime.NewGmailClient(ctx, settings, logger)
	if err != nil {
		return fmt.Errorf("create gmail client: %w", err)
	}

	svc := purge.NewService(client, rate.New(settings.RPS), logger)
	res, runErr := svc.Run(ctx, spec)
	if printErr := purge.PrintHuman(res, os.Stdout); printErr != nil {
		return fmt.Errorf("print report: %w", printErr)
	}
	if runErr != nil {
		return fmt.Errorf("run purge: %w", runErr)
	}
	return nil
}
