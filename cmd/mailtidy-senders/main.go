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
	"github.com/joshsymonds/mailtidy/internal/senders"
)

type sendersConfig struct {
	common   *runtime.CommonFlags
	query    string
	jsonOut  string
	snippets bool
}

func main() {
	cfg := parseFlags()
	if err := run(cfg); err != nil {
		runtime.DefaultLogger().Error("mailtidy-senders failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags() sendersConfig {
	common := runtime.RegisterCommonFlags(flag.CommandLine)
	query := flag.String("query", senders.DefaultQuery, "Gmail search selecting subscription mail")
	jsonOut := flag.String("json", "", "write JSON report to path")
	snippets := flag.Bool("snippets", false, "print gmailctl rules archiving mail from each sender")
	flag.Parse()

	return sendersConfig{
		common:   common,
		query:    *query,
		jsonOut:  *jsonOut,
		snippets: *snippets,
	}
}

func run(cfg sendersConfig) error {
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

	svc := senders.NewService(client, rate.New(settings.RPS), logger)
	rep, err := svc.Run(ctx, senders.Options{Query: cfg.query, PageSize: settings.PageSize})
	if err != nil {
		return fmt.Errorf("enumerate senders: %w", err)
	}

	if printErr := senders.PrintHuman(rep, os.Stdout); printErr != nil {
		return fmt.Errorf("print report: %w", printErr)
	}
	if cfg.snippets {
		if printErr := senders.PrintSnippets(rep, os.Stdout); printErr != nil {
			return fmt.Errorf("print snippets: %w", printErr)
		}
	}
	if cfg.jsonOut == "" {
		return nil
	}
	if writeErr := senders.WriteJSON(rep, cfg.jsonOut); writeErr != nil {
		return fmt.Errorf("write json: %w", writeErr)
	}
	return nil
}
