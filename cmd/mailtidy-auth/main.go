package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joshsymonds/mailtidy/internal/runtime"
)

type authConfig struct {
	common *runtime.CommonFlags
	reset  bool
}

func main() {
	cfg := parseAuthFlags()
	if err := run(cfg); err != nil {
		runtime.DefaultLogger().Error("mailtidy-auth failed", "error", err)
		os.Exit(1)
	}
}

func parseAuthFlags() authConfig {
	common := runtime.RegisterCommonFlags(flag.CommandLine)
	reset := flag.Bool("reset", false, "discard the stored token and authorize again")
	flag.Parse()
	return authConfig{common: common, reset: *reset}
}

func run(cfg authConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := runtime.NewLogger(cfg.common.Verbose)
	settings, err := cfg.common.Resolve(flag.CommandLine)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a, err := runtime.NewAuthenticator(settings, logger)
	if err != nil {
		return err
	}
	if cfg.reset {
		if resetErr := a.Reset(); resetErr != nil {
			return fmt.Errorf("reset token: %w", resetErr)
		}
	}
	tok, err := a.Token(ctx)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Token stored in %s (expires %s).\n", settings.TokenFile, tok.Expiry.Format("2006-01-02 15:04:05 MST"))
	return nil
}
