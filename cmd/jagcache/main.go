// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command jagcache reads and writes JaGeX game caches.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/jagcache/cmd/jagcache/cli"
	"github.com/bureau-foundation/jagcache/cmd/jagcache/commands"
	"github.com/bureau-foundation/jagcache/lib/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		// Commands that print their own report (like store verify)
		// return an ExitError with the desired exit code. Don't print
		// a redundant "error:" line for those.
		var exit *cli.ExitError
		if !errors.As(err, &exit) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(cli.ExitCode(err))
	}
}

func run(args []string) error {
	globals := pflag.NewFlagSet("jagcache", pflag.ContinueOnError)
	globals.SetInterspersed(false)
	globals.SetOutput(io.Discard)
	configPath := globals.String("config", "", "configuration file")
	logLevel := globals.String("log-level", "", "log level")
	logFormat := globals.String("log-format", "", "log format")

	if err := globals.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			commands.Root(config.Default()).PrintHelp(os.Stderr)
			return nil
		}
		return cli.Validation("%v\n\n%s", err, commands.GlobalUsage)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Logging.Format = *logFormat
	}
	if err := cfg.Validate(); err != nil {
		return cli.Validation("invalid configuration:\n%w", err)
	}

	logger, err := cli.NewCommandLogger(os.Stderr, cfg.Logging)
	if err != nil {
		return cli.Validation("%w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return commands.Root(cfg).Execute(ctx, globals.Args(), logger)
}
