// Zaparoo LCD
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo LCD.
//
// Zaparoo LCD is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo LCD is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo LCD.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZaparooProject/zaparoo-lcd/internal/telemetry"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/api/client"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/cli"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/config"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := cli.SetupFlags(flag.CommandLine)
	configDir := flag.String("config", config.DefaultConfigDir(), "configuration directory")
	dataDir := flag.String("data", config.DefaultDataDir(), "data directory for logs, state and assets")
	quiet := flag.Bool("quiet", false, "only log to the log file")
	flag.Parse()

	if *flags.Version {
		_, _ = fmt.Println(cli.Version())
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := helpers.EnsureDirectories(*dataDir, *dataDir); err != nil {
		return err //nolint:wrapcheck // already wrapped
	}
	var logWriters []io.Writer
	if !*quiet {
		logWriters = append(logWriters, zerolog.ConsoleWriter{Out: os.Stderr})
	}
	if err := helpers.InitLogging(*dataDir, logWriters); err != nil {
		return fmt.Errorf("error initializing logging: %w", err)
	}

	cfg, err := config.NewConfig(afero.NewOsFs(), *configDir, config.BaseDefaults)
	if err != nil {
		log.Error().Err(err).Msg("error loading config")
		return fmt.Errorf("error loading config: %w", err)
	}
	if cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ran, err := flags.Run(ctx, client.New(cfg.APIListen()), os.Stdout)
	if ran {
		return err //nolint:wrapcheck // client errors are already descriptive
	}

	if err := telemetry.Init(cfg.ErrorReportingDSN(), config.AppVersion); err != nil {
		log.Warn().Err(err).Msg("error reporting unavailable")
	}
	defer telemetry.Close()

	defer func() {
		if err := recover(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %s\n", err)
			log.Fatal().Msgf("panic: %v", err)
		}
	}()

	stopSvc, done, err := service.Start(cfg, service.Options{DataDir: *dataDir})
	if err != nil {
		log.Error().Msgf("error starting service: %s", err)
		return fmt.Errorf("error starting service: %w", err)
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case <-done:
	}

	if err := stopSvc(); err != nil {
		log.Error().Msgf("error stopping service: %s", err)
		return fmt.Errorf("error stopping service: %w", err)
	}
	return nil
}
