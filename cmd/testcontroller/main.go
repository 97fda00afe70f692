// Package main is the test-controller binary that runs inside the
// controller pod. It waits for the grid behind the worker service to
// report ready, then drives the browser test suite through a remote
// session and exits with a diagnostic code:
//
//	0 — suite passed
//	1 — suite ran and failed
//	2 — grid never became healthy
//
// The distinction between 1 and 2 matters to operators: a failing suite
// and an unhealthy cluster need different follow-up.
package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vrischmann/envconfig"

	"github.com/qaops/gridctl/internal/grid"
	"github.com/qaops/gridctl/internal/suite"
	"github.com/qaops/gridctl/internal/testconf"
)

const (
	exitSuiteFailed = 1
	exitGridUnready = 2
)

type Config struct {
	ChromeNodeService string        `envconfig:"CHROME_NODE_SERVICE,default=http://chrome-node-service:4444"`
	MaxRetries        int           `envconfig:"MAX_RETRIES,default=5"`
	RetryDelay        time.Duration `envconfig:"RETRY_DELAY,default=10s"`
	TestConfig        string        `envconfig:"TEST_CONFIG,default=configuration.properties"`
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg := Config{}
	if err := envconfig.Init(&cfg); err != nil {
		log.Error().Err(err).Msg("failed to read controller config")
		return exitSuiteFailed
	}

	log.Info().Str("grid", cfg.ChromeNodeService).Msg("test controller started")

	probe := grid.NewProbe(cfg.ChromeNodeService)
	out := probe.AwaitReady(ctx, cfg.MaxRetries, cfg.RetryDelay)
	if !out.Succeeded {
		log.Error().
			Err(out.LastErr).
			Int("attempts", out.Attempts).
			Dur("elapsed", out.Elapsed).
			Msg("grid never became healthy")
		return exitGridUnready
	}
	log.Info().Int("attempts", out.Attempts).Msg("grid is ready")

	testCfg, err := testconf.Load(cfg.TestConfig)
	if err != nil {
		log.Error().Err(err).Msg("invalid test configuration")
		return exitSuiteFailed
	}

	runner := suite.NewRunner(cfg.ChromeNodeService+"/wd/hub", testCfg, log.Logger)
	if err := runner.Run(ctx); err != nil {
		log.Error().Err(err).Msg("test suite failed")
		return exitSuiteFailed
	}

	log.Info().Msg("test suite completed successfully")
	return 0
}
