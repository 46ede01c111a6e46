package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/9to5-byte/XPoster/automation"
	"github.com/9to5-byte/XPoster/automation/countstore"
	"github.com/9to5-byte/XPoster/config"
	"github.com/9to5-byte/XPoster/content"
	"github.com/9to5-byte/XPoster/pkg/metrics"
)

var cmdRun = &cli.Command{
	Name:  "run",
	Usage: "run the posting and reply automation daemon",
	Flags: append(append(append([]cli.Flag{
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection for persistent counters and the mention cursor (eg: redis://localhost:6379/0)",
			EnvVars: []string{"REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for prometheus metrics",
			Value:   ":3995",
			EnvVars: []string{"XPOSTER_METRICS_LISTEN"},
		},
	}, aiFlags...), twitterFlags...), dbFlags...),
	Action: runDaemon,
}

func runDaemon(cctx *cli.Context) error {
	logger := configLogger(cctx, os.Stdout)

	// Trap SIGINT to trigger a shutdown.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(cctx.Context)
	defer cancel()

	settings, err := config.LoadSettings(cctx.String("config"))
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	provider, err := newProvider(cctx)
	if err != nil {
		return err
	}
	client, err := newTwitterClient(cctx)
	if err != nil {
		return err
	}
	acct, err := client.VerifyCredentials(ctx)
	if err != nil {
		return fmt.Errorf("verifying twitter credentials: %w", err)
	}

	profile, err := loadOrTrainProfile(ctx, cctx, provider, logger)
	if err != nil {
		return err
	}
	pipeline, err := content.NewPipeline(provider, profile, settings)
	if err != nil {
		return err
	}

	store, err := openHistory(cctx)
	if err != nil {
		return err
	}

	schedCfg := automation.SchedulerConfig{
		Settings: settings,
		Pipeline: pipeline,
		Channel:  client,
		Source:   client,
		History:  store,
		Logger:   logger,
	}
	if redisURL := cctx.String("redis-url"); redisURL != "" {
		counts, err := countstore.NewRedisCountStore(redisURL)
		if err != nil {
			return err
		}
		schedCfg.Counts = counts
		schedCfg.RedisClient = counts.Client
		logger.Info("redis-backed counters and mention cursor enabled")
	}

	sched, err := automation.NewScheduler(schedCfg)
	if err != nil {
		return err
	}

	// start metrics endpoint
	go func() {
		if err := metrics.RunServer(ctx, cancel, cctx.String("metrics-listen")); err != nil {
			logger.Error("metrics server failed", "err", err)
		}
	}()

	runErr := make(chan error, 1)
	go func() {
		runErr <- sched.Run(ctx)
	}()

	logger.Info("startup complete", "handle", acct.Handle)
	select {
	case <-signals:
		logger.Info("received shutdown signal")
		cancel()
		select {
		case <-runErr:
		case <-time.After(10 * time.Second):
			logger.Error("shutdown grace period exceeded, exiting")
		}
	case err := <-runErr:
		if err != nil {
			return err
		}
	}
	return nil
}
