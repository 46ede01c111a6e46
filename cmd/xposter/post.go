package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/9to5-byte/XPoster/automation"
	"github.com/9to5-byte/XPoster/automation/countstore"
	"github.com/9to5-byte/XPoster/config"
	"github.com/9to5-byte/XPoster/content"
)

var cmdPost = &cli.Command{
	Name:  "post",
	Usage: "generate and publish a single post now, ignoring the schedule",
	Flags: append(append(append([]cli.Flag{
		&cli.StringFlag{
			Name:  "topic",
			Usage: "topic to post about; picked automatically when empty",
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection, so manual posts share cap accounting with a running daemon",
			EnvVars: []string{"REDIS_URL"},
		},
	}, aiFlags...), twitterFlags...), dbFlags...),
	Action: runPost,
}

func runPost(cctx *cli.Context) error {
	ctx := cctx.Context
	logger := configLogger(cctx, os.Stderr)

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
	}

	sched, err := automation.NewScheduler(schedCfg)
	if err != nil {
		return err
	}

	res, err := sched.PostNow(ctx, cctx.String("topic"))
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", res.Text)
	fmt.Printf("https://twitter.com/%s/status/%s\n", acct.Handle, res.ID)
	return nil
}
