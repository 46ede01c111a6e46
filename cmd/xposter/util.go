package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/9to5-byte/XPoster/aiclient"
	"github.com/9to5-byte/XPoster/history"
	"github.com/9to5-byte/XPoster/style"
	"github.com/9to5-byte/XPoster/twitter"
)

func newProvider(cctx *cli.Context) (aiclient.Client, error) {
	cfg := aiclient.Config{Provider: cctx.String("ai-provider")}
	switch cfg.Provider {
	case aiclient.ProviderOpenAI:
		cfg.APIKey = cctx.String("openai-api-key")
		cfg.Model = cctx.String("openai-model")
	case aiclient.ProviderAnthropic:
		cfg.APIKey = cctx.String("anthropic-api-key")
		cfg.Model = cctx.String("anthropic-model")
	}
	if cfg.Provider != "" && cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for provider %q", cfg.Provider)
	}
	return aiclient.New(cfg)
}

func newTwitterClient(cctx *cli.Context) (*twitter.Client, error) {
	cfg := twitter.ClientConfig{
		APIKey:            cctx.String("twitter-api-key"),
		APISecret:         cctx.String("twitter-api-secret"),
		AccessToken:       cctx.String("twitter-access-token"),
		AccessTokenSecret: cctx.String("twitter-access-token-secret"),
		BearerToken:       cctx.String("twitter-bearer-token"),
	}
	if cfg.APIKey == "" || cfg.APISecret == "" || cfg.AccessToken == "" || cfg.AccessTokenSecret == "" {
		return nil, fmt.Errorf("twitter credentials are not fully configured (need TWITTER_API_KEY, TWITTER_API_SECRET, TWITTER_ACCESS_TOKEN, TWITTER_ACCESS_TOKEN_SECRET)")
	}
	return twitter.NewClient(cfg), nil
}

// loadOrTrainProfile fetches the stored style profile. When none exists it
// trains one from the writing samples on disk, or falls back to a neutral
// default so the generators still have something to condition on.
func loadOrTrainProfile(ctx context.Context, cctx *cli.Context, provider aiclient.Client, logger *slog.Logger) (*style.Profile, error) {
	store := style.NewStore(cctx.String("profile-path"))
	profile, err := store.Load()
	if err == nil {
		logger.Info("loaded style profile", "analyzedAt", profile.AnalyzedAt, "samples", profile.SampleCount)
		return profile, nil
	}
	if !errors.Is(err, style.ErrProfileNotFound) {
		return nil, err
	}

	docs, err := style.NewDocuments(cctx.String("samples-dir"))
	if err != nil {
		return nil, err
	}
	samples, err := docs.LoadSamples()
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		logger.Warn("no style profile and no writing samples, using a neutral default", "samplesDir", docs.Dir())
		return style.DefaultProfile(style.Metrics{}), nil
	}

	logger.Info("no style profile found, analyzing writing samples", "count", len(samples))
	profile, err = style.NewAnalyzer(provider).Analyze(ctx, samples)
	if err != nil {
		return nil, err
	}
	if err := store.Save(profile); err != nil {
		logger.Warn("failed to save style profile", "err", err)
	}
	return profile, nil
}

func openHistory(cctx *cli.Context) (*history.Store, error) {
	db, err := history.SetupDatabase(cctx.String("database-url"), cctx.Int("max-db-conn"))
	if err != nil {
		return nil, err
	}
	return history.NewStore(db)
}
