// Command xposter is a social posting automation daemon. It learns a
// writing style from sample documents, generates posts on a daily schedule,
// and replies to mentions and timeline activity it finds engaging.
package main

import (
	"io"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	_ "go.uber.org/automaxprocs"

	"github.com/carlmjohnson/versioninfo"
	"github.com/urfave/cli/v2"

	"github.com/9to5-byte/XPoster/aiclient"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

// aiFlags configure the language-model provider. Shared by every command
// which generates or analyzes text.
var aiFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "ai-provider",
		Usage:   "which language-model provider to use (openai or anthropic)",
		Value:   aiclient.ProviderOpenAI,
		EnvVars: []string{"AI_PROVIDER"},
	},
	&cli.StringFlag{
		Name:    "openai-api-key",
		Usage:   "API key for OpenAI",
		EnvVars: []string{"OPENAI_API_KEY"},
	},
	&cli.StringFlag{
		Name:    "openai-model",
		Value:   aiclient.DefaultOpenAIModel,
		EnvVars: []string{"OPENAI_MODEL"},
	},
	&cli.StringFlag{
		Name:    "anthropic-api-key",
		Usage:   "API key for Anthropic",
		EnvVars: []string{"ANTHROPIC_API_KEY"},
	},
	&cli.StringFlag{
		Name:    "anthropic-model",
		Value:   aiclient.DefaultAnthropicModel,
		EnvVars: []string{"ANTHROPIC_MODEL"},
	},
}

// twitterFlags configure the posting account. OAuth 1.0a user credentials
// are required for writes; the bearer token is optional and only improves
// mention polling quota.
var twitterFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "twitter-api-key",
		EnvVars: []string{"TWITTER_API_KEY"},
	},
	&cli.StringFlag{
		Name:    "twitter-api-secret",
		EnvVars: []string{"TWITTER_API_SECRET"},
	},
	&cli.StringFlag{
		Name:    "twitter-access-token",
		EnvVars: []string{"TWITTER_ACCESS_TOKEN"},
	},
	&cli.StringFlag{
		Name:    "twitter-access-token-secret",
		EnvVars: []string{"TWITTER_ACCESS_TOKEN_SECRET"},
	},
	&cli.StringFlag{
		Name:    "twitter-bearer-token",
		Usage:   "app-only token used for reading mentions",
		EnvVars: []string{"TWITTER_BEARER_TOKEN"},
	},
}

var dbFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "database-url",
		Usage:   "connection string for the posting history database",
		Value:   "sqlite://data/xposter/history.sqlite",
		EnvVars: []string{"DATABASE_URL"},
	},
	&cli.IntFlag{
		Name:    "max-db-conn",
		Usage:   "limit on size of database connection pool",
		Value:   40,
		EnvVars: []string{"MAX_DB_CONNECTIONS"},
	},
}

func run(args []string) error {

	app := cli.App{
		Name:    "xposter",
		Usage:   "style-aware social posting automation",
		Version: versioninfo.Short(),
	}
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "path to settings YAML; defaults are used when missing",
			Value:   "settings.yaml",
			EnvVars: []string{"XPOSTER_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "samples-dir",
			Usage:   "directory of writing sample documents",
			Value:   "my_documents",
			EnvVars: []string{"XPOSTER_SAMPLES_DIR"},
		},
		&cli.StringFlag{
			Name:    "profile-path",
			Usage:   "where the learned style profile is stored (defaults to the XDG state dir)",
			EnvVars: []string{"XPOSTER_PROFILE_PATH"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity level (eg: warn, info, debug)",
			EnvVars: []string{"XPOSTER_LOG_LEVEL", "GO_LOG_LEVEL", "LOG_LEVEL"},
		},
	}
	app.Commands = []*cli.Command{
		cmdRun,
		cmdPost,
		cmdTrain,
		cmdAddSample,
		cmdProfile,
		cmdHistory,
	}
	return app.Run(args)
}

func configLogger(cctx *cli.Context, writer io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cctx.String("log-level")) {
	case "error":
		level = slog.LevelError
	case "warn":
		level = slog.LevelWarn
	case "info":
		level = slog.LevelInfo
	case "debug":
		level = slog.LevelDebug
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}
