package automation

import (
	"log/slog"
	"time"

	"github.com/9to5-byte/XPoster/aiclient"
	"github.com/9to5-byte/XPoster/automation/countstore"
	"github.com/9to5-byte/XPoster/config"
	"github.com/9to5-byte/XPoster/content"
	"github.com/9to5-byte/XPoster/pkg/clock"
	"github.com/9to5-byte/XPoster/style"
	"github.com/9to5-byte/XPoster/twitter"
)

// TestFixture bundles a scheduler with the fakes behind it. Intentionally
// exported, for use in other packages.
type TestFixture struct {
	Scheduler *Scheduler
	Settings  *config.Settings
	Provider  *aiclient.MockClient
	Channel   *twitter.MockClient
	Counts    *countstore.MemCountStore
	Clock     *clock.Mock
}

// Helper function for setting up a scheduler wired to fakes, for testing.
// The clock starts at 10:00 UTC on a fixed day, inside the posting window,
// and the provider replays the given responses in order. Replies engage
// every candidate (probability 1.0, no keyword filter) so tests opt in to
// gating instead of fighting randomness.
func SchedulerTestFixture(responses ...string) TestFixture {
	settings := config.DefaultSettings()
	settings.Posting.MaxPostsPerDay = 5
	settings.Posting.PostingHours = config.PostingHours{Start: 9, End: 17}
	settings.Replies.ReplyProbability = 1.0
	settings.Replies.KeywordsToMonitor = nil
	settings.Replies.MaxRepliesPerCheck = 2
	settings.Replies.MaxRepliesPerHour = 0
	settings.Content.Topics = []string{"shipping code"}

	provider := aiclient.NewMockClient(responses...)
	profile := style.DefaultProfile(style.Metrics{AvgSentenceLength: 15})
	pipeline, err := content.NewPipeline(provider, profile, settings)
	if err != nil {
		panic(err)
	}

	channel := twitter.NewMockClient()
	counts := countstore.NewMemCountStore()
	clk := clock.NewMock(time.Date(2026, 8, 14, 10, 0, 0, 0, time.UTC))

	sched, err := NewScheduler(SchedulerConfig{
		Settings: settings,
		Pipeline: pipeline,
		Channel:  channel,
		Source:   channel,
		Counts:   counts,
		Clock:    clk,
		Logger:   slog.Default(),
	})
	if err != nil {
		panic(err)
	}

	return TestFixture{
		Scheduler: sched,
		Settings:  settings,
		Provider:  provider,
		Channel:   channel,
		Counts:    counts,
		Clock:     clk,
	}
}
