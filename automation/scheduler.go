// Package automation drives the posting schedule and the reply loop.
//
// The Scheduler owns the two long-running activities: publishing original
// posts inside the configured daily window, and scanning mentions plus the
// home timeline for tweets worth replying to. All schedule math happens in
// the configured timezone, and daily caps are enforced through a CountStore
// keyed by day so a new day starts with a fresh bucket without any explicit
// reset step.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/RussellLuo/slidingwindow"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"

	"github.com/9to5-byte/XPoster/automation/countstore"
	"github.com/9to5-byte/XPoster/config"
	"github.com/9to5-byte/XPoster/content"
	"github.com/9to5-byte/XPoster/history"
	"github.com/9to5-byte/XPoster/pkg/clock"
	"github.com/9to5-byte/XPoster/twitter"
)

// Counter names for daily accounting. The posting cap and the reply tally
// live in separate buckets unless replies are configured to count toward
// the daily posting cap.
const (
	counterPosts   = "posts"
	counterReplies = "replies"
)

const (
	seenCacheSize = 1000
	seenCacheTTL  = 24 * time.Hour
)

// PostingChannel publishes generated content.
type PostingChannel interface {
	Post(ctx context.Context, text string) (*twitter.PostResult, error)
	Reply(ctx context.Context, text string, toID string) (*twitter.PostResult, error)
}

// EngagementSource supplies reply candidates.
type EngagementSource interface {
	Me() *twitter.User
	Mentions(ctx context.Context, sinceID string, limit int) ([]*twitter.Tweet, error)
	HomeTimeline(ctx context.Context, limit int) ([]*twitter.Tweet, error)
}

// ContentSource produces validated post and reply text.
type ContentSource interface {
	GenerateOriginal(ctx context.Context, topic string) (*content.Generated, error)
	GenerateReply(ctx context.Context, candidate *twitter.Tweet) (*content.Generated, error)
}

var _ PostingChannel = (*twitter.Client)(nil)
var _ EngagementSource = (*twitter.Client)(nil)
var _ PostingChannel = (*twitter.MockClient)(nil)
var _ EngagementSource = (*twitter.MockClient)(nil)
var _ ContentSource = (*content.Pipeline)(nil)

type Scheduler struct {
	settings *config.Settings
	location *time.Location
	pipeline ContentSource
	channel  PostingChannel
	source   EngagementSource
	counts   countstore.CountStore
	history  *history.Store
	rdb      *redis.Client
	clock    clock.Clock
	logger   *slog.Logger

	// guards lastDay and lastMentionID
	mu            sync.Mutex
	lastDay       string
	lastMentionID string

	// tweet IDs already handled this process, so a candidate surfacing in
	// both the mention feed and the timeline is only replied to once
	seen *expirable.LRU[string, bool]

	// nil when max_replies_per_hour is unset
	replyLimiter *slidingwindow.Limiter
}

type SchedulerConfig struct {
	Settings *config.Settings
	Pipeline ContentSource
	Channel  PostingChannel
	Source   EngagementSource

	// Counts defaults to an in-memory store. Point it at Redis when cap
	// accounting must survive restarts.
	Counts countstore.CountStore

	// History enables cross-run reply dedupe and the posting audit trail.
	// Optional.
	History *history.Store

	// RedisClient persists the mention cursor between runs. Optional.
	RedisClient *redis.Client

	// Clock defaults to the system clock.
	Clock clock.Clock

	Logger *slog.Logger
}

func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Settings == nil {
		return nil, fmt.Errorf("scheduler requires settings")
	}
	if err := cfg.Settings.Validate(); err != nil {
		return nil, err
	}
	if cfg.Pipeline == nil || cfg.Channel == nil {
		return nil, fmt.Errorf("scheduler requires a content source and a posting channel")
	}
	if cfg.Settings.Replies.Enabled && cfg.Source == nil {
		return nil, fmt.Errorf("reply monitoring requires an engagement source")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	counts := cfg.Counts
	if counts == nil {
		counts = countstore.NewMemCountStore()
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}

	s := &Scheduler{
		settings: cfg.Settings,
		location: cfg.Settings.Location(),
		pipeline: cfg.Pipeline,
		channel:  cfg.Channel,
		source:   cfg.Source,
		counts:   counts,
		history:  cfg.History,
		rdb:      cfg.RedisClient,
		clock:    clk,
		logger:   logger.With("system", "scheduler"),
		seen:     expirable.NewLRU[string, bool](seenCacheSize, nil, seenCacheTTL),
	}
	if n := cfg.Settings.Replies.MaxRepliesPerHour; n > 0 {
		s.replyLimiter = perHourLimiter(int64(n))
	}
	return s, nil
}

func perHourLimiter(count int64) *slidingwindow.Limiter {
	lim, _ := slidingwindow.NewLimiter(time.Hour, count, func() (slidingwindow.Window, slidingwindow.StopFunc) {
		return slidingwindow.NewLocalWindow()
	})
	return lim
}

// Run starts the enabled activities and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.settings.Posting.Enabled && !s.settings.Replies.Enabled {
		s.logger.Warn("posting and replies both disabled, nothing to run")
		return nil
	}

	var wg sync.WaitGroup
	if s.settings.Posting.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runPosting(ctx)
		}()
	}
	if s.settings.Replies.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runMonitoring(ctx)
		}()
	}
	wg.Wait()
	return nil
}

// trackDay records the current day key and logs when it rolls over. Cap
// buckets are keyed by day, so the rollover itself needs no reset work.
func (s *Scheduler) trackDay(day string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastDay != "" && s.lastDay != day {
		s.logger.Info("day rolled over, caps start fresh", "prev", s.lastDay, "day", day)
	}
	s.lastDay = day
}

func (s *Scheduler) getLastMention() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastMentionID
}

func (s *Scheduler) setLastMention(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastMentionID = id
}

// releaseSlot hands a reserved cap slot back after a failed attempt.
func (s *Scheduler) releaseSlot(ctx context.Context, name, day string) {
	if err := s.counts.Release(ctx, name, day); err != nil {
		s.logger.Warn("failed to release counter slot", "counter", name, "day", day, "err", err)
	}
}

// jitter spreads an interval to 80-120% of base so the account does not
// post at metronome-regular times.
func jitter(base time.Duration) time.Duration {
	return time.Duration(float64(base) * (0.8 + 0.4*rand.Float64()))
}
