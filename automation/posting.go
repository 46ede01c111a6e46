package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/9to5-byte/XPoster/automation/countstore"
	"github.com/9to5-byte/XPoster/content"
	"github.com/9to5-byte/XPoster/pkg/metrics"
	"github.com/9to5-byte/XPoster/twitter"
)

// baseInterval spreads the daily cap evenly across the posting window.
func (s *Scheduler) baseInterval() time.Duration {
	hours := s.settings.Posting.PostingHours.End - s.settings.Posting.PostingHours.Start
	limit := s.settings.Posting.MaxPostsPerDay
	if hours <= 0 || limit <= 0 {
		return time.Hour
	}
	iv := time.Duration(hours) * time.Hour / time.Duration(limit)
	if iv < time.Minute {
		return time.Minute
	}
	return iv
}

func (s *Scheduler) runPosting(ctx context.Context) {
	logger := s.logger.With("activity", "posting")
	base := s.baseInterval()
	logger.Info("posting loop started",
		"window", fmt.Sprintf("%02d:00-%02d:00", s.settings.Posting.PostingHours.Start, s.settings.Posting.PostingHours.End),
		"timezone", s.settings.Posting.Timezone,
		"maxPostsPerDay", s.settings.Posting.MaxPostsPerDay,
		"baseInterval", base)

	timer := time.NewTimer(jitter(base))
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("posting loop stopped")
			return
		case <-timer.C:
			posted, err := s.postTick(ctx)
			switch {
			case err != nil:
				postTicks.WithLabelValues(metrics.StatusError).Inc()
				logger.Error("posting tick failed", "err", err)
			case posted:
				postTicks.WithLabelValues(metrics.StatusOK).Inc()
			default:
				postTicks.WithLabelValues(metrics.StatusSkipped).Inc()
			}
			timer.Reset(jitter(base))
		}
	}
}

// postTick makes a single posting attempt. It returns false with a nil
// error when the tick was skipped by the posting window or the daily cap.
func (s *Scheduler) postTick(ctx context.Context) (bool, error) {
	now := s.clock.Now().In(s.location)
	day := countstore.DayKey(now)
	s.trackDay(day)

	if h := now.Hour(); h < s.settings.Posting.PostingHours.Start || h >= s.settings.Posting.PostingHours.End {
		s.logger.Debug("outside posting window", "hour", h, "day", day)
		postsSkipped.WithLabelValues("window").Inc()
		return false, nil
	}

	ok, err := s.counts.TryReserve(ctx, counterPosts, day, s.settings.Posting.MaxPostsPerDay)
	if err != nil {
		return false, fmt.Errorf("checking daily cap: %w", err)
	}
	if !ok {
		s.logger.Info("daily post cap reached", "day", day, "maxPostsPerDay", s.settings.Posting.MaxPostsPerDay)
		postsSkipped.WithLabelValues("cap").Inc()
		return false, nil
	}

	gen, err := s.pipeline.GenerateOriginal(ctx, "")
	if err != nil {
		// the reserved slot goes back so a failed attempt does not burn cap
		s.releaseSlot(ctx, counterPosts, day)
		postsFailed.WithLabelValues("generate").Inc()
		return false, err
	}

	res, err := s.channel.Post(ctx, gen.Text)
	if err != nil {
		s.releaseSlot(ctx, counterPosts, day)
		postsFailed.WithLabelValues("post").Inc()
		return false, fmt.Errorf("publishing post: %w", err)
	}

	postsPublished.Inc()
	s.logger.Info("published post", "tweetID", res.ID, "topic", gen.Topic, "text", content.Preview(gen.Text))
	s.recordPost(ctx, res, gen)
	return true, nil
}

// PostNow generates and publishes a single post immediately, skipping the
// window and cap checks. The post still counts toward the daily cap so a
// manual post does not hand the schedule an extra slot.
func (s *Scheduler) PostNow(ctx context.Context, topic string) (*twitter.PostResult, error) {
	gen, err := s.pipeline.GenerateOriginal(ctx, topic)
	if err != nil {
		postsFailed.WithLabelValues("generate").Inc()
		return nil, err
	}
	res, err := s.channel.Post(ctx, gen.Text)
	if err != nil {
		postsFailed.WithLabelValues("post").Inc()
		return nil, fmt.Errorf("publishing post: %w", err)
	}
	postsPublished.Inc()

	day := countstore.DayKey(s.clock.Now().In(s.location))
	if err := s.counts.Increment(ctx, counterPosts, day); err != nil {
		s.logger.Warn("failed to count manual post", "day", day, "err", err)
	}
	s.logger.Info("published post", "tweetID", res.ID, "topic", gen.Topic, "text", content.Preview(gen.Text))
	s.recordPost(ctx, res, gen)
	return res, nil
}

func (s *Scheduler) recordPost(ctx context.Context, res *twitter.PostResult, gen *content.Generated) {
	if s.history == nil {
		return
	}
	if err := s.history.RecordPost(ctx, res.ID, gen.Text, gen.Topic); err != nil {
		s.logger.Warn("failed to record post", "tweetID", res.ID, "err", err)
	}
}
