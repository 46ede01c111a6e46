package automation

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/9to5-byte/XPoster/automation/countstore"
	"github.com/9to5-byte/XPoster/content"
	"github.com/9to5-byte/XPoster/history"
	"github.com/9to5-byte/XPoster/twitter"
)

var mentionCursorKey = "xposter/mentionCursor"

const (
	mentionFetchLimit  = 10
	timelineFetchLimit = 20
)

func (s *Scheduler) runMonitoring(ctx context.Context) {
	logger := s.logger.With("activity", "replies")

	cursor, err := s.readMentionCursor(ctx)
	if err != nil {
		logger.Error("failed to read mention cursor", "err", err)
	} else if cursor != "" {
		logger.Info("resuming from persisted mention cursor", "sinceID", cursor)
		s.setLastMention(cursor)
	}

	interval := s.settings.CheckInterval()
	logger.Info("reply monitoring started",
		"interval", interval,
		"maxRepliesPerCheck", s.settings.Replies.MaxRepliesPerCheck,
		"replyProbability", s.settings.Replies.ReplyProbability)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("reply monitoring stopped")
			return
		case <-ticker.C:
			if n := s.monitorTick(ctx); n > 0 {
				logger.Info("monitor pass complete", "replies", n)
			}
		}
	}
}

// monitorTick runs one scan over new mentions and the home timeline, and
// replies to candidates which pass the engagement gate. Returns the number
// of replies published. Fetch failures are logged, not fatal, so a flaky
// pass does not kill the loop.
func (s *Scheduler) monitorTick(ctx context.Context) int {
	now := s.clock.Now().In(s.location)
	day := countstore.DayKey(now)

	var candidates []*twitter.Tweet

	mentions, err := s.source.Mentions(ctx, s.getLastMention(), mentionFetchLimit)
	if err != nil {
		s.logger.Error("failed to fetch mentions", "err", err)
	} else if len(mentions) > 0 {
		// newest first, so the first ID is the next since_id. The cursor
		// advances past every scanned mention whether or not we engage.
		s.setLastMention(mentions[0].ID)
		s.persistMentionCursor(ctx, mentions[0].ID)
		candidates = append(candidates, mentions...)
	}

	timeline, err := s.source.HomeTimeline(ctx, timelineFetchLimit)
	if err != nil {
		s.logger.Error("failed to fetch home timeline", "err", err)
	} else {
		candidates = append(candidates, timeline...)
	}

	monitorPasses.Inc()

	replied := 0
	handled := make(map[string]bool, len(candidates))
	for _, cand := range candidates {
		if replied >= s.settings.Replies.MaxRepliesPerCheck {
			break
		}
		// a tweet can show up as both a mention and a timeline entry
		if handled[cand.ID] {
			continue
		}
		handled[cand.ID] = true

		if s.shouldSkip(ctx, cand) {
			continue
		}
		if !content.ShouldEngage(cand, s.settings, rand.Float64()) {
			repliesSkipped.WithLabelValues("gate").Inc()
			continue
		}
		if s.replyLimiter != nil && !s.replyLimiter.Allow() {
			s.logger.Info("hourly reply limit reached, deferring to a later pass")
			repliesSkipped.WithLabelValues("hourly_limit").Inc()
			break
		}

		ok, err := s.replyTo(ctx, cand, day)
		if err != nil {
			s.logger.Error("reply attempt failed", "inReplyTo", cand.ID, "err", err)
			continue
		}
		if ok {
			replied++
		}
	}
	return replied
}

// shouldSkip filters out our own tweets, tweets handled earlier in this
// process, and tweets already replied to in a previous run.
func (s *Scheduler) shouldSkip(ctx context.Context, t *twitter.Tweet) bool {
	if me := s.source.Me(); me != nil && t.AuthorID == me.ID {
		return true
	}
	if s.seen.Contains(t.ID) {
		return true
	}
	if s.settings.Replies.SkipAlreadyReplied && s.history != nil {
		replied, err := s.history.HasReplied(ctx, t.ID)
		if err != nil {
			s.logger.Warn("failed to check reply history", "tweetID", t.ID, "err", err)
		} else if replied {
			s.seen.Add(t.ID, true)
			return true
		}
	}
	return false
}

// replyTo makes a single reply attempt. The bool reports whether a reply
// was actually published, so a cap skip does not count against the
// per-pass budget.
func (s *Scheduler) replyTo(ctx context.Context, candidate *twitter.Tweet, day string) (bool, error) {
	// mark up front, so a failed attempt is not retried every pass
	s.seen.Add(candidate.ID, true)

	reserved := false
	if s.settings.Replies.CountTowardDailyCap {
		ok, err := s.counts.TryReserve(ctx, counterPosts, day, s.settings.Posting.MaxPostsPerDay)
		if err != nil {
			return false, fmt.Errorf("checking daily cap: %w", err)
		}
		if !ok {
			s.logger.Info("daily cap reached, skipping reply", "day", day, "inReplyTo", candidate.ID)
			repliesSkipped.WithLabelValues("cap").Inc()
			return false, nil
		}
		reserved = true
	}

	gen, err := s.pipeline.GenerateReply(ctx, candidate)
	if err != nil {
		if reserved {
			s.releaseSlot(ctx, counterPosts, day)
		}
		repliesFailed.WithLabelValues("generate").Inc()
		return false, err
	}

	res, err := s.channel.Reply(ctx, gen.Text, candidate.ID)
	if err != nil {
		if reserved {
			s.releaseSlot(ctx, counterPosts, day)
		}
		repliesFailed.WithLabelValues("post").Inc()
		return false, fmt.Errorf("publishing reply: %w", err)
	}

	if err := s.counts.Increment(ctx, counterReplies, day); err != nil {
		s.logger.Warn("failed to count reply", "day", day, "err", err)
	}
	repliesPublished.Inc()
	s.logger.Info("published reply",
		"tweetID", res.ID,
		"inReplyTo", candidate.ID,
		"author", candidate.AuthorHandle,
		"text", content.Preview(gen.Text))
	s.recordReply(ctx, res, candidate, gen)
	return true, nil
}

func (s *Scheduler) recordReply(ctx context.Context, res *twitter.PostResult, candidate *twitter.Tweet, gen *content.Generated) {
	if s.history == nil {
		return
	}
	err := s.history.RecordReply(ctx, res.ID, candidate.ID, candidate.AuthorID, gen.Text)
	switch {
	case err == nil:
	case history.IsDuplicate(err):
		s.logger.Debug("reply already recorded", "inReplyTo", candidate.ID)
	default:
		s.logger.Warn("failed to record reply", "tweetID", res.ID, "err", err)
	}
}

// readMentionCursor loads the persisted mention cursor. A missing key and
// an unconfigured redis client both mean starting fresh.
func (s *Scheduler) readMentionCursor(ctx context.Context) (string, error) {
	// if redis isn't configured, just skip
	if s.rdb == nil {
		return "", nil
	}

	val, err := s.rdb.Get(ctx, mentionCursorKey).Result()
	if err == redis.Nil {
		s.logger.Info("no pre-existing mention cursor in redis")
		return "", nil
	}
	return val, err
}

func (s *Scheduler) persistMentionCursor(ctx context.Context, cursor string) {
	// if redis isn't configured, just skip
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Set(ctx, mentionCursorKey, cursor, 14*24*time.Hour).Err(); err != nil {
		s.logger.Error("failed to persist mention cursor", "err", err)
	}
}
