package automation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/9to5-byte/XPoster/aiclient"
	"github.com/9to5-byte/XPoster/automation/countstore"
	"github.com/9to5-byte/XPoster/config"
)

func TestPostTickPublishes(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	fix := SchedulerTestFixture("Shipping a small fix today. It feels good to close the loop.")

	posted, err := fix.Scheduler.postTick(ctx)
	require.NoError(t, err)
	assert.True(posted)
	require.Len(t, fix.Channel.Posts, 1)
	assert.Equal("Shipping a small fix today. It feels good to close the loop.", fix.Channel.Posts[0])

	day := countstore.DayKey(fix.Clock.Now())
	c, err := fix.Counts.GetCount(ctx, counterPosts, day)
	require.NoError(t, err)
	assert.Equal(1, c)
}

func TestPostTickWindow(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	// window is 9-17: start inclusive, end exclusive
	fixtures := []struct {
		hour   int
		posted bool
	}{
		{8, false},
		{9, true},
		{16, true},
		{17, false},
		{23, false},
	}
	for _, tc := range fixtures {
		fix := SchedulerTestFixture("Checking the posting window.")
		fix.Clock.Set(time.Date(2026, 8, 14, tc.hour, 30, 0, 0, time.UTC))

		posted, err := fix.Scheduler.postTick(ctx)
		require.NoError(t, err)
		assert.Equal(tc.posted, posted, "hour %d", tc.hour)
		if !tc.posted {
			assert.Empty(fix.Channel.Posts, "hour %d", tc.hour)
		}
	}
}

func TestPostTickWindowTimezone(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	// 14:00 UTC is 10:00 in New York, inside the window even though a
	// naive UTC reading of 3:00 would not be
	fix := SchedulerTestFixture("Posting on New York time.")
	fix.Settings.Posting.Timezone = "America/New_York"
	fix.Scheduler.location = fix.Settings.Location()

	fix.Clock.Set(time.Date(2026, 8, 14, 3, 0, 0, 0, time.UTC))
	posted, err := fix.Scheduler.postTick(ctx)
	require.NoError(t, err)
	assert.False(posted)

	fix.Clock.Set(time.Date(2026, 8, 14, 14, 0, 0, 0, time.UTC))
	posted, err = fix.Scheduler.postTick(ctx)
	require.NoError(t, err)
	assert.True(posted)

	// cap accounting is keyed by the local day
	day := countstore.DayKey(fix.Clock.Now().In(fix.Scheduler.location))
	c, _ := fix.Counts.GetCount(ctx, counterPosts, day)
	assert.Equal(1, c)
}

func TestPostTickDailyCap(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	fix := SchedulerTestFixture("First post of the day.", "Second post never goes out.")
	fix.Settings.Posting.MaxPostsPerDay = 1

	posted, err := fix.Scheduler.postTick(ctx)
	require.NoError(t, err)
	assert.True(posted)

	posted, err = fix.Scheduler.postTick(ctx)
	require.NoError(t, err)
	assert.False(posted)

	assert.Len(fix.Channel.Posts, 1)
	day := countstore.DayKey(fix.Clock.Now())
	c, _ := fix.Counts.GetCount(ctx, counterPosts, day)
	assert.Equal(1, c)
}

func TestPostTickDayRollover(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	fix := SchedulerTestFixture("Morning post.", "Afternoon attempt.", "Next morning post.")
	fix.Settings.Posting.MaxPostsPerDay = 1

	fix.Clock.Set(time.Date(2026, 8, 14, 10, 0, 0, 0, time.UTC))
	posted, err := fix.Scheduler.postTick(ctx)
	require.NoError(t, err)
	assert.True(posted)

	fix.Clock.Set(time.Date(2026, 8, 14, 14, 0, 0, 0, time.UTC))
	posted, err = fix.Scheduler.postTick(ctx)
	require.NoError(t, err)
	assert.False(posted)

	// a new local day means a fresh bucket, with no reset step in between
	fix.Clock.Set(time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC))
	posted, err = fix.Scheduler.postTick(ctx)
	require.NoError(t, err)
	assert.True(posted)

	assert.Len(fix.Channel.Posts, 2)
	c, _ := fix.Counts.GetCount(ctx, counterPosts, "2026-08-15")
	assert.Equal(1, c)
}

func TestPostTickProviderFailure(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	fix := SchedulerTestFixture("Recovered once the provider came back.")
	fix.Provider.FailWith(&aiclient.Error{Provider: "openai", StatusCode: 503, Wrapped: errors.New("service unavailable")})

	posted, err := fix.Scheduler.postTick(ctx)
	require.Error(t, err)
	assert.False(posted)
	assert.Empty(fix.Channel.Posts)

	var apiErr *aiclient.Error
	assert.ErrorAs(err, &apiErr)

	// a failed attempt hands its cap slot back
	day := countstore.DayKey(fix.Clock.Now())
	c, _ := fix.Counts.GetCount(ctx, counterPosts, day)
	assert.Equal(0, c)

	fix.Provider.FailWith(nil)
	posted, err = fix.Scheduler.postTick(ctx)
	require.NoError(t, err)
	assert.True(posted)
	c, _ = fix.Counts.GetCount(ctx, counterPosts, day)
	assert.Equal(1, c)
}

func TestPostTickChannelFailure(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	fix := SchedulerTestFixture("This one bounces off the API.")
	fix.Channel.Err = errors.New("boom")

	posted, err := fix.Scheduler.postTick(ctx)
	require.Error(t, err)
	assert.False(posted)

	day := countstore.DayKey(fix.Clock.Now())
	c, _ := fix.Counts.GetCount(ctx, counterPosts, day)
	assert.Equal(0, c)
}

func TestPostNow(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	fix := SchedulerTestFixture("Manual post, window be damned.")

	// well before the window opens
	fix.Clock.Set(time.Date(2026, 8, 14, 7, 0, 0, 0, time.UTC))

	res, err := fix.Scheduler.PostNow(ctx, "release day")
	require.NoError(t, err)
	assert.NotEmpty(res.ID)
	require.Len(t, fix.Channel.Posts, 1)

	// manual posts still count toward the daily cap
	day := countstore.DayKey(fix.Clock.Now())
	c, _ := fix.Counts.GetCount(ctx, counterPosts, day)
	assert.Equal(1, c)

	reqs := fix.Provider.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(reqs[0].Prompt, "Topic: release day")
}

func TestNewSchedulerValidation(t *testing.T) {
	assert := assert.New(t)

	_, err := NewScheduler(SchedulerConfig{})
	assert.Error(err)

	bad := config.DefaultSettings()
	bad.Replies.ReplyProbability = 1.5
	fix := SchedulerTestFixture()
	_, err = NewScheduler(SchedulerConfig{
		Settings: bad,
		Pipeline: fix.Scheduler.pipeline,
		Channel:  fix.Channel,
		Source:   fix.Channel,
	})
	assert.Error(err)

	// replies enabled but nothing to read them from
	_, err = NewScheduler(SchedulerConfig{
		Settings: config.DefaultSettings(),
		Pipeline: fix.Scheduler.pipeline,
		Channel:  fix.Channel,
	})
	assert.Error(err)

	// counts, clock, and logger all default
	s, err := NewScheduler(SchedulerConfig{
		Settings: config.DefaultSettings(),
		Pipeline: fix.Scheduler.pipeline,
		Channel:  fix.Channel,
		Source:   fix.Channel,
	})
	require.NoError(t, err)
	assert.NotNil(s.counts)
	assert.NotNil(s.clock)
	assert.NotNil(s.replyLimiter)
}

func TestBaseInterval(t *testing.T) {
	assert := assert.New(t)
	fix := SchedulerTestFixture()

	// 8 hour window spread over 5 posts
	fix.Settings.Posting.PostingHours = config.PostingHours{Start: 9, End: 17}
	fix.Settings.Posting.MaxPostsPerDay = 5
	assert.Equal(96*time.Minute, fix.Scheduler.baseInterval())

	fix.Settings.Posting.MaxPostsPerDay = 0
	assert.Equal(time.Hour, fix.Scheduler.baseInterval())

	fix.Settings.Posting.MaxPostsPerDay = 5000
	assert.Equal(time.Minute, fix.Scheduler.baseInterval())
}

func TestJitterBounds(t *testing.T) {
	assert := assert.New(t)
	for i := 0; i < 200; i++ {
		d := jitter(time.Hour)
		assert.GreaterOrEqual(d, 48*time.Minute)
		assert.LessOrEqual(d, 72*time.Minute)
	}
}
