package automation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunNothingEnabled(t *testing.T) {
	assert := assert.New(t)
	fix := SchedulerTestFixture()
	fix.Settings.Posting.Enabled = false
	fix.Settings.Replies.Enabled = false

	assert.NoError(fix.Scheduler.Run(context.Background()))
}

func TestRunStopsOnCancel(t *testing.T) {
	fix := SchedulerTestFixture("Never gets a chance.")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fix.Scheduler.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

func TestMentionCursorWithoutRedis(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	fix := SchedulerTestFixture()

	// no redis configured: reads come back empty, writes are dropped
	cursor, err := fix.Scheduler.readMentionCursor(ctx)
	require.NoError(t, err)
	assert.Empty(cursor)
	fix.Scheduler.persistMentionCursor(ctx, "12345")
}

func TestTrackDay(t *testing.T) {
	assert := assert.New(t)
	fix := SchedulerTestFixture()

	fix.Scheduler.trackDay("2026-08-14")
	fix.Scheduler.trackDay("2026-08-14")
	fix.Scheduler.trackDay("2026-08-15")
	fix.Scheduler.mu.Lock()
	defer fix.Scheduler.mu.Unlock()
	assert.Equal("2026-08-15", fix.Scheduler.lastDay)
}
