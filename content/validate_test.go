package content

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/9to5-byte/XPoster/config"
	"github.com/9to5-byte/XPoster/twitter"
)

func TestClean(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		raw string
		out string
	}{
		{raw: "plain text", out: "plain text"},
		{raw: "  padded  ", out: "padded"},
		{raw: `"quoted tweet"`, out: "quoted tweet"},
		{raw: "'single quoted'", out: "single quoted"},
		{raw: "Tweet: the actual content", out: "the actual content"},
		{raw: "REPLY: shouting prefix", out: "shouting prefix"},
		{raw: "Here's the tweet: nested one", out: "nested one"},
		{raw: `"Tweet: quoted and prefixed"`, out: "quoted and prefixed"},
		{raw: "```\nfenced content\n```", out: "fenced content"},
		{raw: "```text\nfenced with tag\n```", out: "fenced with tag"},
		{raw: "Response: ", out: ""},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.out, Clean(fix.raw))
	}
}

func TestValidateLengthBoundary(t *testing.T) {
	assert := assert.New(t)

	exact := strings.Repeat("a", 280)
	text, err := Validate(exact, 280)
	require.NoError(t, err)
	assert.Equal(exact, text)

	_, err = Validate(exact+"a", 280)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(ve.Reason, "281")

	// length counts characters, not bytes
	emoji := strings.Repeat("\U0001F680", 280)
	_, err = Validate(emoji, 280)
	require.NoError(t, err)
	_, err = Validate(emoji+"\U0001F680", 280)
	require.Error(t, err)
}

func TestValidateEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", `""`, "Tweet:", "```\n```"} {
		_, err := Validate(raw, 280)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, "raw=%q", raw)
	}
}

func TestShouldEngage(t *testing.T) {
	assert := assert.New(t)

	settings := config.DefaultSettings()
	settings.Replies.KeywordsToMonitor = []string{"AI", "golang"}
	candidate := &twitter.Tweet{ID: "1", Text: "I love AI tools"}

	settings.Replies.ReplyProbability = 1.0
	assert.True(ShouldEngage(candidate, settings, 0.999))
	assert.False(ShouldEngage(&twitter.Tweet{Text: "gardening tips"}, settings, 0.0))

	settings.Replies.ReplyProbability = 0.0
	assert.False(ShouldEngage(candidate, settings, 0.0))

	settings.Replies.ReplyProbability = 0.3
	assert.True(ShouldEngage(candidate, settings, 0.29))
	assert.False(ShouldEngage(candidate, settings, 0.3))

	// keyword match is case-insensitive substring
	assert.True(ShouldEngage(&twitter.Tweet{Text: "the GOLANG compiler"}, settings, 0.1))

	// empty keyword list matches everything
	settings.Replies.KeywordsToMonitor = nil
	assert.True(ShouldEngage(&twitter.Tweet{Text: "anything at all"}, settings, 0.1))
}

func TestShouldEngageFrequency(t *testing.T) {
	settings := config.DefaultSettings()
	settings.Replies.ReplyProbability = 0.3
	settings.Replies.KeywordsToMonitor = []string{"ai"}
	candidate := &twitter.Tweet{Text: "I love AI tools"}

	rng := rand.New(rand.NewSource(42))
	engaged := 0
	const trials = 10000
	for i := 0; i < trials; i++ {
		if ShouldEngage(candidate, settings, rng.Float64()) {
			engaged++
		}
	}
	rate := float64(engaged) / trials
	assert.InDelta(t, 0.3, rate, 0.02)
}

func TestParseIdeas(t *testing.T) {
	assert := assert.New(t)

	response := `Here are some ideas:

1. The hidden cost of microservices
2. Why code review culture matters
- Debugging war stories
* Learning in public
10. A tenth idea

Those should keep you busy.`

	ideas := parseIdeas(response)
	assert.Equal([]string{
		"The hidden cost of microservices",
		"Why code review culture matters",
		"Debugging war stories",
		"Learning in public",
		"A tenth idea",
	}, ideas)

	assert.Empty(parseIdeas("no list items in this response"))
	assert.Empty(parseIdeas(""))
}
