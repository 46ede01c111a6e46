package content

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/9to5-byte/XPoster/aiclient"
	"github.com/9to5-byte/XPoster/config"
	"github.com/9to5-byte/XPoster/style"
	"github.com/9to5-byte/XPoster/twitter"
)

func testPipeline(t *testing.T, mock *aiclient.MockClient, settings *config.Settings) *Pipeline {
	t.Helper()
	if settings == nil {
		settings = config.DefaultSettings()
	}
	profile := style.DefaultProfile(style.Metrics{AvgSentenceLength: 15})
	p, err := NewPipeline(mock, profile, settings)
	require.NoError(t, err)
	return p
}

func TestNewPipelineRequiresProfile(t *testing.T) {
	_, err := NewPipeline(aiclient.NewMockClient(), nil, config.DefaultSettings())
	require.Error(t, err)
}

func TestGenerateOriginal(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	mock := aiclient.NewMockClient(`"Tweet: Shipping a new feature today and it feels great."`)
	p := testPipeline(t, mock, nil)

	out, err := p.GenerateOriginal(ctx, "shipping software")
	require.NoError(t, err)
	assert.Equal("Shipping a new feature today and it feels great.", out.Text)
	assert.Equal("shipping software", out.Topic)
	assert.Equal(SourceOriginal, out.Source)
	assert.Empty(out.InReplyTo)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(reqs[0].Prompt, "max 280 characters")
	assert.Contains(reqs[0].Prompt, "Writing style requirements: Tone: neutral")
	assert.Contains(reqs[0].Prompt, "Topic: shipping software")
	assert.Contains(reqs[0].Prompt, "Return ONLY the tweet text")
	assert.InDelta(0.8, reqs[0].Temperature, 0.001)
	assert.Equal(100, reqs[0].MaxTokens)
}

func TestGenerateOriginalPreferences(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	settings := config.DefaultSettings()
	settings.Content.IncludeHashtags = true
	settings.Content.MaxHashtags = 2
	settings.Content.IncludeEmojis = true

	mock := aiclient.NewMockClient("A fine tweet #build")
	profile := style.DefaultProfile(style.Metrics{EmojiFrequency: 0.8})
	p, err := NewPipeline(mock, profile, settings)
	require.NoError(t, err)

	_, err = p.GenerateOriginal(ctx, "building")
	require.NoError(t, err)

	prompt := mock.Requests()[0].Prompt
	assert.Contains(prompt, "Include up to 2 relevant hashtags")
	assert.Contains(prompt, "Include emojis where they feel natural")
}

func TestGenerateOriginalTopicFromConfig(t *testing.T) {
	assert := assert.New(t)

	settings := config.DefaultSettings()
	settings.Content.Topics = []string{"open source"}

	mock := aiclient.NewMockClient("Open source is a gift economy.")
	p := testPipeline(t, mock, settings)

	out, err := p.GenerateOriginal(context.Background(), "")
	require.NoError(t, err)
	assert.Equal("open source", out.Topic)

	// configured topics never hit the ideas endpoint
	require.Len(t, mock.Requests(), 1)
	assert.Contains(mock.Requests()[0].Prompt, "Topic: open source")
}

func TestGenerateOriginalTopicFromIdeas(t *testing.T) {
	assert := assert.New(t)

	mock := aiclient.NewMockClient(
		"1. The joy of deleting code\n2. Toolchains",
		"Deleted 2k lines today. Best feeling in software.",
	)
	p := testPipeline(t, mock, nil)

	out, err := p.GenerateOriginal(context.Background(), "")
	require.NoError(t, err)
	assert.Equal("The joy of deleting code", out.Topic)

	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	assert.Contains(reqs[0].Prompt, "topic ideas")
	assert.InDelta(0.9, reqs[0].Temperature, 0.001)
	assert.Equal(300, reqs[0].MaxTokens)
	assert.Contains(reqs[1].Prompt, "Topic: The joy of deleting code")
}

func TestGenerateOriginalTopicFallback(t *testing.T) {
	assert := assert.New(t)

	// ideas response has no parseable list, so the static fallback kicks in
	mock := aiclient.NewMockClient(
		"I cannot think of anything today.",
		"Something generic but valid.",
	)
	p := testPipeline(t, mock, nil)

	out, err := p.GenerateOriginal(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(fallbackTopics, out.Topic)
}

func TestGenerateOriginalProviderError(t *testing.T) {
	mock := aiclient.NewMockClient()
	mock.FailWith(&aiclient.Error{Provider: "openai", StatusCode: 503})
	p := testPipeline(t, mock, nil)

	_, err := p.GenerateOriginal(context.Background(), "anything")
	require.Error(t, err)
	var pe *aiclient.Error
	require.ErrorAs(t, err, &pe)
	assert.True(t, pe.IsUnavailable())
}

func TestGenerateOriginalRejectsOverlong(t *testing.T) {
	mock := aiclient.NewMockClient(strings.Repeat("x", 500))
	p := testPipeline(t, mock, nil)

	_, err := p.GenerateOriginal(context.Background(), "anything")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestGenerateReply(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	mock := aiclient.NewMockClient("Reply: Couldn't agree more about test coverage.")
	p := testPipeline(t, mock, nil)

	candidate := &twitter.Tweet{
		ID:           "9001",
		Text:         "Hot take: tests are documentation.",
		AuthorID:     "42",
		AuthorHandle: "curious",
	}
	out, err := p.GenerateReply(ctx, candidate)
	require.NoError(t, err)
	assert.Equal("Couldn't agree more about test coverage.", out.Text)
	assert.Equal(SourceReply, out.Source)
	assert.Equal("9001", out.InReplyTo)

	prompt := mock.Requests()[0].Prompt
	assert.Contains(prompt, "Original tweet: Hot take: tests are documentation.")
	assert.Contains(prompt, "Replying to: @curious")
	assert.Contains(prompt, "Be max 280 characters")
	assert.Contains(prompt, "Return ONLY the reply text")
}

func TestGenerateIdeasUsesProfileTopics(t *testing.T) {
	assert := assert.New(t)

	mock := aiclient.NewMockClient("1. One\n2. Two\n3. Three\n4. Four")
	settings := config.DefaultSettings()
	profile := style.DefaultProfile(style.Metrics{})
	profile.TopicsOfInterest = []string{"compilers", "coffee"}
	p, err := NewPipeline(mock, profile, settings)
	require.NoError(t, err)

	ideas, err := p.GenerateIdeas(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal([]string{"One", "Two", "Three"}, ideas)
	assert.Contains(mock.Requests()[0].Prompt, "Preferred topics: compilers, coffee")
}
