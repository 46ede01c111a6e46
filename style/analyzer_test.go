package style

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/9to5-byte/XPoster/aiclient"
)

var testSamples = []string{
	"Short one. Another short!",
	"What? Yes! \U0001F680 #go #golang",
}

func TestMeasureSamples(t *testing.T) {
	assert := assert.New(t)

	m := MeasureSamples(testSamples)
	assert.InDelta(1.8, m.AvgSentenceLength, 0.001)
	assert.InDelta(4.375, m.AvgWordLength, 0.001)
	assert.InDelta(0.5, m.EmojiFrequency, 0.001)
	assert.InDelta(1.0, m.HashtagFrequency, 0.001)
	assert.InDelta(1.0, m.ExclamationFrequency, 0.001)
	assert.InDelta(0.5, m.QuestionFrequency, 0.001)
	assert.InDelta(0.875, m.DistinctTokenRatio, 0.001)

	assert.Equal(Metrics{}, MeasureSamples(nil))
}

func TestExtractJSON(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		text string
		out  string
	}{
		{
			text: `{"tone": "dry"}`,
			out:  `{"tone": "dry"}`,
		},
		{
			text: "Here is the analysis:\n```json\n{\"tone\": \"dry\"}\n```\nDone.",
			out:  `{"tone": "dry"}`,
		},
		{
			text: `prefix {"a": {"b": "c"}, "d": "}"} suffix`,
			out:  `{"a": {"b": "c"}, "d": "}"}`,
		},
		{
			text: `{"quote": "a \"b\" {c}"}`,
			out:  `{"quote": "a \"b\" {c}"}`,
		},
		{
			text: "no json here",
			out:  "",
		},
		{
			text: `{"never": "closed"`,
			out:  "",
		},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.out, extractJSON(fix.text))
	}
}

func TestAnalyze(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	mock := aiclient.NewMockClient(`Here's my analysis:

{"tone": "enthusiastic", "voice": "first-person builder", "vocabulary_level": "advanced", "sentence_style": "short bursts", "punctuation_patterns": ["ellipsis"], "emoji_usage": "rare", "hashtag_style": "none", "common_phrases": ["ship it"], "personality_traits": ["curious", "direct"], "topics_of_interest": ["distributed systems"], "writing_quirks": ["lowercase openers"]}

Hope that helps!`)

	p, err := NewAnalyzer(mock).Analyze(ctx, testSamples)
	require.NoError(t, err)
	assert.Equal("enthusiastic", p.Tone)
	assert.Equal("advanced", p.VocabularyLevel)
	assert.Equal([]string{"ship it"}, p.CommonPhrases)
	assert.Equal(2, p.SampleCount)
	assert.False(p.AnalyzedAt.IsZero())
	assert.InDelta(0.5, p.Metrics.EmojiFrequency, 0.001)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(reqs[0].Prompt, "Writing samples:")
	assert.Contains(reqs[0].Prompt, testSamples[0])
	assert.Contains(reqs[0].System, "writing style analyzer")
	assert.InDelta(0.3, reqs[0].Temperature, 0.001)
	assert.Equal(2000, reqs[0].MaxTokens)
}

func TestAnalyzeProviderFailure(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	mock := aiclient.NewMockClient()
	mock.FailWith(fmt.Errorf("provider down"))

	p, err := NewAnalyzer(mock).Analyze(ctx, testSamples)
	require.NoError(t, err)
	assert.Equal("neutral", p.Tone)
	assert.Equal("conversational", p.Voice)
	assert.Equal(2, p.SampleCount)
	assert.InDelta(1.0, p.Metrics.HashtagFrequency, 0.001)
}

func TestAnalyzeUnparseableResponse(t *testing.T) {
	assert := assert.New(t)

	mock := aiclient.NewMockClient("I would describe this style as breezy.")
	p, err := NewAnalyzer(mock).Analyze(context.Background(), testSamples)
	require.NoError(t, err)
	assert.Equal("neutral", p.Tone)
}

func TestAnalyzeNoSamples(t *testing.T) {
	_, err := NewAnalyzer(aiclient.NewMockClient()).Analyze(context.Background(), nil)
	require.Error(t, err)
}

func TestPromptHints(t *testing.T) {
	assert := assert.New(t)

	var nilProfile *Profile
	assert.Equal("Write in a natural, conversational style.", nilProfile.PromptHints())

	p := &Profile{
		Tone:              "wry",
		Voice:             "first person",
		VocabularyLevel:   "advanced",
		PersonalityTraits: []string{"curious", "direct"},
		CommonPhrases:     []string{"ship it", "turns out", "in practice", "fwiw"},
		Metrics: Metrics{
			AvgSentenceLength: 8,
			EmojiFrequency:    0.7,
			HashtagFrequency:  0.5,
		},
	}
	hints := p.PromptHints()
	assert.Contains(hints, "Tone: wry")
	assert.Contains(hints, "Personality: curious, direct")
	assert.Contains(hints, "Common phrases: ship it, turns out, in practice")
	assert.NotContains(hints, "fwiw")
	assert.Contains(hints, "short, punchy sentences")
	assert.Contains(hints, "Include emojis occasionally")
	assert.Contains(hints, "Use relevant hashtags")
	assert.True(p.UsesEmoji())

	plain := &Profile{Metrics: Metrics{AvgSentenceLength: 15}}
	hints = plain.PromptHints()
	assert.Contains(hints, "Tone: neutral")
	assert.NotContains(hints, "sentences")
	assert.NotContains(hints, "emojis")
	assert.False(plain.UsesEmoji())
}

func TestDefaultProfile(t *testing.T) {
	assert := assert.New(t)

	p := DefaultProfile(Metrics{EmojiFrequency: 0.8, HashtagFrequency: 0.1})
	assert.Equal("moderate", p.EmojiUsage)
	assert.Equal("none", p.HashtagStyle)

	p = DefaultProfile(Metrics{EmojiFrequency: 0.1, HashtagFrequency: 0.4})
	assert.Equal("rare", p.EmojiUsage)
	assert.Equal("occasional", p.HashtagStyle)
}
