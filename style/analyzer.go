package style

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/9to5-byte/XPoster/aiclient"
	"github.com/9to5-byte/XPoster/keyword"
)

const (
	analysisSystem      = "You are an expert writing style analyzer. Provide detailed, accurate analysis in the requested format."
	analysisTemperature = 0.3
	analysisMaxTokens   = 2000

	// Keeping the analysis request bounded: at most this many samples, and
	// at most this many characters of combined text.
	maxAnalysisSamples = 10
	maxAnalysisChars   = 8000
)

const analysisPrompt = `Analyze the following writing samples and extract detailed style characteristics. Focus on:

1. Tone and voice (formal, casual, humorous, serious, etc.)
2. Vocabulary level and word choice patterns
3. Sentence structure (short/long sentences, complexity)
4. Punctuation style
5. Use of emojis, if any
6. Use of hashtags and their style
7. Common phrases or expressions
8. Writing rhythm and flow
9. Topic preferences
10. Personality traits evident in writing

Writing samples:
%s

Provide a detailed JSON analysis with the following structure:
{
    "tone": "description of overall tone",
    "voice": "description of voice characteristics",
    "vocabulary_level": "simple/moderate/advanced",
    "sentence_style": "description of sentence patterns",
    "punctuation_patterns": ["pattern1", "pattern2"],
    "emoji_usage": "none/rare/moderate/frequent",
    "hashtag_style": "description or none",
    "common_phrases": ["phrase1", "phrase2"],
    "personality_traits": ["trait1", "trait2"],
    "topics_of_interest": ["topic1", "topic2"],
    "writing_quirks": ["quirk1", "quirk2"]
}`

// Analyzer extracts a style profile from writing samples.
type Analyzer struct {
	provider aiclient.Client
	logger   *slog.Logger
}

func NewAnalyzer(provider aiclient.Client) *Analyzer {
	return &Analyzer{
		provider: provider,
		logger:   slog.Default().With("subsystem", "style"),
	}
}

// Analyze builds a profile from the given samples. Provider failure is not
// fatal; the measured metrics back a default profile instead.
func (a *Analyzer) Analyze(ctx context.Context, samples []string) (*Profile, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no writing samples to analyze")
	}
	a.logger.Info("analyzing writing samples", "count", len(samples))

	metrics := MeasureSamples(samples)

	use := samples
	if len(use) > maxAnalysisSamples {
		use = use[:maxAnalysisSamples]
	}
	combined := strings.Join(use, "\n\n---\n\n")
	if r := []rune(combined); len(r) > maxAnalysisChars {
		combined = string(r[:maxAnalysisChars])
	}

	resp, err := a.provider.Generate(ctx, &aiclient.GenerateRequest{
		Prompt:      fmt.Sprintf(analysisPrompt, combined),
		System:      analysisSystem,
		Temperature: analysisTemperature,
		MaxTokens:   analysisMaxTokens,
	})
	if err != nil {
		a.logger.Warn("provider analysis failed, using measured profile", "err", err)
		return a.fallback(metrics, len(samples)), nil
	}

	var p Profile
	raw := extractJSON(resp)
	if raw == "" || json.Unmarshal([]byte(raw), &p) != nil {
		a.logger.Warn("could not extract style analysis from provider response")
		return a.fallback(metrics, len(samples)), nil
	}

	p.Metrics = metrics
	p.AnalyzedAt = time.Now()
	p.SampleCount = len(samples)
	a.logger.Info("style analysis complete", "tone", p.Tone, "vocabulary", p.VocabularyLevel)
	return &p, nil
}

func (a *Analyzer) fallback(m Metrics, sampleCount int) *Profile {
	p := DefaultProfile(m)
	p.AnalyzedAt = time.Now()
	p.SampleCount = sampleCount
	return p
}

// extractJSON returns the first balanced JSON object in text, or "". Models
// tend to wrap the object in prose or fences despite instructions.
func extractJSON(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

var (
	hashtagPattern = regexp.MustCompile(`#\w+`)
	wordPattern    = regexp.MustCompile(`\b\w+\b`)
	sentenceSplit  = regexp.MustCompile(`[.!?]+`)
)

// MeasureSamples computes the quantitative style metrics across all samples.
func MeasureSamples(samples []string) Metrics {
	if len(samples) == 0 {
		return Metrics{}
	}
	total := strings.Join(samples, " ")
	n := float64(len(samples))

	m := Metrics{
		AvgSentenceLength:    avgSentenceLength(total),
		AvgWordLength:        avgWordLength(total),
		EmojiFrequency:       float64(countEmoji(total)) / n,
		HashtagFrequency:     float64(len(hashtagPattern.FindAllString(total, -1))) / n,
		ExclamationFrequency: float64(strings.Count(total, "!")) / n,
		QuestionFrequency:    float64(strings.Count(total, "?")) / n,
	}

	tokens := keyword.TokenizeText(total)
	if len(tokens) > 0 {
		distinct := make(map[string]bool, len(tokens))
		for _, tok := range tokens {
			distinct[tok] = true
		}
		m.DistinctTokenRatio = float64(len(distinct)) / float64(len(tokens))
	}
	return m
}

func avgSentenceLength(text string) float64 {
	var sentences, words int
	for _, s := range sentenceSplit.Split(text, -1) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		sentences++
		words += len(strings.Fields(s))
	}
	if sentences == 0 {
		return 0
	}
	return float64(words) / float64(sentences)
}

func avgWordLength(text string) float64 {
	words := wordPattern.FindAllString(text, -1)
	if len(words) == 0 {
		return 0
	}
	var chars int
	for _, w := range words {
		chars += len([]rune(w))
	}
	return float64(chars) / float64(len(words))
}

func countEmoji(text string) int {
	n := 0
	for _, r := range text {
		switch {
		case r >= 0x1F300 && r <= 0x1F5FF, // symbols and pictographs
			r >= 0x1F600 && r <= 0x1F64F, // emoticons
			r >= 0x1F680 && r <= 0x1F6FF: // transport and map
			n++
		}
	}
	return n
}
