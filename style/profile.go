// Package style learns a writing voice from sample documents and renders it
// as prompt guidance for content generation.
//
// The descriptive half of a profile comes from a provider analysis of the
// samples; the numeric half is measured locally and survives provider
// outages, so training always yields a usable profile.
package style

import (
	"strings"
	"time"
)

// Profile captures the voice extracted from writing samples.
type Profile struct {
	Tone                string   `json:"tone"`
	Voice               string   `json:"voice"`
	VocabularyLevel     string   `json:"vocabulary_level"`
	SentenceStyle       string   `json:"sentence_style"`
	PunctuationPatterns []string `json:"punctuation_patterns"`
	EmojiUsage          string   `json:"emoji_usage"`
	HashtagStyle        string   `json:"hashtag_style"`
	CommonPhrases       []string `json:"common_phrases"`
	PersonalityTraits   []string `json:"personality_traits"`
	TopicsOfInterest    []string `json:"topics_of_interest"`
	WritingQuirks       []string `json:"writing_quirks"`

	Metrics Metrics `json:"metrics"`

	AnalyzedAt  time.Time `json:"analyzed_at"`
	SampleCount int       `json:"sample_count"`
}

// Metrics are the locally measured style numbers. Frequencies are per
// sample, not per word.
type Metrics struct {
	AvgSentenceLength    float64 `json:"avg_sentence_length"`
	AvgWordLength        float64 `json:"avg_word_length"`
	EmojiFrequency       float64 `json:"emoji_frequency"`
	HashtagFrequency     float64 `json:"hashtag_frequency"`
	ExclamationFrequency float64 `json:"exclamation_frequency"`
	QuestionFrequency    float64 `json:"question_frequency"`
	DistinctTokenRatio   float64 `json:"distinct_token_ratio"`
}

// PromptHints renders the profile as the style preamble for generation
// prompts. A nil profile yields generic guidance so generation never blocks
// on training.
func (p *Profile) PromptHints() string {
	if p == nil {
		return "Write in a natural, conversational style."
	}

	var parts []string
	parts = append(parts, "Tone: "+orDefault(p.Tone, "neutral"))
	parts = append(parts, "Voice: "+orDefault(p.Voice, "conversational"))
	parts = append(parts, "Vocabulary: "+orDefault(p.VocabularyLevel, "moderate"))

	if len(p.PersonalityTraits) > 0 {
		parts = append(parts, "Personality: "+strings.Join(p.PersonalityTraits, ", "))
	}
	if len(p.CommonPhrases) > 0 {
		phrases := p.CommonPhrases
		if len(phrases) > 3 {
			phrases = phrases[:3]
		}
		parts = append(parts, "Common phrases: "+strings.Join(phrases, ", "))
	}

	if p.Metrics.AvgSentenceLength > 0 && p.Metrics.AvgSentenceLength < 10 {
		parts = append(parts, "Use short, punchy sentences")
	} else if p.Metrics.AvgSentenceLength > 20 {
		parts = append(parts, "Use longer, more detailed sentences")
	}
	if p.Metrics.EmojiFrequency > 0.5 {
		parts = append(parts, "Include emojis occasionally")
	}
	if p.Metrics.HashtagFrequency > 0.2 {
		parts = append(parts, "Use relevant hashtags")
	}

	return strings.Join(parts, ". ") + "."
}

// UsesEmoji reports whether generation should offer emoji at all.
func (p *Profile) UsesEmoji() bool {
	return p != nil && p.Metrics.EmojiFrequency > 0.5
}

// DefaultProfile is the fallback when provider analysis is unavailable. Only
// the measured fields carry real signal.
func DefaultProfile(m Metrics) *Profile {
	emoji := "rare"
	if m.EmojiFrequency > 0.5 {
		emoji = "moderate"
	}
	hashtags := "none"
	if m.HashtagFrequency > 0.2 {
		hashtags = "occasional"
	}
	return &Profile{
		Tone:                "neutral",
		Voice:               "conversational",
		VocabularyLevel:     "moderate",
		SentenceStyle:       "varied",
		PunctuationPatterns: []string{"standard"},
		EmojiUsage:          emoji,
		HashtagStyle:        hashtags,
		PersonalityTraits:   []string{"informative"},
		Metrics:             m,
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
