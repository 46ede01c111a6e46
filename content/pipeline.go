// Package content turns topics and candidate tweets into validated, on-voice
// post text. Nothing leaves this package unvalidated: callers hand the
// returned text straight to the posting channel.
package content

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/9to5-byte/XPoster/aiclient"
	"github.com/9to5-byte/XPoster/config"
	"github.com/9to5-byte/XPoster/style"
	"github.com/9to5-byte/XPoster/twitter"
)

const (
	// Provider token budgets. Posts and replies are short; ideas get room
	// for a whole list.
	tweetMaxTokens = 100
	ideasMaxTokens = 300

	ideasTemperature = 0.9
)

type Source string

const (
	SourceOriginal Source = "original"
	SourceReply    Source = "reply"
)

// Generated is one piece of validated post text, consumed once by the
// scheduler and then discarded.
type Generated struct {
	Text      string
	Topic     string
	Source    Source
	InReplyTo string
}

// Pipeline builds style-conditioned prompts, calls the provider, and
// validates what comes back. It is stateless between calls; retry policy
// belongs to the scheduler's next tick.
type Pipeline struct {
	provider aiclient.Client
	profile  *style.Profile
	settings *config.Settings
	logger   *slog.Logger
}

func NewPipeline(provider aiclient.Client, profile *style.Profile, settings *config.Settings) (*Pipeline, error) {
	if profile == nil {
		return nil, fmt.Errorf("content pipeline requires a style profile; train one first")
	}
	return &Pipeline{
		provider: provider,
		profile:  profile,
		settings: settings,
		logger:   slog.Default().With("subsystem", "content"),
	}, nil
}

// GenerateOriginal produces a validated post. An empty topic is synthesized
// from the configured topic list, provider-suggested ideas, or a generic
// fallback, in that order.
func (p *Pipeline) GenerateOriginal(ctx context.Context, topic string) (*Generated, error) {
	if topic == "" {
		topic = p.pickTopic(ctx)
	}

	raw, err := p.provider.Generate(ctx, &aiclient.GenerateRequest{
		Prompt:      p.originalPrompt(topic),
		Temperature: p.settings.Content.Temperature,
		MaxTokens:   tweetMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("generating post: %w", err)
	}

	text, err := Validate(raw, p.settings.Content.MaxLength)
	if err != nil {
		return nil, err
	}

	p.logger.Info("generated post", "topic", topic, "preview", Preview(text))
	return &Generated{Text: text, Topic: topic, Source: SourceOriginal}, nil
}

// GenerateReply produces a validated reply threaded to the candidate tweet.
func (p *Pipeline) GenerateReply(ctx context.Context, candidate *twitter.Tweet) (*Generated, error) {
	raw, err := p.provider.Generate(ctx, &aiclient.GenerateRequest{
		Prompt:      p.replyPrompt(candidate),
		Temperature: p.settings.Content.Temperature,
		MaxTokens:   tweetMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("generating reply: %w", err)
	}

	text, err := Validate(raw, p.settings.Content.MaxLength)
	if err != nil {
		return nil, err
	}

	p.logger.Info("generated reply", "inReplyTo", candidate.ID, "preview", Preview(text))
	return &Generated{Text: text, Source: SourceReply, InReplyTo: candidate.ID}, nil
}

func (p *Pipeline) originalPrompt(topic string) string {
	parts := []string{
		fmt.Sprintf("Generate a single tweet (max %d characters) that sounds natural and authentic.", p.settings.Content.MaxLength),
		"\nWriting style requirements: " + p.profile.PromptHints(),
	}
	if topic != "" {
		parts = append(parts, "\nTopic: "+topic)
	}
	if p.settings.Content.IncludeHashtags {
		parts = append(parts, fmt.Sprintf("\nInclude up to %d relevant hashtags if appropriate.", p.settings.Content.MaxHashtags))
	}
	if p.settings.Content.IncludeEmojis && p.profile.UsesEmoji() {
		parts = append(parts, "\nInclude emojis where they feel natural.")
	}
	parts = append(parts, "\nIMPORTANT: Return ONLY the tweet text, nothing else. No quotes, no explanations.")
	return strings.Join(parts, "\n")
}

func (p *Pipeline) replyPrompt(candidate *twitter.Tweet) string {
	parts := []string{
		"Generate a thoughtful and engaging reply to the following tweet.",
		"\nOriginal tweet: " + candidate.Text,
	}
	if candidate.AuthorHandle != "" {
		parts = append(parts, "\nReplying to: @"+candidate.AuthorHandle)
	}
	parts = append(parts,
		"\nWriting style requirements: "+p.profile.PromptHints(),
		"\nThe reply should:",
		"- Be relevant and add value to the conversation",
		"- Sound natural and authentic",
		fmt.Sprintf("- Be max %d characters", p.settings.Content.MaxLength),
		"- Not be overly promotional or spammy",
		"\nIMPORTANT: Return ONLY the reply text, nothing else. No quotes, no explanations.",
	)
	return strings.Join(parts, "\n")
}

var fallbackTopics = []string{
	"innovation and the future of technology",
	"lessons learned from building software",
	"an interesting engineering problem",
	"something worth learning this week",
}

func (p *Pipeline) pickTopic(ctx context.Context) string {
	if topics := p.settings.Content.Topics; len(topics) > 0 {
		return topics[rand.Intn(len(topics))]
	}

	ideas, err := p.GenerateIdeas(ctx, 3)
	if err != nil {
		p.logger.Warn("topic synthesis failed, using fallback topic", "err", err)
	}
	if len(ideas) > 0 {
		return ideas[0]
	}
	return fallbackTopics[rand.Intn(len(fallbackTopics))]
}
