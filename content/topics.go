package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/9to5-byte/XPoster/aiclient"
)

// GenerateIdeas asks the provider for tweet topic ideas and parses the
// numbered or bulleted lines out of the response.
func (p *Pipeline) GenerateIdeas(ctx context.Context, count int) ([]string, error) {
	parts := []string{
		fmt.Sprintf("Generate %d interesting and engaging tweet topic ideas.", count),
	}
	if topics := p.profile.TopicsOfInterest; len(topics) > 0 {
		if len(topics) > 5 {
			topics = topics[:5]
		}
		parts = append(parts, "\nPreferred topics: "+strings.Join(topics, ", "))
	}
	parts = append(parts,
		"\nProvide diverse topics that would make for engaging tweets.",
		"Return as a numbered list, one topic per line.",
	)

	resp, err := p.provider.Generate(ctx, &aiclient.GenerateRequest{
		Prompt:      strings.Join(parts, "\n"),
		Temperature: ideasTemperature,
		MaxTokens:   ideasMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("generating topic ideas: %w", err)
	}

	ideas := parseIdeas(resp)
	if len(ideas) > count {
		ideas = ideas[:count]
	}
	p.logger.Info("generated topic ideas", "count", len(ideas))
	return ideas, nil
}

// parseIdeas keeps lines that look like list items ("1. foo", "- foo",
// "* foo") and strips the list markers.
func parseIdeas(response string) []string {
	var ideas []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.ContainsAny(line[:1], "0123456789-*") {
			continue
		}
		idea := strings.TrimSpace(strings.TrimLeft(line, "0123456789.-* "))
		if idea != "" {
			ideas = append(ideas, idea)
		}
	}
	return ideas
}
