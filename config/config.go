package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the behavioral configuration, loaded once at startup from a
// YAML file. Credentials never live here; they arrive through CLI flags and
// environment variables. Settings are immutable for the process lifetime, so
// changing them requires a restart.
type Settings struct {
	Posting PostingSettings `yaml:"posting"`
	Replies ReplySettings   `yaml:"replies"`
	Content ContentSettings `yaml:"content_generation"`
}

type PostingSettings struct {
	Enabled        bool         `yaml:"enabled"`
	MaxPostsPerDay int          `yaml:"max_posts_per_day"`
	PostingHours   PostingHours `yaml:"posting_hours"`
	// IANA name, eg "America/New_York". Empty means UTC.
	Timezone string `yaml:"timezone"`
}

// PostingHours is the daily local-time window during which automated
// original posts are allowed. Start is inclusive, End exclusive.
type PostingHours struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

type ReplySettings struct {
	Enabled              bool     `yaml:"enabled"`
	CheckIntervalMinutes int      `yaml:"check_interval_minutes"`
	MaxRepliesPerCheck   int      `yaml:"max_replies_per_check"`
	MaxRepliesPerHour    int      `yaml:"max_replies_per_hour"`
	ReplyProbability     float64  `yaml:"reply_probability"`
	KeywordsToMonitor    []string `yaml:"keywords_to_monitor"`
	// Replies have independent accounting by default; flipping this makes
	// them consume the daily post cap.
	CountTowardDailyCap bool `yaml:"count_toward_daily_cap"`
	// Skip candidates the history store has already answered. Only
	// effective when a database is configured.
	SkipAlreadyReplied bool `yaml:"skip_already_replied"`
}

type ContentSettings struct {
	Temperature     float64  `yaml:"temperature"`
	MaxLength       int      `yaml:"max_length"`
	IncludeHashtags bool     `yaml:"include_hashtags"`
	MaxHashtags     int      `yaml:"max_hashtags"`
	IncludeEmojis   bool     `yaml:"include_emojis"`
	Topics          []string `yaml:"topics"`
}

func DefaultSettings() *Settings {
	return &Settings{
		Posting: PostingSettings{
			Enabled:        true,
			MaxPostsPerDay: 10,
			PostingHours:   PostingHours{Start: 9, End: 21},
			Timezone:       "UTC",
		},
		Replies: ReplySettings{
			Enabled:              true,
			CheckIntervalMinutes: 30,
			MaxRepliesPerCheck:   5,
			MaxRepliesPerHour:    10,
			ReplyProbability:     0.3,
			SkipAlreadyReplied:   true,
		},
		Content: ContentSettings{
			Temperature: 0.8,
			MaxLength:   280,
			MaxHashtags: 3,
		},
	}
}

// LoadSettings reads a settings YAML from path, overlaying it on defaults. A
// missing file is not an error: the defaults are used and a warning logged,
// matching how an unconfigured install behaves.
func LoadSettings(path string) (*Settings, error) {
	settings := DefaultSettings()
	if path == "" {
		return settings, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("settings file not found, using defaults", "path", path)
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	if err := yaml.Unmarshal(raw, settings); err != nil {
		return nil, fmt.Errorf("parsing settings: %w", err)
	}
	settings.normalize()
	return settings, nil
}

func (s *Settings) normalize() {
	if s.Posting.Timezone == "" {
		s.Posting.Timezone = "UTC"
	}
	s.Replies.KeywordsToMonitor = cleanList(s.Replies.KeywordsToMonitor)
	s.Content.Topics = cleanList(s.Content.Topics)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Validate checks schedule and generation constraints. Any error here is
// fatal at startup; the process must not start activities with a malformed
// schedule.
func (s *Settings) Validate() error {
	p := s.Posting
	if p.MaxPostsPerDay < 0 {
		return fmt.Errorf("posting.max_posts_per_day must be >= 0, got %d", p.MaxPostsPerDay)
	}
	if p.PostingHours.Start < 0 || p.PostingHours.Start > 23 {
		return fmt.Errorf("posting_hours.start out of range: %d", p.PostingHours.Start)
	}
	if p.PostingHours.End < 0 || p.PostingHours.End > 23 {
		return fmt.Errorf("posting_hours.end out of range: %d", p.PostingHours.End)
	}
	if p.PostingHours.Start >= p.PostingHours.End {
		return fmt.Errorf("posting_hours.start (%d) must be before posting_hours.end (%d)", p.PostingHours.Start, p.PostingHours.End)
	}
	if _, err := time.LoadLocation(p.Timezone); err != nil {
		return fmt.Errorf("invalid posting.timezone %q: %w", p.Timezone, err)
	}

	r := s.Replies
	if r.CheckIntervalMinutes <= 0 {
		return fmt.Errorf("replies.check_interval_minutes must be > 0, got %d", r.CheckIntervalMinutes)
	}
	if r.MaxRepliesPerCheck < 0 {
		return fmt.Errorf("replies.max_replies_per_check must be >= 0, got %d", r.MaxRepliesPerCheck)
	}
	if r.MaxRepliesPerHour < 0 {
		return fmt.Errorf("replies.max_replies_per_hour must be >= 0, got %d", r.MaxRepliesPerHour)
	}
	if r.ReplyProbability < 0 || r.ReplyProbability > 1 {
		return fmt.Errorf("replies.reply_probability must be within [0,1], got %f", r.ReplyProbability)
	}

	c := s.Content
	if c.MaxLength <= 0 {
		return fmt.Errorf("content_generation.max_length must be > 0, got %d", c.MaxLength)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("content_generation.temperature must be within [0,2], got %f", c.Temperature)
	}
	if c.MaxHashtags < 0 {
		return fmt.Errorf("content_generation.max_hashtags must be >= 0, got %d", c.MaxHashtags)
	}
	return nil
}

// Location resolves the configured timezone. Call Validate first; this
// panics on a timezone Validate would have rejected.
func (s *Settings) Location() *time.Location {
	loc, err := time.LoadLocation(s.Posting.Timezone)
	if err != nil {
		panic(fmt.Sprintf("unvalidated timezone %q: %v", s.Posting.Timezone, err))
	}
	return loc
}

// CheckInterval is the monitoring cadence as a duration.
func (s *Settings) CheckInterval() time.Duration {
	return time.Duration(s.Replies.CheckIntervalMinutes) * time.Minute
}
