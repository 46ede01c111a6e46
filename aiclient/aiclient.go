// Package aiclient wraps the language-model provider APIs (OpenAI and
// Anthropic) behind a single Client interface. The provider is selected once
// at startup from configuration; callers never branch on provider identity.
package aiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/9to5-byte/XPoster/pkg/robusthttp"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	// Applied when a request does not set MaxTokens.
	defaultMaxTokens = 500

	// Outbound request pacing when the config does not set one.
	defaultRequestsPerSecond = 1.0
)

// ErrInvalidResponse marks a provider reply that was syntactically or
// semantically unusable (undecodable body, no completion text).
var ErrInvalidResponse = errors.New("invalid provider response")

// GenerateRequest carries one generation call. Temperature zero is sent as
// "provider default", matching how the prompt builders always set it
// explicitly.
type GenerateRequest struct {
	Prompt      string
	System      string
	Temperature float64
	MaxTokens   int
}

// Client generates text from a language-model provider.
type Client interface {
	Generate(ctx context.Context, req *GenerateRequest) (string, error)
}

// Config selects and parameterizes a provider client. APIKey is passed
// through to the provider and never logged.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	// Host overrides the provider endpoint, mainly for tests.
	Host string
	// Client overrides the HTTP client; defaults to robusthttp.NewClient.
	Client *http.Client
	// RequestsPerSecond bounds outbound request rate; zero means default.
	RequestsPerSecond float64
}

// New selects the provider implementation from cfg.Provider.
func New(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		return NewOpenAI(cfg), nil
	case ProviderAnthropic:
		return NewAnthropic(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %q", cfg.Provider)
	}
}

func (cfg *Config) httpClient() *http.Client {
	if cfg.Client != nil {
		return cfg.Client
	}
	return robusthttp.NewClient()
}

func (cfg *Config) newLimiter() *rate.Limiter {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// Error is the typed failure for provider calls. StatusCode zero means the
// request never produced an HTTP response (transport or decode failure).
type Error struct {
	Provider   string
	StatusCode int
	Wrapped    error
	Ratelimit  *RatelimitInfo
}

func (e *Error) Error() string {
	if e.Wrapped == nil {
		return fmt.Sprintf("%s provider error %d", e.Provider, e.StatusCode)
	}
	if e.StatusCode == http.StatusTooManyRequests && e.Ratelimit != nil && !e.Ratelimit.Reset.IsZero() {
		return fmt.Sprintf("%s provider error %d: %s (throttled until %s)", e.Provider, e.StatusCode, e.Wrapped, e.Ratelimit.Reset.Local())
	}
	return fmt.Sprintf("%s provider error %d: %s", e.Provider, e.StatusCode, e.Wrapped)
}

func (e *Error) Unwrap() error {
	if e.Wrapped == nil {
		return nil
	}
	return e.Wrapped
}

func (e *Error) IsThrottled() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

func (e *Error) IsUnavailable() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500
}

func (e *Error) IsInvalidResponse() bool {
	return errors.Is(e.Wrapped, ErrInvalidResponse)
}

type RatelimitInfo struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// errorFromHTTPResponse wraps a failed provider call, capturing rate-limit
// state from the generic retry-after header when present. Provider-specific
// limit headers are filled in by the individual clients.
func errorFromHTTPResponse(provider string, resp *http.Response, err error) *Error {
	e := &Error{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Wrapped:    err,
	}
	if ra := resp.Header.Get("retry-after"); ra != "" {
		if secs, perr := strconv.ParseInt(ra, 10, 64); perr == nil {
			e.Ratelimit = &RatelimitInfo{Reset: time.Now().Add(time.Duration(secs) * time.Second)}
		}
	}
	return e
}
