package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"golang.org/x/time/rate"
)

const (
	DefaultAnthropicModel = "claude-3-opus-20240229"

	defaultAnthropicHost = "https://api.anthropic.com"

	anthropicVersion = "2023-06-01"
)

// AnthropicClient talks to the Anthropic messages API.
type AnthropicClient struct {
	apiKey  string
	model   string
	host    string
	client  *http.Client
	limiter *rate.Limiter
}

var _ Client = (*AnthropicClient)(nil)

func NewAnthropic(cfg Config) *AnthropicClient {
	c := &AnthropicClient{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		host:    cfg.Host,
		client:  cfg.httpClient(),
		limiter: cfg.newLimiter(),
	}
	if c.model == "" {
		c.model = DefaultAnthropicModel
	}
	if c.host == "" {
		c.host = defaultAnthropicHost
	}
	return c
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicResponse struct {
	Type    string `json:"type"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string          `json:"stop_reason"`
	Error      *anthropicError `json:"error"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (ae *anthropicError) Error() string {
	return fmt.Sprintf("%s: %s", ae.Type, ae.Message)
}

func (c *AnthropicClient) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	body, err := json.Marshal(anthropicRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		System:      req.System,
		Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.host+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("User-Agent", "xposter/"+versioninfo.Short())

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", &Error{Provider: ProviderAnthropic, Wrapped: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var ae anthropicResponse
		if err := json.NewDecoder(resp.Body).Decode(&ae); err != nil || ae.Error == nil {
			return "", errorFromHTTPResponse(ProviderAnthropic, resp, fmt.Errorf("request failed"))
		}
		e := errorFromHTTPResponse(ProviderAnthropic, resp, ae.Error)
		fillAnthropicRatelimit(e, resp)
		return "", e
	}

	var out anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &Error{Provider: ProviderAnthropic, StatusCode: resp.StatusCode, Wrapped: fmt.Errorf("%w: %v", ErrInvalidResponse, err)}
	}
	if out.Error != nil {
		return "", &Error{Provider: ProviderAnthropic, StatusCode: resp.StatusCode, Wrapped: out.Error}
	}

	var text string
	for _, block := range out.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &Error{Provider: ProviderAnthropic, StatusCode: resp.StatusCode, Wrapped: fmt.Errorf("%w: no text content returned", ErrInvalidResponse)}
	}
	return text, nil
}

func fillAnthropicRatelimit(e *Error, resp *http.Response) {
	limit := resp.Header.Get("anthropic-ratelimit-requests-limit")
	if limit == "" {
		return
	}
	if e.Ratelimit == nil {
		e.Ratelimit = &RatelimitInfo{}
	}
	if n, err := strconv.Atoi(limit); err == nil {
		e.Ratelimit.Limit = n
	}
	if n, err := strconv.Atoi(resp.Header.Get("anthropic-ratelimit-requests-remaining")); err == nil {
		e.Ratelimit.Remaining = n
	}
	if t, err := time.Parse(time.RFC3339, resp.Header.Get("anthropic-ratelimit-requests-reset")); err == nil {
		e.Ratelimit.Reset = t
	}
}
