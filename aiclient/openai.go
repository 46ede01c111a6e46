package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/carlmjohnson/versioninfo"
	"golang.org/x/time/rate"
)

const (
	DefaultOpenAIModel = "gpt-4-turbo-preview"

	defaultOpenAIHost = "https://api.openai.com"
)

// OpenAIClient talks to the OpenAI chat completions API.
type OpenAIClient struct {
	apiKey  string
	model   string
	host    string
	client  *http.Client
	limiter *rate.Limiter
}

var _ Client = (*OpenAIClient)(nil)

func NewOpenAI(cfg Config) *OpenAIClient {
	c := &OpenAIClient{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		host:    cfg.Host,
		client:  cfg.httpClient(),
		limiter: cfg.newLimiter(),
	}
	if c.model == "" {
		c.model = DefaultOpenAIModel
	}
	if c.host == "" {
		c.host = defaultOpenAIHost
	}
	return c
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *openAIError `json:"error"`
}

type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

func (oe *openAIError) Error() string {
	return fmt.Sprintf("%s: %s", oe.Type, oe.Message)
}

func (c *OpenAIClient) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	messages := make([]openAIMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, openAIMessage{Role: "user", Content: req.Prompt})

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	body, err := json.Marshal(openAIRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.host+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("User-Agent", "xposter/"+versioninfo.Short())

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", &Error{Provider: ProviderOpenAI, Wrapped: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var oe openAIResponse
		if err := json.NewDecoder(resp.Body).Decode(&oe); err != nil || oe.Error == nil {
			return "", errorFromHTTPResponse(ProviderOpenAI, resp, fmt.Errorf("request failed"))
		}
		e := errorFromHTTPResponse(ProviderOpenAI, resp, oe.Error)
		fillOpenAIRatelimit(e, resp)
		return "", e
	}

	var out openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &Error{Provider: ProviderOpenAI, StatusCode: resp.StatusCode, Wrapped: fmt.Errorf("%w: %v", ErrInvalidResponse, err)}
	}
	if out.Error != nil {
		return "", &Error{Provider: ProviderOpenAI, StatusCode: resp.StatusCode, Wrapped: out.Error}
	}
	if len(out.Choices) == 0 {
		return "", &Error{Provider: ProviderOpenAI, StatusCode: resp.StatusCode, Wrapped: fmt.Errorf("%w: no completion returned", ErrInvalidResponse)}
	}

	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", &Error{Provider: ProviderOpenAI, StatusCode: resp.StatusCode, Wrapped: fmt.Errorf("%w: empty completion", ErrInvalidResponse)}
	}
	return text, nil
}

func fillOpenAIRatelimit(e *Error, resp *http.Response) {
	limit := resp.Header.Get("x-ratelimit-limit-requests")
	if limit == "" {
		return
	}
	if e.Ratelimit == nil {
		e.Ratelimit = &RatelimitInfo{}
	}
	if n, err := strconv.Atoi(limit); err == nil {
		e.Ratelimit.Limit = n
	}
	if n, err := strconv.Atoi(resp.Header.Get("x-ratelimit-remaining-requests")); err == nil {
		e.Ratelimit.Remaining = n
	}
}
