package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/araddon/dateparse"
	"github.com/carlmjohnson/versioninfo"
	"github.com/dghubble/oauth1"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/9to5-byte/XPoster/pkg/robusthttp"
)

const (
	defaultHost = "https://api.twitter.com"

	tweetFields = "created_at,author_id,conversation_id"
)

// ClientConfig carries platform credentials. They feed the signing transport
// and are never logged.
type ClientConfig struct {
	APIKey            string
	APISecret         string
	AccessToken       string
	AccessTokenSecret string
	// BearerToken switches mention reads to app-only auth; optional.
	BearerToken string
	// Host overrides the API endpoint, mainly for tests.
	Host string
	// Client overrides both transports and skips request signing; tests only.
	Client *http.Client
}

type Client struct {
	host        string
	bearerToken string
	userClient  *http.Client
	appClient   *http.Client
	logger      *slog.Logger

	user *User
}

func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		host:        cfg.Host,
		bearerToken: cfg.BearerToken,
		logger:      slog.Default().With("subsystem", "twitter"),
	}
	if c.host == "" {
		c.host = defaultHost
	}
	if cfg.Client != nil {
		c.userClient = cfg.Client
		c.appClient = cfg.Client
		return c
	}

	// OAuth1 signing happens inside the retry loop so every attempt gets a
	// fresh nonce and timestamp.
	base := &http.Client{Transport: cleanhttp.DefaultPooledTransport()}
	octx := context.WithValue(context.Background(), oauth1.HTTPClient, base)
	signing := oauth1.NewConfig(cfg.APIKey, cfg.APISecret).
		Client(octx, oauth1.NewToken(cfg.AccessToken, cfg.AccessTokenSecret))
	c.userClient = robusthttp.NewClient(robusthttp.WithTransport(signing.Transport))
	c.appClient = robusthttp.NewClient()
	return c
}

type userResponse struct {
	Data struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Username string `json:"username"`
	} `json:"data"`
}

// VerifyCredentials resolves the authenticated account and caches it for
// own-post filtering and the read endpoints.
func (c *Client) VerifyCredentials(ctx context.Context) (*User, error) {
	var out userResponse
	if err := c.do(ctx, c.userClient, "GET", "/2/users/me", nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Data.ID == "" {
		return nil, &Error{Wrapped: fmt.Errorf("users/me returned no account data")}
	}
	c.user = &User{ID: out.Data.ID, Handle: out.Data.Username, Name: out.Data.Name}
	c.logger.Info("authenticated", "handle", c.user.Handle, "accountID", c.user.ID)
	return c.user, nil
}

// Me returns the account resolved by VerifyCredentials, nil before it.
func (c *Client) Me() *User {
	return c.user
}

type createTweetRequest struct {
	Text  string            `json:"text"`
	Reply *createTweetReply `json:"reply,omitempty"`
}

type createTweetReply struct {
	InReplyToTweetID string `json:"in_reply_to_tweet_id"`
}

type createTweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// Post publishes a new tweet.
func (c *Client) Post(ctx context.Context, text string) (*PostResult, error) {
	return c.createTweet(ctx, createTweetRequest{Text: text})
}

// Reply publishes a reply to the given tweet id.
func (c *Client) Reply(ctx context.Context, text string, toID string) (*PostResult, error) {
	return c.createTweet(ctx, createTweetRequest{
		Text:  text,
		Reply: &createTweetReply{InReplyToTweetID: toID},
	})
}

func (c *Client) createTweet(ctx context.Context, req createTweetRequest) (*PostResult, error) {
	var out createTweetResponse
	if err := c.do(ctx, c.userClient, "POST", "/2/tweets", nil, req, &out); err != nil {
		return nil, err
	}
	if out.Data.ID == "" {
		return nil, &Error{Wrapped: fmt.Errorf("create tweet returned no id")}
	}
	return &PostResult{ID: out.Data.ID, Text: out.Data.Text}, nil
}

type timelineTweet struct {
	ID             string `json:"id"`
	Text           string `json:"text"`
	AuthorID       string `json:"author_id"`
	ConversationID string `json:"conversation_id"`
	CreatedAt      string `json:"created_at"`
}

type timelineResponse struct {
	Data     []timelineTweet `json:"data"`
	Includes struct {
		Users []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"users"`
	} `json:"includes"`
	Meta struct {
		ResultCount int    `json:"result_count"`
		NewestID    string `json:"newest_id"`
	} `json:"meta"`
}

// Mentions returns tweets mentioning the authenticated account, newest
// first, strictly after sinceID when set. No new mentions is not an error.
func (c *Client) Mentions(ctx context.Context, sinceID string, limit int) ([]*Tweet, error) {
	if c.user == nil {
		return nil, &Error{Wrapped: fmt.Errorf("mentions require VerifyCredentials first")}
	}

	params := map[string]any{
		"max_results":  clampLimit(limit, 5, 100, 10),
		"tweet.fields": tweetFields,
		"expansions":   "author_id",
		"user.fields":  "username",
	}
	if sinceID != "" {
		params["since_id"] = sinceID
	}

	cl := c.userClient
	if c.bearerToken != "" {
		cl = c.appClient
	}

	var out timelineResponse
	if err := c.do(ctx, cl, "GET", "/2/users/"+c.user.ID+"/mentions", params, nil, &out); err != nil {
		return nil, err
	}
	return c.parseTweets(&out), nil
}

// HomeTimeline returns the reverse-chronological home timeline. This always
// uses user context; the bearer token cannot read it.
func (c *Client) HomeTimeline(ctx context.Context, limit int) ([]*Tweet, error) {
	if c.user == nil {
		return nil, &Error{Wrapped: fmt.Errorf("home timeline requires VerifyCredentials first")}
	}

	params := map[string]any{
		"max_results":  clampLimit(limit, 1, 100, 20),
		"tweet.fields": tweetFields,
		"expansions":   "author_id",
		"user.fields":  "username",
	}

	var out timelineResponse
	if err := c.do(ctx, c.userClient, "GET", "/2/users/"+c.user.ID+"/timelines/reverse_chronological", params, nil, &out); err != nil {
		return nil, err
	}
	return c.parseTweets(&out), nil
}

func (c *Client) parseTweets(resp *timelineResponse) []*Tweet {
	handles := make(map[string]string, len(resp.Includes.Users))
	for _, u := range resp.Includes.Users {
		handles[u.ID] = u.Username
	}

	now := time.Now()
	out := make([]*Tweet, 0, len(resp.Data))
	for _, tw := range resp.Data {
		t := &Tweet{
			ID:             tw.ID,
			Text:           tw.Text,
			AuthorID:       tw.AuthorID,
			AuthorHandle:   handles[tw.AuthorID],
			ConversationID: tw.ConversationID,
			SeenAt:         now,
		}
		if tw.CreatedAt != "" {
			// v2 returns RFC3339 but v1.1-era tooling has produced the
			// legacy format too, so parse permissively.
			created, err := dateparse.ParseAny(tw.CreatedAt)
			if err != nil {
				c.logger.Warn("unparseable tweet timestamp", "tweetID", tw.ID, "createdAt", tw.CreatedAt)
			} else {
				t.CreatedAt = created
			}
		}
		out = append(out, t)
	}
	return out
}

// makeParams converts a map of string keys and any values into a URL-encoded
// string. Generally the values will be strings, numbers, or booleans.
func makeParams(p map[string]any) string {
	params := url.Values{}
	for k, v := range p {
		params.Add(k, fmt.Sprint(v))
	}
	return params.Encode()
}

func (c *Client) do(ctx context.Context, cl *http.Client, method string, path string, params map[string]any, bodyobj any, out any) error {
	var body io.Reader
	if bodyobj != nil {
		b, err := json.Marshal(bodyobj)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	uri := c.host + path
	if len(params) > 0 {
		uri += "?" + makeParams(params)
	}

	req, err := http.NewRequestWithContext(ctx, method, uri, body)
	if err != nil {
		return err
	}
	if bodyobj != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "xposter/"+versioninfo.Short())
	if cl == c.appClient && c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}

	resp, err := cl.Do(req)
	if err != nil {
		return &Error{Wrapped: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var ae apiError
		if err := json.NewDecoder(resp.Body).Decode(&ae); err != nil || ae.empty() {
			return errorFromHTTPResponse(resp, fmt.Errorf("request failed"))
		}
		return errorFromHTTPResponse(resp, &ae)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &Error{StatusCode: resp.StatusCode, Wrapped: fmt.Errorf("decoding response: %w", err)}
		}
	}
	return nil
}
