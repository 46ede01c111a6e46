package twitter

import (
	"context"
	"fmt"
	"sync"
)

// A fake posting and engagement channel, for use in tests.
type MockClient struct {
	mu sync.Mutex

	// Account is returned by VerifyCredentials and Me.
	Account User
	// MentionBatches are consumed one per Mentions call; exhausted means no
	// new mentions.
	MentionBatches [][]*Tweet
	// TimelineBatches are consumed one per HomeTimeline call.
	TimelineBatches [][]*Tweet
	// Err, when set, fails every call.
	Err error

	// Posts and Replies record everything published, in order.
	Posts   []string
	Replies []MockReply
	// MentionCalls records the cursor and limit of every Mentions call.
	MentionCalls  []MockMentionCall
	TimelineCalls int
}

type MockReply struct {
	Text      string
	InReplyTo string
}

type MockMentionCall struct {
	SinceID string
	Limit   int
}

func NewMockClient() *MockClient {
	return &MockClient{
		Account: User{ID: "10001", Handle: "xposter_test", Name: "XPoster Test"},
	}
}

func (c *MockClient) VerifyCredentials(ctx context.Context) (*User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	u := c.Account
	return &u, nil
}

func (c *MockClient) Me() *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	u := c.Account
	return &u
}

func (c *MockClient) Post(ctx context.Context, text string) (*PostResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	c.Posts = append(c.Posts, text)
	return &PostResult{ID: fmt.Sprintf("post-%d", len(c.Posts)), Text: text}, nil
}

func (c *MockClient) Reply(ctx context.Context, text string, toID string) (*PostResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	c.Replies = append(c.Replies, MockReply{Text: text, InReplyTo: toID})
	return &PostResult{ID: fmt.Sprintf("reply-%d", len(c.Replies)), Text: text}, nil
}

func (c *MockClient) Mentions(ctx context.Context, sinceID string, limit int) ([]*Tweet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.MentionCalls = append(c.MentionCalls, MockMentionCall{SinceID: sinceID, Limit: limit})
	if c.Err != nil {
		return nil, c.Err
	}
	if len(c.MentionBatches) == 0 {
		return nil, nil
	}
	batch := c.MentionBatches[0]
	c.MentionBatches = c.MentionBatches[1:]
	return batch, nil
}

func (c *MockClient) HomeTimeline(ctx context.Context, limit int) ([]*Tweet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.TimelineCalls++
	if c.Err != nil {
		return nil, c.Err
	}
	if len(c.TimelineBatches) == 0 {
		return nil, nil
	}
	batch := c.TimelineBatches[0]
	c.TimelineBatches = c.TimelineBatches[1:]
	return batch, nil
}
