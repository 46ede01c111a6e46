// Package twitter is a minimal X API v2 client covering what the posting
// and monitoring activities need: create tweet, reply, mentions, and the
// reverse-chronological home timeline. Writes are signed with OAuth1 user
// context; reads use the app bearer token when one is configured.
package twitter

import (
	"time"
)

// Tweet is one post as consumed by the monitoring pass.
type Tweet struct {
	ID             string
	Text           string
	AuthorID       string
	AuthorHandle   string
	ConversationID string
	CreatedAt      time.Time
	SeenAt         time.Time
}

// User is the authenticated account, resolved once at startup.
type User struct {
	ID     string
	Handle string
	Name   string
}

// PostResult is the platform acknowledgement of a write.
type PostResult struct {
	ID   string
	Text string
}

func clampLimit(n, lo, hi, def int) int {
	if n <= 0 {
		n = def
	}
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
