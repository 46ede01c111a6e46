// Package history records everything the bot publishes. It backs cross-run
// reply dedupe and gives operators an audit trail of generated content.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// PostedTweet is one published original post.
type PostedTweet struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time

	TweetID string `gorm:"uniqueIndex;not null"`
	Text    string `gorm:"not null"`
	Topic   string
}

// SentReply is one published reply. InReplyToID is unique so a second reply
// to the same tweet is refused at the schema level, whatever the caches say.
type SentReply struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time

	TweetID     string `gorm:"uniqueIndex;not null"`
	InReplyToID string `gorm:"uniqueIndex;not null"`
	AuthorID    string `gorm:"index"`
	Text        string `gorm:"not null"`
}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&PostedTweet{}, &SentReply{}); err != nil {
		return nil, fmt.Errorf("migrating history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) RecordPost(ctx context.Context, tweetID, text, topic string) error {
	row := PostedTweet{TweetID: tweetID, Text: text, Topic: topic}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("recording post: %w", err)
	}
	return nil
}

func (s *Store) RecordReply(ctx context.Context, tweetID, inReplyToID, authorID, text string) error {
	row := SentReply{TweetID: tweetID, InReplyToID: inReplyToID, AuthorID: authorID, Text: text}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("recording reply: %w", err)
	}
	return nil
}

// HasReplied reports whether a reply to the given tweet was ever sent.
func (s *Store) HasReplied(ctx context.Context, inReplyToID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&SentReply{}).Where("in_reply_to_id = ?", inReplyToID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking reply history: %w", err)
	}
	return count > 0, nil
}

// RecentPosts returns the latest original posts, newest first.
func (s *Store) RecentPosts(ctx context.Context, limit int) ([]PostedTweet, error) {
	var rows []PostedTweet
	err := s.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("loading recent posts: %w", err)
	}
	return rows, nil
}

// RecentReplies returns the latest replies, newest first.
func (s *Store) RecentReplies(ctx context.Context, limit int) ([]SentReply, error) {
	var rows []SentReply
	err := s.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("loading recent replies: %w", err)
	}
	return rows, nil
}

// IsDuplicate reports whether err is the unique-constraint violation raised
// when the same tweet is recorded twice.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
