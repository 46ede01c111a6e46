package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
)

var cmdHistory = &cli.Command{
	Name:  "history",
	Usage: "show recently published posts and replies",
	Flags: append([]cli.Flag{
		&cli.IntFlag{
			Name:  "limit",
			Usage: "max entries to show per kind",
			Value: 20,
		},
	}, dbFlags...),
	Action: runHistory,
}

func runHistory(cctx *cli.Context) error {
	ctx := cctx.Context

	store, err := openHistory(cctx)
	if err != nil {
		return err
	}

	limit := cctx.Int("limit")
	posts, err := store.RecentPosts(ctx, limit)
	if err != nil {
		return err
	}
	replies, err := store.RecentReplies(ctx, limit)
	if err != nil {
		return err
	}

	if len(posts) == 0 && len(replies) == 0 {
		fmt.Println("no history yet")
		return nil
	}
	for _, p := range posts {
		fmt.Printf("%s  post   %s  %s\n", p.CreatedAt.Format(time.RFC3339), p.TweetID, p.Text)
	}
	for _, r := range replies {
		fmt.Printf("%s  reply  %s  (to %s)  %s\n", r.CreatedAt.Format(time.RFC3339), r.TweetID, r.InReplyToID, r.Text)
	}
	return nil
}
