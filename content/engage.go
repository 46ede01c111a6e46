package content

import (
	"github.com/9to5-byte/XPoster/config"
	"github.com/9to5-byte/XPoster/keyword"
	"github.com/9to5-byte/XPoster/twitter"
)

// ShouldEngage is the reply gate: the drawn value must fall under the
// configured probability, and the candidate text must match a monitored
// keyword. An empty keyword list matches everything. The draw is a
// parameter, not an internal rand call, so the predicate stays pure.
func ShouldEngage(candidate *twitter.Tweet, settings *config.Settings, draw float64) bool {
	if draw >= settings.Replies.ReplyProbability {
		return false
	}
	return keyword.MatchesAny(candidate.Text, settings.Replies.KeywordsToMonitor)
}
