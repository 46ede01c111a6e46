package automation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var postTicks = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "xposter_post_ticks",
	Help: "Number of posting ticks, by outcome",
}, []string{"status"})

var postsPublished = promauto.NewCounter(prometheus.CounterOpts{
	Name: "xposter_posts_published",
	Help: "Number of original posts published",
})

var postsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "xposter_posts_skipped",
	Help: "Number of posting ticks skipped, by reason",
}, []string{"reason"})

var postsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "xposter_posts_failed",
	Help: "Number of posting attempts which failed, by stage",
}, []string{"stage"})

var repliesPublished = promauto.NewCounter(prometheus.CounterOpts{
	Name: "xposter_replies_published",
	Help: "Number of replies published",
})

var repliesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "xposter_replies_skipped",
	Help: "Number of reply candidates skipped, by reason",
}, []string{"reason"})

var repliesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "xposter_replies_failed",
	Help: "Number of reply attempts which failed, by stage",
}, []string{"stage"})

var monitorPasses = promauto.NewCounter(prometheus.CounterOpts{
	Name: "xposter_monitor_passes",
	Help: "Number of completed mention and timeline scans",
})
