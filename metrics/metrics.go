package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by the counters below.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// AuthURLsIssued counts issued authorization URLs, one per started
	// linking attempt.
	AuthURLsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nearlink_auth_urls_issued_total",
		Help: "Authorization URLs issued for linking attempts.",
	})

	// LinkAttempts counts completed CompleteLink calls by outcome.
	LinkAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nearlink_link_attempts_total",
		Help: "Linking completions by outcome.",
	}, []string{"outcome"})

	// ForumPosts counts post-creation calls by outcome.
	ForumPosts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nearlink_forum_posts_total",
		Help: "Forum post requests by outcome.",
	}, []string{"outcome"})

	// NoncesSwept counts expired nonce records removed by the background
	// sweeper (lazily evicted records are not included).
	NoncesSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nearlink_nonces_swept_total",
		Help: "Expired linking nonces removed by the background sweeper.",
	})
)
