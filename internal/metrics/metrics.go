// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts handled requests by method, route and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "article_threads_http_requests_total",
		Help: "Total HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	// HTTPDuration records request latency by method and route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "article_threads_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// CommentsCreated counts persisted comments.
	CommentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "article_threads_comments_created_total",
		Help: "Total number of comments created",
	})

	// Notifications counts notification outcomes by topic and result
	// (published, failed, dropped).
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "article_threads_notifications_total",
		Help: "Notification outcomes by topic and result",
	}, []string{"topic", "result"})

	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "article_threads_rate_limited_total",
		Help: "Total number of requests rejected by the rate limiter",
	})

	// RedisErrors counts Redis failures by operation.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "article_threads_redis_errors_total",
		Help: "Total Redis errors by operation",
	}, []string{"operation"})
)

// Notification results
const (
	ResultPublished = "published"
	ResultFailed    = "failed"
	ResultDropped   = "dropped"
)
