// Package metrics exposes Prometheus counters and histograms for the API.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bookshelf"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests by route, method and status."},
		[]string{"path", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"path", "method"},
	)
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "login_attempts_total", Help: "Login attempts by result (success, failure, locked)."},
		[]string{"result"},
	)
	BooksUploaded = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "books_uploaded_total", Help: "Books successfully uploaded."},
	)
	BookDownloads = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "book_downloads_total", Help: "PDF files streamed to readers."},
	)
	ReviewsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "reviews_submitted_total", Help: "Reviews created or replaced."},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPLatency, LoginAttempts, BooksUploaded, BookDownloads, ReviewsSubmitted)
}

// Handler records request count and latency per route template. Requests
// that match no route are grouped under "unmatched" to bound label cardinality.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPLatency.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
		HTTPRequests.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Exposer returns the standard Prometheus scrape handler.
func Exposer() gin.HandlerFunc { return gin.WrapH(promhttp.Handler()) }
