package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHandlerRecordsRouteTemplate(t *testing.T) {
	router := gin.New()
	router.Use(Handler())
	router.GET("/api/books/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", Exposer())

	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("/api/books/:id", "GET", "200"))

	for _, id := range []string{"1", "2", "3"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/books/"+id, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	after := testutil.ToFloat64(HTTPRequests.WithLabelValues("/api/books/:id", "GET", "200"))
	assert.Equal(t, 3.0, after-before)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.GreaterOrEqual(t, testutil.ToFloat64(HTTPRequests.WithLabelValues("unmatched", "GET", "404")), 1.0)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "bookshelf_http_requests_total"))
}
