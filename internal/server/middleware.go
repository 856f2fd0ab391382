package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"auction-house/internal/metrics"
	"auction-house/internal/views"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"method":    c.Request.Method,
		"path":      c.Request.URL.Path,
		"status":    c.Writer.Status(),
		"latency":   time.Since(start).String(),
		"client_ip": c.ClientIP(),
	})
}

// route is the matched route pattern, so ids do not blow up label cardinality
func route(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return "unmatched"
}

// MetricsMiddleware counts requests and observes their latency per route
func MetricsMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next()

	r := route(c)
	metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, r, strconv.Itoa(c.Writer.Status())).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, r).Observe(time.Since(start).Seconds())
}

// CSRFTokenMiddleware exposes the request's CSRF token so API clients can echo
// it back in the X-CSRF-Token header
func CSRFTokenMiddleware(c *gin.Context) {
	if token := csrf.Token(c.Request); token != "" {
		c.Header("X-CSRF-Token", token)
	}
	c.Next()
}

func isAPI(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api")
}

// abortWithStatus answers in JSON under /api and with the error page elsewhere
func abortWithStatus(c *gin.Context, status int, message string) {
	if isAPI(c) {
		utils.JSONError(c, status, errors.New(message), message)
	} else {
		views.RenderError(c, status, message)
	}
	c.Abort()
}

// NotFoundHandler answers unknown routes
func NotFoundHandler(c *gin.Context) {
	abortWithStatus(c, http.StatusNotFound, "page not found")
}
