package middleware

import (
	"errors"
	"log/slog"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

// SilentLogger logs requests at debug level, except the noisy status poll,
// and drops the ones that ended because the client hung up mid-stream.
func SilentLogger(quiet ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(quiet))
	for _, p := range quiet {
		skip[p] = true
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		for _, e := range c.Errors {
			if clientGone(e.Err) {
				return
			}
		}
		if skip[path] && c.Writer.Status() < 400 {
			return
		}

		level := slog.LevelDebug
		if c.Writer.Status() >= 500 {
			level = slog.LevelWarn
		}
		slog.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", path,
			"query", c.Request.URL.RawQuery,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client", c.ClientIP(),
		)
	}
}

// clientGone reports a broken pipe or reset caused by a client disconnect,
// typically while streaming audio.
func clientGone(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}
