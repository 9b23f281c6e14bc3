package solverapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/signalsfoundry/colortrace/internal/logging"
	"golang.org/x/time/rate"
)

// solveIDMiddleware ensures a solve_id is present on the request context,
// sourcing it from the inbound header if provided, and attaches a
// per-request logger annotated with solve_id and path.
func solveIDMiddleware(base logging.Logger) gin.HandlerFunc {
	if base == nil {
		base = logging.Noop()
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if incoming := c.GetHeader(SolveIDHeader); incoming != "" {
			ctx = logging.ContextWithSolveID(ctx, incoming)
		}

		ctx, reqLog := logging.WithTraceLogger(ctx, base.With(logging.String("path", c.FullPath())))
		ctx = logging.ContextWithLogger(ctx, reqLog)
		c.Request = c.Request.WithContext(ctx)
		c.Header(SolveIDHeader, logging.SolveIDFromContext(ctx))

		start := time.Now()
		c.Next()

		reqLog.Debug(ctx, "request served",
			logging.String("method", c.Request.Method),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("elapsed", time.Since(start)),
		)
	}
}

func rateLimitMiddleware(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func requestLogger(c *gin.Context) logging.Logger {
	if log := logging.LoggerFromContext(c.Request.Context()); log != nil {
		return log
	}
	return logging.Noop()
}
