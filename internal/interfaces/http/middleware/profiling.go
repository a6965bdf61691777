package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/resys/stockledger/internal/infrastructure/telemetry"
)

// Profiling runs the rest of the chain under pprof labels naming the route
// pattern and method, so Pyroscope flame graphs can be split per endpoint.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			c.Next()
			return
		}
		telemetry.WithProfilingLabels(c.Request.Context(),
			telemetry.HTTPRequestLabels(route, c.Request.Method),
			func(ctx context.Context) {
				c.Request = c.Request.WithContext(ctx)
				c.Next()
			})
	}
}
