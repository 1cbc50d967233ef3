// Package middleware contains gin middleware shared by all routes.
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Deadline returns a gin middleware that attaches a deadline to the
// request context. The handler chain runs synchronously (no goroutine
// spawning), which keeps gin.Context access single-threaded.
//
// After c.Next() returns, if the context expired and no response was
// written, a 503 is sent. This covers handlers that notice ctx.Err() and
// return without writing. A handler that ignores its context cannot be
// interrupted this way; the upstream clients and the store all propagate
// the context, so their calls unblock when the deadline fires.
//
// The budget must accommodate the guide search, which chains many
// sequential upstream calls on purpose.
func Deadline(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() != nil && !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"message": "request timed out",
			})
		}
	}
}
