package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-rest-errors/internal/errmap"
	"github.com/tbourn/go-rest-errors/internal/fault"
	"github.com/tbourn/go-rest-errors/internal/http/middleware"
	"github.com/tbourn/go-rest-errors/internal/observability"
)

// RestErrors renders errors recorded on the gin context (c.Error) by the
// handlers that run after it.
//
// Behavior:
//   - Does nothing when no error was recorded or a response was already
//     written.
//   - Classifies the last recorded error into a fault.Event and maps it with m.
//   - Writes the mapped status, plus the body as JSON when it has one.
//   - Events m does not handle fall back to a 500 internal_error envelope.
//
// Mount it on the REST group only; routes outside the group keep the default
// gin behavior.
func RestErrors(m *errmap.Mapper) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		evt := fault.Classify(c.Errors.Last().Err)
		lg := middleware.LoggerFrom(c)
		ctx := c.Request.Context()

		resp, ok := m.Map(lg, evt)
		if !ok {
			middleware.ObserveFault(evt.Kind.String(), http.StatusInternalServerError)
			observability.RecordFault(ctx, evt, http.StatusInternalServerError)
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
			return
		}

		middleware.ObserveFault(evt.Kind.String(), resp.Status)
		observability.RecordFault(ctx, evt, resp.Status)
		if resp.Status >= http.StatusInternalServerError {
			lg.Error().
				Str("kind", evt.Kind.String()).
				Int("status", resp.Status).
				Err(evt.Err).
				Msg("request failed")
		}

		if resp.Body == nil {
			c.AbortWithStatus(resp.Status)
			return
		}
		c.AbortWithStatusJSON(resp.Status, resp.Body)
	}
}
