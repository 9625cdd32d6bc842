package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"airg/internal/reqctx"
)

const (
	HeaderRequestID      = "X-Request-ID"
	HeaderIdempotencyKey = "Idempotency-Key"
)

// RequestContext must run first. It reuses an inbound X-Request-ID verbatim
// or generates one, writes it back onto the request headers and the
// response, and carries a trimmed Idempotency-Key along. It never rejects
// a request and never enforces idempotency itself.
func RequestContext(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Request.Header.Set(HeaderRequestID, requestID)
		c.Header(HeaderRequestID, requestID)

		ctx := reqctx.WithRequestID(c.Request.Context(), requestID)

		if key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey)); key != "" {
			c.Request.Header.Set(HeaderIdempotencyKey, key)
			ctx = reqctx.WithIdempotencyKey(ctx, key)
		} else {
			c.Request.Header.Del(HeaderIdempotencyKey)
		}

		logger := base.With().Str("request_id", requestID).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(ctx))
		c.Next()
	}
}
