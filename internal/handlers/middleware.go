package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/celebrity-recognition/internal/logging"
	"github.com/example/celebrity-recognition/internal/views"
)

// RequestIDHeader carries the per-request trace identifier in both directions.
const RequestIDHeader = "X-Request-ID"

const (
	requestIDKey       = "requestID"
	maxRequestIDLength = 128
)

// Limiter decides whether a client may submit another upload.
type Limiter interface {
	Allow(ctx context.Context, client string) bool
}

// RequestID assigns every request an identifier, reusing a sane inbound
// X-Request-ID header when one is supplied.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the identifier assigned by RequestID.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// AccessLog writes one structured line per request.
func AccessLog(logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("http")
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(started)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", GetRequestID(c)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
			if op := logging.OperationOf(c.Errors.Last().Err); op != "" {
				fields = append(fields, zap.String("operation", op))
			}
			logger.Warn("request completed with errors", fields...)
			return
		}
		logger.Info("request completed", fields...)
	}
}

// Recovery renders the generic error page when a handler panics.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("request_id", GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
		)
		renderError(c, http.StatusInternalServerError)
	})
}

// RateLimit rejects uploads from clients that exceeded limiter's budget.
func RateLimit(limiter Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter.Allow(c.Request.Context(), c.ClientIP()) {
			c.Next()
			return
		}
		c.HTML(http.StatusTooManyRequests, views.Index, views.IndexModel{
			Message: "Too many uploads. Please wait a minute and try again.",
		})
		c.Abort()
	}
}

// noStore marks the response as never cacheable.
func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store, no-cache")
	c.Header("Pragma", "no-cache")
}

func renderError(c *gin.Context, status int) {
	noStore(c)
	c.HTML(status, views.Error, views.ErrorModel{RequestID: GetRequestID(c)})
	c.Abort()
}
