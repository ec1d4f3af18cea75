package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sellerdesk/recond/internal/observability/logger"
)

// RequestLogger logs one line per request with credentials masked.
func (s *Server) RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if auth := c.GetHeader("Authorization"); auth != "" {
			fields = append(fields, zap.String("authorization", logger.MaskAuthorization(auth)))
		}

		if c.Writer.Status() >= 500 {
			fields = append(fields, zap.Any("headers", logger.MaskHeaders(c.Request.Header)))
			s.log.Error("request", fields...)
			return
		}
		s.log.Info("request", fields...)
	}
}
