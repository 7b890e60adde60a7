package middleware

import (
	"strconv"
	"time"

	"github.com/CalistoMango/TheShipyard-sub001/internal/logger"
	"github.com/CalistoMango/TheShipyard-sub001/internal/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccessLog 结构化访问日志与请求计数
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()

		log := logger.With(
			zap.String("request_id", GetRequestId(c)),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.Int64("caller_id", CallerId(c)),
		)
		switch {
		case status >= 500:
			log.Error("%s %s", c.Request.Method, c.Request.URL.Path)
		case status >= 400:
			log.Warn("%s %s", c.Request.Method, c.Request.URL.Path)
		default:
			log.Info("%s %s", c.Request.Method, c.Request.URL.Path)
		}
	}
}
