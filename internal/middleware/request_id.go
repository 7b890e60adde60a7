package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIdHeader = "X-Request-Id"
	requestIdKey    = "request_id"
)

// RequestId 透传或生成请求ID
func RequestId() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIdHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIdKey, id)
		c.Header(RequestIdHeader, id)
		c.Next()
	}
}

// GetRequestId 当前请求ID
func GetRequestId(c *gin.Context) string {
	return c.GetString(requestIdKey)
}
