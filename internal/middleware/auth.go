package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/CalistoMango/TheShipyard-sub001/internal/config"
	"github.com/gin-gonic/gin"
)

const callerIdKey = "caller_id"

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
		"data":    nil,
	})
}

// CallerIdentity 从可信请求头读取调用方用户ID，缺失时为 0
func CallerIdentity(header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(header))
		if raw == "" {
			c.Next()
			return
		}

		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			abort(c, http.StatusUnauthorized, "无效的调用方身份")
			return
		}
		c.Set(callerIdKey, id)
		c.Next()
	}
}

// CallerId 当前请求的调用方用户ID
func CallerId(c *gin.Context) int64 {
	return c.GetInt64(callerIdKey)
}

// RequireAdmin 仅允许管理员访问
func RequireAdmin(auth config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		callerId := CallerId(c)
		if callerId == 0 {
			abort(c, http.StatusUnauthorized, "未登录")
			return
		}
		if !auth.IsAdmin(callerId) {
			abort(c, http.StatusForbidden, "需要管理员权限")
			return
		}
		c.Next()
	}
}

// RequireSelfOrAdmin 路径参数中的用户必须是调用方本人或管理员
func RequireSelfOrAdmin(auth config.AuthConfig, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		callerId := CallerId(c)
		if callerId == 0 {
			abort(c, http.StatusUnauthorized, "未登录")
			return
		}
		if c.Param(param) != strconv.FormatInt(callerId, 10) && !auth.IsAdmin(callerId) {
			abort(c, http.StatusForbidden, "无权查看其他用户的数据")
			return
		}
		c.Next()
	}
}
