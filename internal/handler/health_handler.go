package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthChecker 链连接状态
type HealthChecker interface {
	GetHealthStatus(ctx context.Context) map[string]interface{}
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	chain HealthChecker
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(chain HealthChecker) *HealthHandler {
	return &HealthHandler{chain: chain}
}

// Health 服务与链连接状态，链不可用时返回 503
func (h *HealthHandler) Health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{
		"status":  "ok",
		"service": "shipyard-claims",
	}

	if h.chain != nil {
		chainHealth := h.chain.GetHealthStatus(c.Request.Context())
		body["chain"] = chainHealth
		if chainHealth["client_status"] != "connected" {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}

	c.JSON(status, body)
}
