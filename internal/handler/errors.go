package handler

import (
	"errors"
	"net/http"

	"github.com/CalistoMango/TheShipyard-sub001/internal/logger"
	"github.com/CalistoMango/TheShipyard-sub001/internal/logic"
	"github.com/gin-gonic/gin"
)

// statusOf 业务错误分类对应的 HTTP 状态码
func statusOf(kind logic.ErrorKind) int {
	switch kind {
	case logic.KindValidation, logic.KindEligibility, logic.KindVerification:
		return http.StatusBadRequest
	case logic.KindUnauthenticated:
		return http.StatusUnauthorized
	case logic.KindForbidden:
		return http.StatusForbidden
	case logic.KindNotFound:
		return http.StatusNotFound
	case logic.KindReplay, logic.KindConflict:
		return http.StatusConflict
	case logic.KindChainUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// LogicErrorResponse 业务错误响应，内部错误只返回通用信息
func LogicErrorResponse(c *gin.Context, err error) {
	kind := logic.KindOf(err)
	status := statusOf(kind)
	if status == http.StatusInternalServerError {
		logger.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		ErrorResponse(c, status, "服务器内部错误")
		return
	}

	message := err.Error()
	var claimErr *logic.ClaimError
	if errors.As(err, &claimErr) {
		message = claimErr.Message
	}
	ErrorResponse(c, status, message)
}
