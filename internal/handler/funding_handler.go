package handler

import (
	"net/http"

	"github.com/CalistoMango/TheShipyard-sub001/internal/logic"
	"github.com/CalistoMango/TheShipyard-sub001/internal/middleware"
	"github.com/gin-gonic/gin"
)

// FundingHandler 出资处理器
type FundingHandler struct {
	fundingLogic *logic.FundingLogic
}

// NewFundingHandler 创建出资处理器
func NewFundingHandler(fundingLogic *logic.FundingLogic) *FundingHandler {
	return &FundingHandler{fundingLogic: fundingLogic}
}

// RecordFunding 上报出资交易
func (h *FundingHandler) RecordFunding(c *gin.Context) {
	projectId, ok := parseId(c, "id")
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	var request FundingRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求参数错误: "+err.Error())
		return
	}

	record, err := h.fundingLogic.RecordFunding(c.Request.Context(), logic.FundingRequest{
		ProjectId: projectId,
		UserId:    request.UserId,
		CallerId:  middleware.CallerId(c),
		TxId:      request.TxId,
	})
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "出资记录成功", ToFundingResponse(record))
}
