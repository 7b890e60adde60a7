package handler

import (
	"net/http"
	"strconv"

	"github.com/CalistoMango/TheShipyard-sub001/internal/logic"
	"github.com/CalistoMango/TheShipyard-sub001/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ClaimHandler 领取处理器
type ClaimHandler struct {
	claimLogic *logic.ClaimLogic
}

// NewClaimHandler 创建领取处理器
func NewClaimHandler(claimLogic *logic.ClaimLogic) *ClaimHandler {
	return &ClaimHandler{claimLogic: claimLogic}
}

func parseId(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *ClaimHandler) bindSignatureRequest(c *gin.Context) (logic.SignatureRequest, bool) {
	projectId, ok := parseId(c, "id")
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return logic.SignatureRequest{}, false
	}

	var request SignatureRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求参数错误: "+err.Error())
		return logic.SignatureRequest{}, false
	}

	return logic.SignatureRequest{
		ProjectId: projectId,
		UserId:    request.UserId,
		CallerId:  middleware.CallerId(c),
		Recipient: request.Recipient,
	}, true
}

func (h *ClaimHandler) bindRecordRequest(c *gin.Context) (logic.RecordRequest, bool) {
	projectId, ok := parseId(c, "id")
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return logic.RecordRequest{}, false
	}

	var request RecordRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求参数错误: "+err.Error())
		return logic.RecordRequest{}, false
	}

	return logic.RecordRequest{
		ProjectId:     projectId,
		BodyProjectId: request.ProjectId,
		UserId:        request.UserId,
		CallerId:      middleware.CallerId(c),
		TxId:          request.TxId,
		Amount:        request.Amount,
	}, true
}

// RefundSignature 申请退款签名
func (h *ClaimHandler) RefundSignature(c *gin.Context) {
	req, ok := h.bindSignatureRequest(c)
	if !ok {
		return
	}

	claim, err := h.claimLogic.RequestRefundSignature(c.Request.Context(), req)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取退款签名成功", ToSignatureResponse(claim))
}

// RewardSignature 申请奖励签名
func (h *ClaimHandler) RewardSignature(c *gin.Context) {
	req, ok := h.bindSignatureRequest(c)
	if !ok {
		return
	}

	claim, err := h.claimLogic.RequestRewardSignature(c.Request.Context(), req)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取奖励签名成功", ToSignatureResponse(claim))
}

// RefundRecord 上报退款交易
func (h *ClaimHandler) RefundRecord(c *gin.Context) {
	req, ok := h.bindRecordRequest(c)
	if !ok {
		return
	}

	app, err := h.claimLogic.RecordRefund(c.Request.Context(), req)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "退款记录成功", RefundRecordResponse{
		TxId:             app.TxId,
		ProjectId:        app.ProjectId,
		UserId:           app.UserId,
		TotalRefunded:    app.TotalRefunded,
		RefundedRowCount: app.RefundedRowCount,
		Reconciled:       app.Reconciled(),
	})
}

// RewardRecord 上报奖励交易
func (h *ClaimHandler) RewardRecord(c *gin.Context) {
	req, ok := h.bindRecordRequest(c)
	if !ok {
		return
	}

	app, err := h.claimLogic.RecordReward(c.Request.Context(), req)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "奖励记录成功", RewardRecordResponse{
		TxId:             app.TxId,
		ProjectId:        app.ProjectId,
		UserId:           app.UserId,
		Amount:           app.Amount,
		BuilderSettled:   app.Settled.Builder,
		SubmitterSettled: app.Settled.Submitter,
		Reconciled:       app.Reconciled(),
	})
}

// GetUserClaims 获取用户领取汇总
func (h *ClaimHandler) GetUserClaims(c *gin.Context) {
	userId, ok := parseId(c, "user_id")
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "无效的用户ID")
		return
	}

	account, err := h.claimLogic.GetUserAccount(c.Request.Context(), userId)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取用户领取汇总成功", ToUserClaimsResponse(account))
}
