package handler

import (
	"time"

	"github.com/CalistoMango/TheShipyard-sub001/internal/logic"
	"github.com/CalistoMango/TheShipyard-sub001/internal/model"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 领取相关请求模型

// SignatureRequest 申请签名请求
type SignatureRequest struct {
	UserId    int64  `json:"user_id" binding:"required"`
	Recipient string `json:"recipient" binding:"required"`
}

// RecordRequest 上报领取交易请求
type RecordRequest struct {
	UserId    int64  `json:"user_id" binding:"required"`
	TxId      string `json:"tx_id" binding:"required"`
	Amount    int64  `json:"amount"`
	ProjectId int64  `json:"project_id"`
}

// FundingRequest 上报出资交易请求
type FundingRequest struct {
	UserId int64  `json:"user_id" binding:"required"`
	TxId   string `json:"tx_id" binding:"required"`
}

// 领取相关响应模型

// SignatureResponse 签名响应，字段与合约 claim 参数一致
type SignatureResponse struct {
	ClaimType        string `json:"claim_type"`
	ProjectId        int64  `json:"project_id"`
	UserId           int64  `json:"user_id"`
	Recipient        string `json:"recipient"`
	CumulativeAmount int64  `json:"cumulative_amount"`
	OnChainClaimed   int64  `json:"on_chain_claimed"`
	DeltaPreview     int64  `json:"delta_preview"`
	Deadline         int64  `json:"deadline"`
	Signature        string `json:"signature"`
	Signer           string `json:"signer"`
	IsBuilder        *bool  `json:"is_builder,omitempty"`
	IsSubmitter      *bool  `json:"is_submitter,omitempty"`
}

// RefundRecordResponse 退款上报响应
type RefundRecordResponse struct {
	TxId             string `json:"tx_id"`
	ProjectId        int64  `json:"project_id"`
	UserId           int64  `json:"user_id"`
	TotalRefunded    int64  `json:"total_refunded"`
	RefundedRowCount int    `json:"refunded_row_count"`
	Reconciled       bool   `json:"reconciled"`
}

// RewardRecordResponse 奖励上报响应
type RewardRecordResponse struct {
	TxId             string `json:"tx_id"`
	ProjectId        int64  `json:"project_id"`
	UserId           int64  `json:"user_id"`
	Amount           int64  `json:"amount"`
	BuilderSettled   bool   `json:"builder_settled"`
	SubmitterSettled bool   `json:"submitter_settled"`
	Reconciled       bool   `json:"reconciled"`
}

// FundingResponse 出资记录响应
type FundingResponse struct {
	Id        int64     `json:"id"`
	ProjectId int64     `json:"project_id"`
	UserId    int64     `json:"user_id"`
	Amount    int64     `json:"amount"`
	TxId      string    `json:"tx_id"`
	CreatedAt time.Time `json:"created_at"`
}

// UserClaimsResponse 用户领取汇总
type UserClaimsResponse struct {
	UserId              int64   `json:"user_id"`
	ClaimedRefundsTotal int64   `json:"claimed_refunds_total"`
	ClaimedRewardsTotal int64   `json:"claimed_rewards_total"`
	LastRefundTxId      *string `json:"last_refund_tx_id"`
	LastRewardTxId      *string `json:"last_reward_tx_id"`
}

// 审核相关响应模型

// ReportApprovalResponse 举报审核响应
type ReportApprovalResponse struct {
	ReportId         int64  `json:"report_id"`
	ProjectId        int64  `json:"project_id"`
	ReportStatus     string `json:"report_status"`
	AlreadyCompleted bool   `json:"already_completed"`
	Partial          bool   `json:"partial"`
}

// BuildApprovalResponse 构建审核响应
type BuildApprovalResponse struct {
	BuildId   int64 `json:"build_id"`
	ProjectId int64 `json:"project_id"`
	BuilderId int64 `json:"builder_id"`
}

// 转换函数

// ToSignatureResponse 将签名结果转换为响应模型
func ToSignatureResponse(claim *logic.SignedClaim) SignatureResponse {
	resp := SignatureResponse{
		ClaimType:        claim.ClaimType.String(),
		ProjectId:        claim.ProjectId,
		UserId:           claim.UserId,
		Recipient:        claim.Recipient.Hex(),
		CumulativeAmount: claim.CumulativeAmount,
		OnChainClaimed:   claim.OnChainClaimed,
		DeltaPreview:     claim.Delta,
		Deadline:         claim.Deadline,
		Signature:        hexutil.Encode(claim.Signature),
		Signer:           claim.Signer.Hex(),
	}
	if claim.Reward != nil {
		isBuilder := claim.Reward.Roles.Builder
		isSubmitter := claim.Reward.Roles.Submitter
		resp.IsBuilder = &isBuilder
		resp.IsSubmitter = &isSubmitter
	}
	return resp
}

// ToFundingResponse 将出资记录转换为响应模型
func ToFundingResponse(record *model.FundingRecordModel) FundingResponse {
	resp := FundingResponse{
		Id:        record.Id,
		ProjectId: record.ProjectId,
		UserId:    record.FunderId,
		Amount:    record.Amount,
		CreatedAt: record.CreatedAt,
	}
	if record.FundingTxId != nil {
		resp.TxId = *record.FundingTxId
	}
	return resp
}

// ToUserClaimsResponse 将用户汇总转换为响应模型
func ToUserClaimsResponse(account *model.UserAccountModel) UserClaimsResponse {
	return UserClaimsResponse{
		UserId:              account.UserId,
		ClaimedRefundsTotal: account.ClaimedRefundsTotal,
		ClaimedRewardsTotal: account.ClaimedRewardsTotal,
		LastRefundTxId:      account.LastRefundTxId,
		LastRewardTxId:      account.LastRewardTxId,
	}
}
