package logic

import (
	"context"
	"errors"

	"github.com/CalistoMango/TheShipyard-sub001/internal/chain"
	"github.com/CalistoMango/TheShipyard-sub001/internal/logger"
	"github.com/CalistoMango/TheShipyard-sub001/internal/metrics"
	"github.com/CalistoMango/TheShipyard-sub001/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// TxVerifier 校验链上交易
type TxVerifier interface {
	VerifyTx(ctx context.Context, txHash string, exp chain.Expectation) (*chain.VaultEvent, error)
}

// SignatureRequest 签名请求
type SignatureRequest struct {
	ProjectId int64
	UserId    int64
	CallerId  int64
	Recipient string
}

// RecordRequest 领取交易上报
type RecordRequest struct {
	ProjectId     int64 // 路径中的项目ID
	BodyProjectId int64 // 请求体中的项目ID，可为空
	UserId        int64
	CallerId      int64
	TxId          string
	Amount        int64 // 客户端上报金额，仅用于比对
}

// ClaimLogic 领取流程编排
type ClaimLogic struct {
	db         *gorm.DB
	issuer     *SignatureIssuer
	verifier   TxVerifier
	guard      *ReplayGuard
	reconciler *LedgerReconciler
}

// NewClaimLogic 创建领取业务逻辑
func NewClaimLogic(db *gorm.DB, issuer *SignatureIssuer, verifier TxVerifier, guard *ReplayGuard, reconciler *LedgerReconciler) *ClaimLogic {
	return &ClaimLogic{
		db:         db,
		issuer:     issuer,
		verifier:   verifier,
		guard:      guard,
		reconciler: reconciler,
	}
}

// authorize 调用方必须是请求的用户本人
func authorize(callerId, userId int64) error {
	if callerId <= 0 {
		return newError(KindUnauthenticated, "未登录")
	}
	if callerId != userId {
		return newError(KindForbidden, "只能为自己发起领取")
	}
	return nil
}

func (l *ClaimLogic) ensureProject(ctx context.Context, projectId int64) error {
	var count int64
	if err := l.db.WithContext(ctx).Model(&model.ProjectModel{}).Where("id = ?", projectId).Count(&count).Error; err != nil {
		return wrapError(KindInternal, err, "获取项目失败")
	}
	if count == 0 {
		return newError(KindNotFound, "项目不存在")
	}
	return nil
}

func (l *ClaimLogic) validateSignatureRequest(ctx context.Context, req SignatureRequest) (common.Address, error) {
	if req.ProjectId <= 0 {
		return common.Address{}, newError(KindValidation, "无效的项目ID")
	}
	if req.UserId <= 0 {
		return common.Address{}, newError(KindValidation, "无效的用户ID")
	}
	if !common.IsHexAddress(req.Recipient) {
		return common.Address{}, newError(KindValidation, "无效的收款地址")
	}
	recipient := common.HexToAddress(req.Recipient)
	if recipient == (common.Address{}) {
		return common.Address{}, newError(KindValidation, "收款地址不能为零地址")
	}
	if err := authorize(req.CallerId, req.UserId); err != nil {
		return common.Address{}, err
	}
	if err := l.ensureProject(ctx, req.ProjectId); err != nil {
		return common.Address{}, err
	}
	return recipient, nil
}

// RequestRefundSignature 申请退款签名
func (l *ClaimLogic) RequestRefundSignature(ctx context.Context, req SignatureRequest) (*SignedClaim, error) {
	recipient, err := l.validateSignatureRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	return l.issuer.IssueRefund(ctx, req.ProjectId, req.UserId, recipient)
}

// RequestRewardSignature 申请奖励签名
func (l *ClaimLogic) RequestRewardSignature(ctx context.Context, req SignatureRequest) (*SignedClaim, error) {
	recipient, err := l.validateSignatureRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	return l.issuer.IssueReward(ctx, req.ProjectId, req.UserId, recipient)
}

// RecordRefund 上报退款交易
func (l *ClaimLogic) RecordRefund(ctx context.Context, req RecordRequest) (*RefundApplication, error) {
	reserved, err := l.verifyAndReserve(ctx, req, model.ClaimTypeRefund)
	if err != nil {
		return nil, err
	}
	return l.reconciler.ApplyRefund(ctx, reserved.Record), nil
}

// RecordReward 上报奖励交易
func (l *ClaimLogic) RecordReward(ctx context.Context, req RecordRequest) (*RewardApplication, error) {
	reserved, err := l.verifyAndReserve(ctx, req, model.ClaimTypeReward)
	if err != nil {
		return nil, err
	}
	return l.reconciler.ApplyReward(ctx, reserved.Record), nil
}

func (l *ClaimLogic) validateRecordRequest(req RecordRequest) (string, error) {
	if req.ProjectId <= 0 {
		return "", newError(KindValidation, "无效的项目ID")
	}
	if req.BodyProjectId != 0 && req.BodyProjectId != req.ProjectId {
		return "", newError(KindValidation, "项目ID不一致")
	}
	if req.UserId <= 0 {
		return "", newError(KindValidation, "无效的用户ID")
	}
	txId := NormalizeTxId(req.TxId)
	if !chain.IsTxHash(txId) {
		return "", newError(KindValidation, "无效的交易哈希")
	}
	if req.Amount < 0 {
		return "", newError(KindValidation, "金额不能为负数")
	}
	return txId, nil
}

// onChainClaimType 账本领取类型对应的合约领取类型
func onChainClaimType(claimType model.ClaimType) chain.ClaimType {
	if claimType == model.ClaimTypeReward {
		return chain.ClaimTypeReward
	}
	return chain.ClaimTypeRefund
}

// verifyAndReserve 校验交易后占用 tx_id，成功返回 Reserved
func (l *ClaimLogic) verifyAndReserve(ctx context.Context, req RecordRequest, claimType model.ClaimType) (*Reserved, error) {
	txId, err := l.validateRecordRequest(req)
	if err != nil {
		return nil, err
	}
	if err := authorize(req.CallerId, req.UserId); err != nil {
		return nil, err
	}
	if err := l.ensureProject(ctx, req.ProjectId); err != nil {
		return nil, err
	}

	consumed, err := l.guard.IsConsumed(ctx, txId)
	if err != nil {
		return nil, wrapError(KindInternal, err, "检查交易失败")
	}
	if consumed {
		metrics.ClaimRecordsTotal.WithLabelValues(string(claimType), "replay").Inc()
		return nil, newError(KindReplay, "交易已被使用")
	}

	verified, err := l.verifier.VerifyTx(ctx, txId, chain.Expectation{
		Event:     onChainClaimType(claimType).ClaimEvent(),
		ProjectID: req.ProjectId,
		UserID:    req.UserId,
	})
	if err != nil {
		logger.Warn("Verification of %s tx %s failed (project %d, user %d): %v", claimType, txId, req.ProjectId, req.UserId, err)
		metrics.ClaimRecordsTotal.WithLabelValues(string(claimType), "verification_failed").Inc()
		return nil, chainError(err)
	}

	amount, ok := chain.BigToInt64(verified.Amount)
	if !ok || amount <= 0 {
		metrics.ClaimRecordsTotal.WithLabelValues(string(claimType), "verification_failed").Inc()
		return nil, newError(KindVerification, "交易金额无效")
	}
	if req.Amount != 0 && req.Amount != amount {
		logger.Warn("Client reported %s amount %d for tx %s, on-chain amount is %d", claimType, req.Amount, txId, amount)
	}

	return l.reserve(ctx, model.ClaimTxModel{
		TxId:      txId,
		UserId:    req.UserId,
		ClaimType: claimType,
		Amount:    amount,
		ProjectId: req.ProjectId,
	})
}

func (l *ClaimLogic) reserve(ctx context.Context, record model.ClaimTxModel) (*Reserved, error) {
	switch outcome := l.guard.Reserve(ctx, record).(type) {
	case Reserved:
		metrics.ClaimRecordsTotal.WithLabelValues(string(record.ClaimType), "reserved").Inc()
		return &outcome, nil
	case AlreadyUsed:
		metrics.ClaimRecordsTotal.WithLabelValues(string(record.ClaimType), "replay").Inc()
		return nil, newError(KindReplay, "交易已被使用")
	case ReserveFatal:
		logger.Error("Failed to reserve %s tx %s: %v", record.ClaimType, record.TxId, outcome.Err)
		metrics.ClaimRecordsTotal.WithLabelValues(string(record.ClaimType), "error").Inc()
		return nil, wrapError(KindInternal, outcome.Err, "记录交易失败")
	default:
		return nil, newError(KindInternal, "记录交易失败")
	}
}

// ApplyObservedClaim 同步任务发现的领取事件，走同一预留与入账流程
func (l *ClaimLogic) ApplyObservedClaim(ctx context.Context, event *chain.VaultEvent) (bool, error) {
	var claimType model.ClaimType
	switch event.Kind {
	case chain.EventRefundClaimed:
		claimType = model.ClaimTypeRefund
	case chain.EventRewardClaimed:
		claimType = model.ClaimTypeReward
	default:
		return false, newError(KindValidation, "不是领取事件: %s", event.Kind)
	}

	projectId, ok := chain.ProjectIDFromBytes32(event.ProjectID)
	if !ok {
		return false, newError(KindValidation, "项目ID超出范围")
	}
	userId, ok := chain.BigToInt64(event.UserID)
	if !ok {
		return false, newError(KindValidation, "用户ID超出范围")
	}
	amount, ok := chain.BigToInt64(event.Amount)
	if !ok || amount <= 0 {
		return false, newError(KindValidation, "交易金额无效")
	}
	// 本地不存在的项目不占用 tx_id
	if err := l.ensureProject(ctx, projectId); err != nil {
		return false, err
	}

	reserved, err := l.reserve(ctx, model.ClaimTxModel{
		TxId:      event.TxHash.Hex(),
		UserId:    userId,
		ClaimType: claimType,
		Amount:    amount,
		ProjectId: projectId,
	})
	if err != nil {
		if KindOf(err) == KindReplay {
			return false, nil
		}
		return false, err
	}

	logger.Info("Applying %s tx %s observed on chain but never reported", claimType, reserved.Record.TxId)
	if claimType == model.ClaimTypeRefund {
		l.reconciler.ApplyRefund(ctx, reserved.Record)
	} else {
		l.reconciler.ApplyReward(ctx, reserved.Record)
	}
	return true, nil
}

// GetUserAccount 获取用户领取汇总
func (l *ClaimLogic) GetUserAccount(ctx context.Context, userId int64) (*model.UserAccountModel, error) {
	if userId <= 0 {
		return nil, newError(KindValidation, "无效的用户ID")
	}
	var account model.UserAccountModel
	if err := l.db.WithContext(ctx).First(&account, "user_id = ?", userId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.UserAccountModel{UserId: userId}, nil
		}
		return nil, wrapError(KindInternal, err, "获取用户汇总失败")
	}
	return &account, nil
}
