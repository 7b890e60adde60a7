package logic

import (
	"context"

	"github.com/CalistoMango/TheShipyard-sub001/internal/chain"
	"github.com/CalistoMango/TheShipyard-sub001/internal/database"
	"github.com/CalistoMango/TheShipyard-sub001/internal/logger"
	"github.com/CalistoMango/TheShipyard-sub001/internal/model"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

// FundingRequest 出资交易上报
type FundingRequest struct {
	ProjectId int64
	UserId    int64
	CallerId  int64
	TxId      string
}

// FundingLogic 出资记录业务逻辑
type FundingLogic struct {
	db       *gorm.DB
	verifier TxVerifier
	clock    clockwork.Clock
}

// NewFundingLogic 创建出资业务逻辑
func NewFundingLogic(db *gorm.DB, verifier TxVerifier, clock clockwork.Clock) *FundingLogic {
	return &FundingLogic{db: db, verifier: verifier, clock: clock}
}

// RecordFunding 校验链上 Funded 事件后写入出资记录
func (f *FundingLogic) RecordFunding(ctx context.Context, req FundingRequest) (*model.FundingRecordModel, error) {
	if req.ProjectId <= 0 {
		return nil, newError(KindValidation, "无效的项目ID")
	}
	if req.UserId <= 0 {
		return nil, newError(KindValidation, "无效的用户ID")
	}
	txId := NormalizeTxId(req.TxId)
	if !chain.IsTxHash(txId) {
		return nil, newError(KindValidation, "无效的交易哈希")
	}
	if err := authorize(req.CallerId, req.UserId); err != nil {
		return nil, err
	}

	var count int64
	if err := f.db.WithContext(ctx).Model(&model.ProjectModel{}).Where("id = ?", req.ProjectId).Count(&count).Error; err != nil {
		return nil, wrapError(KindInternal, err, "获取项目失败")
	}
	if count == 0 {
		return nil, newError(KindNotFound, "项目不存在")
	}

	if err := f.db.WithContext(ctx).Model(&model.FundingRecordModel{}).Where("funding_tx_id = ?", txId).Count(&count).Error; err != nil {
		return nil, wrapError(KindInternal, err, "检查交易失败")
	}
	if count > 0 {
		return nil, newError(KindReplay, "交易已被使用")
	}

	event, err := f.verifier.VerifyTx(ctx, txId, chain.Expectation{
		Event:     chain.EventFunded,
		ProjectID: req.ProjectId,
		UserID:    req.UserId,
	})
	if err != nil {
		logger.Warn("Verification of funding tx %s failed (project %d, user %d): %v", txId, req.ProjectId, req.UserId, err)
		return nil, chainError(err)
	}
	amount, ok := chain.BigToInt64(event.Amount)
	if !ok || amount <= 0 {
		return nil, newError(KindVerification, "交易金额无效")
	}

	record, err := f.insert(ctx, req.ProjectId, req.UserId, txId, amount)
	if err != nil {
		if database.IsDuplicateKey(err) {
			return nil, newError(KindReplay, "交易已被使用")
		}
		return nil, wrapError(KindInternal, err, "记录出资失败")
	}
	return record, nil
}

// ApplyObservedFunding 同步任务发现的出资事件，已记录时返回 false
func (f *FundingLogic) ApplyObservedFunding(ctx context.Context, event *chain.VaultEvent) (bool, error) {
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

	if _, err := f.insert(ctx, projectId, userId, event.TxHash.Hex(), amount); err != nil {
		if database.IsDuplicateKey(err) {
			return false, nil
		}
		return false, err
	}
	logger.Info("Recorded funding tx %s observed on chain: project %d user %d amount %d", event.TxHash.Hex(), projectId, userId, amount)
	return true, nil
}

// insert 事务内写入出资记录、增加资金池并刷新活跃时间
func (f *FundingLogic) insert(ctx context.Context, projectId, userId int64, txId string, amount int64) (*model.FundingRecordModel, error) {
	now := f.clock.Now()
	record := &model.FundingRecordModel{
		ProjectId:   projectId,
		FunderId:    userId,
		Amount:      amount,
		FundingTxId: &txId,
	}

	var project model.ProjectModel
	tx := f.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.First(&project, projectId).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Create(record).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Model(&model.ProjectModel{}).Where("id = ?", projectId).Updates(map[string]interface{}{
		"pool_amount":      gorm.Expr("pool_amount + ?", amount),
		"last_activity_at": now,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if project.Status != model.ProjectStatusOpen {
		logger.Warn("Funding tx %s recorded for project %d in status %s", txId, projectId, project.Status)
	}
	return record, nil
}
