package logic

import (
	"context"
	"fmt"

	"github.com/CalistoMango/TheShipyard-sub001/internal/chain"
	"github.com/CalistoMango/TheShipyard-sub001/internal/logger"
	"github.com/CalistoMango/TheShipyard-sub001/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReconcileResult 单个对账任务的复核结果
type ReconcileResult struct {
	Resolved bool
	Detail   string
}

// ReconcileLogic 复核对账任务：举报状态补写，账本与链上累计金额比对
type ReconcileLogic struct {
	db         *gorm.DB
	reader     ClaimStateReader
	calculator *ClaimCalculator
	reports    *ReportLogic
	tolerance  int64
}

// NewReconcileLogic 创建对账复核逻辑
func NewReconcileLogic(db *gorm.DB, reader ClaimStateReader, calculator *ClaimCalculator, reports *ReportLogic, tolerance int64) *ReconcileLogic {
	return &ReconcileLogic{
		db:         db,
		reader:     reader,
		calculator: calculator,
		reports:    reports,
		tolerance:  tolerance,
	}
}

// Resolve 复核一条任务，返回错误表示本轮无法判断
func (l *ReconcileLogic) Resolve(ctx context.Context, task model.ReconciliationTaskModel) (*ReconcileResult, error) {
	switch task.Kind {
	case model.ReconciliationKindReportStatus:
		status, err := l.reports.SyncReportStatus(ctx, task.ReportId)
		if err != nil {
			return nil, err
		}
		return &ReconcileResult{
			Resolved: status != model.ReportStatusPending,
			Detail:   fmt.Sprintf("report %d status %s", task.ReportId, status),
		}, nil
	case model.ReconciliationKindLedgerDrift, model.ReconciliationKindMutationFailed:
		if task.Kind == model.ReconciliationKindMutationFailed {
			if err := l.repair(ctx, task); err != nil {
				return nil, err
			}
		}
		switch task.ClaimType {
		case model.ClaimTypeRefund:
			return l.checkRefund(ctx, task.ProjectId, task.UserId)
		case model.ClaimTypeReward:
			return l.checkReward(ctx, task.ProjectId, task.UserId)
		}
		return nil, fmt.Errorf("task %d has unknown claim type %q", task.Id, task.ClaimType)
	default:
		return nil, fmt.Errorf("task %d has unknown kind %q", task.Id, task.Kind)
	}
}

func (l *ReconcileLogic) sum(ctx context.Context, m interface{}, where string, args ...interface{}) (int64, error) {
	var total int64
	err := l.db.WithContext(ctx).Model(m).
		Select("COALESCE(SUM(amount), 0)").
		Where(where, args...).
		Scan(&total).Error
	return total, err
}

func (l *ReconcileLogic) readClaimed(ctx context.Context, projectId, userId int64, claimType model.ClaimType) (int64, error) {
	claimed, err := l.reader.ReadClaimed(ctx, projectId, userId, onChainClaimType(claimType))
	if err != nil {
		return 0, err
	}
	v, ok := chain.BigToInt64(claimed)
	if !ok {
		return 0, chain.ErrAmountOverflow
	}
	return v, nil
}

// checkRefund 链上退款累计 = 已标记出资记录之和 = 已记录退款交易之和，资金池 = 出资总额 - 退款总额
func (l *ReconcileLogic) checkRefund(ctx context.Context, projectId, userId int64) (*ReconcileResult, error) {
	onChain, err := l.readClaimed(ctx, projectId, userId, model.ClaimTypeRefund)
	if err != nil {
		return nil, err
	}

	marked, err := l.sum(ctx, &model.FundingRecordModel{}, "project_id = ? AND funder_id = ? AND refunded_at IS NOT NULL", projectId, userId)
	if err != nil {
		return nil, fmt.Errorf("sum refunded rows: %w", err)
	}
	recorded, err := l.sum(ctx, &model.ClaimTxModel{}, "project_id = ? AND user_id = ? AND claim_type = ?", projectId, userId, model.ClaimTypeRefund)
	if err != nil {
		return nil, fmt.Errorf("sum refund txs: %w", err)
	}
	funded, err := l.sum(ctx, &model.FundingRecordModel{}, "project_id = ?", projectId)
	if err != nil {
		return nil, fmt.Errorf("sum project funding: %w", err)
	}
	refunded, err := l.sum(ctx, &model.ClaimTxModel{}, "project_id = ? AND claim_type = ?", projectId, model.ClaimTypeRefund)
	if err != nil {
		return nil, fmt.Errorf("sum project refunds: %w", err)
	}

	var project model.ProjectModel
	if err := l.db.WithContext(ctx).First(&project, projectId).Error; err != nil {
		return nil, fmt.Errorf("load project %d: %w", projectId, err)
	}

	accountOK, accountDetail, err := l.checkAccount(ctx, userId, model.ClaimTypeRefund)
	if err != nil {
		return nil, err
	}

	resolved := abs(onChain-marked) <= l.tolerance &&
		abs(onChain-recorded) <= l.tolerance &&
		project.PoolAmount == funded-refunded &&
		accountOK
	return &ReconcileResult{
		Resolved: resolved,
		Detail: fmt.Sprintf("refund on-chain %d, rows %d, txs %d, pool %d (expected %d), %s",
			onChain, marked, recorded, project.PoolAmount, funded-refunded, accountDetail),
	}, nil
}

// checkReward 链上奖励累计 = 已记录奖励交易之和 = 已标记角色的分成之和
func (l *ReconcileLogic) checkReward(ctx context.Context, projectId, userId int64) (*ReconcileResult, error) {
	onChain, err := l.readClaimed(ctx, projectId, userId, model.ClaimTypeReward)
	if err != nil {
		return nil, err
	}

	recorded, err := l.sum(ctx, &model.ClaimTxModel{}, "project_id = ? AND user_id = ? AND claim_type = ?", projectId, userId, model.ClaimTypeReward)
	if err != nil {
		return nil, fmt.Errorf("sum reward txs: %w", err)
	}

	var project model.ProjectModel
	if err := l.db.WithContext(ctx).First(&project, projectId).Error; err != nil {
		return nil, fmt.Errorf("load project %d: %w", projectId, err)
	}
	roles, err := l.calculator.RewardRoles(ctx, &project, userId)
	if err != nil {
		return nil, err
	}
	shares := l.calculator.Shares(project.PoolAmount)
	var flagged int64
	if roles.Builder && project.BuilderClaimed {
		flagged += shares.Builder
	}
	if roles.Submitter && project.SubmitterClaimed {
		flagged += shares.Submitter
	}

	accountOK, accountDetail, err := l.checkAccount(ctx, userId, model.ClaimTypeReward)
	if err != nil {
		return nil, err
	}

	resolved := abs(onChain-recorded) <= l.tolerance &&
		abs(onChain-flagged) <= l.tolerance &&
		accountOK
	return &ReconcileResult{
		Resolved: resolved,
		Detail:   fmt.Sprintf("reward on-chain %d, txs %d, flagged shares %d, %s", onChain, recorded, flagged, accountDetail),
	}, nil
}

// checkAccount 用户汇总等于该用户全部已记录交易之和
func (l *ReconcileLogic) checkAccount(ctx context.Context, userId int64, claimType model.ClaimType) (bool, string, error) {
	recorded, err := l.sum(ctx, &model.ClaimTxModel{}, "user_id = ? AND claim_type = ?", userId, claimType)
	if err != nil {
		return false, "", fmt.Errorf("sum user %s txs: %w", claimType, err)
	}

	var account model.UserAccountModel
	res := l.db.WithContext(ctx).Where("user_id = ?", userId).Limit(1).Find(&account)
	if res.Error != nil {
		return false, "", fmt.Errorf("load user account %d: %w", userId, res.Error)
	}

	total := account.ClaimedRefundsTotal
	if claimType == model.ClaimTypeReward {
		total = account.ClaimedRewardsTotal
	}
	return total == recorded, fmt.Sprintf("account %d (expected %d)", total, recorded), nil
}

// repair 按已记录的领取交易重建失败步骤的账本投影，写入均以读到的旧值为条件
func (l *ReconcileLogic) repair(ctx context.Context, task model.ReconciliationTaskModel) error {
	switch task.ClaimType {
	case model.ClaimTypeRefund:
		if err := l.repairRefundRows(ctx, task.TxId); err != nil {
			return err
		}
		if err := l.repairPool(ctx, task.ProjectId); err != nil {
			return err
		}
	case model.ClaimTypeReward:
	default:
		return fmt.Errorf("task %d has unknown claim type %q", task.Id, task.ClaimType)
	}
	return l.repairAccount(ctx, task.UserId, task.ClaimType)
}

// repairRefundRows 退款交易未标记任何出资记录时按原规则重新分配
func (l *ReconcileLogic) repairRefundRows(ctx context.Context, txId string) error {
	if txId == "" {
		return nil
	}
	db := l.db.WithContext(ctx)

	var claim model.ClaimTxModel
	res := db.Where("tx_id = ?", txId).Limit(1).Find(&claim)
	if res.Error != nil {
		return fmt.Errorf("load claim tx %s: %w", txId, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil
	}

	var marked int64
	if err := db.Model(&model.FundingRecordModel{}).Where("refund_tx_id = ?", txId).Count(&marked).Error; err != nil {
		return fmt.Errorf("count rows for refund tx %s: %w", txId, err)
	}
	if marked > 0 {
		return nil
	}

	var rows []model.FundingRecordModel
	err := db.Where("project_id = ? AND funder_id = ? AND refunded_at IS NULL", claim.ProjectId, claim.UserId).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return fmt.Errorf("load funding rows: %w", err)
	}
	selected, _ := AllocateRefundRows(rows, claim.Amount)
	if len(selected) == 0 {
		return nil
	}

	ids := make([]int64, len(selected))
	for i, row := range selected {
		ids[i] = row.Id
	}
	res = db.Model(&model.FundingRecordModel{}).
		Where("id IN ? AND refunded_at IS NULL", ids).
		Updates(map[string]interface{}{"refunded_at": claim.CreatedAt, "refund_tx_id": claim.TxId})
	if res.Error != nil {
		return fmt.Errorf("mark rows for refund tx %s: %w", txId, res.Error)
	}
	logger.Info("Repaired refund tx %s: marked %d funding rows", txId, res.RowsAffected)
	return nil
}

// repairPool 资金池重置为出资总额减退款总额
func (l *ReconcileLogic) repairPool(ctx context.Context, projectId int64) error {
	var project model.ProjectModel
	if err := l.db.WithContext(ctx).First(&project, projectId).Error; err != nil {
		return fmt.Errorf("load project %d: %w", projectId, err)
	}
	funded, err := l.sum(ctx, &model.FundingRecordModel{}, "project_id = ?", projectId)
	if err != nil {
		return fmt.Errorf("sum project funding: %w", err)
	}
	refunded, err := l.sum(ctx, &model.ClaimTxModel{}, "project_id = ? AND claim_type = ?", projectId, model.ClaimTypeRefund)
	if err != nil {
		return fmt.Errorf("sum project refunds: %w", err)
	}
	expected := funded - refunded
	if project.PoolAmount == expected {
		return nil
	}

	res := l.db.WithContext(ctx).Model(&model.ProjectModel{}).
		Where("id = ? AND pool_amount = ?", projectId, project.PoolAmount).
		Update("pool_amount", expected)
	if res.Error != nil {
		return fmt.Errorf("repair pool of project %d: %w", projectId, res.Error)
	}
	if res.RowsAffected > 0 {
		logger.Info("Repaired pool of project %d: %d -> %d", projectId, project.PoolAmount, expected)
	}
	return nil
}

// repairAccount 用户汇总低于已记录交易之和时补齐
func (l *ReconcileLogic) repairAccount(ctx context.Context, userId int64, claimType model.ClaimType) error {
	db := l.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.UserAccountModel{UserId: userId}).Error; err != nil {
		return fmt.Errorf("ensure user account %d: %w", userId, err)
	}

	var account model.UserAccountModel
	if err := db.First(&account, "user_id = ?", userId).Error; err != nil {
		return fmt.Errorf("load user account %d: %w", userId, err)
	}
	recorded, err := l.sum(ctx, &model.ClaimTxModel{}, "user_id = ? AND claim_type = ?", userId, claimType)
	if err != nil {
		return fmt.Errorf("sum user %s txs: %w", claimType, err)
	}

	column, current := "claimed_refunds_total", account.ClaimedRefundsTotal
	if claimType == model.ClaimTypeReward {
		column, current = "claimed_rewards_total", account.ClaimedRewardsTotal
	}
	if current >= recorded {
		return nil
	}

	res := db.Model(&model.UserAccountModel{}).
		Where("user_id = ? AND "+column+" = ?", userId, current).
		Update(column, recorded)
	if res.Error != nil {
		return fmt.Errorf("repair user account %d: %w", userId, res.Error)
	}
	if res.RowsAffected > 0 {
		logger.Info("Repaired %s of user %d: %d -> %d", column, userId, current, recorded)
	}
	return nil
}
