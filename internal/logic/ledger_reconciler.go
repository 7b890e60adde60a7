package logic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/CalistoMango/TheShipyard-sub001/internal/logger"
	"github.com/CalistoMango/TheShipyard-sub001/internal/metrics"
	"github.com/CalistoMango/TheShipyard-sub001/internal/model"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// applyTimeout 入账步骤脱离请求取消后的上限
const applyTimeout = 30 * time.Second

// MutationStep 账本更新步骤
type MutationStep string

const (
	StepLoadRows      MutationStep = "load_funding_rows"
	StepMarkRows      MutationStep = "mark_funding_rows"
	StepDecrementPool MutationStep = "decrement_pool"
	StepRewardFlags   MutationStep = "set_reward_flags"
	StepCreditAccount MutationStep = "credit_user_account"
)

// MutationOutcome 单个步骤的结果，各步骤互不影响
type MutationOutcome struct {
	Step         MutationStep
	RowsAffected int64
	Err          error
}

// OK 步骤是否成功
func (o MutationOutcome) OK() bool {
	return o.Err == nil
}

// RefundApplication 退款入账结果
type RefundApplication struct {
	TxId             string
	ProjectId        int64
	UserId           int64
	TotalRefunded    int64 // 链上事件金额
	RefundedRowCount int
	AllocatedAmount  int64 // 标记为已退款的出资记录金额之和
	Drift            int64
	Outcomes         []MutationOutcome
}

// Reconciled 所有步骤成功且偏差在容差内
func (a *RefundApplication) Reconciled() bool {
	return allOK(a.Outcomes) && a.Drift == 0
}

// RewardApplication 奖励入账结果
type RewardApplication struct {
	TxId      string
	ProjectId int64
	UserId    int64
	Amount    int64
	Settled   RewardRoles // 本次标记为已领取的角色
	Matched   bool        // 金额与未领取分成匹配
	Outcomes  []MutationOutcome
}

// Reconciled 所有步骤成功且金额匹配
func (a *RewardApplication) Reconciled() bool {
	return allOK(a.Outcomes) && a.Matched
}

func allOK(outcomes []MutationOutcome) bool {
	for _, o := range outcomes {
		if !o.OK() {
			return false
		}
	}
	return true
}

// AllocateRefundRows 按创建顺序整行分配退款金额，放不下的行跳过，金额用尽即停止
func AllocateRefundRows(rows []model.FundingRecordModel, amount int64) ([]model.FundingRecordModel, int64) {
	remaining := amount
	var selected []model.FundingRecordModel
	for _, row := range rows {
		if remaining <= 0 {
			break
		}
		if row.Amount <= 0 || row.Amount > remaining {
			continue
		}
		selected = append(selected, row)
		remaining -= row.Amount
	}
	return selected, remaining
}

// LedgerReconciler 将已校验的链上领取金额投影到账本
type LedgerReconciler struct {
	db         *gorm.DB
	calculator *ClaimCalculator
	sink       *ReconciliationSink
	clock      clockwork.Clock
	tolerance  int64
}

// NewLedgerReconciler 创建账本对账器
func NewLedgerReconciler(db *gorm.DB, calculator *ClaimCalculator, sink *ReconciliationSink, clock clockwork.Clock, tolerance int64) *LedgerReconciler {
	return &LedgerReconciler{
		db:         db,
		calculator: calculator,
		sink:       sink,
		clock:      clock,
		tolerance:  tolerance,
	}
}

// detach tx_id 已占用，后续步骤不随请求取消
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), applyTimeout)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func (r *LedgerReconciler) record(ctx context.Context, claim *model.ClaimTxModel, outcome MutationOutcome) MutationOutcome {
	status := "ok"
	if outcome.Err != nil {
		status = "error"
		logger.Error("Ledger step %s failed for %s tx %s (project %d, user %d): %v",
			outcome.Step, claim.ClaimType, claim.TxId, claim.ProjectId, claim.UserId, outcome.Err)
		r.sink.Emit(ctx, model.ReconciliationTaskModel{
			Kind:      model.ReconciliationKindMutationFailed,
			ProjectId: claim.ProjectId,
			UserId:    claim.UserId,
			ClaimType: claim.ClaimType,
			TxId:      claim.TxId,
			Detail:    fmt.Sprintf("step %s failed (amount %d): %v", outcome.Step, claim.Amount, outcome.Err),
		})
	}
	metrics.LedgerMutationsTotal.WithLabelValues(string(claim.ClaimType), string(outcome.Step), status).Inc()
	return outcome
}

// ApplyRefund 退款入账：标记出资记录、扣减资金池、累加用户退款总额
func (r *LedgerReconciler) ApplyRefund(ctx context.Context, claim *model.ClaimTxModel) *RefundApplication {
	app := &RefundApplication{
		TxId:          claim.TxId,
		ProjectId:     claim.ProjectId,
		UserId:        claim.UserId,
		TotalRefunded: claim.Amount,
	}
	ctx, cancel := detach(ctx)
	defer cancel()
	db := r.db.WithContext(ctx)
	now := r.clock.Now()

	var rows []model.FundingRecordModel
	err := db.Where("project_id = ? AND funder_id = ? AND refunded_at IS NULL", claim.ProjectId, claim.UserId).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		app.Outcomes = append(app.Outcomes, r.record(ctx, claim, MutationOutcome{Step: StepLoadRows, Err: err}))
	} else {
		selected, remaining := AllocateRefundRows(rows, claim.Amount)
		app.AllocatedAmount = claim.Amount - remaining

		if remaining > r.tolerance {
			app.Drift = remaining
			metrics.LedgerDriftTotal.WithLabelValues(string(claim.ClaimType)).Inc()
			logger.Warn("Refund tx %s drift: on-chain %d, allocated %d over %d rows (project %d, user %d)",
				claim.TxId, claim.Amount, app.AllocatedAmount, len(selected), claim.ProjectId, claim.UserId)
			r.sink.Emit(ctx, model.ReconciliationTaskModel{
				Kind:      model.ReconciliationKindLedgerDrift,
				ProjectId: claim.ProjectId,
				UserId:    claim.UserId,
				ClaimType: claim.ClaimType,
				TxId:      claim.TxId,
				Detail:    fmt.Sprintf("on-chain refund %d, ledger rows allocated %d, unallocated %d", claim.Amount, app.AllocatedAmount, remaining),
			})
		}

		if len(selected) > 0 {
			ids := make([]int64, len(selected))
			for i, row := range selected {
				ids[i] = row.Id
			}
			txId := claim.TxId
			res := db.Model(&model.FundingRecordModel{}).
				Where("id IN ? AND refunded_at IS NULL", ids).
				Updates(map[string]interface{}{"refunded_at": now, "refund_tx_id": txId})
			outcome := MutationOutcome{Step: StepMarkRows, RowsAffected: res.RowsAffected, Err: res.Error}
			if res.Error == nil && res.RowsAffected != int64(len(ids)) {
				logger.Warn("Refund tx %s marked %d of %d funding rows, others refunded concurrently", claim.TxId, res.RowsAffected, len(ids))
			}
			app.RefundedRowCount = int(res.RowsAffected)
			app.Outcomes = append(app.Outcomes, r.record(ctx, claim, outcome))
		}
	}

	res := db.Model(&model.ProjectModel{}).
		Where("id = ?", claim.ProjectId).
		Update("pool_amount", gorm.Expr("pool_amount - ?", claim.Amount))
	poolOutcome := MutationOutcome{Step: StepDecrementPool, RowsAffected: res.RowsAffected, Err: res.Error}
	if res.Error == nil && res.RowsAffected == 0 {
		poolOutcome.Err = errors.New("project row not found")
	}
	app.Outcomes = append(app.Outcomes, r.record(ctx, claim, poolOutcome))

	app.Outcomes = append(app.Outcomes, r.record(ctx, claim, r.creditAccount(ctx, claim, "claimed_refunds_total", "last_refund_tx_id")))

	logger.Info("Applied refund tx %s: project %d user %d amount %d rows %d reconciled=%v",
		claim.TxId, claim.ProjectId, claim.UserId, claim.Amount, app.RefundedRowCount, app.Reconciled())
	return app
}

// ApplyReward 奖励入账：按金额匹配角色并标记已领取、累加用户奖励总额，资金池不变
func (r *LedgerReconciler) ApplyReward(ctx context.Context, claim *model.ClaimTxModel) *RewardApplication {
	app := &RewardApplication{
		TxId:      claim.TxId,
		ProjectId: claim.ProjectId,
		UserId:    claim.UserId,
		Amount:    claim.Amount,
	}
	ctx, cancel := detach(ctx)
	defer cancel()
	db := r.db.WithContext(ctx)

	var project model.ProjectModel
	err := db.First(&project, claim.ProjectId).Error
	if err == nil {
		var roles RewardRoles
		roles, err = r.calculator.RewardRoles(ctx, &project, claim.UserId)
		if err == nil {
			ent := r.calculator.rewardEntitlement(&project, claim.UserId, roles)
			app.Settled, app.Matched = r.matchRoles(ent, claim.Amount)
		}
	}
	if err != nil {
		app.Outcomes = append(app.Outcomes, r.record(ctx, claim, MutationOutcome{Step: StepRewardFlags, Err: err}))
	}

	if err == nil && !app.Matched {
		metrics.LedgerDriftTotal.WithLabelValues(string(claim.ClaimType)).Inc()
		logger.Warn("Reward tx %s amount %d matches no unclaimed share (project %d, user %d)",
			claim.TxId, claim.Amount, claim.ProjectId, claim.UserId)
		r.sink.Emit(ctx, model.ReconciliationTaskModel{
			Kind:      model.ReconciliationKindLedgerDrift,
			ProjectId: claim.ProjectId,
			UserId:    claim.UserId,
			ClaimType: claim.ClaimType,
			TxId:      claim.TxId,
			Detail:    fmt.Sprintf("on-chain reward %d matches no unclaimed share, flags left unchanged", claim.Amount),
		})
	}

	if app.Settled.Any() {
		updates := map[string]interface{}{}
		if app.Settled.Builder {
			updates["builder_claimed"] = true
		}
		if app.Settled.Submitter {
			updates["submitter_claimed"] = true
		}
		res := db.Model(&model.ProjectModel{}).Where("id = ?", claim.ProjectId).Updates(updates)
		app.Outcomes = append(app.Outcomes, r.record(ctx, claim, MutationOutcome{Step: StepRewardFlags, RowsAffected: res.RowsAffected, Err: res.Error}))
	}

	app.Outcomes = append(app.Outcomes, r.record(ctx, claim, r.creditAccount(ctx, claim, "claimed_rewards_total", "last_reward_tx_id")))

	logger.Info("Applied reward tx %s: project %d user %d amount %d builder=%v submitter=%v reconciled=%v",
		claim.TxId, claim.ProjectId, claim.UserId, claim.Amount, app.Settled.Builder, app.Settled.Submitter, app.Reconciled())
	return app
}

// matchRoles 优先匹配全部未领取角色，其次单个角色
func (r *LedgerReconciler) matchRoles(ent *RewardEntitlement, amount int64) (RewardRoles, bool) {
	candidates := []struct {
		roles  RewardRoles
		amount int64
	}{
		{roles: ent.Unclaimed, amount: ent.UnclaimedAmount},
		{roles: RewardRoles{Builder: true}, amount: ent.Shares.Builder},
		{roles: RewardRoles{Submitter: true}, amount: ent.Shares.Submitter},
	}

	for _, c := range candidates {
		if !c.roles.Any() {
			continue
		}
		if c.roles.Builder && !ent.Unclaimed.Builder {
			continue
		}
		if c.roles.Submitter && !ent.Unclaimed.Submitter {
			continue
		}
		if abs(amount-c.amount) <= r.tolerance {
			return c.roles, true
		}
	}
	return RewardRoles{}, false
}

// creditAccount 用户汇总行不存在时先创建，再原子累加
func (r *LedgerReconciler) creditAccount(ctx context.Context, claim *model.ClaimTxModel, totalColumn, lastTxColumn string) MutationOutcome {
	db := r.db.WithContext(ctx)

	err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.UserAccountModel{UserId: claim.UserId}).Error
	if err != nil {
		return MutationOutcome{Step: StepCreditAccount, Err: fmt.Errorf("ensure user account: %w", err)}
	}

	res := db.Model(&model.UserAccountModel{}).
		Where("user_id = ?", claim.UserId).
		Updates(map[string]interface{}{
			totalColumn:  gorm.Expr(totalColumn+" + ?", claim.Amount),
			lastTxColumn: claim.TxId,
		})
	return MutationOutcome{Step: StepCreditAccount, RowsAffected: res.RowsAffected, Err: res.Error}
}
