package logic

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/CalistoMango/TheShipyard-sub001/internal/chain"
	"github.com/CalistoMango/TheShipyard-sub001/internal/config"
	"github.com/CalistoMango/TheShipyard-sub001/internal/model"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CalculatorConfig 领取规则
type CalculatorConfig struct {
	RefundDelay    time.Duration
	BuilderShare   decimal.Decimal // 0-1
	SubmitterShare decimal.Decimal // 0-1
}

// NewCalculatorConfig 从配置创建
func NewCalculatorConfig(cfg config.ClaimsConfig) CalculatorConfig {
	return CalculatorConfig{
		RefundDelay:    cfg.RefundDelay,
		BuilderShare:   cfg.BuilderShare(),
		SubmitterShare: cfg.SubmitterShare(),
	}
}

// RefundEntitlement 退款资格计算结果
type RefundEntitlement struct {
	ProjectId        int64
	UserId           int64
	TotalEverFunded  int64
	OnChainClaimed   int64
	CumulativeAmount int64
	Delta            int64
}

// RewardRoles 奖励角色
type RewardRoles struct {
	Builder   bool
	Submitter bool
}

// Any 是否持有任一角色
func (r RewardRoles) Any() bool {
	return r.Builder || r.Submitter
}

// RewardShares 项目奖励分成
type RewardShares struct {
	Builder   int64
	Submitter int64
}

// RewardEntitlement 奖励资格计算结果
type RewardEntitlement struct {
	ProjectId        int64
	UserId           int64
	Roles            RewardRoles // 用户持有的角色
	Unclaimed        RewardRoles // 账本中尚未领取的角色
	Shares           RewardShares
	TotalEntitlement int64 // 所有角色分成之和
	UnclaimedAmount  int64
	OnChainClaimed   int64
	CumulativeAmount int64
	Delta            int64
}

// ClaimCalculator 计算用户当前可授权的累计领取金额
type ClaimCalculator struct {
	db    *gorm.DB
	clock clockwork.Clock
	cfg   CalculatorConfig
}

// NewClaimCalculator 创建计算器
func NewClaimCalculator(db *gorm.DB, clock clockwork.Clock, cfg CalculatorConfig) *ClaimCalculator {
	return &ClaimCalculator{db: db, clock: clock, cfg: cfg}
}

// Shares 按资金池计算分成，向下取整到最小单位
func (c *ClaimCalculator) Shares(pool int64) RewardShares {
	p := decimal.NewFromInt(pool)
	return RewardShares{
		Builder:   p.Mul(c.cfg.BuilderShare).Floor().IntPart(),
		Submitter: p.Mul(c.cfg.SubmitterShare).Floor().IntPart(),
	}
}

func (c *ClaimCalculator) loadProject(ctx context.Context, projectId int64) (*model.ProjectModel, error) {
	var project model.ProjectModel
	if err := c.db.WithContext(ctx).First(&project, projectId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "项目不存在")
		}
		return nil, wrapError(KindInternal, err, "获取项目失败")
	}
	return &project, nil
}

// TotalEverFunded 用户对项目的历史出资总额，包含已退款部分
func (c *ClaimCalculator) TotalEverFunded(ctx context.Context, projectId, userId int64) (int64, error) {
	var total int64
	err := c.db.WithContext(ctx).Model(&model.FundingRecordModel{}).
		Where("project_id = ? AND funder_id = ?", projectId, userId).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum funding records: %w", err)
	}
	return total, nil
}

// Refund 计算退款累计授权金额
func (c *ClaimCalculator) Refund(ctx context.Context, projectId, userId int64, onChainClaimed *big.Int) (*RefundEntitlement, error) {
	project, err := c.loadProject(ctx, projectId)
	if err != nil {
		return nil, err
	}

	if project.Status != model.ProjectStatusOpen {
		return nil, newError(KindEligibility, "项目状态为 %s，不允许退款", project.Status)
	}

	elapsed := c.clock.Since(project.LastActivityAt)
	if elapsed < c.cfg.RefundDelay {
		remaining := c.cfg.RefundDelay - elapsed
		days := int64((remaining + 24*time.Hour - 1) / (24 * time.Hour))
		return nil, newError(KindEligibility, "项目仍在活跃期，还需等待 %d 天才能退款", days)
	}

	total, err := c.TotalEverFunded(ctx, projectId, userId)
	if err != nil {
		return nil, wrapError(KindInternal, err, "获取出资记录失败")
	}
	if total <= 0 {
		return nil, newError(KindEligibility, "没有出资记录")
	}

	onChain, ok := chain.BigToInt64(onChainClaimed)
	if !ok {
		return nil, newError(KindEligibility, "没有可领取的退款")
	}

	if total <= onChain {
		return nil, newError(KindEligibility, "没有可领取的退款")
	}

	return &RefundEntitlement{
		ProjectId:        projectId,
		UserId:           userId,
		TotalEverFunded:  total,
		OnChainClaimed:   onChain,
		CumulativeAmount: total,
		Delta:            total - onChain,
	}, nil
}

// RewardRoles 用户在项目中的角色：已通过的构建者或想法提交者
func (c *ClaimCalculator) RewardRoles(ctx context.Context, project *model.ProjectModel, userId int64) (RewardRoles, error) {
	var count int64
	err := c.db.WithContext(ctx).Model(&model.BuildModel{}).
		Where("project_id = ? AND builder_id = ? AND status = ?", project.Id, userId, model.BuildStatusApproved).
		Count(&count).Error
	if err != nil {
		return RewardRoles{}, fmt.Errorf("count approved builds: %w", err)
	}

	return RewardRoles{
		Builder:   count > 0,
		Submitter: project.SubmitterId != 0 && project.SubmitterId == userId,
	}, nil
}

// Reward 计算奖励累计授权金额
func (c *ClaimCalculator) Reward(ctx context.Context, projectId, userId int64, onChainClaimed *big.Int) (*RewardEntitlement, error) {
	project, err := c.loadProject(ctx, projectId)
	if err != nil {
		return nil, err
	}

	if project.Status != model.ProjectStatusCompleted {
		return nil, newError(KindEligibility, "项目尚未完成，不能领取奖励")
	}

	roles, err := c.RewardRoles(ctx, project, userId)
	if err != nil {
		return nil, wrapError(KindInternal, err, "获取角色失败")
	}
	if !roles.Any() {
		return nil, newError(KindForbidden, "只有构建者或想法提交者可以领取奖励")
	}

	ent := c.rewardEntitlement(project, userId, roles)
	if ent.UnclaimedAmount <= 0 {
		return nil, newError(KindEligibility, "奖励已领取")
	}

	onChain, ok := chain.BigToInt64(onChainClaimed)
	if !ok {
		return nil, newError(KindEligibility, "没有可领取的奖励")
	}

	// 账本标记可能滞后于链上，累计金额不超过全部角色分成之和
	cumulative := onChain + ent.UnclaimedAmount
	if cumulative > ent.TotalEntitlement {
		cumulative = ent.TotalEntitlement
	}
	if cumulative <= onChain {
		return nil, newError(KindEligibility, "没有可领取的奖励")
	}

	ent.OnChainClaimed = onChain
	ent.CumulativeAmount = cumulative
	ent.Delta = cumulative - onChain
	return ent, nil
}

func (c *ClaimCalculator) rewardEntitlement(project *model.ProjectModel, userId int64, roles RewardRoles) *RewardEntitlement {
	shares := c.Shares(project.PoolAmount)
	ent := &RewardEntitlement{
		ProjectId: project.Id,
		UserId:    userId,
		Roles:     roles,
		Shares:    shares,
		Unclaimed: RewardRoles{
			Builder:   roles.Builder && !project.BuilderClaimed,
			Submitter: roles.Submitter && !project.SubmitterClaimed,
		},
	}

	if roles.Builder {
		ent.TotalEntitlement += shares.Builder
	}
	if roles.Submitter {
		ent.TotalEntitlement += shares.Submitter
	}
	if ent.Unclaimed.Builder {
		ent.UnclaimedAmount += shares.Builder
	}
	if ent.Unclaimed.Submitter {
		ent.UnclaimedAmount += shares.Submitter
	}
	return ent
}
