package task

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/CalistoMango/TheShipyard-sub001/internal/chain"
	"github.com/CalistoMango/TheShipyard-sub001/internal/config"
	"github.com/CalistoMango/TheShipyard-sub001/internal/logger"
	"github.com/CalistoMango/TheShipyard-sub001/internal/logic"
	"github.com/CalistoMango/TheShipyard-sub001/internal/metrics"
	"github.com/CalistoMango/TheShipyard-sub001/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VaultSyncCursor 资金库事件扫描进度的游标名
const VaultSyncCursor = "vault_sync"

// LogSource 区块日志来源，*chain.Block 即满足
type LogSource interface {
	GetCurrentBlockNumber(ctx context.Context) (int64, error)
	GetBatchBlockLogs(ctx context.Context, contractAddresses []common.Address, topics []common.Hash, fromBlock, toBlock int64) ([]types.Log, error)
}

// VaultSyncJob 扫描资金库事件，补录未经接口上报的出资与领取
type VaultSyncJob struct {
	db      *gorm.DB
	config  *config.Config
	source  LogSource
	vault   *chain.Vault
	funding *logic.FundingLogic
	claims  *logic.ClaimLogic
}

// NewVaultSyncJob 创建资金库同步任务
func NewVaultSyncJob(db *gorm.DB, cfg *config.Config, source LogSource, vault *chain.Vault, funding *logic.FundingLogic, claims *logic.ClaimLogic) *VaultSyncJob {
	return &VaultSyncJob{
		db:      db,
		config:  cfg,
		source:  source,
		vault:   vault,
		funding: funding,
		claims:  claims,
	}
}

// GetName 获取任务名称
func (j *VaultSyncJob) GetName() string {
	return "vault_event_sync"
}

// GetSchedule 获取调度配置
func (j *VaultSyncJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *VaultSyncJob) Execute() {
	if err := j.Sync(context.Background()); err != nil {
		logger.Error("Vault sync failed: %v", err)
	}
}

// Sync 从游标扫描到已确认的最新区块，每批处理完成后推进游标
func (j *VaultSyncJob) Sync(ctx context.Context) error {
	head, err := j.source.GetCurrentBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current block number: %w", err)
	}
	safeHead := head - int64(j.config.Chain.Confirmations)

	from, err := j.loadCursor(ctx)
	if err != nil {
		return err
	}
	if from > safeHead {
		logger.Debug("Vault sync up to date at block %d (head %d)", from, head)
		return nil
	}

	batchSize := j.config.Task.SyncBatchSize
	for from <= safeHead {
		to := from + batchSize - 1
		if to > safeHead {
			to = safeHead
		}

		if err := j.processBatch(ctx, from, to); err != nil {
			return fmt.Errorf("blocks %d-%d: %w", from, to, err)
		}
		if err := j.saveCursor(ctx, to+1); err != nil {
			return err
		}
		metrics.VaultSyncBlock.Set(float64(to))
		from = to + 1
	}

	logger.Info("Vault sync reached block %d (head %d)", safeHead, head)
	return nil
}

// processBatch 批内日志按区块与序号顺序处理，出资先于同批的退款入账
func (j *VaultSyncJob) processBatch(ctx context.Context, from, to int64) error {
	logs, err := j.source.GetBatchBlockLogs(ctx, []common.Address{j.vault.Address()}, j.vault.EventTopics(), from, to)
	if err != nil {
		return fmt.Errorf("error getting logs: %w", err)
	}
	if len(logs) == 0 {
		return nil
	}

	sort.Slice(logs, func(a, b int) bool {
		if logs[a].BlockNumber != logs[b].BlockNumber {
			return logs[a].BlockNumber < logs[b].BlockNumber
		}
		return logs[a].Index < logs[b].Index
	})

	logger.Debug("Processing %d vault logs in blocks %d-%d", len(logs), from, to)
	for _, l := range logs {
		if err := j.apply(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

func (j *VaultSyncJob) apply(ctx context.Context, l types.Log) error {
	if l.Removed {
		return nil
	}

	event, err := j.vault.ParseLog(l)
	if err != nil {
		logger.Warn("Skipping vault log %s#%d: %v", l.TxHash.Hex(), l.Index, err)
		metrics.VaultEventsSyncedTotal.WithLabelValues("unknown", "skipped").Inc()
		return nil
	}

	var applied bool
	if event.Kind == chain.EventFunded {
		applied, err = j.funding.ApplyObservedFunding(ctx, event)
	} else {
		applied, err = j.claims.ApplyObservedClaim(ctx, event)
	}

	result := "duplicate"
	switch {
	case err == nil && applied:
		result = "applied"
	case err == nil:
	case logic.KindOf(err) == logic.KindValidation, logic.KindOf(err) == logic.KindNotFound, errors.Is(err, gorm.ErrRecordNotFound):
		// 无法映射到本地项目或用户的事件不阻塞扫描
		logger.Warn("Skipping %s event in tx %s: %v", event.Kind, event.TxHash.Hex(), err)
		result = "skipped"
		err = nil
	default:
		result = "error"
	}
	metrics.VaultEventsSyncedTotal.WithLabelValues(string(event.Kind), result).Inc()

	if err != nil {
		return fmt.Errorf("failed to apply %s event in tx %s: %w", event.Kind, event.TxHash.Hex(), err)
	}
	return nil
}

// loadCursor 下一个待扫描区块，无记录时从合约部署区块开始
func (j *VaultSyncJob) loadCursor(ctx context.Context) (int64, error) {
	var cursor model.ChainCursorModel
	res := j.db.WithContext(ctx).Where("name = ?", VaultSyncCursor).Limit(1).Find(&cursor)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to load sync cursor: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return j.config.Chain.DeployBlock, nil
	}
	return cursor.BlockNum, nil
}

func (j *VaultSyncJob) saveCursor(ctx context.Context, next int64) error {
	cursor := model.ChainCursorModel{Name: VaultSyncCursor, BlockNum: next}
	err := j.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"block_num", "updated_at"}),
	}).Create(&cursor).Error
	if err != nil {
		return fmt.Errorf("failed to save sync cursor: %w", err)
	}
	return nil
}
