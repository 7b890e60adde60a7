package logic

import (
	"context"
	"fmt"
	"strings"

	"github.com/CalistoMango/TheShipyard-sub001/internal/database"
	"github.com/CalistoMango/TheShipyard-sub001/internal/model"
	"gorm.io/gorm"
)

// ReserveOutcome 预留结果：Reserved、AlreadyUsed 或 ReserveFatal
type ReserveOutcome interface {
	reserveOutcome()
}

// Reserved 交易已被本次请求独占
type Reserved struct {
	Record *model.ClaimTxModel
}

// AlreadyUsed 交易已被消费
type AlreadyUsed struct {
	TxId string
}

// ReserveFatal 存储错误
type ReserveFatal struct {
	Err error
}

func (Reserved) reserveOutcome()     {}
func (AlreadyUsed) reserveOutcome()  {}
func (ReserveFatal) reserveOutcome() {}

// NormalizeTxId 交易哈希统一为小写
func NormalizeTxId(txId string) string {
	return strings.ToLower(strings.TrimSpace(txId))
}

// ReplayGuard 基于 tx_id 唯一约束的防重放
type ReplayGuard struct {
	db *gorm.DB
}

// NewReplayGuard 创建防重放守卫
func NewReplayGuard(db *gorm.DB) *ReplayGuard {
	return &ReplayGuard{db: db}
}

// IsConsumed 只读预检，最终以 Reserve 的唯一约束为准
func (g *ReplayGuard) IsConsumed(ctx context.Context, txId string) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(&model.ClaimTxModel{}).
		Where("tx_id = ?", NormalizeTxId(txId)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check claim tx: %w", err)
	}
	return count > 0, nil
}

// Reserve 插入领取交易记录，唯一约束冲突返回 AlreadyUsed
func (g *ReplayGuard) Reserve(ctx context.Context, record model.ClaimTxModel) ReserveOutcome {
	record.TxId = NormalizeTxId(record.TxId)

	if err := g.db.WithContext(ctx).Create(&record).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return AlreadyUsed{TxId: record.TxId}
		}
		return ReserveFatal{Err: fmt.Errorf("insert claim tx %s: %w", record.TxId, err)}
	}
	return Reserved{Record: &record}
}
