package model

import (
	"time"
)

// ReconciliationTaskModel 待人工或定时任务处理的对账信号
type ReconciliationTaskModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Kind      ReconciliationKind   `json:"kind" gorm:"type:varchar(32);not null;index"`
	Status    ReconciliationStatus `json:"status" gorm:"type:varchar(16);default:'pending';index"`
	Attempts  int                  `json:"attempts" gorm:"not null;default:0"`
	ProjectId int64                `json:"project_id"`
	UserId    int64                `json:"user_id"`
	ClaimType ClaimType            `json:"claim_type" gorm:"type:varchar(16)"`
	TxId      string               `json:"tx_id" gorm:"type:varchar(66)"`
	ReportId  int64                `json:"report_id"`
	Detail    string               `json:"detail" gorm:"type:text"`
}

// ReconciliationKind 对账类型
type ReconciliationKind string

const (
	ReconciliationKindReportStatus   ReconciliationKind = "report_status"   // 举报状态写入失败
	ReconciliationKindLedgerDrift    ReconciliationKind = "ledger_drift"    // 账本与链上金额不一致
	ReconciliationKindMutationFailed ReconciliationKind = "mutation_failed" // 账本更新失败
)

// ReconciliationStatus 对账状态
type ReconciliationStatus string

const (
	ReconciliationStatusPending  ReconciliationStatus = "pending"  // 待处理
	ReconciliationStatusResolved ReconciliationStatus = "resolved" // 已处理
)

// TableName 自定义表名
func (ReconciliationTaskModel) TableName() string {
	return "reconciliation_task"
}
