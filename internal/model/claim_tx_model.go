package model

import (
	"time"
)

// ClaimTxModel 已消费的领取交易，tx_id 全局唯一
type ClaimTxModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	TxId      string    `json:"tx_id" gorm:"type:varchar(66);not null;uniqueIndex"`
	UserId    int64     `json:"user_id" gorm:"not null;index"`
	ClaimType ClaimType `json:"claim_type" gorm:"type:varchar(16);not null"`
	Amount    int64     `json:"amount" gorm:"not null"`
	ProjectId int64     `json:"project_id" gorm:"not null;index"`
}

// ClaimType 领取类型
type ClaimType string

const (
	ClaimTypeRefund ClaimType = "refund" // 退款
	ClaimTypeReward ClaimType = "reward" // 奖励
)

// TableName 自定义表名
func (ClaimTxModel) TableName() string {
	return "claim_tx"
}
