package model

import (
	"time"
)

// UserAccountModel 用户领取汇总，累计值只增不减
type UserAccountModel struct {
	UserId    int64     `json:"user_id" gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ClaimedRefundsTotal int64   `json:"claimed_refunds_total" gorm:"not null;default:0"`
	ClaimedRewardsTotal int64   `json:"claimed_rewards_total" gorm:"not null;default:0"`
	LastRefundTxId      *string `json:"last_refund_tx_id" gorm:"type:varchar(66)"`
	LastRewardTxId      *string `json:"last_reward_tx_id" gorm:"type:varchar(66)"`
}

// TableName 自定义表名
func (UserAccountModel) TableName() string {
	return "user_account"
}
