package model

import (
	"time"
)

// FundingRecordModel 出资记录，永不删除
type FundingRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId   int64   `json:"project_id" gorm:"not null;index:idx_funding_project_funder"`
	FunderId    int64   `json:"funder_id" gorm:"not null;index:idx_funding_project_funder"`
	Amount      int64   `json:"amount" gorm:"not null"`
	FundingTxId *string `json:"funding_tx_id" gorm:"type:varchar(66);uniqueIndex"`

	// 退款信息，一旦写入不再修改
	RefundedAt *time.Time `json:"refunded_at"`
	RefundTxId *string    `json:"refund_tx_id" gorm:"type:varchar(66);index"`
}

// IsRefunded 是否已退款
func (f *FundingRecordModel) IsRefunded() bool {
	return f.RefundedAt != nil
}

// TableName 自定义表名
func (FundingRecordModel) TableName() string {
	return "funding_record"
}
