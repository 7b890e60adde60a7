package model

import (
	"time"
)

// ChainCursorModel 链上事件扫描进度
type ChainCursorModel struct {
	Name      string    `json:"name" gorm:"primaryKey;type:varchar(64)"`
	BlockNum  int64     `json:"block_num" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 自定义表名
func (ChainCursorModel) TableName() string {
	return "chain_cursor"
}
