package model

import (
	"time"
)

// ProjectModel 项目资金池模型
type ProjectModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title       string `json:"title"`
	SubmitterId int64  `json:"submitter_id" gorm:"index"` // 想法提交者

	// 状态
	Status ProjectStatus `json:"status" gorm:"type:varchar(32);default:'open';index"`

	// 资金池，以代币最小单位计
	PoolAmount int64 `json:"pool_amount" gorm:"not null;default:0"`

	// 奖励领取标记，只会从 false 变为 true
	BuilderClaimed   bool `json:"builder_claimed" gorm:"not null;default:false"`
	SubmitterClaimed bool `json:"submitter_claimed" gorm:"not null;default:false"`

	LastActivityAt time.Time `json:"last_activity_at"`
}

// ProjectStatus 项目状态
type ProjectStatus string

const (
	ProjectStatusOpen          ProjectStatus = "open"           // 募集中
	ProjectStatusVoting        ProjectStatus = "voting"         // 投票中
	ProjectStatusCompleted     ProjectStatus = "completed"      // 已完成
	ProjectStatusAlreadyExists ProjectStatus = "already_exists" // 已有现成方案
)

// TableName 自定义表名
func (ProjectModel) TableName() string {
	return "project"
}
