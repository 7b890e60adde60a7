package model

import (
	"time"
)

// BuildModel 项目构建提交
type BuildModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId  int64       `json:"project_id" gorm:"not null;index"`
	BuilderId  int64       `json:"builder_id" gorm:"not null;index"`
	Status     BuildStatus `json:"status" gorm:"type:varchar(32);default:'pending'"`
	ApprovedAt *time.Time  `json:"approved_at"`
}

// BuildStatus 构建状态
type BuildStatus string

const (
	BuildStatusPending  BuildStatus = "pending"  // 待审核
	BuildStatusApproved BuildStatus = "approved" // 已通过
	BuildStatusRejected BuildStatus = "rejected" // 已拒绝
)

// TableName 自定义表名
func (BuildModel) TableName() string {
	return "build"
}
