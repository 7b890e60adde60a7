package model

import (
	"time"
)

// SolutionReportModel 已有方案举报
type SolutionReportModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId  int64        `json:"project_id" gorm:"not null;index"`
	ReporterId int64        `json:"reporter_id" gorm:"not null"`
	Url        string       `json:"url"`
	Status     ReportStatus `json:"status" gorm:"type:varchar(32);default:'pending'"`
	ReviewedBy *int64       `json:"reviewed_by"`
	ReviewedAt *time.Time   `json:"reviewed_at"`
	Note       string       `json:"note" gorm:"type:text"`
}

// ReportStatus 举报状态
type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"   // 待审核
	ReportStatusApproved  ReportStatus = "approved"  // 已采纳
	ReportStatusDismissed ReportStatus = "dismissed" // 已驳回
)

// TableName 自定义表名
func (SolutionReportModel) TableName() string {
	return "solution_report"
}
