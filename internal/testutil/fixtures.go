package testutil

import (
	"testing"
	"time"

	"github.com/CalistoMango/TheShipyard-sub001/internal/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Now 测试基准时间
var Now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// SeedProject 写入项目，未设置的活跃时间取 Now
func SeedProject(t *testing.T, db *gorm.DB, project model.ProjectModel) *model.ProjectModel {
	t.Helper()
	if project.Status == "" {
		project.Status = model.ProjectStatusOpen
	}
	if project.LastActivityAt.IsZero() {
		project.LastActivityAt = Now
	}
	require.NoError(t, db.Create(&project).Error)
	return &project
}

// SeedFunding 写入出资记录，createdAt 决定退款分配顺序
func SeedFunding(t *testing.T, db *gorm.DB, projectId, funderId, amount int64, createdAt time.Time) *model.FundingRecordModel {
	t.Helper()
	record := model.FundingRecordModel{
		ProjectId: projectId,
		FunderId:  funderId,
		Amount:    amount,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(&record).Error)
	return &record
}

// SeedBuild 写入构建
func SeedBuild(t *testing.T, db *gorm.DB, projectId, builderId int64, status model.BuildStatus) *model.BuildModel {
	t.Helper()
	build := model.BuildModel{ProjectId: projectId, BuilderId: builderId, Status: status}
	require.NoError(t, db.Create(&build).Error)
	return &build
}

// SeedReport 写入待审核举报
func SeedReport(t *testing.T, db *gorm.DB, projectId, reporterId int64) *model.SolutionReportModel {
	t.Helper()
	report := model.SolutionReportModel{
		ProjectId:  projectId,
		ReporterId: reporterId,
		Url:        "https://example.com/existing",
		Status:     model.ReportStatusPending,
	}
	require.NoError(t, db.Create(&report).Error)
	return &report
}

// ReloadProject 重新读取项目
func ReloadProject(t *testing.T, db *gorm.DB, id int64) model.ProjectModel {
	t.Helper()
	var project model.ProjectModel
	require.NoError(t, db.First(&project, id).Error)
	return project
}

// Tasks 读取指定类型的对账任务
func Tasks(t *testing.T, db *gorm.DB, kind model.ReconciliationKind) []model.ReconciliationTaskModel {
	t.Helper()
	var tasks []model.ReconciliationTaskModel
	require.NoError(t, db.Where("kind = ?", kind).Order("id").Find(&tasks).Error)
	return tasks
}
