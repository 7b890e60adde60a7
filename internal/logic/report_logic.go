package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/CalistoMango/TheShipyard-sub001/internal/logger"
	"github.com/CalistoMango/TheShipyard-sub001/internal/model"
	"github.com/CalistoMango/TheShipyard-sub001/internal/retry"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

// closedStatuses 项目终态
var closedStatuses = []model.ProjectStatus{model.ProjectStatusCompleted, model.ProjectStatusAlreadyExists}

// ReportApproval 举报审核结果
type ReportApproval struct {
	ReportId         int64
	ProjectId        int64
	ReportStatus     model.ReportStatus
	AlreadyCompleted bool // 项目已被构建审核完成，举报被驳回
	Partial          bool // 项目状态已变更但举报状态未写入，等待对账
}

// BuildApproval 构建审核结果
type BuildApproval struct {
	BuildId   int64
	ProjectId int64
	BuilderId int64
}

// ReportLogic 举报与构建审核，两条路径通过条件更新争夺项目终态
type ReportLogic struct {
	db     *gorm.DB
	sink   *ReconciliationSink
	policy retry.Policy
	clock  clockwork.Clock
}

// NewReportLogic 创建审核业务逻辑
func NewReportLogic(db *gorm.DB, sink *ReconciliationSink, policy retry.Policy, clock clockwork.Clock) *ReportLogic {
	return &ReportLogic{db: db, sink: sink, policy: policy, clock: clock}
}

// ApproveSolutionReport 采纳已有方案举报，项目已完成时改为驳回
func (l *ReportLogic) ApproveSolutionReport(ctx context.Context, reportId, adminId int64) (*ReportApproval, error) {
	if reportId <= 0 {
		return nil, newError(KindValidation, "无效的举报ID")
	}

	var report model.SolutionReportModel
	if err := l.db.WithContext(ctx).First(&report, reportId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "举报不存在")
		}
		return nil, wrapError(KindInternal, err, "获取举报失败")
	}
	if report.Status != model.ReportStatusPending {
		return nil, newError(KindConflict, "举报已处理")
	}

	// 条件更新是唯一的决策点
	res := l.db.WithContext(ctx).Model(&model.ProjectModel{}).
		Where("id = ? AND status NOT IN ?", report.ProjectId, closedStatuses).
		Update("status", model.ProjectStatusAlreadyExists)
	if res.Error != nil {
		return nil, wrapError(KindInternal, res.Error, "更新项目状态失败")
	}

	approval := &ReportApproval{
		ReportId:     report.Id,
		ProjectId:    report.ProjectId,
		ReportStatus: model.ReportStatusApproved,
	}

	if res.RowsAffected == 0 {
		var project model.ProjectModel
		if err := l.db.WithContext(ctx).First(&project, report.ProjectId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, newError(KindNotFound, "项目不存在")
			}
			return nil, wrapError(KindInternal, err, "获取项目失败")
		}
		if project.Status == model.ProjectStatusCompleted {
			approval.ReportStatus = model.ReportStatusDismissed
			approval.AlreadyCompleted = true
			logger.Info("Report %d dismissed, project %d already completed by build approval", report.Id, report.ProjectId)
		}
	} else {
		logger.Info("Project %d marked already_exists by report %d (admin %d)", report.ProjectId, report.Id, adminId)
	}

	note := ""
	if approval.AlreadyCompleted {
		note = "project already completed"
	}
	if err := l.writeReportStatus(ctx, report.Id, report.ProjectId, approval.ReportStatus, adminId, note); err != nil {
		approval.Partial = true
		if !errors.Is(err, retry.ErrExhausted) {
			logger.Error("Report %d status write failed after project transition: %v", report.Id, err)
		}
	}
	return approval, nil
}

// writeReportStatus 项目状态已提交，举报状态按重试策略写入，耗尽时转入对账
func (l *ReportLogic) writeReportStatus(ctx context.Context, reportId, projectId int64, status model.ReportStatus, adminId int64, note string) error {
	ctx = context.WithoutCancel(ctx)
	now := l.clock.Now()
	updates := map[string]interface{}{
		"status":      status,
		"reviewed_by": adminId,
		"reviewed_at": now,
	}
	if note != "" {
		updates["note"] = note
	}

	write := func() error {
		res := l.db.WithContext(ctx).Model(&model.SolutionReportModel{}).
			Where("id = ? AND status = ?", reportId, model.ReportStatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			logger.Warn("Report %d was no longer pending when writing status %s", reportId, status)
		}
		return nil
	}

	onExhausted := func(e retry.Exhausted) {
		l.sink.Emit(ctx, model.ReconciliationTaskModel{
			Kind:      model.ReconciliationKindReportStatus,
			ProjectId: projectId,
			ReportId:  reportId,
			Detail:    fmt.Sprintf("report status %s not written after %d attempts: %v", status, e.Attempts, e.Err),
		})
	}

	return l.policy.Do(ctx, "write_report_status", write, onExhausted)
}

// SyncReportStatus 按项目当前状态补写待处理举报的状态
func (l *ReportLogic) SyncReportStatus(ctx context.Context, reportId int64) (model.ReportStatus, error) {
	var report model.SolutionReportModel
	if err := l.db.WithContext(ctx).First(&report, reportId).Error; err != nil {
		return "", err
	}
	if report.Status != model.ReportStatusPending {
		return report.Status, nil
	}

	var project model.ProjectModel
	if err := l.db.WithContext(ctx).First(&project, report.ProjectId).Error; err != nil {
		return "", err
	}

	var status model.ReportStatus
	note := "status restored by reconciliation"
	switch project.Status {
	case model.ProjectStatusAlreadyExists:
		status = model.ReportStatusApproved
	case model.ProjectStatusCompleted:
		status = model.ReportStatusDismissed
		note = "project already completed"
	default:
		return report.Status, fmt.Errorf("project %d status %s does not settle report %d", project.Id, project.Status, reportId)
	}

	err := l.db.WithContext(ctx).Model(&model.SolutionReportModel{}).
		Where("id = ? AND status = ?", reportId, model.ReportStatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"reviewed_at": l.clock.Now(),
			"note":        note,
		}).Error
	if err != nil {
		return "", err
	}
	return status, nil
}

// ApproveBuild 通过构建并将项目置为已完成，项目已处于终态时返回冲突
func (l *ReportLogic) ApproveBuild(ctx context.Context, buildId, adminId int64) (*BuildApproval, error) {
	if buildId <= 0 {
		return nil, newError(KindValidation, "无效的构建ID")
	}

	var build model.BuildModel
	if err := l.db.WithContext(ctx).First(&build, buildId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "构建不存在")
		}
		return nil, wrapError(KindInternal, err, "获取构建失败")
	}
	if build.Status != model.BuildStatusPending {
		return nil, newError(KindConflict, "构建已处理")
	}

	now := l.clock.Now()
	tx := l.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	res := tx.Model(&model.ProjectModel{}).
		Where("id = ? AND status NOT IN ?", build.ProjectId, closedStatuses).
		Updates(map[string]interface{}{
			"status":           model.ProjectStatusCompleted,
			"last_activity_at": now,
		})
	if res.Error != nil {
		tx.Rollback()
		return nil, wrapError(KindInternal, res.Error, "更新项目状态失败")
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, newError(KindConflict, "项目已完成或已有现成方案")
	}

	res = tx.Model(&model.BuildModel{}).
		Where("id = ? AND status = ?", build.Id, model.BuildStatusPending).
		Updates(map[string]interface{}{
			"status":      model.BuildStatusApproved,
			"approved_at": now,
		})
	if res.Error != nil {
		tx.Rollback()
		return nil, wrapError(KindInternal, res.Error, "更新构建状态失败")
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, newError(KindConflict, "构建已处理")
	}

	if err := tx.Commit().Error; err != nil {
		return nil, wrapError(KindInternal, err, "提交事务失败")
	}

	logger.Info("Build %d approved by admin %d, project %d completed", build.Id, adminId, build.ProjectId)
	return &BuildApproval{BuildId: build.Id, ProjectId: build.ProjectId, BuilderId: build.BuilderId}, nil
}
