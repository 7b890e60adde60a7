package logic

import (
	"context"

	"github.com/CalistoMango/TheShipyard-sub001/internal/logger"
	"github.com/CalistoMango/TheShipyard-sub001/internal/metrics"
	"github.com/CalistoMango/TheShipyard-sub001/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReconciliationSink 持久化对账信号，写入失败时以错误日志兜底
type ReconciliationSink struct {
	db *gorm.DB
}

// NewReconciliationSink 创建对账信号出口
func NewReconciliationSink(db *gorm.DB) *ReconciliationSink {
	return &ReconciliationSink{db: db}
}

// Emit 记录一条待对账任务
func (s *ReconciliationSink) Emit(ctx context.Context, task model.ReconciliationTaskModel) {
	task.Status = model.ReconciliationStatusPending
	metrics.ReconciliationSignalsTotal.WithLabelValues(string(task.Kind)).Inc()

	log := logger.With(
		zap.String("kind", string(task.Kind)),
		zap.Int64("project_id", task.ProjectId),
		zap.Int64("user_id", task.UserId),
		zap.String("claim_type", string(task.ClaimType)),
		zap.String("tx_id", task.TxId),
		zap.Int64("report_id", task.ReportId),
	)

	// 请求已取消时仍需落库
	if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(&task).Error; err != nil {
		log.Error("needs reconciliation (signal not persisted: %v): %s", err, task.Detail)
		return
	}
	log.Warn("needs reconciliation #%d: %s", task.Id, task.Detail)
}
