package task

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/CalistoMango/TheShipyard-sub001/internal/config"
	"github.com/CalistoMango/TheShipyard-sub001/internal/logger"
	"github.com/CalistoMango/TheShipyard-sub001/internal/logic"
	"github.com/CalistoMango/TheShipyard-sub001/internal/metrics"
	"github.com/CalistoMango/TheShipyard-sub001/internal/model"
	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReconcileJob 定期复核待处理的对账任务
type ReconcileJob struct {
	db        *gorm.DB
	config    *config.Config
	reconcile *logic.ReconcileLogic
}

// NewReconcileJob 创建对账复核任务
func NewReconcileJob(db *gorm.DB, cfg *config.Config, reconcile *logic.ReconcileLogic) *ReconcileJob {
	return &ReconcileJob{
		db:        db,
		config:    cfg,
		reconcile: reconcile,
	}
}

// GetName 获取任务名称
func (j *ReconcileJob) GetName() string {
	return "reconciliation_sweep"
}

// GetSchedule 获取调度配置
func (j *ReconcileJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *ReconcileJob) Execute() {
	if _, err := j.Sweep(context.Background()); err != nil {
		logger.Error("Reconciliation sweep failed: %v", err)
	}
}

// Sweep 并发复核一批待处理任务，返回本轮解决的数量
func (j *ReconcileJob) Sweep(ctx context.Context) (int, error) {
	var tasks []model.ReconciliationTaskModel
	err := j.db.WithContext(ctx).
		Where("status = ? AND attempts < ?", model.ReconciliationStatusPending, j.config.Task.MaxAttempts).
		Order("id ASC").
		Limit(j.config.Task.ReconcileBatch).
		Find(&tasks).Error
	if err != nil {
		return 0, fmt.Errorf("failed to fetch pending reconciliation tasks: %w", err)
	}
	if len(tasks) == 0 {
		return 0, nil
	}

	pool, err := ants.NewPool(j.config.Task.PoolSize)
	if err != nil {
		return 0, fmt.Errorf("failed to create pool: %w", err)
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		resolved atomic.Int64
	)
	for _, task := range tasks {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if j.process(ctx, task) {
				resolved.Add(1)
			}
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit reconciliation task %d to pool: %v", task.Id, err)
		}
	}
	wg.Wait()

	logger.Info("Reconciliation sweep resolved %d of %d tasks", resolved.Load(), len(tasks))
	return int(resolved.Load()), nil
}

// process 复核单个任务，未解决时累加尝试次数
func (j *ReconcileJob) process(ctx context.Context, task model.ReconciliationTaskModel) bool {
	log := logger.With(
		zap.Int64("task_id", task.Id),
		zap.String("kind", string(task.Kind)),
		zap.Int64("project_id", task.ProjectId),
		zap.Int64("user_id", task.UserId),
	)

	result, err := j.reconcile.Resolve(ctx, task)
	if err == nil && result.Resolved {
		res := j.db.WithContext(ctx).Model(&model.ReconciliationTaskModel{}).
			Where("id = ? AND status = ?", task.Id, model.ReconciliationStatusPending).
			Update("status", model.ReconciliationStatusResolved)
		if res.Error != nil {
			log.Error("failed to mark task resolved: %v", res.Error)
			metrics.ReconciliationTasksTotal.WithLabelValues(string(task.Kind), "error").Inc()
			return false
		}
		log.Info("reconciliation task resolved: %s", result.Detail)
		metrics.ReconciliationTasksTotal.WithLabelValues(string(task.Kind), "resolved").Inc()
		return true
	}

	outcome := "unresolved"
	if err != nil {
		outcome = "error"
		log.Warn("reconciliation check failed (attempt %d): %v", task.Attempts+1, err)
	} else {
		log.Warn("ledger still differs from chain (attempt %d): %s", task.Attempts+1, result.Detail)
	}
	metrics.ReconciliationTasksTotal.WithLabelValues(string(task.Kind), outcome).Inc()

	if err := j.db.WithContext(ctx).Model(&model.ReconciliationTaskModel{}).
		Where("id = ?", task.Id).
		Update("attempts", gorm.Expr("attempts + 1")).Error; err != nil {
		log.Error("failed to record attempt: %v", err)
		return false
	}
	if task.Attempts+1 >= j.config.Task.MaxAttempts {
		log.Error("reconciliation task gave up after %d attempts, manual intervention required: %s", task.Attempts+1, task.Detail)
	}
	return false
}
