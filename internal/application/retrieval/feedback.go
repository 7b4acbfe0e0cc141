package retrieval

import (
	"context"

	"lore-context-api/internal/domain/repository"
	"lore-context-api/pkg/logger"
	"lore-context-api/pkg/metrics"
)

// UsageRecorder 记录设定条目被检索命中的反馈。
// 实现可以直接落库，也可以发布到消息流异步处理。
type UsageRecorder interface {
	RecordUsage(ctx context.Context, projectID string, entityIDs []string) error
}

// RepoUsageRecorder 直接落库的反馈记录器，由独立 worker 消费流时使用。
type RepoUsageRecorder struct {
	entities repository.BibleEntityRepository
}

// NewRepoUsageRecorder 创建直接落库的反馈记录器
func NewRepoUsageRecorder(entityRepo repository.BibleEntityRepository) *RepoUsageRecorder {
	return &RepoUsageRecorder{entities: entityRepo}
}

// RecordUsage 累加命中次数
func (r *RepoUsageRecorder) RecordUsage(ctx context.Context, projectID string, entityIDs []string) error {
	if len(entityIDs) == 0 {
		return nil
	}
	return r.entities.IncrementLookup(ctx, entityIDs)
}

// BestEffortRecord 尽力而为地记录使用反馈，失败只记日志不影响主流程。
func BestEffortRecord(ctx context.Context, rec UsageRecorder, projectID string, entityIDs []string) {
	if rec == nil || len(entityIDs) == 0 {
		return
	}
	if err := rec.RecordUsage(ctx, projectID, entityIDs); err != nil {
		metrics.UsageFeedbackTotal.WithLabelValues("error").Inc()
		logger.Debug(ctx, "usage feedback dropped", "reason", err.Error(), "entity_count", len(entityIDs))
		return
	}
	metrics.UsageFeedbackTotal.WithLabelValues("ok").Inc()
}
