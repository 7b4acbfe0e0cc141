package messaging

import (
	"context"

	"lore-context-api/internal/application/retrieval"
)

// StreamUsageRecorder 将检索命中反馈发布到 Redis Stream，
// 由 feedback worker 异步消费落库，避免阻塞上下文组装请求。
type StreamUsageRecorder struct {
	producer *Producer
}

func NewStreamUsageRecorder(producer *Producer) *StreamUsageRecorder {
	return &StreamUsageRecorder{producer: producer}
}

var _ retrieval.UsageRecorder = (*StreamUsageRecorder)(nil)

func (r *StreamUsageRecorder) RecordUsage(ctx context.Context, projectID string, entityIDs []string) error {
	if r == nil || r.producer == nil {
		return nil
	}
	if projectID == "" || len(entityIDs) == 0 {
		return nil
	}

	_, err := r.producer.PublishUsageFeedback(ctx, &UsageFeedbackMessage{
		ProjectID: projectID,
		EntityIDs: entityIDs,
	})
	return err
}
