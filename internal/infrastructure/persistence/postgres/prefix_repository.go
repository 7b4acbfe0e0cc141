// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"lore-context-api/internal/domain/entity"
)

// PrefixConfigRepository 分类前缀配置仓储实现
type PrefixConfigRepository struct {
	client *Client
}

// NewPrefixConfigRepository 创建前缀配置仓储
func NewPrefixConfigRepository(client *Client) *PrefixConfigRepository {
	return &PrefixConfigRepository{client: client}
}

// Upsert 创建或更新前缀配置
func (r *PrefixConfigRepository) Upsert(ctx context.Context, cfg *entity.PrefixConfig) error {
	ctx, span := tracer.Start(ctx, "postgres.PrefixConfigRepository.Upsert")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "prefix_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"label", "description", "sort_order", "updated_at"}),
	}).Create(cfg).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upsert prefix config: %w", err)
	}
	return nil
}

// ListByProject 获取项目前缀配置
func (r *PrefixConfigRepository) ListByProject(ctx context.Context, projectID string) ([]*entity.PrefixConfig, error) {
	ctx, span := tracer.Start(ctx, "postgres.PrefixConfigRepository.ListByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var rows []*entity.PrefixConfig
	if err := db.Where("project_id = ?", projectID).
		Order("sort_order ASC, prefix_key ASC").
		Find(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list prefix configs: %w", err)
	}
	return rows, nil
}

// Delete 删除前缀配置
func (r *PrefixConfigRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.PrefixConfigRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.PrefixConfig{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete prefix config: %w", err)
	}
	return nil
}
