// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"lore-context-api/internal/domain/entity"
)

// PrefixConfigRepository 分类前缀配置仓储接口
type PrefixConfigRepository interface {
	// Upsert 创建或更新前缀配置（project_id + prefix_key 唯一）
	Upsert(ctx context.Context, cfg *entity.PrefixConfig) error

	// ListByProject 获取项目前缀配置（按 sort_order 升序）
	ListByProject(ctx context.Context, projectID string) ([]*entity.PrefixConfig, error)

	// Delete 删除前缀配置
	Delete(ctx context.Context, id string) error
}
