// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"lore-context-api/internal/domain/entity"
)

// ArcRepository 篇章仓储接口
type ArcRepository interface {
	// Create 创建篇章
	Create(ctx context.Context, arc *entity.Arc) error

	// GetByID 根据 ID 获取篇章
	GetByID(ctx context.Context, id string) (*entity.Arc, error)

	// Update 更新篇章
	Update(ctx context.Context, arc *entity.Arc) error

	// Delete 删除篇章
	Delete(ctx context.Context, id string) error

	// ListByProject 获取项目篇章列表（按 sort_order 升序）
	ListByProject(ctx context.Context, projectID string) ([]*entity.Arc, error)

	// GetLatestActive 获取最新的活跃篇章（sort_order 最大）
	GetLatestActive(ctx context.Context, projectID string) (*entity.Arc, error)

	// UpdateSummary 更新篇章摘要
	UpdateSummary(ctx context.Context, id, summary string) error
}
