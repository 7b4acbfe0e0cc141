// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"lore-context-api/internal/domain/entity"
)

// RelationRepository 条目关系仓储接口
type RelationRepository interface {
	// Create 创建关系
	Create(ctx context.Context, rel *entity.EntityRelation) error

	// GetByID 根据 ID 获取关系
	GetByID(ctx context.Context, id string) (*entity.EntityRelation, error)

	// Update 更新关系
	Update(ctx context.Context, rel *entity.EntityRelation) error

	// Delete 删除关系
	Delete(ctx context.Context, id string) error

	// ListByEntity 获取与条目相关的全部关系（作为任一端）
	ListByEntity(ctx context.Context, projectID, entityID string) ([]*entity.EntityRelation, error)

	// ListByProject 获取项目关系列表
	ListByProject(ctx context.Context, projectID string, pagination Pagination) (*PagedResult[*entity.EntityRelation], error)
}
