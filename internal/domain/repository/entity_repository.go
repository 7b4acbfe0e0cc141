// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"lore-context-api/internal/domain/entity"
)

// BibleEntityFilter 设定条目过滤条件
type BibleEntityFilter struct {
	// PrefixKey 按分类前缀过滤，如 CHARACTER
	PrefixKey string
	// Name 按名称模糊匹配
	Name string
}

// BibleEntityRepository 设定集条目仓储接口
type BibleEntityRepository interface {
	// Create 创建条目
	Create(ctx context.Context, be *entity.BibleEntity) error

	// GetByID 根据 ID 获取条目
	GetByID(ctx context.Context, id string) (*entity.BibleEntity, error)

	// GetByIDs 批量获取条目，结果保持入参顺序，缺失的 ID 被跳过
	GetByIDs(ctx context.Context, ids []string) ([]*entity.BibleEntity, error)

	// Update 更新条目
	Update(ctx context.Context, be *entity.BibleEntity) error

	// Delete 删除条目
	Delete(ctx context.Context, id string) error

	// ListByProject 获取项目条目列表
	ListByProject(ctx context.Context, projectID string, filter *BibleEntityFilter, pagination Pagination) (*PagedResult[*entity.BibleEntity], error)

	// GetByName 根据完整条目名获取条目
	GetByName(ctx context.Context, projectID, entityName string) (*entity.BibleEntity, error)

	// SearchByKeyword 名称/描述的关键字检索（ILIKE）
	SearchByKeyword(ctx context.Context, projectID, query string, limit int) ([]*entity.BibleEntity, error)

	// ListByPrefix 获取指定分类前缀的全部条目
	ListByPrefix(ctx context.Context, projectID, prefixKey string) ([]*entity.BibleEntity, error)

	// TopByLookup 按命中次数取前 N 条，用于设定集索引
	TopByLookup(ctx context.Context, projectID string, limit int) ([]*entity.BibleEntity, error)

	// IncrementLookup 累加命中次数并刷新最近命中时间
	IncrementLookup(ctx context.Context, ids []string) error

	// UpdateVectorID 更新向量 ID
	UpdateVectorID(ctx context.Context, id, vectorID string) error

	// ListBySourceChapters 获取出处在给定章节号的条目
	ListBySourceChapters(ctx context.Context, projectID string, chapters []int) ([]*entity.BibleEntity, error)
}
