// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"lore-context-api/internal/domain/entity"
)

// ChunkRepository 资料切片仓储接口
type ChunkRepository interface {
	// Create 创建切片
	Create(ctx context.Context, chunk *entity.Chunk) error

	// CreateBatch 批量创建切片
	CreateBatch(ctx context.Context, chunks []*entity.Chunk) error

	// GetByID 根据 ID 获取切片
	GetByID(ctx context.Context, id string) (*entity.Chunk, error)

	// GetByIDs 批量获取切片，结果保持入参顺序，缺失的 ID 被跳过
	GetByIDs(ctx context.Context, ids []string) ([]*entity.Chunk, error)

	// Delete 删除切片
	Delete(ctx context.Context, id string) error

	// DeleteByChapter 删除章节下全部切片
	DeleteByChapter(ctx context.Context, chapterID string) error

	// ListByProject 获取项目切片列表
	ListByProject(ctx context.Context, projectID string, pagination Pagination) (*PagedResult[*entity.Chunk], error)

	// ListByChapter 获取章节下全部切片
	ListByChapter(ctx context.Context, chapterID string) ([]*entity.Chunk, error)

	// SearchByKeyword 内容关键字检索（ILIKE），arcID 非 nil 时限定篇章
	SearchByKeyword(ctx context.Context, projectID, query string, arcID *string, limit int) ([]*entity.Chunk, error)
}
