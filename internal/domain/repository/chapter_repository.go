// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"lore-context-api/internal/domain/entity"
)

// ChapterRepository 章节仓储接口
type ChapterRepository interface {
	// Create 创建章节
	Create(ctx context.Context, chapter *entity.Chapter) error

	// GetByID 根据 ID 获取章节
	GetByID(ctx context.Context, id string) (*entity.Chapter, error)

	// Update 更新章节
	Update(ctx context.Context, chapter *entity.Chapter) error

	// Delete 删除章节
	Delete(ctx context.Context, id string) error

	// ListByProject 获取项目章节列表（按章节号升序）
	ListByProject(ctx context.Context, projectID string, pagination Pagination) (*PagedResult[*entity.Chapter], error)

	// GetByNumber 根据章节号获取章节
	GetByNumber(ctx context.Context, projectID string, number int) (*entity.Chapter, error)

	// ListByNumberRange 获取章节号区间 [start, end] 内的章节，按章节号升序
	ListByNumberRange(ctx context.Context, projectID string, start, end int) ([]*entity.Chapter, error)

	// ListByNumbers 获取给定章节号集合的章节，按章节号升序
	ListByNumbers(ctx context.Context, projectID string, numbers []int) ([]*entity.Chapter, error)

	// FindByTitle 按标题模糊匹配章节
	FindByTitle(ctx context.Context, projectID, title string) (*entity.Chapter, error)

	// ListByArc 获取篇章下全部章节，按章节号升序
	ListByArc(ctx context.Context, arcID string) ([]*entity.Chapter, error)

	// NumberBounds 返回项目内最小/最大章节号，无章节时返回 (0, 0)
	NumberBounds(ctx context.Context, projectID string) (int, int, error)

	// UpdateMetadata 更新摘要与画风描述
	UpdateMetadata(ctx context.Context, id, summary, artStyle string) error
}
