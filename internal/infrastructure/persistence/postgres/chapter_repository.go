// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"lore-context-api/internal/domain/entity"
	"lore-context-api/internal/domain/repository"
)

// ChapterRepository 章节仓储实现
type ChapterRepository struct {
	client *Client
}

// NewChapterRepository 创建章节仓储
func NewChapterRepository(client *Client) *ChapterRepository {
	return &ChapterRepository{client: client}
}

// Create 创建章节
func (r *ChapterRepository) Create(ctx context.Context, chapter *entity.Chapter) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(chapter).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create chapter: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取章节
func (r *ChapterRepository) GetByID(ctx context.Context, id string) (*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var chapter entity.Chapter
	if err := db.First(&chapter, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}
	return &chapter, nil
}

// GetByNumber 根据章节号获取章节
func (r *ChapterRepository) GetByNumber(ctx context.Context, projectID string, number int) (*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.GetByNumber")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var chapter entity.Chapter
	if err := db.Where("project_id = ? AND chapter_number = ?", projectID, number).
		First(&chapter).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get chapter by number: %w", err)
	}
	return &chapter, nil
}

// Update 更新章节
func (r *ChapterRepository) Update(ctx context.Context, chapter *entity.Chapter) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(chapter).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update chapter: %w", err)
	}
	return nil
}

// Delete 删除章节
func (r *ChapterRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Chapter{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete chapter: %w", err)
	}
	return nil
}

// ListByProject 获取项目章节列表
func (r *ChapterRepository) ListByProject(ctx context.Context, projectID string, pagination repository.Pagination) (*repository.PagedResult[*entity.Chapter], error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.ListByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.Chapter{}).Where("project_id = ?", projectID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count chapters: %w", err)
	}

	var chapters []*entity.Chapter
	if err := query.Order("chapter_number ASC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&chapters).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}

	return repository.NewPagedResult(chapters, total, pagination), nil
}

// ListByNumberRange 获取章节号区间内的章节
func (r *ChapterRepository) ListByNumberRange(ctx context.Context, projectID string, start, end int) ([]*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.ListByNumberRange")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var chapters []*entity.Chapter
	if err := db.Where("project_id = ? AND chapter_number BETWEEN ? AND ?", projectID, start, end).
		Order("chapter_number ASC").
		Find(&chapters).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list chapters by range: %w", err)
	}
	return chapters, nil
}

// ListByNumbers 获取给定章节号集合的章节
func (r *ChapterRepository) ListByNumbers(ctx context.Context, projectID string, numbers []int) ([]*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.ListByNumbers")
	defer span.End()

	if len(numbers) == 0 {
		return nil, nil
	}

	nums := make(pq.Int64Array, 0, len(numbers))
	for _, n := range numbers {
		nums = append(nums, int64(n))
	}

	db := getDB(ctx, r.client.db)
	var chapters []*entity.Chapter
	if err := db.Where("project_id = ? AND chapter_number = ANY(?)", projectID, nums).
		Order("chapter_number ASC").
		Find(&chapters).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list chapters by numbers: %w", err)
	}
	return chapters, nil
}

// FindByTitle 按标题模糊匹配章节，取章节号最小的一个
func (r *ChapterRepository) FindByTitle(ctx context.Context, projectID, title string) (*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.FindByTitle")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var chapter entity.Chapter
	if err := db.Where("project_id = ? AND title ILIKE ?", projectID, "%"+title+"%").
		Order("chapter_number ASC").
		First(&chapter).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to find chapter by title: %w", err)
	}
	return &chapter, nil
}

// ListByArc 获取篇章下全部章节
func (r *ChapterRepository) ListByArc(ctx context.Context, arcID string) ([]*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.ListByArc")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var chapters []*entity.Chapter
	if err := db.Where("arc_id = ?", arcID).
		Order("chapter_number ASC").
		Find(&chapters).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list chapters by arc: %w", err)
	}
	return chapters, nil
}

// NumberBounds 返回项目内最小/最大章节号
func (r *ChapterRepository) NumberBounds(ctx context.Context, projectID string) (int, int, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.NumberBounds")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var bounds struct {
		Min int
		Max int
	}
	if err := db.Model(&entity.Chapter{}).
		Select("COALESCE(MIN(chapter_number), 0) AS min, COALESCE(MAX(chapter_number), 0) AS max").
		Where("project_id = ?", projectID).
		Scan(&bounds).Error; err != nil {
		span.RecordError(err)
		return 0, 0, fmt.Errorf("failed to get chapter number bounds: %w", err)
	}
	return bounds.Min, bounds.Max, nil
}

// UpdateMetadata 更新摘要与画风描述
func (r *ChapterRepository) UpdateMetadata(ctx context.Context, id, summary, artStyle string) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.UpdateMetadata")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Chapter{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"summary":   summary,
			"art_style": artStyle,
		}).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update chapter metadata: %w", err)
	}
	return nil
}
