// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"lore-context-api/internal/domain/entity"
	"lore-context-api/internal/domain/repository"
)

// ChunkRepository 资料切片仓储实现
type ChunkRepository struct {
	client *Client
}

// NewChunkRepository 创建切片仓储
func NewChunkRepository(client *Client) *ChunkRepository {
	return &ChunkRepository{client: client}
}

// Create 创建切片
func (r *ChunkRepository) Create(ctx context.Context, chunk *entity.Chunk) error {
	ctx, span := tracer.Start(ctx, "postgres.ChunkRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(chunk).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create chunk: %w", err)
	}
	return nil
}

// CreateBatch 批量创建切片
func (r *ChunkRepository) CreateBatch(ctx context.Context, chunks []*entity.Chunk) error {
	ctx, span := tracer.Start(ctx, "postgres.ChunkRepository.CreateBatch")
	defer span.End()

	if len(chunks) == 0 {
		return nil
	}

	db := getDB(ctx, r.client.db)
	if err := db.CreateInBatches(chunks, 100).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create chunks: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取切片
func (r *ChunkRepository) GetByID(ctx context.Context, id string) (*entity.Chunk, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChunkRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var chunk entity.Chunk
	if err := db.First(&chunk, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get chunk: %w", err)
	}
	return &chunk, nil
}

// GetByIDs 批量获取切片，结果保持入参顺序
func (r *ChunkRepository) GetByIDs(ctx context.Context, ids []string) ([]*entity.Chunk, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChunkRepository.GetByIDs")
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}

	db := getDB(ctx, r.client.db)
	var rows []*entity.Chunk
	if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get chunks: %w", err)
	}

	byID := make(map[string]*entity.Chunk, len(rows))
	for _, c := range rows {
		byID[c.ID] = c
	}
	out := make([]*entity.Chunk, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// Delete 删除切片
func (r *ChunkRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.ChunkRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Chunk{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete chunk: %w", err)
	}
	return nil
}

// DeleteByChapter 删除章节下全部切片
func (r *ChunkRepository) DeleteByChapter(ctx context.Context, chapterID string) error {
	ctx, span := tracer.Start(ctx, "postgres.ChunkRepository.DeleteByChapter")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Chunk{}, "chapter_id = ?", chapterID).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete chunks by chapter: %w", err)
	}
	return nil
}

// ListByProject 获取项目切片列表
func (r *ChunkRepository) ListByProject(ctx context.Context, projectID string, pagination repository.Pagination) (*repository.PagedResult[*entity.Chunk], error) {
	ctx, span := tracer.Start(ctx, "postgres.ChunkRepository.ListByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.Chunk{}).Where("project_id = ?", projectID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}

	var rows []*entity.Chunk
	if err := query.Order("created_at ASC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}

	return repository.NewPagedResult(rows, total, pagination), nil
}

// ListByChapter 获取章节下全部切片
func (r *ChunkRepository) ListByChapter(ctx context.Context, chapterID string) ([]*entity.Chunk, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChunkRepository.ListByChapter")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var rows []*entity.Chunk
	if err := db.Where("chapter_id = ?", chapterID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list chunks by chapter: %w", err)
	}
	return rows, nil
}

// SearchByKeyword 内容关键字检索，arcID 非 nil 时限定篇章
func (r *ChunkRepository) SearchByKeyword(ctx context.Context, projectID, query string, arcID *string, limit int) ([]*entity.Chunk, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChunkRepository.SearchByKeyword")
	defer span.End()

	db := getDB(ctx, r.client.db)
	pattern := "%" + query + "%"
	q := db.Where("project_id = ? AND (content ILIKE ? OR raw_content ILIKE ?)", projectID, pattern, pattern)
	if arcID != nil && *arcID != "" {
		q = q.Where("arc_id = ?", *arcID)
	}

	var rows []*entity.Chunk
	if err := q.Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	return rows, nil
}
