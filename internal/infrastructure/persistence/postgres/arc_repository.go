// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"lore-context-api/internal/domain/entity"
)

// ArcRepository 篇章仓储实现
type ArcRepository struct {
	client *Client
}

// NewArcRepository 创建篇章仓储
func NewArcRepository(client *Client) *ArcRepository {
	return &ArcRepository{client: client}
}

// Create 创建篇章
func (r *ArcRepository) Create(ctx context.Context, arc *entity.Arc) error {
	ctx, span := tracer.Start(ctx, "postgres.ArcRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(arc).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create arc: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取篇章
func (r *ArcRepository) GetByID(ctx context.Context, id string) (*entity.Arc, error) {
	ctx, span := tracer.Start(ctx, "postgres.ArcRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var arc entity.Arc
	if err := db.First(&arc, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get arc: %w", err)
	}
	return &arc, nil
}

// Update 更新篇章
func (r *ArcRepository) Update(ctx context.Context, arc *entity.Arc) error {
	ctx, span := tracer.Start(ctx, "postgres.ArcRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(arc).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update arc: %w", err)
	}
	return nil
}

// Delete 删除篇章
func (r *ArcRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.ArcRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Arc{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete arc: %w", err)
	}
	return nil
}

// ListByProject 获取项目篇章列表
func (r *ArcRepository) ListByProject(ctx context.Context, projectID string) ([]*entity.Arc, error) {
	ctx, span := tracer.Start(ctx, "postgres.ArcRepository.ListByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var arcs []*entity.Arc
	if err := db.Where("project_id = ?", projectID).
		Order("sort_order ASC, created_at ASC").
		Find(&arcs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list arcs: %w", err)
	}
	return arcs, nil
}

// GetLatestActive 获取最新的活跃篇章
func (r *ArcRepository) GetLatestActive(ctx context.Context, projectID string) (*entity.Arc, error) {
	ctx, span := tracer.Start(ctx, "postgres.ArcRepository.GetLatestActive")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var arc entity.Arc
	if err := db.Where("project_id = ? AND status = ?", projectID, entity.ArcStatusActive).
		Order("sort_order DESC, created_at DESC").
		First(&arc).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get latest active arc: %w", err)
	}
	return &arc, nil
}

// UpdateSummary 更新篇章摘要
func (r *ArcRepository) UpdateSummary(ctx context.Context, id, summary string) error {
	ctx, span := tracer.Start(ctx, "postgres.ArcRepository.UpdateSummary")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Arc{}).
		Where("id = ?", id).
		Update("summary", summary).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update arc summary: %w", err)
	}
	return nil
}
