// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"lore-context-api/internal/domain/entity"
	"lore-context-api/internal/domain/repository"
)

// RelationRepository 条目关系仓储实现
type RelationRepository struct {
	client *Client
}

// NewRelationRepository 创建关系仓储
func NewRelationRepository(client *Client) *RelationRepository {
	return &RelationRepository{client: client}
}

// Create 创建关系
func (r *RelationRepository) Create(ctx context.Context, rel *entity.EntityRelation) error {
	ctx, span := tracer.Start(ctx, "postgres.RelationRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(rel).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create relation: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取关系
func (r *RelationRepository) GetByID(ctx context.Context, id string) (*entity.EntityRelation, error) {
	ctx, span := tracer.Start(ctx, "postgres.RelationRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var rel entity.EntityRelation
	if err := db.First(&rel, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get relation: %w", err)
	}
	return &rel, nil
}

// Update 更新关系
func (r *RelationRepository) Update(ctx context.Context, rel *entity.EntityRelation) error {
	ctx, span := tracer.Start(ctx, "postgres.RelationRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(rel).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update relation: %w", err)
	}
	return nil
}

// Delete 删除关系
func (r *RelationRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.RelationRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.EntityRelation{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete relation: %w", err)
	}
	return nil
}

// ListByEntity 获取条目作为任一端的全部关系
func (r *RelationRepository) ListByEntity(ctx context.Context, projectID, entityID string) ([]*entity.EntityRelation, error) {
	ctx, span := tracer.Start(ctx, "postgres.RelationRepository.ListByEntity")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var rels []*entity.EntityRelation
	if err := db.Where("project_id = ? AND (source_entity_id = ? OR target_entity_id = ?)", projectID, entityID, entityID).
		Order("created_at ASC").
		Find(&rels).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list relations by entity: %w", err)
	}
	return rels, nil
}

// ListByProject 获取项目关系列表
func (r *RelationRepository) ListByProject(ctx context.Context, projectID string, pagination repository.Pagination) (*repository.PagedResult[*entity.EntityRelation], error) {
	ctx, span := tracer.Start(ctx, "postgres.RelationRepository.ListByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.EntityRelation{}).Where("project_id = ?", projectID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count relations: %w", err)
	}

	var rels []*entity.EntityRelation
	if err := query.Order("created_at ASC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&rels).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list relations: %w", err)
	}

	return repository.NewPagedResult(rels, total, pagination), nil
}
