// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"lore-context-api/internal/domain/entity"
	"lore-context-api/internal/domain/repository"
)

// BibleEntityRepository 设定条目仓储实现
type BibleEntityRepository struct {
	client *Client
}

// NewBibleEntityRepository 创建设定条目仓储
func NewBibleEntityRepository(client *Client) *BibleEntityRepository {
	return &BibleEntityRepository{client: client}
}

// Create 创建条目
func (r *BibleEntityRepository) Create(ctx context.Context, be *entity.BibleEntity) error {
	ctx, span := tracer.Start(ctx, "postgres.BibleEntityRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(be).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create bible entity: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取条目
func (r *BibleEntityRepository) GetByID(ctx context.Context, id string) (*entity.BibleEntity, error) {
	ctx, span := tracer.Start(ctx, "postgres.BibleEntityRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var be entity.BibleEntity
	if err := db.First(&be, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get bible entity: %w", err)
	}
	return &be, nil
}

// GetByIDs 批量获取条目，结果保持入参顺序
func (r *BibleEntityRepository) GetByIDs(ctx context.Context, ids []string) ([]*entity.BibleEntity, error) {
	ctx, span := tracer.Start(ctx, "postgres.BibleEntityRepository.GetByIDs")
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}

	db := getDB(ctx, r.client.db)
	var rows []*entity.BibleEntity
	if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get bible entities: %w", err)
	}

	byID := make(map[string]*entity.BibleEntity, len(rows))
	for _, e := range rows {
		byID[e.ID] = e
	}
	out := make([]*entity.BibleEntity, 0, len(ids))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// Update 更新条目
func (r *BibleEntityRepository) Update(ctx context.Context, be *entity.BibleEntity) error {
	ctx, span := tracer.Start(ctx, "postgres.BibleEntityRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(be).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update bible entity: %w", err)
	}
	return nil
}

// Delete 删除条目
func (r *BibleEntityRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.BibleEntityRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.BibleEntity{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete bible entity: %w", err)
	}
	return nil
}

// ListByProject 获取项目条目列表
func (r *BibleEntityRepository) ListByProject(ctx context.Context, projectID string, filter *repository.BibleEntityFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.BibleEntity], error) {
	ctx, span := tracer.Start(ctx, "postgres.BibleEntityRepository.ListByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.BibleEntity{}).Where("project_id = ?", projectID)

	if filter != nil {
		if filter.PrefixKey != "" {
			query = query.Where("entity_name ILIKE ?", "["+filter.PrefixKey+"]%")
		}
		if filter.Name != "" {
			query = query.Where("entity_name ILIKE ?", "%"+filter.Name+"%")
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count bible entities: %w", err)
	}

	var rows []*entity.BibleEntity
	if err := query.Order("entity_name ASC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list bible entities: %w", err)
	}

	return repository.NewPagedResult(rows, total, pagination), nil
}

// GetByName 按条目名精确查找
func (r *BibleEntityRepository) GetByName(ctx context.Context, projectID, entityName string) (*entity.BibleEntity, error) {
	ctx, span := tracer.Start(ctx, "postgres.BibleEntityRepository.GetByName")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var be entity.BibleEntity
	if err := db.Where("project_id = ? AND entity_name = ?", projectID, entityName).
		First(&be).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get bible entity by name: %w", err)
	}
	return &be, nil
}

// SearchByKeyword 条目名/描述关键字检索
func (r *BibleEntityRepository) SearchByKeyword(ctx context.Context, projectID, query string, limit int) ([]*entity.BibleEntity, error) {
	ctx, span := tracer.Start(ctx, "postgres.BibleEntityRepository.SearchByKeyword")
	defer span.End()

	db := getDB(ctx, r.client.db)
	pattern := "%" + query + "%"
	var rows []*entity.BibleEntity
	if err := db.Where("project_id = ? AND (entity_name ILIKE ? OR description ILIKE ?)", projectID, pattern, pattern).
		Order("lookup_count DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to search bible entities: %w", err)
	}
	return rows, nil
}

// ListByPrefix 获取指定分类前缀的全部条目
func (r *BibleEntityRepository) ListByPrefix(ctx context.Context, projectID, prefixKey string) ([]*entity.BibleEntity, error) {
	ctx, span := tracer.Start(ctx, "postgres.BibleEntityRepository.ListByPrefix")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var rows []*entity.BibleEntity
	if err := db.Where("project_id = ? AND entity_name ILIKE ?", projectID, "["+prefixKey+"]%").
		Order("entity_name ASC").
		Find(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list bible entities by prefix: %w", err)
	}
	return rows, nil
}

// TopByLookup 按命中次数取前 N 条，同分按重要性降序
func (r *BibleEntityRepository) TopByLookup(ctx context.Context, projectID string, limit int) ([]*entity.BibleEntity, error) {
	ctx, span := tracer.Start(ctx, "postgres.BibleEntityRepository.TopByLookup")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var rows []*entity.BibleEntity
	if err := db.Where("project_id = ?", projectID).
		Order("lookup_count DESC, importance_bias DESC NULLS LAST, entity_name ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list top bible entities: %w", err)
	}
	return rows, nil
}

// IncrementLookup 累加命中次数并刷新命中时间
func (r *BibleEntityRepository) IncrementLookup(ctx context.Context, ids []string) error {
	ctx, span := tracer.Start(ctx, "postgres.BibleEntityRepository.IncrementLookup")
	defer span.End()

	if len(ids) == 0 {
		return nil
	}

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.BibleEntity{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"lookup_count":   gorm.Expr("lookup_count + 1"),
			"last_lookup_at": gorm.Expr("NOW()"),
		}).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to increment lookup count: %w", err)
	}
	return nil
}

// UpdateVectorID 记录条目对应的向量 ID
func (r *BibleEntityRepository) UpdateVectorID(ctx context.Context, id, vectorID string) error {
	ctx, span := tracer.Start(ctx, "postgres.BibleEntityRepository.UpdateVectorID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.BibleEntity{}).
		Where("id = ?", id).
		Update("vector_id", vectorID).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update vector id: %w", err)
	}
	return nil
}

// ListBySourceChapters 获取出处章节号在给定集合内的条目
func (r *BibleEntityRepository) ListBySourceChapters(ctx context.Context, projectID string, chapters []int) ([]*entity.BibleEntity, error) {
	ctx, span := tracer.Start(ctx, "postgres.BibleEntityRepository.ListBySourceChapters")
	defer span.End()

	if len(chapters) == 0 {
		return nil, nil
	}

	db := getDB(ctx, r.client.db)
	var rows []*entity.BibleEntity
	if err := db.Where("project_id = ? AND source_chapter IN ?", projectID, chapters).
		Find(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list bible entities by source chapters: %w", err)
	}
	return rows, nil
}
