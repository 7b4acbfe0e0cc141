package dto

import (
	"time"

	"lore-context-api/internal/domain/entity"
)

// CreateRelationRequest 创建条目关系请求
type CreateRelationRequest struct {
	SourceEntityID string `json:"source_entity_id" binding:"required"`
	TargetEntityID string `json:"target_entity_id" binding:"required"`
	RelationType   string `json:"relation_type" binding:"required,max=100"`
	Description    string `json:"description,omitempty"`
}

// ToRelation 转换为领域实体
func (r *CreateRelationRequest) ToRelation(projectID string) *entity.EntityRelation {
	rel := entity.NewEntityRelation(projectID, r.SourceEntityID, r.TargetEntityID, r.RelationType)
	rel.Description = r.Description
	return rel
}

// UpdateRelationRequest 更新条目关系请求
type UpdateRelationRequest struct {
	RelationType *string `json:"relation_type,omitempty"`
	Description  *string `json:"description,omitempty"`
}

// ApplyToRelation 将非空字段应用到实体
func (r *UpdateRelationRequest) ApplyToRelation(rel *entity.EntityRelation) {
	if r.RelationType != nil {
		rel.RelationType = *r.RelationType
	}
	if r.Description != nil {
		rel.Description = *r.Description
	}
	rel.UpdatedAt = time.Now()
}

// RelationResponse 条目关系响应
type RelationResponse struct {
	ID             string    `json:"id"`
	ProjectID      string    `json:"project_id"`
	SourceEntityID string    `json:"source_entity_id"`
	TargetEntityID string    `json:"target_entity_id"`
	RelationType   string    `json:"relation_type"`
	Description    string    `json:"description,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ToRelationResponse 实体转响应
func ToRelationResponse(rel *entity.EntityRelation) *RelationResponse {
	return &RelationResponse{
		ID:             rel.ID,
		ProjectID:      rel.ProjectID,
		SourceEntityID: rel.SourceEntityID,
		TargetEntityID: rel.TargetEntityID,
		RelationType:   rel.RelationType,
		Description:    rel.Description,
		CreatedAt:      rel.CreatedAt,
		UpdatedAt:      rel.UpdatedAt,
	}
}

// ToRelationListResponse 实体列表转响应列表
func ToRelationListResponse(items []*entity.EntityRelation) []*RelationResponse {
	out := make([]*RelationResponse, 0, len(items))
	for _, rel := range items {
		out = append(out, ToRelationResponse(rel))
	}
	return out
}
