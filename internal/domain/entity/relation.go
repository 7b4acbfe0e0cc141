// Package entity 定义领域实体
package entity

import (
	"time"
)

// EntityRelation 设定条目间的关系
type EntityRelation struct {
	ID             string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID      string    `json:"project_id" gorm:"type:uuid;index;not null"`
	SourceEntityID string    `json:"source_entity_id" gorm:"type:uuid;index;not null"`
	TargetEntityID string    `json:"target_entity_id" gorm:"type:uuid;index;not null"`
	RelationType   string    `json:"relation_type" gorm:"type:varchar(100);not null"`
	Description    string    `json:"description,omitempty" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (EntityRelation) TableName() string {
	return "entity_relations"
}

// NewEntityRelation 创建新关系
func NewEntityRelation(projectID, sourceID, targetID, relType string) *EntityRelation {
	now := time.Now()
	return &EntityRelation{
		ProjectID:      projectID,
		SourceEntityID: sourceID,
		TargetEntityID: targetID,
		RelationType:   relType,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Other 返回关系中相对于给定条目的另一端
func (r *EntityRelation) Other(entityID string) string {
	if r.SourceEntityID == entityID {
		return r.TargetEntityID
	}
	return r.SourceEntityID
}
