// Package entity 定义领域实体
package entity

import (
	"time"
)

// ArcType 篇章类型
type ArcType string

const (
	// ArcTypeSequential 顺序篇章，通过 PrevArcID 链接前篇
	ArcTypeSequential ArcType = "SEQUENTIAL"
	// ArcTypeStandalone 独立篇章，不继承任何前篇摘要
	ArcTypeStandalone ArcType = "STANDALONE"
)

// ArcStatus 篇章状态
type ArcStatus string

const (
	ArcStatusActive    ArcStatus = "active"
	ArcStatusCompleted ArcStatus = "completed"
)

// Arc 故事篇章实体
type Arc struct {
	ID        string  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID string  `json:"project_id" gorm:"type:uuid;index;not null"`
	Name      string  `json:"name" gorm:"type:varchar(255);not null"`
	Summary   string  `json:"summary,omitempty" gorm:"type:text"`
	ArcType   ArcType `json:"arc_type" gorm:"type:varchar(50);default:'SEQUENTIAL'"`
	// PrevArcID 顺序篇章的前篇，链首为 nil
	PrevArcID *string   `json:"prev_arc_id,omitempty" gorm:"type:uuid;index"`
	Status    ArcStatus `json:"status" gorm:"type:varchar(50);default:'active'"`
	SortOrder int       `json:"sort_order" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Arc) TableName() string {
	return "arcs"
}

// NewArc 创建新篇章
func NewArc(projectID, name string, arcType ArcType) *Arc {
	now := time.Now()
	if arcType == "" {
		arcType = ArcTypeSequential
	}
	return &Arc{
		ProjectID: projectID,
		Name:      name,
		ArcType:   arcType,
		Status:    ArcStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsSequential 检查是否为顺序篇章
func (a *Arc) IsSequential() bool {
	return a.ArcType == ArcTypeSequential
}
