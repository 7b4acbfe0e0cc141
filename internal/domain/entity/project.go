// Package entity 定义领域实体
package entity

import (
	"time"
)

// ProjectStatus 项目状态
type ProjectStatus string

const (
	ProjectStatusActive   ProjectStatus = "active"
	ProjectStatusArchived ProjectStatus = "archived"
)

// Project 连载项目实体
type Project struct {
	ID          string `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title       string `json:"title" gorm:"type:varchar(255);not null"`
	Description string `json:"description,omitempty" gorm:"type:text"`
	// Persona 组装上下文时置于最前的人设文本
	Persona   string        `json:"persona,omitempty" gorm:"type:text"`
	Status    ProjectStatus `json:"status" gorm:"type:varchar(50);default:'active'"`
	CreatedAt time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Project) TableName() string {
	return "projects"
}

// NewProject 创建新项目
func NewProject(title string) *Project {
	now := time.Now()
	return &Project{
		Title:     title,
		Status:    ProjectStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsActive 检查项目是否活跃
func (p *Project) IsActive() bool {
	return p.Status == ProjectStatusActive
}
