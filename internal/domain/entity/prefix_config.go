// Package entity 定义领域实体
package entity

import (
	"time"
)

// PrefixConfig 分类前缀的展示配置
type PrefixConfig struct {
	ID        string `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID string `json:"project_id" gorm:"type:uuid;not null;uniqueIndex:idx_prefix_project_key,priority:1"`
	// PrefixKey 标准化的前缀键，如 CHARACTER / LOCATION / RULE
	PrefixKey   string    `json:"prefix_key" gorm:"type:varchar(100);not null;uniqueIndex:idx_prefix_project_key,priority:2"`
	Label       string    `json:"label,omitempty" gorm:"type:varchar(255)"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	SortOrder   int       `json:"sort_order" gorm:"default:0"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (PrefixConfig) TableName() string {
	return "prefix_configs"
}

// DisplayLabel 返回展示用标签，未配置时退回前缀键
func (p *PrefixConfig) DisplayLabel() string {
	if p.Label != "" {
		return p.Label
	}
	return p.PrefixKey
}
