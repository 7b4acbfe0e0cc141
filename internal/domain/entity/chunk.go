// Package entity 定义领域实体
package entity

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Chunk 原始资料切片，逆向溯源的微观证据
type Chunk struct {
	ID        string  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID string  `json:"project_id" gorm:"type:uuid;index;not null"`
	ChapterID *string `json:"chapter_id,omitempty" gorm:"type:uuid;index"`
	ArcID     *string `json:"arc_id,omitempty" gorm:"type:uuid;index"`
	Content   string  `json:"content,omitempty" gorm:"type:text"`
	// RawContent 切分前的原文片段，为空时回退到 Content
	RawContent string `json:"raw_content,omitempty" gorm:"type:text"`
	// Meta 摄入时附带的元数据，source_metadata 子对象记录出处
	Meta      map[string]any `json:"meta,omitempty" gorm:"type:jsonb;serializer:json"`
	VectorID  string         `json:"vector_id,omitempty" gorm:"type:varchar(64)"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Chunk) TableName() string {
	return "chunks"
}

// Text 返回用于展示的内容，优先使用原文
func (c *Chunk) Text() string {
	if c.RawContent != "" {
		return c.RawContent
	}
	return c.Content
}

// SourceMetadata 返回 meta.source_metadata 子对象
func (c *Chunk) SourceMetadata() map[string]any {
	if c.Meta == nil {
		return nil
	}
	sm, ok := c.Meta["source_metadata"].(map[string]any)
	if !ok {
		return nil
	}
	return sm
}

// SourceLine 将出处元数据按键名排序拼成 k=v 列表，无出处时返回空串
func (c *Chunk) SourceLine() string {
	sm := c.SourceMetadata()
	if len(sm) == 0 {
		return ""
	}
	keys := make([]string, 0, len(sm))
	for k := range sm {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, sm[k]))
	}
	return strings.Join(parts, ", ")
}

// SourceLabel 返回溯源标签：sheet_name > source_file > 截断的 ID
func (c *Chunk) SourceLabel() string {
	sm := c.SourceMetadata()
	if sm != nil {
		if v, ok := sm["sheet_name"].(string); ok && v != "" {
			return v
		}
		if v, ok := sm["source_file"].(string); ok && v != "" {
			return v
		}
	}
	if len(c.ID) > 8 {
		return c.ID[:8]
	}
	return c.ID
}
