// Package entity 定义领域实体
package entity

import (
	"time"
)

// Chapter 章节实体
type Chapter struct {
	ID        string  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID string  `json:"project_id" gorm:"type:uuid;not null;uniqueIndex:idx_chapters_project_number,priority:1"`
	ArcID     *string `json:"arc_id,omitempty" gorm:"type:uuid;index"`
	// ChapterNumber 项目内唯一的章节序号，从 1 开始
	ChapterNumber int    `json:"chapter_number" gorm:"not null;uniqueIndex:idx_chapters_project_number,priority:2"`
	Title         string `json:"title,omitempty" gorm:"type:varchar(255)"`
	Content       string `json:"content,omitempty" gorm:"type:text"`
	Summary       string `json:"summary,omitempty" gorm:"type:text"`
	// ArtStyle 由 LLM 生成的画风/文风描述
	ArtStyle  string    `json:"art_style,omitempty" gorm:"type:text"`
	WordCount int       `json:"word_count" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Chapter) TableName() string {
	return "chapters"
}

// NewChapter 创建新章节
func NewChapter(projectID string, number int) *Chapter {
	now := time.Now()
	return &Chapter{
		ProjectID:     projectID,
		ChapterNumber: number,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// SetContent 设置章节内容并更新字数
func (c *Chapter) SetContent(content string) {
	c.Content = content
	c.WordCount = len([]rune(content))
	c.UpdatedAt = time.Now()
}

// HasSummary 检查章节是否已有摘要
func (c *Chapter) HasSummary() bool {
	return c.Summary != ""
}
