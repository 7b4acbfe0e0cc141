package dto

import (
	"time"

	"lore-context-api/internal/domain/entity"
)

// CreateChapterRequest 创建章节请求
type CreateChapterRequest struct {
	ChapterNumber int     `json:"chapter_number" binding:"required,gte=1"`
	Title         string  `json:"title,omitempty"`
	Content       string  `json:"content,omitempty"`
	ArcID         *string `json:"arc_id,omitempty"`
}

// ToChapter 转换为领域实体
func (r *CreateChapterRequest) ToChapter(projectID string) *entity.Chapter {
	ch := entity.NewChapter(projectID, r.ChapterNumber)
	ch.Title = r.Title
	ch.ArcID = r.ArcID
	if r.Content != "" {
		ch.SetContent(r.Content)
	}
	return ch
}

// UpdateChapterRequest 更新章节请求
type UpdateChapterRequest struct {
	ChapterNumber *int    `json:"chapter_number,omitempty" binding:"omitempty,gte=1"`
	Title         *string `json:"title,omitempty"`
	Content       *string `json:"content,omitempty"`
	ArcID         *string `json:"arc_id,omitempty"`
}

// ApplyToChapter 将非空字段应用到实体，返回正文是否发生变更
func (r *UpdateChapterRequest) ApplyToChapter(ch *entity.Chapter) bool {
	contentChanged := false
	if r.ChapterNumber != nil {
		ch.ChapterNumber = *r.ChapterNumber
	}
	if r.Title != nil {
		ch.Title = *r.Title
	}
	if r.ArcID != nil {
		ch.ArcID = r.ArcID
	}
	if r.Content != nil && *r.Content != ch.Content {
		ch.SetContent(*r.Content)
		contentChanged = true
	}
	ch.UpdatedAt = time.Now()
	return contentChanged
}

// ChapterResponse 章节详情响应
type ChapterResponse struct {
	ID            string    `json:"id"`
	ProjectID     string    `json:"project_id"`
	ArcID         *string   `json:"arc_id,omitempty"`
	ChapterNumber int       `json:"chapter_number"`
	Title         string    `json:"title,omitempty"`
	Content       string    `json:"content,omitempty"`
	Summary       string    `json:"summary,omitempty"`
	ArtStyle      string    `json:"art_style,omitempty"`
	WordCount     int       `json:"word_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ChapterListItem 章节列表项（不含正文）
type ChapterListItem struct {
	ID            string    `json:"id"`
	ProjectID     string    `json:"project_id"`
	ArcID         *string   `json:"arc_id,omitempty"`
	ChapterNumber int       `json:"chapter_number"`
	Title         string    `json:"title,omitempty"`
	Summary       string    `json:"summary,omitempty"`
	WordCount     int       `json:"word_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ToChapterResponse 实体转详情响应
func ToChapterResponse(ch *entity.Chapter) *ChapterResponse {
	return &ChapterResponse{
		ID:            ch.ID,
		ProjectID:     ch.ProjectID,
		ArcID:         ch.ArcID,
		ChapterNumber: ch.ChapterNumber,
		Title:         ch.Title,
		Content:       ch.Content,
		Summary:       ch.Summary,
		ArtStyle:      ch.ArtStyle,
		WordCount:     ch.WordCount,
		CreatedAt:     ch.CreatedAt,
		UpdatedAt:     ch.UpdatedAt,
	}
}

// ToChapterListResponse 实体列表转列表项
func ToChapterListResponse(items []*entity.Chapter) []*ChapterListItem {
	out := make([]*ChapterListItem, 0, len(items))
	for _, ch := range items {
		out = append(out, &ChapterListItem{
			ID:            ch.ID,
			ProjectID:     ch.ProjectID,
			ArcID:         ch.ArcID,
			ChapterNumber: ch.ChapterNumber,
			Title:         ch.Title,
			Summary:       ch.Summary,
			WordCount:     ch.WordCount,
			CreatedAt:     ch.CreatedAt,
			UpdatedAt:     ch.UpdatedAt,
		})
	}
	return out
}
