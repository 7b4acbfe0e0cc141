package dto

import (
	"time"

	"github.com/google/uuid"

	"lore-context-api/internal/domain/entity"
)

// ChunkInput 单条切片的摄入内容
type ChunkInput struct {
	Content    string  `json:"content" binding:"required"`
	RawContent string  `json:"raw_content,omitempty"`
	ChapterID  *string `json:"chapter_id,omitempty"`
	ArcID      *string `json:"arc_id,omitempty"`
	// Meta 摄入方附带的元数据，source_metadata 子对象记录出处
	Meta map[string]any `json:"meta,omitempty"`
}

// IngestChunksRequest 批量摄入切片请求
type IngestChunksRequest struct {
	Chunks []ChunkInput `json:"chunks" binding:"required,min=1,dive"`
}

// ToChunks 转换为领域实体列表
func (r *IngestChunksRequest) ToChunks(projectID string) []*entity.Chunk {
	now := time.Now()
	out := make([]*entity.Chunk, 0, len(r.Chunks))
	for _, in := range r.Chunks {
		out = append(out, &entity.Chunk{
			ID:         uuid.NewString(),
			ProjectID:  projectID,
			ChapterID:  in.ChapterID,
			ArcID:      in.ArcID,
			Content:    in.Content,
			RawContent: in.RawContent,
			Meta:       in.Meta,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return out
}

// ChunkResponse 切片响应
type ChunkResponse struct {
	ID         string         `json:"id"`
	ProjectID  string         `json:"project_id"`
	ChapterID  *string        `json:"chapter_id,omitempty"`
	ArcID      *string        `json:"arc_id,omitempty"`
	Content    string         `json:"content,omitempty"`
	RawContent string         `json:"raw_content,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
	SourceLine string         `json:"source_line,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ToChunkResponse 实体转响应
func ToChunkResponse(c *entity.Chunk) *ChunkResponse {
	return &ChunkResponse{
		ID:         c.ID,
		ProjectID:  c.ProjectID,
		ChapterID:  c.ChapterID,
		ArcID:      c.ArcID,
		Content:    c.Content,
		RawContent: c.RawContent,
		Meta:       c.Meta,
		SourceLine: c.SourceLine(),
		CreatedAt:  c.CreatedAt,
	}
}

// ToChunkListResponse 实体列表转响应列表
func ToChunkListResponse(items []*entity.Chunk) []*ChunkResponse {
	out := make([]*ChunkResponse, 0, len(items))
	for _, c := range items {
		out = append(out, ToChunkResponse(c))
	}
	return out
}
