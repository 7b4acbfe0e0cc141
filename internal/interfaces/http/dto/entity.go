package dto

import (
	"time"

	"lore-context-api/internal/domain/entity"
)

// CreateBibleEntityRequest 创建设定条目请求
// 条目名可携带 [TAG] 分类前缀，如 "[CHARACTER] 林远"。
type CreateBibleEntityRequest struct {
	EntityName     string   `json:"entity_name" binding:"required,max=512"`
	Description    string   `json:"description,omitempty"`
	ImportanceBias *float64 `json:"importance_bias,omitempty" binding:"omitempty,gte=0,lte=1"`
	ParentID       *string  `json:"parent_id,omitempty"`
	SourceChapter  int      `json:"source_chapter,omitempty"`
	SheetName      string   `json:"sheet_name,omitempty"`
	SourceFile     string   `json:"source_file,omitempty"`
}

// ToBibleEntity 转换为领域实体
func (r *CreateBibleEntityRequest) ToBibleEntity(projectID string) *entity.BibleEntity {
	be := entity.NewBibleEntity(projectID, r.EntityName)
	be.Description = r.Description
	be.ImportanceBias = r.ImportanceBias
	be.ParentID = r.ParentID
	be.SourceChapter = r.SourceChapter
	be.SheetName = r.SheetName
	be.SourceFile = r.SourceFile
	return be
}

// UpdateBibleEntityRequest 更新设定条目请求
type UpdateBibleEntityRequest struct {
	EntityName     *string  `json:"entity_name,omitempty"`
	Description    *string  `json:"description,omitempty"`
	ImportanceBias *float64 `json:"importance_bias,omitempty" binding:"omitempty,gte=0,lte=1"`
	ParentID       *string  `json:"parent_id,omitempty"`
	SourceChapter  *int     `json:"source_chapter,omitempty"`
	SheetName      *string  `json:"sheet_name,omitempty"`
	SourceFile     *string  `json:"source_file,omitempty"`
}

// ApplyToBibleEntity 将非空字段应用到实体
func (r *UpdateBibleEntityRequest) ApplyToBibleEntity(be *entity.BibleEntity) {
	if r.EntityName != nil {
		be.EntityName = *r.EntityName
	}
	if r.Description != nil {
		be.Description = *r.Description
	}
	if r.ImportanceBias != nil {
		be.ImportanceBias = r.ImportanceBias
	}
	if r.ParentID != nil {
		be.ParentID = r.ParentID
	}
	if r.SourceChapter != nil {
		be.SourceChapter = *r.SourceChapter
	}
	if r.SheetName != nil {
		be.SheetName = *r.SheetName
	}
	if r.SourceFile != nil {
		be.SourceFile = *r.SourceFile
	}
	be.UpdatedAt = time.Now()
}

// BibleEntityResponse 设定条目响应
type BibleEntityResponse struct {
	ID             string     `json:"id"`
	ProjectID      string     `json:"project_id"`
	EntityName     string     `json:"entity_name"`
	PrefixKey      string     `json:"prefix_key"`
	DisplayName    string     `json:"display_name"`
	Description    string     `json:"description,omitempty"`
	ImportanceBias *float64   `json:"importance_bias,omitempty"`
	LookupCount    int        `json:"lookup_count"`
	LastLookupAt   *time.Time `json:"last_lookup_at,omitempty"`
	ParentID       *string    `json:"parent_id,omitempty"`
	SourceChapter  int        `json:"source_chapter,omitempty"`
	SheetName      string     `json:"sheet_name,omitempty"`
	SourceFile     string     `json:"source_file,omitempty"`
	VectorID       string     `json:"vector_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ToBibleEntityResponse 实体转响应
func ToBibleEntityResponse(be *entity.BibleEntity) *BibleEntityResponse {
	return &BibleEntityResponse{
		ID:             be.ID,
		ProjectID:      be.ProjectID,
		EntityName:     be.EntityName,
		PrefixKey:      be.PrefixKey(),
		DisplayName:    be.DisplayName(),
		Description:    be.Description,
		ImportanceBias: be.ImportanceBias,
		LookupCount:    be.LookupCount,
		LastLookupAt:   be.LastLookupAt,
		ParentID:       be.ParentID,
		SourceChapter:  be.SourceChapter,
		SheetName:      be.SheetName,
		SourceFile:     be.SourceFile,
		VectorID:       be.VectorID,
		CreatedAt:      be.CreatedAt,
		UpdatedAt:      be.UpdatedAt,
	}
}

// ToBibleEntityListResponse 实体列表转响应列表
func ToBibleEntityListResponse(items []*entity.BibleEntity) []*BibleEntityResponse {
	out := make([]*BibleEntityResponse, 0, len(items))
	for _, be := range items {
		out = append(out, ToBibleEntityResponse(be))
	}
	return out
}
