package dto

import (
	"time"

	"lore-context-api/internal/application/timeline"
	"lore-context-api/internal/domain/entity"
)

// CreateArcRequest 创建篇章请求
type CreateArcRequest struct {
	Name    string `json:"name" binding:"required,max=255"`
	Summary string `json:"summary,omitempty"`
	// ArcType 为空时默认 SEQUENTIAL
	ArcType   string  `json:"arc_type,omitempty" binding:"omitempty,oneof=SEQUENTIAL STANDALONE"`
	PrevArcID *string `json:"prev_arc_id,omitempty"`
	SortOrder int     `json:"sort_order,omitempty"`
}

// ToArc 转换为领域实体
func (r *CreateArcRequest) ToArc(projectID string) *entity.Arc {
	arc := entity.NewArc(projectID, r.Name, entity.ArcType(r.ArcType))
	arc.Summary = r.Summary
	arc.PrevArcID = r.PrevArcID
	arc.SortOrder = r.SortOrder
	return arc
}

// UpdateArcRequest 更新篇章请求
type UpdateArcRequest struct {
	Name      *string `json:"name,omitempty"`
	Summary   *string `json:"summary,omitempty"`
	ArcType   *string `json:"arc_type,omitempty" binding:"omitempty,oneof=SEQUENTIAL STANDALONE"`
	PrevArcID *string `json:"prev_arc_id,omitempty"`
	Status    *string `json:"status,omitempty" binding:"omitempty,oneof=active completed"`
	SortOrder *int    `json:"sort_order,omitempty"`
}

// ApplyToArc 将非空字段应用到实体
func (r *UpdateArcRequest) ApplyToArc(arc *entity.Arc) {
	if r.Name != nil {
		arc.Name = *r.Name
	}
	if r.Summary != nil {
		arc.Summary = *r.Summary
	}
	if r.ArcType != nil {
		arc.ArcType = entity.ArcType(*r.ArcType)
	}
	if r.PrevArcID != nil {
		arc.PrevArcID = r.PrevArcID
	}
	if r.Status != nil {
		arc.Status = entity.ArcStatus(*r.Status)
	}
	if r.SortOrder != nil {
		arc.SortOrder = *r.SortOrder
	}
	arc.UpdatedAt = time.Now()
}

// ArcResponse 篇章响应
type ArcResponse struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	Summary   string    `json:"summary,omitempty"`
	ArcType   string    `json:"arc_type"`
	PrevArcID *string   `json:"prev_arc_id,omitempty"`
	Status    string    `json:"status"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToArcResponse 实体转响应
func ToArcResponse(arc *entity.Arc) *ArcResponse {
	return &ArcResponse{
		ID:        arc.ID,
		ProjectID: arc.ProjectID,
		Name:      arc.Name,
		Summary:   arc.Summary,
		ArcType:   string(arc.ArcType),
		PrevArcID: arc.PrevArcID,
		Status:    string(arc.Status),
		SortOrder: arc.SortOrder,
		CreatedAt: arc.CreatedAt,
		UpdatedAt: arc.UpdatedAt,
	}
}

// ToArcListResponse 实体列表转响应列表
func ToArcListResponse(items []*entity.Arc) []*ArcResponse {
	out := make([]*ArcResponse, 0, len(items))
	for _, arc := range items {
		out = append(out, ToArcResponse(arc))
	}
	return out
}

// ArcScopeResponse 篇章时间线可见范围响应
type ArcScopeResponse struct {
	Scope       *timeline.Scope `json:"scope"`
	Description string          `json:"description"`
}
