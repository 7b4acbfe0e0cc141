package dto

import (
	"time"

	"lore-context-api/internal/domain/entity"
)

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description,omitempty"`
	Persona     string `json:"persona,omitempty"`
}

// ToProject 转换为领域实体
func (r *CreateProjectRequest) ToProject() *entity.Project {
	p := entity.NewProject(r.Title)
	p.Description = r.Description
	p.Persona = r.Persona
	return p
}

// UpdateProjectRequest 更新项目请求
type UpdateProjectRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Persona     *string `json:"persona,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// ApplyToProject 将非空字段应用到实体
func (r *UpdateProjectRequest) ApplyToProject(p *entity.Project) {
	if r.Title != nil {
		p.Title = *r.Title
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Persona != nil {
		p.Persona = *r.Persona
	}
	if r.Status != nil {
		p.Status = entity.ProjectStatus(*r.Status)
	}
	p.UpdatedAt = time.Now()
}

// ProjectResponse 项目响应
type ProjectResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Persona     string    `json:"persona,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToProjectResponse 实体转响应
func ToProjectResponse(p *entity.Project) *ProjectResponse {
	return &ProjectResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Persona:     p.Persona,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ToProjectListResponse 实体列表转响应列表
func ToProjectListResponse(items []*entity.Project) []*ProjectResponse {
	out := make([]*ProjectResponse, 0, len(items))
	for _, p := range items {
		out = append(out, ToProjectResponse(p))
	}
	return out
}
