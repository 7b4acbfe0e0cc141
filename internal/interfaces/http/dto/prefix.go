package dto

import (
	"strings"
	"time"

	"lore-context-api/internal/domain/entity"
)

// UpsertPrefixConfigRequest 创建或更新分类前缀配置请求
type UpsertPrefixConfigRequest struct {
	PrefixKey   string `json:"prefix_key" binding:"required,max=100"`
	Label       string `json:"label,omitempty"`
	Description string `json:"description,omitempty"`
	SortOrder   int    `json:"sort_order,omitempty"`
}

// ToPrefixConfig 转换为领域实体，前缀键按条目名前缀的规则标准化
func (r *UpsertPrefixConfigRequest) ToPrefixConfig(projectID string) *entity.PrefixConfig {
	key := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(r.PrefixKey), " ", "_"))
	return &entity.PrefixConfig{
		ProjectID:   projectID,
		PrefixKey:   key,
		Label:       r.Label,
		Description: r.Description,
		SortOrder:   r.SortOrder,
	}
}

// PrefixConfigResponse 分类前缀配置响应
type PrefixConfigResponse struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	PrefixKey   string    `json:"prefix_key"`
	Label       string    `json:"label,omitempty"`
	Description string    `json:"description,omitempty"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToPrefixConfigResponse 实体转响应
func ToPrefixConfigResponse(p *entity.PrefixConfig) *PrefixConfigResponse {
	return &PrefixConfigResponse{
		ID:          p.ID,
		ProjectID:   p.ProjectID,
		PrefixKey:   p.PrefixKey,
		Label:       p.Label,
		Description: p.Description,
		SortOrder:   p.SortOrder,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ToPrefixConfigListResponse 实体列表转响应列表
func ToPrefixConfigListResponse(items []*entity.PrefixConfig) []*PrefixConfigResponse {
	out := make([]*PrefixConfigResponse, 0, len(items))
	for _, p := range items {
		out = append(out, ToPrefixConfigResponse(p))
	}
	return out
}
