package dto

import (
	"lore-context-api/internal/application/composer"
)

// BuildContextRequest 上下文组装请求
type BuildContextRequest struct {
	// Router 上游意图路由的结果
	Router composer.RouterResult `json:"router" binding:"required"`

	// Persona 人设文本，为空时取项目配置
	Persona    string `json:"persona,omitempty"`
	StrictMode bool   `json:"strict_mode,omitempty"`

	// CurrentArcID 当前篇章，为空时取最新活跃篇章
	CurrentArcID string `json:"current_arc_id,omitempty"`

	// MaxContextTokens 总预算上限，<=0 时用服务默认值
	MaxContextTokens int `json:"max_context_tokens,omitempty"`
}

// ToBuildInput 转换为组装入参
func (r *BuildContextRequest) ToBuildInput(projectID string) composer.BuildInput {
	return composer.BuildInput{
		ProjectID:        projectID,
		Router:           r.Router,
		Persona:          r.Persona,
		StrictMode:       r.StrictMode,
		CurrentArcID:     r.CurrentArcID,
		MaxContextTokens: r.MaxContextTokens,
	}
}

// BuildContextResponse 上下文组装响应
type BuildContextResponse struct {
	ContextText string   `json:"context_text"`
	Sources     []string `json:"sources"`
	TokenCount  int      `json:"token_count"`
	Intent      string   `json:"intent"`
	Truncated   bool     `json:"truncated,omitempty"`
}

// ToBuildContextResponse 组装结果转响应
func ToBuildContextResponse(out *composer.BuildOutput) *BuildContextResponse {
	return &BuildContextResponse{
		ContextText: out.ContextText,
		Sources:     out.Sources,
		TokenCount:  out.TokenCount,
		Intent:      out.Intent,
		Truncated:   out.Truncated,
	}
}
