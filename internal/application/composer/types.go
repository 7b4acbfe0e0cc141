// Package composer 按路由意图组装最终上下文
package composer

// 路由意图
const (
	IntentFreeChat        = "free_chat"
	IntentReadFullContent = "read_full_content"
	IntentSearchChunks    = "search_chunks"
	IntentSearchBible     = "search_bible"
	IntentMixedContext    = "mixed_context"
)

// RouterResult 上游意图路由的结果
type RouterResult struct {
	Intent string `json:"intent"`

	// TargetFiles 用户点名的章节/文件名
	TargetFiles []string `json:"target_files,omitempty"`
	// TargetBibleEntities 用户点名的设定条目
	TargetBibleEntities []string `json:"target_bible_entities,omitempty"`
	// InferredPrefixes 推断出的分类前缀
	InferredPrefixes []string `json:"inferred_prefixes,omitempty"`
	// RewrittenQuery 改写后的检索查询
	RewrittenQuery string `json:"rewritten_query,omitempty"`

	ChapterRange      []int  `json:"chapter_range,omitempty"`
	ChapterRangeMode  string `json:"chapter_range_mode,omitempty"`
	ChapterRangeCount int    `json:"chapter_range_count,omitempty"`
}

// BuildInput 上下文组装请求
type BuildInput struct {
	ProjectID string       `json:"project_id"`
	Router    RouterResult `json:"router"`

	// Persona 人设文本，为空时取项目配置
	Persona    string `json:"persona,omitempty"`
	StrictMode bool   `json:"strict_mode,omitempty"`

	// CurrentArcID 当前篇章，为空时取最新活跃篇章
	CurrentArcID string `json:"current_arc_id,omitempty"`

	// MaxContextTokens 调用方指定的总预算上限，<=0 时用服务默认值
	MaxContextTokens int `json:"max_context_tokens,omitempty"`
}

// BuildOutput 上下文组装结果
type BuildOutput struct {
	ContextText string   `json:"context_text"`
	Sources     []string `json:"sources"`
	TokenCount  int      `json:"token_count"`
	Intent      string   `json:"intent"`

	// Truncated 最终整串截断是否生效
	Truncated bool `json:"truncated,omitempty"`
}
