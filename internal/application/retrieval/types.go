package retrieval

import (
	"lore-context-api/internal/domain/entity"
)

// 检索来源
const (
	SourceVector  = "vector"
	SourceKeyword = "keyword"
)

// SearchInput 设定集检索输入。
type SearchInput struct {
	ProjectID string
	Query     string
	TopK      int

	// InferredPrefixes 路由推断出的分类前缀，非空时启用前缀匹配加成
	InferredPrefixes []string

	IncludeEmbedding bool
}

// Hit 一条带最终得分的检索命中。
type Hit struct {
	Entity     *entity.BibleEntity
	Similarity float64
	Source     string
	Score      float64

	// Breakdown 调试模式下的分项得分
	Breakdown *ScoreBreakdown
}

// DebugInfo 检索耗时与候选规模统计。
type DebugInfo struct {
	VectorSearchTimeMs int64
	RankTimeMs         int64
	TotalCandidates    int
	ReturnedResults    int
}

// SearchOutput 检索输出。
type SearchOutput struct {
	Hits []Hit

	// Mode 实际生效的召回方式：vector 或 keyword
	Mode string

	// DisabledReason 向量检索降级原因，为空表示未降级
	DisabledReason string
	QueryEmbedding []float32
	Debug          *DebugInfo
}

// ChunkSearchInput 切片检索输入。
type ChunkSearchInput struct {
	ProjectID string
	Query     string
	// ArcID 非空时先在该篇章内检索，无结果再放宽到全项目
	ArcID string
	TopK  int
}

// ChunkHit 切片检索命中。
type ChunkHit struct {
	Chunk      *entity.Chunk
	Similarity float64
	Source     string
}

// ChunkSearchOutput 切片检索输出。
type ChunkSearchOutput struct {
	Hits           []ChunkHit
	Mode           string
	DisabledReason string
	// Widened 表示篇章内无结果后放宽到了全项目
	Widened bool
}
