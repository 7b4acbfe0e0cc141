package dto

import (
	"lore-context-api/internal/application/retrieval"
)

// SearchRequest 设定集混合检索请求
type SearchRequest struct {
	Query string `json:"query" binding:"required"`
	TopK  int    `json:"top_k,omitempty" binding:"omitempty,gte=1,lte=100"`
	// InferredPrefixes 路由推断出的分类前缀，非空时启用前缀匹配加成
	InferredPrefixes []string `json:"inferred_prefixes,omitempty"`
	IncludeEmbedding bool     `json:"include_embedding,omitempty"`
}

// ToSearchInput 转换为检索入参
func (r *SearchRequest) ToSearchInput(projectID string) retrieval.SearchInput {
	return retrieval.SearchInput{
		ProjectID:        projectID,
		Query:            r.Query,
		TopK:             r.TopK,
		InferredPrefixes: r.InferredPrefixes,
		IncludeEmbedding: r.IncludeEmbedding,
	}
}

// SearchHit 一条检索命中
type SearchHit struct {
	Entity     *BibleEntityResponse      `json:"entity"`
	Similarity float64                   `json:"similarity"`
	Source     string                    `json:"source"`
	Score      float64                   `json:"score"`
	Breakdown  *retrieval.ScoreBreakdown `json:"breakdown,omitempty"`
}

// SearchDebugInfo 检索耗时与候选规模统计
type SearchDebugInfo struct {
	VectorSearchTimeMs int64 `json:"vector_search_time_ms"`
	RankTimeMs         int64 `json:"rank_time_ms"`
	TotalCandidates    int   `json:"total_candidates"`
	ReturnedResults    int   `json:"returned_results"`
}

// SearchResponse 设定集检索响应
type SearchResponse struct {
	Hits []SearchHit `json:"hits"`
	Mode string      `json:"mode"`
	// DisabledReason 向量检索降级原因，为空表示未降级
	DisabledReason string           `json:"disabled_reason,omitempty"`
	QueryEmbedding []float32        `json:"query_embedding,omitempty"`
	Debug          *SearchDebugInfo `json:"debug,omitempty"`
}

// ToSearchResponse 检索输出转响应
func ToSearchResponse(out *retrieval.SearchOutput) *SearchResponse {
	resp := &SearchResponse{
		Hits:           make([]SearchHit, 0, len(out.Hits)),
		Mode:           out.Mode,
		DisabledReason: out.DisabledReason,
		QueryEmbedding: out.QueryEmbedding,
	}
	for _, h := range out.Hits {
		hit := SearchHit{
			Similarity: h.Similarity,
			Source:     h.Source,
			Score:      h.Score,
			Breakdown:  h.Breakdown,
		}
		if h.Entity != nil {
			hit.Entity = ToBibleEntityResponse(h.Entity)
		}
		resp.Hits = append(resp.Hits, hit)
	}
	if out.Debug != nil {
		resp.Debug = &SearchDebugInfo{
			VectorSearchTimeMs: out.Debug.VectorSearchTimeMs,
			RankTimeMs:         out.Debug.RankTimeMs,
			TotalCandidates:    out.Debug.TotalCandidates,
			ReturnedResults:    out.Debug.ReturnedResults,
		}
	}
	return resp
}

// ChunkSearchRequest 切片检索请求
type ChunkSearchRequest struct {
	Query string `json:"query" binding:"required"`
	// ArcID 非空时先在该篇章内检索，无结果再放宽到全项目
	ArcID string `json:"arc_id,omitempty"`
	TopK  int    `json:"top_k,omitempty" binding:"omitempty,gte=1,lte=100"`
}

// ToChunkSearchInput 转换为切片检索入参
func (r *ChunkSearchRequest) ToChunkSearchInput(projectID string) retrieval.ChunkSearchInput {
	return retrieval.ChunkSearchInput{
		ProjectID: projectID,
		Query:     r.Query,
		ArcID:     r.ArcID,
		TopK:      r.TopK,
	}
}

// ChunkSearchHit 切片检索命中
type ChunkSearchHit struct {
	Chunk      *ChunkResponse `json:"chunk"`
	Similarity float64        `json:"similarity"`
	Source     string         `json:"source"`
}

// ChunkSearchResponse 切片检索响应
type ChunkSearchResponse struct {
	Hits           []ChunkSearchHit `json:"hits"`
	Mode           string           `json:"mode"`
	DisabledReason string           `json:"disabled_reason,omitempty"`
	// Widened 表示篇章内无结果后放宽到了全项目
	Widened bool `json:"widened,omitempty"`
}

// ToChunkSearchResponse 切片检索输出转响应
func ToChunkSearchResponse(out *retrieval.ChunkSearchOutput) *ChunkSearchResponse {
	resp := &ChunkSearchResponse{
		Hits:           make([]ChunkSearchHit, 0, len(out.Hits)),
		Mode:           out.Mode,
		DisabledReason: out.DisabledReason,
		Widened:        out.Widened,
	}
	for _, h := range out.Hits {
		hit := ChunkSearchHit{
			Similarity: h.Similarity,
			Source:     h.Source,
		}
		if h.Chunk != nil {
			hit.Chunk = ToChunkResponse(h.Chunk)
		}
		resp.Hits = append(resp.Hits, hit)
	}
	return resp
}
