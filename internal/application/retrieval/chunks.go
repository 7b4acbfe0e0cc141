package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/embedding"

	"lore-context-api/internal/domain/repository"
	"lore-context-api/pkg/logger"
)

// ChunkSearcher 原始资料切片检索。
// 先在指定篇章内检索，无命中时放宽到全项目；向量不可用时退回关键字。
type ChunkSearcher struct {
	embedder embedding.Embedder
	vector   VectorRepository
	chunks   repository.ChunkRepository
	opts     Options
}

// NewChunkSearcher 创建切片检索器
func NewChunkSearcher(embedder embedding.Embedder, vectorRepo VectorRepository, chunkRepo repository.ChunkRepository, opts Options) *ChunkSearcher {
	return &ChunkSearcher{
		embedder: embedder,
		vector:   vectorRepo,
		chunks:   chunkRepo,
		opts:     opts.withDefaults(),
	}
}

// Enabled 向量召回是否可用
func (s *ChunkSearcher) Enabled() bool {
	return s != nil && s.embedder != nil && s.vector != nil
}

// Search 检索资料切片
func (s *ChunkSearcher) Search(ctx context.Context, in ChunkSearchInput) (*ChunkSearchOutput, error) {
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	in.Query = strings.TrimSpace(in.Query)
	in.ArcID = strings.TrimSpace(in.ArcID)
	if in.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}

	out := &ChunkSearchOutput{Mode: SourceVector}
	if in.Query == "" {
		out.Hits = []ChunkHit{}
		return out, nil
	}

	topK := in.TopK
	if topK <= 0 {
		topK = s.opts.DefaultTopK
	}
	if topK > maxTopK {
		topK = maxTopK
	}

	hits, err := s.vectorSearch(ctx, in, topK, out)
	if err != nil || len(hits) == 0 {
		if err != nil {
			out.DisabledReason = err.Error()
			logger.Debug(ctx, "chunk vector search degraded", "reason", err.Error())
		}
		out.Mode = SourceKeyword
		hits, err = s.keywordSearch(ctx, in, topK, out)
		if err != nil {
			out.Hits = []ChunkHit{}
			out.DisabledReason = err.Error()
			return out, nil
		}
	}
	out.Hits = hits
	return out, nil
}

func (s *ChunkSearcher) vectorSearch(ctx context.Context, in ChunkSearchInput, topK int, out *ChunkSearchOutput) ([]ChunkHit, error) {
	if !s.Enabled() {
		return nil, ErrVectorDisabled
	}
	if err := s.vector.EnsureCollections(ctx); err != nil {
		return nil, err
	}

	v64, err := s.embedder.EmbedStrings(ctx, []string{in.Query})
	if err != nil {
		return nil, err
	}
	if len(v64) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	emb := make([]float32, 0, len(v64[0]))
	for _, x := range v64[0] {
		emb = append(emb, float32(x))
	}

	params := &VectorSearchParams{
		ProjectID:   in.ProjectID,
		QueryVector: emb,
		TopK:        topK,
		Threshold:   s.opts.MatchThreshold,
		ArcID:       in.ArcID,
	}
	results, err := s.vector.SearchChunks(ctx, params)
	if err != nil {
		return nil, err
	}

	// 篇章内无命中：放宽到全项目再试一次
	if len(results) == 0 && in.ArcID != "" {
		params.ArcID = ""
		results, err = s.vector.SearchChunks(ctx, params)
		if err != nil {
			return nil, err
		}
		out.Widened = true
	}
	if len(results) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(results))
	simByID := make(map[string]float64, len(results))
	for _, r := range results {
		if r == nil || strings.TrimSpace(r.DocID) == "" {
			continue
		}
		ids = append(ids, r.DocID)
		simByID[r.DocID] = r.Similarity
	}

	rows, err := s.chunks.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	hits := make([]ChunkHit, 0, len(rows))
	for _, c := range rows {
		if c == nil {
			continue
		}
		hits = append(hits, ChunkHit{Chunk: c, Similarity: simByID[c.ID], Source: SourceVector})
	}
	return hits, nil
}

func (s *ChunkSearcher) keywordSearch(ctx context.Context, in ChunkSearchInput, topK int, out *ChunkSearchOutput) ([]ChunkHit, error) {
	if s == nil || s.chunks == nil {
		return nil, fmt.Errorf("chunk repository is not configured")
	}
	var arcID *string
	if in.ArcID != "" {
		arcID = &in.ArcID
	}
	rows, err := s.chunks.SearchByKeyword(ctx, in.ProjectID, in.Query, arcID, topK)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 && arcID != nil {
		rows, err = s.chunks.SearchByKeyword(ctx, in.ProjectID, in.Query, nil, topK)
		if err != nil {
			return nil, err
		}
		out.Widened = true
	}
	hits := make([]ChunkHit, 0, len(rows))
	for _, c := range rows {
		if c == nil {
			continue
		}
		hits = append(hits, ChunkHit{Chunk: c, Similarity: keywordFallbackSimilarity, Source: SourceKeyword})
	}
	return hits, nil
}
