package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"

	"lore-context-api/internal/domain/entity"
	"lore-context-api/internal/domain/repository"
	"lore-context-api/pkg/metrics"
)

const (
	defaultTopK                = 10
	maxTopK                    = 50
	defaultCandidateMultiplier = 3
	defaultMinCandidates       = 30
	// keywordFallbackSimilarity 关键字兜底命中的近似相似度
	keywordFallbackSimilarity = 0.5
)

// Options 检索引擎参数。
type Options struct {
	DefaultTopK         int
	CandidateMultiplier int
	MinCandidates       int
	// MatchThreshold 向量相似度下限
	MatchThreshold float64
	// RecencyWindow 近期使用加成窗口
	RecencyWindow time.Duration
}

func (o Options) withDefaults() Options {
	if o.DefaultTopK <= 0 {
		o.DefaultTopK = defaultTopK
	}
	if o.CandidateMultiplier <= 0 {
		o.CandidateMultiplier = defaultCandidateMultiplier
	}
	if o.MinCandidates <= 0 {
		o.MinCandidates = defaultMinCandidates
	}
	return o
}

// Engine 设定集混合检索引擎。
// 向量召回为主，Embedder/Milvus 不可用或无命中时降级为关键字检索。
type Engine struct {
	embedder embedding.Embedder
	vector   VectorRepository
	entities repository.BibleEntityRepository
	scorer   *Scorer
	opts     Options
}

// NewEngine 创建检索引擎。embedder 和 vectorRepo 允许为 nil，此时只走关键字检索。
func NewEngine(embedder embedding.Embedder, vectorRepo VectorRepository, entityRepo repository.BibleEntityRepository, opts Options) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		embedder: embedder,
		vector:   vectorRepo,
		entities: entityRepo,
		scorer:   NewScorer(opts.RecencyWindow),
		opts:     opts,
	}
}

// Enabled 向量召回是否可用
func (e *Engine) Enabled() bool {
	return e != nil && e.embedder != nil && e.vector != nil
}

func (e *Engine) ensureReady(ctx context.Context) error {
	if e == nil || e.vector == nil {
		return ErrVectorDisabled
	}
	return e.vector.EnsureCollections(ctx)
}

// Search 混合检索设定条目
func (e *Engine) Search(ctx context.Context, in SearchInput) (*SearchOutput, error) {
	return e.search(ctx, in, false)
}

// DebugSearch 同 Search，额外返回分项得分与耗时统计
func (e *Engine) DebugSearch(ctx context.Context, in SearchInput) (*SearchOutput, error) {
	return e.search(ctx, in, true)
}

func (e *Engine) search(ctx context.Context, in SearchInput, debug bool) (*SearchOutput, error) {
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	in.Query = strings.TrimSpace(in.Query)
	if in.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}

	out := &SearchOutput{Mode: SourceVector}
	if in.Query == "" {
		// 空查询视为无事可做
		out.Hits = []Hit{}
		return out, nil
	}

	topK := in.TopK
	if topK <= 0 {
		topK = e.opts.DefaultTopK
	}
	if topK > maxTopK {
		topK = maxTopK
	}
	limit := topK * e.opts.CandidateMultiplier
	if limit < e.opts.MinCandidates {
		limit = e.opts.MinCandidates
	}

	prefixes := NormalizePrefixes(in.InferredPrefixes)

	var dbg *DebugInfo
	if debug {
		dbg = &DebugInfo{}
	}

	start := time.Now()
	candidates, err := e.vectorCandidates(ctx, in, limit, out)
	if dbg != nil {
		dbg.VectorSearchTimeMs = time.Since(start).Milliseconds()
	}
	if err != nil || len(candidates) == 0 {
		// 向量召回失败或零命中：关键字兜底
		if err != nil {
			out.DisabledReason = err.Error()
		}
		out.Mode = SourceKeyword
		candidates, err = e.keywordCandidates(ctx, in.ProjectID, in.Query, limit)
		if err != nil {
			// 兜底也失败时返回空结果而不是错误
			out.Hits = []Hit{}
			out.DisabledReason = err.Error()
			metrics.RetrievalTotal.WithLabelValues(out.Mode, "error").Inc()
			return out, nil
		}
	}

	rankStart := time.Now()
	out.Hits = e.scorer.Rank(candidates, topK, prefixes, debug)
	if dbg != nil {
		dbg.RankTimeMs = time.Since(rankStart).Milliseconds()
		dbg.TotalCandidates = len(candidates)
		dbg.ReturnedResults = len(out.Hits)
		out.Debug = dbg
	}

	metrics.RetrievalTotal.WithLabelValues(out.Mode, "ok").Inc()
	metrics.RetrievalDuration.WithLabelValues(out.Mode).Observe(time.Since(start).Seconds())
	metrics.RetrievalResults.WithLabelValues(out.Mode).Observe(float64(len(out.Hits)))
	return out, nil
}

// vectorCandidates 向量召回并从 PostgreSQL 回填条目
func (e *Engine) vectorCandidates(ctx context.Context, in SearchInput, limit int, out *SearchOutput) ([]Candidate, error) {
	if !e.Enabled() {
		return nil, ErrVectorDisabled
	}
	if err := e.ensureReady(ctx); err != nil {
		return nil, err
	}

	emb, err := e.embedQuery(ctx, in.Query)
	if err != nil {
		return nil, err
	}
	if in.IncludeEmbedding {
		out.QueryEmbedding = emb
	}

	results, err := e.vector.SearchEntities(ctx, &VectorSearchParams{
		ProjectID:   in.ProjectID,
		QueryVector: emb,
		TopK:        limit,
		Threshold:   e.opts.MatchThreshold,
	})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(results))
	simByID := make(map[string]float64, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		docID := strings.TrimSpace(r.DocID)
		if docID == "" {
			continue
		}
		ids = append(ids, docID)
		simByID[docID] = r.Similarity
	}

	ents, err := e.entities.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	cands := make([]Candidate, 0, len(ents))
	for _, ent := range ents {
		if ent == nil {
			continue
		}
		cands = append(cands, Candidate{
			Entity:     ent,
			Similarity: simByID[ent.ID],
			Source:     SourceVector,
		})
	}
	return cands, nil
}

// keywordCandidates 关键字兜底召回，相似度统一按 0.5 计
func (e *Engine) keywordCandidates(ctx context.Context, projectID, query string, limit int) ([]Candidate, error) {
	if e == nil || e.entities == nil {
		return nil, fmt.Errorf("entity repository is not configured")
	}
	ents, err := e.entities.SearchByKeyword(ctx, projectID, query, limit)
	if err != nil {
		return nil, err
	}
	cands := make([]Candidate, 0, len(ents))
	for _, ent := range ents {
		if ent == nil {
			continue
		}
		cands = append(cands, Candidate{
			Entity:     ent,
			Similarity: keywordFallbackSimilarity,
			Source:     SourceKeyword,
		})
	}
	return cands, nil
}

func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if e == nil || e.embedder == nil {
		return nil, ErrVectorDisabled
	}
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, fmt.Errorf("query is empty")
	}
	v64, err := e.embedder.EmbedStrings(ctx, []string{q})
	if err != nil {
		return nil, err
	}
	if len(v64) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	vec := v64[0]
	out := make([]float32, 0, len(vec))
	for _, x := range vec {
		out = append(out, float32(x))
	}
	return out, nil
}

// TopEntities 返回命中条目列表（辅助方法）
func TopEntities(out *SearchOutput) []*entity.BibleEntity {
	if out == nil {
		return nil
	}
	ents := make([]*entity.BibleEntity, 0, len(out.Hits))
	for _, h := range out.Hits {
		if h.Entity != nil {
			ents = append(ents, h.Entity)
		}
	}
	return ents
}
