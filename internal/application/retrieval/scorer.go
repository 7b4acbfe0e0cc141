package retrieval

import (
	"math"
	"sort"
	"time"

	"lore-context-api/internal/domain/entity"
)

// 基础权重：向量相似度 + 近期使用加成 + 重要性
const (
	weightVector     = 0.70
	weightRecency    = 0.10
	weightImportance = 0.20
)

// 前缀匹配启用时的权重变体，向量权重让出 0.15 给前缀项
const (
	weightVectorWithPrefix = 0.55
	weightPrefixMatch      = 0.15
)

// defaultRecencyWindow 近期使用加成窗口
const defaultRecencyWindow = 24 * time.Hour

// ScoreBreakdown 分项得分，各分量保留 4 位小数。
type ScoreBreakdown struct {
	VectorSim      float64 `json:"vector_sim"`
	RecencyBonus   float64 `json:"recency_bonus"`
	ImportanceBias float64 `json:"importance_bias"`
	PrefixMatch    float64 `json:"prefix_match"`
	Final          float64 `json:"final"`
}

// Candidate 待打分的候选。
type Candidate struct {
	Entity     *entity.BibleEntity
	Similarity float64
	Source     string
}

// Scorer 多信号相关性打分器。
type Scorer struct {
	// RecencyWindow 近期使用窗口，零值时取 24h
	RecencyWindow time.Duration
	// Now 取当前时间，便于测试注入
	Now func() time.Time
}

// NewScorer 创建打分器
func NewScorer(recencyWindow time.Duration) *Scorer {
	return &Scorer{RecencyWindow: recencyWindow}
}

func (s *Scorer) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Scorer) window() time.Duration {
	if s != nil && s.RecencyWindow > 0 {
		return s.RecencyWindow
	}
	return defaultRecencyWindow
}

// Score 计算单个候选的分项得分。
// prefixes 非空时启用前缀匹配变体权重；各分量与最终分都在 [0,1]。
func (s *Scorer) Score(c Candidate, prefixes []string) ScoreBreakdown {
	bd := ScoreBreakdown{
		VectorSim:      clamp01(c.Similarity),
		ImportanceBias: 0.5,
	}
	if c.Entity != nil {
		bd.ImportanceBias = clamp01(c.Entity.Importance())
		if c.Entity.LastLookupAt != nil && s.now().Sub(*c.Entity.LastLookupAt) <= s.window() {
			bd.RecencyBonus = 1.0
		}
	}

	if len(prefixes) == 0 {
		bd.Final = bd.VectorSim*weightVector +
			bd.RecencyBonus*weightRecency +
			bd.ImportanceBias*weightImportance
	} else {
		if c.Entity != nil && containsPrefix(prefixes, c.Entity.PrefixKey()) {
			bd.PrefixMatch = 1.0
		}
		bd.Final = bd.VectorSim*weightVectorWithPrefix +
			bd.RecencyBonus*weightRecency +
			bd.ImportanceBias*weightImportance +
			bd.PrefixMatch*weightPrefixMatch
	}

	bd.VectorSim = round4(bd.VectorSim)
	bd.RecencyBonus = round4(bd.RecencyBonus)
	bd.ImportanceBias = round4(bd.ImportanceBias)
	bd.PrefixMatch = round4(bd.PrefixMatch)
	bd.Final = round4(bd.Final)
	return bd
}

// Rank 对候选打分并按最终分降序排序，截断到 topK。
// 同分时命中次数多者优先，仍相同则保持输入顺序（稳定排序）。
func (s *Scorer) Rank(cands []Candidate, topK int, prefixes []string, includeBreakdown bool) []Hit {
	hits := make([]Hit, 0, len(cands))
	for _, c := range cands {
		if c.Entity == nil {
			continue
		}
		bd := s.Score(c, prefixes)
		h := Hit{
			Entity:     c.Entity,
			Similarity: c.Similarity,
			Source:     c.Source,
			Score:      bd.Final,
		}
		if includeBreakdown {
			b := bd
			h.Breakdown = &b
		}
		hits = append(hits, h)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Entity.LookupCount > hits[j].Entity.LookupCount
	})

	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
