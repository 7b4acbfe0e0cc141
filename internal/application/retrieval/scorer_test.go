package retrieval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lore-context-api/internal/domain/entity"
)

func fixedScorer(now time.Time) *Scorer {
	s := NewScorer(24 * time.Hour)
	s.Now = func() time.Time { return now }
	return s
}

func floatPtr(v float64) *float64 { return &v }

func makeCandidate(name string, sim float64, bias *float64, lookupCount int, lastLookup *time.Time) Candidate {
	return Candidate{
		Entity: &entity.BibleEntity{
			ID:             "id-" + name,
			ProjectID:      "p1",
			EntityName:     name,
			ImportanceBias: bias,
			LookupCount:    lookupCount,
			LastLookupAt:   lastLookup,
		},
		Similarity: sim,
		Source:     SourceVector,
	}
}

func TestScoreBounds(t *testing.T) {
	now := time.Now()
	s := fixedScorer(now)

	recent := now.Add(-time.Hour)
	cands := []Candidate{
		makeCandidate("[CHARACTER] A", 0, nil, 0, nil),
		makeCandidate("[CHARACTER] B", 1.0, floatPtr(1.0), 99, &recent),
		makeCandidate("[ITEM] C", 1.5, floatPtr(2.0), 3, &recent), // 超界输入也要被钳制
		makeCandidate("[ITEM] D", -0.5, floatPtr(-1.0), 0, nil),
	}

	for _, prefixes := range [][]string{nil, {"CHARACTER"}} {
		for _, c := range cands {
			bd := s.Score(c, prefixes)
			assert.GreaterOrEqual(t, bd.Final, 0.0)
			assert.LessOrEqual(t, bd.Final, 1.0)
		}
	}
}

func TestScoreMonotonicity(t *testing.T) {
	now := time.Now()
	s := fixedScorer(now)

	base := s.Score(makeCandidate("[ITEM] x", 0.5, floatPtr(0.3), 0, nil), nil)

	higherBias := s.Score(makeCandidate("[ITEM] x", 0.5, floatPtr(0.9), 0, nil), nil)
	assert.GreaterOrEqual(t, higherBias.Final, base.Final)

	higherSim := s.Score(makeCandidate("[ITEM] x", 0.9, floatPtr(0.3), 0, nil), nil)
	assert.GreaterOrEqual(t, higherSim.Final, base.Final)

	recent := now.Add(-time.Minute)
	withRecency := s.Score(makeCandidate("[ITEM] x", 0.5, floatPtr(0.3), 0, &recent), nil)
	assert.GreaterOrEqual(t, withRecency.Final, base.Final)
}

func TestRecencyBoundary(t *testing.T) {
	now := time.Now()
	s := fixedScorer(now)

	justOutside := now.Add(-24*time.Hour - time.Second)
	bd := s.Score(makeCandidate("[CHARACTER] a", 0.5, nil, 0, &justOutside), nil)
	assert.Equal(t, 0.0, bd.RecencyBonus)

	justInside := now.Add(-23*time.Hour - 59*time.Minute - 59*time.Second)
	bd = s.Score(makeCandidate("[CHARACTER] a", 0.5, nil, 0, &justInside), nil)
	assert.Equal(t, 1.0, bd.RecencyBonus)
}

func TestScoreDefaultImportance(t *testing.T) {
	s := fixedScorer(time.Now())
	bd := s.Score(makeCandidate("[CHARACTER] a", 0.6, nil, 0, nil), nil)
	assert.Equal(t, 0.5, bd.ImportanceBias)
}

func TestRankSwordScenario(t *testing.T) {
	now := time.Now()
	s := fixedScorer(now)

	hung := makeCandidate("[CHARACTER] Hùng", 0.6, floatPtr(0.8), 5, &now)
	dagger := makeCandidate("[ITEM] Rusty Dagger", 0.6, floatPtr(0.1), 0, nil)

	hits := s.Rank([]Candidate{dagger, hung}, 10, nil, true)
	assert.Len(t, hits, 2)
	assert.Equal(t, "[CHARACTER] Hùng", hits[0].Entity.EntityName)
	assert.InDelta(t, 0.68, hits[0].Score, 1e-9)
	assert.InDelta(t, 0.44, hits[1].Score, 1e-9)
}

func TestRankPrefixVariant(t *testing.T) {
	s := fixedScorer(time.Now())

	char := makeCandidate("[CHARACTER] A", 0.6, floatPtr(0.5), 0, nil)
	item := makeCandidate("[ITEM] B", 0.6, floatPtr(0.5), 0, nil)

	hits := s.Rank([]Candidate{item, char}, 10, []string{"CHARACTER"}, true)
	assert.Equal(t, "[CHARACTER] A", hits[0].Entity.EntityName)
	// 0.6*0.55 + 0*0.1 + 0.5*0.2 + 1*0.15 = 0.58
	assert.InDelta(t, 0.58, hits[0].Score, 1e-9)
	// 0.6*0.55 + 0*0.1 + 0.5*0.2 + 0*0.15 = 0.43
	assert.InDelta(t, 0.43, hits[1].Score, 1e-9)
	assert.Equal(t, 1.0, hits[0].Breakdown.PrefixMatch)
	assert.Equal(t, 0.0, hits[1].Breakdown.PrefixMatch)
}

func TestRankTieBreakByLookupCount(t *testing.T) {
	s := fixedScorer(time.Now())

	a := makeCandidate("[ITEM] a", 0.6, floatPtr(0.5), 1, nil)
	b := makeCandidate("[ITEM] b", 0.6, floatPtr(0.5), 9, nil)
	c := makeCandidate("[ITEM] c", 0.6, floatPtr(0.5), 9, nil)

	hits := s.Rank([]Candidate{a, b, c}, 10, nil, false)
	assert.Equal(t, "[ITEM] b", hits[0].Entity.EntityName)
	assert.Equal(t, "[ITEM] c", hits[1].Entity.EntityName) // 同分同命中次数保持输入顺序
	assert.Equal(t, "[ITEM] a", hits[2].Entity.EntityName)
}

func TestRankTruncatesTopK(t *testing.T) {
	s := fixedScorer(time.Now())
	cands := make([]Candidate, 0, 20)
	for i := 0; i < 20; i++ {
		cands = append(cands, makeCandidate("[ITEM] x", 0.5, nil, i, nil))
	}
	hits := s.Rank(cands, 5, nil, false)
	assert.Len(t, hits, 5)
}

func TestBreakdownRounding(t *testing.T) {
	s := fixedScorer(time.Now())
	bd := s.Score(makeCandidate("[ITEM] x", 0.123456, floatPtr(0.654321), 0, nil), nil)
	assert.Equal(t, 0.1235, bd.VectorSim)
	assert.Equal(t, 0.6543, bd.ImportanceBias)
}
