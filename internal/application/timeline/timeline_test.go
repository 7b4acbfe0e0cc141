package timeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lore-context-api/internal/domain/entity"
)

// fakeArcRepo 测试用篇章仓储
type fakeArcRepo struct {
	byID   map[string]*entity.Arc
	latest *entity.Arc
}

func (f *fakeArcRepo) Create(ctx context.Context, arc *entity.Arc) error { return nil }

func (f *fakeArcRepo) GetByID(ctx context.Context, id string) (*entity.Arc, error) {
	return f.byID[id], nil
}

func (f *fakeArcRepo) Update(ctx context.Context, arc *entity.Arc) error { return nil }
func (f *fakeArcRepo) Delete(ctx context.Context, id string) error       { return nil }

func (f *fakeArcRepo) ListByProject(ctx context.Context, projectID string) ([]*entity.Arc, error) {
	return nil, nil
}

func (f *fakeArcRepo) GetLatestActive(ctx context.Context, projectID string) (*entity.Arc, error) {
	return f.latest, nil
}

func (f *fakeArcRepo) UpdateSummary(ctx context.Context, id, summary string) error { return nil }

func seqArc(id, projectID, name string, prev *string) *entity.Arc {
	return &entity.Arc{ID: id, ProjectID: projectID, Name: name, Summary: "summary of " + name, ArcType: entity.ArcTypeSequential, PrevArcID: prev}
}

func strPtr(s string) *string { return &s }

func TestScopeForNoArcIsGlobalOnly(t *testing.T) {
	tl := NewArcTimeline(&fakeArcRepo{byID: map[string]*entity.Arc{}})

	scope, err := tl.ScopeFor(context.Background(), "p1", "")
	require.NoError(t, err)
	assert.True(t, scope.GlobalBible)
	assert.Equal(t, ScopeGlobalOnly, scope.ScopeType)
	assert.Empty(t, scope.ArcSummaries)
}

func TestScopeForUnknownArcDegrades(t *testing.T) {
	tl := NewArcTimeline(&fakeArcRepo{byID: map[string]*entity.Arc{}})

	scope, err := tl.ScopeFor(context.Background(), "p1", "missing")
	require.NoError(t, err)
	assert.Equal(t, ScopeGlobalOnly, scope.ScopeType)
}

func TestScopeForStandalone(t *testing.T) {
	arc := &entity.Arc{ID: "a1", ProjectID: "p1", Name: "番外", Summary: "独立故事", ArcType: entity.ArcTypeStandalone, PrevArcID: strPtr("a0")}
	tl := NewArcTimeline(&fakeArcRepo{byID: map[string]*entity.Arc{
		"a1": arc,
		"a0": seqArc("a0", "p1", "前篇", nil),
	}})

	scope, err := tl.ScopeFor(context.Background(), "p1", "a1")
	require.NoError(t, err)
	assert.Equal(t, ScopeStandalone, scope.ScopeType)
	// 独立篇章不继承前篇，即使 prev_arc_id 有值
	require.Len(t, scope.ArcSummaries, 1)
	assert.Equal(t, "a1", scope.ArcSummaries[0].ID)
}

func TestScopeForSequentialChainOldestFirst(t *testing.T) {
	tl := NewArcTimeline(&fakeArcRepo{byID: map[string]*entity.Arc{
		"a1": seqArc("a1", "p1", "第一卷", nil),
		"a2": seqArc("a2", "p1", "第二卷", strPtr("a1")),
		"a3": seqArc("a3", "p1", "第三卷", strPtr("a2")),
	}})

	scope, err := tl.ScopeFor(context.Background(), "p1", "a3")
	require.NoError(t, err)
	assert.Equal(t, ScopeSequential, scope.ScopeType)
	require.Len(t, scope.ArcSummaries, 3)
	assert.Equal(t, "a1", scope.ArcSummaries[0].ID)
	assert.Equal(t, "a2", scope.ArcSummaries[1].ID)
	assert.Equal(t, "a3", scope.ArcSummaries[2].ID)
}

func TestScopeForChainCycleTerminates(t *testing.T) {
	// A→B→A 环路必须终止而不是死循环
	tl := NewArcTimeline(&fakeArcRepo{byID: map[string]*entity.Arc{
		"a": seqArc("a", "p1", "A", strPtr("b")),
		"b": seqArc("b", "p1", "B", strPtr("a")),
	}})

	scope, err := tl.ScopeFor(context.Background(), "p1", "a")
	require.NoError(t, err)
	require.Len(t, scope.ArcSummaries, 2)
	assert.Equal(t, "b", scope.ArcSummaries[0].ID)
	assert.Equal(t, "a", scope.ArcSummaries[1].ID)
}

func TestScopeForChainStopsAtProjectBoundary(t *testing.T) {
	tl := NewArcTimeline(&fakeArcRepo{byID: map[string]*entity.Arc{
		"a1": seqArc("a1", "other-project", "外部", nil),
		"a2": seqArc("a2", "p1", "本篇", strPtr("a1")),
	}})

	scope, err := tl.ScopeFor(context.Background(), "p1", "a2")
	require.NoError(t, err)
	require.Len(t, scope.ArcSummaries, 1)
	assert.Equal(t, "a2", scope.ArcSummaries[0].ID)
}

func TestCurrentArcIDExplicitWins(t *testing.T) {
	tl := NewArcTimeline(&fakeArcRepo{latest: seqArc("a9", "p1", "latest", nil)})

	id, err := tl.CurrentArcID(context.Background(), "p1", "a1")
	require.NoError(t, err)
	assert.Equal(t, "a1", id)
}

func TestCurrentArcIDFallsBackToLatestActive(t *testing.T) {
	tl := NewArcTimeline(&fakeArcRepo{latest: seqArc("a9", "p1", "latest", nil)})

	id, err := tl.CurrentArcID(context.Background(), "p1", "")
	require.NoError(t, err)
	assert.Equal(t, "a9", id)
}

func TestCurrentArcIDNoArcs(t *testing.T) {
	tl := NewArcTimeline(&fakeArcRepo{})

	id, err := tl.CurrentArcID(context.Background(), "p1", "")
	require.NoError(t, err)
	assert.Equal(t, "", id)
}

func TestScopeDescription(t *testing.T) {
	scope := &Scope{ScopeType: ScopeSequential, ArcSummaries: []ArcSummary{
		{ID: "a1", Name: "第一卷", Summary: "开端"},
		{ID: "a2", Name: "第二卷", Summary: ""},
	}}
	got := ScopeDescription(scope)
	assert.Contains(t, got, "[STORY ARC TIMELINE]")
	assert.Contains(t, got, "1. 第一卷: 开端")
	assert.Contains(t, got, "2. 第二卷 (current)")

	assert.Equal(t, "", ScopeDescription(nil))
	assert.Equal(t, "", ScopeDescription(&Scope{ScopeType: ScopeGlobalOnly}))
}
