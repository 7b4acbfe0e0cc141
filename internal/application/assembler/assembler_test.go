package assembler

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lore-context-api/internal/domain/entity"
	"lore-context-api/internal/domain/repository"
)

type fakeChunkRepo struct {
	byID map[string]*entity.Chunk
}

func (f *fakeChunkRepo) Create(ctx context.Context, c *entity.Chunk) error         { return nil }
func (f *fakeChunkRepo) CreateBatch(ctx context.Context, cs []*entity.Chunk) error { return nil }

func (f *fakeChunkRepo) GetByID(ctx context.Context, id string) (*entity.Chunk, error) {
	return f.byID[id], nil
}

func (f *fakeChunkRepo) GetByIDs(ctx context.Context, ids []string) ([]*entity.Chunk, error) {
	out := make([]*entity.Chunk, 0, len(ids))
	for _, id := range ids {
		if c, ok := f.byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChunkRepo) Delete(ctx context.Context, id string) error          { return nil }
func (f *fakeChunkRepo) DeleteByChapter(ctx context.Context, id string) error { return nil }

func (f *fakeChunkRepo) ListByProject(ctx context.Context, projectID string, p repository.Pagination) (*repository.PagedResult[*entity.Chunk], error) {
	return &repository.PagedResult[*entity.Chunk]{}, nil
}

func (f *fakeChunkRepo) ListByChapter(ctx context.Context, chapterID string) ([]*entity.Chunk, error) {
	return nil, nil
}

func (f *fakeChunkRepo) SearchByKeyword(ctx context.Context, projectID, query string, arcID *string, limit int) ([]*entity.Chunk, error) {
	return nil, nil
}

type fakeChapterRepo struct {
	byID map[string]*entity.Chapter
}

func (f *fakeChapterRepo) Create(ctx context.Context, c *entity.Chapter) error { return nil }

func (f *fakeChapterRepo) GetByID(ctx context.Context, id string) (*entity.Chapter, error) {
	return f.byID[id], nil
}

func (f *fakeChapterRepo) GetByNumber(ctx context.Context, projectID string, number int) (*entity.Chapter, error) {
	return nil, nil
}

func (f *fakeChapterRepo) Update(ctx context.Context, c *entity.Chapter) error { return nil }
func (f *fakeChapterRepo) Delete(ctx context.Context, id string) error         { return nil }

func (f *fakeChapterRepo) ListByProject(ctx context.Context, projectID string, p repository.Pagination) (*repository.PagedResult[*entity.Chapter], error) {
	return &repository.PagedResult[*entity.Chapter]{}, nil
}

func (f *fakeChapterRepo) ListByNumberRange(ctx context.Context, projectID string, start, end int) ([]*entity.Chapter, error) {
	return nil, nil
}

func (f *fakeChapterRepo) ListByNumbers(ctx context.Context, projectID string, numbers []int) ([]*entity.Chapter, error) {
	return nil, nil
}

func (f *fakeChapterRepo) FindByTitle(ctx context.Context, projectID, title string) (*entity.Chapter, error) {
	return nil, nil
}

func (f *fakeChapterRepo) ListByArc(ctx context.Context, arcID string) ([]*entity.Chapter, error) {
	return nil, nil
}

func (f *fakeChapterRepo) NumberBounds(ctx context.Context, projectID string) (int, int, error) {
	return 0, 0, nil
}

func (f *fakeChapterRepo) UpdateMetadata(ctx context.Context, id, summary, artStyle string) error {
	return nil
}

type fakeArcRepo struct {
	byID map[string]*entity.Arc
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
	return nil, nil
}

func (f *fakeArcRepo) UpdateSummary(ctx context.Context, id, summary string) error { return nil }

func strPtr(s string) *string { return &s }

func newAssembler(chunks map[string]*entity.Chunk, chapters map[string]*entity.Chapter, arcs map[string]*entity.Arc) *ReverseLookupAssembler {
	return NewReverseLookupAssembler(
		&fakeChunkRepo{byID: chunks},
		&fakeChapterRepo{byID: chapters},
		&fakeArcRepo{byID: arcs},
	)
}

func fullChain() (*ReverseLookupAssembler, string) {
	arc := &entity.Arc{ID: "arc-1", ProjectID: "p1", Name: "第一卷", Summary: "北境战事"}
	chapter := &entity.Chapter{ID: "ch-1", ProjectID: "p1", ArcID: strPtr("arc-1"), ChapterNumber: 3, Title: "雪夜", Summary: "奇袭敌营"}
	chunk := &entity.Chunk{
		ID: "c-1", ProjectID: "p1", ChapterID: strPtr("ch-1"),
		RawContent: "Hùng 拔出了剑。",
		Meta: map[string]any{"source_metadata": map[string]any{
			"sheet_name":     "人物表",
			"chapter_number": 3,
		}},
	}
	return newAssembler(
		map[string]*entity.Chunk{"c-1": chunk},
		map[string]*entity.Chapter{"ch-1": chapter},
		map[string]*entity.Arc{"arc-1": arc},
	), "c-1"
}

func TestRenderOneMacroMesoMicroOrder(t *testing.T) {
	a, id := fullChain()

	got, err := a.RenderOne(context.Background(), id)
	require.NoError(t, err)

	macro := strings.Index(got, "[MACRO CONTEXT - ARC]")
	meso := strings.Index(got, "[MESO CONTEXT - CHAPTER]")
	micro := strings.Index(got, "[MICRO EVIDENCE - REVERSE SOURCE]")
	require.GreaterOrEqual(t, macro, 0)
	assert.Less(t, macro, meso)
	assert.Less(t, meso, micro)

	assert.Contains(t, got, "Arc: 第一卷")
	assert.Contains(t, got, "Chapter 3: 雪夜")
	assert.Contains(t, got, "chapter_number=3, sheet_name=人物表")
	assert.Contains(t, got, "Hùng 拔出了剑。")
}

func TestRenderOneOrphanChunkMicroOnly(t *testing.T) {
	// 无章节无篇章的孤儿切片：只有微观块，出处渲染为 (none)
	chunk := &entity.Chunk{ID: "c-orphan-12345", ProjectID: "p1", Content: "raw note"}
	a := newAssembler(map[string]*entity.Chunk{"c-orphan-12345": chunk}, nil, nil)

	got, err := a.RenderOne(context.Background(), "c-orphan-12345")
	require.NoError(t, err)
	assert.NotContains(t, got, "[MACRO CONTEXT - ARC]")
	assert.NotContains(t, got, "[MESO CONTEXT - CHAPTER]")
	assert.Contains(t, got, "[MICRO EVIDENCE - REVERSE SOURCE]")
	assert.Contains(t, got, "Source: (none)")
	assert.Contains(t, got, "raw note")
}

func TestResolveParentsArcFallsBackToChunk(t *testing.T) {
	arc := &entity.Arc{ID: "arc-1", ProjectID: "p1", Name: "篇章"}
	chunk := &entity.Chunk{ID: "c-1", ProjectID: "p1", ArcID: strPtr("arc-1"), Content: "x"}
	a := newAssembler(map[string]*entity.Chunk{"c-1": chunk}, nil, map[string]*entity.Arc{"arc-1": arc})

	p, err := a.ResolveParents(context.Background(), "c-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Nil(t, p.Chapter)
	require.NotNil(t, p.Arc)
	assert.Equal(t, "arc-1", p.Arc.ID)
}

func TestResolveParentsMissingChunk(t *testing.T) {
	a := newAssembler(map[string]*entity.Chunk{}, nil, nil)
	p, err := a.ResolveParents(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestRenderManySkipsOversizedBlockEntirely(t *testing.T) {
	big := &entity.Chunk{ID: "c-big", ProjectID: "p1", Content: strings.Repeat("a", 4000)}
	small := &entity.Chunk{ID: "c-small", ProjectID: "p1", Content: "short evidence", Meta: map[string]any{
		"source_metadata": map[string]any{"source_file": "notes.txt"},
	}}
	a := newAssembler(map[string]*entity.Chunk{"c-big": big, "c-small": small}, nil, nil)

	// 大块超预算被整块跳过，后面的小块仍然放得下
	res, err := a.RenderMany(context.Background(), []string{"c-big", "c-small"}, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.NotContains(t, res.Text, strings.Repeat("a", 100))
	assert.Contains(t, res.Text, "short evidence")
	assert.Equal(t, []string{"notes.txt"}, res.Labels)
	assert.LessOrEqual(t, res.TokenCount, 100)
}

func TestRenderManyUnlimitedBudget(t *testing.T) {
	a, id := fullChain()
	res, err := a.RenderMany(context.Background(), []string{id, "missing"}, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Skipped)
	require.Len(t, res.Labels, 1)
	assert.Equal(t, "人物表", res.Labels[0])
	assert.Greater(t, res.TokenCount, 0)
}
