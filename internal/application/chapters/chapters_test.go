package chapters

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lore-context-api/internal/domain/entity"
	"lore-context-api/internal/domain/repository"
)

type fakeChapterRepo struct {
	min, max int
	rows     []*entity.Chapter
	byTitle  map[string]*entity.Chapter
}

func (f *fakeChapterRepo) Create(ctx context.Context, c *entity.Chapter) error { return nil }

func (f *fakeChapterRepo) GetByID(ctx context.Context, id string) (*entity.Chapter, error) {
	return nil, nil
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
	out := make([]*entity.Chapter, 0)
	for _, c := range f.rows {
		if c.ChapterNumber >= start && c.ChapterNumber <= end {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChapterRepo) ListByNumbers(ctx context.Context, projectID string, numbers []int) ([]*entity.Chapter, error) {
	return nil, nil
}

func (f *fakeChapterRepo) FindByTitle(ctx context.Context, projectID, title string) (*entity.Chapter, error) {
	return f.byTitle[title], nil
}

func (f *fakeChapterRepo) ListByArc(ctx context.Context, arcID string) ([]*entity.Chapter, error) {
	return nil, nil
}

func (f *fakeChapterRepo) NumberBounds(ctx context.Context, projectID string) (int, int, error) {
	return f.min, f.max, nil
}

func (f *fakeChapterRepo) UpdateMetadata(ctx context.Context, id, summary, artStyle string) error {
	return nil
}

type fakeEntityRepo struct {
	byName map[string]*entity.BibleEntity
}

func (f *fakeEntityRepo) Create(ctx context.Context, be *entity.BibleEntity) error { return nil }

func (f *fakeEntityRepo) GetByID(ctx context.Context, id string) (*entity.BibleEntity, error) {
	return nil, nil
}

func (f *fakeEntityRepo) GetByIDs(ctx context.Context, ids []string) ([]*entity.BibleEntity, error) {
	return nil, nil
}

func (f *fakeEntityRepo) Update(ctx context.Context, be *entity.BibleEntity) error { return nil }
func (f *fakeEntityRepo) Delete(ctx context.Context, id string) error              { return nil }

func (f *fakeEntityRepo) ListByProject(ctx context.Context, projectID string, filter *repository.BibleEntityFilter, p repository.Pagination) (*repository.PagedResult[*entity.BibleEntity], error) {
	return &repository.PagedResult[*entity.BibleEntity]{}, nil
}

func (f *fakeEntityRepo) GetByName(ctx context.Context, projectID, entityName string) (*entity.BibleEntity, error) {
	return f.byName[entityName], nil
}

func (f *fakeEntityRepo) SearchByKeyword(ctx context.Context, projectID, query string, limit int) ([]*entity.BibleEntity, error) {
	return nil, nil
}

func (f *fakeEntityRepo) ListByPrefix(ctx context.Context, projectID, prefixKey string) ([]*entity.BibleEntity, error) {
	return nil, nil
}

func (f *fakeEntityRepo) TopByLookup(ctx context.Context, projectID string, limit int) ([]*entity.BibleEntity, error) {
	return nil, nil
}

func (f *fakeEntityRepo) IncrementLookup(ctx context.Context, ids []string) error { return nil }

func (f *fakeEntityRepo) UpdateVectorID(ctx context.Context, id, vectorID string) error { return nil }

func (f *fakeEntityRepo) ListBySourceChapters(ctx context.Context, projectID string, chapters []int) ([]*entity.BibleEntity, error) {
	return nil, nil
}

func chapter(number int, title, content string) *entity.Chapter {
	return &entity.Chapter{ID: title, ProjectID: "p1", ChapterNumber: number, Title: title, Content: content, Summary: "summary " + title}
}

func TestResolveFirstMode(t *testing.T) {
	// 起始章节号为 5 的项目：first/count=3 → (5,7)
	r := NewRangeResolver(&fakeChapterRepo{min: 5, max: 20})

	got, err := r.Resolve(context.Background(), "p1", "first", 3, nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, &Range{Start: 5, End: 7}, got)
}

func TestResolveLatestFloorsAtOne(t *testing.T) {
	// 最大章节号 4，latest/count=10 → (1,4) 而不是负数
	r := NewRangeResolver(&fakeChapterRepo{min: 1, max: 4})

	got, err := r.Resolve(context.Background(), "p1", "latest", 10, nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, &Range{Start: 1, End: 4}, got)
}

func TestResolveRangeNormalizesOrder(t *testing.T) {
	r := NewRangeResolver(&fakeChapterRepo{})

	got, err := r.Resolve(context.Background(), "p1", "range", 0, []int{9, 3})
	require.NoError(t, err)
	assert.Equal(t, &Range{Start: 3, End: 9}, got)
}

func TestResolveCountClamp(t *testing.T) {
	r := NewRangeResolver(&fakeChapterRepo{min: 1, max: 500})

	got, err := r.Resolve(context.Background(), "p1", "first", 9999, nil)
	require.NoError(t, err)
	assert.Equal(t, &Range{Start: 1, End: 50}, got)

	got, err = r.Resolve(context.Background(), "p1", "first", -2, nil)
	require.NoError(t, err)
	assert.Equal(t, &Range{Start: 1, End: 1}, got)
}

func TestResolveUnknownModeIsNil(t *testing.T) {
	r := NewRangeResolver(&fakeChapterRepo{min: 1, max: 9})

	got, err := r.Resolve(context.Background(), "p1", "whatever", 3, nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = r.Resolve(context.Background(), "p1", "", 3, nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolveEmptyProjectIsNil(t *testing.T) {
	r := NewRangeResolver(&fakeChapterRepo{min: 0, max: 0})

	got, err := r.Resolve(context.Background(), "p1", "latest", 3, nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoadFocusChapterKeepsFullContent(t *testing.T) {
	// 预算很小：中间章节降级为摘要，但最后一章（焦点）永远给全文
	repo := &fakeChapterRepo{rows: []*entity.Chapter{
		chapter(1, "一", strings.Repeat("甲", 4000)),
		chapter(2, "二", strings.Repeat("乙", 4000)),
		chapter(3, "三", strings.Repeat("丙", 4000)),
	}}
	l := NewLoader(repo, nil)

	res, err := l.Load(context.Background(), "p1", 1, 3, 600)
	require.NoError(t, err)
	// 第一章进入时还在预算内，给全文
	assert.Contains(t, res.Text, strings.Repeat("甲", 4000))
	// 第二章进入时已超预算，只给摘要
	assert.NotContains(t, res.Text, "乙乙")
	assert.Contains(t, res.Text, summaryOnlyMarker)
	// 焦点章节即使超预算也给全文
	assert.Contains(t, res.Text, strings.Repeat("丙", 4000))
	assert.Equal(t, []string{"Chapter 1: 一", "Chapter 2: 二", "Chapter 3: 三"}, res.Sources)
}

func TestLoadUnlimitedBudget(t *testing.T) {
	repo := &fakeChapterRepo{rows: []*entity.Chapter{chapter(1, "一", "正文")}}
	l := NewLoader(repo, nil)

	res, err := l.Load(context.Background(), "p1", 1, 1, 0)
	require.NoError(t, err)
	assert.Contains(t, res.Text, "正文")
	assert.NotContains(t, res.Text, summaryOnlyMarker)
}

func TestLoadByTitlesWithBibleFallback(t *testing.T) {
	ch := chapter(7, "雪夜", "章节正文")
	repo := &fakeChapterRepo{byTitle: map[string]*entity.Chapter{"雪夜": ch}}
	entRepo := &fakeEntityRepo{byName: map[string]*entity.BibleEntity{
		"[LOCATION] 黑石城": {ID: "e1", ProjectID: "p1", EntityName: "[LOCATION] 黑石城", Description: "要塞城市"},
	}}
	l := NewLoader(repo, entRepo)

	res, err := l.LoadByTitles(context.Background(), "p1", []string{"雪夜", "[LOCATION] 黑石城", "不存在"}, 0)
	require.NoError(t, err)
	assert.Contains(t, res.Text, "章节正文")
	assert.Contains(t, res.Text, "[BIBLE FALLBACK] [LOCATION] 黑石城")
	assert.Contains(t, res.Text, "要塞城市")
	assert.Equal(t, []string{"Chapter 7: 雪夜", "[LOCATION] 黑石城 (Bible)"}, res.Sources)
}
