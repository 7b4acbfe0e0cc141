package summarize

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lore-context-api/internal/domain/entity"
	"lore-context-api/internal/domain/repository"
)

type fakeChatModel struct {
	reply string
	err   error
	seen  []*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.seen = msgs
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported in tests")
}

type fakeFactory struct {
	cm  *fakeChatModel
	err error
}

func (f *fakeFactory) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cm, nil
}

func (f *fakeFactory) Default(ctx context.Context) (model.BaseChatModel, error) {
	return f.Get(ctx, "")
}

type fakeChapterRepo struct {
	byID     map[string]*entity.Chapter
	byArc    map[string][]*entity.Chapter
	summary  string
	artStyle string
	updated  string
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
	return f.byArc[arcID], nil
}

func (f *fakeChapterRepo) NumberBounds(ctx context.Context, projectID string) (int, int, error) {
	return 0, 0, nil
}

func (f *fakeChapterRepo) UpdateMetadata(ctx context.Context, id, summary, artStyle string) error {
	f.updated = id
	f.summary = summary
	f.artStyle = artStyle
	return nil
}

type fakeArcRepo struct {
	byID    map[string]*entity.Arc
	updated string
	summary string
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

func (f *fakeArcRepo) UpdateSummary(ctx context.Context, id, summary string) error {
	f.updated = id
	f.summary = summary
	return nil
}

func TestSummarizeChapterParsesJSON(t *testing.T) {
	cm := &fakeChatModel{reply: "```json\n{\"summary\": \"主角夺剑\", \"art_style\": \"冷峻写实\"}\n```"}
	chRepo := &fakeChapterRepo{byID: map[string]*entity.Chapter{
		"ch1": {ID: "ch1", ProjectID: "p1", ChapterNumber: 1, Title: "雪夜", Content: "正文内容"},
	}}
	s := NewSummarizer(&fakeFactory{cm: cm}, chRepo, &fakeArcRepo{})

	err := s.SummarizeChapter(context.Background(), "ch1")
	require.NoError(t, err)
	assert.Equal(t, "ch1", chRepo.updated)
	assert.Equal(t, "主角夺剑", chRepo.summary)
	assert.Equal(t, "冷峻写实", chRepo.artStyle)
	require.Len(t, cm.seen, 2)
	assert.Equal(t, schema.System, cm.seen[0].Role)
}

func TestSummarizeChapterPlainTextFallback(t *testing.T) {
	cm := &fakeChatModel{reply: "这不是 JSON，只是一段摘要。"}
	chRepo := &fakeChapterRepo{byID: map[string]*entity.Chapter{
		"ch1": {ID: "ch1", ProjectID: "p1", ChapterNumber: 1, Content: "正文"},
	}}
	s := NewSummarizer(&fakeFactory{cm: cm}, chRepo, &fakeArcRepo{})

	err := s.SummarizeChapter(context.Background(), "ch1")
	require.NoError(t, err)
	assert.Equal(t, "这不是 JSON，只是一段摘要。", chRepo.summary)
	assert.Equal(t, "", chRepo.artStyle)
}

func TestSummarizeChapterEmptyContentSkips(t *testing.T) {
	chRepo := &fakeChapterRepo{byID: map[string]*entity.Chapter{
		"ch1": {ID: "ch1", ProjectID: "p1", ChapterNumber: 1},
	}}
	s := NewSummarizer(&fakeFactory{cm: &fakeChatModel{}}, chRepo, &fakeArcRepo{})

	err := s.SummarizeChapter(context.Background(), "ch1")
	require.NoError(t, err)
	assert.Empty(t, chRepo.updated)
}

func TestSummarizeChapterLLMError(t *testing.T) {
	chRepo := &fakeChapterRepo{byID: map[string]*entity.Chapter{
		"ch1": {ID: "ch1", ProjectID: "p1", Content: "正文"},
	}}
	s := NewSummarizer(&fakeFactory{cm: &fakeChatModel{err: errors.New("rate limited")}}, chRepo, &fakeArcRepo{})

	err := s.SummarizeChapter(context.Background(), "ch1")
	assert.Error(t, err)
	assert.Empty(t, chRepo.updated)
}

func TestSummarizeArc(t *testing.T) {
	cm := &fakeChatModel{reply: "整卷主线：主角从失去到夺回佩剑。"}
	arcRepo := &fakeArcRepo{byID: map[string]*entity.Arc{
		"a1": {ID: "a1", ProjectID: "p1", Name: "第一卷"},
	}}
	chRepo := &fakeChapterRepo{byArc: map[string][]*entity.Chapter{
		"a1": {
			{ID: "ch1", ChapterNumber: 1, Title: "失剑", Summary: "剑被夺走"},
			{ID: "ch2", ChapterNumber: 2, Title: "追凶", Content: "没有摘要但有正文"},
		},
	}}
	s := NewSummarizer(&fakeFactory{cm: cm}, chRepo, arcRepo)

	err := s.SummarizeArc(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "a1", arcRepo.updated)
	assert.Equal(t, "整卷主线：主角从失去到夺回佩剑。", arcRepo.summary)
}

func TestSummarizeArcNoChapters(t *testing.T) {
	arcRepo := &fakeArcRepo{byID: map[string]*entity.Arc{"a1": {ID: "a1", ProjectID: "p1", Name: "空卷"}}}
	s := NewSummarizer(&fakeFactory{cm: &fakeChatModel{}}, &fakeChapterRepo{}, arcRepo)

	err := s.SummarizeArc(context.Background(), "a1")
	require.NoError(t, err)
	assert.Empty(t, arcRepo.updated)
}
