package composer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lore-context-api/internal/application/assembler"
	"lore-context-api/internal/application/chapters"
	"lore-context-api/internal/application/retrieval"
	"lore-context-api/internal/application/timeline"
	"lore-context-api/internal/domain/entity"
	"lore-context-api/internal/domain/repository"
)

// --- 测试替身 ---

type fakeProjectRepo struct {
	project *entity.Project
}

func (f *fakeProjectRepo) Create(ctx context.Context, p *entity.Project) error { return nil }

func (f *fakeProjectRepo) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	return f.project, nil
}

func (f *fakeProjectRepo) Update(ctx context.Context, p *entity.Project) error { return nil }
func (f *fakeProjectRepo) Delete(ctx context.Context, id string) error         { return nil }

func (f *fakeProjectRepo) List(ctx context.Context, p repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	return &repository.PagedResult[*entity.Project]{}, nil
}

type fakeEntityRepo struct {
	rules          []*entity.BibleEntity
	keyword        []*entity.BibleEntity
	keywordByQuery map[string][]*entity.BibleEntity
	byID           map[string]*entity.BibleEntity
	byName         map[string]*entity.BibleEntity
	top            []*entity.BibleEntity
	keywordCalls   int
	incremented    [][]string
}

func (f *fakeEntityRepo) Create(ctx context.Context, be *entity.BibleEntity) error { return nil }

func (f *fakeEntityRepo) GetByID(ctx context.Context, id string) (*entity.BibleEntity, error) {
	return f.byID[id], nil
}

func (f *fakeEntityRepo) GetByIDs(ctx context.Context, ids []string) ([]*entity.BibleEntity, error) {
	out := make([]*entity.BibleEntity, 0, len(ids))
	for _, id := range ids {
		if e, ok := f.byID[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
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
	f.keywordCalls++
	if f.keywordByQuery != nil {
		return f.keywordByQuery[query], nil
	}
	return f.keyword, nil
}

func (f *fakeEntityRepo) ListByPrefix(ctx context.Context, projectID, prefixKey string) ([]*entity.BibleEntity, error) {
	if prefixKey == "RULE" {
		return f.rules, nil
	}
	return nil, nil
}

func (f *fakeEntityRepo) TopByLookup(ctx context.Context, projectID string, limit int) ([]*entity.BibleEntity, error) {
	if limit < len(f.top) {
		return f.top[:limit], nil
	}
	return f.top, nil
}

func (f *fakeEntityRepo) IncrementLookup(ctx context.Context, ids []string) error {
	f.incremented = append(f.incremented, ids)
	return nil
}

func (f *fakeEntityRepo) UpdateVectorID(ctx context.Context, id, vectorID string) error { return nil }

func (f *fakeEntityRepo) ListBySourceChapters(ctx context.Context, projectID string, chs []int) ([]*entity.BibleEntity, error) {
	return nil, nil
}

type fakeRelationRepo struct {
	byEntity map[string][]*entity.EntityRelation
}

func (f *fakeRelationRepo) Create(ctx context.Context, r *entity.EntityRelation) error { return nil }

func (f *fakeRelationRepo) GetByID(ctx context.Context, id string) (*entity.EntityRelation, error) {
	return nil, nil
}

func (f *fakeRelationRepo) Update(ctx context.Context, r *entity.EntityRelation) error { return nil }
func (f *fakeRelationRepo) Delete(ctx context.Context, id string) error                { return nil }

func (f *fakeRelationRepo) ListByEntity(ctx context.Context, projectID, entityID string) ([]*entity.EntityRelation, error) {
	return f.byEntity[entityID], nil
}

func (f *fakeRelationRepo) ListByProject(ctx context.Context, projectID string, p repository.Pagination) (*repository.PagedResult[*entity.EntityRelation], error) {
	return &repository.PagedResult[*entity.EntityRelation]{}, nil
}

type fakePrefixRepo struct {
	rows []*entity.PrefixConfig
}

func (f *fakePrefixRepo) Upsert(ctx context.Context, cfg *entity.PrefixConfig) error { return nil }

func (f *fakePrefixRepo) ListByProject(ctx context.Context, projectID string) ([]*entity.PrefixConfig, error) {
	return f.rows, nil
}

func (f *fakePrefixRepo) Delete(ctx context.Context, id string) error { return nil }

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

type fakeChapterRepo struct {
	min, max  int
	byNumber  map[int]*entity.Chapter
	byTitle   map[string]*entity.Chapter
	autoCalls [][]int
}

func (f *fakeChapterRepo) Create(ctx context.Context, c *entity.Chapter) error { return nil }

func (f *fakeChapterRepo) GetByID(ctx context.Context, id string) (*entity.Chapter, error) {
	return nil, nil
}

func (f *fakeChapterRepo) GetByNumber(ctx context.Context, projectID string, number int) (*entity.Chapter, error) {
	return f.byNumber[number], nil
}

func (f *fakeChapterRepo) Update(ctx context.Context, c *entity.Chapter) error { return nil }
func (f *fakeChapterRepo) Delete(ctx context.Context, id string) error         { return nil }

func (f *fakeChapterRepo) ListByProject(ctx context.Context, projectID string, p repository.Pagination) (*repository.PagedResult[*entity.Chapter], error) {
	return &repository.PagedResult[*entity.Chapter]{}, nil
}

func (f *fakeChapterRepo) ListByNumberRange(ctx context.Context, projectID string, start, end int) ([]*entity.Chapter, error) {
	out := make([]*entity.Chapter, 0)
	for n := start; n <= end; n++ {
		if c, ok := f.byNumber[n]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChapterRepo) ListByNumbers(ctx context.Context, projectID string, numbers []int) ([]*entity.Chapter, error) {
	f.autoCalls = append(f.autoCalls, numbers)
	out := make([]*entity.Chapter, 0)
	for _, n := range numbers {
		if c, ok := f.byNumber[n]; ok {
			out = append(out, c)
		}
	}
	return out, nil
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

type fakeChunkRepo struct {
	byID    map[string]*entity.Chunk
	keyword []*entity.Chunk
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
	return f.keyword, nil
}

// --- 测试装配 ---

type harness struct {
	projects  *fakeProjectRepo
	entities  *fakeEntityRepo
	relations *fakeRelationRepo
	prefixes  *fakePrefixRepo
	arcs      *fakeArcRepo
	chapters  *fakeChapterRepo
	chunks    *fakeChunkRepo
	c         *Compositor
}

func newHarness() *harness {
	h := &harness{
		projects:  &fakeProjectRepo{project: &entity.Project{ID: "p1", Title: "连载", Persona: "你是严谨的故事助手"}},
		entities:  &fakeEntityRepo{byID: map[string]*entity.BibleEntity{}},
		relations: &fakeRelationRepo{byEntity: map[string][]*entity.EntityRelation{}},
		prefixes:  &fakePrefixRepo{},
		arcs:      &fakeArcRepo{byID: map[string]*entity.Arc{}},
		chapters:  &fakeChapterRepo{byNumber: map[int]*entity.Chapter{}, byTitle: map[string]*entity.Chapter{}},
		chunks:    &fakeChunkRepo{byID: map[string]*entity.Chunk{}},
	}

	// 向量通路留空：测试走关键字兜底
	engine := retrieval.NewEngine(nil, nil, h.entities, retrieval.Options{})
	chunkSearcher := retrieval.NewChunkSearcher(nil, nil, h.chunks, retrieval.Options{})
	asm := assembler.NewReverseLookupAssembler(h.chunks, h.chapters, h.arcs)
	resolver := chapters.NewRangeResolver(h.chapters)
	loader := chapters.NewLoader(h.chapters, h.entities)
	tl := timeline.NewArcTimeline(h.arcs)
	recorder := retrieval.NewRepoUsageRecorder(h.entities)

	h.c = NewCompositor(h.projects, h.entities, h.relations, h.prefixes,
		engine, chunkSearcher, asm, resolver, loader, tl, recorder, Config{})
	return h
}

func bibleEnt(id, name, desc string) *entity.BibleEntity {
	return &entity.BibleEntity{ID: id, ProjectID: "p1", EntityName: name, Description: desc}
}

func TestBuildContextFreeChatSkipsRetrieval(t *testing.T) {
	h := newHarness()
	h.entities.rules = []*entity.BibleEntity{bibleEnt("r1", "[RULE] 禁止穿越", "世界观没有时间旅行")}

	out, err := h.c.BuildContext(context.Background(), BuildInput{
		ProjectID: "p1",
		Router:    RouterResult{Intent: IntentFreeChat, RewrittenQuery: "随便聊聊"},
	})
	require.NoError(t, err)

	assert.Contains(t, out.ContextText, "[PERSONA]")
	assert.Contains(t, out.ContextText, "[MANDATORY RULES]")
	assert.Contains(t, out.ContextText, "禁止穿越")
	assert.Contains(t, out.ContextText, freeChatDisclaimer)
	// 闲聊是终态，不触发任何检索
	assert.Equal(t, 0, h.entities.keywordCalls)
	assert.Empty(t, out.Sources)
}

func TestBuildContextPersonaAlwaysFirst(t *testing.T) {
	h := newHarness()
	h.entities.rules = []*entity.BibleEntity{bibleEnt("r1", "[RULE] 规则", "内容")}

	out, err := h.c.BuildContext(context.Background(), BuildInput{
		ProjectID:  "p1",
		StrictMode: true,
		Router:     RouterResult{Intent: IntentFreeChat},
	})
	require.NoError(t, err)

	persona := strings.Index(out.ContextText, "[PERSONA]")
	strict := strings.Index(out.ContextText, "[STRICT MODE]")
	rules := strings.Index(out.ContextText, "[MANDATORY RULES]")
	require.GreaterOrEqual(t, persona, 0)
	assert.Less(t, persona, strict)
	assert.Less(t, strict, rules)
}

func TestBuildContextSearchBible(t *testing.T) {
	h := newHarness()
	hung := bibleEnt("e1", "[CHARACTER] Hùng", "北境剑士")
	hung.SourceChapter = 3
	blade := bibleEnt("e2", "[ITEM] 霜刃", "Hùng 的佩剑")
	h.entities.keyword = []*entity.BibleEntity{hung, blade}
	h.entities.byID["e1"] = hung
	h.entities.byID["e2"] = blade
	h.relations.byEntity["e1"] = []*entity.EntityRelation{
		{ID: "rel1", ProjectID: "p1", SourceEntityID: "e1", TargetEntityID: "e2", RelationType: "wields"},
	}
	h.chapters.byNumber[3] = &entity.Chapter{ID: "ch3", ProjectID: "p1", ChapterNumber: 3, Title: "雪夜", Content: "章节正文"}

	out, err := h.c.BuildContext(context.Background(), BuildInput{
		ProjectID: "p1",
		Router:    RouterResult{Intent: IntentSearchBible, RewrittenQuery: "Hùng 的剑"},
	})
	require.NoError(t, err)

	assert.Contains(t, out.ContextText, "Hùng: 北境剑士")
	assert.Contains(t, out.ContextText, "[CHARACTER]")
	// 每个命中条目都计入使用反馈，关系回查只跟首位命中
	require.Len(t, h.entities.incremented, 1)
	assert.Equal(t, []string{"e1", "e2"}, h.entities.incremented[0])
	assert.Contains(t, out.ContextText, "Relations of Hùng")
	assert.Contains(t, out.ContextText, "wields → 霜刃")
	// 出处章节自动装载并打 (Auto) 标记
	assert.Contains(t, out.ContextText, "章节正文")
	assert.Contains(t, out.Sources, "Chapter 3: 雪夜 (Auto)")
}

func TestBuildContextSearchBibleRetriesWithRewrittenQuery(t *testing.T) {
	h := newHarness()
	blade := bibleEnt("e2", "[ITEM] 霜刃", "Hùng 的佩剑")
	h.entities.byID["e2"] = blade
	// 点名条目查不到，改写后的整句能命中
	h.entities.keywordByQuery = map[string][]*entity.BibleEntity{
		"霜刃的来历": {blade},
	}

	out, err := h.c.BuildContext(context.Background(), BuildInput{
		ProjectID: "p1",
		Router: RouterResult{
			Intent:              IntentSearchBible,
			RewrittenQuery:      "霜刃的来历",
			TargetBibleEntities: []string{"无名之剑"},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, out.ContextText, "霜刃: Hùng 的佩剑")
	// 点名子查询一次 + 兜底一次
	assert.Equal(t, 2, h.entities.keywordCalls)
	require.Len(t, h.entities.incremented, 1)
	assert.Equal(t, []string{"e2"}, h.entities.incremented[0])
}

func TestBuildContextSearchChunksFallsThroughToBible(t *testing.T) {
	h := newHarness()
	h.entities.keyword = []*entity.BibleEntity{bibleEnt("e1", "[LOCATION] 黑石城", "要塞")}
	h.entities.byID["e1"] = h.entities.keyword[0]

	out, err := h.c.BuildContext(context.Background(), BuildInput{
		ProjectID: "p1",
		Router:    RouterResult{Intent: IntentSearchChunks, RewrittenQuery: "黑石城"},
	})
	require.NoError(t, err)
	// 切片检索无结果，回退到设定集检索
	assert.Contains(t, out.ContextText, "黑石城: 要塞")
}

func TestBuildContextSearchChunksRendersEvidence(t *testing.T) {
	h := newHarness()
	h.chunks.keyword = []*entity.Chunk{{ID: "c1", ProjectID: "p1", Content: "margin note about Hùng", Meta: map[string]any{
		"source_metadata": map[string]any{"source_file": "notes.txt"},
	}}}
	h.chunks.byID["c1"] = h.chunks.keyword[0]

	out, err := h.c.BuildContext(context.Background(), BuildInput{
		ProjectID: "p1",
		Router:    RouterResult{Intent: IntentSearchChunks, RewrittenQuery: "margin note"},
	})
	require.NoError(t, err)
	assert.Contains(t, out.ContextText, "[MICRO EVIDENCE - REVERSE SOURCE]")
	assert.Contains(t, out.ContextText, "margin note about Hùng")
	assert.Contains(t, out.Sources, "notes.txt")
}

func TestBuildContextReadFullContentByRange(t *testing.T) {
	h := newHarness()
	h.chapters.min, h.chapters.max = 1, 2
	h.chapters.byNumber[1] = &entity.Chapter{ID: "ch1", ProjectID: "p1", ChapterNumber: 1, Title: "开篇", Content: "第一章正文"}
	h.chapters.byNumber[2] = &entity.Chapter{ID: "ch2", ProjectID: "p1", ChapterNumber: 2, Title: "续篇", Content: "第二章正文"}

	out, err := h.c.BuildContext(context.Background(), BuildInput{
		ProjectID: "p1",
		Router:    RouterResult{Intent: IntentReadFullContent, ChapterRangeMode: "range", ChapterRange: []int{1, 2}},
	})
	require.NoError(t, err)
	assert.Contains(t, out.ContextText, "第一章正文")
	assert.Contains(t, out.ContextText, "第二章正文")
	assert.Equal(t, []string{"Chapter 1: 开篇", "Chapter 2: 续篇"}, out.Sources)
}

func TestBuildContextFinalCap(t *testing.T) {
	h := newHarness()
	h.chapters.byNumber[1] = &entity.Chapter{ID: "ch1", ProjectID: "p1", ChapterNumber: 1, Title: "长章", Content: strings.Repeat("字", 8000)}

	out, err := h.c.BuildContext(context.Background(), BuildInput{
		ProjectID:        "p1",
		MaxContextTokens: 200,
		Router:           RouterResult{Intent: IntentReadFullContent, ChapterRangeMode: "range", ChapterRange: []int{1, 1}},
	})
	require.NoError(t, err)
	assert.True(t, out.Truncated)
	assert.LessOrEqual(t, out.TokenCount, 200)
	// 人设在最前，截断后仍然幸存
	assert.True(t, strings.HasPrefix(out.ContextText, "[PERSONA]"))
}

func TestBuildContextArcScopeDescription(t *testing.T) {
	h := newHarness()
	prev := "a1"
	h.arcs.byID["a1"] = &entity.Arc{ID: "a1", ProjectID: "p1", Name: "第一卷", Summary: "开端", ArcType: entity.ArcTypeSequential}
	h.arcs.byID["a2"] = &entity.Arc{ID: "a2", ProjectID: "p1", Name: "第二卷", ArcType: entity.ArcTypeSequential, PrevArcID: &prev}
	h.arcs.latest = h.arcs.byID["a2"]

	out, err := h.c.BuildContext(context.Background(), BuildInput{
		ProjectID: "p1",
		Router:    RouterResult{Intent: IntentSearchBible, RewrittenQuery: "x"},
	})
	require.NoError(t, err)
	assert.Contains(t, out.ContextText, "[STORY ARC TIMELINE]")
	assert.Contains(t, out.ContextText, "1. 第一卷: 开端")
	assert.Contains(t, out.ContextText, "2. 第二卷 (current)")
}

func TestBuildContextMissingProject(t *testing.T) {
	h := newHarness()
	_, err := h.c.BuildContext(context.Background(), BuildInput{Router: RouterResult{Intent: IntentFreeChat}})
	assert.Error(t, err)
}

func TestBibleIndex(t *testing.T) {
	h := newHarness()
	parent := bibleEnt("p", "[CHARACTER] Hùng", "")
	variantParent := "p"
	variant := bibleEnt("v", "[CHARACTER] 少年 Hùng", "")
	variant.ParentID = &variantParent
	variant.LookupCount = 7
	parent.LookupCount = 12
	h.entities.top = []*entity.BibleEntity{parent, variant}
	h.entities.byID["p"] = parent
	h.entities.byID["v"] = variant

	res, err := h.c.BibleIndex(context.Background(), "p1", 0, 0)
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	assert.Contains(t, res.Text, "[BIBLE INDEX]")
	assert.Contains(t, res.Text, "(lookups: 12)")
	assert.Contains(t, res.Text, "(variant of Hùng)")
	assert.False(t, res.Truncated)
}

func TestBibleIndexTokenCap(t *testing.T) {
	h := newHarness()
	ents := make([]*entity.BibleEntity, 0, 50)
	for i := 0; i < 50; i++ {
		ents = append(ents, bibleEnt("e", "[ITEM] "+strings.Repeat("长名", 30), ""))
	}
	h.entities.top = ents

	res, err := h.c.BibleIndex(context.Background(), "p1", 0, 50)
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.LessOrEqual(t, res.TokenCount, 50)
	assert.Less(t, len(res.Entries), 50)
}
