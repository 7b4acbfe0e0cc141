package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lore-context-api/internal/domain/entity"
	"lore-context-api/internal/domain/repository"
)

// fakeEmbedder 测试用 Embedder
type fakeEmbedder struct {
	err  error
	vec  []float64
	seen []string
}

func (f *fakeEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	f.seen = append(f.seen, texts...)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, 0, len(texts))
	for range texts {
		v := f.vec
		if v == nil {
			v = []float64{0.1, 0.2, 0.3}
		}
		out = append(out, v)
	}
	return out, nil
}

// fakeVectorRepo 测试用向量仓储
type fakeVectorRepo struct {
	entityResults []*VectorSearchResult
	entityErr     error
	chunkResults  map[string][]*VectorSearchResult // key: arcID（空串为全项目）
	chunkErr      error
	chunkCalls    []string
}

func (f *fakeVectorRepo) EnsureCollections(ctx context.Context) error { return nil }

func (f *fakeVectorRepo) SearchEntities(ctx context.Context, params *VectorSearchParams) ([]*VectorSearchResult, error) {
	return f.entityResults, f.entityErr
}

func (f *fakeVectorRepo) SearchChunks(ctx context.Context, params *VectorSearchParams) ([]*VectorSearchResult, error) {
	f.chunkCalls = append(f.chunkCalls, params.ArcID)
	if f.chunkErr != nil {
		return nil, f.chunkErr
	}
	return f.chunkResults[params.ArcID], nil
}

func (f *fakeVectorRepo) InsertEntityVectors(ctx context.Context, projectID string, items []*VectorItem) error {
	return nil
}

func (f *fakeVectorRepo) InsertChunkVectors(ctx context.Context, projectID string, items []*VectorItem) error {
	return nil
}

func (f *fakeVectorRepo) DeleteEntityVectorsByDoc(ctx context.Context, projectID string, docIDs []string) error {
	return nil
}

func (f *fakeVectorRepo) DeleteChunkVectorsByDoc(ctx context.Context, projectID string, docIDs []string) error {
	return nil
}

// fakeEntityRepo 测试用条目仓储
type fakeEntityRepo struct {
	byID       map[string]*entity.BibleEntity
	keyword    []*entity.BibleEntity
	keywordErr error

	keywordCalls int
	incremented  [][]string
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
	return nil, nil
}

func (f *fakeEntityRepo) SearchByKeyword(ctx context.Context, projectID, query string, limit int) ([]*entity.BibleEntity, error) {
	f.keywordCalls++
	return f.keyword, f.keywordErr
}

func (f *fakeEntityRepo) ListByPrefix(ctx context.Context, projectID, prefixKey string) ([]*entity.BibleEntity, error) {
	return nil, nil
}

func (f *fakeEntityRepo) TopByLookup(ctx context.Context, projectID string, limit int) ([]*entity.BibleEntity, error) {
	return nil, nil
}

func (f *fakeEntityRepo) IncrementLookup(ctx context.Context, ids []string) error {
	f.incremented = append(f.incremented, ids)
	return nil
}

func (f *fakeEntityRepo) UpdateVectorID(ctx context.Context, id, vectorID string) error { return nil }

func (f *fakeEntityRepo) ListBySourceChapters(ctx context.Context, projectID string, chapters []int) ([]*entity.BibleEntity, error) {
	return nil, nil
}

func newTestEntity(id, name string) *entity.BibleEntity {
	return &entity.BibleEntity{ID: id, ProjectID: "p1", EntityName: name}
}

func TestSearchVectorPath(t *testing.T) {
	repo := &fakeEntityRepo{byID: map[string]*entity.BibleEntity{
		"e1": newTestEntity("e1", "[CHARACTER] Hùng"),
		"e2": newTestEntity("e2", "[ITEM] Sword"),
	}}
	vec := &fakeVectorRepo{entityResults: []*VectorSearchResult{
		{DocID: "e1", Similarity: 0.9},
		{DocID: "e2", Similarity: 0.7},
	}}
	eng := NewEngine(&fakeEmbedder{}, vec, repo, Options{})

	out, err := eng.Search(context.Background(), SearchInput{ProjectID: "p1", Query: "Hùng", TopK: 5})
	require.NoError(t, err)
	assert.Equal(t, SourceVector, out.Mode)
	assert.Empty(t, out.DisabledReason)
	require.Len(t, out.Hits, 2)
	assert.Equal(t, "e1", out.Hits[0].Entity.ID)
	assert.Equal(t, 0, repo.keywordCalls)
}

func TestSearchEmbedFailureFallsBackToKeyword(t *testing.T) {
	repo := &fakeEntityRepo{keyword: []*entity.BibleEntity{newTestEntity("e1", "[CHARACTER] A")}}
	vec := &fakeVectorRepo{}
	eng := NewEngine(&fakeEmbedder{err: errors.New("embedding service down")}, vec, repo, Options{})

	out, err := eng.Search(context.Background(), SearchInput{ProjectID: "p1", Query: "A"})
	require.NoError(t, err)
	assert.Equal(t, SourceKeyword, out.Mode)
	assert.Contains(t, out.DisabledReason, "embedding service down")
	require.Len(t, out.Hits, 1)
	assert.Equal(t, keywordFallbackSimilarity, out.Hits[0].Similarity)
	assert.Equal(t, 1, repo.keywordCalls)
}

func TestSearchZeroVectorRowsFallsBackToKeyword(t *testing.T) {
	// 向量检索正常返回但零命中，也要尝试关键字兜底
	repo := &fakeEntityRepo{keyword: []*entity.BibleEntity{newTestEntity("e1", "[ITEM] B")}}
	vec := &fakeVectorRepo{entityResults: nil}
	eng := NewEngine(&fakeEmbedder{}, vec, repo, Options{})

	out, err := eng.Search(context.Background(), SearchInput{ProjectID: "p1", Query: "B"})
	require.NoError(t, err)
	assert.Equal(t, SourceKeyword, out.Mode)
	require.Len(t, out.Hits, 1)
}

func TestSearchNilEmbedderDegrades(t *testing.T) {
	repo := &fakeEntityRepo{keyword: []*entity.BibleEntity{newTestEntity("e1", "[ITEM] C")}}
	eng := NewEngine(nil, nil, repo, Options{})

	out, err := eng.Search(context.Background(), SearchInput{ProjectID: "p1", Query: "C"})
	require.NoError(t, err)
	assert.Equal(t, SourceKeyword, out.Mode)
	assert.Equal(t, ErrVectorDisabled.Error(), out.DisabledReason)
	require.Len(t, out.Hits, 1)
}

func TestSearchBothPathsFailReturnsEmpty(t *testing.T) {
	repo := &fakeEntityRepo{keywordErr: errors.New("db down")}
	eng := NewEngine(nil, nil, repo, Options{})

	out, err := eng.Search(context.Background(), SearchInput{ProjectID: "p1", Query: "C"})
	require.NoError(t, err)
	assert.Empty(t, out.Hits)
	assert.Contains(t, out.DisabledReason, "db down")
}

func TestSearchEmptyQueryIsNoop(t *testing.T) {
	repo := &fakeEntityRepo{}
	eng := NewEngine(nil, nil, repo, Options{})

	out, err := eng.Search(context.Background(), SearchInput{ProjectID: "p1", Query: "   "})
	require.NoError(t, err)
	assert.Empty(t, out.Hits)
	assert.Equal(t, 0, repo.keywordCalls)
}

func TestSearchMissingProjectIsError(t *testing.T) {
	eng := NewEngine(nil, nil, &fakeEntityRepo{}, Options{})
	_, err := eng.Search(context.Background(), SearchInput{Query: "x"})
	assert.Error(t, err)
}

func TestDebugSearchIncludesBreakdown(t *testing.T) {
	repo := &fakeEntityRepo{byID: map[string]*entity.BibleEntity{
		"e1": newTestEntity("e1", "[CHARACTER] A"),
	}}
	vec := &fakeVectorRepo{entityResults: []*VectorSearchResult{{DocID: "e1", Similarity: 0.8}}}
	eng := NewEngine(&fakeEmbedder{}, vec, repo, Options{})

	out, err := eng.DebugSearch(context.Background(), SearchInput{ProjectID: "p1", Query: "A"})
	require.NoError(t, err)
	require.Len(t, out.Hits, 1)
	require.NotNil(t, out.Hits[0].Breakdown)
	assert.Equal(t, 0.8, out.Hits[0].Breakdown.VectorSim)
	require.NotNil(t, out.Debug)
	assert.Equal(t, 1, out.Debug.ReturnedResults)
}

func TestChunkSearchWidensFromArc(t *testing.T) {
	chunks := &fakeChunkRepo{byID: map[string]*entity.Chunk{
		"c1": {ID: "c1", ProjectID: "p1", Content: "evidence"},
	}}
	vec := &fakeVectorRepo{chunkResults: map[string][]*VectorSearchResult{
		"": {{DocID: "c1", Similarity: 0.85}},
	}}
	s := NewChunkSearcher(&fakeEmbedder{}, vec, chunks, Options{})

	out, err := s.Search(context.Background(), ChunkSearchInput{ProjectID: "p1", Query: "evidence", ArcID: "arc-1"})
	require.NoError(t, err)
	assert.True(t, out.Widened)
	require.Len(t, out.Hits, 1)
	assert.Equal(t, "c1", out.Hits[0].Chunk.ID)
	// 先篇章内检索，再放宽到全项目
	assert.Equal(t, []string{"arc-1", ""}, vec.chunkCalls)
}

func TestChunkSearchKeywordFallback(t *testing.T) {
	chunks := &fakeChunkRepo{keyword: []*entity.Chunk{{ID: "c2", ProjectID: "p1", Content: "raw"}}}
	s := NewChunkSearcher(nil, nil, chunks, Options{})

	out, err := s.Search(context.Background(), ChunkSearchInput{ProjectID: "p1", Query: "raw"})
	require.NoError(t, err)
	assert.Equal(t, SourceKeyword, out.Mode)
	require.Len(t, out.Hits, 1)
}

// fakeChunkRepo 测试用切片仓储
type fakeChunkRepo struct {
	byID    map[string]*entity.Chunk
	keyword []*entity.Chunk
}

func (f *fakeChunkRepo) Create(ctx context.Context, c *entity.Chunk) error        { return nil }
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

func (f *fakeChunkRepo) Delete(ctx context.Context, id string) error            { return nil }
func (f *fakeChunkRepo) DeleteByChapter(ctx context.Context, id string) error   { return nil }

func (f *fakeChunkRepo) ListByProject(ctx context.Context, projectID string, p repository.Pagination) (*repository.PagedResult[*entity.Chunk], error) {
	return &repository.PagedResult[*entity.Chunk]{}, nil
}

func (f *fakeChunkRepo) ListByChapter(ctx context.Context, chapterID string) ([]*entity.Chunk, error) {
	return nil, nil
}

func (f *fakeChunkRepo) SearchByKeyword(ctx context.Context, projectID, query string, arcID *string, limit int) ([]*entity.Chunk, error) {
	return f.keyword, nil
}
