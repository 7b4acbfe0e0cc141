package milvus

import (
	"context"

	"lore-context-api/internal/application/retrieval"
)

// RetrievalVectorRepository 把 Milvus 仓储适配为应用层的 VectorRepository port。
// 相似度阈值过滤在这里完成，应用层拿到的结果已经是可用的相似度 (0-1)。
type RetrievalVectorRepository struct {
	repo *Repository
}

func NewRetrievalVectorRepository(repo *Repository) *RetrievalVectorRepository {
	return &RetrievalVectorRepository{repo: repo}
}

var _ retrieval.VectorRepository = (*RetrievalVectorRepository)(nil)

func (r *RetrievalVectorRepository) EnsureCollections(ctx context.Context) error {
	if r == nil || r.repo == nil {
		return retrieval.ErrVectorDisabled
	}
	return r.repo.EnsureCollections(ctx)
}

func (r *RetrievalVectorRepository) SearchEntities(ctx context.Context, params *retrieval.VectorSearchParams) ([]*retrieval.VectorSearchResult, error) {
	return r.search(ctx, CollectionBibleEntities, params)
}

func (r *RetrievalVectorRepository) SearchChunks(ctx context.Context, params *retrieval.VectorSearchParams) ([]*retrieval.VectorSearchResult, error) {
	return r.search(ctx, CollectionChunks, params)
}

func (r *RetrievalVectorRepository) search(ctx context.Context, collection string, params *retrieval.VectorSearchParams) ([]*retrieval.VectorSearchResult, error) {
	if r == nil || r.repo == nil {
		return nil, retrieval.ErrVectorDisabled
	}
	if params == nil {
		return nil, nil
	}

	out, err := r.repo.SearchDocs(ctx, collection, &SearchParams{
		ProjectID:   params.ProjectID,
		QueryVector: params.QueryVector,
		TopK:        params.TopK,
		ArcID:       params.ArcID,
	})
	if err != nil {
		return nil, err
	}

	results := make([]*retrieval.VectorSearchResult, 0, len(out))
	for i := range out {
		v := out[i]
		if v == nil {
			continue
		}
		sim := r.repo.similarity(v.Score)
		if params.Threshold > 0 && sim < params.Threshold {
			continue
		}
		results = append(results, &retrieval.VectorSearchResult{
			ID:          v.ID,
			DocID:       v.DocID,
			Similarity:  sim,
			TextContent: v.TextContent,
		})
	}
	return results, nil
}

func (r *RetrievalVectorRepository) InsertEntityVectors(ctx context.Context, projectID string, items []*retrieval.VectorItem) error {
	return r.insert(ctx, CollectionBibleEntities, projectID, items)
}

func (r *RetrievalVectorRepository) InsertChunkVectors(ctx context.Context, projectID string, items []*retrieval.VectorItem) error {
	return r.insert(ctx, CollectionChunks, projectID, items)
}

func (r *RetrievalVectorRepository) insert(ctx context.Context, collection, projectID string, items []*retrieval.VectorItem) error {
	if r == nil || r.repo == nil {
		return retrieval.ErrVectorDisabled
	}
	if len(items) == 0 {
		return nil
	}

	docs := make([]*VectorDoc, 0, len(items))
	for i := range items {
		it := items[i]
		if it == nil {
			continue
		}
		docs = append(docs, &VectorDoc{
			ID:          it.ID,
			DocID:       it.DocID,
			ArcID:       it.ArcID,
			TextContent: it.TextContent,
			Vector:      it.Vector,
		})
	}
	return r.repo.InsertDocs(ctx, collection, projectID, docs)
}

func (r *RetrievalVectorRepository) DeleteEntityVectorsByDoc(ctx context.Context, projectID string, docIDs []string) error {
	if r == nil || r.repo == nil {
		return retrieval.ErrVectorDisabled
	}
	return r.repo.DeleteByDocIDs(ctx, CollectionBibleEntities, projectID, docIDs)
}

func (r *RetrievalVectorRepository) DeleteChunkVectorsByDoc(ctx context.Context, projectID string, docIDs []string) error {
	if r == nil || r.repo == nil {
		return retrieval.ErrVectorDisabled
	}
	return r.repo.DeleteByDocIDs(ctx, CollectionChunks, projectID, docIDs)
}
