package retrieval

import "context"

// VectorRepository 定义应用层对“向量存储/检索”的最小依赖（port）。
// 由基础设施层提供具体实现（例如 Milvus）。
type VectorRepository interface {
	EnsureCollections(ctx context.Context) error

	SearchEntities(ctx context.Context, params *VectorSearchParams) ([]*VectorSearchResult, error)
	SearchChunks(ctx context.Context, params *VectorSearchParams) ([]*VectorSearchResult, error)

	InsertEntityVectors(ctx context.Context, projectID string, items []*VectorItem) error
	InsertChunkVectors(ctx context.Context, projectID string, items []*VectorItem) error

	DeleteEntityVectorsByDoc(ctx context.Context, projectID string, docIDs []string) error
	DeleteChunkVectorsByDoc(ctx context.Context, projectID string, docIDs []string) error
}

// VectorSearchParams 向量检索参数。
type VectorSearchParams struct {
	ProjectID   string
	QueryVector []float32
	TopK        int
	// Threshold 相似度下限，低于该值的结果被丢弃；<=0 表示不过滤
	Threshold float64
	// ArcID 仅切片检索使用，非空时限定篇章
	ArcID string
}

// VectorSearchResult 向量检索结果。
type VectorSearchResult struct {
	ID string
	// DocID 对应 PostgreSQL 主键（bible_entities.id / chunks.id）
	DocID string
	// Similarity 已从距离换算为相似度 (0-1)
	Similarity  float64
	TextContent string
}

// VectorItem 待写入的向量条目。
type VectorItem struct {
	ID string
	// DocID 对应 PostgreSQL 主键
	DocID       string
	ArcID       string
	TextContent string
	Vector      []float32
}
