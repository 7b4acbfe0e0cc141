// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"lore-context-api/pkg/metrics"
)

// Repository 向量检索仓储
type Repository struct {
	client *Client
}

// NewRepository 创建向量检索仓储
func NewRepository(client *Client) *Repository {
	return &Repository{client: client}
}

// SearchParams 检索参数
type SearchParams struct {
	ProjectID   string
	QueryVector []float32
	TopK        int
	// ArcID 非空时限定篇章（仅 chunks 集合存有有效 arc_id）
	ArcID string
}

// SearchResult 检索结果
type SearchResult struct {
	ID          string
	DocID       string
	TextContent string
	Score       float32
}

// CreateCollection 创建集合
func (r *Repository) CreateCollection(ctx context.Context, schema *entity.Schema) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.CreateCollection",
		trace.WithAttributes(attribute.String("collection", schema.CollectionName)))
	defer span.End()

	collName := r.client.CollectionName(schema.CollectionName)
	schema.CollectionName = collName

	err := r.client.milvus.CreateCollection(ctx, schema, entity.DefaultShardNumber)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

// CreateIndex 创建 HNSW 索引
func (r *Repository) CreateIndex(ctx context.Context, collection string) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.CreateIndex",
		trace.WithAttributes(attribute.String("collection", collection)))
	defer span.End()

	collName := r.client.CollectionName(collection)

	idx, err := entity.NewIndexHNSW(
		r.metricType(),
		r.client.config.HNSWM,
		r.client.config.HNSWEfConstruction,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}

	err = r.client.milvus.CreateIndex(ctx, collName, "vector", idx, false)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// CreatePartition 创建分区
func (r *Repository) CreatePartition(ctx context.Context, collection, projectID string) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.CreatePartition",
		trace.WithAttributes(
			attribute.String("collection", collection),
			attribute.String("partition", PartitionName(projectID)),
		))
	defer span.End()

	collName := r.client.CollectionName(collection)
	partitionName := PartitionName(projectID)

	return r.client.milvus.CreatePartition(ctx, collName, partitionName)
}

// SearchDocs 在指定集合中做向量近邻检索
func (r *Repository) SearchDocs(ctx context.Context, collection string, params *SearchParams) ([]*SearchResult, error) {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return nil, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.SearchDocs",
		trace.WithAttributes(
			attribute.String("collection", collection),
			attribute.String("project_id", params.ProjectID),
			attribute.Int("top_k", params.TopK),
		))
	defer span.End()

	start := time.Now()
	results, err := r.searchDocs(ctx, collection, params)
	metrics.MilvusSearchDuration.WithLabelValues(collection).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		metrics.MilvusSearchTotal.WithLabelValues(collection, "error").Inc()
		return nil, err
	}
	metrics.MilvusSearchTotal.WithLabelValues(collection, "ok").Inc()

	span.SetAttributes(attribute.Int("result_count", len(results)))
	return results, nil
}

func (r *Repository) searchDocs(ctx context.Context, collection string, params *SearchParams) ([]*SearchResult, error) {
	collName := r.client.CollectionName(collection)
	partitionName := PartitionName(params.ProjectID)

	// 如果分区尚未创建（例如新项目还没写入过向量），直接返回空结果，避免 Milvus 报 partition not found。
	if has, err := r.client.milvus.HasPartition(ctx, collName, partitionName); err != nil {
		return nil, fmt.Errorf("failed to check partition: %w", err)
	} else if !has {
		return []*SearchResult{}, nil
	}

	// 构建过滤表达式
	filter := fmt.Sprintf(`project_id == "%s"`, params.ProjectID)
	if arcID := strings.TrimSpace(params.ArcID); arcID != "" {
		filter += fmt.Sprintf(` && arc_id == "%s"`, arcID)
	}

	sp, err := entity.NewIndexHNSWSearchParam(128)
	if err != nil {
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	results, err := r.client.milvus.Search(ctx,
		collName,
		[]string{partitionName},
		filter,
		[]string{"id", "doc_id", "text_content"},
		[]entity.Vector{entity.FloatVector(params.QueryVector)},
		"vector",
		r.metricType(),
		params.TopK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	// 解析结果
	var searchResults []*SearchResult
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			sr := &SearchResult{
				Score: result.Scores[i],
			}

			if idCol, ok := result.Fields.GetColumn("id").(*entity.ColumnVarChar); ok {
				sr.ID = idCol.Data()[i]
			}
			if docCol, ok := result.Fields.GetColumn("doc_id").(*entity.ColumnVarChar); ok {
				sr.DocID = docCol.Data()[i]
			}
			if textCol, ok := result.Fields.GetColumn("text_content").(*entity.ColumnVarChar); ok {
				sr.TextContent = textCol.Data()[i]
			}

			searchResults = append(searchResults, sr)
		}
	}

	return searchResults, nil
}

// InsertDocs 向指定集合写入向量条目
func (r *Repository) InsertDocs(ctx context.Context, collection, projectID string, docs []*VectorDoc) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.InsertDocs",
		trace.WithAttributes(
			attribute.String("collection", collection),
			attribute.String("project_id", projectID),
			attribute.Int("count", len(docs)),
		))
	defer span.End()

	if len(docs) == 0 {
		return nil
	}

	collName := r.client.CollectionName(collection)
	partitionName := PartitionName(projectID)

	// 确保分区存在
	has, _ := r.client.milvus.HasPartition(ctx, collName, partitionName)
	if !has {
		if err := r.CreatePartition(ctx, collection, projectID); err != nil {
			return err
		}
	}

	ids := make([]string, len(docs))
	vectors := make([][]float32, len(docs))
	projectIDs := make([]string, len(docs))
	docIDs := make([]string, len(docs))
	arcIDs := make([]string, len(docs))
	textContents := make([]string, len(docs))

	for i, doc := range docs {
		ids[i] = doc.ID
		vectors[i] = doc.Vector
		projectIDs[i] = projectID
		docIDs[i] = doc.DocID
		arcIDs[i] = doc.ArcID
		textContents[i] = doc.TextContent
	}

	idCol := entity.NewColumnVarChar("id", ids)
	vectorCol := entity.NewColumnFloatVector("vector", VectorDimension, vectors)
	projectCol := entity.NewColumnVarChar("project_id", projectIDs)
	docCol := entity.NewColumnVarChar("doc_id", docIDs)
	arcCol := entity.NewColumnVarChar("arc_id", arcIDs)
	textCol := entity.NewColumnVarChar("text_content", textContents)

	_, err := r.client.milvus.Insert(ctx, collName, partitionName,
		idCol, vectorCol, projectCol, docCol, arcCol, textCol)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert docs: %w", err)
	}

	return nil
}

// DeleteByDocIDs 删除指定 doc_id 列表对应的全部向量（同一 project 分区内）。
// 重建索引前清理旧向量使用，避免同一来源残留多版本。
func (r *Repository) DeleteByDocIDs(ctx context.Context, collection, projectID string, docIDs []string) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	var ids []string
	for _, id := range docIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		ids = append(ids, fmt.Sprintf("%q", id))
	}
	if len(ids) == 0 {
		return nil
	}

	ctx, span := tracer.Start(ctx, "milvus.DeleteByDocIDs",
		trace.WithAttributes(
			attribute.String("collection", collection),
			attribute.Int("count", len(ids)),
		))
	defer span.End()

	collName := r.client.CollectionName(collection)
	partitionName := PartitionName(projectID)

	if has, err := r.client.milvus.HasPartition(ctx, collName, partitionName); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to check partition: %w", err)
	} else if !has {
		return nil
	}

	filter := fmt.Sprintf(`doc_id in [%s]`, strings.Join(ids, ", "))
	if err := r.client.milvus.Delete(ctx, collName, partitionName, filter); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete docs: %w", err)
	}
	return nil
}

// RebuildIndex 重建索引
func (r *Repository) RebuildIndex(ctx context.Context, collection string) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.RebuildIndex",
		trace.WithAttributes(attribute.String("collection", collection)))
	defer span.End()

	collName := r.client.CollectionName(collection)

	// 1. 释放集合
	if err := r.client.milvus.ReleaseCollection(ctx, collName); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to release collection: %w", err)
	}

	// 2. 删除旧索引
	if err := r.client.milvus.DropIndex(ctx, collName, "vector"); err != nil {
		// 忽略索引不存在的错误
	}

	// 3. 创建新索引
	if err := r.CreateIndex(ctx, collection); err != nil {
		return err
	}

	// 4. 重新加载集合
	return r.client.milvus.LoadCollection(ctx, collName, false)
}

// EnsureCollections 确保 bible_entities / chunks 两个集合与索引可用（不存在则创建）。
// 约束：不会做 drop/rebuild 等破坏性操作。
func (r *Repository) EnsureCollections(ctx context.Context) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}

	for _, schema := range []*entity.Schema{BibleEntitiesSchema(), ChunksSchema()} {
		name := schema.CollectionName

		exists, err := r.client.HasCollection(ctx, name)
		if err != nil {
			return err
		}
		if !exists {
			if err := r.CreateCollection(ctx, schema); err != nil {
				return err
			}
			// 新建集合时创建索引；若失败，允许后续由运维介入。
			_ = r.CreateIndex(ctx, name)
		}

		// 尝试确保集合已加载（若已加载，Milvus 会返回成功）
		if err := r.client.LoadCollection(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// metricType 取配置的相似度指标，默认 COSINE。
func (r *Repository) metricType() entity.MetricType {
	switch strings.ToUpper(strings.TrimSpace(r.client.config.MetricType)) {
	case "IP":
		return entity.IP
	case "L2":
		return entity.L2
	default:
		return entity.COSINE
	}
}

// similarity 将 Milvus 返回的 score 归一为 0-1 的相似度。
// COSINE/IP 分数越大越相似，截断到 [0,1]；L2 为距离，取 1/(1+d)。
func (r *Repository) similarity(score float32) float64 {
	if r.metricType() == entity.L2 {
		return 1 / (1 + float64(score))
	}
	s := float64(score)
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
