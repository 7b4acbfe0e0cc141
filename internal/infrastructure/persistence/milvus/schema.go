// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	// CollectionBibleEntities 设定集条目集合
	CollectionBibleEntities = "bible_entities"
	// CollectionChunks 正文切片集合
	CollectionChunks = "chunks"

	// VectorDimension 向量维度
	VectorDimension = 1024
)

// vectorSchema 两个集合共用同一套字段布局：主键 + 向量 + 回表外键 + 过滤字段。
// doc_id 指向 PostgreSQL 行主键（bible_entities.id / chunks.id），用于命中后回表。
func vectorSchema(collection, description string) *entity.Schema {
	return &entity.Schema{
		CollectionName: collection,
		Description:    description,
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "vector",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": "1024",
				},
			},
			{
				Name:     "project_id",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "doc_id",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "arc_id",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "text_content",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "65535",
				},
			},
		},
	}
}

// BibleEntitiesSchema 设定集条目 Collection Schema
func BibleEntitiesSchema() *entity.Schema {
	return vectorSchema(CollectionBibleEntities, "Bible entity name+description embeddings for semantic lookup")
}

// ChunksSchema 正文切片 Collection Schema
func ChunksSchema() *entity.Schema {
	return vectorSchema(CollectionChunks, "Narrative chunk embeddings for evidence retrieval")
}

// VectorDoc 向量库条目数据结构
type VectorDoc struct {
	ID          string    `json:"id"`
	Vector      []float32 `json:"vector"`
	ProjectID   string    `json:"project_id"`
	DocID       string    `json:"doc_id"`
	ArcID       string    `json:"arc_id"`
	TextContent string    `json:"text_content"`
}

// PartitionName 生成分区名称（每个项目一个分区）
func PartitionName(projectID string) string {
	return "proj_" + projectID
}
