// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, h Handlers) {
	// 项目管理
	projects := v1.Group("/projects")
	{
		projects.GET("", h.Project.ListProjects)
		projects.POST("", h.Project.CreateProject)
		projects.GET("/:pid", h.Project.GetProject)
		projects.PUT("/:pid", h.Project.UpdateProject)
		projects.DELETE("/:pid", h.Project.DeleteProject)

		// 项目下的设定条目
		projects.GET("/:pid/entities", h.Entity.ListEntities)
		projects.POST("/:pid/entities", h.Entity.CreateEntity)
		projects.GET("/:pid/entities/:eid/relations", h.Relation.ListEntityRelations)

		// 项目下的条目关系
		projects.GET("/:pid/relations", h.Relation.ListRelations)
		projects.POST("/:pid/relations", h.Relation.CreateRelation)

		// 项目下的篇章
		projects.GET("/:pid/arcs", h.Arc.ListArcs)
		projects.POST("/:pid/arcs", h.Arc.CreateArc)
		projects.GET("/:pid/arcs/:aid/scope", h.Arc.GetArcScope)

		// 项目下的章节
		projects.GET("/:pid/chapters", h.Chapter.ListChapters)
		projects.POST("/:pid/chapters", h.Chapter.CreateChapter)

		// 项目下的原始资料切片
		projects.GET("/:pid/chunks", h.Chunk.ListChunks)
		projects.POST("/:pid/chunks", h.Chunk.IngestChunks)

		// 分类前缀配置
		projects.GET("/:pid/prefixes", h.Prefix.ListPrefixConfigs)
		projects.PUT("/:pid/prefixes", h.Prefix.UpsertPrefixConfig)
		projects.DELETE("/:pid/prefixes/:fid", h.Prefix.DeletePrefixConfig)

		// 上下文组装与设定集索引
		projects.POST("/:pid/context", h.Context.BuildContext)
		projects.GET("/:pid/bible-index", h.Context.GetBibleIndex)

		// 混合检索
		projects.POST("/:pid/retrieval/search", h.Retrieval.Search)
		projects.POST("/:pid/retrieval/debug", h.Retrieval.DebugSearch)
		projects.POST("/:pid/retrieval/chunks", h.Retrieval.SearchChunks)
	}

	// 设定条目管理
	entities := v1.Group("/entities")
	{
		entities.GET("/:eid", h.Entity.GetEntity)
		entities.PUT("/:eid", h.Entity.UpdateEntity)
		entities.DELETE("/:eid", h.Entity.DeleteEntity)
	}

	// 条目关系管理
	relations := v1.Group("/relations")
	{
		relations.GET("/:rid", h.Relation.GetRelation)
		relations.PUT("/:rid", h.Relation.UpdateRelation)
		relations.DELETE("/:rid", h.Relation.DeleteRelation)
	}

	// 篇章管理
	arcs := v1.Group("/arcs")
	{
		arcs.GET("/:aid", h.Arc.GetArc)
		arcs.PUT("/:aid", h.Arc.UpdateArc)
		arcs.DELETE("/:aid", h.Arc.DeleteArc)
		arcs.GET("/:aid/scope", h.Arc.GetArcScope)
	}

	// 章节管理
	chapters := v1.Group("/chapters")
	{
		chapters.GET("/:cid", h.Chapter.GetChapter)
		chapters.PUT("/:cid", h.Chapter.UpdateChapter)
		chapters.DELETE("/:cid", h.Chapter.DeleteChapter)
	}

	// 切片管理
	chunks := v1.Group("/chunks")
	{
		chunks.GET("/:kid", h.Chunk.GetChunk)
		chunks.GET("/:kid/provenance", h.Chunk.GetChunkProvenance)
		chunks.DELETE("/:kid", h.Chunk.DeleteChunk)
	}
}
