package handler

import (
	"lore-context-api/internal/application/assembler"
	"lore-context-api/internal/application/retrieval"
	"lore-context-api/internal/domain/repository"
	"lore-context-api/internal/interfaces/http/dto"
	"lore-context-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ChunkHandler 原始资料切片处理器
type ChunkHandler struct {
	chunkRepo repository.ChunkRepository
	indexer   *retrieval.Indexer
	assembler *assembler.ReverseLookupAssembler
}

// NewChunkHandler 创建切片处理器
func NewChunkHandler(
	chunkRepo repository.ChunkRepository,
	indexer *retrieval.Indexer,
	asm *assembler.ReverseLookupAssembler,
) *ChunkHandler {
	return &ChunkHandler{
		chunkRepo: chunkRepo,
		indexer:   indexer,
		assembler: asm,
	}
}

// ListChunks 获取项目切片列表
// @Summary 获取项目切片列表
// @Tags Chunks
// @Produce json
// @Param pid path string true "项目 ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Success 200 {object} dto.Response[[]dto.ChunkResponse]
// @Router /v1/projects/{pid}/chunks [get]
func (h *ChunkHandler) ListChunks(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)
	pageReq := dto.BindPage(c)

	result, err := h.chunkRepo.ListByProject(ctx, projectID, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		logger.Error(ctx, "failed to list chunks", err)
		dto.InternalError(c, "failed to list chunks")
		return
	}

	resp := dto.ToChunkListResponse(result.Items)
	meta := dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total))
	dto.SuccessWithPage(c, resp, meta)
}

// IngestChunks 批量摄入切片
// 入库后批量向量化，向量失败降级为日志。
// @Summary 批量摄入切片
// @Tags Chunks
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param body body dto.IngestChunksRequest true "切片内容"
// @Success 201 {object} dto.Response[[]dto.ChunkResponse]
// @Router /v1/projects/{pid}/chunks [post]
func (h *ChunkHandler) IngestChunks(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)

	var req dto.IngestChunksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	rows := req.ToChunks(projectID)
	if err := h.chunkRepo.CreateBatch(ctx, rows); err != nil {
		logger.Error(ctx, "failed to ingest chunks", err)
		dto.InternalError(c, "failed to ingest chunks")
		return
	}

	if h.indexer != nil && h.indexer.Enabled() {
		if err := h.indexer.IndexChunks(ctx, projectID, rows); err != nil {
			logger.Warn(ctx, "failed to index ingested chunks", "project_id", projectID, "error", err)
		}
	}

	dto.Created(c, dto.ToChunkListResponse(rows))
}

// GetChunk 获取切片详情
// @Summary 获取切片详情
// @Tags Chunks
// @Produce json
// @Param kid path string true "切片 ID"
// @Success 200 {object} dto.Response[dto.ChunkResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/chunks/{kid} [get]
func (h *ChunkHandler) GetChunk(c *gin.Context) {
	ctx := c.Request.Context()
	chunkID := dto.BindChunkID(c)

	chunk, err := h.chunkRepo.GetByID(ctx, chunkID)
	if err != nil {
		logger.Error(ctx, "failed to get chunk", err)
		dto.InternalError(c, "failed to get chunk")
		return
	}
	if chunk == nil {
		dto.NotFound(c, "chunk not found")
		return
	}

	dto.Success(c, dto.ToChunkResponse(chunk))
}

// GetChunkProvenance 获取切片的逆向溯源文本
// 沿 chunk → chapter → arc 解析归属并渲染出处说明。
// @Summary 获取切片溯源
// @Tags Chunks
// @Produce json
// @Param kid path string true "切片 ID"
// @Success 200 {object} dto.Response[map[string]string]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/chunks/{kid}/provenance [get]
func (h *ChunkHandler) GetChunkProvenance(c *gin.Context) {
	ctx := c.Request.Context()
	chunkID := dto.BindChunkID(c)

	chunk, err := h.chunkRepo.GetByID(ctx, chunkID)
	if err != nil {
		logger.Error(ctx, "failed to get chunk", err)
		dto.InternalError(c, "failed to get chunk")
		return
	}
	if chunk == nil {
		dto.NotFound(c, "chunk not found")
		return
	}

	text, err := h.assembler.RenderOne(ctx, chunkID)
	if err != nil {
		logger.Error(ctx, "failed to resolve chunk provenance", err)
		dto.InternalError(c, "failed to resolve chunk provenance")
		return
	}

	dto.Success(c, map[string]string{
		"chunk_id": chunkID,
		"text":     text,
	})
}

// DeleteChunk 删除切片
// @Summary 删除切片
// @Tags Chunks
// @Param kid path string true "切片 ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/chunks/{kid} [delete]
func (h *ChunkHandler) DeleteChunk(c *gin.Context) {
	ctx := c.Request.Context()
	chunkID := dto.BindChunkID(c)

	chunk, err := h.chunkRepo.GetByID(ctx, chunkID)
	if err != nil {
		logger.Error(ctx, "failed to get chunk", err)
		dto.InternalError(c, "failed to get chunk")
		return
	}
	if chunk == nil {
		dto.NotFound(c, "chunk not found")
		return
	}

	if err := h.chunkRepo.Delete(ctx, chunkID); err != nil {
		logger.Error(ctx, "failed to delete chunk", err)
		dto.InternalError(c, "failed to delete chunk")
		return
	}

	if h.indexer != nil && h.indexer.Enabled() {
		if err := h.indexer.RemoveChunks(ctx, chunk.ProjectID, []string{chunkID}); err != nil {
			logger.Warn(ctx, "failed to remove chunk vectors", "chunk_id", chunkID, "error", err)
		}
	}

	dto.NoContent(c)
}
