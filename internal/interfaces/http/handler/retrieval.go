package handler

import (
	"lore-context-api/internal/application/retrieval"
	"lore-context-api/internal/interfaces/http/dto"
	"lore-context-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RetrievalHandler 混合检索处理器
type RetrievalHandler struct {
	engine        *retrieval.Engine
	chunkSearcher *retrieval.ChunkSearcher
	usageRecorder retrieval.UsageRecorder
}

// NewRetrievalHandler 创建检索处理器
func NewRetrievalHandler(
	engine *retrieval.Engine,
	chunkSearcher *retrieval.ChunkSearcher,
	usageRecorder retrieval.UsageRecorder,
) *RetrievalHandler {
	return &RetrievalHandler{
		engine:        engine,
		chunkSearcher: chunkSearcher,
		usageRecorder: usageRecorder,
	}
}

// Search 设定集混合检索
// 向量召回不可用时自动降级为关键字召回，响应中带降级原因。
// @Summary 设定集检索
// @Tags Retrieval
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param body body dto.SearchRequest true "检索请求"
// @Success 200 {object} dto.Response[dto.SearchResponse]
// @Router /v1/projects/{pid}/retrieval/search [post]
func (h *RetrievalHandler) Search(c *gin.Context) {
	h.search(c, false)
}

// DebugSearch 带分项得分与耗时统计的检索
// @Summary 设定集检索（调试）
// @Tags Retrieval
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param body body dto.SearchRequest true "检索请求"
// @Success 200 {object} dto.Response[dto.SearchResponse]
// @Router /v1/projects/{pid}/retrieval/debug [post]
func (h *RetrievalHandler) DebugSearch(c *gin.Context) {
	h.search(c, true)
}

func (h *RetrievalHandler) search(c *gin.Context, debug bool) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)

	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	in := req.ToSearchInput(projectID)
	var (
		out *retrieval.SearchOutput
		err error
	)
	if debug {
		out, err = h.engine.DebugSearch(ctx, in)
	} else {
		out, err = h.engine.Search(ctx, in)
	}
	if err != nil {
		logger.Error(ctx, "retrieval search failed", err)
		dto.InternalError(c, "retrieval search failed")
		return
	}

	// 命中即视为一次使用，反馈写入异步化
	if len(out.Hits) > 0 {
		ids := make([]string, 0, len(out.Hits))
		for _, hit := range out.Hits {
			if hit.Entity != nil {
				ids = append(ids, hit.Entity.ID)
			}
		}
		retrieval.BestEffortRecord(ctx, h.usageRecorder, projectID, ids)
	}

	dto.Success(c, dto.ToSearchResponse(out))
}

// SearchChunks 原始资料切片检索
// 指定篇章时先在篇章内检索，无结果再放宽到全项目。
// @Summary 切片检索
// @Tags Retrieval
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param body body dto.ChunkSearchRequest true "检索请求"
// @Success 200 {object} dto.Response[dto.ChunkSearchResponse]
// @Router /v1/projects/{pid}/retrieval/chunks [post]
func (h *RetrievalHandler) SearchChunks(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)

	var req dto.ChunkSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	out, err := h.chunkSearcher.Search(ctx, req.ToChunkSearchInput(projectID))
	if err != nil {
		logger.Error(ctx, "chunk search failed", err)
		dto.InternalError(c, "chunk search failed")
		return
	}

	dto.Success(c, dto.ToChunkSearchResponse(out))
}
