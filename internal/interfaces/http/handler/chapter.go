package handler

import (
	"lore-context-api/internal/application/retrieval"
	"lore-context-api/internal/domain/entity"
	"lore-context-api/internal/domain/repository"
	"lore-context-api/internal/infrastructure/messaging"
	"lore-context-api/internal/interfaces/http/dto"
	"lore-context-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ChapterHandler 章节处理器
type ChapterHandler struct {
	chapterRepo repository.ChapterRepository
	indexer     *retrieval.Indexer
	producer    *messaging.Producer
}

// NewChapterHandler 创建章节处理器
func NewChapterHandler(
	chapterRepo repository.ChapterRepository,
	indexer *retrieval.Indexer,
	producer *messaging.Producer,
) *ChapterHandler {
	return &ChapterHandler{
		chapterRepo: chapterRepo,
		indexer:     indexer,
		producer:    producer,
	}
}

// ListChapters 获取项目章节列表（不含正文）
// @Summary 获取项目章节列表
// @Tags Chapters
// @Produce json
// @Param pid path string true "项目 ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Success 200 {object} dto.Response[[]dto.ChapterListItem]
// @Router /v1/projects/{pid}/chapters [get]
func (h *ChapterHandler) ListChapters(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)
	pageReq := dto.BindPage(c)

	result, err := h.chapterRepo.ListByProject(ctx, projectID, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		logger.Error(ctx, "failed to list chapters", err)
		dto.InternalError(c, "failed to list chapters")
		return
	}

	resp := dto.ToChapterListResponse(result.Items)
	meta := dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total))
	dto.SuccessWithPage(c, resp, meta)
}

// CreateChapter 创建章节
// 带正文的章节在入库后重建切片与向量，并投递元数据生成任务。
// @Summary 创建章节
// @Tags Chapters
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param body body dto.CreateChapterRequest true "章节信息"
// @Success 201 {object} dto.Response[dto.ChapterResponse]
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/chapters [post]
func (h *ChapterHandler) CreateChapter(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)

	var req dto.CreateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	existing, err := h.chapterRepo.GetByNumber(ctx, projectID, req.ChapterNumber)
	if err != nil {
		logger.Error(ctx, "failed to check chapter number", err)
		dto.InternalError(c, "failed to check chapter number")
		return
	}
	if existing != nil {
		dto.Conflict(c, "chapter number already exists")
		return
	}

	ch := req.ToChapter(projectID)
	if err := h.chapterRepo.Create(ctx, ch); err != nil {
		logger.Error(ctx, "failed to create chapter", err)
		dto.InternalError(c, "failed to create chapter")
		return
	}

	if ch.Content != "" {
		h.afterContentChange(c, ch)
	}

	dto.Created(c, dto.ToChapterResponse(ch))
}

// GetChapter 获取章节详情
// @Summary 获取章节详情
// @Tags Chapters
// @Produce json
// @Param cid path string true "章节 ID"
// @Success 200 {object} dto.Response[dto.ChapterResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/chapters/{cid} [get]
func (h *ChapterHandler) GetChapter(c *gin.Context) {
	ctx := c.Request.Context()
	chapterID := dto.BindChapterID(c)

	ch, err := h.chapterRepo.GetByID(ctx, chapterID)
	if err != nil {
		logger.Error(ctx, "failed to get chapter", err)
		dto.InternalError(c, "failed to get chapter")
		return
	}
	if ch == nil {
		dto.NotFound(c, "chapter not found")
		return
	}

	dto.Success(c, dto.ToChapterResponse(ch))
}

// UpdateChapter 更新章节
// 正文变更触发切片重建和元数据任务投递。
// @Summary 更新章节
// @Tags Chapters
// @Accept json
// @Produce json
// @Param cid path string true "章节 ID"
// @Param body body dto.UpdateChapterRequest true "更新内容"
// @Success 200 {object} dto.Response[dto.ChapterResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/chapters/{cid} [put]
func (h *ChapterHandler) UpdateChapter(c *gin.Context) {
	ctx := c.Request.Context()
	chapterID := dto.BindChapterID(c)

	var req dto.UpdateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ch, err := h.chapterRepo.GetByID(ctx, chapterID)
	if err != nil {
		logger.Error(ctx, "failed to get chapter", err)
		dto.InternalError(c, "failed to get chapter")
		return
	}
	if ch == nil {
		dto.NotFound(c, "chapter not found")
		return
	}

	contentChanged := req.ApplyToChapter(ch)
	if err := h.chapterRepo.Update(ctx, ch); err != nil {
		logger.Error(ctx, "failed to update chapter", err)
		dto.InternalError(c, "failed to update chapter")
		return
	}

	if contentChanged {
		h.afterContentChange(c, ch)
	}

	dto.Success(c, dto.ToChapterResponse(ch))
}

// DeleteChapter 删除章节
// @Summary 删除章节
// @Tags Chapters
// @Param cid path string true "章节 ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/chapters/{cid} [delete]
func (h *ChapterHandler) DeleteChapter(c *gin.Context) {
	ctx := c.Request.Context()
	chapterID := dto.BindChapterID(c)

	ch, err := h.chapterRepo.GetByID(ctx, chapterID)
	if err != nil {
		logger.Error(ctx, "failed to get chapter", err)
		dto.InternalError(c, "failed to get chapter")
		return
	}
	if ch == nil {
		dto.NotFound(c, "chapter not found")
		return
	}

	// 清空正文再重建一次切片，等价于清理该章节的切片行与向量
	ch.SetContent("")
	if h.indexer != nil {
		if err := h.indexer.IndexChapterChunks(ctx, ch); err != nil {
			logger.Warn(ctx, "failed to clean chapter chunks", "chapter_id", ch.ID, "error", err)
		}
	}

	if err := h.chapterRepo.Delete(ctx, chapterID); err != nil {
		logger.Error(ctx, "failed to delete chapter", err)
		dto.InternalError(c, "failed to delete chapter")
		return
	}

	dto.NoContent(c)
}

// afterContentChange 正文变更后的旁路处理：切片重建 + 元数据任务。
// 两者都尽力而为，失败只记日志，不影响主流程。
func (h *ChapterHandler) afterContentChange(c *gin.Context, ch *entity.Chapter) {
	ctx := c.Request.Context()

	if h.indexer != nil {
		if err := h.indexer.IndexChapterChunks(ctx, ch); err != nil {
			logger.Warn(ctx, "failed to index chapter chunks", "chapter_id", ch.ID, "error", err)
		}
	}

	if h.producer != nil {
		task := &messaging.ChapterMetaMessage{ProjectID: ch.ProjectID, ChapterID: ch.ID}
		if _, err := h.producer.PublishChapterMeta(ctx, task); err != nil {
			logger.Warn(ctx, "failed to publish chapter meta task", "chapter_id", ch.ID, "error", err)
		}
	}
}
