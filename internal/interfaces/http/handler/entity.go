package handler

import (
	"lore-context-api/internal/application/retrieval"
	"lore-context-api/internal/domain/entity"
	"lore-context-api/internal/domain/repository"
	"lore-context-api/internal/infrastructure/persistence/redis"
	"lore-context-api/internal/interfaces/http/dto"
	"lore-context-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// EntityHandler 设定条目处理器
type EntityHandler struct {
	entityRepo repository.BibleEntityRepository
	indexer    *retrieval.Indexer
	cache      *redis.Cache
}

// NewEntityHandler 创建设定条目处理器
func NewEntityHandler(
	entityRepo repository.BibleEntityRepository,
	indexer *retrieval.Indexer,
	cache *redis.Cache,
) *EntityHandler {
	return &EntityHandler{
		entityRepo: entityRepo,
		indexer:    indexer,
		cache:      cache,
	}
}

// ListEntities 获取设定条目列表
// @Summary 获取设定条目列表
// @Tags Entities
// @Produce json
// @Param pid path string true "项目 ID"
// @Param prefix query string false "分类前缀，如 CHARACTER"
// @Param name query string false "名称模糊匹配"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Success 200 {object} dto.Response[[]dto.BibleEntityResponse]
// @Router /v1/projects/{pid}/entities [get]
func (h *EntityHandler) ListEntities(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)
	pageReq := dto.BindPage(c)

	prefix := c.Query("prefix")
	name := c.Query("name")

	var filter *repository.BibleEntityFilter
	if prefix != "" || name != "" {
		filter = &repository.BibleEntityFilter{
			PrefixKey: prefix,
			Name:      name,
		}
	}

	result, err := h.entityRepo.ListByProject(ctx, projectID, filter, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		logger.Error(ctx, "failed to list entities", err)
		dto.InternalError(c, "failed to list entities")
		return
	}

	resp := dto.ToBibleEntityListResponse(result.Items)
	meta := dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total))
	dto.SuccessWithPage(c, resp, meta)
}

// CreateEntity 创建设定条目
// @Summary 创建设定条目
// @Tags Entities
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param body body dto.CreateBibleEntityRequest true "条目信息"
// @Success 201 {object} dto.Response[dto.BibleEntityResponse]
// @Router /v1/projects/{pid}/entities [post]
func (h *EntityHandler) CreateEntity(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)

	var req dto.CreateBibleEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	be := req.ToBibleEntity(projectID)
	if err := h.entityRepo.Create(ctx, be); err != nil {
		logger.Error(ctx, "failed to create entity", err)
		dto.InternalError(c, "failed to create entity")
		return
	}

	h.reindex(c, be)
	h.invalidateCache(c, projectID)

	dto.Created(c, dto.ToBibleEntityResponse(be))
}

// GetEntity 获取设定条目详情
// @Summary 获取设定条目详情
// @Tags Entities
// @Produce json
// @Param eid path string true "条目 ID"
// @Success 200 {object} dto.Response[dto.BibleEntityResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/entities/{eid} [get]
func (h *EntityHandler) GetEntity(c *gin.Context) {
	ctx := c.Request.Context()
	entityID := dto.BindEntityID(c)

	be, err := h.entityRepo.GetByID(ctx, entityID)
	if err != nil {
		logger.Error(ctx, "failed to get entity", err)
		dto.InternalError(c, "failed to get entity")
		return
	}
	if be == nil {
		dto.NotFound(c, "entity not found")
		return
	}

	dto.Success(c, dto.ToBibleEntityResponse(be))
}

// UpdateEntity 更新设定条目
// @Summary 更新设定条目
// @Tags Entities
// @Accept json
// @Produce json
// @Param eid path string true "条目 ID"
// @Param body body dto.UpdateBibleEntityRequest true "更新内容"
// @Success 200 {object} dto.Response[dto.BibleEntityResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/entities/{eid} [put]
func (h *EntityHandler) UpdateEntity(c *gin.Context) {
	ctx := c.Request.Context()
	entityID := dto.BindEntityID(c)

	var req dto.UpdateBibleEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	be, err := h.entityRepo.GetByID(ctx, entityID)
	if err != nil {
		logger.Error(ctx, "failed to get entity", err)
		dto.InternalError(c, "failed to get entity")
		return
	}
	if be == nil {
		dto.NotFound(c, "entity not found")
		return
	}

	req.ApplyToBibleEntity(be)
	if err := h.entityRepo.Update(ctx, be); err != nil {
		logger.Error(ctx, "failed to update entity", err)
		dto.InternalError(c, "failed to update entity")
		return
	}

	h.reindex(c, be)
	h.invalidateCache(c, be.ProjectID)

	dto.Success(c, dto.ToBibleEntityResponse(be))
}

// DeleteEntity 删除设定条目
// @Summary 删除设定条目
// @Tags Entities
// @Param eid path string true "条目 ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/entities/{eid} [delete]
func (h *EntityHandler) DeleteEntity(c *gin.Context) {
	ctx := c.Request.Context()
	entityID := dto.BindEntityID(c)

	be, err := h.entityRepo.GetByID(ctx, entityID)
	if err != nil {
		logger.Error(ctx, "failed to get entity", err)
		dto.InternalError(c, "failed to get entity")
		return
	}
	if be == nil {
		dto.NotFound(c, "entity not found")
		return
	}

	if err := h.entityRepo.Delete(ctx, entityID); err != nil {
		logger.Error(ctx, "failed to delete entity", err)
		dto.InternalError(c, "failed to delete entity")
		return
	}

	// 向量清理尽力而为，失败只记日志
	if h.indexer != nil && h.indexer.Enabled() {
		if err := h.indexer.RemoveEntity(ctx, be.ProjectID, be.ID); err != nil {
			logger.Warn(ctx, "failed to remove entity vectors", "entity_id", be.ID, "error", err)
		}
	}
	h.invalidateCache(c, be.ProjectID)

	dto.NoContent(c)
}

// reindex 条目变更后重建向量，失败降级为日志，不影响写入结果
func (h *EntityHandler) reindex(c *gin.Context, be *entity.BibleEntity) {
	if h.indexer == nil || !h.indexer.Enabled() {
		return
	}
	ctx := c.Request.Context()
	if err := h.indexer.IndexEntity(ctx, be); err != nil {
		logger.Warn(ctx, "failed to index entity", "entity_id", be.ID, "error", err)
	}
}

func (h *EntityHandler) invalidateCache(c *gin.Context, projectID string) {
	if h.cache == nil {
		return
	}
	ctx := c.Request.Context()
	if err := h.cache.InvalidateProject(ctx, projectID); err != nil {
		logger.Warn(ctx, "failed to invalidate project cache", "project_id", projectID, "error", err)
	}
}
