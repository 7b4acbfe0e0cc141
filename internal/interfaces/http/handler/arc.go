package handler

import (
	"lore-context-api/internal/application/timeline"
	"lore-context-api/internal/domain/repository"
	"lore-context-api/internal/interfaces/http/dto"
	"lore-context-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ArcHandler 篇章处理器
type ArcHandler struct {
	arcRepo  repository.ArcRepository
	timeline *timeline.ArcTimeline
}

// NewArcHandler 创建篇章处理器
func NewArcHandler(arcRepo repository.ArcRepository, tl *timeline.ArcTimeline) *ArcHandler {
	return &ArcHandler{
		arcRepo:  arcRepo,
		timeline: tl,
	}
}

// ListArcs 获取项目篇章列表
// @Summary 获取项目篇章列表
// @Tags Arcs
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[[]dto.ArcResponse]
// @Router /v1/projects/{pid}/arcs [get]
func (h *ArcHandler) ListArcs(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)

	arcs, err := h.arcRepo.ListByProject(ctx, projectID)
	if err != nil {
		logger.Error(ctx, "failed to list arcs", err)
		dto.InternalError(c, "failed to list arcs")
		return
	}

	dto.Success(c, dto.ToArcListResponse(arcs))
}

// CreateArc 创建篇章
// @Summary 创建篇章
// @Tags Arcs
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param body body dto.CreateArcRequest true "篇章信息"
// @Success 201 {object} dto.Response[dto.ArcResponse]
// @Router /v1/projects/{pid}/arcs [post]
func (h *ArcHandler) CreateArc(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)

	var req dto.CreateArcRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	// 前篇必须存在且属于同一项目
	if req.PrevArcID != nil {
		prev, err := h.arcRepo.GetByID(ctx, *req.PrevArcID)
		if err != nil {
			logger.Error(ctx, "failed to get prev arc", err)
			dto.InternalError(c, "failed to get prev arc")
			return
		}
		if prev == nil || prev.ProjectID != projectID {
			dto.BadRequest(c, "prev arc not found in project")
			return
		}
	}

	arc := req.ToArc(projectID)
	if err := h.arcRepo.Create(ctx, arc); err != nil {
		logger.Error(ctx, "failed to create arc", err)
		dto.InternalError(c, "failed to create arc")
		return
	}

	dto.Created(c, dto.ToArcResponse(arc))
}

// GetArc 获取篇章详情
// @Summary 获取篇章详情
// @Tags Arcs
// @Produce json
// @Param aid path string true "篇章 ID"
// @Success 200 {object} dto.Response[dto.ArcResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/arcs/{aid} [get]
func (h *ArcHandler) GetArc(c *gin.Context) {
	ctx := c.Request.Context()
	arcID := dto.BindArcID(c)

	arc, err := h.arcRepo.GetByID(ctx, arcID)
	if err != nil {
		logger.Error(ctx, "failed to get arc", err)
		dto.InternalError(c, "failed to get arc")
		return
	}
	if arc == nil {
		dto.NotFound(c, "arc not found")
		return
	}

	dto.Success(c, dto.ToArcResponse(arc))
}

// UpdateArc 更新篇章
// @Summary 更新篇章
// @Tags Arcs
// @Accept json
// @Produce json
// @Param aid path string true "篇章 ID"
// @Param body body dto.UpdateArcRequest true "更新内容"
// @Success 200 {object} dto.Response[dto.ArcResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/arcs/{aid} [put]
func (h *ArcHandler) UpdateArc(c *gin.Context) {
	ctx := c.Request.Context()
	arcID := dto.BindArcID(c)

	var req dto.UpdateArcRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	arc, err := h.arcRepo.GetByID(ctx, arcID)
	if err != nil {
		logger.Error(ctx, "failed to get arc", err)
		dto.InternalError(c, "failed to get arc")
		return
	}
	if arc == nil {
		dto.NotFound(c, "arc not found")
		return
	}

	if req.PrevArcID != nil && *req.PrevArcID == arc.ID {
		dto.BadRequest(c, "arc cannot be its own prev")
		return
	}

	req.ApplyToArc(arc)
	if err := h.arcRepo.Update(ctx, arc); err != nil {
		logger.Error(ctx, "failed to update arc", err)
		dto.InternalError(c, "failed to update arc")
		return
	}

	dto.Success(c, dto.ToArcResponse(arc))
}

// DeleteArc 删除篇章
// @Summary 删除篇章
// @Tags Arcs
// @Param aid path string true "篇章 ID"
// @Success 204
// @Router /v1/arcs/{aid} [delete]
func (h *ArcHandler) DeleteArc(c *gin.Context) {
	ctx := c.Request.Context()
	arcID := dto.BindArcID(c)

	if err := h.arcRepo.Delete(ctx, arcID); err != nil {
		logger.Error(ctx, "failed to delete arc", err)
		dto.InternalError(c, "failed to delete arc")
		return
	}

	dto.NoContent(c)
}

// GetArcScope 获取篇章时间线可见范围
// 顺序篇章返回全局设定 + 前篇链摘要 + 自身摘要，独立篇章只含自身。
// @Summary 获取篇章可见范围
// @Tags Arcs
// @Produce json
// @Param aid path string true "篇章 ID"
// @Success 200 {object} dto.Response[dto.ArcScopeResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/arcs/{aid}/scope [get]
func (h *ArcHandler) GetArcScope(c *gin.Context) {
	ctx := c.Request.Context()
	arcID := dto.BindArcID(c)

	arc, err := h.arcRepo.GetByID(ctx, arcID)
	if err != nil {
		logger.Error(ctx, "failed to get arc", err)
		dto.InternalError(c, "failed to get arc")
		return
	}
	if arc == nil {
		dto.NotFound(c, "arc not found")
		return
	}

	scope, err := h.timeline.ScopeFor(ctx, arc.ProjectID, arc.ID)
	if err != nil {
		logger.Error(ctx, "failed to resolve arc scope", err)
		dto.InternalError(c, "failed to resolve arc scope")
		return
	}

	dto.Success(c, &dto.ArcScopeResponse{
		Scope:       scope,
		Description: timeline.ScopeDescription(scope),
	})
}
