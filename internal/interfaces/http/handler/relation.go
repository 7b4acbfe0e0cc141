package handler

import (
	"lore-context-api/internal/domain/repository"
	"lore-context-api/internal/interfaces/http/dto"
	"lore-context-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RelationHandler 条目关系处理器
type RelationHandler struct {
	relationRepo repository.RelationRepository
	entityRepo   repository.BibleEntityRepository
}

// NewRelationHandler 创建条目关系处理器
func NewRelationHandler(
	relationRepo repository.RelationRepository,
	entityRepo repository.BibleEntityRepository,
) *RelationHandler {
	return &RelationHandler{
		relationRepo: relationRepo,
		entityRepo:   entityRepo,
	}
}

// ListRelations 获取项目关系列表
// @Summary 获取项目关系列表
// @Tags Relations
// @Produce json
// @Param pid path string true "项目 ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Success 200 {object} dto.Response[[]dto.RelationResponse]
// @Router /v1/projects/{pid}/relations [get]
func (h *RelationHandler) ListRelations(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)
	pageReq := dto.BindPage(c)

	result, err := h.relationRepo.ListByProject(ctx, projectID, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		logger.Error(ctx, "failed to list relations", err)
		dto.InternalError(c, "failed to list relations")
		return
	}

	resp := dto.ToRelationListResponse(result.Items)
	meta := dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total))
	dto.SuccessWithPage(c, resp, meta)
}

// ListEntityRelations 获取某条目的全部关系
// @Summary 获取条目关系
// @Tags Relations
// @Produce json
// @Param pid path string true "项目 ID"
// @Param eid path string true "条目 ID"
// @Success 200 {object} dto.Response[[]dto.RelationResponse]
// @Router /v1/projects/{pid}/entities/{eid}/relations [get]
func (h *RelationHandler) ListEntityRelations(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)
	entityID := dto.BindEntityID(c)

	relations, err := h.relationRepo.ListByEntity(ctx, projectID, entityID)
	if err != nil {
		logger.Error(ctx, "failed to list entity relations", err)
		dto.InternalError(c, "failed to list entity relations")
		return
	}

	dto.Success(c, dto.ToRelationListResponse(relations))
}

// CreateRelation 创建条目关系
// @Summary 创建条目关系
// @Tags Relations
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param body body dto.CreateRelationRequest true "关系信息"
// @Success 201 {object} dto.Response[dto.RelationResponse]
// @Router /v1/projects/{pid}/relations [post]
func (h *RelationHandler) CreateRelation(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)

	var req dto.CreateRelationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.SourceEntityID == req.TargetEntityID {
		dto.BadRequest(c, "source and target must differ")
		return
	}

	// 两端条目必须已存在于本项目
	for _, id := range []string{req.SourceEntityID, req.TargetEntityID} {
		be, err := h.entityRepo.GetByID(ctx, id)
		if err != nil {
			logger.Error(ctx, "failed to get entity", err)
			dto.InternalError(c, "failed to get entity")
			return
		}
		if be == nil || be.ProjectID != projectID {
			dto.BadRequest(c, "entity not found in project: "+id)
			return
		}
	}

	rel := req.ToRelation(projectID)
	if err := h.relationRepo.Create(ctx, rel); err != nil {
		logger.Error(ctx, "failed to create relation", err)
		dto.InternalError(c, "failed to create relation")
		return
	}

	dto.Created(c, dto.ToRelationResponse(rel))
}

// GetRelation 获取关系详情
// @Summary 获取关系详情
// @Tags Relations
// @Produce json
// @Param rid path string true "关系 ID"
// @Success 200 {object} dto.Response[dto.RelationResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/relations/{rid} [get]
func (h *RelationHandler) GetRelation(c *gin.Context) {
	ctx := c.Request.Context()
	relationID := dto.BindRelationID(c)

	rel, err := h.relationRepo.GetByID(ctx, relationID)
	if err != nil {
		logger.Error(ctx, "failed to get relation", err)
		dto.InternalError(c, "failed to get relation")
		return
	}
	if rel == nil {
		dto.NotFound(c, "relation not found")
		return
	}

	dto.Success(c, dto.ToRelationResponse(rel))
}

// UpdateRelation 更新关系
// @Summary 更新关系
// @Tags Relations
// @Accept json
// @Produce json
// @Param rid path string true "关系 ID"
// @Param body body dto.UpdateRelationRequest true "更新内容"
// @Success 200 {object} dto.Response[dto.RelationResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/relations/{rid} [put]
func (h *RelationHandler) UpdateRelation(c *gin.Context) {
	ctx := c.Request.Context()
	relationID := dto.BindRelationID(c)

	var req dto.UpdateRelationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	rel, err := h.relationRepo.GetByID(ctx, relationID)
	if err != nil {
		logger.Error(ctx, "failed to get relation", err)
		dto.InternalError(c, "failed to get relation")
		return
	}
	if rel == nil {
		dto.NotFound(c, "relation not found")
		return
	}

	req.ApplyToRelation(rel)
	if err := h.relationRepo.Update(ctx, rel); err != nil {
		logger.Error(ctx, "failed to update relation", err)
		dto.InternalError(c, "failed to update relation")
		return
	}

	dto.Success(c, dto.ToRelationResponse(rel))
}

// DeleteRelation 删除关系
// @Summary 删除关系
// @Tags Relations
// @Param rid path string true "关系 ID"
// @Success 204
// @Router /v1/relations/{rid} [delete]
func (h *RelationHandler) DeleteRelation(c *gin.Context) {
	ctx := c.Request.Context()
	relationID := dto.BindRelationID(c)

	if err := h.relationRepo.Delete(ctx, relationID); err != nil {
		logger.Error(ctx, "failed to delete relation", err)
		dto.InternalError(c, "failed to delete relation")
		return
	}

	dto.NoContent(c)
}
