package handler

import (
	"lore-context-api/internal/domain/repository"
	"lore-context-api/internal/interfaces/http/dto"
	"lore-context-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// PrefixHandler 分类前缀配置处理器
type PrefixHandler struct {
	prefixRepo repository.PrefixConfigRepository
}

// NewPrefixHandler 创建分类前缀配置处理器
func NewPrefixHandler(prefixRepo repository.PrefixConfigRepository) *PrefixHandler {
	return &PrefixHandler{prefixRepo: prefixRepo}
}

// ListPrefixConfigs 获取项目前缀配置（按 sort_order 升序）
// @Summary 获取前缀配置
// @Tags Prefixes
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[[]dto.PrefixConfigResponse]
// @Router /v1/projects/{pid}/prefixes [get]
func (h *PrefixHandler) ListPrefixConfigs(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)

	items, err := h.prefixRepo.ListByProject(ctx, projectID)
	if err != nil {
		logger.Error(ctx, "failed to list prefix configs", err)
		dto.InternalError(c, "failed to list prefix configs")
		return
	}

	dto.Success(c, dto.ToPrefixConfigListResponse(items))
}

// UpsertPrefixConfig 创建或更新前缀配置
// project_id + prefix_key 唯一，重复提交视为更新。
// @Summary 创建或更新前缀配置
// @Tags Prefixes
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param body body dto.UpsertPrefixConfigRequest true "前缀配置"
// @Success 200 {object} dto.Response[dto.PrefixConfigResponse]
// @Router /v1/projects/{pid}/prefixes [put]
func (h *PrefixHandler) UpsertPrefixConfig(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)

	var req dto.UpsertPrefixConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	cfg := req.ToPrefixConfig(projectID)
	if err := h.prefixRepo.Upsert(ctx, cfg); err != nil {
		logger.Error(ctx, "failed to upsert prefix config", err)
		dto.InternalError(c, "failed to upsert prefix config")
		return
	}

	dto.Success(c, dto.ToPrefixConfigResponse(cfg))
}

// DeletePrefixConfig 删除前缀配置
// @Summary 删除前缀配置
// @Tags Prefixes
// @Param pid path string true "项目 ID"
// @Param fid path string true "配置 ID"
// @Success 204
// @Router /v1/projects/{pid}/prefixes/{fid} [delete]
func (h *PrefixHandler) DeletePrefixConfig(c *gin.Context) {
	ctx := c.Request.Context()
	configID := c.Param("fid")

	if err := h.prefixRepo.Delete(ctx, configID); err != nil {
		logger.Error(ctx, "failed to delete prefix config", err)
		dto.InternalError(c, "failed to delete prefix config")
		return
	}

	dto.NoContent(c)
}
