package handler

import (
	"encoding/json"
	"strconv"
	"time"

	"lore-context-api/internal/application/composer"
	"lore-context-api/internal/config"
	"lore-context-api/internal/infrastructure/persistence/redis"
	"lore-context-api/internal/interfaces/http/dto"
	"lore-context-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// bibleIndexTTL 设定集索引缓存时长，命中计数的新鲜度要求不高
const bibleIndexTTL = 5 * time.Minute

// ContextHandler 上下文组装处理器
type ContextHandler struct {
	compositor *composer.Compositor
	cache      *redis.Cache
	ctxCfg     config.ContextConfig
}

// NewContextHandler 创建上下文组装处理器
func NewContextHandler(compositor *composer.Compositor, cache *redis.Cache, ctxCfg config.ContextConfig) *ContextHandler {
	return &ContextHandler{
		compositor: compositor,
		cache:      cache,
		ctxCfg:     ctxCfg,
	}
}

// BuildContext 按路由意图组装上下文
// 子查询降级不报错，最坏情况是组装结果变短。
// @Summary 组装上下文
// @Tags Context
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param body body dto.BuildContextRequest true "组装请求"
// @Success 200 {object} dto.Response[dto.BuildContextResponse]
// @Router /v1/projects/{pid}/context [post]
func (h *ContextHandler) BuildContext(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)

	var req dto.BuildContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.Router.Intent == "" {
		dto.BadRequest(c, "router.intent is required")
		return
	}

	out, err := h.compositor.BuildContext(ctx, req.ToBuildInput(projectID))
	if err != nil {
		logger.Error(ctx, "failed to build context", err)
		dto.InternalError(c, "failed to build context")
		return
	}

	dto.Success(c, dto.ToBuildContextResponse(out))
}

// GetBibleIndex 获取设定集索引
// 结果按 (project, size) 缓存，条目写入时整体失效。
// @Summary 获取设定集索引
// @Tags Context
// @Produce json
// @Param pid path string true "项目 ID"
// @Param size query int false "条目数上限"
// @Param token_limit query int false "token 上限"
// @Success 200 {object} dto.Response[composer.BibleIndexResult]
// @Router /v1/projects/{pid}/bible-index [get]
func (h *ContextHandler) GetBibleIndex(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)

	size := parseQueryInt(c, "size", h.ctxCfg.BibleIndexSize)
	tokenLimit := parseQueryInt(c, "token_limit", 0)

	load := func() (interface{}, error) {
		return h.compositor.BibleIndex(ctx, projectID, size, tokenLimit)
	}

	// token_limit 是调用方自定义的裁剪，不进缓存键，跳过缓存
	if h.cache == nil || tokenLimit > 0 {
		res, err := load()
		if err != nil {
			logger.Error(ctx, "failed to build bible index", err)
			dto.InternalError(c, "failed to build bible index")
			return
		}
		dto.Success(c, res)
		return
	}

	raw, err := h.cache.GetOrLoadSafe(ctx, redis.BibleIndexKey(projectID, size), bibleIndexTTL, load)
	if err != nil {
		logger.Error(ctx, "failed to build bible index", err)
		dto.InternalError(c, "failed to build bible index")
		return
	}

	var res composer.BibleIndexResult
	if err := json.Unmarshal(raw, &res); err != nil {
		logger.Error(ctx, "failed to decode cached bible index", err)
		dto.InternalError(c, "failed to decode cached bible index")
		return
	}

	dto.Success(c, &res)
}

func parseQueryInt(c *gin.Context, key string, defaultVal int) int {
	s := c.Query(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
