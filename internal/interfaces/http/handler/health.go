// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lore-context-api/internal/infrastructure/persistence/milvus"
	"lore-context-api/internal/infrastructure/persistence/postgres"
	"lore-context-api/internal/infrastructure/persistence/redis"
)

// HealthHandler 健康检查处理器
// Postgres 与 Redis 为必需依赖；Milvus 不可用时检索以纯关键词模式降级运行。
type HealthHandler struct {
	pg     *postgres.Client
	redis  *redis.Client
	milvus *milvus.Client
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(pg *postgres.Client, redisClient *redis.Client, milvusClient *milvus.Client) *HealthHandler {
	return &HealthHandler{
		pg:     pg,
		redis:  redisClient,
		milvus: milvusClient,
	}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Mode   string                     `json:"mode,omitempty"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// probe 执行一次带延迟统计的依赖探测
func probe(ctx context.Context, fn func(context.Context) error) *readinessCheck {
	ck := &readinessCheck{}
	start := time.Now()
	err := fn(ctx)
	ck.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		ck.Status = "error"
		ck.Error = err.Error()
		return ck
	}
	ck.Status = "ok"
	return ck
}

// Health 健康检查接口
// @Summary 健康检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
	})
}

// Ready 就绪检查接口
// @Summary 就绪检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]*readinessCheck, 3)
	ready := true
	mode := "full"

	// 必需依赖
	required := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"postgres", healthFn(h.pg)},
		{"redis", healthFnRedis(h.redis)},
	}
	for _, dep := range required {
		if dep.fn == nil {
			checks[dep.name] = &readinessCheck{Status: "missing", Error: dep.name + " client not configured"}
			ready = false
			continue
		}
		ck := probe(ctx, dep.fn)
		checks[dep.name] = ck
		if ck.Status != "ok" {
			ready = false
		}
	}

	// Milvus 可选：不可用时就绪态不变，标记降级
	if h.milvus != nil {
		ck := probe(ctx, h.milvus.HealthCheck)
		if ck.Status == "error" {
			ck.Status = "degraded"
			mode = "keyword-only"
		}
		checks["milvus"] = ck
	} else {
		checks["milvus"] = &readinessCheck{Status: "disabled"}
		mode = "keyword-only"
	}

	resp := readinessResponse{Status: "ok", Mode: mode, Checks: checks}
	if !ready {
		resp.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func healthFn(pg *postgres.Client) func(context.Context) error {
	if pg == nil {
		return nil
	}
	return pg.HealthCheck
}

func healthFnRedis(r *redis.Client) func(context.Context) error {
	if r == nil {
		return nil
	}
	return r.HealthCheck
}

// Live 存活检查接口
// @Summary 存活检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
	})
}
