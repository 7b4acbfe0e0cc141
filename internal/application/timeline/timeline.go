// Package timeline 解析篇章时间线的上下文可见范围
package timeline

import (
	"context"
	"fmt"
	"strings"

	"lore-context-api/internal/domain/entity"
	"lore-context-api/internal/domain/repository"
	"lore-context-api/pkg/logger"
)

// maxChainDepth 防御性深度上限，正常链远不会到这个量级
const maxChainDepth = 200

// ScopeType 上下文可见范围类型
type ScopeType string

const (
	// ScopeGlobalOnly 未选中篇章，仅全局设定可见
	ScopeGlobalOnly ScopeType = "global_only"
	// ScopeStandalone 独立篇章，全局设定 + 自身摘要
	ScopeStandalone ScopeType = "standalone"
	// ScopeSequential 顺序篇章，全局设定 + 前篇链摘要 + 自身摘要
	ScopeSequential ScopeType = "sequential"
)

// ArcSummary 范围内单个篇章的摘要信息
type ArcSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

// Scope 某一时刻的上下文可见范围
type Scope struct {
	GlobalBible  bool         `json:"global_bible"`
	ScopeType    ScopeType    `json:"scope_type"`
	ArcSummaries []ArcSummary `json:"arc_summaries"`
}

// ArcTimeline 依据篇章链计算上下文范围
type ArcTimeline struct {
	arcs repository.ArcRepository
}

// NewArcTimeline 创建时间线解析器
func NewArcTimeline(arcs repository.ArcRepository) *ArcTimeline {
	return &ArcTimeline{arcs: arcs}
}

// CurrentArcID 确定当前篇章：显式指定优先，否则取最新活跃篇章。
// 项目没有任何篇章时返回空串，不算错误。
func (t *ArcTimeline) CurrentArcID(ctx context.Context, projectID, explicitArcID string) (string, error) {
	if id := strings.TrimSpace(explicitArcID); id != "" {
		return id, nil
	}
	arc, err := t.arcs.GetLatestActive(ctx, projectID)
	if err != nil {
		return "", err
	}
	if arc == nil {
		return "", nil
	}
	return arc.ID, nil
}

// ScopeFor 计算当前篇章的上下文可见范围。
// 未选中篇章或篇章不存在时降级为仅全局设定，不报错。
// prev_arc_id 链按不可信数据处理：跨项目引用截断，环路用访问集合兜住。
func (t *ArcTimeline) ScopeFor(ctx context.Context, projectID, currentArcID string) (*Scope, error) {
	scope := &Scope{GlobalBible: true, ScopeType: ScopeGlobalOnly, ArcSummaries: []ArcSummary{}}

	currentArcID = strings.TrimSpace(currentArcID)
	if currentArcID == "" {
		return scope, nil
	}

	current, err := t.arcs.GetByID(ctx, currentArcID)
	if err != nil {
		return nil, fmt.Errorf("get arc %s: %w", currentArcID, err)
	}
	if current == nil || current.ProjectID != projectID {
		// 篇章不存在或不属于该项目：按未选中处理
		return scope, nil
	}

	if !current.IsSequential() {
		scope.ScopeType = ScopeStandalone
		scope.ArcSummaries = []ArcSummary{toSummary(current)}
		return scope, nil
	}

	chain, err := t.precedingChain(ctx, current)
	if err != nil {
		return nil, err
	}
	// 前篇链最早在前，当前篇章殿后
	scope.ScopeType = ScopeSequential
	scope.ArcSummaries = append(chain, toSummary(current))
	return scope, nil
}

// precedingChain 沿 prev_arc_id 回溯收集前篇摘要，返回最早在前的顺序
func (t *ArcTimeline) precedingChain(ctx context.Context, current *entity.Arc) ([]ArcSummary, error) {
	visited := map[string]struct{}{current.ID: {}}
	backward := make([]ArcSummary, 0, 4)

	next := current.PrevArcID
	for depth := 0; next != nil && *next != ""; depth++ {
		if depth >= maxChainDepth {
			logger.Warn(ctx, "arc chain too deep, truncated", "project_id", current.ProjectID, "arc_id", current.ID)
			break
		}
		if _, ok := visited[*next]; ok {
			// 环路：截断而不是死循环
			logger.Warn(ctx, "arc chain cycle detected", "project_id", current.ProjectID, "arc_id", *next)
			break
		}
		arc, err := t.arcs.GetByID(ctx, *next)
		if err != nil {
			return nil, fmt.Errorf("get arc %s: %w", *next, err)
		}
		if arc == nil {
			break
		}
		if arc.ProjectID != current.ProjectID {
			// 跨项目引用视为数据损坏，截断
			logger.Warn(ctx, "arc chain crosses project boundary, truncated", "project_id", current.ProjectID, "arc_id", arc.ID)
			break
		}
		visited[arc.ID] = struct{}{}
		backward = append(backward, toSummary(arc))
		next = arc.PrevArcID
	}

	// 回溯顺序反转为时间顺序
	for i, j := 0, len(backward)-1; i < j; i, j = i+1, j-1 {
		backward[i], backward[j] = backward[j], backward[i]
	}
	return backward, nil
}

// ScopeDescription 渲染可读的范围描述，用于上下文前言
func ScopeDescription(scope *Scope) string {
	if scope == nil || len(scope.ArcSummaries) == 0 {
		return ""
	}
	var sb strings.Builder
	switch scope.ScopeType {
	case ScopeStandalone:
		sb.WriteString("[STORY ARC - STANDALONE]\n")
	default:
		sb.WriteString("[STORY ARC TIMELINE]\n")
	}
	for i, a := range scope.ArcSummaries {
		marker := ""
		if i == len(scope.ArcSummaries)-1 {
			marker = " (current)"
		}
		sb.WriteString(fmt.Sprintf("%d. %s%s", i+1, a.Name, marker))
		if s := strings.TrimSpace(a.Summary); s != "" {
			sb.WriteString(": ")
			sb.WriteString(s)
		}
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}

func toSummary(arc *entity.Arc) ArcSummary {
	return ArcSummary{ID: arc.ID, Name: arc.Name, Summary: arc.Summary}
}
