package composer

import (
	"context"
	"strings"

	"lore-context-api/internal/domain/repository"
	"lore-context-api/pkg/logger"
)

// rulePrefixKey 强制规则条目的分类前缀
const rulePrefixKey = "RULE"

// mandatoryRules 渲染项目的强制规则块。
// 规则必须在截断中幸存，所以永远排在组装顺序最前；查询失败降级为空。
func mandatoryRules(ctx context.Context, entities repository.BibleEntityRepository, projectID string) string {
	rules, err := entities.ListByPrefix(ctx, projectID, rulePrefixKey)
	if err != nil {
		logger.Warn(ctx, "load mandatory rules failed", "project_id", projectID, "error", err.Error())
		return ""
	}
	if len(rules) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("[MANDATORY RULES]\n")
	for _, r := range rules {
		if r == nil {
			continue
		}
		sb.WriteString("- ")
		sb.WriteString(r.DisplayName())
		if d := strings.TrimSpace(r.Description); d != "" {
			sb.WriteString(": ")
			sb.WriteString(d)
		}
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}
