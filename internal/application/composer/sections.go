package composer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"lore-context-api/internal/domain/entity"
	"lore-context-api/internal/domain/repository"
	"lore-context-api/pkg/logger"
)

// prefixLabels 解析项目的前缀展示配置，每次请求解析一次。
// 返回 键→标签 与配置中的排序；查询失败降级为空配置。
func prefixLabels(ctx context.Context, prefixes repository.PrefixConfigRepository, projectID string) (map[string]string, []string) {
	if prefixes == nil {
		return nil, nil
	}
	rows, err := prefixes.ListByProject(ctx, projectID)
	if err != nil {
		logger.Warn(ctx, "load prefix configs failed", "project_id", projectID, "error", err.Error())
		return nil, nil
	}
	labels := make(map[string]string, len(rows))
	order := make([]string, 0, len(rows))
	for _, p := range rows {
		if p == nil {
			continue
		}
		labels[p.PrefixKey] = p.DisplayLabel()
		order = append(order, p.PrefixKey)
	}
	return labels, order
}

// renderSections 将命中条目按分类前缀分组渲染。
// 分组顺序先按配置给定顺序，未配置的前缀按字典序附在后面；组内保持命中顺序。
func renderSections(ents []*entity.BibleEntity, labels map[string]string, configOrder []string) string {
	if len(ents) == 0 {
		return ""
	}

	grouped := make(map[string][]*entity.BibleEntity)
	for _, e := range ents {
		if e == nil {
			continue
		}
		key := e.PrefixKey()
		grouped[key] = append(grouped[key], e)
	}

	keys := make([]string, 0, len(grouped))
	seen := make(map[string]struct{}, len(grouped))
	for _, k := range configOrder {
		if _, ok := grouped[k]; ok {
			keys = append(keys, k)
			seen[k] = struct{}{}
		}
	}
	rest := make([]string, 0, len(grouped))
	for k := range grouped {
		if _, ok := seen[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	keys = append(keys, rest...)

	var sb strings.Builder
	for _, k := range keys {
		label := labels[k]
		if label == "" {
			label = k
		}
		sb.WriteString(fmt.Sprintf("[%s]\n", label))
		for _, e := range grouped[k] {
			sb.WriteString("- ")
			sb.WriteString(e.DisplayName())
			if d := strings.TrimSpace(e.Description); d != "" {
				sb.WriteString(": ")
				sb.WriteString(d)
			}
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}
