package composer

import (
	"context"
	"fmt"
	"strings"

	"lore-context-api/internal/domain/entity"
	"lore-context-api/internal/domain/repository"
	"lore-context-api/pkg/logger"
)

// renderRelations 渲染某个命中条目的结构化关系块。
// 对端条目名批量回查，查询失败降级为空串。
func renderRelations(ctx context.Context, relations repository.RelationRepository, entities repository.BibleEntityRepository, ent *entity.BibleEntity) string {
	rels, err := relations.ListByEntity(ctx, ent.ProjectID, ent.ID)
	if err != nil {
		logger.Warn(ctx, "load relations failed", "entity_id", ent.ID, "error", err.Error())
		return ""
	}
	if len(rels) == 0 {
		return ""
	}

	otherIDs := make([]string, 0, len(rels))
	for _, r := range rels {
		if r == nil {
			continue
		}
		otherIDs = append(otherIDs, r.Other(ent.ID))
	}
	others, err := entities.GetByIDs(ctx, otherIDs)
	if err != nil {
		logger.Warn(ctx, "resolve relation targets failed", "entity_id", ent.ID, "error", err.Error())
		return ""
	}
	nameByID := make(map[string]string, len(others))
	for _, o := range others {
		if o != nil {
			nameByID[o.ID] = o.DisplayName()
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Relations of %s:\n", ent.DisplayName()))
	for _, r := range rels {
		if r == nil {
			continue
		}
		otherName := nameByID[r.Other(ent.ID)]
		if otherName == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("- %s → %s", r.RelationType, otherName))
		if d := strings.TrimSpace(r.Description); d != "" {
			sb.WriteString(" (")
			sb.WriteString(d)
			sb.WriteByte(')')
		}
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}
