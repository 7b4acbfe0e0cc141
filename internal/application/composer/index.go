package composer

import (
	"context"
	"fmt"
	"strings"

	"lore-context-api/internal/application/tokens"
	"lore-context-api/pkg/logger"
)

const defaultIndexSize = 100

// IndexEntry 设定集索引中的一行
type IndexEntry struct {
	ID          string  `json:"id"`
	EntityName  string  `json:"entity_name"`
	LookupCount int     `json:"lookup_count"`
	Importance  float64 `json:"importance"`
	// ParentName 变体条目的主条目名，用于提示归属
	ParentName string `json:"parent_name,omitempty"`
}

// BibleIndexResult 设定集索引
type BibleIndexResult struct {
	Entries    []IndexEntry `json:"entries"`
	Text       string       `json:"text"`
	TokenCount int          `json:"token_count"`
	Truncated  bool         `json:"truncated,omitempty"`
}

// BibleIndex 返回项目中最常被命中的条目索引，带 token 上限。
// 排序由仓储保证：lookup_count 降序，同分按 importance_bias 降序。
func (c *Compositor) BibleIndex(ctx context.Context, projectID string, limit, tokenLimit int) (*BibleIndexResult, error) {
	if limit <= 0 {
		limit = defaultIndexSize
	}
	rows, err := c.entities.TopByLookup(ctx, projectID, limit)
	if err != nil {
		return nil, err
	}

	parentIDs := make([]string, 0)
	for _, e := range rows {
		if e != nil && e.ParentID != nil && *e.ParentID != "" {
			parentIDs = append(parentIDs, *e.ParentID)
		}
	}
	parentName := map[string]string{}
	if len(parentIDs) > 0 {
		parents, err := c.entities.GetByIDs(ctx, parentIDs)
		if err != nil {
			logger.Warn(ctx, "resolve index parents failed", "project_id", projectID, "error", err.Error())
		} else {
			for _, p := range parents {
				if p != nil {
					parentName[p.ID] = p.DisplayName()
				}
			}
		}
	}

	res := &BibleIndexResult{Entries: []IndexEntry{}}
	var sb strings.Builder
	sb.WriteString("[BIBLE INDEX]\n")
	res.TokenCount = tokens.Estimate(sb.String())

	for _, e := range rows {
		if e == nil {
			continue
		}
		entry := IndexEntry{
			ID:          e.ID,
			EntityName:  e.EntityName,
			LookupCount: e.LookupCount,
			Importance:  e.Importance(),
		}
		if e.ParentID != nil {
			entry.ParentName = parentName[*e.ParentID]
		}

		line := fmt.Sprintf("- %s (lookups: %d)", e.EntityName, e.LookupCount)
		if entry.ParentName != "" {
			line += fmt.Sprintf(" (variant of %s)", entry.ParentName)
		}
		line += "\n"

		cost := tokens.Estimate(line)
		if tokenLimit > 0 && res.TokenCount+cost > tokenLimit {
			res.Truncated = true
			break
		}
		sb.WriteString(line)
		res.TokenCount += cost
		res.Entries = append(res.Entries, entry)
	}

	res.Text = strings.TrimRight(sb.String(), "\n")
	return res, nil
}
