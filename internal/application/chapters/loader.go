package chapters

import (
	"context"
	"fmt"
	"strings"

	"lore-context-api/internal/application/tokens"
	"lore-context-api/internal/domain/entity"
	"lore-context-api/internal/domain/repository"
	"lore-context-api/pkg/logger"
)

const summaryOnlyMarker = "(summary only, token limit)"

// LoadResult 装载结果：拼好的文本与并行的出处标签
type LoadResult struct {
	Text       string
	Sources    []string
	TokenCount int
}

// Loader 章节正文装载器。
// 按名查找失败时可降级到设定集条目摘要，entities 允许为 nil。
type Loader struct {
	chapters repository.ChapterRepository
	entities repository.BibleEntityRepository
}

// NewLoader 创建装载器
func NewLoader(chapters repository.ChapterRepository, entities repository.BibleEntityRepository) *Loader {
	return &Loader{chapters: chapters, entities: entities}
}

// Load 装载区间内章节，按章节号升序逐章渲染。
// 预算内的章节给全文；区间最后一章视为焦点章节，即使超预算也给全文；
// 其余超预算章节只给摘要并打 "(summary only, token limit)" 标记。
func (l *Loader) Load(ctx context.Context, projectID string, start, end, tokenLimit int) (*LoadResult, error) {
	rows, err := l.chapters.ListByNumberRange(ctx, projectID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list chapters [%d,%d]: %w", start, end, err)
	}

	res := &LoadResult{Sources: []string{}}
	var blocks []string
	for i, ch := range rows {
		if ch == nil {
			continue
		}
		focus := i == len(rows)-1
		full := focus || tokenLimit <= 0 || res.TokenCount < tokenLimit
		block := renderChapter(ch, full)
		blocks = append(blocks, block)
		res.Sources = append(res.Sources, chapterLabel(ch))
		res.TokenCount += tokens.Estimate(block)
	}
	res.Text = strings.Join(blocks, "\n\n")
	return res, nil
}

// LoadNumbers 装载给定章节号集合，渲染策略与 Load 一致
func (l *Loader) LoadNumbers(ctx context.Context, projectID string, numbers []int, tokenLimit int) (*LoadResult, error) {
	rows, err := l.chapters.ListByNumbers(ctx, projectID, numbers)
	if err != nil {
		return nil, fmt.Errorf("list chapters %v: %w", numbers, err)
	}

	res := &LoadResult{Sources: []string{}}
	var blocks []string
	for i, ch := range rows {
		if ch == nil {
			continue
		}
		focus := i == len(rows)-1
		full := focus || tokenLimit <= 0 || res.TokenCount < tokenLimit
		block := renderChapter(ch, full)
		blocks = append(blocks, block)
		res.Sources = append(res.Sources, chapterLabel(ch))
		res.TokenCount += tokens.Estimate(block)
	}
	res.Text = strings.Join(blocks, "\n\n")
	return res, nil
}

// LoadByTitles 按标题逐个查找章节。
// 找不到章节时降级查同名设定条目，连条目都没有则跳过该名字。
func (l *Loader) LoadByTitles(ctx context.Context, projectID string, titles []string, tokenLimit int) (*LoadResult, error) {
	res := &LoadResult{Sources: []string{}}
	var blocks []string

	for _, title := range titles {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		ch, err := l.chapters.FindByTitle(ctx, projectID, title)
		if err != nil {
			logger.Warn(ctx, "find chapter by title failed", "title", title, "error", err.Error())
			continue
		}
		if ch != nil {
			full := tokenLimit <= 0 || res.TokenCount < tokenLimit
			block := renderChapter(ch, full)
			blocks = append(blocks, block)
			res.Sources = append(res.Sources, chapterLabel(ch))
			res.TokenCount += tokens.Estimate(block)
			continue
		}
		if block, label := l.bibleFallback(ctx, projectID, title); block != "" {
			blocks = append(blocks, block)
			res.Sources = append(res.Sources, label)
			res.TokenCount += tokens.Estimate(block)
		}
	}
	res.Text = strings.Join(blocks, "\n\n")
	return res, nil
}

// bibleFallback 章节缺失时用同名设定条目的描述顶上
func (l *Loader) bibleFallback(ctx context.Context, projectID, name string) (string, string) {
	if l.entities == nil {
		return "", ""
	}
	ent, err := l.entities.GetByName(ctx, projectID, name)
	if err != nil || ent == nil {
		return "", ""
	}
	return fmt.Sprintf("[BIBLE FALLBACK] %s\n%s", ent.EntityName, ent.Description), ent.EntityName + " (Bible)"
}

func renderChapter(ch *entity.Chapter, full bool) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[CHAPTER %d] %s\n", ch.ChapterNumber, ch.Title))
	if s := strings.TrimSpace(ch.Summary); s != "" {
		sb.WriteString("Summary: ")
		sb.WriteString(s)
		sb.WriteByte('\n')
	}
	if s := strings.TrimSpace(ch.ArtStyle); s != "" {
		sb.WriteString("Art style: ")
		sb.WriteString(s)
		sb.WriteByte('\n')
	}
	if full {
		sb.WriteString(ch.Content)
	} else {
		sb.WriteString(summaryOnlyMarker)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func chapterLabel(ch *entity.Chapter) string {
	if strings.TrimSpace(ch.Title) != "" {
		return fmt.Sprintf("Chapter %d: %s", ch.ChapterNumber, ch.Title)
	}
	return fmt.Sprintf("Chapter %d", ch.ChapterNumber)
}
