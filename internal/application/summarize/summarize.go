// Package summarize 用 LLM 生成章节与篇章的摘要元数据
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"lore-context-api/internal/domain/repository"
	"lore-context-api/pkg/logger"
	"lore-context-api/pkg/metrics"
)

// maxSourceRunes 送入模型的正文截断长度
const maxSourceRunes = 12000

// ChatModelFactory 获取 ChatModel 实例
type ChatModelFactory interface {
	Get(ctx context.Context, name string) (model.BaseChatModel, error)
	Default(ctx context.Context) (model.BaseChatModel, error)
}

// chapterMeta 模型返回的章节元数据
type chapterMeta struct {
	Summary  string `json:"summary"`
	ArtStyle string `json:"art_style"`
}

// Summarizer 摘要生成器，由 worker 在章节变更事件上异步调用
type Summarizer struct {
	factory  ChatModelFactory
	chapters repository.ChapterRepository
	arcs     repository.ArcRepository
}

// NewSummarizer 创建摘要生成器
func NewSummarizer(factory ChatModelFactory, chapters repository.ChapterRepository, arcs repository.ArcRepository) *Summarizer {
	return &Summarizer{factory: factory, chapters: chapters, arcs: arcs}
}

// SummarizeChapter 为章节生成摘要与画风描述并落库。
// 模型输出解析失败时把整段回复当摘要用，画风留空。
func (s *Summarizer) SummarizeChapter(ctx context.Context, chapterID string) error {
	ch, err := s.chapters.GetByID(ctx, chapterID)
	if err != nil {
		return fmt.Errorf("get chapter %s: %w", chapterID, err)
	}
	if ch == nil {
		return fmt.Errorf("chapter %s not found", chapterID)
	}
	if strings.TrimSpace(ch.Content) == "" {
		logger.Debug(ctx, "chapter has no content, skip summarize", "chapter_id", chapterID)
		return nil
	}

	prompt := fmt.Sprintf(
		"请阅读以下章节并输出 JSON：{\"summary\": \"200字以内的情节摘要\", \"art_style\": \"一句话的文风/画面风格描述\"}。\n\n章节标题：%s\n\n%s",
		ch.Title, truncateRunes(ch.Content, maxSourceRunes))

	raw, err := s.generate(ctx, []*schema.Message{
		schema.SystemMessage("你是连载小说的编辑助手，只输出要求的 JSON，不要输出其他内容。"),
		schema.UserMessage(prompt),
	})
	if err != nil {
		return err
	}

	meta := parseChapterMeta(raw)
	if meta.Summary == "" {
		return fmt.Errorf("empty summary for chapter %s", chapterID)
	}
	return s.chapters.UpdateMetadata(ctx, chapterID, meta.Summary, meta.ArtStyle)
}

// SummarizeArc 汇总篇章下全部章节摘要并生成篇章摘要落库
func (s *Summarizer) SummarizeArc(ctx context.Context, arcID string) error {
	arc, err := s.arcs.GetByID(ctx, arcID)
	if err != nil {
		return fmt.Errorf("get arc %s: %w", arcID, err)
	}
	if arc == nil {
		return fmt.Errorf("arc %s not found", arcID)
	}

	rows, err := s.chapters.ListByArc(ctx, arcID)
	if err != nil {
		return fmt.Errorf("list chapters of arc %s: %w", arcID, err)
	}

	var sb strings.Builder
	for _, ch := range rows {
		if ch == nil {
			continue
		}
		part := ch.Summary
		if part == "" {
			part = truncateRunes(ch.Content, 500)
		}
		if part == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("第%d章 %s：%s\n", ch.ChapterNumber, ch.Title, part))
	}
	if sb.Len() == 0 {
		logger.Debug(ctx, "arc has no summarizable chapters", "arc_id", arcID)
		return nil
	}

	prompt := fmt.Sprintf(
		"以下是篇章《%s》各章节的摘要，请综合成一段 300 字以内的篇章摘要，概括主线进展与关键转折：\n\n%s",
		arc.Name, truncateRunes(sb.String(), maxSourceRunes))

	raw, err := s.generate(ctx, []*schema.Message{
		schema.SystemMessage("你是连载小说的编辑助手，直接输出摘要正文。"),
		schema.UserMessage(prompt),
	})
	if err != nil {
		return err
	}
	summary := strings.TrimSpace(raw)
	if summary == "" {
		return fmt.Errorf("empty summary for arc %s", arcID)
	}
	return s.arcs.UpdateSummary(ctx, arcID, summary)
}

func (s *Summarizer) generate(ctx context.Context, msgs []*schema.Message) (string, error) {
	if s.factory == nil {
		return "", fmt.Errorf("llm factory not configured")
	}
	cm, err := s.factory.Default(ctx)
	if err != nil {
		return "", fmt.Errorf("get chat model: %w", err)
	}

	start := time.Now()
	out, err := cm.Generate(ctx, msgs)
	elapsed := time.Since(start)
	if err != nil {
		metrics.LLMCallTotal.WithLabelValues("summarize", "error").Inc()
		return "", fmt.Errorf("llm generate: %w", err)
	}
	metrics.LLMCallTotal.WithLabelValues("summarize", "ok").Inc()
	metrics.LLMCallDuration.WithLabelValues("summarize").Observe(elapsed.Seconds())
	if out == nil {
		return "", fmt.Errorf("llm returned nil message")
	}
	return out.Content, nil
}

// parseChapterMeta 解析模型返回，容忍 ```json 围栏；解析不动就整段当摘要
func parseChapterMeta(raw string) chapterMeta {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var meta chapterMeta
	if err := json.Unmarshal([]byte(cleaned), &meta); err == nil && meta.Summary != "" {
		return meta
	}
	return chapterMeta{Summary: strings.TrimSpace(raw)}
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
