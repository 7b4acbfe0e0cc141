// Package assembler 逆向溯源：为证据切片重建 切片→章节→篇章 的出处链并渲染
package assembler

import (
	"context"
	"fmt"
	"strings"

	"lore-context-api/internal/application/tokens"
	"lore-context-api/internal/domain/entity"
	"lore-context-api/internal/domain/repository"
	"lore-context-api/pkg/logger"
)

const nonePlaceholder = "(none)"

// Provenance 单个切片的出处链，章节与篇章各自允许缺失
type Provenance struct {
	Chunk   *entity.Chunk
	Chapter *entity.Chapter
	Arc     *entity.Arc
}

// RenderResult renderMany 的结果：拼好的文本块与并行的溯源标签
type RenderResult struct {
	Text       string
	Labels     []string
	TokenCount int
	// Skipped 因超出预算被整块跳过的切片数
	Skipped int
}

// ReverseLookupAssembler 逆向溯源装配器
type ReverseLookupAssembler struct {
	chunks   repository.ChunkRepository
	chapters repository.ChapterRepository
	arcs     repository.ArcRepository
}

// NewReverseLookupAssembler 创建装配器
func NewReverseLookupAssembler(chunks repository.ChunkRepository, chapters repository.ChapterRepository, arcs repository.ArcRepository) *ReverseLookupAssembler {
	return &ReverseLookupAssembler{chunks: chunks, chapters: chapters, arcs: arcs}
}

// ResolveParents 单跳回查切片的章节与篇章。
// 各级独立可空：切片可能未挂章节；篇章优先取章节上的，缺失时回退切片自带的 arc_id。
func (a *ReverseLookupAssembler) ResolveParents(ctx context.Context, chunkID string) (*Provenance, error) {
	chunk, err := a.chunks.GetByID(ctx, chunkID)
	if err != nil {
		return nil, fmt.Errorf("get chunk %s: %w", chunkID, err)
	}
	if chunk == nil {
		return nil, nil
	}

	p := &Provenance{Chunk: chunk}
	if chunk.ChapterID != nil && *chunk.ChapterID != "" {
		ch, err := a.chapters.GetByID(ctx, *chunk.ChapterID)
		if err != nil {
			logger.Warn(ctx, "resolve chapter failed, provenance degraded", "chunk_id", chunkID, "error", err.Error())
		} else {
			p.Chapter = ch
		}
	}

	arcID := chunk.ArcID
	if p.Chapter != nil && p.Chapter.ArcID != nil && *p.Chapter.ArcID != "" {
		arcID = p.Chapter.ArcID
	}
	if arcID != nil && *arcID != "" {
		arc, err := a.arcs.GetByID(ctx, *arcID)
		if err != nil {
			logger.Warn(ctx, "resolve arc failed, provenance degraded", "chunk_id", chunkID, "error", err.Error())
		} else {
			p.Arc = arc
		}
	}
	return p, nil
}

// RenderOne 渲染单个切片的宏观/中观/微观三段。
// 宏观与中观缺失时整段省略，微观证据永不省略。
func (a *ReverseLookupAssembler) RenderOne(ctx context.Context, chunkID string) (string, error) {
	p, err := a.ResolveParents(ctx, chunkID)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", nil
	}
	return renderProvenance(p), nil
}

// RenderMany 按调用方给定顺序渲染多个切片，累计 token 计数。
// 会超预算的块整块跳过而不是截断，后面更小的块仍可能放得下。
func (a *ReverseLookupAssembler) RenderMany(ctx context.Context, chunkIDs []string, tokenLimit int) (*RenderResult, error) {
	res := &RenderResult{Labels: []string{}}
	var blocks []string

	for _, id := range chunkIDs {
		p, err := a.ResolveParents(ctx, id)
		if err != nil {
			logger.Warn(ctx, "reverse lookup failed, chunk skipped", "chunk_id", id, "error", err.Error())
			continue
		}
		if p == nil {
			continue
		}
		block := renderProvenance(p)
		cost := tokens.Estimate(block)
		if tokenLimit > 0 && res.TokenCount+cost > tokenLimit {
			res.Skipped++
			continue
		}
		blocks = append(blocks, block)
		res.Labels = append(res.Labels, p.Chunk.SourceLabel())
		res.TokenCount += cost
	}

	res.Text = strings.Join(blocks, "\n\n")
	return res, nil
}

// renderProvenance 按固定顺序渲染：宏观篇章 → 中观章节 → 微观证据
func renderProvenance(p *Provenance) string {
	var sb strings.Builder

	if p.Arc != nil {
		sb.WriteString("[MACRO CONTEXT - ARC]\n")
		sb.WriteString("Arc: ")
		sb.WriteString(orNone(p.Arc.Name))
		sb.WriteByte('\n')
		sb.WriteString("Summary: ")
		sb.WriteString(orNone(p.Arc.Summary))
		sb.WriteString("\n\n")
	}

	if p.Chapter != nil {
		sb.WriteString("[MESO CONTEXT - CHAPTER]\n")
		if p.Chapter.ChapterNumber > 0 {
			sb.WriteString(fmt.Sprintf("Chapter %d: %s\n", p.Chapter.ChapterNumber, orNone(p.Chapter.Title)))
		} else {
			sb.WriteString("Chapter: ")
			sb.WriteString(orNone(p.Chapter.Title))
			sb.WriteByte('\n')
		}
		sb.WriteString("Summary: ")
		sb.WriteString(orNone(p.Chapter.Summary))
		sb.WriteString("\n\n")
	}

	sb.WriteString("[MICRO EVIDENCE - REVERSE SOURCE]\n")
	sb.WriteString("Source: ")
	sb.WriteString(orNone(p.Chunk.SourceLine()))
	sb.WriteByte('\n')
	sb.WriteString(p.Chunk.Text())
	return sb.String()
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return nonePlaceholder
	}
	return s
}
