package composer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"lore-context-api/internal/application/assembler"
	"lore-context-api/internal/application/chapters"
	"lore-context-api/internal/application/retrieval"
	"lore-context-api/internal/application/timeline"
	"lore-context-api/internal/application/tokens"
	"lore-context-api/internal/domain/entity"
	"lore-context-api/internal/domain/repository"
	"lore-context-api/pkg/logger"
	"lore-context-api/pkg/metrics"
)

// freeChatDisclaimer 闲聊意图的固定说明，跳过全部检索
const freeChatDisclaimer = "[NOTE] Free chat mode: no story context was retrieved for this turn."

// Config 组装器参数
type Config struct {
	// MaxContextTokens 整串上下文的默认预算
	MaxContextTokens int
	// ChapterTokenLimit 章节装载预算
	ChapterTokenLimit int
	// ChunkTokenLimit 逆向溯源块预算
	ChunkTokenLimit int
	// Concurrency 设定检索扇出的并发上限
	Concurrency int
}

func (c Config) withDefaults() Config {
	if c.MaxContextTokens <= 0 {
		c.MaxContextTokens = 16000
	}
	if c.ChapterTokenLimit <= 0 {
		c.ChapterTokenLimit = 8000
	}
	if c.ChunkTokenLimit <= 0 {
		c.ChunkTokenLimit = 4000
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	return c
}

// Compositor 上下文组装器，buildContext 的唯一入口
type Compositor struct {
	projects  repository.ProjectRepository
	entities  repository.BibleEntityRepository
	relations repository.RelationRepository
	prefixes  repository.PrefixConfigRepository

	engine   *retrieval.Engine
	chunks   *retrieval.ChunkSearcher
	asm      *assembler.ReverseLookupAssembler
	resolver *chapters.RangeResolver
	loader   *chapters.Loader
	timeline *timeline.ArcTimeline
	recorder retrieval.UsageRecorder

	cfg Config
}

// NewCompositor 创建上下文组装器
func NewCompositor(
	projects repository.ProjectRepository,
	entities repository.BibleEntityRepository,
	relations repository.RelationRepository,
	prefixes repository.PrefixConfigRepository,
	engine *retrieval.Engine,
	chunkSearcher *retrieval.ChunkSearcher,
	asm *assembler.ReverseLookupAssembler,
	resolver *chapters.RangeResolver,
	loader *chapters.Loader,
	tl *timeline.ArcTimeline,
	recorder retrieval.UsageRecorder,
	cfg Config,
) *Compositor {
	return &Compositor{
		projects:  projects,
		entities:  entities,
		relations: relations,
		prefixes:  prefixes,
		engine:    engine,
		chunks:    chunkSearcher,
		asm:       asm,
		resolver:  resolver,
		loader:    loader,
		timeline:  tl,
		recorder:  recorder,
		cfg:       cfg.withDefaults(),
	}
}

// BuildContext 按意图组装上下文。
// 人设与强制规则永远排最前；所有检索分支只降级不失败，
// 最坏结果是一段偏短的上下文，绝不让用户请求整体失败。
func (c *Compositor) BuildContext(ctx context.Context, in BuildInput) (*BuildOutput, error) {
	start := time.Now()
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	if in.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}
	intent := strings.TrimSpace(in.Router.Intent)
	if intent == "" {
		intent = IntentMixedContext
	}

	out := &BuildOutput{Intent: intent, Sources: []string{}}
	var blocks []string

	// 人设：显式入参优先，否则取项目配置
	persona := strings.TrimSpace(in.Persona)
	if persona == "" {
		if p, err := c.projects.GetByID(ctx, in.ProjectID); err == nil && p != nil {
			persona = strings.TrimSpace(p.Persona)
		}
	}
	if persona != "" {
		blocks = append(blocks, "[PERSONA]\n"+persona)
	}
	if in.StrictMode {
		blocks = append(blocks, "[STRICT MODE] Answer strictly from the provided context; do not invent canon.")
	}
	if rules := mandatoryRules(ctx, c.entities, in.ProjectID); rules != "" {
		blocks = append(blocks, rules)
	}

	if intent == IntentFreeChat {
		// 闲聊是终态：不做任何检索
		blocks = append(blocks, freeChatDisclaimer)
		c.finish(out, blocks, in.MaxContextTokens, intent, start)
		return out, nil
	}

	arcID, err := c.timeline.CurrentArcID(ctx, in.ProjectID, in.CurrentArcID)
	if err != nil {
		logger.Warn(ctx, "resolve current arc failed", "project_id", in.ProjectID, "error", err.Error())
		arcID = ""
	}
	if scope, err := c.timeline.ScopeFor(ctx, in.ProjectID, arcID); err == nil {
		if desc := timeline.ScopeDescription(scope); desc != "" {
			blocks = append(blocks, desc)
		}
	} else {
		logger.Warn(ctx, "resolve arc scope failed", "project_id", in.ProjectID, "error", err.Error())
	}

	switch intent {
	case IntentReadFullContent:
		c.composeFullContent(ctx, in, &blocks, out)

	case IntentSearchChunks:
		found := c.composeChunks(ctx, in, arcID, &blocks, out)
		if !found {
			// 切片检索空手而归：退而求其次查设定集
			c.composeBible(ctx, in, &blocks, out)
		}

	default: // search_bible / mixed_context 及未知意图
		c.composeBible(ctx, in, &blocks, out)
	}

	c.finish(out, blocks, in.MaxContextTokens, intent, start)
	return out, nil
}

// finish 拼接全部块并套用最终整串预算
func (c *Compositor) finish(out *BuildOutput, blocks []string, maxTokens int, intent string, start time.Time) {
	text := strings.Join(blocks, "\n\n")
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxContextTokens
	}
	if maxTokens > 0 && tokens.Estimate(text) > maxTokens {
		text, _ = tokens.Cap(text, maxTokens)
		out.Truncated = true
	}
	out.ContextText = text
	out.TokenCount = tokens.Estimate(text)

	metrics.ContextBuildTotal.WithLabelValues(intent, "ok").Inc()
	metrics.ContextBuildDuration.WithLabelValues(intent).Observe(time.Since(start).Seconds())
	metrics.ContextTokens.WithLabelValues(intent).Observe(float64(out.TokenCount))
}

// composeFullContent 装载点名的章节区间或章节名
func (c *Compositor) composeFullContent(ctx context.Context, in BuildInput, blocks *[]string, out *BuildOutput) {
	rng, err := c.resolver.Resolve(ctx, in.ProjectID, in.Router.ChapterRangeMode, in.Router.ChapterRangeCount, in.Router.ChapterRange)
	if err != nil {
		logger.Warn(ctx, "resolve chapter range failed", "project_id", in.ProjectID, "error", err.Error())
		rng = nil
	}

	var res *chapters.LoadResult
	if rng != nil {
		res, err = c.loader.Load(ctx, in.ProjectID, rng.Start, rng.End, c.cfg.ChapterTokenLimit)
	} else if len(in.Router.TargetFiles) > 0 {
		res, err = c.loader.LoadByTitles(ctx, in.ProjectID, in.Router.TargetFiles, c.cfg.ChapterTokenLimit)
	}
	if err != nil {
		logger.Warn(ctx, "load chapters failed", "project_id", in.ProjectID, "error", err.Error())
		return
	}
	if res != nil && res.Text != "" {
		*blocks = append(*blocks, res.Text)
		out.Sources = append(out.Sources, res.Sources...)
	}
}

// composeChunks 篇章内切片检索加逆向溯源，返回是否拿到了内容
func (c *Compositor) composeChunks(ctx context.Context, in BuildInput, arcID string, blocks *[]string, out *BuildOutput) bool {
	if c.chunks == nil {
		return false
	}
	query := in.Router.RewrittenQuery
	res, err := c.chunks.Search(ctx, retrieval.ChunkSearchInput{
		ProjectID: in.ProjectID,
		Query:     query,
		ArcID:     arcID,
	})
	if err != nil || res == nil || len(res.Hits) == 0 {
		return false
	}

	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		if h.Chunk != nil {
			ids = append(ids, h.Chunk.ID)
		}
	}
	rendered, err := c.asm.RenderMany(ctx, ids, c.cfg.ChunkTokenLimit)
	if err != nil || rendered == nil || rendered.Text == "" {
		return false
	}
	*blocks = append(*blocks, rendered.Text)
	out.Sources = append(out.Sources, rendered.Labels...)
	return true
}

// bibleTarget 一次设定检索子查询的结果
type bibleTarget struct {
	hits []retrieval.Hit
}

// searchBibleTargets 并发执行各子查询，单个失败降级为空结果
func (c *Compositor) searchBibleTargets(ctx context.Context, in BuildInput, targets []string) []bibleTarget {
	results := make([]bibleTarget, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)
	var mu sync.Mutex

	for i, target := range targets {
		g.Go(func() error {
			res, err := c.engine.Search(gctx, retrieval.SearchInput{
				ProjectID:        in.ProjectID,
				Query:            target,
				InferredPrefixes: in.Router.InferredPrefixes,
			})
			if err != nil {
				logger.Warn(gctx, "bible subquery degraded", "target", target, "error", err.Error())
				return nil
			}
			mu.Lock()
			results[i] = bibleTarget{hits: res.Hits}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// collectBibleHits 跨子查询去重，返回 (条目, 全部命中 ID, 各子查询首位命中 ID)
func collectBibleHits(results []bibleTarget) ([]*entity.BibleEntity, []string, []string) {
	var ents []*entity.BibleEntity
	seen := make(map[string]struct{})
	var hitIDs []string
	var topIDs []string
	for _, r := range results {
		for rank, h := range r.hits {
			if h.Entity == nil {
				continue
			}
			if _, ok := seen[h.Entity.ID]; ok {
				continue
			}
			seen[h.Entity.ID] = struct{}{}
			ents = append(ents, h.Entity)
			hitIDs = append(hitIDs, h.Entity.ID)
			if rank == 0 {
				topIDs = append(topIDs, h.Entity.ID)
			}
		}
	}
	return ents, hitIDs, topIDs
}

// composeBible 设定集检索：按点名条目扇出，未点名时整句查一次。
// 点名条目全部落空时用改写后的整句兜底再查一次。
// 每个子查询独立降级；命中条目触发使用反馈、关系回查与出处章节自动装载。
func (c *Compositor) composeBible(ctx context.Context, in BuildInput, blocks *[]string, out *BuildOutput) {
	targets := in.Router.TargetBibleEntities
	named := len(targets) > 0
	query := strings.TrimSpace(in.Router.RewrittenQuery)
	if !named {
		if query == "" {
			return
		}
		targets = []string{query}
	}

	ents, hitIDs, topIDs := collectBibleHits(c.searchBibleTargets(ctx, in, targets))
	if len(ents) == 0 && named && query != "" {
		ents, hitIDs, topIDs = collectBibleHits(c.searchBibleTargets(ctx, in, []string{query}))
	}
	if len(ents) == 0 {
		return
	}

	// 使用反馈：每个命中条目计一次，尽力而为，失败不影响响应
	retrieval.BestEffortRecord(ctx, c.recorder, in.ProjectID, hitIDs)

	labels, order := prefixLabels(ctx, c.prefixes, in.ProjectID)
	if section := renderSections(ents, labels, order); section != "" {
		*blocks = append(*blocks, section)
		for _, e := range ents {
			out.Sources = append(out.Sources, e.EntityName)
		}
	}

	for _, id := range topIDs {
		for _, e := range ents {
			if e.ID != id {
				continue
			}
			if rel := renderRelations(ctx, c.relations, c.entities, e); rel != "" {
				*blocks = append(*blocks, rel)
			}
			break
		}
	}

	c.composeSourceChapters(ctx, in.ProjectID, ents, blocks, out)
}

// composeSourceChapters 回查命中条目的出处章节并自动装载为佐证
func (c *Compositor) composeSourceChapters(ctx context.Context, projectID string, ents []*entity.BibleEntity, blocks *[]string, out *BuildOutput) {
	numSet := make(map[int]struct{})
	for _, e := range ents {
		if e != nil && e.SourceChapter > 0 {
			numSet[e.SourceChapter] = struct{}{}
		}
	}
	if len(numSet) == 0 {
		return
	}
	numbers := make([]int, 0, len(numSet))
	for n := range numSet {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	rows, err := c.loader.LoadNumbers(ctx, projectID, numbers, c.cfg.ChapterTokenLimit)
	if err != nil {
		logger.Warn(ctx, "auto-load source chapters failed", "project_id", projectID, "error", err.Error())
		return
	}
	if rows.Text == "" {
		return
	}
	*blocks = append(*blocks, rows.Text)
	for _, s := range rows.Sources {
		out.Sources = append(out.Sources, s+" (Auto)")
	}
}
