package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/google/uuid"

	"lore-context-api/internal/domain/entity"
	"lore-context-api/internal/domain/repository"
)

const (
	defaultChunkSizeRunes    = 800
	defaultChunkOverlapRunes = 80
	defaultEmbeddingBatch    = 32
)

// Indexer 负责设定条目与章节切片的向量化写入。
type Indexer struct {
	embedder embedding.Embedder
	vector   VectorRepository
	entities repository.BibleEntityRepository
	chunks   repository.ChunkRepository
	tx       repository.Transactor

	embeddingBatchSize int
	chunkSizeRunes     int
	chunkOverlapRunes  int
}

// NewIndexer 创建索引器
func NewIndexer(
	embedder embedding.Embedder,
	vectorRepo VectorRepository,
	entityRepo repository.BibleEntityRepository,
	chunkRepo repository.ChunkRepository,
	tx repository.Transactor,
	embeddingBatchSize int,
) *Indexer {
	bs := embeddingBatchSize
	if bs <= 0 {
		bs = defaultEmbeddingBatch
	}
	return &Indexer{
		embedder:           embedder,
		vector:             vectorRepo,
		entities:           entityRepo,
		chunks:             chunkRepo,
		tx:                 tx,
		embeddingBatchSize: bs,
		chunkSizeRunes:     defaultChunkSizeRunes,
		chunkOverlapRunes:  defaultChunkOverlapRunes,
	}
}

// Enabled 向量索引是否可用
func (i *Indexer) Enabled() bool {
	return i != nil && i.embedder != nil && i.vector != nil
}

func (i *Indexer) ensureReady(ctx context.Context) error {
	if i == nil || i.vector == nil {
		return ErrVectorDisabled
	}
	return i.vector.EnsureCollections(ctx)
}

// IndexEntity 将设定条目写入向量库并回写 vector_id。
// 旧向量先删后插，保证每个条目只有一份向量。
func (i *Indexer) IndexEntity(ctx context.Context, be *entity.BibleEntity) error {
	if be == nil || strings.TrimSpace(be.ID) == "" {
		return fmt.Errorf("bible entity id is required")
	}
	if !i.Enabled() {
		return ErrVectorDisabled
	}
	if err := i.ensureReady(ctx); err != nil {
		return err
	}

	if err := i.vector.DeleteEntityVectorsByDoc(ctx, be.ProjectID, []string{be.ID}); err != nil {
		return err
	}

	text := strings.TrimSpace(be.EntityName + "\n" + be.Description)
	if text == "" {
		return nil
	}

	vectors, err := i.embedBatch(ctx, []string{text})
	if err != nil {
		return err
	}

	vectorID := uuid.NewString()
	item := &VectorItem{
		ID:    vectorID,
		DocID: be.ID,
		TextContent: encodeVectorText(VectorMeta{
			DocType:    "bible_entity",
			EntityName: be.EntityName,
		}, text),
		Vector: vectors[0],
	}
	if err := i.vector.InsertEntityVectors(ctx, be.ProjectID, []*VectorItem{item}); err != nil {
		return err
	}
	if i.entities != nil {
		return i.entities.UpdateVectorID(ctx, be.ID, vectorID)
	}
	return nil
}

// RemoveEntity 清理条目对应的向量，条目删除后调用。
func (i *Indexer) RemoveEntity(ctx context.Context, projectID, entityID string) error {
	if !i.Enabled() {
		return ErrVectorDisabled
	}
	if err := i.ensureReady(ctx); err != nil {
		return err
	}
	return i.vector.DeleteEntityVectorsByDoc(ctx, projectID, []string{entityID})
}

// RemoveChunks 清理切片对应的向量，切片删除后调用。
func (i *Indexer) RemoveChunks(ctx context.Context, projectID string, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	if !i.Enabled() {
		return ErrVectorDisabled
	}
	if err := i.ensureReady(ctx); err != nil {
		return err
	}
	return i.vector.DeleteChunkVectorsByDoc(ctx, projectID, chunkIDs)
}

// IndexChunks 将已入库的切片批量向量化，用于摄入接口。
func (i *Indexer) IndexChunks(ctx context.Context, projectID string, rows []*entity.Chunk) error {
	if len(rows) == 0 {
		return nil
	}
	if !i.Enabled() {
		return ErrVectorDisabled
	}
	if err := i.ensureReady(ctx); err != nil {
		return err
	}

	embedInputs := make([]string, 0, len(rows))
	items := make([]*VectorItem, 0, len(rows))
	for _, row := range rows {
		if row == nil || strings.TrimSpace(row.Content) == "" {
			continue
		}
		embedInputs = append(embedInputs, row.Content)

		arcID := ""
		if row.ArcID != nil {
			arcID = *row.ArcID
		}
		chapterID := ""
		if row.ChapterID != nil {
			chapterID = *row.ChapterID
		}
		items = append(items, &VectorItem{
			ID:    uuid.NewString(),
			DocID: row.ID,
			ArcID: arcID,
			TextContent: encodeVectorText(VectorMeta{
				DocType:   "chunk",
				ChapterID: chapterID,
				ArcID:     arcID,
			}, row.Content),
		})
	}
	if len(items) == 0 {
		return nil
	}

	vectors, err := i.embedBatch(ctx, embedInputs)
	if err != nil {
		return err
	}
	for idx := range items {
		items[idx].Vector = vectors[idx]
	}
	return i.vector.InsertChunkVectors(ctx, projectID, items)
}

// IndexChapterChunks 将章节正文切分为切片，重建 PostgreSQL 切片行与向量。
// 切片行在事务内先删后插；空正文只做清理。
func (i *Indexer) IndexChapterChunks(ctx context.Context, chapter *entity.Chapter) error {
	if chapter == nil || strings.TrimSpace(chapter.ID) == "" {
		return fmt.Errorf("chapter id is required")
	}
	if i == nil || i.chunks == nil {
		return fmt.Errorf("chunk repository is not configured")
	}

	// 1) 收集旧切片 ID 以便清理向量
	old, err := i.chunks.ListByChapter(ctx, chapter.ID)
	if err != nil {
		return err
	}
	oldIDs := make([]string, 0, len(old))
	for _, c := range old {
		if c != nil {
			oldIDs = append(oldIDs, c.ID)
		}
	}

	content := strings.TrimSpace(chapter.Content)
	pieces := splitByRunes(content, i.chunkSizeRunes, i.chunkOverlapRunes)

	rows := make([]*entity.Chunk, 0, len(pieces))
	for _, piece := range pieces {
		chapterID := chapter.ID
		row := &entity.Chunk{
			ID:        uuid.NewString(),
			ProjectID: chapter.ProjectID,
			ChapterID: &chapterID,
			ArcID:     chapter.ArcID,
			Content:   piece,
			Meta: map[string]any{
				"source_metadata": map[string]any{
					"source_file":    fmt.Sprintf("chapter-%d", chapter.ChapterNumber),
					"chapter_number": chapter.ChapterNumber,
				},
			},
		}
		rows = append(rows, row)
	}

	// 2) 事务内重建切片行
	rebuild := func(txCtx context.Context) error {
		if err := i.chunks.DeleteByChapter(txCtx, chapter.ID); err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return i.chunks.CreateBatch(txCtx, rows)
	}
	if i.tx != nil {
		err = i.tx.WithTransaction(ctx, rebuild)
	} else {
		err = rebuild(ctx)
	}
	if err != nil {
		return err
	}

	// 3) 向量重建（可降级：失败不回滚 PG 行）
	if !i.Enabled() {
		return nil
	}
	if err := i.ensureReady(ctx); err != nil {
		return nil
	}
	if len(oldIDs) > 0 {
		if err := i.vector.DeleteChunkVectorsByDoc(ctx, chapter.ProjectID, oldIDs); err != nil {
			return err
		}
	}
	if len(rows) == 0 {
		return nil
	}

	embedInputs := make([]string, 0, len(rows))
	items := make([]*VectorItem, 0, len(rows))
	for _, row := range rows {
		embedText := row.Content
		if t := strings.TrimSpace(chapter.Title); t != "" {
			embedText = "章节标题：" + t + "\n" + embedText
		}
		embedInputs = append(embedInputs, embedText)

		arcID := ""
		if row.ArcID != nil {
			arcID = *row.ArcID
		}
		items = append(items, &VectorItem{
			ID:    uuid.NewString(),
			DocID: row.ID,
			ArcID: arcID,
			TextContent: encodeVectorText(VectorMeta{
				DocType:   "chunk",
				ChapterID: chapter.ID,
				ArcID:     arcID,
			}, row.Content),
		})
	}

	vectors, err := i.embedBatch(ctx, embedInputs)
	if err != nil {
		return err
	}
	for idx := range items {
		items[idx].Vector = vectors[idx]
	}
	return i.vector.InsertChunkVectors(ctx, chapter.ProjectID, items)
}

func (i *Indexer) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if i == nil || i.embedder == nil {
		return nil, ErrVectorDisabled
	}
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += i.embeddingBatchSize {
		end := start + i.embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		v64, err := i.embedder.EmbedStrings(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		for _, vec := range v64 {
			f32 := make([]float32, 0, len(vec))
			for _, x := range vec {
				f32 = append(f32, float32(x))
			}
			out = append(out, f32)
		}
	}
	return out, nil
}
