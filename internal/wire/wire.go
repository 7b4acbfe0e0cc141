// Package wire 提供显式的依赖装配
package wire

import (
	"context"

	einoembedding "github.com/cloudwego/eino/components/embedding"

	"lore-context-api/internal/application/assembler"
	"lore-context-api/internal/application/chapters"
	"lore-context-api/internal/application/composer"
	"lore-context-api/internal/application/retrieval"
	"lore-context-api/internal/application/summarize"
	"lore-context-api/internal/application/timeline"
	"lore-context-api/internal/config"
	infraembedding "lore-context-api/internal/infrastructure/embedding"
	"lore-context-api/internal/infrastructure/llm"
	"lore-context-api/internal/infrastructure/messaging"
	"lore-context-api/internal/infrastructure/persistence/milvus"
	"lore-context-api/internal/infrastructure/persistence/postgres"
	"lore-context-api/internal/infrastructure/persistence/redis"
	"lore-context-api/internal/interfaces/http/handler"
	"lore-context-api/internal/interfaces/http/router"
	"lore-context-api/pkg/logger"
)

// DataLayer 数据层依赖容器
type DataLayer struct {
	// PostgreSQL
	PgClient    *postgres.Client
	TxManager   *postgres.TxManager
	ProjectRepo *postgres.ProjectRepository
	ArcRepo     *postgres.ArcRepository
	ChapterRepo *postgres.ChapterRepository
	EntityRepo  *postgres.BibleEntityRepository
	RelationRepo *postgres.RelationRepository
	ChunkRepo   *postgres.ChunkRepository
	PrefixRepo  *postgres.PrefixConfigRepository

	// Redis
	RedisClient *redis.Client
	Cache       *redis.Cache
	RateLimiter *redis.RateLimiter

	// Messaging
	Producer *messaging.Producer

	// Milvus（可为 nil，向量功能降级）
	MilvusClient *milvus.Client
	VectorRepo   retrieval.VectorRepository

	// Embedder（可为 nil，向量功能降级）
	Embedder einoembedding.Embedder
}

// App 完整装配的应用
type App struct {
	Data       *DataLayer
	Router     *router.Router
	Engine     *retrieval.Engine
	Indexer    *retrieval.Indexer
	Compositor *composer.Compositor
}

// Worker 后台消费者依赖
type Worker struct {
	Data          *DataLayer
	UsageRecorder *retrieval.RepoUsageRecorder
	Summarizer    *summarize.Summarizer
	Indexer       *retrieval.Indexer
}

// InitializePostgres 仅初始化 PostgreSQL（bootstrap 用）
func InitializePostgres(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// InitializeDataLayer 初始化数据层。
// Postgres 与 Redis 为硬依赖；Milvus 与 Embedder 任一不可用时
// 向量检索/索引整体降级为关键字路径，不阻塞启动。
func InitializeDataLayer(ctx context.Context, cfg *config.Config) (*DataLayer, func(), error) {
	cleanups := make([]func(), 0, 3)
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanups = append(cleanups, func() { pgClient.Close() })

	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cleanups = append(cleanups, func() { redisClient.Close() })

	dl := &DataLayer{
		PgClient:     pgClient,
		TxManager:    postgres.NewTxManager(pgClient),
		ProjectRepo:  postgres.NewProjectRepository(pgClient),
		ArcRepo:      postgres.NewArcRepository(pgClient),
		ChapterRepo:  postgres.NewChapterRepository(pgClient),
		EntityRepo:   postgres.NewBibleEntityRepository(pgClient),
		RelationRepo: postgres.NewRelationRepository(pgClient),
		ChunkRepo:    postgres.NewChunkRepository(pgClient),
		PrefixRepo:   postgres.NewPrefixConfigRepository(pgClient),
		RedisClient:  redisClient,
		Cache:        redis.NewCache(redisClient),
		RateLimiter:  redis.NewRateLimiter(redisClient),
		Producer:     messaging.NewProducer(redisClient.Redis(), int64(cfg.Messaging.RedisStream.MaxLen)),
	}

	// Milvus 可选
	milvusClient, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		logger.Warn(ctx, "milvus not available, vector features disabled", "error", err.Error())
	} else {
		cleanups = append(cleanups, func() { _ = milvusClient.Close() })
		dl.MilvusClient = milvusClient
		dl.VectorRepo = milvus.NewRetrievalVectorRepository(milvus.NewRepository(milvusClient))
	}

	// Embedder 可选
	embedder, err := infraembedding.NewEinoEmbedder(ctx, &cfg.Embedding)
	if err != nil {
		logger.Warn(ctx, "embedding not available, vector features disabled", "error", err.Error())
	} else {
		dl.Embedder = embedder
	}

	return dl, cleanup, nil
}

// InitializeApp 装配 HTTP 服务
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	dl, cleanup, err := InitializeDataLayer(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	engine := retrieval.NewEngine(dl.Embedder, dl.VectorRepo, dl.EntityRepo, retrieval.Options{
		DefaultTopK:         cfg.Context.DefaultTopK,
		CandidateMultiplier: cfg.Context.CandidateMultiplier,
		MinCandidates:       cfg.Context.MinCandidates,
		MatchThreshold:      cfg.Context.MatchThreshold,
		RecencyWindow:       cfg.Context.RecencyWindow,
	})
	chunkSearcher := retrieval.NewChunkSearcher(dl.Embedder, dl.VectorRepo, dl.ChunkRepo, retrieval.Options{
		DefaultTopK:    cfg.Context.DefaultTopK,
		MatchThreshold: cfg.Context.MatchThreshold,
	})
	indexer := retrieval.NewIndexer(dl.Embedder, dl.VectorRepo, dl.EntityRepo, dl.ChunkRepo, dl.TxManager, cfg.Embedding.BatchSize)

	tl := timeline.NewArcTimeline(dl.ArcRepo)
	asm := assembler.NewReverseLookupAssembler(dl.ChunkRepo, dl.ChapterRepo, dl.ArcRepo)
	loader := chapters.NewLoader(dl.ChapterRepo, dl.EntityRepo)
	resolver := chapters.NewRangeResolver(dl.ChapterRepo)

	// 使用反馈经 Redis Stream 异步回写，避免检索路径上的同步写
	usageRecorder := messaging.NewStreamUsageRecorder(dl.Producer)

	compositor := composer.NewCompositor(
		dl.ProjectRepo,
		dl.EntityRepo,
		dl.RelationRepo,
		dl.PrefixRepo,
		engine,
		chunkSearcher,
		asm,
		resolver,
		loader,
		tl,
		usageRecorder,
		composer.Config{
			MaxContextTokens:  cfg.Context.MaxContextTokens,
			ChapterTokenLimit: cfg.Context.ChapterTokenLimit,
			ChunkTokenLimit:   cfg.Context.ChunkTokenLimit,
			Concurrency:       cfg.Context.Concurrency,
		},
	)

	handlers := router.Handlers{
		Health:    handler.NewHealthHandler(dl.PgClient, dl.RedisClient, dl.MilvusClient),
		Project:   handler.NewProjectHandler(dl.ProjectRepo, dl.Cache),
		Entity:    handler.NewEntityHandler(dl.EntityRepo, indexer, dl.Cache),
		Relation:  handler.NewRelationHandler(dl.RelationRepo, dl.EntityRepo),
		Arc:       handler.NewArcHandler(dl.ArcRepo, tl),
		Chapter:   handler.NewChapterHandler(dl.ChapterRepo, indexer, dl.Producer),
		Chunk:     handler.NewChunkHandler(dl.ChunkRepo, indexer, asm),
		Prefix:    handler.NewPrefixHandler(dl.PrefixRepo),
		Context:   handler.NewContextHandler(compositor, dl.Cache, cfg.Context),
		Retrieval: handler.NewRetrievalHandler(engine, chunkSearcher, usageRecorder),
	}

	app := &App{
		Data:       dl,
		Router:     router.New(cfg, handlers, dl.RateLimiter),
		Engine:     engine,
		Indexer:    indexer,
		Compositor: compositor,
	}
	return app, cleanup, nil
}

// InitializeWorker 装配后台消费者
func InitializeWorker(ctx context.Context, cfg *config.Config) (*Worker, func(), error) {
	dl, cleanup, err := InitializeDataLayer(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	factory := llm.NewEinoFactory(cfg)
	indexer := retrieval.NewIndexer(dl.Embedder, dl.VectorRepo, dl.EntityRepo, dl.ChunkRepo, dl.TxManager, cfg.Embedding.BatchSize)

	w := &Worker{
		Data:          dl,
		UsageRecorder: retrieval.NewRepoUsageRecorder(dl.EntityRepo),
		Summarizer:    summarize.NewSummarizer(factory, dl.ChapterRepo, dl.ArcRepo),
		Indexer:       indexer,
	}
	return w, cleanup, nil
}
