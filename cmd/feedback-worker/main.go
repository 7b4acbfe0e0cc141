// Package main 异步反馈 Worker 入口
//
// 消费两条 Redis Stream：
//   - 检索命中反馈：回写实体 lookup_count
//   - 章节元数据：触发章节/卷弧摘要生成
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"lore-context-api/internal/config"
	"lore-context-api/internal/infrastructure/messaging"
	einoobs "lore-context-api/internal/observability/eino"
	"lore-context-api/internal/wire"
	"lore-context-api/pkg/logger"
	"lore-context-api/pkg/tracer"

	"github.com/joho/godotenv"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx := context.Background()
	log := logger.FromContext(ctx)
	log.Info("starting feedback-worker",
		"version", Version,
		"build_time", BuildTime,
		"env", cfg.App.Env,
	)

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.App.Name + "-worker",
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		log.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// 摘要生成走 Eino chat model，初始化全局 callbacks
	einoobs.Init()

	w, cleanup, err := wire.InitializeWorker(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "failed to initialize worker", err)
	}
	defer cleanup()

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "worker"
	}

	streamCfg := cfg.Messaging.RedisStream
	backoff := messaging.BackoffConfig{
		Initial:    streamCfg.RetryBackoff.Initial,
		Max:        streamCfg.RetryBackoff.Max,
		Multiplier: streamCfg.RetryBackoff.Multiplier,
	}

	// 检索命中反馈消费者
	feedbackConsumer := messaging.NewConsumer(w.Data.RedisClient.Redis(), messaging.ConsumerConfig{
		Stream:        messaging.StreamUsageFeedback,
		Group:         messaging.ConsumerGroupFeedbackWorker,
		ConsumerName:  hostname + "-feedback",
		BlockTimeout:  streamCfg.BlockTimeout,
		ClaimInterval: streamCfg.ClaimInterval,
		RetryLimit:    streamCfg.RetryLimit,
		Backoff:       backoff,
	})
	feedbackConsumer.RegisterHandler(messaging.MsgTypeUsageFeedback, func(ctx context.Context, msg *messaging.Message) error {
		var p messaging.UsageFeedbackMessage
		if err := msg.UnmarshalPayload(&p); err != nil {
			return err
		}
		return w.UsageRecorder.RecordUsage(ctx, p.ProjectID, p.EntityIDs)
	})

	// 章节元数据消费者
	metaConsumer := messaging.NewConsumer(w.Data.RedisClient.Redis(), messaging.ConsumerConfig{
		Stream:        messaging.StreamChapterMeta,
		Group:         messaging.ConsumerGroupMetaWorker,
		ConsumerName:  hostname + "-meta",
		BlockTimeout:  streamCfg.BlockTimeout,
		ClaimInterval: streamCfg.ClaimInterval,
		RetryLimit:    streamCfg.RetryLimit,
		Backoff:       backoff,
	})
	metaConsumer.RegisterHandler(messaging.MsgTypeChapterMeta, func(ctx context.Context, msg *messaging.Message) error {
		var p messaging.ChapterMetaMessage
		if err := msg.UnmarshalPayload(&p); err != nil {
			return err
		}
		return w.Summarizer.SummarizeChapter(ctx, p.ChapterID)
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := feedbackConsumer.Start(runCtx); err != nil {
		logger.Fatal(ctx, "failed to start feedback consumer", err)
	}
	if err := metaConsumer.Start(runCtx); err != nil {
		logger.Fatal(ctx, "failed to start meta consumer", err)
	}

	go feedbackConsumer.MonitorDLQ(runCtx, 100)
	go metaConsumer.MonitorDLQ(runCtx, 100)

	log.Info("worker started",
		"streams", []string{string(messaging.StreamUsageFeedback), string(messaging.StreamChapterMeta)},
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()
	feedbackConsumer.Stop()
	metaConsumer.Stop()
	log.Info("worker exited")
}
