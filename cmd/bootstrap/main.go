// Package main 初始化数据库表结构与向量集合
//
// 用法：
//
//	go run ./cmd/bootstrap
package main

import (
	"context"
	"fmt"
	"os"

	"lore-context-api/internal/config"
	"lore-context-api/internal/infrastructure/persistence/milvus"
	"lore-context-api/internal/wire"
	"lore-context-api/pkg/logger"

	"github.com/joho/godotenv"
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

	fmt.Println("==> Connecting to PostgreSQL...")
	client, cleanup, err := wire.InitializePostgres(cfg)
	if err != nil {
		fmt.Printf("Failed to connect to PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	fmt.Println("==> Running migrations...")
	if err := client.AutoMigrate(); err != nil {
		fmt.Printf("Migration failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("==> Migrations completed")

	// Milvus 集合初始化（可选，连接失败不阻塞建表）
	fmt.Println("==> Connecting to Milvus...")
	milvusClient, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		fmt.Printf("Milvus not available, skipping collection setup: %v\n", err)
		fmt.Println("==> Bootstrap completed (vector collections skipped)")
		return
	}
	defer milvusClient.Close()

	fmt.Println("==> Ensuring vector collections...")
	if err := milvus.NewRepository(milvusClient).EnsureCollections(ctx); err != nil {
		fmt.Printf("Failed to ensure collections: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("==> Bootstrap completed")
}
