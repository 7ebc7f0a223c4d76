package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"assistant/internal/api"
	"assistant/internal/api/admin"
	"assistant/internal/api/chat"
	"assistant/internal/cache"
	"assistant/internal/config"
	"assistant/internal/graph"
	"assistant/internal/llm"
	"assistant/internal/prompts"
	"assistant/internal/rag"
	"assistant/internal/rag/extract"
	"assistant/internal/rag/splitter"
	"assistant/internal/rag/store"
)

var configPath = flag.String("config", "", "Path to config file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := os.MkdirAll(cfg.RAG.DocsFolder, 0o755); err != nil {
		logger.Fatal("Failed to create docs folder", zap.Error(err))
	}

	// Cache is a soft dependency: when disabled it degrades to always-miss.
	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisAddr,
			DB:   cfg.Cache.RedisDB,
		})
	}
	cacheLayer := cache.New(redisClient, logger)
	defer cacheLayer.Close()

	qdrantClient, err := qdrant.NewClient(&qdrant.Config{
		Host: cfg.RAG.QdrantHost,
		Port: cfg.RAG.QdrantPort,
	})
	if err != nil {
		logger.Fatal("Failed to create qdrant client", zap.Error(err))
	}
	defer qdrantClient.Close()

	ctx := context.Background()

	systemPrompt := prompts.Load(cfg.LLM.PromptsDir, prompts.SystemPromptFile, logger)
	llmClient, err := llm.New(ctx, cfg.LLM, cfg.RAG.EmbeddingModel, systemPrompt, logger)
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}
	defer llmClient.Close()

	docStore := store.New(qdrantClient, llmClient, cfg.RAG.Collection,
		cfg.RAG.VectorSize, cfg.RAG.FetchMultiplier, logger)
	if err := docStore.EnsureCollection(ctx); err != nil {
		logger.Fatal("Failed to prepare vector collection", zap.Error(err))
	}

	pipeline := rag.NewPipeline(
		extract.New(),
		splitter.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap),
		docStore,
		cacheLayer,
		cfg.RAG.DocsFolder,
		cfg.Cache.DocumentsTTL(),
		logger,
	)

	ragGraph := graph.New(llmClient, docStore, cacheLayer, graph.Options{
		TopK:            cfg.RAG.TopK,
		RAGTemplate:     prompts.Load(cfg.LLM.PromptsDir, prompts.RAGPromptFile, logger),
		RewriteTemplate: prompts.Load(cfg.LLM.PromptsDir, prompts.RewritePromptFile, logger),
		RetrieveTTL:     cfg.Cache.RetrieveTTL(),
		OptimizeTTL:     cfg.Cache.OptimizeQueryTTL(),
		GenerateTTL:     cfg.Cache.GenerateTTL(),
	}, logger)

	chatHandler := chat.NewHandler(ragGraph, cacheLayer, cfg.Cache.ConversationTTL(), logger)
	adminHandler := admin.NewHandler(pipeline, logger)

	router := api.SetupRouter(chatHandler, adminHandler, api.RouterConfig{
		AdminAPIKey:  cfg.Server.AdminAPIKey,
		AllowOrigins: cfg.Server.CORSOrigins,
	})

	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Starting assistant server", zap.String("address", cfg.Address()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
