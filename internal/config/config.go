package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the assistant service
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	LLM    LLMConfig    `mapstructure:"llm"`
	RAG    RAGConfig    `mapstructure:"rag"`
	Cache  CacheConfig  `mapstructure:"cache"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	CORSOrigins  []string `mapstructure:"cors_origins"`
	AdminAPIKey  string   `mapstructure:"admin_api_key"`
	ReadTimeout  int      `mapstructure:"read_timeout_seconds"`
	WriteTimeout int      `mapstructure:"write_timeout_seconds"`
}

// LLMConfig holds the hosted model configuration
type LLMConfig struct {
	ModelName   string  `mapstructure:"model_name"`
	Temperature float32 `mapstructure:"temperature"`
	TopK        int32   `mapstructure:"top_k"`
	TopP        float32 `mapstructure:"top_p"`
	APIKey      string  `mapstructure:"api_key"`
	PromptsDir  string  `mapstructure:"prompts_dir"`
}

// RAGConfig holds retrieval configuration
type RAGConfig struct {
	QdrantHost      string `mapstructure:"qdrant_host"`
	QdrantPort      int    `mapstructure:"qdrant_port"`
	Collection      string `mapstructure:"collection"`
	EmbeddingModel  string `mapstructure:"embedding_model"`
	VectorSize      int    `mapstructure:"vector_size"`
	DocsFolder      string `mapstructure:"docs_folder"`
	ChunkSize       int    `mapstructure:"chunk_size"`
	ChunkOverlap    int    `mapstructure:"chunk_overlap"`
	TopK            int    `mapstructure:"top_k"`
	FetchMultiplier int    `mapstructure:"fetch_multiplier"`
}

// CacheConfig holds Redis cache configuration. TTLs are per namespace.
type CacheConfig struct {
	Enabled                 bool   `mapstructure:"enabled"`
	RedisAddr               string `mapstructure:"redis_addr"`
	RedisDB                 int    `mapstructure:"redis_db"`
	DocumentsTTLSeconds     int    `mapstructure:"documents_ttl_seconds"`
	ConversationTTLSeconds  int    `mapstructure:"conversation_ttl_seconds"`
	RetrieveTTLSeconds      int    `mapstructure:"rag_retrieve_ttl_seconds"`
	OptimizeQueryTTLSeconds int    `mapstructure:"optimize_query_ttl_seconds"`
	GenerateTTLSeconds      int    `mapstructure:"generate_ttl_seconds"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("ASSISTANT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.admin_api_key", "")
	v.SetDefault("server.read_timeout_seconds", 30)
	v.SetDefault("server.write_timeout_seconds", 30)

	v.SetDefault("llm.model_name", "gemini-2.5-flash")
	v.SetDefault("llm.temperature", 0.75)
	v.SetDefault("llm.top_k", 50)
	v.SetDefault("llm.top_p", 0.9)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.prompts_dir", "./prompts")

	v.SetDefault("rag.qdrant_host", "localhost")
	v.SetDefault("rag.qdrant_port", 6334)
	v.SetDefault("rag.collection", "rag_store")
	v.SetDefault("rag.embedding_model", "text-embedding-004")
	v.SetDefault("rag.vector_size", 768)
	v.SetDefault("rag.docs_folder", "./docs")
	v.SetDefault("rag.chunk_size", 1500)
	v.SetDefault("rag.chunk_overlap", 150)
	v.SetDefault("rag.top_k", 2)
	v.SetDefault("rag.fetch_multiplier", 5)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.documents_ttl_seconds", 300)
	v.SetDefault("cache.conversation_ttl_seconds", 600)
	v.SetDefault("cache.rag_retrieve_ttl_seconds", 600)
	v.SetDefault("cache.optimize_query_ttl_seconds", 600)
	v.SetDefault("cache.generate_ttl_seconds", 600)
}

// Address returns the server listen address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DocumentsTTL returns the documents namespace TTL as a duration
func (c *CacheConfig) DocumentsTTL() time.Duration {
	return time.Duration(c.DocumentsTTLSeconds) * time.Second
}

// ConversationTTL returns the conversation namespace TTL as a duration
func (c *CacheConfig) ConversationTTL() time.Duration {
	return time.Duration(c.ConversationTTLSeconds) * time.Second
}

// RetrieveTTL returns the retrieval namespace TTL as a duration
func (c *CacheConfig) RetrieveTTL() time.Duration {
	return time.Duration(c.RetrieveTTLSeconds) * time.Second
}

// OptimizeQueryTTL returns the query-rewrite namespace TTL as a duration
func (c *CacheConfig) OptimizeQueryTTL() time.Duration {
	return time.Duration(c.OptimizeQueryTTLSeconds) * time.Second
}

// GenerateTTL returns the generation namespace TTL as a duration
func (c *CacheConfig) GenerateTTL() time.Duration {
	return time.Duration(c.GenerateTTLSeconds) * time.Second
}
