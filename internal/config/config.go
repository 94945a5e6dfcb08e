// Package config defines the persisted code index configuration and the
// tools around it: validation, schema migration, YAML snapshots and the
// Manager that loads and saves it through a Store.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	cierrors "github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/errors"
)

// Defaults applied when the persisted record leaves a field unset.
const (
	DefaultSearchMinScore   = 0.4
	DefaultSearchMaxResults = 50
	DefaultQdrantURL        = "http://localhost:6333"
	DefaultBatchConcurrency = 4
	DefaultEmbeddingCache   = 10000

	DefaultGraphCircuitBreakerThreshold = 5
	DefaultGraphMaxConnectionPoolSize   = 50
)

// EmbedderProvider names an embedding backend.
type EmbedderProvider string

const (
	ProviderOpenAI           EmbedderProvider = "openai"
	ProviderOllama           EmbedderProvider = "ollama"
	ProviderOpenAICompatible EmbedderProvider = "openai-compatible"
	ProviderGemini           EmbedderProvider = "gemini"
	ProviderMistral          EmbedderProvider = "mistral"
	ProviderVercelAIGateway  EmbedderProvider = "vercel-ai-gateway"
	ProviderOpenRouter       EmbedderProvider = "openrouter"
)

// Providers lists every supported provider in display order.
var Providers = []EmbedderProvider{
	ProviderOpenAI,
	ProviderOllama,
	ProviderOpenAICompatible,
	ProviderGemini,
	ProviderMistral,
	ProviderVercelAIGateway,
	ProviderOpenRouter,
}

// CodeIndexConfig is the persisted code index configuration.
// Optional values are pointers; nil means "not set" and skips validation.
// Timeouts are in milliseconds.
type CodeIndexConfig struct {
	ConfigSchemaVersion *string `json:"configSchemaVersion,omitempty" yaml:"configSchemaVersion,omitempty"`

	Enabled          bool             `json:"codebaseIndexEnabled" yaml:"codebaseIndexEnabled"`
	EmbedderProvider EmbedderProvider `json:"embedderProvider,omitempty" yaml:"embedderProvider,omitempty"`
	ModelID          *string          `json:"modelId,omitempty" yaml:"modelId,omitempty"`
	ModelDimension   *int             `json:"modelDimension,omitempty" yaml:"modelDimension,omitempty"`

	OpenAIOptions           *OpenAIOptions           `json:"openAiOptions,omitempty" yaml:"openAiOptions,omitempty"`
	OllamaOptions           *OllamaOptions           `json:"ollamaOptions,omitempty" yaml:"ollamaOptions,omitempty"`
	OpenAICompatibleOptions *OpenAICompatibleOptions `json:"openAiCompatibleOptions,omitempty" yaml:"openAiCompatibleOptions,omitempty"`
	GeminiOptions           *APIKeyOptions           `json:"geminiOptions,omitempty" yaml:"geminiOptions,omitempty"`
	MistralOptions          *APIKeyOptions           `json:"mistralOptions,omitempty" yaml:"mistralOptions,omitempty"`
	VercelAIGatewayOptions  *APIKeyOptions           `json:"vercelAiGatewayOptions,omitempty" yaml:"vercelAiGatewayOptions,omitempty"`
	OpenRouterOptions       *OpenRouterOptions       `json:"openRouterOptions,omitempty" yaml:"openRouterOptions,omitempty"`

	QdrantURL    *string `json:"qdrantUrl,omitempty" yaml:"qdrantUrl,omitempty"`
	QdrantAPIKey *string `json:"qdrantApiKey,omitempty" yaml:"qdrantApiKey,omitempty"`

	SearchMinScore   *float64 `json:"searchMinScore,omitempty" yaml:"searchMinScore,omitempty"`
	SearchMaxResults *int     `json:"searchMaxResults,omitempty" yaml:"searchMaxResults,omitempty"`

	GraphEnabled                      bool    `json:"graphEnabled" yaml:"graphEnabled"`
	GraphURL                          *string `json:"graphUrl,omitempty" yaml:"graphUrl,omitempty"`
	GraphUsername                     *string `json:"graphUsername,omitempty" yaml:"graphUsername,omitempty"`
	GraphPassword                     *string `json:"graphPassword,omitempty" yaml:"graphPassword,omitempty"`
	GraphDatabase                     *string `json:"graphDatabase,omitempty" yaml:"graphDatabase,omitempty"`
	GraphMaxConnectionPoolSize        *int    `json:"graphMaxConnectionPoolSize,omitempty" yaml:"graphMaxConnectionPoolSize,omitempty"`
	GraphConnectionAcquisitionTimeout *int    `json:"graphConnectionAcquisitionTimeout,omitempty" yaml:"graphConnectionAcquisitionTimeout,omitempty"`
	GraphQueryTimeout                 *int    `json:"graphQueryTimeout,omitempty" yaml:"graphQueryTimeout,omitempty"`
	GraphMaxRetries                   *int    `json:"graphMaxRetries,omitempty" yaml:"graphMaxRetries,omitempty"`
	GraphCircuitBreakerThreshold      *int    `json:"graphCircuitBreakerThreshold,omitempty" yaml:"graphCircuitBreakerThreshold,omitempty"`
	GraphCircuitBreakerTimeout        *int    `json:"graphCircuitBreakerTimeout,omitempty" yaml:"graphCircuitBreakerTimeout,omitempty"`

	BatchSize             *int `json:"batchSize,omitempty" yaml:"batchSize,omitempty"`
	BatchTimeout          *int `json:"batchTimeout,omitempty" yaml:"batchTimeout,omitempty"`
	EmbeddingCacheSize    *int `json:"embeddingCacheSize,omitempty" yaml:"embeddingCacheSize,omitempty"`
	LSPCacheSize          *int `json:"lspCacheSize,omitempty" yaml:"lspCacheSize,omitempty"`
	BatchConcurrencyLimit *int `json:"batchConcurrencyLimit,omitempty" yaml:"batchConcurrencyLimit,omitempty"`
}

// OpenAIOptions configures the native OpenAI embedder.
type OpenAIOptions struct {
	OpenAINativeAPIKey string `json:"openAiNativeApiKey,omitempty" yaml:"openAiNativeApiKey,omitempty"`
}

// OllamaOptions configures a local Ollama embedder.
type OllamaOptions struct {
	OllamaBaseURL string `json:"ollamaBaseUrl,omitempty" yaml:"ollamaBaseUrl,omitempty"`
}

// OpenAICompatibleOptions configures any OpenAI-compatible endpoint.
type OpenAICompatibleOptions struct {
	BaseURL string `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
	APIKey  string `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
}

// APIKeyOptions is shared by providers that only need a key.
type APIKeyOptions struct {
	APIKey string `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
}

// OpenRouterOptions configures the OpenRouter embedder.
type OpenRouterOptions struct {
	APIKey           string `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	SpecificProvider string `json:"specificProvider,omitempty" yaml:"specificProvider,omitempty"`
}

// NewConfig returns a configuration with the defaults a fresh install uses.
// It carries the current schema version so it never needs migration.
func NewConfig() *CodeIndexConfig {
	return &CodeIndexConfig{
		ConfigSchemaVersion: Ptr(CurrentSchemaVersion),
		EmbedderProvider:    ProviderOpenAI,
		QdrantURL:           Ptr(DefaultQdrantURL),
		SearchMinScore:      Ptr(DefaultSearchMinScore),
		SearchMaxResults:    Ptr(DefaultSearchMaxResults),
	}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Clone returns a deep copy of c.
func (c *CodeIndexConfig) Clone() *CodeIndexConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.ConfigSchemaVersion = clonePtr(c.ConfigSchemaVersion)
	out.ModelID = clonePtr(c.ModelID)
	out.ModelDimension = clonePtr(c.ModelDimension)
	out.OpenAIOptions = clonePtr(c.OpenAIOptions)
	out.OllamaOptions = clonePtr(c.OllamaOptions)
	out.OpenAICompatibleOptions = clonePtr(c.OpenAICompatibleOptions)
	out.GeminiOptions = clonePtr(c.GeminiOptions)
	out.MistralOptions = clonePtr(c.MistralOptions)
	out.VercelAIGatewayOptions = clonePtr(c.VercelAIGatewayOptions)
	out.OpenRouterOptions = clonePtr(c.OpenRouterOptions)
	out.QdrantURL = clonePtr(c.QdrantURL)
	out.QdrantAPIKey = clonePtr(c.QdrantAPIKey)
	out.SearchMinScore = clonePtr(c.SearchMinScore)
	out.SearchMaxResults = clonePtr(c.SearchMaxResults)
	out.GraphURL = clonePtr(c.GraphURL)
	out.GraphUsername = clonePtr(c.GraphUsername)
	out.GraphPassword = clonePtr(c.GraphPassword)
	out.GraphDatabase = clonePtr(c.GraphDatabase)
	out.GraphMaxConnectionPoolSize = clonePtr(c.GraphMaxConnectionPoolSize)
	out.GraphConnectionAcquisitionTimeout = clonePtr(c.GraphConnectionAcquisitionTimeout)
	out.GraphQueryTimeout = clonePtr(c.GraphQueryTimeout)
	out.GraphMaxRetries = clonePtr(c.GraphMaxRetries)
	out.GraphCircuitBreakerThreshold = clonePtr(c.GraphCircuitBreakerThreshold)
	out.GraphCircuitBreakerTimeout = clonePtr(c.GraphCircuitBreakerTimeout)
	out.BatchSize = clonePtr(c.BatchSize)
	out.BatchTimeout = clonePtr(c.BatchTimeout)
	out.EmbeddingCacheSize = clonePtr(c.EmbeddingCacheSize)
	out.LSPCacheSize = clonePtr(c.LSPCacheSize)
	out.BatchConcurrencyLimit = clonePtr(c.BatchConcurrencyLimit)
	return &out
}

// clonePtr copies the value behind p. The pointed-to types hold no pointers.
func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// SchemaVersion returns the schema version tag, or "" when absent.
func (c *CodeIndexConfig) SchemaVersion() string {
	if c == nil || c.ConfigSchemaVersion == nil {
		return ""
	}
	return *c.ConfigSchemaVersion
}

// EffectiveSearchMinScore returns searchMinScore or its default.
func (c *CodeIndexConfig) EffectiveSearchMinScore() float64 {
	if c != nil && c.SearchMinScore != nil {
		return *c.SearchMinScore
	}
	return DefaultSearchMinScore
}

// EffectiveSearchMaxResults returns searchMaxResults or its default.
func (c *CodeIndexConfig) EffectiveSearchMaxResults() int {
	if c != nil && c.SearchMaxResults != nil {
		return *c.SearchMaxResults
	}
	return DefaultSearchMaxResults
}

// EffectiveBatchConcurrency returns batchConcurrencyLimit or its default.
func (c *CodeIndexConfig) EffectiveBatchConcurrency() int {
	if c != nil && c.BatchConcurrencyLimit != nil && *c.BatchConcurrencyLimit > 0 {
		return *c.BatchConcurrencyLimit
	}
	return DefaultBatchConcurrency
}

// EffectiveEmbeddingCacheSize returns embeddingCacheSize or its default.
// Zero selects the default.
func (c *CodeIndexConfig) EffectiveEmbeddingCacheSize() int {
	if c != nil && c.EmbeddingCacheSize != nil && *c.EmbeddingCacheSize > 0 {
		return *c.EmbeddingCacheSize
	}
	return DefaultEmbeddingCache
}

// EffectiveQdrantURL returns qdrantUrl or the local default.
func (c *CodeIndexConfig) EffectiveQdrantURL() string {
	if c != nil && c.QdrantURL != nil && *c.QdrantURL != "" {
		return *c.QdrantURL
	}
	return DefaultQdrantURL
}

// LoadFile reads a YAML (or JSON, which is valid YAML) configuration snapshot.
func LoadFile(path string) (*CodeIndexConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cierrors.New(cierrors.ErrCodeConfigNotFound,
				fmt.Sprintf("config file not found: %s", path), err)
		}
		if os.IsPermission(err) {
			return nil, cierrors.New(cierrors.ErrCodeConfigPermission,
				fmt.Sprintf("cannot read config file: %s", path), err)
		}
		return nil, cierrors.IOError(fmt.Sprintf("failed to read config file: %s", path), err)
	}

	var cfg CodeIndexConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, cierrors.ConfigError(fmt.Sprintf("failed to parse config file: %s", path), err)
	}
	return &cfg, nil
}

// WriteFile writes c to path as YAML.
func (c *CodeIndexConfig) WriteFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnvOverrides applies CODEINDEX_* environment variable overrides.
// Unparseable numeric values are ignored.
func (c *CodeIndexConfig) ApplyEnvOverrides() {
	if v := os.Getenv("CODEINDEX_EMBEDDER_PROVIDER"); v != "" {
		c.EmbedderProvider = EmbedderProvider(strings.ToLower(strings.TrimSpace(v)))
	}
	if v := os.Getenv("CODEINDEX_QDRANT_URL"); v != "" {
		c.QdrantURL = Ptr(v)
	}
	if v := os.Getenv("CODEINDEX_SEARCH_MIN_SCORE"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			c.SearchMinScore = Ptr(f)
		}
	}
	if v := os.Getenv("CODEINDEX_SEARCH_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			c.SearchMaxResults = Ptr(n)
		}
	}
}

// LogLevelFromEnv returns CODEINDEX_LOG_LEVEL, or fallback when unset.
func LogLevelFromEnv(fallback string) string {
	if v := os.Getenv("CODEINDEX_LOG_LEVEL"); v != "" {
		return strings.ToLower(v)
	}
	return fallback
}
