package config

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const realKey = "sk-proj-9f8e7d6c5b4a3210"

func validOpenAIConfig() *CodeIndexConfig {
	return &CodeIndexConfig{
		EmbedderProvider: ProviderOpenAI,
		OpenAIOptions:    &OpenAIOptions{OpenAINativeAPIKey: realKey},
	}
}

func TestValidateConfig_NilConfig(t *testing.T) {
	res := ValidateConfig(nil, Options{})

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, CodeRequiredField, res.Errors[0].Code)
}

func TestValidateConfig_OpenAIMissingKey(t *testing.T) {
	// Given: an openai config with no API key
	cfg := &CodeIndexConfig{EmbedderProvider: ProviderOpenAI}

	// When: validating
	res := ValidateConfig(cfg, Options{})

	// Then: the key is reported as required
	assert.False(t, res.Valid)
	assert.True(t, res.HasCode(CodeRequiredField, "openAiOptions.openAiNativeApiKey"))
}

func TestValidateConfig_MissingProvider(t *testing.T) {
	res := ValidateConfig(&CodeIndexConfig{}, Options{})

	assert.False(t, res.Valid)
	assert.True(t, res.HasCode(CodeRequiredField, "embedderProvider"))
}

func TestValidateConfig_UnknownProvider(t *testing.T) {
	res := ValidateConfig(&CodeIndexConfig{EmbedderProvider: "cohere"}, Options{})

	assert.False(t, res.Valid)
	assert.True(t, res.HasCode(CodeInvalidProvider, "embedderProvider"))
}

func TestValidateConfig_ProviderRequirements(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *CodeIndexConfig
		wantField string
		wantCode  Code
	}{
		{
			name:      "ollama needs base url",
			cfg:       &CodeIndexConfig{EmbedderProvider: ProviderOllama},
			wantField: FieldOllamaBaseURL,
			wantCode:  CodeRequiredField,
		},
		{
			name: "ollama rejects non-http url",
			cfg: &CodeIndexConfig{
				EmbedderProvider: ProviderOllama,
				OllamaOptions:    &OllamaOptions{OllamaBaseURL: "ftp://localhost:11434"},
			},
			wantField: FieldOllamaBaseURL,
			wantCode:  CodeInvalidProtocol,
		},
		{
			name: "openai-compatible needs key",
			cfg: &CodeIndexConfig{
				EmbedderProvider:        ProviderOpenAICompatible,
				OpenAICompatibleOptions: &OpenAICompatibleOptions{BaseURL: "https://api.example.com/v1"},
			},
			wantField: FieldOpenAICompatibleKey,
			wantCode:  CodeRequiredField,
		},
		{
			name: "openai-compatible needs url",
			cfg: &CodeIndexConfig{
				EmbedderProvider:        ProviderOpenAICompatible,
				OpenAICompatibleOptions: &OpenAICompatibleOptions{APIKey: realKey},
			},
			wantField: FieldOpenAICompatibleURL,
			wantCode:  CodeRequiredField,
		},
		{
			name:      "gemini needs key",
			cfg:       &CodeIndexConfig{EmbedderProvider: ProviderGemini},
			wantField: FieldGeminiKey,
			wantCode:  CodeRequiredField,
		},
		{
			name:      "mistral needs key",
			cfg:       &CodeIndexConfig{EmbedderProvider: ProviderMistral},
			wantField: FieldMistralKey,
			wantCode:  CodeRequiredField,
		},
		{
			name:      "vercel needs key",
			cfg:       &CodeIndexConfig{EmbedderProvider: ProviderVercelAIGateway},
			wantField: FieldVercelAIGatewayKey,
			wantCode:  CodeRequiredField,
		},
		{
			name: "openrouter key too short",
			cfg: &CodeIndexConfig{
				EmbedderProvider:  ProviderOpenRouter,
				OpenRouterOptions: &OpenRouterOptions{APIKey: "short"},
			},
			wantField: FieldOpenRouterKey,
			wantCode:  CodeInvalidLength,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateConfig(tt.cfg, Options{})

			assert.False(t, res.Valid)
			assert.True(t, res.HasCode(tt.wantCode, tt.wantField), "errors: %+v", res.Errors)
		})
	}
}

func TestValidateConfig_ValidOllama(t *testing.T) {
	cfg := &CodeIndexConfig{
		EmbedderProvider: ProviderOllama,
		OllamaOptions:    &OllamaOptions{OllamaBaseURL: "http://localhost:11434"},
	}

	res := ValidateConfig(cfg, Options{})

	assert.True(t, res.Valid, "errors: %+v", res.Errors)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, ProviderOllama, res.Metadata.Provider)
}

func TestValidateConfig_TestSecretIsWarningOnly(t *testing.T) {
	cfg := &CodeIndexConfig{
		EmbedderProvider: ProviderOpenAI,
		OpenAIOptions:    &OpenAIOptions{OpenAINativeAPIKey: "sk-test-9f8e7d6c5b4a"},
	}

	res := ValidateConfig(cfg, Options{})

	assert.True(t, res.Valid)
	assert.True(t, res.HasCode(CodeTestSecretDetected, FieldOpenAIKey))
}

func TestValidateConfig_BatchSize(t *testing.T) {
	t.Run("above MAX_BATCH_SIZE is rejected", func(t *testing.T) {
		cfg := validOpenAIConfig()
		cfg.BatchSize = Ptr(1_000_000)

		res := ValidateConfig(cfg, Options{})

		assert.False(t, res.Valid)
		assert.True(t, res.HasCode(CodeOutOfBounds, "batchSize"))
	})

	t.Run("outside production range is a recommendation", func(t *testing.T) {
		cfg := validOpenAIConfig()
		cfg.BatchSize = Ptr(5)

		res := ValidateConfig(cfg, Options{})

		assert.True(t, res.Valid)
		assert.True(t, res.HasCode(CodeProductionRecommendation, "batchSize"))
	})

	t.Run("recommended boundary is inclusive", func(t *testing.T) {
		for _, n := range []int{10, 500} {
			cfg := validOpenAIConfig()
			cfg.BatchSize = Ptr(n)

			res := ValidateConfig(cfg, Options{})

			assert.True(t, res.Valid)
			assert.False(t, res.HasCode(CodeProductionRecommendation, "batchSize"), "batch size %d", n)
		}
	})

	t.Run("clamp policy accepts with warning", func(t *testing.T) {
		cfg := validOpenAIConfig()
		cfg.BatchSize = Ptr(1_000_000)

		res := ValidateConfig(cfg, Options{Clamp: true})

		assert.True(t, res.Valid)
		assert.True(t, res.HasCode(CodeOutOfBounds, "batchSize"))
		require.Len(t, res.Metadata.Clamped, 1)
		assert.Equal(t, float64(MaxBatchSize), res.Metadata.Clamped[0].Clamped)
		assert.Equal(t, 1_000_000, *cfg.BatchSize, "input must not be mutated")
	})
}

func TestValidateConfig_SearchBounds(t *testing.T) {
	cfg := validOpenAIConfig()
	cfg.SearchMinScore = Ptr(1.5)
	cfg.SearchMaxResults = Ptr(0)

	res := ValidateConfig(cfg, Options{})

	assert.False(t, res.Valid)
	assert.True(t, res.HasCode(CodeOutOfBounds, "searchMinScore"))
	assert.True(t, res.HasCode(CodeOutOfBounds, "searchMaxResults"))
}

func TestValidateConfig_NonFiniteScore(t *testing.T) {
	cfg := validOpenAIConfig()
	cfg.SearchMinScore = Ptr(math.NaN())

	res := ValidateConfig(cfg, Options{Clamp: true})

	assert.False(t, res.Valid)
	assert.True(t, res.HasCode(CodeInvalidType, "searchMinScore"))
}

func TestValidateConfig_CacheSizeBoundsByName(t *testing.T) {
	cfg := validOpenAIConfig()
	cfg.LSPCacheSize = Ptr(50_000)
	cfg.EmbeddingCacheSize = Ptr(50_000)

	res := ValidateConfig(cfg, Options{})

	assert.False(t, res.HasCode(CodeOutOfBounds, "lspCacheSize"))
	assert.True(t, res.HasCode(CodeOutOfBounds, "embeddingCacheSize"))
}

func TestValidateConfig_Concurrency(t *testing.T) {
	cfg := validOpenAIConfig()
	cfg.BatchConcurrencyLimit = Ptr(21)

	res := ValidateConfig(cfg, Options{})

	assert.True(t, res.HasCode(CodeOutOfBounds, "batchConcurrencyLimit"))
}

func TestValidateConfig_GraphBlock(t *testing.T) {
	t.Run("skipped when disabled", func(t *testing.T) {
		cfg := validOpenAIConfig()
		cfg.GraphURL = Ptr("http://nope")
		cfg.GraphMaxConnectionPoolSize = Ptr(0)

		res := ValidateConfig(cfg, Options{})

		assert.True(t, res.Valid)
	})

	t.Run("url required", func(t *testing.T) {
		cfg := validOpenAIConfig()
		cfg.GraphEnabled = true

		res := ValidateConfig(cfg, Options{})

		assert.True(t, res.HasCode(CodeRequiredField, "graphUrl"))
	})

	t.Run("protocol allowlist", func(t *testing.T) {
		cfg := validOpenAIConfig()
		cfg.GraphEnabled = true
		cfg.GraphURL = Ptr("http://localhost:7474")

		res := ValidateConfig(cfg, Options{})

		assert.True(t, res.HasCode(CodeInvalidProtocol, "graphUrl"))
	})

	t.Run("all fields checked", func(t *testing.T) {
		cfg := validOpenAIConfig()
		cfg.GraphEnabled = true
		cfg.GraphURL = Ptr("neo4j+s://graph.internal:7687")
		cfg.GraphPassword = Ptr("short")
		cfg.GraphMaxConnectionPoolSize = Ptr(501)
		cfg.GraphQueryTimeout = Ptr(999)
		cfg.GraphMaxRetries = Ptr(11)
		cfg.GraphCircuitBreakerThreshold = Ptr(101)

		res := ValidateConfig(cfg, Options{})

		assert.False(t, res.Valid)
		assert.False(t, res.HasCode(CodeInvalidProtocol, "graphUrl"))
		assert.True(t, res.HasCode(CodeInvalidLength, "graphPassword"))
		assert.True(t, res.HasCode(CodeOutOfBounds, "graphMaxConnectionPoolSize"))
		assert.True(t, res.HasCode(CodeOutOfBounds, "graphQueryTimeout"))
		assert.True(t, res.HasCode(CodeOutOfBounds, "graphMaxRetries"))
		assert.True(t, res.HasCode(CodeOutOfBounds, "graphCircuitBreakerThreshold"))
	})

	t.Run("pool below production floor is a recommendation", func(t *testing.T) {
		cfg := validOpenAIConfig()
		cfg.GraphEnabled = true
		cfg.GraphURL = Ptr("bolt://localhost:7687")
		cfg.GraphMaxConnectionPoolSize = Ptr(5)

		res := ValidateConfig(cfg, Options{})

		assert.True(t, res.Valid)
		assert.True(t, res.HasCode(CodeProductionRecommendation, "graphMaxConnectionPoolSize"))
	})
}

func TestValidateConfig_ProductionSweep(t *testing.T) {
	cfg := &CodeIndexConfig{
		EmbedderProvider:             ProviderOpenAI,
		OpenAIOptions:                &OpenAIOptions{OpenAINativeAPIKey: "sk-demo-9f8e7d6c5b4a"},
		GraphEnabled:                 true,
		GraphURL:                     Ptr("bolt://localhost:7687"),
		GraphCircuitBreakerThreshold: Ptr(0),
		GraphMaxRetries:              Ptr(0),
		GraphQueryTimeout:            Ptr(400000),
	}

	t.Run("off by default", func(t *testing.T) {
		res := ValidateConfig(cfg, Options{})
		assert.False(t, res.HasCode(CodeProductionSafety, ""))
	})

	t.Run("warnings only when enabled", func(t *testing.T) {
		res := ValidateConfig(cfg, Options{Production: true})

		assert.True(t, res.Valid)
		assert.True(t, res.HasCode(CodeProductionSafety, "graphCircuitBreakerThreshold"))
		assert.True(t, res.HasCode(CodeProductionSafety, FieldOpenAIKey))
		assert.True(t, res.HasCode(CodeProductionSafety, "graphMaxRetries"))
		assert.True(t, res.HasCode(CodeProductionSafety, "graphQueryTimeout"))
		assert.True(t, res.Metadata.Production)
	})

	t.Run("individual checks can be skipped", func(t *testing.T) {
		res := ValidateConfig(cfg, Options{Production: true, SkipChecks: []ProductionCheck{CheckRetries, CheckTimeouts}})

		assert.True(t, res.HasCode(CodeProductionSafety, "graphCircuitBreakerThreshold"))
		assert.False(t, res.HasCode(CodeProductionSafety, "graphMaxRetries"))
		assert.False(t, res.HasCode(CodeProductionSafety, "graphQueryTimeout"))
	})
}

func TestValidateConfig_DoesNotMutateInput(t *testing.T) {
	cfg := validOpenAIConfig()
	cfg.SearchMinScore = Ptr(2.0)
	before := cfg.Clone()

	_ = ValidateConfig(cfg, Options{Clamp: true, Production: true})

	assert.Equal(t, before, cfg)
}

func TestValidateConfig_Metadata(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	res := ValidateConfig(validOpenAIConfig(), Options{Now: func() time.Time { return at }})

	assert.Equal(t, at, res.Metadata.ValidatedAt)
	assert.NoError(t, res.Err())
}
