package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.RerankHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.LLMHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, "bge-reranker-v2-m3", cfg.RerankModel)
	assert.Equal(t, "qwen2.5:3b", cfg.LLMModel)
	assert.True(t, cfg.RerankEnabled)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfigAppliesOptions(t *testing.T) {
	cfg := NewConfig(
		WithHost("http://models.internal:9100"),
		WithEmbeddingModel("text-embedding-3-small"),
		WithRerankModel("rerank-english-v3"),
		WithLLMModel("gpt-4o-mini"),
		WithAPIKey("secret"),
		WithRerankEnabled(false),
	)

	assert.Equal(t, "http://models.internal:9100", cfg.EmbeddingHost)
	assert.Equal(t, "http://models.internal:9100", cfg.RerankHost)
	assert.Equal(t, "http://models.internal:9100", cfg.LLMHost)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.False(t, cfg.RerankEnabled)
}

func TestConfigNormalizeAddsV1Suffix(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{"bare host", "http://localhost:11434", "http://localhost:11434/v1"},
		{"trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"already normalized", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig(WithHost(tt.host))
			cfg.Normalize()
			assert.Equal(t, tt.expected, cfg.EmbeddingHost)
			assert.Equal(t, tt.expected, cfg.RerankHost)
			assert.Equal(t, tt.expected, cfg.LLMHost)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing embedding host",
			mutate:  func(c *Config) { c.EmbeddingHost = "" },
			wantErr: "EmbeddingHost",
		},
		{
			name:    "missing llm host",
			mutate:  func(c *Config) { c.LLMHost = "" },
			wantErr: "LLMHost",
		},
		{
			name:    "missing embedding model",
			mutate:  func(c *Config) { c.EmbeddingModel = "" },
			wantErr: "EmbeddingModel",
		},
		{
			name:    "missing llm model",
			mutate:  func(c *Config) { c.LLMModel = "" },
			wantErr: "LLMModel",
		},
		{
			name:    "missing rerank host with reranking enabled",
			mutate:  func(c *Config) { c.RerankHost = "" },
			wantErr: "RerankHost",
		},
		{
			name:    "missing rerank model with reranking enabled",
			mutate:  func(c *Config) { c.RerankModel = "" },
			wantErr: "RerankModel",
		},
		{
			name: "rerank fields optional when disabled",
			mutate: func(c *Config) {
				c.RerankEnabled = false
				c.RerankHost = ""
				c.RerankModel = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
