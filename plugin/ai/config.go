package ai

import (
	"errors"

	"github.com/finchbot/finch/internal/profile"
)

// EmbeddingConfig represents vector embedding configuration.
type EmbeddingConfig struct {
	Provider   string  // openai, siliconflow, ollama
	Model      string  // text-embedding-3-small
	Dimensions int     // 384
	APIKey     string
	BaseURL    string
	RateLimit  float64 // requests per second, 0 disables limiting
}

// NewEmbeddingConfigFromProfile creates embedding config from profile.
func NewEmbeddingConfigFromProfile(p *profile.Profile) *EmbeddingConfig {
	cfg := &EmbeddingConfig{
		Provider:   p.AIEmbeddingProvider,
		Model:      p.AIEmbeddingModel,
		Dimensions: p.AIEmbeddingDimensions,
		RateLimit:  p.AIEmbedRateLimit,
	}

	switch p.AIEmbeddingProvider {
	case "openai":
		cfg.APIKey = p.AIOpenAIAPIKey
		cfg.BaseURL = p.AIOpenAIBaseURL
	case "siliconflow":
		cfg.APIKey = p.AISiliconFlowAPIKey
		cfg.BaseURL = p.AISiliconFlowBaseURL
	case "ollama":
		cfg.BaseURL = p.AIOllamaBaseURL
	}

	return cfg
}

// Validate validates the configuration.
func (c *EmbeddingConfig) Validate() error {
	if c.Provider == "" {
		return errors.New("embedding provider is required")
	}
	if c.Model == "" {
		return errors.New("embedding model is required")
	}
	if c.Dimensions <= 0 {
		return errors.New("embedding dimensions must be positive")
	}
	if c.Provider != "ollama" && c.APIKey == "" {
		return errors.New("embedding API key is required")
	}
	return nil
}
