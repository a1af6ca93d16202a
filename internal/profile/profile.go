package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the finch server.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Addr is the binding address for the server
	Addr string
	// Port is the binding port for the server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where finch stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of the server
	Version string

	// AI configuration
	AIEnabled             bool    // FINCH_AI_ENABLED
	AIEmbeddingProvider   string  // FINCH_AI_EMBEDDING_PROVIDER (default: openai)
	AIEmbeddingModel      string  // FINCH_AI_EMBEDDING_MODEL (default: text-embedding-3-small)
	AIEmbeddingDimensions int     // FINCH_AI_EMBEDDING_DIMENSIONS (default: 384)
	AIEmbedRateLimit      float64 // FINCH_AI_EMBED_RATE_LIMIT requests/second (default: 5)
	AIOpenAIAPIKey        string  // FINCH_AI_OPENAI_API_KEY
	AIOpenAIBaseURL       string  // FINCH_AI_OPENAI_BASE_URL (default: https://api.openai.com/v1)
	AISiliconFlowAPIKey   string  // FINCH_AI_SILICONFLOW_API_KEY
	AISiliconFlowBaseURL  string  // FINCH_AI_SILICONFLOW_BASE_URL (default: https://api.siliconflow.cn/v1)
	AIOllamaBaseURL       string  // FINCH_AI_OLLAMA_BASE_URL (default: http://localhost:11434)

	// Retrieval configuration
	RetrievalDecayFactor float64 // FINCH_RETRIEVAL_DECAY_FACTOR per-day decay base (default: 0.98)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if AI is enabled and at least one API key or base URL is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.AIEnabled && (p.AIOpenAIAPIKey != "" || p.AISiliconFlowAPIKey != "" || p.AIOllamaBaseURL != "")
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from FINCH_* environment variables.
func (p *Profile) FromEnv() {
	getIntEnv := func(key string, defaultValue int) int {
		if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
			return v
		}
		return defaultValue
	}
	getFloatEnv := func(key string, defaultValue float64) float64 {
		if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && v > 0 {
			return v
		}
		return defaultValue
	}

	p.AIEnabled = os.Getenv("FINCH_AI_ENABLED") == "true"
	p.AIEmbeddingProvider = getEnvOrDefault("FINCH_AI_EMBEDDING_PROVIDER", "openai")
	p.AIEmbeddingModel = getEnvOrDefault("FINCH_AI_EMBEDDING_MODEL", "text-embedding-3-small")
	p.AIEmbeddingDimensions = getIntEnv("FINCH_AI_EMBEDDING_DIMENSIONS", 384)
	p.AIEmbedRateLimit = getFloatEnv("FINCH_AI_EMBED_RATE_LIMIT", 5)
	p.AIOpenAIAPIKey = os.Getenv("FINCH_AI_OPENAI_API_KEY")
	p.AIOpenAIBaseURL = getEnvOrDefault("FINCH_AI_OPENAI_BASE_URL", "https://api.openai.com/v1")
	p.AISiliconFlowAPIKey = os.Getenv("FINCH_AI_SILICONFLOW_API_KEY")
	p.AISiliconFlowBaseURL = getEnvOrDefault("FINCH_AI_SILICONFLOW_BASE_URL", "https://api.siliconflow.cn/v1")
	p.AIOllamaBaseURL = getEnvOrDefault("FINCH_AI_OLLAMA_BASE_URL", "http://localhost:11434")

	p.RetrievalDecayFactor = getFloatEnv("FINCH_RETRIEVAL_DECAY_FACTOR", 0.98)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		p.Driver = "sqlite"
	}

	if p.RetrievalDecayFactor <= 0 || p.RetrievalDecayFactor > 1 {
		p.RetrievalDecayFactor = 0.98
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("finch_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}
