package ai

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// maxInputChars bounds the text sent to the embedding model. Exact token
// truncation is model-defined; this is a conservative character cap so a
// pathological input never reaches the provider untrimmed.
const maxInputChars = 8000

// EmbeddingService is the vector embedding service interface.
type EmbeddingService interface {
	// Embed generates a vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates vectors for multiple texts. The result is
	// order-preserving and has the same length as the input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector dimension.
	Dimensions() int

	// Ready reports whether the service has completed its readiness
	// probe. The transition is one-way: once ready, always ready.
	Ready() bool

	// Probe performs a one-time readiness check. On success the service
	// becomes ready permanently; on failure it stays not-ready and the
	// probe may be retried.
	Probe(ctx context.Context) error
}

type embeddingService struct {
	client     *openai.Client
	model      string
	dimensions int
	limiter    *rate.Limiter
	ready      atomic.Bool
}

// NewEmbeddingService creates a new EmbeddingService. The service starts
// in the not-ready state; call Probe to transition it to ready.
func NewEmbeddingService(cfg *EmbeddingConfig) (EmbeddingService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var clientConfig openai.ClientConfig
	switch cfg.Provider {
	case "openai", "siliconflow":
		// SiliconFlow is compatible with the OpenAI API.
		clientConfig = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
	case "ollama":
		clientConfig = openai.DefaultConfig("ollama")
		clientConfig.BaseURL = cfg.BaseURL + "/v1"
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &embeddingService{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		limiter:    limiter,
	}, nil
}

// Probe embeds a short text to verify the provider is reachable.
func (s *embeddingService) Probe(ctx context.Context) error {
	if s.ready.Load() {
		return nil
	}
	if _, err := s.embedBatch(ctx, []string{"ping"}); err != nil {
		return fmt.Errorf("embedding readiness probe failed: %w", err)
	}
	s.ready.Store(true)
	return nil
}

func (s *embeddingService) Ready() bool {
	return s.ready.Load()
}

func (s *embeddingService) Dimensions() int {
	return s.dimensions
}

func (s *embeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.embedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, errors.New("empty embedding result")
	}
	return vectors[0], nil
}

func (s *embeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return s.embedBatch(ctx, texts)
}

func (s *embeddingService) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.New("no texts provided for embedding")
	}

	input := make([]string, len(texts))
	for i, t := range texts {
		input[i] = truncateInput(t)
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req := openai.EmbeddingRequest{
		Input:      input,
		Model:      openai.EmbeddingModel(s.model),
		Dimensions: s.dimensions,
	}

	resp, err := s.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create embeddings failed: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response size mismatch: got %d, want %d", len(resp.Data), len(texts))
	}

	// The API reports an index per datum; place each vector at its input
	// position so batch order always matches input order.
	vectors := make([][]float32, len(texts))
	for i, data := range resp.Data {
		idx := data.Index
		if idx < 0 || idx >= len(vectors) {
			idx = i
		}
		vectors[idx] = data.Embedding
	}

	return vectors, nil
}

// disabledEmbeddingService stands in when AI is not configured. It is
// permanently not ready, so semantic search fails fast with a
// configuration error instead of reaching for a missing provider.
type disabledEmbeddingService struct{}

// NewDisabledEmbeddingService returns an embedding service that never
// becomes ready.
func NewDisabledEmbeddingService() EmbeddingService {
	return disabledEmbeddingService{}
}

func (disabledEmbeddingService) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("embedding is not configured")
}

func (disabledEmbeddingService) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("embedding is not configured")
}

func (disabledEmbeddingService) Dimensions() int { return 0 }

func (disabledEmbeddingService) Ready() bool { return false }

func (disabledEmbeddingService) Probe(context.Context) error {
	return errors.New("embedding is not configured")
}

// truncateInput caps input length at a rune boundary.
func truncateInput(text string) string {
	if len(text) <= maxInputChars {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxInputChars {
		return text
	}
	return string(runes[:maxInputChars])
}
