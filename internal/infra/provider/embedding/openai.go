package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"infospace/internal/resilience/circuitbreaker"
	"infospace/internal/resilience/retry"
)

var dimensionsByModel = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
}

// OpenAIProvider implements Provider against OpenAI's embeddings endpoint,
// wrapped in the same circuit-breaker/retry stack used by the chat provider.
type OpenAIProvider struct {
	client         *openai.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	timeout        time.Duration
}

func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{
		client:         openai.NewClient(apiKey),
		circuitBreaker: circuitbreaker.New(circuitbreaker.OpenAIAPIConfig()),
		retryConfig:    retry.AIAPIConfig(),
		timeout:        60 * time.Second,
	}
}

func (p *OpenAIProvider) Name() string         { return "openai" }
func (p *OpenAIProvider) DefaultModel() string { return "text-embedding-3-small" }

func (p *OpenAIProvider) Dimensions(model string) int {
	if d, ok := dimensionsByModel[model]; ok {
		return d
	}
	return dimensionsByModel[p.DefaultModel()]
}

func (p *OpenAIProvider) Embed(ctx context.Context, texts []string, model string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if model == "" {
		model = p.DefaultModel()
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var result [][]float32
	retryErr := retry.WithBackoff(ctx, p.retryConfig, func() error {
		cbResult, err := p.circuitBreaker.Execute(func() (interface{}, error) {
			return p.doEmbed(ctx, texts, model)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.WarnContext(ctx, "openai embedding circuit breaker open, request rejected",
					slog.String("state", p.circuitBreaker.State().String()))
				return fmt.Errorf("openai embeddings unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.([][]float32)
		return nil
	})
	if retryErr != nil {
		return nil, fmt.Errorf("openai embed failed after retries: %w", retryErr)
	}
	return result, nil
}

func (p *OpenAIProvider) doEmbed(ctx context.Context, texts []string, model string) ([][]float32, error) {
	start := time.Now()
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(model),
	})
	duration := time.Since(start)
	if err != nil {
		slog.ErrorContext(ctx, "embedding request failed",
			slog.Duration("duration", duration), slog.String("error", err.Error()))
		return nil, fmt.Errorf("openai embeddings api error: %w", err)
	}

	out := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		out[d.Index] = d.Embedding
	}

	slog.InfoContext(ctx, "embeddings generated",
		slog.Int("count", len(out)), slog.String("model", model), slog.Duration("duration", duration))
	return out, nil
}
