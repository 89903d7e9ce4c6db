package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"infospace/internal/domain/entity"
	"infospace/internal/resilience/circuitbreaker"
	"infospace/internal/resilience/retry"
)

// openaiModels is the static capability table for models this provider
// discovers. The OpenAI models-list endpoint returns identifiers but not
// per-model capability flags, so the table is hand-maintained the same way
// anthropicModels is.
var openaiModels = []entity.ModelInfo{
	{
		Name: "gpt-4o", Provider: "openai",
		SupportsStructuredOutput: true, SupportsTools: true, SupportsStreaming: true,
		SupportsThinking: false, SupportsMultimodal: true, MaxTokens: 16384, ContextLength: 128000,
		Description: "GPT-4o, multimodal flagship model",
	},
	{
		Name: "gpt-4o-mini", Provider: "openai",
		SupportsStructuredOutput: true, SupportsTools: true, SupportsStreaming: true,
		SupportsThinking: false, SupportsMultimodal: true, MaxTokens: 16384, ContextLength: 128000,
		Description: "GPT-4o mini, low-cost general-purpose model",
	},
	{
		Name: "o1", Provider: "openai",
		SupportsStructuredOutput: true, SupportsTools: false, SupportsStreaming: false,
		SupportsThinking: true, SupportsMultimodal: false, MaxTokens: 32768, ContextLength: 200000,
		Description: "o1 reasoning model, no native tool use",
	},
}

// OpenAIProviderConfig holds provider-level defaults.
type OpenAIProviderConfig struct {
	DefaultModel string
	MaxTokens    int
	Timeout      time.Duration
}

func LoadOpenAIProviderConfig() OpenAIProviderConfig {
	return OpenAIProviderConfig{
		DefaultModel: "gpt-4o",
		MaxTokens:    4096,
		Timeout:      120 * time.Second,
	}
}

// OpenAIProvider implements Provider against the Chat Completions API using
// its native response_format and tool-calling support, so unlike the
// Anthropic provider it needs no synthetic extract tool.
type OpenAIProvider struct {
	client         *openai.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	config         OpenAIProviderConfig

	mu     sync.RWMutex
	models map[string]entity.ModelInfo
}

func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	config := LoadOpenAIProviderConfig()

	models := make(map[string]entity.ModelInfo, len(openaiModels))
	for _, m := range openaiModels {
		models[m.Name] = m
	}

	slog.Info("initialized openai provider",
		slog.String("default_model", config.DefaultModel),
		slog.Int("known_models", len(models)))

	return &OpenAIProvider{
		client:         openai.NewClient(apiKey),
		circuitBreaker: circuitbreaker.New(circuitbreaker.OpenAIAPIConfig()),
		retryConfig:    retry.AIAPIConfig(),
		config:         config,
		models:         models,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) DiscoverModels(ctx context.Context) ([]entity.ModelInfo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]entity.ModelInfo, 0, len(p.models))
	for _, m := range p.models {
		out = append(out, m)
	}
	return out, nil
}

func (p *OpenAIProvider) GetModelInfo(modelName string) (*entity.ModelInfo, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	m, ok := p.models[modelName]
	if !ok {
		return nil, false
	}
	return &m, true
}

func (p *OpenAIProvider) Generate(ctx context.Context, req GenerationRequest) (*GenerationResponse, error) {
	if req.Stream {
		return nil, ErrStreamingNotSupported
	}

	model := req.ModelName
	if model == "" {
		model = p.config.DefaultModel
	}
	if info, known := p.GetModelInfo(model); known {
		if len(req.Tools) > 0 && !info.SupportsTools {
			return nil, ErrToolsNotSupported
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	var result *GenerationResponse
	retryErr := retry.WithBackoff(ctx, p.retryConfig, func() error {
		cbResult, err := p.circuitBreaker.Execute(func() (interface{}, error) {
			return p.doGenerate(ctx, model, req)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.WarnContext(ctx, "openai circuit breaker open, request rejected",
					slog.String("state", p.circuitBreaker.State().String()))
				return fmt.Errorf("openai api unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(*GenerationResponse)
		return nil
	})
	if retryErr != nil {
		return nil, fmt.Errorf("openai generate failed after retries: %w", retryErr)
	}
	return result, nil
}

func (p *OpenAIProvider) GenerateStream(ctx context.Context, req GenerationRequest) (<-chan StreamChunk, error) {
	model := req.ModelName
	if model == "" {
		model = p.config.DefaultModel
	}
	if info, known := p.GetModelInfo(model); known && !info.SupportsStreaming {
		return nil, ErrStreamingNotSupported
	}

	params := p.buildRequest(model, req)
	params.Stream = true

	stream, err := p.client.CreateChatCompletionStream(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}

	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		defer stream.Close()
		for {
			chunk, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				out <- StreamChunk{Done: true}
				return
			}
			if err != nil {
				out <- StreamChunk{Done: true, FinishReason: "error"}
				return
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			choice := chunk.Choices[0]
			out <- StreamChunk{
				Content:      choice.Delta.Content,
				FinishReason: string(choice.FinishReason),
				Done:         choice.FinishReason != "",
			}
		}
	}()
	return out, nil
}

// doGenerate runs the tool-use loop. OpenAI's API natively supports both
// structured output (response_format.json_schema) and parallel tool calls,
// so this requires no synthetic tool the way the Anthropic provider does.
func (p *OpenAIProvider) doGenerate(ctx context.Context, model string, req GenerationRequest) (*GenerationResponse, error) {
	params := p.buildRequest(model, req)
	resp := &GenerationResponse{ModelUsed: model, Usage: map[string]int{}}

	for iteration := 0; iteration < maxToolIterations; iteration++ {
		start := time.Now()
		completion, err := p.client.CreateChatCompletion(ctx, params)
		duration := time.Since(start)
		if err != nil {
			slog.ErrorContext(ctx, "openai generate failed",
				slog.Duration("duration", duration), slog.String("error", err.Error()))
			return nil, fmt.Errorf("openai api error: %w", err)
		}
		if len(completion.Choices) == 0 {
			return nil, fmt.Errorf("openai api returned no choices")
		}

		resp.Usage["input_tokens"] += completion.Usage.PromptTokens
		resp.Usage["output_tokens"] += completion.Usage.CompletionTokens

		choice := completion.Choices[0]
		msg := choice.Message

		if len(msg.ToolCalls) == 0 {
			resp.Content = msg.Content
			resp.FinishReason = string(choice.FinishReason)
			return resp, nil
		}

		params.Messages = append(params.Messages, msg)

		for _, tc := range msg.ToolCalls {
			var args entity.Metadata
			_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
			call := ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: args}
			resp.ToolCalls = append(resp.ToolCalls, call)

			if req.ToolExecutor == nil {
				return nil, fmt.Errorf("openai: model requested tool %q but no executor was provided", tc.Function.Name)
			}

			result, execErr := req.ToolExecutor(ctx, call)
			exec := ToolExecution{Call: call, Result: result}
			content := ""
			if execErr != nil {
				exec.Err = execErr.Error()
				content = execErr.Error()
			} else {
				payload, _ := json.Marshal(result)
				content = string(payload)
			}
			resp.ToolExecutions = append(resp.ToolExecutions, exec)

			params.Messages = append(params.Messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    content,
				ToolCallID: tc.ID,
			})
		}
	}

	resp.FinishReason = "tool_iteration_limit"
	return resp, nil
}

func (p *OpenAIProvider) buildRequest(model string, req GenerationRequest) openai.ChatCompletionRequest {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case RoleSystem:
			role = openai.ChatMessageRoleSystem
		case RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		case RoleTool:
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    m.Content,
				ToolCallID: m.ToolCallID,
			})
			continue
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	params := openai.ChatCompletionRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: maxTokens,
	}

	if req.ResponseFormat != nil {
		schemaBytes, _ := json.Marshal(req.ResponseFormat)
		params.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "structured_output",
				Schema: json.RawMessage(schemaBytes),
				Strict: true,
			},
		}
	}

	if len(req.Tools) > 0 {
		params.Tools = make([]openai.Tool, 0, len(req.Tools))
		for _, t := range req.Tools {
			params.Tools = append(params.Tools, openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.Parameters,
				},
			})
		}
	}

	return params
}
