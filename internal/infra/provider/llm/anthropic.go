package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"infospace/internal/domain/entity"
	"infospace/internal/resilience/circuitbreaker"
	"infospace/internal/resilience/retry"
)

// extractToolName is the synthetic tool Anthropic models are handed when a
// caller asks for structured output. Anthropic has no native response_format
// parameter, so structured output is emulated by forcing a single tool call
// whose input schema is the caller's requested schema.
const extractToolName = "extract_structured_output"

// anthropicModels is the static capability table for the Claude models this
// provider discovers. Anthropic has no models-list endpoint that reports
// capability flags, so DiscoverModels returns this table rather than calling
// out to the API.
var anthropicModels = []entity.ModelInfo{
	{
		Name: string(anthropic.ModelClaudeSonnet4_5_20250929), Provider: "anthropic",
		SupportsStructuredOutput: true, SupportsTools: true, SupportsStreaming: true,
		SupportsThinking: true, SupportsMultimodal: true, MaxTokens: 8192, ContextLength: 200000,
		Description: "Claude Sonnet 4.5, balanced reasoning and speed",
	},
	{
		Name: string(anthropic.ModelClaudeOpus4_1_20250805), Provider: "anthropic",
		SupportsStructuredOutput: true, SupportsTools: true, SupportsStreaming: true,
		SupportsThinking: true, SupportsMultimodal: true, MaxTokens: 8192, ContextLength: 200000,
		Description: "Claude Opus 4.1, highest-capability model",
	},
	{
		Name: string(anthropic.ModelClaudeHaiku4_5_20251001), Provider: "anthropic",
		SupportsStructuredOutput: true, SupportsTools: true, SupportsStreaming: true,
		SupportsThinking: false, SupportsMultimodal: true, MaxTokens: 8192, ContextLength: 200000,
		Description: "Claude Haiku 4.5, fastest and cheapest",
	},
}

// AnthropicConfig mirrors ClaudeConfig's loading shape but covers the fuller
// provider surface (tool loop, thinking) rather than a single summarization
// call.
type AnthropicConfig struct {
	DefaultModel string
	MaxTokens    int
	Timeout      time.Duration
	ThinkingBudgetTokens int
}

// LoadAnthropicConfig returns provider defaults. Per-request overrides
// (model, max tokens) come from GenerationRequest, not environment variables.
func LoadAnthropicConfig() AnthropicConfig {
	return AnthropicConfig{
		DefaultModel:         string(anthropic.ModelClaudeSonnet4_5_20250929),
		MaxTokens:            4096,
		Timeout:              120 * time.Second,
		ThinkingBudgetTokens: 2048,
	}
}

// AnthropicProvider implements Provider against the Anthropic Messages API,
// including a bounded tool-use loop and a synthetic structured-output tool.
type AnthropicProvider struct {
	client         anthropic.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	config         AnthropicConfig

	mu     sync.RWMutex
	models map[string]entity.ModelInfo
}

// NewAnthropicProvider constructs a provider wired with the same
// reliability stack (circuit breaker + backoff retry) used for the existing
// Claude summarization client.
func NewAnthropicProvider(apiKey string) *AnthropicProvider {
	config := LoadAnthropicConfig()

	models := make(map[string]entity.ModelInfo, len(anthropicModels))
	for _, m := range anthropicModels {
		models[m.Name] = m
	}

	slog.Info("initialized anthropic provider",
		slog.String("default_model", config.DefaultModel),
		slog.Int("known_models", len(models)))

	return &AnthropicProvider{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		circuitBreaker: circuitbreaker.New(circuitbreaker.ClaudeAPIConfig()),
		retryConfig:    retry.AIAPIConfig(),
		config:         config,
		models:         models,
	}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

// DiscoverModels returns the provider's static capability table. Anthropic
// publishes no endpoint describing tool/thinking/streaming support per
// model, so this is sourced from anthropicModels rather than an API call.
func (p *AnthropicProvider) DiscoverModels(ctx context.Context) ([]entity.ModelInfo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]entity.ModelInfo, 0, len(p.models))
	for _, m := range p.models {
		out = append(out, m)
	}
	return out, nil
}

func (p *AnthropicProvider) GetModelInfo(modelName string) (*entity.ModelInfo, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	m, ok := p.models[modelName]
	if !ok {
		return nil, false
	}
	return &m, true
}

func (p *AnthropicProvider) Generate(ctx context.Context, req GenerationRequest) (*GenerationResponse, error) {
	if req.Stream {
		return nil, ErrStreamingNotSupported
	}

	model := req.ModelName
	if model == "" {
		model = p.config.DefaultModel
	}
	info, known := p.GetModelInfo(model)
	if known && len(req.Tools) > 0 && !info.SupportsTools {
		return nil, ErrToolsNotSupported
	}
	if known && req.ThinkingEnabled && !info.SupportsThinking {
		req.ThinkingEnabled = false
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	requestID := uuid.New().String()
	var result *GenerationResponse

	retryErr := retry.WithBackoff(ctx, p.retryConfig, func() error {
		cbResult, err := p.circuitBreaker.Execute(func() (interface{}, error) {
			return p.doGenerate(ctx, requestID, model, req)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.WarnContext(ctx, "anthropic circuit breaker open, request rejected",
					slog.String("request_id", requestID),
					slog.String("state", p.circuitBreaker.State().String()))
				return fmt.Errorf("anthropic api unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(*GenerationResponse)
		return nil
	})
	if retryErr != nil {
		return nil, fmt.Errorf("anthropic generate failed after retries: %w", retryErr)
	}
	return result, nil
}

func (p *AnthropicProvider) GenerateStream(ctx context.Context, req GenerationRequest) (<-chan StreamChunk, error) {
	model := req.ModelName
	if model == "" {
		model = p.config.DefaultModel
	}
	if info, known := p.GetModelInfo(model); known && !info.SupportsStreaming {
		return nil, ErrStreamingNotSupported
	}

	params := p.buildParams(model, req, nil)
	stream := p.client.Messages.NewStreaming(ctx, params)

	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		acc := anthropic.Message{}
		for stream.Next() {
			event := stream.Current()
			if err := acc.Accumulate(event); err != nil {
				out <- StreamChunk{FinishReason: "error", Done: true}
				return
			}
			if delta, ok := event.Delta.AsAny().(anthropic.TextDelta); ok {
				out <- StreamChunk{Content: delta.Text}
			}
		}
		out <- StreamChunk{Done: true, FinishReason: string(acc.StopReason)}
	}()
	return out, nil
}

// doGenerate runs the bounded tool-use loop (spec §4.6): each iteration
// sends the conversation so far, and if the model responds with tool_use
// blocks, executes them via req.ToolExecutor and feeds the results back as
// the next user turn. Structured-output requests are served by injecting a
// synthetic tool the model is forced to call, since Anthropic has no native
// response_format.
func (p *AnthropicProvider) doGenerate(ctx context.Context, requestID, model string, req GenerationRequest) (*GenerationResponse, error) {
	tools := req.Tools
	forceExtract := false
	if req.ResponseFormat != nil {
		tools = append(append([]ToolDefinition{}, tools...), ToolDefinition{
			Name:        extractToolName,
			Description: "Emit the final answer matching the required schema.",
			Parameters:  req.ResponseFormat,
		})
		forceExtract = true
	}

	messages := toAnthropicMessages(req.Messages)
	resp := &GenerationResponse{ModelUsed: model, Usage: map[string]int{}}

	for iteration := 0; iteration < maxToolIterations; iteration++ {
		params := p.buildParams(model, req, tools)
		params.Messages = messages
		if forceExtract && iteration == 0 {
			params.ToolChoice = anthropic.ToolChoiceUnionParam{
				OfTool: &anthropic.ToolChoiceToolParam{Name: extractToolName},
			}
		}

		start := time.Now()
		message, err := p.client.Messages.New(ctx, params)
		duration := time.Since(start)
		if err != nil {
			slog.ErrorContext(ctx, "anthropic generate failed",
				slog.String("request_id", requestID), slog.Duration("duration", duration),
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("anthropic api error: %w", err)
		}

		resp.Usage["input_tokens"] += int(message.Usage.InputTokens)
		resp.Usage["output_tokens"] += int(message.Usage.OutputTokens)

		var thinkingBlocks []string
		var toolUses []anthropic.ToolUseBlock
		var textParts string

		for _, block := range message.Content {
			switch b := block.AsAny().(type) {
			case anthropic.TextBlock:
				textParts += b.Text
			case anthropic.ThinkingBlock:
				thinkingBlocks = append(thinkingBlocks, b.Thinking)
			case anthropic.ToolUseBlock:
				toolUses = append(toolUses, b)
			}
		}

		if len(toolUses) == 0 {
			resp.Content = textParts
			resp.FinishReason = string(message.StopReason)
			return resp, nil
		}

		messages = append(messages, message.ToParam())
		resultBlocks := make([]anthropic.ContentBlockParamUnion, 0, len(toolUses))

		for _, tu := range toolUses {
			var args entity.Metadata
			_ = json.Unmarshal(tu.Input, &args)
			call := ToolCall{ID: tu.ID, Name: tu.Name, Arguments: args}
			resp.ToolCalls = append(resp.ToolCalls, call)
			resp.ThinkingBefore = append(resp.ThinkingBefore, joinThinking(thinkingBlocks))

			if tu.Name == extractToolName {
				payload, _ := json.Marshal(args)
				resp.Content = string(payload)
				resp.FinishReason = "structured_output"
				return resp, nil
			}

			if req.ToolExecutor == nil {
				return nil, fmt.Errorf("anthropic: model requested tool %q but no executor was provided", tu.Name)
			}

			result, execErr := req.ToolExecutor(ctx, call)
			exec := ToolExecution{Call: call, Result: result}
			if execErr != nil {
				exec.Err = execErr.Error()
			}
			resp.ToolExecutions = append(resp.ToolExecutions, exec)
			resp.ThinkingAfter = append(resp.ThinkingAfter, joinThinking(thinkingBlocks))

			resultJSON, _ := json.Marshal(result)
			isError := execErr != nil
			content := string(resultJSON)
			if isError {
				content = execErr.Error()
			}
			resultBlocks = append(resultBlocks, anthropic.NewToolResultBlock(tu.ID, content, isError))
		}

		messages = append(messages, anthropic.NewUserMessage(resultBlocks...))
	}

	resp.FinishReason = "tool_iteration_limit"
	return resp, nil
}

func (p *AnthropicProvider) buildParams(model string, req GenerationRequest, tools []ToolDefinition) anthropic.MessageNewParams {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
	}

	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			params.System = append(params.System, anthropic.NewTextBlock(m.Content))
		}
	}

	if len(tools) > 0 {
		params.Tools = make([]anthropic.ToolUnionParam, 0, len(tools))
		for _, t := range tools {
			params.Tools = append(params.Tools, anthropic.ToolUnionParam{
				OfTool: &anthropic.ToolParam{
					Name:        t.Name,
					Description: anthropic.String(t.Description),
					InputSchema: toInputSchema(t.Parameters),
				},
			})
		}
	}

	if req.ThinkingEnabled {
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(int64(p.config.ThinkingBudgetTokens))
	}

	return params
}

// toInputSchema converts a caller-supplied JSON schema (as a generic map)
// into the SDK's typed tool-input-schema param. Only the two fields
// Anthropic's API actually inspects, "properties" and "required", are
// carried over; everything else in the caller's schema is advisory only.
func toInputSchema(schema entity.Metadata) anthropic.ToolInputSchemaParam {
	out := anthropic.ToolInputSchemaParam{}
	if schema == nil {
		return out
	}
	if props, ok := schema["properties"]; ok {
		out.Properties = props
	}
	if required, ok := schema["required"].([]interface{}); ok {
		for _, r := range required {
			if s, ok := r.(string); ok {
				out.Required = append(out.Required, s)
			}
		}
	}
	return out
}

func toAnthropicMessages(msgs []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		case RoleTool:
			out = append(out, anthropic.NewUserMessage(anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false)))
		}
	}
	return out
}

func joinThinking(blocks []string) string {
	out := ""
	for i, b := range blocks {
		if i > 0 {
			out += "\n"
		}
		out += b
	}
	return out
}
