// Package llm defines the unified language-model provider contract (spec
// §4.6) and its Anthropic/OpenAI implementations. Every provider call is
// treated as a structured API request regardless of whether the caller
// wants a chat reply, a classification, or a tool-augmented agent turn: the
// differences live entirely in the request's response_format/tools fields,
// not in separate provider methods.
package llm

import (
	"context"
	"errors"

	"infospace/internal/domain/entity"
)

// Role identifies the speaker of a Message in a generation request.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of the conversation passed to Generate.
type Message struct {
	Role    Role
	Content string
	// ToolCallID links a RoleTool message back to the ToolCall that produced
	// it, mirroring Anthropic/OpenAI's tool_result wire shape.
	ToolCallID string
}

// ToolParameter describes one parameter of a ToolDefinition's JSON schema.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  entity.Metadata // a JSON schema object
}

// ToolCall is a single function invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments entity.Metadata
}

// ToolExecution records one iteration of the tool-use loop: the call the
// model made and the result the executor returned for it (spec §4.6).
type ToolExecution struct {
	Call   ToolCall
	Result entity.Metadata
	Err    string
}

// ToolExecutor runs a single tool call and returns its result. Providers
// invoke it once per ToolCall the model emits, feeding the result back as
// the next turn.
type ToolExecutor func(ctx context.Context, call ToolCall) (entity.Metadata, error)

// GenerationRequest bundles every optional knob of a `generate` call so
// implementations don't grow ad-hoc parameter lists over time.
type GenerationRequest struct {
	Messages        []Message
	ModelName       string
	ResponseFormat  entity.Metadata // a JSON schema; triggers structured output
	Tools           []ToolDefinition
	Stream          bool
	ThinkingEnabled bool
	ToolExecutor    ToolExecutor
	MaxTokens       int
}

// GenerationResponse is the standardized result of a Generate call,
// regardless of which provider served it (spec §4.6).
type GenerationResponse struct {
	Content         string
	ModelUsed       string
	Usage           map[string]int
	ToolCalls       []ToolCall
	ToolExecutions  []ToolExecution
	ThinkingBefore  []string // thinking blocks preceding each ToolExecution, indexed together
	ThinkingAfter   []string
	FinishReason    string
}

// StreamChunk is one increment of a streaming Generate call. Content holds
// the newly produced text delta only (not the accumulated total), matching
// the provider SDKs' own streaming event shape.
type StreamChunk struct {
	Content      string
	FinishReason string
	Done         bool
}

// ErrStreamingNotSupported is returned by Generate when Stream is requested
// of a model whose ModelInfo.SupportsStreaming is false.
var ErrStreamingNotSupported = errors.New("llm: model does not support streaming")

// ErrToolsNotSupported is returned when Tools are requested of a model
// without ModelInfo.SupportsTools.
var ErrToolsNotSupported = errors.New("llm: model does not support tool use")

// maxToolIterations bounds the tool-use loop (spec §4.6): after this many
// round-trips without a final answer, Generate returns whatever content the
// model has produced so far with FinishReason "tool_iteration_limit".
const maxToolIterations = 10

// Provider is the unified interface every language-model integration
// implements (spec §4.6, §4.7).
type Provider interface {
	Name() string
	DiscoverModels(ctx context.Context) ([]entity.ModelInfo, error)
	GetModelInfo(modelName string) (*entity.ModelInfo, bool)
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResponse, error)
	// GenerateStream is used when req.Stream is true; chunks are delivered
	// on the returned channel, which is closed when generation finishes or
	// ctx is cancelled.
	GenerateStream(ctx context.Context, req GenerationRequest) (<-chan StreamChunk, error)
}
