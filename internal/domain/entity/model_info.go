package entity

// ModelInfo describes a language model's identity and capabilities. Capability
// flags are the single source of truth for what a provider's `generate` call
// is permitted to do with a given model name (spec §4.6, §9 design note:
// "no runtime hasattr checks").
type ModelInfo struct {
	Name                    string
	Provider                string
	SupportsStructuredOutput bool
	SupportsTools           bool
	SupportsStreaming       bool
	SupportsThinking        bool
	SupportsMultimodal      bool
	MaxTokens               int
	ContextLength           int
	Description             string
}

// UnsupportedCapabilityError reports a `generate` request for a capability
// the target model does not advertise.
type UnsupportedCapabilityError struct {
	Model      string
	Capability string
}

func (e *UnsupportedCapabilityError) Error() string {
	return "model " + e.Model + " does not support " + e.Capability
}
