package harmony

import (
	"maps"
	"slices"

	"github.com/goccy/go-json"
)

// ReasoningEffort is the reasoning level announced in the system preamble.
type ReasoningEffort string

const (
	ReasoningLow    ReasoningEffort = "low"
	ReasoningMedium ReasoningEffort = "medium"
	ReasoningHigh   ReasoningEffort = "high"
)

// ChannelConfig lists the channels the model may use.
type ChannelConfig struct {
	ValidChannels   []string `json:"valid_channels"`
	ChannelRequired bool     `json:"channel_required"`
}

// RequireChannels returns a config where every message must name one of channels.
func RequireChannels(channels ...string) *ChannelConfig {
	return &ChannelConfig{ValidChannels: channels, ChannelRequired: true}
}

// ToolDescription is one callable tool. Parameters is a JSON schema.
type ToolDescription struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ToolNamespaceConfig groups tools under a namespace such as "functions" or "browser".
type ToolNamespaceConfig struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Tools       []ToolDescription `json:"tools"`
}

const (
	DefaultModelIdentity   = "You are ChatGPT, a large language model trained by OpenAI."
	DefaultKnowledgeCutoff = "2024-06"

	ChannelAnalysis   = "analysis"
	ChannelCommentary = "commentary"
	ChannelFinal      = "final"

	FunctionsNamespace = "functions"
)

// SystemContent is the structured body of the system message. Empty fields
// are omitted from the rendered preamble.
type SystemContent struct {
	ModelIdentity         string
	ReasoningEffort       ReasoningEffort
	Tools                 map[string]ToolNamespaceConfig
	ConversationStartDate string
	KnowledgeCutoff       string
	ChannelConfig         *ChannelConfig
}

func (SystemContent) contentType() string { return contentTypeSystem }

// NewSystemContent returns the default system preamble.
func NewSystemContent() SystemContent {
	return SystemContent{
		ModelIdentity:   DefaultModelIdentity,
		ReasoningEffort: ReasoningMedium,
		KnowledgeCutoff: DefaultKnowledgeCutoff,
		ChannelConfig:   RequireChannels(ChannelAnalysis, ChannelCommentary, ChannelFinal),
	}
}

func (s SystemContent) WithModelIdentity(identity string) SystemContent {
	s.ModelIdentity = identity
	return s
}

func (s SystemContent) WithReasoningEffort(effort ReasoningEffort) SystemContent {
	s.ReasoningEffort = effort
	return s
}

func (s SystemContent) WithConversationStartDate(date string) SystemContent {
	s.ConversationStartDate = date
	return s
}

func (s SystemContent) WithKnowledgeCutoff(cutoff string) SystemContent {
	s.KnowledgeCutoff = cutoff
	return s
}

func (s SystemContent) WithChannelConfig(cfg *ChannelConfig) SystemContent {
	s.ChannelConfig = cfg
	return s
}

// WithTools returns a copy with ns registered under its name.
func (s SystemContent) WithTools(ns ToolNamespaceConfig) SystemContent {
	s.Tools = withNamespace(s.Tools, ns)
	return s
}

func (s SystemContent) WithBrowserTool() SystemContent {
	return s.WithTools(BrowserNamespace())
}

func (s SystemContent) WithPythonTool() SystemContent {
	return s.WithTools(PythonNamespace())
}

// DeveloperContent is the structured body of the developer message.
type DeveloperContent struct {
	Instructions string
	Tools        map[string]ToolNamespaceConfig
}

func (DeveloperContent) contentType() string { return contentTypeDeveloper }

func NewDeveloperContent() DeveloperContent {
	return DeveloperContent{}
}

func (d DeveloperContent) WithInstructions(instructions string) DeveloperContent {
	d.Instructions = instructions
	return d
}

func (d DeveloperContent) WithTools(ns ToolNamespaceConfig) DeveloperContent {
	d.Tools = withNamespace(d.Tools, ns)
	return d
}

// WithFunctionTools registers tools under the "functions" namespace.
func (d DeveloperContent) WithFunctionTools(tools ...ToolDescription) DeveloperContent {
	return d.WithTools(ToolNamespaceConfig{Name: FunctionsNamespace, Tools: tools})
}

func withNamespace(in map[string]ToolNamespaceConfig, ns ToolNamespaceConfig) map[string]ToolNamespaceConfig {
	out := make(map[string]ToolNamespaceConfig, len(in)+1)
	maps.Copy(out, in)
	out[ns.Name] = ns
	return out
}

func sortedNamespaces(tools map[string]ToolNamespaceConfig) []ToolNamespaceConfig {
	names := slices.Sorted(maps.Keys(tools))
	out := make([]ToolNamespaceConfig, 0, len(names))
	for _, name := range names {
		out = append(out, tools[name])
	}
	return out
}
