package api

import (
	"github.com/sashabaranov/go-openai"

	"github.com/samcharles93/harmony/pkg/harmony"
)

type ErrorResponse struct {
	Error ResponseError `json:"error"`
}

type ResponseError struct {
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}

// RenderRequest is the body of the conversation render endpoints.
type RenderRequest struct {
	Conversation harmony.Conversation              `json:"conversation"`
	Config       *harmony.RenderConversationConfig `json:"config,omitempty"`
	// NextTurnRole is used by /v1/render/completion only; it defaults to
	// assistant.
	NextTurnRole harmony.Role `json:"next_turn_role,omitempty"`
	// IncludeText adds the decoded token text to the response.
	IncludeText bool `json:"include_text,omitempty"`
}

type RenderResponse struct {
	Tokens []uint32 `json:"tokens"`
	Count  int      `json:"count"`
	Text   string   `json:"text,omitempty"`
}

type RenderMessageRequest struct {
	Message     harmony.Message        `json:"message"`
	Options     *harmony.RenderOptions `json:"options,omitempty"`
	IncludeText bool                   `json:"include_text,omitempty"`
}

type RenderMode string

const (
	RenderModeConversation RenderMode = "conversation"
	RenderModeCompletion   RenderMode = "completion"
	RenderModeTraining     RenderMode = "training"
)

type BatchRenderRequest struct {
	Mode          RenderMode                        `json:"mode,omitempty"`
	NextTurnRole  harmony.Role                      `json:"next_turn_role,omitempty"`
	Config        *harmony.RenderConversationConfig `json:"config,omitempty"`
	Conversations []harmony.Conversation            `json:"conversations"`
}

type BatchRenderResponse struct {
	Object  string           `json:"object"`
	Results []RenderResponse `json:"results"`
}

// ChatRenderResponse is the completion prompt for an OpenAI chat request
// with the tokens that end the sampled turn.
type ChatRenderResponse struct {
	Tokens     []uint32 `json:"tokens"`
	Count      int      `json:"count"`
	StopTokens []uint32 `json:"stop_tokens"`
	Text       string   `json:"text,omitempty"`
}

type ParseRequest struct {
	Tokens []uint32      `json:"tokens"`
	Role   *harmony.Role `json:"role,omitempty"`
}

type ParseResponse struct {
	Messages []harmony.Message `json:"messages"`
}

type OpenAIParseResponse struct {
	Object  string                        `json:"object"`
	Choices []openai.ChatCompletionChoice `json:"choices"`
}

type EncodeRequest struct {
	Text string `json:"text"`
	// AllowedSpecial lists special token texts encoded as control tokens.
	// "all" allows every special token.
	AllowedSpecial []string `json:"allowed_special,omitempty"`
}

type TokensResponse struct {
	Tokens []uint32 `json:"tokens"`
	Count  int      `json:"count"`
}

type DecodeRequest struct {
	Tokens []uint32 `json:"tokens"`
}

type DecodeResponse struct {
	Text string `json:"text"`
}

type SpecialToken struct {
	Text string `json:"text"`
	ID   uint32 `json:"id"`
}

type SpecialTokensResponse struct {
	Object string         `json:"object"`
	Data   []SpecialToken `json:"data"`
}

type StopTokensResponse struct {
	Stop             []uint32 `json:"stop"`
	AssistantActions []uint32 `json:"assistant_actions"`
}
