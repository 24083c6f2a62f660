// Package openaiconv converts between OpenAI chat completion payloads and
// harmony conversations.
package openaiconv

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/sashabaranov/go-openai"

	"github.com/samcharles93/harmony/pkg/harmony"
)

// JSONContentType is the content type of function-call arguments.
const JSONContentType = "<|constrain|>json"

var (
	ErrUnsupportedRole    = errors.New("unsupported message role")
	ErrUnsupportedContent = errors.New("unsupported message content")
	ErrUnknownToolCall    = errors.New("tool message does not match a tool call")
)

type options struct {
	system harmony.SystemContent
}

type Option func(*options)

// WithSystemContent replaces the default system preamble. The request's
// reasoning effort still overrides the preamble's.
func WithSystemContent(s harmony.SystemContent) Option {
	return func(o *options) {
		o.system = s
	}
}

// ToConversation builds a harmony conversation from a chat request.
//
// System and developer messages become the developer instructions and the
// request's function tools are declared in the developer message. Assistant
// reasoning goes to the analysis channel, tool calls to commentary messages
// addressed to functions.<name>, and tool results are authored by the called
// function.
func ToConversation(req openai.ChatCompletionRequest, opts ...Option) (harmony.Conversation, error) {
	o := options{system: harmony.NewSystemContent()}
	for _, opt := range opts {
		opt(&o)
	}

	system := o.system
	if req.ReasoningEffort != "" {
		effort, err := parseReasoningEffort(req.ReasoningEffort)
		if err != nil {
			return harmony.Conversation{}, err
		}
		system = system.WithReasoningEffort(effort)
	}

	tools, err := ToolDescriptions(req.Tools)
	if err != nil {
		return harmony.Conversation{}, err
	}

	var (
		instructions []string
		turns        []harmony.Message
		callNames    = make(map[string]string)
	)
	for i, m := range req.Messages {
		text, err := messageText(m)
		if err != nil {
			return harmony.Conversation{}, fmt.Errorf("message %d: %w", i, err)
		}
		switch m.Role {
		case openai.ChatMessageRoleSystem, openai.ChatMessageRoleDeveloper:
			if text != "" {
				instructions = append(instructions, text)
			}
		case openai.ChatMessageRoleUser:
			msg := harmony.NewTextMessage(harmony.RoleUser, text)
			if m.Name != "" {
				msg = msg.WithAuthorName(m.Name)
			}
			turns = append(turns, msg)
		case openai.ChatMessageRoleAssistant:
			turns = append(turns, assistantMessages(m, text, callNames)...)
		case openai.ChatMessageRoleTool, openai.ChatMessageRoleFunction:
			name := m.Name
			if n, ok := callNames[m.ToolCallID]; ok {
				name = n
			}
			if name == "" {
				return harmony.Conversation{}, fmt.Errorf("message %d: %w: %q", i, ErrUnknownToolCall, m.ToolCallID)
			}
			turns = append(turns, harmony.NewToolMessage(recipientFor(name), text).WithChannel(harmony.ChannelCommentary))
		default:
			return harmony.Conversation{}, fmt.Errorf("message %d: %w: %q", i, ErrUnsupportedRole, m.Role)
		}
	}

	msgs := make([]harmony.Message, 0, len(turns)+2)
	msgs = append(msgs, harmony.NewMessage(harmony.RoleSystem, system))
	if len(instructions) > 0 || len(tools) > 0 {
		dev := harmony.NewDeveloperContent().WithInstructions(strings.Join(instructions, "\n\n"))
		if len(tools) > 0 {
			dev = dev.WithFunctionTools(tools...)
		}
		msgs = append(msgs, harmony.NewMessage(harmony.RoleDeveloper, dev))
	}
	msgs = append(msgs, turns...)
	return harmony.NewConversation(msgs...), nil
}

func assistantMessages(m openai.ChatCompletionMessage, text string, callNames map[string]string) []harmony.Message {
	var out []harmony.Message
	if m.ReasoningContent != "" {
		out = append(out, harmony.NewTextMessage(harmony.RoleAssistant, m.ReasoningContent).
			WithChannel(harmony.ChannelAnalysis))
	}
	if text != "" {
		channel := harmony.ChannelFinal
		if len(m.ToolCalls) > 0 {
			channel = harmony.ChannelCommentary
		}
		out = append(out, harmony.NewTextMessage(harmony.RoleAssistant, text).WithChannel(channel))
	}
	for _, tc := range m.ToolCalls {
		if tc.ID != "" {
			callNames[tc.ID] = tc.Function.Name
		}
		out = append(out, harmony.NewTextMessage(harmony.RoleAssistant, tc.Function.Arguments).
			WithChannel(harmony.ChannelCommentary).
			WithRecipient(recipientFor(tc.Function.Name)).
			WithContentType(JSONContentType))
	}
	return out
}

func messageText(m openai.ChatCompletionMessage) (string, error) {
	if len(m.MultiContent) == 0 {
		return m.Content, nil
	}
	var b strings.Builder
	b.WriteString(m.Content)
	for _, part := range m.MultiContent {
		if part.Type != openai.ChatMessagePartTypeText {
			return "", fmt.Errorf("%w: part type %q", ErrUnsupportedContent, part.Type)
		}
		b.WriteString(part.Text)
	}
	return b.String(), nil
}

// ToolDescriptions converts function tools into harmony tool descriptions.
// Parameters are re-encoded as a JSON schema.
func ToolDescriptions(tools []openai.Tool) ([]harmony.ToolDescription, error) {
	out := make([]harmony.ToolDescription, 0, len(tools))
	for i, t := range tools {
		if t.Type != openai.ToolTypeFunction || t.Function == nil {
			return nil, fmt.Errorf("tool %d: unsupported tool type %q", i, t.Type)
		}
		td := harmony.ToolDescription{
			Name:        t.Function.Name,
			Description: t.Function.Description,
		}
		if t.Function.Parameters != nil {
			raw, err := json.Marshal(t.Function.Parameters)
			if err != nil {
				return nil, fmt.Errorf("tool %q parameters: %w", t.Function.Name, err)
			}
			td.Parameters = raw
		}
		out = append(out, td)
	}
	return out, nil
}

func recipientFor(name string) string {
	if strings.Contains(name, ".") {
		return name
	}
	return harmony.FunctionsNamespace + "." + name
}

func parseReasoningEffort(s string) (harmony.ReasoningEffort, error) {
	switch strings.ToLower(s) {
	case "minimal", "low":
		return harmony.ReasoningLow, nil
	case "medium":
		return harmony.ReasoningMedium, nil
	case "high":
		return harmony.ReasoningHigh, nil
	}
	return "", fmt.Errorf("unsupported reasoning effort %q", s)
}
