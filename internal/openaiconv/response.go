package openaiconv

import (
	"strings"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"github.com/samcharles93/harmony/internal/reasoning"
	"github.com/samcharles93/harmony/pkg/harmony"
)

// ToChatMessage folds parsed assistant messages into one OpenAI assistant
// message. Analysis text becomes ReasoningContent and messages addressed to
// a recipient become tool calls.
func ToChatMessage(msgs []harmony.Message) openai.ChatCompletionMessage {
	split := reasoning.SplitMessages(msgs)
	out := openai.ChatCompletionMessage{
		Role:             openai.ChatMessageRoleAssistant,
		Content:          split.Content,
		ReasoningContent: split.Reasoning,
	}
	for _, tc := range split.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, openai.ToolCall{
			ID:   NewToolCallID(),
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      tc.Name,
				Arguments: tc.Arguments,
			},
		})
	}
	return out
}

// FinishReason reports tool_calls when the last message calls a tool and
// stop otherwise.
func FinishReason(msgs []harmony.Message) openai.FinishReason {
	if n := len(msgs); n > 0 {
		last := msgs[n-1]
		if last.Author.Role == harmony.RoleAssistant && last.Recipient != "" && last.Recipient != "all" {
			return openai.FinishReasonToolCalls
		}
	}
	return openai.FinishReasonStop
}

// ToChoice wraps the parsed messages as the first choice of a completion.
func ToChoice(msgs []harmony.Message) openai.ChatCompletionChoice {
	return openai.ChatCompletionChoice{
		Index:        0,
		Message:      ToChatMessage(msgs),
		FinishReason: FinishReason(msgs),
	}
}

func NewToolCallID() string {
	return "call_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}
