package openaiconv

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/harmony/pkg/harmony"
)

func weatherRequest() openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:           "gpt-oss-20b",
		ReasoningEffort: "high",
		Tools: []openai.Tool{{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "get_weather",
				Description: "Gets the current weather.",
				Parameters:  json.RawMessage(`{"type":"object","properties":{"location":{"type":"string"}},"required":["location"]}`),
			},
		}},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "Answer briefly."},
			{Role: openai.ChatMessageRoleUser, Content: "Weather in Tokyo?"},
			{
				Role:             openai.ChatMessageRoleAssistant,
				ReasoningContent: "Need the weather tool.",
				ToolCalls: []openai.ToolCall{{
					ID:       "call_1",
					Type:     openai.ToolTypeFunction,
					Function: openai.FunctionCall{Name: "get_weather", Arguments: `{"location":"Tokyo"}`},
				}},
			},
			{Role: openai.ChatMessageRoleTool, ToolCallID: "call_1", Content: `{"temp":21}`},
		},
	}
}

func TestToConversation(t *testing.T) {
	conv, err := ToConversation(weatherRequest())
	require.NoError(t, err)
	msgs := conv.Messages
	require.Len(t, msgs, 6)

	sys, ok := msgs[0].Content[0].(harmony.SystemContent)
	require.True(t, ok)
	assert.Equal(t, harmony.ReasoningHigh, sys.ReasoningEffort)

	dev, ok := msgs[1].Content[0].(harmony.DeveloperContent)
	require.True(t, ok)
	assert.Equal(t, "Answer briefly.", dev.Instructions)
	require.Contains(t, dev.Tools, harmony.FunctionsNamespace)
	assert.Equal(t, "get_weather", dev.Tools[harmony.FunctionsNamespace].Tools[0].Name)

	assert.Equal(t, harmony.RoleUser, msgs[2].Author.Role)

	assert.Equal(t, harmony.ChannelAnalysis, msgs[3].Channel)
	assert.Equal(t, "Need the weather tool.", msgs[3].Text())

	call := msgs[4]
	assert.Equal(t, "functions.get_weather", call.Recipient)
	assert.Equal(t, harmony.ChannelCommentary, call.Channel)
	assert.Equal(t, JSONContentType, call.ContentType)

	result := msgs[5]
	assert.Equal(t, harmony.Author{Role: harmony.RoleTool, Name: "functions.get_weather"}, result.Author)
	assert.Equal(t, "assistant", result.Recipient)
}

func TestToConversationRenders(t *testing.T) {
	enc, err := harmony.LoadEncoding(harmony.HarmonyGptOssBytes)
	require.NoError(t, err)

	conv, err := ToConversation(weatherRequest())
	require.NoError(t, err)
	tokens, err := enc.RenderConversationForCompletion(conv, harmony.RoleAssistant, nil)
	require.NoError(t, err)

	text, err := enc.DecodeUTF8(tokens)
	require.NoError(t, err)
	assert.Contains(t, text, "<|start|>assistant to=functions.get_weather<|channel|>commentary <|constrain|>json<|message|>{\"location\":\"Tokyo\"}<|call|>")
	assert.Contains(t, text, "<|start|>functions.get_weather to=assistant<|channel|>commentary<|message|>{\"temp\":21}<|end|>")
	assert.Contains(t, text, "type get_weather = (_: {")
}

func TestToConversationErrors(t *testing.T) {
	tests := []struct {
		name string
		req  openai.ChatCompletionRequest
		want error
	}{
		{
			name: "unknown role",
			req:  openai.ChatCompletionRequest{Messages: []openai.ChatCompletionMessage{{Role: "narrator", Content: "x"}}},
			want: ErrUnsupportedRole,
		},
		{
			name: "image part",
			req: openai.ChatCompletionRequest{Messages: []openai.ChatCompletionMessage{{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeImageURL}},
			}}},
			want: ErrUnsupportedContent,
		},
		{
			name: "orphan tool result",
			req:  openai.ChatCompletionRequest{Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleTool, ToolCallID: "nope"}}},
			want: ErrUnknownToolCall,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToConversation(tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := ToConversation(openai.ChatCompletionRequest{ReasoningEffort: "extreme"})
	assert.Error(t, err)
}

func TestWithSystemContent(t *testing.T) {
	sys := harmony.NewSystemContent().WithModelIdentity("You are a test model.")
	conv, err := ToConversation(openai.ChatCompletionRequest{
		Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "hi"}},
	}, WithSystemContent(sys))
	require.NoError(t, err)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, sys, conv.Messages[0].Content[0])
}

func TestToChatMessage(t *testing.T) {
	msgs := []harmony.Message{
		harmony.NewTextMessage(harmony.RoleAssistant, "thinking").WithChannel(harmony.ChannelAnalysis),
		harmony.NewTextMessage(harmony.RoleAssistant, `{"location":"Tokyo"}`).
			WithChannel(harmony.ChannelCommentary).
			WithRecipient("functions.get_weather").
			WithContentType(JSONContentType),
	}
	out := ToChatMessage(msgs)
	assert.Equal(t, openai.ChatMessageRoleAssistant, out.Role)
	assert.Equal(t, "thinking", out.ReasoningContent)
	assert.Empty(t, out.Content)
	require.Len(t, out.ToolCalls, 1)
	assert.Equal(t, "get_weather", out.ToolCalls[0].Function.Name)
	assert.Equal(t, `{"location":"Tokyo"}`, out.ToolCalls[0].Function.Arguments)
	assert.Regexp(t, `^call_[0-9a-f]{24}$`, out.ToolCalls[0].ID)
	assert.Equal(t, openai.FinishReasonToolCalls, FinishReason(msgs))

	final := []harmony.Message{harmony.NewTextMessage(harmony.RoleAssistant, "Sunny.").WithChannel(harmony.ChannelFinal)}
	choice := ToChoice(final)
	assert.Equal(t, "Sunny.", choice.Message.Content)
	assert.Equal(t, openai.FinishReasonStop, choice.FinishReason)
}
