package api

import (
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/sashabaranov/go-openai"

	"github.com/samcharles93/harmony/internal/openaiconv"
	"github.com/samcharles93/harmony/pkg/harmony"
)

// handleRenderChat renders an OpenAI chat completion request as the prompt
// for the next assistant turn.
func (s *Server) handleRenderChat(c *echo.Context) error {
	req, err := decodeJSON[openai.ChatCompletionRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if len(req.Messages) == 0 {
		return writeBadRequest(c, "messages is required and must not be empty")
	}

	conv, err := openaiconv.ToConversation(req)
	if err != nil {
		return writeLibError(c, err, "messages")
	}
	tokens, err := s.enc.RenderConversationForCompletion(conv, harmony.RoleAssistant, s.configOr(nil))
	if err != nil {
		return writeLibError(c, err, "messages")
	}
	stop, err := s.enc.StopTokensForAssistantActions()
	if err != nil {
		return writeLibError(c, err, "")
	}

	resp := ChatRenderResponse{Tokens: tokens, Count: len(tokens), StopTokens: stop}
	if c.QueryParam("include_text") == "true" {
		if resp.Text, err = s.enc.DecodeUTF8(tokens); err != nil {
			return writeLibError(c, err, "")
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// handleParse parses completion tokens. With ?format=openai the messages are
// folded into an OpenAI chat completion choice.
func (s *Server) handleParse(c *echo.Context) error {
	req, err := decodeJSON[ParseRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	msgs, err := s.enc.ParseMessagesFromCompletionTokens(req.Tokens, req.Role)
	if err != nil {
		return writeLibError(c, err, "tokens")
	}
	if msgs == nil {
		msgs = []harmony.Message{}
	}

	switch format := c.QueryParam("format"); format {
	case "", "harmony":
		return c.JSON(http.StatusOK, ParseResponse{Messages: msgs})
	case "openai":
		return c.JSON(http.StatusOK, OpenAIParseResponse{
			Object:  "chat.completion",
			Choices: []openai.ChatCompletionChoice{openaiconv.ToChoice(msgs)},
		})
	default:
		return writeError(c, http.StatusBadRequest, "invalid_request_error", "unknown format "+format, "format", "")
	}
}
