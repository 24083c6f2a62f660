package api

import (
	"cmp"
	"net/http"
	"slices"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/harmony/pkg/harmony"
)

func (s *Server) handleEncode(c *echo.Context) error {
	req, err := decodeJSON[EncodeRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	allowed := req.AllowedSpecial
	if slices.Contains(allowed, "all") {
		allowed = s.enc.SpecialTokens()
	}
	tokens := s.enc.EncodeWithSpecial(req.Text, allowed)
	if tokens == nil {
		tokens = []uint32{}
	}
	return c.JSON(http.StatusOK, TokensResponse{Tokens: tokens, Count: len(tokens)})
}

func (s *Server) handleDecode(c *echo.Context) error {
	req, err := decodeJSON[DecodeRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	text, err := s.enc.DecodeUTF8(req.Tokens)
	if err != nil {
		return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error(), "tokens", "encoding_error")
	}
	return c.JSON(http.StatusOK, DecodeResponse{Text: text})
}

func (s *Server) handleSpecialTokens(c *echo.Context) error {
	names := s.enc.SpecialTokens()
	data := make([]SpecialToken, 0, len(names))
	for _, name := range names {
		id, ok := s.enc.Vocabulary().SpecialTokenID(name)
		if !ok {
			continue
		}
		data = append(data, SpecialToken{Text: name, ID: id})
	}
	slices.SortFunc(data, func(a, b SpecialToken) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return c.JSON(http.StatusOK, SpecialTokensResponse{Object: "list", Data: data})
}

func (s *Server) handleStopTokens(c *echo.Context) error {
	stop, err := s.enc.StopTokens()
	if err != nil {
		return writeLibError(c, err, "")
	}
	actions, err := s.enc.StopTokensForAssistantActions()
	if err != nil {
		return writeLibError(c, err, "")
	}
	return c.JSON(http.StatusOK, StopTokensResponse{Stop: stop, AssistantActions: actions})
}

func (s *Server) handleToolNamespace(c *echo.Context) error {
	ns, err := harmony.ToolNamespace(c.Param("namespace"))
	if err != nil {
		return writeNotFound(c, err.Error())
	}
	return c.JSON(http.StatusOK, ns)
}
