package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v5"
	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/harmony/pkg/harmony"
)

// maxBatchWorkers bounds the goroutines of one batch render.
const maxBatchWorkers = 8

func (s *Server) handleRenderConversation(c *echo.Context) error {
	req, err := decodeJSON[RenderRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	tokens, err := s.enc.RenderConversation(req.Conversation, s.configOr(req.Config))
	return s.writeRender(c, tokens, req.IncludeText, err)
}

func (s *Server) handleRenderCompletion(c *echo.Context) error {
	req, err := decodeJSON[RenderRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	role := req.NextTurnRole
	if role == "" {
		role = harmony.RoleAssistant
	}
	tokens, err := s.enc.RenderConversationForCompletion(req.Conversation, role, s.configOr(req.Config))
	return s.writeRender(c, tokens, req.IncludeText, err)
}

func (s *Server) handleRenderTraining(c *echo.Context) error {
	req, err := decodeJSON[RenderRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	tokens, err := s.enc.RenderConversationForTraining(req.Conversation, s.configOr(req.Config))
	return s.writeRender(c, tokens, req.IncludeText, err)
}

func (s *Server) handleRenderMessage(c *echo.Context) error {
	req, err := decodeJSON[RenderMessageRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	tokens, err := s.enc.Render(req.Message, req.Options)
	return s.writeRender(c, tokens, req.IncludeText, err)
}

func (s *Server) writeRender(c *echo.Context, tokens []uint32, includeText bool, err error) error {
	if err != nil {
		return writeLibError(c, err, "conversation")
	}
	resp, err := s.renderResponse(tokens, includeText)
	if err != nil {
		return writeLibError(c, err, "")
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleRenderBatch(c *echo.Context) error {
	req, err := decodeJSON[BatchRenderRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if len(req.Conversations) == 0 {
		return writeBadRequest(c, "conversations is required and must not be empty")
	}

	render, err := s.batchRenderer(req)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	results := make([]RenderResponse, len(req.Conversations))
	g, ctx := errgroup.WithContext(c.Request().Context())
	g.SetLimit(maxBatchWorkers)
	for i, conv := range req.Conversations {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tokens, err := render(conv)
			if err != nil {
				return &batchError{index: i, err: err}
			}
			results[i] = RenderResponse{Tokens: tokens, Count: len(tokens)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var be *batchError
		if errors.As(err, &be) {
			return writeLibError(c, be.err, fmt.Sprintf("conversations[%d]", be.index))
		}
		return writeLibError(c, err, "")
	}

	s.log.Debug("batch rendered", "mode", req.Mode, "conversations", len(results))
	return c.JSON(http.StatusOK, BatchRenderResponse{Object: "list", Results: results})
}

func (s *Server) batchRenderer(req BatchRenderRequest) (func(harmony.Conversation) ([]uint32, error), error) {
	cfg := s.configOr(req.Config)
	switch req.Mode {
	case RenderModeConversation, "":
		return func(conv harmony.Conversation) ([]uint32, error) {
			return s.enc.RenderConversation(conv, cfg)
		}, nil
	case RenderModeCompletion:
		role := req.NextTurnRole
		if role == "" {
			role = harmony.RoleAssistant
		}
		return func(conv harmony.Conversation) ([]uint32, error) {
			return s.enc.RenderConversationForCompletion(conv, role, cfg)
		}, nil
	case RenderModeTraining:
		return func(conv harmony.Conversation) ([]uint32, error) {
			return s.enc.RenderConversationForTraining(conv, cfg)
		}, nil
	}
	return nil, fmt.Errorf("unknown render mode %q", req.Mode)
}

type batchError struct {
	index int
	err   error
}

func (e *batchError) Error() string {
	return fmt.Sprintf("conversation %d: %v", e.index, e.err)
}

func (e *batchError) Unwrap() error {
	return e.err
}
