package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/harmony/pkg/harmony"
)

func (s *Server) handleCreateParser(c *echo.Context) error {
	req, err := decodeOptionalJSON[CreateParserRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	var p *harmony.StreamableParser
	if req.State != nil {
		p, err = harmony.RestoreStreamableParser(s.enc, *req.State)
		if err != nil {
			return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error(), "state", "")
		}
	} else {
		if req.Role != nil && !req.Role.Valid() {
			return writeError(c, http.StatusBadRequest, "invalid_request_error",
				fmt.Sprintf("unknown role %q", string(*req.Role)), "role", "unknown_role")
		}
		p = harmony.NewStreamableParser(s.enc, req.Role)
	}

	sess, err := s.sessions.Create(p, s.clock())
	if err != nil {
		return writeLibError(c, err, "")
	}
	s.log.Debug("parser session created", "id", sess.id, "resumed", req.State != nil)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return c.JSON(http.StatusOK, sess.view(false))
}

func (s *Server) handleGetParser(c *echo.Context) error {
	sess, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		return writeLibError(c, ErrSessionNotFound, "id")
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return c.JSON(http.StatusOK, sess.view(true))
}

func (s *Server) handleDeleteParser(c *echo.Context) error {
	id := c.Param("id")
	if !s.sessions.Delete(id) {
		return writeLibError(c, ErrSessionNotFound, "id")
	}
	return c.JSON(http.StatusOK, DeleteParserResponse{ID: id, Object: "parser", Deleted: true})
}

// handleFeedParser feeds tokens in order. Tokens before a failing one stay
// applied; the error names the failing index and the parser is left as it
// was after the last accepted token.
func (s *Server) handleFeedParser(c *echo.Context) error {
	sess, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		return writeLibError(c, ErrSessionNotFound, "id")
	}
	req, err := decodeJSON[FeedRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if c.QueryParam("stream") == "true" {
		return s.streamFeed(c, sess, req.Tokens)
	}

	resp := FeedResponse{ID: sess.id, Deltas: make([]TokenDelta, 0, len(req.Tokens))}
	for i, tok := range req.Tokens {
		d, err := sess.feed(i, tok)
		if err != nil {
			s.log.Debug("parser rejected token", "id", sess.id, "index", i, "token", tok, "error", err)
			return writeLibError(c, err, fmt.Sprintf("tokens[%d]", i))
		}
		resp.Deltas = append(resp.Deltas, d)
		resp.Accepted++
	}
	resp.State = sess.parser.State()
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) streamFeed(c *echo.Context, sess *parserSession, tokens []uint32) error {
	sse, err := NewSSEStreamWriter(c)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	for i, tok := range tokens {
		if err := c.Request().Context().Err(); err != nil {
			return nil
		}
		d, err := sess.feed(i, tok)
		if err != nil {
			if err := sse.Fail(err, fmt.Sprintf("tokens[%d]", i)); err != nil {
				return err
			}
			return sse.Done()
		}
		if err := sse.Send("token", d); err != nil {
			return err
		}
	}
	return sse.Done()
}

func (s *Server) handleParserEOS(c *echo.Context) error {
	sess, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		return writeLibError(c, ErrSessionNotFound, "id")
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	before := sess.parser.MessageCount()
	if err := sess.parser.ProcessEOS(); err != nil {
		return writeLibError(c, err, "")
	}
	sess.splitter.Push(sess.parser)
	s.log.Debug("parser session finished", "id", sess.id, "flushed", sess.parser.MessageCount()-before)
	return c.JSON(http.StatusOK, sess.view(false))
}

// feed processes one token and describes its effect. The caller holds
// sess.mu.
func (sess *parserSession) feed(i int, tok uint32) (TokenDelta, error) {
	p := sess.parser
	before := p.MessageCount()
	if err := p.Process(tok); err != nil {
		return TokenDelta{}, err
	}
	split := sess.splitter.Push(p)
	d := TokenDelta{
		Index:     i,
		Token:     tok,
		State:     p.State(),
		Delta:     p.LastContentDelta(),
		Channel:   p.CurrentChannel(),
		Recipient: p.CurrentRecipient(),
		Content:   split.Content,
		Reasoning: split.Reasoning,
		ToolCall:  split.ToolCall,
	}
	if p.MessageCount() > before {
		if last, ok := p.LastMessage(); ok {
			d.Completed = &last
		}
	}
	return d, nil
}
