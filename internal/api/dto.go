package api

import (
	"github.com/samcharles93/harmony/internal/reasoning"
	"github.com/samcharles93/harmony/pkg/harmony"
)

// CreateParserRequest starts a parser session. State resumes a snapshot
// taken earlier; Role is ignored when State is set.
type CreateParserRequest struct {
	Role  *harmony.Role     `json:"role,omitempty"`
	State *harmony.Snapshot `json:"state,omitempty"`
}

type ParserSession struct {
	ID       string               `json:"id"`
	Object   string               `json:"object"`
	Created  int64                `json:"created"`
	State    harmony.ParserState  `json:"state"`
	Messages []harmony.Message    `json:"messages"`
	Snapshot *harmony.Snapshot    `json:"snapshot,omitempty"`
	Current  *CurrentMessageState `json:"current,omitempty"`
}

// CurrentMessageState describes the message whose content is being parsed.
type CurrentMessageState struct {
	Role        harmony.Role `json:"role"`
	Name        string       `json:"name,omitempty"`
	Recipient   string       `json:"recipient,omitempty"`
	Channel     string       `json:"channel,omitempty"`
	ContentType string       `json:"content_type,omitempty"`
	Content     string       `json:"content"`
}

type FeedRequest struct {
	Tokens []uint32 `json:"tokens"`
}

// TokenDelta is the parser output for one accepted token.
type TokenDelta struct {
	Index     int                      `json:"index"`
	Token     uint32                   `json:"token"`
	State     harmony.ParserState      `json:"state"`
	Delta     string                   `json:"delta,omitempty"`
	Channel   string                   `json:"channel,omitempty"`
	Recipient string                   `json:"recipient,omitempty"`
	Content   string                   `json:"content,omitempty"`
	Reasoning string                   `json:"reasoning,omitempty"`
	ToolCall  *reasoning.ToolCallDelta `json:"tool_call,omitempty"`
	// Completed is set on the token that closed a message.
	Completed *harmony.Message `json:"completed,omitempty"`
}

type FeedResponse struct {
	ID       string              `json:"id"`
	State    harmony.ParserState `json:"state"`
	Accepted int                 `json:"accepted"`
	Deltas   []TokenDelta        `json:"deltas"`
}

type DeleteParserResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}
