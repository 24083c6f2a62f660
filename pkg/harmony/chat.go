package harmony

import (
	"fmt"
	"slices"
	"strings"
)

// Role identifies the author kind of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleDeveloper Role = "developer"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

var knownRoles = []Role{RoleSystem, RoleDeveloper, RoleUser, RoleAssistant, RoleTool}

// ParseRole resolves s to a known Role. Matching is exact.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return slices.Contains(knownRoles, r)
}

func (r Role) String() string {
	return string(r)
}

// Author is the sender of a message. Tool messages are authored by the
// tool name (for example "functions.get_weather") rather than by the role.
type Author struct {
	Role Role
	Name string
}

// Content is one typed part of a message body.
type Content interface {
	contentType() string
}

// TextContent is plain text.
type TextContent struct {
	Text string
}

func (TextContent) contentType() string { return contentTypeText }

const (
	contentTypeText      = "text"
	contentTypeSystem    = "system_content"
	contentTypeDeveloper = "developer_content"
)

// Message is a single conversation entry. Builder methods return modified
// copies; the receiver is never changed.
//
// Two forms are normalized by a render and parse round trip. Recipient "all"
// addresses everyone and is not rendered, so it parses back as "". A message
// with no content parts renders like one empty part and parses back with a
// single empty TextContent.
type Message struct {
	Author      Author
	Recipient   string
	Channel     string
	ContentType string
	Content     []Content
}

// NewMessage returns a message from role with a single content part.
func NewMessage(role Role, content Content) Message {
	return Message{
		Author:  Author{Role: role},
		Content: []Content{content},
	}
}

// NewTextMessage is shorthand for NewMessage(role, TextContent{Text: text}).
func NewTextMessage(role Role, text string) Message {
	return NewMessage(role, TextContent{Text: text})
}

// NewToolMessage returns a tool response authored by the named tool and
// addressed back to the assistant.
func NewToolMessage(toolName, text string) Message {
	return Message{
		Author:    Author{Role: RoleTool, Name: toolName},
		Recipient: string(RoleAssistant),
		Content:   []Content{TextContent{Text: text}},
	}
}

func (m Message) WithChannel(channel string) Message {
	m.Channel = channel
	return m
}

func (m Message) WithRecipient(recipient string) Message {
	m.Recipient = recipient
	return m
}

func (m Message) WithContentType(contentType string) Message {
	m.ContentType = contentType
	return m
}

func (m Message) WithAuthorName(name string) Message {
	m.Author.Name = name
	return m
}

// AddingContent returns a copy of m with c appended as a new part.
func (m Message) AddingContent(c Content) Message {
	parts := make([]Content, 0, len(m.Content)+1)
	parts = append(parts, m.Content...)
	m.Content = append(parts, c)
	return m
}

// Text concatenates every text part of the message.
func (m Message) Text() string {
	var b strings.Builder
	for _, c := range m.Content {
		if t, ok := c.(TextContent); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// hasRecipient reports whether the message addresses a specific recipient.
func (m Message) hasRecipient() bool {
	return m.Recipient != "" && m.Recipient != "all"
}

func (m Message) clone() Message {
	m.Content = slices.Clone(m.Content)
	return m
}

// Conversation is an ordered list of messages; order is turn order.
type Conversation struct {
	Messages []Message `json:"messages"`
}

// NewConversation builds a conversation from msgs without copying their content.
func NewConversation(msgs ...Message) Conversation {
	return Conversation{Messages: msgs}
}

func cloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.clone()
	}
	return out
}
