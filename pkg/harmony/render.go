package harmony

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/goccy/go-json"
)

// RenderConversationConfig controls conversation-level rendering.
type RenderConversationConfig struct {
	// AutoDropAnalysis removes assistant "analysis" messages that precede
	// the final turn (the messages after the last user message).
	AutoDropAnalysis bool `json:"auto_drop_analysis"`
}

// DefaultRenderConversationConfig is used when no config is given.
func DefaultRenderConversationConfig() RenderConversationConfig {
	return RenderConversationConfig{AutoDropAnalysis: true}
}

// UnmarshalJSON keeps defaults for fields absent from the input.
func (c *RenderConversationConfig) UnmarshalJSON(data []byte) error {
	type plain RenderConversationConfig
	cfg := plain(DefaultRenderConversationConfig())
	if err := json.Unmarshal(data, &cfg); err != nil {
		return err
	}
	*c = RenderConversationConfig(cfg)
	return nil
}

// RenderOptions are per-message switches.
type RenderOptions struct {
	// ConversationHasFunctionTools adds the functions routing note to the
	// system preamble. Conversation renders compute it automatically.
	ConversationHasFunctionTools bool `json:"conversation_has_function_tools"`
	// OmitEndToken leaves the message open after its content.
	OmitEndToken bool `json:"omit_end_token"`
}

// RenderConversation renders every message with no generation header.
func (e *Encoding) RenderConversation(conv Conversation, cfg *RenderConversationConfig) ([]uint32, error) {
	var out []uint32
	if err := e.renderConversationInto(&out, conv, cfg); err != nil {
		return nil, err
	}
	return out, nil
}

// RenderConversationForCompletion renders the conversation followed by the
// header that prompts the next turn from nextTurnRole.
func (e *Encoding) RenderConversationForCompletion(conv Conversation, nextTurnRole Role, cfg *RenderConversationConfig) ([]uint32, error) {
	if nextTurnRole == "" {
		return nil, &RenderError{MessageIndex: -1, Err: ErrEmptyNextTurnRole}
	}
	if !nextTurnRole.Valid() {
		return nil, &RenderError{
			MessageIndex: -1,
			Reason:       fmt.Sprintf("next turn role %q", string(nextTurnRole)),
			Err:          ErrUnknownRole,
		}
	}
	var out []uint32
	if err := e.renderConversationInto(&out, conv, cfg); err != nil {
		return nil, err
	}
	if err := e.renderFormattingInto(&out, FormattingStart); err != nil {
		return nil, err
	}
	e.renderTextInto(&out, nextTurnRole.String())
	return out, nil
}

// RenderConversationForTraining renders the conversation fully. A trailing
// assistant message on the final channel ends with the done-sampling token.
func (e *Encoding) RenderConversationForTraining(conv Conversation, cfg *RenderConversationConfig) ([]uint32, error) {
	var out []uint32
	if err := e.renderConversationInto(&out, conv, cfg); err != nil {
		return nil, err
	}
	n := len(conv.Messages)
	if n == 0 {
		return out, nil
	}
	last := conv.Messages[n-1]
	if last.Author.Role != RoleAssistant || last.Channel != ChannelFinal {
		return out, nil
	}
	end, err := e.TokenID(FormattingEndMessage)
	if err != nil {
		return nil, err
	}
	if len(out) > 0 && out[len(out)-1] == end {
		done, err := e.TokenID(FormattingEndMessageDoneSampling)
		if err != nil {
			return nil, err
		}
		out[len(out)-1] = done
	}
	return out, nil
}

// Render renders a single message.
func (e *Encoding) Render(msg Message, opts *RenderOptions) ([]uint32, error) {
	var o RenderOptions
	if opts != nil {
		o = *opts
	}
	var out []uint32
	if err := e.renderMessageInto(&out, msg, o, -1); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Encoding) renderConversationInto(into *[]uint32, conv Conversation, cfg *RenderConversationConfig) error {
	c := DefaultRenderConversationConfig()
	if cfg != nil {
		c = *cfg
	}
	opts := RenderOptions{ConversationHasFunctionTools: hasFunctionTools(conv.Messages)}
	keep := keptMessages(conv.Messages, c)
	for _, idx := range keep {
		if err := e.renderMessageInto(into, conv.Messages[idx], opts, idx); err != nil {
			return err
		}
	}
	return nil
}

// keptMessages returns the indices that survive the auto-drop pre-pass.
func keptMessages(msgs []Message, cfg RenderConversationConfig) []int {
	finalTurnStart := 0
	if cfg.AutoDropAnalysis {
		for i := len(msgs) - 1; i >= 0; i-- {
			if msgs[i].Author.Role == RoleUser {
				finalTurnStart = i + 1
				break
			}
		}
	}
	keep := make([]int, 0, len(msgs))
	for i, m := range msgs {
		if i < finalTurnStart && m.Author.Role == RoleAssistant && m.Channel == ChannelAnalysis {
			continue
		}
		keep = append(keep, i)
	}
	return keep
}

func hasFunctionTools(msgs []Message) bool {
	for _, m := range msgs {
		if m.Author.Role != RoleDeveloper {
			continue
		}
		for _, c := range m.Content {
			if dev, ok := c.(DeveloperContent); ok {
				if _, ok := dev.Tools[FunctionsNamespace]; ok {
					return true
				}
			}
		}
	}
	return false
}

func (e *Encoding) renderMessageInto(into *[]uint32, msg Message, opts RenderOptions, idx int) error {
	if err := e.validateHeader(msg, idx); err != nil {
		return err
	}
	if err := e.renderFormattingInto(into, FormattingStart); err != nil {
		return err
	}

	role := msg.Author.Role
	switch {
	case role == RoleTool:
		e.renderTextInto(into, msg.Author.Name)
	case role.Valid():
		e.renderTextInto(into, role.String())
		if msg.Author.Name != "" {
			e.renderTextInto(into, ":"+msg.Author.Name)
		}
	default:
		return &RenderError{MessageIndex: idx, Reason: fmt.Sprintf("role %q", string(role)), Err: ErrUnknownRole}
	}

	if msg.hasRecipient() {
		e.renderTextInto(into, " to="+msg.Recipient)
	}

	if msg.Channel != "" {
		if err := e.renderFormattingInto(into, FormattingChannel); err != nil {
			return err
		}
		e.renderTextInto(into, msg.Channel)
	}

	if msg.ContentType != "" {
		if err := e.renderContentTypeInto(into, msg.ContentType); err != nil {
			return err
		}
	}

	if err := e.renderFormattingInto(into, FormattingMessage); err != nil {
		return err
	}
	for i, part := range msg.Content {
		if i > 0 {
			if err := e.renderFormattingInto(into, FormattingMessage); err != nil {
				return err
			}
		}
		if err := e.renderContentInto(into, part, role, opts, idx); err != nil {
			return err
		}
	}

	if opts.OmitEndToken {
		return nil
	}
	if role == RoleAssistant && msg.hasRecipient() {
		return e.renderFormattingInto(into, FormattingEndMessageAssistantToTool)
	}
	return e.renderFormattingInto(into, FormattingEndMessage)
}

// renderContentTypeInto emits " <|constrain|>rest" with the marker as a
// control token, or " type" as text for plain content types.
func (e *Encoding) renderContentTypeInto(into *[]uint32, contentType string) error {
	marker := e.TokenText(FormattingConstrainedFormat)
	rest, constrained := strings.CutPrefix(contentType, marker)
	if !constrained || marker == "" {
		e.renderTextInto(into, " "+contentType)
		return nil
	}
	e.renderTextInto(into, " ")
	if err := e.renderFormattingInto(into, FormattingConstrainedFormat); err != nil {
		return err
	}
	e.renderTextInto(into, rest)
	return nil
}

// validateHeader rejects header fields the parser could not read back as
// written.
func (e *Encoding) validateHeader(msg Message, idx int) error {
	fail := func(field, value, reason string) error {
		return &RenderError{MessageIndex: idx, Reason: fmt.Sprintf("%s %q %s", field, value, reason)}
	}

	name := msg.Author.Name
	if msg.Author.Role == RoleTool {
		switch {
		case name == "":
			return &RenderError{MessageIndex: idx, Reason: "tool messages must name the tool as author"}
		case Role(name).Valid() || isNamedRole(name) || strings.HasPrefix(name, "to="):
			return fail("tool name", name, "reads as a role")
		case !msg.hasRecipient():
			return fail("tool message from", name, "has no recipient")
		}
	}
	if name != "" {
		if reason := e.headerFieldProblem(name); reason != "" {
			return fail("author name", name, reason)
		}
	}
	if msg.Recipient != "" {
		if reason := e.headerFieldProblem(msg.Recipient); reason != "" {
			return fail("recipient", msg.Recipient, reason)
		}
	}
	if msg.Channel != "" {
		reason := e.headerFieldProblem(msg.Channel)
		if reason == "" && strings.ContainsRune(msg.Channel, '<') {
			reason = "contains '<'"
		}
		if reason != "" {
			return fail("channel", msg.Channel, reason)
		}
	}
	if ct := msg.ContentType; ct != "" {
		if marker := e.TokenText(FormattingConstrainedFormat); marker != "" {
			if rest, ok := strings.CutPrefix(ct, marker); ok {
				if rest == "" {
					return fail("content type", msg.ContentType, "has no format after the constraint marker")
				}
				ct = rest
			}
		}
		reason := e.headerFieldProblem(ct)
		if reason == "" && strings.HasPrefix(ct, "to=") {
			reason = "reads as a recipient"
		}
		if reason != "" {
			return fail("content type", msg.ContentType, reason)
		}
	}
	return nil
}

// headerFieldProblem describes why s cannot be a single header field, or
// returns "".
func (e *Encoding) headerFieldProblem(s string) string {
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return "contains whitespace"
	}
	for ft := FormattingStart; ft <= FormattingChannel; ft++ {
		if marker := e.TokenText(ft); marker != "" && strings.Contains(s, marker) {
			return "contains " + marker
		}
	}
	return ""
}

func (e *Encoding) renderContentInto(into *[]uint32, c Content, role Role, opts RenderOptions, idx int) error {
	switch v := c.(type) {
	case TextContent:
		e.renderTextInto(into, v.Text)
	case SystemContent:
		if role != RoleSystem {
			return &RenderError{MessageIndex: idx, Reason: "system content is only allowed in system messages"}
		}
		e.renderTextInto(into, renderSystemContent(v, opts))
	case DeveloperContent:
		if role != RoleDeveloper {
			return &RenderError{MessageIndex: idx, Reason: "developer content is only allowed in developer messages"}
		}
		e.renderTextInto(into, renderDeveloperContent(v))
	case nil:
		return &RenderError{MessageIndex: idx, Reason: "nil content part"}
	default:
		return &RenderError{MessageIndex: idx, Reason: fmt.Sprintf("unsupported content %T", c)}
	}
	return nil
}

func (e *Encoding) renderFormattingInto(into *[]uint32, t FormattingToken) error {
	id, err := e.TokenID(t)
	if err != nil {
		return err
	}
	*into = append(*into, id)
	return nil
}

func (e *Encoding) renderTextInto(into *[]uint32, text string) {
	if text == "" {
		return
	}
	*into = append(*into, e.vocab.Encode(text, nil)...)
}
