package harmony

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

type messageJSON struct {
	Role        Role            `json:"role"`
	Name        string          `json:"name,omitempty"`
	Recipient   string          `json:"recipient,omitempty"`
	Channel     string          `json:"channel,omitempty"`
	ContentType string          `json:"content_type,omitempty"`
	Content     json.RawMessage `json:"content"`
}

// contentJSON is the tagged union of every content kind.
type contentJSON struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`

	ModelIdentity         string                         `json:"model_identity,omitempty"`
	ReasoningEffort       ReasoningEffort                `json:"reasoning_effort,omitempty"`
	ConversationStartDate string                         `json:"conversation_start_date,omitempty"`
	KnowledgeCutoff       string                         `json:"knowledge_cutoff,omitempty"`
	ChannelConfig         *ChannelConfig                 `json:"channel_config,omitempty"`
	Instructions          string                         `json:"instructions,omitempty"`
	Tools                 map[string]ToolNamespaceConfig `json:"tools,omitempty"`
}

// MarshalJSON writes the message with its author flattened into "role"
// and "name".
func (m Message) MarshalJSON() ([]byte, error) {
	parts := make([]contentJSON, 0, len(m.Content))
	for i, c := range m.Content {
		cj, err := toContentJSON(c)
		if err != nil {
			return nil, fmt.Errorf("content part %d: %w", i, err)
		}
		parts = append(parts, cj)
	}
	content, err := json.Marshal(parts)
	if err != nil {
		return nil, err
	}
	return json.Marshal(messageJSON{
		Role:        m.Author.Role,
		Name:        m.Author.Name,
		Recipient:   m.Recipient,
		Channel:     m.Channel,
		ContentType: m.ContentType,
		Content:     content,
	})
}

// UnmarshalJSON accepts the form written by MarshalJSON. "content" may also
// be a bare string, read as a single text part.
func (m *Message) UnmarshalJSON(data []byte) error {
	var mj messageJSON
	if err := json.Unmarshal(data, &mj); err != nil {
		return err
	}
	role, err := ParseRole(string(mj.Role))
	if err != nil {
		return err
	}

	var content []Content
	raw := bytes.TrimSpace(mj.Content)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '"':
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return err
		}
		content = []Content{TextContent{Text: text}}
	default:
		var parts []contentJSON
		if err := json.Unmarshal(raw, &parts); err != nil {
			return fmt.Errorf("message content: %w", err)
		}
		content = make([]Content, 0, len(parts))
		for i, cj := range parts {
			c, err := fromContentJSON(cj)
			if err != nil {
				return fmt.Errorf("content part %d: %w", i, err)
			}
			content = append(content, c)
		}
	}

	*m = Message{
		Author:      Author{Role: role, Name: mj.Name},
		Recipient:   mj.Recipient,
		Channel:     mj.Channel,
		ContentType: mj.ContentType,
		Content:     content,
	}
	return nil
}

func toContentJSON(c Content) (contentJSON, error) {
	switch v := c.(type) {
	case TextContent:
		return contentJSON{Type: contentTypeText, Text: v.Text}, nil
	case SystemContent:
		return contentJSON{
			Type:                  contentTypeSystem,
			ModelIdentity:         v.ModelIdentity,
			ReasoningEffort:       v.ReasoningEffort,
			ConversationStartDate: v.ConversationStartDate,
			KnowledgeCutoff:       v.KnowledgeCutoff,
			ChannelConfig:         v.ChannelConfig,
			Tools:                 v.Tools,
		}, nil
	case DeveloperContent:
		return contentJSON{
			Type:         contentTypeDeveloper,
			Instructions: v.Instructions,
			Tools:        v.Tools,
		}, nil
	default:
		return contentJSON{}, fmt.Errorf("unsupported content %T", c)
	}
}

func fromContentJSON(cj contentJSON) (Content, error) {
	switch cj.Type {
	case contentTypeText, "":
		return TextContent{Text: cj.Text}, nil
	case contentTypeSystem:
		return SystemContent{
			ModelIdentity:         cj.ModelIdentity,
			ReasoningEffort:       cj.ReasoningEffort,
			ConversationStartDate: cj.ConversationStartDate,
			KnowledgeCutoff:       cj.KnowledgeCutoff,
			ChannelConfig:         cj.ChannelConfig,
			Tools:                 cj.Tools,
		}, nil
	case contentTypeDeveloper:
		return DeveloperContent{Instructions: cj.Instructions, Tools: cj.Tools}, nil
	default:
		return nil, fmt.Errorf("unknown content type %q", cj.Type)
	}
}
