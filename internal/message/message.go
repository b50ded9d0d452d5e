// Package message defines the conversation data model persisted by the
// session log: messages, their ordered content blocks, and token usage.
// Messages are immutable once written; a session only ever grows by
// appending new messages.
package message

import (
	"encoding/json"
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockType discriminates the content block union.
type BlockType string

const (
	BlockText          BlockType = "text"
	BlockTool          BlockType = "tool"
	BlockError         BlockType = "error"
	BlockImage         BlockType = "image"
	BlockDiff          BlockType = "diff"
	BlockCommandOutput BlockType = "command_output"
	BlockCompress      BlockType = "compress"
	BlockMemory        BlockType = "memory"
	BlockCustomCommand BlockType = "custom_command"
)

// Block is a single content block within a message. The Type field selects
// which of the remaining fields are meaningful; unused fields are omitted
// from the serialized form.
type Block struct {
	Type    BlockType `json:"type"`
	Content string    `json:"content,omitempty"` // text, error, diff, command_output, compress, memory, custom_command

	// tool blocks
	ToolName   string          `json:"tool_name,omitempty"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
	Result     string          `json:"result,omitempty"`
	Running    bool            `json:"running,omitempty"`
	Images     []string        `json:"images,omitempty"` // base64-encoded screenshots attached to a tool result

	// image blocks
	ImageData string `json:"image_data,omitempty"`
	MediaType string `json:"media_type,omitempty"`
}

// Usage records token consumption reported for an API call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Message is one entry in a session log. Block order is significant and is
// preserved verbatim across a write/read round trip. Fields not known to
// this version of the schema survive the round trip via AdditionalFields.
type Message struct {
	Role      Role           `json:"role"`
	Blocks    []Block        `json:"blocks"`
	Timestamp time.Time      `json:"timestamp"`
	Usage     *Usage         `json:"usage,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`

	// AdditionalFields holds top-level JSON keys that are not part of the
	// known schema. They are re-emitted on marshal, but never override a
	// known field.
	AdditionalFields map[string]json.RawMessage `json:"-"`
}

// knownFields are the top-level keys owned by the Message schema.
var knownFields = map[string]bool{
	"role":      true,
	"blocks":    true,
	"timestamp": true,
	"usage":     true,
	"metadata":  true,
}

// messageAlias avoids MarshalJSON/UnmarshalJSON recursion.
type messageAlias Message

// MarshalJSON emits the known fields plus any AdditionalFields.
func (m Message) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(messageAlias(m))
	if err != nil {
		return nil, err
	}
	if len(m.AdditionalFields) == 0 {
		return base, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range m.AdditionalFields {
		if knownFields[k] {
			continue
		}
		merged[k] = v
	}
	return json.Marshal(merged)
}

// UnmarshalJSON decodes the known fields and captures the rest.
func (m *Message) UnmarshalJSON(data []byte) error {
	var alias messageAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k := range raw {
		if knownFields[k] {
			delete(raw, k)
		}
	}
	if len(raw) == 0 {
		raw = nil
	}

	*m = Message(alias)
	m.AdditionalFields = raw
	return nil
}

// Text returns a new user or assistant message containing a single text
// block, stamped with the current time.
func Text(role Role, content string) Message {
	return Message{
		Role:      role,
		Blocks:    []Block{{Type: BlockText, Content: content}},
		Timestamp: time.Now().UTC(),
	}
}
