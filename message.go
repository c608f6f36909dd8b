package accrue

import (
	"encoding/json"
	"strings"
)

// Message is a fully accumulated response.
// StopSequence is nil unless the model stopped on one of the request's stop
// sequences.
type Message struct {
	ID           string
	Role         Role
	Model        string
	Content      []ContentBlock
	StopReason   StopReason
	StopSequence *string
	Usage        Usage
}

// Text returns the concatenation of all text blocks in the message.
func (m Message) Text() string {
	var sb strings.Builder
	for _, b := range m.Content {
		if tb, ok := b.(TextBlock); ok {
			sb.WriteString(tb.Text)
		}
	}
	return sb.String()
}

// ToolUses returns the tool use blocks of the message in content order.
func (m Message) ToolUses() []ToolUseBlock {
	var calls []ToolUseBlock
	for _, b := range m.Content {
		if tu, ok := b.(ToolUseBlock); ok {
			calls = append(calls, tu)
		}
	}
	return calls
}

// ContentBlock is a sealed interface representing a block of content.
// The unexported marker method prevents external implementations.
type ContentBlock interface {
	contentBlock()
}

// TextBlock contains text content.
type TextBlock struct {
	Text string
}

func (TextBlock) contentBlock() {}

// ToolUseBlock represents a tool invocation requested by the model.
// Input is compact JSON once the block is finalized.
type ToolUseBlock struct {
	ID    string
	Name  string
	Input json.RawMessage
}

func (ToolUseBlock) contentBlock() {}

// ImageBlock references image data. Type is "base64" (Data set) or "url"
// (URL set).
type ImageBlock struct {
	Source ImageSource
}

func (ImageBlock) contentBlock() {}

// ImageSource is where the bytes of an image come from.
type ImageSource struct {
	Type      string
	MediaType string
	Data      string
	URL       string
}

// UnknownBlock is a content block type this package does not know. Data holds
// the block's raw JSON as first received.
type UnknownBlock struct {
	Type string
	Data json.RawMessage
}

func (UnknownBlock) contentBlock() {}

// Interface compliance checks.
var (
	_ ContentBlock = TextBlock{}
	_ ContentBlock = ToolUseBlock{}
	_ ContentBlock = ImageBlock{}
	_ ContentBlock = UnknownBlock{}
)
