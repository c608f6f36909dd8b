package json

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/fwojciec/accrue"
)

// contentBlock is the wire representation of a ContentBlock with a type discriminator.
type contentBlock struct {
	Type   string          `json:"type"`
	Text   *string         `json:"text,omitempty"`
	ID     *string         `json:"id,omitempty"`
	Name   *string         `json:"name,omitempty"`
	Input  json.RawMessage `json:"input,omitempty"`
	Source *imageSource    `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

func marshalContentBlocks(blocks []accrue.ContentBlock) ([]json.RawMessage, error) {
	result := make([]json.RawMessage, len(blocks))
	for i, b := range blocks {
		raw, err := MarshalContentBlock(b)
		if err != nil {
			return nil, fmt.Errorf("content block %d: %w", i, err)
		}
		result[i] = raw
	}
	return result, nil
}

// MarshalContentBlock serializes one content block in wire format.
func MarshalContentBlock(b accrue.ContentBlock) (json.RawMessage, error) {
	var cb contentBlock
	switch v := b.(type) {
	case accrue.TextBlock:
		cb = contentBlock{Type: "text", Text: &v.Text}
	case accrue.ToolUseBlock:
		input := v.Input
		if len(input) == 0 {
			input = json.RawMessage(`{}`)
		}
		cb = contentBlock{Type: "tool_use", ID: &v.ID, Name: &v.Name, Input: input}
	case accrue.ImageBlock:
		cb = contentBlock{Type: "image", Source: &imageSource{
			Type:      v.Source.Type,
			MediaType: v.Source.MediaType,
			Data:      v.Source.Data,
			URL:       v.Source.URL,
		}}
	case accrue.UnknownBlock:
		return v.Data, nil
	default:
		return nil, fmt.Errorf("unknown content block type: %T", b)
	}
	return json.Marshal(cb)
}

func unmarshalContentBlocks(raws []json.RawMessage) ([]accrue.ContentBlock, error) {
	result := make([]accrue.ContentBlock, 0, len(raws))
	for i, raw := range raws {
		b, err := UnmarshalContentBlock(raw)
		if err != nil {
			return nil, fmt.Errorf("content block %d: %w", i, err)
		}
		result = append(result, b)
	}
	return result, nil
}

// UnmarshalContentBlock deserializes one content block. Block types this
// package does not know become accrue.UnknownBlock holding data in compact
// form.
func UnmarshalContentBlock(data []byte) (accrue.ContentBlock, error) {
	var dto contentBlock
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("unmarshal content block: %w", err)
	}
	switch dto.Type {
	case "text":
		var text string
		if dto.Text != nil {
			text = *dto.Text
		}
		return accrue.TextBlock{Text: text}, nil
	case "tool_use":
		var id, name string
		if dto.ID != nil {
			id = *dto.ID
		}
		if dto.Name != nil {
			name = *dto.Name
		}
		var input json.RawMessage
		if len(dto.Input) > 0 {
			var err error
			if input, err = compact(dto.Input); err != nil {
				return nil, fmt.Errorf("compact tool input: %w", err)
			}
		}
		return accrue.ToolUseBlock{ID: id, Name: name, Input: input}, nil
	case "image":
		if dto.Source == nil {
			return nil, fmt.Errorf("image block without source")
		}
		return accrue.ImageBlock{Source: accrue.ImageSource{
			Type:      dto.Source.Type,
			MediaType: dto.Source.MediaType,
			Data:      dto.Source.Data,
			URL:       dto.Source.URL,
		}}, nil
	case "":
		return nil, fmt.Errorf("content block without type")
	default:
		raw, err := compact(data)
		if err != nil {
			return nil, err
		}
		return accrue.UnknownBlock{Type: dto.Type, Data: raw}, nil
	}
}

func compact(data []byte) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return nil, err
	}
	return json.RawMessage(buf.Bytes()), nil
}
