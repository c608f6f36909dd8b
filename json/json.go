// Package json converts accrue messages to and from the Messages API wire
// format. The same format is used by non-streaming responses, by the message
// shell in message_start and by content_block_start, so the classifier and
// the non-streaming client share these codecs.
package json

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/accrue"
)

// messageDTO is the wire representation of a response message.
type messageDTO struct {
	ID           string            `json:"id"`
	Type         string            `json:"type"`
	Role         string            `json:"role"`
	Model        string            `json:"model"`
	Content      []json.RawMessage `json:"content"`
	StopReason   *string           `json:"stop_reason"`
	StopSequence *string           `json:"stop_sequence"`
	Usage        usageDTO          `json:"usage"`
}

// MarshalMessage serializes a Message in the non-streaming response format.
func MarshalMessage(m accrue.Message) ([]byte, error) {
	content, err := marshalContentBlocks(m.Content)
	if err != nil {
		return nil, err
	}
	dto := messageDTO{
		ID:           m.ID,
		Type:         "message",
		Role:         string(m.Role),
		Model:        m.Model,
		Content:      content,
		StopSequence: m.StopSequence,
		Usage:        marshalUsage(m.Usage),
	}
	if m.StopReason != "" {
		sr := string(m.StopReason)
		dto.StopReason = &sr
	}
	return json.MarshalIndent(dto, "", "  ")
}

// UnmarshalMessage deserializes a Message in the non-streaming response
// format. Tool inputs are compacted so the result compares equal to the
// message accumulated from the equivalent stream.
func UnmarshalMessage(data []byte) (accrue.Message, error) {
	var dto messageDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return accrue.Message{}, fmt.Errorf("unmarshal message: %w", err)
	}
	return messageFromDTO(dto)
}

func messageFromDTO(dto messageDTO) (accrue.Message, error) {
	content, err := unmarshalContentBlocks(dto.Content)
	if err != nil {
		return accrue.Message{}, err
	}
	msg := accrue.Message{
		ID:           dto.ID,
		Role:         accrue.Role(dto.Role),
		Model:        dto.Model,
		Content:      content,
		StopSequence: dto.StopSequence,
		Usage:        unmarshalUsage(dto.Usage),
	}
	if dto.StopReason != nil {
		msg.StopReason = accrue.StopReason(*dto.StopReason)
	}
	return msg, nil
}
