package accrue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Accumulator folds an ordered event sequence into one Message.
//
// Only one content block is open at a time. Finalized blocks are appended to
// the message content in index order, and indices must be dense: the next
// content_block_start must carry index len(Content). Any event that breaks
// the ordering contract is reported as *ProtocolViolation and the
// accumulator keeps no partial result worth returning.
//
// The zero value is ready to use.
type Accumulator struct {
	msg      *Message
	open     *openBlock
	complete bool
}

// openBlock is the block currently receiving deltas.
type openBlock struct {
	index int
	block ContentBlock
	buf   strings.Builder
}

// Apply advances the accumulator by one event.
func (a *Accumulator) Apply(evt Event) error {
	if a.complete {
		return &ProtocolViolation{Event: evt, Reason: "event after message_stop"}
	}
	if a.msg == nil {
		start, ok := evt.(EventMessageStart)
		if !ok {
			return &ProtocolViolation{Event: evt, Reason: "event before message_start"}
		}
		msg := start.Message
		msg.Content = []ContentBlock{}
		if msg.Role == "" {
			msg.Role = RoleAssistant
		}
		a.msg = &msg
		return nil
	}

	switch e := evt.(type) {
	case EventMessageStart:
		return &ProtocolViolation{Event: evt, Reason: "duplicate message_start"}
	case EventContentBlockStart:
		return a.startBlock(e)
	case EventContentBlockDelta:
		return a.applyDelta(e)
	case EventContentBlockStop:
		return a.stopBlock(e)
	case EventMessageDelta:
		if e.StopReason != "" {
			a.msg.StopReason = e.StopReason
		}
		if e.StopSequence != nil {
			seq := *e.StopSequence
			a.msg.StopSequence = &seq
		}
		a.msg.Usage = e.Usage.Apply(a.msg.Usage)
		return nil
	case EventMessageStop:
		if a.open != nil {
			return &ProtocolViolation{Event: evt, Reason: fmt.Sprintf("message_stop while block %d is open", a.open.index)}
		}
		a.complete = true
		return nil
	case EventPing, EventUnrecognized:
		return nil
	default:
		return &ProtocolViolation{Event: evt, Reason: "unsupported event"}
	}
}

func (a *Accumulator) startBlock(e EventContentBlockStart) error {
	if a.open != nil {
		return &ProtocolViolation{Event: e, Reason: fmt.Sprintf("block %d started while block %d is open", e.Index, a.open.index)}
	}
	if want := len(a.msg.Content); e.Index != want {
		return &ProtocolViolation{Event: e, Reason: fmt.Sprintf("block index %d out of sequence, want %d", e.Index, want)}
	}
	if e.Block == nil {
		return &ProtocolViolation{Event: e, Reason: "content_block_start without a block"}
	}
	a.open = &openBlock{index: e.Index, block: e.Block}
	if tb, ok := e.Block.(TextBlock); ok {
		a.open.buf.WriteString(tb.Text)
	}
	return nil
}

func (a *Accumulator) applyDelta(e EventContentBlockDelta) error {
	if a.open == nil || a.open.index != e.Index {
		return &ProtocolViolation{Event: e, Reason: fmt.Sprintf("delta for block %d which is not open", e.Index)}
	}
	switch d := e.Delta.(type) {
	case TextDelta:
		if _, ok := a.open.block.(TextBlock); !ok {
			return &ProtocolViolation{Event: e, Reason: fmt.Sprintf("text delta for %T", a.open.block)}
		}
		a.open.buf.WriteString(d.Text)
	case InputJSONDelta:
		if _, ok := a.open.block.(ToolUseBlock); !ok {
			return &ProtocolViolation{Event: e, Reason: fmt.Sprintf("input_json delta for %T", a.open.block)}
		}
		a.open.buf.WriteString(d.PartialJSON)
	case UnknownDelta:
		// Delta kinds added to the API later do not change known blocks.
	default:
		return &ProtocolViolation{Event: e, Reason: fmt.Sprintf("unsupported delta %T", e.Delta)}
	}
	return nil
}

func (a *Accumulator) stopBlock(e EventContentBlockStop) error {
	if a.open == nil || a.open.index != e.Index {
		return &ProtocolViolation{Event: e, Reason: fmt.Sprintf("stop for block %d which is not open", e.Index)}
	}
	block, err := finalizeBlock(a.open)
	if err != nil {
		return err
	}
	a.msg.Content = append(a.msg.Content, block)
	a.open = nil
	return nil
}

func finalizeBlock(ob *openBlock) (ContentBlock, error) {
	switch b := ob.block.(type) {
	case TextBlock:
		return TextBlock{Text: ob.buf.String()}, nil
	case ToolUseBlock:
		input, err := ParseToolInput(ob.index, ob.buf.String(), b.Input)
		if err != nil {
			return nil, err
		}
		b.Input = input
		return b, nil
	default:
		return ob.block, nil
	}
}

// ParseToolInput parses the concatenated input_json fragments of the tool use
// block at index and returns them as compact JSON. An empty buffer falls back
// to initial, the input sent with content_block_start, and then to "{}".
func ParseToolInput(index int, fragments string, initial json.RawMessage) (json.RawMessage, error) {
	raw := fragments
	if strings.TrimSpace(raw) == "" {
		raw = string(initial)
	}
	if strings.TrimSpace(raw) == "" {
		raw = "{}"
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(raw)); err != nil {
		return nil, &DecodeError{Index: index, Input: raw, Err: err}
	}
	return json.RawMessage(buf.Bytes()), nil
}

// Started reports whether message_start has been applied.
func (a *Accumulator) Started() bool { return a.msg != nil }

// Complete reports whether message_stop has been applied.
func (a *Accumulator) Complete() bool { return a.complete }

// Message returns the accumulated message. It returns ErrIncomplete until
// message_stop has been applied.
func (a *Accumulator) Message() (Message, error) {
	if !a.complete {
		return Message{}, ErrIncomplete
	}
	return *a.msg, nil
}
