package anthropic

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fwojciec/accrue"
	accruejson "github.com/fwojciec/accrue/json"
	"github.com/fwojciec/accrue/sse"
)

// ParseEvent classifies one frame.
//
// The frame's event name selects the payload shape; when the name is empty
// the payload's "type" field is used instead. Unknown event names become
// [accrue.EventUnrecognized] and unknown JSON fields are ignored. A payload
// that does not fit its declared shape is an [*accrue.ClassificationError].
// An error event is returned as an [*accrue.ServerError].
func ParseEvent(f sse.Frame) (accrue.Event, error) {
	name := f.Event
	if name == "" {
		var env sseEnvelope
		if err := json.Unmarshal([]byte(f.Data), &env); err != nil {
			return nil, classifyError(f, "unnamed event", err)
		}
		name = env.Type
	}

	switch name {
	case "ping":
		return accrue.EventPing{}, nil
	case "message_start":
		return parseMessageStart(f, name)
	case "content_block_start":
		return parseContentBlockStart(f, name)
	case "content_block_delta":
		return parseContentBlockDelta(f, name)
	case "content_block_stop":
		var evt sseContentBlockStop
		if err := json.Unmarshal([]byte(f.Data), &evt); err != nil {
			return nil, classifyError(f, name, err)
		}
		if evt.Index == nil {
			return nil, classifyError(f, name, missingField("index"))
		}
		return accrue.EventContentBlockStop{Index: *evt.Index}, nil
	case "message_delta":
		return parseMessageDelta(f, name)
	case "message_stop":
		if !json.Valid([]byte(f.Data)) {
			return nil, classifyError(f, name, errors.New("invalid JSON"))
		}
		return accrue.EventMessageStop{}, nil
	case "error":
		return nil, parseError(f, name)
	default:
		if !json.Valid([]byte(f.Data)) {
			return nil, classifyError(f, name, errors.New("invalid JSON"))
		}
		return accrue.EventUnrecognized{Type: name, Data: json.RawMessage(f.Data)}, nil
	}
}

func parseMessageStart(f sse.Frame, name string) (accrue.Event, error) {
	var evt sseMessageStart
	if err := json.Unmarshal([]byte(f.Data), &evt); err != nil {
		return nil, classifyError(f, name, err)
	}
	if isAbsent(evt.Message) {
		return nil, classifyError(f, name, missingField("message"))
	}
	msg, err := accruejson.UnmarshalMessage(evt.Message)
	if err != nil {
		return nil, classifyError(f, name, err)
	}
	return accrue.EventMessageStart{Message: msg}, nil
}

func parseContentBlockStart(f sse.Frame, name string) (accrue.Event, error) {
	var evt sseContentBlockStart
	if err := json.Unmarshal([]byte(f.Data), &evt); err != nil {
		return nil, classifyError(f, name, err)
	}
	if evt.Index == nil {
		return nil, classifyError(f, name, missingField("index"))
	}
	if isAbsent(evt.ContentBlock) {
		return nil, classifyError(f, name, missingField("content_block"))
	}
	block, err := accruejson.UnmarshalContentBlock(evt.ContentBlock)
	if err != nil {
		return nil, classifyError(f, name, err)
	}
	return accrue.EventContentBlockStart{Index: *evt.Index, Block: block}, nil
}

func parseContentBlockDelta(f sse.Frame, name string) (accrue.Event, error) {
	var evt sseContentBlockDelta
	if err := json.Unmarshal([]byte(f.Data), &evt); err != nil {
		return nil, classifyError(f, name, err)
	}
	if evt.Index == nil {
		return nil, classifyError(f, name, missingField("index"))
	}
	if isAbsent(evt.Delta) {
		return nil, classifyError(f, name, missingField("delta"))
	}
	var d sseDelta
	if err := json.Unmarshal(evt.Delta, &d); err != nil {
		return nil, classifyError(f, name, err)
	}

	var delta accrue.Delta
	switch d.Type {
	case "text_delta":
		if d.Text == nil {
			return nil, classifyError(f, name, missingField("delta.text"))
		}
		delta = accrue.TextDelta{Text: *d.Text}
	case "input_json_delta":
		if d.PartialJSON == nil {
			return nil, classifyError(f, name, missingField("delta.partial_json"))
		}
		delta = accrue.InputJSONDelta{PartialJSON: *d.PartialJSON}
	case "":
		return nil, classifyError(f, name, missingField("delta.type"))
	default:
		delta = accrue.UnknownDelta{Type: d.Type, Data: append(json.RawMessage(nil), evt.Delta...)}
	}
	return accrue.EventContentBlockDelta{Index: *evt.Index, Delta: delta}, nil
}

func parseMessageDelta(f sse.Frame, name string) (accrue.Event, error) {
	var evt sseMessageDelta
	if err := json.Unmarshal([]byte(f.Data), &evt); err != nil {
		return nil, classifyError(f, name, err)
	}
	out := accrue.EventMessageDelta{
		StopSequence: evt.Delta.StopSequence,
		Usage: accrue.UsageDelta{
			InputTokens:      evt.Usage.InputTokens,
			OutputTokens:     evt.Usage.OutputTokens,
			CacheReadTokens:  evt.Usage.CacheReadInputTokens,
			CacheWriteTokens: evt.Usage.CacheCreationInputTokens,
		},
	}
	if evt.Delta.StopReason != nil {
		out.StopReason = accrue.StopReason(*evt.Delta.StopReason)
	}
	return out, nil
}

func parseError(f sse.Frame, name string) error {
	var evt sseError
	if err := json.Unmarshal([]byte(f.Data), &evt); err != nil {
		return classifyError(f, name, err)
	}
	if evt.Error == nil {
		return classifyError(f, name, missingField("error"))
	}
	return &accrue.ServerError{Kind: accrue.ErrorKind(evt.Error.Type), Message: evt.Error.Message}
}

func classifyError(f sse.Frame, name string, err error) error {
	return &accrue.ClassificationError{EventType: name, Payload: f.Data, Err: err}
}

func missingField(field string) error {
	return fmt.Errorf("missing required field %q", field)
}

// isAbsent reports whether a raw field was missing or null.
func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
