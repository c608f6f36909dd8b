package accrue

import "encoding/json"

// Event is a sealed interface representing one classified stream event.
// Server-reported errors are not events: they come from Next()'s error
// return as *ServerError so that callers can use errors.As on them.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventMessageStart opens the stream. Message is the response shell with
// empty content.
type EventMessageStart struct {
	Message Message
}

func (EventMessageStart) event() {}

// EventContentBlockStart opens the content block at Index with its initial
// value (empty text, tool use with empty input, image, ...).
type EventContentBlockStart struct {
	Index int
	Block ContentBlock
}

func (EventContentBlockStart) event() {}

// EventContentBlockDelta carries an incremental update for the block at Index.
type EventContentBlockDelta struct {
	Index int
	Delta Delta
}

func (EventContentBlockDelta) event() {}

// EventContentBlockStop finalizes the block at Index.
type EventContentBlockStop struct {
	Index int
}

func (EventContentBlockStop) event() {}

// EventMessageDelta updates top-level message fields.
// StopReason is empty and StopSequence nil when the server did not send them.
type EventMessageDelta struct {
	StopReason   StopReason
	StopSequence *string
	Usage        UsageDelta
}

func (EventMessageDelta) event() {}

// EventMessageStop terminates the stream.
type EventMessageStop struct{}

func (EventMessageStop) event() {}

// EventPing is a keep-alive with no semantic content.
type EventPing struct{}

func (EventPing) event() {}

// EventUnrecognized is an event type this package does not know. Data holds
// the raw payload.
type EventUnrecognized struct {
	Type string
	Data json.RawMessage
}

func (EventUnrecognized) event() {}

// Delta is a sealed interface representing the payload of a
// content_block_delta event.
type Delta interface {
	delta()
}

// TextDelta appends text to a TextBlock.
type TextDelta struct {
	Text string
}

func (TextDelta) delta() {}

// InputJSONDelta appends a partial JSON fragment to a ToolUseBlock's input.
type InputJSONDelta struct {
	PartialJSON string
}

func (InputJSONDelta) delta() {}

// UnknownDelta is a delta kind this package does not know.
type UnknownDelta struct {
	Type string
	Data json.RawMessage
}

func (UnknownDelta) delta() {}

// Interface compliance checks.
var (
	_ Event = EventMessageStart{}
	_ Event = EventContentBlockStart{}
	_ Event = EventContentBlockDelta{}
	_ Event = EventContentBlockStop{}
	_ Event = EventMessageDelta{}
	_ Event = EventMessageStop{}
	_ Event = EventPing{}
	_ Event = EventUnrecognized{}

	_ Delta = TextDelta{}
	_ Delta = InputJSONDelta{}
	_ Delta = UnknownDelta{}
)
