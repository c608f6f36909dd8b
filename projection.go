package accrue

import (
	"encoding/json"
	"strings"
)

// TextFragment is one text delta and the index of the block it belongs to.
type TextFragment struct {
	Index int
	Text  string
}

// TextStream projects a Stream onto its text deltas.
// Every other event is dropped; errors pass through unchanged so a caller
// reading only text still sees failures. Next returns io.EOF when the
// underlying stream does.
type TextStream struct {
	inner Stream
}

// NewTextStream returns a text projection of s.
func NewTextStream(s Stream) *TextStream {
	return &TextStream{inner: s}
}

// Next returns the next text fragment.
func (t *TextStream) Next() (TextFragment, error) {
	for {
		evt, err := t.inner.Next()
		if err != nil {
			return TextFragment{}, err
		}
		e, ok := evt.(EventContentBlockDelta)
		if !ok {
			continue
		}
		if d, ok := e.Delta.(TextDelta); ok {
			return TextFragment{Index: e.Index, Text: d.Text}, nil
		}
	}
}

// Close closes the underlying stream.
func (t *TextStream) Close() error { return t.inner.Close() }

// ToolInput is one step of a tool use block's input.
// While Done is false, Fragment holds the next partial JSON piece. The final
// value for a block has Done set and Input holding the parsed, compact JSON.
type ToolInput struct {
	Index    int
	ID       string
	Name     string
	Fragment string
	Input    json.RawMessage
	Done     bool
}

// ToolInputStream projects a Stream onto the input of its tool use blocks.
// Events of other blocks are dropped; errors pass through unchanged.
type ToolInputStream struct {
	inner Stream
	tools map[int]*toolState
}

type toolState struct {
	id      string
	name    string
	initial json.RawMessage
	buf     strings.Builder
}

// NewToolInputStream returns a tool input projection of s.
func NewToolInputStream(s Stream) *ToolInputStream {
	return &ToolInputStream{inner: s, tools: make(map[int]*toolState)}
}

// Next returns the next fragment or finished input. A finished input that is
// not valid JSON is reported as *DecodeError.
func (t *ToolInputStream) Next() (ToolInput, error) {
	for {
		evt, err := t.inner.Next()
		if err != nil {
			return ToolInput{}, err
		}
		switch e := evt.(type) {
		case EventContentBlockStart:
			if tu, ok := e.Block.(ToolUseBlock); ok {
				t.tools[e.Index] = &toolState{id: tu.ID, name: tu.Name, initial: tu.Input}
			}
		case EventContentBlockDelta:
			ts, ok := t.tools[e.Index]
			if !ok {
				continue
			}
			d, ok := e.Delta.(InputJSONDelta)
			if !ok {
				continue
			}
			ts.buf.WriteString(d.PartialJSON)
			return ToolInput{Index: e.Index, ID: ts.id, Name: ts.name, Fragment: d.PartialJSON}, nil
		case EventContentBlockStop:
			ts, ok := t.tools[e.Index]
			if !ok {
				continue
			}
			delete(t.tools, e.Index)
			input, err := ParseToolInput(e.Index, ts.buf.String(), ts.initial)
			if err != nil {
				return ToolInput{}, err
			}
			return ToolInput{Index: e.Index, ID: ts.id, Name: ts.name, Input: input, Done: true}, nil
		}
	}
}

// Close closes the underlying stream.
func (t *ToolInputStream) Close() error { return t.inner.Close() }
