package accrue_test

import (
	"encoding/json"
	"testing"

	"github.com/fwojciec/accrue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

func start(id string) accrue.EventMessageStart {
	return accrue.EventMessageStart{Message: accrue.Message{
		ID:    id,
		Role:  accrue.RoleAssistant,
		Model: "claude-test",
		Usage: accrue.Usage{InputTokens: 10, OutputTokens: 1},
	}}
}

func textDelta(index int, text string) accrue.EventContentBlockDelta {
	return accrue.EventContentBlockDelta{Index: index, Delta: accrue.TextDelta{Text: text}}
}

func jsonDelta(index int, fragment string) accrue.EventContentBlockDelta {
	return accrue.EventContentBlockDelta{Index: index, Delta: accrue.InputJSONDelta{PartialJSON: fragment}}
}

func applyAll(t *testing.T, acc *accrue.Accumulator, evts ...accrue.Event) {
	t.Helper()
	for _, e := range evts {
		require.NoError(t, acc.Apply(e))
	}
}

func TestAccumulator_TextMessage(t *testing.T) {
	t.Parallel()
	var acc accrue.Accumulator
	applyAll(t, &acc,
		start("msg_1"),
		accrue.EventContentBlockStart{Index: 0, Block: accrue.TextBlock{}},
		textDelta(0, "Hel"),
		textDelta(0, "lo"),
		accrue.EventContentBlockStop{Index: 0},
		accrue.EventMessageDelta{StopReason: accrue.StopEndTurn, Usage: accrue.UsageDelta{OutputTokens: intPtr(5)}},
		accrue.EventMessageStop{},
	)

	msg, err := acc.Message()
	require.NoError(t, err)
	assert.Equal(t, accrue.Message{
		ID:         "msg_1",
		Role:       accrue.RoleAssistant,
		Model:      "claude-test",
		Content:    []accrue.ContentBlock{accrue.TextBlock{Text: "Hello"}},
		StopReason: accrue.StopEndTurn,
		Usage:      accrue.Usage{InputTokens: 10, OutputTokens: 5},
	}, msg)
}

func TestAccumulator_TextBlockKeepsInitialText(t *testing.T) {
	t.Parallel()
	var acc accrue.Accumulator
	applyAll(t, &acc,
		start("msg_1"),
		accrue.EventContentBlockStart{Index: 0, Block: accrue.TextBlock{Text: "Hi"}},
		textDelta(0, " there"),
		accrue.EventContentBlockStop{Index: 0},
		accrue.EventMessageStop{},
	)
	msg, err := acc.Message()
	require.NoError(t, err)
	assert.Equal(t, "Hi there", msg.Text())
}

func TestAccumulator_ToolUse(t *testing.T) {
	t.Parallel()
	var acc accrue.Accumulator
	applyAll(t, &acc,
		start("msg_1"),
		accrue.EventContentBlockStart{Index: 0, Block: accrue.TextBlock{}},
		textDelta(0, "Checking."),
		accrue.EventContentBlockStop{Index: 0},
		accrue.EventContentBlockStart{Index: 1, Block: accrue.ToolUseBlock{ID: "toolu_1", Name: "get_weather", Input: json.RawMessage(`{}`)}},
		jsonDelta(1, `{"city":`),
		jsonDelta(1, ` "Paris", "days": [1, `),
		jsonDelta(1, `2]}`),
		accrue.EventContentBlockStop{Index: 1},
		accrue.EventMessageDelta{StopReason: accrue.StopToolUse},
		accrue.EventMessageStop{},
	)

	msg, err := acc.Message()
	require.NoError(t, err)
	require.Len(t, msg.Content, 2)
	assert.Equal(t, accrue.StopToolUse, msg.StopReason)
	assert.Equal(t, []accrue.ToolUseBlock{{
		ID:    "toolu_1",
		Name:  "get_weather",
		Input: json.RawMessage(`{"city":"Paris","days":[1,2]}`),
	}}, msg.ToolUses())
}

func TestAccumulator_ToolUseWithoutDeltas(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		initial json.RawMessage
		want    string
	}{
		{name: "empty input", initial: nil, want: `{}`},
		{name: "initial input", initial: json.RawMessage(`{"a": 1}`), want: `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var acc accrue.Accumulator
			applyAll(t, &acc,
				start("msg_1"),
				accrue.EventContentBlockStart{Index: 0, Block: accrue.ToolUseBlock{ID: "toolu_1", Name: "noop", Input: tt.initial}},
				accrue.EventContentBlockStop{Index: 0},
				accrue.EventMessageStop{},
			)
			msg, err := acc.Message()
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(msg.ToolUses()[0].Input))
		})
	}
}

func TestAccumulator_MalformedToolInput(t *testing.T) {
	t.Parallel()
	var acc accrue.Accumulator
	applyAll(t, &acc,
		start("msg_1"),
		accrue.EventContentBlockStart{Index: 0, Block: accrue.ToolUseBlock{ID: "toolu_1", Name: "x"}},
		jsonDelta(0, `{"city": "Par`),
	)
	err := acc.Apply(accrue.EventContentBlockStop{Index: 0})
	var derr *accrue.DecodeError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, 0, derr.Index)
	assert.Equal(t, `{"city": "Par`, derr.Input)
}

func TestAccumulator_MessageDelta(t *testing.T) {
	t.Parallel()
	var acc accrue.Accumulator
	applyAll(t, &acc,
		start("msg_1"),
		accrue.EventMessageDelta{Usage: accrue.UsageDelta{OutputTokens: intPtr(3), CacheReadTokens: intPtr(7)}},
		accrue.EventMessageDelta{
			StopReason:   accrue.StopStopSequence,
			StopSequence: strPtr("END"),
			Usage:        accrue.UsageDelta{OutputTokens: intPtr(9)},
		},
		accrue.EventMessageStop{},
	)
	msg, err := acc.Message()
	require.NoError(t, err)
	assert.Equal(t, accrue.StopStopSequence, msg.StopReason)
	require.NotNil(t, msg.StopSequence)
	assert.Equal(t, "END", *msg.StopSequence)
	assert.Equal(t, accrue.Usage{InputTokens: 10, OutputTokens: 9, CacheReadTokens: 7}, msg.Usage)
}

func TestAccumulator_IgnoresPingUnrecognizedAndUnknownDelta(t *testing.T) {
	t.Parallel()
	var acc accrue.Accumulator
	applyAll(t, &acc,
		start("msg_1"),
		accrue.EventPing{},
		accrue.EventContentBlockStart{Index: 0, Block: accrue.TextBlock{}},
		textDelta(0, "a"),
		accrue.EventContentBlockDelta{Index: 0, Delta: accrue.UnknownDelta{Type: "citations_delta"}},
		accrue.EventUnrecognized{Type: "future_event", Data: json.RawMessage(`{}`)},
		textDelta(0, "b"),
		accrue.EventContentBlockStop{Index: 0},
		accrue.EventMessageStop{},
	)
	msg, err := acc.Message()
	require.NoError(t, err)
	assert.Equal(t, "ab", msg.Text())
}

func TestAccumulator_UnknownBlockPassesThrough(t *testing.T) {
	t.Parallel()
	thinking := accrue.UnknownBlock{Type: "thinking", Data: json.RawMessage(`{"type":"thinking","thinking":""}`)}
	var acc accrue.Accumulator
	applyAll(t, &acc,
		start("msg_1"),
		accrue.EventContentBlockStart{Index: 0, Block: thinking},
		accrue.EventContentBlockDelta{Index: 0, Delta: accrue.UnknownDelta{Type: "thinking_delta"}},
		accrue.EventContentBlockStop{Index: 0},
		accrue.EventMessageStop{},
	)
	msg, err := acc.Message()
	require.NoError(t, err)
	assert.Equal(t, []accrue.ContentBlock{thinking}, msg.Content)
}

func TestAccumulator_DefaultsRole(t *testing.T) {
	t.Parallel()
	var acc accrue.Accumulator
	applyAll(t, &acc,
		accrue.EventMessageStart{Message: accrue.Message{ID: "msg_1"}},
		accrue.EventMessageStop{},
	)
	msg, err := acc.Message()
	require.NoError(t, err)
	assert.Equal(t, accrue.RoleAssistant, msg.Role)
	assert.Equal(t, []accrue.ContentBlock{}, msg.Content)
}

func TestAccumulator_IncompleteMessage(t *testing.T) {
	t.Parallel()
	var acc accrue.Accumulator
	assert.False(t, acc.Started())
	applyAll(t, &acc, start("msg_1"))
	assert.True(t, acc.Started())
	assert.False(t, acc.Complete())

	_, err := acc.Message()
	assert.ErrorIs(t, err, accrue.ErrIncomplete)
}

func TestAccumulator_ProtocolViolations(t *testing.T) {
	t.Parallel()
	openText := []accrue.Event{start("msg_1"), accrue.EventContentBlockStart{Index: 0, Block: accrue.TextBlock{}}}
	openTool := []accrue.Event{start("msg_1"), accrue.EventContentBlockStart{Index: 0, Block: accrue.ToolUseBlock{ID: "t", Name: "n"}}}
	done := []accrue.Event{start("msg_1"), accrue.EventMessageStop{}}

	tests := []struct {
		name   string
		prefix []accrue.Event
		bad    accrue.Event
	}{
		{name: "delta before message_start", bad: textDelta(0, "x")},
		{name: "message_stop before message_start", bad: accrue.EventMessageStop{}},
		{name: "duplicate message_start", prefix: []accrue.Event{start("msg_1")}, bad: start("msg_2")},
		{name: "delta for unopened block", prefix: []accrue.Event{start("msg_1")}, bad: textDelta(0, "x")},
		{name: "stop for unopened block", prefix: []accrue.Event{start("msg_1")}, bad: accrue.EventContentBlockStop{Index: 0}},
		{name: "delta for other index", prefix: openText, bad: textDelta(1, "x")},
		{name: "stop for other index", prefix: openText, bad: accrue.EventContentBlockStop{Index: 1}},
		{name: "nested block start", prefix: openText, bad: accrue.EventContentBlockStart{Index: 1, Block: accrue.TextBlock{}}},
		{name: "sparse index", prefix: []accrue.Event{start("msg_1")}, bad: accrue.EventContentBlockStart{Index: 2, Block: accrue.TextBlock{}}},
		{name: "block without content", prefix: []accrue.Event{start("msg_1")}, bad: accrue.EventContentBlockStart{Index: 0}},
		{name: "json delta for text block", prefix: openText, bad: jsonDelta(0, "{}")},
		{name: "text delta for tool block", prefix: openTool, bad: textDelta(0, "x")},
		{name: "message_stop with open block", prefix: openText, bad: accrue.EventMessageStop{}},
		{name: "event after message_stop", prefix: done, bad: accrue.EventPing{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var acc accrue.Accumulator
			applyAll(t, &acc, tt.prefix...)
			err := acc.Apply(tt.bad)
			var pv *accrue.ProtocolViolation
			require.ErrorAs(t, err, &pv)
			assert.Equal(t, tt.bad, pv.Event)
			assert.NotEmpty(t, pv.Reason)
		})
	}
}

func TestParseToolInput(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		fragments string
		initial   json.RawMessage
		want      string
		wantErr   bool
	}{
		{name: "compacts fragments", fragments: "{ \"a\" : [1, 2] }", want: `{"a":[1,2]}`},
		{name: "fragments win over initial", fragments: `{"b":2}`, initial: json.RawMessage(`{"a":1}`), want: `{"b":2}`},
		{name: "whitespace falls back to initial", fragments: "  ", initial: json.RawMessage(`{"a":1}`), want: `{"a":1}`},
		{name: "empty everything", want: `{}`},
		{name: "truncated", fragments: `{"a":`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := accrue.ParseToolInput(3, tt.fragments, tt.initial)
			if tt.wantErr {
				var derr *accrue.DecodeError
				require.ErrorAs(t, err, &derr)
				assert.Equal(t, 3, derr.Index)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}
