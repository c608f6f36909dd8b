// Package anthropic reads Anthropic Messages API event streams.
//
// It classifies server-sent event frames into [accrue.Event] values and
// exposes them through the pull-based [accrue.Stream] interface. [Client] is
// the thin HTTP transport that opens such streams; building the request body
// is left to the caller.
package anthropic

import "encoding/json"

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
	messagesPath   = "/v1/messages"
)

// SSE payload types. Fields the classifier requires are pointers or raw
// messages so that absence can be told apart from zero values.

type sseEnvelope struct {
	Type string `json:"type"`
}

type sseMessageStart struct {
	Message json.RawMessage `json:"message"`
}

type sseContentBlockStart struct {
	Index        *int            `json:"index"`
	ContentBlock json.RawMessage `json:"content_block"`
}

type sseContentBlockDelta struct {
	Index *int            `json:"index"`
	Delta json.RawMessage `json:"delta"`
}

type sseDelta struct {
	Type        string  `json:"type"`
	Text        *string `json:"text"`
	PartialJSON *string `json:"partial_json"`
}

type sseContentBlockStop struct {
	Index *int `json:"index"`
}

type sseMessageDelta struct {
	Delta sseMessageDeltaVal `json:"delta"`
	Usage sseDeltaUsage      `json:"usage"`
}

type sseMessageDeltaVal struct {
	StopReason   *string `json:"stop_reason"`
	StopSequence *string `json:"stop_sequence"`
}

// sseDeltaUsage is used in message_delta events.
// Any field may be absent or null.
type sseDeltaUsage struct {
	OutputTokens             *int `json:"output_tokens"`
	InputTokens              *int `json:"input_tokens"`
	CacheCreationInputTokens *int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     *int `json:"cache_read_input_tokens"`
}

type sseError struct {
	Error *sseErrorDetail `json:"error"`
}

type sseErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// apiErrorResponse is the JSON body returned on non-200 HTTP responses.
type apiErrorResponse struct {
	Type  string         `json:"type"`
	Error sseErrorDetail `json:"error"`
}
