// Package accrue folds streamed Messages API events into complete messages.
//
// The root package holds the domain types, the Accumulator, and the stream
// transforms. Wire decoding lives in sse and anthropic.
package accrue

// StreamState indicates the current state of a Stream.
type StreamState int

const (
	StreamStateNew       StreamState = iota // Before Next() is ever called.
	StreamStateStreaming                    // Mid-stream, receiving events.
	StreamStateComplete                     // message_stop was returned.
	StreamStateError                        // Next() returned a fatal error.
	StreamStateClosed                       // Close() called before terminal state.
)

// Stream is a pull-based sequence of classified events for one completion.
// Cancellation flows through the context the stream was opened with.
//
// Next returns events in wire order. After EventMessageStop it returns
// io.EOF. A retryable *ServerError (rate_limit_error, overloaded_error)
// returned by Next is not terminal: the stream keeps reading, which is what
// FilterRateLimit relies on. Any other error, including every other
// *ServerError kind, is terminal and is returned again by every later call.
//
// Close releases the transport. Closing before message_stop is a normal
// outcome and moves the stream to StreamStateClosed; later Next calls return
// ErrStreamClosed.
type Stream interface {
	Next() (Event, error)
	State() StreamState
	Close() error
}
