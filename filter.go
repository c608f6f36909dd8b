package accrue

import "errors"

// FilterRateLimit returns a Stream that hides rate_limit_error and
// overloaded_error events from s. The server keeps the connection open while
// it recovers, so the filter only keeps pulling; reconnecting and backing off
// belong to the transport. Every other error, and every event, passes through
// unchanged and in order.
//
// s itself is left untouched, so callers that want to react to rate limiting
// keep using it directly.
func FilterRateLimit(s Stream) Stream {
	return &rateLimitFilter{inner: s}
}

type rateLimitFilter struct {
	inner Stream
}

// Interface compliance check.
var _ Stream = (*rateLimitFilter)(nil)

func (f *rateLimitFilter) Next() (Event, error) {
	for {
		evt, err := f.inner.Next()
		var serr *ServerError
		if errors.As(err, &serr) && serr.Retryable() {
			continue
		}
		return evt, err
	}
}

func (f *rateLimitFilter) State() StreamState { return f.inner.State() }

func (f *rateLimitFilter) Close() error { return f.inner.Close() }
