package anthropic

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fwojciec/accrue"
	"github.com/fwojciec/accrue/sse"
	"github.com/rs/zerolog"
)

// stream implements [accrue.Stream] by decoding and classifying SSE frames
// from a response body, one frame per pull.
type stream struct {
	body  io.ReadCloser
	dec   *sse.Decoder
	ctx   context.Context
	log   zerolog.Logger
	state accrue.StreamState
	err   error // terminal error, if any
}

// Interface compliance check.
var _ accrue.Stream = (*stream)(nil)

// StreamOption configures a stream created by [NewStream].
type StreamOption func(*stream)

// WithStreamLogger sets the logger for frame tracing and stream failures.
func WithStreamLogger(l zerolog.Logger) StreamOption {
	return func(s *stream) { s.log = l }
}

// NewStream returns an [accrue.Stream] reading server-sent events from body.
// ctx should be the context the body was opened with; it is used to report
// cancellation. The stream owns body and closes it on Close.
func NewStream(ctx context.Context, body io.ReadCloser, opts ...StreamOption) accrue.Stream {
	s := &stream{
		body:  body,
		dec:   sse.NewDecoder(body),
		ctx:   ctx,
		log:   zerolog.Nop(),
		state: accrue.StreamStateNew,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Next reads the next classified event from the SSE stream.
// Returns io.EOF after message_stop has been returned. Rate-limit and
// overloaded error events are returned without ending the stream; every
// other error event is terminal.
func (s *stream) Next() (accrue.Event, error) {
	switch s.state {
	case accrue.StreamStateComplete:
		return nil, io.EOF
	case accrue.StreamStateError:
		return nil, s.err
	case accrue.StreamStateClosed:
		return nil, fmt.Errorf("anthropic: %w", accrue.ErrStreamClosed)
	}

	for {
		frame, err := s.dec.Next()
		if err != nil {
			s.terminate(err)
			return nil, s.err
		}
		s.state = accrue.StreamStateStreaming
		s.log.Trace().Str("event", frame.Event).Int("bytes", len(frame.Data)).Msg("frame")

		evt, err := ParseEvent(frame)
		if err != nil {
			var serr *accrue.ServerError
			if errors.As(err, &serr) {
				s.log.Warn().Str("kind", string(serr.Kind)).Str("message", serr.Message).Msg("server error event")
				if serr.Retryable() {
					// The server keeps the stream open while it recovers.
					return nil, fmt.Errorf("anthropic: %w", err)
				}
			}
			s.terminate(err)
			return nil, s.err
		}

		switch evt.(type) {
		case accrue.EventPing:
			continue
		case accrue.EventMessageStop:
			s.state = accrue.StreamStateComplete
		}
		return evt, nil
	}
}

// State returns the current stream state.
func (s *stream) State() accrue.StreamState {
	return s.state
}

// Close closes the underlying response body.
func (s *stream) Close() error {
	if s.state != accrue.StreamStateComplete && s.state != accrue.StreamStateError {
		s.state = accrue.StreamStateClosed
	}
	return s.body.Close()
}

// terminate records a terminal error and moves the stream to the error state.
func (s *stream) terminate(err error) {
	switch {
	case s.ctx.Err() != nil:
		err = &accrue.TransportError{Err: s.ctx.Err()}
	case err == io.EOF:
		// message_stop sets StreamStateComplete before we get here, so a raw
		// EOF means the stream ended early.
		err = &accrue.TransportError{Err: io.ErrUnexpectedEOF}
	}
	s.state = accrue.StreamStateError
	s.err = fmt.Errorf("anthropic: %w", err)
	s.log.Debug().Err(s.err).Msg("stream failed")
}
