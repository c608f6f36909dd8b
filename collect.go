package accrue

import (
	"context"
	"io"
)

// Collect drains s into an Accumulator and returns the complete message.
//
// Collect owns s and closes it before returning. The first error aborts
// accumulation and no partial message is returned. A stream that ends before
// message_stop yields a *TransportError wrapping io.ErrUnexpectedEOF. ctx is
// checked between pulls; cancelling it while a read blocks relies on the
// stream having been opened with the same context.
func Collect(ctx context.Context, s Stream) (msg Message, err error) {
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			msg, err = Message{}, &TransportError{Err: cerr}
		}
	}()

	var acc Accumulator
	for {
		if err := ctx.Err(); err != nil {
			return Message{}, &TransportError{Err: err}
		}
		evt, err := s.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Message{}, err
		}
		if err := acc.Apply(evt); err != nil {
			return Message{}, err
		}
		if acc.Complete() {
			break
		}
	}
	if !acc.Complete() {
		return Message{}, &TransportError{Err: io.ErrUnexpectedEOF}
	}
	return acc.Message()
}
