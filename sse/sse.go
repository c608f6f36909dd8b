// Package sse splits a server-sent event byte stream into frames.
//
// Frames are assembled on the caller's goroutine, one line at a time, so a
// Decoder never reads ahead of the frame being returned. Keep-alive records
// without data are dropped, payloads must be valid UTF-8, and errors are
// typed as accrue transport or protocol errors.
package sse

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/accrue"
)

const (
	initialBufSize = 64 * 1024
	maxLineSize    = 8 * 1024 * 1024
)

// Frame is one complete server-sent event record.
type Frame struct {
	// Event is the value of the "event:" field. Empty when the record had none.
	Event string

	// Data is the concatenation of all "data:" lines, joined with "\n".
	Data string

	// ID is the value of the "id:" field, if present.
	ID string
}

// Decoder reads frames from a byte stream. Reads may split records at any
// byte; a frame is only returned once its terminating blank line arrives.
type Decoder struct {
	scanner *bufio.Scanner

	event   string
	id      string
	data    strings.Builder
	hasData bool
	pending bool // field lines seen since the last blank line
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, initialBufSize), maxLineSize)
	scanner.Split(scanLines)
	return &Decoder{scanner: scanner}
}

// Next returns the next frame with a data payload. It returns io.EOF when r
// is exhausted between records. A record cut off by the end of input is
// never returned; it surfaces as *accrue.TransportError wrapping
// io.ErrUnexpectedEOF.
func (d *Decoder) Next() (Frame, error) {
	for d.scanner.Scan() {
		line := d.scanner.Text()
		if line == "" {
			f, ok := d.dispatch()
			if !ok {
				// Comment-only or keep-alive record.
				continue
			}
			if !utf8.ValidString(f.Data) {
				return Frame{}, &accrue.ProtocolError{Reason: "payload of " + eventName(f.Event) + " is not valid UTF-8"}
			}
			return f, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		d.parseLine(line)
	}

	err := d.scanner.Err()
	switch {
	case errors.Is(err, bufio.ErrTooLong):
		return Frame{}, &accrue.ProtocolError{Reason: fmt.Sprintf("line longer than %d bytes", maxLineSize), Err: err}
	case err != nil:
		return Frame{}, &accrue.TransportError{Err: err}
	case d.pending:
		return Frame{}, &accrue.TransportError{Err: io.ErrUnexpectedEOF}
	}
	return Frame{}, io.EOF
}

// parseLine records one "field:value" line. A single space after the colon
// is stripped; a line without a colon is a field with an empty value.
func (d *Decoder) parseLine(line string) {
	d.pending = true
	field, value, _ := strings.Cut(line, ":")
	value = strings.TrimPrefix(value, " ")

	switch field {
	case "event":
		d.event = value
	case "data":
		if d.hasData {
			d.data.WriteByte('\n')
		}
		d.data.WriteString(value)
		d.hasData = true
	case "id":
		if !strings.ContainsRune(value, 0) {
			d.id = value
		}
	}
	// "retry" and unknown fields are ignored.
}

// dispatch ends the current record. It reports false when the record
// carried no data.
func (d *Decoder) dispatch() (Frame, bool) {
	f := Frame{Event: d.event, Data: d.data.String(), ID: d.id}
	d.event, d.id = "", ""
	d.data.Reset()
	d.hasData, d.pending = false, false
	return f, f.Data != ""
}

// scanLines is a bufio.SplitFunc for SSE line endings: CRLF, LF or a lone
// CR. A final line without a terminator is still returned at EOF.
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		// A trailing CR may be the first half of CRLF.
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func eventName(name string) string {
	if name == "" {
		return "unnamed event"
	}
	return name
}
