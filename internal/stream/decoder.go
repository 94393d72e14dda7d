// Package stream decodes the chat portal's streaming response protocol:
// a line-oriented event stream over a chunked response body, where each
// frame is a "data: ..." line and "[DONE]" terminates the stream.
package stream

import (
	"bytes"
	"strings"
)

const (
	framePrefix  = "data: "
	doneSentinel = "[DONE]"
)

// FrameDecoder reassembles protocol frames from successive body chunks.
// Chunks may split a frame anywhere, including in the middle of a
// multi-byte character: the decoder buffers raw bytes and only emits
// complete newline-terminated lines, so a partial rune simply stays
// buffered until its remaining bytes arrive.
//
// The zero value is ready to use. Not safe for concurrent use.
type FrameDecoder struct {
	buf  []byte
	done bool
}

// Feed appends a chunk and returns the payloads of all frames completed
// by it, plus whether the terminal "[DONE]" sentinel was seen. The
// sentinel itself is never returned as a frame, and no frames are
// emitted after it.
func (d *FrameDecoder) Feed(chunk []byte) ([]string, bool) {
	if d.done {
		return nil, true
	}
	d.buf = append(d.buf, chunk...)

	var frames []string
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			return frames, false
		}
		line := strings.TrimSuffix(string(d.buf[:i]), "\r")
		d.buf = d.buf[i+1:]

		// Non-data lines are protocol comments or keepalives.
		if !strings.HasPrefix(line, framePrefix) {
			continue
		}
		payload := line[len(framePrefix):]
		if payload == doneSentinel {
			d.done = true
			d.buf = nil
			return frames, true
		}
		frames = append(frames, payload)
	}
}

// Done reports whether the terminal sentinel has been seen.
func (d *FrameDecoder) Done() bool {
	return d.done
}

// Close discards any unterminated trailing data. A partial line left at
// end-of-input is incomplete and unusable; it is never emitted as a frame.
func (d *FrameDecoder) Close() {
	d.buf = nil
}
