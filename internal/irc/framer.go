package irc

import (
	"bytes"
	"strings"
)

var crlf = []byte("\r\n")

// Framer splits a byte stream into protocol lines. Only the trailing
// partial line is kept between calls to Feed.
type Framer struct {
	buf []byte
}

// Feed appends p to the receive buffer and returns every line completed
// by it, without terminators. Blank and whitespace-only lines are dropped.
func (f *Framer) Feed(p []byte) []string {
	f.buf = append(f.buf, p...)

	var complete []byte
	if bytes.HasSuffix(f.buf, crlf) {
		complete = f.buf
		f.buf = nil
	} else {
		idx := bytes.LastIndex(f.buf, crlf)
		if idx < 0 {
			return nil
		}
		complete = f.buf[:idx+len(crlf)]
		// Copy the remainder so the consumed prefix can be collected.
		f.buf = append([]byte(nil), f.buf[idx+len(crlf):]...)
	}

	var lines []string
	for _, raw := range bytes.Split(complete, crlf) {
		line := string(raw)
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// Buffered returns the number of bytes held as a partial line.
func (f *Framer) Buffered() int {
	return len(f.buf)
}

// Reset discards any partial line.
func (f *Framer) Reset() {
	f.buf = nil
}
