// Copyright (C) 2017 Michael J. Fromberger. All Rights Reserved.

package channel

import (
	"bufio"
	"bytes"
	"io"
)

// Line constructs a Channel that transmits and receives messages on r and wc
// with line framing. Each message is terminated by a Unicode LF (10), and LF
// are stripped from outbound messages.
func Line(r io.Reader, wc io.WriteCloser) Channel {
	return line{wc: wc, buf: bufio.NewReader(r)}
}

// line implements Channel. Messages sent on a line channel are framed by
// terminating newlines.
type line struct {
	wc  io.WriteCloser
	buf *bufio.Reader
}

// Send implements part of Channel.
func (c line) Send(msg []byte) error {
	_, err := c.wc.Write(frame(msg))
	return err
}

// frame returns a copy of msg without any LF, terminated by a single LF.
func frame(msg []byte) []byte {
	out := make([]byte, 0, len(msg)+1)
	for {
		i := bytes.IndexByte(msg, '\n')
		if i < 0 {
			break
		}
		out = append(out, msg[:i]...)
		msg = msg[i+1:]
	}
	out = append(out, msg...)
	return append(out, '\n')
}

// Recv implements part of Channel. A partial line at the end of the input is
// discarded, since it was never terminated.
func (c line) Recv() ([]byte, error) {
	var buf bytes.Buffer
	for {
		chunk, err := c.buf.ReadSlice('\n')
		buf.Write(chunk)
		if err == bufio.ErrBufferFull {
			continue // incomplete line
		} else if err != nil {
			return nil, err
		}
		line := buf.Bytes()
		return line[:len(line)-1], nil
	}
}

// Close implements part of Channel.
func (c line) Close() error { return c.wc.Close() }
