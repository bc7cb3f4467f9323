// Copyright (C) 2017 Michael J. Fromberger. All Rights Reserved.

package channel

import (
	"io"
	"net"
)

// Framing is the common signature of Line and Async: it wraps the two halves
// of a byte stream in a Channel.
type Framing func(io.Reader, io.WriteCloser) Channel

// Pipe returns two channels joined by a synchronous in-memory connection (see
// net.Pipe), each built with f. Whatever one end sends, the other receives,
// and closing either end is end of input for the other.
func Pipe(f Framing) (Channel, Channel) {
	a, b := net.Pipe()
	return f(a, a), f(b, b)
}
