// Copyright (C) 2017 Michael J. Fromberger. All Rights Reserved.

package channel

import (
	"context"
	"io"

	"github.com/creachadair/linesock"
)

// Socket adapts s to a Channel. Send blocks until the message is written and
// Recv blocks until the next message arrives. Messages have the same framing
// as Line, so either end of a connection may use either kind of channel.
func Socket(s *linesock.Socket) Channel { return sock{s: s} }

// Async constructs a Channel from a *linesock.Socket on r and wc, using the
// default socket options.
func Async(r io.Reader, wc io.WriteCloser) Channel {
	return Socket(linesock.New(linesock.Join(r, wc), nil))
}

// sock implements Channel on a socket.
type sock struct {
	s *linesock.Socket
}

// Send implements part of Channel.
func (c sock) Send(msg []byte) error {
	return c.s.SendWait(context.Background(), string(frame(msg)))
}

// Recv implements part of Channel.
func (c sock) Recv() ([]byte, error) {
	msg, err := c.s.ReceiveWait(context.Background())
	if err != nil {
		return nil, err
	}
	return []byte(msg), nil
}

// Close implements part of Channel.
func (c sock) Close() error { return c.s.Close() }
