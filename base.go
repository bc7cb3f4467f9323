// Copyright (C) 2017 Michael J. Fromberger. All Rights Reserved.

package linesock

import (
	"io"

	"golang.org/x/text/encoding"
)

// A Conn is the duplex byte stream underlying a Socket. Once a Conn has been
// given to New, the caller must not read from or write to it directly.
//
// If a Conn also implements CloseRead or CloseWrite (as *net.TCPConn and
// *net.UnixConn do), Close shuts down each direction before closing.
type Conn interface {
	io.Reader
	io.Writer
	io.Closer
}

// A Codec converts message text to and from its byte encoding on the wire.
// Any encoding from golang.org/x/text/encoding is a valid Codec.
type Codec = encoding.Encoding

// A Dispatcher runs completion callbacks on goroutines other than the ones
// that drive socket I/O. A *dispatch.Pool is a Dispatcher.
//
// Go must not block waiting for task to run.
type Dispatcher interface {
	Go(task func())
}

// A SendFunc is called when a message has been written (err == nil) or has
// failed (err != nil). The payload is the value passed to Send.
type SendFunc func(err error, payload any)

// A ReceiveFunc is called with the next message from the peer. Exactly one of
// msg and err is meaningful: on success err == nil and msg is the message text
// without its terminating newline. When the peer has finished sending, err ==
// io.EOF. If a line could not be decoded, err reports that in its place.  Any
// other error is a failure of the connection. The payload is the value passed
// to Receive.
type ReceiveFunc func(msg string, err error, payload any)

// A sendRequest is a message waiting in the send queue.
type sendRequest struct {
	text       string
	onComplete SendFunc
	payload    any
}

// A recvRequest is a caller waiting in the receive queue.
type recvRequest struct {
	onComplete ReceiveFunc
	payload    any
}

// A received is the result of a receive request: a message, or an error in
// place of one.
type received struct {
	msg string
	err error
}

// joinConn combines a separate reader and writer into a Conn.  Close closes
// the writer, and also the reader if it implements io.Closer.
type joinConn struct {
	io.Reader
	io.WriteCloser
}

// Join returns a Conn that reads from r and writes to wc.
func Join(r io.Reader, wc io.WriteCloser) Conn { return joinConn{Reader: r, WriteCloser: wc} }

func (j joinConn) Close() error {
	err := j.WriteCloser.Close()
	if c, ok := j.Reader.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
