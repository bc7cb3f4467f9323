// Copyright (C) 2017 Michael J. Fromberger. All Rights Reserved.

package linesock

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// ErrClosed is reported to the callbacks of requests that were queued on, or
// submitted to, a socket that has been closed or whose connection has failed.
var ErrClosed = errors.New("socket is closed")

// isFatal reports whether err means the connection can no longer carry data
// in either direction, so that no further I/O should be attempted.
func isFatal(err error) bool {
	return errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET)
}
