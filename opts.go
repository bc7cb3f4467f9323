// Copyright (C) 2017 Michael J. Fromberger. All Rights Reserved.

package linesock

import (
	"fmt"
	"io"
	"log"

	"github.com/creachadair/linesock/dispatch"
	"golang.org/x/text/encoding/unicode"
)

const logFlags = log.LstdFlags | log.Lshortfile

// DefaultReadSize is the number of bytes requested by each raw read when
// Options.ReadSize is not set.
const DefaultReadSize = 4096

// Options control the behaviour of a socket created by New.
// A nil *Options provides sensible defaults.
type Options struct {
	// If not nil, send debug logs to this writer.
	LogWriter io.Writer

	// The codec used to encode outgoing and decode incoming messages.
	// If nil, the socket uses UTF-8.
	Codec Codec

	// If not nil, completion callbacks are scheduled here. By default the
	// socket uses the process-wide pool returned by dispatch.Default.
	Dispatcher Dispatcher

	// The maximum number of bytes to request from the connection in a single
	// read. A value less than 1 uses DefaultReadSize.
	ReadSize int
}

func (o *Options) logFunc() func(string, ...any) {
	if o == nil || o.LogWriter == nil {
		return func(string, ...any) {}
	}
	logger := log.New(o.LogWriter, "[linesock] ", logFlags)
	return func(msg string, args ...any) { logger.Output(2, fmt.Sprintf(msg, args...)) }
}

func (o *Options) codec() Codec {
	if o == nil || o.Codec == nil {
		return unicode.UTF8
	}
	return o.Codec
}

func (o *Options) dispatcher() Dispatcher {
	if o == nil || o.Dispatcher == nil {
		return dispatch.Default()
	}
	return o.Dispatcher
}

func (o *Options) readSize() int {
	if o == nil || o.ReadSize < 1 {
		return DefaultReadSize
	}
	return o.ReadSize
}
