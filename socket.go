// Copyright (C) 2017 Michael J. Fromberger. All Rights Reserved.

package linesock

import (
	"sync"
	"sync/atomic"

	"github.com/creachadair/mds/queue"
	"golang.org/x/text/encoding"
)

// A Socket transmits and receives newline-delimited text messages over a
// Conn. Send and Receive queue their requests and return at once; the result
// of each request is reported to its callback, which runs on the socket's
// Dispatcher.
//
// Messages are written in the order their Send calls were admitted, and
// receive requests are matched to incoming messages in the order the Receive
// calls were admitted. Callbacks are scheduled in the same orders, but may
// finish in any order.
//
// A *Socket is safe for concurrent use by multiple goroutines.
type Socket struct {
	conn  Conn
	codec Codec
	disp  Dispatcher
	log   func(string, ...any) // write debug logs here
	stats socketStats

	closed atomic.Bool // set once by Close

	smu     sync.Mutex // protects the send fields below
	sending bool       // a message is being written
	sendq   *queue.Queue[*sendRequest]
	enc     *encoding.Encoder // used only by the goroutine driving the head

	rmu      sync.Mutex // protects the receive fields below
	reading  bool       // a raw read is in flight
	eof      bool       // the peer has finished sending
	skipping bool       // discard input through the next newline
	reqs     *queue.Queue[*recvRequest]
	pending  *queue.Queue[received] // complete messages awaiting a request
	acc      []byte                 // decoded text of the current partial line
	dec      *streamDecoder
	rbuf     []byte // chunk buffer for raw reads
}

// New constructs a socket that takes ownership of conn. No handshake is
// performed. This function will panic if conn == nil.
func New(conn Conn, opts *Options) *Socket {
	if conn == nil {
		panic("nil connection")
	}
	codec := opts.codec()
	s := &Socket{
		conn:    conn,
		codec:   codec,
		disp:    opts.dispatcher(),
		log:     opts.logFunc(),
		sendq:   queue.New[*sendRequest](),
		enc:     codec.NewEncoder(),
		reqs:    queue.New[*recvRequest](),
		pending: queue.New[received](),
		dec:     newStreamDecoder(codec),
		rbuf:    make([]byte, opts.readSize()),
	}
	socketsActiveGauge.Add(1)
	return s
}

// Connected reports whether s is still open, that is, Close has not been
// called and the connection has not failed.
func (s *Socket) Connected() bool { return !s.closed.Load() }

// Stats returns a snapshot of the counters for s.
func (s *Socket) Stats() Stats { return s.stats.snapshot() }

// Close shuts down both directions of the connection and closes it. Requests
// still pending when Close is called fail with an error, as do any requests
// made afterward. It is safe to call Close multiple times or from concurrent
// goroutines; only the first call has any effect, and later calls report nil.
func (s *Socket) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.log("Closing connection")
	socketsActiveGauge.Add(-1)

	// Half-close errors are not interesting: the connection may already be
	// shut down in either direction by the peer.
	if c, ok := s.conn.(interface{ CloseRead() error }); ok {
		c.CloseRead()
	}
	if c, ok := s.conn.(interface{ CloseWrite() error }); ok {
		c.CloseWrite()
	}
	err := s.conn.Close()

	// An in-flight write fails when the connection closes, and the send
	// pipeline drains itself. Receive requests may be waiting with no read
	// in flight, so fail them here.
	s.rmu.Lock()
	s.dispatchLocked()
	s.rmu.Unlock()
	return err
}

// fail closes s after a fatal connection error.
func (s *Socket) fail(err error) {
	s.log("Connection failed: %v", err)
	s.Close()
}
