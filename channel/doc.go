// Copyright (C) 2017 Michael J. Fromberger. All Rights Reserved.

// Package channel defines blocking message channels over newline framing.
//
// A Channel sends and receives whole messages, one call at a time. Line
// implements a Channel directly on a reader and a writer; Socket and Async
// adapt the asynchronous *linesock.Socket to the same interface, so the two
// can be used interchangeably on either end of a connection.
package channel

// A Channel represents the ability to transmit and receive data records.  A
// channel does not interpret the contents of a record, but may add and remove
// framing so that records can be embedded in higher-level protocols.  The
// methods of a Channel need not be safe for concurrent use.
type Channel interface {
	// Send transmits a record on the channel.
	Send([]byte) error

	// Recv returns the next available record from the channel.  If no further
	// messages are available, it returns io.EOF.
	Recv() ([]byte, error)

	// Close shuts down the channel, after which no further records may be
	// sent or received.
	Close() error
}
