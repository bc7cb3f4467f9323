// Copyright (C) 2017 Michael J. Fromberger. All Rights Reserved.

package channel_test

import (
	"io"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/creachadair/linesock"
	"github.com/creachadair/linesock/channel"
	"github.com/creachadair/linesock/internal/testutil"
	"github.com/fortytw2/leaktest"
)

// mixedPipe creates a pair of connected in-memory channels, with the client
// using one framing and the server another.
func mixedPipe(cf, sf channel.Framing) (client, server channel.Channel) {
	cr, sw := io.Pipe()
	sr, cw := io.Pipe()
	return cf(cr, cw), sf(sr, sw)
}

func testSendRecv(t *testing.T, s, r channel.Channel, msg string) {
	t.Helper()

	var wg sync.WaitGroup
	var sendErr, recvErr error
	var data []byte

	wg.Add(2)
	go func() {
		defer wg.Done()
		data, recvErr = r.Recv()
	}()
	go func() {
		defer wg.Done()
		sendErr = s.Send([]byte(msg))
	}()
	wg.Wait()

	if sendErr != nil {
		t.Errorf("Send(%q): unexpected error: %v", msg, sendErr)
	}
	if recvErr != nil {
		t.Errorf("Recv(): unexpected error: %v", recvErr)
	}
	if got := string(data); got != msg {
		t.Errorf("Recv():\ngot  %#q\nwant %#q", got, msg)
	}
}

var tests = []struct {
	name           string
	client, server channel.Framing
}{
	{"Line", channel.Line, channel.Line},
	{"Async", channel.Async, channel.Async},
	{"LineAsync", channel.Line, channel.Async},
	{"AsyncLine", channel.Async, channel.Line},
}

var messages = []string{
	"Full plate and packing steel",
	"Jump on your sword, evil!",
	"    ",
	"xy z z y",
	"\r",
	"café ✓",

	// Include a long message to ensure size-dependent cases get exercised.
	strings.Repeat("ABCDefghIJKLmnopQRSTuvwxYZ!", 8000) + "END",
}

func TestChannelTypes(t *testing.T) {
	defer leaktest.Check(t)()

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			lhs, rhs := mixedPipe(test.client, test.server)
			defer lhs.Close()
			defer rhs.Close()

			for i, msg := range messages {
				n := strconv.Itoa(i + 1)
				t.Run("LR-"+n, func(t *testing.T) {
					testSendRecv(t, lhs, rhs, msg)
				})
				t.Run("RL-"+n, func(t *testing.T) {
					testSendRecv(t, rhs, lhs, msg)
				})
			}
		})
	}
}

func TestEmptyMessage(t *testing.T) {
	defer leaktest.Check(t)()

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			lhs, rhs := mixedPipe(test.client, test.server)
			defer lhs.Close()
			defer rhs.Close()

			testSendRecv(t, lhs, rhs, "")
		})
	}
}

func TestNewlinesStripped(t *testing.T) {
	defer leaktest.Check(t)()

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			lhs, rhs := mixedPipe(test.client, test.server)
			defer lhs.Close()
			defer rhs.Close()

			go lhs.Send([]byte("one\ntwo\n\nthree\n"))
			got, err := rhs.Recv()
			if err != nil {
				t.Fatalf("Recv: unexpected error: %v", err)
			}
			if string(got) != "onetwothree" {
				t.Errorf("Recv: got %q, want %q", got, "onetwothree")
			}
		})
	}
}

func TestEndOfInput(t *testing.T) {
	defer leaktest.Check(t)()

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cr, sw := io.Pipe()
			_, cw := io.Pipe()
			ch := test.client(cr, cw)
			defer ch.Close()

			// A complete line followed by a partial one, then end of input.
			go func() {
				sw.Write([]byte("whole\npart"))
				sw.Close()
			}()
			if got, err := ch.Recv(); err != nil || string(got) != "whole" {
				t.Errorf("Recv: got (%q, %v), want whole", got, err)
			}
			for i := 0; i < 2; i++ {
				if got, err := ch.Recv(); err != io.EOF {
					t.Errorf("Recv: got (%q, %v), want %v", got, err, io.EOF)
				}
			}
		})
	}
}

func TestSocketChannel(t *testing.T) {
	defer leaktest.Check(t)()

	c, s := testutil.Loopback(t)
	lhs := channel.Socket(linesock.New(c, nil))
	rhs := channel.Line(s, s)
	defer lhs.Close()

	for _, msg := range messages {
		testSendRecv(t, lhs, rhs, msg)
		testSendRecv(t, rhs, lhs, msg)
	}

	// Closing the socket is seen by the peer as end of input.
	lhs.Close()
	if got, err := rhs.Recv(); err != io.EOF {
		t.Errorf("Recv after close: got (%q, %v), want %v", got, err, io.EOF)
	}
	if err := lhs.Send([]byte("nonsense")); err != linesock.ErrClosed {
		t.Errorf("Send after close: got %v, want %v", err, linesock.ErrClosed)
	}
}

func TestPipe(t *testing.T) {
	defer leaktest.Check(t)()

	for _, test := range []struct {
		name    string
		framing channel.Framing
	}{
		{"Line", channel.Line},
		{"Async", channel.Async},
	} {
		t.Run(test.name, func(t *testing.T) {
			lhs, rhs := channel.Pipe(test.framing)
			defer rhs.Close()
			testSendRecv(t, lhs, rhs, "ping")
			testSendRecv(t, rhs, lhs, "pong")

			// Closing one end is end of input for the other.
			lhs.Close()
			if got, err := rhs.Recv(); err != io.EOF {
				t.Errorf("Recv after close: got (%q, %v), want %v", got, err, io.EOF)
			}
		})
	}
}
