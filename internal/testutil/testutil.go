// Copyright (C) 2022 Michael J. Fromberger. All Rights Reserved.

// Package testutil defines internal support code for writing tests.
package testutil

import (
	"math/rand"
	"net"
	"strings"
	"testing"
	"time"
)

// Loopback returns a connected pair of TCP connections on the loopback
// interface. Both connections are closed when t completes.
func Loopback(t testing.TB) (client, server *net.TCPConn) {
	t.Helper()

	lst, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer lst.Close()

	type accepted struct {
		conn net.Conn
		err  error
	}
	acc := make(chan accepted, 1)
	go func() {
		conn, err := lst.Accept()
		acc <- accepted{conn, err}
	}()

	cc, err := net.Dial("tcp", lst.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	a := <-acc
	if a.err != nil {
		cc.Close()
		t.Fatalf("Accept: %v", a.err)
	}
	t.Cleanup(func() { cc.Close(); a.conn.Close() })
	return cc.(*net.TCPConn), a.conn.(*net.TCPConn)
}

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 .,;:!?-"

// RandomText returns a string of n random printable characters, none of which
// is a newline.
func RandomText(rng *rand.Rand, n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		sb.WriteByte(alphabet[rng.Intn(len(alphabet))])
	}
	return sb.String()
}

// Recv returns the next value from ch, or fails t if none arrives within the
// timeout.
func Recv[T any](t testing.TB, ch <-chan T, timeout time.Duration) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(timeout):
		t.Fatalf("No value received after %v", timeout)
	}
	panic("unreachable")
}
