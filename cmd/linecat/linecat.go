// Copyright (C) 2017 Michael J. Fromberger. All Rights Reserved.

// Program linecat copies lines between standard I/O and a network peer.
//
// Usage:
//
//	linecat [options] -dial <address>
//	linecat [options] -listen <address>
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/creachadair/linesock"
	"golang.org/x/sync/errgroup"
)

var (
	dialAddr    = flag.String("dial", "", "Connect to this address")
	listenAddr  = flag.String("listen", "", "Accept one connection at this address")
	dialTimeout = flag.Duration("timeout", 5*time.Second, "Timeout on dialing the peer (0 for no timeout)")
	codecName   = flag.String("codec", "utf-8", "Character encoding used on the wire")
	withLogging = flag.Bool("v", false, "Enable verbose logging")
	showStats   = flag.Bool("stats", false, "Print socket statistics on exit")
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: %s [options] (-dial|-listen) <address>

Connect to the specified address, or wait for one connection to it, and copy
lines of text between the connection and standard I/O. Each line read from
stdin is sent to the peer, and each line received from the peer is printed to
stdout. The program exits when the peer closes its end of the connection.

An address containing a colon is a TCP host:port; otherwise it is the path of
a Unix-domain socket.

The -codec flag names the character encoding used on the wire, for example
"utf-8", "latin1", or "windows-1252". Both ends must agree.

Options:
`, filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
}

// errPeerDone marks a normal end of input from the peer.
var errPeerDone = errors.New("peer finished sending")

func main() {
	flag.Parse()
	if (*dialAddr == "") == (*listenAddr == "") {
		log.Fatal("Exactly one of -dial or -listen must be set")
	}
	codec, err := linesock.LookupCodec(*codecName)
	if err != nil {
		log.Fatalf("Invalid codec: %v", err)
	}

	conn, err := connect()
	if err != nil {
		log.Fatalf("Connect: %v", err)
	}
	opts := &linesock.Options{Codec: codec}
	if *withLogging {
		opts.LogWriter = os.Stderr
	}
	s := linesock.New(conn, opts)
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := sendLines(ctx, s, os.Stdin); err != nil {
			return err
		}
		// Every line has been written, so the peer can be told there are no
		// more. The socket keeps reading until the peer does the same.
		if cw, ok := conn.(interface{ CloseWrite() error }); ok {
			return cw.CloseWrite()
		}
		return nil
	})
	g.Go(func() error { return printLines(ctx, s, os.Stdout) })
	err = g.Wait()
	s.Close()

	if *showStats {
		st := s.Stats()
		fmt.Fprintf(os.Stderr, "sent %d messages (%d bytes, %d errors), received %d messages (%d bytes, %d errors)\n",
			st.MessagesSent, st.BytesWritten, st.SendErrors,
			st.MessagesReceived, st.BytesRead, st.ReceiveErrors)
		fmt.Fprintln(os.Stderr, linesock.Metrics().String())
	}
	if err != nil && !errors.Is(err, errPeerDone) && !errors.Is(err, context.Canceled) {
		log.Fatalf("Copy failed: %v", err)
	}
}

// connect dials or accepts a connection, according to the flags.
func connect() (net.Conn, error) {
	if *dialAddr != "" {
		ntype, addr := network(*dialAddr)
		return net.DialTimeout(ntype, addr, *dialTimeout)
	}
	lst, err := net.Listen(network(*listenAddr))
	if err != nil {
		return nil, err
	}
	defer lst.Close()
	if *withLogging {
		log.Printf("Listening at %v", lst.Addr())
	}
	return lst.Accept()
}

func network(addr string) (string, string) {
	if strings.Contains(addr, ":") {
		return "tcp", addr
	}
	return "unix", addr
}

// sendLines sends each line of r to s until r is exhausted or ctx ends. It
// reports nil only if all of r was sent.
func sendLines(ctx context.Context, s *linesock.Socket, r io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		sc.Buffer(nil, 1<<20)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()
	for line := range lines {
		if err := s.SendWait(ctx, line+"\n"); err != nil {
			return fmt.Errorf("send: %w", err)
		}
	}
	select {
	case err := <-scanErr:
		return err
	default:
		return ctx.Err()
	}
}

// printLines writes each message received from s to w, until the peer
// finishes sending or ctx ends.
func printLines(ctx context.Context, s *linesock.Socket, w io.Writer) error {
	out := bufio.NewWriter(w)
	defer out.Flush()
	for {
		msg, err := s.ReceiveWait(ctx)
		if err == io.EOF {
			return errPeerDone
		} else if err != nil {
			return fmt.Errorf("receive: %w", err)
		}
		fmt.Fprintln(out, msg)
		if err := out.Flush(); err != nil {
			return err
		}
	}
}
