// Copyright (C) 2017 Michael J. Fromberger. All Rights Reserved.

/*
Package linesock turns a connected byte stream into an asynchronous channel of
newline-delimited text messages.

A *Socket wraps a Conn, such as a *net.TCPConn, and takes ownership of it:

	s := linesock.New(conn, nil)
	defer s.Close()

Send queues a message for transmission and returns at once. The text is
written exactly as given, so a framed message must end with "\n":

	s.Send("hello\n", func(err error, payload any) {
		if err != nil {
			log.Printf("Send %v failed: %v", payload, err)
		}
	}, 1)

Receive queues a request for the next message and returns at once. When a
complete line arrives, the callback receives it without its trailing newline:

	s.Receive(func(msg string, err error, payload any) {
		if err == io.EOF {
			return // the peer has finished sending
		} else if err != nil {
			log.Printf("Receive %v failed: %v", payload, err)
			return
		}
		fmt.Println(msg)
	}, 2)

Sends are written in the order they were made, and receive requests are
matched to messages in the order they were made. Callbacks run on a shared
pool of goroutines (see package dispatch), so a slow callback does not hold up
the socket, but callbacks may finish in any order. Callers who want to block
can use SendWait and ReceiveWait instead.

# Buffering

The socket reads from the connection only while some receive request is
waiting. Complete lines that outrun the requests are kept until requested; at
most one partial line is held between reads.

# Encoding

By default messages are encoded as UTF-8. Set Options.Codec to use a different
character encoding from golang.org/x/text/encoding, or use LookupCodec to find
one by name.

# Errors

A failed read or write is reported to the one request it affected, and later
requests proceed normally. If the connection is closed or broken, the socket
closes itself, and every request still waiting or made later fails with
ErrClosed.
*/
package linesock
