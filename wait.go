// Copyright (C) 2017 Michael J. Fromberger. All Rights Reserved.

package linesock

import "context"

// SendWait sends text as Send does, and blocks until the send completes or
// ctx ends. If ctx ends first, SendWait reports ctx.Err(); the message stays
// in the queue and may still be written.
//
// SendWait must not be called from a completion callback: it waits for a
// callback of its own, which needs a free worker in the same dispatcher.
func (s *Socket) SendWait(ctx context.Context, text string) error {
	done := make(chan error, 1)
	s.Send(text, func(err error, _ any) { done <- err }, nil)
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReceiveWait requests the next message as Receive does, and blocks until it
// arrives or ctx ends. If ctx ends first, ReceiveWait reports ctx.Err(); the
// request stays in the queue, and the message that would have satisfied it is
// discarded when it arrives.
//
// Like SendWait, ReceiveWait must not be called from a completion callback.
func (s *Socket) ReceiveWait(ctx context.Context) (string, error) {
	done := make(chan received, 1)
	s.Receive(func(msg string, err error, _ any) { done <- received{msg, err} }, nil)
	select {
	case r := <-done:
		return r.msg, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
