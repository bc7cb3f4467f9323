// Copyright (C) 2017 Michael J. Fromberger. All Rights Reserved.

package linesock

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Receive queues a request for the next message from the peer and returns
// without waiting. Requests are satisfied in the order they were made. When a
// message is available, or the request fails, onComplete is called with the
// result and payload. If onComplete == nil, the result is discarded, but the
// request still consumes a message.
//
// Once the peer has finished sending, every request, including all later
// ones, completes with io.EOF.
func (s *Socket) Receive(onComplete ReceiveFunc, payload any) {
	req := &recvRequest{onComplete: onComplete, payload: payload}

	s.rmu.Lock()
	s.reqs.Add(req)
	start := s.dispatchLocked()
	s.rmu.Unlock()

	if start {
		go s.read()
	}
}

// dispatchLocked matches waiting requests to pending messages, and reports
// whether the caller should start a new raw read. The caller must hold s.rmu.
//
// No read is started unless some request is left waiting, so the socket does
// not buffer data nobody has asked for.
func (s *Socket) dispatchLocked() bool {
	s.matchLocked()
	if s.reqs.Len() == 0 || s.reading || s.eof || s.closed.Load() {
		return false
	}
	s.reading = true
	return true
}

// matchLocked completes waiting requests in order, for as long as there are
// pending messages to give them. Pending messages are delivered even after
// the peer has finished sending, but not after the socket is closed. The
// caller must hold s.rmu.
func (s *Socket) matchLocked() {
	closed := s.closed.Load()
	for s.reqs.Len() != 0 {
		switch {
		case closed:
			req, _ := s.reqs.Pop()
			s.completeLocked(req, "", ErrClosed)
		case s.pending.Len() != 0:
			req, _ := s.reqs.Pop()
			m, _ := s.pending.Pop()
			s.completeLocked(req, m.msg, m.err)
		case s.eof:
			req, _ := s.reqs.Pop()
			s.completeLocked(req, "", io.EOF)
		default:
			return
		}
	}
}

// completeLocked schedules the callback for req. The caller must hold s.rmu,
// so that callbacks are scheduled in request order.
func (s *Socket) completeLocked(req *recvRequest, msg string, err error) {
	if err != nil && err != io.EOF {
		s.stats.recvFailed()
		s.log("Receive failed: %v", err)
	}
	if req.onComplete != nil {
		s.disp.Go(func() { req.onComplete(msg, err, req.payload) })
	}
}

// read performs one raw read from the connection and handles the result.
// Only one read is in flight at a time, so s.rbuf is not shared.
func (s *Socket) read() {
	nr, err := s.conn.Read(s.rbuf)
	s.stats.addRead(nr)

	s.rmu.Lock()
	s.reading = false

	// Messages that arrived along with an error are delivered ahead of it.
	s.framedLocked(s.rbuf[:nr], errors.Is(err, io.EOF))
	s.matchLocked()
	var fatal bool
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		s.log("Peer finished sending")
		s.eof = true
		if len(s.acc) != 0 {
			s.log("Discarding %d bytes of unterminated input", len(s.acc))
		}
		s.acc, s.skipping = nil, false
	default:
		err = fmt.Errorf("read: %w", err)
		fatal = isFatal(err) && !s.closed.Load()
		s.failHeadLocked(err)
	}
	start := !fatal && s.dispatchLocked()
	s.rmu.Unlock()

	if fatal {
		s.fail(err)
	} else if start {
		go s.read()
	}
}

// framedLocked decodes data and appends it to the partial line, then moves
// each complete line into the pending queue. The caller must hold s.rmu.
//
// A line containing input that cannot be decoded is queued as an error in
// the place of that line, and the rest of it is discarded.
func (s *Socket) framedLocked(data []byte, atEOF bool) {
	if len(data) == 0 && !atEOF {
		return
	}
	for {
		// Only the newly-decoded text can contain a newline.
		start := len(s.acc)
		acc, rest, err := s.dec.appendDecode(s.acc, data, atEOF)
		s.acc = s.splitLocked(acc, start)
		if err == nil {
			break
		}
		s.log("Discarding undecodable line: %v", err)
		if !s.skipping {
			s.pending.Add(received{err: err})
			s.skipping = true
		}
		s.acc = nil
		if len(rest) == 0 {
			break
		}
		data = rest
	}
	s.stats.setMaxPending(s.pending.Len())
}

// splitLocked moves each complete line of acc into the pending queue, and
// returns the partial line that remains. Only acc[start:] is searched for
// newlines. While s.skipping is set, text through the next newline is
// dropped. The caller must hold s.rmu.
func (s *Socket) splitLocked(acc []byte, start int) []byte {
	var lines int
	var cut bool
	for {
		i := bytes.IndexByte(acc[start:], '\n')
		if i < 0 {
			break
		}
		end := start + i
		if s.skipping {
			s.skipping = false
		} else {
			s.pending.Add(received{msg: string(acc[:end])})
			lines++
		}
		acc = acc[end+1:]
		start = 0
		cut = true
	}
	if s.skipping {
		return nil
	} else if cut {
		// Release the storage for the lines just removed.
		acc = append([]byte(nil), acc...)
	}
	s.stats.addReceived(lines)
	return acc
}

// failHeadLocked fails the oldest waiting request, if any, with err. The
// caller must hold s.rmu.
func (s *Socket) failHeadLocked(err error) {
	if req, ok := s.reqs.Pop(); ok {
		s.completeLocked(req, "", err)
	} else {
		s.log("Dropped error with no request waiting: %v", err)
	}
}
