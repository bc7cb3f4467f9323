// Copyright (C) 2017 Michael J. Fromberger. All Rights Reserved.

package linesock

import (
	"fmt"
	"io"
)

// Send queues text to be written to the connection and returns without
// waiting. When the message has been written completely, or has failed,
// onComplete is called with the error (if any) and payload. If onComplete ==
// nil, the outcome is discarded.
//
// The text is encoded and written exactly as given: Send does not append a
// newline, and newlines within text are not escaped. To transmit a single
// framed message, end text with "\n".
func (s *Socket) Send(text string, onComplete SendFunc, payload any) {
	req := &sendRequest{text: text, onComplete: onComplete, payload: payload}

	s.smu.Lock()
	if s.sending {
		s.sendq.Add(req)
		s.smu.Unlock()
		return
	}
	s.sending = true
	s.smu.Unlock()

	s.transmit(req)
}

// transmit starts writing req, which is the head of the send queue. Requests
// that fail before anything is written are completed here, and the next
// request in the queue takes their place, until a write is in flight or the
// queue is empty.
func (s *Socket) transmit(req *sendRequest) {
	for req != nil {
		if s.closed.Load() {
			req = s.advance(req, ErrClosed)
			continue
		}
		buf, err := s.enc.Bytes([]byte(req.text))
		if err != nil {
			req = s.advance(req, fmt.Errorf("encode: %w", err))
			continue
		} else if len(buf) == 0 {
			req = s.advance(req, nil)
			continue
		}
		go s.write(req, buf)
		return
	}
}

// write writes buf, the encoding of req, to the connection, then completes
// req and moves on to the next message in the queue. A short write is retried
// from where it stopped; there is no limit on the number of retries as long as
// each one makes progress.
func (s *Socket) write(req *sendRequest, buf []byte) {
	var err error
	for len(buf) != 0 {
		nw, werr := s.conn.Write(buf)
		s.stats.addWritten(nw)
		if werr != nil {
			err = fmt.Errorf("write: %w", werr)
			break
		} else if nw == 0 {
			err = io.ErrShortWrite
			break
		}
		buf = buf[nw:]
	}
	if err != nil && isFatal(err) {
		s.fail(err)
	}
	s.transmit(s.advance(req, err))
}

// advance completes req, which must be the head of the send queue, with err
// and returns the new head, or nil if the queue is empty.
func (s *Socket) advance(req *sendRequest, err error) *sendRequest {
	s.smu.Lock()
	defer s.smu.Unlock()

	s.stats.sendDone(err)
	if err != nil {
		s.log("Send failed: %v", err)
	}
	if req.onComplete != nil {
		s.disp.Go(func() { req.onComplete(err, req.payload) })
	}

	next, ok := s.sendq.Pop()
	if !ok {
		s.sending = false
		return nil
	}
	return next
}
