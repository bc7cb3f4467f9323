// Copyright (C) 2017 Michael J. Fromberger. All Rights Reserved.

package linesock

import (
	"expvar"
	"sync/atomic"
)

var (
	socketMetrics = new(expvar.Map)

	socketsActiveGauge    = new(expvar.Int)
	messagesSentCount     = new(expvar.Int)
	messagesReceivedCount = new(expvar.Int)
	bytesWrittenCount     = new(expvar.Int)
	bytesReadCount        = new(expvar.Int)
	sendErrorsCount       = new(expvar.Int)
	receiveErrorsCount    = new(expvar.Int)
)

func init() {
	socketMetrics.Set("sockets_active", socketsActiveGauge)
	socketMetrics.Set("messages_sent", messagesSentCount)
	socketMetrics.Set("messages_received", messagesReceivedCount)
	socketMetrics.Set("bytes_written", bytesWrittenCount)
	socketMetrics.Set("bytes_read", bytesReadCount)
	socketMetrics.Set("send_errors", sendErrorsCount)
	socketMetrics.Set("receive_errors", receiveErrorsCount)
}

// Metrics returns a map of exported socket metrics for use with the expvar
// package. This map is shared among all sockets created by New. The caller is
// free to add or remove metrics in the map, but note that such changes will
// affect all sockets.
//
// The caller is responsible for publishing the metrics to the exporter via
// expvar.Publish or similar.
func Metrics() *expvar.Map { return socketMetrics }

// Stats is a snapshot of the counters for a single socket.
type Stats struct {
	MessagesSent     int64 // messages written completely
	MessagesReceived int64 // complete lines decoded
	BytesWritten     int64 // raw bytes accepted by the connection
	BytesRead        int64 // raw bytes returned by the connection
	SendErrors       int64 // sends that completed with an error
	ReceiveErrors    int64 // receives that completed with an error other than io.EOF

	// The largest number of decoded messages that have been held at one time
	// waiting for a receive request.
	MaxPending int64
}

type socketStats struct {
	sent, received     atomic.Int64
	written, read      atomic.Int64
	sendErrs, recvErrs atomic.Int64
	maxPending         atomic.Int64
}

func (s *socketStats) addWritten(n int) {
	s.written.Add(int64(n))
	bytesWrittenCount.Add(int64(n))
}

func (s *socketStats) addRead(n int) {
	s.read.Add(int64(n))
	bytesReadCount.Add(int64(n))
}

func (s *socketStats) addReceived(n int) {
	s.received.Add(int64(n))
	messagesReceivedCount.Add(int64(n))
}

func (s *socketStats) sendDone(err error) {
	if err != nil {
		s.sendErrs.Add(1)
		sendErrorsCount.Add(1)
	} else {
		s.sent.Add(1)
		messagesSentCount.Add(1)
	}
}

func (s *socketStats) recvFailed() {
	s.recvErrs.Add(1)
	receiveErrorsCount.Add(1)
}

// setMaxPending records n as the pending high-water mark if it exceeds the
// current value. The caller must hold the receive lock.
func (s *socketStats) setMaxPending(n int) {
	if int64(n) > s.maxPending.Load() {
		s.maxPending.Store(int64(n))
	}
}

func (s *socketStats) snapshot() Stats {
	return Stats{
		MessagesSent:     s.sent.Load(),
		MessagesReceived: s.received.Load(),
		BytesWritten:     s.written.Load(),
		BytesRead:        s.read.Load(),
		SendErrors:       s.sendErrs.Load(),
		ReceiveErrors:    s.recvErrs.Load(),
		MaxPending:       s.maxPending.Load(),
	}
}
