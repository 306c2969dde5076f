package httpbody

import (
	"io"
	"net"
)

// flushBytes bounds how much of an abandoned body the drain guard reads
// before giving up and closing the connection instead.
const flushBytes = 1024

// DataStream is the consuming stream returned by Data.Open. It yields the
// peeked prefix first and then the rest of the body off the wire, in exact
// original order. Closing it runs the drain guard for whatever was left
// unread.
type DataStream struct {
	head   []byte
	stream *bodyReader
	conn   net.Conn
	closed bool
}

// Read consumes the buffered head before touching the underlying stream.
func (s *DataStream) Read(p []byte) (n int, err error) {
	n = copy(p, s.head)
	s.head = s.head[n:]
	if n > 0 {
		return
	}
	return s.stream.Read(p)
}

// Close drains or kills whatever part of the body was never read. It is
// idempotent and never fails the caller.
func (s *DataStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.head = nil
	killStream(s.stream, s.conn)
	return nil
}

// killStream is the drain guard. A finished framing means the connection is
// already positioned at the next message, so nothing is read at all.
// Otherwise up to flushBytes of the remainder are read and discarded; if that
// wasn't provably enough, or reading fails, the connection is closed rather
// than left mid-message for the next reader to trip over.
func killStream(stream *bodyReader, conn net.Conn) {
	if stream.finished() {
		return
	}
	buf := buffers.get()
	n, err := io.CopyBuffer(writerOnly{io.Discard}, io.LimitReader(stream, flushBytes), *buf)
	buffers.put(buf)
	if err == nil && n < flushBytes {
		// The framing ran out within bounds; the connection is clean.
		return
	}
	if conn == nil {
		return
	}
	log.Debugf("Body not drained after %d bytes (err: %v), force closing connection", n, err)
	if closeErr := conn.Close(); closeErr != nil {
		log.Tracef("Error closing connection: %s", closeErr)
	}
}
