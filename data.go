package httpbody

import (
	"crypto/x509"
	"io"
	"net"
	"os"
)

// Data represents the body of one incoming request.
//
// The body can be read in two ways. Peek returns up to the first PeekBytes
// bytes without consuming anything, which is enough to dispatch on body shape
// cheaply. Open hands off the entire body, peeked prefix included, as a
// stream; it is a one-time transfer of ownership, so holding an unopened Data
// always means holding all of the body.
//
// A Data belongs to the single goroutine handling its request; it is not safe
// for concurrent use. Close it when handling ends, on every path, so the
// connection it arrived on is never left mid-message.
type Data struct {
	buffer    []byte
	complete  bool
	stream    *bodyReader
	conn      net.Conn // close capability for the drain guard, nil when no transport is attached
	peerCerts []*x509.Certificate
	closed    bool
}

// New creates a Data from a reader positioned at the first body byte. length
// is consulted only for EncodingSized. No connection is attached, so the
// drain guard has nothing to force-close; it still discards unread framed
// bytes.
func New(src io.Reader, enc Encoding, length uint64) *Data {
	return newData(newBodyReader(src, enc, length), nil, nil)
}

// Local creates a fully buffered Data from in-memory bytes, for synthetic
// requests. The peek buffer holds the complete body and the remainder is
// empty.
func Local(body []byte) *Data {
	return &Data{
		buffer:   body,
		complete: true,
		stream:   emptyBodyReader(),
	}
}

// newData eagerly buffers up to PeekBytes from stream so that Peek never
// blocks. A full buffer does not prove the body ends there, so completeness
// is only claimed when fewer than PeekBytes were available. Read errors here
// are swallowed; whoever consumes the stream will hit the same error again.
func newData(stream *bodyReader, conn net.Conn, peerCerts []*x509.Certificate) *Data {
	buf := make([]byte, PeekBytes)
	complete := false
	n := 0
	for n < PeekBytes {
		nn, err := stream.Read(buf[n:])
		n += nn
		if err == io.EOF {
			complete = n < PeekBytes
			break
		}
		if err != nil {
			log.Errorf("Unable to fill peek buffer: %v", err)
			n = 0
			break
		}
	}
	return &Data{
		buffer:    buf[:n],
		complete:  complete,
		stream:    stream,
		conn:      conn,
		peerCerts: peerCerts,
	}
}

// Peek returns up to the first PeekBytes bytes of the body. It never blocks
// and never fails, and it does not consume the body.
func (d *Data) Peek() []byte {
	if len(d.buffer) > PeekBytes {
		return d.buffer[:PeekBytes]
	}
	return d.buffer
}

// PeekComplete reports whether the peek buffer holds the entire body. False
// means either that more data follows or that it is not known whether it
// does: a body of exactly PeekBytes stays incomplete until a further read
// confirms the end.
func (d *Data) PeekComplete() bool {
	return d.complete
}

// Open hands off the body as a stream: the peeked prefix first, then the
// remainder straight off the wire, in original order. Ownership of the bytes
// and of the drain obligation transfers to the returned DataStream, and the
// Data itself is left exhausted, so a later Open yields an empty stream
// rather than duplicated bytes. Close the stream when done with it.
func (d *Data) Open() *DataStream {
	s := &DataStream{head: d.buffer, stream: d.stream, conn: d.conn}
	d.buffer = nil
	d.stream = emptyBodyReader()
	d.conn = nil
	return s
}

// StreamTo opens the body and copies all of it to w, returning the number of
// bytes written.
func (d *Data) StreamTo(w io.Writer) (int64, error) {
	s := d.Open()
	defer s.Close()
	buf := buffers.get()
	defer buffers.put(buf)
	return io.CopyBuffer(writerOnly{w}, s, *buf)
}

// StreamToFile streams the body to a newly created file at path, truncating
// any existing file.
func (d *Data) StreamToFile(path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return d.StreamTo(f)
}

// Close runs the drain guard: if the body was never opened and framed bytes
// remain in flight, they are discarded up to a bounded effort, otherwise the
// attached connection is closed so it cannot be reused mid-message. If the
// body was opened, the obligation lives with the DataStream instead and Close
// does nothing. Close is idempotent and never fails the caller.
func (d *Data) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.buffer = nil
	stream, conn := d.stream, d.conn
	// Leave the entity inert, as Open does, so a late Open can't hand out a
	// stream over the partially drained reader.
	d.stream = emptyBodyReader()
	d.conn = nil
	killStream(stream, conn)
	return nil
}
