package httpbody

import (
	"crypto/x509"
	"net"
	"time"

	"github.com/getlantern/idletiming"
	"github.com/getlantern/preconn"
)

// defaultReadTimeout bounds how long a read of the body may sit idle before
// the connection is timed out. It is applied once, when the transport is
// attached.
const defaultReadTimeout = 5 * time.Second

// Transport is what the connection layer hands this package for one request:
// a raw duplex connection, any body bytes the header parser already read past
// the end of the headers, and how the wire framed the body. It deliberately
// carries no reference to whatever buffering the connection layer uses
// internally.
type Transport struct {
	// Conn is the connection the body arrives on. The drain guard closes it
	// when an abandoned body cannot be drained within bounds.
	Conn net.Conn

	// Buffered holds body bytes read beyond the headers. They are
	// re-prepended so the body reader starts at the first body byte.
	Buffered []byte

	// Encoding is the wire framing of the body.
	Encoding Encoding

	// Length is the declared body length, consulted only for EncodingSized.
	Length uint64

	// PeerCerts is the peer's certificate chain, for encrypted transports.
	// Leave nil to have the chain extracted from the wrapped *tls.Conn, if
	// there is one.
	PeerCerts []*x509.Certificate

	// ReadTimeout overrides defaultReadTimeout when greater than zero.
	ReadTimeout time.Duration
}

// FromTransport creates a Data for a body arriving on a live connection. The
// peek buffer is filled before FromTransport returns, so construction itself
// performs blocking reads, bounded by the read timeout.
func FromTransport(t *Transport) *Data {
	timeout := t.ReadTimeout
	if timeout <= 0 {
		timeout = defaultReadTimeout
	}
	remoteAddr := t.Conn.RemoteAddr()
	conn := idletiming.Conn(t.Conn, timeout, func() {
		log.Debugf("Connection to %v idled while reading body", remoteAddr)
	})
	peerCerts := t.PeerCerts
	if peerCerts == nil {
		peerCerts = peerCertificates(t.Conn)
	}
	var src net.Conn = conn
	if len(t.Buffered) > 0 {
		src = preconn.Wrap(conn, t.Buffered)
	}
	return newData(newBodyReader(src, t.Encoding, t.Length), conn, peerCerts)
}
