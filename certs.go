package httpbody

import (
	"crypto/tls"
	"crypto/x509"
	"net"

	"github.com/getlantern/netx"
)

// PeerCertificates returns a copy of the peer's certificate chain as captured
// when the transport was attached, or nil for unencrypted transports. The
// chain is fixed at construction and unaffected by reading or closing the
// body.
func (d *Data) PeerCertificates() []*x509.Certificate {
	if d.peerCerts == nil {
		return nil
	}
	certs := make([]*x509.Certificate, len(d.peerCerts))
	copy(certs, d.peerCerts)
	return certs
}

// peerCertificates digs the *tls.Conn out from under preconn/idletiming and
// similar wrappers and captures the peer chain before any body byte is read.
// Server-side TLS handshakes lazily, so the handshake is forced first;
// Handshake is a no-op on a connection that has already completed one.
func peerCertificates(conn net.Conn) []*x509.Certificate {
	var certs []*x509.Certificate
	netx.WalkWrapped(conn, func(c net.Conn) bool {
		if tlsConn, ok := c.(*tls.Conn); ok {
			if err := tlsConn.Handshake(); err != nil {
				log.Debugf("Unable to complete TLS handshake capturing peer certificates: %v", err)
				return false
			}
			certs = tlsConn.ConnectionState().PeerCertificates
			return false
		}
		return true
	})
	return certs
}
