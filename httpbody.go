// Package httpbody exposes the bytes of an incoming HTTP request body while
// the body is still arriving on the wire, without callers needing to know how
// the body is framed or whether they will consume any of it.
//
// A Data is created once per request, positioned at the first body byte. Up
// to PeekBytes of the body are buffered eagerly so that content can be
// sniffed via Peek without committing to reading the rest. Open hands off the
// full stream exactly once. Closing whichever side owns the stream drains any
// unread framed bytes or, when that is impractical, closes the underlying
// connection so it is never left mid-message.
package httpbody

import (
	"github.com/getlantern/golog"
)

var (
	log = golog.LoggerFor("httpbody")
)

// PeekBytes is the number of bytes buffered eagerly for Peek.
const PeekBytes = 512

// Encoding identifies how the wire framed a request body. The framing is
// fixed by the connection layer before the body reaches this package and
// never changes for the lifetime of a body.
type Encoding int

const (
	// EncodingEmpty is a bodyless message. Reads never touch the connection.
	EncodingEmpty Encoding = iota
	// EncodingSized is a Content-Length delimited body.
	EncodingSized
	// EncodingChunked is a body using the chunked transfer coding.
	EncodingChunked
	// EncodingEOF is a body delimited by the peer closing the connection.
	EncodingEOF
)

func (e Encoding) String() string {
	switch e {
	case EncodingEmpty:
		return "empty"
	case EncodingSized:
		return "sized"
	case EncodingChunked:
		return "chunked"
	case EncodingEOF:
		return "eof"
	default:
		return "unknown"
	}
}
