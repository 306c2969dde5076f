package httpbody

import (
	"io"
)

// bodyReader decodes one of the four HTTP/1.1 body framings from src. The
// framing never changes identity once constructed; only its counters move as
// the body is read. Errors from src are passed through untouched and are
// terminal for the body, retries belong to the connection layer.
type bodyReader struct {
	enc       Encoding
	src       io.Reader
	remaining uint64         // EncodingSized: body bytes not yet delivered
	chunked   *chunkedReader // EncodingChunked
	sawEOF    bool           // EncodingEOF: src reported end of input
}

func newBodyReader(src io.Reader, enc Encoding, length uint64) *bodyReader {
	r := &bodyReader{enc: enc, src: src, remaining: length}
	if enc == EncodingChunked {
		r.chunked = &chunkedReader{src: src}
	}
	return r
}

// emptyBodyReader returns the inert reader left behind once a Data has been
// opened or was built from local bytes.
func emptyBodyReader() *bodyReader {
	return newBodyReader(nil, EncodingEmpty, 0)
}

func (r *bodyReader) Read(p []byte) (int, error) {
	switch r.enc {
	case EncodingSized:
		if r.remaining == 0 {
			return 0, io.EOF
		}
		if uint64(len(p)) > r.remaining {
			p = p[:r.remaining]
		}
		n, err := r.src.Read(p)
		r.remaining -= uint64(n)
		if err == io.EOF && r.remaining > 0 {
			// Connection ended before the declared length was delivered.
			err = io.ErrUnexpectedEOF
		}
		return n, err
	case EncodingChunked:
		return r.chunked.Read(p)
	case EncodingEOF:
		n, err := r.src.Read(p)
		if err == io.EOF {
			r.sawEOF = true
		}
		return n, err
	default: // EncodingEmpty
		return 0, io.EOF
	}
}

// finished reports whether the framing has delivered its final body byte. The
// drain guard uses this to decide whether any wire bytes may remain in
// flight; a finished body requires no reads at all.
func (r *bodyReader) finished() bool {
	switch r.enc {
	case EncodingSized:
		return r.remaining == 0
	case EncodingChunked:
		return r.chunked.done
	case EncodingEOF:
		return r.sawEOF
	default:
		return true
	}
}
