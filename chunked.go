package httpbody

import (
	"bytes"
	"io"

	"github.com/getlantern/errors"
)

// maxChunkSizeDigits caps the hex chunk-size line, anything longer can't fit
// in a uint64 and indicates a corrupt or hostile stream.
const maxChunkSizeDigits = 16

// chunkedReader decodes the chunked transfer coding. Size lines are read one
// byte at a time so that the decoder never pulls bytes beyond the body's own
// framing off the connection.
type chunkedReader struct {
	src    io.Reader
	unread uint64 // data bytes left in the current chunk
	done   bool   // zero chunk and trailer fully consumed
	err    error  // sticky. Framing and I/O errors are terminal.
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	if c.done {
		return 0, io.EOF
	}
	if c.unread == 0 {
		if err := c.nextChunk(); err != nil {
			c.err = err
			return 0, err
		}
		if c.done {
			return 0, io.EOF
		}
	}
	if uint64(len(p)) > c.unread {
		p = p[:c.unread]
	}
	n, err := c.src.Read(p)
	c.unread -= uint64(n)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		c.err = err
		return n, err
	}
	if c.unread == 0 {
		if err := c.chunkBoundary(); err != nil {
			c.err = err
			return n, err
		}
	}
	return n, nil
}

// nextChunk parses the next chunk-size line. A size of zero means the body is
// over; the trailer section is consumed and the stream marked done.
func (c *chunkedReader) nextChunk() error {
	line, err := c.readLine()
	if err != nil {
		return err
	}
	size, err := parseChunkSize(line)
	if err != nil {
		return err
	}
	if size == 0 {
		return c.readTrailer()
	}
	c.unread = size
	return nil
}

// chunkBoundary consumes the CRLF that follows each chunk's data.
func (c *chunkedReader) chunkBoundary() error {
	line, err := c.readLine()
	if err != nil {
		return err
	}
	if len(line) != 0 {
		return errors.New("malformed chunked encoding: unexpected %q after chunk data", string(line))
	}
	return nil
}

// readTrailer consumes optional trailer lines up to and including the blank
// line that terminates the body.
func (c *chunkedReader) readTrailer() error {
	for {
		line, err := c.readLine()
		if err != nil {
			return err
		}
		if len(line) == 0 {
			c.done = true
			return nil
		}
	}
}

// readLine reads one CRLF-terminated line, returned without the CRLF. End of
// input before the line completes is reported as io.ErrUnexpectedEOF.
func (c *chunkedReader) readLine() ([]byte, error) {
	var line []byte
	var b [1]byte
	for {
		n, err := c.src.Read(b[:])
		if n > 0 {
			if b[0] == '\n' {
				break
			}
			line = append(line, b[0])
			if len(line) > maxChunkSizeDigits+256 {
				return nil, errors.New("malformed chunked encoding: line too long")
			}
			continue
		}
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
	if len(line) == 0 || line[len(line)-1] != '\r' {
		return nil, errors.New("malformed chunked encoding: missing CR before LF")
	}
	return line[:len(line)-1], nil
}

// parseChunkSize parses a hexadecimal chunk-size line, ignoring any chunk
// extension after a semicolon.
func parseChunkSize(line []byte) (uint64, error) {
	if i := bytes.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	line = bytes.TrimRight(line, " \t")
	if len(line) == 0 {
		return 0, errors.New("malformed chunked encoding: empty chunk size")
	}
	var size uint64
	for i, b := range line {
		var v byte
		switch {
		case '0' <= b && b <= '9':
			v = b - '0'
		case 'a' <= b && b <= 'f':
			v = b - 'a' + 10
		case 'A' <= b && b <= 'F':
			v = b - 'A' + 10
		default:
			return 0, errors.New("malformed chunked encoding: invalid byte %q in chunk size", string(line))
		}
		if i >= maxChunkSizeDigits {
			return 0, errors.New("malformed chunked encoding: chunk size too large")
		}
		size = size<<4 | uint64(v)
	}
	return size, nil
}
