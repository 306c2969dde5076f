package httpbody

import (
	"bytes"
	"io/ioutil"
	"testing"
	"time"

	"github.com/getlantern/mockconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// transportFor dials a mock connection that serves wire and attaches it.
func transportFor(t *testing.T, wire []byte, enc Encoding, length uint64) (mockconn.Dialer, *Data) {
	d := mockconn.SucceedingDialer(wire)
	conn, err := d.Dial("tcp", "origin:80")
	require.NoError(t, err)
	return d, FromTransport(&Transport{
		Conn:        conn,
		Encoding:    enc,
		Length:      length,
		ReadTimeout: 5 * time.Second,
	})
}

func TestDrainSmallRemainder(t *testing.T) {
	// 700 bytes declared: the peek takes 512, leaving 188, well within the
	// drain bound. Abandoning the body must leave the connection open and
	// positioned past the message.
	body := payload(700)
	dialer, d := transportFor(t, body, EncodingSized, 700)
	assert.Equal(t, body[:PeekBytes], d.Peek())

	require.NoError(t, d.Close())
	assert.False(t, dialer.AllClosed(), "drainable remainder should not cost the connection")
}

func TestDrainLargeRemainderForcesClose(t *testing.T) {
	// 2000 bytes declared: after the peek, more than flushBytes remain, so
	// draining is impractical and the connection must be closed instead.
	body := payload(2000)
	dialer, d := transportFor(t, body, EncodingSized, 2000)

	require.NoError(t, d.Close())
	assert.True(t, dialer.AllClosed(), "undrainable remainder should force close")
}

func TestDrainUnboundedRemainderForcesClose(t *testing.T) {
	dialer, d := transportFor(t, payload(8000), EncodingEOF, 0)
	require.NoError(t, d.Close())
	assert.True(t, dialer.AllClosed())
}

func TestDrainAfterFullReadDoesNothing(t *testing.T) {
	body := payload(2000)
	dialer, d := transportFor(t, body, EncodingSized, 2000)
	s := d.Open()
	out, err := ioutil.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, body, out)

	require.NoError(t, s.Close())
	require.NoError(t, d.Close())
	assert.False(t, dialer.AllClosed(), "exhausted body should leave the connection reusable")
}

func TestDrainCountsNoReadsWhenExhausted(t *testing.T) {
	body := payload(300)
	src := &countingReader{r: bytes.NewReader(body)}
	d := New(src, EncodingSized, 300)
	s := d.Open()
	out, err := ioutil.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, body, out)

	reads := src.reads
	require.NoError(t, s.Close())
	require.NoError(t, d.Close())
	assert.Equal(t, reads, src.reads, "drain guard should not read an exhausted stream")
}

func TestDrainPartiallyReadStream(t *testing.T) {
	// Open, read a little, abandon the stream. The remainder exceeds the
	// drain bound, so the stream's Close must force close the connection.
	dialer, d := transportFor(t, payload(4000), EncodingSized, 4000)
	s := d.Open()
	buf := make([]byte, 100)
	_, err := s.Read(buf)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	assert.True(t, dialer.AllClosed())

	// The Data itself was left inert by Open; closing it is a no-op.
	require.NoError(t, d.Close())
}

func TestCloseIsIdempotent(t *testing.T) {
	d := dataFor(EncodingSized, payload(50))
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	d = dataFor(EncodingChunked, payload(5000))
	s := d.Open()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	require.NoError(t, d.Close())
}

func TestAbandonmentNeverReadsLocal(t *testing.T) {
	d := Local(payload(10000))
	require.NoError(t, d.Close())
}

func TestDrainChunkedRemainder(t *testing.T) {
	// A chunked body small enough to drain completely.
	wire := frameChunked(payload(600), 100)
	dialer, d := transportFor(t, wire, EncodingChunked, 0)
	require.NoError(t, d.Close())
	assert.False(t, dialer.AllClosed())
}

func TestDrainErrorForcesClose(t *testing.T) {
	// The framing goes bad after the peeked portion; draining hits the error
	// and the connection must be closed, not left mid-frame.
	var wire bytes.Buffer
	wire.Write(frameChunked(payload(600), 600)[:606]) // size line + data, no boundary
	wire.WriteString("XX")
	dialer, d := transportFor(t, wire.Bytes(), EncodingChunked, 0)
	require.NoError(t, d.Close())
	assert.True(t, dialer.AllClosed())
}

type countingReader struct {
	r     *bytes.Reader
	reads int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++
	return c.r.Read(p)
}
