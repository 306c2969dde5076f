package httpbody

import (
	"io"
	"sync"
)

const defaultBufferSize = 2 << 11 // 4K

// buffers supplies the copy buffers used by StreamTo and the drain guard, so
// per-request bodies don't each allocate their own.
var buffers = &bufferSource{
	Pool: sync.Pool{
		New: func() interface{} {
			b := make([]byte, defaultBufferSize)
			return &b
		},
	},
}

type bufferSource struct{ sync.Pool }

func (bs *bufferSource) get() *[]byte {
	return bs.Pool.Get().(*[]byte)
}

func (bs *bufferSource) put(buf *[]byte) {
	bs.Pool.Put(buf)
}

// writerOnly hides any ReadFrom on the destination so io.CopyBuffer actually
// uses the pooled buffer.
type writerOnly struct{ io.Writer }
