// Package local builds synthetic requests for exercising body-consuming
// handlers without a connection. A Request is assembled by a single owner in
// a builder phase, then Dispatch hands it off exactly once; any inspection
// afterwards goes through the read-only Result, never through shared mutation
// of the request itself.
package local

import (
	"net/http"

	"github.com/getlantern/errors"
	"github.com/getlantern/httpbody"
)

// Handler handles a dispatched request. The Data it receives is fully
// buffered (PeekComplete is true) and is closed when the handler returns,
// whether or not it read anything.
type Handler func(req *Result, body *httpbody.Data) error

// Request accumulates a synthetic request. The builder methods return the
// Request for chaining. A Request belongs exclusively to its builder until
// Dispatch consumes it.
type Request struct {
	method     string
	path       string
	header     http.Header
	body       []byte
	dispatched bool
}

// NewRequest starts building a synthetic request.
func NewRequest(method, path string) *Request {
	return &Request{
		method: method,
		path:   path,
		header: make(http.Header),
	}
}

// Header sets a header on the request being built.
func (r *Request) Header(key, value string) *Request {
	r.header.Set(key, value)
	return r
}

// Body sets the request body.
func (r *Request) Body(body []byte) *Request {
	r.body = body
	return r
}

// Dispatch runs handler against the built request exactly once and returns a
// read-only view of what was dispatched together with the handler's error.
// The body is closed on every exit path out of the handler, including a
// panic. Dispatching the same Request a second time returns a Result carrying
// an error instead of re-running the handler.
func (r *Request) Dispatch(handler Handler) *Result {
	result := &Result{
		method: r.method,
		path:   r.path,
		header: cloneHeader(r.header),
	}
	if r.dispatched {
		result.err = errors.New("request already dispatched")
		return result
	}
	r.dispatched = true
	body := httpbody.Local(r.body)
	defer body.Close()
	result.err = handler(result, body)
	return result
}

// Result is the read-only view of a dispatched request.
type Result struct {
	method string
	path   string
	header http.Header
	err    error
}

// Method returns the dispatched request's method.
func (r *Result) Method() string { return r.method }

// Path returns the dispatched request's path.
func (r *Result) Path() string { return r.path }

// Header returns a copy of the dispatched headers; the dispatched request
// itself can no longer be modified.
func (r *Result) Header() http.Header { return cloneHeader(r.header) }

// Err returns the handler's error, or the dispatch error if the request
// couldn't be dispatched.
func (r *Result) Err() error { return r.err }

func cloneHeader(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, vv := range h {
		out[k] = append([]string(nil), vv...)
	}
	return out
}
