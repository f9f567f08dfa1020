// Package webserver is a small embeddable HTTP/1.1 server.
//
// A host program supplies a Handler; the server parses each request,
// including URL-encoded forms and multipart/form-data uploads, hands it to
// the handler and writes the returned Response with status 200. A nil
// Response falls back to serving files from Options.WWWRoot.
//
// Static paths are percent-decoded and any path whose ".." segments climb
// above WWWRoot is answered 404. Directories are never listed. Chunked
// transfer encoding, range requests, compression and HTTP/2 are not
// supported.
package webserver

import (
	"github.com/Brownie44l1/webserver/internal/config"
	"github.com/Brownie44l1/webserver/internal/request"
	"github.com/Brownie44l1/webserver/internal/response"
	"github.com/Brownie44l1/webserver/internal/router"
	"github.com/Brownie44l1/webserver/internal/server"
)

type (
	Request        = request.Request
	FileDescriptor = request.FileDescriptor
	Method         = request.Method
	Response       = response.Response
	Options        = config.Options
	Server         = server.Server
	Option         = server.Option
	Handler        = server.Handler
	HandlerFunc    = server.HandlerFunc
	Middleware     = server.Middleware
	Router         = router.Router
)

const (
	MethodUnknown = request.MethodUnknown
	MethodGET     = request.MethodGET
	MethodPOST    = request.MethodPOST
)

var (
	WithLogger  = server.WithLogger
	WithMetrics = server.WithMetrics
)

// Start binds opts.Port and serves connections with handler until the
// returned server is stopped. It returns without blocking.
func Start(opts Options, handler Handler, options ...Option) (*Server, error) {
	return server.Start(opts, handler, options...)
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return config.Default()
}

// LoadOptions reads options from a JSON file. Missing or unreadable files
// and invalid JSON yield the defaults.
func LoadOptions(filename string) Options {
	return config.Load(filename)
}

// NewRouter returns an empty router usable as a Handler.
func NewRouter() *Router {
	return router.New()
}

// Chain wraps h with middleware, the first one outermost.
func Chain(h Handler, middleware ...Middleware) Handler {
	return server.Chain(h, middleware...)
}

func Text(text string) *Response {
	return response.Text(text)
}

func HTML(html string) *Response {
	return response.HTML(html)
}

// JSON marshals v into a text/javascript response.
func JSON(v any) (*Response, error) {
	return response.JSON(v)
}

// Nothing is a 200 response with an empty body.
func Nothing() *Response {
	return response.Nothing()
}

func Bytes(contentType string, data []byte) *Response {
	return response.Bytes(contentType, data)
}
