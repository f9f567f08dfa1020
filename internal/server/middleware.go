package server

import (
	"log/slog"
	"time"

	"github.com/Brownie44l1/webserver/internal/request"
	"github.com/Brownie44l1/webserver/internal/response"
)

// Handler answers parsed requests. Returning nil hands the request to the
// static file fallback. Handlers run on worker goroutines concurrently and
// must synchronize any shared state they mutate.
type Handler interface {
	Handle(req *request.Request) *response.Response
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(req *request.Request) *response.Response

func (f HandlerFunc) Handle(req *request.Request) *response.Response {
	return f(req)
}

// Middleware wraps a handler with extra behaviour.
type Middleware func(next Handler) Handler

// Chain wraps h so that the first middleware runs outermost.
func Chain(h Handler, middleware ...Middleware) Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}

// LoggingMiddleware logs all requests
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(req *request.Request) *response.Response {
			start := time.Now()
			resp := next.Handle(req)

			// Cookie and form values stay out of the log.
			logger.Info("request handled",
				"method", req.Method.String(),
				"path", req.Path,
				"handled", resp != nil,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return resp
		})
	}
}

// StaticOnly returns nil for every request so that only static files are
// served.
var StaticOnly Handler = HandlerFunc(func(*request.Request) *response.Response {
	return nil
})
