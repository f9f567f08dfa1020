// Package router dispatches requests to handlers by method and path.
//
// Patterns are matched segment by segment. A segment starting with ':'
// captures one path segment; a final "*" captures the rest of the path.
// Captured values land in Request.Params under the name after ':' or
// under "*".
package router

import (
	"strings"

	"github.com/Brownie44l1/webserver/internal/request"
	"github.com/Brownie44l1/webserver/internal/response"
	"github.com/Brownie44l1/webserver/internal/server"
)

// Route represents a single route
type Route struct {
	Method  string
	Path    string
	Handler server.Handler
	Params  []string // Parameter names (e.g., ["id", "name"])

	segments []string
}

// Router is a server.Handler. Requests that match no route get a nil
// response so the static file fallback still applies.
type Router struct {
	routes []*Route
}

// New creates a new router
func New() *Router {
	return &Router{}
}

// Add registers a route. Routes are tried in the order they were added.
// The parser only produces GET and POST requests, so Add panics on any
// other method.
func (r *Router) Add(method, path string, handler server.Handler) {
	method = strings.ToUpper(method)
	if method != request.MethodGET.String() && method != request.MethodPOST.String() {
		panic("router: unsupported method " + method)
	}
	r.routes = append(r.routes, &Route{
		Method:   method,
		Path:     path,
		Handler:  handler,
		Params:   extractParams(path),
		segments: strings.Split(path, "/"),
	})
}

// GET is a shortcut for Add("GET", ...)
func (r *Router) GET(path string, handler server.HandlerFunc) {
	r.Add("GET", path, handler)
}

// POST is a shortcut for Add("POST", ...)
func (r *Router) POST(path string, handler server.HandlerFunc) {
	r.Add("POST", path, handler)
}

// Routes returns the registered routes in match order.
func (r *Router) Routes() []*Route {
	return r.routes
}

// Match finds a route that matches the given method and path
func (r *Router) Match(method, path string) (*Route, map[string]string) {
	path, _, _ = strings.Cut(path, "?")

	for _, route := range r.routes {
		if route.Method != method {
			continue
		}
		if params := matchPath(route.segments, path); params != nil {
			return route, params
		}
	}
	return nil, nil
}

// Handle implements server.Handler
func (r *Router) Handle(req *request.Request) *response.Response {
	route, params := r.Match(req.Method.String(), req.Path)
	if route == nil {
		return nil
	}

	if req.Params == nil {
		req.Params = make(map[string]string, len(params))
	}
	for k, v := range params {
		req.Params[k] = v
	}
	return route.Handler.Handle(req)
}

// extractParams extracts parameter names from a path pattern
// Example: "/users/:id/posts/:postId" -> ["id", "postId"]
func extractParams(path string) []string {
	var params []string
	for _, part := range strings.Split(path, "/") {
		if strings.HasPrefix(part, ":") {
			params = append(params, part[1:])
		}
	}
	return params
}

// matchPath checks if a request path matches a route pattern
// Returns parameter values if match, nil otherwise
func matchPath(pattern []string, path string) map[string]string {
	parts := strings.Split(path, "/")
	params := make(map[string]string)

	for i, seg := range pattern {
		if seg == "*" && i == len(pattern)-1 {
			if i > len(parts) {
				return nil
			}
			params["*"] = strings.Join(parts[i:], "/")
			return params
		}
		if i >= len(parts) {
			return nil
		}
		if strings.HasPrefix(seg, ":") {
			params[seg[1:]] = parts[i]
		} else if seg != parts[i] {
			return nil
		}
	}

	if len(parts) != len(pattern) {
		return nil
	}
	return params
}
