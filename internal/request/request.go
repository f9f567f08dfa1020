package request

import (
	"strings"

	"github.com/Brownie44l1/webserver/internal/headers"
)

// Method is the HTTP method of a request. Only GET and POST are told apart.
type Method int

const (
	MethodUnknown Method = iota
	MethodGET
	MethodPOST
)

func (m Method) String() string {
	switch m {
	case MethodGET:
		return "GET"
	case MethodPOST:
		return "POST"
	default:
		return "UNKNOWN"
	}
}

// parseMethod matches GET and POST case-insensitively
func parseMethod(s string) Method {
	switch {
	case strings.EqualFold(s, "GET"):
		return MethodGET
	case strings.EqualFold(s, "POST"):
		return MethodPOST
	default:
		return MethodUnknown
	}
}

// FileDescriptor is a file uploaded through a multipart form.
type FileDescriptor struct {
	// Name is the original file name, percent-decoded.
	Name string
	// ContentType is the MIME type the client declared for the part.
	ContentType string
	// Data is the whole file content.
	Data []byte
}

func (f *FileDescriptor) String() string {
	return f.Name
}

// Request is one parsed HTTP message.
type Request struct {
	// Address is the raw request target, e.g. "/index.html?key=value".
	Address string
	// Path is Address up to the first '?'. It never contains '?'.
	Path string
	// Query is Address after the first '?', or "".
	Query       string
	HTTPVersion string
	Method      Method
	Headers     *headers.Headers
	// Cookies holds percent-decoded cookie names and values.
	Cookies map[string]string
	// FormData aggregates query parameters, URL-encoded bodies and the
	// non-file parts of a multipart body.
	FormData map[string]string
	Files    map[string]*FileDescriptor
	// CloseConnection is set when the client sent "Connection: close".
	CloseConnection bool
	// Params is filled by the router for patterns like /users/:id.
	Params map[string]string
}

func newRequest() *Request {
	return &Request{
		Headers:  headers.NewHeaders(),
		Cookies:  make(map[string]string),
		FormData: make(map[string]string),
		Files:    make(map[string]*FileDescriptor),
		Params:   make(map[string]string),
	}
}

// splitAddress fills Path and Query from Address
func (r *Request) splitAddress() {
	if path, query, found := strings.Cut(r.Address, "?"); found {
		r.Path = path
		r.Query = query
		return
	}
	r.Path = r.Address
	r.Query = ""
}

// Header returns a request header value, or "".
func (r *Request) Header(name string) string {
	v, _ := r.Headers.Get(name)
	return v
}

// Cookie returns a cookie value, or "".
func (r *Request) Cookie(name string) string {
	return r.Cookies[name]
}

// Form returns a form field value, or "".
func (r *Request) Form(name string) string {
	return r.FormData[name]
}

// File returns an uploaded file, or nil.
func (r *Request) File(name string) *FileDescriptor {
	return r.Files[name]
}
