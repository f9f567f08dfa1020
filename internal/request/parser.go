package request

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Brownie44l1/webserver/internal/stream"
)

// Status codes the parser can ask the caller to answer with.
const (
	statusBadRequest            = 400
	statusRequestEntityTooLarge = 413
)

var (
	// ErrConnectionEnd means the client sent an empty start line or closed
	// the stream; the connection should be closed without a response.
	ErrConnectionEnd = errors.New("connection end")
	// ErrUnknownMethod means the method was neither GET nor POST. The
	// caller answers 200 with an empty text/javascript body.
	ErrUnknownMethod = errors.New("unknown method")
	ErrBadRequest    = errors.New("bad request")
)

// MethodError is returned for a method other than GET or POST. It matches
// ErrUnknownMethod with errors.Is.
type MethodError struct {
	Method string
	// Close is set when the client sent Connection: close.
	Close bool
}

func (e *MethodError) Error() string {
	return fmt.Sprintf("unknown method %q", e.Method)
}

func (e *MethodError) Is(target error) bool {
	return target == ErrUnknownMethod
}

// ProtocolError is a malformed request the caller answers with Status.
type ProtocolError struct {
	Status int
	Reason string
	// Close is set when the rest of the stream cannot be framed and the
	// connection must not be reused.
	Close bool
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error %d: %s", e.Status, e.Reason)
}

func (e *ProtocolError) Unwrap() error {
	if e.Status == statusBadRequest {
		return ErrBadRequest
	}
	return nil
}

func badRequest(reason string) *ProtocolError {
	return &ProtocolError{Status: statusBadRequest, Reason: reason}
}

// Limits bounds what a single request may declare.
type Limits struct {
	// MaxBodySize caps Content-Length. Zero means no cap.
	MaxBodySize int
}

// Parse reads exactly one HTTP message from r.
func Parse(r *stream.Reader, lim Limits) (*Request, error) {
	// A previous body on this connection may have left a limit behind.
	r.ClearLimit()

	line, err := r.ReadLine()
	if err != nil {
		return nil, err
	}
	if line == "" {
		return nil, ErrConnectionEnd
	}

	req := newRequest()
	method, target, version, lineErr := parseRequestLine(line)
	req.Method = method
	req.Address = target
	req.HTTPVersion = version

	contentLength := 0
	boundary := ""
	multipart := false
	var headerErr *ProtocolError

	// Headers are always read to the empty line so a bad one does not
	// leave the rest of the block in the stream.
	for {
		line, err = r.ReadLine()
		if err != nil {
			return nil, err
		}
		if line == "" {
			break
		}

		name, value, ok := req.Headers.Add(line)
		if !ok {
			continue
		}
		switch strings.ToLower(name) {
		case "content-length":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				if headerErr == nil {
					headerErr = &ProtocolError{Status: statusBadRequest, Reason: "invalid Content-Length", Close: true}
				}
				continue
			}
			contentLength = n
		case "content-type":
			boundary, multipart = boundaryParam(value)
		case "connection":
			if strings.EqualFold(value, "close") {
				req.CloseConnection = true
			}
		case "cookie":
			parseCookies(value, req.Cookies)
		}
	}

	if lineErr != nil {
		return nil, &ProtocolError{Status: statusBadRequest, Reason: lineErr.Error(), Close: true}
	}
	if headerErr != nil {
		return nil, headerErr
	}
	if lim.MaxBodySize > 0 && contentLength > lim.MaxBodySize {
		return nil, &ProtocolError{
			Status: statusRequestEntityTooLarge,
			Reason: fmt.Sprintf("body of %d bytes exceeds %d", contentLength, lim.MaxBodySize),
			Close:  true,
		}
	}

	req.splitAddress()

	if req.Method == MethodUnknown {
		if contentLength > 0 {
			r.SetLimit(contentLength)
			if err := r.Drain(); err != nil {
				return nil, err
			}
		}
		return nil, &MethodError{Method: requestMethod(line), Close: req.CloseConnection}
	}

	if req.Method == MethodPOST || contentLength > 0 {
		r.SetLimit(contentLength)
	}

	switch {
	case req.Method == MethodGET:
		err = parseForm(req.Query, req.FormData)
	case !multipart:
		var body string
		body, err = r.ReadLine()
		if err == nil {
			err = parseForm(body, req.FormData)
		}
	case boundary == "":
		err = badRequest("multipart body without a boundary")
	default:
		err = parseMultipart(r, boundary, req)
	}

	if drainErr := r.Drain(); drainErr != nil && err == nil {
		err = drainErr
	}
	if err != nil {
		var perr *ProtocolError
		if req.CloseConnection && errors.As(err, &perr) {
			perr.Close = true
		}
		return nil, err
	}
	return req, nil
}

// requestMethod is the first token of the start line.
func requestMethod(line string) string {
	method, _, _ := strings.Cut(line, " ")
	return method
}
