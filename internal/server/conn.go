package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Brownie44l1/webserver/internal/request"
	"github.com/Brownie44l1/webserver/internal/response"
	"github.com/Brownie44l1/webserver/internal/stream"
)

// serveConn handles all requests on a single connection
func (s *Server) serveConn(conn net.Conn) {
	ctx := context.Background()
	s.metrics.connOpened(ctx)
	defer s.metrics.connClosed(ctx)
	defer conn.Close()
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("connection panic",
				"remote", conn.RemoteAddr().String(),
				"panic", fmt.Sprint(p),
				"stack", string(debug.Stack()),
			)
		}
	}()

	r := stream.NewReader(conn)
	defer r.Release()

	keepAlive := s.opts.KeepAlive()
	w := response.NewWriter(conn, s.opts.ReadTimeout())

	for {
		if keepAlive {
			if err := conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout())); err != nil {
				s.logger.Debug("failed to set read deadline",
					"remote", conn.RemoteAddr().String(),
					"error", err,
				)
				return
			}
		}
		if !s.serveRequest(ctx, conn, r, w) {
			return
		}
		if !keepAlive || s.stopping.Load() {
			return
		}
	}
}

// serveRequest runs one parse, handle, respond cycle. It reports whether
// the connection may carry another request.
func (s *Server) serveRequest(ctx context.Context, conn net.Conn, r *stream.Reader, w *response.Writer) bool {
	req, err := request.Parse(r, s.limits)
	start := time.Now()
	if err != nil {
		return s.handleParseError(ctx, conn, w, err, start)
	}

	ok := s.respond(w, req)
	s.metrics.RecordRequest(ctx, w.StatusCode(), time.Since(start))
	if !ok {
		return false
	}
	return !shouldCloseConnection(req, w)
}

// respond writes the handler's answer or falls back to a static file. It
// returns false when the connection must be closed.
func (s *Server) respond(w *response.Writer, req *request.Request) bool {
	resp, err := s.callHandler(req)
	if err != nil {
		w.WriteStatus(response.StatusInternalServerError)
		return false
	}
	if resp != nil {
		return w.WriteResponse(resp) == nil
	}

	// A query with no path never names a file.
	if strings.HasPrefix(req.Address, "/?") {
		return w.WriteStatus(response.StatusInternalServerError) == nil
	}

	res := s.static.Resolve(req.Address)
	if res.Status == response.StatusInternalServerError {
		s.logger.Warn("error reading static file", "path", req.Path)
	}
	return w.Write(res.Status, res.ContentType, res.Data, nil) == nil
}

// callHandler invokes the handler, turning a panic into an error.
func (s *Server) callHandler(req *request.Request) (resp *response.Response, err error) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("handler panic",
				"method", req.Method.String(),
				"path", req.Path,
				"panic", fmt.Sprint(p),
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("handler panic: %v", p)
		}
	}()

	return s.handler.Handle(req), nil
}

// handleParseError answers what the parser rejected and reports whether
// the connection may continue.
func (s *Server) handleParseError(ctx context.Context, conn net.Conn, w *response.Writer, err error, start time.Time) bool {
	var (
		perr *request.ProtocolError
		merr *request.MethodError
	)
	switch {
	case errors.Is(err, request.ErrConnectionEnd):
		return false

	case errors.As(err, &merr):
		s.metrics.RecordRequest(ctx, response.StatusOK, time.Since(start))
		if w.Write(response.StatusOK, "text/javascript", nil, nil) != nil {
			return false
		}
		return !merr.Close

	case errors.As(err, &perr):
		s.logger.Debug("rejected request",
			"remote", conn.RemoteAddr().String(),
			"status", perr.Status,
			"reason", perr.Reason,
		)
		code := response.StatusCode(perr.Status)
		s.metrics.RecordRequest(ctx, code, time.Since(start))
		if w.WriteStatus(code) != nil {
			return false
		}
		return !perr.Close

	case isTimeout(err):
		s.logger.Debug("read timeout", "remote", conn.RemoteAddr().String())
		return false

	case errors.Is(err, net.ErrClosed):
		return false

	default:
		s.logger.Warn("error reading request",
			"remote", conn.RemoteAddr().String(),
			"error", err,
		)
		return false
	}
}

func isTimeout(err error) bool {
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
