// Package server accepts connections and runs the request cycle for each
// of them on a fixed pool of workers.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Brownie44l1/webserver/internal/config"
	"github.com/Brownie44l1/webserver/internal/request"
	"github.com/Brownie44l1/webserver/internal/static"
)

// acceptBackoff spaces out retries after an accept error that did not
// come from closing the listener.
const acceptBackoff = 5 * time.Millisecond

type Server struct {
	opts     config.Options
	handler  Handler
	listener net.Listener
	static   *static.Resolver
	limits   request.Limits
	logger   *slog.Logger
	metrics  *Metrics

	conns      chan net.Conn
	workers    sync.WaitGroup
	acceptDone chan struct{}
	done       chan struct{}
	alive      atomic.Bool
	stopping   atomic.Bool
	stopOnce   sync.Once

	mu     sync.Mutex
	active map[net.Conn]struct{}
}

// Option customizes a server at Start.
type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// Start binds the listening socket and returns once the server accepts
// connections. opts is copied; a nil handler serves static files only.
func Start(opts config.Options, handler Handler, options ...Option) (*Server, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if handler == nil {
		handler = StaticOnly
	}

	tlsConfig, err := opts.TLSConfig()
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", opts.Addr())
	if err != nil {
		return nil, err
	}
	if tlsConfig != nil {
		listener = tls.NewListener(listener, tlsConfig)
	}

	s := &Server{
		opts:       opts,
		handler:    handler,
		listener:   listener,
		static:     static.New(opts.WWWRoot),
		limits:     request.Limits{MaxBodySize: opts.MaxBodySize},
		logger:     NewNullLogger(),
		conns:      make(chan net.Conn, opts.ThreadCount),
		acceptDone: make(chan struct{}),
		done:       make(chan struct{}),
		active:     make(map[net.Conn]struct{}),
	}
	for _, o := range options {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}

	s.startWorkers()
	s.alive.Store(true)
	go s.listen()

	s.logger.Info("server started",
		"addr", listener.Addr().String(),
		"tls", tlsConfig != nil,
		"workers", opts.ThreadCount,
		"keep_alive", opts.KeepAlive(),
	)
	return s, nil
}

func (s *Server) listen() {
	defer func() {
		close(s.conns)
		s.alive.Store(false)
		close(s.acceptDone)
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.stopping.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("error accepting connection", "error", err)
			time.Sleep(acceptBackoff)
			continue
		}

		select {
		case s.conns <- conn:
		case <-s.done:
			conn.Close()
			return
		}
	}
}

// Addr is the address the server listens on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Options returns the server's copy of its options.
func (s *Server) Options() config.Options {
	return s.opts
}

func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// IsAlive reports whether the accept loop is still running.
func (s *Server) IsAlive() bool {
	return s.alive.Load()
}

// Stop stops accepting and closes every open connection, abandoning
// requests in flight. It is safe to call more than once.
func (s *Server) Stop() {
	s.beginStop()
	s.closeActive()
}

// Shutdown stops accepting and waits for workers to finish the requests
// they hold. When ctx ends first the remaining connections are closed and
// ctx's error is returned.
func (s *Server) Shutdown(ctx context.Context) error {
	s.beginStop()

	finished := make(chan struct{})
	go func() {
		s.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		s.closeActive()
		return ctx.Err()
	}
}

// Wait blocks until the accept loop and all workers have exited.
func (s *Server) Wait() {
	<-s.acceptDone
	s.workers.Wait()
}

func (s *Server) beginStop() {
	s.stopOnce.Do(func() {
		s.stopping.Store(true)
		close(s.done)
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Warn("error closing listener", "error", err)
		}
		s.logger.Info("server stopping")
	})
}
