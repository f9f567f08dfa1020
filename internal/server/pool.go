package server

import "net"

// startWorkers runs ThreadCount workers draining the connection queue.
func (s *Server) startWorkers() {
	for range s.opts.ThreadCount {
		s.workers.Add(1)
		go s.worker()
	}
}

func (s *Server) worker() {
	defer s.workers.Done()

	for conn := range s.conns {
		// Queued connections arriving after Stop are closed unserved.
		if !s.track(conn) {
			conn.Close()
			continue
		}
		s.serveConn(conn)
		s.untrack(conn)
	}
}

// track registers conn for closing on Stop. It reports false once the
// server is stopping.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopping.Load() {
		return false
	}
	s.active[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.active, conn)
	s.mu.Unlock()
}

// closeActive interrupts every connection a worker holds.
func (s *Server) closeActive() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.active {
		conn.Close()
	}
}
