// Package server binds the TCP listener and runs the one-shot
// connection loop: accept, read one request, dispatch, write one
// response, close.
package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/guildd/guildd/internal/handler"
	"github.com/guildd/guildd/internal/logger"
	"github.com/guildd/guildd/internal/metrics"
	"github.com/guildd/guildd/internal/transport"
	"github.com/guildd/guildd/internal/wire"
)

// Server serves the chat protocol on one listener. Connections are
// fully independent; the only shared state is the store client behind
// the handler.
type Server struct {
	log     *logger.Logger
	handler *handler.Handler
	metrics *metrics.Metrics

	mu sync.Mutex
	ln net.Listener
	wg sync.WaitGroup
}

func New(log *logger.Logger, h *handler.Handler, m *metrics.Metrics) *Server {
	return &Server{
		log:     log.WithComponent("server"),
		handler: h,
		metrics: m,
	}
}

// ListenAndServe binds addr and serves until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until the listener is closed. Each
// accepted connection is served on its own goroutine.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.log.Info("listening", "addr", ln.Addr().String())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		s.metrics.ConnectionsTotal.Inc()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(conn)
		}()
	}
}

// Addr returns the bound address once Serve has started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// serveConn handles exactly one request/response exchange.
func (s *Server) serveConn(nc net.Conn) {
	s.metrics.ActiveConnections.Inc()
	defer s.metrics.ActiveConnections.Dec()

	conn := transport.New(nc)
	defer conn.Close()

	ctx := logger.WithRequestID(context.Background(), logger.GenerateRequestID())
	log := s.log.WithContext(ctx)
	log.Info("new connection", "remote", conn.RemoteAddr().String())

	start := time.Now()
	req, err := conn.ReadRequest()
	if err != nil {
		log.Warn("failed to read request", "error", err)
		// Best effort; the peer may already be gone.
		_ = conn.WriteValue(wire.Error{Kind: wire.ErrBadRequest})
		return
	}

	s.metrics.RequestsTotal.WithLabelValues(req.Type.Tag()).Inc()
	resp := s.handler.Handle(ctx, req)
	if errResp, ok := resp.(wire.Error); ok {
		s.metrics.ErrorsTotal.WithLabelValues(string(errResp.Kind)).Inc()
	}

	if err := conn.WriteValue(resp); err != nil {
		log.Warn("failed to write response", "error", err)
		return
	}
	s.metrics.RequestDuration.Observe(time.Since(start).Seconds())
	log.Debug("request served", "variant", req.Type.Tag(), "duration", time.Since(start))
}

// Shutdown closes the listener and waits for in-flight connections
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln != nil {
		_ = ln.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
