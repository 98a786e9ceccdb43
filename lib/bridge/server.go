package bridge

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/BioHaZard1/mooltipass/lib/handler"
)

// Server accepts host connections and feeds their packets to the
// dispatcher. A single mutex serializes dispatch across connections:
// the device contract is one packet fully handled, flash committed or
// not, before the next is read.
type Server struct {
	config     *Config
	dispatcher *handler.Dispatcher
	log        *logrus.Logger

	mu       sync.Mutex // guards listener/closed
	listener net.Listener
	closed   bool

	dispatchMu sync.Mutex
	wg         sync.WaitGroup
	sem        chan struct{}
}

// NewServer creates a bridge server over the given dispatcher.
func NewServer(cfg *Config, d *handler.Dispatcher, log *logrus.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Server{
		config:     cfg,
		dispatcher: d,
		log:        log,
		sem:        make(chan struct{}, cfg.MaxConnections),
	}, nil
}

// Start binds the listen address and serves until Stop. Blocking.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.ListenAddr, err)
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return errors.New("server already stopped")
	}
	s.listener = ln
	s.mu.Unlock()

	s.log.WithField("addr", ln.Addr().String()).Info("Host channel listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				break
			}
			s.log.WithError(err).Warn("Accept failed")
			continue
		}

		select {
		case s.sem <- struct{}{}:
		default:
			s.log.WithField("remote", conn.RemoteAddr().String()).
				Warn("Connection limit reached, rejecting host")
			conn.Close()
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() { <-s.sem }()
			s.serveConn(conn)
		}()
	}

	s.wg.Wait()
	return nil
}

// Addr returns the bound listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and waits for in-flight connections.
func (s *Server) Stop() {
	s.mu.Lock()
	s.closed = true
	ln := s.listener
	s.mu.Unlock()
	if ln != nil {
		ln.Close()
	}
	s.wg.Wait()
}

func (s *Server) serveConn(conn net.Conn) {
	c := newConnection(conn, s.config, s.log)
	defer c.Close()

	c.log.Info("Host connected")
	for {
		pkt, err := c.ReadPacket()
		if err != nil {
			c.log.WithError(err).Debug("Host channel closed")
			return
		}

		s.dispatchMu.Lock()
		replies := s.dispatcher.Dispatch(pkt)
		s.dispatchMu.Unlock()

		for _, reply := range replies {
			if err := c.WriteFrame(reply.Encode()); err != nil {
				c.log.WithError(err).Warn("Reply write failed")
				return
			}
		}
	}
}
