package feed

import (
	"bufio"
	"errors"
	"net"
	"sync"

	"github.com/rs/zerolog/log"
)

// Server accepts line-oriented TCP subscribers for the activity feed.
type Server struct {
	Addr string
	Hub  *Hub

	mu     sync.Mutex
	ln     net.Listener
	closed bool
}

func NewServer(addr string, hub *Hub) *Server {
	return &Server{Addr: addr, Hub: hub}
}

func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts on ln until Close is called.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ln.Close()
	}
	s.ln = ln
	s.mu.Unlock()
	log.Info().Str("addr", ln.Addr().String()).Msg("tcp feed listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Warn().Err(err).Msg("tcp feed accept")
			continue
		}

		s.Hub.Add(conn)
		log.Info().Str("remote", conn.RemoteAddr().String()).Msg("tcp feed client connected")

		go func(c net.Conn) {
			defer func() {
				s.Hub.Remove(c)
				log.Info().Str("remote", c.RemoteAddr().String()).Msg("tcp feed client disconnected")
			}()

			// subscribers are read-only; drain until EOF
			sc := bufio.NewScanner(c)
			for sc.Scan() {
			}
		}(conn)
	}
}

func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}
