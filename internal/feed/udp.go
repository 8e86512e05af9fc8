package feed

import (
	"encoding/json"
	"errors"
	"net"
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	SubscribeMessageType   = "subscribe"
	UnsubscribeMessageType = "unsubscribe"
)

type ControlMessage struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

type udpSubscriber struct {
	Name string
	Addr *net.UDPAddr
}

// UDPServer pushes events as single datagrams to subscribers that registered
// by sending a subscribe message.
type UDPServer struct {
	Addr string

	mu     sync.RWMutex
	conn   *net.UDPConn
	subs   map[string]udpSubscriber
	closed bool
}

func NewUDPServer(addr string) *UDPServer {
	return &UDPServer{Addr: addr, subs: make(map[string]udpSubscriber)}
}

func (s *UDPServer) Run() error {
	udpAddr, err := net.ResolveUDPAddr("udp", s.Addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	return s.Serve(conn)
}

// Serve reads control messages from conn until Close is called.
func (s *UDPServer) Serve(conn *net.UDPConn) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return conn.Close()
	}
	s.conn = conn
	s.mu.Unlock()
	defer conn.Close()

	log.Info().Str("addr", conn.LocalAddr().String()).Msg("udp feed listening")

	buffer := make([]byte, 2048)
	for {
		n, addr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		msg, err := parseControlMessage(buffer[:n])
		if err != nil {
			log.Debug().Err(err).Str("remote", addr.String()).Msg("udp feed: invalid message")
			continue
		}

		switch msg.Type {
		case SubscribeMessageType:
			s.add(msg.Name, addr)
			s.send(addr, []byte(`{"type":"welcome","transport":"udp"}`))
			log.Info().Str("remote", addr.String()).Str("name", msg.Name).Msg("udp feed client subscribed")
		case UnsubscribeMessageType:
			s.remove(addr)
			log.Info().Str("remote", addr.String()).Msg("udp feed client unsubscribed")
		}
	}
}

func (s *UDPServer) Publish(e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Msg("udp feed: marshal event")
		return
	}

	for _, sub := range s.snapshot() {
		s.sendWithRetry(sub, payload)
	}
}

func (s *UDPServer) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

func (s *UDPServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *UDPServer) add(name string, addr *net.UDPAddr) {
	s.mu.Lock()
	s.subs[addr.String()] = udpSubscriber{Name: name, Addr: addr}
	s.mu.Unlock()
}

func (s *UDPServer) remove(addr *net.UDPAddr) {
	s.mu.Lock()
	delete(s.subs, addr.String())
	s.mu.Unlock()
}

func (s *UDPServer) snapshot() []udpSubscriber {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]udpSubscriber, 0, len(s.subs))
	for _, sub := range s.subs {
		out = append(out, sub)
	}
	return out
}

func (s *UDPServer) sendWithRetry(sub udpSubscriber, payload []byte) {
	if err := s.send(sub.Addr, payload); err == nil {
		return
	}
	if err := s.send(sub.Addr, payload); err != nil {
		log.Debug().Err(err).Str("remote", sub.Addr.String()).Msg("udp feed: dropping subscriber")
		s.remove(sub.Addr)
	}
}

func (s *UDPServer) send(addr *net.UDPAddr, payload []byte) error {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()
	if conn == nil {
		return errors.New("udp feed not running")
	}
	_, err := conn.WriteToUDP(payload, addr)
	return err
}

func parseControlMessage(data []byte) (ControlMessage, error) {
	var msg ControlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, err
	}
	if msg.Type == "" {
		return msg, errors.New("missing message type")
	}
	return msg, nil
}
