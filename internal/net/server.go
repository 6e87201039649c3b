package net

import (
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ServerOptions sizes per-session queues and limits.
type ServerOptions struct {
	InQueueSize   int
	OutQueueSize  int
	PacketsPerSec int           // 0 = unlimited
	WriteTimeout  time.Duration // 0 = default
}

// Server accepts TCP and websocket connections and creates Sessions.
// New sessions reach the game loop through a channel; closed sessions are
// noticed by the game loop itself via Session.IsClosed.
type Server struct {
	listener net.Listener
	upgrader websocket.Upgrader
	nextID   atomic.Uint64
	newConns chan *Session
	opts     ServerOptions
	log      *zap.Logger
	closeCh  chan struct{}
	closed   atomic.Bool
}

// NewServer listens on bindAddr for TCP clients. An empty bindAddr disables
// the TCP listener; websocket clients still arrive through ServeHTTP.
func NewServer(bindAddr string, opts ServerOptions, log *zap.Logger) (*Server, error) {
	s := &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		newConns: make(chan *Session, 64),
		opts:     opts,
		log:      log,
		closeCh:  make(chan struct{}),
	}
	if bindAddr != "" {
		ln, err := net.Listen("tcp", bindAddr)
		if err != nil {
			return nil, err
		}
		s.listener = ln
	}
	return s, nil
}

// AcceptLoop runs in its own goroutine. It accepts TCP connections, creates
// sessions and pushes them onto the newConns channel.
func (s *Server) AcceptLoop() {
	if s.listener == nil {
		return
	}
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return // server shutting down
			default:
			}
			s.log.Error("連線接受失敗", zap.Error(err))
			continue
		}
		tcp, ok := conn.(*net.TCPConn)
		if !ok {
			conn.Close()
			continue
		}
		tcp.SetNoDelay(true)
		s.admit(&streamTransport{conn: tcp, addr: conn.RemoteAddr().String()}, "tcp")
	}
}

// ServeHTTP upgrades the request to a websocket session.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.closed.Load() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket 升級失敗", zap.Error(err))
		return
	}
	conn.SetReadLimit(MaxFrameSize)
	s.admit(&wsTransport{conn: conn}, "ws")
}

func (s *Server) admit(tr transport, network string) {
	id := s.nextID.Add(1)
	sess := newSession(tr, id, s.opts, s.log)
	sess.Start()

	s.log.Info(fmt.Sprintf("玩家連線  session=%d  ip=%s  net=%s", id, sess.IP, network))

	select {
	case s.newConns <- sess:
	default:
		s.log.Warn("連線佇列已滿，拒絕新連線")
		sess.Close()
	}
}

// NewSessions returns the channel of newly connected sessions.
func (s *Server) NewSessions() <-chan *Session {
	return s.newConns
}

// Shutdown stops accepting new connections.
func (s *Server) Shutdown() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	close(s.closeCh)
	if s.listener != nil {
		s.listener.Close()
	}
}

// Addr returns the TCP listener's address, or nil when TCP is disabled.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}
