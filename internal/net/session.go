package net

import (
	"encoding/binary"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/l1jgo/worldhost/internal/net/packet"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrSessionClosed is returned by Send once the session is closed.
var ErrSessionClosed = errors.New("session closed")

const (
	defaultWriteTimeout = 10 * time.Second
	// lingerTimeout bounds how long a closing session keeps writing frames
	// that were already flushed, so a final response still reaches the client.
	lingerTimeout = time.Second
)

// Session is one client connection and implements packet.Conn. The reader
// and writer goroutines only move frames; state, seq and the output buffer
// are driven from the game loop.
type Session struct {
	id uint64
	tr transport

	state atomic.Int32 // packet.SessionState
	seq   atomic.Uint32

	InQueue  chan []byte // read by the game loop
	OutQueue chan []byte // read by writeLoop

	IP string

	outBuf [][]byte // game loop only, flushed by OutputSystem

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	started   atomic.Bool

	limiter      *rate.Limiter // nil = unlimited
	writeTimeout time.Duration

	log *zap.Logger
}

func newSession(tr transport, id uint64, opts ServerOptions, log *zap.Logger) *Session {
	s := &Session{
		id:           id,
		tr:           tr,
		InQueue:      make(chan []byte, max(opts.InQueueSize, 1)),
		OutQueue:     make(chan []byte, max(opts.OutQueueSize, 1)),
		IP:           tr.RemoteAddr(),
		closeCh:      make(chan struct{}),
		writeTimeout: opts.WriteTimeout,
		log:          log.With(zap.Uint64("session", id)),
	}
	if s.writeTimeout <= 0 {
		s.writeTimeout = defaultWriteTimeout
	}
	if opts.PacketsPerSec > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.PacketsPerSec), opts.PacketsPerSec)
	}
	s.state.Store(int32(packet.StateNone))
	return s
}

func (s *Session) ID() uint64 { return s.id }

func (s *Session) State() packet.SessionState {
	return packet.SessionState(s.state.Load())
}

// SetState changes the protocol state. A closed session stays in
// StateDisconnecting.
func (s *Session) SetState(st packet.SessionState) {
	if s.closed.Load() && st != packet.StateDisconnecting {
		return
	}
	s.state.Store(int32(st))
}

// NextSeq returns the next outbound notification sequence number.
func (s *Session) NextSeq() uint32 {
	return s.seq.Add(1)
}

func (s *Session) Log() *zap.Logger { return s.log }

// Start moves the session to StateWaitToken and launches the reader and
// writer goroutines.
func (s *Session) Start() {
	s.started.Store(true)
	s.SetState(packet.StateWaitToken)
	go s.readLoop()
	go s.writeLoop()
}

// Send buffers a frame until the next FlushOutput. Game loop only.
func (s *Session) Send(data []byte) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	s.outBuf = append(s.outBuf, data)
	return nil
}

// FlushOutput hands buffered frames to the writer. A full OutQueue means the
// client is not reading; the session is closed rather than blocking the tick.
func (s *Session) FlushOutput() {
	defer func() { s.outBuf = s.outBuf[:0] }()
	for i, data := range s.outBuf {
		select {
		case s.OutQueue <- data:
		default:
			s.log.Warn("輸出佇列已滿，斷開慢速連線", zap.Int("dropped", len(s.outBuf)-i))
			s.Close()
			return
		}
	}
}

// Pending returns the number of frames waiting for FlushOutput.
func (s *Session) Pending() int { return len(s.outBuf) }

// Close marks the session disconnecting. The writer sends what was already
// flushed, within lingerTimeout, and then closes the transport.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.state.Store(int32(packet.StateDisconnecting))
		close(s.closeCh)
		if !s.started.Load() {
			s.tr.Close()
		}
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Done is closed when the session shuts down.
func (s *Session) Done() <-chan struct{} {
	return s.closeCh
}

func (s *Session) readLoop() {
	defer s.Close()

	for {
		payload, err := s.tr.ReadFrame()
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("讀取錯誤", zap.Error(err))
			}
			return
		}

		if s.limiter != nil && !s.limiter.Allow() {
			s.log.Warn("封包速率超限，斷開連線", zap.Float64("limit", float64(s.limiter.Limit())))
			return
		}

		// Inbound frames are never dropped: that would desync request seqs.
		select {
		case s.InQueue <- payload:
		case <-s.closeCh:
			return
		}
	}
}

func (s *Session) writeLoop() {
	defer s.tr.Close()
	defer s.Close()

	for {
		select {
		case data := <-s.OutQueue:
			if !s.write(data, time.Now().Add(s.writeTimeout)) {
				return
			}
		case <-s.closeCh:
			s.linger()
			return
		}
	}
}

// linger writes frames still queued at close time.
func (s *Session) linger() {
	deadline := time.Now().Add(min(lingerTimeout, s.writeTimeout))
	for time.Now().Before(deadline) {
		select {
		case data := <-s.OutQueue:
			if !s.write(data, deadline) {
				return
			}
		default:
			return
		}
	}
}

func (s *Session) write(data []byte, deadline time.Time) bool {
	if len(data) >= packet.HeaderSize {
		s.log.Debug("TX",
			zap.Uint16("op", binary.LittleEndian.Uint16(data)),
			zap.Int("len", len(data)))
	}
	if err := s.tr.WriteFrame(data, deadline); err != nil {
		if !s.closed.Load() {
			s.log.Debug("寫入錯誤", zap.Error(err))
		}
		return false
	}
	return true
}
