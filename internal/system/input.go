package system

import (
	"time"

	coresys "github.com/l1jgo/worldhost/internal/core/system"
	"github.com/l1jgo/worldhost/internal/handler"
	"github.com/l1jgo/worldhost/internal/metrics"
	"github.com/l1jgo/worldhost/internal/net"
	"github.com/l1jgo/worldhost/internal/net/packet"
	"go.uber.org/zap"
)

// InputSystem admits new sessions, dispatches queued packets through the
// state gate and retires closed sessions. Phase 0 (Input).
type InputSystem struct {
	netServer  *net.Server
	registry   *packet.Registry
	store      *net.SessionStore
	deps       *handler.Deps
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(netServer *net.Server, registry *packet.Registry, store *net.SessionStore, deps *handler.Deps, maxPerTick int, log *zap.Logger) *InputSystem {
	return &InputSystem{
		netServer:  netServer,
		registry:   registry,
		store:      store,
		deps:       deps,
		maxPerTick: max(maxPerTick, 1),
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	s.admit()

	var closed []*net.Session
	s.store.ForEach(func(sess *net.Session) {
		if sess.IsClosed() {
			closed = append(closed, sess)
			return
		}
		s.drain(sess)
	})

	// A closed session's queued packets still go through the gate, which
	// drops them against StateDisconnecting, before its player is removed.
	for _, sess := range closed {
		s.drain(sess)
		s.retire(sess)
	}

	metrics.Sessions.Set(float64(s.store.Len()))

	// Responses produced in this phase start writing while later phases run.
	s.store.ForEach(func(sess *net.Session) {
		sess.FlushOutput()
	})
}

func (s *InputSystem) admit() {
	for {
		select {
		case sess := <-s.netServer.NewSessions():
			s.store.Add(sess)
		default:
			return
		}
	}
}

// drain dispatches up to maxPerTick queued packets of one session.
func (s *InputSystem) drain(sess *net.Session) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case data := <-sess.InQueue:
			if err := s.registry.Dispatch(sess, data); err != nil {
				sess.Log().Debug("封包分派錯誤", zap.Error(err))
			}
		default:
			return
		}
	}
}

// retire removes a closed session's player from its world and drops the
// session from the store.
func (s *InputSystem) retire(sess *net.Session) {
	handler.HandleDisconnect(sess.ID(), s.deps)
	s.store.Remove(sess.ID())
	s.log.Debug("連線已移除", zap.Uint64("session", sess.ID()), zap.String("ip", sess.IP))
}
