package system

import (
	"time"

	coresys "github.com/l1jgo/worldhost/internal/core/system"
	"github.com/l1jgo/worldhost/internal/metrics"
	"github.com/l1jgo/worldhost/internal/net"
)

// OutputSystem hands every session's buffered frames to its writer.
// Phase 4 (Output): responses, notifies and forward batches produced by the
// earlier phases leave in one flush per tick.
type OutputSystem struct {
	store *net.SessionStore
}

func NewOutputSystem(store *net.SessionStore) *OutputSystem {
	return &OutputSystem{store: store}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	frames := 0
	s.store.ForEach(func(sess *net.Session) {
		frames += sess.Pending()
		sess.FlushOutput()
	})
	if frames > 0 {
		metrics.FramesFlushed.Add(float64(frames))
	}
}
