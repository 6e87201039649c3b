package system

import (
	"context"
	"time"

	coresys "github.com/l1jgo/worldhost/internal/core/system"
	"github.com/l1jgo/worldhost/internal/world"
	"go.uber.org/zap"
)

// WorldCleanupSystem closes worlds nobody is in. Phase 6 (Cleanup).
type WorldCleanupSystem struct {
	world     *world.State
	interval  int
	tickCount int
	log       *zap.Logger
}

func NewWorldCleanupSystem(ws *world.State, intervalTicks int, log *zap.Logger) *WorldCleanupSystem {
	return &WorldCleanupSystem{world: ws, interval: max(1, intervalTicks), log: log}
}

func (s *WorldCleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *WorldCleanupSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	if n := s.world.CloseEmptyWorlds(context.Background()); n > 0 {
		s.log.Debug("已關閉空世界", zap.Int("count", n), zap.Int("remaining", s.world.WorldCount()))
	}
}
