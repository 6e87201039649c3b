package system

import (
	"time"

	coresys "github.com/l1jgo/worldhost/internal/core/system"
	"github.com/l1jgo/worldhost/internal/world"
)

// SchedulerSystem resumes the suspended session protocols and group loads
// once per tick. Phase 2 (Update).
type SchedulerSystem struct {
	world *world.State
}

func NewSchedulerSystem(ws *world.State) *SchedulerSystem {
	return &SchedulerSystem{world: ws}
}

func (s *SchedulerSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *SchedulerSystem) Update(_ time.Duration) {
	s.world.Tick()
}
