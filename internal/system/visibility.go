package system

import (
	"time"

	coresys "github.com/l1jgo/worldhost/internal/core/system"
	"github.com/l1jgo/worldhost/internal/world"
)

// SceneRefreshSystem schedules a group load/unload pass in every occupied
// world every interval ticks. Phase 3 (PostUpdate).
type SceneRefreshSystem struct {
	world     *world.State
	interval  int
	tickCount int
}

func NewSceneRefreshSystem(ws *world.State, intervalTicks int) *SceneRefreshSystem {
	return &SceneRefreshSystem{world: ws, interval: max(1, intervalTicks)}
}

func (s *SceneRefreshSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *SceneRefreshSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.world.RefreshScenes()
}

// AuthoritySystem sends each world's batched authority changes.
// Phase 3 (PostUpdate), registered after SceneRefreshSystem.
type AuthoritySystem struct {
	world *world.State
}

func NewAuthoritySystem(ws *world.State) *AuthoritySystem {
	return &AuthoritySystem{world: ws}
}

func (s *AuthoritySystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *AuthoritySystem) Update(_ time.Duration) {
	s.world.FlushAuthority()
}
