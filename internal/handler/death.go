package handler

import (
	"context"

	"github.com/l1jgo/worldhost/internal/core/ecs"
	"github.com/l1jgo/worldhost/internal/net/packet"
	"go.uber.org/zap"
)

// HandleEntityDie processes EntityDie. Format: [entity id DU].
// Only the entity's authority can report its death.
func HandleEntityDie(ctx *packet.Context, r *packet.Reader, deps *Deps) {
	id := ecs.EntityID(r.ReadDU())
	p := playerOf(ctx, deps)
	if p == nil || p.CurrentWorld == nil || r.Err() != nil {
		return
	}
	killed, err := p.CurrentWorld.KillEntity(context.Background(), p, id)
	if err != nil {
		deps.Log.Warn("實體死亡處理失敗", zap.Uint32("entity", uint32(id)), zap.Error(err))
		return
	}
	if !killed {
		deps.Log.Debug("忽略死亡通知", zap.Uint32("uid", p.UID), zap.Uint32("entity", uint32(id)))
	}
}
