package handler

import (
	"context"

	"github.com/l1jgo/worldhost/internal/core/sched"
	"github.com/l1jgo/worldhost/internal/net/packet"
	"go.uber.org/zap"
)

// HandleJoinPlayerScene processes JoinPlayerScene. Format: [target uid DU].
// The join runs as a task on the game scheduler; the response is sent
// before the task first yields.
func HandleJoinPlayerScene(ctx *packet.Context, r *packet.Reader, deps *Deps) {
	targetUID := r.ReadDU()
	p := playerOf(ctx, deps)
	if p == nil || r.Err() != nil {
		return
	}

	respond := func(code packet.Retcode) error {
		return ctx.Respond(packet.RetcodeBody(code))
	}
	err := deps.World.Scheduler().Spawn("join-player-scene", func(tctx context.Context, y sched.Yielder) error {
		return deps.World.JoinPlayerScene(tctx, y, p, targetUID, respond)
	})
	if err != nil {
		deps.Log.Warn("加入世界排程失敗", zap.Uint32("uid", p.UID), zap.Error(err))
	}
}
