package handler

import (
	"context"

	"go.uber.org/zap"
)

// HandleDisconnect cleans up after a closed session: a pending login is
// dropped and an online player leaves its world.
func HandleDisconnect(sessionID uint64, deps *Deps) {
	deps.takeLogin(sessionID)
	p := deps.World.RemovePlayer(context.Background(), sessionID)
	if p == nil {
		return
	}
	deps.Log.Info("玩家離線", zap.Uint64("session", sessionID), zap.Uint32("uid", p.UID))
}
