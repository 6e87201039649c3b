package handler

import (
	"context"
	"errors"

	"github.com/l1jgo/worldhost/internal/net/packet"
	"github.com/l1jgo/worldhost/internal/world"
	"go.uber.org/zap"
)

// HandlePlayerLogin processes PlayerLogin.
// Format: [token S]. The token must match the one verified by
// GetPlayerToken on this session. A rejected login drops the session back
// to StateWaitToken so the client can request a new token.
func HandlePlayerLogin(ctx *packet.Context, r *packet.Reader, deps *Deps) {
	token := r.ReadS()
	login, ok := deps.takeLogin(ctx.Conn.ID())
	if !ok || login.token != token {
		deps.Log.Warn("登入權杖不符", zap.Uint64("session", ctx.Conn.ID()))
		ctx.Conn.SetState(packet.StateWaitToken)
		respondCode(ctx, packet.RetAccountVerifyFail, deps.Log)
		return
	}

	p, err := deps.World.AddPlayer(ctx.Conn, login.uid, login.name)
	if err != nil {
		ctx.Conn.SetState(packet.StateWaitToken)
		if errors.Is(err, world.ErrAlreadyOnline) {
			respondCode(ctx, packet.RetAlreadyOnline, deps.Log)
			return
		}
		deps.Log.Error("加入玩家失敗", zap.Uint32("uid", login.uid), zap.Error(err))
		respondCode(ctx, packet.RetFail, deps.Log)
		return
	}

	respondCode(ctx, packet.RetSucc, deps.Log)
	if err := deps.World.PlayerLogin(context.Background(), p, deps.World.HostWorldOf(p)); err != nil {
		deps.Log.Error("玩家登入世界失敗", zap.Uint32("uid", p.UID), zap.Error(err))
		return
	}
	deps.Log.Info("玩家登入", zap.String("account", login.name), zap.Uint32("uid", p.UID))
}

// HandleEnterSceneDone processes EnterSceneDone: the client finished loading
// the scene and is now in game.
func HandleEnterSceneDone(ctx *packet.Context, _ *packet.Reader, deps *Deps) {
	p := playerOf(ctx, deps)
	if p == nil || p.CurrentWorld == nil {
		respondCode(ctx, packet.RetFail, deps.Log)
		return
	}
	respondCode(ctx, packet.RetSucc, deps.Log)
	p.CurrentWorld.SceneReady(p)
}
