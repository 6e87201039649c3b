package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/l1jgo/worldhost/internal/net/packet"
	"github.com/l1jgo/worldhost/internal/persist"
	"go.uber.org/zap"
)

const authTimeout = 5 * time.Second

// HandleGetPlayerToken processes GetPlayerToken.
// Format: [account S][token S]. Response: [retcode D][uid DU][account S].
func HandleGetPlayerToken(ctx *packet.Context, r *packet.Reader, deps *Deps) {
	name := strings.ToLower(strings.TrimSpace(r.ReadS()))
	token := r.ReadS()
	if r.Err() != nil || name == "" {
		respondCode(ctx, packet.RetAccountVerifyFail, deps.Log)
		return
	}

	actx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()

	uid, err := deps.Accounts.Authenticate(actx, name, token)
	if err != nil {
		if !errors.Is(err, persist.ErrVerifyFailed) {
			deps.Log.Error("帳號驗證錯誤", zap.String("account", name), zap.Error(err))
		} else {
			deps.Log.Info("帳號驗證失敗", zap.String("account", name))
		}
		respondCode(ctx, packet.RetAccountVerifyFail, deps.Log)
		return
	}
	if deps.World.GetPlayerByUID(uid) != nil {
		respondCode(ctx, packet.RetAlreadyOnline, deps.Log)
		return
	}

	deps.rememberLogin(ctx.Conn.ID(), pendingLogin{uid: uid, name: name, token: token})
	ctx.Conn.SetState(packet.StateWaitLogin)

	w := packet.NewWriter()
	w.WriteD(int32(packet.RetSucc))
	w.WriteDU(uid)
	w.WriteS(name)
	if err := ctx.Respond(w.Bytes()); err != nil {
		deps.Log.Debug("回應發送失敗", zap.Error(err))
	}
	deps.Log.Info("帳號驗證成功", zap.String("account", name), zap.Uint32("uid", uid))
}
