package handler

import (
	"github.com/l1jgo/worldhost/internal/net/packet"
	"go.uber.org/zap"
)

// HandlePing processes Ping. Format: [client time DU]; the response echoes it.
func HandlePing(ctx *packet.Context, r *packet.Reader, deps *Deps) {
	clientTime := r.ReadDU()
	if r.Err() != nil {
		respondCode(ctx, packet.RetFail, deps.Log)
		return
	}
	w := packet.NewWriter()
	w.WriteD(int32(packet.RetSucc))
	w.WriteDU(clientTime)
	if err := ctx.Respond(w.Bytes()); err != nil {
		deps.Log.Debug("回應發送失敗", zap.Error(err))
	}
}
