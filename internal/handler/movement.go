package handler

import (
	"github.com/l1jgo/worldhost/internal/data"
	"github.com/l1jgo/worldhost/internal/net/packet"
	"github.com/l1jgo/worldhost/internal/world"
	"go.uber.org/zap"
)

// HandleForward processes a relayed notification.
// Format: [forward type C][payload...]. The payload is relayed unchanged.
func HandleForward(ctx *packet.Context, r *packet.Reader, deps *Deps) {
	p := playerOf(ctx, deps)
	if p == nil {
		return
	}
	ft := world.ForwardType(r.ReadC())
	if r.Err() != nil {
		return
	}
	queueForward(ctx, p, ft, r.Rest())
}

// HandleEntityMove processes EntityMove.
// Format: [forward type C][pos F×3][rot F×3]. The avatar position drives
// group loading; the move is relayed to peers.
func HandleEntityMove(ctx *packet.Context, r *packet.Reader, deps *Deps) {
	p := playerOf(ctx, deps)
	if p == nil || p.CurrentWorld == nil {
		return
	}
	ft := world.ForwardType(r.ReadC())
	payload := r.Rest()

	mr := packet.NewReader(payload)
	m := world.Motion{Pos: readVec(mr), Rot: readVec(mr)}
	if r.Err() != nil || mr.Err() != nil {
		deps.Log.Debug("移動封包過短", zap.Uint32("uid", p.UID), zap.Int("len", len(payload)))
		return
	}
	p.CurrentWorld.MoveAvatar(p, m)

	queueForward(ctx, p, ft, payload)
}

func queueForward(ctx *packet.Context, p *world.Player, ft world.ForwardType, payload []byte) {
	body := append([]byte(nil), payload...)
	p.Forward.AddEntry(ctx.Desc, ft, body, ctx.Seq)
	p.Forward.SendAll()
}

func readVec(r *packet.Reader) data.Vec3 {
	x, y, z := r.ReadF3()
	return data.Vec3{X: x, Y: y, Z: z}
}

func writeVec(w *packet.Writer, v data.Vec3) {
	w.WriteF3(v.X, v.Y, v.Z)
}
