package handler

import (
	"github.com/l1jgo/worldhost/internal/core/ecs"
	"github.com/l1jgo/worldhost/internal/net/packet"
	"github.com/l1jgo/worldhost/internal/world"
	"go.uber.org/zap"
)

// PacketNotifier implements world.Notifier over the packet delivery
// primitives. Delivery failures are logged and never reach the world.
type PacketNotifier struct {
	log *zap.Logger
}

func NewPacketNotifier(log *zap.Logger) *PacketNotifier {
	return &PacketNotifier{log: log}
}

var _ world.Notifier = (*PacketNotifier)(nil)

// PlayerData sends S_PLAYER_DATA: [uid DU][name S].
func (n *PacketNotifier) PlayerData(p *world.Player) {
	w := packet.NewWriter()
	w.WriteDU(p.UID)
	w.WriteS(p.Name)
	n.notify(p, packet.PlayerData, w.Bytes())
}

// PlayerEnterScene sends S_PLAYER_ENTER_SCENE:
// [scene id DU][pos F×3][host uid DU][peer id DU][mp C][world id S].
func (n *PacketNotifier) PlayerEnterScene(p *world.Player, wld *world.World) {
	w := packet.NewWriter()
	w.WriteDU(wld.Scene().ID())
	writeVec(w, p.Pos)
	w.WriteDU(wld.Host().UID)
	w.WriteDU(p.PeerID)
	w.WriteBool(wld.IsMp())
	w.WriteS(wld.ID().String())
	n.notify(p, packet.PlayerEnterScene, w.Bytes())
}

// EntityAppear sends S_SCENE_ENTITY_APPEAR: [vision C][count H] then per
// entity [id DU][kind C][content DU][config DU][group DU][pos F×3][rot F×3]
// [authority DU][level D][ai C].
func (n *PacketNotifier) EntityAppear(to []*world.Player, entities []*world.Entity, vision world.VisionType) {
	w := packet.NewWriter()
	w.WriteC(byte(vision))
	w.WriteH(uint16(len(entities)))
	for _, e := range entities {
		w.WriteDU(uint32(e.ID))
		w.WriteC(byte(e.Kind))
		w.WriteDU(e.ContentID)
		w.WriteDU(e.ConfigID)
		w.WriteDU(e.GroupID)
		writeVec(w, e.Motion.Pos)
		writeVec(w, e.Motion.Rot)
		w.WriteDU(e.AuthorityPeerID)
		w.WriteD(e.Level)
		w.WriteBool(e.AIOpen)
	}
	n.broadcast(to, packet.SceneEntityAppear, w.Bytes())
}

// EntityDisappear sends S_SCENE_ENTITY_DISAPPEAR: [vision C][count H][id DU]...
func (n *PacketNotifier) EntityDisappear(to []*world.Player, ids []ecs.EntityID, vision world.VisionType) {
	w := packet.NewWriter()
	w.WriteC(byte(vision))
	w.WriteH(uint16(len(ids)))
	for _, id := range ids {
		w.WriteDU(uint32(id))
	}
	n.broadcast(to, packet.SceneEntityDisappear, w.Bytes())
}

// AuthorityChanged sends S_ENTITY_AUTHORITY_CHANGE: [count H] then per
// change [entity DU][peer DU][ai C][born pos F×3].
func (n *PacketNotifier) AuthorityChanged(to []*world.Player, changes []world.AuthorityChange) {
	w := packet.NewWriter()
	w.WriteH(uint16(len(changes)))
	for _, c := range changes {
		w.WriteDU(uint32(c.EntityID))
		w.WriteDU(c.PeerID)
		w.WriteBool(c.Info.AIOpen)
		writeVec(w, c.Info.BornPos)
	}
	n.broadcast(to, packet.EntityAuthorityChange, w.Bytes())
}

// TeamUpdate sends S_SCENE_TEAM_UPDATE: [mp C][host uid DU][count H] then
// per member [uid DU][peer DU][name S].
func (n *PacketNotifier) TeamUpdate(to []*world.Player, wld *world.World) {
	members := wld.Members()
	w := packet.NewWriter()
	w.WriteBool(wld.IsMp())
	w.WriteDU(wld.Host().UID)
	w.WriteH(uint16(len(members)))
	for _, m := range members {
		w.WriteDU(m.UID)
		w.WriteDU(m.PeerID)
		w.WriteS(m.Name)
	}
	n.broadcast(to, packet.SceneTeamUpdate, w.Bytes())
}

// ForwardBatch sends S_UNION_CMD: [count H] then per entry
// [opcode H][seq DU][forward type C][len H][body].
func (n *PacketNotifier) ForwardBatch(to *world.Player, entries []world.ForwardEntry) {
	w := packet.NewWriter()
	w.WriteH(uint16(len(entries)))
	for _, e := range entries {
		w.WriteH(e.Desc.Opcode())
		w.WriteDU(e.Seq)
		w.WriteC(byte(e.Type))
		w.WriteBlock(e.Body)
	}
	n.notify(to, packet.UnionCmd, w.Bytes())
}

func (n *PacketNotifier) notify(p *world.Player, desc *packet.Descriptor, body []byte) {
	if p.Conn == nil {
		return
	}
	if _, err := packet.Notify(p.Conn, desc, body); err != nil {
		n.log.Debug("通知發送失敗", zap.String("packet", desc.Name()), zap.Uint32("uid", p.UID), zap.Error(err))
	}
}

func (n *PacketNotifier) broadcast(to []*world.Player, desc *packet.Descriptor, body []byte) {
	conns := make([]packet.Conn, 0, len(to))
	for _, p := range to {
		if p.Conn != nil {
			conns = append(conns, p.Conn)
		}
	}
	if len(conns) == 0 {
		return
	}
	if _, err := packet.Broadcast(conns, desc, body); err != nil {
		n.log.Debug("廣播部分失敗", zap.String("packet", desc.Name()), zap.Error(err))
	}
}
