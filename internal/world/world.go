package world

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/l1jgo/worldhost/internal/core/ecs"
	"github.com/l1jgo/worldhost/internal/core/event"
	"github.com/l1jgo/worldhost/internal/core/sched"
	"github.com/l1jgo/worldhost/internal/data"
	"github.com/l1jgo/worldhost/internal/net/packet"
	"go.uber.org/zap"
)

// HostPeerID is the peer id of a world's host. Guests get ids after it.
const HostPeerID uint32 = 1

var (
	ErrWorldClosed    = errors.New("world closed")
	ErrAlreadyInWorld = errors.New("player already in another world")
)

// World is one player's simulated world, shared with guests in mp mode.
// Accessed only from the game loop goroutine or tasks holding its baton.
type World struct {
	id     uuid.UUID
	state  *State
	host   *Player
	mpMode bool
	level  int32

	members  map[uint32]*Player // peer id → player
	nextPeer uint32

	pendingJoins int // JoinPlayerScene tasks heading here

	scene     *Scene
	entities  *EntityManager
	authority *Tracker
	sched     *sched.Scheduler

	closed bool
	log    *zap.Logger
}

func newWorld(s *State, host *Player) *World {
	w := &World{
		id:       uuid.New(),
		state:    s,
		host:     host,
		level:    s.cfg.WorldLevel,
		members:  make(map[uint32]*Player),
		nextPeer: HostPeerID + 1,
	}
	w.log = s.log.With(zap.String("world", w.id.String()), zap.Uint32("host", host.UID))
	w.entities = newEntityManager(w, w.log)
	w.authority = newTracker(w)
	w.sched = sched.New(fmt.Sprintf("world-%d", host.UID), w.log)

	var layout *data.SceneConfig
	if layouts, ok := s.content.(SceneLayouts); ok {
		layout = layouts.Scene(s.cfg.SceneID)
	}
	w.scene = NewScene(SceneOptions{
		ID:          s.cfg.SceneID,
		Layout:      layout,
		Content:     s.content,
		Registry:    w.entities,
		WorldLevel:  func() int32 { return w.level },
		LoadRange:   s.cfg.GroupLoadRange,
		UnloadRange: s.cfg.GroupUnloadRange,
		Log:         w.log,
	})
	return w
}

func (w *World) ID() uuid.UUID               { return w.id }
func (w *World) Host() *Player               { return w.host }
func (w *World) IsMp() bool                  { return w.mpMode }
func (w *World) Level() int32                { return w.level }
func (w *World) Scene() *Scene               { return w.scene }
func (w *World) Entities() *EntityManager    { return w.entities }
func (w *World) Authority() *Tracker         { return w.authority }
func (w *World) Scheduler() *sched.Scheduler { return w.sched }
func (w *World) Closed() bool                { return w.closed }

// Member returns the member with peerID, or nil.
func (w *World) Member(peerID uint32) *Player {
	return w.members[peerID]
}

// Members returns the current members ordered by peer id.
func (w *World) Members() []*Player {
	out := make([]*Player, 0, len(w.members))
	for _, p := range w.members {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeerID < out[j].PeerID })
	return out
}

func (w *World) MemberCount() int { return len(w.members) }

// GuestCount returns the number of members other than the host.
func (w *World) GuestCount() int {
	n := len(w.members)
	if _, ok := w.members[HostPeerID]; ok {
		n--
	}
	return n
}

// authorityPeer is the peer that takes over unowned entities: the host when
// present, otherwise the lowest guest peer, otherwise none.
func (w *World) authorityPeer() uint32 {
	if _, ok := w.members[HostPeerID]; ok {
		return HostPeerID
	}
	best := uint32(0)
	for peer := range w.members {
		if best == 0 || peer < best {
			best = peer
		}
	}
	return best
}

// ChangeToMp turns the world into a shared world. Idempotent.
func (w *World) ChangeToMp() {
	if w.mpMode {
		return
	}
	w.mpMode = true
	w.log.Info("世界切換為多人模式")
	event.Emit(w.state.bus, event.WorldModeChanged{WorldID: w.id, HostUID: w.host.UID, Mp: true})
	w.state.updateWorldGauge()
}

func (w *World) revertToSolo() {
	if !w.mpMode {
		return
	}
	w.mpMode = false
	w.log.Info("世界恢復為單人模式")
	event.Emit(w.state.bus, event.WorldModeChanged{WorldID: w.id, HostUID: w.host.UID, Mp: false})
	w.state.updateWorldGauge()
	w.UpdateMpTeam()
}

// Join adds p as a member and starts its scene entry. The host always gets
// HostPeerID. fresh marks a join made through the login sequence.
func (w *World) Join(ctx context.Context, p *Player, fresh bool) error {
	if w.closed {
		return ErrWorldClosed
	}
	if p.CurrentWorld == w {
		return nil
	}
	if p.CurrentWorld != nil {
		return fmt.Errorf("join %s: %w", p, ErrAlreadyInWorld)
	}

	peer := HostPeerID
	if p != w.host {
		peer = w.nextPeer
		w.nextPeer++
	}
	w.members[peer] = p
	p.CurrentWorld = w
	p.PeerID = peer

	if p.Conn != nil && !p.Conn.IsClosed() {
		p.Conn.SetState(packet.StateEnterScene)
	}
	w.state.notify.PlayerEnterScene(p, w)

	avatar := NewAvatar(p.UID)
	avatar.place(p.Pos, data.Vec3{})
	avatar.AuthorityPeerID = peer
	p.Avatar = avatar
	if err := w.entities.Add(ctx, avatar, VisionBorn); err != nil {
		return err
	}
	w.adoptOrphans()

	w.log.Info("玩家進入世界", zap.Uint32("uid", p.UID), zap.Uint32("peer", peer), zap.Bool("fresh", fresh))
	event.Emit(w.state.bus, event.PlayerJoinedWorld{
		UID: p.UID, WorldID: w.id, HostUID: w.host.UID, PeerID: peer, Fresh: fresh,
	})
	return nil
}

// adoptOrphans gives entities whose authority is not a member to the
// world's authority peer.
func (w *World) adoptOrphans() {
	to := w.authorityPeer()
	if to == 0 {
		return
	}
	var orphans []*Entity
	w.entities.Each(func(e *Entity) {
		if e.Kind != KindAvatar && w.members[e.AuthorityPeerID] == nil {
			orphans = append(orphans, e)
		}
	})
	for _, e := range orphans {
		w.authority.Set(e, to)
	}
}

// SceneReady completes scene entry: the client is in game and receives
// every entity already in the scene.
func (w *World) SceneReady(p *Player) {
	if p.CurrentWorld != w {
		return
	}
	p.Conn.SetState(packet.StateInGame)
	var visible []*Entity
	w.entities.Each(func(e *Entity) {
		if e != p.Avatar {
			visible = append(visible, e)
		}
	})
	if len(visible) == 0 {
		return
	}
	w.state.notify.EntityAppear([]*Player{p}, visible, VisionMeet)
}

// Leave removes p from the world. Entities it simulated go to the authority
// peer. A host leaving a shared world sends every guest home. A shared world
// left without guests, and with no join heading in, becomes solo again.
func (w *World) Leave(ctx context.Context, p *Player) error {
	if p.CurrentWorld != w {
		return nil
	}
	peer := p.PeerID
	if avatar := p.Avatar; avatar != nil {
		if err := w.entities.Remove(ctx, avatar, VisionRemove); err != nil {
			return err
		}
		w.entities.Release(avatar)
		p.Avatar = nil
	}
	delete(w.members, peer)
	p.CurrentWorld = nil
	p.PeerID = 0
	if p.Conn != nil && !p.Conn.IsClosed() {
		p.Conn.SetState(packet.StatePostLogin)
	}

	if to := w.authorityPeer(); to != 0 {
		w.authority.Reassign(peer, to)
	}

	w.log.Info("玩家離開世界", zap.Uint32("uid", p.UID), zap.Uint32("peer", peer))
	event.Emit(w.state.bus, event.PlayerLeftWorld{UID: p.UID, WorldID: w.id, HostUID: w.host.UID})

	if !w.mpMode {
		return nil
	}
	if peer == HostPeerID {
		for _, guest := range w.Members() {
			if err := w.state.sendHome(ctx, guest); err != nil {
				w.log.Warn("送回訪客失敗", zap.Uint32("uid", guest.UID), zap.Error(err))
			}
		}
	}
	if w.GuestCount() == 0 && w.pendingJoins == 0 {
		w.revertToSolo()
		return nil
	}
	w.UpdateMpTeam()
	return nil
}

// UpdateMpTeam sends the member roster to every member.
func (w *World) UpdateMpTeam() {
	if len(w.members) == 0 {
		return
	}
	w.state.notify.TeamUpdate(w.Members(), w)
}

// AvatarPositions returns the positions of in-game member avatars.
func (w *World) AvatarPositions() []data.Vec3 {
	var out []data.Vec3
	for _, p := range w.Members() {
		if p.Avatar == nil || p.Conn == nil || p.Conn.State() != packet.StateInGame {
			continue
		}
		out = append(out, p.Avatar.Motion.Pos)
	}
	return out
}

// RefreshScene schedules a scene refresh around the member avatars.
func (w *World) RefreshScene() error {
	if w.closed || w.scene.refreshing {
		return nil
	}
	return w.sched.Spawn("scene-refresh", func(ctx context.Context, y sched.Yielder) error {
		return w.scene.Refresh(ctx, y, w.AvatarPositions())
	})
}

// MoveAvatar records a new avatar position for p.
func (w *World) MoveAvatar(p *Player, m Motion) {
	if p.CurrentWorld != w || p.Avatar == nil {
		return
	}
	p.Avatar.Motion = m
	p.Pos = m.Pos
}

// KillEntity marks an entity dead on behalf of p. Only the entity's
// authority may kill it; avatars are not killed this way.
func (w *World) KillEntity(ctx context.Context, p *Player, id ecs.EntityID) (bool, error) {
	e := w.entities.Get(id)
	if e == nil || e.Kind == KindAvatar || e.Dead {
		return false, nil
	}
	if p.CurrentWorld != w || e.AuthorityPeerID != p.PeerID {
		return false, nil
	}
	e.Dead = true
	if err := w.entities.Remove(ctx, e, VisionDie); err != nil {
		return false, err
	}
	return true, nil
}

// Close unloads the scene and stops the world's scheduler. Remaining
// members are removed first.
func (w *World) Close(ctx context.Context) error {
	if w.closed {
		return nil
	}
	for _, p := range w.Members() {
		if err := w.Leave(ctx, p); err != nil {
			return err
		}
	}
	w.closed = true
	w.sched.Close()
	if err := w.scene.UnloadAll(ctx); err != nil {
		return err
	}
	w.authority.batch.Take()
	w.log.Info("世界已關閉")
	event.Emit(w.state.bus, event.WorldClosed{WorldID: w.id, HostUID: w.host.UID})
	return nil
}

func (w *World) String() string {
	return fmt.Sprintf("world(%d,%s)", w.host.UID, w.id)
}
