package world

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/l1jgo/worldhost/internal/core/event"
	"github.com/l1jgo/worldhost/internal/core/sched"
	"github.com/l1jgo/worldhost/internal/data"
	"github.com/l1jgo/worldhost/internal/metrics"
	"github.com/l1jgo/worldhost/internal/net/packet"
	"go.uber.org/zap"
)

var (
	ErrAlreadyOnline = errors.New("player already online")
	ErrPlayerOffline = errors.New("player offline")
)

// SceneLayouts is implemented by content that also carries scene layouts.
type SceneLayouts interface {
	Scene(sceneID uint32) *data.SceneConfig
}

// Config holds the world settings shared by every world.
type Config struct {
	SceneID          uint32
	WorldLevel       int32
	GroupLoadRange   float64
	GroupUnloadRange float64
}

// State is the authoritative registry of online players and live worlds.
// Accessed only from the game loop goroutine or tasks holding a baton.
type State struct {
	bySession map[uint64]*Player
	byUID     map[uint32]*Player
	worlds    map[uuid.UUID]*World

	content Content
	notify  Notifier
	bus     *event.Bus
	sched   *sched.Scheduler
	cfg     Config
	log     *zap.Logger
}

func NewState(cfg Config, content Content, notify Notifier, bus *event.Bus, log *zap.Logger) *State {
	if notify == nil {
		notify = nopNotifier{}
	}
	return &State{
		bySession: make(map[uint64]*Player),
		byUID:     make(map[uint32]*Player),
		worlds:    make(map[uuid.UUID]*World),
		content:   content,
		notify:    notify,
		bus:       bus,
		sched:     sched.New("game", log),
		cfg:       cfg,
		log:       log,
	}
}

// Scheduler returns the game-level scheduler running session protocols.
func (s *State) Scheduler() *sched.Scheduler { return s.sched }

// AddPlayer registers an authenticated player on conn. Its host world is
// created on first login.
func (s *State) AddPlayer(conn packet.Conn, uid uint32, name string) (*Player, error) {
	if _, ok := s.byUID[uid]; ok {
		return nil, ErrAlreadyOnline
	}
	p := &Player{UID: uid, Name: name, Conn: conn}
	p.Forward = newForwardBuffer(p)
	s.bySession[conn.ID()] = p
	s.byUID[uid] = p
	return p, nil
}

func (s *State) GetBySession(sessionID uint64) *Player {
	return s.bySession[sessionID]
}

// GetPlayerByUID returns the online player with uid, or nil.
func (s *State) GetPlayerByUID(uid uint32) *Player {
	return s.byUID[uid]
}

func (s *State) PlayerCount() int {
	return len(s.bySession)
}

func (s *State) AllPlayers(fn func(*Player)) {
	for _, p := range s.bySession {
		fn(p)
	}
}

// Worlds returns the live worlds ordered by host uid.
func (s *State) Worlds() []*World {
	out := make([]*World, 0, len(s.worlds))
	for _, w := range s.worlds {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].host.UID < out[j].host.UID })
	return out
}

func (s *State) WorldCount() int {
	return len(s.worlds)
}

// HostWorldOf returns p's own world, creating a fresh one when it has none
// or the previous one was closed.
func (s *State) HostWorldOf(p *Player) *World {
	if p.HostWorld != nil && !p.HostWorld.closed {
		return p.HostWorld
	}
	w := newWorld(s, p)
	s.worlds[w.id] = w
	p.HostWorld = w
	s.updateWorldGauge()
	return w
}

// PlayerLogin runs the login sequence of p into w: post-login state, player
// data, then scene entry.
func (s *State) PlayerLogin(ctx context.Context, p *Player, w *World) error {
	if p.removed {
		return ErrPlayerOffline
	}
	if w.closed {
		return ErrWorldClosed
	}
	if p.Conn != nil && !p.Conn.IsClosed() && p.Conn.State() < packet.StatePostLogin {
		p.Conn.SetState(packet.StatePostLogin)
	}
	s.notify.PlayerData(p)
	return w.Join(ctx, p, true)
}

// JoinPlayerScene moves p into the world of the player with targetUID.
// respond answers the request; it is not called when the target cannot be
// resolved or is p itself. A request made while p is already moving is
// refused with RetFail. Runs as a task on the game scheduler and yields
// before leaving the current world and before entering the new one.
func (s *State) JoinPlayerScene(ctx context.Context, y sched.Yielder, p *Player, targetUID uint32, respond func(packet.Retcode) error) error {
	target := s.GetPlayerByUID(targetUID)
	if target == nil || target == p {
		return nil
	}
	if p.transitioning {
		return respond(packet.RetFail)
	}
	host := liveHostWorld(target)
	if host == nil || host == p.CurrentWorld {
		return nil
	}

	code := packet.RetJoinOtherWait
	if host.mpMode {
		code = packet.RetSucc
	}
	if err := respond(code); err != nil {
		return err
	}

	alreadyMp := host.mpMode
	host.ChangeToMp()

	p.transitioning = true
	host.pendingJoins++
	joined := false
	defer func() {
		p.transitioning = false
		host.pendingJoins--
		if !joined {
			s.abortJoin(host)
		}
	}()

	if err := y.WaitTick(ctx); err != nil {
		return err
	}
	if !p.Online() {
		return nil
	}
	if cur := p.CurrentWorld; cur != nil {
		if err := cur.Leave(ctx, p); err != nil {
			return err
		}
	}

	if err := y.WaitTick(ctx); err != nil {
		return err
	}
	if !p.Online() {
		return nil
	}
	if host.closed {
		s.log.Info("目標世界已關閉，返回自己的世界", zap.Uint32("uid", p.UID))
		return s.PlayerLogin(ctx, p, s.HostWorldOf(p))
	}

	// Another task may have reverted the world while this one was parked.
	host.ChangeToMp()
	var err error
	if alreadyMp {
		err = host.Join(ctx, p, false)
	} else {
		err = s.PlayerLogin(ctx, p, host)
	}
	if err != nil {
		return err
	}
	joined = true
	host.UpdateMpTeam()
	return nil
}

// liveHostWorld returns p's own world without creating one.
func liveHostWorld(p *Player) *World {
	if p.HostWorld == nil || p.HostWorld.closed {
		return nil
	}
	return p.HostWorld
}

// abortJoin undoes the mp conversion of a join that never completed, unless
// another join into host is still in flight.
func (s *State) abortJoin(host *World) {
	if !host.closed && host.pendingJoins == 0 && host.mpMode && host.GuestCount() == 0 {
		host.revertToSolo()
	}
}

// sendHome moves p from its current world back into its own world.
func (s *State) sendHome(ctx context.Context, p *Player) error {
	if cur := p.CurrentWorld; cur != nil {
		if err := cur.Leave(ctx, p); err != nil {
			return err
		}
	}
	if !p.Online() {
		return nil
	}
	return s.PlayerLogin(ctx, p, s.HostWorldOf(p))
}

// RemovePlayer takes a disconnected player out of its world and the state.
func (s *State) RemovePlayer(ctx context.Context, sessionID uint64) *Player {
	p, ok := s.bySession[sessionID]
	if !ok {
		return nil
	}
	p.removed = true
	if w := p.CurrentWorld; w != nil {
		if err := w.Leave(ctx, p); err != nil {
			s.log.Warn("離線玩家離開世界失敗", zap.Uint32("uid", p.UID), zap.Error(err))
		}
	}
	delete(s.bySession, sessionID)
	delete(s.byUID, p.UID)
	return p
}

// Tick resumes the game scheduler, then every world's scheduler.
func (s *State) Tick() {
	s.sched.Tick()
	for _, w := range s.Worlds() {
		w.sched.Tick()
	}
}

// FlushAuthority sends every world's pending authority changes.
func (s *State) FlushAuthority() {
	for _, w := range s.Worlds() {
		w.authority.Flush()
	}
}

// RefreshScenes schedules a scene refresh in every world with members.
func (s *State) RefreshScenes() {
	for _, w := range s.Worlds() {
		if w.MemberCount() == 0 {
			continue
		}
		if err := w.RefreshScene(); err != nil {
			w.log.Debug("場景刷新排程失敗", zap.Error(err))
		}
	}
}

// CloseEmptyWorlds closes worlds without members and returns how many.
// Worlds with a join in flight stay open.
func (s *State) CloseEmptyWorlds(ctx context.Context) int {
	n := 0
	for _, w := range s.Worlds() {
		if w.MemberCount() > 0 || w.pendingJoins > 0 {
			continue
		}
		s.closeWorld(ctx, w)
		n++
	}
	return n
}

func (s *State) closeWorld(ctx context.Context, w *World) {
	if err := w.Close(ctx); err != nil {
		w.log.Warn("世界關閉失敗", zap.Error(err))
	}
	delete(s.worlds, w.id)
	if w.host.HostWorld == w {
		w.host.HostWorld = nil
	}
	s.updateWorldGauge()
}

// Shutdown stops session protocols and closes every world.
func (s *State) Shutdown(ctx context.Context) {
	s.sched.Close()
	for _, p := range s.bySession {
		p.removed = true
	}
	for _, w := range s.Worlds() {
		s.closeWorld(ctx, w)
	}
}

func (s *State) updateWorldGauge() {
	solo, mp := 0, 0
	for _, w := range s.worlds {
		if w.closed {
			continue
		}
		if w.mpMode {
			mp++
		} else {
			solo++
		}
	}
	metrics.Worlds.WithLabelValues("solo").Set(float64(solo))
	metrics.Worlds.WithLabelValues("mp").Set(float64(mp))
}
