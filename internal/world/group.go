package world

import (
	"context"
	"time"

	"github.com/l1jgo/worldhost/internal/core/sched"
	"github.com/l1jgo/worldhost/internal/data"
	"github.com/l1jgo/worldhost/internal/metrics"
	"go.uber.org/zap"
)

// baseMonsterLevel is the world-level monster level at which scripted
// monster levels apply unchanged.
const baseMonsterLevel = 22

// SlotState is the state of one entity slot in a group list.
type SlotState uint8

const (
	SlotEmpty SlotState = iota // never constructed
	SlotLive                   // constructed, alive; revived on reload
	SlotDead                   // constructed, dead; skipped on reload
)

func slotState(e *Entity) SlotState {
	switch {
	case e == nil:
		return SlotEmpty
	case e.Dead:
		return SlotDead
	default:
		return SlotLive
	}
}

type phasePlan uint8

const (
	planConstruct phasePlan = iota
	planRevive
)

// planPhase decides how a load phase treats its list: an untouched list is
// built from config, a list with any slot is revived and never rebuilt.
func planPhase(slots []*Entity) phasePlan {
	for _, e := range slots {
		if slotState(e) != SlotEmpty {
			return planRevive
		}
	}
	return planConstruct
}

// Group is a spatial group of scripted entities, loaded and unloaded as a
// unit. Accessed only from the game loop or tasks holding its baton.
type Group struct {
	id          uint32
	block       *Block
	pos         data.Vec3
	dynamicLoad bool

	monsters []*Entity
	npcs     []*Entity
	gadgets  []*Entity

	loaded bool
	epoch  uint64 // bumped by Unload; a suspended Load stops when it changes
}

func newGroup(block *Block, cfg *data.GroupConfig) *Group {
	return &Group{
		id:          cfg.ID,
		block:       block,
		pos:         cfg.Pos,
		dynamicLoad: cfg.DynamicLoad,
	}
}

func (g *Group) ID() uint32          { return g.id }
func (g *Group) Pos() data.Vec3      { return g.pos }
func (g *Group) DynamicLoad() bool   { return g.dynamicLoad }
func (g *Group) Loaded() bool        { return g.loaded }
func (g *Group) Monsters() []*Entity { return g.monsters }
func (g *Group) Npcs() []*Entity     { return g.npcs }
func (g *Group) Gadgets() []*Entity  { return g.gadgets }

// Load instantiates or revives the group's monsters, NPCs and gadgets,
// waiting one tick before each phase. The loaded flag is set before the first
// suspension, so a Load that overlaps another is a no-op.
func (g *Group) Load(ctx context.Context, y sched.Yielder) error {
	if g.loaded {
		return nil
	}
	g.loaded = true
	epoch := g.epoch

	scene := g.block.scene
	cfg := scene.content.Group(scene.id, g.id)
	if cfg == nil {
		return nil
	}

	start := time.Now()
	phases := []func(context.Context, *data.GroupConfig) error{
		g.loadMonsters,
		g.loadNpcs,
		g.loadGadgets,
	}
	for _, phase := range phases {
		if err := y.WaitTick(ctx); err != nil {
			return err
		}
		if g.epoch != epoch {
			scene.log.Debug("群組載入中止", zap.Uint32("group", g.id))
			return nil
		}
		if err := phase(ctx, cfg); err != nil {
			return err
		}
	}
	metrics.GroupLoadDuration.WithLabelValues("load").Observe(time.Since(start).Seconds())
	return nil
}

// reloadList re-registers every live entity of a non-empty list. It reports
// false when the list is empty and must be built from config instead.
func (g *Group) reloadList(ctx context.Context, list []*Entity) (bool, error) {
	if planPhase(list) == planConstruct {
		return false, nil
	}
	reg := g.block.scene.registry
	for _, e := range list {
		if slotState(e) != SlotLive {
			continue
		}
		if err := reg.Add(ctx, e, VisionMeet); err != nil {
			return true, err
		}
		metrics.GroupEntities.WithLabelValues(e.Kind.String(), "revive").Inc()
	}
	return true, nil
}

func (g *Group) register(ctx context.Context, e *Entity) error {
	if err := g.block.scene.registry.Add(ctx, e, VisionBorn); err != nil {
		return err
	}
	metrics.GroupEntities.WithLabelValues(e.Kind.String(), "construct").Inc()
	return nil
}

func (g *Group) loadMonsters(ctx context.Context, cfg *data.GroupConfig) error {
	if revived, err := g.reloadList(ctx, g.monsters); revived || err != nil {
		return err
	}

	scene := g.block.scene
	offset := int32(0)
	if wl := scene.content.WorldLevel(scene.worldLevel()); wl != nil {
		offset = wl.MonsterLevel - baseMonsterLevel
	}

	for _, mc := range cfg.Monsters {
		e := NewMonster(mc.MonsterID)
		e.GroupID = g.id
		e.ConfigID = mc.ConfigID
		e.BlockID = g.block.id
		e.PoseID = mc.PoseID
		e.IsElite = mc.IsElite
		e.place(mc.Pos, mc.Rot)
		e.Level = clampLevel(mc.Level + offset)

		g.monsters = append(g.monsters, e)
		if err := g.register(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (g *Group) loadNpcs(ctx context.Context, cfg *data.GroupConfig) error {
	if revived, err := g.reloadList(ctx, g.npcs); revived || err != nil {
		return err
	}

	for _, nc := range cfg.Npcs {
		e := NewNpc(nc.NpcID)
		e.GroupID = g.id
		e.ConfigID = nc.ConfigID
		e.BlockID = g.block.id
		e.SuiteIDs = suiteIDsFor(cfg.Suites, nc.ConfigID)
		e.place(nc.Pos, nc.Rot)

		g.npcs = append(g.npcs, e)
		if err := g.register(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (g *Group) loadGadgets(ctx context.Context, cfg *data.GroupConfig) error {
	if revived, err := g.reloadList(ctx, g.gadgets); revived || err != nil {
		return err
	}

	for _, gc := range cfg.Gadgets {
		e := NewGadget(gc.GadgetID)
		e.GroupID = g.id
		e.ConfigID = gc.ConfigID
		e.BlockID = g.block.id
		e.InteractID = gc.InteractID
		e.Level = gc.Level
		e.place(gc.Pos, gc.Rot)

		g.gadgets = append(g.gadgets, e)
		if err := g.register(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// suiteIDsFor returns the 1-based indices of the suites listing configID
// among their NPCs, ascending.
func suiteIDsFor(suites []data.SuiteConfig, configID uint32) []uint32 {
	var ids []uint32
	for i, suite := range suites {
		for _, id := range suite.Npcs {
			if id == configID {
				ids = append(ids, uint32(i+1))
				break
			}
		}
	}
	return ids
}

// Unload removes every entity of the group from the registry, monsters then
// NPCs then gadgets. The lists are kept so a later Load revives them.
func (g *Group) Unload(ctx context.Context) error {
	if !g.loaded {
		return nil
	}
	g.loaded = false
	g.epoch++

	start := time.Now()
	reg := g.block.scene.registry
	for _, list := range [][]*Entity{g.monsters, g.npcs, g.gadgets} {
		for _, e := range list {
			if err := reg.Remove(ctx, e, VisionMiss); err != nil {
				return err
			}
			metrics.GroupEntities.WithLabelValues(e.Kind.String(), "unload").Inc()
		}
	}
	metrics.GroupLoadDuration.WithLabelValues("unload").Observe(time.Since(start).Seconds())
	return nil
}
