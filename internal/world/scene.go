package world

import (
	"context"
	"sort"

	"github.com/l1jgo/worldhost/internal/core/sched"
	"github.com/l1jgo/worldhost/internal/data"
	"go.uber.org/zap"
)

// Content is the read-only static data the scene consults.
type Content interface {
	Group(sceneID, groupID uint32) *data.GroupConfig
	WorldLevel(level int32) *data.WorldLevel
}

// Block is a streaming unit of groups.
type Block struct {
	id     uint32
	scene  *Scene
	groups []*Group
}

func (b *Block) ID() uint32       { return b.id }
func (b *Block) Groups() []*Group { return b.groups }

// SceneOptions configures a Scene.
type SceneOptions struct {
	ID          uint32
	Layout      *data.SceneConfig // nil = scene without groups
	Content     Content
	Registry    EntityRegistry
	WorldLevel  func() int32
	LoadRange   float64
	UnloadRange float64
	Log         *zap.Logger
}

// Scene owns the blocks and groups of one world's scene.
type Scene struct {
	id         uint32
	content    Content
	registry   EntityRegistry
	worldLevel func() int32
	log        *zap.Logger

	blocks []*Block
	groups map[uint32]*Group
	static []*Group // groups loaded regardless of player position
	grid   *GroupGrid

	loadRange   float64
	unloadRange float64
	refreshing  bool
}

// NewScene builds blocks and groups from the layout. Groups start unloaded.
func NewScene(opts SceneOptions) *Scene {
	if opts.WorldLevel == nil {
		opts.WorldLevel = func() int32 { return 0 }
	}
	if opts.UnloadRange < opts.LoadRange {
		opts.UnloadRange = opts.LoadRange
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	s := &Scene{
		id:          opts.ID,
		content:     opts.Content,
		registry:    opts.Registry,
		worldLevel:  opts.WorldLevel,
		log:         opts.Log,
		groups:      make(map[uint32]*Group),
		grid:        NewGroupGrid(opts.LoadRange),
		loadRange:   opts.LoadRange,
		unloadRange: opts.UnloadRange,
	}
	if opts.Layout == nil {
		return s
	}
	for _, bc := range opts.Layout.Blocks {
		b := &Block{id: bc.ID, scene: s}
		for _, gc := range bc.Groups {
			if _, dup := s.groups[gc.ID]; dup {
				s.log.Warn("重複的群組 ID", zap.Uint32("scene", s.id), zap.Uint32("group", gc.ID))
				continue
			}
			g := newGroup(b, gc)
			b.groups = append(b.groups, g)
			s.groups[g.id] = g
			if g.dynamicLoad {
				s.grid.Add(g)
			} else {
				s.static = append(s.static, g)
			}
		}
		s.blocks = append(s.blocks, b)
	}
	return s
}

func (s *Scene) ID() uint32               { return s.id }
func (s *Scene) Blocks() []*Block         { return s.blocks }
func (s *Scene) Group(id uint32) *Group   { return s.groups[id] }
func (s *Scene) Registry() EntityRegistry { return s.registry }
func (s *Scene) Refreshing() bool         { return s.refreshing }

// Refresh unloads dynamic groups beyond the unload range of every position
// and loads static groups plus dynamic groups within the load range of any
// position. Distances between the two ranges keep a group as it is.
// A refresh already in flight turns this call into a no-op.
func (s *Scene) Refresh(ctx context.Context, y sched.Yielder, positions []data.Vec3) error {
	if s.refreshing {
		return nil
	}
	s.refreshing = true
	defer func() { s.refreshing = false }()

	for _, g := range s.sortedGroups() {
		if !g.loaded || !g.dynamicLoad {
			continue
		}
		if !withinAny(g.pos, positions, s.unloadRange) {
			if err := g.Unload(ctx); err != nil {
				return err
			}
		}
	}

	for _, g := range s.wantedGroups(positions) {
		if err := g.Load(ctx, y); err != nil {
			return err
		}
	}
	return nil
}

// UnloadAll unloads every loaded group.
func (s *Scene) UnloadAll(ctx context.Context) error {
	for _, g := range s.sortedGroups() {
		if err := g.Unload(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scene) wantedGroups(positions []data.Vec3) []*Group {
	seen := make(map[uint32]bool)
	var out []*Group
	for _, g := range s.static {
		if !g.loaded && !seen[g.id] {
			seen[g.id] = true
			out = append(out, g)
		}
	}
	for _, pos := range positions {
		for _, g := range s.grid.GetNearby(pos) {
			if g.loaded || seen[g.id] || g.pos.Distance(pos) > s.loadRange {
				continue
			}
			seen[g.id] = true
			out = append(out, g)
		}
	}
	return out
}

func (s *Scene) sortedGroups() []*Group {
	out := make([]*Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func withinAny(pos data.Vec3, positions []data.Vec3, r float64) bool {
	for _, p := range positions {
		if pos.Distance(p) <= r {
			return true
		}
	}
	return false
}
