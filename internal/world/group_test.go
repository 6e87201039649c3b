package world

import (
	"context"
	"testing"

	"github.com/l1jgo/worldhost/internal/core/sched"
	"github.com/l1jgo/worldhost/internal/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestScene(t *testing.T, level int32, levels map[int32]*data.WorldLevel) (*Scene, *recordingRegistry) {
	t.Helper()
	reg := newRecordingRegistry()
	content := &fakeContent{layout: testLayout(), levels: levels}
	scene := NewScene(SceneOptions{
		ID:          testSceneID,
		Layout:      content.layout,
		Content:     content,
		Registry:    reg,
		WorldLevel:  func() int32 { return level },
		LoadRange:   100,
		UnloadRange: 150,
		Log:         zap.NewNop(),
	})
	return scene, reg
}

// runToCompletion spawns fn and ticks until it finishes.
func runToCompletion(t *testing.T, s *sched.Scheduler, fn sched.Task) {
	t.Helper()
	require.NoError(t, s.Spawn("test", fn))
	for i := 0; i < 10 && s.Pending() > 0; i++ {
		s.Tick()
	}
	require.Zero(t, s.Pending(), "task did not finish")
}

func TestGroupLoadConstructsInPhases(t *testing.T) {
	scene, reg := newTestScene(t, 0, nil)
	g := scene.Group(101)
	s := sched.New("test", zap.NewNop())
	defer s.Close()

	require.NoError(t, s.Spawn("load", func(ctx context.Context, y sched.Yielder) error {
		return g.Load(ctx, y)
	}))
	assert.True(t, g.Loaded(), "loaded is set before the first suspension")
	assert.Empty(t, g.Monsters())

	s.Tick()
	assert.Len(t, g.Monsters(), 2)
	assert.Empty(t, g.Npcs())

	s.Tick()
	assert.Len(t, g.Npcs(), 2)
	assert.Empty(t, g.Gadgets())

	s.Tick()
	require.Len(t, g.Gadgets(), 1)
	assert.Zero(t, s.Pending())

	assert.Equal(t, 5, reg.count(VisionBorn, reg.adds))
	gadget := g.Gadgets()[0]
	assert.Equal(t, uint32(35), gadget.InteractID)
	assert.Equal(t, int32(4), gadget.Level)
	assert.Equal(t, uint32(101), gadget.GroupID)
	assert.Equal(t, uint32(1), gadget.BlockID)

	m := g.Monsters()[1]
	assert.True(t, m.IsElite)
	assert.Equal(t, data.Vec3{X: 2}, m.BornPos)
	assert.Equal(t, m.BornPos, m.Motion.Pos)
}

func TestGroupLoadIsIdempotent(t *testing.T) {
	scene, reg := newTestScene(t, 0, nil)
	g := scene.Group(101)
	s := sched.New("test", zap.NewNop())
	defer s.Close()

	load := func(ctx context.Context, y sched.Yielder) error { return g.Load(ctx, y) }
	require.NoError(t, s.Spawn("first", load))
	// Second load lands while the first is suspended.
	require.NoError(t, s.Spawn("second", load))
	assert.Equal(t, 1, s.Pending(), "second load returned immediately")

	for s.Pending() > 0 {
		s.Tick()
	}
	runToCompletion(t, s, load)

	assert.Len(t, g.Monsters(), 2)
	assert.Len(t, g.Npcs(), 2)
	assert.Len(t, g.Gadgets(), 1)
	assert.Len(t, reg.adds, 5)
}

func TestMonsterLevelScaling(t *testing.T) {
	cases := []struct {
		name   string
		levels map[int32]*data.WorldLevel
		want   []int32
	}{
		{"absent row keeps script level", nil, []int32{10, 95}},
		{"base row keeps script level", map[int32]*data.WorldLevel{0: {MonsterLevel: 22}}, []int32{10, 95}},
		{"clamped to 100", map[int32]*data.WorldLevel{0: {MonsterLevel: 90}}, []int32{78, 100}},
		{"clamped to 1", map[int32]*data.WorldLevel{0: {MonsterLevel: 1}}, []int32{1, 74}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			scene, _ := newTestScene(t, 0, tc.levels)
			g := scene.Group(101)
			s := sched.New("test", zap.NewNop())
			defer s.Close()
			runToCompletion(t, s, func(ctx context.Context, y sched.Yielder) error { return g.Load(ctx, y) })

			require.Len(t, g.Monsters(), 2)
			assert.Equal(t, tc.want[0], g.Monsters()[0].Level)
			assert.Equal(t, tc.want[1], g.Monsters()[1].Level)
		})
	}
}

func TestNpcSuiteMembership(t *testing.T) {
	scene, _ := newTestScene(t, 0, nil)
	g := scene.Group(101)
	s := sched.New("test", zap.NewNop())
	defer s.Close()
	runToCompletion(t, s, func(ctx context.Context, y sched.Yielder) error { return g.Load(ctx, y) })

	require.Len(t, g.Npcs(), 2)
	assert.Equal(t, []uint32{2}, g.Npcs()[0].SuiteIDs)
	assert.Equal(t, []uint32{1, 2}, g.Npcs()[1].SuiteIDs)
}

func TestSuiteIDsFor(t *testing.T) {
	suites := []data.SuiteConfig{{Npcs: []uint32{5}}, {}, {Npcs: []uint32{4, 5}}}
	assert.Equal(t, []uint32{1, 3}, suiteIDsFor(suites, 5))
	assert.Nil(t, suiteIDsFor(suites, 6))
}

func TestGroupReloadSkipsDeadAndRevives(t *testing.T) {
	scene, reg := newTestScene(t, 0, nil)
	g := scene.Group(101)
	s := sched.New("test", zap.NewNop())
	defer s.Close()
	load := func(ctx context.Context, y sched.Yielder) error { return g.Load(ctx, y) }
	runToCompletion(t, s, load)

	dead := g.Monsters()[0]
	live := g.Monsters()[1]
	dead.Dead = true
	ids := []any{dead.ID, live.ID}

	require.NoError(t, g.Unload(context.Background()))
	assert.False(t, g.Loaded())
	assert.Equal(t, 5, reg.count(VisionMiss, reg.removes))
	assert.Len(t, g.Monsters(), 2, "lists are kept for revival")

	reg.adds = nil
	runToCompletion(t, s, load)

	require.Len(t, g.Monsters(), 2, "never reconstructed")
	assert.Same(t, dead, g.Monsters()[0])
	assert.Same(t, live, g.Monsters()[1])
	assert.Equal(t, ids, []any{g.Monsters()[0].ID, g.Monsters()[1].ID})
	assert.False(t, reg.live[dead])
	assert.True(t, reg.live[live])
	assert.Equal(t, 4, reg.count(VisionMeet, reg.adds))
	assert.Zero(t, reg.count(VisionBorn, reg.adds))
}

func TestSlotPlan(t *testing.T) {
	assert.Equal(t, planConstruct, planPhase(nil))
	assert.Equal(t, planRevive, planPhase([]*Entity{{Dead: true}}))
	assert.Equal(t, SlotEmpty, slotState(nil))
	assert.Equal(t, SlotDead, slotState(&Entity{Dead: true}))
	assert.Equal(t, SlotLive, slotState(&Entity{}))
}

func TestUnloadDuringLoadStopsLoad(t *testing.T) {
	scene, reg := newTestScene(t, 0, nil)
	g := scene.Group(101)
	s := sched.New("test", zap.NewNop())
	defer s.Close()

	require.NoError(t, s.Spawn("load", func(ctx context.Context, y sched.Yielder) error { return g.Load(ctx, y) }))
	s.Tick() // monsters built, parked before npcs
	require.Len(t, g.Monsters(), 2)

	require.NoError(t, g.Unload(context.Background()))
	for s.Pending() > 0 {
		s.Tick()
	}
	assert.Empty(t, g.Npcs(), "load stopped after unload")
	assert.Empty(t, g.Gadgets())
	assert.Empty(t, reg.live)
}

func TestGroupWithoutContentStaysEmpty(t *testing.T) {
	reg := newRecordingRegistry()
	layout := &data.SceneConfig{ID: 9, Blocks: []*data.BlockConfig{{ID: 1, Groups: []*data.GroupConfig{{ID: 5}}}}}
	scene := NewScene(SceneOptions{ID: 9, Layout: layout, Content: &fakeContent{}, Registry: reg})
	g := scene.Group(5)

	require.NoError(t, g.Load(context.Background(), sched.Immediate{}))
	assert.True(t, g.Loaded())
	assert.Empty(t, reg.adds)
	assert.NoError(t, g.Unload(context.Background()))
	assert.NoError(t, g.Unload(context.Background()), "second unload is a no-op")
}

func TestSceneRefreshLoadsByDistance(t *testing.T) {
	scene, _ := newTestScene(t, 0, nil)
	s := sched.New("test", zap.NewNop())
	defer s.Close()
	refresh := func(pos ...data.Vec3) {
		runToCompletion(t, s, func(ctx context.Context, y sched.Yielder) error {
			return scene.Refresh(ctx, y, pos)
		})
	}

	refresh(data.Vec3{X: 0})
	assert.True(t, scene.Group(101).Loaded(), "static group always loads")
	assert.False(t, scene.Group(102).Loaded())

	refresh(data.Vec3{X: 450})
	assert.True(t, scene.Group(102).Loaded())

	refresh(data.Vec3{X: 370}) // 130 away: between load and unload range
	assert.True(t, scene.Group(102).Loaded())

	refresh(data.Vec3{X: 200})
	assert.False(t, scene.Group(102).Loaded())
	assert.True(t, scene.Group(101).Loaded(), "static group never unloads")
}

func TestSceneRefreshInFlightIsNoop(t *testing.T) {
	scene, _ := newTestScene(t, 0, nil)
	s := sched.New("test", zap.NewNop())
	defer s.Close()
	refresh := func(ctx context.Context, y sched.Yielder) error {
		return scene.Refresh(ctx, y, []data.Vec3{{X: 450}})
	}
	require.NoError(t, s.Spawn("first", refresh))
	assert.True(t, scene.Refreshing())
	require.NoError(t, s.Spawn("second", refresh))
	assert.Equal(t, 1, s.Pending())
	for s.Pending() > 0 {
		s.Tick()
	}
	assert.False(t, scene.Refreshing())
	assert.True(t, scene.Group(102).Loaded())
}
