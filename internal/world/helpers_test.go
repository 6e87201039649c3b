package world

import (
	"context"
	"fmt"
	"testing"

	"github.com/l1jgo/worldhost/internal/core/ecs"
	"github.com/l1jgo/worldhost/internal/core/event"
	"github.com/l1jgo/worldhost/internal/data"
	"github.com/l1jgo/worldhost/internal/net/packet"
	"github.com/l1jgo/worldhost/internal/net/packet/packettest"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type appearCall struct {
	to       []uint32
	entities []*Entity
	vision   VisionType
}

// recordingNotifier captures notifications instead of encoding them.
type recordingNotifier struct {
	log        []string
	playerData []uint32
	enterScene []uint32
	appears    []appearCall
	disappears []VisionType
	authority  [][]AuthorityChange
	teams      []int
	forwards   map[uint32][][]ForwardEntry
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{forwards: make(map[uint32][][]ForwardEntry)}
}

func uids(ps []*Player) []uint32 {
	out := make([]uint32, len(ps))
	for i, p := range ps {
		out[i] = p.UID
	}
	return out
}

func (n *recordingNotifier) PlayerData(p *Player) {
	n.playerData = append(n.playerData, p.UID)
	n.log = append(n.log, fmt.Sprintf("data:%d", p.UID))
}

func (n *recordingNotifier) PlayerEnterScene(p *Player, w *World) {
	n.enterScene = append(n.enterScene, p.UID)
	n.log = append(n.log, fmt.Sprintf("enter:%d@%d", p.UID, w.host.UID))
}

func (n *recordingNotifier) EntityAppear(to []*Player, entities []*Entity, vision VisionType) {
	n.appears = append(n.appears, appearCall{to: uids(to), entities: entities, vision: vision})
}

func (n *recordingNotifier) EntityDisappear(to []*Player, ids []ecs.EntityID, vision VisionType) {
	n.disappears = append(n.disappears, vision)
}

func (n *recordingNotifier) AuthorityChanged(to []*Player, changes []AuthorityChange) {
	n.authority = append(n.authority, changes)
}

func (n *recordingNotifier) TeamUpdate(to []*Player, w *World) {
	n.teams = append(n.teams, len(to))
	n.log = append(n.log, fmt.Sprintf("team:%d", w.host.UID))
}

func (n *recordingNotifier) ForwardBatch(to *Player, entries []ForwardEntry) {
	n.forwards[to.UID] = append(n.forwards[to.UID], entries)
}

// fakeContent serves one scene layout and a world-level table.
type fakeContent struct {
	layout *data.SceneConfig
	levels map[int32]*data.WorldLevel
}

func (c *fakeContent) Group(sceneID, groupID uint32) *data.GroupConfig {
	if c.layout == nil || c.layout.ID != sceneID {
		return nil
	}
	for _, b := range c.layout.Blocks {
		for _, g := range b.Groups {
			if g.ID == groupID {
				return g
			}
		}
	}
	return nil
}

func (c *fakeContent) WorldLevel(level int32) *data.WorldLevel {
	return c.levels[level]
}

func (c *fakeContent) Scene(sceneID uint32) *data.SceneConfig {
	if c.layout == nil || c.layout.ID != sceneID {
		return nil
	}
	return c.layout
}

// recordingRegistry is an EntityRegistry that only tracks membership.
type recordingRegistry struct {
	live    map[*Entity]bool
	adds    []VisionType
	removes []VisionType
	nextID  uint32
}

func newRecordingRegistry() *recordingRegistry {
	return &recordingRegistry{live: make(map[*Entity]bool)}
}

func (r *recordingRegistry) Add(ctx context.Context, e *Entity, vision VisionType) error {
	if r.live[e] {
		return nil
	}
	if e.ID.IsZero() {
		r.nextID++
		e.ID = ecs.NewEntityID(uint8(e.Kind), r.nextID)
	}
	r.live[e] = true
	r.adds = append(r.adds, vision)
	return nil
}

func (r *recordingRegistry) Remove(ctx context.Context, e *Entity, vision VisionType) error {
	if !r.live[e] {
		return nil
	}
	delete(r.live, e)
	r.removes = append(r.removes, vision)
	return nil
}

func (r *recordingRegistry) count(v VisionType, calls []VisionType) int {
	n := 0
	for _, c := range calls {
		if c == v {
			n++
		}
	}
	return n
}

const testSceneID = 3

func testLayout() *data.SceneConfig {
	return &data.SceneConfig{
		ID: testSceneID,
		Blocks: []*data.BlockConfig{{
			ID: 1,
			Groups: []*data.GroupConfig{
				{
					ID:  101,
					Pos: data.Vec3{X: 0, Z: 0},
					Monsters: []data.MonsterConfig{
						{ConfigID: 1, MonsterID: 2001, Level: 10, Pos: data.Vec3{X: 1}},
						{ConfigID: 2, MonsterID: 2002, Level: 95, IsElite: true, Pos: data.Vec3{X: 2}},
					},
					Npcs: []data.NpcConfig{
						{ConfigID: 7, NpcID: 1001},
						{ConfigID: 8, NpcID: 1002},
					},
					Gadgets: []data.GadgetConfig{
						{ConfigID: 9, GadgetID: 7001, Level: 4, InteractID: 35},
					},
					Suites: []data.SuiteConfig{
						{Npcs: []uint32{8}},
						{Npcs: []uint32{7, 8}},
						{Monsters: []uint32{1}},
					},
				},
				{
					ID:          102,
					Pos:         data.Vec3{X: 500, Z: 0},
					DynamicLoad: true,
					Monsters:    []data.MonsterConfig{{ConfigID: 1, MonsterID: 2003, Level: 20}},
				},
			},
		}},
	}
}

type stateFixture struct {
	state  *State
	notify *recordingNotifier
	bus    *event.Bus
}

func newStateFixture(t *testing.T) *stateFixture {
	t.Helper()
	n := newRecordingNotifier()
	bus := event.NewBus()
	content := &fakeContent{
		layout: testLayout(),
		levels: map[int32]*data.WorldLevel{0: {Level: 0, MonsterLevel: 22}},
	}
	s := NewState(Config{
		SceneID:          testSceneID,
		GroupLoadRange:   100,
		GroupUnloadRange: 150,
	}, content, n, bus, zap.NewNop())
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return &stateFixture{state: s, notify: n, bus: bus}
}

// login registers a player and runs the login sequence into its own world.
func (f *stateFixture) login(t *testing.T, uid uint32) (*Player, *packettest.Conn) {
	t.Helper()
	conn := packettest.NewConn(uint64(uid), packet.StateWaitLogin)
	p, err := f.state.AddPlayer(conn, uid, fmt.Sprintf("p%d", uid))
	require.NoError(t, err)
	require.NoError(t, f.state.PlayerLogin(context.Background(), p, f.state.HostWorldOf(p)))
	p.CurrentWorld.SceneReady(p)
	return p, conn
}
