package data

import "math"

// Vec3 is a position or euler rotation in scene space.
type Vec3 struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
	Z float32 `yaml:"z"`
}

// Distance returns the euclidean distance between two points.
func (v Vec3) Distance(o Vec3) float64 {
	dx := float64(v.X - o.X)
	dy := float64(v.Y - o.Y)
	dz := float64(v.Z - o.Z)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// MonsterConfig places one monster inside a group.
type MonsterConfig struct {
	ConfigID  uint32
	MonsterID uint32
	Level     int32
	PoseID    uint32
	IsElite   bool
	Pos       Vec3
	Rot       Vec3
}

// NpcConfig places one NPC inside a group.
type NpcConfig struct {
	ConfigID uint32
	NpcID    uint32
	Pos      Vec3
	Rot      Vec3
}

// GadgetConfig places one interactive object inside a group.
type GadgetConfig struct {
	ConfigID   uint32
	GadgetID   uint32
	Level      int32
	InteractID uint32 // 0 = none
	Pos        Vec3
	Rot        Vec3
}

// SuiteConfig lists the config ids active together in one group variant.
type SuiteConfig struct {
	Monsters []uint32
	Npcs     []uint32
	Gadgets  []uint32
}

// GroupConfig is the static content of one spatial group. Entity lists are
// kept in script order.
type GroupConfig struct {
	ID          uint32
	Pos         Vec3
	DynamicLoad bool
	Monsters    []MonsterConfig
	Npcs        []NpcConfig
	Gadgets     []GadgetConfig
	Suites      []SuiteConfig
}

// BlockConfig groups spatial groups for streaming.
type BlockConfig struct {
	ID     uint32
	Groups []*GroupConfig
}

// SceneConfig is the full static layout of one scene.
type SceneConfig struct {
	ID     uint32
	Blocks []*BlockConfig
}

type groupKey struct {
	scene uint32
	group uint32
}

// SceneTable indexes scene layouts by scene id and groups by (scene, group).
type SceneTable struct {
	scenes map[uint32]*SceneConfig
	groups map[groupKey]*GroupConfig
}

func NewSceneTable() *SceneTable {
	return &SceneTable{
		scenes: make(map[uint32]*SceneConfig),
		groups: make(map[groupKey]*GroupConfig),
	}
}

// Add registers a scene, replacing any earlier layout with the same id.
func (t *SceneTable) Add(sc *SceneConfig) {
	if old, ok := t.scenes[sc.ID]; ok {
		for _, b := range old.Blocks {
			for _, g := range b.Groups {
				delete(t.groups, groupKey{sc.ID, g.ID})
			}
		}
	}
	t.scenes[sc.ID] = sc
	for _, b := range sc.Blocks {
		for _, g := range b.Groups {
			t.groups[groupKey{sc.ID, g.ID}] = g
		}
	}
}

// Scene returns the layout of a scene, or nil.
func (t *SceneTable) Scene(sceneID uint32) *SceneConfig {
	return t.scenes[sceneID]
}

// GetGroup returns the group config, or nil when the scene or group is unknown.
func (t *SceneTable) GetGroup(sceneID, groupID uint32) *GroupConfig {
	return t.groups[groupKey{sceneID, groupID}]
}

// Count returns the number of scenes.
func (t *SceneTable) Count() int {
	return len(t.scenes)
}
