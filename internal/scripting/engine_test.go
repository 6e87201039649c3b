package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sceneScript = `
scene_id = 3
blocks = {
  { id = 1, groups = {
    { id = 101, pos = { x = 10, y = 0, z = 20 }, dynamic_load = true,
      monsters = {
        { config_id = 1, monster_id = 21010101, level = 12, pose_id = 4, is_elite = true,
          pos = { x = 11, y = 1, z = 21 }, rot = { x = 0, y = 90, z = 0 } },
      },
      npcs = {
        { config_id = 7, npc_id = 1001, pos = { x = 12, y = 0, z = 22 } },
      },
      gadgets = {
        { config_id = 9, gadget_id = 70210001, level = 5, interact_id = 35 },
      },
      suites = {
        { monsters = { 1 }, npcs = {}, gadgets = { 9 } },
        { monsters = {}, npcs = { 7 }, gadgets = {} },
      },
    },
    { id = 102, pos = { x = 0, y = 0, z = 0 } },
  } },
}
`

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine("", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestLoadSceneString(t *testing.T) {
	e := newTestEngine(t)
	sc, err := e.LoadSceneString(sceneScript)
	require.NoError(t, err)

	assert.Equal(t, uint32(3), sc.ID)
	require.Len(t, sc.Blocks, 1)
	require.Len(t, sc.Blocks[0].Groups, 2)

	g := sc.Blocks[0].Groups[0]
	assert.Equal(t, uint32(101), g.ID)
	assert.True(t, g.DynamicLoad)
	assert.Equal(t, float32(20), g.Pos.Z)

	require.Len(t, g.Monsters, 1)
	m := g.Monsters[0]
	assert.Equal(t, uint32(21010101), m.MonsterID)
	assert.Equal(t, int32(12), m.Level)
	assert.Equal(t, uint32(4), m.PoseID)
	assert.True(t, m.IsElite)
	assert.Equal(t, float32(90), m.Rot.Y)

	require.Len(t, g.Npcs, 1)
	assert.Equal(t, uint32(1001), g.Npcs[0].NpcID)
	require.Len(t, g.Gadgets, 1)
	assert.Equal(t, uint32(35), g.Gadgets[0].InteractID)

	require.Len(t, g.Suites, 2)
	assert.Equal(t, []uint32{7}, g.Suites[1].Npcs)
	assert.False(t, sc.Blocks[0].Groups[1].DynamicLoad)
}

func TestLoadScenesFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scene3.lua"), []byte(sceneScript), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scene5.lua"), []byte("scene_id = 5\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	e := newTestEngine(t)
	table, err := e.LoadScenes(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Count())
	assert.NotNil(t, table.GetGroup(3, 102))
	assert.NotNil(t, table.Scene(5))
	assert.Nil(t, table.GetGroup(5, 101), "globals do not leak between scripts")
}

func TestLoadSceneRequiresID(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.LoadSceneString("blocks = {}")
	assert.Error(t, err)
}

func TestLoadSceneDuplicateGroup(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.LoadSceneString(`scene_id = 1
blocks = { { id = 1, groups = { { id = 5 }, { id = 5 } } } }`)
	assert.Error(t, err)
}

func TestMissingSceneDir(t *testing.T) {
	e := newTestEngine(t)
	table, err := e.LoadScenes(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Equal(t, 0, table.Count())
}

func TestBundledSceneScripts(t *testing.T) {
	e, err := NewEngine(filepath.Join("..", "..", "scripts"), zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	scenes, err := e.LoadScenes(filepath.Join("..", "..", "scripts", "scene"))
	require.NoError(t, err)
	sc := scenes.Scene(3)
	require.NotNil(t, sc)
	require.Len(t, sc.Blocks, 2)

	g := scenes.GetGroup(3, 133001002)
	require.NotNil(t, g)
	assert.True(t, g.DynamicLoad)
	require.Len(t, g.Monsters, 2)
	assert.True(t, g.Monsters[0].IsElite)
	assert.Equal(t, float32(405), g.Monsters[0].Pos.X)
}
