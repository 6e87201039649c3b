package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const worldLevelYAML = `
world_levels:
  - level: 0
    monster_level: 22
  - level: 8
    monster_level: 90
`

func TestLoadWorldLevelTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world_level.yaml")
	require.NoError(t, os.WriteFile(path, []byte(worldLevelYAML), 0o644))

	table, err := LoadWorldLevelTable(path)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Count())
	require.NotNil(t, table.Get(8))
	assert.Equal(t, int32(90), table.Get(8).MonsterLevel)
	assert.Nil(t, table.Get(3))
}

func TestParseWorldLevelTableRejectsDuplicates(t *testing.T) {
	_, err := ParseWorldLevelTable([]byte("world_levels:\n  - level: 1\n  - level: 1\n"))
	assert.Error(t, err)
}

func TestNilTablesAreEmpty(t *testing.T) {
	var tables *Tables
	assert.Nil(t, tables.Group(1, 1))
	assert.Nil(t, tables.WorldLevel(1))

	var wl *WorldLevelTable
	assert.Nil(t, wl.Get(0))
}

func TestSceneTableReplace(t *testing.T) {
	st := NewSceneTable()
	st.Add(&SceneConfig{ID: 3, Blocks: []*BlockConfig{{ID: 1, Groups: []*GroupConfig{{ID: 10}, {ID: 11}}}}})
	require.NotNil(t, st.GetGroup(3, 11))

	st.Add(&SceneConfig{ID: 3, Blocks: []*BlockConfig{{ID: 1, Groups: []*GroupConfig{{ID: 10}}}}})
	assert.NotNil(t, st.GetGroup(3, 10))
	assert.Nil(t, st.GetGroup(3, 11))
	assert.Nil(t, st.GetGroup(4, 10))
	assert.Equal(t, 1, st.Count())
}

func TestVec3Distance(t *testing.T) {
	assert.InDelta(t, 5.0, Vec3{X: 0, Y: 0, Z: 0}.Distance(Vec3{X: 3, Y: 4}), 1e-9)
}

func TestBundledWorldLevelTable(t *testing.T) {
	table, err := LoadWorldLevelTable(filepath.Join("..", "..", "data", "yaml", "world_level.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8, table.Count())
	assert.EqualValues(t, 22, table.Get(1).MonsterLevel)
	assert.Nil(t, table.Get(0))
}
