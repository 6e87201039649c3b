package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/l1jgo/worldhost/internal/data"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM used to evaluate scene scripts.
// Single-goroutine access only (boot and game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine. Shared helper scripts under
// scriptsDir/core are loaded first so scene scripts can call them.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	if scriptsDir != "" {
		if err := e.loadDir(filepath.Join(scriptsDir, "core")); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load core scripts: %w", err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	files, err := luaFiles(dir)
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// luaFiles lists .lua files in dir sorted by name. A missing dir yields none.
func luaFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // skip missing dirs
		}
		return nil, err
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		out = append(out, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// LoadScenes evaluates every scene script in dir and returns the resulting
// layouts. Each script sets the globals scene_id and blocks:
//
//	scene_id = 3
//	blocks = {
//	  { id = 1, groups = {
//	    { id = 101, pos = {x=0, y=0, z=0}, dynamic_load = true,
//	      monsters = { { config_id = 1, monster_id = 2010, level = 10, pos = {...}, rot = {...} } },
//	      npcs = {}, gadgets = {}, suites = { { monsters = {1}, npcs = {}, gadgets = {} } } },
//	  } },
//	}
func (e *Engine) LoadScenes(dir string) (*data.SceneTable, error) {
	files, err := luaFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("list scene scripts: %w", err)
	}
	table := data.NewSceneTable()
	for _, path := range files {
		sc, err := e.loadScene(path)
		if err != nil {
			return nil, err
		}
		table.Add(sc)
		e.log.Debug("loaded scene script", zap.String("file", path), zap.Uint32("scene", sc.ID))
	}
	return table, nil
}

// LoadSceneString evaluates one scene script from source.
func (e *Engine) LoadSceneString(src string) (*data.SceneConfig, error) {
	e.resetSceneGlobals()
	if err := e.vm.DoString(src); err != nil {
		return nil, fmt.Errorf("run scene script: %w", err)
	}
	return e.collectScene("<string>")
}

func (e *Engine) loadScene(path string) (*data.SceneConfig, error) {
	e.resetSceneGlobals()
	if err := e.vm.DoFile(path); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return e.collectScene(path)
}

func (e *Engine) resetSceneGlobals() {
	e.vm.SetGlobal("scene_id", lua.LNil)
	e.vm.SetGlobal("blocks", lua.LNil)
}

func (e *Engine) collectScene(src string) (*data.SceneConfig, error) {
	idVal := e.vm.GetGlobal("scene_id")
	if idVal.Type() != lua.LTNumber {
		return nil, fmt.Errorf("%s: scene_id is not set", src)
	}
	sc := &data.SceneConfig{ID: uint32(lua.LVAsNumber(idVal))}

	blocks, ok := e.vm.GetGlobal("blocks").(*lua.LTable)
	if !ok {
		return sc, nil
	}
	var err error
	eachTable(blocks, func(bt *lua.LTable) {
		if err != nil {
			return
		}
		block := &data.BlockConfig{ID: lUint(bt, "id")}
		seen := make(map[uint32]bool)
		eachTable(tableField(bt, "groups"), func(gt *lua.LTable) {
			g := parseGroup(gt)
			if seen[g.ID] {
				err = fmt.Errorf("%s: block %d: duplicate group %d", src, block.ID, g.ID)
				return
			}
			seen[g.ID] = true
			block.Groups = append(block.Groups, g)
		})
		sc.Blocks = append(sc.Blocks, block)
	})
	if err != nil {
		return nil, err
	}
	return sc, nil
}

func parseGroup(t *lua.LTable) *data.GroupConfig {
	g := &data.GroupConfig{
		ID:          lUint(t, "id"),
		Pos:         lVec(t, "pos"),
		DynamicLoad: lua.LVAsBool(t.RawGetString("dynamic_load")),
	}
	eachTable(tableField(t, "monsters"), func(mt *lua.LTable) {
		g.Monsters = append(g.Monsters, data.MonsterConfig{
			ConfigID:  lUint(mt, "config_id"),
			MonsterID: lUint(mt, "monster_id"),
			Level:     int32(lInt(mt, "level")),
			PoseID:    lUint(mt, "pose_id"),
			IsElite:   lua.LVAsBool(mt.RawGetString("is_elite")),
			Pos:       lVec(mt, "pos"),
			Rot:       lVec(mt, "rot"),
		})
	})
	eachTable(tableField(t, "npcs"), func(nt *lua.LTable) {
		g.Npcs = append(g.Npcs, data.NpcConfig{
			ConfigID: lUint(nt, "config_id"),
			NpcID:    lUint(nt, "npc_id"),
			Pos:      lVec(nt, "pos"),
			Rot:      lVec(nt, "rot"),
		})
	})
	eachTable(tableField(t, "gadgets"), func(gt *lua.LTable) {
		g.Gadgets = append(g.Gadgets, data.GadgetConfig{
			ConfigID:   lUint(gt, "config_id"),
			GadgetID:   lUint(gt, "gadget_id"),
			Level:      int32(lInt(gt, "level")),
			InteractID: lUint(gt, "interact_id"),
			Pos:        lVec(gt, "pos"),
			Rot:        lVec(gt, "rot"),
		})
	})
	eachTable(tableField(t, "suites"), func(st *lua.LTable) {
		g.Suites = append(g.Suites, data.SuiteConfig{
			Monsters: lUintList(st, "monsters"),
			Npcs:     lUintList(st, "npcs"),
			Gadgets:  lUintList(st, "gadgets"),
		})
	})
	return g
}

// --- Lua helpers ---

// lInt reads an integer field from a Lua table.
func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

func lUint(t *lua.LTable, key string) uint32 {
	return uint32(lua.LVAsNumber(t.RawGetString(key)))
}

func lVec(t *lua.LTable, key string) data.Vec3 {
	vt := tableField(t, key)
	if vt == nil {
		return data.Vec3{}
	}
	return data.Vec3{
		X: float32(lua.LVAsNumber(vt.RawGetString("x"))),
		Y: float32(lua.LVAsNumber(vt.RawGetString("y"))),
		Z: float32(lua.LVAsNumber(vt.RawGetString("z"))),
	}
}

func lUintList(t *lua.LTable, key string) []uint32 {
	lt := tableField(t, key)
	if lt == nil {
		return nil
	}
	out := make([]uint32, 0, lt.Len())
	for i := 1; i <= lt.Len(); i++ {
		out = append(out, uint32(lua.LVAsNumber(lt.RawGetInt(i))))
	}
	return out
}

func tableField(t *lua.LTable, key string) *lua.LTable {
	if t == nil {
		return nil
	}
	sub, _ := t.RawGetString(key).(*lua.LTable)
	return sub
}

// eachTable calls fn for every table element of an array-style table in
// index order. Non-table elements are skipped.
func eachTable(t *lua.LTable, fn func(*lua.LTable)) {
	if t == nil {
		return
	}
	for i := 1; i <= t.Len(); i++ {
		if sub, ok := t.RawGetInt(i).(*lua.LTable); ok {
			fn(sub)
		}
	}
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
