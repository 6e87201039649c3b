package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WorldLevel is one row of the world-level table.
type WorldLevel struct {
	Level        int32 `yaml:"level"`
	MonsterLevel int32 `yaml:"monster_level"`
}

type worldLevelFile struct {
	Levels []WorldLevel `yaml:"world_levels"`
}

// WorldLevelTable maps a world level to its scaling row.
type WorldLevelTable struct {
	levels map[int32]*WorldLevel
}

// LoadWorldLevelTable loads world-level rows from a YAML file.
func LoadWorldLevelTable(path string) (*WorldLevelTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read world_level: %w", err)
	}
	return ParseWorldLevelTable(raw)
}

// ParseWorldLevelTable parses the YAML form of the world-level table.
func ParseWorldLevelTable(raw []byte) (*WorldLevelTable, error) {
	var f worldLevelFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse world_level: %w", err)
	}
	t := &WorldLevelTable{levels: make(map[int32]*WorldLevel, len(f.Levels))}
	for i := range f.Levels {
		row := &f.Levels[i]
		if _, dup := t.levels[row.Level]; dup {
			return nil, fmt.Errorf("parse world_level: duplicate level %d", row.Level)
		}
		t.levels[row.Level] = row
	}
	return t, nil
}

// Get returns the row for level, or nil.
func (t *WorldLevelTable) Get(level int32) *WorldLevel {
	if t == nil {
		return nil
	}
	return t.levels[level]
}

// Count returns the number of loaded rows.
func (t *WorldLevelTable) Count() int {
	if t == nil {
		return 0
	}
	return len(t.levels)
}
