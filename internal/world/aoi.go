package world

import (
	"math"
	"sort"

	"github.com/l1jgo/worldhost/internal/data"
)

// GroupGrid implements a cell-based index of group anchors on the X/Z plane.
// Cell size equals the load range, so a 3x3 neighbourhood of cells covers
// every group within range of a point.
// Accessed only from the game loop goroutine, no locks.
type GroupGrid struct {
	cellSize float64
	cells    map[cellKey][]*Group
}

type cellKey struct {
	cx int32
	cz int32
}

func NewGroupGrid(cellSize float64) *GroupGrid {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &GroupGrid{
		cellSize: cellSize,
		cells:    make(map[cellKey][]*Group),
	}
}

func (g *GroupGrid) toCellCoord(v float32) int32 {
	return int32(math.Floor(float64(v) / g.cellSize))
}

func (g *GroupGrid) key(pos data.Vec3) cellKey {
	return cellKey{cx: g.toCellCoord(pos.X), cz: g.toCellCoord(pos.Z)}
}

// Add places a group into the grid by its anchor.
func (g *GroupGrid) Add(grp *Group) {
	k := g.key(grp.pos)
	g.cells[k] = append(g.cells[k], grp)
}

// GetNearby returns the groups in a 3x3 neighbourhood of cells around pos,
// ordered by group id. Caller does fine-grained distance filtering.
func (g *GroupGrid) GetNearby(pos data.Vec3) []*Group {
	c := g.key(pos)
	var result []*Group
	for dx := int32(-1); dx <= 1; dx++ {
		for dz := int32(-1); dz <= 1; dz++ {
			result = append(result, g.cells[cellKey{cx: c.cx + dx, cz: c.cz + dz}]...)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].id < result[j].id })
	return result
}
