package physics

import "math"

// SpatialGrid is a uniform grid over the ground plane for broad-phase sphere
// collision. Items are inserted by position and index, then nearby items are
// found with a 3x3 neighborhood lookup.
//
// Cell size must be >= the largest sum of two radii so every touching pair
// shares a neighborhood. Positions outside the grid clamp to the edge cells.
type SpatialGrid struct {
	minX, minZ  float64
	invCellSize float64 // 1 / cellSize
	cols        int
	rows        int
	cells       []gridCell
}

// gridCell is reset to [:0] between steps to avoid allocations.
type gridCell struct {
	items []int
}

// NewSpatialGrid covers the rectangle [minX, maxX] x [minZ, maxZ].
func NewSpatialGrid(minX, minZ, maxX, maxZ, cellSize float64) *SpatialGrid {
	cols := int(math.Ceil((maxX - minX) / cellSize))
	rows := int(math.Ceil((maxZ - minZ) / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return &SpatialGrid{
		minX:        minX,
		minZ:        minZ,
		invCellSize: 1.0 / cellSize,
		cols:        cols,
		rows:        rows,
		cells:       make([]gridCell, cols*rows),
	}
}

// Clear removes all items without deallocating cell memory.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i].items = g.cells[i].items[:0]
	}
}

// Insert adds an item at the given ground-plane position.
func (g *SpatialGrid) Insert(x, z float64, index int) {
	col, row := g.posToCell(x, z)
	idx := row*g.cols + col
	g.cells[idx].items = append(g.cells[idx].items, index)
}

// QueryAround calls fn for each item in the 3x3 neighborhood of (x, z).
// Iteration stops early when fn returns true.
func (g *SpatialGrid) QueryAround(x, z float64, fn func(index int) bool) {
	col, row := g.posToCell(x, z)
	for r := row - 1; r <= row+1; r++ {
		if r < 0 || r >= g.rows {
			continue
		}
		rowOffset := r * g.cols
		for c := col - 1; c <= col+1; c++ {
			if c < 0 || c >= g.cols {
				continue
			}
			for _, itemIdx := range g.cells[rowOffset+c].items {
				if fn(itemIdx) {
					return
				}
			}
		}
	}
}

func (g *SpatialGrid) posToCell(x, z float64) (col, row int) {
	col = int((x - g.minX) * g.invCellSize)
	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	row = int((z - g.minZ) * g.invCellSize)
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}
