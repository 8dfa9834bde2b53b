package flock

import "math"

// Neighborhood yields candidate neighbour indices for a query point. Callers
// still filter candidates by exact squared distance.
type Neighborhood interface {
	Candidates(dst []int32, p Vec3, radius float32) []int32
}

// AllAgents is the brute-force neighbourhood: every agent is a candidate,
// giving O(N^2) work per tick.
type AllAgents struct {
	N int
}

// Candidates appends every index in [0, N).
func (a AllAgents) Candidates(dst []int32, _ Vec3, _ float32) []int32 {
	for i := 0; i < a.N; i++ {
		dst = append(dst, int32(i))
	}
	return dst
}

type cellKey struct {
	x, y, z int32
}

// Grid is a uniform hashed grid over unbounded 3D space. It is rebuilt once
// per tick from the read-only snapshot and then queried concurrently.
type Grid struct {
	cellSize float32
	inv      float32
	cells    map[cellKey][]int32
	live     int // non-empty cells after the last Build
}

// NewGrid creates a grid with the given cell size. A cell size equal to the
// largest query radius keeps each query to 27 cells.
func NewGrid(cellSize float32) *Grid {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &Grid{
		cellSize: cellSize,
		inv:      1 / cellSize,
		cells:    make(map[cellKey][]int32),
	}
}

// CellSize returns the grid cell edge length.
func (g *Grid) CellSize() float32 {
	return g.cellSize
}

// Build clears the grid and inserts every agent by index.
func (g *Grid) Build(agents []Agent) {
	// Drop stale cells once the map has grown well past the live set,
	// otherwise just reuse the slices.
	if len(g.cells) > 4*(g.live+64) {
		for k, v := range g.cells {
			if len(v) == 0 {
				delete(g.cells, k)
			}
		}
	}
	for k, v := range g.cells {
		g.cells[k] = v[:0]
	}

	g.live = 0
	for i := range agents {
		k := g.key(agents[i].Position)
		cell := g.cells[k]
		if len(cell) == 0 {
			g.live++
		}
		g.cells[k] = append(cell, int32(i))
	}
}

// Candidates appends the indices stored in every cell overlapping the query cube.
func (g *Grid) Candidates(dst []int32, p Vec3, radius float32) []int32 {
	lo := g.key(Vec3{p.X - radius, p.Y - radius, p.Z - radius})
	hi := g.key(Vec3{p.X + radius, p.Y + radius, p.Z + radius})

	for x := lo.x; x <= hi.x; x++ {
		for y := lo.y; y <= hi.y; y++ {
			for z := lo.z; z <= hi.z; z++ {
				dst = append(dst, g.cells[cellKey{x, y, z}]...)
			}
		}
	}
	return dst
}

// maxCell bounds cell coordinates so that hi+1 in Candidates cannot wrap.
const maxCell = 1 << 30

func (g *Grid) key(p Vec3) cellKey {
	return cellKey{
		x: g.cell(p.X),
		y: g.cell(p.Y),
		z: g.cell(p.Z),
	}
}

// cell maps one coordinate to its cell index. Non-finite and far-away
// coordinates collapse onto the outermost cells.
func (g *Grid) cell(v float32) int32 {
	c := math.Floor(float64(v * g.inv))
	switch {
	case c > maxCell:
		return maxCell
	case c >= -maxCell:
		return int32(c)
	default: // below range or NaN
		return -maxCell
	}
}
