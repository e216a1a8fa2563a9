package physics

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// cellLimit bounds cell coordinates so far-flung bodies share edge cells instead of overflowing.
const cellLimit = 1 << 30

// cellKey addresses one cube of the uniform grid.
type cellKey struct {
	X, Y, Z int32
}

// grid is a uniform spatial hash over body centers. Each body sits in exactly one cell,
// so a query must widen its reach by the largest radius inserted.
type grid struct {
	cellSize  float32
	inv       float32
	cells     map[cellKey][]int
	maxRadius float32
	count     int
}

func newGrid(cellSize float32) *grid {
	return &grid{
		cellSize: cellSize,
		inv:      1 / cellSize,
		cells:    make(map[cellKey][]int),
	}
}

// rebuild clears every cell (keeping the backing arrays) and reinserts visible active bodies.
func (g *grid) rebuild(slots []slot) {
	for k, items := range g.cells {
		g.cells[k] = items[:0]
	}
	g.maxRadius = 0
	g.count = 0
	for i := range slots {
		sl := &slots[i]
		if !sl.visible() || !sl.body.Active {
			continue
		}
		k := g.keyOf(sl.body.Position)
		g.cells[k] = append(g.cells[k], i)
		if sl.body.Radius > g.maxRadius {
			g.maxRadius = sl.body.Radius
		}
		g.count++
	}
}

func (g *grid) keyOf(p mgl32.Vec3) cellKey {
	return cellKey{X: g.coord(p[0]), Y: g.coord(p[1]), Z: g.coord(p[2])}
}

func (g *grid) coord(v float32) int32 {
	c := math32.Floor(v * g.inv)
	return int32(clamp(c, -cellLimit, cellLimit))
}

// query calls fn with the slot index of every body whose center lies within reach of p on
// each axis, widened by the largest inserted radius. It returns false without calling fn
// when the cell range is larger than a linear scan would be.
func (g *grid) query(p mgl32.Vec3, reach float32, fn func(i int) bool) bool {
	reach += g.maxRadius
	span := math32.Ceil(reach * g.inv)
	if !isFinite(span) || span > 1024 {
		return false
	}
	// One extra ring absorbs rounding at cell borders.
	k := int64(span) + 1
	if side := 2*k + 1; side*side*side > int64(g.count)+27 {
		return false
	}
	c := g.keyOf(p)
	for x := int64(c.X) - k; x <= int64(c.X)+k; x++ {
		for y := int64(c.Y) - k; y <= int64(c.Y)+k; y++ {
			for z := int64(c.Z) - k; z <= int64(c.Z)+k; z++ {
				items, ok := g.cells[cellKey{X: int32(x), Y: int32(y), Z: int32(z)}]
				if !ok {
					continue
				}
				for _, i := range items {
					if !fn(i) {
						return true
					}
				}
			}
		}
	}
	return true
}
