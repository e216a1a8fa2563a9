package physics

import (
	"math"
	"slices"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Contact describes one resolved overlap. Normal points from A to B; Depth is the
// penetration before separation (0 for touching spheres).
type Contact struct {
	A, B   BodyID
	Normal mgl32.Vec3
	Depth  float32
}

// Pair is an unordered pair of overlapping bodies, A inserted before B.
type Pair struct {
	A, B BodyID
}

type pairIndex struct {
	a, b int
}

// CheckCollision reports whether a probe sphere touches or overlaps any active body.
// Tangent spheres count as colliding. A negative or NaN radius never collides.
func (w *World) CheckCollision(x, y, z, radius float32) bool {
	if !(radius >= 0) {
		return false
	}
	p := mgl32.Vec3{x, y, z}
	slots := w.store.slots
	if w.grid != nil {
		w.syncGrid()
		hit := false
		ok := w.grid.query(p, radius, func(i int) bool {
			if touching(p, radius, slots[i].body.Position, slots[i].body.Radius) {
				hit = true
				return false
			}
			return true
		})
		if ok {
			return hit
		}
	}
	for i := range slots {
		sl := &slots[i]
		if !sl.visible() || !sl.body.Active {
			continue
		}
		if touching(p, radius, sl.body.Position, sl.body.Radius) {
			return true
		}
	}
	return false
}

// Overlaps returns every pair of active bodies that touch or overlap, ordered by insertion
// of A then B. Pairs of two static bodies are left out.
func (w *World) Overlaps() []Pair {
	pairs := w.collectPairs(nil)
	out := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, Pair{A: w.store.slots[p.a].body.ID, B: w.store.slots[p.b].body.ID})
	}
	return out
}

func (w *World) collectPairs(dst []pairIndex) []pairIndex {
	slots := w.store.slots
	if w.grid != nil {
		w.syncGrid()
		for i := range slots {
			if !collidable(&slots[i]) {
				continue
			}
			a := &slots[i].body
			w.candidates = w.candidates[:0]
			ok := w.grid.query(a.Position, a.Radius, func(j int) bool {
				if j > i {
					w.candidates = append(w.candidates, j)
				}
				return true
			})
			if !ok {
				dst = appendPairsLinear(dst, slots, i)
				continue
			}
			slices.Sort(w.candidates)
			for _, j := range w.candidates {
				if pairable(a, &slots[j].body) {
					dst = append(dst, pairIndex{a: i, b: j})
				}
			}
		}
		return dst
	}
	for i := range slots {
		if collidable(&slots[i]) {
			dst = appendPairsLinear(dst, slots, i)
		}
	}
	return dst
}

func appendPairsLinear(dst []pairIndex, slots []slot, i int) []pairIndex {
	a := &slots[i].body
	for j := i + 1; j < len(slots); j++ {
		if collidable(&slots[j]) && pairable(a, &slots[j].body) {
			dst = append(dst, pairIndex{a: i, b: j})
		}
	}
	return dst
}

func collidable(sl *slot) bool {
	return sl.visible() && sl.body.Active
}

func pairable(a, b *Body) bool {
	if a.Static() && b.Static() {
		return false
	}
	return touching(a.Position, a.Radius, b.Position, b.Radius)
}

// resolve separates every pair that overlapped at the start of the pass, in pair order,
// against current positions. It returns the number of contacts resolved.
func (w *World) resolve() int {
	w.pairs = w.collectPairs(w.pairs[:0])
	e := w.cfg.Restitution
	resolved := 0
	for _, p := range w.pairs {
		// Re-read the slice each time: a contact listener may grow it.
		slots := w.store.slots
		sa, sb := &slots[p.a], &slots[p.b]
		if !collidable(sa) || !collidable(sb) {
			continue
		}
		c, ok := separate(&sa.body, &sb.body, e)
		if !ok {
			continue
		}
		resolved++
		w.gridDirty = true
		if w.onContact != nil {
			w.onContact(c)
		}
	}
	return resolved
}

// separate pushes a and b apart along the contact normal in proportion to their inverse
// mass share, then removes (e=0) or reflects (e=1) the approaching normal velocity.
func separate(a, b *Body, e float32) (Contact, bool) {
	invA, invB := a.InvMass(), b.InvMass()
	invSum := invA + invB
	if invSum == 0 {
		return Contact{}, false
	}
	if !touching(a.Position, a.Radius, b.Position, b.Radius) {
		return Contact{}, false
	}
	d := b.Position.Sub(a.Position)
	r := a.Radius + b.Radius
	dist := math32.Sqrt(lengthSq(d))
	n := mgl32.Vec3{0, 1, 0}
	if !isFinite(dist) {
		// Squared components overflowed; normalise in float64.
		n, dist = normal64(a.Position, b.Position)
	} else if dist > 0 {
		n = d.Mul(1 / dist)
	}
	depth := max(r-dist, 0)

	if depth > 0 {
		a.Position = a.Position.Sub(n.Mul(depth * invA / invSum))
		b.Position = b.Position.Add(n.Mul(depth * invB / invSum))
	}

	vn := b.Velocity.Sub(a.Velocity).Dot(n)
	if vn < 0 {
		j := -(1 + e) * vn / invSum
		a.Velocity = a.Velocity.Sub(n.Mul(j * invA))
		b.Velocity = b.Velocity.Add(n.Mul(j * invB))
	}
	return Contact{A: a.ID, B: b.ID, Normal: n, Depth: depth}, true
}

// touching compares squared distance with the squared radius sum, so tangent spheres collide.
// When either square overflows float32 the comparison is redone in float64.
func touching(a mgl32.Vec3, ra float32, b mgl32.Vec3, rb float32) bool {
	r := ra + rb
	d2, r2 := lengthSq(b.Sub(a)), float32(r*r)
	if !isFinite(d2) || !isFinite(r2) {
		return touching64(a, ra, b, rb)
	}
	return d2 <= r2
}

func touching64(a mgl32.Vec3, ra float32, b mgl32.Vec3, rb float32) bool {
	var d2 float64
	for k := range 3 {
		d := float64(b[k]) - float64(a[k])
		d2 += d * d
	}
	r := float64(ra) + float64(rb)
	return d2 <= r*r
}

func normal64(a, b mgl32.Vec3) (mgl32.Vec3, float32) {
	var d [3]float64
	var d2 float64
	for k := range 3 {
		d[k] = float64(b[k]) - float64(a[k])
		d2 += d[k] * d[k]
	}
	dist := math.Sqrt(d2)
	return mgl32.Vec3{float32(d[0] / dist), float32(d[1] / dist), float32(d[2] / dist)}, float32(dist)
}

func lengthSq(v mgl32.Vec3) float32 {
	x := float32(v[0] * v[0])
	y := float32(v[1] * v[1])
	z := float32(v[2] * v[2])
	return x + y + z
}
