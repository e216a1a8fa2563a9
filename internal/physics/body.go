package physics

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/constraints"
)

// BodyID identifies a body for the lifetime of its World. Zero is never issued.
type BodyID uint32

// StaticMass is the infinite-mass sentinel. Bodies created with it are never integrated
// and never pushed by contacts, but they still take part in collision queries.
var StaticMass = math32.Inf(1)

// Body is a simulated sphere. Values returned by the World are snapshots; mutate through the World.
type Body struct {
	ID       BodyID
	Position mgl32.Vec3
	Velocity mgl32.Vec3
	Radius   float32
	Mass     float32
	Active   bool
}

// Static reports whether b carries the infinite-mass sentinel.
func (b Body) Static() bool {
	return math32.IsInf(b.Mass, 1)
}

// InvMass returns 1/mass, or 0 for static bodies.
func (b Body) InvMass() float32 {
	if b.Static() {
		return 0
	}
	return 1 / b.Mass
}

func validShape(radius, mass float32) bool {
	if !isFinite(radius) || radius <= 0 {
		return false
	}
	if math32.IsInf(mass, 1) {
		return true
	}
	return isFinite(mass) && mass > 0
}

func isFinite(f float32) bool {
	return !math32.IsNaN(f) && !math32.IsInf(f, 0)
}

func finiteVec(v mgl32.Vec3) bool {
	return isFinite(v[0]) && isFinite(v[1]) && isFinite(v[2])
}

func clamp[T constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
