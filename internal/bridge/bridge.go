// Package bridge exposes a physics.World through values a JavaScript host can hold:
// float64 numbers, strings, bools, []any and map[string]any. Failures come back as
// {"error": message} rather than panics.
package bridge

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"sphereworld/internal/config"
	"sphereworld/internal/physics"
	"sphereworld/internal/scenario"
)

// Bridge owns one world.
type Bridge struct {
	w *physics.World
}

// New returns a bridge around a world built from cfg.
func New(cfg config.WorldConfig) *Bridge {
	return &Bridge{w: physics.New(cfg.Physics())}
}

// World returns the wrapped world.
func (b *Bridge) World() *physics.World {
	return b.w
}

// Reset replaces the world with an empty one using the current configuration.
func (b *Bridge) Reset() {
	b.w = physics.New(b.w.Config())
}

// Create adds a sphere; mass 0 or +Inf makes it static. Returns the id.
func (b *Bridge) Create(x, y, z, radius, mass float64) any {
	m := float32(mass)
	if mass == 0 || math.IsInf(mass, 1) {
		m = physics.StaticMass
	}
	id, err := b.w.Create(mgl32.Vec3{float32(x), float32(y), float32(z)}, float32(radius), m)
	if err != nil {
		return fail(err)
	}
	return float64(id)
}

func (b *Bridge) Remove(id float64) any {
	bid, err := idOf(id)
	if err != nil {
		return fail(err)
	}
	return result(b.w.Remove(bid))
}

func (b *Bridge) SetVelocity(id, x, y, z float64) any {
	bid, err := idOf(id)
	if err != nil {
		return fail(err)
	}
	return result(b.w.SetVelocity(bid, mgl32.Vec3{float32(x), float32(y), float32(z)}))
}

func (b *Bridge) SetActive(id float64, active bool) any {
	bid, err := idOf(id)
	if err != nil {
		return fail(err)
	}
	return result(b.w.SetActive(bid, active))
}

func (b *Bridge) SetGravity(x, y, z float64) any {
	b.w.SetGravity(mgl32.Vec3{float32(x), float32(y), float32(z)})
	return true
}

// Update advances the world by dt seconds.
func (b *Bridge) Update(dt float64) any {
	return result(b.w.Update(float32(dt)))
}

func (b *Bridge) CheckCollision(x, y, z, radius float64) bool {
	return b.w.CheckCollision(float32(x), float32(y), float32(z), float32(radius))
}

// Body returns one body as an object, or an error object for unknown ids.
func (b *Bridge) Body(id float64) any {
	bid, err := idOf(id)
	if err != nil {
		return fail(err)
	}
	body, err := b.w.Get(bid)
	if err != nil {
		return fail(err)
	}
	return bodyObject(body)
}

// Bodies returns every body in insertion order.
func (b *Bridge) Bodies() []any {
	out := make([]any, 0, b.w.Len())
	for body := range b.w.Bodies() {
		out = append(out, bodyObject(body))
	}
	return out
}

// Positions returns x,y,z,radius for every active body packed in one flat slice, which is
// cheaper to copy into a typed array each frame than Bodies.
func (b *Bridge) Positions() []any {
	out := make([]any, 0, 4*b.w.Len())
	for body := range b.w.Active() {
		out = append(out, float64(body.Position[0]), float64(body.Position[1]), float64(body.Position[2]), float64(body.Radius))
	}
	return out
}

func (b *Bridge) Stats() map[string]any {
	s := b.w.Stats()
	return map[string]any{
		"bodies":   b.w.Len(),
		"active":   s.Active,
		"contacts": s.Contacts,
		"subSteps": s.SubSteps,
	}
}

// LoadScenario parses YAML text, applies it to the world and returns named ids.
func (b *Bridge) LoadScenario(text string) any {
	sc, err := scenario.Parse([]byte(text))
	if err != nil {
		return fail(err)
	}
	ids, err := sc.Apply(b.w)
	if err != nil {
		return fail(err)
	}
	out := make(map[string]any, len(ids))
	for name, id := range ids {
		out[name] = float64(id)
	}
	return out
}

func bodyObject(b physics.Body) map[string]any {
	mass := float64(b.Mass)
	if b.Static() {
		mass = 0
	}
	return map[string]any{
		"id":       float64(b.ID),
		"position": []any{float64(b.Position[0]), float64(b.Position[1]), float64(b.Position[2])},
		"velocity": []any{float64(b.Velocity[0]), float64(b.Velocity[1]), float64(b.Velocity[2])},
		"radius":   float64(b.Radius),
		"mass":     mass,
		"static":   b.Static(),
		"active":   b.Active,
	}
}

// idOf accepts only whole numbers in the id range; anything else names no body.
func idOf(id float64) (physics.BodyID, error) {
	if id != math.Trunc(id) || id <= 0 || id > math.MaxUint32 {
		return 0, fmt.Errorf("body %v: %w", id, physics.ErrNotFound)
	}
	return physics.BodyID(id), nil
}

func result(err error) any {
	if err != nil {
		return fail(err)
	}
	return true
}

func fail(err error) map[string]any {
	return map[string]any{"error": err.Error()}
}
