package physics

import (
	"fmt"
	"iter"
	"sync"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxSubSteps caps how many sub-steps one Update may be split into.
const MaxSubSteps = 1 << 16

// parallelThreshold is the minimum slot count before integration fans out to workers.
const parallelThreshold = 1024

// Config holds the tunables of a World.
type Config struct {
	Gravity mgl32.Vec3
	// MaxSubStep splits longer deltas into equal sub-steps no larger than it. 0 disables.
	MaxSubStep float32
	// MaxBodies caps the number of live bodies. 0 means unlimited.
	MaxBodies int
	// Restitution in [0,1]: 0 is fully inelastic, 1 reflects the normal velocity.
	Restitution float32
	// ResolveContacts separates overlapping pairs after every sub-step.
	ResolveContacts bool
	// CellSize > 0 enables the uniform grid broad phase.
	CellSize float32
	// Workers > 1 splits integration across goroutines for large worlds.
	Workers int
}

// DefaultConfig returns gravity (0, -9.81, 0), no sub-step cap, no body cap and contact
// resolution off.
func DefaultConfig() Config {
	return Config{
		Gravity: mgl32.Vec3{0, -9.81, 0},
	}
}

// Stats describes the last Update.
type Stats struct {
	SubSteps int
	Contacts int
	Active   int
}

// World is a deterministic sphere simulation. Bodies are iterated in insertion order, so two
// worlds fed the same calls end in bit-identical states. A World is not safe for concurrent use.
type World struct {
	cfg       Config
	store     *Store
	grid      *grid
	gridDirty bool
	onContact func(Contact)
	stats     Stats

	pairs      []pairIndex
	candidates []int
}

// NewWorld returns an empty world with DefaultConfig.
func NewWorld() *World {
	return New(DefaultConfig())
}

// New returns an empty world using cfg. Out-of-range values are clamped.
func New(cfg Config) *World {
	w := &World{store: NewStore(cfg.MaxBodies)}
	w.SetGravity(cfg.Gravity)
	w.SetMaxSubStep(cfg.MaxSubStep)
	w.SetRestitution(cfg.Restitution)
	w.cfg.MaxBodies = cfg.MaxBodies
	w.cfg.ResolveContacts = cfg.ResolveContacts
	w.cfg.Workers = cfg.Workers
	if isFinite(cfg.CellSize) && cfg.CellSize > 0 {
		w.cfg.CellSize = cfg.CellSize
		w.grid = newGrid(cfg.CellSize)
		w.gridDirty = true
	}
	return w
}

// Config returns the effective configuration.
func (w *World) Config() Config {
	return w.cfg
}

// SetGravity sets the gravity vector read at the start of every Update. Non-finite input is ignored.
func (w *World) SetGravity(g mgl32.Vec3) {
	if finiteVec(g) {
		w.cfg.Gravity = g
	}
}

// SetMaxSubStep sets the sub-step cap; zero, negative or non-finite values disable sub-stepping.
func (w *World) SetMaxSubStep(s float32) {
	if !isFinite(s) || s < 0 {
		s = 0
	}
	w.cfg.MaxSubStep = s
}

// SetRestitution sets the contact restitution, clamped to [0,1]. NaN becomes 0.
func (w *World) SetRestitution(e float32) {
	if math32.IsNaN(e) {
		e = 0
	}
	w.cfg.Restitution = clamp(e, 0, 1)
}

// SetResolveContacts turns pairwise contact resolution on or off.
func (w *World) SetResolveContacts(on bool) {
	w.cfg.ResolveContacts = on
}

// OnContact registers fn to be called for every contact resolved during Update. fn may
// create, remove or steer bodies; removals take effect and new bodies appear once the step ends.
func (w *World) OnContact(fn func(Contact)) {
	w.onContact = fn
}

// Stats returns figures for the last Update.
func (w *World) Stats() Stats {
	return w.stats
}

// Len returns the number of live bodies.
func (w *World) Len() int {
	return w.store.Len()
}

// Create adds an active sphere at rest. Pass StaticMass for an immovable body.
func (w *World) Create(position mgl32.Vec3, radius, mass float32) (BodyID, error) {
	id, err := w.store.Create(position, radius, mass)
	if err != nil {
		return 0, err
	}
	w.gridDirty = true
	return id, nil
}

// Remove deletes a body. During Update the removal is deferred until the step completes.
func (w *World) Remove(id BodyID) error {
	if err := w.store.Remove(id); err != nil {
		return err
	}
	w.gridDirty = true
	return nil
}

// Get returns a snapshot of a body.
func (w *World) Get(id BodyID) (Body, error) {
	return w.store.Get(id)
}

// SetVelocity replaces a body's velocity.
func (w *World) SetVelocity(id BodyID, v mgl32.Vec3) error {
	return w.store.SetVelocity(id, v)
}

// SetActive toggles whether a body is integrated and collides.
func (w *World) SetActive(id BodyID, active bool) error {
	if err := w.store.SetActive(id, active); err != nil {
		return err
	}
	w.gridDirty = true
	return nil
}

// Active yields snapshots of active bodies in insertion order.
func (w *World) Active() iter.Seq[Body] {
	return w.store.Active()
}

// Bodies yields snapshots of all bodies, active or not, in insertion order.
func (w *World) Bodies() iter.Seq[Body] {
	return w.store.All()
}

// Update advances the simulation by dt seconds. A negative, NaN or infinite dt fails with
// ErrInvalidTimeStep and leaves every body untouched.
func (w *World) Update(dt float32) error {
	if !isFinite(dt) || dt < 0 {
		return fmt.Errorf("update dt=%v: %w", dt, ErrInvalidTimeStep)
	}
	if w.store.stepping {
		return ErrReentrant
	}
	steps, sub, err := w.subSteps(dt)
	if err != nil {
		return err
	}
	w.stats = Stats{}
	if dt == 0 {
		return nil
	}

	g := w.cfg.Gravity
	w.store.beginStep()
	defer func() {
		w.store.endStep()
		w.gridDirty = true
	}()

	for range steps {
		w.integrate(g, sub)
		w.gridDirty = true
		if w.cfg.ResolveContacts {
			w.stats.Contacts += w.resolve()
		}
	}
	w.stats.SubSteps = steps
	for range w.store.Active() {
		w.stats.Active++
	}
	return nil
}

// subSteps splits dt into equal slices no larger than MaxSubStep.
func (w *World) subSteps(dt float32) (int, float32, error) {
	limit := w.cfg.MaxSubStep
	if limit <= 0 || dt <= limit {
		return 1, dt, nil
	}
	n := math32.Ceil(dt / limit)
	if !isFinite(n) || n > MaxSubSteps {
		return 0, 0, fmt.Errorf("update dt=%v needs more than %d sub-steps of %v: %w", dt, MaxSubSteps, limit, ErrInvalidTimeStep)
	}
	steps := int(n)
	return steps, dt / float32(steps), nil
}

func (w *World) integrate(g mgl32.Vec3, dt float32) {
	slots := w.store.slots
	workers := w.cfg.Workers
	if workers <= 1 || len(slots) < parallelThreshold {
		integrateRange(slots, g, dt)
		return
	}
	chunk := (len(slots) + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < len(slots); lo += chunk {
		part := slots[lo:min(lo+chunk, len(slots))]
		wg.Go(func() {
			integrateRange(part, g, dt)
		})
	}
	wg.Wait()
}

// integrateRange applies one explicit Euler step. Each body touches only its own state, so
// disjoint ranges can run concurrently. The float32 conversions stop the compiler from
// fusing multiply-adds, which would make results differ between architectures.
func integrateRange(slots []slot, g mgl32.Vec3, dt float32) {
	for i := range slots {
		sl := &slots[i]
		if !sl.visible() || !sl.body.Active || sl.body.Static() {
			continue
		}
		b := &sl.body
		for k := range 3 {
			b.Velocity[k] += float32(g[k] * dt)
			b.Position[k] += float32(b.Velocity[k] * dt)
		}
	}
}

func (w *World) syncGrid() {
	if w.grid == nil || !w.gridDirty {
		return
	}
	w.grid.rebuild(w.store.slots)
	w.gridDirty = false
}
