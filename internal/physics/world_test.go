package physics

import (
	"errors"
	"slices"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func mustCreate(t *testing.T, w *World, pos mgl32.Vec3, radius, mass float32) BodyID {
	t.Helper()
	id, err := w.Create(pos, radius, mass)
	if err != nil {
		t.Fatalf("Create(%v, %v, %v) error = %v", pos, radius, mass, err)
	}
	return id
}

func mustGet(t *testing.T, w *World, id BodyID) Body {
	t.Helper()
	b, err := w.Get(id)
	if err != nil {
		t.Fatalf("Get(%d) error = %v", id, err)
	}
	return b
}

func snapshot(w *World) []Body {
	return slices.Collect(w.Bodies())
}

func TestNewWorldDefaults(t *testing.T) {
	w := NewWorld()
	cfg := w.Config()
	if cfg.Gravity != (mgl32.Vec3{0, -9.81, 0}) {
		t.Errorf("Gravity = %v, want (0,-9.81,0)", cfg.Gravity)
	}
	if cfg.MaxSubStep != 0 {
		t.Errorf("MaxSubStep = %v, want 0", cfg.MaxSubStep)
	}
	if w.Len() != 0 {
		t.Errorf("Len() = %d, want 0", w.Len())
	}
}

func TestUpdateGravityOnlyDrift(t *testing.T) {
	w := NewWorld()
	id := mustCreate(t, w, mgl32.Vec3{0, 100, 0}, 1, 1)

	if err := w.Update(1.0); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	start, g := float32(100), float32(-9.81)
	want := start + g
	b := mustGet(t, w, id)
	if b.Velocity[1] != g {
		t.Errorf("velocity.y = %v, want %v", b.Velocity[1], g)
	}
	if b.Position[1] != want {
		t.Errorf("position.y = %v, want %v", b.Position[1], want)
	}
	if b.Position[0] != 0 || b.Position[2] != 0 {
		t.Errorf("position = %v, want x and z untouched", b.Position)
	}
	if got := w.Stats().SubSteps; got != 1 {
		t.Errorf("Stats().SubSteps = %d, want 1", got)
	}
}

func TestUpdateStaticBodiesNeverMove(t *testing.T) {
	w := NewWorld()
	pos := mgl32.Vec3{3, 7, -2}
	id := mustCreate(t, w, pos, 2, StaticMass)
	if err := w.SetVelocity(id, mgl32.Vec3{5, 5, 5}); err != nil {
		t.Fatalf("SetVelocity() error = %v", err)
	}
	for range 100 {
		if err := w.Update(0.05); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
	}
	if got := mustGet(t, w, id).Position; got != pos {
		t.Errorf("static position = %v, want %v", got, pos)
	}
}

func TestUpdateSkipsInactiveBodies(t *testing.T) {
	w := NewWorld()
	id := mustCreate(t, w, mgl32.Vec3{0, 10, 0}, 1, 1)
	if err := w.SetActive(id, false); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	if err := w.Update(1); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	b := mustGet(t, w, id)
	if b.Position != (mgl32.Vec3{0, 10, 0}) || b.Velocity != (mgl32.Vec3{}) {
		t.Errorf("inactive body moved: %+v", b)
	}
	if w.CheckCollision(0, 10, 0, 0.5) {
		t.Errorf("CheckCollision() hit an inactive body")
	}
}

func TestUpdateRejectsInvalidTimeSteps(t *testing.T) {
	tests := []struct {
		name string
		dt   float32
	}{
		{name: "negative", dt: -1},
		{name: "nan", dt: math32.NaN()},
		{name: "positive infinity", dt: math32.Inf(1)},
		{name: "negative infinity", dt: math32.Inf(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWorld()
			mustCreate(t, w, mgl32.Vec3{0, 100, 0}, 1, 1)
			id := mustCreate(t, w, mgl32.Vec3{5, 0, 0}, 1, 1)
			if err := w.SetVelocity(id, mgl32.Vec3{1, 2, 3}); err != nil {
				t.Fatalf("SetVelocity() error = %v", err)
			}
			before := snapshot(w)

			if err := w.Update(tt.dt); !errors.Is(err, ErrInvalidTimeStep) {
				t.Fatalf("Update(%v) error = %v, want ErrInvalidTimeStep", tt.dt, err)
			}
			if after := snapshot(w); !slices.Equal(before, after) {
				t.Errorf("state changed after rejected Update:\nbefore %+v\nafter  %+v", before, after)
			}
			// The world stays usable.
			if err := w.Update(0.1); err != nil {
				t.Errorf("Update(0.1) after failure error = %v", err)
			}
		})
	}
}

func TestUpdateZeroIsNoOp(t *testing.T) {
	w := NewWorld()
	mustCreate(t, w, mgl32.Vec3{0, 1, 0}, 1, 1)
	before := snapshot(w)
	if err := w.Update(0); err != nil {
		t.Fatalf("Update(0) error = %v", err)
	}
	if after := snapshot(w); !slices.Equal(before, after) {
		t.Errorf("Update(0) changed state: %+v -> %+v", before, after)
	}
}

func TestUpdateSubSteps(t *testing.T) {
	tests := []struct {
		name      string
		maxSub    float32
		dt        float32
		wantSteps int
	}{
		{name: "no cap", maxSub: 0, dt: 1, wantSteps: 1},
		{name: "under cap", maxSub: 0.5, dt: 0.25, wantSteps: 1},
		{name: "equal to cap", maxSub: 0.5, dt: 0.5, wantSteps: 1},
		{name: "split in two", maxSub: 0.5, dt: 1, wantSteps: 2},
		{name: "rounds up", maxSub: 0.25, dt: 1.1, wantSteps: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.MaxSubStep = tt.maxSub
			w := New(cfg)
			mustCreate(t, w, mgl32.Vec3{}, 1, 1)
			if err := w.Update(tt.dt); err != nil {
				t.Fatalf("Update() error = %v", err)
			}
			if got := w.Stats().SubSteps; got != tt.wantSteps {
				t.Errorf("SubSteps = %d, want %d", got, tt.wantSteps)
			}
		})
	}
}

func TestUpdateSubStepsMatchManualSteps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSubStep = 0.25
	capped := New(cfg)
	manual := NewWorld()
	a := mustCreate(t, capped, mgl32.Vec3{0, 50, 0}, 1, 1)
	b := mustCreate(t, manual, mgl32.Vec3{0, 50, 0}, 1, 1)

	if err := capped.Update(1); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	for range 4 {
		if err := manual.Update(0.25); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
	}
	if ga, gb := mustGet(t, capped, a), mustGet(t, manual, b); ga.Position != gb.Position || ga.Velocity != gb.Velocity {
		t.Errorf("sub-stepped %+v != manual %+v", ga, gb)
	}
}

func TestUpdateTooManySubSteps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSubStep = 1e-6
	w := New(cfg)
	id := mustCreate(t, w, mgl32.Vec3{0, 1, 0}, 1, 1)
	if err := w.Update(10); !errors.Is(err, ErrInvalidTimeStep) {
		t.Fatalf("Update() error = %v, want ErrInvalidTimeStep", err)
	}
	if got := mustGet(t, w, id).Position; got != (mgl32.Vec3{0, 1, 0}) {
		t.Errorf("position = %v after rejected Update", got)
	}
}

func TestUpdateGravityChangeAppliesToNextUpdate(t *testing.T) {
	w := NewWorld()
	id := mustCreate(t, w, mgl32.Vec3{}, 1, 1)
	w.SetGravity(mgl32.Vec3{2, 0, 0})
	if err := w.Update(1); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got := mustGet(t, w, id).Velocity; got != (mgl32.Vec3{2, 0, 0}) {
		t.Errorf("velocity = %v, want (2,0,0)", got)
	}
}

// scriptedRun feeds the same calls into a fresh world and returns its final state.
func scriptedRun(t *testing.T, cfg Config) []Body {
	t.Helper()
	w := New(cfg)
	var ids []BodyID
	for i := range 40 {
		x := float32(i%5) * 1.5
		z := float32(i/5) * 1.5
		ids = append(ids, mustCreate(t, w, mgl32.Vec3{x, 5 + float32(i%3), z}, 0.8, 1+float32(i%4)))
	}
	mustCreate(t, w, mgl32.Vec3{3, -50, 5}, 50, StaticMass)
	for i, id := range ids {
		if i%7 == 0 {
			if err := w.SetVelocity(id, mgl32.Vec3{float32(i) * 0.1, 0, -1}); err != nil {
				t.Fatalf("SetVelocity() error = %v", err)
			}
		}
	}
	for step := range 120 {
		if err := w.Update(1.0 / 60); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if step == 30 {
			if err := w.Remove(ids[3]); err != nil {
				t.Fatalf("Remove() error = %v", err)
			}
		}
	}
	return snapshot(w)
}

func TestDeterminism(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ResolveContacts = true
	cfg.Restitution = 0.4
	cfg.MaxSubStep = 1.0 / 120

	first := scriptedRun(t, cfg)
	second := scriptedRun(t, cfg)
	if !slices.Equal(first, second) {
		t.Fatalf("two identical runs diverged")
	}
}

func TestDeterminismAcrossBroadPhases(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ResolveContacts = true
	cfg.Restitution = 0.2
	brute := scriptedRun(t, cfg)

	cfg.CellSize = 2
	gridded := scriptedRun(t, cfg)
	if !slices.Equal(brute, gridded) {
		t.Fatalf("grid broad phase changed the simulation")
	}
}

func TestParallelIntegrationMatchesSerial(t *testing.T) {
	build := func(workers int) *World {
		cfg := DefaultConfig()
		cfg.Workers = workers
		w := New(cfg)
		for i := range parallelThreshold + 37 {
			id := mustCreate(t, w, mgl32.Vec3{float32(i), float32(i % 11), 0}, 0.1, 1)
			if err := w.SetVelocity(id, mgl32.Vec3{0, float32(i%5) - 2, 1}); err != nil {
				t.Fatalf("SetVelocity() error = %v", err)
			}
		}
		return w
	}
	serial, parallel := build(1), build(4)
	for range 10 {
		if err := serial.Update(0.02); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if err := parallel.Update(0.02); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
	}
	if !slices.Equal(snapshot(serial), snapshot(parallel)) {
		t.Fatalf("parallel integration diverged from serial")
	}
}

func TestRemovalDuringStepIsIsolated(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ResolveContacts = true

	w := New(cfg)
	a := mustCreate(t, w, mgl32.Vec3{0, 0, 0}, 1, 1)
	mustCreate(t, w, mgl32.Vec3{1.5, 0, 0}, 1, 1)
	c := mustCreate(t, w, mgl32.Vec3{100, 40, 0}, 1, 1)
	if err := w.SetVelocity(c, mgl32.Vec3{1, 0, 0}); err != nil {
		t.Fatalf("SetVelocity() error = %v", err)
	}

	removed := false
	w.OnContact(func(ct Contact) {
		if removed {
			return
		}
		if ct.A != a && ct.B != a {
			t.Errorf("unexpected contact %+v", ct)
			return
		}
		if err := w.Remove(a); err != nil {
			t.Errorf("Remove() during step error = %v", err)
		}
		if _, err := w.Get(a); err != nil {
			t.Errorf("Get() during step error = %v, want body still present", err)
		}
		removed = true
	})

	reference := New(cfg)
	rc := mustCreate(t, reference, mgl32.Vec3{100, 40, 0}, 1, 1)
	if err := reference.SetVelocity(rc, mgl32.Vec3{1, 0, 0}); err != nil {
		t.Fatalf("SetVelocity() error = %v", err)
	}

	if err := w.Update(0.1); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := reference.Update(0.1); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if !removed {
		t.Fatalf("contact listener never fired")
	}
	if got, want := mustGet(t, w, c), mustGet(t, reference, rc); got.Position != want.Position || got.Velocity != want.Velocity {
		t.Errorf("bystander = %+v, want %+v", got, want)
	}
	if _, err := w.Get(a); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after step error = %v, want ErrNotFound", err)
	}
	for b := range w.Bodies() {
		if b.ID == a {
			t.Errorf("removed body still iterated")
		}
	}
	if w.Len() != 2 {
		t.Errorf("Len() = %d, want 2", w.Len())
	}
}

func TestCreateDuringStepAppearsAfterStep(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ResolveContacts = true
	w := New(cfg)
	mustCreate(t, w, mgl32.Vec3{0, 0, 0}, 1, 1)
	mustCreate(t, w, mgl32.Vec3{1, 0, 0}, 1, 1)

	var spawned BodyID
	w.OnContact(func(Contact) {
		if spawned != 0 {
			return
		}
		id, err := w.Create(mgl32.Vec3{0, 20, 0}, 0.5, 1)
		if err != nil {
			t.Errorf("Create() during step error = %v", err)
			return
		}
		spawned = id
		if w.CheckCollision(0, 20, 0, 0.1) {
			t.Errorf("body created mid-step is already collidable")
		}
	})
	if err := w.Update(0.1); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if spawned == 0 {
		t.Fatalf("contact listener never fired")
	}
	b := mustGet(t, w, spawned)
	if b.Position != (mgl32.Vec3{0, 20, 0}) {
		t.Errorf("spawned body integrated during its creation step: %v", b.Position)
	}
	if !w.CheckCollision(0, 20, 0, 0.1) {
		t.Errorf("spawned body not collidable after step")
	}
}

func TestSetRestitutionClamps(t *testing.T) {
	w := NewWorld()
	tests := []struct {
		in, want float32
	}{
		{in: -1, want: 0},
		{in: 0.3, want: 0.3},
		{in: 4, want: 1},
		{in: math32.NaN(), want: 0},
	}
	for _, tt := range tests {
		w.SetRestitution(tt.in)
		if got := w.Config().Restitution; got != tt.want {
			t.Errorf("SetRestitution(%v) -> %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStatsCountsActiveBodies(t *testing.T) {
	w := NewWorld()
	mustCreate(t, w, mgl32.Vec3{}, 1, 1)
	id := mustCreate(t, w, mgl32.Vec3{5, 0, 0}, 1, 1)
	if err := w.SetActive(id, false); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	if err := w.Update(0.1); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got := w.Stats().Active; got != 1 {
		t.Errorf("Stats().Active = %d, want 1", got)
	}
}

func TestUpdateFromListenerIsRejected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ResolveContacts = true
	w := New(cfg)
	mustCreate(t, w, mgl32.Vec3{}, 1, 1)
	mustCreate(t, w, mgl32.Vec3{1, 0, 0}, 1, 1)
	var nested error
	w.OnContact(func(Contact) {
		nested = w.Update(0.1)
	})
	if err := w.Update(0.1); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !errors.Is(nested, ErrReentrant) {
		t.Errorf("nested Update() error = %v, want ErrReentrant", nested)
	}
	if err := w.Update(0.1); err != nil {
		t.Errorf("Update() after listener error = %v", err)
	}
}
