package physics

import (
	"errors"
	"iter"
	"slices"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func collectIDs(seq iter.Seq[Body]) []BodyID {
	var ids []BodyID
	for b := range seq {
		ids = append(ids, b.ID)
	}
	return ids
}

func TestStoreCreate(t *testing.T) {
	s := NewStore(0)
	id, err := s.Create(mgl32.Vec3{1, 2, 3}, 0.5, 2)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id == 0 {
		t.Fatalf("Create() returned the zero id")
	}
	b, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if b.Position != (mgl32.Vec3{1, 2, 3}) || b.Velocity != (mgl32.Vec3{}) {
		t.Errorf("Get() = %+v, want position (1,2,3) at rest", b)
	}
	if !b.Active || b.Radius != 0.5 || b.Mass != 2 {
		t.Errorf("Get() = %+v, want active radius 0.5 mass 2", b)
	}
}

func TestStoreCreateRejectsInvalidBodies(t *testing.T) {
	nan := math32.NaN()
	tests := []struct {
		name   string
		pos    mgl32.Vec3
		radius float32
		mass   float32
	}{
		{name: "zero radius", radius: 0, mass: 1},
		{name: "negative radius", radius: -1, mass: 1},
		{name: "nan radius", radius: nan, mass: 1},
		{name: "zero mass", radius: 1, mass: 0},
		{name: "negative mass", radius: 1, mass: -3},
		{name: "negative infinite mass", radius: 1, mass: -StaticMass},
		{name: "nan position", pos: mgl32.Vec3{nan, 0, 0}, radius: 1, mass: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(0)
			if _, err := s.Create(tt.pos, tt.radius, tt.mass); !errors.Is(err, ErrInvalidBody) {
				t.Fatalf("Create() error = %v, want ErrInvalidBody", err)
			}
			if s.Len() != 0 {
				t.Errorf("Len() = %d after failed Create, want 0", s.Len())
			}
		})
	}
}

func TestStoreStaticSentinel(t *testing.T) {
	s := NewStore(0)
	id, err := s.Create(mgl32.Vec3{}, 1, StaticMass)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	b, _ := s.Get(id)
	if !b.Static() {
		t.Errorf("Static() = false for StaticMass body")
	}
	if b.InvMass() != 0 {
		t.Errorf("InvMass() = %v, want 0", b.InvMass())
	}
}

func TestStoreCapacity(t *testing.T) {
	s := NewStore(2)
	a, _ := s.Create(mgl32.Vec3{}, 1, 1)
	if _, err := s.Create(mgl32.Vec3{}, 1, 1); err != nil {
		t.Fatalf("second Create() error = %v", err)
	}
	if _, err := s.Create(mgl32.Vec3{}, 1, 1); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("third Create() error = %v, want ErrCapacityExceeded", err)
	}
	if err := s.Remove(a); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := s.Create(mgl32.Vec3{}, 1, 1); err != nil {
		t.Fatalf("Create() after Remove error = %v", err)
	}
}

func TestStoreRemove(t *testing.T) {
	s := NewStore(0)
	id, _ := s.Create(mgl32.Vec3{}, 1, 1)
	if err := s.Remove(id); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := s.Remove(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove() error = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Remove error = %v, want ErrNotFound", err)
	}
	if err := s.SetVelocity(id, mgl32.Vec3{1, 0, 0}); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetVelocity() after Remove error = %v, want ErrNotFound", err)
	}
	if err := s.SetActive(id, false); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetActive() after Remove error = %v, want ErrNotFound", err)
	}
	if err := s.Remove(BodyID(999)); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestStoreIDsAreNotReused(t *testing.T) {
	s := NewStore(0)
	seen := make(map[BodyID]bool)
	for range 50 {
		id, err := s.Create(mgl32.Vec3{}, 1, 1)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if seen[id] {
			t.Fatalf("id %d issued twice", id)
		}
		seen[id] = true
		if err := s.Remove(id); err != nil {
			t.Fatalf("Remove() error = %v", err)
		}
	}
}

func TestStoreIterationOrder(t *testing.T) {
	s := NewStore(0)
	var ids []BodyID
	for i := range 10 {
		id, _ := s.Create(mgl32.Vec3{float32(i), 0, 0}, 1, 1)
		ids = append(ids, id)
	}
	// Removing more than half forces compaction; order must survive it.
	var want []BodyID
	for i, id := range ids {
		if i%3 == 0 {
			want = append(want, id)
			continue
		}
		if err := s.Remove(id); err != nil {
			t.Fatalf("Remove() error = %v", err)
		}
	}
	if got := collectIDs(s.Active()); !slices.Equal(got, want) {
		t.Fatalf("Active() = %v, want %v", got, want)
	}
	for _, id := range want {
		if _, err := s.Get(id); err != nil {
			t.Errorf("Get(%d) after compaction error = %v", id, err)
		}
	}

	if err := s.SetActive(want[1], false); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	if got := collectIDs(s.Active()); slices.Contains(got, want[1]) {
		t.Errorf("Active() = %v, should skip inactive %d", got, want[1])
	}
	if got := collectIDs(s.All()); !slices.Equal(got, want) {
		t.Errorf("All() = %v, want %v", got, want)
	}

	// Restartable: a second scan sees the same sequence.
	if a, b := collectIDs(s.All()), collectIDs(s.All()); !slices.Equal(a, b) {
		t.Errorf("two scans differ: %v vs %v", a, b)
	}
}

func TestStoreDeferredRemoval(t *testing.T) {
	s := NewStore(0)
	a, _ := s.Create(mgl32.Vec3{}, 1, 1)
	b, _ := s.Create(mgl32.Vec3{}, 1, 1)

	s.beginStep()
	if err := s.Remove(a); err != nil {
		t.Fatalf("Remove() during step error = %v", err)
	}
	if err := s.Remove(a); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove() during step error = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(a); err != nil {
		t.Errorf("Get() of doomed body during step error = %v, want still present", err)
	}
	c, err := s.Create(mgl32.Vec3{}, 1, 1)
	if err != nil {
		t.Fatalf("Create() during step error = %v", err)
	}
	if got := collectIDs(s.Active()); !slices.Equal(got, []BodyID{a, b}) {
		t.Errorf("Active() during step = %v, want %v", got, []BodyID{a, b})
	}
	s.endStep()

	if _, err := s.Get(a); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after step error = %v, want ErrNotFound", err)
	}
	if got := collectIDs(s.Active()); !slices.Equal(got, []BodyID{b, c}) {
		t.Errorf("Active() after step = %v, want %v", got, []BodyID{b, c})
	}
}

func TestStoreSetVelocityRejectsNonFinite(t *testing.T) {
	s := NewStore(0)
	id, _ := s.Create(mgl32.Vec3{}, 1, 1)
	inf := StaticMass
	if err := s.SetVelocity(id, mgl32.Vec3{inf, 0, 0}); !errors.Is(err, ErrInvalidBody) {
		t.Fatalf("SetVelocity(inf) error = %v, want ErrInvalidBody", err)
	}
	b, _ := s.Get(id)
	if b.Velocity != (mgl32.Vec3{}) {
		t.Errorf("velocity = %v after rejected SetVelocity, want zero", b.Velocity)
	}
}
