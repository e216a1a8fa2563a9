// Package scenario loads reproducible world setups from YAML: named bodies plus a fixed
// update schedule.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/jinzhu/copier"
	"gopkg.in/yaml.v3"

	"sphereworld/internal/physics"
)

// ErrDuplicateName is returned by Apply when two bodies share a name.
var ErrDuplicateName = errors.New("duplicate body name")

// Scenario is the YAML definition of a run (e.g. scenarios/drop.yaml).
type Scenario struct {
	Name string `yaml:"name,omitempty"`
	// Gravity overrides the configured gravity when set.
	Gravity *[3]float32 `yaml:"gravity,omitempty"`
	Steps   int         `yaml:"steps"`
	DT      float32     `yaml:"dt"`
	Bodies  []BodySpec  `yaml:"bodies"`
}

// BodySpec describes one sphere. Mass defaults to 1; Static overrides Mass.
type BodySpec struct {
	Name     string     `yaml:"name,omitempty"`
	Position [3]float32 `yaml:"position"`
	Velocity [3]float32 `yaml:"velocity,omitempty"`
	Radius   float32    `yaml:"radius"`
	Mass     float32    `yaml:"mass,omitempty"`
	Static   bool       `yaml:"static,omitempty"`
	Inactive bool       `yaml:"inactive,omitempty"`
}

// Load reads a scenario file. A zero dt defaults to 1/60 s.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a scenario from YAML. A zero dt defaults to 1/60 s.
func Parse(data []byte) (*Scenario, error) {
	s := &Scenario{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, err
	}
	if s.DT == 0 {
		s.DT = 1.0 / 60
	}
	return s, nil
}

// Save writes s to path, creating the directory if needed.
func Save(path string, s *Scenario) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy, so a second world can be fed the same setup after the first
// run has been tweaked.
func (s *Scenario) Clone() (*Scenario, error) {
	out := &Scenario{}
	if err := copier.CopyWithOption(out, s, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}
	return out, nil
}

// Apply creates every body in w in file order and returns the ids of named bodies.
// On error, bodies created so far stay in w.
func (s *Scenario) Apply(w *physics.World) (map[string]physics.BodyID, error) {
	if s.Gravity != nil {
		w.SetGravity(mgl32.Vec3(*s.Gravity))
	}
	names := make(map[string]physics.BodyID)
	for i, b := range s.Bodies {
		if b.Name != "" {
			if _, dup := names[b.Name]; dup {
				return names, fmt.Errorf("body %d %q: %w", i, b.Name, ErrDuplicateName)
			}
		}
		id, err := b.create(w)
		if err != nil {
			return names, fmt.Errorf("body %d %q: %w", i, b.Name, err)
		}
		if b.Name != "" {
			names[b.Name] = id
		}
	}
	return names, nil
}

// Run advances w by the schedule. after, when non-nil, is called after every update.
func (s *Scenario) Run(w *physics.World, after func(step int) error) error {
	for i := range s.Steps {
		if err := w.Update(s.DT); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		if after != nil {
			if err := after(i); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b BodySpec) create(w *physics.World) (physics.BodyID, error) {
	mass := b.Mass
	if mass == 0 {
		mass = 1
	}
	if b.Static {
		mass = physics.StaticMass
	}
	id, err := w.Create(mgl32.Vec3(b.Position), b.Radius, mass)
	if err != nil {
		return 0, err
	}
	if b.Velocity != ([3]float32{}) {
		if err := w.SetVelocity(id, mgl32.Vec3(b.Velocity)); err != nil {
			return id, err
		}
	}
	if b.Inactive {
		if err := w.SetActive(id, false); err != nil {
			return id, err
		}
	}
	return id, nil
}
