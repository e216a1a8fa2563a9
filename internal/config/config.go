package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"sphereworld/internal/physics"
)

// DefaultPath is the config file path, relative to the process working directory.
const DefaultPath = "config/world.yaml"

// envPrefix namespaces the environment overrides read by ApplyEnv.
const envPrefix = "SPHEREWORLD_"

// ErrInvalid is returned by Validate and wraps every rejected value.
var ErrInvalid = errors.New("invalid config")

// Config is the on-disk configuration shared by the runner and the viewer.
type Config struct {
	World   WorldConfig   `yaml:"world"`
	Logging LoggingConfig `yaml:"logging"`
	Viewer  ViewerConfig  `yaml:"viewer"`
}

// WorldConfig mirrors physics.Config in a YAML friendly shape.
type WorldConfig struct {
	Gravity         [3]float32 `yaml:"gravity"`
	MaxSubStep      float32    `yaml:"max_sub_step"`
	MaxBodies       int        `yaml:"max_bodies"`
	Restitution     float32    `yaml:"restitution"`
	ResolveContacts bool       `yaml:"resolve_contacts"`
	CellSize        float32    `yaml:"cell_size"`
	Workers         int        `yaml:"workers"`
}

type LoggingConfig struct {
	File string `yaml:"file"`
	// Echo also writes log lines to the headless runner's stdout.
	Echo bool `yaml:"echo"`
}

// ViewerConfig holds window-only preferences (debug overlays, grid, frame rate).
type ViewerConfig struct {
	ShowFPS     bool  `yaml:"show_fps"`
	ShowStats   bool  `yaml:"show_stats"`
	GridVisible bool  `yaml:"grid_visible"`
	TargetFPS   int32 `yaml:"target_fps"`
}

// Default returns earth gravity, a 1/120 s sub-step cap, contact resolution on and the
// viewer grid visible.
func Default() Config {
	return Config{
		World: WorldConfig{
			Gravity:         [3]float32{0, -9.81, 0},
			MaxSubStep:      1.0 / 120,
			ResolveContacts: true,
			Restitution:     0.3,
		},
		Logging: LoggingConfig{
			File: "logs/sphereworld.txt",
		},
		Viewer: ViewerConfig{
			ShowFPS:     true,
			ShowStats:   true,
			GridVisible: true,
			TargetFPS:   60,
		},
	}
}

// Load reads path on top of Default. A missing file yields Default and no error; keys absent
// from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating the parent directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides cfg from SPHEREWORLD_* variables, e.g. SPHEREWORLD_GRAVITY="0,-1.62,0"
// or SPHEREWORLD_WORKERS=4. Unset variables are left alone.
func ApplyEnv(cfg *Config) error {
	w := &cfg.World
	if v, ok := lookup("GRAVITY"); ok {
		g, err := parseVec3(v)
		if err != nil {
			return fmt.Errorf("%sGRAVITY: %w", envPrefix, err)
		}
		w.Gravity = g
	}
	floats := []struct {
		key string
		dst *float32
	}{
		{"MAX_SUB_STEP", &w.MaxSubStep},
		{"RESTITUTION", &w.Restitution},
		{"CELL_SIZE", &w.CellSize},
	}
	for _, f := range floats {
		v, ok := lookup(f.key)
		if !ok {
			continue
		}
		n, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, f.key, err)
		}
		*f.dst = float32(n)
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"MAX_BODIES", &w.MaxBodies},
		{"WORKERS", &w.Workers},
	}
	for _, f := range ints {
		v, ok := lookup(f.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, f.key, err)
		}
		*f.dst = n
	}
	if v, ok := lookup("RESOLVE_CONTACTS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sRESOLVE_CONTACTS: %w", envPrefix, err)
		}
		w.ResolveContacts = b
	}
	if v, ok := lookup("LOG_FILE"); ok {
		cfg.Logging.File = v
	}
	return nil
}

// Validate rejects values the world would otherwise silently clamp.
func (c Config) Validate() error {
	w := c.World
	for i, g := range w.Gravity {
		if math32.IsNaN(g) || math32.IsInf(g, 0) {
			return fmt.Errorf("world.gravity[%d] = %v: %w", i, g, ErrInvalid)
		}
	}
	switch {
	case !(w.MaxSubStep >= 0) || math32.IsInf(w.MaxSubStep, 0):
		return fmt.Errorf("world.max_sub_step = %v: %w", w.MaxSubStep, ErrInvalid)
	case w.MaxBodies < 0:
		return fmt.Errorf("world.max_bodies = %d: %w", w.MaxBodies, ErrInvalid)
	case !(w.Restitution >= 0 && w.Restitution <= 1):
		return fmt.Errorf("world.restitution = %v: %w", w.Restitution, ErrInvalid)
	case !(w.CellSize >= 0) || math32.IsInf(w.CellSize, 0):
		return fmt.Errorf("world.cell_size = %v: %w", w.CellSize, ErrInvalid)
	case w.Workers < 0:
		return fmt.Errorf("world.workers = %d: %w", w.Workers, ErrInvalid)
	case c.Viewer.TargetFPS < 0:
		return fmt.Errorf("viewer.target_fps = %d: %w", c.Viewer.TargetFPS, ErrInvalid)
	}
	return nil
}

// Physics converts the world section into a physics.Config.
func (w WorldConfig) Physics() physics.Config {
	return physics.Config{
		Gravity:         mgl32.Vec3(w.Gravity),
		MaxSubStep:      w.MaxSubStep,
		MaxBodies:       w.MaxBodies,
		Restitution:     w.Restitution,
		ResolveContacts: w.ResolveContacts,
		CellSize:        w.CellSize,
		Workers:         w.Workers,
	}
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	return strings.TrimSpace(v), ok
}

func parseVec3(s string) ([3]float32, error) {
	var out [3]float32
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return out, fmt.Errorf("expected x,y,z, got %q", s)
	}
	for i, p := range parts {
		n, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return out, err
		}
		out[i] = float32(n)
	}
	return out, nil
}
