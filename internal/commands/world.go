package commands

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"sphereworld/internal/logger"
	"sphereworld/internal/physics"
)

// RegisterWorldCommands adds the console commands that drive w. Results are written to log.
//
//	cmd spawn -pos 0,5,0 -radius 0.5 -mass 1 [-vel 1,0,0] [-static]
//	cmd remove <id>
//	cmd velocity <id> <x,y,z>
//	cmd active <id> <true|false>
//	cmd step [-dt 0.016] [-n 1]
//	cmd probe -pos 0,0,0 [-radius 0]
//	cmd gravity [x,y,z]
//	cmd list [-all]
//	cmd stats
//	cmd help [command]
func RegisterWorldCommands(reg *Registry, w *physics.World, log *logger.Logger) {
	{
		fs := newFlagSet("spawn")
		pos := vec3Flag(fs, "pos", mgl32.Vec3{}, "center x,y,z")
		vel := vec3Flag(fs, "vel", mgl32.Vec3{}, "initial velocity x,y,z")
		radius := fs.Float64("radius", 0.5, "sphere radius")
		mass := fs.Float64("mass", 1, "mass")
		static := fs.Bool("static", false, "immovable body")
		reg.Register("spawn", fs, func() error {
			m := float32(*mass)
			if *static {
				m = physics.StaticMass
			}
			id, err := w.Create(*pos, float32(*radius), m)
			if err != nil {
				return err
			}
			if *vel != (mgl32.Vec3{}) {
				if err := w.SetVelocity(id, *vel); err != nil {
					return err
				}
			}
			log.Logf("spawned body %d", id)
			return nil
		})
	}
	{
		fs := newFlagSet("remove")
		reg.Register("remove", fs, func() error {
			id, err := idArg(fs, 1)
			if err != nil {
				return err
			}
			if err := w.Remove(id); err != nil {
				return err
			}
			log.Logf("removed body %d", id)
			return nil
		})
	}
	{
		fs := newFlagSet("velocity")
		reg.Register("velocity", fs, func() error {
			id, err := idArg(fs, 2)
			if err != nil {
				return err
			}
			v, err := parseVec3(fs.Arg(1))
			if err != nil {
				return err
			}
			return w.SetVelocity(id, v)
		})
	}
	{
		fs := newFlagSet("active")
		reg.Register("active", fs, func() error {
			id, err := idArg(fs, 2)
			if err != nil {
				return err
			}
			on, err := strconv.ParseBool(fs.Arg(1))
			if err != nil {
				return err
			}
			return w.SetActive(id, on)
		})
	}
	{
		fs := newFlagSet("step")
		dt := fs.Float64("dt", 1.0/60, "seconds per update")
		n := fs.Int("n", 1, "number of updates")
		reg.Register("step", fs, func() error {
			contacts := 0
			for range *n {
				if err := w.Update(float32(*dt)); err != nil {
					return err
				}
				contacts += w.Stats().Contacts
			}
			log.Logf("stepped %d x %gs, %d contacts", *n, *dt, contacts)
			return nil
		})
	}
	{
		fs := newFlagSet("probe")
		pos := vec3Flag(fs, "pos", mgl32.Vec3{}, "probe center x,y,z")
		radius := fs.Float64("radius", 0, "probe radius")
		reg.Register("probe", fs, func() error {
			hit := w.CheckCollision(pos[0], pos[1], pos[2], float32(*radius))
			log.Logf("probe %s r=%g: %t", formatVec3(*pos), *radius, hit)
			return nil
		})
	}
	{
		fs := newFlagSet("gravity")
		reg.Register("gravity", fs, func() error {
			if fs.NArg() > 0 {
				g, err := parseVec3(fs.Arg(0))
				if err != nil {
					return err
				}
				w.SetGravity(g)
			}
			log.Logf("gravity %s", formatVec3(w.Config().Gravity))
			return nil
		})
	}
	{
		fs := newFlagSet("list")
		all := fs.Bool("all", false, "include inactive bodies")
		reg.Register("list", fs, func() error {
			seq := w.Active()
			if *all {
				seq = w.Bodies()
			}
			for b := range seq {
				log.Log(FormatBody(b))
			}
			return nil
		})
	}
	{
		fs := newFlagSet("stats")
		reg.Register("stats", fs, func() error {
			s := w.Stats()
			log.Logf("bodies=%d active=%d substeps=%d contacts=%d", w.Len(), s.Active, s.SubSteps, s.Contacts)
			return nil
		})
	}
	{
		fs := newFlagSet("help")
		reg.Register("help", fs, func() error {
			if fs.NArg() == 0 {
				log.Logf("commands: %s", strings.Join(reg.Names(), ", "))
				return nil
			}
			usage, err := reg.Usage(fs.Arg(0))
			if err != nil {
				return err
			}
			log.Log(usage)
			return nil
		})
	}
}

// FormatBody renders a body as one console line.
func FormatBody(b physics.Body) string {
	kind := "dynamic"
	if b.Static() {
		kind = "static"
	}
	if !b.Active {
		kind += ",inactive"
	}
	return fmt.Sprintf("#%d %s pos=%s vel=%s r=%g m=%g", b.ID, kind, formatVec3(b.Position), formatVec3(b.Velocity), b.Radius, b.Mass)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func idArg(fs *flag.FlagSet, want int) (physics.BodyID, error) {
	if fs.NArg() != want {
		return 0, fmt.Errorf("%s: expected %d arguments, got %d", fs.Name(), want, fs.NArg())
	}
	n, err := strconv.ParseUint(fs.Arg(0), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%s: bad id %q", fs.Name(), fs.Arg(0))
	}
	return physics.BodyID(n), nil
}

// vec3Value is a flag.Value for "x,y,z".
type vec3Value mgl32.Vec3

func vec3Flag(fs *flag.FlagSet, name string, def mgl32.Vec3, usage string) *mgl32.Vec3 {
	v := def
	fs.Var((*vec3Value)(&v), name, usage)
	return &v
}

func (v *vec3Value) String() string {
	return formatVec3(mgl32.Vec3(*v))
}

func (v *vec3Value) Set(s string) error {
	p, err := parseVec3(s)
	if err != nil {
		return err
	}
	*v = vec3Value(p)
	return nil
}

func parseVec3(s string) (mgl32.Vec3, error) {
	var out mgl32.Vec3
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return out, fmt.Errorf("expected x,y,z, got %q", s)
	}
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return out, fmt.Errorf("expected x,y,z, got %q", s)
		}
		out[i] = float32(f)
	}
	return out, nil
}

func formatVec3(v mgl32.Vec3) string {
	return strconv.FormatFloat(float64(v[0]), 'g', -1, 32) + "," +
		strconv.FormatFloat(float64(v[1]), 'g', -1, 32) + "," +
		strconv.FormatFloat(float64(v[2]), 'g', -1, 32)
}
