// Command sphereworld runs a scenario headless and prints the final body states.
//
//	sphereworld -scenario scenarios/drop.yaml -verify
//	sphereworld -field -seed 7 -steps 600
//	sphereworld -console < commands.txt
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"slices"

	"sphereworld/internal/commands"
	"sphereworld/internal/config"
	"sphereworld/internal/env"
	"sphereworld/internal/logger"
	"sphereworld/internal/mapgen"
	"sphereworld/internal/physics"
	"sphereworld/internal/scenario"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "sphereworld:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("sphereworld", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultPath, "YAML config file")
	envPath := fs.String("env", ".env", "dotenv file with SPHEREWORLD_* overrides")
	scenarioRef := fs.String("scenario", "", "scenario .yaml, .zip bundle or http(s) URL")
	field := fs.Bool("field", false, "generate a procedural field instead of loading a scenario")
	seed := fs.Int64("seed", 1, "field seed (0 = time based)")
	steps := fs.Int("steps", -1, "override the scenario step count")
	dt := fs.Float64("dt", 0, "override the scenario time step")
	verify := fs.Bool("verify", false, "replay in a second world and require identical results")
	console := fs.Bool("console", false, "read commands from stdin after loading")
	quiet := fs.Bool("quiet", false, "do not print final body states")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := env.Load(*envPath); err != nil {
		return fmt.Errorf("load %s: %w", *envPath, err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.New(cfg.Logging.File)
	if cfg.Logging.Echo || *console {
		log.SetEcho(stdout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sc, err := loadScenario(ctx, *scenarioRef, *field, *seed)
	if err != nil {
		return err
	}
	if *steps >= 0 {
		sc.Steps = *steps
	}
	if *dt > 0 {
		sc.DT = float32(*dt)
	}
	// Clone before anything can touch the original so the replay starts from the same input.
	var replay *scenario.Scenario
	if *verify {
		if replay, err = sc.Clone(); err != nil {
			return fmt.Errorf("clone scenario: %w", err)
		}
	}

	w := physics.New(cfg.World.Physics())
	if _, err := sc.Apply(w); err != nil {
		return err
	}
	log.Logf("loaded %q: %d bodies, %d steps of %gs", sc.Name, w.Len(), sc.Steps, sc.DT)

	contacts := 0
	err = sc.Run(w, func(step int) error {
		contacts += w.Stats().Contacts
		return ctx.Err()
	})
	if err != nil {
		return err
	}
	log.Logf("finished: %d contacts resolved", contacts)

	if *verify {
		if err := verifyReplay(cfg, replay, w); err != nil {
			return err
		}
		log.Log("verify: replay is bit-identical")
	}

	if *console {
		reg := commands.NewRegistry()
		commands.RegisterWorldCommands(reg, w, log)
		if err := runConsole(ctx, reg, log, stdin); err != nil {
			return err
		}
	}

	if !*quiet {
		for b := range w.Bodies() {
			fmt.Fprintln(stdout, commands.FormatBody(b))
		}
	}
	return nil
}

func loadScenario(ctx context.Context, ref string, field bool, seed int64) (*scenario.Scenario, error) {
	switch {
	case ref != "":
		return scenario.Open(ctx, ref, "")
	case field:
		opts := mapgen.DefaultFieldOptions()
		opts.Seed = seed
		return mapgen.Scenario(opts, 600, 1.0/60), nil
	}
	return &scenario.Scenario{Name: "empty", DT: 1.0 / 60}, nil
}

// verifyReplay runs the cloned scenario in a fresh world and compares every body bit for bit.
func verifyReplay(cfg config.Config, sc *scenario.Scenario, want *physics.World) error {
	w := physics.New(cfg.World.Physics())
	if _, err := sc.Apply(w); err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if err := sc.Run(w, nil); err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	a, b := slices.Collect(want.Bodies()), slices.Collect(w.Bodies())
	if len(a) != len(b) {
		return fmt.Errorf("verify: %d bodies, replay has %d", len(a), len(b))
	}
	for i := range a {
		if !sameBits(a[i], b[i]) {
			return fmt.Errorf("verify: body %d diverged:\n  run    %s\n  replay %s", a[i].ID, commands.FormatBody(a[i]), commands.FormatBody(b[i]))
		}
	}
	return nil
}

// sameBits compares bodies bit for bit, so -0 and +0 or differing NaN payloads count as drift.
func sameBits(a, b physics.Body) bool {
	if a.ID != b.ID || a.Active != b.Active {
		return false
	}
	fa := []float32{a.Radius, a.Mass, a.Position[0], a.Position[1], a.Position[2], a.Velocity[0], a.Velocity[1], a.Velocity[2]}
	fb := []float32{b.Radius, b.Mass, b.Position[0], b.Position[1], b.Position[2], b.Velocity[0], b.Velocity[1], b.Velocity[2]}
	for i := range fa {
		if math.Float32bits(fa[i]) != math.Float32bits(fb[i]) {
			return false
		}
	}
	return true
}

// runConsole executes one command per line. The "cmd " prefix is optional here.
func runConsole(ctx context.Context, reg *commands.Registry, log *logger.Logger, in io.Reader) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		args, ok := commands.Parse(sc.Text())
		if !ok {
			args = commands.Fields(sc.Text())
		}
		if len(args) == 0 {
			continue
		}
		if err := reg.Execute(args); err != nil {
			log.Logf("error: %v", err)
		}
	}
	return sc.Err()
}
