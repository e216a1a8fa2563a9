// Command viewer opens a window onto a running world. ESC toggles the console
// ("cmd help" lists commands), SPACE pauses and N single-steps while paused.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"sphereworld/internal/commands"
	"sphereworld/internal/config"
	"sphereworld/internal/debug"
	"sphereworld/internal/env"
	"sphereworld/internal/graphics"
	"sphereworld/internal/logger"
	"sphereworld/internal/mapgen"
	"sphereworld/internal/physics"
	"sphereworld/internal/scene"
	"sphereworld/internal/scenario"
	"sphereworld/internal/terminal"
)

// maxFrameTime keeps a long stall (window drag, breakpoint) from becoming one huge update.
const maxFrameTime = 0.25

func main() {
	configPath := flag.String("config", config.DefaultPath, "YAML config file")
	scenarioRef := flag.String("scenario", "", "scenario .yaml, .zip bundle or http(s) URL (default: procedural field)")
	seed := flag.Int64("seed", 0, "field seed when no scenario is given (0 = time based)")
	fullscreen := flag.Bool("fullscreen", false, "open fullscreen")
	flag.Parse()

	if err := env.Load(".env"); err != nil {
		fmt.Fprintln(os.Stderr, "viewer:", err)
	}
	cfg, err := config.Load(*configPath)
	if err == nil {
		err = config.ApplyEnv(&cfg)
	}
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "viewer:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.File)
	w := physics.New(cfg.World.Physics())

	var sc *scenario.Scenario
	if *scenarioRef != "" {
		sc, err = scenario.Open(context.Background(), *scenarioRef, "")
		if err != nil {
			fmt.Fprintln(os.Stderr, "viewer:", err)
			os.Exit(1)
		}
	} else {
		opts := mapgen.DefaultFieldOptions()
		opts.Seed = *seed
		sc = mapgen.Scenario(opts, 0, 1.0/60)
	}
	if _, err := sc.Apply(w); err != nil {
		fmt.Fprintln(os.Stderr, "viewer:", err)
		os.Exit(1)
	}
	log.Logf("loaded %q with %d bodies", sc.Name, w.Len())

	reg := commands.NewRegistry()
	commands.RegisterWorldCommands(reg, w, log)
	term := terminal.New(log, reg)
	scn := scene.New(w)
	scn.SetGridVisible(cfg.Viewer.GridVisible)
	dbg := debug.New(w)
	dbg.SetShowFPS(cfg.Viewer.ShowFPS)
	dbg.SetShowStats(cfg.Viewer.ShowStats)

	paused := false
	update := func() {
		term.Update()
		step := false
		if !term.IsOpen() {
			scn.Update()
			if rl.IsKeyPressed(rl.KeySpace) {
				paused = !paused
				dbg.SetPaused(paused)
			}
			if rl.IsKeyPressed(rl.KeyF2) {
				scn.Wireframe = !scn.Wireframe
			}
			step = paused && rl.IsKeyPressed(rl.KeyN)
		}
		if paused && !step {
			return
		}
		dt := min(rl.GetFrameTime(), maxFrameTime)
		if step {
			dt = sc.DT
		}
		if err := w.Update(dt); err != nil {
			log.Logf("update: %v", err)
			paused = true
			dbg.SetPaused(true)
		}
	}
	draw := func() {
		scn.Draw()
		term.Draw()
		dbg.Draw()
	}

	opts := graphics.DefaultOptions()
	if *fullscreen {
		opts.Fullscreen = true
		opts.Width, opts.Height = 0, 0
	}
	opts.TargetFPS = cfg.Viewer.TargetFPS
	graphics.Run(opts, update, draw)
}
