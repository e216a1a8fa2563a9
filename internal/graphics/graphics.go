package graphics

import rl "github.com/gen2brain/raylib-go/raylib"

// Options describes the window. Zero Width/Height with Fullscreen uses the monitor size.
type Options struct {
	Title      string
	Width      int32
	Height     int32
	Fullscreen bool
	TargetFPS  int32
}

// DefaultOptions returns a 1280x720 window at 60 FPS.
func DefaultOptions() Options {
	return Options{Title: "sphereworld", Width: 1280, Height: 720, TargetFPS: 60}
}

// Run starts the window and main loop. Each frame it calls update (input, simulation), then clears
// the screen and calls draw. ESC toggles the console, so the window closes via its button.
func Run(opts Options, update, draw func()) {
	if opts.Fullscreen {
		rl.SetConfigFlags(rl.FlagFullscreenMode)
	} else {
		rl.SetConfigFlags(rl.FlagWindowResizable)
	}
	w, h := opts.Width, opts.Height
	rl.InitWindow(w, h, opts.Title)
	defer rl.CloseWindow()
	if opts.Fullscreen && (w == 0 || h == 0) {
		rl.SetWindowSize(rl.GetMonitorWidth(0), rl.GetMonitorHeight(0))
	}

	rl.SetExitKey(rl.KeyNull)
	if opts.TargetFPS > 0 {
		rl.SetTargetFPS(opts.TargetFPS)
	}

	for !rl.WindowShouldClose() {
		update()

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)
		draw()
		rl.EndDrawing()
	}
}
