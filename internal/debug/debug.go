package debug

import (
	"fmt"
	"runtime"

	rl "github.com/gen2brain/raylib-go/raylib"

	"sphereworld/internal/physics"
)

const (
	fpsFontSize   = 20
	fpsPadding    = 12
	fpsLineHeight = fpsFontSize + 4
	// updateInterval: only refresh overlay text every N frames to reduce allocations.
	updateInterval = 30
)

// Debug holds runtime overlays (FPS, heap, world statistics). All overlays are off by default.
type Debug struct {
	ShowFPS      bool
	ShowMemAlloc bool
	ShowStats    bool
	world        *physics.World
	paused       bool
	frameCount   uint32
	lastFpsText  string
	lastMemText  string
	lastStats    string
	lastMemStats runtime.MemStats
}

// New returns a Debug system with all overlays hidden. w feeds the statistics line.
func New(w *physics.World) *Debug {
	return &Debug{world: w}
}

// SetShowFPS sets whether the FPS counter is drawn (top-right, green).
func (d *Debug) SetShowFPS(show bool) {
	d.ShowFPS = show
}

// SetShowMemAlloc sets whether the memory allocation counter is drawn (top-right, under FPS).
func (d *Debug) SetShowMemAlloc(show bool) {
	d.ShowMemAlloc = show
}

// SetShowStats sets whether body and contact counts of the last update are drawn.
func (d *Debug) SetShowStats(show bool) {
	d.ShowStats = show
}

// SetPaused marks the statistics line as paused.
func (d *Debug) SetPaused(paused bool) {
	d.paused = paused
}

// Draw renders any enabled overlays stacked at the top-right. Call after scene and terminal.
// Text is only recomputed every updateInterval frames to limit allocations.
func (d *Debug) Draw() {
	d.frameCount++
	update := (d.frameCount % updateInterval) == 0
	if (d.ShowFPS && d.lastFpsText == "") || (d.ShowMemAlloc && d.lastMemText == "") || (d.ShowStats && d.lastStats == "") {
		update = true
	}

	y := int32(fpsPadding)
	if d.ShowFPS {
		if update {
			d.lastFpsText = fmt.Sprintf("FPS: %d", rl.GetFPS())
		}
		drawRight(d.lastFpsText, y, rl.Green)
		y += fpsLineHeight
	}
	if d.ShowMemAlloc {
		if update {
			runtime.ReadMemStats(&d.lastMemStats)
			mb := float64(d.lastMemStats.Alloc) / (1024 * 1024)
			d.lastMemText = fmt.Sprintf("Mem: %.2f MiB", mb)
		}
		drawRight(d.lastMemText, y, rl.Green)
		y += fpsLineHeight
	}
	if d.ShowStats && d.world != nil {
		if update {
			s := d.world.Stats()
			d.lastStats = fmt.Sprintf("Bodies: %d  Active: %d  Contacts: %d  Substeps: %d", d.world.Len(), s.Active, s.Contacts, s.SubSteps)
			if d.paused {
				d.lastStats += "  [paused]"
			}
		}
		drawRight(d.lastStats, y, rl.Yellow)
	}
}

func drawRight(text string, y int32, c rl.Color) {
	if text == "" {
		return
	}
	w := rl.MeasureText(text, fpsFontSize)
	x := int32(rl.GetScreenWidth()) - w - fpsPadding
	rl.DrawText(text, x, y, fpsFontSize, c)
}
