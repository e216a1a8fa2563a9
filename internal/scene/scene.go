package scene

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"sphereworld/internal/physics"
)

const (
	gridExtent     = 50
	gridMinorStep  = 1
	gridMajorStep  = 10
	gridMinorAlpha = 50
	gridMajorAlpha = 120
	axisLineAlpha  = 220
	sphereRings    = 12
	sphereSlices   = 12
)

var (
	// Reused every frame to avoid per-body color allocations.
	dynamicColor  = rl.NewColor(230, 160, 60, 255)
	staticColor   = rl.NewColor(110, 120, 135, 255)
	inactiveColor = rl.NewColor(90, 90, 90, 140)
)

// Scene holds a 3D camera and draws the bodies of a physics world. Update runs camera logic
// (free camera); Draw renders between BeginMode3D and EndMode3D.
type Scene struct {
	Camera      rl.Camera3D
	GridVisible bool
	// Wireframe draws sphere outlines only, which stays fast with thousands of bodies.
	Wireframe  bool
	world      *physics.World
	cursorDone bool
}

// New returns a scene drawing w with a perspective camera looking at the origin.
// Camera: position (10,10,10), target (0,0,0), up (0,1,0), fovy 45°. Grid is visible by default.
func New(w *physics.World) *Scene {
	s := &Scene{world: w}
	s.Camera.Position = rl.NewVector3(10, 10, 10)
	s.Camera.Target = rl.NewVector3(0, 0, 0)
	s.Camera.Up = rl.NewVector3(0, 1, 0)
	s.Camera.Fovy = 45
	s.Camera.Projection = rl.CameraPerspective
	s.GridVisible = true
	return s
}

// SetGridVisible sets whether the editor grid is drawn.
func (s *Scene) SetGridVisible(visible bool) {
	s.GridVisible = visible
}

// Update runs once per frame. Uses raylib UpdateCamera with CameraFree so the user can
// move the camera with mouse (zoom, pan) and keyboard. Cursor is disabled so the mouse
// is captured for camera control.
func (s *Scene) Update() {
	if !s.cursorDone {
		rl.DisableCursor()
		s.cursorDone = true
	}
	rl.UpdateCamera(&s.Camera, rl.CameraFree)
}

// Draw renders the grid (when GridVisible) and every body, coloured by kind:
// orange for dynamic, slate for static and translucent grey for inactive.
func (s *Scene) Draw() {
	rl.BeginMode3D(s.Camera)
	if s.GridVisible {
		drawEditorGrid()
	}
	var center rl.Vector3
	for b := range s.world.Bodies() {
		center.X, center.Y, center.Z = b.Position[0], b.Position[1], b.Position[2]
		c := bodyColor(b)
		if s.Wireframe || !b.Active {
			rl.DrawSphereWires(center, b.Radius, sphereRings, sphereSlices, c)
			continue
		}
		rl.DrawSphereEx(center, b.Radius, sphereRings, sphereSlices, c)
	}
	rl.EndMode3D()
}

func bodyColor(b physics.Body) rl.Color {
	switch {
	case !b.Active:
		return inactiveColor
	case b.Static():
		return staticColor
	default:
		return dynamicColor
	}
}

// drawEditorGrid draws an infinite-style grid on the XZ plane with major/minor lines and axis lines.
// Reuses start/end vectors to avoid per-frame allocations in the hot loop.
func drawEditorGrid() {
	minor := rl.NewColor(128, 128, 128, gridMinorAlpha)
	major := rl.NewColor(160, 160, 160, gridMajorAlpha)
	axisX := rl.NewColor(220, 80, 80, axisLineAlpha)
	axisY := rl.NewColor(80, 220, 80, axisLineAlpha)
	axisZ := rl.NewColor(80, 80, 220, axisLineAlpha)

	var start, end rl.Vector3
	for x := -gridExtent; x <= gridExtent; x += gridMinorStep {
		c := major
		if x%gridMajorStep != 0 {
			c = minor
		}
		start.X, start.Y, start.Z = float32(x), 0, float32(-gridExtent)
		end.X, end.Y, end.Z = float32(x), 0, float32(gridExtent)
		rl.DrawLine3D(start, end, c)
	}
	for z := -gridExtent; z <= gridExtent; z += gridMinorStep {
		c := major
		if z%gridMajorStep != 0 {
			c = minor
		}
		start.X, start.Y, start.Z = float32(-gridExtent), 0, float32(z)
		end.X, end.Y, end.Z = float32(gridExtent), 0, float32(z)
		rl.DrawLine3D(start, end, c)
	}

	// Axis lines through origin (X=red, Y=green, Z=blue)
	start.X, start.Y, start.Z = float32(-gridExtent), 0, 0
	end.X, end.Y, end.Z = float32(gridExtent), 0, 0
	rl.DrawLine3D(start, end, axisX)
	start.X, start.Y, start.Z = 0, float32(-gridExtent), 0
	end.X, end.Y, end.Z = 0, float32(gridExtent), 0
	rl.DrawLine3D(start, end, axisY)
	start.X, start.Y, start.Z = 0, 0, float32(-gridExtent)
	end.X, end.Y, end.Z = 0, 0, float32(gridExtent)
	rl.DrawLine3D(start, end, axisZ)
}
