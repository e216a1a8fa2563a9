package mapgen

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/chewxy/math32"

	"sphereworld/internal/scenario"
)

// FieldOptions controls procedural field generation.
// Width/Depth are in tiles; TileSize is the world size of one tile on X/Z and the diameter
// of each terrain sphere. HeightScale is the maximum terrain height in world units.
// Seed controls randomness; Seed == 0 uses a time-based seed.
// Octaves, Frequency, Lacunarity, and Gain control the fractal noise shape.
// Drops dynamic spheres of DropRadius are scattered between DropHeight and twice that.
type FieldOptions struct {
	Width       int
	Depth       int
	TileSize    float32
	HeightScale float32

	Seed       int64
	Octaves    int
	Frequency  float32
	Lacunarity float32
	Gain       float32

	Drops      int
	DropRadius float32
	DropHeight float32
}

// DefaultFieldOptions returns a sane default configuration.
func DefaultFieldOptions() FieldOptions {
	return FieldOptions{
		Width:       16,
		Depth:       16,
		TileSize:    1.0,
		HeightScale: 3.0,
		Seed:        0,
		Octaves:     4,
		Frequency:   0.08,
		Lacunarity:  2.0,
		Gain:        0.5,
		Drops:       64,
		DropRadius:  0.3,
		DropHeight:  6,
	}
}

// GenerateField builds a terrain of static spheres whose tops follow fractal noise, followed
// by a cloud of dynamic spheres above it. Bodies are centered around the world origin on XZ.
// The same non-zero seed always yields the same bodies in the same order.
func GenerateField(opts FieldOptions) []scenario.BodySpec {
	if opts.Width <= 0 || opts.Depth <= 0 {
		return nil
	}
	if opts.TileSize <= 0 {
		opts.TileSize = 1
	}
	if opts.HeightScale <= 0 {
		opts.HeightScale = 1
	}
	if opts.Octaves <= 0 {
		opts.Octaves = 1
	}
	if opts.Frequency <= 0 {
		opts.Frequency = 0.05
	}
	if opts.Lacunarity <= 0 {
		opts.Lacunarity = 2.0
	}
	if opts.Gain <= 0 {
		opts.Gain = 0.5
	}
	if opts.DropRadius <= 0 {
		opts.DropRadius = opts.TileSize * 0.25
	}
	if opts.DropHeight <= 0 {
		opts.DropHeight = opts.HeightScale * 2
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	// First sphere center is at (-extentX + halfTile, -extentZ + halfTile).
	halfTile := opts.TileSize * 0.5
	extentX := float32(opts.Width) * opts.TileSize * 0.5
	extentZ := float32(opts.Depth) * opts.TileSize * 0.5
	startX := -extentX + halfTile
	startZ := -extentZ + halfTile

	bodies := make([]scenario.BodySpec, 0, opts.Width*opts.Depth+max(opts.Drops, 0))

	baseFreq := opts.Frequency
	for z := 0; z < opts.Depth; z++ {
		for x := 0; x < opts.Width; x++ {
			nx := float32(x)
			nz := float32(z)
			h := fractalValueNoise2D(nx*baseFreq, nz*baseFreq, seed, opts.Octaves, opts.Lacunarity, opts.Gain)
			// Map [0,1] noise to [minHeight, HeightScale].
			minHeight := float32(0.15)
			height := minHeight + h*(opts.HeightScale-minHeight)
			if !isFinite(height) || height <= 0 {
				height = minHeight
			}

			bodies = append(bodies, scenario.BodySpec{
				Name: fmt.Sprintf("terrain-%d-%d", x, z),
				Position: [3]float32{
					startX + float32(x)*opts.TileSize,
					height - halfTile, // top of the sphere at height
					startZ + float32(z)*opts.TileSize,
				},
				Radius: halfTile,
				Static: true,
			})
		}
	}

	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < opts.Drops; i++ {
		bodies = append(bodies, scenario.BodySpec{
			Name: fmt.Sprintf("drop-%d", i),
			Position: [3]float32{
				(rng.Float32()*2 - 1) * (extentX - opts.DropRadius),
				opts.DropHeight * (1 + rng.Float32()),
				(rng.Float32()*2 - 1) * (extentZ - opts.DropRadius),
			},
			Radius: opts.DropRadius,
			Mass:   0.5 + rng.Float32(),
		})
	}
	return bodies
}

// Scenario wraps GenerateField in a runnable scenario.
func Scenario(opts FieldOptions, steps int, dt float32) *scenario.Scenario {
	return &scenario.Scenario{
		Name:   fmt.Sprintf("field-%dx%d-seed%d", opts.Width, opts.Depth, opts.Seed),
		Steps:  steps,
		DT:     dt,
		Bodies: GenerateField(opts),
	}
}

// fractalValueNoise2D is simple fractal value noise: layered smooth value noise with
// configurable octaves, lacunarity, and gain. Output is in [0,1].
func fractalValueNoise2D(x, y float32, seed int64, octaves int, lacunarity, gain float32) float32 {
	var sum float32
	var amplitude float32 = 1
	var maxAmp float32 = 0
	freq := float32(1)

	for i := 0; i < octaves; i++ {
		n := valueNoise2D(x*freq, y*freq, int32(seed)+int32(i))
		sum += n * amplitude
		maxAmp += amplitude
		amplitude *= gain
		freq *= lacunarity
	}
	if maxAmp == 0 {
		return 0
	}
	return sum / maxAmp
}

// valueNoise2D is smooth value noise in [0,1] using a hash-based lattice and cubic easing.
func valueNoise2D(x, y float32, seed int32) float32 {
	x0 := int32(math32.Floor(x))
	y0 := int32(math32.Floor(y))
	tx := x - float32(x0)
	ty := y - float32(y0)

	v00 := hash2D(x0, y0, seed)
	v10 := hash2D(x0+1, y0, seed)
	v01 := hash2D(x0, y0+1, seed)
	v11 := hash2D(x0+1, y0+1, seed)

	sx := smoothStep(tx)
	sy := smoothStep(ty)

	ix0 := lerp(v00, v10, sx)
	ix1 := lerp(v01, v11, sx)
	return lerp(ix0, ix1, sy)
}

// hash2D maps integer lattice coordinates to a deterministic pseudo-random float in [0,1].
func hash2D(x, y, seed int32) float32 {
	n := x*374761393 + y*668265263 + seed*362437
	n = (n ^ (n >> 13)) * 1274126177
	n = n ^ (n >> 16)
	const invMaxInt = 1.0 / 2147483647.0
	return float32(n&0x7fffffff) * float32(invMaxInt)
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// smoothStep is Perlin-style cubic easing: 3t^2 - 2t^3.
func smoothStep(t float32) float32 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

func isFinite(f float32) bool {
	return !math32.IsNaN(f) && !math32.IsInf(f, 0)
}
