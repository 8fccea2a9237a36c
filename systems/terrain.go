package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/colony/config"
)

// Terrain is the canyon heightmap the rover route is projected onto.
// The colony sits on the canyon floor along the z axis.
type Terrain struct {
	cfg   config.TerrainConfig
	noise *PerlinNoise
}

// NewTerrain creates a terrain whose grit layer is seeded by seed.
func NewTerrain(cfg config.TerrainConfig, seed int64) *Terrain {
	return &Terrain{cfg: cfg, noise: NewPerlinNoise(seed)}
}

// Height returns the ground height at world x/z.
// Points off the map return the canyon floor depth.
func (t *Terrain) Height(x, z float64) float64 {
	half := t.cfg.Size / 2
	if math.Abs(x) > half || math.Abs(z) > half {
		return t.cfg.CanyonDepth
	}

	h := t.profile(math.Abs(x))

	// Ripples run in plane coordinates, where the plane's y is world -z.
	pz := -z
	for _, r := range t.cfg.Ridges {
		if r.Scale == 0 {
			continue
		}
		h += r.Magnitude * math.Sin(x/r.Scale+pz/(r.Scale/2))
	}

	if t.cfg.GritMagnitude != 0 && t.cfg.GritScale > 0 {
		h += t.cfg.GritMagnitude * t.noise.Noise2D(x/t.cfg.GritScale, z/t.cfg.GritScale)
	}
	return h
}

// profile is the canyon cross-section: flat floor, walls rising to zero at the rim.
func (t *Terrain) profile(dist float64) float64 {
	floorHalf := t.cfg.FloorWidth / 2
	topHalf := t.cfg.TopWidth / 2
	switch {
	case dist < floorHalf:
		return t.cfg.CanyonDepth
	case dist < topHalf:
		progress := (dist - floorHalf) / (topHalf - floorHalf)
		return t.cfg.CanyonDepth - t.cfg.CanyonDepth*math.Pow(progress, t.cfg.WallExponent)
	default:
		return 0
	}
}

// PerlinNoise generates coherent noise values.
type PerlinNoise struct {
	perm [512]int
}

// NewPerlinNoise creates a new Perlin noise generator.
func NewPerlinNoise(seed int64) *PerlinNoise {
	p := &PerlinNoise{}
	rng := rand.New(rand.NewSource(seed))

	var perm [256]int
	for i := range perm {
		perm[i] = i
	}
	rng.Shuffle(len(perm), func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })

	for i := 0; i < 256; i++ {
		p.perm[i] = perm[i]
		p.perm[i+256] = perm[i]
	}
	return p
}

// Noise2D returns a noise value in roughly [-1, 1] for 2D coordinates.
func (p *PerlinNoise) Noise2D(x, y float64) float64 {
	X := int(math.Floor(x)) & 255
	Y := int(math.Floor(y)) & 255
	x -= math.Floor(x)
	y -= math.Floor(y)

	u := fade(x)
	v := fade(y)

	aa := p.perm[p.perm[X]+Y]
	ab := p.perm[p.perm[X]+Y+1]
	ba := p.perm[p.perm[X+1]+Y]
	bb := p.perm[p.perm[X+1]+Y+1]

	return mix(v,
		mix(u, grad2D(aa, x, y), grad2D(ba, x-1, y)),
		mix(u, grad2D(ab, x, y-1), grad2D(bb, x-1, y-1)),
	)
}

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func mix(t, a, b float64) float64 {
	return a + t*(b-a)
}

func grad2D(hash int, x, y float64) float64 {
	switch hash & 3 {
	case 0:
		return x + y
	case 1:
		return -x + y
	case 2:
		return x - y
	default:
		return -x - y
	}
}
