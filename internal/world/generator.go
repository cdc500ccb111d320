package world

import (
	"fmt"
	"math"

	"voxelshade/internal/voxel"

	"github.com/aquilax/go-perlin"
)

// Generator fills a freshly created chunk.
type Generator interface {
	Populate(c *Chunk)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(c *Chunk)

func (f GeneratorFunc) Populate(c *Chunk) { f(c) }

// Empty leaves chunks as air.
var Empty Generator = GeneratorFunc(func(*Chunk) {})

// NewGenerator returns the generator registered under name: "layered",
// "perlin" or "empty".
func NewGenerator(name string, seed int64) (Generator, error) {
	switch name {
	case "layered", "":
		return LayeredGenerator{}, nil
	case "perlin":
		return NewPerlinGenerator(seed), nil
	case "empty":
		return Empty, nil
	}
	return nil, fmt.Errorf("unknown generator %q", name)
}

// LayeredGenerator produces flat strata keyed on world Y.
type LayeredGenerator struct{}

// BlockAt returns the stratum at world height y.
func (LayeredGenerator) BlockAt(y int) voxel.BlockID {
	switch {
	case y < -64:
		return voxel.Bedrock
	case y < 0:
		return voxel.Stone
	case y < 3:
		return voxel.Dirt
	case y < 4:
		return voxel.Grass
	default:
		return voxel.Air
	}
}

func (g LayeredGenerator) Populate(c *Chunk) {
	origin := c.Origin()
	for ly := 0; ly < voxel.ChunkHeight; ly++ {
		id := g.BlockAt(origin.Y + ly)
		if id == voxel.Air {
			continue
		}
		for lx := 0; lx < voxel.ChunkWidth; lx++ {
			for lz := 0; lz < voxel.ChunkDepth; lz++ {
				c.Set(lx, ly, lz, voxel.BlockData{ID: id})
			}
		}
	}
}

// PerlinGenerator builds rolling hills from a 2D Perlin heightmap.
type PerlinGenerator struct {
	noise      *perlin.Perlin
	scale      float64
	baseHeight int
	amp        float64
}

// NewPerlinGenerator creates a heightmap generator for seed.
func NewPerlinGenerator(seed int64) *PerlinGenerator {
	return &PerlinGenerator{
		noise:      perlin.NewPerlin(2, 2, 3, seed),
		scale:      1.0 / 48.0,
		baseHeight: 4,
		amp:        12,
	}
}

// HeightAt returns the first air block above the surface at world X,Z.
func (g *PerlinGenerator) HeightAt(worldX, worldZ int) int {
	n := g.noise.Noise2D(float64(worldX)*g.scale, float64(worldZ)*g.scale)
	return g.baseHeight + int(math.Floor(n*g.amp))
}

func (g *PerlinGenerator) Populate(c *Chunk) {
	origin := c.Origin()
	for lx := 0; lx < voxel.ChunkWidth; lx++ {
		for lz := 0; lz < voxel.ChunkDepth; lz++ {
			h := g.HeightAt(origin.X+lx, origin.Z+lz)
			for ly := 0; ly < voxel.ChunkHeight; ly++ {
				y := origin.Y + ly
				var id voxel.BlockID
				switch {
				case y >= h:
					continue
				case y < -64:
					id = voxel.Bedrock
				case y < h-4:
					id = voxel.Stone
				case y < h-1:
					id = voxel.Dirt
				default:
					id = voxel.Grass
				}
				c.Set(lx, ly, lz, voxel.BlockData{ID: id})
			}
		}
	}
}
