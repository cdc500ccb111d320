package render

import "fmt"

const (
	// InitialTiles is the pool capacity before the first growth.
	InitialTiles = 16
	// TileIncrement is how many tiles each growth adds.
	TileIncrement = 16
)

// TilePool hands out tile indices of the sparse volume. Freed tiles are
// reused, most recently freed first, before the pool grows.
type TilePool struct {
	capacity int
	free     []int
	used     []bool
	onGrow   func(capacity int)
}

// NewTilePool creates a pool of InitialTiles. onGrow, if set, runs once per
// growth with the new capacity.
func NewTilePool(onGrow func(capacity int)) *TilePool {
	p := &TilePool{onGrow: onGrow}
	p.extend(InitialTiles)
	return p
}

func (p *TilePool) extend(n int) {
	first := p.capacity
	p.capacity += n
	p.used = append(p.used, make([]bool, n)...)
	for t := p.capacity - 1; t >= first; t-- {
		p.free = append(p.free, t)
	}
}

// Acquire returns a free tile, growing the pool by TileIncrement when none
// is left. grew reports whether this call grew the pool.
func (p *TilePool) Acquire() (tile int, grew bool) {
	if len(p.free) == 0 {
		p.extend(TileIncrement)
		grew = true
		if p.onGrow != nil {
			p.onGrow(p.capacity)
		}
	}
	tile = p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	p.used[tile] = true
	return tile, grew
}

// Release returns tile to the pool. Releasing a tile that is not in use
// panics.
func (p *TilePool) Release(tile int) {
	if tile < 0 || tile >= p.capacity || !p.used[tile] {
		panic(fmt.Sprintf("render: release of tile %d not in use", tile))
	}
	p.used[tile] = false
	p.free = append(p.free, tile)
}

func (p *TilePool) Capacity() int { return p.capacity }

func (p *TilePool) InUse() int { return p.capacity - len(p.free) }
