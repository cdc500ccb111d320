// Package registry describes the block types known to the game.
package registry

import (
	"context"
	"fmt"
	"io/fs"

	"voxelshade/internal/atlas"
	"voxelshade/internal/config"
	"voxelshade/internal/voxel"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// BlockDefinition defines the properties of a block type.
type BlockDefinition struct {
	ID    voxel.BlockID
	Name  string
	Faces atlas.Faces
	// Emissive blocks give every exposed face a point light of LightColor.
	Emissive   bool
	LightColor mgl32.Vec3
}

// Registry maps block IDs and names to definitions. Registration order is
// preserved and decides atlas rows.
type Registry struct {
	blocks map[voxel.BlockID]*BlockDefinition
	names  map[string]voxel.BlockID
	order  []voxel.BlockID
}

func New() *Registry {
	return &Registry{
		blocks: make(map[voxel.BlockID]*BlockDefinition),
		names:  make(map[string]voxel.BlockID),
	}
}

// Register adds def. Air cannot be registered and IDs and names must be
// unique.
func (r *Registry) Register(def BlockDefinition) error {
	if def.ID == voxel.Air {
		return fmt.Errorf("block %q: id 0 is reserved for air", def.Name)
	}
	if _, ok := r.blocks[def.ID]; ok {
		return fmt.Errorf("block %q: id %d already registered", def.Name, def.ID)
	}
	if _, ok := r.names[def.Name]; ok {
		return fmt.Errorf("block %q: name already registered", def.Name)
	}
	d := def
	r.blocks[def.ID] = &d
	r.names[def.Name] = def.ID
	r.order = append(r.order, def.ID)
	return nil
}

func (r *Registry) Get(id voxel.BlockID) (*BlockDefinition, bool) {
	d, ok := r.blocks[id]
	return d, ok
}

func (r *Registry) ByName(name string) (voxel.BlockID, bool) {
	id, ok := r.names[name]
	return id, ok
}

// Definitions returns every definition in registration order.
func (r *Registry) Definitions() []*BlockDefinition {
	out := make([]*BlockDefinition, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.blocks[id])
	}
	return out
}

// Emission returns the light color of an emissive block.
func (r *Registry) Emission(id voxel.BlockID) (mgl32.Vec3, bool) {
	d, ok := r.blocks[id]
	if !ok || !d.Emissive {
		return mgl32.Vec3{}, false
	}
	return d.LightColor, true
}

// BuildAtlas registers every block's faces with an atlas builder reading
// from fsys and packs the result.
func (r *Registry) BuildAtlas(ctx context.Context, fsys fs.FS, log *zap.Logger) (*atlas.Atlas, error) {
	b := atlas.NewBuilder(fsys, log)
	for _, d := range r.Definitions() {
		b.Add(d.ID, d.Faces)
	}
	a, err := b.Finish(ctx)
	if err != nil {
		return nil, fmt.Errorf("build atlas: %w", err)
	}
	return a, nil
}

// Default returns the stock block set.
func Default() *Registry {
	r := New()
	defs := []BlockDefinition{
		{ID: voxel.Grass, Name: "grass", Faces: atlas.SideFaces("grass_top.png", "grass_side.png", "dirt.png")},
		{ID: voxel.Dirt, Name: "dirt", Faces: atlas.AllFaces("dirt.png")},
		{ID: voxel.Cobblestone, Name: "cobblestone", Faces: atlas.AllFaces("cobblestone.png")},
		{ID: voxel.Stone, Name: "stone", Faces: atlas.AllFaces("stone.png")},
		{ID: voxel.Bedrock, Name: "bedrock", Faces: atlas.AllFaces("bedrock.png")},
		{ID: voxel.Glowstone, Name: "glowstone", Faces: atlas.AllFaces("glowstone.png"), Emissive: true, LightColor: mgl32.Vec3{1, 0.85, 0.55}},
	}
	for _, d := range defs {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
	return r
}

// FromConfig builds a registry from configured blocks, or the stock set
// when blocks is empty.
func FromConfig(blocks []config.Block) (*Registry, error) {
	if len(blocks) == 0 {
		return Default(), nil
	}
	r := New()
	for _, b := range blocks {
		faces, err := resolveFaces(b.Faces)
		if err != nil {
			return nil, fmt.Errorf("block %q: %w", b.Name, err)
		}
		err = r.Register(BlockDefinition{
			ID:         voxel.BlockID(b.ID),
			Name:       b.Name,
			Faces:      faces,
			Emissive:   b.Emissive,
			LightColor: mgl32.Vec3(b.LightColor),
		})
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

func resolveFaces(f config.Faces) (atlas.Faces, error) {
	out := atlas.AllFaces(f.All)
	if f.Side != "" {
		for _, o := range []voxel.Orientation{voxel.Forward, voxel.Right, voxel.Backward, voxel.Left} {
			out[o] = f.Side
		}
	}
	for o, name := range map[voxel.Orientation]string{
		voxel.Top:      f.Top,
		voxel.Bottom:   f.Bottom,
		voxel.Forward:  f.Forward,
		voxel.Right:    f.Right,
		voxel.Backward: f.Backward,
		voxel.Left:     f.Left,
	} {
		if name != "" {
			out[o] = name
		}
	}
	for _, o := range voxel.Orientations {
		if out[o] == "" {
			return out, fmt.Errorf("no image for %s face", o)
		}
	}
	return out, nil
}
